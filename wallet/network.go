// Package wallet implements the key, address, and network primitives for the
// Finch ledger: network parameter sets (version bytes and sighash policy),
// WIF and P2PKH address encoding, BIP39/BIP44 key derivation, and the
// address-ownership snapshot consumed by transaction classification.
package wallet

import (
	"encoding/json"
	"fmt"
	"os"
)

// Sighash flag bytes. Finch requires the fork-id bit on every signature so
// that signatures cannot be replayed on the chain it forked from.
const (
	SighashAll       byte = 0x01
	SighashForkID    byte = 0x40
	SighashAllForkID byte = SighashAll | SighashForkID
)

// NetworkParams defines the consensus-facing parameters of a Finch network.
// Address and WIF version bytes, the BIP32 version words, the message-signing
// prefix, and the sighash type must match the network bit-for-bit; a mismatch
// produces addresses or signatures the network will not accept.
type NetworkParams struct {
	Name           string   `json:"name"`
	AddressVersion byte     `json:"address_version"`
	P2SHVersion    byte     `json:"p2sh_version"`
	WIFVersion     byte     `json:"wif_version"`
	XPubVersion    uint32   `json:"xpub_version"`
	XPrivVersion   uint32   `json:"xpriv_version"`
	MessagePrefix  string   `json:"message_prefix"`
	SigHashType    byte     `json:"sighash_type"`
	DefaultPort    uint16   `json:"default_port"`
	RPCPort        uint16   `json:"rpc_port"`
	DNSSeeds       []string `json:"seeds"`
	GenesisHash    string   `json:"genesis_hash"`
}

// Predefined network parameter sets.
var (
	MainNet = NetworkParams{
		Name:           "mainnet",
		AddressVersion: 0x00,
		P2SHVersion:    0x05,
		WIFVersion:     0x80,
		XPubVersion:    0x0488b21e,
		XPrivVersion:   0x0488ade4,
		MessagePrefix:  "Finch Signed Message:\n",
		SigHashType:    SighashAllForkID,
		DefaultPort:    9333,
		RPCPort:        9332,
		DNSSeeds:       []string{"seed.finch.network", "dnsseed.finchwallet.io"},
		GenesisHash:    "000000000019d6689c085ae165831e934ff763ae46a2a6c172b3f1b60a8ce26f",
	}

	TestNet = NetworkParams{
		Name:           "testnet",
		AddressVersion: 0x6f,
		P2SHVersion:    0xc4,
		WIFVersion:     0xef,
		XPubVersion:    0x043587cf,
		XPrivVersion:   0x04358394,
		MessagePrefix:  "Finch Signed Message:\n",
		SigHashType:    SighashAllForkID,
		DefaultPort:    19333,
		RPCPort:        19332,
		DNSSeeds:       []string{"testnet-seed.finch.network"},
		GenesisHash:    "000000000933ea01ad0ee984209779baaec3ced90fa3f408719526f8d77f4943",
	}

	RegTest = NetworkParams{
		Name:           "regtest",
		AddressVersion: 0x6f,
		P2SHVersion:    0xc4,
		WIFVersion:     0xef,
		XPubVersion:    0x043587cf,
		XPrivVersion:   0x04358394,
		MessagePrefix:  "Finch Signed Message:\n",
		SigHashType:    SighashAllForkID,
		DefaultPort:    19444,
		RPCPort:        19443,
		DNSSeeds:       nil,
		GenesisHash:    "0f9188f13cb7b2c71f2a335e3a4fc328bf5beb436012afca590b1a11466e2206",
	}
)

// predefined maps network names to their parameter sets.
var predefined = map[string]*NetworkParams{
	"mainnet": &MainNet,
	"testnet": &TestNet,
	"regtest": &RegTest,
}

// UsesForkID reports whether signatures on this network carry the fork-id bit.
func (p *NetworkParams) UsesForkID() bool {
	return p.SigHashType&SighashForkID != 0
}

// GetNetwork returns a predefined network by name.
// If the name is not predefined, it returns ErrInvalidNetwork.
func GetNetwork(name string) (*NetworkParams, error) {
	if net, ok := predefined[name]; ok {
		return net, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrInvalidNetwork, name)
}

// LoadCustomNetwork loads a NetworkParams set from a JSON file.
func LoadCustomNetwork(path string) (*NetworkParams, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("wallet: failed to read network params: %w", err)
	}

	var params NetworkParams
	if err := json.Unmarshal(data, &params); err != nil {
		return nil, fmt.Errorf("wallet: failed to parse network params: %w", err)
	}

	if params.Name == "" {
		return nil, fmt.Errorf("%w: network params must have a name", ErrInvalidNetwork)
	}
	if params.SigHashType&SighashAll == 0 {
		return nil, fmt.Errorf("%w: sighash type %#02x lacks the sign-all bit", ErrInvalidNetwork, params.SigHashType)
	}

	return &params, nil
}
