package wallet

import (
	"fmt"

	bip32 "github.com/bsv-blockchain/go-sdk/compat/bip32"
	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	chaincfg "github.com/bsv-blockchain/go-sdk/transaction/chaincfg"
)

const (
	// BIP44 path constants.
	PurposeBIP44  = 44
	CoinTypeFinch = 346

	// Chain indices.
	ExternalChain = 0 // Receive addresses
	InternalChain = 1 // Change addresses

	// MaxAddressIndex is the BIP32 non-hardened maximum.
	MaxAddressIndex = 1<<31 - 1

	// Hardened is the BIP32 hardened derivation offset.
	Hardened = 0x80000000
)

// HDWallet derives Finch spending keys from a BIP39 seed.
//
// Key hierarchy: m/44'/346'/{account}'/{chain}/{index}
// where chain 0 holds receive addresses and chain 1 holds change addresses.
type HDWallet struct {
	masterKey *bip32.ExtendedKey
	params    *NetworkParams
}

// KeyPair holds a derived public/private key pair.
type KeyPair struct {
	PrivateKey *ec.PrivateKey `json:"-"`
	PublicKey  *ec.PublicKey  `json:"public_key"`
	Path       string         `json:"path"` // Human-readable derivation path
}

// NewHDWallet creates an HDWallet from a BIP39 seed.
func NewHDWallet(seed []byte, params *NetworkParams) (*HDWallet, error) {
	if len(seed) == 0 {
		return nil, ErrInvalidSeed
	}
	if params == nil {
		params = &MainNet
	}

	// Map our NetworkParams to go-sdk chaincfg.Params for BIP32. The testnet
	// and regtest version words are shared, so everything non-mainnet maps to
	// the testnet chain config.
	var net *chaincfg.Params
	switch params.Name {
	case "mainnet":
		net = &chaincfg.MainNet
	default:
		net = &chaincfg.TestNet
	}

	masterKey, err := bip32.NewMaster(seed, net)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDerivationFailed, err)
	}

	return &HDWallet{
		masterKey: masterKey,
		params:    params,
	}, nil
}

// Params returns the wallet's network parameters.
func (w *HDWallet) Params() *NetworkParams {
	return w.params
}

// deriveAccount derives the account-level key: m/44'/346'/account'
func (w *HDWallet) deriveAccount(account uint32) (*bip32.ExtendedKey, error) {
	if account >= Hardened {
		return nil, fmt.Errorf("%w: account %d exceeds BIP32 hardened boundary", ErrIndexOutOfRange, account)
	}

	// m/44'
	purpose, err := w.masterKey.Child(PurposeBIP44 + Hardened)
	if err != nil {
		return nil, fmt.Errorf("%w: purpose derivation: %w", ErrDerivationFailed, err)
	}

	// m/44'/346'
	coinType, err := purpose.Child(CoinTypeFinch + Hardened)
	if err != nil {
		return nil, fmt.Errorf("%w: coin type derivation: %w", ErrDerivationFailed, err)
	}

	// m/44'/346'/account'
	accountKey, err := coinType.Child(account + Hardened)
	if err != nil {
		return nil, fmt.Errorf("%w: account derivation: %w", ErrDerivationFailed, err)
	}

	return accountKey, nil
}

// DeriveKey derives the spending key pair at the given account, chain, and
// address index.
//
//	chain: ExternalChain (0) for receive, InternalChain (1) for change
//	Path: m/44'/346'/account'/chain/index
func (w *HDWallet) DeriveKey(account, chain, index uint32) (*KeyPair, error) {
	if chain != ExternalChain && chain != InternalChain {
		return nil, fmt.Errorf("%w: chain must be 0 or 1, got %d", ErrIndexOutOfRange, chain)
	}
	if index > MaxAddressIndex {
		return nil, fmt.Errorf("%w: address index %d exceeds maximum", ErrIndexOutOfRange, index)
	}

	accountKey, err := w.deriveAccount(account)
	if err != nil {
		return nil, err
	}

	// m/44'/346'/account'/chain
	chainKey, err := accountKey.Child(chain)
	if err != nil {
		return nil, fmt.Errorf("%w: chain derivation: %w", ErrDerivationFailed, err)
	}

	// m/44'/346'/account'/chain/index
	childKey, err := chainKey.Child(index)
	if err != nil {
		return nil, fmt.Errorf("%w: index derivation: %w", ErrDerivationFailed, err)
	}

	return extKeyToKeyPair(childKey, fmt.Sprintf("m/44'/%d'/%d'/%d/%d", CoinTypeFinch, account, chain, index))
}

// DeriveAddress derives the P2PKH address at the given account, chain, and
// address index.
func (w *HDWallet) DeriveAddress(account, chain, index uint32) (string, error) {
	kp, err := w.DeriveKey(account, chain, index)
	if err != nil {
		return "", err
	}
	return kp.Address(w.params)
}

// extKeyToKeyPair converts a BIP32 extended key to a KeyPair.
func extKeyToKeyPair(extKey *bip32.ExtendedKey, path string) (*KeyPair, error) {
	privKey, err := extKey.ECPrivKey()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to extract EC private key: %w", ErrDerivationFailed, err)
	}

	pubKey := privKey.PubKey()
	if pubKey == nil {
		return nil, fmt.Errorf("%w: failed to derive public key", ErrDerivationFailed)
	}

	return &KeyPair{
		PrivateKey: privKey,
		PublicKey:  pubKey,
		Path:       path,
	}, nil
}
