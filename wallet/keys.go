package wallet

import (
	"bytes"
	"crypto/sha256"
	"fmt"

	base58 "github.com/bsv-blockchain/go-sdk/compat/base58"
	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	bsvhash "github.com/bsv-blockchain/go-sdk/primitives/hash"
)

const (
	// PubKeyHashLen is the length of a HASH160 public key hash.
	PubKeyHashLen = 20

	// PrivKeyLen is the length of a raw secp256k1 private key.
	PrivKeyLen = 32

	// CompressedPubKeyLen is the length of a compressed secp256k1 public key.
	CompressedPubKeyLen = 33

	// wifCompressedFlag marks a WIF as encoding a compressed public key.
	wifCompressedFlag = 0x01

	// addrChecksumLen is the base58check checksum length.
	addrChecksumLen = 4
)

// AddressFromPublicKey derives the P2PKH address of a compressed public key
// under the given network's address version byte.
func AddressFromPublicKey(pub *ec.PublicKey, params *NetworkParams) (string, error) {
	if pub == nil {
		return "", fmt.Errorf("%w: nil public key", ErrInvalidKey)
	}
	if params == nil {
		return "", fmt.Errorf("%w: nil network params", ErrInvalidNetwork)
	}
	return base58CheckEncode(params.AddressVersion, bsvhash.Hash160(pub.Compressed())), nil
}

// AddressFromPublicKeyHash encodes a raw 20-byte public key hash as a P2PKH
// address under the given network's address version byte.
func AddressFromPublicKeyHash(pubKeyHash []byte, params *NetworkParams) (string, error) {
	if len(pubKeyHash) != PubKeyHashLen {
		return "", fmt.Errorf("%w: public key hash must be %d bytes, got %d",
			ErrInvalidAddress, PubKeyHashLen, len(pubKeyHash))
	}
	if params == nil {
		return "", fmt.Errorf("%w: nil network params", ErrInvalidNetwork)
	}
	return base58CheckEncode(params.AddressVersion, pubKeyHash), nil
}

// DecodeAddress decodes a P2PKH address and returns its public key hash.
// The address must carry the network's P2PKH version byte; script-hash
// addresses and addresses from other networks are rejected.
func DecodeAddress(address string, params *NetworkParams) ([]byte, error) {
	if params == nil {
		return nil, fmt.Errorf("%w: nil network params", ErrInvalidNetwork)
	}
	version, payload, err := base58CheckDecode(address)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrInvalidAddress, address, err)
	}
	if version != params.AddressVersion {
		return nil, fmt.Errorf("%w: %q: version byte %#02x does not match network %q (%#02x)",
			ErrInvalidAddress, address, version, params.Name, params.AddressVersion)
	}
	if len(payload) != PubKeyHashLen {
		return nil, fmt.Errorf("%w: %q: payload is %d bytes, want %d",
			ErrInvalidAddress, address, len(payload), PubKeyHashLen)
	}
	return payload, nil
}

// ValidAddress reports whether address is a well-formed P2PKH address for the
// given network.
func ValidAddress(address string, params *NetworkParams) bool {
	_, err := DecodeAddress(address, params)
	return err == nil
}

// EncodeWIF encodes a private key in Wallet Import Format under the network's
// WIF version byte. The compressed flag is always set; the engine derives
// compressed public keys only.
func EncodeWIF(priv *ec.PrivateKey, params *NetworkParams) (string, error) {
	if priv == nil {
		return "", fmt.Errorf("%w: nil private key", ErrInvalidKey)
	}
	if params == nil {
		return "", fmt.Errorf("%w: nil network params", ErrInvalidNetwork)
	}
	payload := make([]byte, 0, PrivKeyLen+1)
	payload = append(payload, priv.Serialize()...)
	payload = append(payload, wifCompressedFlag)
	return base58CheckEncode(params.WIFVersion, payload), nil
}

// DecodeWIF decodes a Wallet Import Format private key. The WIF must carry
// the network's version byte. Both compressed (33-byte payload) and legacy
// uncompressed (32-byte payload) encodings are accepted.
func DecodeWIF(wif string, params *NetworkParams) (*ec.PrivateKey, error) {
	if params == nil {
		return nil, fmt.Errorf("%w: nil network params", ErrInvalidNetwork)
	}
	version, payload, err := base58CheckDecode(wif)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidWIF, err)
	}
	if version != params.WIFVersion {
		return nil, fmt.Errorf("%w: version byte %#02x does not match network %q (%#02x)",
			ErrInvalidWIF, version, params.Name, params.WIFVersion)
	}
	switch len(payload) {
	case PrivKeyLen:
		// Uncompressed legacy encoding.
	case PrivKeyLen + 1:
		if payload[PrivKeyLen] != wifCompressedFlag {
			return nil, fmt.Errorf("%w: invalid compression flag %#02x", ErrInvalidWIF, payload[PrivKeyLen])
		}
	default:
		return nil, fmt.Errorf("%w: payload is %d bytes", ErrInvalidWIF, len(payload))
	}
	priv, _ := ec.PrivateKeyFromBytes(payload[:PrivKeyLen])
	return priv, nil
}

// Address derives the key pair's P2PKH address on the given network.
func (kp *KeyPair) Address(params *NetworkParams) (string, error) {
	if kp == nil || kp.PublicKey == nil {
		return "", fmt.Errorf("%w: nil key pair", ErrInvalidKey)
	}
	return AddressFromPublicKey(kp.PublicKey, params)
}

// WIF encodes the key pair's private key on the given network.
func (kp *KeyPair) WIF(params *NetworkParams) (string, error) {
	if kp == nil || kp.PrivateKey == nil {
		return "", fmt.Errorf("%w: nil key pair", ErrInvalidKey)
	}
	return EncodeWIF(kp.PrivateKey, params)
}

// base58CheckEncode encodes version || payload || sha256d(version||payload)[:4].
func base58CheckEncode(version byte, payload []byte) string {
	buf := make([]byte, 0, 1+len(payload)+addrChecksumLen)
	buf = append(buf, version)
	buf = append(buf, payload...)
	buf = append(buf, checksum(buf)...)
	return base58.Encode(buf)
}

// base58CheckDecode decodes a base58check string into its version byte and
// payload, verifying the trailing checksum.
func base58CheckDecode(s string) (byte, []byte, error) {
	decoded, err := base58.Decode(s)
	if err != nil {
		return 0, nil, fmt.Errorf("base58 decode: %w", err)
	}
	if len(decoded) < 1+addrChecksumLen {
		return 0, nil, fmt.Errorf("decoded length %d too short", len(decoded))
	}
	body := decoded[:len(decoded)-addrChecksumLen]
	if !bytes.Equal(checksum(body), decoded[len(decoded)-addrChecksumLen:]) {
		return 0, nil, ErrChecksumMismatch
	}
	return body[0], body[1:], nil
}

// checksum returns the first 4 bytes of sha256(sha256(b)).
func checksum(b []byte) []byte {
	first := sha256.Sum256(b)
	second := sha256.Sum256(first[:])
	return second[:addrChecksumLen]
}
