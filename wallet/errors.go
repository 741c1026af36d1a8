package wallet

import "errors"

var (
	// ErrInvalidMnemonic indicates the mnemonic fails BIP39 validation.
	ErrInvalidMnemonic = errors.New("wallet: invalid BIP39 mnemonic")

	// ErrInvalidEntropy indicates entropy bits is not 128 or 256.
	ErrInvalidEntropy = errors.New("wallet: entropy bits must be 128 or 256")

	// ErrInvalidSeed indicates the seed is empty or invalid.
	ErrInvalidSeed = errors.New("wallet: invalid seed")

	// ErrInvalidKey indicates a nil or malformed key.
	ErrInvalidKey = errors.New("wallet: invalid key")

	// ErrInvalidAddress indicates an address that fails base58check decoding,
	// carries the wrong version byte, or has a malformed payload.
	ErrInvalidAddress = errors.New("wallet: invalid address")

	// ErrInvalidWIF indicates a WIF string that fails decoding or carries the
	// wrong version byte.
	ErrInvalidWIF = errors.New("wallet: invalid WIF")

	// ErrIndexOutOfRange indicates a derivation index exceeds its BIP32 bound.
	ErrIndexOutOfRange = errors.New("wallet: derivation index out of range")

	// ErrDecryptionFailed indicates wrong password or corrupted key material.
	ErrDecryptionFailed = errors.New("wallet: key material decryption failed (wrong password or corrupted data)")

	// ErrChecksumMismatch indicates checksum verification failed.
	ErrChecksumMismatch = errors.New("wallet: checksum mismatch")

	// ErrInvalidNetwork indicates unknown network name or malformed params.
	ErrInvalidNetwork = errors.New("wallet: invalid network")

	// ErrDerivationFailed indicates BIP32 key derivation failed.
	ErrDerivationFailed = errors.New("wallet: key derivation failed")
)
