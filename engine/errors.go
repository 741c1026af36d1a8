package engine

import "errors"

var (
	// ErrNilParam indicates a nil required parameter.
	ErrNilParam = errors.New("engine: nil parameter")

	// ErrInvalidRequest indicates a malformed operation request.
	ErrInvalidRequest = errors.New("engine: invalid request")

	// ErrKeyMismatch indicates the key derived from the decrypted seed does
	// not produce the wallet's registered address.
	ErrKeyMismatch = errors.New("engine: derived key does not match wallet address")

	// ErrUTXOReserved indicates a selected output is already held by another
	// in-flight build.
	ErrUTXOReserved = errors.New("engine: utxo reserved by another build")
)
