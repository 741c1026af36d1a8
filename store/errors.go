package store

import "errors"

var (
	// ErrNilParam indicates a required parameter is nil.
	ErrNilParam = errors.New("store: required parameter is nil")

	// ErrInvalidRecord indicates a record is missing its identity fields.
	ErrInvalidRecord = errors.New("store: invalid record")

	// ErrNotFound indicates the requested record or wallet does not exist.
	ErrNotFound = errors.New("store: not found")

	// ErrWalletExists indicates a wallet with the same name is already
	// registered.
	ErrWalletExists = errors.New("store: wallet already exists")

	// ErrNoActiveWallet indicates no wallet has been marked active.
	ErrNoActiveWallet = errors.New("store: no active wallet")
)
