package tx

import "errors"

var (
	// ErrNilParam indicates a required parameter is nil.
	ErrNilParam = errors.New("tx: required parameter is nil")

	// ErrInvalidParams indicates invalid build parameters were provided.
	ErrInvalidParams = errors.New("tx: invalid parameters")

	// ErrSigningFailed indicates a key or signature operation failed.
	ErrSigningFailed = errors.New("tx: signing failed")

	// ErrValidationFailed indicates the post-assembly structural check
	// failed. A transaction carrying this error must never be broadcast.
	ErrValidationFailed = errors.New("tx: validation failed")

	// ErrScriptBuild indicates script construction failed.
	ErrScriptBuild = errors.New("tx: script build failed")

	// ErrMissingSource indicates an input's previous output could not be
	// resolved, so its signature digest cannot be computed.
	ErrMissingSource = errors.New("tx: missing source output")
)
