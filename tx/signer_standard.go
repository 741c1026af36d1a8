package tx

import (
	"fmt"

	"github.com/bsv-blockchain/go-sdk/transaction"
	sighash "github.com/bsv-blockchain/go-sdk/transaction/sighash"
	"github.com/bsv-blockchain/go-sdk/transaction/template/p2pkh"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
)

// StandardSigner signs through the SDK's P2PKH unlocking templates with the
// network's hash type whitelisted per input, then runs a whole-transaction
// sign pass.
type StandardSigner struct {
	sigHashType byte
}

var _ Signer = (*StandardSigner)(nil)

// Name implements Signer.
func (s *StandardSigner) Name() string { return "standard" }

// Sign implements Signer.
func (s *StandardSigner) Sign(stx *transaction.Transaction, key *ec.PrivateKey) error {
	if stx == nil || key == nil {
		return fmt.Errorf("%w: transaction and key", ErrNilParam)
	}

	shf := sighash.Flag(s.sigHashType)
	for i := range stx.Inputs {
		unlocker, err := p2pkh.Unlock(key, &shf)
		if err != nil {
			return fmt.Errorf("%w: failed to create unlocker for input %d: %w", ErrSigningFailed, i, err)
		}
		stx.Inputs[i].UnlockingScriptTemplate = unlocker
	}

	if err := stx.Sign(); err != nil {
		return fmt.Errorf("%w: %w", ErrSigningFailed, err)
	}
	return nil
}
