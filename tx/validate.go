package tx

import (
	"fmt"

	"github.com/bsv-blockchain/go-sdk/transaction"
)

// validateSigned re-parses the serialized transaction and checks it against
// what the builder assembled. A failure here marks the transaction unsafe:
// the caller must not broadcast it.
func validateSigned(raw []byte, wantInputs, wantOutputs int, wantTxID string) error {
	parsed, err := transaction.NewTransactionFromBytes(raw)
	if err != nil {
		return fmt.Errorf("%w: serialized bytes do not parse: %w", ErrValidationFailed, err)
	}

	if got := len(parsed.Inputs); got != wantInputs {
		return fmt.Errorf("%w: re-parsed %d inputs, built %d", ErrValidationFailed, got, wantInputs)
	}
	if got := len(parsed.Outputs); got != wantOutputs {
		return fmt.Errorf("%w: re-parsed %d outputs, built %d", ErrValidationFailed, got, wantOutputs)
	}

	for i, in := range parsed.Inputs {
		if in.UnlockingScript == nil || len(*in.UnlockingScript) == 0 {
			return fmt.Errorf("%w: input %d has an empty unlocking script", ErrValidationFailed, i)
		}
	}

	if got := parsed.TxID().String(); got != wantTxID {
		return fmt.Errorf("%w: re-parsed txid %s, built %s", ErrValidationFailed, got, wantTxID)
	}
	return nil
}
