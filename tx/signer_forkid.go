package tx

import (
	"fmt"

	"github.com/bsv-blockchain/go-sdk/script"
	"github.com/bsv-blockchain/go-sdk/transaction"
	sighash "github.com/bsv-blockchain/go-sdk/transaction/sighash"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
)

// ForkIdSigner assembles signatures by hand for networks whose hash type
// carries the fork-id replay bit. Per input it computes the signature digest
// with the custom hash type, signs it, DER-encodes the (r, s) pair itself,
// appends the hash-type byte, and attaches the P2PKH unlocking script
// <sig+hashtype> <compressed pubkey> directly.
type ForkIdSigner struct {
	sigHashType byte
}

var _ Signer = (*ForkIdSigner)(nil)

// Name implements Signer.
func (s *ForkIdSigner) Name() string { return "fork-id" }

// Sign implements Signer.
func (s *ForkIdSigner) Sign(stx *transaction.Transaction, key *ec.PrivateKey) error {
	if stx == nil || key == nil {
		return fmt.Errorf("%w: transaction and key", ErrNilParam)
	}

	shf := sighash.Flag(s.sigHashType)
	pubKey := key.PubKey().Compressed()

	for i := range stx.Inputs {
		digest, err := stx.CalcInputSignatureHash(uint32(i), shf)
		if err != nil {
			return fmt.Errorf("%w: sighash for input %d: %w", ErrSigningFailed, i, err)
		}

		sig, err := key.Sign(digest)
		if err != nil {
			return fmt.Errorf("%w: input %d: %w", ErrSigningFailed, i, err)
		}

		sigBytes := append(encodeDER(sig.R, sig.S), s.sigHashType)

		unlockScript := &script.Script{}
		if err := unlockScript.AppendPushData(sigBytes); err != nil {
			return fmt.Errorf("%w: push signature for input %d: %w", ErrScriptBuild, i, err)
		}
		if err := unlockScript.AppendPushData(pubKey); err != nil {
			return fmt.Errorf("%w: push pubkey for input %d: %w", ErrScriptBuild, i, err)
		}

		stx.Inputs[i].UnlockingScript = unlockScript
	}
	return nil
}
