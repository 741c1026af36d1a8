package tx

import (
	"github.com/bsv-blockchain/go-sdk/transaction"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"

	"github.com/finchwallet/libfinch-go/wallet"
)

// Signer attaches unlocking scripts to every input of an assembled
// transaction. Each input must already carry its source output (script and
// value) so the signature digest can be computed.
//
// The signer is chosen once, up front, from the network parameters: networks
// signing with plain sign-all use StandardSigner, networks requiring the
// fork-id replay bit use ForkIdSigner. There is no runtime fallback from one
// to the other; each path is a first-class, independently testable unit.
type Signer interface {
	// Name identifies the signing strategy in logs and results.
	Name() string

	// Sign computes and attaches an unlocking script for every input of stx
	// using key. stx is modified in place.
	Sign(stx *transaction.Transaction, key *ec.PrivateKey) error
}

// SignerForParams selects the signing strategy the network's sighash policy
// requires.
func SignerForParams(params *wallet.NetworkParams) Signer {
	if params.UsesForkID() {
		return &ForkIdSigner{sigHashType: params.SigHashType}
	}
	return &StandardSigner{sigHashType: params.SigHashType}
}
