// Package tx assembles, signs, and validates raw Finch payment transactions.
// The build path consumes a coin selection, produces a serialized transaction
// paying one destination plus optional change, and proves its own output
// re-parses cleanly before anything reaches broadcast.
package tx

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/bsv-blockchain/go-sdk/chainhash"
	"github.com/bsv-blockchain/go-sdk/script"
	"github.com/bsv-blockchain/go-sdk/transaction"
	"github.com/bsv-blockchain/go-sdk/transaction/template/p2pkh"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"

	"github.com/finchwallet/libfinch-go/coinselect"
	"github.com/finchwallet/libfinch-go/wallet"
)

// Transactions are built with a fixed version and locktime.
const (
	TxVersion  = 1
	TxLockTime = 0
)

// SigningContext binds the key material to the network it signs for. The
// network parameters carry the version bytes and the sighash policy that
// picks the signing strategy.
type SigningContext struct {
	Key    *ec.PrivateKey
	Params *wallet.NetworkParams
}

// SourceResolver fetches a previous output's locking script and value for
// inputs that do not carry their own script data. The network client
// implements this against getrawtransaction.
type SourceResolver interface {
	SourceOutput(ctx context.Context, txid string, vout uint32) ([]byte, uint64, error)
}

// BuildRequest describes one payment: the selected inputs, the destination,
// and the change already computed by selection. Amounts are satoshis.
type BuildRequest struct {
	Inputs   []coinselect.UTXO
	To       string
	Amount   uint64
	ChangeTo string // required when Change > 0
	Change   uint64
}

// BuildResult is a signed, validated transaction ready for broadcast.
type BuildResult struct {
	TxID   string // display order (byte-reversed) hex
	RawTx  []byte
	Hex    string
	Size   int
	Signer string // signing strategy used
}

// Builder builds and signs payment transactions for one signing context.
type Builder struct {
	sctx     *SigningContext
	signer   Signer
	resolver SourceResolver
}

// NewBuilder creates a Builder. The signing strategy is fixed here, from the
// network parameters. resolver may be nil when every input carries its own
// script or address.
func NewBuilder(sctx *SigningContext, resolver SourceResolver) (*Builder, error) {
	if sctx == nil || sctx.Key == nil || sctx.Params == nil {
		return nil, fmt.Errorf("%w: signing context", ErrNilParam)
	}
	return &Builder{
		sctx:     sctx,
		signer:   SignerForParams(sctx.Params),
		resolver: resolver,
	}, nil
}

// Signer returns the name of the signing strategy the builder will use.
func (b *Builder) Signer() string {
	return b.signer.Name()
}

// Build assembles, signs, and validates one payment transaction.
//
// Inputs reference their previous outputs by txid (display order; the hash
// bytes are stored little-endian reversed) and output index. The destination
// output comes first; a change output back to the sender follows when
// Change > 0. After signing, the serialized bytes are re-parsed and checked:
// a transaction that fails its own structural check is never returned.
func (b *Builder) Build(ctx context.Context, req *BuildRequest) (*BuildResult, error) {
	if err := b.validateRequest(req); err != nil {
		return nil, err
	}

	stx := transaction.NewTransaction()
	stx.Version = TxVersion
	stx.LockTime = TxLockTime

	for i := range req.Inputs {
		u := &req.Inputs[i]

		sourceTxID, err := chainhash.NewHashFromHex(u.TxID)
		if err != nil {
			return nil, fmt.Errorf("%w: input %d txid %q: %w", ErrInvalidParams, i, u.TxID, err)
		}
		stx.AddInput(&transaction.TransactionInput{
			SourceTXID:       sourceTxID,
			SourceTxOutIndex: u.Vout,
			SequenceNumber:   transaction.DefaultSequenceNumber,
		})

		lockingScript, value, err := b.sourceOutputFor(ctx, u)
		if err != nil {
			return nil, fmt.Errorf("input %d: %w", i, err)
		}
		stx.Inputs[i].SetSourceTxOutput(&transaction.TransactionOutput{
			Satoshis:      value,
			LockingScript: script.NewFromBytes(lockingScript),
		})
	}

	destScript, err := b.lockScriptForAddress(req.To)
	if err != nil {
		return nil, fmt.Errorf("destination: %w", err)
	}
	stx.AddOutput(&transaction.TransactionOutput{
		Satoshis:      req.Amount,
		LockingScript: destScript,
	})

	if req.Change > 0 {
		changeScript, err := b.lockScriptForAddress(req.ChangeTo)
		if err != nil {
			return nil, fmt.Errorf("change: %w", err)
		}
		stx.AddOutput(&transaction.TransactionOutput{
			Satoshis:      req.Change,
			LockingScript: changeScript,
		})
	}

	if err := b.signer.Sign(stx, b.sctx.Key); err != nil {
		return nil, err
	}

	raw := stx.Bytes()
	txID := stx.TxID().String()

	if err := validateSigned(raw, len(stx.Inputs), len(stx.Outputs), txID); err != nil {
		return nil, err
	}

	return &BuildResult{
		TxID:   txID,
		RawTx:  raw,
		Hex:    stx.Hex(),
		Size:   len(raw),
		Signer: b.signer.Name(),
	}, nil
}

// validateRequest rejects requests that cannot produce a well-formed payment.
func (b *Builder) validateRequest(req *BuildRequest) error {
	if req == nil {
		return fmt.Errorf("%w: build request", ErrNilParam)
	}
	if len(req.Inputs) == 0 {
		return fmt.Errorf("%w: no inputs", ErrInvalidParams)
	}
	if req.Amount == 0 {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidParams)
	}
	if _, err := wallet.DecodeAddress(req.To, b.sctx.Params); err != nil {
		return fmt.Errorf("%w: destination address: %w", ErrInvalidParams, err)
	}
	if req.Change > 0 {
		if req.ChangeTo == "" {
			return fmt.Errorf("%w: change address required for change %d", ErrInvalidParams, req.Change)
		}
		if _, err := wallet.DecodeAddress(req.ChangeTo, b.sctx.Params); err != nil {
			return fmt.Errorf("%w: change address: %w", ErrInvalidParams, err)
		}
	}
	return nil
}

// sourceOutputFor resolves the previous output an input spends. Script data
// carried on the UTXO wins; otherwise the script is derived from the UTXO's
// address; otherwise the resolver fetches the previous transaction.
func (b *Builder) sourceOutputFor(ctx context.Context, u *coinselect.UTXO) ([]byte, uint64, error) {
	if u.Script != "" {
		raw, err := hex.DecodeString(u.Script)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: script hex: %w", ErrInvalidParams, err)
		}
		return raw, u.Value, nil
	}

	if u.Address != "" {
		ls, err := b.lockScriptForAddress(u.Address)
		if err != nil {
			return nil, 0, err
		}
		return []byte(*ls), u.Value, nil
	}

	if b.resolver != nil {
		raw, value, err := b.resolver.SourceOutput(ctx, u.TxID, u.Vout)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: %s:%d: %w", ErrMissingSource, u.TxID, u.Vout, err)
		}
		if u.Value != 0 && value != u.Value {
			return nil, 0, fmt.Errorf("%w: %s:%d carries value %d but the chain reports %d",
				ErrInvalidParams, u.TxID, u.Vout, u.Value, value)
		}
		return raw, value, nil
	}

	return nil, 0, fmt.Errorf("%w: %s:%d has no script, address, or resolver", ErrMissingSource, u.TxID, u.Vout)
}

// lockScriptForAddress builds the P2PKH locking script paying the given
// address. The address must decode under the builder's network parameters.
func (b *Builder) lockScriptForAddress(address string) (*script.Script, error) {
	pubKeyHash, err := wallet.DecodeAddress(address, b.sctx.Params)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScriptBuild, err)
	}
	addr, err := script.NewAddressFromPublicKeyHash(pubKeyHash, b.sctx.Params.Name == "mainnet")
	if err != nil {
		return nil, fmt.Errorf("%w: address from hash: %w", ErrScriptBuild, err)
	}
	lockScript, err := p2pkh.Lock(addr)
	if err != nil {
		return nil, fmt.Errorf("%w: P2PKH lock: %w", ErrScriptBuild, err)
	}
	return lockScript, nil
}
