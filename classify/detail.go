package classify

import (
	"context"
	"fmt"
)

// TxDetail is a decoded transaction as the chain client reports it. Values
// are satoshis; Address fields are empty when the script does not pay a
// single P2PKH address.
type TxDetail struct {
	TxID          string
	BlockHeight   uint64 // 0 while unconfirmed
	Confirmations uint64
	Time          int64 // unix seconds
	Inputs        []TxIn
	Outputs       []TxOut
}

// TxIn is one transaction input. The spending address is present when the
// chain client could attribute it directly; otherwise it is resolved through
// a PrevoutResolver, one hop, from the referenced previous output.
type TxIn struct {
	PrevTxID string
	PrevVout uint32
	Coinbase bool
	Address  string
}

// TxOut is one transaction output.
type TxOut struct {
	Index   uint32
	Value   uint64
	Address string
}

// PrevoutResolver fetches a previous transaction so an input's spending
// address can be read from the referenced output's script.
type PrevoutResolver interface {
	TransactionDetail(ctx context.Context, txid string) (*TxDetail, error)
}

// BatchResolver memoizes previous-transaction lookups for the lifetime of one
// history scan, so inputs referencing the same transaction cost one fetch.
// Only successful lookups are cached; a failed fetch is retried if the same
// transaction comes up again. Not safe for concurrent use; create one per
// scan.
type BatchResolver struct {
	inner PrevoutResolver
	cache map[string]*TxDetail
}

var _ PrevoutResolver = (*BatchResolver)(nil)

// NewBatchResolver wraps inner with a per-batch cache keyed by txid.
func NewBatchResolver(inner PrevoutResolver) *BatchResolver {
	return &BatchResolver{
		inner: inner,
		cache: make(map[string]*TxDetail),
	}
}

// TransactionDetail implements PrevoutResolver.
func (b *BatchResolver) TransactionDetail(ctx context.Context, txid string) (*TxDetail, error) {
	if detail, ok := b.cache[txid]; ok {
		return detail, nil
	}
	detail, err := b.inner.TransactionDetail(ctx, txid)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrLookupFailed, txid, err)
	}
	b.cache[txid] = detail
	return detail, nil
}
