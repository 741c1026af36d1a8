package engine

import (
	"context"
	"fmt"
)

// Balance buckets an address's unspent value in satoshis. Reserved value
// belongs to in-flight sends and is excluded from Spendable.
type Balance struct {
	Confirmed   uint64 // at or above the confirmation floor
	Unconfirmed uint64
	Reserved    uint64
	Spendable   uint64 // confirmed and not reserved
	Total       uint64
}

// Balance sums the unspent outputs of an address. An empty address reads the
// active wallet.
func (e *Engine) Balance(ctx context.Context, address string) (*Balance, error) {
	address, err := e.activeAddress(address)
	if err != nil {
		return nil, err
	}
	utxos, err := e.chain.ListUnspent(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("engine: list unspent: %w", err)
	}

	b := &Balance{}
	for i := range utxos {
		u := &utxos[i]
		b.Total += u.Value

		held := e.reserved.held(u.Outpoint())
		if held {
			b.Reserved += u.Value
		}
		if u.IsConfirmed(e.minConf) {
			b.Confirmed += u.Value
			if !held {
				b.Spendable += u.Value
			}
		} else {
			b.Unconfirmed += u.Value
		}
	}
	return b, nil
}
