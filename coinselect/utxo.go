package coinselect

import (
	"fmt"
	"sort"
)

// DustLimit is the default threshold below which an output is treated as
// dust: spending it costs a meaningful fraction of its own value.
const DustLimit = 546

// UTXO is an unspent transaction output as observed from the chain.
// Values are integer satoshis. A UTXO is immutable once observed; it is
// logically consumed when a built transaction references it as an input.
type UTXO struct {
	TxID          string `json:"txid"`
	Vout          uint32 `json:"vout"`
	Value         uint64 `json:"value"`
	Height        uint64 `json:"height,omitempty"` // 0 = unconfirmed
	Confirmations uint64 `json:"confirmations"`
	Address       string `json:"address,omitempty"`
	Script        string `json:"script,omitempty"` // locking script hex, when the source provides it
}

// IsDust reports whether the output's value falls below the dust threshold.
// A threshold of 0 means the default DustLimit.
func (u *UTXO) IsDust(threshold uint64) bool {
	if threshold == 0 {
		threshold = DustLimit
	}
	return u.Value < threshold
}

// IsConfirmed reports whether the output has at least minConf confirmations.
func (u *UTXO) IsConfirmed(minConf uint64) bool {
	return u.Confirmations >= minConf
}

// Outpoint returns the canonical "txid:vout" key of the output.
func (u *UTXO) Outpoint() string {
	return fmt.Sprintf("%s:%d", u.TxID, u.Vout)
}

// Sum returns the total value of the given outputs.
func Sum(utxos []UTXO) uint64 {
	var total uint64
	for i := range utxos {
		total += utxos[i].Value
	}
	return total
}

// sortedByValue returns a copy of utxos sorted by value. Ties keep a stable
// order so selection is deterministic for a given input set.
func sortedByValue(utxos []UTXO, descending bool) []UTXO {
	out := make([]UTXO, len(utxos))
	copy(out, utxos)
	sort.SliceStable(out, func(i, j int) bool {
		if descending {
			return out[i].Value > out[j].Value
		}
		return out[i].Value < out[j].Value
	})
	return out
}
