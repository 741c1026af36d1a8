package network

import (
	"context"

	"github.com/finchwallet/libfinch-go/classify"
	"github.com/finchwallet/libfinch-go/coinselect"
)

// ChainService is the engine's view of a Finch node. Implementations supply
// spendable outputs, transaction data, and broadcast; the engine owns retry
// policy and never retries internally.
type ChainService interface {
	// ListUnspent returns the unspent outputs paying the given address,
	// with confirmation counts computed against the current chain tip.
	ListUnspent(ctx context.Context, address string) ([]coinselect.UTXO, error)

	// GetBestBlockHeight returns the height of the current chain tip.
	GetBestBlockHeight(ctx context.Context) (uint64, error)

	// GetRawTx returns the raw transaction bytes for the given txid.
	GetRawTx(ctx context.Context, txid string) ([]byte, error)

	// GetTransactionDetail returns the decoded transaction with per-input
	// and per-output address attribution, values in satoshis.
	GetTransactionDetail(ctx context.Context, txid string) (*classify.TxDetail, error)

	// BroadcastTx submits a raw transaction hex to the network and returns
	// the txid. Node rejections are wrapped in ErrBroadcastRejected.
	BroadcastTx(ctx context.Context, rawTxHex string) (string, error)

	// GetAddressHistory returns the transactions touching the given
	// address, oldest first, one entry per txid.
	GetAddressHistory(ctx context.Context, address string) ([]HistoryItem, error)
}

// HistoryItem is one transaction touching an address.
type HistoryItem struct {
	TxID   string `json:"txid"`
	Height uint64 `json:"height"` // 0 while unconfirmed
}
