package network

import (
	"context"

	"github.com/finchwallet/libfinch-go/classify"
	"github.com/finchwallet/libfinch-go/coinselect"
)

// MockChainService is a test double for ChainService.
// All function fields must be set before the corresponding method is called.
type MockChainService struct {
	ListUnspentFn          func(ctx context.Context, address string) ([]coinselect.UTXO, error)
	GetBestBlockHeightFn   func(ctx context.Context) (uint64, error)
	GetRawTxFn             func(ctx context.Context, txid string) ([]byte, error)
	GetTransactionDetailFn func(ctx context.Context, txid string) (*classify.TxDetail, error)
	BroadcastTxFn          func(ctx context.Context, rawTxHex string) (string, error)
	GetAddressHistoryFn    func(ctx context.Context, address string) ([]HistoryItem, error)
}

var _ ChainService = (*MockChainService)(nil)

func (m *MockChainService) ListUnspent(ctx context.Context, address string) ([]coinselect.UTXO, error) {
	return m.ListUnspentFn(ctx, address)
}
func (m *MockChainService) GetBestBlockHeight(ctx context.Context) (uint64, error) {
	return m.GetBestBlockHeightFn(ctx)
}
func (m *MockChainService) GetRawTx(ctx context.Context, txid string) ([]byte, error) {
	return m.GetRawTxFn(ctx, txid)
}
func (m *MockChainService) GetTransactionDetail(ctx context.Context, txid string) (*classify.TxDetail, error) {
	return m.GetTransactionDetailFn(ctx, txid)
}
func (m *MockChainService) BroadcastTx(ctx context.Context, rawTxHex string) (string, error) {
	return m.BroadcastTxFn(ctx, rawTxHex)
}
func (m *MockChainService) GetAddressHistory(ctx context.Context, address string) ([]HistoryItem, error) {
	return m.GetAddressHistoryFn(ctx, address)
}
