package classify

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finchwallet/libfinch-go/wallet"
)

const (
	addrTarget   = "1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa"
	addrOwned    = "12c6DSiU4Rq3P4ZxziKxzrL5LmMBrzjrJX"
	addrExternal = "1BitcoinEaterAddressDontSendf59kuE"
	addrInput    = "1JqDybm2nWTENrHvMyafbSXXtTk5Uv5QAn"
)

type mockPrevoutResolver struct {
	detailFunc func(ctx context.Context, txid string) (*TxDetail, error)
	calls      int
}

func (m *mockPrevoutResolver) TransactionDetail(ctx context.Context, txid string) (*TxDetail, error) {
	m.calls++
	return m.detailFunc(ctx, txid)
}

func ownedSet() *wallet.AddressSet {
	return wallet.NewAddressSet(addrTarget, addrOwned)
}

func testDetail(inputs []TxIn, outputs []TxOut) *TxDetail {
	return &TxDetail{
		TxID:          fmt.Sprintf("%064x", 0xfeed),
		Confirmations: 3,
		Time:          1700000000,
		Inputs:        inputs,
		Outputs:       outputs,
	}
}

// An owned input with change back to the target and value to an external
// address is a send; the change is excluded from the amount.
func TestClassify_Send(t *testing.T) {
	c := NewClassifier(nil, zerolog.Nop())

	d := testDetail(
		[]TxIn{{PrevTxID: fmt.Sprintf("%064x", 1), Address: addrTarget}},
		[]TxOut{
			{Index: 0, Value: 2000, Address: addrTarget},
			{Index: 1, Value: 3000, Address: addrExternal},
		},
	)

	res := c.Classify(context.Background(), d, addrTarget, ownedSet())
	require.NotNil(t, res)
	assert.Equal(t, TypeSend, res.Type)
	assert.Equal(t, uint64(3000), res.Amount)
	assert.Equal(t, addrExternal, res.Counterparty)
	assert.Equal(t, addrTarget, res.Owner)
}

// With no owned inputs and value arriving at the target, the transaction is
// a receive and the counterparty is the resolved first input address.
func TestClassify_ReceiveResolvesInputAddress(t *testing.T) {
	prevTxID := fmt.Sprintf("%064x", 2)
	resolver := &mockPrevoutResolver{
		detailFunc: func(_ context.Context, txid string) (*TxDetail, error) {
			require.Equal(t, prevTxID, txid)
			return &TxDetail{
				TxID:    txid,
				Outputs: []TxOut{{Index: 0, Value: 9000, Address: addrInput}},
			}, nil
		},
	}
	c := NewClassifier(resolver, zerolog.Nop())

	d := testDetail(
		[]TxIn{{PrevTxID: prevTxID, PrevVout: 0}},
		[]TxOut{{Index: 0, Value: 1500, Address: addrTarget}},
	)

	res := c.Classify(context.Background(), d, addrTarget, ownedSet())
	require.NotNil(t, res)
	assert.Equal(t, TypeReceive, res.Type)
	assert.Equal(t, uint64(1500), res.Amount)
	assert.Equal(t, addrInput, res.Counterparty)
	require.Equal(t, 1, resolver.calls)
}

func TestClassify_SelfTransfer(t *testing.T) {
	c := NewClassifier(nil, zerolog.Nop())

	d := testDetail(
		[]TxIn{{PrevTxID: fmt.Sprintf("%064x", 3), Address: addrTarget}},
		[]TxOut{{Index: 0, Value: 7000, Address: addrTarget}},
	)

	res := c.Classify(context.Background(), d, addrTarget, ownedSet())
	require.NotNil(t, res)
	assert.Equal(t, TypeReceive, res.Type)
	assert.Equal(t, uint64(7000), res.Amount)
	assert.Equal(t, addrTarget, res.Counterparty, "self transfers point back at the target")
}

func TestClassify_InterWalletTransfer(t *testing.T) {
	c := NewClassifier(nil, zerolog.Nop())

	d := testDetail(
		[]TxIn{{PrevTxID: fmt.Sprintf("%064x", 4), Address: addrOwned}},
		[]TxOut{
			{Index: 0, Value: 4000, Address: addrTarget},
			{Index: 1, Value: 1000, Address: addrOwned}, // change to sender
		},
	)

	res := c.Classify(context.Background(), d, addrTarget, ownedSet())
	require.NotNil(t, res)
	assert.Equal(t, TypeReceive, res.Type)
	assert.Equal(t, uint64(4000), res.Amount)
	assert.Equal(t, addrOwned, res.Counterparty)
}

func TestClassify_SendWithoutTargetOutput(t *testing.T) {
	c := NewClassifier(nil, zerolog.Nop())

	d := testDetail(
		[]TxIn{{PrevTxID: fmt.Sprintf("%064x", 5), Address: addrTarget}},
		[]TxOut{
			{Index: 0, Value: 2500, Address: addrExternal},
			{Index: 1, Value: 500, Address: addrInput},
		},
	)

	res := c.Classify(context.Background(), d, addrTarget, ownedSet())
	require.NotNil(t, res)
	assert.Equal(t, TypeSend, res.Type)
	assert.Equal(t, uint64(3000), res.Amount)
	assert.Equal(t, addrExternal, res.Counterparty)
}

// An owned input whose value all lands on another owned address is still a
// send from the target's perspective; the sibling wallet is the counterparty.
func TestClassify_SendToSiblingWallet(t *testing.T) {
	c := NewClassifier(nil, zerolog.Nop())

	d := testDetail(
		[]TxIn{{PrevTxID: fmt.Sprintf("%064x", 6), Address: addrTarget}},
		[]TxOut{{Index: 0, Value: 6000, Address: addrOwned}},
	)

	res := c.Classify(context.Background(), d, addrTarget, ownedSet())
	require.NotNil(t, res)
	assert.Equal(t, TypeSend, res.Type)
	assert.Equal(t, uint64(6000), res.Amount)
	assert.Equal(t, addrOwned, res.Counterparty)
}

func TestClassify_Unrelated(t *testing.T) {
	c := NewClassifier(nil, zerolog.Nop())

	d := testDetail(
		[]TxIn{{PrevTxID: fmt.Sprintf("%064x", 7), Address: addrInput}},
		[]TxOut{{Index: 0, Value: 1200, Address: addrExternal}},
	)

	res := c.Classify(context.Background(), d, addrTarget, ownedSet())
	require.Nil(t, res)
}

func TestClassify_CoinbaseReceive(t *testing.T) {
	c := NewClassifier(nil, zerolog.Nop())

	d := testDetail(
		[]TxIn{{Coinbase: true}},
		[]TxOut{{Index: 0, Value: 5000000000, Address: addrTarget}},
	)

	res := c.Classify(context.Background(), d, addrTarget, ownedSet())
	require.NotNil(t, res)
	assert.Equal(t, TypeReceive, res.Type)
	assert.Equal(t, CounterpartyCoinbase, res.Counterparty)
}

// A failed previous-output lookup degrades the input to unresolved; the
// transaction still classifies from what remains.
func TestClassify_LookupFailureDegrades(t *testing.T) {
	resolver := &mockPrevoutResolver{
		detailFunc: func(context.Context, string) (*TxDetail, error) {
			return nil, errors.New("connection refused")
		},
	}
	c := NewClassifier(resolver, zerolog.Nop())

	d := testDetail(
		[]TxIn{{PrevTxID: fmt.Sprintf("%064x", 8), PrevVout: 0}},
		[]TxOut{{Index: 0, Value: 800, Address: addrTarget}},
	)

	res := c.Classify(context.Background(), d, addrTarget, ownedSet())
	require.NotNil(t, res)
	assert.Equal(t, TypeReceive, res.Type)
	assert.Equal(t, uint64(800), res.Amount)
	assert.Equal(t, CounterpartyExternal, res.Counterparty)
}

func TestClassify_PrevoutIndexOutOfRange(t *testing.T) {
	resolver := &mockPrevoutResolver{
		detailFunc: func(_ context.Context, txid string) (*TxDetail, error) {
			return &TxDetail{
				TxID:    txid,
				Outputs: []TxOut{{Index: 0, Value: 100, Address: addrInput}},
			}, nil
		},
	}
	c := NewClassifier(resolver, zerolog.Nop())

	d := testDetail(
		[]TxIn{{PrevTxID: fmt.Sprintf("%064x", 9), PrevVout: 5}},
		[]TxOut{{Index: 0, Value: 300, Address: addrTarget}},
	)

	res := c.Classify(context.Background(), d, addrTarget, ownedSet())
	require.NotNil(t, res)
	assert.Equal(t, TypeReceive, res.Type)
	assert.Equal(t, CounterpartyExternal, res.Counterparty)
}

func TestClassify_MultipleTargetOutputsSum(t *testing.T) {
	c := NewClassifier(nil, zerolog.Nop())

	d := testDetail(
		[]TxIn{{PrevTxID: fmt.Sprintf("%064x", 10), Address: addrInput}},
		[]TxOut{
			{Index: 0, Value: 700, Address: addrTarget},
			{Index: 1, Value: 300, Address: addrTarget},
			{Index: 2, Value: 100, Address: addrExternal},
		},
	)

	res := c.Classify(context.Background(), d, addrTarget, ownedSet())
	require.NotNil(t, res)
	assert.Equal(t, TypeReceive, res.Type)
	assert.Equal(t, uint64(1000), res.Amount)
	assert.Equal(t, addrInput, res.Counterparty)
}

func TestClassify_NilDetailAndEmptyTarget(t *testing.T) {
	c := NewClassifier(nil, zerolog.Nop())

	require.Nil(t, c.Classify(context.Background(), nil, addrTarget, ownedSet()))

	d := testDetail(nil, []TxOut{{Value: 100, Address: addrTarget}})
	require.Nil(t, c.Classify(context.Background(), d, "", ownedSet()))
}

// Two runs over the same inputs must yield identical results.
func TestClassify_Idempotent(t *testing.T) {
	c := NewClassifier(nil, zerolog.Nop())

	d := testDetail(
		[]TxIn{{PrevTxID: fmt.Sprintf("%064x", 11), Address: addrTarget}},
		[]TxOut{
			{Index: 0, Value: 2000, Address: addrTarget},
			{Index: 1, Value: 3000, Address: addrExternal},
		},
	)
	owns := ownedSet()

	first := c.Classify(context.Background(), d, addrTarget, owns)
	second := c.Classify(context.Background(), d, addrTarget, owns)
	require.Equal(t, first, second)
}

func TestBatchResolver_CachesSuccesses(t *testing.T) {
	inner := &mockPrevoutResolver{
		detailFunc: func(_ context.Context, txid string) (*TxDetail, error) {
			return &TxDetail{TxID: txid}, nil
		},
	}
	b := NewBatchResolver(inner)

	txid := fmt.Sprintf("%064x", 12)
	first, err := b.TransactionDetail(context.Background(), txid)
	require.NoError(t, err)
	second, err := b.TransactionDetail(context.Background(), txid)
	require.NoError(t, err)

	require.Same(t, first, second)
	require.Equal(t, 1, inner.calls)
}

func TestBatchResolver_DoesNotCacheFailures(t *testing.T) {
	inner := &mockPrevoutResolver{
		detailFunc: func(context.Context, string) (*TxDetail, error) {
			return nil, errors.New("timeout")
		},
	}
	b := NewBatchResolver(inner)

	txid := fmt.Sprintf("%064x", 13)
	_, err := b.TransactionDetail(context.Background(), txid)
	require.ErrorIs(t, err, ErrLookupFailed)

	_, err = b.TransactionDetail(context.Background(), txid)
	require.ErrorIs(t, err, ErrLookupFailed)
	require.Equal(t, 2, inner.calls)
}
