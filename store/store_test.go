package store

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finchwallet/libfinch-go/classify"
)

func tempStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	s, err := Open(filepath.Join(dir, "finch.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testRecord(i int, address string, typ classify.Type) TransactionRecord {
	return TransactionRecord{
		TxID:          fmt.Sprintf("%064x", i),
		Address:       address,
		Type:          typ,
		Amount:        DecimalAmount(uint64(i) * 1000),
		Counterparty:  "1BitcoinEaterAddressDontSendf59kuE",
		Timestamp:     time.Unix(1700000000+int64(i)*60, 0).UTC(),
		Confirmations: 0,
	}
}

func TestDecimalAmount(t *testing.T) {
	assert.InDelta(t, 0.00001500, DecimalAmount(1500), 1e-12)
	assert.InDelta(t, 1.0, DecimalAmount(100000000), 1e-12)
	assert.InDelta(t, 0.0, DecimalAmount(0), 1e-12)
}

func TestSaveAndGetTransaction(t *testing.T) {
	s := tempStore(t)
	const addr = "1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa"

	rec := testRecord(1, addr, classify.TypeSend)
	require.NoError(t, s.SaveTransaction(rec))

	got, err := s.GetTransaction(addr, rec.TxID)
	require.NoError(t, err)
	assert.Equal(t, rec, *got)
}

func TestSaveTransactionRequiresIdentity(t *testing.T) {
	s := tempStore(t)

	err := s.SaveTransaction(TransactionRecord{TxID: "", Address: "addr"})
	require.ErrorIs(t, err, ErrInvalidRecord)

	err = s.SaveTransaction(TransactionRecord{TxID: "abc", Address: ""})
	require.ErrorIs(t, err, ErrInvalidRecord)
}

// Re-saving an existing record must update only its confirmation fields;
// the original amount, type, and counterparty stay untouched.
func TestSaveTransactionUpdatesConfirmationsOnly(t *testing.T) {
	s := tempStore(t)
	const addr = "1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa"

	rec := testRecord(2, addr, classify.TypeReceive)
	require.NoError(t, s.SaveTransaction(rec))

	updated := rec
	updated.Confirmations = 6
	updated.BlockHeight = 700123
	updated.Amount = 99.0
	updated.Counterparty = "tampered"
	updated.Type = classify.TypeSend
	require.NoError(t, s.SaveTransaction(updated))

	got, err := s.GetTransaction(addr, rec.TxID)
	require.NoError(t, err)
	assert.Equal(t, uint64(6), got.Confirmations)
	assert.Equal(t, uint64(700123), got.BlockHeight)
	assert.Equal(t, rec.Amount, got.Amount)
	assert.Equal(t, rec.Counterparty, got.Counterparty)
	assert.Equal(t, classify.TypeReceive, got.Type)
}

func TestGetTransactionNotFound(t *testing.T) {
	s := tempStore(t)
	_, err := s.GetTransaction("1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa", fmt.Sprintf("%064x", 9))
	require.ErrorIs(t, err, ErrNotFound)
}

func TestTransactionHistoryPerAddress(t *testing.T) {
	s := tempStore(t)
	const addrA = "1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa"
	const addrB = "12c6DSiU4Rq3P4ZxziKxzrL5LmMBrzjrJX"

	require.NoError(t, s.SaveTransaction(testRecord(1, addrA, classify.TypeReceive)))
	require.NoError(t, s.SaveTransaction(testRecord(2, addrA, classify.TypeSend)))
	require.NoError(t, s.SaveTransaction(testRecord(3, addrB, classify.TypeReceive)))

	history, err := s.TransactionHistory(addrA)
	require.NoError(t, err)
	require.Len(t, history, 2)

	// Newest first.
	assert.Equal(t, fmt.Sprintf("%064x", 2), history[0].TxID)
	assert.Equal(t, fmt.Sprintf("%064x", 1), history[1].TxID)
	for _, rec := range history {
		assert.Equal(t, addrA, rec.Address)
	}

	empty, err := s.TransactionHistory("1BitcoinEaterAddressDontSendf59kuE")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestTransactionsBelow(t *testing.T) {
	s := tempStore(t)
	const addr = "1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa"

	pending := testRecord(1, addr, classify.TypeSend)
	require.NoError(t, s.SaveTransaction(pending))

	settled := testRecord(2, addr, classify.TypeReceive)
	settled.Confirmations = 10
	require.NoError(t, s.SaveTransaction(settled))

	below, err := s.TransactionsBelow(6)
	require.NoError(t, err)
	require.Len(t, below, 1)
	assert.Equal(t, pending.TxID, below[0].TxID)
}

func TestWalletRegistry(t *testing.T) {
	s := tempStore(t)

	alpha := WalletInfo{
		Name:          "alpha",
		Address:       "1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa",
		EncryptedSeed: []byte{0x01, 0x02},
		CreatedAt:     time.Unix(1700000000, 0).UTC(),
	}
	beta := WalletInfo{
		Name:      "beta",
		Address:   "12c6DSiU4Rq3P4ZxziKxzrL5LmMBrzjrJX",
		CreatedAt: time.Unix(1700000060, 0).UTC(),
	}
	require.NoError(t, s.PutWallet(beta))
	require.NoError(t, s.PutWallet(alpha))

	got, err := s.Wallet("alpha")
	require.NoError(t, err)
	assert.Equal(t, alpha, *got)

	all, err := s.Wallets()
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "alpha", all[0].Name, "wallets sort by name")
	assert.Equal(t, "beta", all[1].Name)
}

func TestPutWalletRejectsDuplicates(t *testing.T) {
	s := tempStore(t)
	info := WalletInfo{Name: "alpha", Address: "1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa"}

	require.NoError(t, s.PutWallet(info))
	err := s.PutWallet(info)
	require.ErrorIs(t, err, ErrWalletExists)
}

func TestActiveWallet(t *testing.T) {
	s := tempStore(t)

	_, err := s.ActiveWallet()
	require.ErrorIs(t, err, ErrNoActiveWallet)

	err = s.SetActiveWallet("ghost")
	require.ErrorIs(t, err, ErrNotFound)

	info := WalletInfo{Name: "alpha", Address: "1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa"}
	require.NoError(t, s.PutWallet(info))
	require.NoError(t, s.SetActiveWallet("alpha"))

	active, err := s.ActiveWallet()
	require.NoError(t, err)
	assert.Equal(t, "alpha", active.Name)
}

func TestOwnershipSet(t *testing.T) {
	s := tempStore(t)

	require.NoError(t, s.PutWallet(WalletInfo{Name: "alpha", Address: "1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa"}))
	require.NoError(t, s.PutWallet(WalletInfo{Name: "beta", Address: "12c6DSiU4Rq3P4ZxziKxzrL5LmMBrzjrJX"}))

	owns, err := s.OwnershipSet()
	require.NoError(t, err)
	assert.True(t, owns.Owns("1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa"))
	assert.True(t, owns.Owns("12c6DSiU4Rq3P4ZxziKxzrL5LmMBrzjrJX"))
	assert.False(t, owns.Owns("1BitcoinEaterAddressDontSendf59kuE"))
	assert.Equal(t, 2, owns.Len())
}

// Records survive a close and reopen of the database file.
func TestPersistenceAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "finch.db")

	s, err := Open(path)
	require.NoError(t, err)
	rec := testRecord(7, "1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa", classify.TypeSend)
	require.NoError(t, s.SaveTransaction(rec))
	require.NoError(t, s.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.GetTransaction(rec.Address, rec.TxID)
	require.NoError(t, err)
	assert.Equal(t, rec, *got)
}
