package store

import (
	"bytes"
	"fmt"
	"sort"
	"time"

	"go.etcd.io/bbolt"

	"github.com/finchwallet/libfinch-go/classify"
)

// TransactionRecord is one persisted ledger entry for one owned address.
// Amount is in the decimal display unit. A record is created once, on
// broadcast or on history scan; Confirmations and BlockHeight are the only
// fields ever updated afterwards.
type TransactionRecord struct {
	TxID          string
	Address       string // the owned address this record belongs to
	Type          classify.Type
	Amount        float64
	Counterparty  string
	Timestamp     time.Time
	Confirmations uint64
	BlockHeight   uint64
}

// NewTransactionRecord builds a record from satoshi amounts, converting to
// the decimal display unit at this boundary.
func NewTransactionRecord(txid, address string, typ classify.Type, amountSat uint64, counterparty string, ts time.Time) TransactionRecord {
	return TransactionRecord{
		TxID:         txid,
		Address:      address,
		Type:         typ,
		Amount:       DecimalAmount(amountSat),
		Counterparty: counterparty,
		Timestamp:    ts,
	}
}

// SaveTransaction inserts the record, or, when a record with the same
// address and txid already exists, updates only its confirmation count and
// block height. All other fields of an existing record are immutable.
func (s *Store) SaveTransaction(rec TransactionRecord) error {
	if rec.TxID == "" || rec.Address == "" {
		return fmt.Errorf("%w: txid and address are required", ErrInvalidRecord)
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketRecords)
		key := recordKey(rec.Address, rec.TxID)

		if existing := b.Get(key); existing != nil {
			var current TransactionRecord
			if err := decodeGob(existing, &current); err != nil {
				return fmt.Errorf("store: decode existing record: %w", err)
			}
			current.Confirmations = rec.Confirmations
			current.BlockHeight = rec.BlockHeight
			data, err := encodeGob(&current)
			if err != nil {
				return fmt.Errorf("store: encode record: %w", err)
			}
			return b.Put(key, data)
		}

		data, err := encodeGob(&rec)
		if err != nil {
			return fmt.Errorf("store: encode record: %w", err)
		}
		return b.Put(key, data)
	})
}

// GetTransaction returns one record by owning address and txid.
func (s *Store) GetTransaction(address, txid string) (*TransactionRecord, error) {
	if address == "" || txid == "" {
		return nil, fmt.Errorf("%w: address and txid are required", ErrInvalidRecord)
	}

	var rec TransactionRecord
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketRecords).Get(recordKey(address, txid))
		if data == nil {
			return fmt.Errorf("%w: record %s for %s", ErrNotFound, txid, address)
		}
		return decodeGob(data, &rec)
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// TransactionHistory returns every record belonging to address, newest
// first.
func (s *Store) TransactionHistory(address string) ([]TransactionRecord, error) {
	if address == "" {
		return nil, fmt.Errorf("%w: address is required", ErrInvalidRecord)
	}

	var records []TransactionRecord
	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(bucketRecords).Cursor()
		prefix := recordPrefix(address)
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			var rec TransactionRecord
			if err := decodeGob(v, &rec); err != nil {
				return fmt.Errorf("store: decode record %q: %w", k, err)
			}
			records = append(records, rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(records, func(i, j int) bool {
		if !records[i].Timestamp.Equal(records[j].Timestamp) {
			return records[i].Timestamp.After(records[j].Timestamp)
		}
		return records[i].TxID < records[j].TxID
	})
	return records, nil
}

// TransactionsBelow returns every record, across all addresses, with fewer
// than conf confirmations. The confirmation refresh walks this set.
func (s *Store) TransactionsBelow(conf uint64) ([]TransactionRecord, error) {
	var records []TransactionRecord
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketRecords).ForEach(func(k, v []byte) error {
			var rec TransactionRecord
			if err := decodeGob(v, &rec); err != nil {
				return fmt.Errorf("store: decode record %q: %w", k, err)
			}
			if rec.Confirmations < conf {
				records = append(records, rec)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}
