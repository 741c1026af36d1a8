// Package store persists wallet state in a single bbolt database: the
// transaction records produced by sends and history scans, and the wallet
// registry that backs the address-ownership snapshot. Monetary amounts enter
// this layer in satoshis and are persisted in the decimal display unit;
// nothing above the store handles decimals.
package store

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"

	"go.etcd.io/bbolt"
)

// SatPerCoin is the number of satoshis in one coin of the decimal display
// unit.
const SatPerCoin = 1e8

var (
	bucketRecords = []byte("records")
	bucketWallets = []byte("wallets")
	bucketMeta    = []byte("meta")
)

// keyActiveWallet holds the name of the active wallet in the meta bucket.
var keyActiveWallet = []byte("active_wallet")

// Store wraps a bbolt database holding transaction records and the wallet
// registry.
type Store struct {
	db *bbolt.DB
}

// Open opens or creates the bbolt database at dbPath.
// The parent directory is created if it does not exist.
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("store: create directory: %w", err)
	}
	db, err := bbolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("store: open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketRecords, bucketWallets, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("store: create bucket %q: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: create buckets: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// DecimalAmount converts satoshis to the decimal display unit. It is the
// only satoshi-to-decimal conversion in the module.
func DecimalAmount(sat uint64) float64 {
	return float64(sat) / SatPerCoin
}

// recordKey builds the composite key address:txid. The colon cannot appear
// in a base58 address or a hex txid, so per-address prefix scans are exact.
func recordKey(address, txid string) []byte {
	return []byte(address + ":" + txid)
}

// recordPrefix is the prefix of every record key belonging to address.
func recordPrefix(address string) []byte {
	return []byte(address + ":")
}

// encodeGob serializes a value using gob encoding.
func encodeGob(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// decodeGob deserializes gob-encoded data into a value.
func decodeGob(data []byte, v interface{}) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(v)
}
