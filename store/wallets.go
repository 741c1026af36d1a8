package store

import (
	"fmt"
	"sort"
	"time"

	"go.etcd.io/bbolt"

	"github.com/finchwallet/libfinch-go/wallet"
)

// WalletInfo is one registered wallet. EncryptedSeed holds the output of
// wallet.EncryptKeyMaterial; the store never sees plaintext key material.
type WalletInfo struct {
	Name          string
	Address       string
	EncryptedSeed []byte
	CreatedAt     time.Time
}

// PutWallet registers a wallet. The name must be unique.
func (s *Store) PutWallet(info WalletInfo) error {
	if info.Name == "" || info.Address == "" {
		return fmt.Errorf("%w: wallet name and address are required", ErrInvalidRecord)
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketWallets)
		if b.Get([]byte(info.Name)) != nil {
			return fmt.Errorf("%w: %q", ErrWalletExists, info.Name)
		}
		data, err := encodeGob(&info)
		if err != nil {
			return fmt.Errorf("store: encode wallet: %w", err)
		}
		return b.Put([]byte(info.Name), data)
	})
}

// Wallet returns one registered wallet by name.
func (s *Store) Wallet(name string) (*WalletInfo, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: wallet name is required", ErrInvalidRecord)
	}

	var info WalletInfo
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketWallets).Get([]byte(name))
		if data == nil {
			return fmt.Errorf("%w: wallet %q", ErrNotFound, name)
		}
		return decodeGob(data, &info)
	})
	if err != nil {
		return nil, err
	}
	return &info, nil
}

// Wallets returns every registered wallet, sorted by name.
func (s *Store) Wallets() ([]WalletInfo, error) {
	var wallets []WalletInfo
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketWallets).ForEach(func(k, v []byte) error {
			var info WalletInfo
			if err := decodeGob(v, &info); err != nil {
				return fmt.Errorf("store: decode wallet %q: %w", k, err)
			}
			wallets = append(wallets, info)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(wallets, func(i, j int) bool { return wallets[i].Name < wallets[j].Name })
	return wallets, nil
}

// SetActiveWallet marks the named wallet as active. The wallet must exist.
func (s *Store) SetActiveWallet(name string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if tx.Bucket(bucketWallets).Get([]byte(name)) == nil {
			return fmt.Errorf("%w: wallet %q", ErrNotFound, name)
		}
		return tx.Bucket(bucketMeta).Put(keyActiveWallet, []byte(name))
	})
}

// ActiveWallet returns the wallet marked active.
func (s *Store) ActiveWallet() (*WalletInfo, error) {
	var name string
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketMeta).Get(keyActiveWallet)
		if data == nil {
			return ErrNoActiveWallet
		}
		name = string(data)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Wallet(name)
}

// OwnershipSet returns a point-in-time snapshot of every registered wallet
// address. Classification and building consult this snapshot, so one
// operation sees one consistent view of ownership.
func (s *Store) OwnershipSet() (*wallet.AddressSet, error) {
	wallets, err := s.Wallets()
	if err != nil {
		return nil, err
	}
	addresses := make([]string, 0, len(wallets))
	for _, w := range wallets {
		addresses = append(addresses, w.Address)
	}
	return wallet.NewAddressSet(addresses...), nil
}
