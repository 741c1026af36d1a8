package engine

import (
	"fmt"
	"time"

	"github.com/finchwallet/libfinch-go/store"
	"github.com/finchwallet/libfinch-go/wallet"
)

// Wallets are single-account: every wallet spends and receives on the first
// external key, m/44'/346'/0'/0/0.
const walletAccount = 0

// CreateWallet generates a fresh 12-word mnemonic, registers a wallet for it
// under name, and returns the mnemonic for the user to back up. The mnemonic
// is not stored; only the Argon2id-sealed seed is.
func (e *Engine) CreateWallet(name, passphrase string) (*store.WalletInfo, string, error) {
	mnemonic, err := wallet.GenerateMnemonic(wallet.Mnemonic12Words)
	if err != nil {
		return nil, "", fmt.Errorf("engine: generate mnemonic: %w", err)
	}
	info, err := e.registerWallet(name, mnemonic, passphrase)
	if err != nil {
		return nil, "", err
	}
	return info, mnemonic, nil
}

// ImportWallet registers a wallet recovered from an existing mnemonic.
func (e *Engine) ImportWallet(name, mnemonic, passphrase string) (*store.WalletInfo, error) {
	return e.registerWallet(name, mnemonic, passphrase)
}

func (e *Engine) registerWallet(name, mnemonic, passphrase string) (*store.WalletInfo, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: wallet name required", ErrInvalidRequest)
	}
	if passphrase == "" {
		return nil, fmt.Errorf("%w: passphrase required", ErrInvalidRequest)
	}

	seed, err := wallet.SeedFromMnemonic(mnemonic, "")
	if err != nil {
		return nil, err
	}
	hd, err := wallet.NewHDWallet(seed, e.params)
	if err != nil {
		return nil, err
	}
	address, err := hd.DeriveAddress(walletAccount, wallet.ExternalChain, 0)
	if err != nil {
		return nil, err
	}
	sealed, err := wallet.EncryptKeyMaterial(seed, passphrase)
	if err != nil {
		return nil, err
	}

	info := store.WalletInfo{
		Name:          name,
		Address:       address,
		EncryptedSeed: sealed,
		CreatedAt:     time.Now().UTC(),
	}
	if err := e.store.PutWallet(info); err != nil {
		return nil, err
	}

	// The first registered wallet becomes active so that operations work
	// without an explicit activation step.
	wallets, err := e.store.Wallets()
	if err == nil && len(wallets) == 1 {
		if err := e.store.SetActiveWallet(name); err != nil {
			return nil, err
		}
	}
	return &info, nil
}

// unlock decrypts the wallet's seed, re-derives the spending key, and checks
// it still produces the registered address before handing it to a signer.
func (e *Engine) unlock(info *store.WalletInfo, passphrase string) (*wallet.KeyPair, error) {
	seed, err := wallet.DecryptKeyMaterial(info.EncryptedSeed, passphrase)
	if err != nil {
		return nil, fmt.Errorf("engine: unlock wallet %q: %w", info.Name, err)
	}
	hd, err := wallet.NewHDWallet(seed, e.params)
	if err != nil {
		return nil, err
	}
	kp, err := hd.DeriveKey(walletAccount, wallet.ExternalChain, 0)
	if err != nil {
		return nil, err
	}
	address, err := kp.Address(e.params)
	if err != nil {
		return nil, err
	}
	if address != info.Address {
		return nil, fmt.Errorf("%w: wallet %q", ErrKeyMismatch, info.Name)
	}
	return kp, nil
}
