package engine

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/finchwallet/libfinch-go/config"
	"github.com/finchwallet/libfinch-go/network"
	"github.com/finchwallet/libfinch-go/store"
	"github.com/finchwallet/libfinch-go/wallet"
)

// storeFile is the record database's file name inside the data directory.
const storeFile = "wallet.db"

// Open assembles a ready-to-use Engine from a data directory: configuration
// from the directory's config file (built-in defaults when the file is
// absent), the record store inside the directory, and an RPC client against
// the configured node. Testnet and regtest fall back to their local node
// presets when the file carries no endpoint; mainnet always requires one.
//
// Engines built this way own their store, and Close releases it. Callers
// that need to swap a dependency wire New directly.
func Open(dataDir string) (*Engine, error) {
	cfg, err := config.LoadConfig(config.ConfigPath(dataDir))
	if errors.Is(err, config.ErrConfigNotFound) {
		cfg = config.DefaultConfig()
	} else if err != nil {
		return nil, err
	}
	cfg.DataDir = dataDir
	if err := config.ValidateConfig(cfg); err != nil {
		return nil, err
	}

	params, err := wallet.GetNetwork(cfg.Network)
	if err != nil {
		return nil, err
	}
	log, err := config.NewLogger(cfg)
	if err != nil {
		return nil, err
	}

	// The config file's endpoint rides the flag layer: viper already applied
	// the FINCH_* environment on top of the file, so the resolver only has to
	// fill testnet/regtest preset gaps beneath it.
	rpcCfg, err := network.ResolveConfig(&network.RPCConfig{
		URL:      cfg.RPCURL,
		User:     cfg.RPCUser,
		Password: cfg.RPCPassword,
	}, nil, cfg.Network)
	if err != nil {
		return nil, err
	}
	client := network.NewRPCClient(*rpcCfg)

	st, err := store.Open(filepath.Join(dataDir, storeFile))
	if err != nil {
		return nil, fmt.Errorf("engine: open store: %w", err)
	}

	eng, err := New(client, st, params, Options{
		FlatFee:            cfg.FlatFee,
		MinConfirmations:   cfg.MinConfirmations,
		ConfirmationTarget: cfg.ConfirmationTarget,
		ReservationTTL:     cfg.ReservationTTL,
		Logger:             &log,
	})
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	eng.ownsStore = true
	return eng, nil
}
