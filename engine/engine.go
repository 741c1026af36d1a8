// Package engine is the shared business logic layer of the wallet. CLI
// commands, daemon adapters, and UI bindings all call Engine methods to send
// funds, scan history, and read balances; the engine wires the chain client,
// the record store, and the signing wallet together and owns the in-flight
// UTXO reservation set.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/finchwallet/libfinch-go/classify"
	"github.com/finchwallet/libfinch-go/network"
	"github.com/finchwallet/libfinch-go/store"
	"github.com/finchwallet/libfinch-go/tx"
	"github.com/finchwallet/libfinch-go/wallet"
)

const (
	// DefaultFlatFee is the flat per-transaction fee in satoshis.
	DefaultFlatFee = 1000

	// DefaultConfirmationTarget is the confirmation count at which a record
	// stops being refreshed.
	DefaultConfirmationTarget = 6

	// DefaultReservationTTL bounds how long an in-flight build may hold its
	// inputs before they are returned to the spendable pool.
	DefaultReservationTTL = 2 * time.Minute
)

// Options configures an Engine. Zero values select the defaults.
type Options struct {
	FlatFee            uint64          // satoshis charged per transaction
	MinConfirmations   uint64          // spendability floor for selection and balance
	ConfirmationTarget uint64          // records below this count stay on the refresh list
	ReservationTTL     time.Duration   // in-flight input hold time
	Logger             *zerolog.Logger // nil disables logging
}

// Engine orchestrates wallet operations over a chain service and a record
// store. Methods are safe for concurrent use; the reservation set serializes
// access to in-flight inputs.
type Engine struct {
	chain    network.ChainService
	store    *store.Store
	params   *wallet.NetworkParams
	source   tx.SourceResolver // nil when the chain service cannot serve source outputs
	log      zerolog.Logger
	reserved *reservationSet

	flatFee    uint64
	minConf    uint64
	confTarget uint64
	ownsStore  bool // set by Open; Close then closes the store
}

// New creates an Engine. The chain service and store are required; params
// defaults to mainnet. If the chain service can resolve source outputs
// (the RPC client can), transaction builds use it to fill in locking scripts
// the UTXO feed did not carry.
func New(chain network.ChainService, st *store.Store, params *wallet.NetworkParams, opts Options) (*Engine, error) {
	if chain == nil {
		return nil, fmt.Errorf("%w: chain service", ErrNilParam)
	}
	if st == nil {
		return nil, fmt.Errorf("%w: store", ErrNilParam)
	}
	if params == nil {
		params = &wallet.MainNet
	}

	if opts.FlatFee == 0 {
		opts.FlatFee = DefaultFlatFee
	}
	if opts.MinConfirmations == 0 {
		opts.MinConfirmations = 1
	}
	if opts.ConfirmationTarget == 0 {
		opts.ConfirmationTarget = DefaultConfirmationTarget
	}
	if opts.ReservationTTL <= 0 {
		opts.ReservationTTL = DefaultReservationTTL
	}

	log := zerolog.Nop()
	if opts.Logger != nil {
		log = *opts.Logger
	}

	e := &Engine{
		chain:      chain,
		store:      st,
		params:     params,
		log:        log,
		reserved:   newReservationSet(opts.ReservationTTL),
		flatFee:    opts.FlatFee,
		minConf:    opts.MinConfirmations,
		confTarget: opts.ConfirmationTarget,
	}
	if r, ok := chain.(tx.SourceResolver); ok {
		e.source = r
	}
	return e, nil
}

// Close stops the reservation expiry loop and, for engines built by Open,
// closes the store they opened. Dependencies handed to New stay with the
// caller.
func (e *Engine) Close() error {
	e.reserved.stop()
	if e.ownsStore {
		return e.store.Close()
	}
	return nil
}

// Params returns the network parameters the engine operates under.
func (e *Engine) Params() *wallet.NetworkParams {
	return e.params
}

// chainResolver adapts the chain service to the classifier's prevout lookup.
type chainResolver struct {
	chain network.ChainService
}

var _ classify.PrevoutResolver = chainResolver{}

func (r chainResolver) TransactionDetail(ctx context.Context, txid string) (*classify.TxDetail, error) {
	return r.chain.GetTransactionDetail(ctx, txid)
}

// activeAddress resolves an explicit address, or falls back to the active
// wallet when address is empty.
func (e *Engine) activeAddress(address string) (string, error) {
	if address != "" {
		return address, nil
	}
	info, err := e.store.ActiveWallet()
	if err != nil {
		return "", fmt.Errorf("engine: resolve active wallet: %w", err)
	}
	return info.Address, nil
}
