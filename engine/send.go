package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/finchwallet/libfinch-go/classify"
	"github.com/finchwallet/libfinch-go/coinselect"
	"github.com/finchwallet/libfinch-go/store"
	"github.com/finchwallet/libfinch-go/tx"
)

// SendRequest describes a payment from the active wallet.
type SendRequest struct {
	To               string              // destination address
	Amount           uint64              // satoshis
	Passphrase       string              // unlocks the active wallet's seed
	Strategy         coinselect.Strategy // empty selects the default strategy
	ManualUTXOs      []coinselect.UTXO   // consulted by the manual strategy only
	AllowUnconfirmed bool                // spend outputs below the confirmation floor
}

// SendResult reports a broadcast payment.
type SendResult struct {
	TxID   string
	Amount uint64
	Fee    uint64
	Change uint64
	Inputs int
	RawTx  string // signed transaction hex
}

// Send pays Amount to the destination from the active wallet.
//
// The flow is select, reserve, build and sign, validate, broadcast, persist.
// Selected inputs are reserved for the duration of the build so a concurrent
// Send cannot pick them, and released when Send returns on every path:
// success, failure, or reservation timeout. Selection failures carry the
// required and available amounts; validation failures abort before anything
// reaches the network.
func (e *Engine) Send(ctx context.Context, req *SendRequest) (*SendResult, error) {
	if req == nil {
		return nil, fmt.Errorf("%w: request", ErrNilParam)
	}

	info, err := e.store.ActiveWallet()
	if err != nil {
		return nil, fmt.Errorf("engine: resolve active wallet: %w", err)
	}
	kp, err := e.unlock(info, req.Passphrase)
	if err != nil {
		return nil, err
	}

	utxos, err := e.chain.ListUnspent(ctx, info.Address)
	if err != nil {
		return nil, fmt.Errorf("engine: list unspent: %w", err)
	}

	sel, err := coinselect.Select(e.reserved.available(utxos), coinselect.Options{
		Strategy:         req.Strategy,
		TargetAmount:     req.Amount,
		Fee:              e.flatFee,
		MinConfirmations: e.minConf,
		AllowUnconfirmed: req.AllowUnconfirmed,
		ManualUTXOs:      req.ManualUTXOs,
	})
	if err != nil {
		return nil, err
	}

	if err := e.reserved.claim(sel.UTXOs, info.Address); err != nil {
		return nil, err
	}
	defer e.reserved.release(sel.UTXOs)

	builder, err := tx.NewBuilder(&tx.SigningContext{Key: kp.PrivateKey, Params: e.params}, e.source)
	if err != nil {
		return nil, err
	}
	built, err := builder.Build(ctx, &tx.BuildRequest{
		Inputs:   sel.UTXOs,
		To:       req.To,
		Amount:   req.Amount,
		ChangeTo: info.Address,
		Change:   sel.Change,
	})
	if err != nil {
		return nil, err
	}

	txid, err := e.chain.BroadcastTx(ctx, built.Hex)
	if err != nil {
		return nil, err
	}
	if txid != built.TxID {
		e.log.Warn().Str("local", built.TxID).Str("node", txid).
			Msg("node reported a different txid than computed locally")
	}

	rec := store.NewTransactionRecord(built.TxID, info.Address, classify.TypeSend,
		req.Amount, req.To, time.Now().UTC())
	if err := e.store.SaveTransaction(rec); err != nil {
		// The payment is on the network; the missing record is rebuilt by
		// the next history scan.
		e.log.Error().Err(err).Str("txid", built.TxID).
			Msg("broadcast succeeded but record was not persisted")
	}

	e.log.Info().Str("txid", built.TxID).Uint64("amount", req.Amount).
		Uint64("fee", sel.Fee).Int("inputs", len(sel.UTXOs)).
		Str("strategy", string(sel.Strategy)).Msg("payment broadcast")

	return &SendResult{
		TxID:   built.TxID,
		Amount: req.Amount,
		Fee:    sel.Fee,
		Change: sel.Change,
		Inputs: len(sel.UTXOs),
		RawTx:  built.Hex,
	}, nil
}
