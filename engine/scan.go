package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/finchwallet/libfinch-go/classify"
	"github.com/finchwallet/libfinch-go/store"
)

// ScanResult summarizes one history scan.
type ScanResult struct {
	Processed int // history entries examined
	Recorded  int // records written or refreshed
	Skipped   int // transactions unrelated to the scanned address
	Failed    int // detail lookups that failed
}

// ScanHistory walks the chain history of an address, classifies each
// transaction against the current ownership snapshot, and persists one
// record per relevant transaction. Records that already exist get their
// confirmation count and block height refreshed; everything else about them
// is left untouched. An empty address scans the active wallet.
//
// Detail lookups that fail are logged and counted, never fatal. On context
// cancellation the partial result is returned alongside the context error.
func (e *Engine) ScanHistory(ctx context.Context, address string) (*ScanResult, error) {
	address, err := e.activeAddress(address)
	if err != nil {
		return nil, err
	}
	owns, err := e.store.OwnershipSet()
	if err != nil {
		return nil, fmt.Errorf("engine: ownership snapshot: %w", err)
	}
	items, err := e.chain.GetAddressHistory(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("engine: address history: %w", err)
	}

	// One batch resolver per scan: prevout lookups are cached for the walk
	// and thrown away with it.
	classifier := classify.NewClassifier(
		classify.NewBatchResolver(chainResolver{e.chain}), e.log)

	res := &ScanResult{}
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		res.Processed++

		detail, err := e.chain.GetTransactionDetail(ctx, item.TxID)
		if err != nil {
			res.Failed++
			e.log.Warn().Err(err).Str("txid", item.TxID).
				Msg("transaction detail unavailable, skipping")
			continue
		}

		cls := classifier.Classify(ctx, detail, address, owns)
		if cls == nil {
			res.Skipped++
			continue
		}

		rec := store.NewTransactionRecord(detail.TxID, address, cls.Type,
			cls.Amount, cls.Counterparty, recordTime(detail))
		rec.Confirmations = detail.Confirmations
		rec.BlockHeight = detail.BlockHeight
		if rec.BlockHeight == 0 {
			rec.BlockHeight = item.Height
		}
		if err := e.store.SaveTransaction(rec); err != nil {
			return res, fmt.Errorf("engine: save record %s: %w", detail.TxID, err)
		}
		res.Recorded++
	}

	e.log.Info().Str("address", address).Int("processed", res.Processed).
		Int("recorded", res.Recorded).Int("failed", res.Failed).
		Msg("history scan complete")
	return res, nil
}

// RefreshConfirmations re-reads every stored record still below the
// confirmation target and persists updated confirmation counts and block
// heights. It returns how many records changed. Lookup failures skip the
// record and move on.
func (e *Engine) RefreshConfirmations(ctx context.Context) (int, error) {
	records, err := e.store.TransactionsBelow(e.confTarget)
	if err != nil {
		return 0, fmt.Errorf("engine: load unconfirmed records: %w", err)
	}

	// The same txid can be recorded under several addresses; fetch each
	// detail once.
	details := make(map[string]*classify.TxDetail, len(records))
	updated := 0
	for i := range records {
		if err := ctx.Err(); err != nil {
			return updated, err
		}
		rec := &records[i]

		detail, ok := details[rec.TxID]
		if !ok {
			detail, err = e.chain.GetTransactionDetail(ctx, rec.TxID)
			if err != nil {
				e.log.Warn().Err(err).Str("txid", rec.TxID).
					Msg("confirmation refresh lookup failed")
				continue
			}
			details[rec.TxID] = detail
		}

		if detail.Confirmations == rec.Confirmations && detail.BlockHeight == rec.BlockHeight {
			continue
		}
		rec.Confirmations = detail.Confirmations
		rec.BlockHeight = detail.BlockHeight
		if err := e.store.SaveTransaction(*rec); err != nil {
			return updated, fmt.Errorf("engine: refresh record %s: %w", rec.TxID, err)
		}
		updated++
	}
	return updated, nil
}

// recordTime prefers the transaction's block time; unconfirmed transactions
// carry none, so first observation time stands in.
func recordTime(detail *classify.TxDetail) time.Time {
	if detail.Time > 0 {
		return time.Unix(detail.Time, 0).UTC()
	}
	return time.Now().UTC()
}
