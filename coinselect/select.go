// Package coinselect picks unspent outputs to fund a payment. Selection is a
// pure function over a snapshot of the available set: it never mutates its
// inputs, never performs I/O, and all monetary arithmetic is integer
// satoshis.
package coinselect

// Select picks UTXOs from available that cover opts.TargetAmount + opts.Fee
// under the configured strategy.
//
// Filtering precedes selection for every strategy except manual: dust is
// dropped unless included, and outputs below the confirmation threshold are
// dropped unless unconfirmed spending is allowed. An empty filtered set, or a
// filtered set whose total cannot cover target+fee, yields an
// InsufficientFundsError.
func Select(available []UTXO, opts Options) (*Result, error) {
	opts = opts.normalized()
	if err := opts.validate(); err != nil {
		return nil, err
	}

	// Manual bypasses filtering entirely: the caller's list is validated
	// against target+fee and passed through unmodified.
	if opts.Strategy == StrategyManual {
		return selectManual(opts)
	}

	spendable := filter(available, opts)
	if len(spendable) == 0 {
		return nil, insufficient(opts.required(), 0, "no spendable outputs after filtering")
	}
	if total := Sum(spendable); total < opts.required() {
		return nil, insufficient(opts.required(), total, "")
	}

	var (
		selected []UTXO
		err      error
	)
	switch opts.Strategy {
	case StrategySmallestFirst:
		selected, err = selectSmallestFirst(spendable, opts)
	case StrategyLargestFirst:
		selected, err = selectLargestFirst(spendable, opts)
	case StrategyBestFit:
		selected, err = selectBestFit(spendable, opts)
	case StrategyConsolidateDust:
		selected, err = selectConsolidateDust(spendable, opts)
	case StrategyPrivacy:
		selected, err = selectPrivacy(spendable, opts)
	}
	if err != nil {
		return nil, err
	}

	return finalize(selected, opts)
}

// filter drops outputs the options exclude from spending.
func filter(available []UTXO, opts Options) []UTXO {
	out := make([]UTXO, 0, len(available))
	for i := range available {
		u := available[i]
		if !opts.IncludeDust && u.IsDust(opts.DustThreshold) {
			continue
		}
		if !opts.AllowUnconfirmed && !u.IsConfirmed(opts.MinConfirmations) {
			continue
		}
		out = append(out, u)
	}
	return out
}

// finalize checks the selection invariant and assembles the result.
func finalize(selected []UTXO, opts Options) (*Result, error) {
	total := Sum(selected)
	if total < opts.required() {
		return nil, insufficient(opts.required(), total, "")
	}
	return &Result{
		UTXOs:      selected,
		TotalInput: total,
		Change:     total - opts.required(),
		Fee:        opts.Fee,
		Strategy:   opts.Strategy,
		Efficiency: float64(opts.TargetAmount) / float64(total),
	}, nil
}

// accumulate greedily takes outputs in order until the required amount is
// covered or the input budget runs out, reporting whether it covered.
func accumulate(ordered []UTXO, required uint64, maxInputs int) ([]UTXO, bool) {
	var (
		selected []UTXO
		total    uint64
	)
	for i := range ordered {
		if total >= required || len(selected) >= maxInputs {
			break
		}
		selected = append(selected, ordered[i])
		total += ordered[i].Value
	}
	return selected, total >= required
}
