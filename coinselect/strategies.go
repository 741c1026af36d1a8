package coinselect

// bestFitMaxInputs bounds the best-fit combination search. Full combinatorial
// search is exponential; beyond a handful of inputs the greedy strategies do
// better anyway.
const bestFitMaxInputs = 4

// selectSmallestFirst accumulates outputs in ascending value order.
func selectSmallestFirst(spendable []UTXO, opts Options) ([]UTXO, error) {
	selected, covered := accumulate(sortedByValue(spendable, false), opts.required(), opts.MaxInputs)
	if !covered {
		return nil, insufficient(opts.required(), Sum(selected), "input budget exhausted")
	}
	return selected, nil
}

// selectLargestFirst accumulates outputs in descending value order.
func selectLargestFirst(spendable []UTXO, opts Options) ([]UTXO, error) {
	selected, covered := accumulate(sortedByValue(spendable, true), opts.required(), opts.MaxInputs)
	if !covered {
		return nil, insufficient(opts.required(), Sum(selected), "input budget exhausted")
	}
	return selected, nil
}

// selectBestFit minimizes change. It tries an exact single- or two-output
// match for target+fee first, then searches combinations of up to four
// outputs in descending order for the least change, stopping early once
// change falls within 5% of the target. When no combination covers the
// requirement it falls back to smallest-first.
func selectBestFit(spendable []UTXO, opts Options) ([]UTXO, error) {
	required := opts.required()
	desc := sortedByValue(spendable, true)

	for i := range desc {
		if desc[i].Value == required {
			return []UTXO{desc[i]}, nil
		}
	}
	for i := 0; i < len(desc); i++ {
		for j := i + 1; j < len(desc); j++ {
			if desc[i].Value+desc[j].Value == required {
				return []UTXO{desc[i], desc[j]}, nil
			}
		}
	}

	var (
		best       []UTXO
		bestChange uint64
		found      bool
		done       bool
	)
	combo := make([]UTXO, 0, bestFitMaxInputs)

	var walk func(start int, total uint64)
	walk = func(start int, total uint64) {
		if total >= required {
			change := total - required
			if !found || change < bestChange {
				found = true
				bestChange = change
				best = append(best[:0:0], combo...)
				if change*20 <= opts.TargetAmount {
					done = true
				}
			}
			// Adding further outputs to a covering combination only grows
			// the change.
			return
		}
		if len(combo) == bestFitMaxInputs {
			return
		}
		for i := start; i < len(desc) && !done; i++ {
			combo = append(combo, desc[i])
			walk(i+1, total+desc[i].Value)
			combo = combo[:len(combo)-1]
		}
	}
	walk(0, 0)

	if found {
		return best, nil
	}
	return selectSmallestFirst(spendable, opts)
}

// selectConsolidateDust covers target+fee from non-dust outputs in
// descending order. When those fall short, it tops up from dust outputs, but
// only takes dust worth more than the marginal fee of one extra input (10%
// of the flat fee); dust below that costs more to spend than it contributes.
func selectConsolidateDust(spendable []UTXO, opts Options) ([]UTXO, error) {
	required := opts.required()

	var dust, solid []UTXO
	for i := range spendable {
		if spendable[i].IsDust(opts.DustThreshold) {
			dust = append(dust, spendable[i])
		} else {
			solid = append(solid, spendable[i])
		}
	}

	selected, covered := accumulate(sortedByValue(solid, true), required, opts.MaxInputs)
	if covered {
		return selected, nil
	}

	total := Sum(selected)
	marginal := opts.Fee / 10
	eligible := total
	dustDesc := sortedByValue(dust, true)
	for i := range dustDesc {
		if dustDesc[i].Value <= marginal {
			// Descending order: everything after is smaller still.
			break
		}
		eligible += dustDesc[i].Value
		if total >= required || len(selected) >= opts.MaxInputs {
			continue
		}
		selected = append(selected, dustDesc[i])
		total += dustDesc[i].Value
	}

	if total < required {
		return nil, insufficient(required, eligible, "dust below the marginal fee cost cannot cover the shortfall")
	}
	return selected, nil
}

// selectPrivacy picks 3-5 outputs spread across the value distribution via
// stride sampling over the descending order, so no single large output is
// exposed on its own. When the sample falls short of target+fee it tops up
// from the unsampled remainder.
func selectPrivacy(spendable []UTXO, opts Options) ([]UTXO, error) {
	required := opts.required()
	desc := sortedByValue(spendable, true)

	k := len(desc) / 5
	if k < 3 {
		k = 3
	}
	if k > 5 {
		k = 5
	}
	if k > len(desc) {
		k = len(desc)
	}
	if k > opts.MaxInputs {
		k = opts.MaxInputs
	}

	stride := len(desc) / k
	selected := make([]UTXO, 0, k)
	taken := make(map[int]struct{}, k)
	var total uint64
	for i := 0; i < k; i++ {
		idx := i * stride
		selected = append(selected, desc[idx])
		taken[idx] = struct{}{}
		total += desc[idx].Value
	}

	for i := 0; i < len(desc) && total < required && len(selected) < opts.MaxInputs; i++ {
		if _, ok := taken[i]; ok {
			continue
		}
		selected = append(selected, desc[i])
		total += desc[i].Value
	}

	if total < required {
		return nil, insufficient(required, total, "input budget exhausted")
	}
	return selected, nil
}

// selectManual validates the caller-supplied list against target+fee and
// passes it through unmodified.
func selectManual(opts Options) (*Result, error) {
	total := Sum(opts.ManualUTXOs)
	if total < opts.required() {
		return nil, insufficient(opts.required(), total, "manual selection does not cover target+fee")
	}
	selected := make([]UTXO, len(opts.ManualUTXOs))
	copy(selected, opts.ManualUTXOs)
	return &Result{
		UTXOs:      selected,
		TotalInput: total,
		Change:     total - opts.required(),
		Fee:        opts.Fee,
		Strategy:   StrategyManual,
		Efficiency: float64(opts.TargetAmount) / float64(total),
	}, nil
}
