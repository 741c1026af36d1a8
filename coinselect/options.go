package coinselect

import "fmt"

// Strategy selects the algorithm used to pick UTXOs for a payment.
type Strategy string

const (
	// StrategySmallestFirst accumulates the smallest outputs first. It spends
	// many small inputs, clearing them out at the cost of transaction size.
	StrategySmallestFirst Strategy = "smallest-first"

	// StrategyLargestFirst accumulates the largest outputs first, minimizing
	// input count.
	StrategyLargestFirst Strategy = "largest-first"

	// StrategyBestFit looks for an exact or near-exact match for target+fee
	// to minimize change.
	StrategyBestFit Strategy = "best-fit"

	// StrategyConsolidateDust covers the target with non-dust outputs and
	// opportunistically sweeps dust along when it is worth its marginal fee.
	StrategyConsolidateDust Strategy = "consolidate-dust"

	// StrategyPrivacy picks 3-5 outputs spread across the value distribution
	// to avoid exposing a single large output.
	StrategyPrivacy Strategy = "privacy"

	// StrategyManual validates and passes through a caller-supplied list.
	StrategyManual Strategy = "manual"
)

// Defaults applied by Options.normalized.
const (
	DefaultMaxInputs        = 50
	DefaultMinConfirmations = 1
)

// Options controls a selection run. TargetAmount and Fee are integer
// satoshis; Fee is the flat fee the transaction will pay.
type Options struct {
	Strategy         Strategy
	TargetAmount     uint64
	Fee              uint64
	MaxInputs        int
	MinConfirmations uint64
	DustThreshold    uint64
	AllowUnconfirmed bool
	IncludeDust      bool
	ManualUTXOs      []UTXO // consulted by StrategyManual only
}

// normalized returns a copy of o with zero values replaced by defaults.
func (o Options) normalized() Options {
	if o.Strategy == "" {
		o.Strategy = StrategyBestFit
	}
	if o.MaxInputs <= 0 {
		o.MaxInputs = DefaultMaxInputs
	}
	if o.MinConfirmations == 0 {
		o.MinConfirmations = DefaultMinConfirmations
	}
	if o.DustThreshold == 0 {
		o.DustThreshold = DustLimit
	}
	// Consolidation cannot exclude the dust it exists to sweep.
	if o.Strategy == StrategyConsolidateDust {
		o.IncludeDust = true
	}
	return o
}

// required returns the amount a selection must cover.
func (o Options) required() uint64 {
	return o.TargetAmount + o.Fee
}

// validate rejects option sets no strategy can satisfy.
func (o Options) validate() error {
	if o.TargetAmount == 0 {
		return fmt.Errorf("%w: target amount must be positive", ErrInvalidOptions)
	}
	switch o.Strategy {
	case StrategySmallestFirst, StrategyLargestFirst, StrategyBestFit,
		StrategyConsolidateDust, StrategyPrivacy:
	case StrategyManual:
		if len(o.ManualUTXOs) == 0 {
			return fmt.Errorf("%w: manual strategy requires a UTXO list", ErrInvalidOptions)
		}
		seen := make(map[string]struct{}, len(o.ManualUTXOs))
		for i := range o.ManualUTXOs {
			op := o.ManualUTXOs[i].Outpoint()
			if _, dup := seen[op]; dup {
				return fmt.Errorf("%w: duplicate outpoint %s in manual list", ErrInvalidOptions, op)
			}
			seen[op] = struct{}{}
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownStrategy, o.Strategy)
	}
	return nil
}

// Result is a successful selection.
//
// Invariant: TotalInput = sum of selected values = TargetAmount + Fee + Change,
// and TotalInput >= TargetAmount + Fee.
type Result struct {
	UTXOs      []UTXO
	TotalInput uint64
	Change     uint64
	Fee        uint64
	Strategy   Strategy
	// Efficiency is target / total input, for reporting only. Selection
	// arithmetic never touches floating point.
	Efficiency float64
}
