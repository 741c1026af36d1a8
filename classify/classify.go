// Package classify decides what an observed transaction means to one wallet
// address: money sent, money received, or a transfer between the user's own
// wallets. It operates on resolved transaction details plus an address
// ownership snapshot, and is deterministic for a given pair of inputs.
package classify

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/finchwallet/libfinch-go/wallet"
)

// Type is the direction of a classified transaction relative to the target
// address.
type Type string

const (
	TypeSend    Type = "send"
	TypeReceive Type = "receive"
)

// Counterparty placeholders used when no concrete address can be resolved.
const (
	CounterpartyCoinbase = "Coinbase"
	CounterpartyExternal = "External"
)

// Result is the classification of one transaction for one target address.
// A nil Result means the transaction does not concern the target.
type Result struct {
	Type         Type
	Amount       uint64 // satoshis
	Counterparty string
	Owner        string // the target address the record belongs to
}

// Classifier resolves input addresses and applies the direction heuristic.
// The resolver may be nil, in which case inputs without an inline address
// stay unresolved. Lookup failures are logged and degrade the affected input;
// they never fail a classification.
type Classifier struct {
	resolver PrevoutResolver
	log      zerolog.Logger
}

// NewClassifier creates a Classifier. Pass zerolog.Nop() to discard lookup
// failure logs.
func NewClassifier(resolver PrevoutResolver, log zerolog.Logger) *Classifier {
	return &Classifier{resolver: resolver, log: log}
}

// resolvedInput is one input after address resolution.
type resolvedInput struct {
	address  string // empty when unresolved
	coinbase bool
}

// outputBuckets splits a transaction's outputs by who they pay, relative to
// the target address and the ownership snapshot.
type outputBuckets struct {
	toTarget        uint64
	toOtherOwned    uint64
	toExternal      uint64
	firstExternal   string // first external output address, if any
	firstOtherOwned string // first owned non-target output address, if any
	firstNonTarget  string // first output address that is not the target
}

// Classify decides what detail means to the target address. The heuristic is
// evaluated in fixed priority order:
//
//  1. owned input, value to target, value to external: a send; the change
//     returning to the target is excluded from the amount
//  2. owned input from the target itself, value to target, nothing external:
//     a self transfer, recorded as a receive from the target
//  3. input from a different owned address, value to target: a transfer
//     between the user's wallets, recorded as a receive from that address
//  4. owned input, nothing to target: a send
//  5. no owned input, value to target: a receive from the first resolved
//     input address
//  6. otherwise the transaction is unrelated and the result is nil
//
// Transactions touching three or more owned wallets at once are genuinely
// ambiguous; the ordering above is a heuristic, not ground truth, and is
// deliberately kept stable.
func (c *Classifier) Classify(ctx context.Context, detail *TxDetail, target string, owns wallet.Ownership) *Result {
	if detail == nil || target == "" {
		return nil
	}

	inputs := c.resolveInputs(ctx, detail)
	buckets := bucketOutputs(detail.Outputs, target, owns)

	var (
		anyOwnedInput   bool
		inputFromTarget bool
		firstOtherOwned string
		firstResolved   string
		anyCoinbase     bool
	)
	for _, in := range inputs {
		if in.coinbase {
			anyCoinbase = true
			continue
		}
		if in.address == "" {
			continue
		}
		if firstResolved == "" {
			firstResolved = in.address
		}
		if owns != nil && owns.Owns(in.address) {
			anyOwnedInput = true
			if in.address == target {
				inputFromTarget = true
			} else if firstOtherOwned == "" {
				firstOtherOwned = in.address
			}
		}
	}

	switch {
	case anyOwnedInput && buckets.toTarget > 0 && buckets.toExternal > 0:
		return &Result{
			Type:         TypeSend,
			Amount:       buckets.toExternal,
			Counterparty: fallback(buckets.firstExternal, CounterpartyExternal),
			Owner:        target,
		}

	case anyOwnedInput && buckets.toTarget > 0 && buckets.toExternal == 0 && inputFromTarget:
		return &Result{
			Type:         TypeReceive,
			Amount:       buckets.toTarget,
			Counterparty: target,
			Owner:        target,
		}

	case anyOwnedInput && buckets.toTarget > 0 && firstOtherOwned != "":
		return &Result{
			Type:         TypeReceive,
			Amount:       buckets.toTarget,
			Counterparty: firstOtherOwned,
			Owner:        target,
		}

	case anyOwnedInput && buckets.toTarget == 0:
		amount := buckets.toExternal
		if amount == 0 {
			amount = buckets.toOtherOwned
		}
		counterparty := buckets.firstExternal
		if counterparty == "" {
			counterparty = fallback(buckets.firstNonTarget, CounterpartyExternal)
		}
		return &Result{
			Type:         TypeSend,
			Amount:       amount,
			Counterparty: counterparty,
			Owner:        target,
		}

	case !anyOwnedInput && buckets.toTarget > 0:
		counterparty := firstResolved
		if counterparty == "" {
			if anyCoinbase {
				counterparty = CounterpartyCoinbase
			} else {
				counterparty = CounterpartyExternal
			}
		}
		return &Result{
			Type:         TypeReceive,
			Amount:       buckets.toTarget,
			Counterparty: counterparty,
			Owner:        target,
		}
	}

	return nil
}

// resolveInputs attributes a spending address to each input. Inline addresses
// win; otherwise the referenced previous output is fetched, one hop, through
// the resolver. Coinbase inputs are never resolved.
func (c *Classifier) resolveInputs(ctx context.Context, detail *TxDetail) []resolvedInput {
	resolved := make([]resolvedInput, len(detail.Inputs))
	for i, in := range detail.Inputs {
		if in.Coinbase {
			resolved[i] = resolvedInput{coinbase: true}
			continue
		}
		if in.Address != "" {
			resolved[i] = resolvedInput{address: in.Address}
			continue
		}
		if c.resolver == nil || in.PrevTxID == "" {
			continue
		}

		prev, err := c.resolver.TransactionDetail(ctx, in.PrevTxID)
		if err != nil {
			c.log.Warn().
				Str("txid", detail.TxID).
				Str("prev_txid", in.PrevTxID).
				Uint32("prev_vout", in.PrevVout).
				Err(err).
				Msg("previous output lookup failed, input left unresolved")
			continue
		}
		if int(in.PrevVout) >= len(prev.Outputs) {
			c.log.Warn().
				Str("txid", detail.TxID).
				Str("prev_txid", in.PrevTxID).
				Uint32("prev_vout", in.PrevVout).
				Int("prev_outputs", len(prev.Outputs)).
				Msg("previous output index out of range, input left unresolved")
			continue
		}
		resolved[i] = resolvedInput{address: prev.Outputs[in.PrevVout].Address}
	}
	return resolved
}

// bucketOutputs sums output values by destination class.
func bucketOutputs(outputs []TxOut, target string, owns wallet.Ownership) outputBuckets {
	var b outputBuckets
	for _, out := range outputs {
		if out.Address != "" && b.firstNonTarget == "" && out.Address != target {
			b.firstNonTarget = out.Address
		}
		switch {
		case out.Address == target:
			b.toTarget += out.Value
		case out.Address != "" && owns != nil && owns.Owns(out.Address):
			b.toOtherOwned += out.Value
			if b.firstOtherOwned == "" {
				b.firstOtherOwned = out.Address
			}
		default:
			b.toExternal += out.Value
			if b.firstExternal == "" && out.Address != "" {
				b.firstExternal = out.Address
			}
		}
	}
	return b
}

func fallback(s, alt string) string {
	if s == "" {
		return alt
	}
	return s
}
