package network

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"

	"github.com/bsv-blockchain/go-sdk/transaction"

	"github.com/finchwallet/libfinch-go/classify"
	"github.com/finchwallet/libfinch-go/coinselect"
)

// Compile-time interface checks. The RPC client is the engine's chain
// service, the classifier's previous-output resolver, and the builder's
// source-output resolver.
var (
	_ ChainService             = (*RPCClient)(nil)
	_ classify.PrevoutResolver = (*RPCClient)(nil)
)

// coinToSat converts a decimal coin amount (as returned by the RPC node) to
// satoshis. It uses math.Round to avoid floating-point truncation issues.
func coinToSat(coins float64) uint64 {
	return uint64(math.Round(coins * 1e8))
}

// addressUTXOResult maps the JSON fields returned by getaddressutxos.
// Satoshis arrives as an integer; no decimal conversion is needed.
type addressUTXOResult struct {
	Address     string `json:"address"`
	TxID        string `json:"txid"`
	OutputIndex uint32 `json:"outputIndex"`
	Script      string `json:"script"`
	Satoshis    uint64 `json:"satoshis"`
	Height      int64  `json:"height"`
}

// ListUnspent returns the unspent outputs paying the given address. It calls
// `getaddressutxos {"addresses": [address]}` against the node's address
// index, then derives each output's confirmation count from the chain tip,
// since the index reports only the block height.
func (c *RPCClient) ListUnspent(ctx context.Context, address string) ([]coinselect.UTXO, error) {
	params := []interface{}{map[string]interface{}{"addresses": []string{address}}}
	var results []addressUTXOResult
	if err := c.Call(ctx, "getaddressutxos", params, &results); err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}

	best, err := c.GetBestBlockHeight(ctx)
	if err != nil {
		return nil, err
	}

	utxos := make([]coinselect.UTXO, len(results))
	for i, r := range results {
		u := coinselect.UTXO{
			TxID:    r.TxID,
			Vout:    r.OutputIndex,
			Value:   r.Satoshis,
			Address: r.Address,
			Script:  r.Script,
		}
		if u.Address == "" {
			u.Address = address
		}
		if r.Height > 0 && uint64(r.Height) <= best {
			u.Height = uint64(r.Height)
			u.Confirmations = best - uint64(r.Height) + 1
		}
		utxos[i] = u
	}
	return utxos, nil
}

// GetBestBlockHeight returns the height of the current chain tip.
// It calls `getblockcount` which returns an integer block height.
func (c *RPCClient) GetBestBlockHeight(ctx context.Context) (uint64, error) {
	var raw json.RawMessage
	if err := c.Call(ctx, "getblockcount", nil, &raw); err != nil {
		return 0, err
	}
	// getblockcount returns an integer, but JSON numbers are float64.
	var height float64
	if err := json.Unmarshal(raw, &height); err != nil {
		return 0, fmt.Errorf("%w: invalid block height: %v", ErrInvalidResponse, err)
	}
	return uint64(height), nil
}

// GetRawTx returns the raw transaction bytes for the given txid.
// It calls `getrawtransaction "txid" false` (non-verbose) to get the
// hex-encoded transaction and decodes it to bytes.
func (c *RPCClient) GetRawTx(ctx context.Context, txid string) ([]byte, error) {
	params := []interface{}{txid, false}
	var rawHex string
	if err := c.Call(ctx, "getrawtransaction", params, &rawHex); err != nil {
		return nil, err
	}
	data, err := hex.DecodeString(rawHex)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid tx hex: %v", ErrInvalidResponse, err)
	}
	return data, nil
}

// verboseTxResult maps the JSON fields from getrawtransaction with verbose=true.
type verboseTxResult struct {
	TxID          string        `json:"txid"`
	BlockHash     string        `json:"blockhash"`
	BlockHeight   uint64        `json:"blockheight"`
	Confirmations int64         `json:"confirmations"`
	Time          int64         `json:"time"`
	Vin           []verboseVin  `json:"vin"`
	Vout          []verboseVout `json:"vout"`
}

// verboseVin maps one vin entry. Coinbase inputs carry the coinbase field
// instead of txid/vout. Address-index nodes attribute a spending address
// directly on some entries; when absent, the classifier resolves it from the
// previous transaction.
type verboseVin struct {
	Coinbase string `json:"coinbase"`
	TxID     string `json:"txid"`
	Vout     uint32 `json:"vout"`
	Address  string `json:"address"`
}

// verboseVout maps one vout entry. Value is in decimal coins.
type verboseVout struct {
	Value        float64 `json:"value"`
	N            uint32  `json:"n"`
	ScriptPubKey struct {
		Hex       string   `json:"hex"`
		Address   string   `json:"address"`
		Addresses []string `json:"addresses"`
	} `json:"scriptPubKey"`
}

// address returns the single P2PKH address a vout pays, or empty for
// non-standard scripts.
func (v *verboseVout) address() string {
	if v.ScriptPubKey.Address != "" {
		return v.ScriptPubKey.Address
	}
	if len(v.ScriptPubKey.Addresses) > 0 {
		return v.ScriptPubKey.Addresses[0]
	}
	return ""
}

// GetTransactionDetail returns the decoded transaction for the given txid.
// It calls `getrawtransaction "txid" true` (verbose mode) and converts
// decimal coin values to satoshis.
func (c *RPCClient) GetTransactionDetail(ctx context.Context, txid string) (*classify.TxDetail, error) {
	params := []interface{}{txid, true}
	var result verboseTxResult
	if err := c.Call(ctx, "getrawtransaction", params, &result); err != nil {
		return nil, err
	}

	detail := &classify.TxDetail{
		TxID:        result.TxID,
		BlockHeight: result.BlockHeight,
		Time:        result.Time,
		Inputs:      make([]classify.TxIn, len(result.Vin)),
		Outputs:     make([]classify.TxOut, len(result.Vout)),
	}
	if result.Confirmations > 0 {
		detail.Confirmations = uint64(result.Confirmations)
	}
	for i, vin := range result.Vin {
		detail.Inputs[i] = classify.TxIn{
			PrevTxID: vin.TxID,
			PrevVout: vin.Vout,
			Coinbase: vin.Coinbase != "",
			Address:  vin.Address,
		}
	}
	for i, vout := range result.Vout {
		detail.Outputs[i] = classify.TxOut{
			Index:   vout.N,
			Value:   coinToSat(vout.Value),
			Address: vout.address(),
		}
	}
	return detail, nil
}

// TransactionDetail implements classify.PrevoutResolver.
func (c *RPCClient) TransactionDetail(ctx context.Context, txid string) (*classify.TxDetail, error) {
	return c.GetTransactionDetail(ctx, txid)
}

// SourceOutput returns the locking script and value of one previous output,
// for inputs whose coin selection did not carry script data. The previous
// transaction is fetched raw and parsed, so the script bytes and satoshi
// value are exact rather than round-tripped through JSON decimals.
func (c *RPCClient) SourceOutput(ctx context.Context, txid string, vout uint32) ([]byte, uint64, error) {
	raw, err := c.GetRawTx(ctx, txid)
	if err != nil {
		return nil, 0, err
	}
	prev, err := transaction.NewTransactionFromBytes(raw)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: parse previous tx %s: %v", ErrInvalidResponse, txid, err)
	}
	if int(vout) >= len(prev.Outputs) {
		return nil, 0, fmt.Errorf("%w: output %s:%d", ErrTxNotFound, txid, vout)
	}
	out := prev.Outputs[vout]
	return []byte(*out.LockingScript), out.Satoshis, nil
}

// BroadcastTx submits a raw transaction hex to the network and returns the
// txid. It calls `sendrawtransaction "hex"`. RPC errors are wrapped with
// ErrBroadcastRejected.
func (c *RPCClient) BroadcastTx(ctx context.Context, rawTxHex string) (string, error) {
	params := []interface{}{rawTxHex}
	var txid string
	if err := c.Call(ctx, "sendrawtransaction", params, &txid); err != nil {
		return "", fmt.Errorf("%w: %v", ErrBroadcastRejected, err)
	}
	return txid, nil
}

// addressDeltaResult maps the JSON fields returned by getaddressdeltas.
type addressDeltaResult struct {
	Satoshis int64  `json:"satoshis"`
	TxID     string `json:"txid"`
	Index    uint32 `json:"index"`
	Height   int64  `json:"height"`
	Address  string `json:"address"`
}

// GetAddressHistory returns the transactions touching the given address. It
// calls `getaddressdeltas {"addresses": [address]}`; the node reports one
// delta per input and output, so entries are de-duplicated by txid keeping
// the node's oldest-first ordering.
func (c *RPCClient) GetAddressHistory(ctx context.Context, address string) ([]HistoryItem, error) {
	params := []interface{}{map[string]interface{}{"addresses": []string{address}}}
	var deltas []addressDeltaResult
	if err := c.Call(ctx, "getaddressdeltas", params, &deltas); err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(deltas))
	items := make([]HistoryItem, 0, len(deltas))
	for _, d := range deltas {
		if _, ok := seen[d.TxID]; ok {
			continue
		}
		seen[d.TxID] = struct{}{}
		item := HistoryItem{TxID: d.TxID}
		if d.Height > 0 {
			item.Height = uint64(d.Height)
		}
		items = append(items, item)
	}
	return items, nil
}
