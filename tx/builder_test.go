package tx

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"testing"

	"github.com/bsv-blockchain/go-sdk/script"
	"github.com/bsv-blockchain/go-sdk/transaction"
	"github.com/bsv-blockchain/go-sdk/transaction/template/p2pkh"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"

	"github.com/finchwallet/libfinch-go/coinselect"
	"github.com/finchwallet/libfinch-go/wallet"
)

type mockResolver struct {
	sourceOutputFunc func(ctx context.Context, txid string, vout uint32) ([]byte, uint64, error)
}

func (m *mockResolver) SourceOutput(ctx context.Context, txid string, vout uint32) ([]byte, uint64, error) {
	return m.sourceOutputFunc(ctx, txid, vout)
}

func newTestKey(t *testing.T, params *wallet.NetworkParams) (*ec.PrivateKey, string) {
	t.Helper()
	priv, err := ec.NewPrivateKey()
	require.NoError(t, err)
	addr, err := wallet.AddressFromPublicKey(priv.PubKey(), params)
	require.NoError(t, err)
	return priv, addr
}

func testUTXO(i int, value uint64, address string) coinselect.UTXO {
	return coinselect.UTXO{
		TxID:          fmt.Sprintf("%064x", i+1),
		Vout:          uint32(i),
		Value:         value,
		Confirmations: 6,
		Address:       address,
	}
}

func lockScriptFor(t *testing.T, address string, params *wallet.NetworkParams) []byte {
	t.Helper()
	pubKeyHash, err := wallet.DecodeAddress(address, params)
	require.NoError(t, err)
	addr, err := script.NewAddressFromPublicKeyHash(pubKeyHash, params.Name == "mainnet")
	require.NoError(t, err)
	ls, err := p2pkh.Lock(addr)
	require.NoError(t, err)
	return []byte(*ls)
}

// legacyParams returns a parameter set whose sighash policy lacks the fork-id
// bit, selecting the standard signing path.
func legacyParams() wallet.NetworkParams {
	params := wallet.MainNet
	params.Name = "finch-legacy"
	params.SigHashType = wallet.SighashAll
	return params
}

func TestNewBuilder_Validation(t *testing.T) {
	priv, _ := newTestKey(t, &wallet.MainNet)

	_, err := NewBuilder(nil, nil)
	require.ErrorIs(t, err, ErrNilParam)

	_, err = NewBuilder(&SigningContext{Key: nil, Params: &wallet.MainNet}, nil)
	require.ErrorIs(t, err, ErrNilParam)

	_, err = NewBuilder(&SigningContext{Key: priv, Params: nil}, nil)
	require.ErrorIs(t, err, ErrNilParam)
}

func TestSignerForParams(t *testing.T) {
	require.Equal(t, "fork-id", SignerForParams(&wallet.MainNet).Name())
	require.Equal(t, "fork-id", SignerForParams(&wallet.TestNet).Name())

	legacy := legacyParams()
	require.Equal(t, "standard", SignerForParams(&legacy).Name())
}

func TestBuild_ForkIdRoundTrip(t *testing.T) {
	params := &wallet.MainNet
	priv, ownAddr := newTestKey(t, params)
	_, destAddr := newTestKey(t, params)

	b, err := NewBuilder(&SigningContext{Key: priv, Params: params}, nil)
	require.NoError(t, err)
	require.Equal(t, "fork-id", b.Signer())

	req := &BuildRequest{
		Inputs:   []coinselect.UTXO{testUTXO(0, 5000, ownAddr), testUTXO(1, 3000, ownAddr)},
		To:       destAddr,
		Amount:   6000,
		ChangeTo: ownAddr,
		Change:   1500,
	}
	res, err := b.Build(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, res.TxID, 64)
	require.Equal(t, len(res.RawTx), res.Size)
	require.Equal(t, hex.EncodeToString(res.RawTx), res.Hex)
	require.Equal(t, "fork-id", res.Signer)

	parsed, err := transaction.NewTransactionFromBytes(res.RawTx)
	require.NoError(t, err)
	require.Len(t, parsed.Inputs, 2)
	require.Len(t, parsed.Outputs, 2)
	require.Equal(t, res.TxID, parsed.TxID().String())

	for i, in := range parsed.Inputs {
		require.NotNil(t, in.UnlockingScript, "input %d", i)
		require.NotEmpty(t, []byte(*in.UnlockingScript), "input %d", i)
	}

	assert.Equal(t, uint64(6000), parsed.Outputs[0].Satoshis)
	assert.Equal(t, uint64(1500), parsed.Outputs[1].Satoshis)
	assert.Equal(t, lockScriptFor(t, destAddr, params), []byte(*parsed.Outputs[0].LockingScript))
	assert.Equal(t, lockScriptFor(t, ownAddr, params), []byte(*parsed.Outputs[1].LockingScript))
}

// The fork-id unlocking script is <DER sig || hash type> <compressed pubkey>,
// with the hash-type byte 0x41 trailing the signature push.
func TestBuild_ForkIdUnlockingScriptShape(t *testing.T) {
	params := &wallet.MainNet
	priv, ownAddr := newTestKey(t, params)
	_, destAddr := newTestKey(t, params)

	b, err := NewBuilder(&SigningContext{Key: priv, Params: params}, nil)
	require.NoError(t, err)

	res, err := b.Build(context.Background(), &BuildRequest{
		Inputs: []coinselect.UTXO{testUTXO(0, 5000, ownAddr)},
		To:     destAddr,
		Amount: 4500,
	})
	require.NoError(t, err)

	parsed, err := transaction.NewTransactionFromBytes(res.RawTx)
	require.NoError(t, err)
	require.Len(t, parsed.Inputs, 1)

	us := []byte(*parsed.Inputs[0].UnlockingScript)
	sigLen := int(us[0])
	require.Greater(t, sigLen, 8)
	require.Equal(t, byte(0x30), us[1], "signature push starts with the DER sequence tag")
	require.Equal(t, wallet.SighashAllForkID, us[sigLen], "hash-type byte trails the signature")
	require.Equal(t, byte(wallet.CompressedPubKeyLen), us[sigLen+1])
	require.Len(t, us, 1+sigLen+1+wallet.CompressedPubKeyLen)
	require.Equal(t, priv.PubKey().Compressed(), us[sigLen+2:])
}

func TestBuild_StandardRoundTrip(t *testing.T) {
	params := legacyParams()
	priv, ownAddr := newTestKey(t, &params)
	_, destAddr := newTestKey(t, &params)

	b, err := NewBuilder(&SigningContext{Key: priv, Params: &params}, nil)
	require.NoError(t, err)
	require.Equal(t, "standard", b.Signer())

	res, err := b.Build(context.Background(), &BuildRequest{
		Inputs: []coinselect.UTXO{testUTXO(0, 4000, ownAddr)},
		To:     destAddr,
		Amount: 3500,
	})
	require.NoError(t, err)
	require.Equal(t, "standard", res.Signer)

	parsed, err := transaction.NewTransactionFromBytes(res.RawTx)
	require.NoError(t, err)
	require.Len(t, parsed.Inputs, 1)
	require.Len(t, parsed.Outputs, 1, "no change output when change is zero")
	require.Equal(t, res.TxID, parsed.TxID().String())
	require.NotEmpty(t, []byte(*parsed.Inputs[0].UnlockingScript))
	assert.Equal(t, uint64(3500), parsed.Outputs[0].Satoshis)
}

func TestBuild_ScriptHexWinsOverAddress(t *testing.T) {
	params := &wallet.MainNet
	priv, ownAddr := newTestKey(t, params)
	_, destAddr := newTestKey(t, params)

	b, err := NewBuilder(&SigningContext{Key: priv, Params: params}, nil)
	require.NoError(t, err)

	u := testUTXO(0, 5000, "")
	u.Script = hex.EncodeToString(lockScriptFor(t, ownAddr, params))

	_, err = b.Build(context.Background(), &BuildRequest{
		Inputs: []coinselect.UTXO{u},
		To:     destAddr,
		Amount: 4500,
	})
	require.NoError(t, err)
}

func TestBuild_BadScriptHex(t *testing.T) {
	params := &wallet.MainNet
	priv, _ := newTestKey(t, params)
	_, destAddr := newTestKey(t, params)

	b, err := NewBuilder(&SigningContext{Key: priv, Params: params}, nil)
	require.NoError(t, err)

	u := testUTXO(0, 5000, "")
	u.Script = "not hex"

	_, err = b.Build(context.Background(), &BuildRequest{
		Inputs: []coinselect.UTXO{u},
		To:     destAddr,
		Amount: 4500,
	})
	require.ErrorIs(t, err, ErrInvalidParams)
}

func TestBuild_ResolverFetchesSource(t *testing.T) {
	params := &wallet.MainNet
	priv, ownAddr := newTestKey(t, params)
	_, destAddr := newTestKey(t, params)

	var gotTxID string
	var gotVout uint32
	resolver := &mockResolver{
		sourceOutputFunc: func(_ context.Context, txid string, vout uint32) ([]byte, uint64, error) {
			gotTxID, gotVout = txid, vout
			return lockScriptFor(t, ownAddr, params), 5000, nil
		},
	}

	b, err := NewBuilder(&SigningContext{Key: priv, Params: params}, resolver)
	require.NoError(t, err)

	u := coinselect.UTXO{TxID: fmt.Sprintf("%064x", 7), Vout: 3, Value: 5000}
	_, err = b.Build(context.Background(), &BuildRequest{
		Inputs: []coinselect.UTXO{u},
		To:     destAddr,
		Amount: 4500,
	})
	require.NoError(t, err)
	require.Equal(t, u.TxID, gotTxID)
	require.Equal(t, uint32(3), gotVout)
}

func TestBuild_ResolverValueMismatch(t *testing.T) {
	params := &wallet.MainNet
	priv, ownAddr := newTestKey(t, params)
	_, destAddr := newTestKey(t, params)

	resolver := &mockResolver{
		sourceOutputFunc: func(context.Context, string, uint32) ([]byte, uint64, error) {
			return lockScriptFor(t, ownAddr, params), 4999, nil
		},
	}
	b, err := NewBuilder(&SigningContext{Key: priv, Params: params}, resolver)
	require.NoError(t, err)

	_, err = b.Build(context.Background(), &BuildRequest{
		Inputs: []coinselect.UTXO{{TxID: fmt.Sprintf("%064x", 7), Vout: 0, Value: 5000}},
		To:     destAddr,
		Amount: 4500,
	})
	require.ErrorIs(t, err, ErrInvalidParams)
	require.Contains(t, err.Error(), "chain reports")
}

func TestBuild_ResolverFailure(t *testing.T) {
	params := &wallet.MainNet
	priv, _ := newTestKey(t, params)
	_, destAddr := newTestKey(t, params)

	resolver := &mockResolver{
		sourceOutputFunc: func(context.Context, string, uint32) ([]byte, uint64, error) {
			return nil, 0, errors.New("transaction not found")
		},
	}
	b, err := NewBuilder(&SigningContext{Key: priv, Params: params}, resolver)
	require.NoError(t, err)

	_, err = b.Build(context.Background(), &BuildRequest{
		Inputs: []coinselect.UTXO{{TxID: fmt.Sprintf("%064x", 7), Vout: 0, Value: 5000}},
		To:     destAddr,
		Amount: 4500,
	})
	require.ErrorIs(t, err, ErrMissingSource)
}

func TestBuild_NoSourceAndNoResolver(t *testing.T) {
	params := &wallet.MainNet
	priv, _ := newTestKey(t, params)
	_, destAddr := newTestKey(t, params)

	b, err := NewBuilder(&SigningContext{Key: priv, Params: params}, nil)
	require.NoError(t, err)

	_, err = b.Build(context.Background(), &BuildRequest{
		Inputs: []coinselect.UTXO{{TxID: fmt.Sprintf("%064x", 7), Vout: 0, Value: 5000}},
		To:     destAddr,
		Amount: 4500,
	})
	require.ErrorIs(t, err, ErrMissingSource)
}

func TestBuild_RequestValidation(t *testing.T) {
	params := &wallet.MainNet
	priv, ownAddr := newTestKey(t, params)
	_, destAddr := newTestKey(t, params)
	_, testnetAddr := newTestKey(t, &wallet.TestNet)

	b, err := NewBuilder(&SigningContext{Key: priv, Params: params}, nil)
	require.NoError(t, err)

	inputs := []coinselect.UTXO{testUTXO(0, 5000, ownAddr)}

	tests := []struct {
		name    string
		req     *BuildRequest
		wantErr error
	}{
		{"nil request", nil, ErrNilParam},
		{"no inputs", &BuildRequest{To: destAddr, Amount: 1000}, ErrInvalidParams},
		{"zero amount", &BuildRequest{Inputs: inputs, To: destAddr}, ErrInvalidParams},
		{"bad destination", &BuildRequest{Inputs: inputs, To: "junk", Amount: 1000}, ErrInvalidParams},
		{"wrong network destination", &BuildRequest{Inputs: inputs, To: testnetAddr, Amount: 1000}, ErrInvalidParams},
		{"change without address", &BuildRequest{Inputs: inputs, To: destAddr, Amount: 1000, Change: 500}, ErrInvalidParams},
		{"bad change address", &BuildRequest{Inputs: inputs, To: destAddr, Amount: 1000, Change: 500, ChangeTo: "junk"}, ErrInvalidParams},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := b.Build(context.Background(), tt.req)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestBuild_BadInputTxID(t *testing.T) {
	params := &wallet.MainNet
	priv, ownAddr := newTestKey(t, params)
	_, destAddr := newTestKey(t, params)

	b, err := NewBuilder(&SigningContext{Key: priv, Params: params}, nil)
	require.NoError(t, err)

	u := testUTXO(0, 5000, ownAddr)
	u.TxID = "not-a-txid"

	_, err = b.Build(context.Background(), &BuildRequest{
		Inputs: []coinselect.UTXO{u},
		To:     destAddr,
		Amount: 4500,
	})
	require.ErrorIs(t, err, ErrInvalidParams)
}

func TestValidateSigned(t *testing.T) {
	params := &wallet.MainNet
	priv, ownAddr := newTestKey(t, params)
	_, destAddr := newTestKey(t, params)

	b, err := NewBuilder(&SigningContext{Key: priv, Params: params}, nil)
	require.NoError(t, err)

	res, err := b.Build(context.Background(), &BuildRequest{
		Inputs: []coinselect.UTXO{testUTXO(0, 5000, ownAddr)},
		To:     destAddr,
		Amount: 4500,
	})
	require.NoError(t, err)

	require.NoError(t, validateSigned(res.RawTx, 1, 1, res.TxID))

	err = validateSigned(res.RawTx, 2, 1, res.TxID)
	require.ErrorIs(t, err, ErrValidationFailed)

	err = validateSigned(res.RawTx, 1, 2, res.TxID)
	require.ErrorIs(t, err, ErrValidationFailed)

	err = validateSigned(res.RawTx, 1, 1, "0000000000000000000000000000000000000000000000000000000000000000")
	require.ErrorIs(t, err, ErrValidationFailed)

	err = validateSigned([]byte{0x01, 0x02}, 1, 1, res.TxID)
	require.ErrorIs(t, err, ErrValidationFailed)
}
