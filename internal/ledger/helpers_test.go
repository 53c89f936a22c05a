package ledger

import (
	"context"
	"encoding/base64"
	"testing"

	"github.com/rs/zerolog"
	hProtocol "github.com/stellar/go/protocols/horizon"
	"github.com/stellar/go/txnbuild"
	"github.com/stellar/go/xdr"
	"github.com/stretchr/testify/require"

	"github.com/dotandev/questrelay/internal/rpc"
)

const (
	testSource   = "GAAZI4TCR3TY5OJHCTJC2A4QSY6CJWJH5IAJTGKIN2ER7LBNVKOCCWN7"
	testDest     = "GD6WU64OEP5C4LRBH6NK3MHYIA2ADN6K6II6EXPNVUR3ERBXT4AN4ACD"
	testContract = "CDLZFC3SYJYDZT7K67VZ75HPJVIEUVNIXF47ZG2FB2RMQQVU2HHGCYSC"
)

type fakeLoader struct {
	sequence int64
	err      error
	loads    int
}

func (f *fakeLoader) LoadAccount(_ context.Context, address string) (*txnbuild.SimpleAccount, error) {
	f.loads++
	if f.err != nil {
		return nil, f.err
	}
	return &txnbuild.SimpleAccount{AccountID: address, Sequence: f.sequence}, nil
}

type fakeNode struct {
	simulateResp *rpc.SimulateResponse
	simulateErr  error

	sendResp *rpc.SendResponse
	sendErr  error
	sends    int

	// statuses are returned in order; the last one repeats
	statuses []*rpc.GetTransactionResponse
	polls    int
}

func (f *fakeNode) SimulateTransaction(context.Context, string) (*rpc.SimulateResponse, error) {
	return f.simulateResp, f.simulateErr
}

func (f *fakeNode) SendTransaction(context.Context, string) (*rpc.SendResponse, error) {
	f.sends++
	return f.sendResp, f.sendErr
}

func (f *fakeNode) GetTransaction(context.Context, string) (*rpc.GetTransactionResponse, error) {
	f.polls++
	i := f.polls - 1
	if i >= len(f.statuses) {
		i = len(f.statuses) - 1
	}
	return f.statuses[i], nil
}

type fakeDirect struct {
	tx      hProtocol.Transaction
	err     error
	submits int
}

func (f *fakeDirect) SubmitTransactionXDR(string) (hProtocol.Transaction, error) {
	f.submits++
	return f.tx, f.err
}

// buildTestInvoke builds an unsigned register(questId, user) envelope for
// an account at the given sequence.
func buildTestInvoke(t *testing.T, sequence int64) *txnbuild.Transaction {
	t.Helper()
	builder := NewBuilder(&fakeLoader{sequence: sequence}, 0, zerolog.Nop())
	tx, err := builder.BuildInvoke(context.Background(), BuildRequest{
		Source:   testSource,
		Contract: testContract,
		Function: "register",
		Args:     []Arg{U64(1), Address(testDest)},
	})
	require.NoError(t, err)
	return tx
}

func buildTestPayment(t *testing.T) *txnbuild.Transaction {
	t.Helper()
	tx, err := txnbuild.NewTransaction(txnbuild.TransactionParams{
		SourceAccount:        &txnbuild.SimpleAccount{AccountID: testSource, Sequence: 7},
		IncrementSequenceNum: true,
		Operations: []txnbuild.Operation{&txnbuild.Payment{
			Destination: testDest,
			Amount:      "10",
			Asset:       txnbuild.NativeAsset{},
		}},
		BaseFee:       txnbuild.MinBaseFee,
		Preconditions: txnbuild.Preconditions{TimeBounds: txnbuild.NewInfiniteTimeout()},
	})
	require.NoError(t, err)
	return tx
}

func testFootprintData(t *testing.T, minFee int64) (string, xdr.SorobanTransactionData) {
	t.Helper()
	data := xdr.SorobanTransactionData{
		Resources: xdr.SorobanResources{
			Instructions:  1_000_000,
			DiskReadBytes: 200,
			WriteBytes:    400,
		},
		ResourceFee: xdr.Int64(minFee),
	}
	raw, err := data.MarshalBinary()
	require.NoError(t, err)
	return base64.StdEncoding.EncodeToString(raw), data
}

func scValB64(t *testing.T, val xdr.ScVal) string {
	t.Helper()
	raw, err := val.MarshalBinary()
	require.NoError(t, err)
	return base64.StdEncoding.EncodeToString(raw)
}

func envelopeOf(t *testing.T, tx *txnbuild.Transaction) xdr.TransactionEnvelope {
	t.Helper()
	b64, err := tx.Base64()
	require.NoError(t, err)
	var envelope xdr.TransactionEnvelope
	require.NoError(t, xdr.SafeUnmarshalBase64(b64, &envelope))
	return envelope
}
