package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	hProtocol "github.com/stellar/go/protocols/horizon"
	"github.com/stellar/go/txnbuild"
	"github.com/stellar/go/xdr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dotandev/questrelay/internal/rpc"
)

func signedXDR(t *testing.T, metered bool) string {
	t.Helper()
	var tx *txnbuild.Transaction
	if metered {
		tx = buildTestInvoke(t, 5)
	} else {
		tx = buildTestPayment(t)
	}
	b64, err := tx.Base64()
	require.NoError(t, err)
	return b64
}

func TestResourceMeteredClassification(t *testing.T) {
	metered, err := ResourceMetered(signedXDR(t, true))
	require.NoError(t, err)
	assert.True(t, metered)

	metered, err = ResourceMetered(signedXDR(t, false))
	require.NoError(t, err)
	assert.False(t, metered)
}

func TestResourceMeteredRejectsGarbage(t *testing.T) {
	_, err := ResourceMetered("not-an-envelope")
	require.Error(t, err)
}

func TestSubmitSimpleEnvelopeIsSynchronous(t *testing.T) {
	direct := &fakeDirect{tx: hProtocol.Transaction{Hash: "cafe", Successful: true}}
	node := &fakeNode{}
	sub := NewSubmitter(node, direct, time.Millisecond, 3, zerolog.Nop())

	result, err := sub.Submit(context.Background(), signedXDR(t, false))
	require.NoError(t, err)
	assert.Equal(t, "cafe", result.Hash)
	assert.False(t, result.Metered)
	assert.Equal(t, 1, direct.submits)
	assert.Zero(t, node.sends, "simple envelopes never touch the metered endpoint")
}

func TestSubmitMeteredSuccess(t *testing.T) {
	retVal := xdr.Uint64(99)
	node := &fakeNode{
		sendResp: &rpc.SendResponse{Status: rpc.SendPending, Hash: "beef"},
		statuses: []*rpc.GetTransactionResponse{
			{Status: rpc.StatusNotFound},
			{Status: rpc.StatusNotFound},
			{
				Status:         rpc.StatusSuccess,
				ReturnValueXDR: scValB64(t, xdr.ScVal{Type: xdr.ScValTypeScvU64, U64: &retVal}),
			},
		},
	}
	sub := NewSubmitter(node, &fakeDirect{}, time.Millisecond, 10, zerolog.Nop())

	result, err := sub.Submit(context.Background(), signedXDR(t, true))
	require.NoError(t, err)
	assert.Equal(t, "beef", result.Hash)
	assert.True(t, result.Metered)
	assert.Equal(t, 3, node.polls)
	require.NotNil(t, result.ReturnValue)
	assert.Equal(t, xdr.Uint64(99), *result.ReturnValue.U64)
}

func TestSubmitMeteredFailureIsTerminal(t *testing.T) {
	node := &fakeNode{
		sendResp: &rpc.SendResponse{Status: rpc.SendPending, Hash: "beef"},
		statuses: []*rpc.GetTransactionResponse{
			{Status: rpc.StatusFailed, ResultXDR: "AAAA"},
		},
	}
	sub := NewSubmitter(node, &fakeDirect{}, time.Millisecond, 10, zerolog.Nop())

	_, err := sub.Submit(context.Background(), signedXDR(t, true))
	var failed *SubmissionFailedError
	require.ErrorAs(t, err, &failed)
	assert.Equal(t, "beef", failed.Hash)
	assert.Equal(t, 1, node.sends, "a FAILED verdict must never trigger a resubmission")
}

func TestSubmitTimesOutAfterExactBudget(t *testing.T) {
	node := &fakeNode{
		sendResp: &rpc.SendResponse{Status: rpc.SendPending, Hash: "beef"},
		statuses: []*rpc.GetTransactionResponse{{Status: rpc.StatusNotFound}},
	}
	const attempts = 5
	sub := NewSubmitter(node, &fakeDirect{}, time.Millisecond, attempts, zerolog.Nop())

	_, err := sub.Submit(context.Background(), signedXDR(t, true))
	var timeout *ConfirmationTimeoutError
	require.ErrorAs(t, err, &timeout, "exhausted budget is TIMEOUT, never SubmissionFailed")
	assert.Equal(t, attempts, timeout.Attempts)
	assert.Equal(t, attempts, node.polls)
	assert.Equal(t, 1, node.sends)
}

func TestSubmitRejectedAtSendIsFailed(t *testing.T) {
	node := &fakeNode{
		sendResp: &rpc.SendResponse{Status: rpc.SendError, Hash: "beef", ErrorResultXDR: "AAAB"},
	}
	sub := NewSubmitter(node, &fakeDirect{}, time.Millisecond, 10, zerolog.Nop())

	_, err := sub.Submit(context.Background(), signedXDR(t, true))
	var failed *SubmissionFailedError
	require.ErrorAs(t, err, &failed)
	assert.Equal(t, "AAAB", failed.ResultXDR)
	assert.Zero(t, node.polls)
}

func TestSubmitHonoursCancellation(t *testing.T) {
	node := &fakeNode{
		sendResp: &rpc.SendResponse{Status: rpc.SendPending, Hash: "beef"},
		statuses: []*rpc.GetTransactionResponse{{Status: rpc.StatusNotFound}},
	}
	sub := NewSubmitter(node, &fakeDirect{}, 50*time.Millisecond, 30, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := sub.Submit(ctx, signedXDR(t, true))
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, node.sends)
}

func TestSubmitPollHookSeesEveryAttempt(t *testing.T) {
	node := &fakeNode{
		sendResp: &rpc.SendResponse{Status: rpc.SendPending, Hash: "beef"},
		statuses: []*rpc.GetTransactionResponse{{Status: rpc.StatusNotFound}},
	}
	sub := NewSubmitter(node, &fakeDirect{}, time.Millisecond, 3, zerolog.Nop())

	var seen []int
	sub.PollHook = func(attempt, total int) { seen = append(seen, attempt) }

	_, err := sub.Submit(context.Background(), signedXDR(t, true))
	require.Error(t, err)
	assert.Equal(t, []int{1, 2, 3}, seen)
}
