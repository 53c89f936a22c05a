package ledger

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	hProtocol "github.com/stellar/go/protocols/horizon"
	"github.com/stellar/go/xdr"

	"github.com/dotandev/questrelay/internal/rpc"
)

const (
	// DefaultPollInterval is the delay between confirmation queries.
	DefaultPollInterval = 2 * time.Second
	// DefaultPollAttempts bounds the confirmation budget (~60s total).
	DefaultPollAttempts = 30
)

// DirectSubmitter is the ledger's synchronous submission endpoint, used
// for simple (non-resource-metered) envelopes.
type DirectSubmitter interface {
	SubmitTransactionXDR(envelopeXDR string) (hProtocol.Transaction, error)
}

// SubmitResult is the terminal outcome of a submission.
type SubmitResult struct {
	Hash    string
	Metered bool
	// ReturnValue is the decoded-pending raw value a metered invocation
	// produced; nil for simple envelopes and void functions.
	ReturnValue *xdr.ScVal
	ResultXDR   string
}

// Submitter classifies signed envelopes, submits them and, for
// resource-metered submissions, polls for terminal confirmation. It never
// submits twice for the same logical request: after the first send, only
// status queries go over the wire.
type Submitter struct {
	node    NodeClient
	horizon DirectSubmitter

	interval time.Duration
	attempts int

	// PollHook, when set, observes each confirmation query. Used by the
	// CLI to drive a progress indicator.
	PollHook func(attempt, total int)

	log zerolog.Logger
}

func NewSubmitter(node NodeClient, horizon DirectSubmitter, interval time.Duration, attempts int, log zerolog.Logger) *Submitter {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if attempts <= 0 {
		attempts = DefaultPollAttempts
	}
	return &Submitter{
		node:     node,
		horizon:  horizon,
		interval: interval,
		attempts: attempts,
		log:      log.With().Str("component", "submitter").Logger(),
	}
}

// Submit accepts an externally-signed base64 envelope, routes it by
// classification and returns its terminal outcome.
func (s *Submitter) Submit(ctx context.Context, signedXDR string) (*SubmitResult, error) {
	metered, err := ResourceMetered(signedXDR)
	if err != nil {
		return nil, err
	}
	if !metered {
		return s.submitDirect(signedXDR)
	}
	return s.submitMetered(ctx, signedXDR)
}

// ResourceMetered reports whether the envelope carries an operation whose
// cost is simulation-metered rather than flat-fee.
func ResourceMetered(signedXDR string) (bool, error) {
	var envelope xdr.TransactionEnvelope
	if err := xdr.SafeUnmarshalBase64(signedXDR, &envelope); err != nil {
		return false, errors.Wrap(err, "submit: decoding signed envelope")
	}
	for _, op := range envelope.Operations() {
		switch op.Body.Type {
		case xdr.OperationTypeInvokeHostFunction,
			xdr.OperationTypeExtendFootprintTtl,
			xdr.OperationTypeRestoreFootprint:
			return true, nil
		}
	}
	return false, nil
}

func (s *Submitter) submitDirect(signedXDR string) (*SubmitResult, error) {
	resp, err := s.horizon.SubmitTransactionXDR(signedXDR)
	if err != nil {
		return nil, errors.Wrap(err, "submit: direct submission")
	}
	if !resp.Successful {
		return nil, &SubmissionFailedError{Hash: resp.Hash, ResultXDR: resp.ResultXdr}
	}
	s.log.Info().Str("hash", resp.Hash).Msg("simple envelope accepted")
	return &SubmitResult{Hash: resp.Hash, ResultXDR: resp.ResultXdr}, nil
}

func (s *Submitter) submitMetered(ctx context.Context, signedXDR string) (*SubmitResult, error) {
	send, err := s.node.SendTransaction(ctx, signedXDR)
	if err != nil {
		return nil, errors.Wrap(err, "submit: sending envelope")
	}
	switch send.Status {
	case rpc.SendPending, rpc.SendDuplicate:
		// DUPLICATE means the network already has this envelope; polling
		// the same hash is the correct continuation, not an error.
	default:
		return nil, &SubmissionFailedError{Hash: send.Hash, ResultXDR: send.ErrorResultXDR}
	}

	s.log.Info().Str("hash", send.Hash).Str("status", send.Status).Msg("metered envelope submitted, polling")
	return s.confirm(ctx, send.Hash)
}

// confirm polls the status endpoint until a terminal state or the attempt
// budget runs out. Budget exhaustion is a local TIMEOUT classification,
// never a confirmed failure, and is never answered with a resubmission.
func (s *Submitter) confirm(ctx context.Context, hash string) (*SubmitResult, error) {
	for attempt := 1; attempt <= s.attempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(s.interval):
			}
		}
		if s.PollHook != nil {
			s.PollHook(attempt, s.attempts)
		}

		status, err := s.node.GetTransaction(ctx, hash)
		if err != nil {
			return nil, errors.Wrapf(err, "confirm: querying transaction %s", hash)
		}

		switch status.Status {
		case rpc.StatusSuccess:
			result := &SubmitResult{Hash: hash, Metered: true, ResultXDR: status.ResultXDR}
			if status.ReturnValueXDR != "" {
				var val xdr.ScVal
				if err := xdr.SafeUnmarshalBase64(status.ReturnValueXDR, &val); err == nil {
					result.ReturnValue = &val
				}
			}
			s.log.Info().Str("hash", hash).Int("attempts", attempt).Msg("transaction confirmed")
			return result, nil
		case rpc.StatusFailed:
			return nil, &SubmissionFailedError{Hash: hash, ResultXDR: status.ResultXDR}
		case rpc.StatusNotFound, rpc.StatusPending:
			continue
		default:
			s.log.Warn().Str("hash", hash).Str("status", status.Status).Msg("unrecognized status, continuing to poll")
		}
	}
	return nil, &ConfirmationTimeoutError{Hash: hash, Attempts: s.attempts, Interval: s.interval}
}
