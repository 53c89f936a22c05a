// Package netretry retries network operations on transient transport
// failures with exponential backoff. Anything that is not a transport
// failure propagates immediately: a logical rejection from the ledger must
// never be replayed, since the ledger charges fees per attempt.
package netretry

import (
	"context"
	"errors"
	"io"
	"net"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
)

const (
	DefaultAttempts = 5
	DefaultBase     = time.Second
)

// Caller wraps an operation with bounded exponential backoff. The delay
// before attempt n is base * 2^(n-1), without jitter.
type Caller struct {
	attempts int
	base     time.Duration
	log      zerolog.Logger
}

func New(attempts int, base time.Duration, log zerolog.Logger) *Caller {
	if attempts < 1 {
		attempts = DefaultAttempts
	}
	if base <= 0 {
		base = DefaultBase
	}
	return &Caller{attempts: attempts, base: base, log: log}
}

// Do runs op until it succeeds, fails non-transiently, or the attempt
// budget is exhausted. The returned error is the last error op produced.
func (c *Caller) Do(ctx context.Context, name string, op func() error) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.base
	bo.Multiplier = 2
	bo.RandomizationFactor = 0
	bo.MaxInterval = 30 * time.Second
	bo.MaxElapsedTime = 0

	attempt := 0
	return backoff.Retry(func() error {
		attempt++
		err := op()
		if err == nil {
			return nil
		}
		if !Transient(err) {
			return backoff.Permanent(err)
		}
		c.log.Warn().Str("op", name).Int("attempt", attempt).Err(err).
			Msg("transient network failure, backing off")
		return err
	}, backoff.WithContext(backoff.WithMaxRetries(bo, uint64(c.attempts-1)), ctx))
}

// Transient reports whether err is a transport-level failure worth
// retrying: connection reset, connection refused, DNS failure, broken
// pipe, network timeout, or a truncated response. Context cancellation is
// not transient.
func Transient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.EPIPE) {
		return true
	}
	if errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}
