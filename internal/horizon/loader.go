// Package horizon adapts the ledger's account-index and direct-submission
// endpoints for the transaction lifecycle.
package horizon

import (
	"context"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stellar/go/clients/horizonclient"
	hProtocol "github.com/stellar/go/protocols/horizon"
	"github.com/stellar/go/txnbuild"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/dotandev/questrelay/internal/ledger"
	"github.com/dotandev/questrelay/internal/netretry"
)

const tracerName = "github.com/dotandev/questrelay/internal/horizon"

// accountIndex is the slice of the Horizon client the loader uses.
type accountIndex interface {
	AccountDetail(request horizonclient.AccountRequest) (hProtocol.Account, error)
	SubmitTransactionXDR(transactionXdr string) (hProtocol.Transaction, error)
}

// Client loads accounts and submits simple envelopes through Horizon.
type Client struct {
	horizon accountIndex
	retry   *netretry.Caller
	log     zerolog.Logger
}

func NewClient(horizonURL string, retry *netretry.Caller, log zerolog.Logger) *Client {
	return &Client{
		horizon: &horizonclient.Client{
			HorizonURL: horizonURL,
			HTTP:       &http.Client{Timeout: 30 * time.Second},
		},
		retry: retry,
		log:   log.With().Str("component", "horizon").Logger(),
	}
}

// LoadAccount reads the account's current sequence number. A missing
// account is fatal and comes back as *ledger.AccountNotFoundError, since
// building against an unfunded source can never succeed.
func (c *Client) LoadAccount(ctx context.Context, address string) (*txnbuild.SimpleAccount, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "horizon.loadAccount",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("account.address", address)))
	defer span.End()

	var detail hProtocol.Account
	err := c.retry.Do(ctx, "loadAccount", func() error {
		var err error
		detail, err = c.horizon.AccountDetail(horizonclient.AccountRequest{AccountID: address})
		if horizonclient.IsNotFoundError(err) {
			// a definitive answer from the index, not a transport fault
			return &notFoundError{address: address}
		}
		return err
	})
	if err != nil {
		var nf *notFoundError
		if errors.As(err, &nf) {
			return nil, &ledger.AccountNotFoundError{Address: address}
		}
		span.RecordError(err)
		return nil, errors.Wrapf(err, "loading account %s", address)
	}

	sequence, err := detail.GetSequenceNumber()
	if err != nil {
		return nil, errors.Wrapf(err, "parsing sequence for account %s", address)
	}
	c.log.Debug().Str("address", address).Int64("sequence", sequence).Msg("account loaded")
	return &txnbuild.SimpleAccount{AccountID: address, Sequence: sequence}, nil
}

// SubmitTransactionXDR submits a simple envelope synchronously. The retry
// wrapper only ever replays transport failures; ledger verdicts
// (tx_bad_seq and friends) are non-transient and propagate on the first
// attempt.
func (c *Client) SubmitTransactionXDR(envelopeXDR string) (hProtocol.Transaction, error) {
	var tx hProtocol.Transaction
	err := c.retry.Do(context.Background(), "submitTransaction", func() error {
		var err error
		tx, err = c.horizon.SubmitTransactionXDR(envelopeXDR)
		return err
	})
	return tx, err
}

type notFoundError struct{ address string }

func (e *notFoundError) Error() string { return "account " + e.address + " not found" }
