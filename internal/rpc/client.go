// Package rpc is a minimal Soroban RPC client covering the calls the
// transaction lifecycle needs. Transport failures are retried by the
// shared network caller; JSON-RPC error responses are not, since they are
// answers, not outages.
package rpc

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/rpc/v2/json2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/dotandev/questrelay/internal/netretry"
)

const tracerName = "github.com/dotandev/questrelay/internal/rpc"

// Client talks JSON-RPC 2.0 to one Soroban RPC node.
type Client struct {
	url   string
	http  *http.Client
	retry *netretry.Caller
	log   zerolog.Logger
}

func NewClient(url string, retry *netretry.Caller, log zerolog.Logger) *Client {
	return &Client{
		url:   url,
		http:  &http.Client{Timeout: 30 * time.Second},
		retry: retry,
		log:   log.With().Str("component", "rpc").Logger(),
	}
}

func (c *Client) SimulateTransaction(ctx context.Context, envelopeXDR string) (*SimulateResponse, error) {
	var out SimulateResponse
	if err := c.call(ctx, "simulateTransaction", &SimulateRequest{Transaction: envelopeXDR}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SendTransaction(ctx context.Context, envelopeXDR string) (*SendResponse, error) {
	var out SendResponse
	if err := c.call(ctx, "sendTransaction", &SendRequest{Transaction: envelopeXDR}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetTransaction(ctx context.Context, hash string) (*GetTransactionResponse, error) {
	var out GetTransactionResponse
	if err := c.call(ctx, "getTransaction", &GetTransactionRequest{Hash: hash}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetHealth(ctx context.Context) (*GetHealthResponse, error) {
	var out GetHealthResponse
	if err := c.call(ctx, "getHealth", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetVersionInfo(ctx context.Context) (*GetVersionInfoResponse, error) {
	var out GetVersionInfoResponse
	if err := c.call(ctx, "getVersionInfo", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// call performs one JSON-RPC request, retrying the HTTP round trip on
// transient transport failures only.
func (c *Client) call(ctx context.Context, method string, params, result interface{}) error {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "rpc."+method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("rpc.method", method)))
	defer span.End()

	body, err := json2.EncodeClientRequest(method, params)
	if err != nil {
		return errors.Wrapf(err, "encoding %s request", method)
	}

	err = c.retry.Do(ctx, method, func() error {
		return c.roundTrip(ctx, body, result)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	c.log.Debug().Str("method", method).Msg("rpc call succeeded")
	return nil
}

func (c *Client) roundTrip(ctx context.Context, body []byte, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "building request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return httpStatusError(resp.StatusCode)
	}
	if err := json2.DecodeClientResponse(resp.Body, result); err != nil {
		var rpcErr *json2.Error
		if errors.As(err, &rpcErr) {
			// the node answered; do not retry
			return &NodeError{Code: int(rpcErr.Code), Message: rpcErr.Message}
		}
		return errors.Wrap(err, "decoding response")
	}
	return nil
}

// NodeError is a JSON-RPC error object returned by the node.
type NodeError struct {
	Code    int
	Message string
}

func (e *NodeError) Error() string {
	return fmt.Sprintf("rpc node error %d: %s", e.Code, e.Message)
}

// httpStatusError maps gateway-level statuses onto the transient/fatal
// boundary: 5xx and 429 are outages worth retrying, the rest are not.
func httpStatusError(status int) error {
	err := errors.Errorf("unexpected HTTP status %d", status)
	if status >= 500 || status == http.StatusTooManyRequests {
		return &transientHTTPError{err}
	}
	return err
}

type transientHTTPError struct{ error }

func (e *transientHTTPError) Timeout() bool   { return true }
func (e *transientHTTPError) Temporary() bool { return true }
func (e *transientHTTPError) Unwrap() error   { return e.error }
