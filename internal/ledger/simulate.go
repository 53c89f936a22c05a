package ledger

import (
	"context"
	"strconv"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stellar/go/txnbuild"
	"github.com/stellar/go/xdr"

	"github.com/dotandev/questrelay/internal/rpc"
)

// NodeClient is the slice of the Soroban RPC surface the lifecycle needs.
type NodeClient interface {
	SimulateTransaction(ctx context.Context, envelopeXDR string) (*rpc.SimulateResponse, error)
	SendTransaction(ctx context.Context, envelopeXDR string) (*rpc.SendResponse, error)
	GetTransaction(ctx context.Context, hash string) (*rpc.GetTransactionResponse, error)
}

// Footprint is the resource estimate one simulation produced. It is
// consumed exactly once, by Assemble, and never persisted.
type Footprint struct {
	CPUInstructions uint64
	MemoryBytes     uint64
	DiskReadBytes   uint32
	WriteBytes      uint32
	MinResourceFee  int64

	TransactionData xdr.SorobanTransactionData
	Auth            []xdr.SorobanAuthorizationEntry

	// ReturnValue is the raw typed value the function would return if
	// executed against current state. Nil when the function returns void.
	ReturnValue *xdr.ScVal
}

// Simulator runs read-only dry runs of unsigned envelopes.
type Simulator struct {
	node NodeClient
	log  zerolog.Logger
}

func NewSimulator(node NodeClient, log zerolog.Logger) *Simulator {
	return &Simulator{node: node, log: log.With().Str("component", "simulator").Logger()}
}

// Simulate submits tx to the read-only execution endpoint. A structured
// simulation error from the node comes back as *SimulationError with the
// contract-reported message verbatim; only transport failures are retried,
// inside the RPC client.
func (s *Simulator) Simulate(ctx context.Context, tx *txnbuild.Transaction) (*Footprint, error) {
	envelope, err := tx.Base64()
	if err != nil {
		return nil, errors.Wrap(err, "simulate: encoding envelope")
	}

	resp, err := s.node.SimulateTransaction(ctx, envelope)
	if err != nil {
		return nil, errors.Wrap(err, "simulate")
	}
	if resp.Error != "" {
		return nil, &SimulationError{Message: resp.Error}
	}

	fp := &Footprint{}
	if err := xdr.SafeUnmarshalBase64(resp.TransactionData, &fp.TransactionData); err != nil {
		return nil, errors.Wrap(err, "simulate: decoding transaction data")
	}
	fp.DiskReadBytes = uint32(fp.TransactionData.Resources.DiskReadBytes)
	fp.WriteBytes = uint32(fp.TransactionData.Resources.WriteBytes)

	fp.MinResourceFee, err = strconv.ParseInt(resp.MinResourceFee, 10, 64)
	if err != nil {
		return nil, errors.Wrapf(err, "simulate: parsing min resource fee %q", resp.MinResourceFee)
	}
	if resp.Cost != nil {
		// cost figures are advisory; a missing field is not fatal
		fp.CPUInstructions, _ = strconv.ParseUint(resp.Cost.CPUInstructions, 10, 64)
		fp.MemoryBytes, _ = strconv.ParseUint(resp.Cost.MemoryBytes, 10, 64)
	}

	for _, result := range resp.Results {
		if result.XDR != "" {
			var val xdr.ScVal
			if err := xdr.SafeUnmarshalBase64(result.XDR, &val); err != nil {
				return nil, errors.Wrap(err, "simulate: decoding return value")
			}
			fp.ReturnValue = &val
		}
		for _, authXDR := range result.Auth {
			var entry xdr.SorobanAuthorizationEntry
			if err := xdr.SafeUnmarshalBase64(authXDR, &entry); err != nil {
				return nil, errors.Wrap(err, "simulate: decoding authorization entry")
			}
			fp.Auth = append(fp.Auth, entry)
		}
	}

	s.log.Debug().
		Int64("min_resource_fee", fp.MinResourceFee).
		Uint64("cpu_insns", fp.CPUInstructions).
		Uint32("write_bytes", fp.WriteBytes).
		Msg("simulation succeeded")
	return fp, nil
}
