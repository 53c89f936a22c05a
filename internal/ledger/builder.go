// Package ledger implements the transaction lifecycle against a Soroban
// contract: build an unsigned invocation envelope, simulate it for a
// resource estimate, assemble the final fee-bearing envelope, submit the
// externally signed result and poll it to a terminal state.
package ledger

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stellar/go/txnbuild"
	"github.com/stellar/go/xdr"
)

// DefaultExpiry bounds how long an unsigned envelope stays valid.
const DefaultExpiry = 300 * time.Second

// DefaultBaseFee is the conservative placeholder inclusion fee, in
// stroops, used before simulation reports the real resource cost.
const DefaultBaseFee = txnbuild.MinBaseFee

// SequenceLoader reads an account's current sequence number from the
// ledger's account index.
type SequenceLoader interface {
	LoadAccount(ctx context.Context, address string) (*txnbuild.SimpleAccount, error)
}

// BuildRequest describes one contract invocation to build.
type BuildRequest struct {
	Source   string
	Contract string
	Function string
	Args     []Arg
	// Expiry overrides DefaultExpiry when positive.
	Expiry time.Duration
}

// Builder constructs unsigned invocation envelopes.
type Builder struct {
	accounts SequenceLoader
	baseFee  int64
	log      zerolog.Logger
}

func NewBuilder(accounts SequenceLoader, baseFee int64, log zerolog.Logger) *Builder {
	if baseFee <= 0 {
		baseFee = DefaultBaseFee
	}
	return &Builder{
		accounts: accounts,
		baseFee:  baseFee,
		log:      log.With().Str("component", "builder").Logger(),
	}
}

// BuildInvoke loads the source account and produces an unsigned envelope
// invoking req.Function on req.Contract with req.Args, at sequence N+1.
func (b *Builder) BuildInvoke(ctx context.Context, req BuildRequest) (*txnbuild.Transaction, error) {
	scArgs, err := encodeArgs(req.Args)
	if err != nil {
		return nil, err
	}

	contractAddr, err := scAddress(req.Contract)
	if err != nil || contractAddr.Type != xdr.ScAddressTypeScAddressTypeContract {
		return nil, &InvalidArgumentError{Position: -1, Tag: string(TagAddress),
			Reason: "target is not a contract address"}
	}

	account, err := b.accounts.LoadAccount(ctx, req.Source)
	if err != nil {
		return nil, err
	}

	expiry := req.Expiry
	if expiry <= 0 {
		expiry = DefaultExpiry
	}

	op := &txnbuild.InvokeHostFunction{
		SourceAccount: req.Source,
		HostFunction: xdr.HostFunction{
			Type: xdr.HostFunctionTypeHostFunctionTypeInvokeContract,
			InvokeContract: &xdr.InvokeContractArgs{
				ContractAddress: contractAddr,
				FunctionName:    xdr.ScSymbol(req.Function),
				Args:            scArgs,
			},
		},
	}

	tx, err := txnbuild.NewTransaction(txnbuild.TransactionParams{
		SourceAccount:        account,
		IncrementSequenceNum: true,
		Operations:           []txnbuild.Operation{op},
		BaseFee:              b.baseFee,
		Preconditions: txnbuild.Preconditions{
			TimeBounds: txnbuild.NewTimeout(int64(expiry / time.Second)),
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "build: assembling unsigned envelope")
	}

	b.log.Debug().
		Str("source", req.Source).
		Str("contract", req.Contract).
		Str("function", req.Function).
		Int64("sequence", account.Sequence).
		Msg("built unsigned invocation envelope")
	return tx, nil
}
