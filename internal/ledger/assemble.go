package ledger

import (
	"github.com/pkg/errors"
	"github.com/stellar/go/txnbuild"
	"github.com/stellar/go/xdr"
)

// Assemble merges a simulation footprint into an unsigned envelope,
// producing the submission-ready form: the soroban resource metadata is
// attached to the invocation and the fee raised to cover at least the
// minimum resource fee. Pure given its inputs; no network access. The fee
// must never be recomputed without a fresh simulation.
func Assemble(tx *txnbuild.Transaction, fp *Footprint) (*txnbuild.Transaction, error) {
	ops := tx.Operations()
	if len(ops) != 1 {
		return nil, errors.Errorf("assemble: expected a single operation, got %d", len(ops))
	}
	invoke, ok := ops[0].(*txnbuild.InvokeHostFunction)
	if !ok {
		return nil, errors.New("assemble: envelope does not carry a host function invocation")
	}

	data := fp.TransactionData
	data.ResourceFee = xdr.Int64(fp.MinResourceFee)
	invoke.Ext = xdr.TransactionExt{V: 1, SorobanData: &data}
	if len(invoke.Auth) == 0 {
		invoke.Auth = fp.Auth
	}

	// the build step already consumed the sequence increment
	source := tx.SourceAccount()
	assembled, err := txnbuild.NewTransaction(txnbuild.TransactionParams{
		SourceAccount:        &source,
		IncrementSequenceNum: false,
		Operations:           []txnbuild.Operation{invoke},
		BaseFee:              tx.BaseFee() + fp.MinResourceFee,
		Preconditions:        txnbuild.Preconditions{TimeBounds: tx.Timebounds()},
	})
	if err != nil {
		return nil, errors.Wrap(err, "assemble: rebuilding envelope")
	}
	return assembled, nil
}
