package ledger

import (
	"fmt"
	"time"
)

// Phase names the lifecycle stage an error came from. Each phase implies a
// different remedy for the caller: fund the account, fix the argument,
// re-sign, or re-query by hash.
type Phase string

const (
	PhaseBuild    Phase = "build"
	PhaseSimulate Phase = "simulate"
	PhaseSubmit   Phase = "submit"
	PhaseConfirm  Phase = "confirm"
)

// AccountNotFoundError means the source account has no ledger presence.
type AccountNotFoundError struct {
	Address string
}

func (e *AccountNotFoundError) Error() string {
	return fmt.Sprintf("%s: account %s not found on the ledger; it must exist and be funded before building", PhaseBuild, e.Address)
}

// InvalidArgumentError means a native argument could not be encoded for
// its declared type tag.
type InvalidArgumentError struct {
	Position int
	Tag      string
	Reason   string
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("%s: argument %d (%s): %s", PhaseBuild, e.Position, e.Tag, e.Reason)
}

// SimulationError is a contract-level rejection during the dry run. The
// node's message is carried verbatim and never retried.
type SimulationError struct {
	Message string
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("%s: %s", PhaseSimulate, e.Message)
}

// SubmissionFailedError is the ledger's authoritative FAILED verdict.
type SubmissionFailedError struct {
	Hash      string
	ResultXDR string
}

func (e *SubmissionFailedError) Error() string {
	return fmt.Sprintf("%s: transaction %s failed on the ledger (result %s)", PhaseConfirm, e.Hash, e.ResultXDR)
}

// ConfirmationTimeoutError means the poll budget ran out while the
// transaction was still pending. The transaction is unconfirmed, not
// rejected: re-query by hash later instead of resubmitting.
type ConfirmationTimeoutError struct {
	Hash     string
	Attempts int
	Interval time.Duration
}

func (e *ConfirmationTimeoutError) Error() string {
	return fmt.Sprintf("%s: transaction %s unconfirmed after %d polls at %s; re-query by hash before resubmitting",
		PhaseConfirm, e.Hash, e.Attempts, e.Interval)
}
