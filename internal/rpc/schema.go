package rpc

// Wire types for the Soroban RPC JSON-RPC 2.0 endpoints this service
// speaks to: simulateTransaction, sendTransaction, getTransaction,
// getHealth and getVersionInfo.

// Transaction statuses reported by getTransaction.
const (
	StatusSuccess  = "SUCCESS"
	StatusFailed   = "FAILED"
	StatusNotFound = "NOT_FOUND"
	StatusPending  = "PENDING"
)

// Send statuses reported by sendTransaction.
const (
	SendPending       = "PENDING"
	SendDuplicate     = "DUPLICATE"
	SendError         = "ERROR"
	SendTryAgainLater = "TRY_AGAIN_LATER"
)

// SimulateRequest carries an XDR encoded unsigned TransactionEnvelope.
type SimulateRequest struct {
	Transaction string `json:"transaction"`
}

// SimulateHostFunctionResult is one host function's simulated outcome.
type SimulateHostFunctionResult struct {
	// XDR encoded ScVal return value
	XDR string `json:"xdr"`
	// XDR encoded SorobanAuthorizationEntry list
	Auth []string `json:"auth,omitempty"`
}

// SimulateCost is the execution cost the simulation measured.
type SimulateCost struct {
	CPUInstructions string `json:"cpuInsns"`
	MemoryBytes     string `json:"memBytes"`
}

// SimulateResponse is simulateTransaction's result object. Exactly one of
// Error or the estimate fields is populated.
type SimulateResponse struct {
	// XDR encoded SorobanTransactionData
	TransactionData string                       `json:"transactionData,omitempty"`
	MinResourceFee  string                       `json:"minResourceFee,omitempty"`
	Cost            *SimulateCost                `json:"cost,omitempty"`
	Results         []SimulateHostFunctionResult `json:"results,omitempty"`
	LatestLedger    uint32                       `json:"latestLedger"`
	Error           string                       `json:"error,omitempty"`
}

// SendRequest carries an XDR encoded signed TransactionEnvelope.
type SendRequest struct {
	Transaction string `json:"transaction"`
}

// SendResponse is sendTransaction's immediate acknowledgement.
type SendResponse struct {
	Status string `json:"status"`
	Hash   string `json:"hash"`
	// XDR encoded TransactionResult, set when Status is ERROR
	ErrorResultXDR string `json:"errorResultXdr,omitempty"`
	LatestLedger   uint32 `json:"latestLedger"`
}

// GetTransactionRequest queries the fate of a submitted transaction.
type GetTransactionRequest struct {
	Hash string `json:"hash"`
}

// GetTransactionResponse reports a transaction's terminal state, or
// NOT_FOUND while the network has not yet included it.
type GetTransactionResponse struct {
	Status string `json:"status"`
	// XDR encoded TransactionResult
	ResultXDR string `json:"resultXdr,omitempty"`
	// XDR encoded TransactionMeta
	ResultMetaXDR string `json:"resultMetaXdr,omitempty"`
	// XDR encoded ScVal returned by the invoked function
	ReturnValueXDR string `json:"returnValue,omitempty"`
	LatestLedger   uint32 `json:"latestLedger"`
}

// GetHealthResponse reports node liveness.
type GetHealthResponse struct {
	Status string `json:"status"`
}

// GetVersionInfoResponse reports node build and protocol versions.
type GetVersionInfoResponse struct {
	Version         string `json:"version"`
	CommitHash      string `json:"commitHash,omitempty"`
	ProtocolVersion uint32 `json:"protocolVersion"`
}
