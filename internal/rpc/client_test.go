package rpc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dotandev/questrelay/internal/netretry"
)

type rpcRequest struct {
	Version string            `json:"jsonrpc"`
	Method  string            `json:"method"`
	Params  json.RawMessage `json:"params"`
	ID      json.RawMessage `json:"id"`
}

// fakeNode answers JSON-RPC requests with canned results per method.
func fakeNode(t *testing.T, results map[string]interface{}) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		result, ok := results[req.Method]
		if !ok {
			writeRPC(t, w, req.ID, nil, map[string]interface{}{"code": -32601, "message": "method not found"})
			return
		}
		writeRPC(t, w, req.ID, result, nil)
	}))
}

func writeRPC(t *testing.T, w http.ResponseWriter, id json.RawMessage, result, rpcErr interface{}) {
	t.Helper()
	resp := map[string]interface{}{"jsonrpc": "2.0", "id": id}
	if rpcErr != nil {
		resp["error"] = rpcErr
	} else {
		resp["result"] = result
	}
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(resp))
}

func testClient(url string) *Client {
	retry := netretry.New(3, time.Millisecond, zerolog.Nop())
	return NewClient(url, retry, zerolog.Nop())
}

func TestSimulateTransaction(t *testing.T) {
	srv := fakeNode(t, map[string]interface{}{
		"simulateTransaction": SimulateResponse{
			TransactionData: "AAAA",
			MinResourceFee:  "5000",
			Cost:            &SimulateCost{CPUInstructions: "123456", MemoryBytes: "7890"},
			Results:         []SimulateHostFunctionResult{{XDR: "AAAAAQ=="}},
			LatestLedger:    42,
		},
	})
	defer srv.Close()

	resp, err := testClient(srv.URL).SimulateTransaction(context.Background(), "AAAA...")
	require.NoError(t, err)
	assert.Equal(t, "5000", resp.MinResourceFee)
	assert.Equal(t, "123456", resp.Cost.CPUInstructions)
	assert.Len(t, resp.Results, 1)
}

func TestSimulateTransactionSurfacesContractError(t *testing.T) {
	srv := fakeNode(t, map[string]interface{}{
		"simulateTransaction": SimulateResponse{
			Error:        "HostError: Error(Contract, #4)",
			LatestLedger: 42,
		},
	})
	defer srv.Close()

	resp, err := testClient(srv.URL).SimulateTransaction(context.Background(), "AAAA...")
	require.NoError(t, err, "a simulation error is a structured answer, not a transport failure")
	assert.Equal(t, "HostError: Error(Contract, #4)", resp.Error)
}

func TestGetTransaction(t *testing.T) {
	srv := fakeNode(t, map[string]interface{}{
		"getTransaction": GetTransactionResponse{
			Status:         StatusSuccess,
			ReturnValueXDR: "AAAAAQ==",
		},
	})
	defer srv.Close()

	resp, err := testClient(srv.URL).GetTransaction(context.Background(), "deadbeef")
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, resp.Status)
}

func TestNodeErrorIsNotRetried(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		var req rpcRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		writeRPC(t, w, req.ID, nil, map[string]interface{}{"code": -32602, "message": "invalid transaction"})
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).SendTransaction(context.Background(), "AAAA")
	var nodeErr *NodeError
	require.ErrorAs(t, err, &nodeErr)
	assert.Equal(t, -32602, nodeErr.Code)
	assert.Equal(t, 1, calls)
}

func TestServerOutageIsRetried(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		var req rpcRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		writeRPC(t, w, req.ID, GetHealthResponse{Status: "healthy"}, nil)
	}))
	defer srv.Close()

	resp, err := testClient(srv.URL).GetHealth(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, 3, calls)
}

func TestGetVersionInfo(t *testing.T) {
	srv := fakeNode(t, map[string]interface{}{
		"getVersionInfo": GetVersionInfoResponse{Version: "22.1.0", ProtocolVersion: 22},
	})
	defer srv.Close()

	resp, err := testClient(srv.URL).GetVersionInfo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint32(22), resp.ProtocolVersion)
}
