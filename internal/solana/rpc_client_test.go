package solana

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func rpcServer(t *testing.T, method string, result interface{}) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)

		if req.Method != method {
			t.Errorf("expected method %s, got %s", method, req.Method)
		}

		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  result,
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
}

func TestHTTPClient_GetTransaction(t *testing.T) {
	server := rpcServer(t, "getTransaction", map[string]interface{}{
		"slot":      int64(12345),
		"blockTime": int64(1700000000),
		"meta":      map[string]interface{}{"err": nil},
	})
	defer server.Close()

	client := NewHTTPClient(server.URL, WithRate(0))
	tx, err := client.GetTransaction(context.Background(), "sig1")
	if err != nil {
		t.Fatalf("GetTransaction: %v", err)
	}
	if tx == nil {
		t.Fatal("expected transaction, got nil")
	}
	if tx.Slot != 12345 {
		t.Errorf("expected slot 12345, got %d", tx.Slot)
	}
	if tx.BlockTime != 1700000000 {
		t.Errorf("expected blockTime 1700000000, got %d", tx.BlockTime)
	}
	if tx.Signature != "sig1" {
		t.Errorf("expected sig1, got %s", tx.Signature)
	}
}

func TestHTTPClient_GetTransaction_NotFound(t *testing.T) {
	server := rpcServer(t, "getTransaction", nil)
	defer server.Close()

	client := NewHTTPClient(server.URL, WithRate(0))
	tx, err := client.GetTransaction(context.Background(), "missing")
	if err != nil {
		t.Fatalf("GetTransaction: %v", err)
	}
	if tx != nil {
		t.Errorf("expected nil transaction, got %+v", tx)
	}
}

func TestHTTPClient_GetSignaturesForAddress(t *testing.T) {
	blockTime := int64(1700000000)
	server := rpcServer(t, "getSignaturesForAddress", []map[string]interface{}{
		{"signature": "sig1", "slot": int64(100), "blockTime": blockTime, "err": nil},
		{"signature": "sig2", "slot": int64(101), "blockTime": blockTime, "err": nil},
	})
	defer server.Close()

	client := NewHTTPClient(server.URL, WithRate(0))
	sigs, err := client.GetSignaturesForAddress(context.Background(), "testaddr", &SignaturesOpts{Limit: 10})
	if err != nil {
		t.Fatalf("GetSignaturesForAddress: %v", err)
	}

	if len(sigs) != 2 {
		t.Fatalf("expected 2 signatures, got %d", len(sigs))
	}
	if sigs[0].Signature != "sig1" {
		t.Errorf("expected sig1, got %s", sigs[0].Signature)
	}
	if sigs[1].Slot != 101 {
		t.Errorf("expected slot 101, got %d", sigs[1].Slot)
	}
	if sigs[1].BlockTime == nil || *sigs[1].BlockTime != blockTime {
		t.Errorf("expected blockTime %d", blockTime)
	}
}

func TestHTTPClient_GetSignaturesForAddress_SendsPagination(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     uint64        `json:"id"`
			Params []interface{} `json:"params"`
		}
		json.NewDecoder(r.Body).Decode(&req)

		if len(req.Params) != 2 {
			t.Fatalf("expected 2 params, got %d", len(req.Params))
		}
		cfg, ok := req.Params[1].(map[string]interface{})
		if !ok {
			t.Fatalf("expected config object, got %T", req.Params[1])
		}
		if cfg["before"] != "sigX" {
			t.Errorf("expected before sigX, got %v", cfg["before"])
		}
		if cfg["limit"] != float64(1000) {
			t.Errorf("expected limit 1000, got %v", cfg["limit"])
		}

		json.NewEncoder(w).Encode(map[string]interface{}{"jsonrpc": "2.0", "id": req.ID, "result": []interface{}{}})
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, WithRate(0))
	sigs, err := client.GetSignaturesForAddress(context.Background(), "addr", &SignaturesOpts{Before: "sigX", Limit: 1000})
	if err != nil {
		t.Fatalf("GetSignaturesForAddress: %v", err)
	}
	if len(sigs) != 0 {
		t.Errorf("expected no signatures, got %d", len(sigs))
	}
}

func TestHTTPClient_GetAccountInfo(t *testing.T) {
	server := rpcServer(t, "getAccountInfo", map[string]interface{}{
		"value": map[string]interface{}{
			"lamports":   uint64(2039280),
			"owner":      MetaplexProgramID,
			"data":       []string{"AQID", "base64"},
			"executable": false,
			"rentEpoch":  uint64(361),
		},
	})
	defer server.Close()

	client := NewHTTPClient(server.URL, WithRate(0))
	info, err := client.GetAccountInfo(context.Background(), "acct")
	if err != nil {
		t.Fatalf("GetAccountInfo: %v", err)
	}
	if info == nil {
		t.Fatal("expected account info, got nil")
	}
	if info.Data != "AQID" {
		t.Errorf("expected data AQID, got %s", info.Data)
	}
	if info.Owner != MetaplexProgramID {
		t.Errorf("unexpected owner %s", info.Owner)
	}
}

func TestHTTPClient_GetAccountInfo_Missing(t *testing.T) {
	server := rpcServer(t, "getAccountInfo", map[string]interface{}{"value": nil})
	defer server.Close()

	client := NewHTTPClient(server.URL, WithRate(0))
	info, err := client.GetAccountInfo(context.Background(), "acct")
	if err != nil {
		t.Fatalf("GetAccountInfo: %v", err)
	}
	if info != nil {
		t.Errorf("expected nil, got %+v", info)
	}
}

func TestHTTPClient_GetBlockTime(t *testing.T) {
	server := rpcServer(t, "getBlockTime", int64(1690000000))
	defer server.Close()

	client := NewHTTPClient(server.URL, WithRate(0))
	bt, err := client.GetBlockTime(context.Background(), 42)
	if err != nil {
		t.Fatalf("GetBlockTime: %v", err)
	}
	if bt == nil || *bt != 1690000000 {
		t.Errorf("expected 1690000000, got %v", bt)
	}
}

func TestHTTPClient_RetriesRateLimitOnce(t *testing.T) {
	var attempts atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}

		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)
		json.NewEncoder(w).Encode(map[string]interface{}{"jsonrpc": "2.0", "id": req.ID, "result": int64(999)})
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, WithRate(0), WithRetryAfter(10*time.Millisecond))
	bt, err := client.GetBlockTime(context.Background(), 1)
	if err != nil {
		t.Fatalf("GetBlockTime: %v", err)
	}
	if bt == nil || *bt != 999 {
		t.Errorf("expected 999, got %v", bt)
	}
	if attempts.Load() != 2 {
		t.Errorf("expected 2 attempts, got %d", attempts.Load())
	}
}

func TestHTTPClient_PersistentRateLimit(t *testing.T) {
	var attempts atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, WithRate(0), WithRetryAfter(time.Millisecond))
	_, err := client.GetBlockTime(context.Background(), 1)
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
	if attempts.Load() != 2 {
		t.Errorf("expected exactly 2 attempts, got %d", attempts.Load())
	}
}

func TestHTTPClient_ServerErrorNotRetried(t *testing.T) {
	var attempts atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, WithRate(0), WithRetryAfter(time.Millisecond))
	if _, err := client.GetBlockTime(context.Background(), 1); err == nil {
		t.Fatal("expected error")
	}
	if attempts.Load() != 1 {
		t.Errorf("expected 1 attempt, got %d", attempts.Load())
	}
}

func TestHTTPClient_RPCError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)

		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"error": map[string]interface{}{
				"code":    -32600,
				"message": "Invalid Request",
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, WithRate(0))
	_, err := client.GetBlockTime(context.Background(), 1)
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	var rpcErr *rpcError
	if !errors.As(err, &rpcErr) {
		t.Fatalf("expected rpcError, got %T", err)
	}
	if rpcErr.Code != -32600 {
		t.Errorf("expected code -32600, got %d", rpcErr.Code)
	}
}

func TestHTTPClient_NotConfigured(t *testing.T) {
	client := NewHTTPClient("")
	if client.Configured() {
		t.Error("expected unconfigured client")
	}
	if _, err := client.GetBlockTime(context.Background(), 1); err == nil {
		t.Error("expected error for empty endpoint")
	}
}
