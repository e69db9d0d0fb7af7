package goplus

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-revival-scanner/internal/provider"
)

const mint = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"

func newTestClient(url, key string) *Client {
	return New(url, key, provider.WithRate(0), provider.WithRetryAfter(time.Millisecond))
}

func TestTokenSecurity(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/token_security/sol", r.URL.Path)
		assert.Equal(t, mint, r.URL.Query().Get("contract_addresses"))
		assert.Equal(t, "Bearer k", r.Header.Get("Authorization"))
		w.Write([]byte(`{"code": 1, "message": "OK", "result": {"` + strings.ToLower(mint) + `": {
			"is_honeypot": "0", "is_mintable": "1", "is_blacklisted": "0",
			"can_take_back_ownership": "1", "holder_count": "1234"
		}}}`))
	}))
	defer server.Close()

	rec, err := newTestClient(server.URL, "k").TokenSecurity(context.Background(), mint)
	require.NoError(t, err)
	assert.False(t, bool(rec.Honeypot))
	assert.True(t, bool(rec.Mintable))
	assert.False(t, bool(rec.Blacklisted))
	assert.True(t, bool(rec.CanTakeBackOwnership))
	assert.Equal(t, "1234", rec.HolderCount)
}

func TestTokenSecurity_MissingRecord(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		w.Write([]byte(`{"code": 1, "message": "OK", "result": {}}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL, "").TokenSecurity(context.Background(), mint)
	assert.ErrorIs(t, err, provider.ErrNoData)
}

func TestTokenSecurity_Malformed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>oops</html>`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL, "").TokenSecurity(context.Background(), mint)
	assert.Error(t, err)
}

func TestFlag_Shapes(t *testing.T) {
	var v struct {
		A Flag `json:"a"`
		B Flag `json:"b"`
		C Flag `json:"c"`
		D Flag `json:"d"`
		E Flag `json:"e"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a": "1", "b": "0", "c": 1, "d": {"status": "1"}, "e": null}`), &v))
	assert.True(t, bool(v.A))
	assert.False(t, bool(v.B))
	assert.True(t, bool(v.C))
	assert.True(t, bool(v.D))
	assert.False(t, bool(v.E))
}
