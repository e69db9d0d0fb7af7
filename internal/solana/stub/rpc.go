// Package stub provides an in-memory solana.RPCClient for tests.
package stub

import (
	"context"
	"errors"
	"sync"

	"solana-revival-scanner/internal/solana"
)

// ErrNotFound is returned when a signature list is missing and Strict is set.
var ErrNotFound = errors.New("not found")

// RPCClient implements solana.RPCClient for testing.
type RPCClient struct {
	mu           sync.Mutex
	Transactions map[string]*solana.Transaction
	Signatures   map[string][]solana.SignatureInfo
	Accounts     map[string]*solana.AccountInfo
	BlockTimes   map[int64]int64
	Errors       map[string]error // keyed by address or signature
	Strict       bool
	Calls        int
}

// NewRPCClient creates a new stub RPC client.
func NewRPCClient() *RPCClient {
	return &RPCClient{
		Transactions: make(map[string]*solana.Transaction),
		Signatures:   make(map[string][]solana.SignatureInfo),
		Accounts:     make(map[string]*solana.AccountInfo),
		BlockTimes:   make(map[int64]int64),
		Errors:       make(map[string]error),
	}
}

// AddMint registers a mint whose only signature resolves to blockTime.
func (c *RPCClient) AddMint(mint string, blockTime int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	sig := "sig-" + mint
	c.Signatures[mint] = []solana.SignatureInfo{{Signature: sig, Slot: 1}}
	c.Transactions[sig] = &solana.Transaction{Signature: sig, Slot: 1, BlockTime: blockTime}
}

// GetTransaction returns the stored transaction or nil.
func (c *RPCClient) GetTransaction(_ context.Context, signature string) (*solana.Transaction, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Calls++
	if err := c.Errors[signature]; err != nil {
		return nil, err
	}
	return c.Transactions[signature], nil
}

// GetSignaturesForAddress returns stored signatures, honoring Before and Limit.
func (c *RPCClient) GetSignaturesForAddress(_ context.Context, address string, opts *solana.SignaturesOpts) ([]solana.SignatureInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Calls++
	if err := c.Errors[address]; err != nil {
		return nil, err
	}
	sigs, ok := c.Signatures[address]
	if !ok && c.Strict {
		return nil, ErrNotFound
	}

	start := 0
	if opts != nil && opts.Before != "" {
		for i, s := range sigs {
			if s.Signature == opts.Before {
				start = i + 1
				break
			}
		}
	}
	end := len(sigs)
	if opts != nil && opts.Limit > 0 && start+opts.Limit < end {
		end = start + opts.Limit
	}
	if start >= end {
		return nil, nil
	}
	out := make([]solana.SignatureInfo, end-start)
	copy(out, sigs[start:end])
	return out, nil
}

// GetAccountInfo returns the stored account or nil.
func (c *RPCClient) GetAccountInfo(_ context.Context, pubkey string) (*solana.AccountInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Calls++
	if err := c.Errors[pubkey]; err != nil {
		return nil, err
	}
	return c.Accounts[pubkey], nil
}

// GetBlockTime returns the stored block time or nil.
func (c *RPCClient) GetBlockTime(_ context.Context, slot int64) (*int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Calls++
	bt, ok := c.BlockTimes[slot]
	if !ok {
		return nil, nil
	}
	return &bt, nil
}

var _ solana.RPCClient = (*RPCClient)(nil)
