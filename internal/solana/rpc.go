// Package solana provides the Solana JSON-RPC client used for on-chain age and metadata lookups.
package solana

import "context"

// RPCClient defines the Solana RPC HTTP methods the scanner needs.
type RPCClient interface {
	// GetTransaction retrieves a transaction by signature. Returns nil if not found.
	GetTransaction(ctx context.Context, signature string) (*Transaction, error)

	// GetSignaturesForAddress retrieves signatures for an address, newest first.
	GetSignaturesForAddress(ctx context.Context, address string, opts *SignaturesOpts) ([]SignatureInfo, error)

	// GetAccountInfo retrieves account info by public key. Returns nil if not found.
	GetAccountInfo(ctx context.Context, pubkey string) (*AccountInfo, error)

	// GetBlockTime retrieves the estimated production time of a slot. Returns nil if unknown.
	GetBlockTime(ctx context.Context, slot int64) (*int64, error)
}

// Transaction represents a Solana transaction.
type Transaction struct {
	Slot      int64
	Signature string
	BlockTime int64 // Unix timestamp (seconds)
	Err       interface{}
}
