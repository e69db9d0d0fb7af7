package solana

import (
	"context"
	"errors"
	"fmt"
	"time"

	"solana-revival-scanner/internal/cache"
)

// MaxSignaturesPerPage is the RPC limit for getSignaturesForAddress.
const MaxSignaturesPerPage = 1000

// ErrNoHistory is returned when a mint has no resolvable first transaction.
var ErrNoHistory = errors.New("no transaction history")

// AgeResolver resolves a mint's on-chain age from its oldest visible transaction.
type AgeResolver struct {
	rpc      RPCClient
	pages    int
	cache    cache.Cache
	cacheTTL time.Duration
	now      func() time.Time
}

// AgeOption configures AgeResolver.
type AgeOption func(*AgeResolver)

// WithSignaturePages sets how many pages of 1000 signatures to walk back.
// One page matches the common case of young tokens.
func WithSignaturePages(n int) AgeOption {
	return func(r *AgeResolver) {
		if n > 0 {
			r.pages = n
		}
	}
}

// WithAgeCache caches resolved creation times for ttl.
func WithAgeCache(c cache.Cache, ttl time.Duration) AgeOption {
	return func(r *AgeResolver) {
		r.cache = c
		r.cacheTTL = ttl
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) AgeOption {
	return func(r *AgeResolver) {
		r.now = now
	}
}

// NewAgeResolver creates an AgeResolver.
func NewAgeResolver(rpc RPCClient, opts ...AgeOption) *AgeResolver {
	r := &AgeResolver{
		rpc:   rpc,
		pages: 1,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// AgeHours returns hours since the mint's first visible transaction.
func (r *AgeResolver) AgeHours(ctx context.Context, mint string) (float64, error) {
	created, err := r.CreatedAt(ctx, mint)
	if err != nil {
		return 0, err
	}
	return r.now().Sub(created).Hours(), nil
}

// CreatedAt returns the block time of the mint's oldest visible transaction.
func (r *AgeResolver) CreatedAt(ctx context.Context, mint string) (time.Time, error) {
	unix, err := cache.Fetch(ctx, r.cache, "age:"+mint, r.cacheTTL, func(ctx context.Context) (int64, error) {
		return r.resolveBlockTime(ctx, mint)
	})
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(unix, 0), nil
}

func (r *AgeResolver) resolveBlockTime(ctx context.Context, mint string) (int64, error) {
	oldest, err := r.oldestSignature(ctx, mint)
	if err != nil {
		return 0, err
	}

	tx, err := r.rpc.GetTransaction(ctx, oldest.Signature)
	if err != nil {
		return 0, fmt.Errorf("get transaction %s: %w", oldest.Signature, err)
	}
	if tx != nil && tx.BlockTime > 0 {
		return tx.BlockTime, nil
	}

	// Transaction pruned or missing blockTime: fall back to the signature, then the slot.
	if oldest.BlockTime != nil && *oldest.BlockTime > 0 {
		return *oldest.BlockTime, nil
	}
	bt, err := r.rpc.GetBlockTime(ctx, oldest.Slot)
	if err != nil {
		return 0, fmt.Errorf("get block time %d: %w", oldest.Slot, err)
	}
	if bt == nil || *bt <= 0 {
		return 0, ErrNoHistory
	}
	return *bt, nil
}

// oldestSignature walks back up to r.pages pages and returns the last signature seen.
func (r *AgeResolver) oldestSignature(ctx context.Context, mint string) (SignatureInfo, error) {
	var oldest SignatureInfo
	found := false
	opts := &SignaturesOpts{Limit: MaxSignaturesPerPage}

	for page := 0; page < r.pages; page++ {
		sigs, err := r.rpc.GetSignaturesForAddress(ctx, mint, opts)
		if err != nil {
			return SignatureInfo{}, fmt.Errorf("get signatures for %s: %w", mint, err)
		}
		if len(sigs) == 0 {
			break
		}
		oldest = sigs[len(sigs)-1]
		found = true
		if len(sigs) < MaxSignaturesPerPage {
			break
		}
		opts = &SignaturesOpts{Limit: MaxSignaturesPerPage, Before: oldest.Signature}
	}

	if !found {
		return SignatureInfo{}, ErrNoHistory
	}
	return oldest, nil
}
