package pipeline

import (
	"context"
	"fmt"

	"solana-revival-scanner/internal/domain"
	"solana-revival-scanner/internal/provider"
	"solana-revival-scanner/internal/solana"
)

// Valid base58 32-byte addresses used across tests.
var testMints = []string{
	"EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v",
	"So11111111111111111111111111111111111111112",
	"Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB",
	"DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263",
	"JUPyiwrYJFskUPiHa7hkeR8VUtAeFoSYbKedZNsDvCN",
	"mSoLzYCxHdYgdzU16g5QSh3i5K3z3KZK7ytfqcJm7So",
}

type fakeLists struct {
	memes    [][]domain.Token // pages
	movers   [][]domain.Token
	trending []domain.Token
	memeErr  error
	calls    []string
}

func page(pages [][]domain.Token, offset, limit int) []domain.Token {
	i := offset / limit
	if i >= len(pages) {
		return nil
	}
	return pages[i]
}

func (f *fakeLists) MemeList(_ context.Context, offset, limit int) ([]domain.Token, error) {
	f.calls = append(f.calls, fmt.Sprintf("meme:%d", offset))
	if f.memeErr != nil {
		return nil, f.memeErr
	}
	return page(f.memes, offset, limit), nil
}

func (f *fakeLists) TokenList(_ context.Context, sortBy string, offset, limit int) ([]domain.Token, error) {
	f.calls = append(f.calls, fmt.Sprintf("list:%s:%d", sortBy, offset))
	return page(f.movers, offset, limit), nil
}

func (f *fakeLists) Trending(_ context.Context, limit int) ([]domain.Token, error) {
	f.calls = append(f.calls, "trending")
	if len(f.trending) > limit {
		return f.trending[:limit], nil
	}
	return f.trending, nil
}

type fakeMeta map[string]*solana.TokenMetadata

func (f fakeMeta) Resolve(_ context.Context, mint string) (*solana.TokenMetadata, error) {
	if md, ok := f[mint]; ok {
		return md, nil
	}
	return nil, solana.ErrNoMetadata
}

type fakeAges struct {
	ages  map[string]float64
	errs  map[string]error
	calls int
}

func (f *fakeAges) AgeHours(_ context.Context, mint string) (float64, error) {
	f.calls++
	if err := f.errs[mint]; err != nil {
		return 0, err
	}
	age, ok := f.ages[mint]
	if !ok {
		return 0, solana.ErrNoHistory
	}
	return age, nil
}

type fakeMarket struct {
	snaps map[string]*domain.MarketSnapshot
	err   error
	calls int
}

func (f *fakeMarket) Snapshot(_ context.Context, address string) (*domain.MarketSnapshot, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	s, ok := f.snaps[address]
	if !ok {
		return nil, provider.ErrNoData
	}
	return s, nil
}
