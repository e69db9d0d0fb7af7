// Package pipeline implements the narrowing stages of a scan cycle:
// discovery, pre-filter, age filter, market filter and social enrichment.
//
// Every stage consumes only the survivors of the previous one. Per-token lookup
// failures are logged and the token is skipped; a stage only returns an error
// when it cannot run at all (missing configuration, cancelled context).
package pipeline

import (
	"context"
	"time"

	"solana-revival-scanner/internal/provider"
)

// ProgressFunc receives per-token progress of a sequential stage.
type ProgressFunc func(done, total int)

func nopProgress(int, int) {}

// pause sleeps d between sequential requests. It is skipped after the last item.
func pause(ctx context.Context, d time.Duration, i, total int) error {
	if i >= total-1 {
		return nil
	}
	return provider.Sleep(ctx, d)
}
