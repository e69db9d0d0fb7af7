package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"solana-revival-scanner/internal/config"
	"solana-revival-scanner/internal/provider"
)

// ErrLoopRunning is returned by Start when the continuous loop is already active.
var ErrLoopRunning = errors.New("continuous scanning already running")

// nextRun returns when the loop should scan next.
func (o *Orchestrator) nextRun(from time.Time) (time.Time, error) {
	cfg := o.Config()
	if cfg.Scan.Cron != "" {
		s, err := config.ParseSchedule(cfg.Scan.Cron)
		if err != nil {
			return time.Time{}, fmt.Errorf("parse schedule %q: %w", cfg.Scan.Cron, err)
		}
		return s.Next(from), nil
	}
	return from.Add(cfg.Scan.Interval), nil
}

// RunContinuous scans until ctx is cancelled. A failed scan is retried after
// the cooldown; otherwise, including when another scan already holds the
// cycle, the next scan waits for the interval or cron schedule.
func (o *Orchestrator) RunContinuous(ctx context.Context, state *State) error {
	if state != nil {
		state.SetRunning(true)
		defer state.SetRunning(false)
	}
	o.observer.Activity(LevelInfo, "Continuous scanning started")
	defer o.observer.Activity(LevelInfo, "Continuous scanning stopped")

	for {
		_, err := o.RunScan(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		var next time.Time
		switch {
		case errors.Is(err, ErrScanInProgress):
			// A one-off scan owns this cycle.
			o.logger.Info("scan already in progress, skipping cycle")
			if next, err = o.nextRun(o.now()); err != nil {
				return err
			}
		case err != nil:
			cfg := o.Config()
			o.logger.Warn("scan failed, cooling down", zap.Error(err), zap.Duration("cooldown", cfg.Scan.Cooldown))
			next = o.now().Add(cfg.Scan.Cooldown)
		default:
			if next, err = o.nextRun(o.now()); err != nil {
				return err
			}
		}

		if state != nil {
			state.SetNextScan(next)
		}
		o.logger.Info("next scan scheduled", zap.Time("at", next))
		if err := provider.Sleep(ctx, next.Sub(o.now())); err != nil {
			return err
		}
	}
}

// Loop runs RunContinuous in the background and exposes start/stop/once controls.
type Loop struct {
	orch  *Orchestrator
	state *State
	base  context.Context

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	wg     sync.WaitGroup
}

// NewLoop creates a Loop whose scans inherit base.
func NewLoop(base context.Context, orch *Orchestrator, state *State) *Loop {
	return &Loop{orch: orch, state: state, base: base}
}

// Start launches continuous scanning.
func (l *Loop) Start() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel != nil {
		return ErrLoopRunning
	}
	ctx, cancel := context.WithCancel(l.base)
	done := make(chan struct{})
	l.cancel, l.done = cancel, done

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		defer close(done)
		err := l.orch.RunContinuous(ctx, l.state)
		if err != nil && !errors.Is(err, context.Canceled) {
			l.orch.logger.Error("continuous scanning stopped", zap.Error(err))
			l.orch.observer.Activity(LevelError, fmt.Sprintf("Continuous scanning stopped: %v", err))
		}
		l.mu.Lock()
		if l.done == done {
			l.cancel, l.done = nil, nil
		}
		l.mu.Unlock()
		cancel()
	}()
	return nil
}

// Stop cancels continuous scanning and waits for the loop to exit.
// It reports whether a loop was running.
func (l *Loop) Stop() bool {
	l.mu.Lock()
	cancel, done := l.cancel, l.done
	l.cancel, l.done = nil, nil
	l.mu.Unlock()
	if cancel == nil {
		return false
	}
	cancel()
	<-done
	return true
}

// Running reports whether continuous scanning is active.
func (l *Loop) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cancel != nil
}

// RunOnce starts a single scan in the background.
// It returns ErrScanInProgress without starting one if a scan is running.
func (l *Loop) RunOnce() error {
	if l.state != nil && l.state.Status().Scanning {
		return ErrScanInProgress
	}
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		if _, err := l.orch.RunScan(l.base); err != nil && !errors.Is(err, ErrScanInProgress) {
			l.orch.logger.Warn("one-off scan failed", zap.Error(err))
		}
	}()
	return nil
}

// Wait blocks until every goroutine started by the loop has returned.
func (l *Loop) Wait() {
	l.wg.Wait()
}
