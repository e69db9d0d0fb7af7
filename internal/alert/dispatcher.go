// Package alert turns revival results into notifications. Each address is
// alerted at most once across restarts; the set of alerted addresses is kept
// in a JSON history file.
package alert

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"

	"solana-revival-scanner/internal/domain"
	"solana-revival-scanner/internal/logging"
	"solana-revival-scanner/internal/observability"
	"solana-revival-scanner/internal/provider"
)

const summaryTop = 5

// Dispatcher maps results to priorities and fans alerts out to its channels.
type Dispatcher struct {
	history  *History
	channels []Channel
	delay    time.Duration
	logger   *zap.Logger
	now      func() time.Time

	mu   sync.Mutex
	sent []*domain.Alert
}

// NewDispatcher creates a dispatcher. A log channel is always included.
func NewDispatcher(history *History, logger *zap.Logger, channels ...Channel) *Dispatcher {
	logger = logging.OrNop(logger)
	if history == nil {
		history, _ = LoadHistory("")
	}
	return &Dispatcher{
		history:  history,
		channels: append([]Channel{NewLogChannel(logger)}, channels...),
		logger:   logger.Named("alert"),
		now:      time.Now,
	}
}

// WithDelay sets the pause between alerts of a batch.
func (d *Dispatcher) WithDelay(delay time.Duration) *Dispatcher {
	d.delay = delay
	return d
}

// WithClock sets the time source for alert timestamps and summaries.
func (d *Dispatcher) WithClock(now func() time.Time) *Dispatcher {
	d.now = now
	return d
}

// Dispatch sends an alert for r. It returns false without error when the score
// maps to no priority or the address was alerted before. The address is
// reserved before delivery, so concurrent calls for one address send at most
// once; it is recorded once any channel delivered and released when none did.
// Channel failures are returned joined.
func (d *Dispatcher) Dispatch(ctx context.Context, r *domain.RevivalResult) (bool, error) {
	if r == nil || r.Error != "" {
		return false, nil
	}
	a := domain.NewAlert(r, d.now())
	if a.Priority == domain.PriorityNone {
		return false, nil
	}
	if !d.history.Reserve(r.Address) {
		d.logger.Debug("already alerted", logging.Token(r.Address, r.Symbol))
		return false, nil
	}

	var errs *multierror.Error
	delivered := 0
	for _, ch := range d.channels {
		if err := ch.Send(ctx, a); err != nil {
			d.logger.Warn("alert channel failed", zap.String("channel", ch.Name()), zap.Error(err))
			errs = multierror.Append(errs, fmt.Errorf("%s: %w", ch.Name(), err))
			continue
		}
		delivered++
	}
	if delivered == 0 {
		d.history.Release(r.Address)
		return false, errs.ErrorOrNil()
	}

	if err := d.history.Add(r.Address); err != nil {
		errs = multierror.Append(errs, err)
	}
	d.mu.Lock()
	d.sent = append(d.sent, a)
	d.mu.Unlock()
	observability.RecordAlert(string(a.Priority))
	return true, errs.ErrorOrNil()
}

// BatchAlert dispatches results highest score first and returns the number of
// alerts sent. Channel errors are logged, never fatal to the batch.
func (d *Dispatcher) BatchAlert(ctx context.Context, results []*domain.RevivalResult) (int, error) {
	sorted := make([]*domain.RevivalResult, 0, len(results))
	for _, r := range results {
		if r != nil {
			sorted = append(sorted, r)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].RevivalScore > sorted[j].RevivalScore
	})

	count := 0
	for _, r := range sorted {
		if err := ctx.Err(); err != nil {
			return count, err
		}
		ok, err := d.Dispatch(ctx, r)
		if err != nil {
			d.logger.Warn("alert dispatch", logging.Token(r.Address, r.Symbol), zap.Error(err))
		}
		if !ok {
			continue
		}
		count++
		if err := provider.Sleep(ctx, d.delay); err != nil {
			return count, err
		}
	}
	return count, nil
}

// Sent returns alerts dispatched by this process, oldest first.
func (d *Dispatcher) Sent() []*domain.Alert {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]*domain.Alert, len(d.sent))
	copy(out, d.sent)
	return out
}

// Summary aggregates the alerts of one day.
type Summary struct {
	Date       time.Time
	Total      int
	ByPriority map[domain.Priority]int
	Top        []*domain.Alert
}

// DailySummary summarises the alerts sent on the current day. When a CSV log
// channel is configured its file is the source, so alerts of earlier processes count.
func (d *Dispatcher) DailySummary() *Summary {
	now := d.now()
	y, m, day := now.Date()
	start := time.Date(y, m, day, 0, 0, 0, 0, now.Location())

	sent := d.Sent()
	for _, ch := range d.channels {
		if log, ok := ch.(*CSVLog); ok {
			logged, err := log.Read(now)
			if err != nil {
				d.logger.Warn("read alert log", zap.Error(err))
				break
			}
			sent = logged
			break
		}
	}

	s := &Summary{Date: start, ByPriority: make(map[domain.Priority]int)}
	var today []*domain.Alert
	for _, a := range sent {
		if a.Timestamp.Before(start) {
			continue
		}
		today = append(today, a)
		s.ByPriority[a.Priority]++
	}
	s.Total = len(today)
	sort.SliceStable(today, func(i, j int) bool { return today[i].Score > today[j].Score })
	if len(today) > summaryTop {
		today = today[:summaryTop]
	}
	s.Top = today
	return s
}

// SendSummary delivers the daily summary to the Telegram channel when one is configured.
func (d *Dispatcher) SendSummary(ctx context.Context) (*Summary, error) {
	s := d.DailySummary()
	d.logger.Info("daily summary",
		zap.Int("total", s.Total),
		zap.Int("high", s.ByPriority[domain.PriorityHigh]),
		zap.Int("medium", s.ByPriority[domain.PriorityMedium]),
		zap.Int("low", s.ByPriority[domain.PriorityLow]),
	)
	for _, ch := range d.channels {
		if tg, ok := ch.(*TelegramChannel); ok && tg.Configured() {
			return s, tg.SendText(ctx, FormatSummary(s))
		}
	}
	return s, nil
}
