package alert

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"solana-revival-scanner/internal/domain"
)

var csvHeader = []string{
	"timestamp", "priority", "symbol", "address", "revival_score", "age_hours",
	"liquidity", "volume_24h", "price_change_24h", "dexscreener_url",
}

// CSVLog appends alerts to a dated file alerts_YYYYMMDD.csv under dir.
type CSVLog struct {
	mu  sync.Mutex
	dir string
}

// NewCSVLog creates a CSV alert log rooted at dir.
func NewCSVLog(dir string) *CSVLog {
	return &CSVLog{dir: dir}
}

func (c *CSVLog) Name() string { return "csv" }

// Path returns the log file for the day of t.
func (c *CSVLog) Path(t time.Time) string {
	return filepath.Join(c.dir, fmt.Sprintf("alerts_%s.csv", t.Format("20060102")))
}

func (c *CSVLog) Send(_ context.Context, a *domain.Alert) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("create alert log dir: %w", err)
	}
	path := c.Path(a.Timestamp)
	_, statErr := os.Stat(path)
	fresh := os.IsNotExist(statErr)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open alert log: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if fresh {
		if err := w.Write(csvHeader); err != nil {
			return err
		}
	}
	if err := w.Write(csvRecord(a)); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

func csvRecord(a *domain.Alert) []string {
	return []string{
		a.Timestamp.Format(time.RFC3339),
		string(a.Priority),
		a.Symbol,
		a.Address,
		strconv.FormatFloat(a.Score, 'f', 4, 64),
		strconv.FormatFloat(a.AgeHours, 'f', 1, 64),
		strconv.FormatFloat(a.LiquidityUSD, 'f', 2, 64),
		strconv.FormatFloat(a.Volume24hUSD, 'f', 2, 64),
		strconv.FormatFloat(a.PriceChange24h, 'f', 2, 64),
		a.URL,
	}
}

// Read returns the alerts logged on the day of t, in file order.
// A missing file yields no alerts.
func (c *CSVLog) Read(t time.Time) ([]*domain.Alert, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	f, err := os.Open(c.Path(t))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open alert log: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(csvHeader)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read alert log: %w", err)
	}
	if len(records) > 0 {
		records = records[1:]
	}

	out := make([]*domain.Alert, 0, len(records))
	for i, rec := range records {
		a, err := parseRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("alert log line %d: %w", i+2, err)
		}
		out = append(out, a)
	}
	return out, nil
}

func parseRecord(rec []string) (*domain.Alert, error) {
	ts, err := time.Parse(time.RFC3339, rec[0])
	if err != nil {
		return nil, err
	}
	nums := make([]float64, 5)
	for i := range nums {
		if nums[i], err = strconv.ParseFloat(rec[4+i], 64); err != nil {
			return nil, err
		}
	}
	return &domain.Alert{
		Timestamp:      ts,
		Priority:       domain.Priority(rec[1]),
		Symbol:         rec[2],
		Address:        rec[3],
		Score:          nums[0],
		AgeHours:       nums[1],
		LiquidityUSD:   nums[2],
		Volume24hUSD:   nums[3],
		PriceChange24h: nums[4],
		URL:            rec[9],
	}, nil
}
