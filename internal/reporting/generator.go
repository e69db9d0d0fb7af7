package reporting

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"solana-revival-scanner/internal/domain"
	"solana-revival-scanner/internal/storage"
)

// Generator produces reports from stored scans.
type Generator struct {
	store storage.Store
	now   func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator(store storage.Store) *Generator {
	return &Generator{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate produces the report of one scan. Only non-gated results at or
// above minScore are listed.
func (g *Generator) Generate(ctx context.Context, scanID string, minScore float64) (*ScanReport, error) {
	scan, err := g.store.GetScan(ctx, scanID)
	if err != nil {
		return nil, fmt.Errorf("load scan %s: %w", scanID, err)
	}
	results, err := g.store.ResultsByScan(ctx, scanID)
	if err != nil {
		return nil, fmt.Errorf("load results of scan %s: %w", scanID, err)
	}

	kept := results[:0]
	for _, r := range results {
		if r.Error == "" && r.RevivalScore >= minScore {
			kept = append(kept, r)
		}
	}
	return NewScanReport(scan, kept, g.now()), nil
}

// Latest produces the report of the most recent scan.
func (g *Generator) Latest(ctx context.Context, minScore float64) (*ScanReport, error) {
	scans, err := g.store.ListScans(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(scans) == 0 {
		return nil, storage.ErrNotFound
	}
	return g.Generate(ctx, scans[0].ID, minScore)
}

// Writer exports detected results as timestamped CSV files in a directory.
type Writer struct {
	dir string
}

// NewWriter creates a Writer rooted at dir.
func NewWriter(dir string) *Writer {
	return &Writer{dir: dir}
}

// Paths returns the full and summary file paths for a scan finished at t.
func (w *Writer) Paths(t time.Time) (results, summary string) {
	stamp := t.Format("20060102_150405")
	return filepath.Join(w.dir, "scan_results_"+stamp+".csv"),
		filepath.Join(w.dir, "scan_summary_"+stamp+".csv")
}

// WriteResults writes the full and summary CSV files. Empty result sets write nothing.
func (w *Writer) WriteResults(_ string, at time.Time, results []*domain.RevivalResult) error {
	if len(results) == 0 {
		return nil
	}
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("create results dir: %w", err)
	}
	rows := make([]ResultRow, len(results))
	for i, r := range results {
		rows[i] = NewResultRow(r)
	}

	full, summary := w.Paths(at)
	if err := os.WriteFile(full, []byte(RenderResultsCSV(rows)), 0o644); err != nil {
		return fmt.Errorf("write results: %w", err)
	}
	if err := os.WriteFile(summary, []byte(RenderSummaryCSV(rows)), 0o644); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	return nil
}
