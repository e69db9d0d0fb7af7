package orchestrator

import (
	"time"

	"solana-revival-scanner/internal/domain"
)

// Activity levels.
const (
	LevelInfo    = "info"
	LevelSuccess = "success"
	LevelWarning = "warning"
	LevelError   = "error"
)

// Observer receives scan lifecycle events. Methods are called synchronously
// from the scan goroutine and must not block.
type Observer interface {
	ScanStarted(scan *domain.ScanCycle)
	PhaseCompleted(scanID string, phase domain.Phase, tokens []domain.PhaseToken)
	Progress(scanID string, phase domain.Phase, done, total int)
	Activity(level, message string)
	ScanFinished(res *ScanResult)
	ScanFailed(scan *domain.ScanCycle, err error)
}

// NopObserver ignores every event.
type NopObserver struct{}

func (NopObserver) ScanStarted(*domain.ScanCycle)                            {}
func (NopObserver) PhaseCompleted(string, domain.Phase, []domain.PhaseToken) {}
func (NopObserver) Progress(string, domain.Phase, int, int)                  {}
func (NopObserver) Activity(string, string)                                  {}
func (NopObserver) ScanFinished(*ScanResult)                                 {}
func (NopObserver) ScanFailed(*domain.ScanCycle, error)                      {}

// MultiObserver fans events out to every observer in order.
type MultiObserver []Observer

func (m MultiObserver) ScanStarted(scan *domain.ScanCycle) {
	for _, o := range m {
		o.ScanStarted(scan)
	}
}

func (m MultiObserver) PhaseCompleted(scanID string, phase domain.Phase, tokens []domain.PhaseToken) {
	for _, o := range m {
		o.PhaseCompleted(scanID, phase, tokens)
	}
}

func (m MultiObserver) Progress(scanID string, phase domain.Phase, done, total int) {
	for _, o := range m {
		o.Progress(scanID, phase, done, total)
	}
}

func (m MultiObserver) Activity(level, message string) {
	for _, o := range m {
		o.Activity(level, message)
	}
}

func (m MultiObserver) ScanFinished(res *ScanResult) {
	for _, o := range m {
		o.ScanFinished(res)
	}
}

func (m MultiObserver) ScanFailed(scan *domain.ScanCycle, err error) {
	for _, o := range m {
		o.ScanFailed(scan, err)
	}
}

var (
	_ Observer = NopObserver{}
	_ Observer = MultiObserver(nil)
	_ Observer = (*State)(nil)
)

// ActivityEntry is one line of the activity or error log.
type ActivityEntry struct {
	Time    time.Time `json:"timestamp"`
	Level   string    `json:"level"`
	Message string    `json:"message"`
}
