package alert

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// History is the persisted set of addresses that have already been alerted.
// The file holds {"alerted_tokens": [...]} in first-alerted order.
type History struct {
	mu    sync.Mutex
	path  string // empty keeps the history in memory only
	seen  map[string]struct{}
	order []string

	pending map[string]struct{} // reserved by an in-flight dispatch
}

type historyFile struct {
	AlertedTokens []string `json:"alerted_tokens"`
}

// LoadHistory reads the history at path. A missing file yields an empty history.
func LoadHistory(path string) (*History, error) {
	h := &History{path: path, seen: make(map[string]struct{}), pending: make(map[string]struct{})}
	if path == "" {
		return h, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return h, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read alert history: %w", err)
	}
	var f historyFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse alert history %s: %w", path, err)
	}
	for _, addr := range f.AlertedTokens {
		h.addLocked(addr)
	}
	return h, nil
}

// Contains reports whether address was alerted before.
func (h *History) Contains(address string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.seen[address]
	return ok
}

// Reserve claims address for one dispatch. It returns false when the address
// was alerted before or another dispatch holds it. A reservation ends with
// Add on delivery or Release on failure.
func (h *History) Reserve(address string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.seen[address]; ok {
		return false
	}
	if _, ok := h.pending[address]; ok {
		return false
	}
	h.pending[address] = struct{}{}
	return true
}

// Release drops a reservation without recording the address.
func (h *History) Release(address string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.pending, address)
}

// Len returns the number of alerted addresses.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.order)
}

// Add records address and persists the history. Re-adding is a no-op.
func (h *History) Add(address string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.pending, address)
	if !h.addLocked(address) {
		return nil
	}
	return h.saveLocked()
}

func (h *History) addLocked(address string) bool {
	if _, ok := h.seen[address]; ok {
		return false
	}
	h.seen[address] = struct{}{}
	h.order = append(h.order, address)
	return true
}

// saveLocked writes through a temp file so a crash never leaves a truncated history.
func (h *History) saveLocked() error {
	if h.path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(h.path), 0o755); err != nil {
		return fmt.Errorf("create history dir: %w", err)
	}
	data, err := json.MarshalIndent(historyFile{AlertedTokens: h.order}, "", "  ")
	if err != nil {
		return err
	}
	tmp := h.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write alert history: %w", err)
	}
	return os.Rename(tmp, h.path)
}
