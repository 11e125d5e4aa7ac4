package importer

import (
	"path/filepath"
	"sync"

	"golang.org/x/text/unicode/norm"
)

// Tracker receives dependency paths.
type Tracker interface {
	AddDependency(path string)
}

// Dependencies de-duplicates dependency reports for a single compile.
//
// Paths are made absolute, cleaned and NFC-normalized before comparison,
// so the same file reached through different spellings (relative, with
// "..", or decomposed Unicode as some filesystems report) counts once.
//
// Thread-safety: safe for concurrent use via internal mutex.
type Dependencies struct {
	mu      sync.Mutex
	tracker Tracker
	seen    map[string]struct{}
	order   []string
}

// NewDependencies creates a de-duplicating reporter. tracker may be nil.
func NewDependencies(tracker Tracker) *Dependencies {
	return &Dependencies{tracker: tracker, seen: make(map[string]struct{})}
}

// Add reports path unless it was already reported. It returns the
// normalized path and whether this call reported it.
func (d *Dependencies) Add(path string) (string, bool) {
	p := NormalizePath(path)

	d.mu.Lock()
	if _, ok := d.seen[p]; ok {
		d.mu.Unlock()
		return p, false
	}
	d.seen[p] = struct{}{}
	d.order = append(d.order, p)
	d.mu.Unlock()

	if d.tracker != nil {
		d.tracker.AddDependency(p)
	}
	return p, true
}

// List returns the reported paths in first-seen order.
func (d *Dependencies) List() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.order...)
}

// NormalizePath returns the absolute, cleaned, NFC form of path.
func NormalizePath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return norm.NFC.String(filepath.Clean(path))
}
