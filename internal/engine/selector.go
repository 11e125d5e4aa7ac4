package engine

import (
	"errors"
	"log/slog"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/roach88/sassloader/internal/diag"
)

// ErrNotFound is returned by a Discoverer whose engine is not available
// in this environment.
var ErrNotFound = errors.New("engine not found")

// Discoverer locates one engine in the environment.
type Discoverer struct {
	// Name is the engine name the discoverer produces.
	Name string

	// Aliases are alternative names accepted for explicit selection.
	Aliases []string

	// Rank orders discovery; lower ranks are tried first.
	Rank int

	// Discover returns the engine, or an error wrapping ErrNotFound when
	// it is not installed.
	Discover func() (Engine, error)
}

func (d Discoverer) matches(name string) bool {
	name = strings.ToLower(name)
	return d.Name == name || slices.Contains(d.Aliases, name)
}

var (
	registryMu sync.RWMutex
	registry   []Discoverer
)

// Register adds a discoverer to the process-wide registry consulted by
// NewSelector. It is meant to be called from init functions.
func Register(d Discoverer) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = append(registry, d)
}

// Registered returns the registered discoverers in rank order.
func Registered() []Discoverer {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return ranked(registry)
}

func ranked(ds []Discoverer) []Discoverer {
	out := slices.Clone(ds)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Rank < out[j].Rank })
	return out
}

// Selector resolves the engine for a request.
//
// Thread-safety: Select is safe from any goroutine. Handles are built per
// call and never cached; discoverers may cache the engines they find.
type Selector struct {
	discoverers []Discoverer
	logger      *slog.Logger
}

// SelectorOption configures a Selector.
type SelectorOption func(*Selector)

// WithDiscoverers replaces the registered discoverers.
func WithDiscoverers(ds ...Discoverer) SelectorOption {
	return func(s *Selector) {
		s.discoverers = ranked(ds)
	}
}

// WithSelectorLogger sets the logger used for discovery diagnostics.
func WithSelectorLogger(l *slog.Logger) SelectorOption {
	return func(s *Selector) {
		s.logger = l
	}
}

// NewSelector creates a Selector over the registered discoverers.
func NewSelector(opts ...SelectorOption) *Selector {
	s := &Selector{
		discoverers: Registered(),
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Select returns the handle for explicit if non-nil, else for the engine
// registered under name if name is set, else for the first engine
// discovered in rank order.
func (s *Selector) Select(explicit Engine, name string) (*Handle, error) {
	if explicit != nil {
		return Wrap(explicit)
	}

	if name != "" {
		for _, d := range s.discoverers {
			if !d.matches(name) {
				continue
			}
			e, err := d.Discover()
			if err != nil {
				return nil, diag.Configuration("implementation %q is not available: %v", name, err)
			}
			return Wrap(e)
		}
		return nil, diag.Configuration("implementation %q is unknown (known: %s)", name, strings.Join(Known(), ", "))
	}

	var tried []string
	for _, d := range s.discoverers {
		e, err := d.Discover()
		if err != nil {
			s.logger.Debug("engine discovery failed",
				"engine", d.Name,
				"error", err,
			)
			tried = append(tried, d.Name)
			continue
		}
		s.logger.Debug("engine discovered", "engine", d.Name)
		return Wrap(e)
	}

	if len(tried) == 0 {
		return nil, diag.Configuration("no compiler engine is available")
	}
	return nil, diag.Configuration("no compiler engine is available (tried %s)", strings.Join(tried, ", "))
}

// Available returns a handle for every engine that can be discovered, in
// rank order.
func (s *Selector) Available() []*Handle {
	var out []*Handle
	for _, d := range s.discoverers {
		e, err := d.Discover()
		if err != nil {
			continue
		}
		if h, err := Wrap(e); err == nil {
			out = append(out, h)
		}
	}
	return out
}
