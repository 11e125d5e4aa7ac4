package host

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// ErrModuleNotFound is returned by FS.Resolve when no module directory
// holds the request.
var ErrModuleNotFound = errors.New("module not found")

// FS is a LoaderContext backed by the local filesystem, used when the
// loader runs outside a build system.
//
// Module requests resolve against node_modules directories found walking
// up from the importing directory, then against configured module
// directories. A request naming a package directory resolves through the
// "sass" or "style" field of its package.json.
//
// Thread-safety: all methods are safe for concurrent use via internal mutex.
type FS struct {
	resource   string
	mode       Mode
	sourceMap  bool
	moduleDirs []string
	logger     *slog.Logger

	mu       sync.Mutex
	deps     []string
	warnings []error
	errs     []error
	done     chan struct{}
	result   *Result
	err      error
}

// FSOption configures an FS.
type FSOption func(*FS)

// WithMode sets the build mode (default ModeDevelopment).
func WithMode(m Mode) FSOption {
	return func(f *FS) { f.mode = m }
}

// WithSourceMap sets the host's source-map flag.
func WithSourceMap(on bool) FSOption {
	return func(f *FS) { f.sourceMap = on }
}

// WithModuleDirs adds directories searched after node_modules.
func WithModuleDirs(dirs ...string) FSOption {
	return func(f *FS) { f.moduleDirs = append(f.moduleDirs, dirs...) }
}

// WithLogger sets the logger warnings and errors are echoed to.
func WithLogger(l *slog.Logger) FSOption {
	return func(f *FS) { f.logger = l }
}

// NewFS creates a loader context for the stylesheet at resource.
func NewFS(resource string, opts ...FSOption) (*FS, error) {
	abs, err := filepath.Abs(resource)
	if err != nil {
		return nil, fmt.Errorf("resource path: %w", err)
	}
	f := &FS{
		resource: abs,
		mode:     ModeDevelopment,
		logger:   slog.Default(),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// ResourcePath implements LoaderContext.
func (f *FS) ResourcePath() string { return f.resource }

// Mode implements LoaderContext.
func (f *FS) Mode() Mode { return f.mode }

// SourceMap implements LoaderContext.
func (f *FS) SourceMap() bool { return f.sourceMap }

// Resolve implements LoaderContext.
func (f *FS) Resolve(ctx context.Context, dir, request string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if relativeRequest(request) {
		if p, ok := resolveIn(dir, filepath.FromSlash(request)); ok {
			return p, nil
		}
		return "", fmt.Errorf("%q from %s: %w", request, dir, ErrModuleNotFound)
	}
	request = filepath.FromSlash(request)

	for _, base := range f.searchDirs(dir) {
		if p, ok := resolveIn(base, request); ok {
			return p, nil
		}
	}
	return "", fmt.Errorf("%q from %s: %w", request, dir, ErrModuleNotFound)
}

// searchDirs lists node_modules directories from dir up to the root,
// then the configured module directories.
func (f *FS) searchDirs(dir string) []string {
	var out []string
	for d := filepath.Clean(dir); ; {
		out = append(out, filepath.Join(d, "node_modules"))
		parent := filepath.Dir(d)
		if parent == d {
			break
		}
		d = parent
	}
	return append(out, f.moduleDirs...)
}

func resolveIn(base, request string) (string, bool) {
	p := filepath.Join(base, request)
	info, err := os.Stat(p)
	if err != nil {
		return "", false
	}
	if info.Mode().IsRegular() {
		return p, true
	}
	if info.IsDir() {
		return packageEntry(p)
	}
	return "", false
}

// packageEntry reads the stylesheet entry point of a package directory.
func packageEntry(dir string) (string, bool) {
	data, err := os.ReadFile(filepath.Join(dir, "package.json"))
	if err != nil {
		return "", false
	}
	var pkg struct {
		Sass  string `json:"sass"`
		Style string `json:"style"`
	}
	if err := json.Unmarshal(data, &pkg); err != nil {
		return "", false
	}
	for _, entry := range []string{pkg.Sass, pkg.Style} {
		if entry == "" {
			continue
		}
		p := filepath.Join(dir, filepath.FromSlash(entry))
		if info, err := os.Stat(p); err == nil && info.Mode().IsRegular() {
			return p, true
		}
	}
	return "", false
}

// AddDependency implements LoaderContext.
func (f *FS) AddDependency(path string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deps = append(f.deps, path)
}

// EmitWarning implements LoaderContext.
func (f *FS) EmitWarning(err error) {
	f.logger.Warn("loader warning", "resource", f.resource, "error", err)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.warnings = append(f.warnings, err)
}

// EmitError implements LoaderContext.
func (f *FS) EmitError(err error) {
	f.logger.Error("loader error", "resource", f.resource, "error", err)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs = append(f.errs, err)
}

// Async implements LoaderContext. Completions after the first are logged
// and dropped.
func (f *FS) Async() Callback {
	var once sync.Once
	return func(err error, res *Result) {
		fired := false
		once.Do(func() {
			fired = true
			f.mu.Lock()
			f.err, f.result = err, res
			f.mu.Unlock()
			close(f.done)
		})
		if !fired {
			f.logger.Warn("completion callback invoked more than once", "resource", f.resource)
		}
	}
}

// Wait blocks until the compile completes or ctx is done.
func (f *FS) Wait(ctx context.Context) (*Result, error) {
	select {
	case <-f.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.result, f.err
}

// Dependencies returns the reported dependencies in order.
func (f *FS) Dependencies() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.deps...)
}

// Warnings returns the emitted warnings.
func (f *FS) Warnings() []error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]error(nil), f.warnings...)
}

// Errors returns the emitted errors.
func (f *FS) Errors() []error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]error(nil), f.errs...)
}

// relativeRequest reports whether request is written relative to the
// importing file rather than naming a module.
func relativeRequest(request string) bool {
	return strings.HasPrefix(request, "./") || strings.HasPrefix(request, "../")
}
