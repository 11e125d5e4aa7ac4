package testutil

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/roach88/sassloader/internal/host"
)

// Recorder is an in-memory host.LoaderContext that records everything the
// loader reports.
//
// Resolve answers from the Modules map (request → absolute path) and fails
// for anything else.
//
// Thread-safety: all methods are safe for concurrent use via internal mutex.
type Recorder struct {
	Resource      string
	BuildMode     host.Mode
	WantSourceMap bool
	Modules       map[string]string

	mu          sync.Mutex
	deps        []string
	warnings    []error
	errs        []error
	resolves    []string
	asyncCalls  int
	completions int
	result      *host.Result
	err         error
	done        chan struct{}
}

// NewRecorder creates a Recorder for the given resource path in
// development mode with source maps off.
func NewRecorder(resource string) *Recorder {
	return &Recorder{
		Resource:  resource,
		BuildMode: host.ModeDevelopment,
		Modules:   map[string]string{},
		done:      make(chan struct{}),
	}
}

// ResourcePath implements host.LoaderContext.
func (r *Recorder) ResourcePath() string { return r.Resource }

// Mode implements host.LoaderContext.
func (r *Recorder) Mode() host.Mode { return r.BuildMode }

// SourceMap implements host.LoaderContext.
func (r *Recorder) SourceMap() bool { return r.WantSourceMap }

// Resolve implements host.LoaderContext.
func (r *Recorder) Resolve(_ context.Context, dir, request string) (string, error) {
	r.mu.Lock()
	r.resolves = append(r.resolves, request)
	r.mu.Unlock()

	if p, ok := r.Modules[request]; ok {
		return p, nil
	}
	return "", fmt.Errorf("module %q not found from %s", request, filepath.Clean(dir))
}

// AddDependency implements host.LoaderContext.
func (r *Recorder) AddDependency(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deps = append(r.deps, path)
}

// EmitWarning implements host.LoaderContext.
func (r *Recorder) EmitWarning(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.warnings = append(r.warnings, err)
}

// EmitError implements host.LoaderContext.
func (r *Recorder) EmitError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err)
}

// Async implements host.LoaderContext. The returned callback records every
// invocation; only the first one is kept as the result.
func (r *Recorder) Async() host.Callback {
	r.mu.Lock()
	r.asyncCalls++
	r.mu.Unlock()

	return func(err error, res *host.Result) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.completions++
		if r.completions > 1 {
			return
		}
		r.err = err
		r.result = res
		close(r.done)
	}
}

// Wait blocks until the completion callback fires or timeout elapses.
func (r *Recorder) Wait(timeout time.Duration) (*host.Result, error) {
	select {
	case <-r.done:
	case <-time.After(timeout):
		return nil, fmt.Errorf("testutil: no completion after %s", timeout)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.result, r.err
}

// Dependencies returns the paths passed to AddDependency, in order.
func (r *Recorder) Dependencies() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.deps...)
}

// Warnings returns the emitted warnings.
func (r *Recorder) Warnings() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]error(nil), r.warnings...)
}

// Errors returns the emitted errors.
func (r *Recorder) Errors() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]error(nil), r.errs...)
}

// Resolves returns the requests passed to Resolve, in order.
func (r *Recorder) Resolves() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.resolves...)
}

// Completions returns how many times the completion callback was invoked.
func (r *Recorder) Completions() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.completions
}

// AsyncCalls returns how many times Async was called.
func (r *Recorder) AsyncCalls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.asyncCalls
}
