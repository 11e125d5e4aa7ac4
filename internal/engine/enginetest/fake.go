// Package enginetest provides in-process engines for tests.
//
// Fake understands a tiny stylesheet subset: `@import "x";` statements,
// top-level `$name: value;` declarations, `$name` references and calls to
// caller-supplied functions. Everything else passes through with
// whitespace normalized. That is enough to exercise importer resolution,
// dependency reporting and option plumbing without a real compiler.
package enginetest

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/roach88/sassloader/internal/engine"
	"github.com/roach88/sassloader/internal/options"
)

// Mode selects how the fake completes.
type Mode int

const (
	// Callback completes from a new goroutine, or through the fiber
	// handle when the options carry one.
	Callback Mode = iota
	// Sync implements engine.SyncRenderer and completes inline.
	Sync
	// DoubleCallback completes with a result and then again with an error.
	DoubleCallback
	// Panic panics inside Render before completing.
	Panic
)

// maxDepth stops runaway import recursion.
const maxDepth = 32

// Fake is an engine.Engine that compiles the subset described in the
// package documentation.
//
// Thread-safety: safe for concurrent use via internal mutex.
type Fake struct {
	name    string
	version string
	mode    Mode

	mu       sync.Mutex
	requests []*engine.Request
	viaFiber int
}

// Option configures a Fake.
type Option func(*Fake)

// WithName sets the engine name reported by Info.
func WithName(name string) Option {
	return func(f *Fake) { f.name = name }
}

// WithMode sets the completion mode.
func WithMode(m Mode) Option {
	return func(f *Fake) { f.mode = m }
}

// New creates a Fake that reports itself as dart-sass, so it receives a
// fiber handle when one is available.
func New(opts ...Option) *Fake {
	f := &Fake{name: engine.NameDartSass, version: "0.0.0-fake"}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// NewSync creates a Fake in Sync mode that reports itself as libsass.
func NewSync(opts ...Option) *SyncFake {
	f := New(append([]Option{WithName(engine.NameLibSass), WithMode(Sync)}, opts...)...)
	return &SyncFake{Fake: f}
}

// Info implements engine.Engine.
func (f *Fake) Info() string {
	return f.name + "\t" + f.version
}

// Render implements engine.Engine.
func (f *Fake) Render(ctx context.Context, req *engine.Request, done engine.Completion) {
	f.record(req)

	switch f.mode {
	case Panic:
		panic("enginetest: render panicked")
	case Sync:
		done(f.compile(ctx, req))
		return
	case DoubleCallback:
		res, err := f.compile(ctx, req)
		done(res, err)
		done(nil, fmt.Errorf("enginetest: second completion"))
		return
	}

	run := func() { done(f.compile(ctx, req)) }
	if h := req.Options.Fiber.Handle(); h != nil {
		f.mu.Lock()
		f.viaFiber++
		f.mu.Unlock()
		if err := h.Run(ctx, run); err != nil {
			done(nil, err)
		}
		return
	}
	go run()
}

// Compile runs the fake compiler directly, bypassing any bridge.
func (f *Fake) Compile(ctx context.Context, req *engine.Request) (*engine.Result, error) {
	return f.compile(ctx, req)
}

func (f *Fake) record(req *engine.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
}

// Requests returns every request rendered so far.
func (f *Fake) Requests() []*engine.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*engine.Request(nil), f.requests...)
}

// LastRequest returns the most recent request, or nil.
func (f *Fake) LastRequest() *engine.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.requests) == 0 {
		return nil
	}
	return f.requests[len(f.requests)-1]
}

// FiberRuns returns how many renders went through a fiber handle.
func (f *Fake) FiberRuns() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.viaFiber
}

// SyncFake is a Fake that also implements engine.SyncRenderer.
type SyncFake struct {
	*Fake
}

// RenderSync implements engine.SyncRenderer.
func (s *SyncFake) RenderSync(ctx context.Context, req *engine.Request) (*engine.Result, error) {
	s.record(req)
	if s.mode == Panic {
		panic("enginetest: render panicked")
	}
	return s.compile(ctx, req)
}

// Error is the fake's native compile error.
type Error struct {
	Message string
	File    string
	Line    int
	Column  int
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s", e.File, e.Line, e.Column, e.Message)
}

// Location implements engine.Located.
func (e *Error) Location() (string, int, int) {
	return e.File, e.Line, e.Column
}

// Reason implements engine.Located.
func (e *Error) Reason() string { return e.Message }

var statementRE = regexp.MustCompile(`@import\s+["']([^"']+)["']\s*;|\$([\w-]+)\s*:\s*([^;]+);`)

func (f *Fake) compile(ctx context.Context, req *engine.Request) (*engine.Result, error) {
	vars := map[string]string{}
	body, err := f.expand(ctx, req, req.Source, req.Options.File, vars, 0)
	if err != nil {
		return nil, err
	}
	body = substitute(body, vars)
	body, err = applyFunctions(body, req.Options.Functions)
	if err != nil {
		return nil, err
	}

	css := format(body, req.Options.OutputStyle)
	res := &engine.Result{CSS: engine.Reformat(css, req.Options)}
	if req.Options.WantsSourceMap() {
		res.SourceMap = fmt.Sprintf(`{"version":3,"file":%q,"sources":[],"mappings":""}`, req.Options.File)
	}
	return res, nil
}

func (f *Fake) expand(ctx context.Context, req *engine.Request, src, file string, vars map[string]string, depth int) (string, error) {
	if depth > maxDepth {
		return "", &Error{Message: "too many nested imports", File: file, Line: 1, Column: 1}
	}

	var b strings.Builder
	last := 0
	for _, m := range statementRE.FindAllStringSubmatchIndex(src, -1) {
		b.WriteString(src[last:m[0]])
		last = m[1]

		if m[2] < 0 {
			vars[src[m[4]:m[5]]] = strings.TrimSpace(src[m[6]:m[7]])
			continue
		}

		url := src[m[2]:m[3]]
		res, err := req.Importer.Resolve(ctx, url, file)
		if err != nil {
			return "", err
		}
		if res == nil {
			line, col := position(src, m[0])
			return "", &Error{Message: "Can't find stylesheet to import.", File: file, Line: line, Column: col}
		}
		next := res.File
		if next == "" {
			next = file
		}
		sub, err := f.expand(ctx, req, res.Contents, next, vars, depth+1)
		if err != nil {
			return "", err
		}
		b.WriteString(sub)
		b.WriteString("\n")
	}
	b.WriteString(src[last:])
	return b.String(), nil
}

// position returns the 1-based line and column of offset in src.
func position(src string, offset int) (int, int) {
	before := src[:offset]
	line := strings.Count(before, "\n") + 1
	col := offset - strings.LastIndex(before, "\n")
	return line, col
}

func substitute(body string, vars map[string]string) string {
	names := make([]string, 0, len(vars))
	for n := range vars {
		names = append(names, n)
	}
	// Longest first so $ab is not clobbered by $a.
	sort.Slice(names, func(i, j int) bool { return len(names[i]) > len(names[j]) })
	for _, n := range names {
		body = strings.ReplaceAll(body, "$"+n, vars[n])
	}
	return body
}

func applyFunctions(body string, fns map[string]options.Function) (string, error) {
	for sig, fn := range fns {
		name, _, _ := strings.Cut(sig, "(")
		re := regexp.MustCompile(`\b` + regexp.QuoteMeta(strings.TrimSpace(name)) + `\(([^)]*)\)`)

		var callErr error
		body = re.ReplaceAllStringFunc(body, func(call string) string {
			inner := re.FindStringSubmatch(call)[1]
			var args []string
			for _, a := range strings.Split(inner, ",") {
				if a = strings.TrimSpace(a); a != "" {
					args = append(args, a)
				}
			}
			out, err := fn(args...)
			if err != nil && callErr == nil {
				callErr = &Error{Message: fmt.Sprintf("%s: %v", name, err), Line: 1, Column: 1}
			}
			return out
		})
		if callErr != nil {
			return "", callErr
		}
	}
	return body, nil
}

var punctSpaceRE = regexp.MustCompile(`\s*([{}:;,])\s*`)

func compress(s string) string {
	s = punctSpaceRE.ReplaceAllString(s, "$1")
	return strings.ReplaceAll(s, ";}", "}")
}

// format trims every line and drops blank ones. Compressed output is
// joined onto a single line.
func format(body, style string) string {
	var lines []string
	for _, line := range strings.Split(body, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	if style == options.StyleCompressed {
		return compress(strings.Join(lines, ""))
	}
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}
