package importer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/roach88/sassloader/internal/diag"
	"github.com/roach88/sassloader/internal/options"
)

// Host is the part of the loader context the adapter consults.
type Host interface {
	Tracker
	Resolve(ctx context.Context, dir, request string) (string, error)
}

// Resolved is a successfully resolved import, always with contents.
type Resolved struct {
	// File is the absolute path, empty for contents without a backing file.
	File string

	// Contents is the stylesheet source.
	Contents string

	// Syntax is the surface syntax of Contents.
	Syntax options.Syntax
}

// Adapter resolves imports for one compile request.
//
// Thread-safety: Resolve may be called concurrently; engines that resolve
// imports in parallel are supported.
type Adapter struct {
	importers    []options.Importer
	includePaths []string
	entry        string
	host         Host
	deps         *Dependencies
	readFile     func(string) ([]byte, error)

	mu         sync.Mutex
	failures   []*diag.Error
	unresolved []string
	contents   map[string]string
}

// New creates an adapter for the normalized options. h may be nil, in
// which case module requests are never resolved and dependencies are
// only tracked locally.
func New(opts *options.SassOptions, h Host) *Adapter {
	var tracker Tracker
	if h != nil {
		tracker = h
	}
	return &Adapter{
		importers:    opts.Importers,
		includePaths: opts.IncludePaths,
		entry:        opts.File,
		host:         h,
		deps:         NewDependencies(tracker),
		readFile:     os.ReadFile,
		contents:     make(map[string]string),
	}
}

// Entry returns the absolute path of the entry stylesheet.
func (a *Adapter) Entry() string { return a.entry }

// Dependencies returns the de-duplicating dependency reporter.
func (a *Adapter) Dependencies() *Dependencies { return a.deps }

// Resolve resolves url imported from prev.
//
// prev may be empty or "stdin" (engines compiling from a string report
// either for the entry), meaning the entry stylesheet. It returns
// (nil, nil) when nothing matched; the specifier is then recorded as
// unresolved. A non-nil error is a resolution failure that has also been
// recorded, see Failures.
func (a *Adapter) Resolve(ctx context.Context, url, prev string) (*Resolved, error) {
	if prev == "" || prev == "stdin" {
		prev = a.entry
	}
	if p, ok := FilePath(prev); ok {
		prev = p
	}
	dir := filepath.Dir(prev)

	for _, imp := range a.importers {
		res, err := callImporter(ctx, imp, url, prev)
		if err != nil {
			if de := diag.As(err); de != nil && de.Kind == diag.KindInternal {
				return nil, a.fail(de.At(prev, 0, 0))
			}
			return nil, a.fail(diag.ImportResolution(url, err).At(prev, 0, 0))
		}
		if res != nil {
			return a.finish(url, dir, res)
		}
	}

	if request, ok := strings.CutPrefix(url, "~"); ok {
		if file, ok := a.resolveModule(ctx, dir, request); ok {
			return a.load(url, file, options.SyntaxFromPath(file))
		}
		return a.miss(url)
	}

	if p, ok := FilePath(url); ok {
		if file, ok := findFile(p); ok {
			return a.load(url, file, options.SyntaxFromPath(file))
		}
		return a.miss(url)
	}

	if filepath.IsAbs(url) {
		if file, ok := findFile(url); ok {
			return a.load(url, file, options.SyntaxFromPath(file))
		}
		return a.miss(url)
	}

	for _, base := range a.searchDirs(prev) {
		if file, ok := findFile(filepath.Join(base, filepath.FromSlash(url))); ok {
			return a.load(url, file, options.SyntaxFromPath(file))
		}
	}

	if file, ok := a.resolveModule(ctx, dir, url); ok {
		return a.load(url, file, options.SyntaxFromPath(file))
	}

	return a.miss(url)
}

// searchDirs is the filesystem search order for an import from prev.
// The entry's own directory is already the last include path, so only
// nested partials get their directory searched first.
func (a *Adapter) searchDirs(prev string) []string {
	dirs := make([]string, 0, len(a.includePaths)+1)
	if prev != a.entry {
		dirs = append(dirs, filepath.Dir(prev))
	}
	return append(dirs, a.includePaths...)
}

func (a *Adapter) resolveModule(ctx context.Context, dir, request string) (string, bool) {
	if a.host == nil {
		return "", false
	}
	for _, req := range moduleRequests(request) {
		p, err := a.host.Resolve(ctx, dir, req)
		if err != nil || p == "" {
			continue
		}
		if info, err := os.Stat(p); err == nil && info.Mode().IsRegular() {
			return p, true
		}
	}
	return "", false
}

// finish normalizes a caller importer's result into a Resolved.
func (a *Adapter) finish(url, dir string, res *options.ImportResult) (*Resolved, error) {
	file := res.File
	if file != "" && !filepath.IsAbs(file) {
		file = filepath.Join(dir, file)
	}

	if res.HasContents() {
		if file != "" {
			file, _ = a.deps.Add(file)
			a.remember(file, res.Contents)
		}
		return &Resolved{File: file, Contents: res.Contents, Syntax: res.Syntax}, nil
	}

	if file == "" {
		return nil, a.fail(diag.ImportResolution(url, errors.New("importer returned neither a file nor contents")))
	}
	if found, ok := findFile(file); ok {
		file = found
	}
	return a.load(url, file, options.SyntaxFromPath(file))
}

// load reads a resolved file and reports it as a dependency.
func (a *Adapter) load(url, file string, syntax options.Syntax) (*Resolved, error) {
	data, err := a.readFile(file)
	if err != nil {
		return nil, a.fail(diag.ImportResolution(url, err).At(file, 0, 0))
	}
	file, _ = a.deps.Add(file)
	contents := string(data)
	a.remember(file, contents)
	return &Resolved{File: file, Contents: contents, Syntax: syntax}, nil
}

func (a *Adapter) remember(file, contents string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.contents[file] = contents
}

func (a *Adapter) miss(url string) (*Resolved, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.unresolved = append(a.unresolved, url)
	return nil, nil
}

func (a *Adapter) fail(err *diag.Error) *diag.Error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.failures = append(a.failures, err)
	return err
}

// Failures returns resolution errors recorded so far, in order.
func (a *Adapter) Failures() []*diag.Error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]*diag.Error(nil), a.failures...)
}

// Unresolved returns specifiers nothing could resolve, in order.
func (a *Adapter) Unresolved() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.unresolved...)
}

// SetSource records the entry stylesheet's source text, which may differ
// from what is on disk.
func (a *Adapter) SetSource(source string) {
	a.remember(NormalizePath(a.entry), source)
}

// Contents returns the source of a file loaded during this compile. The
// entry file falls back to disk when SetSource was not called.
func (a *Adapter) Contents(file string) (string, bool) {
	file = NormalizePath(file)
	a.mu.Lock()
	c, ok := a.contents[file]
	a.mu.Unlock()
	if ok {
		return c, true
	}
	if file == NormalizePath(a.entry) {
		if data, err := a.readFile(file); err == nil {
			return string(data), true
		}
	}
	return "", false
}

// callImporter invokes a caller importer, turning a panic into an error.
func callImporter(ctx context.Context, imp options.Importer, url, prev string) (res *options.ImportResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			res = nil
			err = diag.Internal("importer panicked", fmt.Errorf("%v", r))
		}
	}()
	return imp.Import(ctx, url, prev)
}
