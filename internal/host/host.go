// Package host defines the capability object a build system hands to the
// loader for each compile, plus a filesystem-backed implementation used by
// the CLI.
//
// The loader consumes LoaderContext; it never constructs one.
package host

import "context"

// Mode is the build mode reported by the host.
type Mode string

const (
	ModeDevelopment Mode = "development"
	ModeProduction  Mode = "production"
	ModeNone        Mode = "none"
)

// Result is the compiled payload delivered through the completion callback.
type Result struct {
	CSS       string
	SourceMap string
}

// Callback delivers the single completion of an asynchronous compile.
// Exactly one of err and res is non-nil.
type Callback func(err error, res *Result)

// LoaderContext is the per-invocation capability object provided by the host.
type LoaderContext interface {
	// ResourcePath is the absolute path of the stylesheet being compiled.
	ResourcePath() string

	// Mode is the build mode; it drives the default output style.
	Mode() Mode

	// SourceMap reports whether the host wants source maps.
	SourceMap() bool

	// Resolve maps a module request, relative to dir, to an absolute path.
	Resolve(ctx context.Context, dir, request string) (string, error)

	// AddDependency registers a file the output depends on.
	AddDependency(path string)

	// EmitWarning reports a non-fatal problem.
	EmitWarning(err error)

	// EmitError reports an error that does not by itself fail the compile.
	EmitError(err error)

	// Async switches the host into asynchronous mode and returns the
	// completion callback.
	Async() Callback
}
