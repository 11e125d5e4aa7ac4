package options

import (
	"context"
	"path/filepath"
	"slices"
	"strings"

	"github.com/roach88/sassloader/internal/fiber"
)

// Syntax is the surface syntax of a stylesheet.
type Syntax int

const (
	// SyntaxSCSS is the brace-delimited syntax (.scss).
	SyntaxSCSS Syntax = iota
	// SyntaxIndented is the whitespace-sensitive syntax (.sass).
	SyntaxIndented
	// SyntaxCSS is plain CSS (.css).
	SyntaxCSS
)

// String returns the conventional file extension name of the syntax.
func (s Syntax) String() string {
	switch s {
	case SyntaxIndented:
		return "sass"
	case SyntaxCSS:
		return "css"
	default:
		return "scss"
	}
}

// SyntaxFromPath derives the syntax from a file extension. Unknown
// extensions are treated as SCSS.
func SyntaxFromPath(path string) Syntax {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".sass":
		return SyntaxIndented
	case ".css":
		return SyntaxCSS
	default:
		return SyntaxSCSS
	}
}

// ImportResult is what an Importer returns for a specifier it handles.
// It carries either a file path, or contents with an optional path.
type ImportResult struct {
	File        string
	Contents    string
	Syntax      Syntax
	hasContents bool
}

// FileResult reports that the import resolved to the file at path.
func FileResult(path string) *ImportResult {
	return &ImportResult{File: path, Syntax: SyntaxFromPath(path)}
}

// ContentsResult reports that the import resolved to contents. file may be
// empty when the contents have no backing file.
func ContentsResult(contents, file string, syntax Syntax) *ImportResult {
	return &ImportResult{File: file, Contents: contents, Syntax: syntax, hasContents: true}
}

// HasContents reports whether the result carries contents rather than
// only a path.
func (r *ImportResult) HasContents() bool {
	return r.hasContents
}

// Importer resolves an import specifier. prev is the absolute path of the
// importing stylesheet. Returning (nil, nil) passes the specifier on to the
// next importer.
//
// Under Dart Sass prev is best-effort: the embedded protocol does not
// report the importing stylesheet, so prev is always the entry file.
type Importer interface {
	Import(ctx context.Context, url, prev string) (*ImportResult, error)
}

// ImporterFunc adapts a function to the Importer interface.
type ImporterFunc func(ctx context.Context, url, prev string) (*ImportResult, error)

// Import calls f.
func (f ImporterFunc) Import(ctx context.Context, url, prev string) (*ImportResult, error) {
	return f(ctx, url, prev)
}

// Function is a caller-supplied stylesheet function. Arguments and result
// are passed as their stylesheet source text.
type Function func(args ...string) (string, error)

type fiberMode int

const (
	fiberAuto fiberMode = iota
	fiberDisabled
	fiberExplicit
)

// FiberSetting is the cooperative-scheduling option. The zero value means
// "not set": the loader may inject the detected handle.
type FiberSetting struct {
	mode   fiberMode
	handle fiber.Fiber
}

// FiberDisabled returns the setting that forbids a scheduling handle.
func FiberDisabled() FiberSetting {
	return FiberSetting{mode: fiberDisabled}
}

// FiberHandle returns the setting that passes f through unchanged.
// A nil f is treated as FiberDisabled.
func FiberHandle(f fiber.Fiber) FiberSetting {
	if f == nil {
		return FiberDisabled()
	}
	return FiberSetting{mode: fiberExplicit, handle: f}
}

// Handle returns the scheduling handle, or nil.
func (s FiberSetting) Handle() fiber.Fiber { return s.handle }

// IsSet reports whether the caller provided any value.
func (s FiberSetting) IsSet() bool { return s.mode != fiberAuto }

// IsDisabled reports whether the caller explicitly disabled the bridge.
func (s FiberSetting) IsDisabled() bool { return s.mode == fiberDisabled }

// SassOptions is the option bag handed to an engine.
//
// File and IndentedSyntax are derived by Normalize and never taken from the
// caller. Importers and Functions are passed through uninterpreted.
type SassOptions struct {
	// File is the absolute path of the entry stylesheet.
	File string

	// IncludePaths are searched in order when resolving imports.
	IncludePaths []string

	// Importers are consulted in order before filesystem search.
	Importers []Importer

	// Functions maps signatures to caller-supplied functions.
	Functions map[string]Function

	// IndentedSyntax is true for .sass entry files.
	IndentedSyntax bool

	// IndentWidth is the number of indent characters per level; 0 keeps
	// the engine default of 2.
	IndentWidth int

	// IndentType is "space" or "tab"; empty means space.
	IndentType string

	// Linefeed is "lf", "lfcr", "cr" or "crlf"; empty means lf.
	Linefeed string

	// OutputStyle is "expanded", "compressed", "nested" or "compact".
	OutputStyle string

	// Precision is the number of fractional digits; 0 keeps the engine default.
	Precision int

	// SourceMap requests a source map. nil means "not set by the caller".
	SourceMap *bool

	// SourceMapContents embeds source contents in the map.
	SourceMapContents bool

	// Fiber controls the cooperative-scheduling bridge.
	Fiber FiberSetting

	// Extra holds unrecognized keys, forwarded verbatim.
	Extra map[string]any
}

// Clone returns a copy that shares no mutable containers with o.
// Importer and Function values themselves are shared.
func (o *SassOptions) Clone() *SassOptions {
	c := *o
	c.IncludePaths = slices.Clone(o.IncludePaths)
	c.Importers = slices.Clone(o.Importers)
	if o.Functions != nil {
		c.Functions = make(map[string]Function, len(o.Functions))
		for k, v := range o.Functions {
			c.Functions[k] = v
		}
	}
	if o.SourceMap != nil {
		v := *o.SourceMap
		c.SourceMap = &v
	}
	if o.Extra != nil {
		c.Extra = make(map[string]any, len(o.Extra))
		for k, v := range o.Extra {
			c.Extra[k] = v
		}
	}
	return &c
}

// WantsSourceMap reports whether a source map was requested.
func (o *SassOptions) WantsSourceMap() bool {
	return o.SourceMap != nil && *o.SourceMap
}
