package engine

import (
	"context"
	"strings"

	"github.com/roach88/sassloader/internal/diag"
	"github.com/roach88/sassloader/internal/importer"
	"github.com/roach88/sassloader/internal/options"
)

// Request is a single compile handed to an engine.
type Request struct {
	// Source is the entry stylesheet text.
	Source string

	// Options are the normalized options, with the fiber setting already
	// resolved for this engine.
	Options *options.SassOptions

	// Importer resolves every import the engine encounters.
	Importer *importer.Adapter
}

// Result is an engine's successful output.
type Result struct {
	CSS       string
	SourceMap string

	// IncludedFiles are the files the engine itself reports as loaded,
	// in load order. Engines that do not report them leave it empty.
	IncludedFiles []string
}

// Completion receives the outcome of Render. Engines must call it exactly
// once; the bridge tolerates and reports misbehaving engines.
type Completion func(res *Result, err error)

// Engine is a stylesheet compiler.
type Engine interface {
	// Info returns a single line "<name>\t<version>".
	Info() string

	// Render compiles req and reports through done. It may call done
	// before returning or later from another goroutine.
	Render(ctx context.Context, req *Request, done Completion)
}

// SyncRenderer is implemented by engines that can return their result
// directly.
type SyncRenderer interface {
	RenderSync(ctx context.Context, req *Request) (*Result, error)
}

// Located is implemented by native engine errors that know where they
// happened. Zero line or column means unknown.
type Located interface {
	error
	Location() (file string, line, column int)

	// Reason is the message without position information.
	Reason() string
}

// Handle is a selected engine plus its static metadata.
type Handle struct {
	Engine  Engine
	Name    string
	Version string
	Caps    Capabilities
}

// Wrap builds a Handle for e from its Info line.
func Wrap(e Engine) (*Handle, error) {
	if e == nil {
		return nil, diag.Configuration("implementation: engine is nil")
	}
	name, version := ParseInfo(e.Info())
	if name == "" {
		return nil, diag.Configuration("implementation: engine reports no name in %q", e.Info())
	}
	return &Handle{
		Engine:  e,
		Name:    name,
		Version: version,
		Caps:    CapabilitiesOf(name),
	}, nil
}

// ParseInfo splits an engine info string into name and version. Only the
// first line is considered; fields are separated by tabs or, failing
// that, spaces.
func ParseInfo(info string) (name, version string) {
	line, _, _ := strings.Cut(info, "\n")
	line = strings.TrimSpace(line)

	var fields []string
	if strings.Contains(line, "\t") {
		fields = strings.Split(line, "\t")
	} else {
		fields = strings.Fields(line)
	}
	if len(fields) > 0 {
		name = strings.ToLower(strings.TrimSpace(fields[0]))
	}
	if len(fields) > 1 {
		version = strings.TrimSpace(fields[1])
	}
	return name, version
}

// String returns the handle's info line.
func (h *Handle) String() string {
	if h.Version == "" {
		return h.Name
	}
	return h.Name + "\t" + h.Version
}
