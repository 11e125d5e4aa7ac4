// Package outcome translates engine results and native engine errors into
// the single shape reported to the host.
//
// Failures always carry a *diag.Error. Line and column are 1-based and
// nil when the engine did not report them; zero is never used to mean
// "unknown".
package outcome

import (
	"errors"
	"path/filepath"
	"strings"
	"sync"

	"github.com/roach88/sassloader/internal/diag"
	"github.com/roach88/sassloader/internal/engine"
	"github.com/roach88/sassloader/internal/importer"
)

// Outcome is the terminal result of one compile.
type Outcome struct {
	CSS       string
	SourceMap string

	// IncludedFiles are absolute, de-duplicated paths in load order, the
	// entry stylesheet first.
	IncludedFiles []string

	// Err is set on failure; the other fields are then empty.
	Err *diag.Error
}

// OK reports whether the compile succeeded.
func (o Outcome) OK() bool { return o.Err == nil }

// Failure returns a failed Outcome for err. Errors that are not already
// diagnostics become internal errors.
func Failure(err error) Outcome {
	if de := diag.As(err); de != nil {
		return Outcome{Err: de}
	}
	return Outcome{Err: diag.Internal("compile failed", err)}
}

// decoder turns a native engine error into a diagnostic. ok is false when
// the decoder does not recognize err.
type decoder func(err error, a *importer.Adapter) (de *diag.Error, ok bool)

var (
	decodersMu sync.RWMutex
	decoders   = []decoder{decodeLocated, decodeDartSass}
)

// registerDecoder adds a decoder for an engine compiled in conditionally.
func registerDecoder(d decoder) {
	decodersMu.Lock()
	defer decodersMu.Unlock()
	decoders = append(decoders, d)
}

// Translate builds the Outcome for an engine's result or error.
//
// On failure, resolution errors recorded by the importer adapter take
// precedence over the engine's own error, which for a failed import is
// usually a generic "not found". A recorded resolution error also fails an
// otherwise successful render. a may be nil.
func Translate(res *engine.Result, err error, a *importer.Adapter, wantSourceMap bool) Outcome {
	if err != nil {
		return Outcome{Err: translateError(err, a)}
	}
	if res == nil {
		return Failure(diag.Internal("engine returned no result", nil))
	}
	if a != nil {
		if failures := a.Failures(); len(failures) > 0 {
			return Outcome{Err: failures[0]}
		}
	}

	out := Outcome{
		CSS:           res.CSS,
		IncludedFiles: includedFiles(res.IncludedFiles, a),
	}
	if wantSourceMap {
		out.SourceMap = res.SourceMap
	}
	return out
}

func translateError(err error, a *importer.Adapter) *diag.Error {
	if a != nil {
		if failures := a.Failures(); len(failures) > 0 {
			return failures[0]
		}
	}
	if de := diag.As(err); de != nil {
		return de
	}

	de := decode(err, a)
	if de == nil {
		return diag.Internal("engine failed", err)
	}

	if a != nil && mentionsImport(de.Message) {
		if unresolved := a.Unresolved(); len(unresolved) > 0 {
			spec := unresolved[len(unresolved)-1]
			ir := diag.ImportResolution(spec, errors.New(de.Message))
			ir.File, ir.Line, ir.Column = de.File, de.Line, de.Column
			ir.Err = err
			return ir
		}
	}
	return de
}

func decode(err error, a *importer.Adapter) *diag.Error {
	decodersMu.RLock()
	defer decodersMu.RUnlock()
	for _, d := range decoders {
		if de, ok := d(err, a); ok {
			return de
		}
	}
	return nil
}

func mentionsImport(msg string) bool {
	return strings.Contains(strings.ToLower(msg), "import")
}

// compileError builds a KindCompile diagnostic. Zero line or column
// leaves the field unset.
func compileError(msg, file string, line, column int, cause error) *diag.Error {
	de := diag.Compile(msg).At(file, line, column)
	de.Err = cause
	return de
}

// decodeLocated handles native errors implementing engine.Located.
func decodeLocated(err error, _ *importer.Adapter) (*diag.Error, bool) {
	var loc engine.Located
	if !errors.As(err, &loc) {
		return nil, false
	}
	file, line, column := loc.Location()
	return compileError(loc.Reason(), file, line, column, err), true
}

func includedFiles(native []string, a *importer.Adapter) []string {
	var out []string
	seen := make(map[string]struct{})
	add := func(p string) {
		if p == "" {
			return
		}
		p = importer.NormalizePath(p)
		if _, ok := seen[p]; ok {
			return
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}

	if a != nil {
		add(a.Entry())
	}
	for _, p := range native {
		if fp, ok := filePath(p); ok {
			add(fp)
		}
	}
	if a != nil {
		for _, p := range a.Dependencies().List() {
			add(p)
		}
	}
	return out
}

// filePath accepts plain paths and file: URLs. URLs of other schemes
// address contents without a backing file and are skipped.
func filePath(p string) (string, bool) {
	if strings.HasPrefix(p, "file:") {
		return importer.FilePath(p)
	}
	if filepath.IsAbs(p) {
		return p, true
	}
	if scheme, _, ok := strings.Cut(p, ":"); ok && len(scheme) > 1 && !strings.ContainsAny(scheme, `/\`) {
		return "", false
	}
	return p, true
}
