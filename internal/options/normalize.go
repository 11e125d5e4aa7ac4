package options

import (
	"path/filepath"
	"slices"

	"github.com/roach88/sassloader/internal/fiber"
	"github.com/roach88/sassloader/internal/host"
)

// Output styles understood by the engine adapters.
const (
	StyleExpanded   = "expanded"
	StyleCompressed = "compressed"
	StyleNested     = "nested"
	StyleCompact    = "compact"
)

// Defaults are loader-level values that take part in normalization.
type Defaults struct {
	// SourceMap overrides the host's source-map flag when non-nil.
	SourceMap *bool
}

// Normalize resolves src against lctx and layers the derived defaults.
//
// A nil src is the empty bag. Caller-provided values always win over
// derived ones, except File and IndentedSyntax which are derived from the
// resource path unconditionally. The entry directory is appended to
// IncludePaths unless already present, so caller paths are searched first.
func Normalize(src Source, lctx host.LoaderContext, d Defaults) (*SassOptions, error) {
	if src == nil {
		src = Literal(SassOptions{})
	}
	opts, err := src.resolve(lctx)
	if err != nil {
		return nil, err
	}

	file := lctx.ResourcePath()
	if abs, err := filepath.Abs(file); err == nil {
		file = abs
	}
	opts.File = file
	opts.IndentedSyntax = SyntaxFromPath(file) == SyntaxIndented

	if opts.OutputStyle == "" {
		opts.OutputStyle = defaultOutputStyle(lctx.Mode())
	}

	if opts.SourceMap == nil {
		want := lctx.SourceMap()
		if d.SourceMap != nil {
			want = *d.SourceMap
		}
		opts.SourceMap = &want
	}

	dir := filepath.Dir(file)
	if !slices.Contains(opts.IncludePaths, dir) {
		opts.IncludePaths = append(opts.IncludePaths, dir)
	}

	return opts, nil
}

func defaultOutputStyle(mode host.Mode) string {
	if mode == host.ModeProduction {
		return StyleCompressed
	}
	return StyleExpanded
}

// ResolveFiber returns a copy of opts with the cooperative-scheduling
// option settled for an engine.
//
//   - disable (the loader-level override) always wins; ambiguous is true
//     when it overrides an explicit handle.
//   - An explicit false or an explicit handle is kept verbatim.
//   - When unset, the detected handle from state is injected only if the
//     engine supports cooperative scheduling and a handle is available.
func ResolveFiber(opts *SassOptions, supported bool, state *fiber.State, disable bool) (out *SassOptions, ambiguous bool) {
	out = opts.Clone()

	if disable {
		ambiguous = out.Fiber.Handle() != nil
		out.Fiber = FiberDisabled()
		return out, ambiguous
	}

	if out.Fiber.IsSet() || !supported || state == nil {
		return out, false
	}

	if h := state.Handle(); h != nil {
		out.Fiber = FiberHandle(h)
	}
	return out, false
}
