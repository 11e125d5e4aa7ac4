// Package loader is the public entry point: it compiles one stylesheet
// for a host build system.
//
// A compile moves through Normalizing, Selecting, Invoking and Translating
// and then reports exactly once to the host. Nothing is retried; a failure
// is reported verbatim.
package loader

import (
	"context"
	"log/slog"

	"github.com/roach88/sassloader/internal/bridge"
	"github.com/roach88/sassloader/internal/diag"
	"github.com/roach88/sassloader/internal/engine"
	"github.com/roach88/sassloader/internal/fiber"
	"github.com/roach88/sassloader/internal/host"
	"github.com/roach88/sassloader/internal/importer"
	"github.com/roach88/sassloader/internal/options"
	"github.com/roach88/sassloader/internal/outcome"
)

// Options are the per-invocation loader options.
type Options struct {
	// Implementation is an explicit engine; it bypasses discovery.
	Implementation engine.Engine

	// ImplementationName selects a registered engine by name when
	// Implementation is nil.
	ImplementationName string

	// SassOptions is the option bag, literal or computed from the
	// loader context.
	SassOptions options.Source

	// SourceMap overrides the host's source-map flag when non-nil.
	SourceMap *bool

	// DisableFiber forbids a scheduling handle regardless of SassOptions.
	DisableFiber bool
}

// Stage names a step of a compile, for logging.
type Stage string

const (
	StageNormalizing Stage = "normalizing"
	StageSelecting   Stage = "selecting"
	StageInvoking    Stage = "invoking"
	StageTranslating Stage = "translating"
	StageReported    Stage = "reported"
)

// Loader compiles stylesheets.
//
// Thread-safety: a Loader holds no per-compile state; Compile and Run may
// be called concurrently.
type Loader struct {
	selector *engine.Selector
	fibers   *fiber.State
	logger   *slog.Logger
}

// Option configures a Loader.
type Option func(*Loader)

// WithSelector sets the engine selector.
func WithSelector(s *engine.Selector) Option {
	return func(l *Loader) {
		l.selector = s
	}
}

// WithFiberState sets the scheduling capability. Defaults to
// fiber.Default.
func WithFiberState(s *fiber.State) Option {
	return func(l *Loader) {
		l.fibers = s
	}
}

// WithLogger sets the logger.
func WithLogger(lg *slog.Logger) Option {
	return func(l *Loader) {
		l.logger = lg
	}
}

// New creates a Loader.
func New(opts ...Option) *Loader {
	l := &Loader{
		fibers: fiber.Default,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.selector == nil {
		l.selector = engine.NewSelector(engine.WithSelectorLogger(l.logger))
	}
	return l
}

// Run compiles source for lctx and signals completion through the
// callback obtained from lctx.Async. The callback fires exactly once,
// before Run returns.
func (l *Loader) Run(ctx context.Context, lctx host.LoaderContext, source string, opts Options) {
	done := lctx.Async()
	out := l.Compile(ctx, lctx, source, opts)
	if !out.OK() {
		done(out.Err, nil)
	} else {
		done(nil, &host.Result{CSS: out.CSS, SourceMap: out.SourceMap})
	}
	l.logger.Debug("compile stage",
		"resource", lctx.ResourcePath(),
		"stage", StageReported,
		"ok", out.OK(),
	)
}

// Compile compiles source for lctx and returns the outcome. Every file
// the output depends on has been reported to lctx when Compile returns.
func (l *Loader) Compile(ctx context.Context, lctx host.LoaderContext, source string, opts Options) outcome.Outcome {
	resource := lctx.ResourcePath()
	log := l.logger.With("resource", resource)

	log.Debug("compile stage", "stage", StageNormalizing)
	normalized, err := options.Normalize(opts.SassOptions, lctx, options.Defaults{SourceMap: opts.SourceMap})
	if err != nil {
		return l.fail(log, StageNormalizing, err)
	}

	log.Debug("compile stage", "stage", StageSelecting)
	h, err := l.selector.Select(opts.Implementation, opts.ImplementationName)
	if err != nil {
		return l.fail(log, StageSelecting, err)
	}

	effective, ambiguous := options.ResolveFiber(normalized, h.Caps.CooperativeScheduling, l.fibers, opts.DisableFiber)
	if ambiguous {
		w := diag.Configuration("fiber: DisableFiber overrides the scheduling handle given in sassOptions.fiber")
		log.Warn("ambiguous fiber configuration", "error", w)
		lctx.EmitWarning(w)
	}

	adapter := importer.New(effective, lctx)
	adapter.SetSource(source)
	req := &engine.Request{
		Source:   source,
		Options:  effective,
		Importer: adapter,
	}

	log.Debug("compile stage",
		"stage", StageInvoking,
		"engine", h.Name,
		"version", h.Version,
		"fiber", effective.Fiber.Handle() != nil,
	)
	b := bridge.New(
		bridge.WithLogger(log),
		bridge.WithViolationHandler(lctx.EmitWarning),
	)
	res, err := b.Invoke(ctx, h, req)

	log.Debug("compile stage", "stage", StageTranslating)
	out := outcome.Translate(res, err, adapter, effective.WantsSourceMap())
	if !out.OK() {
		return l.fail(log, StageTranslating, out.Err)
	}

	// Engines may report files the adapter never saw.
	deps := adapter.Dependencies()
	for _, f := range out.IncludedFiles {
		if f != importer.NormalizePath(adapter.Entry()) {
			deps.Add(f)
		}
	}

	log.Info("compiled",
		"engine", h.Name,
		"included", len(out.IncludedFiles),
	)
	return out
}

func (l *Loader) fail(log *slog.Logger, stage Stage, err error) outcome.Outcome {
	out := outcome.Failure(err)
	log.Info("compile failed",
		"stage", stage,
		"kind", out.Err.Kind,
		"error", out.Err.Message,
	)
	return out
}
