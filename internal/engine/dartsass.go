package engine

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bep/godartsass/v2"

	"github.com/roach88/sassloader/internal/diag"
	"github.com/roach88/sassloader/internal/importer"
	"github.com/roach88/sassloader/internal/options"
)

// EnvDartSassBinary overrides the Dart Sass executable used for discovery.
const EnvDartSassBinary = "DART_SASS_BINARY"

// DefaultDartSassTimeout bounds a single compile on the embedded protocol.
const DefaultDartSassTimeout = 30 * time.Second

// contentURLScheme addresses importer results that have no backing file.
const contentURLScheme = "sassloader-import:"

func init() {
	Register(Discoverer{
		Name:    NameDartSass,
		Aliases: []string{"sass", "dart"},
		Rank:    10,
		Discover: func() (Engine, error) {
			bin, err := DartSassBinary()
			if err != nil {
				return nil, err
			}
			return dartSassFor(bin)
		},
	})
}

// DartSassBinary returns the Dart Sass executable: $DART_SASS_BINARY if
// set, else "sass" on PATH.
func DartSassBinary() (string, error) {
	if bin := os.Getenv(EnvDartSassBinary); bin != "" {
		if _, err := os.Stat(bin); err != nil {
			return "", fmt.Errorf("%s=%s: %w", EnvDartSassBinary, bin, ErrNotFound)
		}
		return bin, nil
	}
	bin, err := exec.LookPath("sass")
	if err != nil {
		return "", fmt.Errorf("sass executable: %w", ErrNotFound)
	}
	return bin, nil
}

var (
	dartMu      sync.Mutex
	dartEngines = map[string]*DartSass{}
)

// dartSassFor returns the process-wide engine for bin, probing its version
// on first use.
func dartSassFor(bin string) (*DartSass, error) {
	dartMu.Lock()
	defer dartMu.Unlock()

	if e, ok := dartEngines[bin]; ok {
		return e, nil
	}
	v, err := godartsass.Version(bin)
	if err != nil {
		return nil, fmt.Errorf("probe %s: %v: %w", bin, err, ErrNotFound)
	}
	e := NewDartSass(bin, v.ImplementationVersion)
	dartEngines[bin] = e
	return e, nil
}

// DartSass drives Dart Sass over the embedded protocol.
//
// One compiler process is started lazily per DartSass and shared by all
// compiles; godartsass multiplexes concurrent calls over it.
type DartSass struct {
	binary  string
	version string
	timeout time.Duration
	logger  *slog.Logger

	mu         sync.Mutex
	transpiler *godartsass.Transpiler
}

// NewDartSass creates an engine for the given executable. The process is
// not started until the first Render.
func NewDartSass(binary, version string) *DartSass {
	return &DartSass{
		binary:  binary,
		version: version,
		timeout: DefaultDartSassTimeout,
		logger:  slog.Default(),
	}
}

// Info implements Engine.
func (d *DartSass) Info() string {
	return NameDartSass + "\t" + d.version
}

func (d *DartSass) start() (*godartsass.Transpiler, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.transpiler != nil && !d.transpiler.IsShutDown() {
		return d.transpiler, nil
	}
	t, err := godartsass.Start(godartsass.Options{
		DartSassEmbeddedFilename: d.binary,
		Timeout:                  d.timeout,
		LogEventHandler:          d.logEvent,
	})
	if err != nil {
		return nil, fmt.Errorf("start %s: %w", d.binary, err)
	}
	d.transpiler = t
	return t, nil
}

func (d *DartSass) logEvent(e godartsass.LogEvent) {
	if e.Type == godartsass.LogEventTypeDebug {
		d.logger.Debug("sass @debug", "message", e.Message)
		return
	}
	d.logger.Warn("sass warning", "message", e.Message)
}

// Close stops the compiler process if it was started.
func (d *DartSass) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.transpiler == nil {
		return nil
	}
	err := d.transpiler.Close()
	d.transpiler = nil
	return err
}

// Render implements Engine. With a fiber handle in the options the
// compile runs through it and Render returns after done was called;
// otherwise it runs on its own goroutine.
func (d *DartSass) Render(ctx context.Context, req *Request, done Completion) {
	if err := rejectFunctions(req.Options); err != nil {
		done(nil, err)
		return
	}
	t, err := d.start()
	if err != nil {
		done(nil, err)
		return
	}

	args := d.args(ctx, req)
	run := func() {
		res, err := t.Execute(args)
		if err != nil {
			done(nil, err)
			return
		}
		done(&Result{
			CSS:       Reformat(res.CSS, req.Options),
			SourceMap: res.SourceMap,
		}, nil)
	}

	if f := req.Options.Fiber.Handle(); f != nil {
		if err := f.Run(ctx, run); err != nil {
			done(nil, err)
		}
		return
	}
	go run()
}

func (d *DartSass) args(ctx context.Context, req *Request) godartsass.Args {
	o := req.Options
	args := godartsass.Args{
		Source:                  req.Source,
		URL:                     importer.FileURL(o.File),
		OutputStyle:             godartsass.OutputStyleExpanded,
		SourceSyntax:            godartsass.SourceSyntaxSCSS,
		ImportResolver:          &dartResolver{ctx: ctx, adapter: req.Importer},
		EnableSourceMap:         o.WantsSourceMap(),
		SourceMapIncludeSources: o.SourceMapContents,
	}
	switch o.OutputStyle {
	case options.StyleCompressed:
		args.OutputStyle = godartsass.OutputStyleCompressed
	case options.StyleExpanded, "":
	default:
		d.logger.Debug("output style not supported by dart-sass, using expanded",
			"style", o.OutputStyle,
		)
	}
	switch {
	case o.IndentedSyntax:
		args.SourceSyntax = godartsass.SourceSyntaxSASS
	case options.SyntaxFromPath(o.File) == options.SyntaxCSS:
		args.SourceSyntax = godartsass.SourceSyntaxCSS
	}
	return args
}

// dartResolver answers Dart Sass canonicalize and load requests from the
// importer adapter. Resolved contents are kept by canonical URL so Load
// never reads a file twice.
type dartResolver struct {
	ctx     context.Context
	adapter *importer.Adapter

	mu       sync.Mutex
	loaded   map[string]*importer.Resolved
	contentN int
}

// CanonicalizeURL implements godartsass.ImportResolver. An empty result
// tells the compiler this resolver does not handle url.
func (r *dartResolver) CanonicalizeURL(url string) (string, error) {
	res, err := r.adapter.Resolve(r.ctx, url, "")
	if err != nil {
		return "", err
	}
	if res == nil {
		return "", nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.loaded == nil {
		r.loaded = make(map[string]*importer.Resolved)
	}
	var canonical string
	if res.File != "" {
		canonical = importer.FileURL(res.File)
	} else {
		r.contentN++
		canonical = fmt.Sprintf("%s%d", contentURLScheme, r.contentN)
	}
	r.loaded[canonical] = res
	return canonical, nil
}

// Load implements godartsass.ImportResolver.
func (r *dartResolver) Load(canonicalURL string) (godartsass.Import, error) {
	r.mu.Lock()
	res, ok := r.loaded[canonicalURL]
	r.mu.Unlock()

	if !ok {
		if strings.HasPrefix(canonicalURL, contentURLScheme) {
			return godartsass.Import{}, diag.Internal("load of unknown import "+canonicalURL, nil)
		}
		var err error
		res, err = r.adapter.Resolve(r.ctx, canonicalURL, "")
		if err != nil {
			return godartsass.Import{}, err
		}
		if res == nil {
			return godartsass.Import{}, diag.ImportResolution(canonicalURL, nil)
		}
	}

	return godartsass.Import{
		Content:      res.Contents,
		SourceSyntax: dartSyntax(res.Syntax),
	}, nil
}

func dartSyntax(s options.Syntax) godartsass.SourceSyntax {
	switch s {
	case options.SyntaxIndented:
		return godartsass.SourceSyntaxSASS
	case options.SyntaxCSS:
		return godartsass.SourceSyntaxCSS
	default:
		return godartsass.SourceSyntaxSCSS
	}
}

// rejectFunctions reports a configuration error when custom functions are
// requested from an engine binding that cannot call back into Go.
func rejectFunctions(o *options.SassOptions) error {
	if len(o.Functions) == 0 {
		return nil
	}
	names := make([]string, 0, len(o.Functions))
	for n := range o.Functions {
		names = append(names, n)
	}
	sort.Strings(names)
	return diag.Configuration("functions: custom functions are not supported by this engine (%s)", strings.Join(names, ", "))
}
