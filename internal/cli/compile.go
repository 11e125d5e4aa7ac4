package cli

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/sassloader/internal/config"
	"github.com/roach88/sassloader/internal/depstore"
	"github.com/roach88/sassloader/internal/diag"
	"github.com/roach88/sassloader/internal/engine"
	"github.com/roach88/sassloader/internal/host"
	"github.com/roach88/sassloader/internal/importer"
	"github.com/roach88/sassloader/internal/loader"
	"github.com/roach88/sassloader/internal/options"
	"github.com/roach88/sassloader/internal/outcome"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Config       string   // config file (.cue, .yaml, .yml, .hcl)
	Engine       string   // engine name; overrides the config file
	Mode         string   // build mode; overrides the config file
	SourceMap    bool     // only applied when the flag is set explicitly
	IncludePaths []string // appended after the config file's includePaths
	NoFiber      bool
	Output       string // output file path
	DB           string // dependency store path
}

// CompileResult is the JSON payload of a successful compile.
type CompileResult struct {
	Entry         string   `json:"entry"`
	Engine        string   `json:"engine"`
	Version       string   `json:"version"`
	CSS           string   `json:"css"`
	SourceMap     string   `json:"sourceMap,omitempty"`
	IncludedFiles []string `json:"includedFiles"`
	Output        string   `json:"output,omitempty"`
	RunID         string   `json:"runId,omitempty"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <file>",
		Short: "Compile a Sass entry stylesheet to CSS",
		Long: `Compile a .scss, .sass or .css entry stylesheet with the selected engine.

Options come from the config file (if any), then flags. Imports are
resolved through include paths, node_modules and the configured module
directories. With --db, the run and the files it included are recorded
for the deps command.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Config, "config", "c", "", "config file (.cue, .yaml, .yml, .hcl)")
	cmd.Flags().StringVarP(&opts.Engine, "engine", "e", "", "engine to use ("+engine.NameDartSass+"|"+engine.NameLibSass+"|"+engine.NameNodeSass+")")
	cmd.Flags().StringVar(&opts.Mode, "mode", "", "build mode (development|production|none)")
	cmd.Flags().BoolVar(&opts.SourceMap, "source-map", false, "generate a source map")
	cmd.Flags().StringArrayVarP(&opts.IncludePaths, "include-path", "I", nil, "additional import search path (repeatable)")
	cmd.Flags().BoolVar(&opts.NoFiber, "no-fiber", false, "never use the cooperative scheduling bridge")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path (source map goes to <output>.map)")
	cmd.Flags().StringVar(&opts.DB, "db", "", "record the run in this dependency database")

	return cmd
}

func runCompile(opts *CompileOptions, file string, cmd *cobra.Command) error {
	ctx := cmd.Context()
	formatter := opts.formatter(cmd)
	lg := opts.logger(cmd.ErrOrStderr())

	var cfg *config.File
	if opts.Config != "" {
		var err error
		cfg, err = config.Load(opts.Config)
		if err != nil {
			var cerr *config.Error
			if errors.As(err, &cerr) {
				return commandError(formatter, cerr.Code, cerr.Error(), err)
			}
			return commandError(formatter, ErrCodeGeneric, err.Error(), err)
		}
		formatter.VerboseLog("Loaded config %s", cfg.Path)
	}

	entry := importer.NormalizePath(file)
	src, err := os.ReadFile(entry)
	if err != nil {
		return commandError(formatter, ErrCodeNotFound, fmt.Sprintf("reading entry stylesheet: %v", err), err)
	}

	mode := cfg.HostMode(host.ModeDevelopment)
	if opts.Mode != "" {
		mode = host.Mode(opts.Mode)
	}
	if !validMode(mode) {
		return commandError(formatter, ErrCodeConfiguration, fmt.Sprintf("invalid mode %q: must be development, production or none", mode), nil)
	}

	var sourceMap *bool
	if cfg != nil {
		sourceMap = cfg.SourceMap
	}
	if cmd.Flags().Changed("source-map") {
		sourceMap = &opts.SourceMap
	}

	var moduleDirs []string
	if cfg != nil {
		moduleDirs = cfg.ModuleDirs
	}
	lctx, err := host.NewFS(entry,
		host.WithMode(mode),
		host.WithModuleDirs(moduleDirs...),
		host.WithLogger(lg),
	)
	if err != nil {
		return commandError(formatter, ErrCodeGeneric, err.Error(), err)
	}

	name := opts.Engine
	if name == "" && cfg != nil {
		name = cfg.Implementation
	}
	sel := opts.selector(lg)
	h, err := sel.Select(nil, name)
	if err != nil {
		return formatter.Diagnostic(outcome.Failure(err).Err)
	}
	formatter.VerboseLog("Engine: %s", h)

	lopts := loader.Options{
		Implementation: h.Engine,
		SassOptions:    sassOptionsSource(cfg, opts.IncludePaths),
		SourceMap:      sourceMap,
		DisableFiber:   opts.NoFiber || (cfg != nil && cfg.DisableFiber),
	}
	out, err := compileWith(ctx, loader.New(loader.WithSelector(sel), loader.WithLogger(lg)), lctx, string(src), lopts)
	if err != nil {
		return commandError(formatter, ErrCodeGeneric, err.Error(), err)
	}

	var runID string
	if opts.DB != "" {
		runID, err = recordRun(ctx, opts.DB, depstore.NewRun(entry, h.Name, h.Version, out))
		if err != nil {
			return commandError(formatter, ErrCodeStore, err.Error(), err)
		}
		formatter.VerboseLog("Recorded run %s in %s", runID, opts.DB)
	}

	warnings := make([]string, 0, len(lctx.Warnings()))
	for _, w := range lctx.Warnings() {
		warnings = append(warnings, w.Error())
	}

	if !out.OK() {
		for _, w := range warnings {
			fmt.Fprintf(formatter.GetErrWriter(), "Warning: %s\n", w)
		}
		return formatter.Diagnostic(out.Err)
	}

	if opts.Output != "" {
		if err := writeOutput(opts.Output, out); err != nil {
			return commandError(formatter, ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err), err)
		}
	}
	formatter.VerboseLog("Included %d file(s)", len(out.IncludedFiles))

	result := CompileResult{
		Entry:         entry,
		Engine:        h.Name,
		Version:       h.Version,
		CSS:           out.CSS,
		SourceMap:     out.SourceMap,
		IncludedFiles: out.IncludedFiles,
		Output:        opts.Output,
		RunID:         runID,
	}
	return outputCompileSuccess(formatter, result, warnings)
}

// compileWith runs the loader against lctx and rebuilds the outcome from
// what the host received.
func compileWith(ctx context.Context, l *loader.Loader, lctx *host.FS, source string, opts loader.Options) (outcome.Outcome, error) {
	l.Run(ctx, lctx, source, opts)

	res, err := lctx.Wait(ctx)
	if err != nil {
		if de := diag.As(err); de != nil {
			return outcome.Outcome{Err: de}, nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return outcome.Outcome{}, err
		}
		return outcome.Failure(err), nil
	}
	return outcome.Outcome{
		CSS:           res.CSS,
		SourceMap:     res.SourceMap,
		IncludedFiles: append([]string{lctx.ResourcePath()}, lctx.Dependencies()...),
	}, nil
}

// sassOptionsSource merges the config file's sassOptions with extra
// include paths from the command line.
func sassOptionsSource(cfg *config.File, includePaths []string) options.Source {
	if len(includePaths) == 0 {
		return cfg.Source()
	}

	m := map[string]any{}
	if cfg != nil {
		maps.Copy(m, cfg.SassOptions)
	}
	var paths []any
	if existing, ok := m["includePaths"].([]any); ok {
		paths = append(paths, existing...)
	}
	for _, p := range includePaths {
		paths = append(paths, importer.NormalizePath(p))
	}
	m["includePaths"] = paths
	return options.Map(m)
}

func validMode(m host.Mode) bool {
	return slices.Contains([]host.Mode{host.ModeDevelopment, host.ModeProduction, host.ModeNone}, m)
}

func recordRun(ctx context.Context, path string, run depstore.Run) (string, error) {
	s, err := depstore.Open(path)
	if err != nil {
		return "", err
	}
	defer s.Close()

	rec, err := s.RecordRun(ctx, run)
	if err != nil {
		return "", err
	}
	return rec.ID, nil
}

func writeOutput(path string, out outcome.Outcome) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(out.CSS), 0o644); err != nil {
		return err
	}
	if out.SourceMap != "" {
		if err := os.WriteFile(path+".map", []byte(out.SourceMap), 0o644); err != nil {
			return err
		}
	}
	return nil
}

// outputCompileSuccess writes the compiled CSS to stdout in text mode,
// or a summary line when it went to a file.
func outputCompileSuccess(formatter *OutputFormatter, result CompileResult, warnings []string) error {
	if formatter.Format == "json" {
		return formatter.SuccessWithWarnings(result, warnings)
	}

	for _, w := range warnings {
		fmt.Fprintf(formatter.GetErrWriter(), "Warning: %s\n", w)
	}
	if result.Output != "" {
		fmt.Fprintf(formatter.Writer, "✓ Compiled %s with %s (%d file(s))\n", filepath.Base(result.Entry), result.Engine, len(result.IncludedFiles))
		fmt.Fprintf(formatter.Writer, "Wrote CSS to %s\n", result.Output)
		return nil
	}
	fmt.Fprint(formatter.Writer, result.CSS)
	return nil
}
