//go:build cgo

package engine

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/bep/golibsass/libsass"

	"github.com/roach88/sassloader/internal/options"
)

// libSassVersion is the LibSass release bundled with golibsass.
const libSassVersion = "3.6.6"

func init() {
	Register(Discoverer{
		Name:     NameLibSass,
		Aliases:  []string{NameNodeSass},
		Rank:     20,
		Discover: func() (Engine, error) { return LibSass{}, nil },
	})
}

// LibSass is the legacy engine, compiled into the binary through cgo.
// It renders synchronously and asks importers for an answer inline.
type LibSass struct{}

// Info implements Engine.
func (LibSass) Info() string {
	return NameLibSass + "\t" + libSassVersion
}

// Render implements Engine by rendering inline.
func (l LibSass) Render(ctx context.Context, req *Request, done Completion) {
	done(l.RenderSync(ctx, req))
}

// RenderSync implements SyncRenderer.
func (LibSass) RenderSync(ctx context.Context, req *Request) (*Result, error) {
	if err := rejectFunctions(req.Options); err != nil {
		return nil, err
	}
	o := req.Options
	prevs := newPrevPaths()

	opts := libsass.Options{
		OutputStyle: libsass.ParseOutputStyle(o.OutputStyle),
		Precision:   o.Precision,
		SassSyntax:  o.IndentedSyntax,
		ImportResolver: func(url, prev string) (string, string, bool) {
			res, err := req.Importer.Resolve(ctx, url, prevs.lookup(prev))
			if err != nil || res == nil {
				return "", "", false
			}
			prevs.record(url, res.File)
			file := res.File
			if file == "" {
				file = url
			}
			return file, res.Contents, true
		},
	}
	if o.WantsSourceMap() {
		opts.SourceMapOptions = libsass.SourceMapOptions{
			Filename:   o.File + ".map",
			OutputPath: strings.TrimSuffix(o.File, filepath.Ext(o.File)) + ".css",
			InputPath:  o.File,
			Contents:   o.SourceMapContents,
			OmitURL:    true,
		}
	}
	if opts.Precision == 0 {
		opts.Precision = 5
	}
	if o.OutputStyle == "" {
		opts.OutputStyle = libsass.ParseOutputStyle(options.StyleExpanded)
	}

	t, err := libsass.New(opts)
	if err != nil {
		return nil, err
	}
	res, err := t.Execute(req.Source)
	if err != nil {
		return nil, err
	}
	return &Result{
		CSS:       Reformat(res.CSS, o),
		SourceMap: res.SourceMapContent,
	}, nil
}
