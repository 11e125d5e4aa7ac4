package config

import (
	"errors"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsimple"
)

type hclFile struct {
	Implementation string          `hcl:"implementation,optional"`
	Mode           string          `hcl:"mode,optional"`
	SourceMap      *bool           `hcl:"source_map,optional"`
	DisableFiber   bool            `hcl:"disable_fiber,optional"`
	ModuleDirs     []string        `hcl:"module_dirs,optional"`
	SassOptions    *hclSassOptions `hcl:"sass_options,block"`
}

type hclSassOptions struct {
	IncludePaths      []string `hcl:"include_paths,optional"`
	IndentWidth       *int     `hcl:"indent_width,optional"`
	IndentType        *string  `hcl:"indent_type,optional"`
	Linefeed          *string  `hcl:"linefeed,optional"`
	OutputStyle       *string  `hcl:"output_style,optional"`
	Precision         *int     `hcl:"precision,optional"`
	SourceMap         *bool    `hcl:"source_map,optional"`
	SourceMapContents *bool    `hcl:"source_map_contents,optional"`
	Fiber             *bool    `hcl:"fiber,optional"`
}

// ParseHCL decodes an HCL configuration:
//
//	implementation = "dart-sass"
//	mode           = "production"
//
//	sass_options {
//	  include_paths = ["vendor"]
//	  output_style  = "compressed"
//	}
func ParseHCL(path string, src []byte) (*File, error) {
	var h hclFile
	if err := hclsimple.Decode(path, src, nil, &h); err != nil {
		return nil, hclError(path, err)
	}

	f := &File{
		Implementation: h.Implementation,
		Mode:           h.Mode,
		SourceMap:      h.SourceMap,
		DisableFiber:   h.DisableFiber,
		ModuleDirs:     h.ModuleDirs,
	}
	if s := h.SassOptions; s != nil {
		m := map[string]any{}
		if s.IncludePaths != nil {
			m["includePaths"] = s.IncludePaths
		}
		setIf(m, "indentWidth", s.IndentWidth)
		setIf(m, "indentType", s.IndentType)
		setIf(m, "linefeed", s.Linefeed)
		setIf(m, "outputStyle", s.OutputStyle)
		setIf(m, "precision", s.Precision)
		setIf(m, "sourceMap", s.SourceMap)
		setIf(m, "sourceMapContents", s.SourceMapContents)
		setIf(m, "fiber", s.Fiber)
		f.SassOptions = m
	}

	if err := f.validate(path); err != nil {
		return nil, err
	}
	return f, nil
}

func setIf[T any](m map[string]any, key string, v *T) {
	if v != nil {
		m[key] = *v
	}
}

func hclError(path string, err error) *Error {
	e := &Error{Code: ErrCodeParse, Message: err.Error(), File: path, Err: err}
	var diags hcl.Diagnostics
	if !errors.As(err, &diags) || len(diags) == 0 {
		return e
	}
	d := diags[0]
	e.Message = d.Summary
	if d.Detail != "" {
		e.Message += ": " + d.Detail
	}
	if d.Subject != nil {
		e.File = d.Subject.Filename
		e.Line = d.Subject.Start.Line
		e.Column = d.Subject.Start.Column
	}
	return e
}
