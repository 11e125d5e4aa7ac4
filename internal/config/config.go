// Package config loads loader settings from a CUE, YAML or HCL file.
//
// All three formats produce the same File. CUE files are unified with an
// embedded #Config schema before decoding; YAML rejects unknown top-level
// keys; HCL uses a typed block schema with snake_case names. Relative
// paths are resolved against the directory of the config file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/roach88/sassloader/internal/host"
	"github.com/roach88/sassloader/internal/options"
)

// File is a decoded configuration file.
type File struct {
	Implementation string         `json:"implementation,omitempty" yaml:"implementation"`
	Mode           string         `json:"mode,omitempty" yaml:"mode"`
	SourceMap      *bool          `json:"sourceMap,omitempty" yaml:"sourceMap"`
	DisableFiber   bool           `json:"disableFiber,omitempty" yaml:"disableFiber"`
	ModuleDirs     []string       `json:"moduleDirs,omitempty" yaml:"moduleDirs"`
	SassOptions    map[string]any `json:"sassOptions,omitempty" yaml:"sassOptions"`

	// Path is the file the configuration was read from.
	Path string `json:"-" yaml:"-"`
}

// Error codes.
const (
	ErrCodeRead        = "E010"
	ErrCodeParse       = "E011"
	ErrCodeSchema      = "E012"
	ErrCodeUnsupported = "E013"
)

// Error is a configuration error with a source position when known.
type Error struct {
	Code    string
	Message string
	File    string
	Line    int
	Column  int
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.File != "" && e.Line > 0:
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.File, e.Line, e.Column, e.Code, e.Message)
	case e.File != "":
		return fmt.Sprintf("%s: %s: %s", e.File, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error { return e.Err }

var knownModes = []string{string(host.ModeDevelopment), string(host.ModeProduction), string(host.ModeNone)}

// Load reads path, choosing the decoder by extension.
func Load(path string) (*File, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, &Error{Code: ErrCodeRead, Message: err.Error(), File: path, Err: err}
	}

	var f *File
	switch strings.ToLower(filepath.Ext(path)) {
	case ".cue":
		f, err = ParseCUE(path, src)
	case ".yaml", ".yml":
		f, err = ParseYAML(path, src)
	case ".hcl":
		f, err = ParseHCL(path, src)
	default:
		return nil, &Error{Code: ErrCodeUnsupported, Message: "unsupported config format (want .cue, .yaml, .yml or .hcl)", File: path}
	}
	if err != nil {
		return nil, err
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, &Error{Code: ErrCodeRead, Message: err.Error(), File: path, Err: err}
	}
	f.Path = abs
	if err := f.resolvePaths(filepath.Dir(abs)); err != nil {
		return nil, err
	}
	return f, nil
}

// validate checks the constraints the CUE schema expresses, for the
// formats that have no schema of their own.
func (f *File) validate(path string) error {
	if f.Mode != "" && !slices.Contains(knownModes, f.Mode) {
		return &Error{
			Code:    ErrCodeSchema,
			Message: fmt.Sprintf("mode: %q is not one of %s", f.Mode, strings.Join(knownModes, ", ")),
			File:    path,
		}
	}
	if _, err := options.FromMap(f.SassOptions); err != nil {
		return &Error{Code: ErrCodeSchema, Message: err.Error(), File: path, Err: err}
	}
	return nil
}

func (f *File) resolvePaths(base string) error {
	for i, d := range f.ModuleDirs {
		f.ModuleDirs[i] = absFrom(base, d)
	}
	raw, ok := f.SassOptions["includePaths"]
	if !ok {
		return nil
	}
	opts, err := options.FromMap(map[string]any{"includePaths": raw})
	if err != nil {
		return &Error{Code: ErrCodeSchema, Message: err.Error(), File: f.Path, Err: err}
	}
	paths := make([]any, len(opts.IncludePaths))
	for i, p := range opts.IncludePaths {
		paths[i] = absFrom(base, p)
	}
	f.SassOptions["includePaths"] = paths
	return nil
}

func absFrom(base, p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(base, p)
}

// HostMode returns the configured build mode, or def when unset.
func (f *File) HostMode(def host.Mode) host.Mode {
	if f == nil || f.Mode == "" {
		return def
	}
	return host.Mode(f.Mode)
}

// Source returns the sassOptions mapping as an option source.
func (f *File) Source() options.Source {
	if f == nil || f.SassOptions == nil {
		return nil
	}
	return options.Map(f.SassOptions)
}
