package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sassloader/internal/host"
	"github.com/roach88/sassloader/internal/options"
)

func write(t *testing.T, name, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

// want is the File every format below decodes to, before path
// resolution.
func want(dir string) *File {
	on := true
	return &File{
		Implementation: "dart-sass",
		Mode:           "production",
		SourceMap:      &on,
		ModuleDirs:     []string{filepath.Join(dir, "modules")},
		SassOptions: map[string]any{
			"includePaths": []any{filepath.Join(dir, "vendor"), "/abs/styles"},
			"outputStyle":  "compressed",
			"indentWidth":  4,
		},
	}
}

func TestLoad_AllFormatsAgree(t *testing.T) {
	sources := map[string]string{
		"sassloader.cue": `
implementation: "dart-sass"
mode:           "production"
sourceMap:      true
moduleDirs: ["modules"]
sassOptions: {
	includePaths: ["vendor", "/abs/styles"]
	outputStyle:  "compressed"
	indentWidth:  4
}
`,
		"sassloader.yaml": `
implementation: dart-sass
mode: production
sourceMap: true
moduleDirs: [modules]
sassOptions:
  includePaths: [vendor, /abs/styles]
  outputStyle: compressed
  indentWidth: 4
`,
		"sassloader.hcl": `
implementation = "dart-sass"
mode           = "production"
source_map     = true
module_dirs    = ["modules"]

sass_options {
  include_paths = ["vendor", "/abs/styles"]
  output_style  = "compressed"
  indent_width  = 4
}
`,
	}

	for name, src := range sources {
		t.Run(name, func(t *testing.T) {
			path := write(t, name, src)
			got, err := Load(path)
			require.NoError(t, err)

			dir := filepath.Dir(got.Path)
			assert.Equal(t, filepath.Join(dir, name), got.Path)

			// Compare through FromMap so int widths and list types from
			// the different decoders do not matter.
			wantOpts, err := options.FromMap(want(dir).SassOptions)
			require.NoError(t, err)
			gotOpts, err := options.FromMap(got.SassOptions)
			require.NoError(t, err)
			if diff := cmp.Diff(wantOpts, gotOpts, cmp.AllowUnexported(options.FiberSetting{})); diff != "" {
				t.Errorf("sassOptions mismatch (-want +got):\n%s", diff)
			}

			w := want(dir)
			w.SassOptions, got.SassOptions = nil, nil
			w.Path = got.Path
			if diff := cmp.Diff(w, got); diff != "" {
				t.Errorf("config mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseCUE_SchemaViolation(t *testing.T) {
	path := write(t, "bad.cue", "mode: \"staging\"\n")
	_, err := Load(path)

	var ce *Error
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, ErrCodeSchema, ce.Code)
	assert.Contains(t, ce.Error(), "mode")
}

func TestParseCUE_UnknownFieldRejected(t *testing.T) {
	_, err := ParseCUE("x.cue", []byte("outputStyle: \"compressed\"\n"))

	var ce *Error
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, ErrCodeSchema, ce.Code)
}

func TestParseCUE_SyntaxError(t *testing.T) {
	_, err := ParseCUE("x.cue", []byte("mode: {\n"))

	var ce *Error
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, ErrCodeParse, ce.Code)
}

func TestParseYAML_UnknownTopLevelKey(t *testing.T) {
	_, err := ParseYAML("x.yaml", []byte("outputStyle: compressed\n"))

	var ce *Error
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, ErrCodeParse, ce.Code)
}

func TestParseYAML_Empty(t *testing.T) {
	f, err := ParseYAML("x.yaml", nil)
	require.NoError(t, err)
	assert.Equal(t, &File{}, f)
}

func TestParseYAML_WrongOptionType(t *testing.T) {
	_, err := ParseYAML("x.yaml", []byte("sassOptions:\n  precision: lots\n"))

	var ce *Error
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, ErrCodeSchema, ce.Code)
	assert.Contains(t, ce.Message, "sassOptions.precision")
}

func TestParseYAML_BadMode(t *testing.T) {
	_, err := ParseYAML("x.yaml", []byte("mode: staging\n"))
	var ce *Error
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, ErrCodeSchema, ce.Code)
}

func TestParseHCL_DiagnosticPosition(t *testing.T) {
	_, err := ParseHCL("x.hcl", []byte("mode = \"production\"\nunknown = 1\n"))

	var ce *Error
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, ErrCodeParse, ce.Code)
	assert.Equal(t, 2, ce.Line)
	assert.Equal(t, "x.hcl", ce.File)
}

func TestParseHCL_FiberFalse(t *testing.T) {
	f, err := ParseHCL("x.hcl", []byte("sass_options {\n  fiber = false\n}\n"))
	require.NoError(t, err)

	opts, err := options.FromMap(f.SassOptions)
	require.NoError(t, err)
	assert.True(t, opts.Fiber.IsDisabled())
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	var ce *Error
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, ErrCodeRead, ce.Code)

	_, err = Load(write(t, "config.toml", ""))
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, ErrCodeUnsupported, ce.Code)
}

func TestFile_Accessors(t *testing.T) {
	var nilFile *File
	assert.Equal(t, host.ModeDevelopment, nilFile.HostMode(host.ModeDevelopment))
	assert.Nil(t, nilFile.Source())

	f := &File{Mode: "none", SassOptions: map[string]any{}}
	assert.Equal(t, host.ModeNone, f.HostMode(host.ModeDevelopment))
	assert.NotNil(t, f.Source())
}

func TestError_Format(t *testing.T) {
	assert.Equal(t, "a.cue:3:5: E012: bad", (&Error{Code: ErrCodeSchema, Message: "bad", File: "a.cue", Line: 3, Column: 5}).Error())
	assert.Equal(t, "a.cue: E010: bad", (&Error{Code: ErrCodeRead, Message: "bad", File: "a.cue"}).Error())
	assert.Equal(t, "E013: bad", (&Error{Code: ErrCodeUnsupported, Message: "bad"}).Error())
}
