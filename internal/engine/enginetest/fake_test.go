package enginetest

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sassloader/internal/engine"
	"github.com/roach88/sassloader/internal/importer"
	"github.com/roach88/sassloader/internal/options"
	"github.com/roach88/sassloader/internal/testutil"
)

func request(t *testing.T, source string, partials map[string]string, mutate func(*options.SassOptions)) *engine.Request {
	t.Helper()
	dir := t.TempDir()
	for name, body := range partials {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	entry := filepath.Join(dir, "main.scss")
	opts := &options.SassOptions{File: entry, IncludePaths: []string{dir}, OutputStyle: options.StyleExpanded}
	if mutate != nil {
		mutate(opts)
	}
	return &engine.Request{Source: source, Options: opts, Importer: importer.New(opts, testutil.NewRecorder(entry))}
}

func TestFake_ImportsAndVariables(t *testing.T) {
	req := request(t, `@import "inc"; a { color: $c; }`, map[string]string{"_inc.scss": "$c: red;"}, nil)

	res, err := New().Compile(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "a { color: red; }\n", res.CSS)
}

func TestFake_Compressed(t *testing.T) {
	req := request(t, "a {\n  color: red;\n}\nb { margin: 0 }", nil, func(o *options.SassOptions) {
		o.OutputStyle = options.StyleCompressed
	})

	res, err := New().Compile(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "a{color:red}b{margin:0}", res.CSS)
}

func TestFake_Functions(t *testing.T) {
	req := request(t, "a { width: double(4px); }", nil, func(o *options.SassOptions) {
		o.Functions = map[string]options.Function{
			"double($n)": func(args ...string) (string, error) {
				return strings.Repeat(args[0]+" ", 2), nil
			},
		}
	})

	res, err := New().Compile(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "a { width: 4px 4px ; }\n", res.CSS)
}

func TestFake_MissingImport(t *testing.T) {
	req := request(t, "a {}\n  @import \"nope\";", nil, nil)

	_, err := New().Compile(context.Background(), req)
	require.Error(t, err)

	var fe *Error
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, 2, fe.Line)
	assert.Equal(t, 3, fe.Column)
	assert.Equal(t, req.Options.File, fe.File)
}

func TestFake_SourceMapOnlyWhenRequested(t *testing.T) {
	on := true
	req := request(t, "a {}", nil, func(o *options.SassOptions) { o.SourceMap = &on })
	res, err := New().Compile(context.Background(), req)
	require.NoError(t, err)
	assert.Contains(t, res.SourceMap, `"version":3`)

	res, err = New().Compile(context.Background(), request(t, "a {}", nil, nil))
	require.NoError(t, err)
	assert.Empty(t, res.SourceMap)
}

func TestFake_Info(t *testing.T) {
	h, err := engine.Wrap(New())
	require.NoError(t, err)
	assert.True(t, h.Caps.CooperativeScheduling)

	h, err = engine.Wrap(NewSync())
	require.NoError(t, err)
	assert.Equal(t, engine.NameLibSass, h.Name)
	assert.False(t, h.Caps.CooperativeScheduling)
}
