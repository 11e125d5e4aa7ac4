package options

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sassloader/internal/diag"
	"github.com/roach88/sassloader/internal/fiber"
)

func TestFromMap_RecognizedKeys(t *testing.T) {
	imp := ImporterFunc(func(context.Context, string, string) (*ImportResult, error) { return nil, nil })

	o, err := FromMap(map[string]any{
		"includePaths":      []any{"/a", "/b"},
		"indentWidth":       float64(10),
		"indentType":        "tab",
		"linefeed":          "crlf",
		"outputStyle":       "compressed",
		"precision":         int64(8),
		"sourceMap":         true,
		"sourceMapContents": true,
		"fiber":             false,
		"importer":          imp,
		"file":              "/ignored.scss",
		"indentedSyntax":    true,
		"quietDeps":         true,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"/a", "/b"}, o.IncludePaths)
	assert.Equal(t, 10, o.IndentWidth)
	assert.Equal(t, "tab", o.IndentType)
	assert.Equal(t, "crlf", o.Linefeed)
	assert.Equal(t, "compressed", o.OutputStyle)
	assert.Equal(t, 8, o.Precision)
	assert.True(t, o.WantsSourceMap())
	assert.True(t, o.SourceMapContents)
	assert.True(t, o.Fiber.IsDisabled())
	assert.Len(t, o.Importers, 1)
	assert.Empty(t, o.File)
	assert.False(t, o.IndentedSyntax)
	assert.Equal(t, map[string]any{"quietDeps": true}, o.Extra)
}

func TestFromMap_FiberTrueMeansUnset(t *testing.T) {
	o, err := FromMap(map[string]any{"fiber": true})
	require.NoError(t, err)
	assert.False(t, o.Fiber.IsSet())
}

func TestFromMap_FiberHandle(t *testing.T) {
	pool := fiber.NewPool(1)
	t.Cleanup(pool.Close)

	o, err := FromMap(map[string]any{"fiber": pool})
	require.NoError(t, err)
	assert.True(t, o.Fiber.IsSet())
	assert.False(t, o.Fiber.IsDisabled())
	assert.Same(t, pool, o.Fiber.Handle())
}

func TestFromMap_PlainFunctionValues(t *testing.T) {
	plain := func(args ...string) (string, error) { return "1px", nil }

	o, err := FromMap(map[string]any{"functions": map[string]any{"px()": plain}})
	require.NoError(t, err)
	require.Contains(t, o.Functions, "px()")
	got, err := o.Functions["px()"]()
	require.NoError(t, err)
	assert.Equal(t, "1px", got)

	o, err = FromMap(map[string]any{"functions": map[string]func(...string) (string, error){"px()": plain}})
	require.NoError(t, err)
	assert.Contains(t, o.Functions, "px()")
}

func TestFromMap_SingleIncludePathString(t *testing.T) {
	o, err := FromMap(map[string]any{"includePaths": "/only"})
	require.NoError(t, err)
	assert.Equal(t, []string{"/only"}, o.IncludePaths)
}

func TestFromMap_TypeErrors(t *testing.T) {
	tests := []struct {
		name string
		in   map[string]any
		want string
	}{
		{name: "indentWidth string", in: map[string]any{"indentWidth": "10"}, want: "sassOptions.indentWidth"},
		{name: "fractional indentWidth", in: map[string]any{"indentWidth": 2.5}, want: "sassOptions.indentWidth"},
		{name: "includePaths element", in: map[string]any{"includePaths": []any{"/a", 3}}, want: "sassOptions.includePaths[1]"},
		{name: "fiber string", in: map[string]any{"fiber": "yes"}, want: "sassOptions.fiber"},
		{name: "importer string", in: map[string]any{"importer": "./importer.js"}, want: "sassOptions.importer"},
		{name: "functions list", in: map[string]any{"functions": []any{}}, want: "sassOptions.functions"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromMap(tt.in)
			require.Error(t, err)
			assert.True(t, diag.IsConfiguration(err))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestMapSource_ReportsConfigurationError(t *testing.T) {
	_, err := Normalize(Map(map[string]any{"outputStyle": 1}), newContext(t, "main.scss"), Defaults{})
	assert.True(t, diag.IsConfiguration(err))
}
