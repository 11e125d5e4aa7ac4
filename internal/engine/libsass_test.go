//go:build cgo

package engine

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sassloader/internal/diag"
	"github.com/roach88/sassloader/internal/options"
)

func TestLibSass_Scenario(t *testing.T) {
	opts, adapter, inc := scenario(t)
	src, err := os.ReadFile(opts.File)
	require.NoError(t, err)

	res, err := LibSass{}.RenderSync(context.Background(), &Request{Source: string(src), Options: opts, Importer: adapter})
	require.NoError(t, err)

	assert.Contains(t, res.CSS, "color: red;")
	assert.Equal(t, []string{inc}, adapter.Dependencies().List())
}

func TestLibSass_RenderCompletesInline(t *testing.T) {
	opts, adapter, _ := scenario(t)
	opts.OutputStyle = options.StyleCompressed

	calls := 0
	var css string
	LibSass{}.Render(context.Background(), &Request{Source: "a { color: red; }", Options: opts, Importer: adapter}, func(r *Result, err error) {
		calls++
		require.NoError(t, err)
		css = r.CSS
	})
	assert.Equal(t, 1, calls)
	assert.Contains(t, css, "a{color:red}")
}

func TestLibSass_RejectsFunctions(t *testing.T) {
	opts, adapter, _ := scenario(t)
	opts.Functions = map[string]options.Function{"f()": func(...string) (string, error) { return "", nil }}

	_, err := LibSass{}.RenderSync(context.Background(), &Request{Source: "", Options: opts, Importer: adapter})
	assert.True(t, diag.IsConfiguration(err))
}

func TestLibSass_Registered(t *testing.T) {
	h, err := NewSelector().Select(nil, NameNodeSass)
	require.NoError(t, err)
	assert.Equal(t, NameLibSass, h.Name)
	assert.True(t, h.Caps.SyncImporterReturn)
}
