package engine

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrevPaths_MapsSpecifierToResolvedFile(t *testing.T) {
	root := t.TempDir()
	a := filepath.Join(root, "sub", "_a.scss")
	p := newPrevPaths()

	assert.Equal(t, "stdin", p.lookup("stdin"))
	assert.Equal(t, "sub/a", p.lookup("sub/a"))

	p.record("sub/a", a)
	assert.Equal(t, a, p.lookup("sub/a"))
	assert.Equal(t, a, p.lookup(a))
}

func TestPrevPaths_LatestResolutionWins(t *testing.T) {
	root := t.TempDir()
	first := filepath.Join(root, "x", "_b.scss")
	second := filepath.Join(root, "y", "_b.scss")
	p := newPrevPaths()

	p.record("b", first)
	p.record("b", second)
	assert.Equal(t, second, p.lookup("b"))
}

func TestPrevPaths_IgnoresContentOnlyResults(t *testing.T) {
	p := newPrevPaths()
	p.record("virtual", "")
	p.record("other", "virtual")
	assert.Equal(t, "virtual", p.lookup("virtual"))
	assert.Equal(t, "other", p.lookup("other"))
}
