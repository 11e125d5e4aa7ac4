//go:build cgo

package outcome

import (
	"testing"

	"github.com/bep/golibsass/libsass/libsasserrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sassloader/internal/diag"
)

func TestTranslate_LibSassError(t *testing.T) {
	a, _ := newAdapter(t, "a { color: $nope; }")
	native := libsasserrors.Error{Status: 1, File: "stdin", Line: 1, Column: 12, Message: "Undefined variable: \"$nope\"."}

	out := Translate(nil, native, a, false)
	require.False(t, out.OK())
	assert.Equal(t, diag.KindCompile, out.Err.Kind)
	assert.Equal(t, a.Entry(), out.Err.File)
	assert.Equal(t, 1, *out.Err.Line)
	assert.Equal(t, 12, *out.Err.Column)
}
