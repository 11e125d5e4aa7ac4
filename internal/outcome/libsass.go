//go:build cgo

package outcome

import (
	"errors"
	"strings"

	"github.com/bep/golibsass/libsass/libsasserrors"

	"github.com/roach88/sassloader/internal/diag"
	"github.com/roach88/sassloader/internal/importer"
)

func init() {
	registerDecoder(decodeLibSass)
}

// decodeLibSass handles LibSass errors, which carry 1-based positions
// already. LibSass reports "stdin" for the entry stylesheet.
func decodeLibSass(err error, a *importer.Adapter) (*diag.Error, bool) {
	var le libsasserrors.Error
	if !errors.As(err, &le) {
		return nil, false
	}

	file := le.File
	if (file == "stdin" || file == "") && a != nil {
		file = a.Entry()
	}
	return compileError(strings.TrimSpace(le.Message), file, le.Line, le.Column, err), true
}
