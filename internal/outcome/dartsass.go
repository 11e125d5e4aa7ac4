package outcome

import (
	"errors"
	"strings"

	"github.com/bep/godartsass/v2"

	"github.com/roach88/sassloader/internal/diag"
	"github.com/roach88/sassloader/internal/importer"
)

// decodeDartSass handles errors from the embedded protocol. The span
// carries a byte offset into the failing stylesheet; line and column are
// derived from the contents the importer adapter loaded, and left unset
// when those are not known.
func decodeDartSass(err error, a *importer.Adapter) (*diag.Error, bool) {
	var se godartsass.SassError
	if !errors.As(err, &se) {
		var sp *godartsass.SassError
		if !errors.As(err, &sp) || sp == nil {
			return nil, false
		}
		se = *sp
	}

	file, _ := filePath(se.Span.Url)
	if se.Span.Url == "" {
		file = ""
	}

	var line, column int
	if file != "" && a != nil {
		if contents, ok := a.Contents(file); ok {
			line, column = lineColumn(contents, se.Span.Start.Offset)
		}
	}
	return compileError(strings.TrimSpace(se.Message), file, line, column, err), true
}

// lineColumn converts a byte offset into 1-based line and column. Offsets
// outside src yield zeros.
func lineColumn(src string, offset int) (int, int) {
	if offset < 0 || offset > len(src) {
		return 0, 0
	}
	before := src[:offset]
	line := strings.Count(before, "\n") + 1
	column := offset - strings.LastIndex(before, "\n")
	return line, column
}
