package engine

import (
	"strings"

	"github.com/roach88/sassloader/internal/options"
)

// engineIndent is the indentation unit both real engines emit.
const engineIndent = 2

var linefeeds = map[string]string{
	"lf":   "\n",
	"lfcr": "\n\r",
	"cr":   "\r",
	"crlf": "\r\n",
}

// Reformat applies indentWidth, indentType and linefeed to engine output.
// Neither real engine binding exposes these options, so adapters
// post-process instead. Output is returned unchanged when all three are
// at their defaults.
func Reformat(css string, o *options.SassOptions) string {
	width := o.IndentWidth
	if width <= 0 {
		width = engineIndent
	}
	unit := " "
	if o.IndentType == "tab" {
		unit = "\t"
	}
	lf, ok := linefeeds[strings.ToLower(o.Linefeed)]
	if !ok {
		lf = "\n"
	}

	if width == engineIndent && unit == " " && lf == "\n" {
		return css
	}

	lines := strings.Split(css, "\n")
	if unit != " " || width != engineIndent {
		inComment := false
		for i, line := range lines {
			continuation := inComment
			inComment = commentOpenAfter(line, inComment)
			if continuation {
				continue
			}
			trimmed := strings.TrimLeft(line, " ")
			lead := len(line) - len(trimmed)
			// Only whole engine indent levels are structural.
			if lead == 0 || lead%engineIndent != 0 {
				continue
			}
			lines[i] = strings.Repeat(unit, lead/engineIndent*width) + trimmed
		}
	}
	return strings.Join(lines, lf)
}

// commentOpenAfter reports whether a block comment is still open at the end
// of line, given whether one was open at its start.
func commentOpenAfter(line string, open bool) bool {
	opened := strings.LastIndex(line, "/*")
	closed := strings.LastIndex(line, "*/")
	switch {
	case opened >= 0 && opened > closed:
		return true
	case closed >= 0:
		return false
	}
	return open
}
