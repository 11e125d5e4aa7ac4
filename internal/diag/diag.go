package diag

import (
	"errors"
	"fmt"
	"strings"
)

// Kind categorizes a compile failure.
type Kind string

const (
	// KindConfiguration indicates no engine could be selected or the options
	// had an unusable shape. Fatal to the single compile, never retried.
	KindConfiguration Kind = "CONFIGURATION"

	// KindImportResolution indicates an import specifier could not be resolved.
	KindImportResolution Kind = "IMPORT_RESOLUTION"

	// KindCompile indicates the engine rejected the stylesheet.
	KindCompile Kind = "COMPILE"

	// KindInternal indicates an adapter-level failure (double completion,
	// panic in a wrapped callable, engine transport failure).
	KindInternal Kind = "ADAPTER_INTERNAL"
)

// Error is the normalized failure shape handed to the host.
type Error struct {
	// Kind identifies the error category.
	Kind Kind

	// Message is a human-readable description.
	Message string

	// File is the originating stylesheet, when known.
	File string

	// Line is the 1-based line, nil when unknown.
	Line *int

	// Column is the 1-based column, nil when unknown.
	Column *int

	// Specifier is the unresolved import (KindImportResolution only).
	Specifier string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	if e.File != "" {
		b.WriteString(e.File)
		if e.Line != nil {
			fmt.Fprintf(&b, ":%d", *e.Line)
			if e.Column != nil {
				fmt.Fprintf(&b, ":%d", *e.Column)
			}
		}
		b.WriteString(": ")
	}
	fmt.Fprintf(&b, "%s: %s", e.Kind, e.Message)
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// At returns a copy of e positioned at file/line/column. Pass a zero line
// or column to leave it unset.
func (e *Error) At(file string, line, column int) *Error {
	c := *e
	c.File = file
	c.Line = nil
	c.Column = nil
	if line > 0 {
		c.Line = Int(line)
	}
	if column > 0 {
		c.Column = Int(column)
	}
	return &c
}

// Int returns a pointer to n.
func Int(n int) *int {
	return &n
}

// Configuration creates a KindConfiguration error.
func Configuration(format string, args ...any) *Error {
	return &Error{Kind: KindConfiguration, Message: fmt.Sprintf(format, args...)}
}

// ImportResolution creates a KindImportResolution error citing the specifier.
func ImportResolution(specifier string, err error) *Error {
	msg := fmt.Sprintf("can't resolve import %q", specifier)
	if err != nil {
		msg = fmt.Sprintf("%s: %v", msg, err)
	}
	return &Error{
		Kind:      KindImportResolution,
		Message:   msg,
		Specifier: specifier,
		Err:       err,
	}
}

// Compile creates a KindCompile error.
func Compile(message string) *Error {
	return &Error{Kind: KindCompile, Message: message}
}

// Internal creates a KindInternal error wrapping err.
func Internal(message string, err error) *Error {
	if err != nil {
		message = fmt.Sprintf("%s: %v", message, err)
	}
	return &Error{Kind: KindInternal, Message: message, Err: err}
}

// As returns the *Error in err's chain, or nil.
func As(err error) *Error {
	var de *Error
	if errors.As(err, &de) {
		return de
	}
	return nil
}

// IsConfiguration reports whether err is a configuration error.
func IsConfiguration(err error) bool { return is(err, KindConfiguration) }

// IsImportResolution reports whether err is an import resolution error.
func IsImportResolution(err error) bool { return is(err, KindImportResolution) }

// IsCompile reports whether err is an engine compile error.
func IsCompile(err error) bool { return is(err, KindCompile) }

// IsInternal reports whether err is an adapter-internal error.
func IsInternal(err error) bool { return is(err, KindInternal) }

func is(err error, kind Kind) bool {
	de := As(err)
	return de != nil && de.Kind == kind
}
