package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/roach88/sassloader/internal/diag"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // The stylesheet failed to compile
	ExitCommandError = 2 // Command error (bad flags, bad config, no engine, database errors)
)

// Error codes reported in CLI output.
const (
	ErrCodeGeneric       = "E001" // Generic/unknown error
	ErrCodeNotFound      = "E005" // Path not found
	ErrCodeWriteFailed   = "E007" // File write error
	ErrCodeConfiguration = "E020" // Loader or engine configuration rejected
	ErrCodeImport        = "E021" // An import could not be resolved or read
	ErrCodeCompile       = "E022" // The engine reported a stylesheet error
	ErrCodeInternal      = "E023" // Adapter failure or engine protocol breach
	ErrCodeStore         = "E030" // Dependency store error
)

// ExitError represents an error with a specific exit code.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// diagCode maps a diagnostic kind to its CLI error code and exit code.
// Only stylesheet problems exit with ExitFailure; a rejected configuration
// is a command error.
func diagCode(e *diag.Error) (string, int) {
	switch e.Kind {
	case diag.KindConfiguration:
		return ErrCodeConfiguration, ExitCommandError
	case diag.KindImportResolution:
		return ErrCodeImport, ExitFailure
	case diag.KindCompile:
		return ErrCodeCompile, ExitFailure
	default:
		return ErrCodeInternal, ExitFailure
	}
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Separate writer for verbose/diagnostic output (defaults to Writer)
	Verbose   bool
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status   string    `json:"status"`             // "ok" or "error"
	Data     any       `json:"data,omitempty"`     // success payload
	Error    *CLIError `json:"error,omitempty"`    // error details
	Warnings []string  `json:"warnings,omitempty"` // non-fatal diagnostics
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`              // "E001", "E020", etc.
	Message string `json:"message"`           // human-readable message
	Details any    `json:"details,omitempty"` // additional context
}

// ErrorLocation is the Details payload for diagnostics that carry a position.
type ErrorLocation struct {
	Kind      string `json:"kind"`
	File      string `json:"file,omitempty"`
	Line      *int   `json:"line,omitempty"`
	Column    *int   `json:"column,omitempty"`
	Specifier string `json:"specifier,omitempty"`
}

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data any) error {
	return f.SuccessWithWarnings(data, nil)
}

// SuccessWithWarnings outputs a successful result plus warnings. In text
// mode warnings go to the diagnostic writer so stdout stays clean CSS.
func (f *OutputFormatter) SuccessWithWarnings(data any, warnings []string) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status:   "ok",
			Data:     data,
			Warnings: warnings,
		})
	}

	for _, w := range warnings {
		fmt.Fprintf(f.GetErrWriter(), "Warning: %s\n", w)
	}
	fmt.Fprintln(f.Writer, data)
	return nil
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
		})
	}

	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// Diagnostic outputs a diagnostic error and returns the ExitError the
// command should return.
func (f *OutputFormatter) Diagnostic(e *diag.Error) error {
	code, exit := diagCode(e)
	loc := ErrorLocation{
		Kind:      string(e.Kind),
		File:      e.File,
		Line:      e.Line,
		Column:    e.Column,
		Specifier: e.Specifier,
	}

	if f.Format != "json" && e.File != "" {
		switch {
		case e.Line != nil && e.Column != nil:
			fmt.Fprintf(f.Writer, "%s:%d:%d\n", e.File, *e.Line, *e.Column)
		case e.Line != nil:
			fmt.Fprintf(f.Writer, "%s:%d\n", e.File, *e.Line)
		default:
			fmt.Fprintln(f.Writer, e.File)
		}
	}
	_ = f.Error(code, e.Message, loc)
	return WrapExitError(exit, fmt.Sprintf("%s: %s", code, e.Message), e)
}

// VerboseLog outputs a message only if verbose mode is enabled.
// When format is JSON, verbose logs go to ErrWriter to avoid corrupting JSON output.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
}

// GetErrWriter returns the appropriate writer for diagnostic output.
// Returns ErrWriter if set, otherwise Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}

// commandError outputs a command-level error and returns an ExitError
// with ExitCommandError.
func commandError(f *OutputFormatter, code, message string, err error) error {
	_ = f.Error(code, message, nil)
	return WrapExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message), err)
}
