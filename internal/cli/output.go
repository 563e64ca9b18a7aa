package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Exit codes for bbuddy commands.
const (
	ExitSuccess      = 0
	ExitFailure      = 1 // a scan, scenario or Grocy check failed
	ExitCommandError = 2 // bad arguments or the database could not be used
)

// Error codes reported in CLIError.Code for failures that are not scan
// outcomes. Scan failures report the outcome's own error code.
const (
	ErrCodeStore        = "E_STORE"
	ErrCodeInvalidInput = "E_INVALID_INPUT"
	ErrCodeNotFound     = "E_NOT_FOUND"
	ErrCodeRemote       = "E_REMOTE"
	ErrCodeTestFailed   = "E_TEST_FAILED"
)

// Response statuses.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// ExitError carries the process exit code out of a command. main reads it
// with GetExitCode after the failure has already been printed.
type ExitError struct {
	Code    int
	Message string
	Err     error
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

// NewExitError returns an ExitError with no cause.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError returns an ExitError wrapping err.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode maps err to a process exit code. Errors that are not an
// ExitError, such as cobra's own argument errors, exit with ExitFailure.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// OutputFormatter prints command results as text or as a JSON
// CLIResponse. A scan batch is one response whose data holds every outcome.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // verbose diagnostics; nil means Writer
	Verbose   bool
}

// CLIResponse is one JSON result line.
type CLIResponse struct {
	Status string    `json:"status"`
	Data   any       `json:"data,omitempty"`
	Error  *CLIError `json:"error,omitempty"`
}

// CLIError describes a failed command or scan. Code is one of the ErrCode
// constants above or a scan outcome code such as REMOTE_UNAVAILABLE.
type CLIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// IsJSON reports whether output is JSON.
func (f *OutputFormatter) IsJSON() bool {
	return f.Format == "json"
}

// Success prints data. Text mode prints it with its default formatting, so
// commands pass a preformatted string when they want a specific layout.
func (f *OutputFormatter) Success(data any) error {
	if f.IsJSON() {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{Status: StatusOK, Data: data})
	}
	_, err := fmt.Fprintln(f.Writer, data)
	return err
}

// Error prints a failure. Details are shown in text mode only with
// --verbose; JSON always includes them.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.IsJSON() {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: StatusError,
			Error:  &CLIError{Code: code, Message: message, Details: details},
		})
	}

	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// VerboseLog prints a diagnostic line under --verbose, for example the
// cause of a failed scan in a batch. It goes to ErrWriter so the JSON
// stream on Writer stays parseable.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	w := f.ErrWriter
	if w == nil {
		w = f.Writer
	}
	fmt.Fprintf(w, format+"\n", args...)
}
