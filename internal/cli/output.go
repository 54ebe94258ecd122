package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// Process exit codes.
const (
	ExitSuccess      = 0
	ExitFailure      = 1 // a document, event or scenario did not pass
	ExitCommandError = 2 // the command could not run at all
)

// ExitError ends a command with a specific process exit code.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }

func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode maps the error a command returned to its exit code. A
// LoadError that escapes without an ExitError still means the declarations
// never compiled, so it is a command error.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return ExitCommandError
	}
	return ExitFailure
}

// Response statuses.
const (
	statusOK    = "ok"
	statusError = "error"
)

// CLIResponse is the envelope every --format json result is written in.
type CLIResponse struct {
	Status string    `json:"status"`
	Data   any       `json:"data,omitempty"`
	Error  *CLIError `json:"error,omitempty"`
}

// CLIError is a coded error. Loader codes are E0xx; declaration, build and
// filter errors keep their own E1xx, E2xx and E3xx codes.
type CLIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// OutputFormatter writes results to Writer, either as text or wrapped in a
// CLIResponse, and verbose diagnostics to ErrWriter.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer
	Verbose   bool
}

// newFormatter wires a formatter to the command's streams.
func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}

func (f *OutputFormatter) json() bool { return f.Format == "json" }

func (f *OutputFormatter) Success(data any) error {
	if f.json() {
		return f.write(CLIResponse{Status: statusOK, Data: data}, false)
	}
	_, err := fmt.Fprintln(f.Writer, data)
	return err
}

// Error reports a single coded error. Details only show in text output
// when verbose.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.json() {
		return f.write(CLIResponse{
			Status: statusError,
			Error:  &CLIError{Code: code, Message: message, Details: details},
		}, false)
	}
	if _, err := fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message); err != nil {
		return err
	}
	if f.Verbose && details != nil {
		_, err := fmt.Fprintf(f.Writer, "Details: %v\n", details)
		return err
	}
	return nil
}

// Encode writes resp as indented JSON regardless of Format. It is used for
// results that carry data next to an error.
func (f *OutputFormatter) Encode(resp CLIResponse) error {
	return f.write(resp, true)
}

func (f *OutputFormatter) write(resp CLIResponse, indent bool) error {
	enc := json.NewEncoder(f.Writer)
	if indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(resp)
}

// VerboseLog writes one diagnostic line when verbose output is on.
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
