package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/schemaforge/internal/extract"
	"github.com/roach88/schemaforge/internal/schema"
)

// Error code constants - unified across all CLI commands. Declaration
// (E1xx) and schema build (E2xx) errors keep the codes of the package that
// raised them.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeLoadFailed  = "E004" // Declarations could not be read
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeBuildFailed = "E006" // Schema build failed
	ErrCodeWriteFailed = "E007" // File write error
	ErrCodeReadFailed  = "E008" // Input file could not be read

	ErrCodeInvalidDocument     = "E301" // Document failed GraphQL validation
	ErrCodeInvalidLiteral      = "E302" // Filter literal could not be coerced
	ErrCodeInvalidFilter       = "E303" // Filter key or shape not understood
	ErrCodeUnsupportedRequest  = "E304" // Not a single-field subscription
	ErrCodeInvalidChangeStream = "E305" // Change events could not be decoded
)

// LoadError is one problem found while loading declarations or building the
// schema from them.
type LoadError struct {
	Code    string           `json:"code"`
	Message string           `json:"message"`
	Pos     extract.Position `json:"pos,omitzero"`
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s: %s: %s", e.Pos, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadSchema reads the declarations at path (a .graphql, .gql or .cue file,
// or a directory of CUE files) and builds the schema. Every declaration
// and build error is returned, not only the first.
func LoadSchema(path string, opts schema.Options) (*schema.Schema, []error) {
	if _, err := os.Stat(path); err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("declarations not found: %s", path)}}
	}

	m, err := extract.Load(path)
	if err != nil {
		return nil, convertLoadErrors(err)
	}
	opts.Logger.Debug().
		Int("entities", len(m.Entities)).
		Int("interfaces", len(m.Interfaces)).
		Int("unions", len(m.Unions)).
		Msg("declarations loaded")

	s, err := schema.Build(m, opts)
	if err != nil {
		return nil, convertBuildErrors(err)
	}
	return s, nil
}

func convertLoadErrors(err error) []error {
	decls := extract.Errors(err)
	if len(decls) == 0 {
		return []error{&LoadError{Code: ErrCodeLoadFailed, Message: err.Error()}}
	}
	out := make([]error, len(decls))
	for i, de := range decls {
		out[i] = &LoadError{Code: de.Code, Message: fmt.Sprintf("%s: %s", de.Path, de.Message), Pos: de.Pos}
	}
	return out
}

func convertBuildErrors(err error) []error {
	builds := schema.BuildErrors(err)
	if len(builds) == 0 {
		return []error{&LoadError{Code: ErrCodeBuildFailed, Message: err.Error()}}
	}
	out := make([]error, len(builds))
	for i, be := range builds {
		out[i] = &LoadError{Code: be.Code, Message: fmt.Sprintf("%s: %s", be.Type, be.Message)}
	}
	return out
}

// parseLoadError extracts error code and message from an error.
func parseLoadError(err error) (string, string) {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return loadErr.Code, loadErr.Message
	}
	return ErrCodeGeneric, err.Error()
}

// outputLoadErrors reports every load error and returns a command-level
// ExitError.
func outputLoadErrors(formatter *OutputFormatter, errs []error) error {
	if formatter.Format == "json" {
		cliErrors := make([]CLIError, len(errs))
		for i, err := range errs {
			code, message := parseLoadError(err)
			cliErrors[i] = CLIError{Code: code, Message: message}
			var loadErr *LoadError
			if errors.As(err, &loadErr) && loadErr.Pos.IsValid() {
				cliErrors[i].Details = loadErr.Pos
			}
		}

		response := CLIResponse{
			Status: "error",
			Error:  &cliErrors[0],
			Data:   cliErrors, // Include all errors in data
		}

		if err := formatter.Encode(response); err != nil {
			return err
		}
		return NewExitError(ExitCommandError, fmt.Sprintf("schema build failed with %d error(s)", len(errs)))
	}

	fmt.Fprintln(formatter.Writer, "✗ Schema build failed")
	fmt.Fprintln(formatter.Writer)

	for _, err := range errs {
		code, message := parseLoadError(err)
		var loadErr *LoadError
		if errors.As(err, &loadErr) && loadErr.Pos.IsValid() {
			fmt.Fprintln(formatter.Writer, loadErr.Pos)
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", code, message)
	}

	return NewExitError(ExitCommandError, fmt.Sprintf("schema build failed with %d error(s)", len(errs)))
}

// schemaOptions combines the configuration with a command-line override.
func schemaOptions(opts *RootOptions, excludeDeprecated bool) schema.Options {
	cfg := opts.settings()
	return schema.Options{
		ExcludeDeprecated: excludeDeprecated || cfg.Schema.ExcludeDeprecated,
		Logger:            opts.Logger,
	}
}
