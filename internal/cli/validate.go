package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/schemaforge/internal/schema"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	ExcludeDeprecated bool
}

// DocumentResult is the validation outcome of one GraphQL document.
type DocumentResult struct {
	File   string   `json:"file"`
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid     bool             `json:"valid"`
	Documents []DocumentResult `json:"documents"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <declarations> [document...]",
		Short: "Validate declarations and GraphQL documents",
		Long: `Build the schema from the declarations and validate GraphQL documents
(queries, mutations or subscriptions) against it.

With no documents only the declarations are checked. A document that uses
an operator its field does not expose, or a field hidden from reads, is
reported as invalid.

Exit codes:
  0 - Every document is valid
  1 - One or more documents are invalid
  2 - Command error (bad declarations, unreadable files)`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args[0], args[1:], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.ExcludeDeprecated, "exclude-deprecated", false, "validate against the schema without deprecated aliases")

	return cmd
}

func runValidate(opts *ValidateOptions, path string, documents []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	s, errs := LoadSchema(path, schemaOptions(opts.RootOptions, opts.ExcludeDeprecated))
	if len(errs) > 0 {
		return outputLoadErrors(formatter, errs)
	}
	formatter.VerboseLog("Schema built from %s (%d types)", path, len(s.TypeNames()))

	result := ValidationResult{Valid: true, Documents: make([]DocumentResult, 0, len(documents))}
	for _, file := range documents {
		data, err := os.ReadFile(file)
		if err != nil {
			return outputValidateError(formatter, ErrCodeReadFailed, fmt.Sprintf("reading document: %v", err), nil)
		}
		doc := validateDocument(s, file, string(data))
		if !doc.Valid {
			result.Valid = false
		}
		result.Documents = append(result.Documents, doc)
	}

	return outputValidateResult(formatter, result)
}

func validateDocument(s *schema.Schema, file, doc string) DocumentResult {
	_, err := s.Validate(doc)
	if err == nil {
		return DocumentResult{File: file, Valid: true}
	}
	result := DocumentResult{File: file}
	var verr *schema.ValidationError
	if errors.As(err, &verr) {
		for _, fe := range verr.Errors {
			msg := fe.Message
			if len(fe.Locations) > 0 {
				msg = fmt.Sprintf("%d:%d: %s", fe.Locations[0].Line, fe.Locations[0].Column, fe.Message)
			}
			result.Errors = append(result.Errors, msg)
		}
	} else {
		result.Errors = []string{err.Error()}
	}
	return result
}

func outputValidateResult(formatter *OutputFormatter, result ValidationResult) error {
	if formatter.Format == "json" {
		if result.Valid {
			return formatter.Success(result)
		}
		if err := formatter.Encode(CLIResponse{
			Status: "error",
			Data:   result,
			Error:  &CLIError{Code: ErrCodeInvalidDocument, Message: "one or more documents are invalid"},
		}); err != nil {
			return err
		}
		return NewExitError(ExitFailure, "validation failed")
	}

	if len(result.Documents) == 0 {
		fmt.Fprintln(formatter.Writer, "✓ Declarations are valid")
		return nil
	}

	for _, doc := range result.Documents {
		if doc.Valid {
			fmt.Fprintf(formatter.Writer, "✓ %s\n", doc.File)
			continue
		}
		fmt.Fprintf(formatter.Writer, "✗ %s\n", doc.File)
		for _, msg := range doc.Errors {
			fmt.Fprintf(formatter.Writer, "  %s: %s\n", ErrCodeInvalidDocument, msg)
		}
	}

	if !result.Valid {
		return NewExitError(ExitFailure, "validation failed")
	}
	return nil
}

func outputValidateError(formatter *OutputFormatter, code, message string, details any) error {
	_ = formatter.Error(code, message, details)
	return WrapExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message), nil)
}
