package predicate

import "fmt"

// FilterError reports a filter key the compiled schema does not expose at
// that position: an unknown field, an operator the field's kind lacks, a
// relationship inside a subscription filter, or a value of the wrong shape.
type FilterError struct {
	Path    string
	Message string
}

// Error implements the error interface.
func (e *FilterError) Error() string {
	return fmt.Sprintf("filter %s: %s", e.Path, e.Message)
}

// LiteralError reports a client literal that cannot be coerced to the kind
// of the field it filters. It fails only the filter that carries it.
type LiteralError struct {
	Path     string
	Operator string
	Cause    error
}

// Error implements the error interface.
func (e *LiteralError) Error() string {
	return fmt.Sprintf("filter %s.%s: %v", e.Path, e.Operator, e.Cause)
}

// Unwrap returns the coercion error.
func (e *LiteralError) Unwrap() error { return e.Cause }

// EvalError reports a record value that cannot be read as its field's kind.
type EvalError struct {
	Path  string
	Cause error
}

// Error implements the error interface.
func (e *EvalError) Error() string {
	return fmt.Sprintf("evaluate %s: %v", e.Path, e.Cause)
}

// Unwrap returns the underlying error.
func (e *EvalError) Unwrap() error { return e.Cause }
