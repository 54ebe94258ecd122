package schema

import (
	"errors"
	"fmt"
)

// Build error codes (E200-E299)
const (
	ErrDuplicateType    = "E201" // two artifacts generate the same type name
	ErrDanglingType     = "E202" // a field references a type that was never generated
	ErrIllegalOperator  = "E203" // a filter exposes an operator its kind does not define
	ErrExecutableSchema = "E204" // graphql-go rejected the generated schema
	ErrDuplicateField   = "E205" // two fields of one type share a name
)

// BuildError is a fatal schema construction error.
type BuildError struct {
	Code    string `json:"code"`
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *BuildError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Type, e.Message)
}

// BuildErrors flattens a joined build error.
func BuildErrors(err error) []*BuildError {
	if err == nil {
		return nil
	}
	var out []*BuildError
	var walk func(error)
	walk = func(e error) {
		if joined, ok := e.(interface{ Unwrap() []error }); ok {
			for _, inner := range joined.Unwrap() {
				walk(inner)
			}
			return
		}
		var be *BuildError
		if errors.As(e, &be) {
			out = append(out, be)
		}
	}
	walk(err)
	return out
}

// HasCode reports whether err contains a build error with code.
func HasCode(err error, code string) bool {
	for _, be := range BuildErrors(err) {
		if be.Code == code {
			return true
		}
	}
	return false
}
