package extract

import (
	"errors"
	"fmt"

	"cuelang.org/go/cue/token"
)

// Declaration error codes (E100-E199)
const (
	ErrMissingMarker          = "E101" // object type is neither @node nor @relationshipProperties
	ErrUnknownType            = "E102" // field references an undeclared type
	ErrUnknownProperties      = "E103" // relationship properties type not declared
	ErrUnknownInterface       = "E104" // entity implements an undeclared interface
	ErrUnknownUnionMember     = "E105" // union member is not an entity
	ErrInterfaceMismatch      = "E106" // implementation field missing or typed differently
	ErrUndeclaredRelationship = "E107" // declared interface relationship not implemented
	ErrConflictingMarkers     = "E108" // @node together with @relationshipProperties
	ErrNotSettable            = "E109" // non-null field not settable on create
	ErrUnionAggregate         = "E110" // aggregate: true on a union target
	ErrSortableNotScalar      = "E111" // explicit sortable on a list or relationship
	ErrDuplicateDeclaration   = "E112" // two declarations with the same name
	ErrInvalidRelationship    = "E113" // malformed or missing @relationship
	ErrInvalidTypeRef         = "E114" // unparseable type reference
	ErrInvalidDirective       = "E115" // directive argument has the wrong shape
	ErrSourceSyntax           = "E116" // SDL or CUE source failed to parse
	ErrReservedFieldName      = "E117" // field name collides with a generated field
)

// Position locates a declaration in its source file.
type Position struct {
	File   string `json:"file,omitempty"`
	Line   int    `json:"line,omitempty"`
	Column int    `json:"column,omitempty"`
}

// IsValid reports whether the position carries a line.
func (p Position) IsValid() bool { return p.Line > 0 }

func (p Position) String() string {
	if p.File != "" {
		return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
	}
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

func positionFromCUE(pos token.Pos) Position {
	if !pos.IsValid() {
		return Position{}
	}
	return Position{File: pos.Filename(), Line: pos.Line(), Column: pos.Column()}
}

// DeclarationError reports an invalid or unresolvable declaration.
type DeclarationError struct {
	Code    string   `json:"code"`
	Path    string   `json:"path"`
	Message string   `json:"message"`
	Pos     Position `json:"pos"`
}

// Error implements the error interface.
func (e *DeclarationError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s: [%s] %s: %s", e.Pos, e.Code, e.Path, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Path, e.Message)
}

// Errors flattens a joined error into its declaration errors, in order.
func Errors(err error) []*DeclarationError {
	if err == nil {
		return nil
	}
	var out []*DeclarationError
	var walk func(error)
	walk = func(e error) {
		if joined, ok := e.(interface{ Unwrap() []error }); ok {
			for _, inner := range joined.Unwrap() {
				walk(inner)
			}
			return
		}
		var de *DeclarationError
		if errors.As(e, &de) {
			out = append(out, de)
		}
	}
	walk(err)
	return out
}

// HasCode reports whether err contains a declaration error with code.
func HasCode(err error, code string) bool {
	for _, de := range Errors(err) {
		if de.Code == code {
			return true
		}
	}
	return false
}
