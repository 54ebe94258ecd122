package predicate

import (
	"github.com/roach88/schemaforge/internal/scalar"
)

// Expr is a node of a compiled filter. The set of implementations is closed.
type Expr interface {
	expr() // Sealed
}

// True matches every record. It is the compiled form of an empty filter.
type True struct{}

// And matches when every term matches. Evaluation stops at the first miss.
type And struct{ Terms []Expr }

// Or matches when any term matches. Evaluation stops at the first hit.
type Or struct{ Terms []Expr }

// Not inverts its term.
type Not struct{ Term Expr }

// Compare applies one operator to one scalar or list field of the current
// record.
type Compare struct {
	Path  string
	Field string
	Kind  scalar.Kind
	List  bool
	Op    scalar.Operator

	// IsNull is set for eq: null and matches a missing or null value.
	IsNull bool

	Operand  scalar.Literal
	Operands []scalar.Literal // in, and eq on list fields
}

// Quantifier selects how many related records must match.
type Quantifier string

const (
	All    Quantifier = "all"
	None   Quantifier = "none"
	Single Quantifier = "single"
	Some   Quantifier = "some"
)

// Quantifiers lists every quantifier in filter key order.
var Quantifiers = []Quantifier{All, None, Single, Some}

// Quantified tests Where against every record related through Field.
type Quantified struct {
	Path       string
	Field      string
	Quantifier Quantifier
	Where      Expr
}

// Side selects the related record or its relationship properties.
type Side int

const (
	NodeSide Side = iota
	EdgeSide
)

func (s Side) String() string {
	if s == EdgeSide {
		return "edge"
	}
	return "node"
}

// Scoped evaluates Where against one side of the related record currently
// in scope. It appears inside connection filters.
type Scoped struct {
	Side  Side
	Where Expr
}

// TypeSwitch narrows an interface or union record to its concrete type. A
// record matches when its type has a case and that case matches.
type TypeSwitch struct {
	Cases []Case
}

// Case is one branch of a TypeSwitch.
type Case struct {
	Type  string
	Where Expr
}

// Aggregate evaluates Where over the whole set of records related through
// Field. Only Count and AggregateCompare read that set.
type Aggregate struct {
	Path  string
	Field string
	Where Expr
}

// Count compares the number of related records.
type Count struct {
	Path     string
	Op       scalar.Operator
	Operand  scalar.Literal
	Operands []scalar.Literal
}

// AggregateCompare compares an aggregate of one field across the related
// records, or their edges, with a literal of the aggregate's result kind.
// An aggregate of an empty set is null and never matches.
type AggregateCompare struct {
	Path     string
	Side     Side
	Field    string
	Kind     scalar.Kind
	Fn       scalar.AggregateFunc
	Op       scalar.Operator
	Operand  scalar.Literal
	Operands []scalar.Literal
}

func (True) expr()             {}
func (And) expr()              {}
func (Or) expr()               {}
func (Not) expr()              {}
func (Compare) expr()          {}
func (Quantified) expr()       {}
func (Scoped) expr()           {}
func (TypeSwitch) expr()       {}
func (Aggregate) expr()        {}
func (Count) expr()            {}
func (AggregateCompare) expr() {}

// and folds terms into the smallest equivalent expression.
func and(terms []Expr) Expr {
	switch len(terms) {
	case 0:
		return True{}
	case 1:
		return terms[0]
	default:
		return And{Terms: terms}
	}
}
