package scalar

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/roach88/schemaforge/internal/value"
)

// Temporal layouts per kind. Fractional seconds are accepted on input even
// though the layouts do not spell them out.
const (
	layoutDateTime      = time.RFC3339Nano
	layoutDate          = "2006-01-02"
	layoutLocalDateTime = "2006-01-02T15:04:05"
	layoutTime          = "15:04:05Z07:00"
	layoutLocalTime     = "15:04:05"
)

// Literal is a value coerced to a specific kind. Exactly one of the payload
// fields is meaningful, selected by Kind.
type Literal struct {
	Kind Kind

	i int64
	f float64
	b *big.Int
	s string
	t time.Time
	v bool
}

// CoercionError reports a value that cannot be read as a kind.
type CoercionError struct {
	Kind  Kind
	Input string
	Cause error
}

// Error implements the error interface.
func (e *CoercionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("cannot coerce %s to %s: %v", e.Input, e.Kind, e.Cause)
	}
	return fmt.Sprintf("cannot coerce %s to %s", e.Input, e.Kind)
}

// Unwrap returns the underlying parse error, if any.
func (e *CoercionError) Unwrap() error {
	return e.Cause
}

func coercionErr(k Kind, v value.Value, cause error) error {
	input := "null"
	if !value.IsNull(v) {
		if data, err := value.Marshal(v); err == nil {
			input = string(data)
		} else {
			input = fmt.Sprintf("%T", v)
		}
	}
	return &CoercionError{Kind: k, Input: input, Cause: cause}
}

// Coerce reads v as a literal of kind k.
//
// BigInt accepts a JSON number or a decimal string and is parsed with
// math/big directly from the text, so values beyond 2^53 keep every digit.
// ID accepts strings and integers. Temporal kinds accept their ISO-8601
// string forms.
func Coerce(k Kind, v value.Value) (Literal, error) {
	if value.IsNull(v) {
		return Literal{}, coercionErr(k, v, nil)
	}

	switch k {
	case Int:
		n, ok := v.(value.Number)
		if !ok {
			return Literal{}, coercionErr(k, v, nil)
		}
		i, err := strconv.ParseInt(string(n), 10, 64)
		if err != nil {
			return Literal{}, coercionErr(k, v, err)
		}
		return Literal{Kind: k, i: i}, nil

	case Float:
		n, ok := v.(value.Number)
		if !ok {
			return Literal{}, coercionErr(k, v, nil)
		}
		f, err := strconv.ParseFloat(string(n), 64)
		if err != nil {
			return Literal{}, coercionErr(k, v, err)
		}
		return Literal{Kind: k, f: f}, nil

	case BigInt:
		var text string
		switch val := v.(type) {
		case value.Number:
			text = string(val)
		case value.String:
			text = strings.TrimSpace(string(val))
		default:
			return Literal{}, coercionErr(k, v, nil)
		}
		b, ok := new(big.Int).SetString(text, 10)
		if !ok {
			return Literal{}, coercionErr(k, v, fmt.Errorf("invalid integer text %q", text))
		}
		return Literal{Kind: k, b: b}, nil

	case String:
		s, ok := v.(value.String)
		if !ok {
			return Literal{}, coercionErr(k, v, nil)
		}
		return Literal{Kind: k, s: string(s)}, nil

	case ID:
		switch val := v.(type) {
		case value.String:
			return Literal{Kind: k, s: string(val)}, nil
		case value.Number:
			if _, ok := new(big.Int).SetString(string(val), 10); !ok {
				return Literal{}, coercionErr(k, v, nil)
			}
			return Literal{Kind: k, s: string(val)}, nil
		default:
			return Literal{}, coercionErr(k, v, nil)
		}

	case Boolean:
		b, ok := v.(value.Bool)
		if !ok {
			return Literal{}, coercionErr(k, v, nil)
		}
		return Literal{Kind: k, v: bool(b)}, nil

	case DateTime, Date, LocalDateTime, Time, LocalTime:
		s, ok := v.(value.String)
		if !ok {
			return Literal{}, coercionErr(k, v, nil)
		}
		t, err := time.Parse(temporalLayout(k), string(s))
		if err != nil {
			return Literal{}, coercionErr(k, v, err)
		}
		return Literal{Kind: k, t: t}, nil

	default:
		panic(fmt.Sprintf("scalar: unhandled kind %v", k))
	}
}

func temporalLayout(k Kind) string {
	switch k {
	case DateTime:
		return layoutDateTime
	case Date:
		return layoutDate
	case LocalDateTime:
		return layoutLocalDateTime
	case Time:
		return layoutTime
	case LocalTime:
		return layoutLocalTime
	default:
		panic(fmt.Sprintf("scalar: %v is not temporal", k))
	}
}

// Compare orders two literals of the same ordered kind.
// It returns -1, 0 or +1.
func Compare(a, b Literal) (int, error) {
	if a.Kind != b.Kind {
		return 0, fmt.Errorf("compare %s with %s", a.Kind, b.Kind)
	}
	switch a.Kind {
	case Int:
		return cmpOrdered(a.i, b.i), nil
	case Float:
		return cmpOrdered(a.f, b.f), nil
	case BigInt:
		return a.b.Cmp(b.b), nil
	case DateTime, Date, LocalDateTime, Time, LocalTime:
		return a.t.Compare(b.t), nil
	case String, ID, Boolean:
		return 0, fmt.Errorf("%s has no ordering", a.Kind)
	default:
		panic(fmt.Sprintf("scalar: unhandled kind %v", a.Kind))
	}
}

func cmpOrdered[T int64 | float64](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Equal reports whether two literals of the same kind are equal.
func Equal(a, b Literal) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case Int:
		return a.i == b.i
	case Float:
		return a.f == b.f
	case BigInt:
		return a.b.Cmp(b.b) == 0
	case String, ID:
		return a.s == b.s
	case Boolean:
		return a.v == b.v
	case DateTime, Date, LocalDateTime, Time, LocalTime:
		return a.t.Equal(b.t)
	default:
		panic(fmt.Sprintf("scalar: unhandled kind %v", a.Kind))
	}
}

// Text returns the string payload of a String or ID literal.
func (l Literal) Text() string {
	return l.s
}

// Value converts the literal back into its canonical wire value.
func (l Literal) Value() value.Value {
	switch l.Kind {
	case Invalid:
		return value.Null{}
	case Int:
		return value.Number(strconv.FormatInt(l.i, 10))
	case Float:
		return value.Number(strconv.FormatFloat(l.f, 'g', -1, 64))
	case BigInt:
		return value.String(l.b.String())
	case String, ID:
		return value.String(l.s)
	case Boolean:
		return value.Bool(l.v)
	case DateTime, Date, LocalDateTime, Time, LocalTime:
		return value.String(l.t.Format(temporalOutputLayout(l.Kind)))
	default:
		panic(fmt.Sprintf("scalar: unhandled kind %v", l.Kind))
	}
}

func temporalOutputLayout(k Kind) string {
	switch k {
	case LocalDateTime:
		return "2006-01-02T15:04:05.999999999"
	case Time:
		return "15:04:05.999999999Z07:00"
	case LocalTime:
		return "15:04:05.999999999"
	default:
		return temporalLayout(k)
	}
}

// String renders the literal for error messages and logs.
func (l Literal) String() string {
	data, err := value.Marshal(l.Value())
	if err != nil {
		return l.Kind.String()
	}
	return string(data)
}

// IntLiteral builds an Int literal.
func IntLiteral(i int64) Literal {
	return Literal{Kind: Int, i: i}
}

// FloatLiteral builds a Float literal.
func FloatLiteral(f float64) Literal {
	return Literal{Kind: Float, f: f}
}

// BigIntLiteral builds a BigInt literal. The argument is copied.
func BigIntLiteral(b *big.Int) Literal {
	return Literal{Kind: BigInt, b: new(big.Int).Set(b)}
}

// MustCoerce is Coerce for tests and static tables.
func MustCoerce(k Kind, v value.Value) Literal {
	l, err := Coerce(k, v)
	if err != nil {
		panic(err)
	}
	return l
}
