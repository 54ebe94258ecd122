package scalar

import (
	"fmt"
	"math/big"
	"unicode/utf8"
)

// AggregateFunc names an aggregate over the values of one field across a set
// of related nodes or edges.
type AggregateFunc string

const (
	AggAverage        AggregateFunc = "average"
	AggMax            AggregateFunc = "max"
	AggMin            AggregateFunc = "min"
	AggSum            AggregateFunc = "sum"
	AggAverageLength  AggregateFunc = "averageLength"
	AggLongestLength  AggregateFunc = "longestLength"
	AggShortestLength AggregateFunc = "shortestLength"

	// Selection-only aggregates over text.
	AggLongest  AggregateFunc = "longest"
	AggShortest AggregateFunc = "shortest"
)

var aggregateAliases = map[AggregateFunc]string{
	AggAverage:        "AVERAGE",
	AggMax:            "MAX",
	AggMin:            "MIN",
	AggSum:            "SUM",
	AggAverageLength:  "AVERAGE_LENGTH",
	AggLongestLength:  "LONGEST_LENGTH",
	AggShortestLength: "SHORTEST_LENGTH",
}

// Alias returns the upper-snake form used by deprecated aggregation aliases.
func (a AggregateFunc) Alias() string {
	return aggregateAliases[a]
}

// AggregateComparisons are the operators the deprecated flattened
// aggregation aliases accept, keyed by their alias suffix.
var AggregateComparisons = []struct {
	Alias string
	Op    Operator
}{
	{"EQUAL", OpEq},
	{"GT", OpGt},
	{"GTE", OpGte},
	{"LT", OpLt},
	{"LTE", OpLte},
}

// WhereAggregates returns the aggregates an aggregation filter exposes for a
// field of kind k, in emission order. Boolean has none.
func WhereAggregates(k Kind) []AggregateFunc {
	switch k {
	case Int, Float, BigInt:
		return []AggregateFunc{AggAverage, AggMax, AggMin, AggSum}
	case DateTime, Date, LocalDateTime, Time, LocalTime:
		return []AggregateFunc{AggMax, AggMin}
	case String, ID:
		return []AggregateFunc{AggAverageLength, AggLongestLength, AggShortestLength}
	case Boolean:
		return nil
	default:
		panic(fmt.Sprintf("scalar: unhandled kind %v", k))
	}
}

// SelectionAggregates returns the aggregates an aggregate selection exposes
// for a field of kind k. Boolean is never aggregated.
func SelectionAggregates(k Kind) []AggregateFunc {
	switch k {
	case Int, Float, BigInt:
		return []AggregateFunc{AggMax, AggMin, AggAverage, AggSum}
	case DateTime, Date, LocalDateTime, Time, LocalTime:
		return []AggregateFunc{AggMax, AggMin}
	case String, ID:
		return []AggregateFunc{AggLongest, AggShortest}
	case Boolean:
		return nil
	default:
		panic(fmt.Sprintf("scalar: unhandled kind %v", k))
	}
}

// Aggregatable reports whether a field of kind k can appear in aggregate
// selections and aggregation filters.
func Aggregatable(k Kind) bool {
	return len(SelectionAggregates(k)) > 0
}

// ResultKind is the kind an aggregate of a field of kind k produces.
func ResultKind(k Kind, fn AggregateFunc) Kind {
	switch fn {
	case AggAverage:
		if k == Int {
			return Float
		}
		return k
	case AggMax, AggMin, AggSum, AggLongest, AggShortest:
		return k
	case AggAverageLength:
		return Float
	case AggLongestLength, AggShortestLength:
		return Int
	default:
		panic(fmt.Sprintf("scalar: unhandled aggregate %q", fn))
	}
}

// ParseAggregateAlias resolves an alias such as "AVERAGE_LENGTH".
func ParseAggregateAlias(s string) (AggregateFunc, bool) {
	for fn, alias := range aggregateAliases {
		if alias == s {
			return fn, true
		}
	}
	return "", false
}

// Aggregate computes fn over values of kind k. ok is false when values is
// empty; aggregates of an empty set are null.
func Aggregate(fn AggregateFunc, k Kind, values []Literal) (result Literal, ok bool, err error) {
	if len(values) == 0 {
		return Literal{}, false, nil
	}
	for _, v := range values {
		if v.Kind != k {
			return Literal{}, false, fmt.Errorf("aggregate %s over %s: got %s value", fn, k, v.Kind)
		}
	}

	switch fn {
	case AggMax, AggMin:
		best := values[0]
		for _, v := range values[1:] {
			c, err := Compare(v, best)
			if err != nil {
				return Literal{}, false, err
			}
			if (fn == AggMax && c > 0) || (fn == AggMin && c < 0) {
				best = v
			}
		}
		return best, true, nil

	case AggSum:
		return sum(k, values)

	case AggAverage:
		return average(k, values)

	case AggAverageLength:
		if !k.Textual() {
			return Literal{}, false, fmt.Errorf("%s is not defined on %s", fn, k)
		}
		total := 0
		for _, v := range values {
			total += utf8.RuneCountInString(v.s)
		}
		return FloatLiteral(float64(total) / float64(len(values))), true, nil

	case AggLongestLength, AggShortestLength, AggLongest, AggShortest:
		if !k.Textual() {
			return Literal{}, false, fmt.Errorf("%s is not defined on %s", fn, k)
		}
		longest := fn == AggLongestLength || fn == AggLongest
		best := values[0]
		bestLen := utf8.RuneCountInString(best.s)
		for _, v := range values[1:] {
			n := utf8.RuneCountInString(v.s)
			if (longest && n > bestLen) || (!longest && n < bestLen) {
				best, bestLen = v, n
			}
		}
		if fn == AggLongest || fn == AggShortest {
			return best, true, nil
		}
		return IntLiteral(int64(bestLen)), true, nil

	default:
		panic(fmt.Sprintf("scalar: unhandled aggregate %q", fn))
	}
}

func sum(k Kind, values []Literal) (Literal, bool, error) {
	switch k {
	case Int:
		var total int64
		for _, v := range values {
			next := total + v.i
			if (v.i > 0 && next < total) || (v.i < 0 && next > total) {
				return Literal{}, false, fmt.Errorf("sum of %s overflows a 64-bit integer", k)
			}
			total = next
		}
		return IntLiteral(total), true, nil
	case Float:
		var total float64
		for _, v := range values {
			total += v.f
		}
		return FloatLiteral(total), true, nil
	case BigInt:
		total := new(big.Int)
		for _, v := range values {
			total.Add(total, v.b)
		}
		return Literal{Kind: BigInt, b: total}, true, nil
	default:
		return Literal{}, false, fmt.Errorf("sum is not defined on %s", k)
	}
}

func average(k Kind, values []Literal) (Literal, bool, error) {
	n := len(values)
	switch k {
	case Int:
		var total float64
		for _, v := range values {
			total += float64(v.i)
		}
		return FloatLiteral(total / float64(n)), true, nil
	case Float:
		var total float64
		for _, v := range values {
			total += v.f
		}
		return FloatLiteral(total / float64(n)), true, nil
	case BigInt:
		total := new(big.Int)
		for _, v := range values {
			total.Add(total, v.b)
		}
		return Literal{Kind: BigInt, b: total.Quo(total, big.NewInt(int64(n)))}, true, nil
	default:
		return Literal{}, false, fmt.Errorf("average is not defined on %s", k)
	}
}
