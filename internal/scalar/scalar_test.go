package scalar

import (
	"errors"
	"math"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/schemaforge/internal/value"
)

func TestEveryKindIsCovered(t *testing.T) {
	for _, k := range All {
		t.Run(k.String(), func(t *testing.T) {
			assert.NotPanics(t, func() {
				_ = k.BuiltIn()
				_ = k.Ordered()
				_ = k.Textual()
				_ = Operators(k)
				_ = ListOperators(k)
				_ = WhereAggregates(k)
				_ = SelectionAggregates(k)
				_ = ScalarMutations(k)
				_ = ListMutations(k)
			})

			parsed, ok := Parse(k.String())
			require.True(t, ok)
			assert.Equal(t, k, parsed)
		})
	}
}

func TestInvalidKindPanics(t *testing.T) {
	assert.Panics(t, func() { Operators(Invalid) })
	assert.Panics(t, func() { Kind(99).Numeric() })
	assert.Equal(t, "Kind(99)", Kind(99).String())

	_, ok := Parse("Movie")
	assert.False(t, ok)
}

func TestRelationalOperatorsOnlyOnOrderedKinds(t *testing.T) {
	relational := []Operator{OpLt, OpLte, OpGt, OpGte}
	for _, k := range All {
		for _, op := range relational {
			assert.Equal(t, k.Ordered(), Supports(k, op), "%s %s", k, op)
			assert.False(t, SupportsList(k, op), "list %s %s", k, op)
		}
	}

	for _, k := range []Kind{Int, Float, BigInt} {
		assert.True(t, k.Ordered(), k.String())
	}
	for _, k := range []Kind{String, ID, Boolean} {
		assert.False(t, k.Ordered(), k.String())
	}
}

func TestSubstringOperatorsOnlyOnText(t *testing.T) {
	for _, k := range All {
		for _, op := range []Operator{OpContains, OpStartsWith, OpEndsWith} {
			assert.Equal(t, k == String || k == ID, Supports(k, op), "%s %s", k, op)
		}
	}
}

func TestBooleanExposesOnlyEq(t *testing.T) {
	assert.Equal(t, []Operator{OpEq}, Operators(Boolean))
	for _, k := range All {
		if k == Boolean {
			continue
		}
		assert.True(t, Supports(k, OpEq), k.String())
		assert.True(t, Supports(k, OpIn), k.String())
	}
}

func TestOperatorAliases(t *testing.T) {
	op, ok := ParseOperatorAlias("STARTS_WITH")
	require.True(t, ok)
	assert.Equal(t, OpStartsWith, op)
	assert.Equal(t, "STARTS_WITH", op.Alias())

	_, ok = ParseOperatorAlias("MATCHES")
	assert.False(t, ok)

	op, ok = ParseOperator("lte")
	require.True(t, ok)
	assert.True(t, op.Relational())
}

func TestCoerceBigIntKeepsPrecision(t *testing.T) {
	small := MustCoerce(BigInt, value.String("9223372036854775608"))
	mid := MustCoerce(BigInt, value.Number("9223372036854775708"))
	large := MustCoerce(BigInt, value.String("9223372036854775807"))

	c, err := Compare(small, mid)
	require.NoError(t, err)
	assert.Equal(t, -1, c)

	c, err = Compare(large, mid)
	require.NoError(t, err)
	assert.Equal(t, 1, c)

	assert.Equal(t, value.String("9223372036854775708"), mid.Value())

	beyond := MustCoerce(BigInt, value.String("92233720368547758070"))
	c, err = Compare(beyond, large)
	require.NoError(t, err)
	assert.Equal(t, 1, c)
}

func TestCoerceFailures(t *testing.T) {
	tests := []struct {
		kind Kind
		in   value.Value
	}{
		{BigInt, value.String("12x")},
		{BigInt, value.Bool(true)},
		{Int, value.Number("1.5")},
		{Int, value.String("1")},
		{Float, value.String("1.5")},
		{String, value.Number("1")},
		{ID, value.Bool(false)},
		{Boolean, value.String("true")},
		{DateTime, value.String("2020-01-01")},
		{Date, value.String("01/02/2020")},
		{LocalTime, value.Number("12")},
		{Int, value.Null{}},
	}
	for _, tt := range tests {
		_, err := Coerce(tt.kind, tt.in)
		var ce *CoercionError
		require.True(t, errors.As(err, &ce), "%s %v", tt.kind, tt.in)
		assert.Equal(t, tt.kind, ce.Kind)
	}
}

func TestCoerceTemporal(t *testing.T) {
	early := MustCoerce(DateTime, value.String("2020-01-01T10:00:00Z"))
	late := MustCoerce(DateTime, value.String("2020-01-01T11:30:00.5+01:00"))
	c, err := Compare(early, late)
	require.NoError(t, err)
	assert.Equal(t, -1, c)

	d1 := MustCoerce(Date, value.String("1999-12-31"))
	d2 := MustCoerce(Date, value.String("2000-01-01"))
	ok, err := Test(OpLt, d1, d2)
	require.NoError(t, err)
	assert.True(t, ok)

	lt := MustCoerce(LocalTime, value.String("09:15:00.250"))
	assert.Equal(t, value.String("09:15:00.25"), lt.Value())

	ldt := MustCoerce(LocalDateTime, value.String("2021-05-06T07:08:09"))
	assert.Equal(t, value.String("2021-05-06T07:08:09"), ldt.Value())

	tm := MustCoerce(Time, value.String("12:00:00Z"))
	assert.Equal(t, Time, tm.Kind)
}

func TestCoerceID(t *testing.T) {
	fromNumber := MustCoerce(ID, value.Number("42"))
	fromString := MustCoerce(ID, value.String("42"))
	assert.True(t, Equal(fromNumber, fromString))
	assert.Equal(t, "42", fromNumber.Text())
}

func TestCompareUnorderedKind(t *testing.T) {
	_, err := Compare(MustCoerce(String, value.String("a")), MustCoerce(String, value.String("b")))
	assert.Error(t, err)

	_, err = Compare(IntLiteral(1), FloatLiteral(1))
	assert.Error(t, err)
}

func TestOperatorMatrix(t *testing.T) {
	year := func(n int64) Literal { return IntLiteral(n) }

	tests := []struct {
		op     Operator
		actual int64
		bound  int64
		want   bool
	}{
		{OpLt, 1999, 2000, true},
		{OpLt, 2000, 2000, false},
		{OpLte, 2000, 2000, true},
		{OpGt, 2020, 2000, true},
		{OpGt, 2000, 2000, false},
		{OpGte, 2000, 2000, true},
		{OpGte, 1920, 2000, false},
		{OpEq, 7, 7, true},
	}
	for _, tt := range tests {
		got, err := Test(tt.op, year(tt.actual), year(tt.bound))
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "%d %s %d", tt.actual, tt.op, tt.bound)
	}
}

func TestStringOperators(t *testing.T) {
	title := MustCoerce(String, value.String("The Matrix"))

	ok, err := Test(OpContains, title, MustCoerce(String, value.String("Mat")))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = Test(OpStartsWith, title, MustCoerce(String, value.String("The")))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = Test(OpEndsWith, title, MustCoerce(String, value.String("Reloaded")))
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = Test(OpLt, title, title)
	assert.Error(t, err, "relational operators are not defined on String")
}

func TestInAndIncludes(t *testing.T) {
	set := []Literal{IntLiteral(1), IntLiteral(2)}
	assert.True(t, TestIn(IntLiteral(2), set))
	assert.False(t, TestIn(IntLiteral(3), set))
	assert.True(t, TestIncludes(set, IntLiteral(1)))
	assert.True(t, TestListEq(set, []Literal{IntLiteral(1), IntLiteral(2)}))
	assert.False(t, TestListEq(set, []Literal{IntLiteral(2), IntLiteral(1)}))
}

func TestAggregates(t *testing.T) {
	ints := []Literal{IntLiteral(1), IntLiteral(4), IntLiteral(2)}

	got, ok, err := Aggregate(AggAverage, Int, ints)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, Float, got.Kind)
	assert.True(t, Equal(FloatLiteral(7.0/3.0), got))

	got, _, err = Aggregate(AggMax, Int, ints)
	require.NoError(t, err)
	assert.True(t, Equal(IntLiteral(4), got))

	got, _, err = Aggregate(AggSum, Int, ints)
	require.NoError(t, err)
	assert.True(t, Equal(IntLiteral(7), got))

	_, ok, err = Aggregate(AggMin, Int, nil)
	require.NoError(t, err)
	assert.False(t, ok, "empty set aggregates are null")

	bigs := []Literal{
		MustCoerce(BigInt, value.String("9223372036854775807")),
		MustCoerce(BigInt, value.String("9223372036854775807")),
	}
	got, _, err = Aggregate(AggSum, BigInt, bigs)
	require.NoError(t, err)
	want, _ := new(big.Int).SetString("18446744073709551614", 10)
	assert.True(t, Equal(BigIntLiteral(want), got))

	got, _, err = Aggregate(AggAverage, BigInt, bigs)
	require.NoError(t, err)
	assert.Equal(t, value.String("9223372036854775807"), got.Value())
}

func TestIntSumOverflow(t *testing.T) {
	_, _, err := Aggregate(AggSum, Int, []Literal{IntLiteral(math.MaxInt64), IntLiteral(1)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "overflows")

	_, _, err = Aggregate(AggSum, Int, []Literal{IntLiteral(math.MinInt64), IntLiteral(-1)})
	require.Error(t, err)

	got, _, err := Aggregate(AggSum, Int, []Literal{IntLiteral(math.MaxInt64), IntLiteral(-1), IntLiteral(1)})
	require.NoError(t, err)
	assert.True(t, Equal(IntLiteral(math.MaxInt64), got))
}

func TestTextAggregates(t *testing.T) {
	names := []Literal{
		MustCoerce(String, value.String("Keanu")),
		MustCoerce(String, value.String("Carrie-Anne")),
		MustCoerce(String, value.String("Al")),
	}

	got, _, err := Aggregate(AggLongestLength, String, names)
	require.NoError(t, err)
	assert.True(t, Equal(IntLiteral(11), got))

	got, _, err = Aggregate(AggShortest, String, names)
	require.NoError(t, err)
	assert.Equal(t, "Al", got.Text())

	got, _, err = Aggregate(AggAverageLength, String, names)
	require.NoError(t, err)
	assert.True(t, Equal(FloatLiteral(6), got))

	_, _, err = Aggregate(AggSum, String, names)
	assert.Error(t, err)
}

func TestResultKind(t *testing.T) {
	assert.Equal(t, Float, ResultKind(Int, AggAverage))
	assert.Equal(t, BigInt, ResultKind(BigInt, AggAverage))
	assert.Equal(t, Int, ResultKind(String, AggLongestLength))
	assert.Equal(t, Float, ResultKind(ID, AggAverageLength))
	assert.Equal(t, DateTime, ResultKind(DateTime, AggMax))

	for _, k := range All {
		for _, fn := range WhereAggregates(k) {
			assert.True(t, ResultKind(k, fn).Ordered(), "%s %s", k, fn)
		}
	}
	assert.False(t, Aggregatable(Boolean))
}

func TestMutations(t *testing.T) {
	names := func(ops []MutationOp) []string {
		out := make([]string, len(ops))
		for i, op := range ops {
			out[i] = op.Name
		}
		return out
	}
	assert.Equal(t, []string{"set", "add", "subtract"}, names(ScalarMutations(Int)))
	assert.Equal(t, []string{"set", "add", "subtract", "multiply", "divide"}, names(ScalarMutations(Float)))
	assert.Equal(t, []string{"set"}, names(ScalarMutations(String)))
	assert.Equal(t, "INCREMENT", ScalarMutations(BigInt)[1].Alias)

	list := ListMutations(String)
	assert.Equal(t, []string{"set", "push", "pop"}, names(list))
	assert.Equal(t, Int, list[2].Operand)
	assert.False(t, list[2].List)
}
