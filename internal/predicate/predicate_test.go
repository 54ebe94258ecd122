package predicate

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/schemaforge/internal/event"
	"github.com/roach88/schemaforge/internal/extract"
	"github.com/roach88/schemaforge/internal/model"
	"github.com/roach88/schemaforge/internal/value"
	"github.com/roach88/schemaforge/internal/visibility"
)

const librarySDL = `
type Movie @node @subscription {
  id: ID!
  title: String!
  releasedIn: Int
  budget: BigInt
  rating: Float
  tags: [String!]
  secret: String @selectable(onRead: false)
  actors: [Actor!]! @relationship(type: "ACTED_IN", direction: IN, properties: "ActedIn")
  credits: [Named!]! @relationship(type: "CREDITED", direction: IN)
  related: [SearchResult!]! @relationship(type: "RELATED", direction: OUT)
}

type Actor @node {
  name: String!
  movies: [Movie!]! @relationship(type: "ACTED_IN", direction: OUT, properties: "ActedIn")
}

type Person implements Named @node {
  name: String!
  born: Date
}

type ActedIn @relationshipProperties {
  role: String
  screenTime: Int
}

interface Named {
  name: String!
}

union SearchResult = Movie | Actor
`

func library(t *testing.T) *model.Model {
	t.Helper()
	m, err := extract.FromSDL(librarySDL, "library.graphql")
	require.NoError(t, err)
	return m
}

func object(t *testing.T, src string) value.Object {
	t.Helper()
	v, err := value.DecodeJSON([]byte(src))
	require.NoError(t, err)
	obj, ok := v.(value.Object)
	require.True(t, ok, "not an object: %s", src)
	return obj
}

func compile(t *testing.T, m *model.Model, where string) Expr {
	t.Helper()
	expr, err := Compile(m, "Movie", object(t, where), visibility.Where)
	require.NoError(t, err, where)
	return expr
}

func matches(t *testing.T, expr Expr, record value.Object) bool {
	t.Helper()
	ok, err := Evaluate(expr, record)
	require.NoError(t, err)
	return ok
}

const matrix = `{
  "__typename": "Movie",
  "title": "The Matrix",
  "releasedIn": 1999,
  "budget": 9223372036854775807,
  "rating": 8.7,
  "tags": ["sci-fi", "action"],
  "actors": [
    {"name": "Keanu", "__edge": {"role": "Neo", "screenTime": 120}},
    {"name": "Carrie"}
  ],
  "credits": [
    {"__typename": "Person", "name": "Lana", "born": "1965-06-21"}
  ],
  "related": [
    {"__typename": "Movie", "title": "Speed"},
    {"__typename": "Actor", "name": "Keanu"}
  ]
}`

func TestScalarOperators(t *testing.T) {
	m := library(t)
	record := object(t, matrix)

	cases := []struct {
		where string
		want  bool
	}{
		{`{"releasedIn": {"eq": 1999}}`, true},
		{`{"releasedIn": {"eq": 2000}}`, false},
		{`{"releasedIn": {"lt": 1999}}`, false},
		{`{"releasedIn": {"lte": 1999}}`, true},
		{`{"releasedIn": {"gt": 1998}}`, true},
		{`{"releasedIn": {"gte": 2000}}`, false},
		{`{"releasedIn": {"in": [1998, 1999]}}`, true},
		{`{"releasedIn": {"in": []}}`, false},
		{`{"releasedIn": {"gt": 1990, "lt": 2000}}`, true},
		{`{"rating": {"gte": 8.7}}`, true},
		{`{"title": {"contains": "Mat"}}`, true},
		{`{"title": {"startsWith": "Matrix"}}`, false},
		{`{"title": {"endsWith": "trix"}}`, true},
		{`{"tags": {"includes": "action"}}`, true},
		{`{"tags": {"eq": ["sci-fi", "action"]}}`, true},
		{`{"tags": {"eq": ["action", "sci-fi"]}}`, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, matches(t, compile(t, m, tc.where), record), tc.where)
	}
}

func TestBigIntKeepsPrecision(t *testing.T) {
	m := library(t)
	record := object(t, matrix)

	assert.True(t, matches(t, compile(t, m, `{"budget": {"eq": "9223372036854775807"}}`), record))
	assert.True(t, matches(t, compile(t, m, `{"budget": {"gt": "9223372036854775708"}}`), record))
	assert.False(t, matches(t, compile(t, m, `{"budget": {"lt": "9223372036854775608"}}`), record))
	assert.False(t, matches(t, compile(t, m, `{"budget": {"eq": 9223372036854775806}}`), record))
}

func TestAliasesMatchGenericForm(t *testing.T) {
	m := library(t)
	records := []value.Object{
		object(t, `{"title": "A", "releasedIn": 1998}`),
		object(t, `{"title": "B", "releasedIn": 1999}`),
		object(t, `{"title": "C", "releasedIn": 2000}`),
		object(t, `{"title": "D"}`),
	}
	pairs := [][2]string{
		{`{"releasedIn_GT": 1998}`, `{"releasedIn": {"gt": 1998}}`},
		{`{"releasedIn_IN": [1998, 2000]}`, `{"releasedIn": {"in": [1998, 2000]}}`},
		{`{"title_STARTS_WITH": "B"}`, `{"title": {"startsWith": "B"}}`},
		{`{"actors_SOME": {"name": {"eq": "x"}}}`, `{"actors": {"some": {"name": {"eq": "x"}}}}`},
		{`{"actorsConnection_NONE": {"node": {"name": {"eq": "x"}}}}`, `{"actorsConnection": {"none": {"node": {"name": {"eq": "x"}}}}}`},
	}
	for _, p := range pairs {
		alias, generic := compile(t, m, p[0]), compile(t, m, p[1])
		for _, r := range records {
			assert.Equal(t, matches(t, generic, r), matches(t, alias, r), "%s on %v", p[0], r)
		}
	}
}

func TestNullHandling(t *testing.T) {
	m := library(t)
	withYear := object(t, `{"title": "A", "releasedIn": 1999}`)
	withoutYear := object(t, `{"title": "B", "releasedIn": null}`)

	isNull := compile(t, m, `{"releasedIn": {"eq": null}}`)
	assert.False(t, matches(t, isNull, withYear))
	assert.True(t, matches(t, isNull, withoutYear))

	notNull := compile(t, m, `{"NOT": {"releasedIn": {"eq": null}}}`)
	assert.True(t, matches(t, notNull, withYear))

	// a comparison against a missing value never matches
	assert.False(t, matches(t, compile(t, m, `{"releasedIn": {"lt": 3000}}`), withoutYear))

	assert.Equal(t, True{}, compile(t, m, `{"title": null}`))
	assert.Equal(t, True{}, compile(t, m, `{"releasedIn": {"gt": null}}`))
	assert.Equal(t, True{}, compile(t, m, `{}`))
}

func TestLogicalCombinators(t *testing.T) {
	m := library(t)
	record := object(t, matrix)

	assert.Equal(t, True{}, compile(t, m, `{"OR": []}`))
	assert.Equal(t, True{}, compile(t, m, `{"AND": []}`))

	assert.True(t, matches(t, compile(t, m, `{"OR": [{"releasedIn": {"eq": 1}}, {"title": {"eq": "The Matrix"}}]}`), record))
	assert.False(t, matches(t, compile(t, m, `{"AND": [{"releasedIn": {"eq": 1}}, {"title": {"eq": "The Matrix"}}]}`), record))
	assert.True(t, matches(t, compile(t, m, `{"AND": {"releasedIn": {"eq": 1999}}}`), record))
	assert.False(t, matches(t, compile(t, m, `{"NOT": {"title": {"eq": "The Matrix"}}}`), record))
}

func TestQuantifiers(t *testing.T) {
	m := library(t)
	record := object(t, matrix)
	empty := object(t, `{"title": "Empty", "actors": []}`)

	cases := []struct {
		where       string
		want, empty bool
	}{
		{`{"actors": {"some": {"name": {"eq": "Keanu"}}}}`, true, false},
		{`{"actors": {"all": {"name": {"eq": "Keanu"}}}}`, false, true},
		{`{"actors": {"none": {"name": {"eq": "Keanu"}}}}`, false, true},
		{`{"actors": {"single": {"name": {"eq": "Keanu"}}}}`, true, false},
		{`{"actors": {"single": {"name": {"contains": "a"}}}}`, false, false},
		{`{"actors": {"all": {"name": {"contains": "e"}}}}`, true, true},
	}
	for _, tc := range cases {
		expr := compile(t, m, tc.where)
		assert.Equal(t, tc.want, matches(t, expr, record), tc.where)
		assert.Equal(t, tc.empty, matches(t, expr, empty), "empty: %s", tc.where)
	}
}

func TestConnectionFilters(t *testing.T) {
	m := library(t)
	record := object(t, matrix)

	assert.True(t, matches(t, compile(t, m,
		`{"actorsConnection": {"some": {"node": {"name": {"startsWith": "K"}}, "edge": {"role": {"eq": "Neo"}}}}}`), record))
	assert.False(t, matches(t, compile(t, m,
		`{"actorsConnection": {"some": {"node": {"name": {"eq": "Carrie"}}, "edge": {"role": {"eq": "Neo"}}}}}`), record))
	assert.True(t, matches(t, compile(t, m,
		`{"actorsConnection": {"single": {"edge": {"screenTime": {"gt": 60}}}}}`), record))
	assert.True(t, matches(t, compile(t, m,
		`{"actorsConnection": {"some": {"OR": [{"edge": {"role": {"eq": "Trinity"}}}, {"node": {"name": {"eq": "Carrie"}}}]}}}`), record))
}

func TestAbstractTargets(t *testing.T) {
	m := library(t)
	record := object(t, matrix)

	assert.True(t, matches(t, compile(t, m, `{"related": {"some": {"Actor": {"name": {"eq": "Keanu"}}}}}`), record))
	assert.False(t, matches(t, compile(t, m, `{"related": {"some": {"Movie": {"title": {"eq": "Heat"}}}}}`), record))
	// records of a type without a case never match
	assert.False(t, matches(t, compile(t, m, `{"related": {"all": {"Actor": {"name": {"eq": "Keanu"}}}}}`), record))

	assert.True(t, matches(t, compile(t, m, `{"credits": {"some": {"name": {"eq": "Lana"}}}}`), record))
	assert.True(t, matches(t, compile(t, m, `{"credits": {"some": {"Person": {"born": {"lt": "1970-01-01"}}}}}`), record))
	assert.False(t, matches(t, compile(t, m, `{"credits": {"some": {"Person": {"born": {"gt": "1970-01-01"}}}}}`), record))
}

func TestAggregateFilters(t *testing.T) {
	m := library(t)
	record := object(t, matrix)
	empty := object(t, `{"title": "Empty", "actors": []}`)

	cases := []struct {
		where       string
		want, empty bool
	}{
		{`{"actorsAggregate": {"count": {"eq": 2}}}`, true, false},
		{`{"actorsAggregate": {"count": {"eq": 0}}}`, false, true},
		{`{"actorsAggregate": {"count_GTE": 2}}`, true, false},
		{`{"actorsAggregate": {"node": {"name": {"longestLength": {"eq": 6}}}}}`, true, false},
		{`{"actorsAggregate": {"node": {"name": {"shortestLength": {"lt": 5}}}}}`, false, false},
		{`{"actorsAggregate": {"node": {"name_AVERAGE_LENGTH_EQUAL": 5.5}}}`, true, false},
		{`{"actorsAggregate": {"edge": {"screenTime": {"sum": {"eq": 120}}}}}`, true, false},
		{`{"actorsAggregate": {"edge": {"screenTime_MAX_GT": 0}}}`, true, false},
		{`{"actorsAggregate": {"NOT": {"count": {"gt": 5}}}}`, true, true},
	}
	for _, tc := range cases {
		expr := compile(t, m, tc.where)
		assert.Equal(t, tc.want, matches(t, expr, record), tc.where)
		assert.Equal(t, tc.empty, matches(t, expr, empty), "empty: %s", tc.where)
	}
}

func TestCompileErrors(t *testing.T) {
	m := library(t)

	var ferr *FilterError
	for _, where := range []string{
		`{"nope": {"eq": 1}}`,
		`{"title": {"lt": "x"}}`,
		`{"tags": {"gt": "x"}}`,
		`{"title_LT": "x"}`,
		`{"actors": {"most": {}}}`,
		`{"actorsConnection": {"some": {"vertex": {}}}}`,
		`{"relatedAggregate": {"count": {"eq": 1}}}`,
		`{"title": "The Matrix"}`,
	} {
		_, err := Compile(m, "Movie", object(t, where), visibility.Where)
		assert.True(t, errors.As(err, &ferr), "%s: %v", where, err)
	}

	var lerr *LiteralError
	for _, where := range []string{
		`{"releasedIn": {"eq": "1999"}}`,
		`{"releasedIn": {"gt": 1.5}}`,
		`{"budget": {"eq": "ten"}}`,
		`{"actorsAggregate": {"count": {"eq": "2"}}}`,
	} {
		_, err := Compile(m, "Movie", object(t, where), visibility.Where)
		assert.True(t, errors.As(err, &lerr), "%s: %v", where, err)
	}

	_, err := Compile(m, "Nobody", value.Object{}, visibility.Where)
	assert.True(t, errors.As(err, &ferr))

	_, err = Compile(m, "Movie", value.Object{}, visibility.Output)
	assert.Error(t, err)
}

func TestSubscriptionScope(t *testing.T) {
	m := library(t)

	expr, err := Compile(m, "Movie", object(t, `{"title": {"eq": "The Matrix"}, "releasedIn_GTE": 1999}`), visibility.SubscriptionWhere)
	require.NoError(t, err)
	assert.True(t, matches(t, expr, object(t, matrix)))

	// Hidden from reads but still filterable outside subscriptions.
	hidden, err := Compile(m, "Movie", object(t, `{"secret": {"eq": "x"}}`), visibility.Where)
	require.NoError(t, err)
	assert.True(t, matches(t, hidden, object(t, `{"title": "A", "secret": "x"}`)))
	assert.False(t, matches(t, hidden, object(t, `{"title": "A", "secret": "y"}`)))

	var ferr *FilterError
	for _, where := range []string{
		`{"actors": {"some": {}}}`,
		`{"actorsConnection": {"some": {}}}`,
		`{"actorsAggregate": {"count": {"eq": 1}}}`,
		`{"secret": {"eq": "x"}}`,
	} {
		_, err := Compile(m, "Movie", object(t, where), visibility.SubscriptionWhere)
		assert.True(t, errors.As(err, &ferr), where)
	}
}

func TestEvaluationErrors(t *testing.T) {
	m := library(t)

	var eerr *EvalError
	_, err := Evaluate(compile(t, m, `{"releasedIn": {"eq": 1999}}`), object(t, `{"releasedIn": true}`))
	assert.True(t, errors.As(err, &eerr))

	_, err = Evaluate(compile(t, m, `{"tags": {"includes": "x"}}`), object(t, `{"tags": "x"}`))
	assert.True(t, errors.As(err, &eerr))

	_, err = Evaluate(compile(t, m, `{"actors": {"some": {}}}`), object(t, `{"actors": [1]}`))
	assert.True(t, errors.As(err, &eerr))
}

func TestMatchEvent(t *testing.T) {
	m := library(t)
	expr := compile(t, m, `{"title": {"eq": "The Matrix"}}`)

	updated := &event.ChangeEvent{
		Entity:    "Movie",
		Op:        event.Updated,
		Before:    object(t, `{"title": "Matrix"}`),
		After:     object(t, `{"title": "The Matrix"}`),
		Timestamp: time.Unix(0, 0),
	}
	ok, err := MatchEvent(expr, updated)
	require.NoError(t, err)
	assert.True(t, ok)

	deleted := &event.ChangeEvent{
		Entity: "Movie",
		Op:     event.Deleted,
		Before: object(t, `{"title": "Matrix"}`),
	}
	ok, err = MatchEvent(expr, deleted)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = MatchEvent(expr, &event.ChangeEvent{Entity: "Movie", Op: event.Updated})
	assert.Error(t, err)
}
