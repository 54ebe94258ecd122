package predicate

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/schemaforge/internal/model"
	"github.com/roach88/schemaforge/internal/scalar"
	"github.com/roach88/schemaforge/internal/value"
	"github.com/roach88/schemaforge/internal/visibility"
)

// Compile turns the where argument of a root field on entity into an
// expression.
//
// artifact is visibility.Where for query filters and
// visibility.SubscriptionWhere for subscription filters; the latter admits
// only read-selectable scalar fields. Both the generic nested form and the
// flattened aliases are accepted and compile to the same tree. Keys whose
// value is null are ignored, except eq: null, which tests for a missing
// value.
func Compile(m *model.Model, entity string, where value.Object, artifact visibility.Artifact) (Expr, error) {
	e := m.Entity(entity)
	if e == nil {
		return nil, &FilterError{Path: entity, Message: "unknown entity"}
	}
	if artifact != visibility.Where && artifact != visibility.SubscriptionWhere {
		return nil, fmt.Errorf("predicate: %v is not a filter artifact", artifact)
	}
	c := &compiler{m: m}
	return c.where("", entityScope(e, artifact), where)
}

type compiler struct {
	m *model.Model
}

// scope describes the keys one where object accepts.
type scope struct {
	fields        []*model.Field
	artifact      visibility.Artifact
	relationships bool
	combinators   bool
	concrete      []*model.Entity // interface implementations or union members
}

func entityScope(e *model.Entity, artifact visibility.Artifact) scope {
	return scope{
		fields:        e.Fields,
		artifact:      artifact,
		relationships: artifact == visibility.Where,
		combinators:   true,
	}
}

func (c *compiler) targetScope(rel *model.Relationship) scope {
	switch rel.TargetCategory {
	case model.TargetEntity:
		return entityScope(c.m.Entity(rel.Target), visibility.Where)
	case model.TargetInterface:
		return scope{
			fields:      c.m.Interface(rel.Target).Fields,
			artifact:    visibility.Where,
			combinators: true,
			concrete:    c.m.ConcreteTargets(rel),
		}
	case model.TargetUnion:
		return scope{concrete: c.m.ConcreteTargets(rel)}
	default:
		panic(fmt.Sprintf("predicate: unhandled target category %v", rel.TargetCategory))
	}
}

func (s scope) concreteType(name string) *model.Entity {
	for _, e := range s.concrete {
		if e.Name == name {
			return e
		}
	}
	return nil
}

func join(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

func asObject(path string, v value.Value) (value.Object, error) {
	obj, ok := v.(value.Object)
	if !ok {
		return nil, &FilterError{Path: path, Message: fmt.Sprintf("expected an object, got %T", v)}
	}
	return obj, nil
}

// asObjects accepts a list of objects or a single object, following
// GraphQL input coercion for list types.
func asObjects(path string, v value.Value) ([]value.Object, error) {
	list, ok := v.(value.List)
	if !ok {
		obj, err := asObject(path, v)
		if err != nil {
			return nil, err
		}
		return []value.Object{obj}, nil
	}
	out := make([]value.Object, 0, len(list))
	for i, elem := range list {
		obj, err := asObject(fmt.Sprintf("%s[%d]", path, i), elem)
		if err != nil {
			return nil, err
		}
		out = append(out, obj)
	}
	return out, nil
}

// combinator compiles AND, OR and NOT with sub compiling each operand.
// Empty AND and OR lists impose no constraint.
func combinator(path, key string, v value.Value, sub func(string, value.Object) (Expr, error)) (Expr, error) {
	if key == "NOT" {
		obj, err := asObject(path, v)
		if err != nil {
			return nil, err
		}
		inner, err := sub(path, obj)
		if err != nil {
			return nil, err
		}
		return Not{Term: inner}, nil
	}

	objs, err := asObjects(path, v)
	if err != nil {
		return nil, err
	}
	terms := make([]Expr, 0, len(objs))
	for i, obj := range objs {
		inner, err := sub(fmt.Sprintf("%s[%d]", path, i), obj)
		if err != nil {
			return nil, err
		}
		terms = append(terms, inner)
	}
	if key == "AND" || len(terms) == 0 {
		return and(terms), nil
	}
	return Or{Terms: terms}, nil
}

func isCombinator(key string) bool {
	return key == "AND" || key == "OR" || key == "NOT"
}

// where compiles one where object in scope s.
func (c *compiler) where(path string, s scope, obj value.Object) (Expr, error) {
	var (
		terms []Expr
		cases []Case
	)
	for _, key := range obj.SortedKeys() {
		v := obj[key]
		if value.IsNull(v) {
			continue
		}
		p := join(path, key)

		if s.combinators && isCombinator(key) {
			e, err := combinator(p, key, v, func(p string, o value.Object) (Expr, error) {
				return c.where(p, s, o)
			})
			if err != nil {
				return nil, err
			}
			terms = append(terms, e)
			continue
		}

		if impl := s.concreteType(key); impl != nil {
			inner, err := asObject(p, v)
			if err != nil {
				return nil, err
			}
			e, err := c.where(p, entityScope(impl, visibility.Where), inner)
			if err != nil {
				return nil, err
			}
			cases = append(cases, Case{Type: impl.Name, Where: e})
			continue
		}

		e, err := c.fieldKey(p, s, key, v)
		if err != nil {
			return nil, err
		}
		if e != nil {
			terms = append(terms, e)
		}
	}
	if len(cases) > 0 {
		terms = append(terms, TypeSwitch{Cases: cases})
	}
	return and(terms), nil
}

// byNameLength orders fields longest name first so alias keys resolve to
// the most specific field.
func byNameLength(fields []*model.Field) []*model.Field {
	out := slices.Clone(fields)
	slices.SortStableFunc(out, func(a, b *model.Field) int {
		return cmp.Compare(len(b.Name), len(a.Name))
	})
	return out
}

func findField(fields []*model.Field, name string) *model.Field {
	for _, f := range fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

func unknownKey(path string) error {
	return &FilterError{Path: path, Message: "unknown filter key"}
}

// fieldKey compiles a key that names a field, a relationship connection or
// aggregate, or a flattened alias.
func (c *compiler) fieldKey(path string, s scope, key string, v value.Value) (Expr, error) {
	if f := findField(s.fields, key); f != nil {
		if f.IsScalar() {
			if !visibility.Include(f, s.artifact) {
				return nil, unknownKey(path)
			}
			return c.scalarFilter(path, f, v)
		}
		if err := relationshipAllowed(path, s, f); err != nil {
			return nil, err
		}
		return c.relationshipFilter(path, f, v)
	}

	for _, f := range byNameLength(s.fields) {
		if f.IsScalar() {
			suffix, ok := strings.CutPrefix(key, f.Name+"_")
			if !ok {
				continue
			}
			op, ok := scalar.ParseOperatorAlias(suffix)
			if !ok || !visibility.Include(f, s.artifact) || !supports(f, op) {
				continue
			}
			return c.operator(path, f, op, v)
		}

		switch {
		case key == f.Name+"Connection":
			if err := relationshipAllowed(path, s, f); err != nil {
				return nil, err
			}
			return c.connectionFilter(path, f, v)

		case key == f.Name+"Aggregate":
			if err := relationshipAllowed(path, s, f); err != nil {
				return nil, err
			}
			if !visibility.RelationshipAggregateFilterEnabled(f) {
				return nil, unknownKey(path)
			}
			return c.aggregate(path, f, v)

		case strings.HasPrefix(key, f.Name+"Connection_"):
			q, ok := parseQuantifierAlias(strings.TrimPrefix(key, f.Name+"Connection_"))
			if !ok {
				continue
			}
			if err := relationshipAllowed(path, s, f); err != nil {
				return nil, err
			}
			obj, err := asObject(path, v)
			if err != nil {
				return nil, err
			}
			inner, err := c.connectionWhere(path, f, obj)
			if err != nil {
				return nil, err
			}
			return Quantified{Path: path, Field: f.Name, Quantifier: q, Where: inner}, nil

		case strings.HasPrefix(key, f.Name+"_"):
			q, ok := parseQuantifierAlias(strings.TrimPrefix(key, f.Name+"_"))
			if !ok {
				continue
			}
			if err := relationshipAllowed(path, s, f); err != nil {
				return nil, err
			}
			obj, err := asObject(path, v)
			if err != nil {
				return nil, err
			}
			inner, err := c.where(path, c.targetScope(f.Relation), obj)
			if err != nil {
				return nil, err
			}
			return Quantified{Path: path, Field: f.Name, Quantifier: q, Where: inner}, nil
		}
	}
	return nil, unknownKey(path)
}

func relationshipAllowed(path string, s scope, f *model.Field) error {
	if !s.relationships {
		return &FilterError{Path: path, Message: "relationship filters are not available here"}
	}
	if !visibility.Include(f, visibility.Where) {
		return unknownKey(path)
	}
	return nil
}

func parseQuantifierAlias(s string) (Quantifier, bool) {
	for _, q := range Quantifiers {
		if strings.ToUpper(string(q)) == s {
			return q, true
		}
	}
	return "", false
}

func parseQuantifier(s string) (Quantifier, bool) {
	for _, q := range Quantifiers {
		if string(q) == s {
			return q, true
		}
	}
	return "", false
}

func supports(f *model.Field, op scalar.Operator) bool {
	if f.IsList() {
		return scalar.SupportsList(f.Kind, op)
	}
	return scalar.Supports(f.Kind, op)
}

// scalarFilter compiles a <Kind>ScalarFilters or <Kind>ListFilters object.
func (c *compiler) scalarFilter(path string, f *model.Field, v value.Value) (Expr, error) {
	obj, err := asObject(path, v)
	if err != nil {
		return nil, err
	}
	var terms []Expr
	for _, key := range obj.SortedKeys() {
		op, ok := scalar.ParseOperator(key)
		if !ok || !supports(f, op) {
			return nil, &FilterError{Path: join(path, key), Message: fmt.Sprintf("operator %s is not defined for %s", key, f.Type)}
		}
		e, err := c.operator(path, f, op, obj[key])
		if err != nil {
			return nil, err
		}
		if e != nil {
			terms = append(terms, e)
		}
	}
	return and(terms), nil
}

// operator compiles one operator application. It returns nil for a null
// operand on any operator but eq.
func (c *compiler) operator(path string, f *model.Field, op scalar.Operator, operand value.Value) (Expr, error) {
	e := Compare{Path: path, Field: f.Name, Kind: f.Kind, List: f.IsList(), Op: op}
	if value.IsNull(operand) {
		if op != scalar.OpEq {
			return nil, nil
		}
		e.IsNull = true
		return e, nil
	}

	var err error
	if (e.List && op == scalar.OpEq) || (!e.List && op == scalar.OpIn) {
		e.Operands, err = literals(path, op, f.Kind, operand)
	} else {
		e.Operand, err = literal(path, op, f.Kind, operand)
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

func literal(path string, op scalar.Operator, k scalar.Kind, v value.Value) (scalar.Literal, error) {
	lit, err := scalar.Coerce(k, v)
	if err != nil {
		return scalar.Literal{}, &LiteralError{Path: path, Operator: string(op), Cause: err}
	}
	return lit, nil
}

func literals(path string, op scalar.Operator, k scalar.Kind, v value.Value) ([]scalar.Literal, error) {
	list, ok := v.(value.List)
	if !ok {
		list = value.List{v}
	}
	out := make([]scalar.Literal, len(list))
	for i, elem := range list {
		lit, err := literal(path, op, k, elem)
		if err != nil {
			return nil, err
		}
		out[i] = lit
	}
	return out, nil
}

// relationshipFilter compiles <T>RelationshipFilters.
func (c *compiler) relationshipFilter(path string, f *model.Field, v value.Value) (Expr, error) {
	return c.quantified(path, f, v, func(p string, obj value.Object) (Expr, error) {
		return c.where(p, c.targetScope(f.Relation), obj)
	})
}

// connectionFilter compiles <P>ConnectionFilters.
func (c *compiler) connectionFilter(path string, f *model.Field, v value.Value) (Expr, error) {
	return c.quantified(path, f, v, func(p string, obj value.Object) (Expr, error) {
		return c.connectionWhere(p, f, obj)
	})
}

func (c *compiler) quantified(path string, f *model.Field, v value.Value, sub func(string, value.Object) (Expr, error)) (Expr, error) {
	obj, err := asObject(path, v)
	if err != nil {
		return nil, err
	}
	var terms []Expr
	for _, key := range obj.SortedKeys() {
		p := join(path, key)
		q, ok := parseQuantifier(key)
		if !ok {
			return nil, unknownKey(p)
		}
		if value.IsNull(obj[key]) {
			continue
		}
		inner, err := asObject(p, obj[key])
		if err != nil {
			return nil, err
		}
		e, err := sub(p, inner)
		if err != nil {
			return nil, err
		}
		terms = append(terms, Quantified{Path: path, Field: f.Name, Quantifier: q, Where: e})
	}
	return and(terms), nil
}

// connectionWhere compiles <P>ConnectionWhere { AND OR NOT node edge }.
func (c *compiler) connectionWhere(path string, f *model.Field, obj value.Object) (Expr, error) {
	var terms []Expr
	for _, key := range obj.SortedKeys() {
		v := obj[key]
		if value.IsNull(v) {
			continue
		}
		p := join(path, key)
		var (
			e   Expr
			err error
		)
		switch key {
		case "AND", "OR", "NOT":
			e, err = combinator(p, key, v, func(p string, o value.Object) (Expr, error) {
				return c.connectionWhere(p, f, o)
			})
		case "node":
			e, err = c.side(p, NodeSide, c.targetScope(f.Relation), v)
		case "edge":
			props := c.m.Properties(f.Relation.Properties)
			if props == nil {
				return nil, unknownKey(p)
			}
			e, err = c.side(p, EdgeSide, scope{fields: props.Fields, artifact: visibility.Where, combinators: true}, v)
		default:
			return nil, unknownKey(p)
		}
		if err != nil {
			return nil, err
		}
		terms = append(terms, e)
	}
	return and(terms), nil
}

func (c *compiler) side(path string, side Side, s scope, v value.Value) (Expr, error) {
	obj, err := asObject(path, v)
	if err != nil {
		return nil, err
	}
	inner, err := c.where(path, s, obj)
	if err != nil {
		return nil, err
	}
	return Scoped{Side: side, Where: inner}, nil
}

// aggregate compiles <P>AggregateInput.
func (c *compiler) aggregate(path string, f *model.Field, v value.Value) (Expr, error) {
	obj, err := asObject(path, v)
	if err != nil {
		return nil, err
	}
	inner, err := c.aggregateInput(path, f, obj)
	if err != nil {
		return nil, err
	}
	return Aggregate{Path: path, Field: f.Name, Where: inner}, nil
}

func (c *compiler) aggregateInput(path string, f *model.Field, obj value.Object) (Expr, error) {
	rel := f.Relation
	var terms []Expr
	for _, key := range obj.SortedKeys() {
		v := obj[key]
		if value.IsNull(v) {
			continue
		}
		p := join(path, key)
		var (
			e   Expr
			err error
		)
		switch {
		case isCombinator(key):
			e, err = combinator(p, key, v, func(p string, o value.Object) (Expr, error) {
				return c.aggregateInput(p, f, o)
			})
		case key == "count":
			e, err = c.countFilter(p, v)
		case strings.HasPrefix(key, "count_"):
			op, ok := countAlias(strings.TrimPrefix(key, "count_"))
			if !ok {
				return nil, unknownKey(p)
			}
			e, err = countExpr(p, op, v)
		case key == "node":
			e, err = c.aggregationWhere(p, NodeSide, c.m.TargetFields(rel), v)
		case key == "edge":
			props := c.m.Properties(rel.Properties)
			if props == nil {
				return nil, unknownKey(p)
			}
			e, err = c.aggregationWhere(p, EdgeSide, props.Fields, v)
		default:
			return nil, unknownKey(p)
		}
		if err != nil {
			return nil, err
		}
		if e != nil {
			terms = append(terms, e)
		}
	}
	return and(terms), nil
}

// countAlias resolves the suffix of a count_<OP> key. Count aliases use the
// scalar operator spelling, so count_EQ rather than count_EQUAL.
func countAlias(suffix string) (scalar.Operator, bool) {
	for _, ac := range scalar.AggregateComparisons {
		if ac.Op.Alias() == suffix {
			return ac.Op, true
		}
	}
	return "", false
}

func (c *compiler) countFilter(path string, v value.Value) (Expr, error) {
	obj, err := asObject(path, v)
	if err != nil {
		return nil, err
	}
	var terms []Expr
	for _, key := range obj.SortedKeys() {
		op, ok := scalar.ParseOperator(key)
		if !ok || !scalar.Supports(scalar.Int, op) {
			return nil, &FilterError{Path: join(path, key), Message: fmt.Sprintf("operator %s is not defined for count", key)}
		}
		e, err := countExpr(path, op, obj[key])
		if err != nil {
			return nil, err
		}
		if e != nil {
			terms = append(terms, e)
		}
	}
	return and(terms), nil
}

func countExpr(path string, op scalar.Operator, v value.Value) (Expr, error) {
	if value.IsNull(v) {
		return nil, nil
	}
	e := Count{Path: path, Op: op}
	var err error
	if op == scalar.OpIn {
		e.Operands, err = literals(path, op, scalar.Int, v)
	} else {
		e.Operand, err = literal(path, op, scalar.Int, v)
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

// aggregationWhere compiles a node or edge aggregation where input.
func (c *compiler) aggregationWhere(path string, side Side, fields []*model.Field, v value.Value) (Expr, error) {
	obj, err := asObject(path, v)
	if err != nil {
		return nil, err
	}
	included := visibility.Filter(fields, visibility.AggregationWhere)
	if len(included) == 0 {
		return nil, unknownKey(path)
	}

	var terms []Expr
	for _, key := range obj.SortedKeys() {
		v := obj[key]
		if value.IsNull(v) {
			continue
		}
		p := join(path, key)

		if isCombinator(key) {
			e, err := combinator(p, key, v, func(p string, o value.Object) (Expr, error) {
				return c.aggregationWhere(p, side, fields, o)
			})
			if err != nil {
				return nil, err
			}
			terms = append(terms, e)
			continue
		}

		if f := findField(included, key); f != nil {
			e, err := aggregateFilters(p, side, f, v)
			if err != nil {
				return nil, err
			}
			terms = append(terms, e)
			continue
		}

		e, err := aggregateAlias(p, side, included, key, v)
		if err != nil {
			return nil, err
		}
		terms = append(terms, e)
	}
	return and(terms), nil
}

// aggregateFilters compiles <Kind>ScalarAggregationFilters for one field.
func aggregateFilters(path string, side Side, f *model.Field, v value.Value) (Expr, error) {
	obj, err := asObject(path, v)
	if err != nil {
		return nil, err
	}
	var terms []Expr
	for _, fnKey := range obj.SortedKeys() {
		p := join(path, fnKey)
		fn := scalar.AggregateFunc(fnKey)
		if !slices.Contains(scalar.WhereAggregates(f.Kind), fn) {
			return nil, unknownKey(p)
		}
		if value.IsNull(obj[fnKey]) {
			continue
		}
		ops, err := asObject(p, obj[fnKey])
		if err != nil {
			return nil, err
		}
		result := scalar.ResultKind(f.Kind, fn)
		for _, opKey := range ops.SortedKeys() {
			op, ok := scalar.ParseOperator(opKey)
			if !ok || !scalar.Supports(result, op) {
				return nil, &FilterError{Path: join(p, opKey), Message: fmt.Sprintf("operator %s is not defined for %s", opKey, result)}
			}
			e, err := aggregateCompare(p, side, f, fn, op, ops[opKey])
			if err != nil {
				return nil, err
			}
			if e != nil {
				terms = append(terms, e)
			}
		}
	}
	return and(terms), nil
}

// aggregateAlias compiles a flattened <field>_<FN>_<CMP> key.
func aggregateAlias(path string, side Side, fields []*model.Field, key string, v value.Value) (Expr, error) {
	for _, f := range byNameLength(fields) {
		rest, ok := strings.CutPrefix(key, f.Name+"_")
		if !ok {
			continue
		}
		for _, ac := range scalar.AggregateComparisons {
			fnAlias, ok := strings.CutSuffix(rest, "_"+ac.Alias)
			if !ok {
				continue
			}
			fn, ok := scalar.ParseAggregateAlias(fnAlias)
			if !ok || !slices.Contains(scalar.WhereAggregates(f.Kind), fn) {
				continue
			}
			e, err := aggregateCompare(path, side, f, fn, ac.Op, v)
			if err != nil {
				return nil, err
			}
			if e == nil {
				return True{}, nil
			}
			return e, nil
		}
	}
	return nil, unknownKey(path)
}

func aggregateCompare(path string, side Side, f *model.Field, fn scalar.AggregateFunc, op scalar.Operator, v value.Value) (Expr, error) {
	if value.IsNull(v) {
		return nil, nil
	}
	result := scalar.ResultKind(f.Kind, fn)
	e := AggregateCompare{Path: path, Side: side, Field: f.Name, Kind: f.Kind, Fn: fn, Op: op}
	var err error
	if op == scalar.OpIn {
		e.Operands, err = literals(path, op, result, v)
	} else {
		e.Operand, err = literal(path, op, result, v)
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}
