package predicate

import (
	"fmt"

	"github.com/roach88/schemaforge/internal/event"
	"github.com/roach88/schemaforge/internal/model"
	"github.com/roach88/schemaforge/internal/scalar"
	"github.com/roach88/schemaforge/internal/value"
)

// element is one related record and the properties of the edge reaching it.
type element struct {
	node value.Object
	edge value.Object
}

// frame is the evaluation position: the record under test, the node and
// edge of the connection element in scope, and the related set an
// Aggregate is reading.
type frame struct {
	cur   value.Object
	node  value.Object
	edge  value.Object
	elems []element
}

// Evaluate reports whether record satisfies expr.
func Evaluate(expr Expr, record value.Object) (bool, error) {
	return eval(expr, frame{cur: record})
}

// MatchEvent evaluates expr against the snapshot a change event exposes to
// subscribers: the record after the change, or before it for deletes.
func MatchEvent(expr Expr, ev *event.ChangeEvent) (bool, error) {
	if err := ev.Validate(); err != nil {
		return false, err
	}
	return Evaluate(expr, ev.Snapshot())
}

func eval(expr Expr, f frame) (bool, error) {
	switch e := expr.(type) {
	case True:
		return true, nil

	case And:
		for _, t := range e.Terms {
			ok, err := eval(t, f)
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil

	case Or:
		for _, t := range e.Terms {
			ok, err := eval(t, f)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil

	case Not:
		ok, err := eval(e.Term, f)
		if err != nil {
			return false, err
		}
		return !ok, nil

	case Compare:
		return evalCompare(e, f.cur)

	case Quantified:
		elems, err := related(e.Path, f.cur, e.Field)
		if err != nil {
			return false, err
		}
		return quantify(e, elems)

	case Scoped:
		cur := f.node
		if e.Side == EdgeSide {
			cur = f.edge
		}
		if cur == nil {
			cur = value.Object{}
		}
		return eval(e.Where, frame{cur: cur})

	case TypeSwitch:
		name, _ := f.cur[model.TypenameKey].(value.String)
		for _, c := range e.Cases {
			if c.Type == string(name) {
				return eval(c.Where, frame{cur: f.cur})
			}
		}
		return false, nil

	case Aggregate:
		elems, err := related(e.Path, f.cur, e.Field)
		if err != nil {
			return false, err
		}
		return eval(e.Where, frame{cur: f.cur, elems: elems})

	case Count:
		return compareLiteral(e.Path, e.Op, scalar.IntLiteral(int64(len(f.elems))), e.Operand, e.Operands)

	case AggregateCompare:
		return evalAggregate(e, f.elems)

	default:
		panic(fmt.Sprintf("predicate: unhandled expression %T", expr))
	}
}

func quantify(e Quantified, elems []element) (bool, error) {
	matched := 0
	for _, el := range elems {
		ok, err := eval(e.Where, frame{cur: el.node, node: el.node, edge: el.edge})
		if err != nil {
			return false, err
		}
		if ok {
			matched++
		}
		switch e.Quantifier {
		case All:
			if !ok {
				return false, nil
			}
		case None, Some:
			if ok {
				return e.Quantifier == Some, nil
			}
		case Single:
			if matched > 1 {
				return false, nil
			}
		}
	}
	switch e.Quantifier {
	case All, None:
		return true, nil
	case Single:
		return matched == 1, nil
	case Some:
		return false, nil
	default:
		panic(fmt.Sprintf("predicate: unhandled quantifier %q", e.Quantifier))
	}
}

// related reads the records reachable through a relationship field. A
// to-one relationship holds a single object; a missing value relates
// nothing.
func related(path string, cur value.Object, field string) ([]element, error) {
	v, ok := cur.Lookup(field)
	if !ok {
		return nil, nil
	}
	var objs []value.Object
	switch rv := v.(type) {
	case value.Object:
		objs = []value.Object{rv}
	case value.List:
		for _, item := range rv {
			if value.IsNull(item) {
				continue
			}
			obj, ok := item.(value.Object)
			if !ok {
				return nil, &EvalError{Path: path, Cause: fmt.Errorf("related record is %T, not an object", item)}
			}
			objs = append(objs, obj)
		}
	default:
		return nil, &EvalError{Path: path, Cause: fmt.Errorf("relationship %s holds %T", field, v)}
	}

	out := make([]element, len(objs))
	for i, obj := range objs {
		out[i].node = obj
		if edge, ok := obj.Lookup(model.EdgeKey); ok {
			eo, ok := edge.(value.Object)
			if !ok {
				return nil, &EvalError{Path: path, Cause: fmt.Errorf("edge properties are %T, not an object", edge)}
			}
			out[i].edge = eo
		}
	}
	return out, nil
}

func evalCompare(e Compare, cur value.Object) (bool, error) {
	v, present := cur.Lookup(e.Field)
	if e.IsNull {
		return !present, nil
	}
	if !present {
		return false, nil
	}

	if !e.List {
		actual, err := scalar.Coerce(e.Kind, v)
		if err != nil {
			return false, &EvalError{Path: e.Path, Cause: err}
		}
		return compareLiteral(e.Path, e.Op, actual, e.Operand, e.Operands)
	}

	list, ok := v.(value.List)
	if !ok {
		return false, &EvalError{Path: e.Path, Cause: fmt.Errorf("field %s holds %T, not a list", e.Field, v)}
	}
	actual := make([]scalar.Literal, 0, len(list))
	for _, item := range list {
		if value.IsNull(item) {
			// a null element never equals a coerced operand
			if e.Op == scalar.OpEq {
				return false, nil
			}
			continue
		}
		lit, err := scalar.Coerce(e.Kind, item)
		if err != nil {
			return false, &EvalError{Path: e.Path, Cause: err}
		}
		actual = append(actual, lit)
	}
	switch e.Op {
	case scalar.OpEq:
		return scalar.TestListEq(actual, e.Operands), nil
	case scalar.OpIncludes:
		return scalar.TestIncludes(actual, e.Operand), nil
	default:
		return false, &EvalError{Path: e.Path, Cause: fmt.Errorf("operator %s is not defined on lists", e.Op)}
	}
}

func compareLiteral(path string, op scalar.Operator, actual, operand scalar.Literal, operands []scalar.Literal) (bool, error) {
	if op == scalar.OpIn {
		return scalar.TestIn(actual, operands), nil
	}
	ok, err := scalar.Test(op, actual, operand)
	if err != nil {
		return false, &EvalError{Path: path, Cause: err}
	}
	return ok, nil
}

func evalAggregate(e AggregateCompare, elems []element) (bool, error) {
	values := make([]scalar.Literal, 0, len(elems))
	for _, el := range elems {
		src := el.node
		if e.Side == EdgeSide {
			src = el.edge
		}
		v, ok := src.Lookup(e.Field)
		if !ok {
			continue
		}
		lit, err := scalar.Coerce(e.Kind, v)
		if err != nil {
			return false, &EvalError{Path: e.Path, Cause: err}
		}
		values = append(values, lit)
	}
	result, ok, err := scalar.Aggregate(e.Fn, e.Kind, values)
	if err != nil {
		return false, &EvalError{Path: e.Path, Cause: err}
	}
	if !ok {
		return false, nil
	}
	return compareLiteral(e.Path, e.Op, result, e.Operand, e.Operands)
}
