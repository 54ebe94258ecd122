package subscription

import (
	"fmt"

	"github.com/graphql-go/graphql/language/ast"

	"github.com/roach88/schemaforge/internal/value"
)

// request is the part of a subscription document the broker acts on.
type request struct {
	field string
	where value.Object
}

// RequestError reports a valid document the broker cannot serve, such as a
// query operation or a subscription selecting more than one root field.
type RequestError struct {
	Message string
}

// Error implements the error interface.
func (e *RequestError) Error() string {
	return "subscription request: " + e.Message
}

// parseRequest extracts the root field and its where argument from a
// validated document.
func parseRequest(doc *ast.Document, operationName string, vars map[string]any) (request, error) {
	var op *ast.OperationDefinition
	for _, def := range doc.Definitions {
		od, ok := def.(*ast.OperationDefinition)
		if !ok {
			continue
		}
		if operationName != "" && (od.Name == nil || od.Name.Value != operationName) {
			continue
		}
		if op != nil {
			return request{}, &RequestError{Message: "document has more than one operation; name the one to run"}
		}
		op = od
	}
	if op == nil {
		return request{}, &RequestError{Message: "no operation to run"}
	}
	if op.Operation != ast.OperationTypeSubscription {
		return request{}, &RequestError{Message: fmt.Sprintf("operation is a %s, not a subscription", op.Operation)}
	}

	var fields []*ast.Field
	for _, sel := range op.SelectionSet.Selections {
		if f, ok := sel.(*ast.Field); ok {
			fields = append(fields, f)
		}
	}
	if len(fields) != 1 {
		return request{}, &RequestError{Message: "a subscription selects exactly one root field"}
	}

	root := fields[0]
	req := request{field: root.Name.Value, where: value.Object{}}
	for _, arg := range root.Arguments {
		if arg.Name.Value != "where" {
			continue
		}
		v, err := fromAST(arg.Value, vars)
		if err != nil {
			return request{}, err
		}
		switch w := v.(type) {
		case value.Object:
			req.where = w
		case value.Null:
		default:
			return request{}, &RequestError{Message: fmt.Sprintf("where must be an object, got %T", v)}
		}
	}
	return req, nil
}

// fromAST converts an argument literal, substituting variables.
func fromAST(node ast.Value, vars map[string]any) (value.Value, error) {
	switch n := node.(type) {
	case *ast.Variable:
		raw, ok := vars[n.Name.Value]
		if !ok {
			return value.Null{}, nil
		}
		return value.FromGo(raw)
	case *ast.IntValue:
		return value.Number(n.Value), nil
	case *ast.FloatValue:
		return value.Number(n.Value), nil
	case *ast.StringValue:
		return value.String(n.Value), nil
	case *ast.BooleanValue:
		return value.Bool(n.Value), nil
	case *ast.EnumValue:
		return value.String(n.Value), nil
	case *ast.ListValue:
		out := make(value.List, len(n.Values))
		for i, item := range n.Values {
			v, err := fromAST(item, vars)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	case *ast.ObjectValue:
		out := make(value.Object, len(n.Fields))
		for _, f := range n.Fields {
			v, err := fromAST(f.Value, vars)
			if err != nil {
				return nil, err
			}
			out[f.Name.Value] = v
		}
		return out, nil
	default:
		return nil, &RequestError{Message: fmt.Sprintf("unsupported argument literal %T", node)}
	}
}
