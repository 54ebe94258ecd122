package value

import (
	"fmt"
	"math/big"
	"strconv"

	"gopkg.in/yaml.v3"
)

// FromYAML converts a YAML node into a Value. Integer and float scalars keep
// their literal text, so a YAML integer wider than 64 bits is not rounded.
func FromYAML(node *yaml.Node) (Value, error) {
	switch node.Kind {
	case yaml.DocumentNode:
		if len(node.Content) == 0 {
			return Null{}, nil
		}
		return FromYAML(node.Content[0])
	case yaml.AliasNode:
		return FromYAML(node.Alias)
	case yaml.SequenceNode:
		list := make(List, len(node.Content))
		for i, elem := range node.Content {
			v, err := FromYAML(elem)
			if err != nil {
				return nil, fmt.Errorf("list[%d]: %w", i, err)
			}
			list[i] = v
		}
		return list, nil
	case yaml.MappingNode:
		obj := make(Object, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			key := node.Content[i].Value
			v, err := FromYAML(node.Content[i+1])
			if err != nil {
				return nil, fmt.Errorf("object[%q]: %w", key, err)
			}
			obj[key] = v
		}
		return obj, nil
	case yaml.ScalarNode:
		return yamlScalar(node)
	default:
		return nil, fmt.Errorf("line %d: unsupported YAML node kind %d", node.Line, node.Kind)
	}
}

func yamlScalar(node *yaml.Node) (Value, error) {
	switch node.ShortTag() {
	case "!!null":
		return Null{}, nil
	case "!!bool":
		var b bool
		if err := node.Decode(&b); err != nil {
			return nil, err
		}
		return Bool(b), nil
	case "!!int":
		i, ok := new(big.Int).SetString(node.Value, 0)
		if !ok {
			return nil, fmt.Errorf("line %d: invalid integer %q", node.Line, node.Value)
		}
		return Number(i.String()), nil
	case "!!float":
		// yaml.v3 resolves integers wider than uint64 as floats.
		if i, ok := new(big.Int).SetString(node.Value, 10); ok {
			return Number(i.String()), nil
		}
		f, err := strconv.ParseFloat(node.Value, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: unsupported float %q", node.Line, node.Value)
		}
		return Number(strconv.FormatFloat(f, 'g', -1, 64)), nil
	default:
		return String(node.Value), nil
	}
}

// UnmarshalYAML decodes a YAML mapping into an Object.
func (o *Object) UnmarshalYAML(node *yaml.Node) error {
	v, err := FromYAML(node)
	if err != nil {
		return err
	}
	switch val := v.(type) {
	case Object:
		*o = val
	case Null:
		*o = nil
	default:
		return fmt.Errorf("line %d: expected mapping, got %T", node.Line, v)
	}
	return nil
}
