package simulate

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/adept-bench/benchctl/bench"
)

// Parameter is one named sweep axis with its candidate values.
type Parameter struct {
	Name   string
	Values []any
}

// ParameterSpace is the ordered list of sweep axes. Order follows the
// mapping order in params.yaml so that combinations, log names and
// environment variables come out in the order the author wrote them.
type ParameterSpace []Parameter

// UnmarshalYAML decodes a mapping of NAME -> [values...] preserving key order.
func (s *ParameterSpace) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode && node.Tag == "!!null" {
		*s = nil
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: parameters must be a mapping", node.Line)
	}
	space := make(ParameterSpace, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]
		if val.Kind != yaml.SequenceNode {
			return fmt.Errorf("line %d: parameters.%s must be a list", val.Line, key.Value)
		}
		values := make([]any, 0, len(val.Content))
		for _, item := range val.Content {
			var v any
			if err := item.Decode(&v); err != nil {
				return fmt.Errorf("line %d: parameters.%s: %w", item.Line, key.Value, err)
			}
			values = append(values, v)
		}
		space = append(space, Parameter{Name: key.Value, Values: values})
	}
	*s = space
	return nil
}

// Size is the number of combinations the space expands to.
func (s ParameterSpace) Size() int {
	n := 1
	for _, p := range s {
		n *= len(p.Values)
	}
	return n
}

// Combinations expands the Cartesian product with the last parameter varying
// fastest. Any empty value list yields no combinations; an empty space yields
// exactly one empty combination.
func (s ParameterSpace) Combinations() []Combination {
	total := s.Size()
	if total == 0 {
		return nil
	}

	result := make([]Combination, 0, total)
	indices := make([]int, len(s))
	for i := 0; i < total; i++ {
		combo := make(Combination, len(s))
		for d, p := range s {
			combo[d] = Assignment{Name: p.Name, Value: p.Values[indices[d]]}
		}
		result = append(result, combo)

		for d := len(s) - 1; d >= 0; d-- {
			indices[d]++
			if indices[d] < len(s[d].Values) {
				break
			}
			indices[d] = 0
		}
	}
	return result
}

// Assignment binds one parameter to one value.
type Assignment struct {
	Name  string
	Value any
}

// Combination is one point of the sweep, in parameter order.
type Combination []Assignment

// Map returns the combination as a plain mapping for the metadata record.
func (c Combination) Map() map[string]any {
	m := make(map[string]any, len(c))
	for _, a := range c {
		m[a.Name] = a.Value
	}
	return m
}

// Env renders NAME=value pairs for the child environment.
func (c Combination) Env() []string {
	env := make([]string, 0, len(c))
	for _, a := range c {
		env = append(env, a.Name+"="+bench.FormatValue(a.Value))
	}
	return env
}

// String joins the NAME=value pairs with underscores, as used in log names.
func (c Combination) String() string {
	return strings.Join(c.Env(), "_")
}
