package rules

import (
	"fmt"
	"math"
	"slices"
	"strconv"
)

type OptionKind uint8

const (
	OptionBool OptionKind = iota + 1
	OptionInt
	// OptionList holds strings; numbers in config files are kept as spelled.
	OptionList
)

func (k OptionKind) String() string {
	switch k {
	case OptionBool:
		return "bool"
	case OptionInt:
		return "int"
	case OptionList:
		return "list"
	}
	return "invalid"
}

// OptionSpec declares one tunable of a check.
type OptionSpec struct {
	Name    string
	Kind    OptionKind
	Default any
	Doc     string
}

// OptionValues are the validated options of one configured check.
type OptionValues struct {
	values map[string]any
}

func (o OptionValues) Bool(name string) bool {
	v, _ := o.values[name].(bool)
	return v
}

func (o OptionValues) Int(name string) int {
	v, _ := o.values[name].(int)
	return v
}

func (o OptionValues) List(name string) []string {
	v, _ := o.values[name].([]string)
	return v
}

// Raw returns the value as configured, nil when the option is unknown.
func (o OptionValues) Raw(name string) any { return o.values[name] }

func defaultOptions(specs []OptionSpec) OptionValues {
	vals := make(map[string]any, len(specs))
	for _, s := range specs {
		vals[s.Name] = s.Default
	}
	return OptionValues{values: vals}
}

// convertOption validates a raw decoded value against spec. Decoders hand
// over int64 (TOML), int (YAML) or float64 (JSON) for numbers.
func convertOption(spec OptionSpec, raw any) (any, error) {
	switch spec.Kind {
	case OptionBool:
		if b, ok := raw.(bool); ok {
			return b, nil
		}
	case OptionInt:
		if n, ok := toInt(raw); ok {
			return n, nil
		}
	case OptionList:
		items, ok := raw.([]any)
		if !ok {
			if ss, isStrings := raw.([]string); isStrings {
				return slices.Clone(ss), nil
			}
			break
		}
		out := make([]string, 0, len(items))
		for _, it := range items {
			s, ok := scalarString(it)
			if !ok {
				return nil, fmt.Errorf("option %q: list item %v is not a string or number", spec.Name, it)
			}
			out = append(out, s)
		}
		return out, nil
	}
	return nil, fmt.Errorf("option %q: expected %s, got %T", spec.Name, spec.Kind, raw)
}

func toInt(raw any) (int, bool) {
	switch v := raw.(type) {
	case int:
		return v, true
	case int64:
		if v < math.MinInt32 || v > math.MaxInt32 {
			return 0, false
		}
		return int(v), true
	case float64:
		if v != math.Trunc(v) || math.Abs(v) > math.MaxInt32 {
			return 0, false
		}
		return int(v), true
	}
	return 0, false
}

func scalarString(raw any) (string, bool) {
	switch v := raw.(type) {
	case string:
		return v, true
	case int:
		return strconv.Itoa(v), true
	case int64:
		return strconv.FormatInt(v, 10), true
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64), true
	}
	return "", false
}
