// Package rules implements the Event-Condition-Action engine.
package rules

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/opensource-retail/kestrel/internal/domain"
)

// EvaluateCondition checks one condition against a nested event payload.
// A missing intermediate key resolves to an absent value rather than an
// error, and unknown operators fail closed. Pure function, safe for
// concurrent use.
func EvaluateCondition(cond domain.Condition, data map[string]interface{}) bool {
	val, found := resolveField(data, cond.Field)

	switch cond.Operator {
	case domain.OpExists:
		return found && val != nil

	case domain.OpEquals:
		if !found {
			return false
		}
		return valuesEqual(val, cond.Value)

	case domain.OpContains:
		if !found || val == nil {
			return false
		}
		return strings.Contains(stringify(val), stringify(cond.Value))

	case domain.OpGreater:
		a, okA := toFloat(val)
		b, okB := toFloat(cond.Value)
		// A missing or non-numeric operand fails the condition instead of
		// coercing to zero, so absent fields cannot silently match.
		return found && okA && okB && a > b

	case domain.OpLess:
		a, okA := toFloat(val)
		b, okB := toFloat(cond.Value)
		return found && okA && okB && a < b

	default:
		return false
	}
}

// resolveField walks a dotted path through nested maps and arrays.
// Array segments are numeric indexes, e.g. "items.0.product_id".
func resolveField(data map[string]interface{}, path string) (interface{}, bool) {
	if path == "" {
		return nil, false
	}

	var current interface{} = data
	for _, part := range strings.Split(path, ".") {
		switch node := current.(type) {
		case map[string]interface{}:
			val, ok := node[part]
			if !ok {
				return nil, false
			}
			current = val

		case []interface{}:
			idx, err := strconv.Atoi(part)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil, false
			}
			current = node[idx]

		default:
			return nil, false
		}
	}

	return current, true
}

// valuesEqual compares two values without coercion beyond numeric
// normalization (JSON decodes all numbers to float64, rule authors may
// use ints).
func valuesEqual(a, b interface{}) bool {
	if fa, ok := toFloat(a); ok {
		fb, ok2 := toFloat(b)
		return ok2 && fa == fb
	}
	return reflect.DeepEqual(a, b)
}

// toFloat converts numeric values and numeric strings to float64.
func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func stringify(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
