package runtime

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/thinklang/thinklang/pkg/codegen"
	"github.com/thinklang/thinklang/pkg/rterrors"
)

// evaluateGuards runs each guard rule against result in order (spec
// §4.7.2); the first failure short-circuits as GuardFailed.
func evaluateGuards(guards []codegen.GuardSpec, result any) error {
	for _, g := range guards {
		if err := evaluateGuard(g, result); err != nil {
			slog.Warn("guard failed", "operation", "guard", "guard", g.Name)
			return err
		}
	}
	return nil
}

func evaluateGuard(g codegen.GuardSpec, result any) error {
	slog.Debug("evaluating guard", "operation", "guard", "guard", g.Name)
	switch g.Name {
	case "length":
		n := stringifiedLength(result)
		if !inRange(float64(n), g.Constraint, g.RangeEnd) {
			return &rterrors.GuardFailed{GuardName: g.Name, Value: n, Constraint: g.Constraint}
		}
	case "contains_none":
		hay := stringify(result)
		for _, forbidden := range forbiddenSubstrings(g.Constraint) {
			if strings.Contains(hay, forbidden) {
				return &rterrors.GuardFailed{GuardName: g.Name, Value: result, Constraint: forbidden}
			}
		}
	case "passes":
		pred, ok := g.Constraint.(func(any) (bool, error))
		if !ok {
			return &rterrors.GuardFailed{GuardName: g.Name, Value: result, Constraint: g.Constraint}
		}
		ok2, err := pred(result)
		if err != nil || !ok2 {
			return &rterrors.GuardFailed{GuardName: g.Name, Value: result, Constraint: g.Constraint}
		}
	default:
		n, ok := numericValue(result)
		if !ok || !inRange(n, g.Constraint, g.RangeEnd) {
			return &rterrors.GuardFailed{GuardName: g.Name, Value: result, Constraint: g.Constraint}
		}
	}
	return nil
}

func stringifiedLength(v any) int {
	if s, ok := v.(string); ok {
		return len(s)
	}
	return len(stringify(v))
}

func stringify(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(raw)
}

func forbiddenSubstrings(constraint any) []string {
	switch c := constraint.(type) {
	case string:
		return []string{c}
	case []string:
		return c
	case []any:
		out := make([]string, 0, len(c))
		for _, item := range c {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func numericValue(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// inRange checks lower <= n <= upper, where lower/upper are guard
// constraint values (numbers possibly carried as float64/int).
func inRange(n float64, lower, upper any) bool {
	lo, ok := numericValue(lower)
	if !ok {
		return true
	}
	if n < lo {
		return false
	}
	if upper == nil {
		return true
	}
	hi, ok := numericValue(upper)
	if !ok {
		return true
	}
	return n <= hi
}
