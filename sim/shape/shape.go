// Package shape provides delivery shaping functions: weightings over the
// fulfillment days of an order that decide how a quantity is spread out.
package shape

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Func maps a 1-based fulfillment day to a relative weight.
// A nil Func is treated as a constant weight.
type Func func(x float64) float64

// Constant returns a Func with the same weight on every day.
func Constant(v float64) Func {
	return func(float64) float64 { return v }
}

var registry = map[string]Func{
	"constant":   Constant(1),
	"linear":     func(x float64) float64 { return x },
	"x^2":        func(x float64) float64 { return x * x },
	"-log(x)":    func(x float64) float64 { return -math.Log(x) },
	"exp(-0.5x)": func(x float64) float64 { return 0.5 * math.Exp(-0.5*x) },
}

// Parse resolves a shaping function by registered name, or as a numeric
// constant weight.
func Parse(name string) (Func, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("delivery function is required; valid: %s, or a number", strings.Join(Names(), ", "))
	}
	if f, ok := registry[name]; ok {
		return f, nil
	}
	if v, err := strconv.ParseFloat(name, 64); err == nil {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("constant delivery function must be finite, got %q", name)
		}
		return Constant(v), nil
	}
	return nil, fmt.Errorf("unknown delivery function %q; valid: %s, or a number", name, strings.Join(Names(), ", "))
}

// IsValid reports whether name can be parsed.
func IsValid(name string) bool {
	_, err := Parse(name)
	return err == nil
}

// Names lists the registered function names, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
