package shape

import (
	"math"
	"testing"
)

func TestParse_RegisteredNames(t *testing.T) {
	tests := []struct {
		name string
		x    float64
		want float64
	}{
		{"constant", 3, 1},
		{"linear", 3, 3},
		{"x^2", 3, 9},
		{"-log(x)", math.E, -1},
		{"exp(-0.5x)", 2, 0.5 * math.Exp(-1)},
		{"100", 7, 100},
	}
	for _, tc := range tests {
		f, err := Parse(tc.name)
		if err != nil {
			t.Fatalf("Parse(%q): unexpected error %v", tc.name, err)
		}
		if got := f(tc.x); math.Abs(got-tc.want) > 1e-12 {
			t.Errorf("Parse(%q)(%v) = %v, want %v", tc.name, tc.x, got, tc.want)
		}
	}
}

func TestParse_Invalid(t *testing.T) {
	for _, name := range []string{"", "  ", "sin(x)", "NaN", "+Inf"} {
		if IsValid(name) {
			t.Errorf("IsValid(%q) = true, want false", name)
		}
	}
}
