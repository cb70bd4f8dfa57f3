package trace

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/inference-sim/warehouse-sim/sim/shape"
)

func sum(xs []int) int {
	n := 0
	for _, x := range xs {
		n += x
	}
	return n
}

func TestDistribute_SumAndFloorInvariants(t *testing.T) {
	names := append(shape.Names(), "")
	for _, name := range names {
		fn, err := shape.Parse(name)
		if err != nil {
			t.Fatalf("shape %q: %v", name, err)
		}
		for days := 1; days <= 12; days++ {
			for target := days; target <= days+60; target += 7 {
				parts := Distribute(fn, days, target)
				if len(parts) != days {
					t.Fatalf("%q days=%d target=%d: got %d parts", name, days, target, len(parts))
				}
				if got := sum(parts); got != target {
					t.Errorf("%q days=%d target=%d: sum %d", name, days, target, got)
				}
				for i, p := range parts {
					if p < 1 {
						t.Errorf("%q days=%d target=%d: part %d is %d", name, days, target, i, p)
					}
				}
			}
		}
	}
}

func TestDistribute_ConstantSplitsEvenly(t *testing.T) {
	// GIVEN equal weights over 4 days
	parts := Distribute(nil, 4, 10)

	// THEN the parts differ by at most one unit and the earlier days take the surplus
	assert.Equal(t, []int{3, 3, 2, 2}, parts)
}

func TestDistribute_IncreasingShapeFavoursLateDays(t *testing.T) {
	fn, err := shape.Parse("x^2")
	assert.NoError(t, err)

	parts := Distribute(fn, 5, 100)

	assert.Equal(t, 100, sum(parts))
	for i := 1; i < len(parts); i++ {
		assert.GreaterOrEqual(t, parts[i], parts[i-1], "x^2 weights are non-decreasing")
	}
}

func TestDistribute_TargetEqualsDays_AllOnes(t *testing.T) {
	fn, _ := shape.Parse("exp(-0.5x)")
	assert.Equal(t, []int{1, 1, 1, 1, 1, 1}, Distribute(fn, 6, 6))
}

func TestDistribute_NonFiniteShapeFallsBackToEqualWeights(t *testing.T) {
	// -log(x) is finite on x >= 1, a hand-built shape might not be
	parts := Distribute(func(x float64) float64 { return 1 / (x - 1) }, 3, 9)
	assert.Equal(t, []int{3, 3, 3}, parts)
}

func TestDistribute_NoDays(t *testing.T) {
	assert.Nil(t, Distribute(nil, 0, 10))
}
