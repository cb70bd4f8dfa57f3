package trace

import (
	"math"
	"sort"

	"github.com/inference-sim/warehouse-sim/sim/shape"
)

// Distribute splits target into days integer parts shaped like fn
// evaluated at x = 1..days. Every part is at least 1 and the parts sum to
// target exactly, provided target >= days. A nil fn weighs days equally.
//
// The weights are shifted so the smallest is 1, normalized, scaled by
// target and floored. Rounding surplus goes to the days with the largest
// fractional remainder; an excess (caused by the floor of 1) is taken back
// proportionally to the weights, again largest remainder first.
func Distribute(fn shape.Func, days, target int) []int {
	if days <= 0 {
		return nil
	}
	y := make([]float64, days)
	for i := range y {
		if fn == nil {
			y[i] = 1
		} else {
			y[i] = fn(float64(i + 1))
		}
	}
	for _, v := range y {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			for i := range y {
				y[i] = 1
			}
			break
		}
	}

	lo := y[0]
	for _, v := range y {
		lo = math.Min(lo, v)
	}
	total := 0.0
	for i := range y {
		y[i] = y[i] - lo + 1
		total += y[i]
	}
	weights := make([]float64, days)
	for i := range y {
		weights[i] = y[i] / total
	}

	values, residuals := floorParts(float64(target), weights)
	sum := 0
	for i := range values {
		values[i] = max(values[i], 1)
		sum += values[i]
	}

	surplus := target - sum
	switch {
	case surplus > 0:
		order := byResidualDesc(residuals)
		for i := 0; surplus > 0; i++ {
			values[order[i%days]]++
			surplus--
		}
	case surplus < 0:
		reductions, res := floorParts(float64(-surplus), weights)
		remainder := -surplus
		for _, r := range reductions {
			remainder -= r
		}
		for _, i := range byResidualDesc(res)[:max(remainder, 0)] {
			reductions[i]++
		}
		for i := range values {
			r := min(reductions[i], values[i]-1, -surplus)
			values[i] -= r
			surplus += r
		}
		// reductions blocked by the floor come off the largest days
		for surplus < 0 {
			i := argMax(values)
			if values[i] <= 1 {
				break
			}
			values[i]--
			surplus++
		}
	}
	return values
}

// floorParts scales weights by total and splits each into floor and
// fractional remainder.
func floorParts(total float64, weights []float64) ([]int, []float64) {
	floors := make([]int, len(weights))
	residuals := make([]float64, len(weights))
	for i, w := range weights {
		raw := total * w
		f := math.Floor(raw)
		floors[i] = int(f)
		residuals[i] = raw - f
	}
	return floors, residuals
}

func byResidualDesc(residuals []float64) []int {
	idx := make([]int, len(residuals))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return residuals[idx[a]] > residuals[idx[b]] })
	return idx
}

func argMax(values []int) int {
	best := 0
	for i, v := range values {
		if v > values[best] {
			best = i
		}
	}
	return best
}
