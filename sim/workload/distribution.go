package workload

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// QuantitySampler draws a daily integer quantity.
type QuantitySampler interface {
	// Sample returns a quantity >= the sampler's floor.
	Sample(rng *rand.Rand) int
}

// NormalSampler truncates a Gaussian draw toward zero and clamps it at a
// floor: max(floor, int(N(mean, stdDev))).
type NormalSampler struct {
	mean, stdDev float64
	floor        int
}

func (s *NormalSampler) Sample(rng *rand.Rand) int {
	if s.stdDev == 0 {
		return max(s.floor, int(s.mean))
	}
	val := rng.NormFloat64()*s.stdDev + s.mean
	if math.IsNaN(val) || val < float64(s.floor) {
		return s.floor
	}
	return int(val)
}

// NewDemandSampler samples daily demand max(0, int(N(mean, std))).
func NewDemandSampler(mean, std float64) *NormalSampler {
	return &NormalSampler{mean: mean, stdDev: std, floor: 0}
}

// NewSplitDaysSampler samples the number of delivery days of an order,
// max(1, int(N(centre, std))).
func NewSplitDaysSampler(centre, std float64) *NormalSampler {
	return &NormalSampler{mean: centre, stdDev: std, floor: 1}
}

// PoissonSampler produces Poisson-distributed daily demand.
type PoissonSampler struct {
	lambda float64
}

// Sample uses Knuth's multiplication method for small rates and a
// rounded normal approximation above 30.
func (s *PoissonSampler) Sample(rng *rand.Rand) int {
	if s.lambda <= 0 {
		return 0
	}
	if s.lambda > 30 {
		v := math.Round(s.lambda + math.Sqrt(s.lambda)*rng.NormFloat64())
		return max(0, int(v))
	}
	limit := math.Exp(-s.lambda)
	k, p := 0, 1.0
	for {
		p *= rng.Float64()
		if p <= limit {
			return k
		}
		k++
	}
}

// EmpiricalPDFSampler samples from an empirical probability distribution
// using inverse CDF via binary search.
type EmpiricalPDFSampler struct {
	values []int     // Sorted quantity values
	cdf    []float64 // Cumulative probabilities (same length as values)
}

// NewEmpiricalPDFSampler creates a sampler from a PDF map (quantity → probability).
// Automatically normalizes probabilities if they don't sum to 1.0.
func NewEmpiricalPDFSampler(pdf map[int]float64) *EmpiricalPDFSampler {
	keys := make([]int, 0, len(pdf))
	for k := range pdf {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	totalProb := 0.0
	for _, k := range keys {
		if pdf[k] > 0 {
			totalProb += pdf[k]
		}
	}

	values := make([]int, 0, len(keys))
	cdf := make([]float64, 0, len(keys))
	cumulative := 0.0
	for _, k := range keys {
		p := pdf[k]
		if p <= 0 {
			continue // skip zero or negative probabilities
		}
		cumulative += p / totalProb
		values = append(values, k)
		cdf = append(cdf, cumulative)
	}
	// Ensure last CDF entry is exactly 1.0
	if len(cdf) > 0 {
		cdf[len(cdf)-1] = 1.0
	}
	return &EmpiricalPDFSampler{values: values, cdf: cdf}
}

func (s *EmpiricalPDFSampler) Sample(rng *rand.Rand) int {
	if len(s.values) == 0 {
		return 0
	}
	if len(s.values) == 1 {
		return s.values[0]
	}
	u := rng.Float64()
	idx := sort.SearchFloat64s(s.cdf, u)
	if idx >= len(s.values) {
		idx = len(s.values) - 1
	}
	return s.values[idx]
}

// ConstantSampler always returns the same fixed value.
type ConstantSampler struct {
	value int
}

func (s *ConstantSampler) Sample(_ *rand.Rand) int {
	return max(0, s.value)
}

// requireParam checks that all required keys exist in a params map.
func requireParam(params map[string]float64, keys ...string) error {
	for _, k := range keys {
		if _, ok := params[k]; !ok {
			return fmt.Errorf("distribution requires parameter %q", k)
		}
	}
	return nil
}

// NewQuantitySampler creates a demand sampler from a DistSpec.
func NewQuantitySampler(spec DistSpec) (QuantitySampler, error) {
	switch spec.Type {
	case "normal":
		if err := requireParam(spec.Params, "mean", "std_dev"); err != nil {
			return nil, err
		}
		return NewDemandSampler(spec.Params["mean"], spec.Params["std_dev"]), nil

	case "poisson":
		if err := requireParam(spec.Params, "lambda"); err != nil {
			return nil, err
		}
		return &PoissonSampler{lambda: spec.Params["lambda"]}, nil

	case "constant":
		if err := requireParam(spec.Params, "value"); err != nil {
			return nil, err
		}
		return &ConstantSampler{value: int(spec.Params["value"])}, nil

	case "empirical":
		pdf := make(map[int]float64, len(spec.Params))
		for k, v := range spec.Params {
			var qty int
			if _, err := fmt.Sscanf(k, "%d", &qty); err != nil {
				return nil, fmt.Errorf("empirical PDF key %q is not an integer: %w", k, err)
			}
			if qty < 0 {
				return nil, fmt.Errorf("empirical PDF key %d must be non-negative", qty)
			}
			pdf[qty] = v
		}
		if len(pdf) == 0 {
			return nil, fmt.Errorf("empirical distribution has no valid bins")
		}
		return NewEmpiricalPDFSampler(pdf), nil

	default:
		return nil, fmt.Errorf("unknown distribution type %q", spec.Type)
	}
}
