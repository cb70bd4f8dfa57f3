// Package leadtime fits candidate probability distributions to the shape
// of an order's deliveries (days since placement vs. delivered quantity)
// and summarizes the best fit as a single lead-time figure.
package leadtime

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/integrate/quad"
	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// ErrNoFit is returned when every candidate distribution failed to fit.
var ErrNoFit = errors.New("no candidate distribution could be fitted")

// Distribution is the subset of distuv behaviour the fit needs.
type Distribution interface {
	Prob(x float64) float64
	CDF(x float64) float64
}

// candidate describes one family: how many free parameters it has (after
// the leading amplitude), an initial guess, and how to build it.
type candidate struct {
	name    string
	nParams int
	guess   func(mean, sd float64) []float64
	build   func(p []float64) Distribution
}

// locScale shifts and scales a standard distribution.
type locScale struct {
	inner      Distribution
	loc, scale float64
}

func (d locScale) Prob(x float64) float64 { return d.inner.Prob((x-d.loc)/d.scale) / d.scale }
func (d locScale) CDF(x float64) float64  { return d.inner.CDF((x - d.loc) / d.scale) }

var candidates = []candidate{
	{
		name: "Normal", nParams: 2,
		guess: func(m, s float64) []float64 { return []float64{m, math.Log(s)} },
		build: func(p []float64) Distribution { return distuv.Normal{Mu: p[0], Sigma: math.Exp(p[1])} },
	},
	{
		name: "Laplace", nParams: 2,
		guess: func(m, s float64) []float64 { return []float64{m, math.Log(s)} },
		build: func(p []float64) Distribution { return distuv.Laplace{Mu: p[0], Scale: math.Exp(p[1])} },
	},
	{
		name: "Gumbel", nParams: 2,
		guess: func(m, s float64) []float64 { return []float64{m, math.Log(s)} },
		build: func(p []float64) Distribution { return distuv.GumbelRight{Mu: p[0], Beta: math.Exp(p[1])} },
	},
	{
		name: "Cauchy", nParams: 2,
		guess: func(m, s float64) []float64 { return []float64{m, math.Log(s)} },
		build: func(p []float64) Distribution {
			return distuv.StudentsT{Mu: p[0], Sigma: math.Exp(p[1]), Nu: 1}
		},
	},
	{
		name: "Uniform", nParams: 2,
		guess: func(m, s float64) []float64 { return []float64{m - 2*s, math.Log(4 * s)} },
		build: func(p []float64) Distribution { return distuv.Uniform{Min: p[0], Max: p[0] + math.Exp(p[1])} },
	},
	{
		name: "Student t", nParams: 3,
		guess: func(m, s float64) []float64 { return []float64{m, math.Log(s), math.Log(1.5)} },
		build: func(p []float64) Distribution {
			return distuv.StudentsT{Mu: p[0], Sigma: math.Exp(p[1]), Nu: math.Exp(p[2])}
		},
	},
	{
		name: "Gamma", nParams: 3,
		guess: func(m, s float64) []float64 { return []float64{math.Log(1.5), 0, math.Log(s)} },
		build: func(p []float64) Distribution {
			return locScale{inner: distuv.Gamma{Alpha: math.Exp(p[0]), Beta: 1}, loc: p[1], scale: math.Exp(p[2])}
		},
	},
	{
		name: "Beta", nParams: 4,
		guess: func(m, s float64) []float64 {
			return []float64{math.Log(1.5), math.Log(1.5), m - 3*s, math.Log(6 * s)}
		},
		build: func(p []float64) Distribution {
			return locScale{inner: distuv.Beta{Alpha: math.Exp(p[0]), Beta: math.Exp(p[1])}, loc: p[2], scale: math.Exp(p[3])}
		},
	},
}

// CandidateResult records the outcome of fitting one family.
type CandidateResult struct {
	Name     string
	RSquared float64
	MSE      float64
	Params   []float64 // amplitude followed by the family's parameters
	Err      error

	dist Distribution
}

// Fit is the outcome of FitDistribution.
type Fit struct {
	Best       *CandidateResult
	Candidates []CandidateResult
}

// FitDistribution fits amplitude*pdf(x) to (xs, ys) for every candidate
// family by least squares and keeps the one with the highest R².
// Candidates that fail are recorded with Err set and excluded.
func FitDistribution(xs, ys []float64) (*Fit, error) {
	if len(xs) != len(ys) {
		return nil, fmt.Errorf("mismatched observations: %d days, %d quantities", len(xs), len(ys))
	}
	fit := &Fit{Candidates: make([]CandidateResult, 0, len(candidates))}
	for _, c := range candidates {
		fit.Candidates = append(fit.Candidates, fitCandidate(c, xs, ys))
	}
	for i := range fit.Candidates {
		r := &fit.Candidates[i]
		if r.Err != nil {
			continue
		}
		if fit.Best == nil || r.RSquared > fit.Best.RSquared {
			fit.Best = r
		}
	}
	if fit.Best == nil {
		return fit, ErrNoFit
	}
	return fit, nil
}

func fitCandidate(c candidate, xs, ys []float64) (res CandidateResult) {
	res.Name = c.name
	defer func() {
		// distuv panics on some parameter combinations reached mid-search
		if r := recover(); r != nil {
			res.Err = fmt.Errorf("%s: %v", c.name, r)
		}
	}()

	if len(xs) < c.nParams+1 {
		res.Err = fmt.Errorf("%s: %d observations cannot determine %d parameters", c.name, len(xs), c.nParams+1)
		return res
	}

	mean, sd := stat.MeanStdDev(xs, ys)
	if math.IsNaN(sd) || sd <= 0 {
		sd = 1
	}
	total := 0.0
	for _, y := range ys {
		total += y
	}
	init := append([]float64{total}, c.guess(mean, sd)...)

	sse := func(p []float64) float64 {
		d := c.build(p[1:])
		s := 0.0
		for i, x := range xs {
			r := ys[i] - p[0]*d.Prob(x)
			s += r * r
		}
		if math.IsNaN(s) || math.IsInf(s, 0) {
			return math.MaxFloat64
		}
		return s
	}

	result, err := optimize.Minimize(optimize.Problem{Func: sse}, init,
		&optimize.Settings{MajorIterations: 5000, FuncEvaluations: 20000}, &optimize.NelderMead{})
	if err != nil && result == nil {
		res.Err = fmt.Errorf("%s: %w", c.name, err)
		return res
	}
	if result.F == math.MaxFloat64 {
		res.Err = fmt.Errorf("%s: objective not finite at optimum", c.name)
		return res
	}

	res.Params = result.X
	res.dist = c.build(result.X[1:])
	res.MSE = result.F / float64(len(xs))
	res.RSquared = rSquared(ys, result.F)
	return res
}

// rSquared is 1 - SSres/SStot; a constant series yields 1 for a perfect
// fit and -Inf otherwise.
func rSquared(ys []float64, sse float64) float64 {
	m := stat.Mean(ys, nil)
	tot := 0.0
	for _, y := range ys {
		tot += (y - m) * (y - m)
	}
	if tot == 0 {
		if sse == 0 {
			return 1
		}
		return math.Inf(-1)
	}
	return 1 - sse/tot
}

// ConditionalMean computes E[X | lo <= X <= hi] for the best fit:
// ∫ x f(x) dx over [lo, hi] divided by F(hi) - F(lo).
// It returns NaN when the fit puts no mass on the interval.
func (f *Fit) ConditionalMean(lo, hi float64) float64 {
	if f.Best == nil {
		return math.NaN()
	}
	if lo == hi {
		return lo
	}
	d := f.Best.dist
	den := d.CDF(hi) - d.CDF(lo)
	if den <= 0 || math.IsNaN(den) {
		return math.NaN()
	}
	num := quad.Fixed(func(x float64) float64 { return x * d.Prob(x) }, lo, hi, 64, nil, 0)
	return num / den
}

// ExpectedDay returns the lead time implied by a delivery profile: the
// conditional mean of the best-fitting distribution over the observed
// day range. When no family fits, or the conditional mean is undefined,
// it falls back to the quantity-weighted mean day. The Fit is returned
// for reporting and may be nil for an empty profile.
func ExpectedDay(days, quantities []float64) (float64, *Fit) {
	if len(days) == 0 {
		return 0, nil
	}
	lo, hi := days[0], days[0]
	for _, d := range days {
		lo = math.Min(lo, d)
		hi = math.Max(hi, d)
	}
	if lo == hi {
		return lo, nil
	}
	fit, err := FitDistribution(days, quantities)
	if err == nil {
		if m := fit.ConditionalMean(lo, hi); !math.IsNaN(m) && !math.IsInf(m, 0) {
			return m, fit
		}
	}
	return stat.Mean(days, quantities), fit
}
