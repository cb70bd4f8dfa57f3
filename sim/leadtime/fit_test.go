package leadtime

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat/distuv"
)

func TestFitDistribution_SymmetricProfile_ConditionalMeanAtCentre(t *testing.T) {
	// GIVEN deliveries shaped like a normal curve centred on day 5
	n := distuv.Normal{Mu: 5, Sigma: 1.5}
	var days, qty []float64
	for d := 1.0; d <= 9; d++ {
		days = append(days, d)
		qty = append(qty, 100*n.Prob(d))
	}

	// WHEN the profile is fitted
	fit, err := FitDistribution(days, qty)
	require.NoError(t, err)

	// THEN a well-fitting family is selected and its conditional mean is ~5
	require.NotNil(t, fit.Best)
	assert.Greater(t, fit.Best.RSquared, 0.95)
	assert.InDelta(t, 5.0, fit.ConditionalMean(1, 9), 0.25)
	assert.Len(t, fit.Candidates, len(candidates))
}

func TestFitDistribution_TooFewObservations_AllCandidatesFail(t *testing.T) {
	fit, err := FitDistribution([]float64{3, 5}, []float64{10, 30})
	assert.ErrorIs(t, err, ErrNoFit)
	for _, c := range fit.Candidates {
		assert.Error(t, c.Err, "candidate %s should record its failure", c.Name)
	}
}

func TestFitDistribution_MismatchedInput(t *testing.T) {
	_, err := FitDistribution([]float64{1, 2}, []float64{1})
	assert.Error(t, err)
}

func TestExpectedDay_FallsBackToWeightedMean(t *testing.T) {
	// GIVEN two shipments (too few to fit any family)
	got, _ := ExpectedDay([]float64{3, 5}, []float64{10, 30})

	// THEN the quantity-weighted mean day is used
	assert.InDelta(t, 4.5, got, 1e-9)
}

func TestExpectedDay_SingleDay(t *testing.T) {
	got, fit := ExpectedDay([]float64{4, 4}, []float64{10, 5})
	assert.Equal(t, 4.0, got)
	assert.Nil(t, fit)

	got, _ = ExpectedDay(nil, nil)
	assert.Equal(t, 0.0, got)
}

func TestConditionalMean_NoBest(t *testing.T) {
	f := &Fit{}
	if !math.IsNaN(f.ConditionalMean(1, 2)) {
		t.Error("expected NaN without a best fit")
	}
}
