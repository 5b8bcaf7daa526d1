package pmm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/hupe1980/micego/util"
)

// design builds an intercept + single predictor design matrix.
func design(xs []float64) *mat.Dense {
	d := mat.NewDense(len(xs), 2, nil)
	for i, x := range xs {
		d.Set(i, 0, 1)
		d.Set(i, 1, x)
	}
	return d
}

func TestModel(t *testing.T) {
	t.Run("New", func(t *testing.T) {
		m, err := New()
		require.NoError(t, err)
		assert.Equal(t, DefaultOptions.Donors, m.Donors())

		m, err = New(func(o *Options) { o.Donors = 3 })
		require.NoError(t, err)
		assert.Equal(t, 3, m.Donors())

		_, err = New(func(o *Options) { o.Donors = 0 })
		require.Error(t, err)
	})

	t.Run("ImputedValuesAreObservedValues", func(t *testing.T) {
		m, err := New()
		require.NoError(t, err)

		yObs := []float64{2.1, 4.2, 5.9, 8.1, 10.0, 11.8}
		xObs := design([]float64{1, 2, 3, 4, 5, 6})
		xMis := design([]float64{2.5, 4.5})

		out, err := m.Impute(util.NewRNG(1), xObs, xMis, yObs)
		require.NoError(t, err)
		require.Len(t, out, 2)
		for _, v := range out {
			assert.Contains(t, yObs, v)
		}
	})

	t.Run("SingleDonorPicksNearestPrediction", func(t *testing.T) {
		m, err := New(func(o *Options) { o.Donors = 1 })
		require.NoError(t, err)

		// Perfect line y = 2x, so predictions are exact and the single donor
		// for x=3.1 must be the observation at x=3.
		yObs := []float64{2, 4, 6, 8, 10}
		xObs := design([]float64{1, 2, 3, 4, 5})
		xMis := design([]float64{3.1})

		out, err := m.Impute(util.NewRNG(1), xObs, xMis, yObs)
		require.NoError(t, err)
		assert.Equal(t, []float64{6}, out)
	})

	t.Run("DeterministicForSeed", func(t *testing.T) {
		m, err := New()
		require.NoError(t, err)

		yObs := []float64{1, 3, 2, 5, 4, 7, 6, 9}
		xObs := design([]float64{1, 2, 3, 4, 5, 6, 7, 8})
		xMis := design([]float64{1.5, 3.5, 6.5})

		a, err := m.Impute(util.NewRNG(42), xObs, xMis, yObs)
		require.NoError(t, err)
		b, err := m.Impute(util.NewRNG(42), xObs, xMis, yObs)
		require.NoError(t, err)
		assert.Equal(t, a, b)
	})

	t.Run("DonorPoolClampedToObservations", func(t *testing.T) {
		m, err := New(func(o *Options) { o.Donors = 50 })
		require.NoError(t, err)

		yObs := []float64{1, 2, 3}
		out, err := m.Impute(util.NewRNG(1), design([]float64{1, 2, 3}), design([]float64{1.5}), yObs)
		require.NoError(t, err)
		assert.Contains(t, yObs, out[0])
	})

	t.Run("TooFewObservations", func(t *testing.T) {
		m, err := New()
		require.NoError(t, err)

		_, err = m.Impute(util.NewRNG(1), design([]float64{1}), design([]float64{2}), []float64{1})
		assert.ErrorIs(t, err, ErrTooFewObservations)
	})

	t.Run("RankDeficientWhenUnderdetermined", func(t *testing.T) {
		m, err := New()
		require.NoError(t, err)

		// Two rows, three parameters.
		xObs := mat.NewDense(2, 3, []float64{1, 1, 2, 1, 2, 4})
		xMis := mat.NewDense(1, 3, []float64{1, 3, 6})

		_, err = m.Impute(util.NewRNG(1), xObs, xMis, []float64{1, 2})
		assert.ErrorIs(t, err, ErrRankDeficient)
	})

	t.Run("DesignWidthMismatch", func(t *testing.T) {
		m, err := New()
		require.NoError(t, err)

		_, err = m.Impute(util.NewRNG(1), design([]float64{1, 2}), mat.NewDense(1, 3, nil), []float64{1, 2})
		require.Error(t, err)
	})

	t.Run("NoMissingRowsIsANoop", func(t *testing.T) {
		m, err := New()
		require.NoError(t, err)

		out, err := m.Impute(util.NewRNG(1), design([]float64{1, 2}), nil, []float64{1, 2})
		require.NoError(t, err)
		assert.Empty(t, out)
	})
}

func TestNearestDonors(t *testing.T) {
	t.Run("OrdersByDistance", func(t *testing.T) {
		pool := make([]int, 4)
		nearestDonors(pool, []float64{10, 1, 5, 3}, 2.9)
		assert.Equal(t, []int{3, 1, 2, 0}, pool)
	})

	t.Run("TiesBreakTowardLowerRow", func(t *testing.T) {
		pool := make([]int, 3)
		nearestDonors(pool, []float64{4, 2, 4}, 3)
		// Rows 0, 1 and 2 are all at distance 1.
		assert.Equal(t, []int{0, 1, 2}, pool)
	})
}
