package micego

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/hupe1980/micego/dataset"
)

func testData(t *testing.T) *dataset.Dataset {
	t.Helper()

	nan := math.NaN()
	d, err := dataset.New(
		dataset.NewNumeric("A", []float64{
			1.0, 1.5, 2.0, 2.5, 3.0, 3.5, 4.0, 4.5, 5.0, 5.5,
			6.0, 6.5, 7.0, 7.5, 8.0, 8.5, 9.0, 9.5, 10.0, 10.5,
		}),
		dataset.NewNumeric("B", []float64{
			2.1, nan, 4.2, 5.0, nan, 7.1, 8.3, 9.2, nan, 11.0,
			12.4, 13.1, nan, 15.2, 16.0, 17.3, 18.1, nan, 20.2, 21.0,
		}),
		dataset.NewCategorical("C", []string{
			"x", "y", "x", "y", "x", "y", "x", "y", "x", "y",
			"x", "", "x", "y", "x", "y", "", "y", "x", "y",
		}),
		dataset.NewNumeric("D", []float64{
			0.5, 0.6, 0.7, 0.8, 0.9, 1.0, 1.1, 1.2, 1.3, 1.4,
			1.5, 1.6, 1.7, 1.8, 1.9, 2.0, 2.1, 2.2, 2.3, nan,
		}),
	)
	require.NoError(t, err)

	return d
}

func requireSameResult(t *testing.T, a, b *Mids) {
	t.Helper()

	require.Equal(t, a.Iterations, b.Iterations)
	for _, name := range a.Visit {
		assert.True(t, mat.Equal(a.Imputations[name].Values, b.Imputations[name].Values), "imputations %s", name)
		assert.True(t, mat.Equal(a.Traces[name].Mean, b.Traces[name].Mean), "trace mean %s", name)
		assert.True(t, mat.Equal(a.Traces[name].Variance, b.Traces[name].Variance), "trace variance %s", name)
	}
	assert.Equal(t, a.Events, b.Events)
}

func TestRun(t *testing.T) {
	ctx := context.Background()

	t.Run("Shapes", func(t *testing.T) {
		m, err := Run(ctx, testData(t), WithM(3), WithIter(2), WithSeed(42))
		require.NoError(t, err)

		assert.Equal(t, 3, m.M)
		assert.Equal(t, 2, m.Iterations)

		imp := m.Imputations["B"]
		require.NotNil(t, imp)
		rows, cols := imp.Values.Dims()
		assert.Equal(t, 5, rows)
		assert.Equal(t, 3, cols)

		tr := m.Traces["B"]
		require.NotNil(t, tr)
		rows, cols = tr.Mean.Dims()
		assert.Equal(t, 2, rows)
		assert.Equal(t, 3, cols)
	})

	t.Run("Imputed values come from the observed values", func(t *testing.T) {
		m, err := Run(ctx, testData(t), WithM(3), WithIter(2), WithSeed(42))
		require.NoError(t, err)

		c, _ := m.Data.Column("B")
		observed := map[float64]bool{}
		for _, v := range c.Observed() {
			observed[v] = true
		}
		require.Len(t, observed, 15)

		imp := m.Imputations["B"]
		rows, cols := imp.Values.Dims()
		for i := range rows {
			for j := range cols {
				assert.True(t, observed[imp.Values.At(i, j)], "value %f", imp.Values.At(i, j))
			}
		}
	})

	t.Run("Deterministic under a fixed seed", func(t *testing.T) {
		a, err := Run(ctx, testData(t), WithM(4), WithIter(3), WithSeed(7))
		require.NoError(t, err)
		b, err := Run(ctx, testData(t), WithM(4), WithIter(3), WithSeed(7))
		require.NoError(t, err)
		requireSameResult(t, a, b)
	})

	t.Run("Output independent of threading", func(t *testing.T) {
		serial, err := Run(ctx, testData(t), WithM(4), WithIter(3), WithSeed(7), WithThreads(false))
		require.NoError(t, err)
		parallel, err := Run(ctx, testData(t), WithM(4), WithIter(3), WithSeed(7), WithWorkers(8))
		require.NoError(t, err)
		requireSameResult(t, serial, parallel)
	})

	t.Run("Complete returns a dataset without missing values", func(t *testing.T) {
		m, err := Run(ctx, testData(t), WithM(2), WithIter(2), WithSeed(42))
		require.NoError(t, err)

		done, err := m.Complete(0)
		require.NoError(t, err)
		for _, c := range done.Columns() {
			assert.Zero(t, c.MissingCount(), "column %s", c.Name())
		}
	})

	t.Run("Degenerate column is logged, not fatal", func(t *testing.T) {
		nan := math.NaN()
		d, err := dataset.New(
			dataset.NewNumeric("empty", []float64{nan, nan, nan, nan}),
			dataset.NewNumeric("full", []float64{1, 2, 3, 4}),
		)
		require.NoError(t, err)

		m, err := Run(ctx, d, WithM(2), WithIter(2), WithSeed(1))
		require.NoError(t, err)
		require.NotEmpty(t, m.Events)
		assert.Equal(t, "empty", m.Events[0].Column)
	})

	t.Run("Configuration errors are fatal", func(t *testing.T) {
		d := testData(t)

		_, err := Run(ctx, d, WithM(0))
		assert.ErrorIs(t, err, ErrInvalidM)

		_, err = Run(ctx, d, WithIter(-1))
		assert.ErrorIs(t, err, ErrInvalidIter)

		_, err = Run(ctx, d, WithMethods(map[string]Method{"bogus": MethodPMM}))
		var uc *ErrUnknownColumn
		assert.ErrorAs(t, err, &uc)

		_, err = Run(ctx, d, WithPredictorMatrix(NewPredictorMatrix([]string{"A", "B"})))
		var dm *ErrDimensionMismatch
		assert.ErrorAs(t, err, &dm)
	})

	t.Run("Custom visit sequence", func(t *testing.T) {
		m, err := Run(ctx, testData(t), WithM(2), WithIter(1), WithSeed(3),
			WithVisitSequence([]string{"B", "D", "C"}))
		require.NoError(t, err)
		assert.Equal(t, []string{"B", "D", "C"}, m.Visit)
	})
}

func TestResume(t *testing.T) {
	ctx := context.Background()

	t.Run("Resume equals one long run", func(t *testing.T) {
		long, err := Run(ctx, testData(t), WithM(3), WithIter(10), WithSeed(11), WithThreads(false))
		require.NoError(t, err)

		short, err := Run(ctx, testData(t), WithM(3), WithIter(5), WithSeed(11), WithThreads(false))
		require.NoError(t, err)

		resumed, err := Resume(ctx, short, WithIter(5), WithThreads(false))
		require.NoError(t, err)

		requireSameResult(t, long, resumed)
		assert.Equal(t, 5, short.Iterations, "prior state must stay untouched")
	})

	t.Run("Traces accumulate across resumes", func(t *testing.T) {
		m, err := Run(ctx, testData(t), WithM(2), WithIter(3), WithSeed(2))
		require.NoError(t, err)

		resumed, err := Resume(ctx, m, WithIter(2))
		require.NoError(t, err)

		assert.Equal(t, 5, resumed.Iterations)
		assert.Equal(t, 5, resumed.Traces["B"].Iterations())

		// The first three rows are the prior run's rows, verbatim.
		for row := range 3 {
			for j := range 2 {
				assert.Equal(t, m.Traces["B"].Mean.At(row, j), resumed.Traces["B"].Mean.At(row, j))
			}
		}
	})

	t.Run("Inherited configuration cannot be re-specified", func(t *testing.T) {
		m, err := Run(ctx, testData(t), WithM(2), WithIter(1), WithSeed(2))
		require.NoError(t, err)

		for _, opt := range []Option{
			WithM(3),
			WithSeed(9),
			WithMethods(map[string]Method{"B": MethodPMM}),
			WithPredictorMatrix(DefaultPredictorMatrix(m.Data)),
			WithVisitSequence([]string{"B", "D", "C"}),
		} {
			_, err := Resume(ctx, m, opt)
			assert.ErrorIs(t, err, ErrResumeConfig)
		}
	})
}
