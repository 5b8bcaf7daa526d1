package chain

import (
	"context"
	"math"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/hupe1980/micego/dataset"
)

func runChain(t *testing.T, seed uint64, iterations, workers int) *Mids {
	t.Helper()

	m, err := NewMids(testDataset(t), Config{M: 3, Seed: seed})
	require.NoError(t, err)

	r, err := NewRunner(m, func(o *RunnerOptions) {
		o.Workers = workers
	})
	require.NoError(t, err)
	require.NoError(t, r.Run(context.Background(), iterations))

	return m
}

func requireEqualMids(t *testing.T, a, b *Mids) {
	t.Helper()

	require.Equal(t, a.Iterations, b.Iterations)
	require.Equal(t, a.Visit, b.Visit)
	for _, name := range a.Visit {
		assert.True(t, mat.Equal(a.Imputations[name].Values, b.Imputations[name].Values), "imputations %s", name)
		assert.True(t, mat.Equal(a.Traces[name].Mean, b.Traces[name].Mean), "trace mean %s", name)
		assert.True(t, mat.Equal(a.Traces[name].Variance, b.Traces[name].Variance), "trace variance %s", name)
	}
	assert.Equal(t, a.Events, b.Events)
}

func TestRunner(t *testing.T) {
	t.Run("Run produces traces and complete imputations", func(t *testing.T) {
		m := runChain(t, 42, 4, 2)

		assert.Equal(t, 4, m.Iterations)
		for _, name := range m.Visit {
			tr := m.Traces[name]
			require.NotNil(t, tr, "trace %s", name)
			assert.Equal(t, 4, tr.Iterations())

			_, cols := tr.Mean.Dims()
			assert.Equal(t, 3, cols)
		}

		imp := m.Imputations["age"]
		for i := range len(imp.Rows) {
			for j := range m.M {
				assert.False(t, math.IsNaN(imp.Values.At(i, j)))
			}
		}
	})

	t.Run("Imputed values are observed values", func(t *testing.T) {
		m := runChain(t, 42, 3, 1)

		c, _ := m.Data.Column("income")
		observed := map[float64]bool{}
		for _, v := range c.Observed() {
			observed[v] = true
		}

		imp := m.Imputations["income"]
		rows, cols := imp.Values.Dims()
		for i := range rows {
			for j := range cols {
				assert.True(t, observed[imp.Values.At(i, j)], "value %f", imp.Values.At(i, j))
			}
		}
	})

	t.Run("Deterministic under a fixed seed", func(t *testing.T) {
		a := runChain(t, 123, 5, 1)
		b := runChain(t, 123, 5, 1)
		requireEqualMids(t, a, b)
	})

	t.Run("Output independent of worker count", func(t *testing.T) {
		serial := runChain(t, 99, 5, 1)
		parallel := runChain(t, 99, 5, 8)
		requireEqualMids(t, serial, parallel)
	})

	t.Run("Resume equals one long run", func(t *testing.T) {
		long := runChain(t, 7, 10, 1)

		short := runChain(t, 7, 5, 1)
		resumed, err := short.Extend()
		require.NoError(t, err)

		r, err := NewRunner(resumed, func(o *RunnerOptions) { o.Workers = 1 })
		require.NoError(t, err)
		require.NoError(t, r.Run(context.Background(), 5))

		requireEqualMids(t, long, resumed)
		assert.Equal(t, 5, short.Iterations, "prior state must stay untouched")
	})

	t.Run("Zero iterations is a no-op", func(t *testing.T) {
		m, err := NewMids(testDataset(t), Config{M: 2, Seed: 1})
		require.NoError(t, err)

		r, err := NewRunner(m)
		require.NoError(t, err)
		require.NoError(t, r.Run(context.Background(), 0))

		assert.Equal(t, 0, m.Iterations)
		assert.Empty(t, m.Traces)
	})

	t.Run("Negative iterations", func(t *testing.T) {
		m, err := NewMids(testDataset(t), Config{M: 2, Seed: 1})
		require.NoError(t, err)

		r, err := NewRunner(m)
		require.NoError(t, err)
		require.ErrorIs(t, r.Run(context.Background(), -1), ErrInvalidIterations)
	})
}

func TestRunnerDegeneracies(t *testing.T) {
	t.Run("Single observed value falls back to the marginal", func(t *testing.T) {
		nan := math.NaN()
		d, err := dataset.New(
			dataset.NewNumeric("sparse", []float64{5, nan, nan, nan, nan, nan}),
			dataset.NewNumeric("full", []float64{1, 2, 3, 4, 5, 6}),
		)
		require.NoError(t, err)

		m, err := NewMids(d, Config{M: 2, Seed: 3})
		require.NoError(t, err)

		r, err := NewRunner(m)
		require.NoError(t, err)
		require.NoError(t, r.Run(context.Background(), 2))

		require.NotEmpty(t, m.Events)
		ev := m.Events[0]
		assert.Equal(t, "sparse", ev.Column)
		assert.Equal(t, -1, ev.Copy)
		assert.Equal(t, 1, ev.Iteration)

		// The single observed value is the whole marginal.
		imp := m.Imputations["sparse"]
		rows, cols := imp.Values.Dims()
		for i := range rows {
			for j := range cols {
				assert.Equal(t, 5.0, imp.Values.At(i, j))
			}
		}
	})

	t.Run("Empty predictor set falls back to the marginal", func(t *testing.T) {
		nan := math.NaN()
		d, err := dataset.New(
			dataset.NewNumeric("a", []float64{1, 2, nan, 4, 5, 6}),
			dataset.NewNumeric("b", []float64{2, 4, 6, 8, 10, 12}),
		)
		require.NoError(t, err)

		p := NewPredictorMatrix([]string{"a", "b"})
		m, err := NewMids(d, Config{M: 2, Seed: 3, Predictors: p})
		require.NoError(t, err)

		r, err := NewRunner(m)
		require.NoError(t, err)
		require.NoError(t, r.Run(context.Background(), 1))

		require.NotEmpty(t, m.Events)
		assert.Equal(t, "a", m.Events[0].Column)
		assert.Equal(t, -1, m.Events[0].Copy)
	})

	t.Run("Rank deficiency falls back per copy", func(t *testing.T) {
		// A constant predictor makes the design collinear with the intercept.
		nan := math.NaN()
		d, err := dataset.New(
			dataset.NewNumeric("y", []float64{1, 2, nan, 4, 5, 6}),
			dataset.NewNumeric("flat", []float64{3, 3, 3, 3, 3, 3}),
		)
		require.NoError(t, err)

		m, err := NewMids(d, Config{M: 2, Seed: 3})
		require.NoError(t, err)

		r, err := NewRunner(m, func(o *RunnerOptions) { o.Workers = 1 })
		require.NoError(t, err)
		require.NoError(t, r.Run(context.Background(), 1))

		require.Len(t, m.Events, 2)
		assert.Equal(t, 0, m.Events[0].Copy)
		assert.Equal(t, 1, m.Events[1].Copy)
	})
}

type countingMetrics struct {
	iterations atomic.Int64
	columns    atomic.Int64
	fallbacks  atomic.Int64
}

func (c *countingMetrics) RecordIteration(int, time.Duration) { c.iterations.Add(1) }

func (c *countingMetrics) RecordColumnUpdate(string, int, time.Duration) { c.columns.Add(1) }

func (c *countingMetrics) RecordFallback(string) { c.fallbacks.Add(1) }

func TestRunnerObservability(t *testing.T) {
	t.Run("Metrics", func(t *testing.T) {
		m, err := NewMids(testDataset(t), Config{M: 2, Seed: 1})
		require.NoError(t, err)

		mc := &countingMetrics{}
		r, err := NewRunner(m, func(o *RunnerOptions) { o.Metrics = mc })
		require.NoError(t, err)
		require.NoError(t, r.Run(context.Background(), 3))

		assert.Equal(t, int64(3), mc.iterations.Load())
		assert.Equal(t, int64(9), mc.columns.Load())
	})

	t.Run("Progress", func(t *testing.T) {
		m, err := NewMids(testDataset(t), Config{M: 2, Seed: 1})
		require.NoError(t, err)

		var calls []string
		r, err := NewRunner(m, func(o *RunnerOptions) {
			o.Progress = func(iteration, total int, column string) {
				assert.Equal(t, 2, total)
				calls = append(calls, column)
			}
		})
		require.NoError(t, err)
		require.NoError(t, r.Run(context.Background(), 2))

		assert.Len(t, calls, 6)
	})
}

func TestDesignBuilder(t *testing.T) {
	d := testDataset(t)
	m, err := NewMids(d, Config{M: 1, Seed: 2})
	require.NoError(t, err)

	t.Run("Numeric and categorical widths", func(t *testing.T) {
		b := m.newDesignBuilder([]string{"income", "region", "score"}, 0)
		// intercept + income + (2 levels - 1) + score
		assert.Equal(t, 4, b.width)
	})

	t.Run("Dummy encoding against the first level", func(t *testing.T) {
		b := m.newDesignBuilder([]string{"region"}, 0)
		x := b.build([]int{0, 1})
		require.NotNil(t, x)

		// Row 0 is "north" (reference level), row 1 is "south".
		assert.Equal(t, 1.0, x.At(0, 0))
		assert.Equal(t, 0.0, x.At(0, 1))
		assert.Equal(t, 1.0, x.At(1, 1))
	})

	t.Run("Empty rows yield nil", func(t *testing.T) {
		b := m.newDesignBuilder([]string{"income"}, 0)
		assert.Nil(t, b.build(nil))
	})
}
