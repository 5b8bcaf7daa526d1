package chain

import (
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Trace holds the convergence diagnostics of one column: the mean and the
// variance of the column's current imputed values at the end of each
// iteration, per imputation copy. Both matrices are iterations×m. Rows from
// prior runs are preserved verbatim when a run is resumed.
type Trace struct {
	Mean     *mat.Dense
	Variance *mat.Dense
}

// newTrace allocates a trace sized for the given number of iterations.
func newTrace(iterations, m int) *Trace {
	return &Trace{
		Mean:     mat.NewDense(iterations, m, nil),
		Variance: mat.NewDense(iterations, m, nil),
	}
}

// Clone returns a deep copy.
func (t *Trace) Clone() *Trace {
	return &Trace{
		Mean:     mat.DenseCopyOf(t.Mean),
		Variance: mat.DenseCopyOf(t.Variance),
	}
}

// Iterations returns the number of recorded iteration rows.
func (t *Trace) Iterations() int {
	r, _ := t.Mean.Dims()
	return r
}

// extended returns a trace with capacity for additional iteration rows, the
// existing rows copied verbatim into the prefix.
func (t *Trace) extended(addRows int) *Trace {
	rows, m := t.Mean.Dims()
	out := newTrace(rows+addRows, m)
	out.Mean.Slice(0, rows, 0, m).(*mat.Dense).Copy(t.Mean)
	out.Variance.Slice(0, rows, 0, m).(*mat.Dense).Copy(t.Variance)
	return out
}

// record computes the mean and variance of each copy's current imputed values
// and writes them into the given iteration row. A single imputed value has no
// sample variance; zero is recorded instead of NaN so traces stay plottable.
func (t *Trace) record(row int, imp *Imputation) {
	k, m := imp.Values.Dims()
	vals := make([]float64, k)
	for j := range m {
		mat.Col(vals, j, imp.Values)
		mean, variance := stat.MeanVariance(vals, nil)
		if k < 2 {
			variance = 0
		}
		t.Mean.Set(row, j, mean)
		t.Variance.Set(row, j, variance)
	}
}

// ensureTraces guarantees every visited column with missing rows has a trace
// with capacity for target iteration rows, extending resumed traces in place.
func (m *Mids) ensureTraces(target int) {
	for _, name := range m.Visit {
		imp := m.Imputations[name]
		if imp == nil || imp.Values == nil {
			continue
		}
		tr, ok := m.Traces[name]
		switch {
		case !ok:
			m.Traces[name] = newTrace(target, m.M)
		case tr.Iterations() < target:
			m.Traces[name] = tr.extended(target - tr.Iterations())
		}
	}
}
