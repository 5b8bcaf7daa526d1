package chain

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/hupe1980/micego/dataset"
)

// designBuilder assembles regression design matrices for one target column and
// one imputation copy. Numeric predictors contribute one column each;
// categorical predictors are dummy-encoded against their first level, so a
// predictor with L levels contributes L-1 indicator columns. An intercept
// column of ones leads the design.
type designBuilder struct {
	predictors []dataset.Column
	completed  [][]float64 // per predictor, full-length model-space values
	width      int
}

func (m *Mids) newDesignBuilder(predictors []string, copy int) *designBuilder {
	b := &designBuilder{width: 1}
	for _, name := range predictors {
		c, _ := m.Data.Column(name)
		b.predictors = append(b.predictors, c)
		b.completed = append(b.completed, m.completedColumn(c, copy))
		b.width += predictorWidth(c)
	}
	return b
}

func predictorWidth(c dataset.Column) int {
	if cc, ok := c.(*dataset.CategoricalColumn); ok {
		if n := cc.NumLevels(); n > 1 {
			return n - 1
		}
		return 0
	}
	return 1
}

// build returns the design matrix over the given rows, or nil when rows is
// empty.
func (b *designBuilder) build(rows []int) *mat.Dense {
	if len(rows) == 0 {
		return nil
	}
	x := mat.NewDense(len(rows), b.width, nil)
	for i, row := range rows {
		x.Set(i, 0, 1)
		col := 1
		for p, c := range b.predictors {
			v := b.completed[p][row]
			if cc, ok := c.(*dataset.CategoricalColumn); ok {
				n := cc.NumLevels()
				if n <= 1 {
					continue
				}
				code := int(math.Round(v))
				for l := 1; l < n; l++ {
					if code == l {
						x.Set(i, col, 1)
					}
					col++
				}
				continue
			}
			x.Set(i, col, v)
			col++
		}
	}
	return x
}
