package chain

import (
	"fmt"

	"github.com/hupe1980/micego/dataset"
)

// PredictorMatrix declares, for every column, which other columns serve as
// covariates when that column is imputed. Row i lists the predictor set of
// column i. The matrix is immutable once a run starts.
type PredictorMatrix struct {
	names []string
	index map[string]int
	rows  [][]bool
}

// NewPredictorMatrix creates an empty predictor matrix over the given columns.
func NewPredictorMatrix(names []string) *PredictorMatrix {
	p := &PredictorMatrix{
		names: append([]string(nil), names...),
		index: make(map[string]int, len(names)),
		rows:  make([][]bool, len(names)),
	}
	for i, n := range names {
		p.index[n] = i
		p.rows[i] = make([]bool, len(names))
	}
	return p
}

// NewPredictorMatrixFromRows creates a predictor matrix from raw rows.
// rows[i][j] means column j predicts column i.
func NewPredictorMatrixFromRows(names []string, rows [][]bool) (*PredictorMatrix, error) {
	if len(rows) != len(names) {
		return nil, &ErrDimensionMismatch{What: "predictor matrix", Expected: len(names), Actual: len(rows)}
	}
	p := NewPredictorMatrix(names)
	for i, row := range rows {
		if len(row) != len(names) {
			return nil, &ErrDimensionMismatch{What: "predictor matrix row", Expected: len(names), Actual: len(row)}
		}
		copy(p.rows[i], row)
	}
	return p, nil
}

// DefaultPredictorMatrix builds the default predictor matrix for a dataset:
// every column predicts every other column, diagonal zero.
func DefaultPredictorMatrix(d *dataset.Dataset) *PredictorMatrix {
	p := NewPredictorMatrix(d.ColumnNames())
	for i := range p.rows {
		for j := range p.rows[i] {
			p.rows[i][j] = i != j
		}
	}
	return p
}

// Size returns the number of columns the matrix is defined over.
func (p *PredictorMatrix) Size() int { return len(p.names) }

// Names returns the column names in matrix order.
func (p *PredictorMatrix) Names() []string { return append([]string(nil), p.names...) }

// Uses reports whether predictor is part of target's predictor set.
func (p *PredictorMatrix) Uses(target, predictor string) bool {
	ti, ok := p.index[target]
	if !ok {
		return false
	}
	pi, ok := p.index[predictor]
	if !ok {
		return false
	}
	return p.rows[ti][pi]
}

// SetUses includes or excludes predictor from target's predictor set.
func (p *PredictorMatrix) SetUses(target, predictor string, use bool) error {
	ti, ok := p.index[target]
	if !ok {
		return &ErrUnknownColumn{Column: target, Where: "predictor matrix"}
	}
	pi, ok := p.index[predictor]
	if !ok {
		return &ErrUnknownColumn{Column: predictor, Where: "predictor matrix"}
	}
	p.rows[ti][pi] = use
	return nil
}

// Predictors returns target's predictor set in matrix column order.
func (p *PredictorMatrix) Predictors(target string) []string {
	ti, ok := p.index[target]
	if !ok {
		return nil
	}
	var out []string
	for j, use := range p.rows[ti] {
		if use {
			out = append(out, p.names[j])
		}
	}
	return out
}

// Row returns a copy of target's raw predictor row.
func (p *PredictorMatrix) Row(target string) ([]bool, error) {
	ti, ok := p.index[target]
	if !ok {
		return nil, &ErrUnknownColumn{Column: target, Where: "predictor matrix"}
	}
	return append([]bool(nil), p.rows[ti]...), nil
}

// Rows returns a copy of all raw rows in matrix order.
func (p *PredictorMatrix) Rows() [][]bool {
	out := make([][]bool, len(p.rows))
	for i, row := range p.rows {
		out[i] = append([]bool(nil), row...)
	}
	return out
}

// Clone returns a deep copy of the matrix.
func (p *PredictorMatrix) Clone() *PredictorMatrix {
	c := NewPredictorMatrix(p.names)
	for i, row := range p.rows {
		copy(c.rows[i], row)
	}
	return c
}

// validate checks that the matrix covers exactly the dataset's columns.
func (p *PredictorMatrix) validate(d *dataset.Dataset) error {
	if len(p.names) != d.NumColumns() {
		return &ErrDimensionMismatch{What: "predictor matrix", Expected: d.NumColumns(), Actual: len(p.names)}
	}
	for _, n := range p.names {
		if _, ok := d.Column(n); !ok {
			return &ErrUnknownColumn{Column: n, Where: "predictor matrix"}
		}
	}
	return nil
}

// String renders the matrix for diagnostics.
func (p *PredictorMatrix) String() string {
	s := "PredictorMatrix{"
	for i, n := range p.names {
		if i > 0 {
			s += ", "
		}
		s += fmt.Sprintf("%s<-%v", n, p.Predictors(n))
	}
	return s + "}"
}
