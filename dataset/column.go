package dataset

import (
	"fmt"
	"math"

	"github.com/RoaringBitmap/roaring/v2"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/hupe1980/micego/util"
)

// Kind declares the element type of a column.
type Kind uint8

const (
	// KindNumeric marks a column of float64 values.
	KindNumeric Kind = iota

	// KindCategorical marks a column of values drawn from a finite level set.
	KindCategorical
)

// String returns a human-readable kind name.
func (k Kind) String() string {
	switch k {
	case KindNumeric:
		return "numeric"
	case KindCategorical:
		return "categorical"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Column is the capability interface shared by all column variants.
//
// Model-space values are float64: the raw value for numeric columns, the
// integer level code for categorical columns. Float is undefined at missing
// rows; callers must consult the missingness mask first.
type Column interface {
	// Name returns the column name, unique within a Dataset.
	Name() string

	// Kind returns the declared element kind.
	Kind() Kind

	// Len returns the number of rows.
	Len() int

	// IsMissing reports whether the value at row is unknown.
	IsMissing(row int) bool

	// MissingCount returns the number of missing rows.
	MissingCount() int

	// MissingRows returns the missing row indices in ascending order.
	MissingRows() []int

	// ObservedRows returns the observed row indices in ascending order.
	ObservedRows() []int

	// Observed returns the model-space values at the observed rows, in
	// ascending row order.
	Observed() []float64

	// Float returns the model-space value at row.
	Float(row int) float64

	// DrawMarginal draws n model-space values from the column's own marginal:
	// a bootstrap of the observed values when any exist, otherwise the
	// column's declared fallback distribution.
	DrawMarginal(rng *util.RNG, n int) ([]float64, error)
}

// NumericColumn is a column of float64 values.
type NumericColumn struct {
	name    string
	values  []float64
	missing *roaring.Bitmap
}

var _ Column = (*NumericColumn)(nil)

// NewNumeric creates a numeric column. NaN values are treated as missing.
func NewNumeric(name string, values []float64) *NumericColumn {
	missing := roaring.New()
	for i, v := range values {
		if math.IsNaN(v) {
			missing.Add(uint32(i))
		}
	}
	return &NumericColumn{
		name:    name,
		values:  append([]float64(nil), values...),
		missing: missing,
	}
}

// NewNumericMasked creates a numeric column with an explicit missingness mask.
// Values at masked rows are ignored; NaN values are additionally masked.
func NewNumericMasked(name string, values []float64, missingRows []int) *NumericColumn {
	c := NewNumeric(name, values)
	for _, row := range missingRows {
		c.missing.Add(uint32(row))
	}
	return c
}

// Name returns the column name.
func (c *NumericColumn) Name() string { return c.name }

// Kind returns KindNumeric.
func (c *NumericColumn) Kind() Kind { return KindNumeric }

// Len returns the number of rows.
func (c *NumericColumn) Len() int { return len(c.values) }

// IsMissing reports whether the value at row is unknown.
func (c *NumericColumn) IsMissing(row int) bool { return c.missing.Contains(uint32(row)) }

// MissingCount returns the number of missing rows.
func (c *NumericColumn) MissingCount() int { return int(c.missing.GetCardinality()) }

// MissingRows returns the missing row indices in ascending order.
func (c *NumericColumn) MissingRows() []int { return bitmapRows(c.missing) }

// ObservedRows returns the observed row indices in ascending order.
func (c *NumericColumn) ObservedRows() []int { return observedRows(c.missing, len(c.values)) }

// Observed returns the values at the observed rows.
func (c *NumericColumn) Observed() []float64 {
	out := make([]float64, 0, len(c.values)-c.MissingCount())
	for i, v := range c.values {
		if !c.missing.Contains(uint32(i)) {
			out = append(out, v)
		}
	}
	return out
}

// Float returns the value at row.
func (c *NumericColumn) Float(row int) float64 { return c.values[row] }

// DrawMarginal draws n values from the observed marginal, falling back to a
// standard normal when the column has no observed values at all.
func (c *NumericColumn) DrawMarginal(rng *util.RNG, n int) ([]float64, error) {
	if obs := c.Observed(); len(obs) > 0 {
		return rng.Bootstrap(obs, n), nil
	}
	norm := distuv.Normal{Mu: 0, Sigma: 1, Src: rng}
	out := make([]float64, n)
	for i := range out {
		out[i] = norm.Rand()
	}
	return out, nil
}

// CategoricalColumn is a column of values drawn from a finite level set.
// Values are stored as integer level codes; code -1 marks a missing row.
type CategoricalColumn struct {
	name    string
	codes   []int
	levels  []string
	missing *roaring.Bitmap
}

var _ Column = (*CategoricalColumn)(nil)

// NewCategorical creates a categorical column from string values. The empty
// string is treated as missing. Levels are inferred in order of first
// appearance.
func NewCategorical(name string, values []string) *CategoricalColumn {
	var levels []string
	index := make(map[string]int)
	codes := make([]int, len(values))
	missing := roaring.New()

	for i, v := range values {
		if v == "" {
			codes[i] = -1
			missing.Add(uint32(i))
			continue
		}
		code, ok := index[v]
		if !ok {
			code = len(levels)
			index[v] = code
			levels = append(levels, v)
		}
		codes[i] = code
	}

	return &CategoricalColumn{name: name, codes: codes, levels: levels, missing: missing}
}

// NewCategoricalLevels creates a categorical column with a declared level set.
// Declaring levels up front allows a column with zero observed values to still
// draw fallback values from its domain. A value outside the declared levels is
// an error.
func NewCategoricalLevels(name string, values []string, levels []string) (*CategoricalColumn, error) {
	index := make(map[string]int, len(levels))
	for i, l := range levels {
		if _, dup := index[l]; dup {
			return nil, fmt.Errorf("dataset: column %q: duplicate level %q", name, l)
		}
		index[l] = i
	}

	codes := make([]int, len(values))
	missing := roaring.New()
	for i, v := range values {
		if v == "" {
			codes[i] = -1
			missing.Add(uint32(i))
			continue
		}
		code, ok := index[v]
		if !ok {
			return nil, fmt.Errorf("dataset: column %q: value %q not in declared levels", name, v)
		}
		codes[i] = code
	}

	return &CategoricalColumn{
		name:    name,
		codes:   codes,
		levels:  append([]string(nil), levels...),
		missing: missing,
	}, nil
}

// NewCategoricalCodes creates a categorical column directly from level codes.
// Code -1 marks a missing row; any other code must index into levels.
func NewCategoricalCodes(name string, codes []int, levels []string) (*CategoricalColumn, error) {
	missing := roaring.New()
	for i, code := range codes {
		if code == -1 {
			missing.Add(uint32(i))
			continue
		}
		if code < 0 || code >= len(levels) {
			return nil, fmt.Errorf("dataset: column %q: code %d out of range [0,%d)", name, code, len(levels))
		}
	}
	return &CategoricalColumn{
		name:    name,
		codes:   append([]int(nil), codes...),
		levels:  append([]string(nil), levels...),
		missing: missing,
	}, nil
}

// Name returns the column name.
func (c *CategoricalColumn) Name() string { return c.name }

// Kind returns KindCategorical.
func (c *CategoricalColumn) Kind() Kind { return KindCategorical }

// Len returns the number of rows.
func (c *CategoricalColumn) Len() int { return len(c.codes) }

// IsMissing reports whether the value at row is unknown.
func (c *CategoricalColumn) IsMissing(row int) bool { return c.missing.Contains(uint32(row)) }

// MissingCount returns the number of missing rows.
func (c *CategoricalColumn) MissingCount() int { return int(c.missing.GetCardinality()) }

// MissingRows returns the missing row indices in ascending order.
func (c *CategoricalColumn) MissingRows() []int { return bitmapRows(c.missing) }

// ObservedRows returns the observed row indices in ascending order.
func (c *CategoricalColumn) ObservedRows() []int { return observedRows(c.missing, len(c.codes)) }

// Observed returns the level codes at the observed rows as float64.
func (c *CategoricalColumn) Observed() []float64 {
	out := make([]float64, 0, len(c.codes)-c.MissingCount())
	for i, code := range c.codes {
		if !c.missing.Contains(uint32(i)) {
			out = append(out, float64(code))
		}
	}
	return out
}

// Float returns the level code at row as float64.
func (c *CategoricalColumn) Float(row int) float64 { return float64(c.codes[row]) }

// Code returns the level code at row, or -1 for a missing row.
func (c *CategoricalColumn) Code(row int) int { return c.codes[row] }

// Levels returns the declared level set.
func (c *CategoricalColumn) Levels() []string { return append([]string(nil), c.levels...) }

// NumLevels returns the size of the level set.
func (c *CategoricalColumn) NumLevels() int { return len(c.levels) }

// Level returns the level string for a model-space code.
func (c *CategoricalColumn) Level(code int) string { return c.levels[code] }

// DrawMarginal draws n level codes from the observed marginal, falling back to
// a uniform draw over the declared levels when nothing is observed. A column
// with zero observed values and zero declared levels has no domain to draw
// from, which is an error.
func (c *CategoricalColumn) DrawMarginal(rng *util.RNG, n int) ([]float64, error) {
	if obs := c.Observed(); len(obs) > 0 {
		return rng.Bootstrap(obs, n), nil
	}
	if len(c.levels) == 0 {
		return nil, fmt.Errorf("dataset: column %q has no observed values and no declared levels", c.name)
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(rng.IntN(len(c.levels)))
	}
	return out, nil
}

func bitmapRows(b *roaring.Bitmap) []int {
	out := make([]int, 0, b.GetCardinality())
	it := b.Iterator()
	for it.HasNext() {
		out = append(out, int(it.Next()))
	}
	return out
}

func observedRows(missing *roaring.Bitmap, n int) []int {
	out := make([]int, 0, n-int(missing.GetCardinality()))
	for i := range n {
		if !missing.Contains(uint32(i)) {
			out = append(out, i)
		}
	}
	return out
}
