package chain

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/hupe1980/micego/dataset"
	"github.com/hupe1980/micego/util"
)

// Imputation holds the imputed values for one column: one row per missing row
// of the column, one matrix column per imputation copy. Only the sampler call
// currently visiting the column writes to Values.
type Imputation struct {
	// Rows lists the column's missing row indices in ascending order.
	Rows []int

	// Values is a len(Rows)×m matrix; nil when the column has no missing rows.
	Values *mat.Dense
}

// Clone returns a deep copy.
func (imp *Imputation) Clone() *Imputation {
	c := &Imputation{Rows: append([]int(nil), imp.Rows...)}
	if imp.Values != nil {
		c.Values = mat.DenseCopyOf(imp.Values)
	}
	return c
}

// Event records a non-fatal degeneracy encountered during a run.
type Event struct {
	// Iteration is the 1-based iteration in which the event occurred, or 0 for
	// events raised during initialization.
	Iteration int

	// Column names the affected column.
	Column string

	// Copy is the 0-based imputation copy, or -1 when the event affects all
	// copies.
	Copy int

	// Message is a human-readable description.
	Message string
}

// Config parameterizes a fresh Mids. Zero-value fields fall back to defaults.
type Config struct {
	// M is the number of imputation copies.
	M int

	// Seed fixes all randomness of the run.
	Seed uint64

	// Methods overrides the per-column method assignment. Entries override the
	// default (pmm for every column); columns not mentioned keep the default.
	Methods map[string]Method

	// Predictors overrides the predictor matrix. Nil uses the default fully
	// connected matrix with a zero diagonal.
	Predictors *PredictorMatrix

	// Visit overrides the visit sequence. It must be a permutation of the
	// imputable columns that have missing values. Nil uses ascending missing
	// count order.
	Visit []string
}

// Mids is the aggregate state of a multiple-imputation run: original data,
// imputation matrices, configuration, convergence traces and the event log.
// The name follows the literature's "multiply imputed data set".
type Mids struct {
	// Data is the original dataset. Never mutated.
	Data *dataset.Dataset

	// M is the number of imputation copies.
	M int

	// Iterations counts the completed passes over the visit sequence.
	Iterations int

	// Seed is the seed all RNG streams derive from.
	Seed uint64

	// Methods maps column name to imputation method.
	Methods map[string]Method

	// Predictors is the predictor matrix.
	Predictors *PredictorMatrix

	// Visit is the per-iteration column processing order.
	Visit []string

	// Imputations holds one imputation matrix per imputable column.
	Imputations map[string]*Imputation

	// Traces holds per-column mean/variance convergence traces.
	Traces map[string]*Trace

	// Events is the append-only log of non-fatal degeneracies.
	Events []Event

	rngs []*util.RNG // one stream per copy
}

// NewMids validates the configuration against the dataset, seeds the initial
// imputation matrices from bootstrap draws of each column's observed marginal,
// and returns a state ready to be run. Configuration errors abort before any
// sampling occurs.
func NewMids(d *dataset.Dataset, cfg Config) (*Mids, error) {
	if cfg.M <= 0 {
		return nil, ErrInvalidM
	}

	methods := DefaultMethods(d)
	for name, method := range cfg.Methods {
		if _, ok := d.Column(name); !ok {
			return nil, &ErrUnknownColumn{Column: name, Where: "methods"}
		}
		methods[name] = method
	}

	predictors := cfg.Predictors
	if predictors == nil {
		predictors = DefaultPredictorMatrix(d)
	} else {
		if err := predictors.validate(d); err != nil {
			return nil, err
		}
		predictors = predictors.Clone()
	}

	if err := checkPredictorCompleteness(d, methods, predictors); err != nil {
		return nil, err
	}

	visit := cfg.Visit
	if visit == nil {
		visit = DefaultVisitSequence(d, methods)
	} else {
		if err := validateVisit(d, methods, visit); err != nil {
			return nil, err
		}
		visit = append([]string(nil), visit...)
	}

	root := util.NewRNG(cfg.Seed)
	rngs := make([]*util.RNG, cfg.M)
	for j := range rngs {
		rngs[j] = root.Stream(uint64(j))
	}

	m := &Mids{
		Data:        d,
		M:           cfg.M,
		Seed:        cfg.Seed,
		Methods:     methods,
		Predictors:  predictors,
		Visit:       visit,
		Imputations: make(map[string]*Imputation, len(visit)),
		Traces:      make(map[string]*Trace, len(visit)),
		rngs:        rngs,
	}

	if err := m.initialize(); err != nil {
		return nil, err
	}
	return m, nil
}

// initialize seeds the imputation matrices: for every visited column, each
// copy receives an independent bootstrap draw from the column's observed
// marginal (or its fallback distribution when nothing is observed). This is
// the deliberate cold start the chained iteration then refines.
func (m *Mids) initialize() error {
	for _, name := range m.Visit {
		c, _ := m.Data.Column(name)
		rows := c.MissingRows()
		imp := &Imputation{Rows: rows}
		if len(rows) > 0 {
			imp.Values = mat.NewDense(len(rows), m.M, nil)
			for j := range m.M {
				draws, err := c.DrawMarginal(m.rngs[j], len(rows))
				if err != nil {
					return fmt.Errorf("chain: initialize column %q: %w", name, err)
				}
				for i, v := range draws {
					imp.Values.Set(i, j, v)
				}
			}
		}
		m.Imputations[name] = imp
	}
	return nil
}

// validateVisit checks that visit is a permutation of the imputable columns
// with missing values.
func validateVisit(d *dataset.Dataset, methods map[string]Method, visit []string) error {
	want := make(map[string]bool)
	for _, c := range d.Columns() {
		if methods[c.Name()] != MethodNone && c.MissingCount() > 0 {
			want[c.Name()] = true
		}
	}
	if len(visit) != len(want) {
		return &ErrDimensionMismatch{What: "visit sequence", Expected: len(want), Actual: len(visit)}
	}

	seen := make(map[string]bool, len(visit))
	for _, name := range visit {
		if _, ok := d.Column(name); !ok {
			return &ErrUnknownColumn{Column: name, Where: "visit sequence"}
		}
		if methods[name] == MethodNone {
			return &ErrNotImputable{Column: name}
		}
		if seen[name] {
			return fmt.Errorf("chain: column %q appears twice in the visit sequence", name)
		}
		seen[name] = true
	}
	return nil
}

// checkPredictorCompleteness rejects configurations where a column that is
// never imputed still has missing values and predicts someone: every model
// conditioning on it would see undefined values.
func checkPredictorCompleteness(d *dataset.Dataset, methods map[string]Method, predictors *PredictorMatrix) error {
	for _, c := range d.Columns() {
		if methods[c.Name()] != MethodNone || c.MissingCount() == 0 {
			continue
		}
		for _, target := range d.ColumnNames() {
			if target != c.Name() && predictors.Uses(target, c.Name()) {
				return &ErrIncompletePredictor{Column: c.Name()}
			}
		}
	}
	return nil
}

// completedColumn returns the full-length model-space values of a column for
// one imputation copy: observed values from the dataset with the copy's
// current imputed values substituted into the missing rows.
func (m *Mids) completedColumn(c dataset.Column, copy int) []float64 {
	out := make([]float64, c.Len())
	for i := range out {
		out[i] = c.Float(i)
	}
	if imp := m.Imputations[c.Name()]; imp != nil && imp.Values != nil {
		for i, row := range imp.Rows {
			out[row] = imp.Values.At(i, copy)
		}
	}
	return out
}

// CompletedColumn returns the model-space values of the named column for one
// imputation copy, with imputed values substituted into missing rows.
func (m *Mids) CompletedColumn(name string, copy int) ([]float64, error) {
	if copy < 0 || copy >= m.M {
		return nil, fmt.Errorf("%w: %d of %d", ErrInvalidCopy, copy, m.M)
	}
	c, ok := m.Data.Column(name)
	if !ok {
		return nil, &ErrUnknownColumn{Column: name, Where: "completed column"}
	}
	return m.completedColumn(c, copy), nil
}

// Complete materializes imputation copy j as a complete dataset: observed
// values from the original data, imputed values everywhere else.
func (m *Mids) Complete(copy int) (*dataset.Dataset, error) {
	if copy < 0 || copy >= m.M {
		return nil, fmt.Errorf("%w: %d of %d", ErrInvalidCopy, copy, m.M)
	}

	cols := make([]dataset.Column, 0, m.Data.NumColumns())
	for _, c := range m.Data.Columns() {
		imp := m.Imputations[c.Name()]
		if imp == nil || imp.Values == nil {
			cols = append(cols, c)
			continue
		}

		completed := m.completedColumn(c, copy)
		switch cc := c.(type) {
		case *dataset.NumericColumn:
			cols = append(cols, dataset.NewNumeric(cc.Name(), completed))
		case *dataset.CategoricalColumn:
			codes := make([]int, len(completed))
			for i, v := range completed {
				codes[i] = int(math.Round(v))
			}
			col, err := dataset.NewCategoricalCodes(cc.Name(), codes, cc.Levels())
			if err != nil {
				return nil, fmt.Errorf("chain: complete column %q: %w", cc.Name(), err)
			}
			cols = append(cols, col)
		default:
			return nil, fmt.Errorf("chain: complete column %q: unsupported column type %T", c.Name(), c)
		}
	}

	return dataset.New(cols...)
}

// Extend returns a structurally new Mids that continues this one: shared
// immutable data and configuration, deep-copied imputation matrices, traces
// and events, and cloned RNG streams. The receiver stays usable and untouched.
func (m *Mids) Extend() (*Mids, error) {
	methods := make(map[string]Method, len(m.Methods))
	for k, v := range m.Methods {
		methods[k] = v
	}

	imputations := make(map[string]*Imputation, len(m.Imputations))
	for k, v := range m.Imputations {
		imputations[k] = v.Clone()
	}

	traces := make(map[string]*Trace, len(m.Traces))
	for k, v := range m.Traces {
		traces[k] = v.Clone()
	}

	rngs := make([]*util.RNG, len(m.rngs))
	for j, r := range m.rngs {
		clone, err := r.Clone()
		if err != nil {
			return nil, fmt.Errorf("chain: clone rng stream %d: %w", j, err)
		}
		rngs[j] = clone
	}

	return &Mids{
		Data:        m.Data,
		M:           m.M,
		Iterations:  m.Iterations,
		Seed:        m.Seed,
		Methods:     methods,
		Predictors:  m.Predictors.Clone(),
		Visit:       append([]string(nil), m.Visit...),
		Imputations: imputations,
		Traces:      traces,
		Events:      append([]Event(nil), m.Events...),
		rngs:        rngs,
	}, nil
}

// RNGStates serializes the per-copy RNG streams.
func (m *Mids) RNGStates() ([][]byte, error) {
	states := make([][]byte, len(m.rngs))
	for j, r := range m.rngs {
		state, err := r.MarshalBinary()
		if err != nil {
			return nil, fmt.Errorf("chain: marshal rng stream %d: %w", j, err)
		}
		states[j] = state
	}
	return states, nil
}

// RestoreRNGStates replaces the per-copy RNG streams with serialized states,
// one per copy.
func (m *Mids) RestoreRNGStates(states [][]byte) error {
	if len(states) != m.M {
		return &ErrDimensionMismatch{What: "rng states", Expected: m.M, Actual: len(states)}
	}
	rngs := make([]*util.RNG, len(states))
	for j, state := range states {
		r := &util.RNG{}
		if err := r.UnmarshalBinary(state); err != nil {
			return fmt.Errorf("chain: restore rng stream %d: %w", j, err)
		}
		rngs[j] = r
	}
	m.rngs = rngs
	return nil
}
