package chain

import (
	"sort"

	"github.com/hupe1980/micego/dataset"
)

// Method identifies the imputation method assigned to a column.
type Method string

const (
	// MethodPMM imputes by predictive mean matching.
	MethodPMM Method = "pmm"

	// MethodNone excludes a column from imputation. The column is still usable
	// as a fixed predictor for other columns.
	MethodNone Method = ""
)

// DefaultMethods assigns the default imputation method to every column:
// predictive mean matching across the board.
func DefaultMethods(d *dataset.Dataset) map[string]Method {
	methods := make(map[string]Method, d.NumColumns())
	for _, name := range d.ColumnNames() {
		methods[name] = MethodPMM
	}
	return methods
}

// DefaultVisitSequence orders the imputable columns by ascending missing count,
// ties broken by original column order. Columns without missing values have
// nothing to impute and are left out. Imputing low-missingness columns first
// gives later columns more complete predictors to condition on.
func DefaultVisitSequence(d *dataset.Dataset, methods map[string]Method) []string {
	type entry struct {
		name    string
		missing int
	}

	var entries []entry
	for _, c := range d.Columns() {
		if methods[c.Name()] == MethodNone {
			continue
		}
		if c.MissingCount() == 0 {
			continue
		}
		entries = append(entries, entry{name: c.Name(), missing: c.MissingCount()})
	}

	sort.SliceStable(entries, func(a, b int) bool {
		return entries[a].missing < entries[b].missing
	})

	visit := make([]string, len(entries))
	for i, e := range entries {
		visit[i] = e.name
	}
	return visit
}
