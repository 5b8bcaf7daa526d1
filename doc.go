// Package micego implements Multiple Imputation by Chained Equations (MICE)
// for tabular data with missing values.
//
// Given a dataset, micego produces m independent, complete copies of it by
// iteratively modeling each variable conditional on the others and drawing
// plausible replacement values for its missing entries via predictive mean
// matching. The output is not a single best guess but m plausible datasets
// whose between-imputation variability feeds downstream pooling
// (Rubin's rules), which is outside this package.
//
// # Quick Start
//
//	ctx := context.Background()
//
//	age := dataset.NewNumeric("age", []float64{23, math.NaN(), 41, 35, math.NaN()})
//	bmi := dataset.NewNumeric("bmi", []float64{21.4, 24.9, math.NaN(), 26.1, 23.0})
//	data, err := dataset.New(age, bmi)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	state, err := micego.Run(ctx, data,
//	    micego.WithM(5),
//	    micego.WithIter(10),
//	    micego.WithSeed(42),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	first, err := state.Complete(0) // complete dataset, imputation copy 0
//
// # Convergence and Resuming
//
// Whether the chain has stabilized is judged from the per-column mean and
// variance traces in state.Traces (two iterations×m matrices per column). If
// the traces still drift, continue the same chain:
//
//	state2, err := micego.Resume(ctx, state, micego.WithIter(10))
//
// Resume never mutates the prior state: it returns a new one whose traces
// extend the old rows verbatim. Configuration (m, methods, predictor matrix,
// visit sequence, seed) is inherited and cannot be re-specified.
//
// # Determinism
//
// With WithSeed set, output is bit-identical across executions. Every
// imputation copy draws from its own seeded RNG stream, so the result does
// not depend on thread scheduling: WithThreads(false) and WithThreads(true)
// produce the same values.
//
// # Degeneracies
//
// Statistical degeneracies (a column with fewer than two observed values, a
// rank-deficient predictor set) never fail a run. The affected update falls
// back to resampling from the column's own observed marginal and the incident
// is appended to state.Events. Fatal configuration errors (unknown column
// names, dimension mismatches) abort before any sampling occurs.
//
// # Persistence
//
// The snapshot package serializes a complete run state, including RNG
// streams, so a loaded state resumes exactly where it left off; the blobstore
// tree stores snapshots in memory, on disk, or on S3-compatible object
// storage.
package micego
