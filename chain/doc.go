// Package chain implements the chained-equations imputation engine.
//
// The engine maintains m independent imputation copies of a dataset's missing
// values and refines them by fixed-point iteration: each pass visits the
// imputable columns in a fixed order and, for every copy, refits a conditional
// model of the column on its designated predictors and redraws the column's
// missing values by predictive mean matching. The cyclic dependency between
// columns is inherent to the method; it is iterated, never solved.
//
// All run state lives in a Mids value: the original data, the per-column
// imputation matrices, the method assignment, predictor matrix and visit
// sequence, per-column convergence traces, and an append-only event log of
// non-fatal degeneracies. Resuming a run extends a structurally new Mids
// rather than mutating the old one.
//
// Within one (iteration, column) update the m copies are independent and are
// fanned out across workers; columns within an iteration are strictly
// sequential because later columns condition on the current iteration's
// updates to earlier ones.
package chain
