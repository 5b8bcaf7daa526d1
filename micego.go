package micego

import (
	"context"
	"math/rand/v2"

	"github.com/hupe1980/micego/chain"
	"github.com/hupe1980/micego/dataset"
)

// Mids is the aggregate state of a multiple-imputation run. See chain.Mids.
type Mids = chain.Mids

// Method identifies the imputation method assigned to a column.
type Method = chain.Method

const (
	// MethodPMM imputes by predictive mean matching.
	MethodPMM = chain.MethodPMM

	// MethodNone excludes a column from imputation.
	MethodNone = chain.MethodNone
)

// PredictorMatrix declares which columns serve as covariates when each column
// is imputed.
type PredictorMatrix = chain.PredictorMatrix

// Trace holds one column's mean/variance convergence diagnostics.
type Trace = chain.Trace

// Event records a non-fatal degeneracy encountered during a run.
type Event = chain.Event

// ProgressFunc observes run progress.
type ProgressFunc = chain.ProgressFunc

// NewPredictorMatrix creates an empty predictor matrix over the given columns.
func NewPredictorMatrix(names []string) *PredictorMatrix {
	return chain.NewPredictorMatrix(names)
}

// DefaultPredictorMatrix builds the default predictor matrix for a dataset:
// every column predicts every other column, diagonal zero.
func DefaultPredictorMatrix(d *dataset.Dataset) *PredictorMatrix {
	return chain.DefaultPredictorMatrix(d)
}

// DefaultMethods assigns predictive mean matching to every column.
func DefaultMethods(d *dataset.Dataset) map[string]Method {
	return chain.DefaultMethods(d)
}

// DefaultVisitSequence orders the imputable columns by ascending missing
// count, ties broken by original column order.
func DefaultVisitSequence(d *dataset.Dataset, methods map[string]Method) []string {
	return chain.DefaultVisitSequence(d, methods)
}

// Run performs a fresh multiple-imputation run over data and returns its
// final state.
//
// Fatal configuration errors (unknown columns, dimension mismatches) abort
// before any sampling occurs; no partial state is returned. Statistical
// degeneracies never fail the run, they are logged into the state's event
// log.
func Run(ctx context.Context, data *dataset.Dataset, optFns ...Option) (*Mids, error) {
	opts := applyOptions(optFns)

	seed := opts.seed
	if !opts.seedSet {
		seed = rand.Uint64()
	}

	state, err := chain.NewMids(data, chain.Config{
		M:          opts.m,
		Seed:       seed,
		Methods:    opts.methods,
		Predictors: opts.predictors,
		Visit:      opts.visit,
	})
	if err != nil {
		return nil, translateError(err)
	}

	runner, err := chain.NewRunner(state, opts.runnerOptions())
	if err != nil {
		return nil, translateError(err)
	}

	opts.logger.LogRunStart(ctx, data.NumColumns(), opts.m, opts.iter)
	if err := runner.Run(ctx, opts.iter); err != nil {
		err = translateError(err)
		opts.logger.LogRunCompleted(ctx, state.Iterations, len(state.Events), err)
		return nil, err
	}
	opts.logger.LogRunCompleted(ctx, state.Iterations, len(state.Events), nil)
	return state, nil
}

// Resume continues a prior run for additional iterations and returns a new
// state extending the prior one; the prior state is never mutated.
//
// The chain configuration (m, seed, methods, predictor matrix, visit
// sequence) is inherited from the prior state: passing any of those options
// is an error. Under a fixed seed, Run(iter1) followed by Resume(iter2)
// derives the same values as a single Run(iter1+iter2).
func Resume(ctx context.Context, prior *Mids, optFns ...Option) (*Mids, error) {
	opts := applyOptions(optFns)
	if opts.configTouched {
		return nil, ErrResumeConfig
	}

	state, err := prior.Extend()
	if err != nil {
		return nil, translateError(err)
	}

	runner, err := chain.NewRunner(state, opts.runnerOptions())
	if err != nil {
		return nil, translateError(err)
	}

	opts.logger.LogResume(ctx, prior.Iterations, opts.iter)
	if err := runner.Run(ctx, opts.iter); err != nil {
		err = translateError(err)
		opts.logger.LogRunCompleted(ctx, state.Iterations, len(state.Events), err)
		return nil, err
	}
	opts.logger.LogRunCompleted(ctx, state.Iterations, len(state.Events), nil)
	return state, nil
}
