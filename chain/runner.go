package chain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/micego/dataset"
	"github.com/hupe1980/micego/pmm"
	"github.com/hupe1980/micego/resource"
)

// MetricsCollector receives timing and degeneracy signals from a run.
// Implementations must be safe for use from a single goroutine; the runner
// only reports after join barriers.
type MetricsCollector interface {
	// RecordIteration is called after each completed pass over the visit
	// sequence.
	RecordIteration(iteration int, d time.Duration)

	// RecordColumnUpdate is called after each (iteration, column) update.
	RecordColumnUpdate(column string, copies int, d time.Duration)

	// RecordFallback is called once per marginal-resampling fallback.
	RecordFallback(column string)
}

// NoopMetricsCollector discards all signals.
type NoopMetricsCollector struct{}

// RecordIteration implements MetricsCollector.
func (NoopMetricsCollector) RecordIteration(int, time.Duration) {}

// RecordColumnUpdate implements MetricsCollector.
func (NoopMetricsCollector) RecordColumnUpdate(string, int, time.Duration) {}

// RecordFallback implements MetricsCollector.
func (NoopMetricsCollector) RecordFallback(string) {}

// ProgressFunc observes run progress. It is called after each column update
// with the current iteration, the target iteration count and the column just
// updated. Observability only; it must not mutate state.
type ProgressFunc func(iteration, total int, column string)

// RunnerOptions configures a Runner.
type RunnerOptions struct {
	// Donors is the donor pool size for predictive mean matching.
	Donors int

	// Workers bounds the fan-out across the m copies within one column
	// update. Values below 1 disable parallelism.
	Workers int

	// Logger receives structured diagnostics. Nil discards them.
	Logger *slog.Logger

	// Metrics receives timing signals. Nil discards them.
	Metrics MetricsCollector

	// Progress observes per-column progress. Nil disables reporting.
	Progress ProgressFunc

	// Resources, when set, is consulted between column updates for a
	// best-effort memory reclamation hint. No semantic effect on output.
	Resources *resource.Controller
}

// DefaultRunnerOptions returns the default runner configuration.
func DefaultRunnerOptions() RunnerOptions {
	return RunnerOptions{
		Donors:  pmm.DefaultOptions.Donors,
		Workers: runtime.GOMAXPROCS(0),
	}
}

// Runner drives the nested iteration×visit-sequence loop over a Mids.
type Runner struct {
	state    *Mids
	model    *pmm.Model
	logger   *slog.Logger
	metrics  MetricsCollector
	progress ProgressFunc
	res      *resource.Controller
	workers  int
}

// NewRunner creates a Runner over the given state.
func NewRunner(state *Mids, optFns ...func(o *RunnerOptions)) (*Runner, error) {
	opts := DefaultRunnerOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	model, err := pmm.New(func(o *pmm.Options) {
		o.Donors = opts.Donors
	})
	if err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	metrics := opts.Metrics
	if metrics == nil {
		metrics = NoopMetricsCollector{}
	}

	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}

	return &Runner{
		state:    state,
		model:    model,
		logger:   logger,
		metrics:  metrics,
		progress: opts.Progress,
		res:      opts.Resources,
		workers:  workers,
	}, nil
}

// State returns the Mids the runner mutates.
func (r *Runner) State() *Mids { return r.state }

// Run performs the given number of additional passes over the visit sequence.
// Columns are visited strictly sequentially within a pass; the m copies of
// one column update are fanned out across workers and joined before the
// column's trace row is recorded.
func (r *Runner) Run(ctx context.Context, iterations int) error {
	if iterations < 0 {
		return ErrInvalidIterations
	}
	if iterations == 0 || len(r.state.Visit) == 0 {
		return nil
	}

	st := r.state
	target := st.Iterations + iterations
	st.ensureTraces(target)

	for t := st.Iterations + 1; t <= target; t++ {
		iterStart := time.Now()
		for _, name := range st.Visit {
			colStart := time.Now()
			if err := r.updateColumn(ctx, t, name); err != nil {
				return err
			}
			r.metrics.RecordColumnUpdate(name, st.M, time.Since(colStart))
			if r.progress != nil {
				r.progress(t, target, name)
			}
			if r.res != nil {
				r.res.MaybeReclaim(ctx)
			}
		}
		st.Iterations = t
		r.metrics.RecordIteration(t, time.Since(iterStart))
		r.logger.DebugContext(ctx, "iteration completed",
			"iteration", t,
			"target", target,
			"events", len(st.Events),
		)
	}
	return nil
}

// updateColumn refreshes every copy's imputed values for one column.
func (r *Runner) updateColumn(ctx context.Context, iter int, name string) error {
	st := r.state
	c, ok := st.Data.Column(name)
	if !ok {
		return &ErrUnknownColumn{Column: name, Where: "visit sequence"}
	}
	imp := st.Imputations[name]
	if imp == nil || imp.Values == nil {
		return nil
	}

	obsRows := c.ObservedRows()
	predictors := st.Predictors.Predictors(name)

	if len(obsRows) < 2 {
		return r.fallbackColumn(iter, name, c, imp, "fewer than 2 observed values, resampled from marginal")
	}
	if len(predictors) == 0 {
		return r.fallbackColumn(iter, name, c, imp, "empty predictor set, resampled from marginal")
	}

	yObs := c.Observed()
	events := make([][]Event, st.M)

	g := new(errgroup.Group)
	g.SetLimit(r.workers)
	for j := range st.M {
		g.Go(func() error {
			rng := st.rngs[j]
			builder := st.newDesignBuilder(predictors, j)
			xObs := builder.build(obsRows)
			xMis := builder.build(imp.Rows)

			vals, err := r.model.Impute(rng, xObs, xMis, yObs)
			if err != nil {
				if !errors.Is(err, pmm.ErrRankDeficient) && !errors.Is(err, pmm.ErrTooFewObservations) {
					return fmt.Errorf("chain: column %q copy %d: %w", name, j, err)
				}
				vals, err = c.DrawMarginal(rng, len(imp.Rows))
				if err != nil {
					return fmt.Errorf("chain: column %q copy %d: %w", name, j, err)
				}
				events[j] = append(events[j], Event{
					Iteration: iter,
					Column:    name,
					Copy:      j,
					Message:   "rank-deficient predictor set, resampled from marginal",
				})
			}
			for i, v := range vals {
				imp.Values.Set(i, j, v)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	// Join barrier passed: merge per-copy events in copy order so the log is
	// deterministic regardless of scheduling.
	for j := range st.M {
		for _, ev := range events[j] {
			st.Events = append(st.Events, ev)
			r.metrics.RecordFallback(name)
			r.logger.WarnContext(ctx, "degenerate model fit",
				"iteration", ev.Iteration,
				"column", ev.Column,
				"copy", ev.Copy,
				"reason", ev.Message,
			)
		}
	}

	st.Traces[name].record(iter-1, imp)
	return nil
}

// fallbackColumn redraws every copy's values from the column's own marginal.
// Recoverable degeneracies never fail the run; they are logged and recorded.
func (r *Runner) fallbackColumn(iter int, name string, c dataset.Column, imp *Imputation, reason string) error {
	st := r.state
	for j := range st.M {
		draws, err := c.DrawMarginal(st.rngs[j], len(imp.Rows))
		if err != nil {
			return fmt.Errorf("chain: column %q copy %d: %w", name, j, err)
		}
		for i, v := range draws {
			imp.Values.Set(i, j, v)
		}
	}

	st.Events = append(st.Events, Event{
		Iteration: iter,
		Column:    name,
		Copy:      -1,
		Message:   reason,
	})
	r.metrics.RecordFallback(name)
	r.logger.Warn("degenerate column update",
		"iteration", iter,
		"column", name,
		"reason", reason,
	)

	st.Traces[name].record(iter-1, imp)
	return nil
}
