package micego

import (
	"log/slog"

	"github.com/hupe1980/micego/chain"
	"github.com/hupe1980/micego/pmm"
	"github.com/hupe1980/micego/resource"
)

type options struct {
	m           int
	iter        int
	donors      int
	seed        uint64
	seedSet     bool
	methods     map[string]Method
	predictors  *PredictorMatrix
	visit       []string
	threads     bool
	workers     int
	logger      *Logger
	metrics     MetricsCollector
	progress    ProgressFunc
	memoryFloor int64

	// configTouched is set by options that are inherited on resume.
	configTouched bool
}

// Option configures Run and Resume behavior.
//
// Options that define the statistical configuration of a chain (m, seed,
// methods, predictor matrix, visit sequence) are only valid on Run; Resume
// inherits them from the prior state.
type Option func(*options)

// WithM sets the number of imputation copies maintained throughout the run.
// Default: 5.
func WithM(m int) Option {
	return func(o *options) {
		o.m = m
		o.configTouched = true
	}
}

// WithIter sets the number of full passes over the visit sequence.
// Default: 10.
func WithIter(iter int) Option {
	return func(o *options) {
		o.iter = iter
	}
}

// WithSeed fixes all randomness of the run. Two runs with the same seed,
// dataset and configuration produce bit-identical output, independent of the
// thread setting. Without WithSeed each run draws a fresh seed.
func WithSeed(seed uint64) Option {
	return func(o *options) {
		o.seed = seed
		o.seedSet = true
		o.configTouched = true
	}
}

// WithDonors sets the donor pool size for predictive mean matching: for each
// missing row, one of the k observed rows with the closest predicted value is
// drawn as donor. Default: 5.
func WithDonors(k int) Option {
	return func(o *options) {
		o.donors = k
	}
}

// WithMethods overrides the per-column method assignment. Entries override
// the default (pmm for every column); use MethodNone to exclude a column from
// imputation while keeping it available as a fixed predictor.
func WithMethods(methods map[string]Method) Option {
	return func(o *options) {
		o.methods = methods
		o.configTouched = true
	}
}

// WithPredictorMatrix overrides the predictor matrix. The matrix must cover
// exactly the dataset's columns; a dimension mismatch is a fatal
// configuration error.
func WithPredictorMatrix(p *PredictorMatrix) Option {
	return func(o *options) {
		o.predictors = p
		o.configTouched = true
	}
}

// WithVisitSequence overrides the column processing order. The sequence must
// be a permutation of the imputable columns that have missing values.
func WithVisitSequence(visit []string) Option {
	return func(o *options) {
		o.visit = visit
		o.configTouched = true
	}
}

// WithThreads enables or disables data parallelism across the m copies within
// a column update. No effect on output. Default: enabled.
func WithThreads(enabled bool) Option {
	return func(o *options) {
		o.threads = enabled
	}
}

// WithWorkers bounds the fan-out across copies. Implies WithThreads(true) for
// values above 1. Default: GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
		o.threads = n > 1
	}
}

// WithLogger configures structured logging for the run.
// Pass nil to disable logging.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithMetricsCollector configures a metrics collector for monitoring the run.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		o.metrics = mc
	}
}

// WithProgress configures a progress callback, invoked after every column
// update. See ConsoleProgress for a ready-made console reporter.
func WithProgress(fn ProgressFunc) Option {
	return func(o *options) {
		o.progress = fn
	}
}

// WithMemoryFloor enables the best-effort memory reclamation hint: between
// column updates, when available system memory drops below floor bytes, a
// garbage collection is triggered. No effect on output. Default: disabled.
func WithMemoryFloor(floor int64) Option {
	return func(o *options) {
		o.memoryFloor = floor
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		m:       5,
		iter:    10,
		donors:  pmm.DefaultOptions.Donors,
		threads: true,
		logger:  NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}

func (o options) runnerOptions() func(*chain.RunnerOptions) {
	return func(ro *chain.RunnerOptions) {
		ro.Donors = o.donors
		if !o.threads {
			ro.Workers = 1
		} else if o.workers > 0 {
			ro.Workers = o.workers
		}
		ro.Logger = o.logger.Logger
		ro.Metrics = o.metrics
		ro.Progress = o.progress
		if o.memoryFloor > 0 {
			ro.Resources = resource.NewController(func(c *resource.Config) {
				c.MinAvailableBytes = o.memoryFloor
			})
		}
	}
}
