package nearest

import (
	"log/slog"
	"runtime"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/nearest/resource"
)

// DefaultParallelThreshold is the number of distance evaluations (sources × targets)
// below which an Assigner stays on the calling goroutine.
const DefaultParallelThreshold = 1 << 16

type options struct {
	workers           int
	parallelThreshold int64
	metricsCollector  MetricsCollector
	logger            *Logger
	resources         *resource.Controller
}

func defaultOptions() options {
	return options{
		workers:           runtime.GOMAXPROCS(0),
		parallelThreshold: DefaultParallelThreshold,
		metricsCollector:  NoopMetricsCollector{},
		logger:            NoopLogger(),
	}
}

// Option configures an Assigner.
type Option func(*options)

// WithParallelism sets the maximum number of goroutines one call may use for
// its outer loop. n <= 1 disables parallelism.
// Defaults to GOMAXPROCS.
func WithParallelism(n int) Option {
	return func(o *options) {
		if n < 1 {
			n = 1
		}
		o.workers = n
	}
}

// WithParallelThreshold sets the minimum sources × targets product at which
// the outer loop is split across goroutines. Smaller problems run serially,
// where goroutine startup would dominate.
func WithParallelThreshold(pairs int64) Option {
	return func(o *options) {
		o.parallelThreshold = pairs
	}
}

// WithResourceController shares memory and worker budgets across Assigners.
//
// Each call reserves its working set (12 bytes per target, 8 per source) before
// running and holds one worker slot per running chunk.
func WithResourceController(c *resource.Controller) Option {
	return func(o *options) {
		o.resources = c
	}
}

// WithMetricsCollector configures a metrics collector.
// Pass nil to disable metrics collection.
//
//	metrics := &nearest.BasicMetricsCollector{}
//	a := nearest.New(nearest.WithMetricsCollector(metrics))
//	// ... use a ...
//	stats := metrics.GetStats()
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging.
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

type assignOptions struct {
	eligible *roaring.Bitmap
}

// AssignOption configures a single assignment call.
type AssignOption func(*assignOptions)

// WithEligibleTargets restricts candidates to the target indices in bm.
// Targets not in bm are never selected; ties still go to the lowest eligible index.
// A nil bitmap means every target is eligible.
func WithEligibleTargets(bm *roaring.Bitmap) AssignOption {
	return func(o *assignOptions) {
		o.eligible = bm
	}
}
