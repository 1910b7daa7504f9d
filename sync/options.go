package sync

import (
	"log/slog"
	"runtime"
)

// Option configures an Engine.
type Option func(*Engine)

// WithDryRun controls whether writes are performed. Engines start in dry-run
// mode; pass false to transfer for real.
func WithDryRun(dryRun bool) Option {
	return func(e *Engine) {
		e.dryRun = dryRun
	}
}

// WithVerbose logs every planned write at info level instead of debug.
func WithVerbose(verbose bool) Option {
	return func(e *Engine) {
		e.verbose = verbose
	}
}

// WithParallel runs work items on a bounded pool of workers.
// workers <= 0 sizes the pool to the number of CPUs.
func WithParallel(workers int) Option {
	return func(e *Engine) {
		if workers <= 0 {
			workers = runtime.NumCPU()
		}
		e.parallel = true
		e.workers = workers
	}
}

// WithTransferOptions sets the parameters attached to every write.
func WithTransferOptions(opts TransferOptions) Option {
	return func(e *Engine) {
		e.transfer = opts
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(log *slog.Logger) Option {
	return func(e *Engine) {
		if log != nil {
			e.log = log
		}
	}
}
