package job

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/factweave/factweave/judge"
	"github.com/factweave/factweave/loop"
)

// Status is the lifecycle state of a job.
type Status string

// Job lifecycle states. A job moves from StatusRunning to exactly one of the
// terminal states and never leaves it.
const (
	StatusRunning Status = "running"
	StatusDone    Status = "done"
	StatusError   Status = "error"
)

// Record is the pollable state of one job. Get returns snapshot copies;
// pollers never observe a partially written record.
type Record struct {
	ID            string        `json:"id"`
	Status        Status        `json:"status"`
	Iteration     int           `json:"iteration"`
	MaxIterations int           `json:"max_iterations"`
	Phase         loop.Phase    `json:"phase,omitempty"`
	LastVerdict   judge.Verdict `json:"last_verdict,omitempty"`
	Result        *loop.Result  `json:"result,omitempty"`
	Error         string        `json:"error,omitempty"`
}

// Runner executes one synchronous refinement run. It is satisfied by the
// loop via the root facade; tests inject stubs so registry behavior is
// exercised without agents or models.
type Runner interface {
	Run(ctx context.Context, topic string, verbose bool, hooks loop.Hooks) (*loop.Result, error)
}

// RunnerFunc adapts a function to the Runner interface.
type RunnerFunc func(ctx context.Context, topic string, verbose bool, hooks loop.Hooks) (*loop.Result, error)

// Run implements Runner.
func (f RunnerFunc) Run(ctx context.Context, topic string, verbose bool, hooks loop.Hooks) (*loop.Result, error) {
	return f(ctx, topic, verbose, hooks)
}

// Options configures optional Registry behavior.
type Options struct {
	Logger *slog.Logger
}

// WithLogger overrides the default logger.
func WithLogger(logger *slog.Logger) func(o *Options) {
	return func(o *Options) { o.Logger = logger }
}

// Registry is the process-lifetime store of job records. Submissions start
// background runs on a bounded worker pool; submissions beyond capacity
// queue rather than reject. Records are written by exactly one worker each
// and read by any number of concurrent pollers.
//
// Completed records are retained for the life of the process; there is no
// eviction. Submitted jobs run to a terminal state unconditionally; no
// cancellation or timeout is supported.
type Registry struct {
	runner        Runner
	maxIterations int
	slots         *semaphore.Weighted
	logger        *slog.Logger

	mu      sync.RWMutex
	records map[string]*Record
}

// NewRegistry constructs a Registry executing at most workers runs in
// parallel. maxIterations is recorded on every job for pollers.
func NewRegistry(runner Runner, workers, maxIterations int, optFns ...func(o *Options)) *Registry {
	opts := Options{Logger: slog.Default()}
	for _, fn := range optFns {
		fn(&opts)
	}
	if workers < 1 {
		workers = 1
	}
	return &Registry{
		runner:        runner,
		maxIterations: maxIterations,
		slots:         semaphore.NewWeighted(int64(workers)),
		logger:        opts.Logger,
		records:       make(map[string]*Record),
	}
}

// Submit allocates a job record and schedules exactly one background run,
// returning the job id immediately. It never blocks on the run itself; when
// all worker slots are busy the run waits for a free slot.
func (r *Registry) Submit(topic string, verbose bool) string {
	id := uuid.New().String()

	r.mu.Lock()
	r.records[id] = &Record{
		ID:            id,
		Status:        StatusRunning,
		MaxIterations: r.maxIterations,
	}
	r.mu.Unlock()

	go r.run(id, topic, verbose)
	return id
}

// Get returns a snapshot of the job record, or false for an unknown id.
// It is a pure read with no side effects.
func (r *Registry) Get(id string) (Record, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[id]
	if !ok {
		return Record{}, false
	}
	return *rec, true
}

// Len returns the number of records held (all statuses).
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}

// run executes one job to a terminal state. It is the error boundary for the
// whole run: capability failures, verdict parse failures and panics all end
// here as a terminal error record, never as a crashed process.
func (r *Registry) run(id, topic string, verbose bool) {
	// Queue semantics: block until a worker slot frees up. The background
	// context never fires; submitted jobs always run.
	if err := r.slots.Acquire(context.Background(), 1); err != nil {
		r.fail(id, fmt.Errorf("acquiring worker slot: %w", err))
		return
	}
	defer r.slots.Release(1)

	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("job panicked", "job_id", id, "panic", rec)
			r.fail(id, fmt.Errorf("internal error: %v", rec))
		}
	}()

	hooks := loop.Hooks{
		OnPhase: func(iteration int, phase loop.Phase) {
			r.update(id, func(rec *Record) {
				rec.Iteration = iteration
				rec.Phase = phase
			})
		},
		OnVerdict: func(_ int, verdict judge.Verdict) {
			r.update(id, func(rec *Record) {
				rec.LastVerdict = verdict
			})
		},
	}

	result, err := r.runner.Run(context.Background(), topic, verbose, hooks)
	if err != nil {
		r.logger.Warn("job failed", "job_id", id, "error", err)
		r.fail(id, fmt.Errorf("generation failed: %w", err))
		return
	}

	r.update(id, func(rec *Record) {
		rec.Result = result
		rec.Iteration = result.Iterations
		if result.Accepted {
			rec.Status = StatusDone
		} else {
			rec.Status = StatusError
			rec.Error = result.Reason
		}
	})
	r.logger.Info("job finished", "job_id", id, "accepted", result.Accepted, "iterations", result.Iterations)
}

// update applies a mutation to a record under the write lock, so pollers
// never observe torn fields.
func (r *Registry) update(id string, fn func(rec *Record)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec, ok := r.records[id]; ok {
		fn(rec)
	}
}

func (r *Registry) fail(id string, err error) {
	r.update(id, func(rec *Record) {
		rec.Status = StatusError
		rec.Error = err.Error()
	})
}
