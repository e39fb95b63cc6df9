package loop

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/factweave/factweave/judge"
)

// Writer produces a draft for a topic, revising against the previous round's
// feedback when present. The first call of a run always receives nil feedback.
type Writer interface {
	Write(ctx context.Context, topic string, feedback []string) (string, error)
}

// Judge fact-checks a draft against its topic.
type Judge interface {
	Judge(ctx context.Context, topic, draft string) (judge.Result, error)
}

// Phase identifies which agent a run is currently executing.
type Phase string

// Phases reported through Hooks.OnPhase.
const (
	PhaseWriting Phase = "writing"
	PhaseJudging Phase = "judging"
)

// Hooks carries best-effort progress callbacks. They are never consulted by
// the loop's own control flow; the job layer uses them to surface live
// phase, iteration and verdict state to pollers. Nil fields are skipped.
type Hooks struct {
	OnPhase   func(iteration int, phase Phase)
	OnVerdict func(iteration int, verdict judge.Verdict)
}

func (h Hooks) phase(iteration int, p Phase) {
	if h.OnPhase != nil {
		h.OnPhase(iteration, p)
	}
}

func (h Hooks) verdict(iteration int, v judge.Verdict) {
	if h.OnVerdict != nil {
		h.OnVerdict(iteration, v)
	}
}

// IterationRecord is the immutable log entry for one write+judge round.
type IterationRecord struct {
	Iteration   int           `json:"iteration"` // 1-based
	Draft       string        `json:"draft"`
	Verdict     judge.Verdict `json:"verdict"`
	Annotations []string      `json:"annotations"`
	Elapsed     time.Duration `json:"elapsed"`
}

// Result is the terminal outcome of one run.
//
// Accepted runs carry the final judge-approved article; History is populated
// only when the run was verbose. When the iteration cap is exhausted,
// Accepted is false, Reason explains the cap, and History is always present
// so the failure is diagnosable without re-running. Cap exhaustion is a
// normal outcome, not an error.
type Result struct {
	Accepted   bool              `json:"accepted"`
	Article    string            `json:"article,omitempty"`
	Iterations int               `json:"iterations"`
	Reason     string            `json:"reason,omitempty"`
	History    []IterationRecord `json:"history,omitempty"`
}

// ContractViolationError reports a judge that returned a fail verdict with
// zero annotations. Iterating on empty feedback cannot converge, so the run
// aborts instead of silently accepting the verdict.
type ContractViolationError struct {
	Iteration int
}

// Error implements the error interface.
func (e *ContractViolationError) Error() string {
	return fmt.Sprintf("loop: judge failed iteration %d with zero annotations", e.Iteration)
}

// Options configures optional Loop behavior.
type Options struct {
	Hooks  Hooks
	Logger *slog.Logger
}

// WithHooks installs progress callbacks.
func WithHooks(h Hooks) func(o *Options) {
	return func(o *Options) { o.Hooks = h }
}

// WithLogger overrides the default logger.
func WithLogger(logger *slog.Logger) func(o *Options) {
	return func(o *Options) { o.Logger = logger }
}

// Loop drives writer → judge rounds until a draft passes or the iteration
// cap is hit. All calls within one run are strictly sequential: each writer
// call depends on the previous judge call's annotations.
type Loop struct {
	writer  Writer
	judge   Judge
	maxIter int
	hooks   Hooks
	logger  *slog.Logger
}

// New constructs a Loop. maxIterations must be at least 1.
func New(w Writer, j Judge, maxIterations int, optFns ...func(o *Options)) *Loop {
	opts := Options{Logger: slog.Default()}
	for _, fn := range optFns {
		fn(&opts)
	}
	if maxIterations < 1 {
		maxIterations = 1
	}
	return &Loop{
		writer:  w,
		judge:   j,
		maxIter: maxIterations,
		hooks:   opts.Hooks,
		logger:  opts.Logger,
	}
}

// Run executes the refinement loop for a topic.
//
// Per iteration n: write a draft (threading the previous round's annotations
// as feedback), judge it, and append an IterationRecord. A pass terminates
// with an accepted Result. A fail replaces the feedback with that round's
// annotations; feedback never accumulates across rounds. Hitting the cap yields an
// unaccepted Result with the full history; it is not an error.
//
// Writer and judge errors are returned unwrapped in meaning: the loop never
// retries or converts them. A fail verdict with no annotations aborts with
// ContractViolationError.
func (l *Loop) Run(ctx context.Context, topic string, verbose bool) (*Result, error) {
	history := make([]IterationRecord, 0, l.maxIter)
	var feedback []string

	for iteration := 1; iteration <= l.maxIter; iteration++ {
		start := time.Now()

		l.hooks.phase(iteration, PhaseWriting)
		l.logger.Debug("writing draft", "iteration", iteration, "topic", topic)
		draft, err := l.writer.Write(ctx, topic, feedback)
		if err != nil {
			return nil, fmt.Errorf("iteration %d: writer: %w", iteration, err)
		}

		l.hooks.phase(iteration, PhaseJudging)
		result, err := l.judge.Judge(ctx, topic, draft)
		if err != nil {
			return nil, fmt.Errorf("iteration %d: judge: %w", iteration, err)
		}
		l.hooks.verdict(iteration, result.Verdict)
		l.logger.Info("iteration judged",
			"iteration", iteration,
			"verdict", result.Verdict,
			"annotations", len(result.Annotations),
			"elapsed", time.Since(start))

		history = append(history, IterationRecord{
			Iteration:   iteration,
			Draft:       draft,
			Verdict:     result.Verdict,
			Annotations: result.Annotations,
			Elapsed:     time.Since(start),
		})

		if result.Verdict == judge.VerdictPass {
			res := &Result{
				Accepted:   true,
				Article:    draft,
				Iterations: iteration,
			}
			if verbose {
				res.History = history
			}
			return res, nil
		}

		if len(result.Annotations) == 0 {
			return nil, &ContractViolationError{Iteration: iteration}
		}
		feedback = result.Annotations
	}

	l.logger.Warn("iteration cap exhausted", "topic", topic, "max_iterations", l.maxIter)
	return &Result{
		Accepted:   false,
		Iterations: l.maxIter,
		Reason:     fmt.Sprintf("article did not pass after %d iterations", l.maxIter),
		History:    history,
	}, nil
}

// MaxIterations returns the configured iteration cap.
func (l *Loop) MaxIterations() int { return l.maxIter }
