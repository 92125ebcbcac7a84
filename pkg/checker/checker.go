package checker

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jcodybaker/security-check/pkg/types/check"
	"github.com/rs/zerolog/log"
)

// RunFault reports a check which could not complete. It aborts the run; no results are
// reported once a fault occurs.
type RunFault struct {
	Check string
	Err   error
}

func (f *RunFault) Error() string {
	return fmt.Sprintf("check %q: %v", f.Check, f.Err)
}

func (f *RunFault) Unwrap() error {
	return f.Err
}

// NewRunner creates a runner.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{
		now: time.Now,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// RunnerOption describe optional arguments for the runner.
type RunnerOption func(*Runner)

// WithCheck appends a check. Checks run in the order they were added.
func WithCheck(c check.Checker) RunnerOption {
	return func(r *Runner) {
		r.checks = append(r.checks, c)
	}
}

// WithChecks appends several checks.
func WithChecks(cs ...check.Checker) RunnerOption {
	return func(r *Runner) {
		r.checks = append(r.checks, cs...)
	}
}

// WithTimeout bounds each check. A zero timeout disables the limit.
func WithTimeout(timeout time.Duration) RunnerOption {
	return func(r *Runner) {
		r.timeout = timeout
	}
}

// WithInstance sets the instance recorded with each run.
func WithInstance(instance *check.Instance) RunnerOption {
	return func(r *Runner) {
		r.instance = instance
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) RunnerOption {
	return func(r *Runner) {
		r.now = now
	}
}

// Runner executes an ordered list of checks.
type Runner struct {
	now      func() time.Time
	instance *check.Instance
	checks   []check.Checker
	timeout  time.Duration
}

// Len returns the number of configured checks.
func (r *Runner) Len() int {
	return len(r.checks)
}

// RunChecks executes every check sequentially and returns their results in order. Each call
// starts with an empty result set.
func (r *Runner) RunChecks(ctx context.Context) ([]check.CheckResult, error) {
	results := make([]check.CheckResult, 0, len(r.checks))
	for _, c := range r.checks {
		if err := ctx.Err(); err != nil {
			return nil, &RunFault{Check: c.Name(), Err: err}
		}
		res, err := r.runCheck(ctx, c)
		if err != nil {
			return nil, &RunFault{Check: c.Name(), Err: err}
		}
		results = append(results, res)
	}
	return results, nil
}

// Run executes all checks and stamps the run with an ID, timing and exit code.
func (r *Runner) Run(ctx context.Context) (check.RunResults, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return check.RunResults{}, fmt.Errorf("generating run id: %w", err)
	}
	run := check.RunResults{
		ID:       id.String(),
		Instance: r.instance,
		TS:       r.now(),
	}
	results, err := r.RunChecks(ctx)
	run.Duration = r.now().Sub(run.TS)
	if err != nil {
		run.ExitCode = check.ExitRunFault
		return run, err
	}
	run.Results = results
	run.ExitCode = check.ExitCodeFor(results)
	return run, nil
}

type checkOutcome struct {
	result check.CheckResult
	err    error
}

func (r *Runner) runCheck(ctx context.Context, c check.Checker) (check.CheckResult, error) {
	ll := log.Ctx(ctx)
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	ll.Debug().Str("check", c.Name()).Msg("check started")
	start := r.now()

	// Buffered so an abandoned check can still deliver its outcome and exit.
	done := make(chan checkOutcome, 1)
	go func() {
		var o checkOutcome
		defer func() {
			if p := recover(); p != nil {
				o = checkOutcome{err: fmt.Errorf("panic: %v", p)}
			}
			done <- o
		}()
		o.result, o.err = c.Check(ctx)
	}()

	var o checkOutcome
	select {
	case o = <-done:
	case <-ctx.Done():
		o.err = ctx.Err()
	}
	ll.Debug().
		Str("check", c.Name()).
		Dur("duration", r.now().Sub(start)).
		Bool("passed", o.result.Passed).
		Stringer("severity", o.result.Severity).
		Err(o.err).
		Msg("check finished")
	return o.result, o.err
}
