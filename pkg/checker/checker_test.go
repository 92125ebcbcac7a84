package checker

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jcodybaker/security-check/pkg/checks"
	"github.com/jcodybaker/security-check/pkg/types/check"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// scenarioB mirrors the reference set with the SQL injection check failing.
func scenarioB() []check.Checker {
	cs := checks.Reference()
	cs[2] = checks.Static("SQL Injection Protection", check.SeverityCritical, false, "Unparameterized query found")
	return cs
}

func TestRunChecksAllPassed(t *testing.T) {
	r := NewRunner(WithChecks(checks.Reference()...))
	results, err := r.RunChecks(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 5)
	for i, c := range checks.Reference() {
		require.Equal(t, c.Name(), results[i].Name)
	}
	require.Equal(t, check.ExitOK, check.ExitCodeFor(results))
}

func TestRunChecksCriticalFailure(t *testing.T) {
	r := NewRunner(WithChecks(scenarioB()...))
	results, err := r.RunChecks(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 5)
	require.False(t, results[2].Passed)
	require.Equal(t, check.ExitCritical, check.ExitCodeFor(results))
}

func TestRunChecksNoChecks(t *testing.T) {
	results, err := NewRunner().RunChecks(context.Background())
	require.NoError(t, err)
	require.Empty(t, results)
	require.Equal(t, check.ExitOK, check.ExitCodeFor(results))
}

func TestRunChecksIdempotent(t *testing.T) {
	r := NewRunner(WithChecks(scenarioB()...))
	first, err := r.RunChecks(context.Background())
	require.NoError(t, err)
	second, err := r.RunChecks(context.Background())
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Len(t, second, r.Len())

	first[0].Name = "mutated"
	require.NotEqual(t, first[0].Name, second[0].Name)
}

func TestRunChecksFaultAborts(t *testing.T) {
	var after bool
	boom := errors.New("boom")
	r := NewRunner(
		WithCheck(checks.Static("first", check.SeverityLow, true, "ok")),
		WithCheck(check.CheckFunc("explodes", func(context.Context) (check.CheckResult, error) {
			return check.CheckResult{}, boom
		})),
		WithCheck(check.CheckFunc("never", func(context.Context) (check.CheckResult, error) {
			after = true
			return check.CheckResult{Name: "never", Passed: true}, nil
		})),
	)
	results, err := r.RunChecks(context.Background())
	require.Nil(t, results)
	require.ErrorIs(t, err, boom)
	var fault *RunFault
	require.True(t, errors.As(err, &fault))
	require.Equal(t, "explodes", fault.Check)
	require.False(t, after, "checks after a fault must not run")
}

func TestRunChecksPanic(t *testing.T) {
	r := NewRunner(WithCheck(check.CheckFunc("panics", func(context.Context) (check.CheckResult, error) {
		panic("unexpected")
	})))
	_, err := r.RunChecks(context.Background())
	var fault *RunFault
	require.True(t, errors.As(err, &fault))
	require.Contains(t, fault.Error(), "unexpected")
}

func TestRunChecksTimeout(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	r := NewRunner(
		WithTimeout(10*time.Millisecond),
		WithCheck(check.CheckFunc("hangs", func(context.Context) (check.CheckResult, error) {
			<-release // ignores ctx on purpose
			return check.CheckResult{}, nil
		})),
	)
	_, err := r.RunChecks(context.Background())
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRunChecksCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := NewRunner(WithChecks(checks.Reference()...))
	_, err := r.RunChecks(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestRun(t *testing.T) {
	ts := time.Date(2022, 10, 1, 12, 0, 0, 0, time.UTC)
	instance := &check.Instance{UUID: "instance", Hostname: "host"}
	r := NewRunner(
		WithInstance(instance),
		WithClock(func() time.Time { return ts }),
		WithChecks(scenarioB()...),
	)
	run, err := r.Run(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, run.ID)
	require.Equal(t, ts, run.TS)
	require.Same(t, instance, run.Instance)
	require.Len(t, run.Results, 5)
	require.Equal(t, check.ExitCritical, run.ExitCode)

	other, err := r.Run(context.Background())
	require.NoError(t, err)
	require.NotEqual(t, run.ID, other.ID)
}

func TestRunFault(t *testing.T) {
	r := NewRunner(WithCheck(check.CheckFunc("explodes", func(context.Context) (check.CheckResult, error) {
		return check.CheckResult{}, errors.New("boom")
	})))
	run, err := r.Run(context.Background())
	require.Error(t, err)
	require.Equal(t, check.ExitRunFault, run.ExitCode)
	require.Empty(t, run.Results)
}

func TestRunChecksLogLevels(t *testing.T) {
	r := NewRunner(WithChecks(checks.Reference()...))

	var info bytes.Buffer
	ctx := zerolog.New(&info).Level(zerolog.InfoLevel).WithContext(context.Background())
	_, err := r.RunChecks(ctx)
	require.NoError(t, err)
	require.Empty(t, info.String(), "per-check logs should only appear at debug")

	var debug bytes.Buffer
	ctx = zerolog.New(&debug).Level(zerolog.DebugLevel).WithContext(context.Background())
	_, err = r.RunChecks(ctx)
	require.NoError(t, err)
	require.Equal(t, 5, bytes.Count(debug.Bytes(), []byte(`"message":"check started"`)))
	require.Equal(t, 5, bytes.Count(debug.Bytes(), []byte(`"message":"check finished"`)))
}
