package storer

import (
	"context"
	"time"

	"github.com/jcodybaker/security-check/pkg/types/check"
)

//go:generate mockgen -destination=mock_storer.go -package=storer . Storer

// Storer instances store run history.
type Storer interface {
	// SaveRunResults saves the results of one run.
	SaveRunResults(ctx context.Context, run check.RunResults) (err error)

	// AsyncQueryRetry runs f asynchronously, retrying on failure per attemptSchedule.
	AsyncQueryRetry(
		ctx context.Context,
		attemptSchedule []time.Duration,
		f func(ctx context.Context, attempt int) error,
	)

	// Close triggers any asynchronous saves to immediately make a final attempt, waits briefly
	// for their completion, and closes database connections.
	Close() error

	// AnalyzeFailures reports, per check, how many stored runs included it and how many of those
	// failed within [start, end].
	AnalyzeFailures(ctx context.Context, start, end time.Time, output func(checkName string, runs, failures int)) error
}
