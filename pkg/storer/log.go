package storer

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/jcodybaker/security-check/pkg/types/check"
)

// LogStorer writes to logs instead of a database.
type LogStorer struct {
	w  io.Writer
	mu sync.Mutex
	commonStorer
}

// NewLogStorer returns a thin storer which logs JSON output to the provided writer.
func NewLogStorer(w io.Writer) Storer {
	l := &LogStorer{
		w: w,
	}
	l.commonStorer.init()
	return l
}

// SaveRunResults writes the run as indented JSON.
func (l *LogStorer) SaveRunResults(ctx context.Context, run check.RunResults) (err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	j := json.NewEncoder(l.w)
	j.SetIndent("  ", "  ")
	return j.Encode(run)
}

// Close waits for pending async saves.
func (l *LogStorer) Close() error {
	l.shutdown()
	return nil
}

// AnalyzeFailures is unsupported; logged runs cannot be read back.
func (l *LogStorer) AnalyzeFailures(
	ctx context.Context,
	start time.Time,
	end time.Time,
	output func(checkName string, runs, failures int),
) error {
	return errors.New("log storer does not support analysis")
}

// nopStorer discards everything.
type nopStorer struct {
	commonStorer
}

// NewNopStorer returns a storer which persists nothing.
func NewNopStorer() Storer {
	n := &nopStorer{}
	n.commonStorer.init()
	return n
}

func (n *nopStorer) SaveRunResults(ctx context.Context, run check.RunResults) error {
	return nil
}

func (n *nopStorer) Close() error {
	n.shutdown()
	return nil
}

func (n *nopStorer) AnalyzeFailures(ctx context.Context, start, end time.Time, output func(string, int, int)) error {
	return errors.New("storage is disabled")
}
