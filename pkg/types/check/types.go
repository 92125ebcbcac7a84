package check

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Severity ranks the impact of a failing check.
type Severity int

const (
	SeverityLow Severity = iota
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

var severityNames = []string{"low", "medium", "high", "critical"}

func (s Severity) String() string {
	if s < SeverityLow || s > SeverityCritical {
		return fmt.Sprintf("severity(%d)", int(s))
	}
	return severityNames[s]
}

// ParseSeverity parses a severity name, ignoring case.
func ParseSeverity(s string) (Severity, error) {
	for i, name := range severityNames {
		if strings.EqualFold(strings.TrimSpace(s), name) {
			return Severity(i), nil
		}
	}
	return SeverityLow, fmt.Errorf("unknown severity %q", s)
}

func (s Severity) MarshalText() ([]byte, error) {
	if s < SeverityLow || s > SeverityCritical {
		return nil, fmt.Errorf("invalid severity %d", int(s))
	}
	return []byte(s.String()), nil
}

func (s *Severity) UnmarshalText(b []byte) error {
	parsed, err := ParseSeverity(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// CheckResult is the outcome of a single check.
type CheckResult struct {
	Name     string
	Passed   bool
	Message  string
	Severity Severity
}

// Checker is a single verification procedure. A result with Passed=false is a normal outcome;
// a non-nil error means the check itself could not run and aborts the run.
type Checker interface {
	Name() string
	Check(ctx context.Context) (CheckResult, error)
}

// CheckFunc adapts a function into a Checker.
func CheckFunc(name string, f func(context.Context) (CheckResult, error)) Checker {
	return funcChecker{name: name, f: f}
}

type funcChecker struct {
	name string
	f    func(context.Context) (CheckResult, error)
}

func (c funcChecker) Name() string {
	return c.name
}

func (c funcChecker) Check(ctx context.Context) (CheckResult, error) {
	return c.f(ctx)
}

// Instance identifies the host which produced a run.
type Instance struct {
	DatabaseID int64 `json:"-"`
	UUID       string
	Hostname   string
	Labels     map[string]string
	StartedAt  time.Time
}

func NewInstance() (*Instance, error) {
	uuid, err := uuid.NewRandom()
	if err != nil {
		return nil, err
	}
	hostname, err := os.Hostname()
	if err != nil {
		return nil, err
	}
	return &Instance{
		UUID:      uuid.String(),
		Hostname:  hostname,
		StartedAt: time.Now(),
	}, nil
}

// RunResults describes one complete run of the configured checks.
type RunResults struct {
	ID       string
	Instance *Instance `json:",omitempty"`
	TS       time.Time
	Duration time.Duration
	Results  []CheckResult
	ExitCode ExitCode
}
