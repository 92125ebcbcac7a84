// Package report renders check results for humans and machines.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jcodybaker/security-check/pkg/types/check"
)

const severityWidth = 8

// Summary aggregates a run's results. Total always equals Passed + Failed.
type Summary struct {
	Total          int
	Passed         int
	Failed         int
	CriticalFailed int
}

// Summarize counts results by outcome.
func Summarize(results []check.CheckResult) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		if r.Passed {
			s.Passed++
			continue
		}
		s.Failed++
		if r.Severity == check.SeverityCritical {
			s.CriticalFailed++
		}
	}
	return s
}

// Write renders results, followed by a summary, as plain text.
func Write(w io.Writer, results []check.CheckResult) error {
	ew := &errWriter{w: w}
	header(ew, "Security Check Results")
	for _, r := range results {
		marker := "✅"
		if !r.Passed {
			marker = "❌"
		}
		ew.printf("%s [%*s] %s\n", marker, severityWidth, strings.ToUpper(r.Severity.String()), r.Name)
		ew.printf("   %s\n", r.Message)
	}

	s := Summarize(results)
	header(ew, "Summary")
	ew.printf("Total Tests: %d\n", s.Total)
	ew.printf("Passed: %d\n", s.Passed)
	ew.printf("Failed: %d\n", s.Failed)
	ew.printf("\n")
	if s.CriticalFailed > 0 {
		ew.printf("🚨 CRITICAL: %d critical issue(s) found\n", s.CriticalFailed)
	}
	if s.Failed > 0 {
		ew.printf("⚠️  Status: issues found\n")
	} else {
		ew.printf("🎉 Status: all passed\n")
	}
	return ew.err
}

// WriteJSON renders a run as indented JSON.
func WriteJSON(w io.Writer, run check.RunResults) error {
	j := json.NewEncoder(w)
	j.SetIndent("", "  ")
	return j.Encode(struct {
		check.RunResults
		Summary Summary
	}{
		RunResults: run,
		Summary:    Summarize(run.Results),
	})
}

func header(ew *errWriter, title string) {
	ew.printf("\n%s\n%s\n", title, strings.Repeat("=", len(title)))
}

// errWriter keeps the first write error and drops later writes.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(format string, args ...interface{}) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}
