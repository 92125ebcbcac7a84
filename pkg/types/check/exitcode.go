package check

// ExitCode is the process exit status derived from a run.
type ExitCode int

const (
	ExitOK       ExitCode = 0
	ExitFailed   ExitCode = 1
	ExitCritical ExitCode = 2
	ExitRunFault ExitCode = 3
)

// ExitCodeFor derives the exit code for a completed run. Any critical failure wins over
// failures of lower severity.
func ExitCodeFor(results []CheckResult) ExitCode {
	code := ExitOK
	for _, r := range results {
		if r.Passed {
			continue
		}
		if r.Severity == SeverityCritical {
			return ExitCritical
		}
		code = ExitFailed
	}
	return code
}
