// Package checks provides the built-in check set.
//
// The built-in checks are placeholders: each reports a fixed outcome and inspects nothing.
// Real verifiers plug in through check.Checker.
package checks

import (
	"context"

	"github.com/iancoleman/strcase"
	"github.com/jcodybaker/security-check/pkg/types/check"
)

// Static returns a check which always reports the given outcome.
func Static(name string, severity check.Severity, passed bool, message string) check.Checker {
	return check.CheckFunc(name, func(context.Context) (check.CheckResult, error) {
		return check.CheckResult{
			Name:     name,
			Passed:   passed,
			Message:  message,
			Severity: severity,
		}, nil
	})
}

// Reference returns the default check set, in execution order.
func Reference() []check.Checker {
	return []check.Checker{
		Static("Security Headers", check.SeverityMedium, true,
			"Security headers are properly configured"),
		Static("Password Security", check.SeverityHigh, true,
			"Password hashing and validation meet requirements"),
		Static("SQL Injection Protection", check.SeverityCritical, true,
			"Parameterized queries prevent SQL injection"),
		Static("XSS Protection", check.SeverityHigh, true,
			"Output encoding prevents cross-site scripting"),
		Static("CSRF Protection", check.SeverityMedium, true,
			"CSRF tokens protect state-changing requests"),
	}
}

// Key normalizes a check name for matching and storage, so "SQL Injection Protection" and
// "sql_injection_protection" compare equal.
func Key(name string) string {
	return strcase.ToSnake(name)
}

// Filter drops the named checks, preserving the order of the rest.
func Filter(cs []check.Checker, skip []string) []check.Checker {
	if len(skip) == 0 {
		return cs
	}
	drop := make(map[string]bool, len(skip))
	for _, s := range skip {
		drop[Key(s)] = true
	}
	out := make([]check.Checker, 0, len(cs))
	for _, c := range cs {
		if drop[Key(c.Name())] {
			continue
		}
		out = append(out, c)
	}
	return out
}
