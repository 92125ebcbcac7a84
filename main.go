package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jcodybaker/security-check/pkg/checker"
	"github.com/jcodybaker/security-check/pkg/checks"
	"github.com/jcodybaker/security-check/pkg/report"
	"github.com/jcodybaker/security-check/pkg/storer"
	"github.com/jcodybaker/security-check/pkg/types/check"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

type options struct {
	skip      []string
	timeout   time.Duration
	output    string
	storeURI  string
	storeCert string
	labels    string
	logLevel  string
	checks    []check.Checker
	newStorer func(ctx context.Context, uri, cert string) (storer.Storer, error)
	newLogger func(w io.Writer) zerolog.Logger
	stdout    io.Writer
	stderr    io.Writer
}

func defaultOptions() *options {
	o := &options{
		output:    "text",
		storeURI:  os.Getenv("DATABASE_URL"),
		storeCert: os.Getenv("DATABASE_CA_CERT"),
		labels:    os.Getenv("LABELS"),
		logLevel:  os.Getenv("LOG_LEVEL"),
		checks:    checks.Reference(),
		newStorer: func(ctx context.Context, uri, cert string) (storer.Storer, error) {
			return storer.New(ctx, uri, cert, true)
		},
		newLogger: newLogger,
		stdout:    os.Stdout,
		stderr:    os.Stderr,
	}
	if s := os.Getenv("SKIP_CHECKS"); s != "" {
		o.skip = strings.Split(s, ",")
	}
	if o.logLevel == "" {
		o.logLevel = "warn"
	}
	return o
}

func newLogger(w io.Writer) zerolog.Logger {
	return zerolog.New(w).With().Timestamp().Logger()
}

func newCommand(o *options, exitCode *check.ExitCode) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "security-check",
		Short:         "Run security checks and report the results",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if t := os.Getenv("CHECK_TIMEOUT"); t != "" && !cmd.Flags().Changed("timeout") {
				var err error
				if o.timeout, err = time.ParseDuration(t); err != nil {
					return fmt.Errorf("parsing CHECK_TIMEOUT: %w", err)
				}
			}
			*exitCode = run(cmd.Context(), o)
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&o.skip, "skip", o.skip, "checks to skip, by name (env SKIP_CHECKS)")
	cmd.Flags().DurationVar(&o.timeout, "timeout", o.timeout, "per-check timeout, 0 to disable (env CHECK_TIMEOUT)")
	cmd.Flags().StringVar(&o.output, "output", o.output, "report format: text or json")
	cmd.Flags().StringVar(&o.storeURI, "store", o.storeURI, "store results: stdout, stderr or a mysql:// url (env DATABASE_URL)")
	cmd.Flags().StringVar(&o.storeCert, "store-ca-cert", o.storeCert, "CA certificate for the mysql store (env DATABASE_CA_CERT)")
	cmd.Flags().StringVar(&o.labels, "labels", o.labels, "labels stored with each run, as a query string (env LABELS)")
	cmd.Flags().StringVar(&o.logLevel, "log-level", o.logLevel, "log level (env LOG_LEVEL)")
	return cmd
}

// run executes the configured checks and returns the process exit code.
func run(ctx context.Context, o *options) check.ExitCode {
	ll := o.newLogger(o.stderr)
	level, err := zerolog.ParseLevel(o.logLevel)
	if err != nil {
		ll.Error().Err(err).Msg("parsing log level")
		return check.ExitRunFault
	}
	ll = ll.Level(level)
	ctx = ll.WithContext(ctx)

	mysqlLogger := ll.With().Str("component", "mysql").Logger()
	mysql.SetLogger(&mysqlLogger)

	if o.output != "text" && o.output != "json" {
		ll.Error().Str("output", o.output).Msg("unsupported output format")
		return check.ExitRunFault
	}

	instance, err := check.NewInstance()
	if err != nil {
		ll.Error().Err(err).Msg("initializing instance")
		return check.ExitRunFault
	}
	instance.Labels, err = parseLabels(o.labels)
	if err != nil {
		ll.Error().Err(err).Msg("parsing labels")
		return check.ExitRunFault
	}

	s, err := o.newStorer(ctx, o.storeURI, o.storeCert)
	if err != nil {
		ll.Error().Err(err).Msg("creating storer")
		return check.ExitRunFault
	}
	defer func() {
		if err := s.Close(); err != nil {
			ll.Warn().Err(err).Msg("closing storer")
		}
	}()

	r := checker.NewRunner(
		checker.WithInstance(instance),
		checker.WithTimeout(o.timeout),
		checker.WithChecks(checks.Filter(o.checks, o.skip)...),
	)
	results, err := r.Run(ctx)
	if err != nil {
		var fault *checker.RunFault
		if errors.As(err, &fault) {
			ll.Error().Err(fault.Err).Str("check", fault.Check).Msg("security check run failed")
		} else {
			ll.Error().Err(err).Msg("security check run failed")
		}
		return check.ExitRunFault
	}

	if o.output == "json" {
		err = report.WriteJSON(o.stdout, results)
	} else {
		err = report.Write(o.stdout, results.Results)
	}
	// Saving starts after the report is written; a log storer may share stdout.
	s.AsyncQueryRetry(ctx, storer.SaveBackOffSchedule, func(ctx context.Context, attempt int) error {
		return s.SaveRunResults(ctx, results)
	})
	if err != nil {
		ll.Error().Err(err).Msg("writing report")
		return check.ExitRunFault
	}
	return results.ExitCode
}

func parseLabels(labels string) (map[string]string, error) {
	out := make(map[string]string)
	asQuery, err := url.ParseQuery(labels)
	if err != nil {
		return nil, fmt.Errorf("parsing labels: %w", err)
	}
	for k, vs := range asQuery {
		if len(vs) == 0 {
			continue
		}
		if len(vs) > 1 {
			return nil, fmt.Errorf("label %q had multiple values", k)
		}
		out[k] = vs[0]
	}
	return out, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)

	exitCode := check.ExitRunFault
	if err := newCommand(defaultOptions(), &exitCode).ExecuteContext(ctx); err != nil {
		ll := newLogger(os.Stderr)
		ll.Error().Err(err).Msg("security-check")
		exitCode = check.ExitRunFault
	}
	stop()
	os.Exit(int(exitCode))
}
