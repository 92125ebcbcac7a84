package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/jcodybaker/security-check/pkg/storer"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newCommand(newStorer func(ctx context.Context) (storer.Storer, error), out io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Summarize stored check failures per check as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			startTS, err := timestampFlag(cmd, "start")
			if err != nil {
				return err
			}
			endTS, err := timestampFlag(cmd, "end")
			if err != nil {
				return err
			}
			s, err := newStorer(ctx)
			if err != nil {
				return fmt.Errorf("creating storer: %w", err)
			}
			defer s.Close()
			fmt.Fprintln(out, "check,runs,failures")
			err = s.AnalyzeFailures(ctx, startTS, endTS, func(checkName string, runs, failures int) {
				fmt.Fprintf(out, "%s,%d,%d\n", checkName, runs, failures)
			})
			if err != nil {
				return fmt.Errorf("analyzing failures: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().String("start", "", "start timestamp (RFC3339)")
	cmd.Flags().String("end", "", "end timestamp (RFC3339), defaults to now")
	return cmd
}

func timestampFlag(cmd *cobra.Command, name string) (time.Time, error) {
	v, err := cmd.Flags().GetString(name)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing %s flag: %w", name, err)
	}
	if v == "" {
		if name == "end" {
			return time.Now().UTC(), nil
		}
		return time.Time{}, fmt.Errorf("--%s is required", name)
	}
	ts, err := time.ParseInLocation(time.RFC3339Nano, v, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing %s timestamp: %w", name, err)
	}
	return ts, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	newStorer := func(ctx context.Context) (storer.Storer, error) {
		return storer.NewMySQLStorer(ctx, os.Getenv("DATABASE_URL"), os.Getenv("DATABASE_CA_CERT"), false)
	}
	if err := newCommand(newStorer, os.Stdout).ExecuteContext(ctx); err != nil {
		log.Fatal().Err(err).Msg("analyze")
	}
}
