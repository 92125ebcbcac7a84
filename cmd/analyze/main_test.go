package main

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/jcodybaker/security-check/pkg/storer"
	"github.com/stretchr/testify/require"
)

func TestAnalyze(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	m := storer.NewMockStorer(ctrl)

	start := time.Date(2022, 10, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2022, 10, 2, 0, 0, 0, 0, time.UTC)
	m.EXPECT().AnalyzeFailures(gomock.Any(), start, end, gomock.Any()).
		DoAndReturn(func(_ context.Context, _, _ time.Time, output func(string, int, int)) error {
			output("csrf_protection", 10, 0)
			output("sql_injection_protection", 10, 3)
			return nil
		})
	m.EXPECT().Close().Return(nil)

	var out bytes.Buffer
	cmd := newCommand(func(context.Context) (storer.Storer, error) { return m, nil }, &out)
	cmd.SetArgs([]string{"--start", "2022-10-01T00:00:00Z", "--end", "2022-10-02T00:00:00Z"})
	require.NoError(t, cmd.Execute())
	require.Equal(t, "check,runs,failures\ncsrf_protection,10,0\nsql_injection_protection,10,3\n", out.String())
}

func TestAnalyzeRequiresStart(t *testing.T) {
	cmd := newCommand(func(context.Context) (storer.Storer, error) {
		t.Fatal("storer should not be created")
		return nil, nil
	}, &bytes.Buffer{})
	cmd.SetArgs([]string{"--end", "2022-10-02T00:00:00Z"})
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	require.Error(t, cmd.Execute())
}
