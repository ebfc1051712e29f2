package stmt

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

// fakeExecer records executed SQL and fails on statements listed in failOn.
type fakeExecer struct {
	executed []string
	failOn   map[string]error
}

func (f *fakeExecer) Exec(_ context.Context, sql string) (int64, error) {
	f.executed = append(f.executed, sql)
	if err, ok := f.failOn[sql]; ok {
		return 0, err
	}
	return 1, nil
}

func statements() []Statement {
	return []Statement{
		{Name: "staging_events", Phase: PhaseDrop, SQL: "DROP TABLE IF EXISTS staging_events;"},
		{Name: "songplays", Phase: PhaseDrop, SQL: "DROP TABLE IF EXISTS songplays;"},
		{Name: "users", Phase: PhaseDrop, SQL: "DROP TABLE IF EXISTS users;"},
	}
}

func TestRun_AllSucceed(t *testing.T) {
	f := &fakeExecer{}
	report := NewRunner(f, BestEffort).Run(context.Background(), statements())

	require.Len(t, report.Results, 3)
	assert.Empty(t, report.Failed())
	assert.NoError(t, report.Err())
	assert.Equal(t, int64(3), report.RowsAffected())
	assert.Equal(t, []string{
		"DROP TABLE IF EXISTS staging_events;",
		"DROP TABLE IF EXISTS songplays;",
		"DROP TABLE IF EXISTS users;",
	}, f.executed)
}

func TestRun_BestEffortContinuesAfterFailure(t *testing.T) {
	f := &fakeExecer{failOn: map[string]error{
		"DROP TABLE IF EXISTS songplays;": errors.New("relation is locked"),
	}}
	report := NewRunner(f, BestEffort).Run(context.Background(), statements())

	assert.Len(t, f.executed, 3, "every statement is attempted")
	failed := report.Failed()
	require.Len(t, failed, 1)
	assert.Equal(t, "songplays", failed[0].Statement.Name)
	assert.Equal(t, StatusOK, report.Results[2].Status)
	assert.Equal(t, 0, report.Skipped())

	err := report.Err()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 statement(s) failed (songplays)")
	assert.Contains(t, err.Error(), "relation is locked")
}

func TestRun_FailFastSkipsRemainder(t *testing.T) {
	f := &fakeExecer{failOn: map[string]error{
		"DROP TABLE IF EXISTS staging_events;": errors.New("boom"),
	}}
	report := NewRunner(f, FailFast).Run(context.Background(), statements())

	assert.Len(t, f.executed, 1)
	assert.Equal(t, StatusFailed, report.Results[0].Status)
	assert.Equal(t, StatusSkipped, report.Results[1].Status)
	assert.Equal(t, StatusSkipped, report.Results[2].Status)
	assert.Equal(t, 2, report.Skipped())
	assert.Error(t, report.Err())
}

func TestRun_CancelledContextSkips(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := &fakeExecer{}
	report := NewRunner(f, BestEffort).Run(ctx, statements())

	assert.Empty(t, f.executed)
	assert.Equal(t, 3, report.Skipped())
	assert.NoError(t, report.Err(), "skipped statements are not failures")
}

func TestRun_UsesRunFuncWhenSet(t *testing.T) {
	f := &fakeExecer{}
	called := false
	stmts := []Statement{{
		Name:  "staging_songs",
		Phase: PhaseCopy,
		Run: func(context.Context) (int64, error) {
			called = true
			return 71, nil
		},
	}}

	report := NewRunner(f, BestEffort).Run(context.Background(), stmts)
	assert.True(t, called)
	assert.Empty(t, f.executed)
	assert.Equal(t, int64(71), report.RowsAffected())
}

func TestReport_Merge(t *testing.T) {
	a := Report{Results: []Result{{Statement: Statement{Name: "a"}, Status: StatusOK, Rows: 2}}}
	b := Report{Results: []Result{{Statement: Statement{Name: "b"}, Status: StatusOK, Rows: 3}}}

	m := a.Merge(b)
	require.Len(t, m.Results, 2)
	assert.Equal(t, int64(5), m.RowsAffected())
	assert.Len(t, a.Results, 1, "merge leaves the receiver untouched")
}

func TestPolicy_String(t *testing.T) {
	assert.Equal(t, "best-effort", BestEffort.String())
	assert.Equal(t, "fail-fast", FailFast.String())
}
