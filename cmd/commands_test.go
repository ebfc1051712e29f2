package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/songplay-dwh/internal/warehouse"
)

// writeSQLiteConfig points the sqlite dialect at a temp database and the
// staging package's testdata.
func writeSQLiteConfig(t *testing.T, failFast bool) string {
	t.Helper()
	dir := t.TempDir()

	logData, err := filepath.Abs("../internal/staging/testdata/log_data")
	require.NoError(t, err)
	songData, err := filepath.Abs("../internal/staging/testdata/song_data")
	require.NoError(t, err)
	jsonPaths, err := filepath.Abs("../internal/staging/testdata/log_json_path.json")
	require.NoError(t, err)

	failFastVal := "false"
	if failFast {
		failFastVal = "true"
	}
	yaml := `
warehouse:
  dialect: sqlite
  sqlite_path: ` + filepath.Join(dir, "dwh.db") + `
  fail_fast: ` + failFastVal + `
s3:
  log_data: ` + logData + `
  song_data: ` + songData + `
  log_jsonpath: ` + jsonPaths + `
log:
  level: error
`
	path := filepath.Join(dir, "dwh.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0644))
	return path
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.Execute()
	return out.String(), errOut.String(), err
}

func TestCommands_SQLiteEndToEnd(t *testing.T) {
	path := writeSQLiteConfig(t, false)

	out, _, err := execute(t, "--config", path, "create-tables")
	require.NoError(t, err)
	assert.Contains(t, out, "All of the tables have been dropped")
	assert.Contains(t, out, "All of the tables have been created")

	out, errOut, err := execute(t, "--config", path, "etl")
	require.NoError(t, err)
	assert.Contains(t, out, "ETL complete: 7 statements")
	assert.Empty(t, errOut)

	out, _, err = execute(t, "--config", path, "status")
	require.NoError(t, err)

	want := map[string]string{
		"staging_events": "3",
		"staging_songs":  "2",
		"songplays":      "1",
		"users":          "1",
		"songs":          "2",
		"artists":        "2",
		"time":           "1",
	}
	rows := parseStatus(t, out)
	for table, n := range want {
		assert.Equal(t, n, rows[table], "rows in %s", table)
	}
}

func TestCommands_CreateTablesFailFastSkipsCreate(t *testing.T) {
	path := writeSQLiteConfig(t, true)

	// A view named like a staging table makes DROP TABLE fail.
	ctx := context.Background()
	conn, err := warehouse.OpenSQLite(ctx, filepath.Join(filepath.Dir(path), "dwh.db"))
	require.NoError(t, err)
	_, err = conn.Exec(ctx, "CREATE VIEW staging_events AS SELECT 1 AS one")
	require.NoError(t, err)
	conn.Close()

	out, errOut, err := execute(t, "--config", path, "create-tables")
	require.Error(t, err)
	assert.Contains(t, out, "All of the tables have been dropped")
	assert.NotContains(t, out, "All of the tables have been created")
	assert.Contains(t, errOut, "1 of 14 statements failed")
	assert.Contains(t, errOut, "13 statements skipped")
}

func TestCommands_ETLWithoutTablesBestEffort(t *testing.T) {
	path := writeSQLiteConfig(t, false)

	// No create-tables first: every statement fails but the command still succeeds.
	_, errOut, err := execute(t, "--config", path, "etl")
	require.NoError(t, err)
	assert.Contains(t, errOut, "7 of 7 statements failed")
}

func TestCommands_ETLWithoutTablesFailFast(t *testing.T) {
	path := writeSQLiteConfig(t, true)

	_, errOut, err := execute(t, "--config", path, "etl")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "statement(s) failed")
	assert.Contains(t, errOut, "1 of 7 statements failed")
	assert.Contains(t, errOut, "6 statements skipped")
}

func TestCommands_PlanDoesNotConnect(t *testing.T) {
	path := writeSQLiteConfig(t, false)

	out, _, err := execute(t, "--config", path, "plan", "create-tables", "--dialect", "postgres", "--format", "text")
	require.NoError(t, err)
	assert.Contains(t, out, "GENERATED BY DEFAULT AS IDENTITY")
	assert.NoFileExists(t, filepath.Join(filepath.Dir(path), "dwh.db"))
}

func TestCommands_MissingSourcesRejected(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dwh.yaml")
	require.NoError(t, os.WriteFile(path, []byte("warehouse:\n  dialect: sqlite\n  sqlite_path: "+filepath.Join(dir, "dwh.db")+"\nlog:\n  level: error\n"), 0644))

	_, _, err := execute(t, "--config", path, "etl")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "s3.log_data is required")
}

// parseStatus maps table name to the ROWS column of status output.
func parseStatus(t *testing.T, out string) map[string]string {
	t.Helper()
	rows := make(map[string]string)
	for _, line := range bytes.Split([]byte(out), []byte("\n")) {
		fields := bytes.Fields(line)
		if len(fields) >= 3 {
			rows[string(fields[0])] = string(fields[2])
		}
	}
	return rows
}
