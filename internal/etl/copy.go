package etl

import (
	"fmt"
	"strings"

	"github.com/sells-group/songplay-dwh/internal/schema"
	"github.com/sells-group/songplay-dwh/internal/stmt"
	"github.com/sells-group/songplay-dwh/internal/warehouse"
)

// CopySQL renders the Redshift bulk copy of table from uri. An empty jsonPaths
// lets the warehouse match JSON keys to column names.
func CopySQL(table, uri, jsonPaths string, src Sources) string {
	format := "'auto'"
	if jsonPaths != "" {
		format = literal(jsonPaths)
	}
	compupdate := "OFF"
	if src.CompUpdate {
		compupdate = "ON"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "COPY %s FROM %s\n", table, literal(uri))
	fmt.Fprintf(&b, "CREDENTIALS %s\n", literal("aws_iam_role="+src.IAMRoleARN))
	fmt.Fprintf(&b, "COMPUPDATE %s REGION %s\n", compupdate, literal(src.Region))
	fmt.Fprintf(&b, "FORMAT AS JSON %s;", format)
	return b.String()
}

// localLoadSQL describes a load the process performs itself. It is never sent
// to the database; plans and logs show it in place of a COPY.
func localLoadSQL(table, path, jsonPaths string) string {
	mapping := "auto"
	if jsonPaths != "" {
		mapping = "jsonpaths " + jsonPaths
	}
	return fmt.Sprintf("-- load %s from local files %s (%s)", table, path, mapping)
}

// CopyStatements renders the staging loads: events first, then songs. The
// event log needs its JSONPaths file because its keys (firstName, userId, ...)
// differ from the column names; the song catalog keys already match.
func CopyStatements(d warehouse.Dialect, src Sources) []stmt.Statement {
	events := schema.StagingEvents.Name
	songs := schema.StagingSongs.Name

	if d.BulkCopies() {
		return []stmt.Statement{
			{Name: events, Phase: stmt.PhaseCopy, SQL: CopySQL(events, src.LogData, src.LogJSONPath, src)},
			{Name: songs, Phase: stmt.PhaseCopy, SQL: CopySQL(songs, src.SongData, "", src)},
		}
	}
	return []stmt.Statement{
		{Name: events, Phase: stmt.PhaseCopy, SQL: localLoadSQL(events, src.LogData, src.LogJSONPath)},
		{Name: songs, Phase: stmt.PhaseCopy, SQL: localLoadSQL(songs, src.SongData, "")},
	}
}
