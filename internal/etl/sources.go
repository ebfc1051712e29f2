// Package etl loads the staging tables and transforms staged rows into the
// songplays fact table and the users, songs, artists and time dimensions.
package etl

import (
	"strings"

	"github.com/sells-group/songplay-dwh/internal/config"
)

// Sources locates the raw data and the credentials used to copy it.
type Sources struct {
	LogData     string // event log files
	SongData    string // song catalog files
	LogJSONPath string // JSONPaths file for the event log; empty = 'auto'
	IAMRoleARN  string
	Region      string
	CompUpdate  bool
}

// SourcesFromConfig extracts the pipeline inputs from cfg. Values wrapped in
// single quotes, as older config files write them, are unwrapped.
func SourcesFromConfig(cfg *config.Config) Sources {
	return Sources{
		LogData:     unquote(cfg.S3.LogData),
		SongData:    unquote(cfg.S3.SongData),
		LogJSONPath: unquote(cfg.S3.LogJSONPath),
		IAMRoleARN:  unquote(cfg.IAMRole.ARN),
		Region:      unquote(cfg.Warehouse.Region),
		CompUpdate:  cfg.Warehouse.CompUpdate,
	}
}

func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && s[0] == '\'' && s[len(s)-1] == '\'' {
		return s[1 : len(s)-1]
	}
	return s
}

// literal renders s as a single-quoted SQL string literal.
func literal(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
