// Package warehouse abstracts the SQL targets the pipeline can run against:
// Amazon Redshift (production), PostgreSQL and SQLite (local runs and tests).
package warehouse

import (
	"strings"

	"github.com/rotisserie/eris"
)

// Dialect names a SQL target.
type Dialect string

const (
	Redshift Dialect = "redshift"
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

// Dialects lists the supported targets.
var Dialects = []Dialect{Redshift, Postgres, SQLite}

// ParseDialect resolves a configured dialect name, case-insensitively.
func ParseDialect(s string) (Dialect, error) {
	d := Dialect(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Dialects {
		if d == known {
			return d, nil
		}
	}
	return "", eris.Errorf("warehouse: unknown dialect %q", s)
}

// BulkCopies reports whether the target loads staging tables itself from object
// storage. Other dialects receive rows read locally.
func (d Dialect) BulkCopies() bool { return d == Redshift }

// String implements fmt.Stringer.
func (d Dialect) String() string { return string(d) }
