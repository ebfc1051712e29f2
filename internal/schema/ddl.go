package schema

import (
	"fmt"
	"strings"

	"github.com/sells-group/songplay-dwh/internal/stmt"
	"github.com/sells-group/songplay-dwh/internal/warehouse"
)

// DropSQL renders the DROP statement for t.
func DropSQL(t Table) string {
	return fmt.Sprintf("DROP TABLE IF EXISTS %s;", t.Name)
}

// CreateSQL renders the CREATE statement for t in dialect d.
func CreateSQL(d warehouse.Dialect, t Table) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE IF NOT EXISTS %s (\n", t.Name)
	for i, c := range t.Columns {
		b.WriteString("    ")
		b.WriteString(columnSQL(d, c))
		if i < len(t.Columns)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	b.WriteString(");")
	return b.String()
}

func columnSQL(d warehouse.Dialect, c Column) string {
	parts := []string{c.Name}

	if c.Identity {
		switch d {
		case warehouse.Redshift:
			parts = append(parts, "INTEGER IDENTITY(1,1)")
		case warehouse.Postgres:
			parts = append(parts, "INTEGER GENERATED BY DEFAULT AS IDENTITY")
		case warehouse.SQLite:
			// Only INTEGER PRIMARY KEY columns alias the rowid.
			return c.Name + " INTEGER PRIMARY KEY AUTOINCREMENT"
		}
	} else {
		parts = append(parts, typeSQL(c))
	}

	if c.PrimaryKey {
		parts = append(parts, "PRIMARY KEY")
	}
	if d == warehouse.Redshift {
		if c.DistKey {
			parts = append(parts, "DISTKEY")
		}
		if c.SortKey {
			parts = append(parts, "SORTKEY")
		}
	}
	return strings.Join(parts, " ")
}

func typeSQL(c Column) string {
	switch c.Type {
	case Integer:
		return "INTEGER"
	case BigInt:
		return "BIGINT"
	case Float:
		return "FLOAT"
	case Timestamp:
		return "TIMESTAMP"
	default:
		if c.Size > 0 {
			return fmt.Sprintf("VARCHAR(%d)", c.Size)
		}
		return "VARCHAR"
	}
}

// DropStatements renders the drop list in catalog order.
func DropStatements() []stmt.Statement {
	out := make([]stmt.Statement, len(Tables))
	for i, t := range Tables {
		out[i] = stmt.Statement{Name: t.Name, Phase: stmt.PhaseDrop, SQL: DropSQL(t)}
	}
	return out
}

// CreateStatements renders the create list for dialect d in catalog order.
func CreateStatements(d warehouse.Dialect) []stmt.Statement {
	out := make([]stmt.Statement, len(Tables))
	for i, t := range Tables {
		out[i] = stmt.Statement{Name: t.Name, Phase: stmt.PhaseCreate, SQL: CreateSQL(d, t)}
	}
	return out
}
