package schema

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/songplay-dwh/internal/stmt"
	"github.com/sells-group/songplay-dwh/internal/warehouse"
)

// Manager drops and recreates the warehouse tables.
type Manager struct {
	conn   warehouse.Conn
	runner *stmt.Runner
}

// NewManager creates a Manager over conn.
func NewManager(conn warehouse.Conn, policy stmt.Policy) *Manager {
	return &Manager{conn: conn, runner: stmt.NewRunner(conn, policy)}
}

// DropAll drops every table. Missing tables are not an error.
func (m *Manager) DropAll(ctx context.Context) stmt.Report {
	report := m.runner.Run(ctx, DropStatements())
	m.logPhase("All of the tables have been dropped", report)
	return report
}

// CreateAll creates every table that does not exist yet.
func (m *Manager) CreateAll(ctx context.Context) stmt.Report {
	report := m.runner.Run(ctx, CreateStatements(m.conn.Dialect()))
	m.logPhase("All of the tables have been created", report)
	return report
}

// Reset drops then recreates every table. Under fail-fast a failed drop
// leaves the create phase unattempted.
func (m *Manager) Reset(ctx context.Context) stmt.Report {
	dropped := m.DropAll(ctx)
	if m.runner.Policy() == stmt.FailFast && dropped.Err() != nil {
		skipped := stmt.Report{}
		for _, s := range CreateStatements(m.conn.Dialect()) {
			skipped.Results = append(skipped.Results, stmt.Result{Statement: s, Status: stmt.StatusSkipped})
		}
		return dropped.Merge(skipped)
	}
	return dropped.Merge(m.CreateAll(ctx))
}

func (m *Manager) logPhase(msg string, report stmt.Report) {
	zap.L().With(zap.String("component", "schema.manager")).Info(msg,
		zap.String("dialect", m.conn.Dialect().String()),
		zap.Int("statements", len(report.Results)),
		zap.Int("failed", len(report.Failed())),
	)
}

// TableCount is the row count of one table, or the error reading it.
type TableCount struct {
	Table string
	Role  Role
	Rows  int64
	Err   error
}

// Counts reads the row count of every table. A missing table is reported on
// its own row rather than aborting the rest.
func Counts(ctx context.Context, conn warehouse.Conn) []TableCount {
	out := make([]TableCount, 0, len(Tables))
	for _, t := range Tables {
		n, err := conn.Count(ctx, t.Name)
		out = append(out, TableCount{Table: t.Name, Role: t.Role, Rows: n, Err: err})
	}
	return out
}
