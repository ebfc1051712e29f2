package etl

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/songplay-dwh/internal/schema"
	"github.com/sells-group/songplay-dwh/internal/staging"
	"github.com/sells-group/songplay-dwh/internal/stmt"
	"github.com/sells-group/songplay-dwh/internal/warehouse"
)

// Pipeline loads the staging tables and runs the transform queries.
type Pipeline struct {
	conn   warehouse.Conn
	src    Sources
	runner *stmt.Runner
}

// New creates a Pipeline over conn.
func New(conn warehouse.Conn, src Sources, policy stmt.Policy) *Pipeline {
	return &Pipeline{conn: conn, src: src, runner: stmt.NewRunner(conn, policy)}
}

// Plan returns every statement Run would execute for dialect d, in order.
func Plan(d warehouse.Dialect, src Sources) []stmt.Statement {
	return append(CopyStatements(d, src), TransformStatements(d)...)
}

// LoadStaging fills staging_events and staging_songs. Redshift copies from
// object storage; other dialects read local files and bulk insert them.
func (p *Pipeline) LoadStaging(ctx context.Context) stmt.Report {
	d := p.conn.Dialect()
	stmts := CopyStatements(d, p.src)
	if !d.BulkCopies() {
		stmts[0].Run = p.localLoad(schema.StagingEvents, p.src.LogData, p.src.LogJSONPath)
		stmts[1].Run = p.localLoad(schema.StagingSongs, p.src.SongData, "")
	}

	report := p.runner.Run(ctx, stmts)
	p.logPhase("Staging tables loaded", report)
	return report
}

// Transform populates the fact and dimension tables from staging.
func (p *Pipeline) Transform(ctx context.Context) stmt.Report {
	report := p.runner.Run(ctx, TransformStatements(p.conn.Dialect()))
	p.logPhase("Fact and dimension tables populated", report)
	return report
}

// Run loads staging then transforms. Under fail-fast a failed load leaves the
// transform unattempted.
func (p *Pipeline) Run(ctx context.Context) stmt.Report {
	loaded := p.LoadStaging(ctx)
	if p.runner.Policy() == stmt.FailFast && loaded.Err() != nil {
		skipped := stmt.Report{}
		for _, s := range TransformStatements(p.conn.Dialect()) {
			skipped.Results = append(skipped.Results, stmt.Result{Statement: s, Status: stmt.StatusSkipped})
		}
		return loaded.Merge(skipped)
	}
	return loaded.Merge(p.Transform(ctx))
}

// localLoad reads table's source files and bulk inserts them.
func (p *Pipeline) localLoad(table schema.Table, source, jsonPaths string) func(context.Context) (int64, error) {
	return func(ctx context.Context) (int64, error) {
		mapping := staging.Auto()
		if jsonPaths != "" {
			m, err := staging.ReadJSONPaths(jsonPaths)
			if err != nil {
				return 0, err
			}
			mapping = m
		}

		rows, err := staging.Read(ctx, source, table, mapping)
		if err != nil {
			return 0, err
		}

		n, err := p.conn.BulkInsert(ctx, table.Name, table.ColumnNames(), rows)
		if err != nil {
			return n, eris.Wrapf(err, "etl: load %s", table.Name)
		}
		return n, nil
	}
}

func (p *Pipeline) logPhase(msg string, report stmt.Report) {
	zap.L().With(zap.String("component", "etl.pipeline")).Info(msg,
		zap.String("dialect", p.conn.Dialect().String()),
		zap.Int("statements", len(report.Results)),
		zap.Int("failed", len(report.Failed())),
		zap.Int64("rows", report.RowsAffected()),
	)
}
