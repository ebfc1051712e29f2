package warehouse

import (
	"context"
	"database/sql"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	// Registers the "sqlite" database/sql driver.
	_ "modernc.org/sqlite"

	"github.com/sells-group/songplay-dwh/internal/config"
	"github.com/sells-group/songplay-dwh/internal/db"
)

// Open connects to the warehouse selected by cfg.Warehouse.Dialect.
func Open(ctx context.Context, cfg *config.Config) (Conn, error) {
	d, err := ParseDialect(cfg.Warehouse.Dialect)
	if err != nil {
		return nil, err
	}

	log := zap.L().With(
		zap.String("component", "warehouse.open"),
		zap.String("dialect", d.String()),
	)

	switch d {
	case SQLite:
		conn, err := OpenSQLite(ctx, cfg.Warehouse.SQLitePath)
		if err != nil {
			return nil, err
		}
		log.Info("connected to database", zap.String("path", cfg.Warehouse.SQLitePath))
		return conn, nil
	default:
		pool, err := db.NewSingleConnPool(ctx, cfg.Cluster.DSN())
		if err != nil {
			return nil, eris.Wrapf(err, "warehouse: connect %s", d)
		}
		log.Info("connected to database",
			zap.String("host", cfg.Cluster.Host),
			zap.String("dbname", cfg.Cluster.DBName),
		)
		return NewPgx(pool, d), nil
	}
}

// OpenSQLite opens a SQLite database file (or ":memory:").
func OpenSQLite(ctx context.Context, path string) (Conn, error) {
	handle, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrapf(err, "warehouse: open sqlite %s", path)
	}
	conn := NewSQL(handle, SQLite)
	if err := handle.PingContext(ctx); err != nil {
		conn.Close()
		return nil, eris.Wrapf(err, "warehouse: ping sqlite %s", path)
	}
	return conn, nil
}
