package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/sells-group/songplay-dwh/internal/db"
)

// Conn is a single warehouse session. Each Exec commits on its own.
type Conn interface {
	Dialect() Dialect
	Exec(ctx context.Context, sql string) (int64, error)
	Count(ctx context.Context, table string) (int64, error)
	BulkInsert(ctx context.Context, table string, columns []string, rows [][]any) (int64, error)
	Close()
}

// pgxConn runs against Redshift or PostgreSQL through a pgx pool.
type pgxConn struct {
	pool    db.Pool
	dialect Dialect
}

// NewPgx wraps a pgx pool. The pool should be capped at one connection.
func NewPgx(pool db.Pool, d Dialect) Conn {
	return &pgxConn{pool: pool, dialect: d}
}

func (c *pgxConn) Dialect() Dialect { return c.dialect }

func (c *pgxConn) Exec(ctx context.Context, sql string) (int64, error) {
	tag, err := c.pool.Exec(ctx, sql)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (c *pgxConn) Count(ctx context.Context, table string) (int64, error) {
	var n int64
	q := fmt.Sprintf("SELECT COUNT(*) FROM %s", pgx.Identifier{table}.Sanitize())
	if err := c.pool.QueryRow(ctx, q).Scan(&n); err != nil {
		return 0, eris.Wrapf(err, "warehouse: count %s", table)
	}
	return n, nil
}

func (c *pgxConn) BulkInsert(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	return db.CopyFrom(ctx, c.pool, table, columns, rows, 0)
}

func (c *pgxConn) Close() { c.pool.Close() }

// sqlConn runs against a database/sql handle (SQLite).
type sqlConn struct {
	db      *sql.DB
	dialect Dialect
}

// NewSQL wraps a database/sql handle and pins it to a single connection.
func NewSQL(handle *sql.DB, d Dialect) Conn {
	handle.SetMaxOpenConns(1)
	return &sqlConn{db: handle, dialect: d}
}

func (c *sqlConn) Dialect() Dialect { return c.dialect }

func (c *sqlConn) Exec(ctx context.Context, query string) (int64, error) {
	res, err := c.db.ExecContext(ctx, query)
	if err != nil {
		return 0, err
	}
	// Not every statement reports affected rows.
	n, _ := res.RowsAffected()
	return n, nil
}

func (c *sqlConn) Count(ctx context.Context, table string) (int64, error) {
	var n int64
	q := fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteIdent(table))
	if err := c.db.QueryRowContext(ctx, q).Scan(&n); err != nil {
		return 0, eris.Wrapf(err, "warehouse: count %s", table)
	}
	return n, nil
}

// BulkInsert writes rows with one prepared INSERT inside a single transaction.
func (c *sqlConn) BulkInsert(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	cols := make([]string, len(columns))
	marks := make([]string, len(columns))
	for i, col := range columns {
		cols[i] = quoteIdent(col)
		marks[i] = "?"
	}
	insertSQL := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoteIdent(table), strings.Join(cols, ", "), strings.Join(marks, ", "))

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrapf(err, "warehouse: begin insert into %s", table)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, insertSQL)
	if err != nil {
		return 0, eris.Wrapf(err, "warehouse: prepare insert into %s", table)
	}
	defer stmt.Close() //nolint:errcheck

	var total int64
	for i, row := range rows {
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			return 0, eris.Wrapf(err, "warehouse: insert into %s (row %d)", table, i)
		}
		total++
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrapf(err, "warehouse: commit insert into %s", table)
	}
	return total, nil
}

func (c *sqlConn) Close() { _ = c.db.Close() }

// quoteIdent double-quotes an identifier for SQLite.
func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
