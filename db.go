package qtool

import (
	"context"
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
)

// QTemplate is the bit-exact query every worker prepares once and reuses
// for every record it is handed. Three named parameters are bound in
// positional order: host, start_ts, end_ts.
const QTemplate = `SELECT STRFTIME('%Y-%m-%d %H:%M', TS) AS BUCKET,
       MAX(USAGE) AS MAX_CPU_USAGE,
       MIN(USAGE) AS MIN_CPU_USAGE
FROM CPU_USAGE
WHERE HOST = :HOST AND TS BETWEEN :START_TIME AND :END_TIME
GROUP BY BUCKET;`

// Queryable is the relational-store surface the core depends on for
// shutdown: close the connection once its statement has been finalized.
// *sql.DB satisfies it directly.
type Queryable interface {
	Close() error
}

// conn is the per-worker connection seam: prepare the one statement it will
// ever run, then close. Splitting this out from Queryable lets tests
// substitute a fake connection that never touches a real database.
type conn interface {
	Prepare(ctx context.Context, query string) (Stmt, error)
	Close() error
}

// connFactory opens one conn per worker. The default factory opens a real
// SQLite file; tests substitute a fake that hands back mock statements.
type connFactory interface {
	Open(path string) (conn, error)
}

// sqlConn adapts a real *sql.DB to conn.
type sqlConn struct {
	db *sql.DB
}

func (c sqlConn) Prepare(ctx context.Context, query string) (Stmt, error) {
	stmt, err := c.db.PrepareContext(ctx, query)
	if err != nil {
		return nil, err
	}
	return sqlStmt{stmt}, nil
}

func (c sqlConn) Close() error {
	return c.db.Close()
}

// sqliteConnFactory is the production connFactory, opening one exclusive
// connection per worker against the given SQLite database file. This
// models the original's sqlite3_open: one connection per worker, never
// shared.
type sqliteConnFactory struct{}

func (sqliteConnFactory) Open(path string) (conn, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	// One worker, one connection, one statement: there is no concurrent use
	// of this handle to pool.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	return sqlConn{db}, nil
}
