package qtool

import (
	"context"
	"database/sql"

	"github.com/sirupsen/logrus"
)

// RowsCursor is the step surface of a query result: advance one row at a
// time, check for iteration errors, release when done. *sql.Rows satisfies
// it directly.
type RowsCursor interface {
	Next() bool
	Err() error
	Close() error
}

// Stmt is the bind-and-step surface of a prepared statement: each
// QueryContext call rebinds the named parameters and (re-)executes the
// plan, which is the Go-native equivalent of sqlite3_reset followed by
// sqlite3_bind_text and sqlite3_step. It returns RowsCursor rather than
// *sql.Rows directly so it can be satisfied by a hand-written mock in
// tests without a live database.
type Stmt interface {
	QueryContext(ctx context.Context, args ...interface{}) (RowsCursor, error)
	Close() error
}

// sqlStmt adapts a real *sql.Stmt to Stmt.
type sqlStmt struct {
	*sql.Stmt
}

func (s sqlStmt) QueryContext(ctx context.Context, args ...interface{}) (RowsCursor, error) {
	return s.Stmt.QueryContext(ctx, args...)
}

// QDuration is the outcome of a single query: a duration in milliseconds,
// meaningful only when OK is true. OK is false for any bind/step failure
// and for a step that yielded no rows (spec does not distinguish the two
// in the user-visible summary).
type QDuration struct {
	DurationMs int64
	OK         bool
}

// worker is a long-lived executor that owns exactly one connection and one
// prepared statement (never shared) and runs one query per record it
// receives. States: Preparing (before run is entered; prepare happens
// eagerly during orchestrator setup), Ready (blocked on in), Binding/
// Executing (inside execute), Closed (in has been drained and closed).
type worker struct {
	id    int
	db    Queryable
	stmt  Stmt
	clock Clock
	in    <-chan Record
	out   chan<- QDuration
	log   *logrus.Entry
}

// run receives records until in is closed and drained, then finalizes the
// statement and closes the connection. It never sends on out after it
// returns.
func (w *worker) run(ctx context.Context) {
	// Deferred in reverse of teardown order: defer runs LIFO, so the
	// statement is finalized first, while its connection is still open,
	// and the connection is closed last (original's sqlite3_finalize
	// then sqlite3_close in the worker coroutine's CLEANUP label).
	defer w.db.Close()
	defer w.stmt.Close()

	for rec := range w.in {
		durMs, ok := w.execute(ctx, rec)
		w.out <- QDuration{DurationMs: durMs, OK: ok}
	}
}

// execute resets, binds, and steps the statement for one record, returning
// the elapsed time and whether the step produced at least one row.
func (w *worker) execute(ctx context.Context, rec Record) (int64, bool) {
	args := []interface{}{
		sql.Named("HOST", string(rec.Host)),
		sql.Named("START_TIME", string(rec.StartTS)),
		sql.Named("END_TIME", string(rec.EndTS)),
	}

	t0 := w.clock.NowMs()
	rows, err := w.stmt.QueryContext(ctx, args...)
	if err != nil {
		durMs := w.clock.NowMs() - t0
		w.log.WithError(err).Debug("bind/step failed")
		return durMs, false
	}
	defer rows.Close()

	hasRow := rows.Next()
	durMs := w.clock.NowMs() - t0

	if err := rows.Err(); err != nil {
		w.log.WithError(err).Debug("row iteration failed")
		return durMs, false
	}
	if !hasRow {
		return durMs, false
	}
	return durMs, true
}
