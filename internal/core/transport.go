package core

import (
	"context"
)

// ResultSet holds the rows returned by a query as raw cell text.
// A nil cell is a SQL NULL.
type ResultSet struct {
	// Columns are the column names in result order.
	Columns []string

	// Rows holds one slice of cells per returned row.
	Rows [][][]byte
}

// RowCount returns the number of returned rows.
func (r *ResultSet) RowCount() int {
	if r == nil {
		return 0
	}
	return len(r.Rows)
}

// Transport defines the store client operations the executor relies on.
// Implementations own exactly one live session.
type Transport interface {
	// Query runs a statement that returns rows and buffers all of them.
	Query(ctx context.Context, query string) (*ResultSet, error)

	// Exec runs a statement and returns the number of affected rows.
	Exec(ctx context.Context, query string) (int64, error)

	// SetAutoCommit toggles autocommit on the session.
	SetAutoCommit(ctx context.Context, on bool) error

	// Commit commits the current transaction.
	Commit(ctx context.Context) error

	// Rollback rolls back the current transaction.
	Rollback(ctx context.Context) error

	// SwitchDB changes the default database of the session.
	SwitchDB(ctx context.Context, database string) error

	// Close releases the session.
	Close() error
}

// Logger is the diagnostic sink. *log.Logger satisfies it.
type Logger interface {
	Printf(format string, v ...any)
}
