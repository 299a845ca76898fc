// Package database defines the storage contract the editor is built on.
// Drivers for SQLite, MySQL and PostgreSQL live in subpackages; everything
// above this package talks only to the DB interface and never imports a
// driver directly.
package database

import "context"

// DB is the central contract for all database operations.
type DB interface {
	// Ping verifies the database is reachable.
	Ping(ctx context.Context) error

	// Close releases all resources held by the connection pool.
	Close()

	// Dialect reports which SQL flavour the driver speaks. Callers use it
	// to quote identifiers and number placeholders correctly.
	Dialect() Dialect

	// Query executes a SQL statement that returns multiple rows.
	Query(ctx context.Context, sql string, args ...any) (Rows, error)

	// QueryRow executes a SQL statement that returns at most one row.
	// Errors are deferred until Scan.
	QueryRow(ctx context.Context, sql string, args ...any) Row

	// Exec executes a statement and returns the number of rows affected.
	Exec(ctx context.Context, sql string, args ...any) (int64, error)

	// Begin starts a transaction.
	Begin(ctx context.Context) (Tx, error)

	// ListTables returns all user-defined table names, sorted by name.
	ListTables(ctx context.Context) ([]string, error)

	// TableExists reports whether a table with the given name exists.
	TableExists(ctx context.Context, table string) (bool, error)

	// DescribeTable returns the columns and primary key of a table in
	// declaration order. Unknown tables yield an empty TableInfo, not an
	// error; callers decide how to treat a table with no columns.
	DescribeTable(ctx context.Context, table string) (*TableInfo, error)
}

// Tx is a transaction handle. Callers must finish with Commit or Rollback;
// Rollback after a successful Commit is a no-op on every driver.
type Tx interface {
	Exec(ctx context.Context, sql string, args ...any) (int64, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Rows is an abstraction over a database result set.
// Callers must always call Close() when done, even on error.
type Rows interface {
	// Next advances to the next row.
	// Returns false when no more rows exist or on error.
	Next() bool

	// Scan copies the current row's columns into the provided destinations.
	Scan(dest ...any) error

	// Columns returns the column names of the result set.
	Columns() ([]string, error)

	// Close releases resources held by the result set.
	Close()

	// Err returns any error encountered during iteration.
	Err() error
}

// Row is an abstraction over a single database row.
type Row interface {
	Scan(dest ...any) error
}
