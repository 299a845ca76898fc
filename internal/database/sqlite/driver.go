// Package sqlite implements database.DB on top of mattn/go-sqlite3.
// It is the default backend: a single local file, no server required.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/mattn/go-sqlite3"

	"github.com/koustreak/DatEd/internal/database"
	"github.com/koustreak/DatEd/internal/errs"
)

// Driver is a SQLite implementation of database.DB backed by database/sql.
// It is safe for concurrent use by multiple goroutines.
type Driver struct {
	db *sql.DB
}

// New opens a SQLite database at the path in cfg.DSN and returns a Driver.
// It calls Ping to validate the connection before returning, which creates
// the file when it does not exist yet.
func New(ctx context.Context, cfg *database.Config) (*Driver, error) {
	db, err := sql.Open("sqlite3", buildDSN(cfg.DSN))
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindConnectionFailed, "invalid DSN", err)
	}

	if isMemory(cfg.DSN) {
		// Each pooled connection to ":memory:" opens its own empty
		// database, and recycling the connection discards all data.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
		db.SetConnMaxIdleTime(0)
	} else {
		db.SetMaxOpenConns(int(cfg.MaxConns))
		db.SetMaxIdleConns(int(cfg.MinConns))
		db.SetConnMaxLifetime(cfg.MaxConnLifetime)
		db.SetConnMaxIdleTime(cfg.MaxConnIdleTime)
	}

	d := &Driver{db: db}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	if err := d.Ping(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return d, nil
}

// buildDSN appends the connection parameters every pooled connection needs:
// a busy timeout so concurrent writers wait instead of failing immediately,
// and foreign key enforcement, which SQLite leaves off by default.
func buildDSN(dsn string) string {
	if strings.HasPrefix(dsn, "file:") || dsn == ":memory:" {
		return dsn
	}
	return dsn + "?_busy_timeout=5000&_foreign_keys=on"
}

func isMemory(dsn string) bool {
	return strings.Contains(dsn, ":memory:")
}

// --- database.DB implementation ---

func (d *Driver) Ping(ctx context.Context) error {
	if err := d.db.PingContext(ctx); err != nil {
		return mapError(err, "ping failed")
	}
	return nil
}

func (d *Driver) Close() {
	_ = d.db.Close()
}

func (d *Driver) Dialect() database.Dialect {
	return database.DialectSQLite
}

func (d *Driver) Query(ctx context.Context, query string, args ...any) (database.Rows, error) {
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, "query failed")
	}
	return &sqliteRows{rows: rows}, nil
}

func (d *Driver) QueryRow(ctx context.Context, query string, args ...any) database.Row {
	return &sqliteRow{row: d.db.QueryRowContext(ctx, query, args...)}
}

func (d *Driver) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := d.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, mapError(err, "exec failed")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, mapError(err, "rows affected unavailable")
	}
	return n, nil
}

func (d *Driver) Begin(ctx context.Context) (database.Tx, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, mapError(err, "begin transaction failed")
	}
	return &sqliteTx{tx: tx}, nil
}

func (d *Driver) ListTables(ctx context.Context) ([]string, error) {
	const q = `
		SELECT name
		FROM sqlite_master
		WHERE type = 'table'
		  AND name NOT LIKE 'sqlite_%'
		ORDER BY name`

	rows, err := d.db.QueryContext(ctx, q)
	if err != nil {
		return nil, mapError(err, "failed to list tables")
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, mapError(err, "failed to scan table name")
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "error iterating tables")
	}
	return tables, nil
}

func (d *Driver) TableExists(ctx context.Context, table string) (bool, error) {
	const q = `
		SELECT 1
		FROM sqlite_master
		WHERE type = 'table'
		  AND name = ?`

	var exists int
	err := d.db.QueryRowContext(ctx, q, table).Scan(&exists)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, mapError(err, "failed to check table existence")
	}
	return true, nil
}

func (d *Driver) DescribeTable(ctx context.Context, table string) (*database.TableInfo, error) {
	info := &database.TableInfo{Name: table}

	// PRAGMA arguments cannot be bound, so the table name is checked
	// against sqlite_master before it is interpolated.
	exists, err := d.TableExists(ctx, table)
	if err != nil {
		return nil, err
	}
	if !exists {
		return info, nil
	}

	q := fmt.Sprintf("PRAGMA table_info(%s)", database.QuoteIdent(database.DialectSQLite, table))
	rows, err := d.db.QueryContext(ctx, q)
	if err != nil {
		return nil, mapError(err, "failed to describe table")
	}
	defer rows.Close()

	// pk is the 1-based ordinal of the column within the primary key,
	// or 0 when the column is not part of it.
	type pkCol struct {
		ord  int
		name string
	}
	var pks []pkCol

	for rows.Next() {
		var (
			cid     int
			c       database.ColumnInfo
			notNull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &c.Name, &c.DataType, &notNull, &dflt, &pk); err != nil {
			return nil, mapError(err, "failed to scan column info")
		}
		c.Nullable = notNull == 0
		if dflt.Valid {
			c.Default = &dflt.String
		}
		c.IsPrimary = pk > 0
		if pk > 0 {
			pks = append(pks, pkCol{ord: pk, name: c.Name})
		}
		info.Columns = append(info.Columns, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "error iterating columns")
	}

	sort.Slice(pks, func(i, j int) bool { return pks[i].ord < pks[j].ord })
	for _, pk := range pks {
		info.PrimaryKey = append(info.PrimaryKey, pk.name)
	}

	return info, nil
}

// --- sql.DB type wrappers ---

type sqliteRows struct {
	rows *sql.Rows
}

func (r *sqliteRows) Next() bool                 { return r.rows.Next() }
func (r *sqliteRows) Scan(dest ...any) error     { return r.rows.Scan(dest...) }
func (r *sqliteRows) Columns() ([]string, error) { return r.rows.Columns() }
func (r *sqliteRows) Close()                     { _ = r.rows.Close() }
func (r *sqliteRows) Err() error                 { return r.rows.Err() }

type sqliteRow struct {
	row *sql.Row
}

func (r *sqliteRow) Scan(dest ...any) error {
	if err := r.row.Scan(dest...); err != nil {
		return mapError(err, "scan failed")
	}
	return nil
}

type sqliteTx struct {
	tx *sql.Tx
}

func (t *sqliteTx) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := t.tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, mapError(err, "exec failed")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, mapError(err, "rows affected unavailable")
	}
	return n, nil
}

func (t *sqliteTx) Commit(_ context.Context) error {
	if err := t.tx.Commit(); err != nil {
		return mapError(err, "commit failed")
	}
	return nil
}

func (t *sqliteTx) Rollback(_ context.Context) error {
	err := t.tx.Rollback()
	if err != nil && !errors.Is(err, sql.ErrTxDone) {
		return mapError(err, "rollback failed")
	}
	return nil
}

// --- error mapping ---

// mapError translates go-sqlite3 native errors into *errs.Error.
func mapError(err error, msg string) *errs.Error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return errs.Wrap(errs.ErrKindTimeout, msg, err)
	}

	if errors.Is(err, sql.ErrNoRows) {
		return errs.Wrap(errs.ErrKindNotFound, msg, err)
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return errs.Wrap(
			classifySQLiteCode(sqliteErr.Code),
			fmt.Sprintf("%s: %s", msg, sqliteErr.Error()),
			err,
		)
	}

	return errs.Wrap(errs.ErrKindDatabase, msg, err)
}

// classifySQLiteCode maps SQLite result codes to ErrKind.
func classifySQLiteCode(code sqlite3.ErrNo) errs.ErrKind {
	switch code {
	case sqlite3.ErrBusy, sqlite3.ErrLocked:
		return errs.ErrKindTimeout
	case sqlite3.ErrCantOpen, sqlite3.ErrNotADB, sqlite3.ErrPerm, sqlite3.ErrAuth, sqlite3.ErrReadonly:
		return errs.ErrKindConnectionFailed
	default:
		return errs.ErrKindDatabase
	}
}
