package database

import (
	"strings"

	"github.com/koustreak/DatEd/internal/errs"
)

// ParseDSN inspects a connection string and returns the dialect it selects
// together with the DSN the native driver expects.
//
// Recognised forms:
//
//	sqlite://dated.db          file-based SQLite (also sqlite3://)
//	sqlite://:memory:          in-memory SQLite
//	postgres://user@host/db    PostgreSQL (also postgresql://), passed through
//	mysql://user@tcp(host)/db  MySQL, scheme stripped for the native driver
//	plain path                 treated as a SQLite file
func ParseDSN(dsn string) (Dialect, string, error) {
	if dsn == "" {
		return 0, "", errs.New(errs.ErrKindConnectionFailed, "empty connection string")
	}

	switch {
	case strings.HasPrefix(dsn, "sqlite://"):
		return DialectSQLite, strings.TrimPrefix(dsn, "sqlite://"), nil
	case strings.HasPrefix(dsn, "sqlite3://"):
		return DialectSQLite, strings.TrimPrefix(dsn, "sqlite3://"), nil
	case strings.HasPrefix(dsn, "file:"):
		// SQLite URI form, understood natively by the driver.
		return DialectSQLite, dsn, nil
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return DialectPostgres, dsn, nil
	case strings.HasPrefix(dsn, "mysql://"):
		return DialectMySQL, strings.TrimPrefix(dsn, "mysql://"), nil
	}

	if strings.Contains(dsn, "://") {
		scheme := dsn[:strings.Index(dsn, "://")]
		return 0, "", errs.New(errs.ErrKindConnectionFailed,
			"unsupported database scheme: "+scheme)
	}

	// No scheme at all: treat as a SQLite file path.
	return DialectSQLite, dsn, nil
}
