package database

import (
	"fmt"
	"strings"

	"github.com/koustreak/DatEd/internal/errs"
)

// Dialect controls identifier quoting and the SQL placeholder style.
type Dialect int

const (
	// DialectPostgres uses $1, $2, … placeholders and double-quoted identifiers.
	DialectPostgres Dialect = iota

	// DialectMySQL uses ? placeholders and backtick-quoted identifiers.
	DialectMySQL

	// DialectSQLite uses ? placeholders and double-quoted identifiers.
	DialectSQLite
)

func (d Dialect) String() string {
	switch d {
	case DialectPostgres:
		return "postgres"
	case DialectMySQL:
		return "mysql"
	case DialectSQLite:
		return "sqlite"
	default:
		return "unknown"
	}
}

// QuoteIdent wraps a SQL identifier in the dialect's quote character,
// doubling any embedded quote. Identifiers can never be parameterized,
// so every table or column name interpolated into SQL must pass through
// here, and must already be validated against the introspected schema.
func QuoteIdent(d Dialect, name string) string {
	if d == DialectMySQL {
		return "`" + strings.ReplaceAll(name, "`", "``") + "`"
	}
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// Placeholder returns the parameter placeholder for the dialect.
// Postgres: $1, $2, …   MySQL / SQLite: ? (index is ignored)
func Placeholder(d Dialect, idx int) string {
	if d == DialectPostgres {
		return fmt.Sprintf("$%d", idx)
	}
	return "?"
}

// SelectAll builds "SELECT * FROM <table>" with the table name quoted.
func SelectAll(d Dialect, table string) string {
	return "SELECT * FROM " + QuoteIdent(d, table)
}

// CountRows builds "SELECT COUNT(*) FROM <table>" with the table name quoted.
func CountRows(d Dialect, table string) string {
	return "SELECT COUNT(*) FROM " + QuoteIdent(d, table)
}

// InsertInto builds a parameterized INSERT statement for the given columns.
func InsertInto(d Dialect, table string, columns ...string) string {
	quoted := make([]string, len(columns))
	marks := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = QuoteIdent(d, c)
		marks[i] = Placeholder(d, i+1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		QuoteIdent(d, table),
		strings.Join(quoted, ", "),
		strings.Join(marks, ", "))
}

// UpdateBuilder constructs a parameterized UPDATE statement using a fluent
// API. Values are never interpolated into the SQL string; they always ride
// in args.
//
// Usage (SQLite):
//
//	sql, args, err := Update("users", DialectSQLite).
//	    Set("email", "john@new.example").
//	    Set("age", 31).
//	    Where("id", 1).
//	    Build()
//
// produces `UPDATE "users" SET "email" = ?, "age" = ? WHERE "id" = ?`
// with args [john@new.example 31 1].
type UpdateBuilder struct {
	table   string
	dialect Dialect
	sets    []setClause
	where   []whereClause
}

type setClause struct {
	column string
	value  any
}

type whereClause struct {
	column string
	value  any
}

// Update starts a new UpdateBuilder for the given table and dialect.
func Update(table string, d Dialect) *UpdateBuilder {
	return &UpdateBuilder{table: table, dialect: d}
}

// Set adds a column assignment. Calls are emitted in order.
func (b *UpdateBuilder) Set(column string, value any) *UpdateBuilder {
	b.sets = append(b.sets, setClause{column, value})
	return b
}

// Where adds an equality condition. Multiple calls are combined with AND.
func (b *UpdateBuilder) Where(column string, value any) *UpdateBuilder {
	b.where = append(b.where, whereClause{column, value})
	return b
}

// Build produces the final SQL string and argument slice.
// At least one Set and one Where are required: an UPDATE with no
// assignments is meaningless and one with no condition would touch
// every row in the table.
func (b *UpdateBuilder) Build() (string, []any, error) {
	if len(b.sets) == 0 {
		return "", nil, errs.New(errs.ErrKindNoFields, "no columns to update")
	}
	if len(b.where) == 0 {
		return "", nil, errs.New(errs.ErrKindMissingID, "update requires a WHERE condition")
	}

	var sb strings.Builder
	sb.WriteString("UPDATE ")
	sb.WriteString(QuoteIdent(b.dialect, b.table))
	sb.WriteString(" SET ")

	args := make([]any, 0, len(b.sets)+len(b.where))
	argIdx := 1

	parts := make([]string, len(b.sets))
	for i, s := range b.sets {
		parts[i] = fmt.Sprintf("%s = %s", QuoteIdent(b.dialect, s.column), Placeholder(b.dialect, argIdx))
		args = append(args, s.value)
		argIdx++
	}
	sb.WriteString(strings.Join(parts, ", "))

	conds := make([]string, len(b.where))
	for i, w := range b.where {
		conds[i] = fmt.Sprintf("%s = %s", QuoteIdent(b.dialect, w.column), Placeholder(b.dialect, argIdx))
		args = append(args, w.value)
		argIdx++
	}
	sb.WriteString(" WHERE ")
	sb.WriteString(strings.Join(conds, " AND "))

	return sb.String(), args, nil
}
