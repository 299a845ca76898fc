// Package schema turns raw catalog introspection into the column
// descriptors the editor serves and validates against. Nothing here is
// cached: every call re-queries the catalog, so schema changes are
// visible immediately. Acceptable because none of these calls are on a
// hot path.
package schema

import (
	"context"

	"github.com/koustreak/DatEd/internal/database"
)

// Column describes a single column for clients of the metadata endpoint.
type Column struct {
	Name       string  `json:"name"`
	Type       string  `json:"type"`
	Nullable   bool    `json:"nullable"`
	Default    *string `json:"default"`
	PrimaryKey bool    `json:"primary_key"`
}

// Description is a point-in-time snapshot of one table's schema.
// Columns preserves the catalog's declaration order. PrimaryKey is the
// first declared primary key column, "id" when the table declares none,
// and empty when the table does not exist.
type Description struct {
	Table      string
	Columns    []Column
	PrimaryKey string
}

// Exists reports whether the described table was found in the catalog.
// A known table always has at least one column.
func (d *Description) Exists() bool {
	return len(d.Columns) > 0
}

// HasColumn reports whether the table declares a column with the given name.
func (d *Description) HasColumn(name string) bool {
	for _, c := range d.Columns {
		if c.Name == name {
			return true
		}
	}
	return false
}

// Inspector reads table structure through the database catalog.
type Inspector struct {
	db database.DB
}

// NewInspector creates an Inspector backed by the given database.
func NewInspector(db database.DB) *Inspector {
	return &Inspector{db: db}
}

// Tables returns all user-defined table names, sorted by name.
func (i *Inspector) Tables(ctx context.Context) ([]string, error) {
	return i.db.ListTables(ctx)
}

// HasTable reports whether the named table exists.
func (i *Inspector) HasTable(ctx context.Context, table string) (bool, error) {
	return i.db.TableExists(ctx, table)
}

// Describe returns the column descriptors and primary key for a table.
// An unknown table yields an empty column list and empty primary key,
// never an error: callers must treat "no columns" as "table absent".
func (i *Inspector) Describe(ctx context.Context, table string) (*Description, error) {
	info, err := i.db.DescribeTable(ctx, table)
	if err != nil {
		return nil, err
	}

	desc := &Description{
		Table:   table,
		Columns: make([]Column, 0, len(info.Columns)),
	}
	for _, c := range info.Columns {
		desc.Columns = append(desc.Columns, Column{
			Name:       c.Name,
			Type:       c.DataType,
			Nullable:   c.Nullable,
			Default:    c.Default,
			PrimaryKey: c.IsPrimary,
		})
	}

	switch {
	case len(info.PrimaryKey) > 0:
		desc.PrimaryKey = info.PrimaryKey[0]
	case desc.Exists():
		// Tables without a declared primary key constraint fall back
		// to the conventional column name.
		desc.PrimaryKey = "id"
	}

	return desc, nil
}
