package database

// ColumnInfo describes a single column in a table.
type ColumnInfo struct {
	Name      string
	DataType  string
	Nullable  bool
	Default   *string
	IsPrimary bool
}

// TableInfo describes a table: its columns in declaration order and the
// names of the primary key columns.
type TableInfo struct {
	Name       string
	Columns    []*ColumnInfo
	PrimaryKey []string
}

// HasColumn reports whether the table declares a column with the given name.
func (t *TableInfo) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c.Name == name {
			return true
		}
	}
	return false
}

// ColumnNames returns the column names in declaration order.
func (t *TableInfo) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}
