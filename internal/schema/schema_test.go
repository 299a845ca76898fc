package schema

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koustreak/DatEd/internal/database"
	"github.com/koustreak/DatEd/internal/database/sqlite"
)

func newTestInspector(t *testing.T) *Inspector {
	t.Helper()

	cfg := database.DefaultConfig(":memory:")
	d, err := sqlite.New(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(d.Close)

	ctx := context.Background()
	_, err = d.Exec(ctx, `
		CREATE TABLE users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT NOT NULL,
			email TEXT NOT NULL,
			age INTEGER,
			active BOOLEAN DEFAULT 1
		)`)
	require.NoError(t, err)

	// No declared primary key constraint at all.
	_, err = d.Exec(ctx, `CREATE TABLE notes (body TEXT)`)
	require.NoError(t, err)

	return NewInspector(d)
}

func TestInspector_Tables(t *testing.T) {
	insp := newTestInspector(t)

	tables, err := insp.Tables(context.Background())
	require.NoError(t, err)
	assert.Contains(t, tables, "users")
	assert.Contains(t, tables, "notes")
}

func TestInspector_HasTable(t *testing.T) {
	insp := newTestInspector(t)
	ctx := context.Background()

	ok, err := insp.HasTable(ctx, "users")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = insp.HasTable(ctx, "orders")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestInspector_Describe(t *testing.T) {
	insp := newTestInspector(t)

	desc, err := insp.Describe(context.Background(), "users")
	require.NoError(t, err)

	assert.Equal(t, "users", desc.Table)
	assert.True(t, desc.Exists())
	assert.Equal(t, "id", desc.PrimaryKey)
	require.Len(t, desc.Columns, 5)

	names := make([]string, len(desc.Columns))
	for i, c := range desc.Columns {
		names[i] = c.Name
	}
	assert.Equal(t, []string{"id", "username", "email", "age", "active"}, names)

	// primary_key is true for exactly the declared key column
	for _, c := range desc.Columns {
		assert.Equal(t, c.Name == "id", c.PrimaryKey, "column %s", c.Name)
	}

	assert.True(t, desc.HasColumn("email"))
	assert.False(t, desc.HasColumn("password"))
}

func TestInspector_Describe_UnknownTable(t *testing.T) {
	insp := newTestInspector(t)

	desc, err := insp.Describe(context.Background(), "nonexistent_table")
	require.NoError(t, err, "unknown tables must not raise")

	assert.False(t, desc.Exists())
	assert.NotNil(t, desc.Columns)
	assert.Empty(t, desc.Columns)
	assert.Empty(t, desc.PrimaryKey)
}

func TestInspector_Describe_NoPrimaryKeyFallsBackToID(t *testing.T) {
	insp := newTestInspector(t)

	desc, err := insp.Describe(context.Background(), "notes")
	require.NoError(t, err)

	assert.True(t, desc.Exists())
	assert.Equal(t, "id", desc.PrimaryKey)
	for _, c := range desc.Columns {
		assert.False(t, c.PrimaryKey)
	}
}
