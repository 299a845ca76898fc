package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koustreak/DatEd/internal/database"
	"github.com/koustreak/DatEd/internal/errs"
)

func newTestDriver(t *testing.T) *Driver {
	t.Helper()

	cfg := database.DefaultConfig(":memory:")
	d, err := New(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(d.Close)

	_, err = d.Exec(context.Background(), `
		CREATE TABLE users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT NOT NULL,
			email TEXT NOT NULL,
			age INTEGER,
			active BOOLEAN DEFAULT 1
		)`)
	require.NoError(t, err)

	_, err = d.Exec(context.Background(),
		`INSERT INTO users (username, email, age, active) VALUES (?, ?, ?, ?)`,
		"john_doe", "john@example.com", 30, true)
	require.NoError(t, err)

	return d
}

func TestNew_CreatesFile(t *testing.T) {
	cfg := database.DefaultConfig(t.TempDir() + "/test.db")
	d, err := New(context.Background(), cfg)
	require.NoError(t, err)
	defer d.Close()

	assert.NoError(t, d.Ping(context.Background()))
	assert.Equal(t, database.DialectSQLite, d.Dialect())
}

func TestDriver_ListTables(t *testing.T) {
	d := newTestDriver(t)

	tables, err := d.ListTables(context.Background())
	require.NoError(t, err)
	assert.Contains(t, tables, "users")
	assert.NotContains(t, tables, "sqlite_sequence")
}

func TestDriver_TableExists(t *testing.T) {
	d := newTestDriver(t)
	ctx := context.Background()

	exists, err := d.TableExists(ctx, "users")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = d.TableExists(ctx, "orders")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestDriver_DescribeTable(t *testing.T) {
	d := newTestDriver(t)

	info, err := d.DescribeTable(context.Background(), "users")
	require.NoError(t, err)

	assert.Equal(t, "users", info.Name)
	assert.Equal(t, []string{"id", "username", "email", "age", "active"}, info.ColumnNames())
	assert.Equal(t, []string{"id"}, info.PrimaryKey)

	id := info.Columns[0]
	assert.True(t, id.IsPrimary)
	assert.Equal(t, "INTEGER", id.DataType)

	username := info.Columns[1]
	assert.False(t, username.Nullable)
	assert.False(t, username.IsPrimary)

	age := info.Columns[3]
	assert.True(t, age.Nullable)

	active := info.Columns[4]
	require.NotNil(t, active.Default)
	assert.Equal(t, "1", *active.Default)
}

func TestDriver_DescribeTable_Unknown(t *testing.T) {
	d := newTestDriver(t)

	info, err := d.DescribeTable(context.Background(), "orders")
	require.NoError(t, err)
	assert.Equal(t, "orders", info.Name)
	assert.Empty(t, info.Columns)
	assert.Empty(t, info.PrimaryKey)
}

func TestDriver_DescribeTable_CompositeKey(t *testing.T) {
	d := newTestDriver(t)
	ctx := context.Background()

	_, err := d.Exec(ctx, `
		CREATE TABLE memberships (
			group_id INTEGER,
			user_id INTEGER,
			role TEXT,
			PRIMARY KEY (group_id, user_id)
		)`)
	require.NoError(t, err)

	info, err := d.DescribeTable(ctx, "memberships")
	require.NoError(t, err)
	assert.Equal(t, []string{"group_id", "user_id"}, info.PrimaryKey)
}

func TestDriver_QueryAndScan(t *testing.T) {
	d := newTestDriver(t)

	rows, err := d.Query(context.Background(), `SELECT * FROM users`)
	require.NoError(t, err)

	columns, result, err := database.ScanRows(rows)
	require.NoError(t, err)

	assert.Equal(t, []string{"id", "username", "email", "age", "active"}, columns)
	require.Len(t, result, 1)
	assert.Equal(t, "john_doe", result[0]["username"])
	assert.Equal(t, int64(30), result[0]["age"])
}

func TestDriver_QueryRow(t *testing.T) {
	d := newTestDriver(t)

	var count int
	err := d.QueryRow(context.Background(), `SELECT COUNT(*) FROM users`).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestDriver_QueryRow_NoRows(t *testing.T) {
	d := newTestDriver(t)

	var username string
	err := d.QueryRow(context.Background(),
		`SELECT username FROM users WHERE id = ?`, 999).Scan(&username)
	require.Error(t, err)
	assert.True(t, errs.IsNotFound(err))
}

func TestDriver_Exec_RowsAffected(t *testing.T) {
	d := newTestDriver(t)

	n, err := d.Exec(context.Background(),
		`UPDATE users SET age = ? WHERE username = ?`, 31, "john_doe")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = d.Exec(context.Background(),
		`UPDATE users SET age = ? WHERE username = ?`, 31, "ghost")
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestDriver_Query_BadSQL(t *testing.T) {
	d := newTestDriver(t)

	_, err := d.Query(context.Background(), `SELECT * FROM no_such_table`)
	require.Error(t, err)
	assert.True(t, errs.IsDatabase(err))
}

func TestDriver_Transaction(t *testing.T) {
	d := newTestDriver(t)
	ctx := context.Background()

	t.Run("commit persists", func(t *testing.T) {
		tx, err := d.Begin(ctx)
		require.NoError(t, err)

		n, err := tx.Exec(ctx, `UPDATE users SET age = ? WHERE id = ?`, 42, 1)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
		require.NoError(t, tx.Commit(ctx))

		var age int
		require.NoError(t, d.QueryRow(ctx, `SELECT age FROM users WHERE id = ?`, 1).Scan(&age))
		assert.Equal(t, 42, age)
	})

	t.Run("rollback discards", func(t *testing.T) {
		tx, err := d.Begin(ctx)
		require.NoError(t, err)

		_, err = tx.Exec(ctx, `UPDATE users SET age = ? WHERE id = ?`, 99, 1)
		require.NoError(t, err)
		require.NoError(t, tx.Rollback(ctx))

		var age int
		require.NoError(t, d.QueryRow(ctx, `SELECT age FROM users WHERE id = ?`, 1).Scan(&age))
		assert.Equal(t, 42, age)
	})

	t.Run("rollback after commit is a no-op", func(t *testing.T) {
		tx, err := d.Begin(ctx)
		require.NoError(t, err)
		require.NoError(t, tx.Commit(ctx))
		assert.NoError(t, tx.Rollback(ctx))
	})
}
