package editor

import (
	"context"

	"github.com/koustreak/DatEd/internal/database"
)

type demoUser struct {
	username string
	email    string
	age      int
	active   bool
}

var demoUsers = []demoUser{
	{"john_doe", "john@example.com", 30, true},
	{"jane_smith", "jane@example.com", 25, true},
	{"bob_wilson", "bob@example.com", 35, false},
}

// Seed creates the demonstration users table and its three rows.
// It is idempotent: the table is only created when missing and the rows
// are only inserted when the table is empty, so restarting the server
// never duplicates data.
func Seed(ctx context.Context, db database.DB) error {
	if _, err := db.Exec(ctx, createUsersSQL(db.Dialect())); err != nil {
		return err
	}

	var count int
	if err := db.QueryRow(ctx, database.CountRows(db.Dialect(), "users")).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	tx, err := db.Begin(ctx)
	if err != nil {
		return err
	}

	insert := database.InsertInto(db.Dialect(), "users", "username", "email", "age", "active")
	for _, u := range demoUsers {
		if _, err := tx.Exec(ctx, insert, u.username, u.email, u.age, u.active); err != nil {
			_ = tx.Rollback(ctx)
			return err
		}
	}
	return tx.Commit(ctx)
}

// createUsersSQL returns the demo table DDL in the backend's own flavour,
// mainly for the auto-increment spelling.
func createUsersSQL(d database.Dialect) string {
	switch d {
	case database.DialectMySQL:
		return `CREATE TABLE IF NOT EXISTS users (
			id INT AUTO_INCREMENT PRIMARY KEY,
			username VARCHAR(80) NOT NULL,
			email VARCHAR(120) NOT NULL,
			age INT,
			active BOOLEAN DEFAULT TRUE
		)`
	case database.DialectPostgres:
		return `CREATE TABLE IF NOT EXISTS users (
			id SERIAL PRIMARY KEY,
			username VARCHAR(80) NOT NULL,
			email VARCHAR(120) NOT NULL,
			age INTEGER,
			active BOOLEAN DEFAULT TRUE
		)`
	default:
		return `CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT NOT NULL,
			email TEXT NOT NULL,
			age INTEGER,
			active BOOLEAN DEFAULT 1
		)`
	}
}
