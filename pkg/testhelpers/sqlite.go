package testhelpers

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite" // SQLite driver for building fixture databases
)

// UsersSchema is the smallest fixture: three users, one with no name.
var UsersSchema = []string{
	`CREATE TABLE users (id INTEGER, name TEXT)`,
	`INSERT INTO users (id, name) VALUES (1, 'alice'), (2, 'bob'), (3, NULL)`,
}

// ShopSchema is a small store database with tables whose names overlap
// (orders / order_items), a view, and a mix of column types.
var ShopSchema = []string{
	`CREATE TABLE users (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT,
		created_at DATETIME
	)`,
	`CREATE TABLE orders (
		id INTEGER PRIMARY KEY,
		user_id INTEGER NOT NULL REFERENCES users(id),
		total REAL,
		status TEXT DEFAULT 'pending',
		created_at DATETIME
	)`,
	`CREATE TABLE order_items (
		id INTEGER PRIMARY KEY,
		order_id INTEGER NOT NULL REFERENCES orders(id),
		product_name TEXT,
		quantity INTEGER,
		price REAL
	)`,
	`CREATE TABLE products (
		id INTEGER PRIMARY KEY,
		name TEXT,
		price REAL
	)`,
	`CREATE VIEW active_users AS SELECT id, name FROM users WHERE email IS NOT NULL`,
	`INSERT INTO users (id, name, email, created_at) VALUES
		(1, 'Alice', 'alice@example.com', '2024-01-05'),
		(2, 'Bob', NULL, '2024-02-10'),
		(3, 'Carol', 'carol@example.com', '2024-03-15')`,
	`INSERT INTO orders (id, user_id, total, status, created_at) VALUES
		(1, 1, 25.5, 'shipped', '2024-03-01'),
		(2, 1, 100.0, 'pending', '2024-03-05'),
		(3, 2, 15.25, 'shipped', '2024-03-07'),
		(4, 3, 42.0, 'cancelled', '2024-03-09'),
		(5, 3, 7.75, 'pending', '2024-03-11')`,
	`INSERT INTO order_items (id, order_id, product_name, quantity, price) VALUES
		(1, 1, 'Widget', 2, 10.0),
		(2, 1, 'Gadget', 1, 5.5),
		(3, 2, 'Gizmo', 4, 25.0),
		(4, 3, 'Widget', 1, 15.25)`,
	`INSERT INTO products (id, name, price) VALUES
		(1, 'Widget', 10.0),
		(2, 'Gadget', 5.5),
		(3, 'Gizmo', 25.0)`,
}

// CreateSQLiteDB builds a database file in a per-test temp directory by
// running statements in order, and returns its path. The file is closed
// before returning so tests open it the same way production code does.
func CreateSQLiteDB(t *testing.T, statements ...string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open fixture database: %v", err)
	}
	defer db.Close()

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("fixture statement failed: %v\n%s", err, stmt)
		}
	}
	return path
}

// CreateUsersDB returns the path of a database built from UsersSchema.
func CreateUsersDB(t *testing.T) string {
	t.Helper()
	return CreateSQLiteDB(t, UsersSchema...)
}

// CreateShopDB returns the path of a database built from ShopSchema.
func CreateShopDB(t *testing.T) string {
	t.Helper()
	return CreateSQLiteDB(t, ShopSchema...)
}

// CreateNonDatabaseFile writes a file that exists but is not a SQLite
// database and returns its path.
func CreateNonDatabaseFile(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "not-a-db.txt")
	content := []byte("this is definitely not a sqlite database file, just some text padding it out\n")
	for i := 0; i < 8; i++ {
		content = append(content, content...)
	}
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write fixture file: %v", err)
	}
	return path
}
