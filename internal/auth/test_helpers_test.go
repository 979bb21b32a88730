package auth

import (
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"

	"github.com/nerrad567/kanban-core/internal/infrastructure/database"
	_ "github.com/nerrad567/kanban-core/migrations" // registers the schema
)

// testDB opens a temporary SQLite database with all migrations applied.
func testDB(t *testing.T) *sqlx.DB {
	t.Helper()

	db, err := database.Open(database.Config{
		Path:        filepath.Join(t.TempDir(), "auth-test.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // test cleanup

	if err := db.Migrate(t.Context()); err != nil {
		t.Fatalf("migrating test db: %v", err)
	}
	return db.DB
}

// seedTestUser inserts a user whose password is "test-password".
func seedTestUser(t *testing.T, db *sqlx.DB, name, email string) *User {
	t.Helper()

	hash, err := HashPassword("test-password")
	if err != nil {
		t.Fatalf("hashing password: %v", err)
	}

	user := &User{Name: name, Email: email, PasswordHash: hash}
	if err := NewUserRepository(db).Create(t.Context(), user); err != nil {
		t.Fatalf("creating test user %s: %v", email, err)
	}
	return user
}

// seedBoard inserts a board with two columns directly, bypassing the board package.
func seedBoard(t *testing.T, db *sqlx.DB, ownerID int64, name string) int64 {
	t.Helper()

	res, err := db.Exec(`INSERT INTO boards (name, owner_id, created_at) VALUES (?, ?, '2026-01-01T00:00:00Z')`, name, ownerID)
	if err != nil {
		t.Fatalf("seeding board: %v", err)
	}
	boardID, _ := res.LastInsertId() //nolint:errcheck // always succeeds on SQLite
	for pos, col := range []string{"To Do", "Done"} {
		if _, err := db.Exec(`INSERT INTO board_columns (name, position, board_id) VALUES (?, ?, ?)`, col, pos, boardID); err != nil {
			t.Fatalf("seeding column: %v", err)
		}
	}
	return boardID
}
