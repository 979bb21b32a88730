package board

import (
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"

	"github.com/nerrad567/kanban-core/internal/auth"
	"github.com/nerrad567/kanban-core/internal/infrastructure/database"
	_ "github.com/nerrad567/kanban-core/migrations" // registers the schema
)

// testDB opens a temporary SQLite database with all migrations applied.
func testDB(t *testing.T) *sqlx.DB {
	t.Helper()

	db, err := database.Open(database.Config{
		Path:        filepath.Join(t.TempDir(), "board-test.db"),
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

// seedUser inserts a user row directly; password hashing is irrelevant here.
func seedUser(t *testing.T, db *sqlx.DB, email string) *auth.User {
	t.Helper()

	user := &auth.User{Name: email, Email: email, PasswordHash: "unused"}
	if err := auth.NewUserRepository(db).Create(t.Context(), user); err != nil {
		t.Fatalf("creating user %s: %v", email, err)
	}
	return user
}

func countRows(t *testing.T, db *sqlx.DB, query string, args ...any) int {
	t.Helper()
	var n int
	if err := db.Get(&n, query, args...); err != nil {
		t.Fatalf("count query %q: %v", query, err)
	}
	return n
}

// seedGhost returns a user that was never stored.
func seedGhost() *auth.User {
	return &auth.User{ID: 4242, Email: "ghost@x.com"}
}
