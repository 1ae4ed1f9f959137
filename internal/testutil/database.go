package testutil

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/todo-api/internal/config"
	"github.com/Kerhoff/todo-api/internal/repository"
	"github.com/Kerhoff/todo-api/internal/repository/sqlite"
)

// NewTestDatabase creates a new in-memory SQLite database with the schema
// applied. The database is closed when the test completes.
func NewTestDatabase(t *testing.T) *config.Database {
	t.Helper()

	db, err := config.NewDatabase(config.MemoryDatabase, NewTestLogger())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
	})

	if err := db.Migrate(); err != nil {
		t.Fatalf("failed to apply schema: %v", err)
	}
	return db
}

// NewTestRepository returns a TodoRepository over a fresh in-memory
// database, stamping records with clock.
func NewTestRepository(t *testing.T, clock repository.Clock) (repository.TodoRepository, *config.Database) {
	t.Helper()

	db := NewTestDatabase(t)
	return sqlite.NewTodoRepository(db.DB, clock), db
}

// NewTestLogger returns a logger that discards its output.
func NewTestLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
