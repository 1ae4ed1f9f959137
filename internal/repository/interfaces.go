package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Kerhoff/todo-api/internal/models"
)

// ErrNotFound is returned when the referenced record does not exist.
var ErrNotFound = errors.New("not found")

// Clock supplies timestamps for created_at and updated_at.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in UTC.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

// TodoRepository defines the interface for todo data operations
type TodoRepository interface {
	// List returns every todo, most recently created first.
	List(ctx context.Context) ([]*models.Todo, error)
	// GetByID returns ErrNotFound when no todo has the given id.
	GetByID(ctx context.Context, id int64) (*models.Todo, error)
	// Create stores a new, not completed todo. text must already be trimmed
	// and non-empty.
	Create(ctx context.Context, text string) (*models.Todo, error)
	// Update writes the set fields of patch and refreshes updated_at.
	Update(ctx context.Context, id int64, patch models.TodoPatch) (*models.Todo, error)
	// Delete removes the todo. Deleting an unknown id is not an error.
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int64, error)
}
