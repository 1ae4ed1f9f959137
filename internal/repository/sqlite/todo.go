package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/Kerhoff/todo-api/internal/models"
	"github.com/Kerhoff/todo-api/internal/repository"
)

const todoColumns = `id, text, completed, created_at, updated_at`

type todoRepository struct {
	db    *sql.DB
	clock repository.Clock
}

// NewTodoRepository returns a TodoRepository backed by db. A nil clock
// falls back to the system clock.
func NewTodoRepository(db *sql.DB, clock repository.Clock) repository.TodoRepository {
	if clock == nil {
		clock = repository.SystemClock{}
	}
	return &todoRepository{db: db, clock: clock}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTodo(s rowScanner) (*models.Todo, error) {
	todo := &models.Todo{}
	var completed int64
	if err := s.Scan(&todo.ID, &todo.Text, &completed, &todo.CreatedAt, &todo.UpdatedAt); err != nil {
		return nil, err
	}
	todo.Completed = models.CompletedFromColumn(completed)
	return todo, nil
}

func (r *todoRepository) List(ctx context.Context) ([]*models.Todo, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+todoColumns+` FROM todos ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query todos: %w", err)
	}
	defer rows.Close()

	todos := []*models.Todo{}
	for rows.Next() {
		todo, err := scanTodo(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan todo: %w", err)
		}
		todos = append(todos, todo)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate todos: %w", err)
	}
	return todos, nil
}

func (r *todoRepository) GetByID(ctx context.Context, id int64) (*models.Todo, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+todoColumns+` FROM todos WHERE id = ?`, id)
	todo, err := scanTodo(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get todo %d: %w", id, err)
	}
	return todo, nil
}

func (r *todoRepository) Create(ctx context.Context, text string) (*models.Todo, error) {
	now := r.clock.Now()
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO todos (text, completed, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		text, models.CompletedToColumn(false), now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create todo: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read id of created todo: %w", err)
	}

	// Read back so callers see exactly what was stored.
	todo, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load created todo: %w", err)
	}
	return todo, nil
}

func (r *todoRepository) Update(ctx context.Context, id int64, patch models.TodoPatch) (*models.Todo, error) {
	sets := []string{"updated_at = ?"}
	args := []any{r.clock.Now()}

	if text, ok := patch.Text.Get(); ok {
		sets = append(sets, "text = ?")
		args = append(args, text)
	}
	if completed, ok := patch.Completed.Get(); ok {
		sets = append(sets, "completed = ?")
		args = append(args, models.CompletedToColumn(completed))
	}
	args = append(args, id)

	query := `UPDATE todos SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("failed to update todo %d: %w", id, err)
	}

	todo, err := r.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to load updated todo: %w", err)
	}
	return todo, nil
}

func (r *todoRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM todos WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete todo %d: %w", id, err)
	}
	return nil
}

func (r *todoRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM todos`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count todos: %w", err)
	}
	return n, nil
}
