package sqlite_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Kerhoff/todo-api/internal/models"
	"github.com/Kerhoff/todo-api/internal/repository"
	"github.com/Kerhoff/todo-api/internal/repository/sqlite"
	"github.com/Kerhoff/todo-api/internal/testutil"
)

func TestTodoRepository_Create(t *testing.T) {
	clock := testutil.FixedClock()
	repo, _ := testutil.NewTestRepository(t, clock)
	ctx := context.Background()

	created, err := repo.Create(ctx, "buy milk")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if created.ID <= 0 {
		t.Errorf("ID = %d, want positive", created.ID)
	}
	if created.Text != "buy milk" {
		t.Errorf("Text = %q, want %q", created.Text, "buy milk")
	}
	if created.Completed {
		t.Error("Completed = true, want false")
	}
	if !created.CreatedAt.Equal(clock.Now()) {
		t.Errorf("CreatedAt = %v, want %v", created.CreatedAt, clock.Now())
	}
	if !created.CreatedAt.Equal(created.UpdatedAt) {
		t.Errorf("CreatedAt = %v, UpdatedAt = %v, want equal", created.CreatedAt, created.UpdatedAt)
	}

	got, err := repo.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Text != created.Text || got.Completed != created.Completed || !got.UpdatedAt.Equal(created.UpdatedAt) {
		t.Errorf("GetByID() = %+v, want %+v", got, created)
	}
}

func TestTodoRepository_CreateAssignsDistinctIDs(t *testing.T) {
	repo, _ := testutil.NewTestRepository(t, testutil.FixedClock())
	ctx := context.Background()

	seen := map[int64]bool{}
	for i := 0; i < 5; i++ {
		todo, err := repo.Create(ctx, fmt.Sprintf("todo %d", i))
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if seen[todo.ID] {
			t.Fatalf("id %d assigned twice", todo.ID)
		}
		seen[todo.ID] = true
	}
}

func TestTodoRepository_GetByID(t *testing.T) {
	t.Run("returns ErrNotFound for unknown id", func(t *testing.T) {
		repo, _ := testutil.NewTestRepository(t, testutil.FixedClock())

		todo, err := repo.GetByID(context.Background(), 42)
		if !errors.Is(err, repository.ErrNotFound) {
			t.Errorf("GetByID() error = %v, want ErrNotFound", err)
		}
		if todo != nil {
			t.Errorf("GetByID() = %+v, want nil", todo)
		}
	})
}

func TestTodoRepository_List(t *testing.T) {
	t.Run("empty collection is an empty slice", func(t *testing.T) {
		repo, _ := testutil.NewTestRepository(t, testutil.FixedClock())

		todos, err := repo.List(context.Background())
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if todos == nil {
			t.Fatal("List() = nil, want empty slice")
		}
		if len(todos) != 0 {
			t.Errorf("len(List()) = %d, want 0", len(todos))
		}
	})

	t.Run("returns records in reverse creation order", func(t *testing.T) {
		repo, _ := testutil.NewTestRepository(t, testutil.FixedClock())
		ctx := context.Background()

		var ids []int64
		for _, text := range []string{"first", "second", "third"} {
			todo, err := repo.Create(ctx, text)
			if err != nil {
				t.Fatalf("Create(%q) error = %v", text, err)
			}
			ids = append(ids, todo.ID)
		}

		todos, err := repo.List(ctx)
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(todos) != 3 {
			t.Fatalf("len(List()) = %d, want 3", len(todos))
		}
		wantTexts := []string{"third", "second", "first"}
		for i, todo := range todos {
			if todo.ID != ids[len(ids)-1-i] {
				t.Errorf("todos[%d].ID = %d, want %d", i, todo.ID, ids[len(ids)-1-i])
			}
			if todo.Text != wantTexts[i] {
				t.Errorf("todos[%d].Text = %q, want %q", i, todo.Text, wantTexts[i])
			}
		}
	})
}

func TestTodoRepository_Update(t *testing.T) {
	t.Run("only completed leaves text unchanged", func(t *testing.T) {
		clock := testutil.FixedClock()
		repo, _ := testutil.NewTestRepository(t, clock)
		ctx := context.Background()

		created, err := repo.Create(ctx, "buy milk")
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		clock.Advance(time.Minute)

		updated, err := repo.Update(ctx, created.ID, models.TodoPatch{Completed: models.Some(true)})
		if err != nil {
			t.Fatalf("Update() error = %v", err)
		}
		if updated.Text != "buy milk" {
			t.Errorf("Text = %q, want %q", updated.Text, "buy milk")
		}
		if !updated.Completed {
			t.Error("Completed = false, want true")
		}
		if !updated.UpdatedAt.After(created.UpdatedAt) {
			t.Errorf("UpdatedAt = %v, want after %v", updated.UpdatedAt, created.UpdatedAt)
		}
		if !updated.CreatedAt.Equal(created.CreatedAt) {
			t.Errorf("CreatedAt changed from %v to %v", created.CreatedAt, updated.CreatedAt)
		}
	})

	t.Run("only text leaves completed unchanged", func(t *testing.T) {
		clock := testutil.FixedClock()
		repo, _ := testutil.NewTestRepository(t, clock)
		ctx := context.Background()

		created, err := repo.Create(ctx, "walk dog")
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if _, err := repo.Update(ctx, created.ID, models.TodoPatch{Completed: models.Some(true)}); err != nil {
			t.Fatalf("Update(completed) error = %v", err)
		}

		updated, err := repo.Update(ctx, created.ID, models.TodoPatch{Text: models.Some("walk cat")})
		if err != nil {
			t.Fatalf("Update(text) error = %v", err)
		}
		if updated.Text != "walk cat" {
			t.Errorf("Text = %q, want %q", updated.Text, "walk cat")
		}
		if !updated.Completed {
			t.Error("Completed = false, want true")
		}
		if updated.UpdatedAt.Before(created.UpdatedAt) {
			t.Errorf("UpdatedAt = %v, want >= %v", updated.UpdatedAt, created.UpdatedAt)
		}
	})

	t.Run("empty patch refreshes updated_at", func(t *testing.T) {
		clock := testutil.FixedClock()
		repo, _ := testutil.NewTestRepository(t, clock)
		ctx := context.Background()

		created, err := repo.Create(ctx, "stretch")
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		clock.Advance(time.Second)

		updated, err := repo.Update(ctx, created.ID, models.TodoPatch{})
		if err != nil {
			t.Fatalf("Update() error = %v", err)
		}
		if !updated.UpdatedAt.Equal(clock.Now()) {
			t.Errorf("UpdatedAt = %v, want %v", updated.UpdatedAt, clock.Now())
		}
	})

	t.Run("unknown id returns ErrNotFound", func(t *testing.T) {
		repo, _ := testutil.NewTestRepository(t, testutil.FixedClock())

		_, err := repo.Update(context.Background(), 99, models.TodoPatch{Completed: models.Some(true)})
		if !errors.Is(err, repository.ErrNotFound) {
			t.Errorf("Update() error = %v, want ErrNotFound", err)
		}
	})
}

func TestTodoRepository_Delete(t *testing.T) {
	t.Run("removes the record", func(t *testing.T) {
		repo, _ := testutil.NewTestRepository(t, testutil.FixedClock())
		ctx := context.Background()

		created, err := repo.Create(ctx, "temporary")
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if err := repo.Delete(ctx, created.ID); err != nil {
			t.Fatalf("Delete() error = %v", err)
		}

		if _, err := repo.GetByID(ctx, created.ID); !errors.Is(err, repository.ErrNotFound) {
			t.Errorf("GetByID() after Delete error = %v, want ErrNotFound", err)
		}
	})

	t.Run("deleting an unknown id is not an error", func(t *testing.T) {
		repo, _ := testutil.NewTestRepository(t, testutil.FixedClock())
		ctx := context.Background()

		if err := repo.Delete(ctx, 12345); err != nil {
			t.Errorf("Delete() error = %v, want nil", err)
		}
		if err := repo.Delete(ctx, 12345); err != nil {
			t.Errorf("second Delete() error = %v, want nil", err)
		}
	})

	t.Run("ids are not reused after delete", func(t *testing.T) {
		repo, _ := testutil.NewTestRepository(t, testutil.FixedClock())
		ctx := context.Background()

		first, err := repo.Create(ctx, "a")
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if err := repo.Delete(ctx, first.ID); err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		second, err := repo.Create(ctx, "b")
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if second.ID <= first.ID {
			t.Errorf("second.ID = %d, want > %d", second.ID, first.ID)
		}
	})
}

func TestTodoRepository_Count(t *testing.T) {
	repo, _ := testutil.NewTestRepository(t, testutil.FixedClock())
	ctx := context.Background()

	for _, text := range []string{"a", "b"} {
		if _, err := repo.Create(ctx, text); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	n, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if n != 2 {
		t.Errorf("Count() = %d, want 2", n)
	}
}

func TestTodoRepository_ConcurrentCreates(t *testing.T) {
	repo, _ := testutil.NewTestRepository(t, testutil.FixedClock())
	ctx := context.Background()

	const workers = 10
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := repo.Create(ctx, fmt.Sprintf("todo %d", i)); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("concurrent Create() error = %v", err)
	}

	n, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if n != workers {
		t.Errorf("Count() = %d, want %d", n, workers)
	}
}

func TestNewTodoRepository_NilClockUsesSystemTime(t *testing.T) {
	db := testutil.NewTestDatabase(t)
	repo := sqlite.NewTodoRepository(db.DB, nil)

	before := time.Now().Add(-time.Second)
	todo, err := repo.Create(context.Background(), "now-ish")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if todo.CreatedAt.Before(before) {
		t.Errorf("CreatedAt = %v, want after %v", todo.CreatedAt, before)
	}
}
