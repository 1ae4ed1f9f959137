package models

import "time"

// Todo represents a todo item
type Todo struct {
	ID        int64     `json:"id" db:"id"`
	Text      string    `json:"text" db:"text"`
	Completed bool      `json:"completed" db:"completed"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// IsCompleted returns true if the todo is completed
func (t *Todo) IsCompleted() bool {
	return t.Completed
}

// TodoPatch describes a partial update. Only fields that are Set are written.
type TodoPatch struct {
	Text      Optional[string] `json:"text"`
	Completed Optional[bool]   `json:"completed"`
}

// IsEmpty reports whether the patch carries no field changes.
func (p TodoPatch) IsEmpty() bool {
	return !p.Text.Set && !p.Completed.Set
}

// Merge returns a patch in which every field is set, taking values from p
// where present and from current otherwise.
func (p TodoPatch) Merge(current *Todo) TodoPatch {
	return TodoPatch{
		Text:      Some(p.Text.OrElse(current.Text)),
		Completed: Some(p.Completed.OrElse(current.Completed)),
	}
}

// CompletedFromColumn converts the stored 0/1 representation of the
// completed flag into a bool.
func CompletedFromColumn(v int64) bool {
	return v != 0
}

// CompletedToColumn is the inverse of CompletedFromColumn.
func CompletedToColumn(completed bool) int64 {
	if completed {
		return 1
	}
	return 0
}
