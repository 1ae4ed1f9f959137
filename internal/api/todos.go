package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/Kerhoff/todo-api/internal/models"
	"github.com/Kerhoff/todo-api/internal/repository"
)

const (
	msgTextRequired  = "Text is required and must be non-empty"
	msgInvalidUpdate = "Invalid update payload"
	msgInvalidBody   = "Invalid request body"
	msgTodoNotFound  = "Todo not found"
	msgTodoDeleted   = "Todo deleted successfully"
	msgInvalidTodoID = "Invalid todo id"
	msgFetchFailed   = "Failed to fetch todos"
	msgCreateFailed  = "Failed to create todo"
	msgUpdateFailed  = "Failed to update todo"
	msgDeleteFailed  = "Failed to delete todo"
	msgGetTodoFailed = "Failed to fetch todo"
)

type createTodoRequest struct {
	Text string `json:"text"`
}

// ---------------------------------------------------------------------------
// Todos
// ---------------------------------------------------------------------------

func (s *Server) handleListTodos(w http.ResponseWriter, r *http.Request) {
	todos, err := s.todos.List(r.Context())
	if err != nil {
		s.respondInternal(w, r, "list", msgFetchFailed, err)
		return
	}

	s.respondData(w, http.StatusOK, todos)
}

func (s *Server) handleGetTodo(w http.ResponseWriter, r *http.Request) {
	todo, ok := s.lookupTodo(w, r, "get", msgGetTodoFailed)
	if !ok {
		return
	}

	s.respondData(w, http.StatusOK, todo)
}

func (s *Server) handleCreateTodo(w http.ResponseWriter, r *http.Request) {
	raw, doc, err := readBody(w, r)
	if err != nil {
		s.respondValidation(w, msgInvalidBody, err)
		return
	}
	if err := validateBody(createTodoSchema, doc); err != nil {
		s.respondValidation(w, msgTextRequired, err)
		return
	}

	var req createTodoRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		s.respondValidation(w, msgInvalidBody, err)
		return
	}

	// The schema only rejects ASCII whitespace; TrimSpace also covers the
	// Unicode spaces.
	text := strings.TrimSpace(req.Text)
	if text == "" {
		s.respondValidation(w, msgTextRequired, &ValidationError{Field: "text", Message: "must not be blank"})
		return
	}

	created, err := s.todos.Create(r.Context(), text)
	if err != nil {
		s.respondInternal(w, r, "create", msgCreateFailed, err)
		return
	}

	s.requestLogger(r).WithField("todo_id", created.ID).Info("todo created")
	s.respondData(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateTodo(w http.ResponseWriter, r *http.Request) {
	current, ok := s.lookupTodo(w, r, "update", msgUpdateFailed)
	if !ok {
		return
	}

	raw, doc, err := readBody(w, r)
	if err != nil {
		s.respondValidation(w, msgInvalidBody, err)
		return
	}
	if err := validateBody(updateTodoSchema, doc); err != nil {
		s.respondValidation(w, msgInvalidUpdate, err)
		return
	}

	var patch models.TodoPatch
	if err := json.Unmarshal(raw, &patch); err != nil {
		s.respondValidation(w, msgInvalidBody, err)
		return
	}
	if text, set := patch.Text.Get(); set {
		text = strings.TrimSpace(text)
		if text == "" {
			s.respondValidation(w, msgInvalidUpdate, &ValidationError{Field: "text", Message: "must not be blank"})
			return
		}
		patch.Text = models.Some(text)
	}

	// Fields the client left out keep the values just read.
	merged := patch.Merge(current)

	updated, err := s.todos.Update(r.Context(), current.ID, merged)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Deleted between the lookup and the write.
			s.respondError(w, http.StatusNotFound, msgTodoNotFound)
			return
		}
		s.respondInternal(w, r, "update", msgUpdateFailed, err)
		return
	}

	s.requestLogger(r).WithField("todo_id", updated.ID).Info("todo updated")
	s.respondData(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteTodo(w http.ResponseWriter, r *http.Request) {
	todo, ok := s.lookupTodo(w, r, "delete", msgDeleteFailed)
	if !ok {
		return
	}

	if err := s.todos.Delete(r.Context(), todo.ID); err != nil {
		s.respondInternal(w, r, "delete", msgDeleteFailed, err)
		return
	}

	s.requestLogger(r).WithField("todo_id", todo.ID).Info("todo deleted")
	s.respondJSON(w, http.StatusOK, envelope{Success: true, Message: msgTodoDeleted, ID: todo.ID})
}

// lookupTodo resolves the {id} path value to an existing todo. It writes
// the error response itself and returns false when the caller should stop.
func (s *Server) lookupTodo(w http.ResponseWriter, r *http.Request, operation, failMsg string) (*models.Todo, bool) {
	id, err := pathID(r)
	if err != nil {
		s.respondValidation(w, msgInvalidTodoID, err)
		return nil, false
	}

	todo, err := s.todos.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, msgTodoNotFound)
			return nil, false
		}
		s.respondInternal(w, r, operation, failMsg, err)
		return nil, false
	}
	return todo, true
}
