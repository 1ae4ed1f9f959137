package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// envelope is the wrapper written on every response.
type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
	ID      int64  `json:"id,omitempty"`
}

var errInvalidID = errors.New("invalid todo id")

// ---------------------------------------------------------------------------
// JSON helpers
// ---------------------------------------------------------------------------

func (s *Server) respondJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.WithError(err).Error("failed to encode JSON response")
	}
}

func (s *Server) respondData(w http.ResponseWriter, status int, data any) {
	s.respondJSON(w, status, envelope{Success: true, Data: data})
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, envelope{Success: false, Message: message})
}

// respondValidation writes a 400 whose error field carries the detail of
// what was wrong with the input.
func (s *Server) respondValidation(w http.ResponseWriter, message string, detail error) {
	body := envelope{Success: false, Message: message}
	if detail != nil {
		body.Error = detail.Error()
	}
	s.respondJSON(w, http.StatusBadRequest, body)
}

// respondInternal logs err and writes a generic 500. The error text never
// reaches the client.
func (s *Server) respondInternal(w http.ResponseWriter, r *http.Request, operation, message string, err error) {
	s.requestLogger(r).WithError(err).WithField("operation", operation).Error(message)
	s.metrics.StorageError(operation)
	s.respondJSON(w, http.StatusInternalServerError, envelope{
		Success: false,
		Message: message,
		Error:   "internal server error",
	})
}

// readBody reads the request body and parses it as a generic JSON object.
// An empty body reads as an empty object.
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, map[string]any, error) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, nil, fmt.Errorf("request body exceeds %d bytes", tooLarge.Limit)
		}
		return nil, nil, fmt.Errorf("failed to read request body: %w", err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		raw = []byte("{}")
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, nil, fmt.Errorf("invalid JSON: %w", err)
	}
	obj, ok := doc.(map[string]any)
	if !ok {
		return nil, nil, errors.New("request body must be a JSON object")
	}
	return raw, obj, nil
}

// pathID extracts the {id} path value as a positive integer.
func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errInvalidID
	}
	return id, nil
}
