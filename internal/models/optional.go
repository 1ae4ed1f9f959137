package models

import (
	"bytes"
	"encoding/json"
)

// Optional holds a value together with a flag recording whether it was
// supplied at all. A JSON field that is absent leaves Set false; any value,
// including null, sets it.
type Optional[T any] struct {
	Value T
	Set   bool
	null  bool
}

// Some returns an Optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Value: v, Set: true}
}

// Get returns the value and whether it was set.
func (o Optional[T]) Get() (T, bool) {
	return o.Value, o.Set
}

// OrElse returns the value if set, def otherwise.
func (o Optional[T]) OrElse(def T) T {
	if o.Set {
		return o.Value
	}
	return def
}

// IsNull reports a value that was supplied as JSON null.
func (o Optional[T]) IsNull() bool {
	return o.Set && o.null
}

func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	o.null = bytes.Equal(bytes.TrimSpace(data), []byte("null"))
	if o.null {
		var zero T
		o.Value = zero
		return nil
	}
	return json.Unmarshal(data, &o.Value)
}

func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.Set || o.null {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}
