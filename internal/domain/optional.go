package domain

import (
	"bytes"
	"encoding/json"
)

// Optional records whether a JSON field was present in a request body.
// Set is false when the field was omitted. Null is true for an explicit
// null or an empty string.
type Optional[T any] struct {
	Set   bool
	Null  bool
	Value T
}

// Some returns an Optional holding v
func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: v}
}

// Null returns an Optional that clears the field
func Null[T any]() Optional[T] {
	return Optional[T]{Set: true, Null: true}
}

func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) || bytes.Equal(trimmed, []byte(`""`)) {
		o.Null = true
		var zero T
		o.Value = zero
		return nil
	}
	o.Null = false
	return json.Unmarshal(trimmed, &o.Value)
}

// Apply returns the value to store given the current one: current when the
// field was omitted, nil when it was cleared.
func (o Optional[T]) Apply(current *T) *T {
	switch {
	case !o.Set:
		return current
	case o.Null:
		return nil
	default:
		v := o.Value
		return &v
	}
}
