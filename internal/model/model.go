// Package model contains the domain records shared by the service, storage
// and HTTP layers. Types carry JSON tags only; persistence details live in
// the repository implementations.
package model

import "encoding/json"

// Nullable describes a change to an optional column. Set=false leaves the
// column untouched; Set=true with a nil Value clears it.
type Nullable[T any] struct {
	Set   bool
	Value *T
}

// SetTo returns a change that assigns v.
func SetTo[T any](v T) Nullable[T] {
	return Nullable[T]{Set: true, Value: &v}
}

// Clear returns a change that nulls the column.
func Clear[T any]() Nullable[T] {
	return Nullable[T]{Set: true}
}

// MarshalJSON renders an unset change as null so change sets can be logged.
func (n Nullable[T]) MarshalJSON() ([]byte, error) {
	if !n.Set || n.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*n.Value)
}
