package repository

import "context"

// CounterKey addresses one per-year counter of a document type.
type CounterKey struct {
	DepartmentID   string
	DocumentTypeID string
	Year           int
}

// CounterStore mutates the per-year counters embedded in document types.
// Every method is one conditional statement matching both the department and
// the type. Increment and Read report a key that matches no row as
// KindNotFound.
type CounterStore interface {
	// Increment adds one to the counter and returns the new value.
	Increment(ctx context.Context, key CounterKey) (int64, error)

	// Decrement subtracts one from the counter only while it still equals
	// expected and the type's prefix equals prefix. It reports whether the
	// counter moved. The counter never drops below zero.
	Decrement(ctx context.Context, key CounterKey, prefix string, expected int64) (bool, error)

	// Read returns the current counter value; an absent year reads as zero.
	Read(ctx context.Context, key CounterKey) (int64, error)
}
