// Package repository contains the data access abstractions. Implementations
// live in subpackages (postgres) and translate driver errors into apperr kinds:
// missing rows become KindNotFound, unique and foreign key violations become
// KindConflict and connection failures become KindStorageUnavailable.
package repository

// PageQuery holds limit/offset pagination parameters.
type PageQuery struct {
	Limit  int
	Offset int
}

// PageResult is a generic pagination result wrapper.
// T is typically a model type.
type PageResult[T any] struct {
	Items []T
	Total int
}
