package repository

import (
	"context"

	"docfiling/internal/model"
)

// UpsertResult reports what an import upsert touched.
type UpsertResult struct {
	DepartmentID  string
	Created       bool
	DocumentTypes int
}

// DepartmentRepository stores departments together with their owned
// document types.
type DepartmentRepository interface {
	// Create inserts the department and its document types in one transaction.
	Create(ctx context.Context, dept *model.Department) (*model.Department, error)

	// List returns departments with their types; activeOnly filters on status.
	List(ctx context.Context, activeOnly bool) ([]model.Department, error)

	// FindByID returns a department with its document types.
	FindByID(ctx context.Context, id string) (*model.Department, error)

	// FindByName returns a department with its document types.
	FindByName(ctx context.Context, name string) (*model.Department, error)

	// UpdateStatusByNames sets status on every named department and returns the affected count.
	UpdateStatusByNames(ctx context.Context, names []string, status model.DepartmentStatus) (int64, error)

	// Delete removes a department and its document types.
	Delete(ctx context.Context, id string) error

	// AddDocumentType appends a document type to the department.
	AddDocumentType(ctx context.Context, departmentID string, dt *model.DocumentType) (*model.DocumentType, error)

	// DeleteDocumentType removes one document type from the department.
	DeleteDocumentType(ctx context.Context, departmentID, typeID string) error

	// FindDocumentType returns the type only if it belongs to departmentID.
	FindDocumentType(ctx context.Context, departmentID, typeID string) (*model.DocumentType, error)

	// ListDocumentTypes returns every document type joined with its department.
	ListDocumentTypes(ctx context.Context) ([]model.DocumentTypeWithDepartment, error)

	// PrefixesInUse returns which of prefixes are already held by any document type.
	PrefixesInUse(ctx context.Context, prefixes []string) ([]string, error)

	// UpsertByExternalID creates or updates a department keyed by its
	// external id, merging document types by their external ids.
	UpsertByExternalID(ctx context.Context, dept *model.Department) (*UpsertResult, error)

	// ResolveExternalTypes maps legacy document type ids to internal identities.
	// Unknown ids are absent from the result.
	ResolveExternalTypes(ctx context.Context, externalIDs []int64) (map[int64]model.ExternalTypeRef, error)
}
