package repository

import (
	"context"
	"time"

	"docfiling/internal/model"
)

// Sort fields accepted by DocumentQuery.SortField.
const (
	SortCreatedDate = "created_date"
	SortTitle       = "title"
	SortRefNo       = "ref_no"
	SortStatus      = "status"
	SortCreatedBy   = "created_by"
	SortFiledDate   = "filed_date"
	SortFiledBy     = "filed_by"
)

// SortFields is the allow-list of sortable columns.
var SortFields = []string{
	SortCreatedDate, SortTitle, SortRefNo, SortStatus, SortCreatedBy, SortFiledDate, SortFiledBy,
}

// DocumentQuery is a validated search over documents. Empty strings and nil
// pointers disable the corresponding filter.
type DocumentQuery struct {
	// Search is matched case-insensitively as a substring of title, ref_no and created_by.
	Search string
	// SearchDate, when set, also matches documents created or filed on that calendar day.
	SearchDate     *time.Time
	Status         *model.Status
	DepartmentID   string
	DocumentTypeID string
	SortField      string
	SortDesc       bool
	Page           PageQuery
}

// DocumentRepository stores documents. Update, Delete and the bulk variants
// are single statements so each is atomic on its own.
type DocumentRepository interface {
	// Create inserts a new document record and returns the stored row.
	Create(ctx context.Context, doc *model.Document) (*model.Document, error)

	// FindByID returns a document by its ID.
	FindByID(ctx context.Context, id string) (*model.Document, error)

	// FindByIDs returns the documents that exist among ids, in no particular order.
	FindByIDs(ctx context.Context, ids []string) ([]model.Document, error)

	// FindByTitle returns documents whose title equals title ignoring case.
	FindByTitle(ctx context.Context, title string) ([]model.Document, error)

	// ListAll returns every document, newest first.
	ListAll(ctx context.Context) ([]model.Document, error)

	// Search returns one page of documents matching q and the total match count.
	Search(ctx context.Context, q DocumentQuery) (*PageResult[model.Document], error)

	// Update applies changes to the document and returns the stored row. When
	// owner is non-empty the row must also have created_by = owner; a row that
	// does not match is reported as KindNotFound.
	Update(ctx context.Context, id string, changes model.DocumentChanges, owner string) (*model.Document, error)

	// UpdateMany applies changes to every listed document and returns the affected count.
	UpdateMany(ctx context.Context, ids []string, changes model.DocumentChanges) (int64, error)

	// Delete removes a document. A missing row is KindNotFound.
	Delete(ctx context.Context, id string) error

	// DeleteMany removes the listed documents and returns the affected count.
	DeleteMany(ctx context.Context, ids []string) (int64, error)

	// ExistsByRefNo reports whether any document already holds refNo.
	ExistsByRefNo(ctx context.Context, refNo string) (bool, error)

	// CountByStatus counts a department's documents per status.
	CountByStatus(ctx context.Context, departmentID string) (map[model.Status]int64, error)

	// InsertMany writes docs in one statement, skipping rows whose ref_no
	// already exists, and returns how many were inserted.
	InsertMany(ctx context.Context, docs []model.Document) (int64, error)
}
