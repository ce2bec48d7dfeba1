package model

import "time"

// Status is the filing state of a document.
type Status string

const (
	StatusNotFiled  Status = "Not Filed"
	StatusFiled     Status = "Filed"
	StatusSuspended Status = "Suspended"
)

// Statuses lists every valid status in display order.
var Statuses = []Status{StatusNotFiled, StatusFiled, StatusSuspended}

// Valid reports whether s is one of the three literals.
func (s Status) Valid() bool {
	switch s {
	case StatusNotFiled, StatusFiled, StatusSuspended:
		return true
	}
	return false
}

// AttachmentRef points at the single binary attached to a document.
type AttachmentRef struct {
	FileID      string `json:"file_id"`
	Path        string `json:"file_path"`
	ContentType string `json:"content_type"`
	Filename    string `json:"filename"`
	Size        int64  `json:"size"`
}

// Document is a filed record. RefNo and CreatedDate never change after
// creation.
type Document struct {
	ID             string         `json:"id"`
	ExternalID     *int64         `json:"external_id,omitempty"`
	RefNo          string         `json:"ref_no"`
	Title          string         `json:"title"`
	DepartmentID   string         `json:"department_id"`
	DocumentTypeID string         `json:"document_type_id"`
	CreatedBy      string         `json:"created_by"`
	CreatedDate    time.Time      `json:"created_date"`
	Status         Status         `json:"status"`
	FiledBy        *string        `json:"filed_by"`
	FiledDate      *time.Time     `json:"filed_date"`
	Attachment     *AttachmentRef `json:"attachment,omitempty"`
}

// DocumentPatch is the raw update request. A nil pointer means the field was
// not supplied. Attachment is true when a new file accompanies the patch.
type DocumentPatch struct {
	Title          *string    `json:"title,omitempty"`
	DepartmentID   *string    `json:"department_id,omitempty"`
	DocumentTypeID *string    `json:"document_type_id,omitempty"`
	Status         *Status    `json:"status,omitempty"`
	CreatedBy      *string    `json:"created_by,omitempty"`
	CreatedDate    *time.Time `json:"created_date,omitempty"`
	FiledBy        *string    `json:"filed_by,omitempty"`
	FiledDate      *time.Time `json:"filed_date,omitempty"`
	RefNo          *string    `json:"ref_no,omitempty"`
	Attachment     bool       `json:"-"`
}

// DocumentChanges is the validated column set applied by a single update.
type DocumentChanges struct {
	Title          *string
	DepartmentID   *string
	DocumentTypeID *string
	Status         *Status
	CreatedBy      *string
	CreatedDate    *time.Time
	FiledBy        Nullable[string]
	FiledDate      Nullable[time.Time]
	Attachment     Nullable[AttachmentRef]
}

// IsEmpty reports whether no column would change.
func (c DocumentChanges) IsEmpty() bool {
	return c.Title == nil && c.DepartmentID == nil && c.DocumentTypeID == nil &&
		c.Status == nil && c.CreatedBy == nil && c.CreatedDate == nil &&
		!c.FiledBy.Set && !c.FiledDate.Set && !c.Attachment.Set
}

// MovesReference reports whether the department or document type changes.
func (c DocumentChanges) MovesReference() bool {
	return c.DepartmentID != nil || c.DocumentTypeID != nil
}
