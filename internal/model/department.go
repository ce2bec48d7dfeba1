package model

import (
	"strconv"
	"time"
)

// DepartmentStatus is the active flag of a department.
type DepartmentStatus int

const (
	DepartmentInactive DepartmentStatus = 0
	DepartmentActive   DepartmentStatus = 1
)

// Valid reports whether s is one of the two known flags.
func (s DepartmentStatus) Valid() bool {
	return s == DepartmentInactive || s == DepartmentActive
}

// Department owns an ordered list of document types.
type Department struct {
	ID            string           `json:"id"`
	ExternalID    *int64           `json:"external_id,omitempty"`
	Name          string           `json:"name"`
	FullName      string           `json:"full_name,omitempty"`
	Status        DepartmentStatus `json:"status"`
	CreatedDate   time.Time        `json:"created_date"`
	DocumentTypes []DocumentType   `json:"document_types"`
}

// DocumentType lives inside its department. Counters maps a four-digit year
// to the last sequence number handed out in that year; an absent year is 0.
type DocumentType struct {
	ID           string           `json:"id"`
	DepartmentID string           `json:"department_id"`
	ExternalID   *int64           `json:"external_id,omitempty"`
	Name         string           `json:"name"`
	Prefix       string           `json:"prefix"`
	Padding      int              `json:"padding"`
	Counters     map[string]int64 `json:"counters"`
	CreatedDate  time.Time        `json:"created_date"`
}

// Counter returns the stored sequence value for year.
func (t DocumentType) Counter(year int) int64 {
	return t.Counters[YearKey(year)]
}

// YearKey is the counters map key for year.
func YearKey(year int) string {
	return strconv.Itoa(year)
}

// DocumentTypeWithDepartment is a document type joined with its owner, used by
// listings that span departments.
type DocumentTypeWithDepartment struct {
	DocumentType
	DepartmentName   string           `json:"department_name"`
	DepartmentStatus DepartmentStatus `json:"department_status"`
}

// ExternalTypeRef maps a legacy document type id to internal identities.
type ExternalTypeRef struct {
	DocumentTypeID       string
	DepartmentID         string
	DepartmentExternalID int64
}
