// Package importer loads legacy CSV exports. Each stream reports aggregate
// counts; a bad row is skipped and counted, never fatal. Only whole-file
// problems (wrong extension, missing columns, nothing importable) fail the
// call.
package importer

import (
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"docfiling/internal/metrics"
	"docfiling/internal/refno"
	"docfiling/internal/repository"
)

// Stream names used in logs and metrics.
const (
	StreamDepartments = "departments"
	StreamDocuments   = "documents"
	StreamAdmins      = "admins"
)

const defaultChunkSize = 500

// Source is one uploaded CSV file.
type Source struct {
	Name   string
	Reader io.Reader
}

// Deps wires an Importer.
type Deps struct {
	Departments repository.DepartmentRepository
	Documents   repository.DocumentRepository
	Admins      repository.AdminRepository
	// Allocator mints reference numbers for document rows that carry none.
	// When nil such rows are skipped.
	Allocator *refno.Allocator
	Metrics   *metrics.Domain
	Log       logrus.FieldLogger
	ChunkSize int
	// AdminsChanged runs after a successful admin import, typically to
	// purge cached role lookups.
	AdminsChanged func()
	Now           func() time.Time
}

// Importer runs the three import streams. Streams are independent and each
// call processes its rows sequentially.
type Importer struct {
	depts     repository.DepartmentRepository
	docs      repository.DocumentRepository
	admins    repository.AdminRepository
	alloc     *refno.Allocator
	metrics   *metrics.Domain
	log       logrus.FieldLogger
	chunkSize int
	onAdmins  func()
	now       func() time.Time
}

// New creates an Importer. A non-positive ChunkSize falls back to the default.
func New(d Deps) *Importer {
	chunk := d.ChunkSize
	if chunk <= 0 {
		chunk = defaultChunkSize
	}
	now := d.Now
	if now == nil {
		now = time.Now
	}
	onAdmins := d.AdminsChanged
	if onAdmins == nil {
		onAdmins = func() {}
	}
	return &Importer{
		depts:     d.Departments,
		docs:      d.Documents,
		admins:    d.Admins,
		alloc:     d.Allocator,
		metrics:   d.Metrics,
		log:       d.Log.WithField("component", "importer"),
		chunkSize: chunk,
		onAdmins:  onAdmins,
		now:       now,
	}
}

// DepartmentReport summarizes a department import.
type DepartmentReport struct {
	Departments   int `json:"departments"`
	Created       int `json:"created"`
	Updated       int `json:"updated"`
	DocumentTypes int `json:"document_types"`
	SkippedRows   int `json:"skipped_rows"`
	Failed        int `json:"failed"`
}

// DocumentReport summarizes a document import.
type DocumentReport struct {
	Inserted   int `json:"inserted"`
	Skipped    int `json:"skipped"`
	Duplicates int `json:"duplicates"`
	Failed     int `json:"failed"`
}

// AdminReport summarizes an admin import.
type AdminReport struct {
	Processed  int `json:"processed"`
	Skipped    int `json:"skipped"`
	Duplicates int `json:"duplicates"`
	Failed     int `json:"failed"`
}
