package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"docfiling/internal/apperr"
	"docfiling/internal/attachment"
	"docfiling/internal/model"
	"docfiling/internal/policy"
	"docfiling/internal/refno"
	"docfiling/internal/repository"
)

// ErrNoChange is returned by Update when the validated patch changes nothing.
var ErrNoChange = apperr.New(apperr.KindInvalidInput, "no changes to apply")

// CreateDocumentInput is the data supplied when filing a new document.
type CreateDocumentInput struct {
	Title          string
	DepartmentID   string
	DocumentTypeID string
	Upload         *attachment.Upload
}

// BulkResult reports how many of the requested documents a bulk operation touched.
type BulkResult struct {
	Requested int   `json:"requested"`
	Affected  int64 `json:"affected"`
}

// DocumentService defines the document use cases.
type DocumentService interface {
	// Create mints a reference number, stores the optional attachment and
	// persists the document as Not Filed.
	Create(ctx context.Context, in CreateDocumentInput, actor model.Actor) (*model.Document, error)

	Get(ctx context.Context, id string) (*model.Document, error)

	// List returns every document, newest first.
	List(ctx context.Context) ([]model.Document, error)

	Search(ctx context.Context, p SearchParams) (*DocumentPage, error)

	// FindByTitle matches the title exactly, ignoring case.
	FindByTitle(ctx context.Context, title string) ([]model.Document, error)

	// Update applies patch under the permission policy. A non-nil upload
	// replaces the attachment.
	Update(ctx context.Context, id string, patch model.DocumentPatch, actor model.Actor, upload *attachment.Upload) (*model.Document, error)

	// Delete removes the document, its attachment and, when possible, the
	// sequence value it consumed.
	Delete(ctx context.Context, id string, actor model.Actor) error

	BulkDelete(ctx context.Context, ids []string, actor model.Actor) (*BulkResult, error)
	BulkUpdateStatus(ctx context.Context, ids []string, status model.Status, actor model.Actor) (*BulkResult, error)

	// CountByStatus counts a department's documents per status.
	CountByStatus(ctx context.Context, departmentID string) (map[model.Status]int64, error)

	// OpenAttachment streams the document's file to its owner or an admin.
	OpenAttachment(ctx context.Context, id string, actor model.Actor) (*attachment.Object, error)

	// AttachmentURL returns a time-limited download link for the document's file.
	AttachmentURL(ctx context.Context, id string, actor model.Actor) (string, time.Duration, error)
}

// DocumentDeps wires a document service.
type DocumentDeps struct {
	Documents   repository.DocumentRepository
	Departments repository.DepartmentRepository
	Allocator   *refno.Allocator
	Attachments *attachment.Manager
	Log         logrus.FieldLogger
	// Now defaults to time.Now.
	Now func() time.Time
}

type documentService struct {
	docs  repository.DocumentRepository
	depts repository.DepartmentRepository
	alloc *refno.Allocator
	files *attachment.Manager
	log   logrus.FieldLogger
	now   func() time.Time
}

// NewDocumentService constructs a new DocumentService.
func NewDocumentService(d DocumentDeps) DocumentService {
	now := d.Now
	if now == nil {
		now = time.Now
	}
	return &documentService{
		docs:  d.Documents,
		depts: d.Departments,
		alloc: d.Allocator,
		files: d.Attachments,
		log:   d.Log.WithField("component", "documents"),
		now:   now,
	}
}

func requireActor(actor model.Actor) error {
	if strings.TrimSpace(actor.Username) == "" {
		return apperr.New(apperr.KindForbidden, "an authenticated user is required")
	}
	return nil
}

func (s *documentService) Create(ctx context.Context, in CreateDocumentInput, actor model.Actor) (*model.Document, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, apperr.New(apperr.KindInvalidInput, "title is required")
	}
	if in.DepartmentID == "" || in.DocumentTypeID == "" {
		return nil, apperr.New(apperr.KindInvalidInput, "department_id and document_type_id are required")
	}
	if in.Upload != nil {
		if err := s.files.Validate(in.Upload); err != nil {
			return nil, err
		}
	}

	alloc, err := s.alloc.Allocate(ctx, in.DepartmentID, in.DocumentTypeID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	doc := &model.Document{
		ID:             uuid.NewString(),
		RefNo:          alloc.RefNo,
		Title:          title,
		DepartmentID:   in.DepartmentID,
		DocumentTypeID: in.DocumentTypeID,
		CreatedBy:      actor.Username,
		CreatedDate:    now,
		Status:         model.StatusNotFiled,
	}

	if in.Upload != nil {
		ref, err := s.files.Save(ctx, in.Upload, attachment.Context{
			DepartmentID: in.DepartmentID,
			RefNo:        alloc.RefNo,
			Year:         alloc.Key.Year,
		})
		if err != nil {
			s.alloc.Release(ctx, alloc)
			return nil, err
		}
		doc.Attachment = &ref
	}

	stored, err := s.docs.Create(ctx, doc)
	if err != nil {
		if doc.Attachment != nil {
			s.files.Delete(ctx, doc.Attachment.Path)
		}
		// A conflicting reference is held by another document, so the value
		// stays consumed.
		if !apperr.IsKind(err, apperr.KindConflict) {
			s.alloc.Release(ctx, alloc)
		}
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"document_id": stored.ID,
		"ref_no":      stored.RefNo,
		"created_by":  stored.CreatedBy,
	}).Info("document_created")
	return stored, nil
}

func (s *documentService) Get(ctx context.Context, id string) (*model.Document, error) {
	if id == "" {
		return nil, apperr.New(apperr.KindInvalidInput, "id is required")
	}
	return s.docs.FindByID(ctx, id)
}

func (s *documentService) List(ctx context.Context) ([]model.Document, error) {
	return s.docs.ListAll(ctx)
}

func (s *documentService) Search(ctx context.Context, p SearchParams) (*DocumentPage, error) {
	q, err := ParseQuery(p)
	if err != nil {
		return nil, err
	}
	res, err := s.docs.Search(ctx, q)
	if err != nil {
		return nil, err
	}
	return newPage(res, q), nil
}

func (s *documentService) FindByTitle(ctx context.Context, title string) ([]model.Document, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apperr.New(apperr.KindInvalidInput, "title is required")
	}
	return s.docs.FindByTitle(ctx, title)
}

func (s *documentService) Update(ctx context.Context, id string, patch model.DocumentPatch, actor model.Actor, upload *attachment.Upload) (*model.Document, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	patch.Attachment = upload != nil
	req, err := policy.Classify(patch)
	if err != nil {
		return nil, err
	}
	changes, err := policy.Evaluate(actor, current, req, s.now().UTC())
	if err != nil {
		return nil, err
	}
	if changes.IsEmpty() && upload == nil {
		return nil, ErrNoChange
	}

	deptID, typeID := current.DepartmentID, current.DocumentTypeID
	if changes.DepartmentID != nil {
		deptID = *changes.DepartmentID
	}
	if changes.DocumentTypeID != nil {
		typeID = *changes.DocumentTypeID
	}
	if changes.MovesReference() {
		if _, err := s.depts.FindDocumentType(ctx, deptID, typeID); err != nil {
			if apperr.IsKind(err, apperr.KindNotFound) || apperr.IsKind(err, apperr.KindInvalidInput) {
				return nil, apperr.Wrap(apperr.KindNotFound, refno.MsgInvalidReference, err)
			}
			return nil, err
		}
	}

	var saved *model.AttachmentRef
	if upload != nil {
		ref, err := s.files.Save(ctx, upload, attachment.Context{
			DepartmentID: deptID,
			RefNo:        current.RefNo,
			Year:         current.CreatedDate.Year(),
		})
		if err != nil {
			return nil, err
		}
		saved = &ref
		changes.Attachment = model.SetTo(ref)
	}

	owner := ""
	if !actor.IsAdmin {
		owner = actor.Username
	}
	updated, err := s.docs.Update(ctx, id, changes, owner)
	if err != nil {
		if saved != nil {
			s.files.Delete(ctx, saved.Path)
		}
		return nil, err
	}
	if saved != nil && current.Attachment != nil && current.Attachment.Path != saved.Path {
		s.files.Delete(ctx, current.Attachment.Path)
	}
	return updated, nil
}

func (s *documentService) Delete(ctx context.Context, id string, actor model.Actor) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	doc, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := policy.AuthorizeDelete(actor, doc); err != nil {
		return err
	}
	if err := s.docs.Delete(ctx, id); err != nil {
		return err
	}
	s.release(ctx, []model.Document{*doc})

	s.log.WithFields(logrus.Fields{
		"document_id": doc.ID,
		"ref_no":      doc.RefNo,
		"deleted_by":  actor.Username,
	}).Info("document_deleted")
	return nil
}

// release cleans up after deleted documents: their files are removed and
// their sequence values reclaimed, latest first so consecutive tails unwind.
func (s *documentService) release(ctx context.Context, docs []model.Document) {
	for _, d := range docs {
		if d.Attachment != nil {
			s.files.Delete(ctx, d.Attachment.Path)
		}
	}
	sort.SliceStable(docs, func(i, j int) bool {
		_, si, _, _ := refno.Parse(docs[i].RefNo)
		_, sj, _, _ := refno.Parse(docs[j].RefNo)
		return si > sj
	})
	for i := range docs {
		s.alloc.Reclaim(ctx, &docs[i])
	}
}

// resolveIDs dedupes ids and fails unless every one of them exists.
func (s *documentService) resolveIDs(ctx context.Context, ids []string) ([]string, []model.Document, error) {
	unique := dedupeTrimmed(ids)
	if len(unique) == 0 {
		return nil, nil, apperr.New(apperr.KindInvalidInput, "at least one document id is required")
	}

	found, err := s.docs.FindByIDs(ctx, unique)
	if err != nil {
		return nil, nil, err
	}
	if len(found) != len(unique) {
		have := make(map[string]struct{}, len(found))
		for _, d := range found {
			have[d.ID] = struct{}{}
		}
		var missing []string
		for _, id := range unique {
			if _, ok := have[id]; !ok {
				missing = append(missing, id)
			}
		}
		return nil, nil, apperr.Newf(apperr.KindNotFound, "documents not found: %s", strings.Join(missing, ", "))
	}
	return unique, found, nil
}

func (s *documentService) BulkDelete(ctx context.Context, ids []string, actor model.Actor) (*BulkResult, error) {
	if err := policy.RequireAdmin(actor, "bulk delete documents"); err != nil {
		return nil, err
	}
	unique, found, err := s.resolveIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	n, err := s.docs.DeleteMany(ctx, unique)
	if err != nil {
		return nil, err
	}
	s.release(ctx, found)

	s.log.WithFields(logrus.Fields{
		"requested":  len(unique),
		"deleted":    n,
		"deleted_by": actor.Username,
	}).Info("documents_bulk_deleted")
	return &BulkResult{Requested: len(unique), Affected: n}, nil
}

func (s *documentService) BulkUpdateStatus(ctx context.Context, ids []string, status model.Status, actor model.Actor) (*BulkResult, error) {
	changes, err := policy.StatusChanges(actor, status, s.now().UTC())
	if err != nil {
		return nil, err
	}
	unique, _, err := s.resolveIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	n, err := s.docs.UpdateMany(ctx, unique, changes)
	if err != nil {
		return nil, err
	}
	return &BulkResult{Requested: len(unique), Affected: n}, nil
}

func (s *documentService) CountByStatus(ctx context.Context, departmentID string) (map[model.Status]int64, error) {
	if departmentID == "" {
		return nil, apperr.New(apperr.KindInvalidInput, "department id is required")
	}
	if _, err := s.depts.FindByID(ctx, departmentID); err != nil {
		return nil, err
	}
	return s.docs.CountByStatus(ctx, departmentID)
}

func (s *documentService) attachmentOf(ctx context.Context, id string, actor model.Actor) (*model.AttachmentRef, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	doc, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.AuthorizeRead(actor, doc); err != nil {
		return nil, err
	}
	if doc.Attachment == nil {
		return nil, apperr.New(apperr.KindNotFound, "document has no attachment")
	}
	return doc.Attachment, nil
}

func (s *documentService) OpenAttachment(ctx context.Context, id string, actor model.Actor) (*attachment.Object, error) {
	ref, err := s.attachmentOf(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	return s.files.Open(ctx, *ref)
}

func (s *documentService) AttachmentURL(ctx context.Context, id string, actor model.Actor) (string, time.Duration, error) {
	ref, err := s.attachmentOf(ctx, id, actor)
	if err != nil {
		return "", 0, err
	}
	return s.files.PresignURL(ctx, *ref)
}
