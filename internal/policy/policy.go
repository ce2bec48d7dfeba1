// Package policy decides which document mutations an actor may perform and
// which side-effect fields they imply. It performs no I/O.
package policy

import (
	"strings"
	"time"

	"docfiling/internal/apperr"
	"docfiling/internal/model"
)

// UpdateRequest is either NormalFields or AdminFields.
type UpdateRequest interface {
	normal() NormalFields
	sealed()
}

// NormalFields are the fields any document owner may change.
type NormalFields struct {
	Title          *string
	DepartmentID   *string
	DocumentTypeID *string
	// Attachment is true when a replacement file accompanies the request.
	Attachment bool
}

// AdminFields extend NormalFields with the fields reserved to admins.
type AdminFields struct {
	NormalFields
	Status      *model.Status
	CreatedBy   *string
	CreatedDate *time.Time
	FiledBy     *string
	FiledDate   *time.Time
}

func (n NormalFields) normal() NormalFields { return n }

func (NormalFields) sealed() {}

func (a AdminFields) normal() NormalFields { return a.NormalFields }

func (AdminFields) sealed() {}

// Classify tags a raw patch by the most privileged field it carries. The
// reference number is never writable.
func Classify(p model.DocumentPatch) (UpdateRequest, error) {
	if p.RefNo != nil {
		return nil, apperr.New(apperr.KindForbidden, "ref_no cannot be modified")
	}
	n := NormalFields{
		Title:          p.Title,
		DepartmentID:   p.DepartmentID,
		DocumentTypeID: p.DocumentTypeID,
		Attachment:     p.Attachment,
	}
	if p.Status == nil && p.CreatedBy == nil && p.CreatedDate == nil && p.FiledBy == nil && p.FiledDate == nil {
		return n, nil
	}
	return AdminFields{
		NormalFields: n,
		Status:       p.Status,
		CreatedBy:    p.CreatedBy,
		CreatedDate:  p.CreatedDate,
		FiledBy:      p.FiledBy,
		FiledDate:    p.FiledDate,
	}, nil
}

// Evaluate checks req against the actor and the current document and returns
// the column changes to apply. now stamps filed_date when an admin files a
// document without supplying one.
func Evaluate(actor model.Actor, current *model.Document, req UpdateRequest, now time.Time) (model.DocumentChanges, error) {
	if err := authorizeOwner(actor, current, "update"); err != nil {
		return model.DocumentChanges{}, err
	}

	// Restricted fields are refused before any value is validated.
	if _, ok := req.(AdminFields); ok && !actor.IsAdmin {
		return model.DocumentChanges{}, apperr.New(apperr.KindForbidden,
			"only admins may change status, filing or creation fields")
	}

	ch, err := normalChanges(req.normal())
	if err != nil {
		return model.DocumentChanges{}, err
	}

	switch r := req.(type) {
	case NormalFields:
		return ch, nil
	case AdminFields:
		return adminChanges(actor, r, ch, now)
	default:
		return model.DocumentChanges{}, apperr.New(apperr.KindInternal, "unknown update request")
	}
}

func normalChanges(n NormalFields) (model.DocumentChanges, error) {
	var ch model.DocumentChanges
	if n.Title != nil {
		t := strings.TrimSpace(*n.Title)
		if t == "" {
			return ch, apperr.New(apperr.KindInvalidInput, "title must not be empty")
		}
		ch.Title = &t
	}
	if n.DepartmentID != nil {
		if *n.DepartmentID == "" {
			return ch, apperr.New(apperr.KindInvalidInput, "department_id must not be empty")
		}
		ch.DepartmentID = n.DepartmentID
	}
	if n.DocumentTypeID != nil {
		if *n.DocumentTypeID == "" {
			return ch, apperr.New(apperr.KindInvalidInput, "document_type_id must not be empty")
		}
		ch.DocumentTypeID = n.DocumentTypeID
	}
	return ch, nil
}

func adminChanges(actor model.Actor, a AdminFields, ch model.DocumentChanges, now time.Time) (model.DocumentChanges, error) {
	if a.CreatedBy != nil {
		if strings.TrimSpace(*a.CreatedBy) == "" {
			return ch, apperr.New(apperr.KindInvalidInput, "created_by must not be empty")
		}
		ch.CreatedBy = a.CreatedBy
	}
	ch.CreatedDate = a.CreatedDate

	if a.FiledBy != nil {
		ch.FiledBy = model.SetTo(*a.FiledBy)
	}
	if a.FiledDate != nil {
		ch.FiledDate = model.SetTo(*a.FiledDate)
	}

	if a.Status == nil {
		return ch, nil
	}
	if !a.Status.Valid() {
		return ch, apperr.Newf(apperr.KindInvalidInput, "invalid status %q", *a.Status)
	}
	ch.Status = a.Status

	switch *a.Status {
	case model.StatusFiled:
		if a.FiledBy == nil {
			ch.FiledBy = model.SetTo(actor.Username)
		}
		if a.FiledDate == nil {
			ch.FiledDate = model.SetTo(now)
		}
	case model.StatusNotFiled:
		ch.FiledBy = model.Clear[string]()
		ch.FiledDate = model.Clear[time.Time]()
	}
	return ch, nil
}

// StatusChanges is the change set of a bulk status update by an admin.
// Filing stamps the actor and now; any other status clears the filing fields.
func StatusChanges(actor model.Actor, status model.Status, now time.Time) (model.DocumentChanges, error) {
	if err := RequireAdmin(actor, "update document status"); err != nil {
		return model.DocumentChanges{}, err
	}
	if !status.Valid() {
		return model.DocumentChanges{}, apperr.Newf(apperr.KindInvalidInput, "invalid status %q", status)
	}
	ch := model.DocumentChanges{Status: &status}
	if status == model.StatusFiled {
		ch.FiledBy = model.SetTo(actor.Username)
		ch.FiledDate = model.SetTo(now)
	} else {
		ch.FiledBy = model.Clear[string]()
		ch.FiledDate = model.Clear[time.Time]()
	}
	return ch, nil
}

// AuthorizeDelete applies the ownership rule to a delete.
func AuthorizeDelete(actor model.Actor, doc *model.Document) error {
	return authorizeOwner(actor, doc, "delete")
}

// AuthorizeRead applies the ownership rule to attachment downloads.
func AuthorizeRead(actor model.Actor, doc *model.Document) error {
	return authorizeOwner(actor, doc, "access")
}

// RequireAdmin fails with KindForbidden unless actor is an admin.
func RequireAdmin(actor model.Actor, op string) error {
	if actor.IsAdmin {
		return nil
	}
	return apperr.Newf(apperr.KindForbidden, "only admins may %s", op)
}

func authorizeOwner(actor model.Actor, doc *model.Document, op string) error {
	if actor.IsAdmin || (actor.Username != "" && doc.CreatedBy == actor.Username) {
		return nil
	}
	return apperr.Newf(apperr.KindForbidden, "you may only %s documents you created", op)
}
