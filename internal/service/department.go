package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"docfiling/internal/apperr"
	"docfiling/internal/model"
	"docfiling/internal/policy"
	"docfiling/internal/repository"
)

// DocumentTypeInput describes a document type to create.
type DocumentTypeInput struct {
	Name    string `json:"name" validate:"required"`
	Prefix  string `json:"prefix" validate:"required"`
	Padding int    `json:"padding" validate:"omitempty,min=1,max=12"`
}

// CreateDepartmentInput describes a department and its initial types.
type CreateDepartmentInput struct {
	Name          string                  `json:"name" validate:"required"`
	FullName      string                  `json:"full_name"`
	Status        *model.DepartmentStatus `json:"status" validate:"omitempty,oneof=0 1"`
	DocumentTypes []DocumentTypeInput     `json:"document_types" validate:"dive"`
}

// DepartmentService manages departments and their document types. Reads
// are open to every user; changes require an admin.
type DepartmentService interface {
	Create(ctx context.Context, in CreateDepartmentInput, actor model.Actor) (*model.Department, error)
	List(ctx context.Context, activeOnly bool) ([]model.Department, error)
	Get(ctx context.Context, id string) (*model.Department, error)
	GetByName(ctx context.Context, name string) (*model.Department, error)
	UpdateStatus(ctx context.Context, names []string, status model.DepartmentStatus, actor model.Actor) (int64, error)
	Delete(ctx context.Context, id string, actor model.Actor) error
	AddDocumentType(ctx context.Context, departmentID string, in DocumentTypeInput, actor model.Actor) (*model.DocumentType, error)
	DeleteDocumentType(ctx context.Context, departmentID, typeID string, actor model.Actor) error
	DocumentTypes(ctx context.Context, departmentID string) ([]model.DocumentType, error)
	AllDocumentTypes(ctx context.Context) ([]model.DocumentTypeWithDepartment, error)
}

type departmentService struct {
	repo repository.DepartmentRepository
	log  logrus.FieldLogger
	now  func() time.Time
}

func NewDepartmentService(repo repository.DepartmentRepository, log logrus.FieldLogger) DepartmentService {
	return &departmentService{repo: repo, log: log.WithField("component", "departments"), now: time.Now}
}

func (s *departmentService) buildType(in DocumentTypeInput, now time.Time) (model.DocumentType, error) {
	name := strings.TrimSpace(in.Name)
	prefix := strings.TrimSpace(in.Prefix)
	if name == "" || prefix == "" {
		return model.DocumentType{}, apperr.New(apperr.KindInvalidInput, "document type name and prefix are required")
	}
	if strings.ContainsAny(prefix, " \t\r\n") {
		return model.DocumentType{}, apperr.Newf(apperr.KindInvalidInput, "prefix %q must not contain whitespace", prefix)
	}
	padding := in.Padding
	if padding == 0 {
		padding = 1
	}
	if padding < 1 {
		return model.DocumentType{}, apperr.New(apperr.KindInvalidInput, "padding must be at least 1")
	}
	return model.DocumentType{
		ID:          uuid.NewString(),
		Name:        name,
		Prefix:      prefix,
		Padding:     padding,
		Counters:    map[string]int64{},
		CreatedDate: now,
	}, nil
}

// ensurePrefixesFree fails with KindConflict when any prefix is already held.
func (s *departmentService) ensurePrefixesFree(ctx context.Context, prefixes []string) error {
	used, err := s.repo.PrefixesInUse(ctx, prefixes)
	if err != nil {
		return err
	}
	if len(used) > 0 {
		return apperr.Newf(apperr.KindConflict, "prefix already in use: %s", strings.Join(used, ", "))
	}
	return nil
}

func (s *departmentService) Create(ctx context.Context, in CreateDepartmentInput, actor model.Actor) (*model.Department, error) {
	if err := policy.RequireAdmin(actor, "create departments"); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperr.New(apperr.KindInvalidInput, "department name is required")
	}
	status := model.DepartmentActive
	if in.Status != nil {
		if !in.Status.Valid() {
			return nil, apperr.New(apperr.KindInvalidInput, "status must be 0 or 1")
		}
		status = *in.Status
	}

	now := s.now().UTC()
	types := make([]model.DocumentType, 0, len(in.DocumentTypes))
	names := map[string]struct{}{}
	prefixes := map[string]struct{}{}
	prefixList := make([]string, 0, len(in.DocumentTypes))
	for _, ti := range in.DocumentTypes {
		dt, err := s.buildType(ti, now)
		if err != nil {
			return nil, err
		}
		key := strings.ToLower(dt.Name)
		if _, dup := names[key]; dup {
			return nil, apperr.Newf(apperr.KindInvalidInput, "duplicate document type name %q", dt.Name)
		}
		if _, dup := prefixes[dt.Prefix]; dup {
			return nil, apperr.Newf(apperr.KindInvalidInput, "duplicate prefix %q", dt.Prefix)
		}
		names[key] = struct{}{}
		prefixes[dt.Prefix] = struct{}{}
		prefixList = append(prefixList, dt.Prefix)
		types = append(types, dt)
	}

	if _, err := s.repo.FindByName(ctx, name); err == nil {
		return nil, apperr.Newf(apperr.KindConflict, "department %q already exists", name)
	} else if !apperr.IsKind(err, apperr.KindNotFound) {
		return nil, err
	}
	if err := s.ensurePrefixesFree(ctx, prefixList); err != nil {
		return nil, err
	}

	dept, err := s.repo.Create(ctx, &model.Department{
		ID:            uuid.NewString(),
		Name:          name,
		FullName:      strings.TrimSpace(in.FullName),
		Status:        status,
		CreatedDate:   now,
		DocumentTypes: types,
	})
	if err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{
		"department_id":  dept.ID,
		"name":           dept.Name,
		"document_types": len(dept.DocumentTypes),
	}).Info("department_created")
	return dept, nil
}

func (s *departmentService) List(ctx context.Context, activeOnly bool) ([]model.Department, error) {
	return s.repo.List(ctx, activeOnly)
}

func (s *departmentService) Get(ctx context.Context, id string) (*model.Department, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *departmentService) GetByName(ctx context.Context, name string) (*model.Department, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.New(apperr.KindInvalidInput, "department name is required")
	}
	return s.repo.FindByName(ctx, name)
}

// UpdateStatus sets the active flag on every named department and reports
// how many matched.
func (s *departmentService) UpdateStatus(ctx context.Context, names []string, status model.DepartmentStatus, actor model.Actor) (int64, error) {
	if err := policy.RequireAdmin(actor, "change department status"); err != nil {
		return 0, err
	}
	if !status.Valid() {
		return 0, apperr.New(apperr.KindInvalidInput, "status must be 0 or 1")
	}
	names = dedupeTrimmed(names)
	if len(names) == 0 {
		return 0, apperr.New(apperr.KindInvalidInput, "at least one department name is required")
	}
	return s.repo.UpdateStatusByNames(ctx, names, status)
}

func (s *departmentService) Delete(ctx context.Context, id string, actor model.Actor) error {
	if err := policy.RequireAdmin(actor, "delete departments"); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if apperr.IsKind(err, apperr.KindConflict) {
			return apperr.Wrap(apperr.KindConflict, "department still has documents", err)
		}
		return err
	}
	s.log.WithField("department_id", id).Info("department_deleted")
	return nil
}

func (s *departmentService) AddDocumentType(ctx context.Context, departmentID string, in DocumentTypeInput, actor model.Actor) (*model.DocumentType, error) {
	if err := policy.RequireAdmin(actor, "add document types"); err != nil {
		return nil, err
	}
	dept, err := s.repo.FindByID(ctx, departmentID)
	if err != nil {
		return nil, err
	}
	dt, err := s.buildType(in, s.now().UTC())
	if err != nil {
		return nil, err
	}
	for _, existing := range dept.DocumentTypes {
		if strings.EqualFold(existing.Name, dt.Name) {
			return nil, apperr.Newf(apperr.KindConflict, "document type %q already exists in department", dt.Name)
		}
	}
	if err := s.ensurePrefixesFree(ctx, []string{dt.Prefix}); err != nil {
		return nil, err
	}
	dt.DepartmentID = dept.ID
	return s.repo.AddDocumentType(ctx, dept.ID, &dt)
}

func (s *departmentService) DeleteDocumentType(ctx context.Context, departmentID, typeID string, actor model.Actor) error {
	if err := policy.RequireAdmin(actor, "delete document types"); err != nil {
		return err
	}
	if err := s.repo.DeleteDocumentType(ctx, departmentID, typeID); err != nil {
		if apperr.IsKind(err, apperr.KindConflict) {
			return apperr.Wrap(apperr.KindConflict, "document type still has documents", err)
		}
		return err
	}
	return nil
}

// DocumentTypes lists the types of one department in their stored order.
func (s *departmentService) DocumentTypes(ctx context.Context, departmentID string) ([]model.DocumentType, error) {
	dept, err := s.repo.FindByID(ctx, departmentID)
	if err != nil {
		return nil, err
	}
	return dept.DocumentTypes, nil
}

// AllDocumentTypes lists every document type with its department.
func (s *departmentService) AllDocumentTypes(ctx context.Context) ([]model.DocumentTypeWithDepartment, error) {
	return s.repo.ListDocumentTypes(ctx)
}
