package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"docfiling/internal/model"
	"docfiling/internal/repository"
)

type MockDepartmentRepository struct {
	mock.Mock
}

var _ repository.DepartmentRepository = (*MockDepartmentRepository)(nil)

func (m *MockDepartmentRepository) Create(ctx context.Context, dept *model.Department) (*model.Department, error) {
	args := m.Called(ctx, dept)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Department), args.Error(1)
}

func (m *MockDepartmentRepository) List(ctx context.Context, activeOnly bool) ([]model.Department, error) {
	args := m.Called(ctx, activeOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Department), args.Error(1)
}

func (m *MockDepartmentRepository) FindByID(ctx context.Context, id string) (*model.Department, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Department), args.Error(1)
}

func (m *MockDepartmentRepository) FindByName(ctx context.Context, name string) (*model.Department, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Department), args.Error(1)
}

func (m *MockDepartmentRepository) UpdateStatusByNames(ctx context.Context, names []string, status model.DepartmentStatus) (int64, error) {
	args := m.Called(ctx, names, status)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockDepartmentRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockDepartmentRepository) AddDocumentType(ctx context.Context, departmentID string, dt *model.DocumentType) (*model.DocumentType, error) {
	args := m.Called(ctx, departmentID, dt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DocumentType), args.Error(1)
}

func (m *MockDepartmentRepository) DeleteDocumentType(ctx context.Context, departmentID, typeID string) error {
	return m.Called(ctx, departmentID, typeID).Error(0)
}

func (m *MockDepartmentRepository) FindDocumentType(ctx context.Context, departmentID, typeID string) (*model.DocumentType, error) {
	args := m.Called(ctx, departmentID, typeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DocumentType), args.Error(1)
}

func (m *MockDepartmentRepository) ListDocumentTypes(ctx context.Context) ([]model.DocumentTypeWithDepartment, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.DocumentTypeWithDepartment), args.Error(1)
}

func (m *MockDepartmentRepository) PrefixesInUse(ctx context.Context, prefixes []string) ([]string, error) {
	args := m.Called(ctx, prefixes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockDepartmentRepository) UpsertByExternalID(ctx context.Context, dept *model.Department) (*repository.UpsertResult, error) {
	args := m.Called(ctx, dept)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.UpsertResult), args.Error(1)
}

func (m *MockDepartmentRepository) ResolveExternalTypes(ctx context.Context, externalIDs []int64) (map[int64]model.ExternalTypeRef, error) {
	args := m.Called(ctx, externalIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[int64]model.ExternalTypeRef), args.Error(1)
}
