package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"docfiling/internal/model"
	"docfiling/internal/service"
)

type MockDepartmentService struct {
	mock.Mock
}

var _ service.DepartmentService = (*MockDepartmentService)(nil)

func (m *MockDepartmentService) Create(ctx context.Context, in service.CreateDepartmentInput, actor model.Actor) (*model.Department, error) {
	args := m.Called(ctx, in, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Department), args.Error(1)
}

func (m *MockDepartmentService) List(ctx context.Context, activeOnly bool) ([]model.Department, error) {
	args := m.Called(ctx, activeOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Department), args.Error(1)
}

func (m *MockDepartmentService) Get(ctx context.Context, id string) (*model.Department, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Department), args.Error(1)
}

func (m *MockDepartmentService) GetByName(ctx context.Context, name string) (*model.Department, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Department), args.Error(1)
}

func (m *MockDepartmentService) UpdateStatus(ctx context.Context, names []string, status model.DepartmentStatus, actor model.Actor) (int64, error) {
	args := m.Called(ctx, names, status, actor)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockDepartmentService) Delete(ctx context.Context, id string, actor model.Actor) error {
	args := m.Called(ctx, id, actor)
	return args.Error(0)
}

func (m *MockDepartmentService) AddDocumentType(ctx context.Context, departmentID string, in service.DocumentTypeInput, actor model.Actor) (*model.DocumentType, error) {
	args := m.Called(ctx, departmentID, in, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DocumentType), args.Error(1)
}

func (m *MockDepartmentService) DeleteDocumentType(ctx context.Context, departmentID, typeID string, actor model.Actor) error {
	args := m.Called(ctx, departmentID, typeID, actor)
	return args.Error(0)
}

func (m *MockDepartmentService) DocumentTypes(ctx context.Context, departmentID string) ([]model.DocumentType, error) {
	args := m.Called(ctx, departmentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.DocumentType), args.Error(1)
}

func (m *MockDepartmentService) AllDocumentTypes(ctx context.Context) ([]model.DocumentTypeWithDepartment, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.DocumentTypeWithDepartment), args.Error(1)
}
