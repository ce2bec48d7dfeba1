package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"docfiling/internal/model"
	"docfiling/internal/repository"
)

type MockDocumentRepository struct {
	mock.Mock
}

var _ repository.DocumentRepository = (*MockDocumentRepository)(nil)

func (m *MockDocumentRepository) Create(ctx context.Context, doc *model.Document) (*model.Document, error) {
	args := m.Called(ctx, doc)
	if f, ok := args.Get(0).(func(context.Context, *model.Document) *model.Document); ok {
		return f(ctx, doc), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentRepository) FindByID(ctx context.Context, id string) (*model.Document, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentRepository) FindByIDs(ctx context.Context, ids []string) ([]model.Document, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Document), args.Error(1)
}

func (m *MockDocumentRepository) FindByTitle(ctx context.Context, title string) ([]model.Document, error) {
	args := m.Called(ctx, title)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Document), args.Error(1)
}

func (m *MockDocumentRepository) ListAll(ctx context.Context) ([]model.Document, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Document), args.Error(1)
}

func (m *MockDocumentRepository) Search(ctx context.Context, q repository.DocumentQuery) (*repository.PageResult[model.Document], error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PageResult[model.Document]), args.Error(1)
}

func (m *MockDocumentRepository) Update(ctx context.Context, id string, changes model.DocumentChanges, owner string) (*model.Document, error) {
	args := m.Called(ctx, id, changes, owner)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentRepository) UpdateMany(ctx context.Context, ids []string, changes model.DocumentChanges) (int64, error) {
	args := m.Called(ctx, ids, changes)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockDocumentRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockDocumentRepository) DeleteMany(ctx context.Context, ids []string) (int64, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockDocumentRepository) ExistsByRefNo(ctx context.Context, refNo string) (bool, error) {
	args := m.Called(ctx, refNo)
	return args.Bool(0), args.Error(1)
}

func (m *MockDocumentRepository) CountByStatus(ctx context.Context, departmentID string) (map[model.Status]int64, error) {
	args := m.Called(ctx, departmentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[model.Status]int64), args.Error(1)
}

func (m *MockDocumentRepository) InsertMany(ctx context.Context, docs []model.Document) (int64, error) {
	args := m.Called(ctx, docs)
	return args.Get(0).(int64), args.Error(1)
}
