package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"docfiling/internal/attachment"
	"docfiling/internal/model"
	"docfiling/internal/service"
)

type MockDocumentService struct {
	mock.Mock
}

var _ service.DocumentService = (*MockDocumentService)(nil)

func (m *MockDocumentService) Create(ctx context.Context, in service.CreateDocumentInput, actor model.Actor) (*model.Document, error) {
	args := m.Called(ctx, in, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentService) Get(ctx context.Context, id string) (*model.Document, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentService) List(ctx context.Context) ([]model.Document, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Document), args.Error(1)
}

func (m *MockDocumentService) Search(ctx context.Context, p service.SearchParams) (*service.DocumentPage, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.DocumentPage), args.Error(1)
}

func (m *MockDocumentService) FindByTitle(ctx context.Context, title string) ([]model.Document, error) {
	args := m.Called(ctx, title)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Document), args.Error(1)
}

func (m *MockDocumentService) Update(ctx context.Context, id string, patch model.DocumentPatch, actor model.Actor, upload *attachment.Upload) (*model.Document, error) {
	args := m.Called(ctx, id, patch, actor, upload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentService) Delete(ctx context.Context, id string, actor model.Actor) error {
	args := m.Called(ctx, id, actor)
	return args.Error(0)
}

func (m *MockDocumentService) BulkDelete(ctx context.Context, ids []string, actor model.Actor) (*service.BulkResult, error) {
	args := m.Called(ctx, ids, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.BulkResult), args.Error(1)
}

func (m *MockDocumentService) BulkUpdateStatus(ctx context.Context, ids []string, status model.Status, actor model.Actor) (*service.BulkResult, error) {
	args := m.Called(ctx, ids, status, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.BulkResult), args.Error(1)
}

func (m *MockDocumentService) CountByStatus(ctx context.Context, departmentID string) (map[model.Status]int64, error) {
	args := m.Called(ctx, departmentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[model.Status]int64), args.Error(1)
}

func (m *MockDocumentService) OpenAttachment(ctx context.Context, id string, actor model.Actor) (*attachment.Object, error) {
	args := m.Called(ctx, id, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*attachment.Object), args.Error(1)
}

func (m *MockDocumentService) AttachmentURL(ctx context.Context, id string, actor model.Actor) (string, time.Duration, error) {
	args := m.Called(ctx, id, actor)
	return args.String(0), args.Get(1).(time.Duration), args.Error(2)
}
