package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"docfiling/internal/model"
	"docfiling/internal/repository"
)

type MockAdminRepository struct {
	mock.Mock
}

var _ repository.AdminRepository = (*MockAdminRepository)(nil)

func (m *MockAdminRepository) List(ctx context.Context) ([]model.Admin, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Admin), args.Error(1)
}

func (m *MockAdminRepository) Create(ctx context.Context, admin *model.Admin) (*model.Admin, error) {
	args := m.Called(ctx, admin)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Admin), args.Error(1)
}

func (m *MockAdminRepository) Delete(ctx context.Context, username string) error {
	return m.Called(ctx, username).Error(0)
}

func (m *MockAdminRepository) Exists(ctx context.Context, username string) (bool, error) {
	args := m.Called(ctx, username)
	return args.Bool(0), args.Error(1)
}

func (m *MockAdminRepository) UpsertMany(ctx context.Context, admins []model.Admin) (int64, error) {
	args := m.Called(ctx, admins)
	return args.Get(0).(int64), args.Error(1)
}
