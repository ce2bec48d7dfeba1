package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"docfiling/internal/model"
	"docfiling/internal/service"
)

type MockAdminService struct {
	mock.Mock
}

var _ service.AdminService = (*MockAdminService)(nil)

func (m *MockAdminService) IsAdmin(ctx context.Context, username string) (bool, error) {
	args := m.Called(ctx, username)
	return args.Bool(0), args.Error(1)
}

func (m *MockAdminService) Purge() {
	m.Called()
}

func (m *MockAdminService) List(ctx context.Context, actor model.Actor) ([]model.Admin, error) {
	args := m.Called(ctx, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Admin), args.Error(1)
}

func (m *MockAdminService) Create(ctx context.Context, username, fullName string, actor model.Actor) (*model.Admin, error) {
	args := m.Called(ctx, username, fullName, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Admin), args.Error(1)
}

func (m *MockAdminService) Delete(ctx context.Context, username string, actor model.Actor) error {
	args := m.Called(ctx, username, actor)
	return args.Error(0)
}

func (m *MockAdminService) Seed(ctx context.Context, usernames []string) error {
	args := m.Called(ctx, usernames)
	return args.Error(0)
}
