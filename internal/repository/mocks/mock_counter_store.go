package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"docfiling/internal/repository"
)

type MockCounterStore struct {
	mock.Mock
}

var _ repository.CounterStore = (*MockCounterStore)(nil)

func (m *MockCounterStore) Increment(ctx context.Context, key repository.CounterKey) (int64, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCounterStore) Decrement(ctx context.Context, key repository.CounterKey, prefix string, expected int64) (bool, error) {
	args := m.Called(ctx, key, prefix, expected)
	return args.Bool(0), args.Error(1)
}

func (m *MockCounterStore) Read(ctx context.Context, key repository.CounterKey) (int64, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(int64), args.Error(1)
}
