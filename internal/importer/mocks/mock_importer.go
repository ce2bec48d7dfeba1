package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"docfiling/internal/importer"
)

// MockImporter stands in for *importer.Importer in handler tests.
type MockImporter struct {
	mock.Mock
}

func (m *MockImporter) ImportDepartments(ctx context.Context, departments, documentTypes, generatedIDs importer.Source) (*importer.DepartmentReport, error) {
	args := m.Called(ctx, departments.Name, documentTypes.Name, generatedIDs.Name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*importer.DepartmentReport), args.Error(1)
}

func (m *MockImporter) ImportDocuments(ctx context.Context, src importer.Source) (*importer.DocumentReport, error) {
	args := m.Called(ctx, src.Name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*importer.DocumentReport), args.Error(1)
}

func (m *MockImporter) ImportAdmins(ctx context.Context, src importer.Source) (*importer.AdminReport, error) {
	args := m.Called(ctx, src.Name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*importer.AdminReport), args.Error(1)
}
