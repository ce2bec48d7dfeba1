package repository

import (
	"context"

	"docfiling/internal/model"
)

// AdminRepository stores the admin roster.
type AdminRepository interface {
	List(ctx context.Context) ([]model.Admin, error)
	Create(ctx context.Context, admin *model.Admin) (*model.Admin, error)
	Delete(ctx context.Context, username string) error
	Exists(ctx context.Context, username string) (bool, error)
	// UpsertMany inserts or refreshes admins by username and returns how many rows were written.
	UpsertMany(ctx context.Context, admins []model.Admin) (int64, error)
}
