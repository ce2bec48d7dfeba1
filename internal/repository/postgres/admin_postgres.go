package postgres

import (
	"context"
	"database/sql"
	"strings"

	"docfiling/internal/apperr"
	"docfiling/internal/model"
	"docfiling/internal/repository"
)

const (
	adminColumns = `id, username, full_name, created_date`
	adminFields  = 4

	msgAdminNotFound = "admin not found"
)

type AdminPostgres struct {
	db *sql.DB
}

func NewAdminPostgres(db *sql.DB) *AdminPostgres {
	return &AdminPostgres{db: db}
}

var _ repository.AdminRepository = (*AdminPostgres)(nil)

func (r *AdminPostgres) List(ctx context.Context) ([]model.Admin, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+adminColumns+` FROM admins ORDER BY username`)
	if err != nil {
		return nil, translate(err, msgAdminNotFound)
	}
	defer rows.Close()

	out := make([]model.Admin, 0)
	for rows.Next() {
		var a model.Admin
		if err := rows.Scan(&a.ID, &a.Username, &a.FullName, &a.CreatedDate); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, translate(err, msgAdminNotFound)
	}
	return out, nil
}

func (r *AdminPostgres) Create(ctx context.Context, admin *model.Admin) (*model.Admin, error) {
	q := `INSERT INTO admins (` + adminColumns + `) VALUES ($1, $2, $3, $4) RETURNING ` + adminColumns
	var out model.Admin
	err := r.db.QueryRowContext(ctx, q, admin.ID, admin.Username, admin.FullName, admin.CreatedDate).
		Scan(&out.ID, &out.Username, &out.FullName, &out.CreatedDate)
	if err != nil {
		return nil, translate(err, msgAdminNotFound)
	}
	return &out, nil
}

func (r *AdminPostgres) Delete(ctx context.Context, username string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM admins WHERE username = $1`, username)
	if err != nil {
		return translate(err, msgAdminNotFound)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.New(apperr.KindNotFound, msgAdminNotFound)
	}
	return nil
}

func (r *AdminPostgres) Exists(ctx context.Context, username string) (bool, error) {
	var ok bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM admins WHERE username = $1)`, username).Scan(&ok)
	if err != nil {
		return false, translate(err, msgAdminNotFound)
	}
	return ok, nil
}

// UpsertMany writes every admin in one statement. Existing usernames keep
// their id and creation date; a non-empty full_name replaces the stored one.
func (r *AdminPostgres) UpsertMany(ctx context.Context, admins []model.Admin) (int64, error) {
	if len(admins) == 0 {
		return 0, nil
	}
	values := make([]string, len(admins))
	args := make([]any, 0, len(admins)*adminFields)
	for i, a := range admins {
		values[i] = "(" + placeholders(i*adminFields+1, adminFields) + ")"
		args = append(args, a.ID, a.Username, a.FullName, a.CreatedDate)
	}
	q := `INSERT INTO admins (` + adminColumns + `) VALUES ` + strings.Join(values, ", ") +
		` ON CONFLICT (username) DO UPDATE SET full_name = COALESCE(NULLIF(EXCLUDED.full_name, ''), admins.full_name)`

	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, translate(err, msgAdminNotFound)
	}
	return res.RowsAffected()
}
