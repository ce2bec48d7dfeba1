package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"docfiling/internal/apperr"
	"docfiling/internal/model"
	"docfiling/internal/repository"
)

const (
	departmentColumns   = `id, external_id, name, full_name, status, created_date`
	documentTypeColumns = `id, department_id, external_id, name, prefix, padding, counters, created_date`

	msgDepartmentNotFound = "department not found"
)

// DepartmentPostgres stores departments in one table and their document
// types in a child table ordered by position.
type DepartmentPostgres struct {
	db *sql.DB
}

// NewDepartmentPostgres creates a new DepartmentPostgres repository.
func NewDepartmentPostgres(db *sql.DB) *DepartmentPostgres {
	return &DepartmentPostgres{db: db}
}

var _ repository.DepartmentRepository = (*DepartmentPostgres)(nil)

// execer is the subset of *sql.DB and *sql.Tx used by the insert helpers.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func scanDepartment(s rowScanner) (*model.Department, error) {
	var (
		d          model.Department
		externalID sql.NullInt64
	)
	if err := s.Scan(&d.ID, &externalID, &d.Name, &d.FullName, &d.Status, &d.CreatedDate); err != nil {
		return nil, err
	}
	d.ExternalID = ptrInt64(externalID)
	d.DocumentTypes = []model.DocumentType{}
	return &d, nil
}

func scanDocumentType(s rowScanner, extra ...any) (*model.DocumentType, error) {
	var (
		t          model.DocumentType
		externalID sql.NullInt64
		counters   []byte
	)
	dest := append([]any{&t.ID, &t.DepartmentID, &externalID, &t.Name, &t.Prefix, &t.Padding, &counters, &t.CreatedDate}, extra...)
	if err := s.Scan(dest...); err != nil {
		return nil, err
	}
	t.ExternalID = ptrInt64(externalID)
	t.Counters = map[string]int64{}
	if len(counters) > 0 {
		if err := json.Unmarshal(counters, &t.Counters); err != nil {
			return nil, fmt.Errorf("decode counters of document type %s: %w", t.ID, err)
		}
	}
	return &t, nil
}

func encodeCounters(c map[string]int64) (string, error) {
	if len(c) == 0 {
		return "{}", nil
	}
	b, err := json.Marshal(c)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func insertDocumentType(ctx context.Context, ex execer, departmentID string, t *model.DocumentType, position int) error {
	counters, err := encodeCounters(t.Counters)
	if err != nil {
		return err
	}
	const q = `
		INSERT INTO document_types (id, department_id, external_id, name, prefix, padding, counters, position, created_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb, $8, $9)
	`
	_, err = ex.ExecContext(ctx, q, t.ID, departmentID, nullInt64(t.ExternalID), t.Name, t.Prefix, t.Padding, counters, position, t.CreatedDate)
	return err
}

// Create inserts the department and its document types in one transaction.
func (r *DepartmentPostgres) Create(ctx context.Context, dept *model.Department) (*model.Department, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, translate(err, msgDepartmentNotFound)
	}
	defer tx.Rollback()

	q := `INSERT INTO departments (` + departmentColumns + `) VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := tx.ExecContext(ctx, q, dept.ID, nullInt64(dept.ExternalID), dept.Name, dept.FullName, dept.Status, dept.CreatedDate); err != nil {
		return nil, translate(err, msgDepartmentNotFound)
	}
	for i := range dept.DocumentTypes {
		dept.DocumentTypes[i].DepartmentID = dept.ID
		if err := insertDocumentType(ctx, tx, dept.ID, &dept.DocumentTypes[i], i); err != nil {
			return nil, translate(err, msgDepartmentNotFound)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, translate(err, msgDepartmentNotFound)
	}
	return dept, nil
}

// loadTypes fetches document types for the given department ids, grouped by department.
func (r *DepartmentPostgres) loadTypes(ctx context.Context, departmentIDs []string) (map[string][]model.DocumentType, error) {
	out := make(map[string][]model.DocumentType, len(departmentIDs))
	if len(departmentIDs) == 0 {
		return out, nil
	}
	q := `SELECT ` + documentTypeColumns + ` FROM document_types
		WHERE department_id IN (` + placeholders(1, len(departmentIDs)) + `)
		ORDER BY department_id, position, created_date`
	rows, err := r.db.QueryContext(ctx, q, stringArgs(departmentIDs)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		t, err := scanDocumentType(rows)
		if err != nil {
			return nil, err
		}
		out[t.DepartmentID] = append(out[t.DepartmentID], *t)
	}
	return out, rows.Err()
}

func (r *DepartmentPostgres) queryDepartments(ctx context.Context, q string, args ...any) ([]model.Department, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, translate(err, msgDepartmentNotFound)
	}
	defer rows.Close()

	depts := make([]model.Department, 0)
	ids := make([]string, 0)
	for rows.Next() {
		d, err := scanDepartment(rows)
		if err != nil {
			return nil, err
		}
		depts = append(depts, *d)
		ids = append(ids, d.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, translate(err, msgDepartmentNotFound)
	}

	types, err := r.loadTypes(ctx, ids)
	if err != nil {
		return nil, translate(err, msgDepartmentNotFound)
	}
	for i := range depts {
		if ts, ok := types[depts[i].ID]; ok {
			depts[i].DocumentTypes = ts
		}
	}
	return depts, nil
}

func (r *DepartmentPostgres) List(ctx context.Context, activeOnly bool) ([]model.Department, error) {
	if activeOnly {
		q := `SELECT ` + departmentColumns + ` FROM departments WHERE status = $1 ORDER BY name`
		return r.queryDepartments(ctx, q, model.DepartmentActive)
	}
	return r.queryDepartments(ctx, `SELECT `+departmentColumns+` FROM departments ORDER BY name`)
}

func (r *DepartmentPostgres) findOne(ctx context.Context, where string, arg any) (*model.Department, error) {
	depts, err := r.queryDepartments(ctx, `SELECT `+departmentColumns+` FROM departments WHERE `+where, arg)
	if err != nil {
		return nil, err
	}
	if len(depts) == 0 {
		return nil, apperr.New(apperr.KindNotFound, msgDepartmentNotFound)
	}
	return &depts[0], nil
}

func (r *DepartmentPostgres) FindByID(ctx context.Context, id string) (*model.Department, error) {
	return r.findOne(ctx, "id = $1", id)
}

func (r *DepartmentPostgres) FindByName(ctx context.Context, name string) (*model.Department, error) {
	return r.findOne(ctx, "name = $1", name)
}

func (r *DepartmentPostgres) UpdateStatusByNames(ctx context.Context, names []string, status model.DepartmentStatus) (int64, error) {
	if len(names) == 0 {
		return 0, nil
	}
	q := `UPDATE departments SET status = $1 WHERE name IN (` + placeholders(2, len(names)) + `)`
	res, err := r.db.ExecContext(ctx, q, append([]any{status}, stringArgs(names)...)...)
	if err != nil {
		return 0, translate(err, msgDepartmentNotFound)
	}
	return res.RowsAffected()
}

func (r *DepartmentPostgres) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM departments WHERE id = $1`, id)
	if err != nil {
		return translate(err, msgDepartmentNotFound)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.New(apperr.KindNotFound, msgDepartmentNotFound)
	}
	return nil
}

func (r *DepartmentPostgres) AddDocumentType(ctx context.Context, departmentID string, dt *model.DocumentType) (*model.DocumentType, error) {
	counters, err := encodeCounters(dt.Counters)
	if err != nil {
		return nil, err
	}
	q := `
		INSERT INTO document_types (id, department_id, external_id, name, prefix, padding, counters, position, created_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb,
			COALESCE((SELECT MAX(position) + 1 FROM document_types WHERE department_id = $2), 0), $8)
		RETURNING ` + documentTypeColumns
	out, err := scanDocumentType(r.db.QueryRowContext(ctx, q,
		dt.ID, departmentID, nullInt64(dt.ExternalID), dt.Name, dt.Prefix, dt.Padding, counters, dt.CreatedDate))
	if err != nil {
		return nil, translate(err, msgDepartmentNotFound)
	}
	return out, nil
}

func (r *DepartmentPostgres) DeleteDocumentType(ctx context.Context, departmentID, typeID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM document_types WHERE id = $1 AND department_id = $2`, typeID, departmentID)
	if err != nil {
		return translate(err, msgDocumentTypeNotFound)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.New(apperr.KindNotFound, msgDocumentTypeNotFound)
	}
	return nil
}

func (r *DepartmentPostgres) FindDocumentType(ctx context.Context, departmentID, typeID string) (*model.DocumentType, error) {
	q := `SELECT ` + documentTypeColumns + ` FROM document_types WHERE id = $1 AND department_id = $2`
	t, err := scanDocumentType(r.db.QueryRowContext(ctx, q, typeID, departmentID))
	if err != nil {
		return nil, translate(err, msgDocumentTypeNotFound)
	}
	return t, nil
}

func (r *DepartmentPostgres) ListDocumentTypes(ctx context.Context) ([]model.DocumentTypeWithDepartment, error) {
	const q = `
		SELECT t.id, t.department_id, t.external_id, t.name, t.prefix, t.padding, t.counters, t.created_date,
			d.name, d.status
		FROM document_types t
		JOIN departments d ON d.id = t.department_id
		ORDER BY d.name, t.position, t.created_date
	`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, translate(err, msgDocumentTypeNotFound)
	}
	defer rows.Close()

	out := make([]model.DocumentTypeWithDepartment, 0)
	for rows.Next() {
		var item model.DocumentTypeWithDepartment
		t, err := scanDocumentType(rows, &item.DepartmentName, &item.DepartmentStatus)
		if err != nil {
			return nil, err
		}
		item.DocumentType = *t
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, translate(err, msgDocumentTypeNotFound)
	}
	return out, nil
}

func (r *DepartmentPostgres) PrefixesInUse(ctx context.Context, prefixes []string) ([]string, error) {
	if len(prefixes) == 0 {
		return []string{}, nil
	}
	q := `SELECT prefix FROM document_types WHERE prefix IN (` + placeholders(1, len(prefixes)) + `) ORDER BY prefix`
	rows, err := r.db.QueryContext(ctx, q, stringArgs(prefixes)...)
	if err != nil {
		return nil, translate(err, msgDocumentTypeNotFound)
	}
	defer rows.Close()

	used := make([]string, 0)
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		used = append(used, p)
	}
	return used, rows.Err()
}

// UpsertByExternalID writes the department and every document type in one
// transaction. Existing types keep their internal id; imported counters
// overwrite stored counters year by year.
func (r *DepartmentPostgres) UpsertByExternalID(ctx context.Context, dept *model.Department) (*repository.UpsertResult, error) {
	if dept.ExternalID == nil {
		return nil, apperr.New(apperr.KindInvalidInput, "department external id is required")
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, translate(err, msgDepartmentNotFound)
	}
	defer tx.Rollback()

	const qDept = `
		INSERT INTO departments (id, external_id, name, full_name, status, created_date)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (external_id) DO UPDATE
		SET name = EXCLUDED.name, full_name = EXCLUDED.full_name, status = EXCLUDED.status
		RETURNING id, (xmax = 0)
	`
	res := &repository.UpsertResult{}
	err = tx.QueryRowContext(ctx, qDept, dept.ID, *dept.ExternalID, dept.Name, dept.FullName, dept.Status, dept.CreatedDate).
		Scan(&res.DepartmentID, &res.Created)
	if err != nil {
		return nil, translate(err, msgDepartmentNotFound)
	}

	const qType = `
		INSERT INTO document_types (id, department_id, external_id, name, prefix, padding, counters, position, created_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb, $8, $9)
		ON CONFLICT (external_id) DO UPDATE
		SET department_id = EXCLUDED.department_id,
			name = EXCLUDED.name,
			prefix = EXCLUDED.prefix,
			padding = EXCLUDED.padding,
			counters = document_types.counters || EXCLUDED.counters,
			position = EXCLUDED.position
	`
	for i, t := range dept.DocumentTypes {
		if t.ExternalID == nil {
			return nil, apperr.Newf(apperr.KindInvalidInput, "document type %q has no external id", t.Name)
		}
		counters, err := encodeCounters(t.Counters)
		if err != nil {
			return nil, err
		}
		if _, err := tx.ExecContext(ctx, qType,
			t.ID, res.DepartmentID, *t.ExternalID, t.Name, t.Prefix, t.Padding, counters, i, t.CreatedDate); err != nil {
			return nil, translate(err, msgDepartmentNotFound)
		}
		res.DocumentTypes++
	}

	if err := tx.Commit(); err != nil {
		return nil, translate(err, msgDepartmentNotFound)
	}
	return res, nil
}

func (r *DepartmentPostgres) ResolveExternalTypes(ctx context.Context, externalIDs []int64) (map[int64]model.ExternalTypeRef, error) {
	out := make(map[int64]model.ExternalTypeRef, len(externalIDs))
	if len(externalIDs) == 0 {
		return out, nil
	}
	q := `
		SELECT t.external_id, t.id, d.id, d.external_id
		FROM document_types t
		JOIN departments d ON d.id = t.department_id
		WHERE d.external_id IS NOT NULL AND t.external_id IN (` + placeholders(1, len(externalIDs)) + `)`
	rows, err := r.db.QueryContext(ctx, q, int64Args(externalIDs)...)
	if err != nil {
		return nil, translate(err, msgDocumentTypeNotFound)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			ext int64
			ref model.ExternalTypeRef
		)
		if err := rows.Scan(&ext, &ref.DocumentTypeID, &ref.DepartmentID, &ref.DepartmentExternalID); err != nil {
			return nil, err
		}
		out[ext] = ref
	}
	return out, rows.Err()
}
