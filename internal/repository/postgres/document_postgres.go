package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"docfiling/internal/apperr"
	"docfiling/internal/model"
	"docfiling/internal/repository"
)

// documentColumnCount is the number of columns written per inserted document.
const documentColumnCount = 16

// maxInsertRows keeps a multi-row insert under PostgreSQL's 65535 parameter limit.
const maxInsertRows = 65535 / documentColumnCount

const documentColumns = `id, external_id, ref_no, title, department_id, document_type_id, created_by,
		created_date, status, filed_by, filed_date, file_id, file_path, file_content_type, file_name, file_size`

const msgDocumentNotFound = "document not found"

// sortColumns maps the public sort fields onto columns. Only these values ever
// reach ORDER BY.
var sortColumns = map[string]string{
	repository.SortCreatedDate: "created_date",
	repository.SortTitle:       "title",
	repository.SortRefNo:       "ref_no",
	repository.SortStatus:      "status",
	repository.SortCreatedBy:   "created_by",
	repository.SortFiledDate:   "filed_date",
	repository.SortFiledBy:     "filed_by",
}

// DocumentPostgres is a PostgreSQL implementation of repository.DocumentRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type DocumentPostgres struct {
	db *sql.DB
}

// NewDocumentPostgres creates a new DocumentPostgres repository.
func NewDocumentPostgres(db *sql.DB) *DocumentPostgres {
	return &DocumentPostgres{db: db}
}

var _ repository.DocumentRepository = (*DocumentPostgres)(nil)

func scanDocument(s rowScanner) (*model.Document, error) {
	var (
		d                                   model.Document
		externalID, fileSize                sql.NullInt64
		filedBy, fileID, filePath, fileType sql.NullString
		fileName                            sql.NullString
		filedDate                           sql.NullTime
		status                              string
	)
	if err := s.Scan(
		&d.ID,
		&externalID,
		&d.RefNo,
		&d.Title,
		&d.DepartmentID,
		&d.DocumentTypeID,
		&d.CreatedBy,
		&d.CreatedDate,
		&status,
		&filedBy,
		&filedDate,
		&fileID,
		&filePath,
		&fileType,
		&fileName,
		&fileSize,
	); err != nil {
		return nil, err
	}
	d.ExternalID = ptrInt64(externalID)
	d.Status = model.Status(status)
	d.FiledBy = ptrString(filedBy)
	if filedDate.Valid {
		t := filedDate.Time
		d.FiledDate = &t
	}
	if fileID.Valid {
		d.Attachment = &model.AttachmentRef{
			FileID:      fileID.String,
			Path:        filePath.String,
			ContentType: fileType.String,
			Filename:    fileName.String,
			Size:        fileSize.Int64,
		}
	}
	return &d, nil
}

func scanDocuments(rows *sql.Rows) ([]model.Document, error) {
	defer rows.Close()
	items := make([]model.Document, 0)
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func documentArgs(d *model.Document) []any {
	var filedDate sql.NullTime
	if d.FiledDate != nil {
		filedDate = sql.NullTime{Time: *d.FiledDate, Valid: true}
	}
	var fileID, filePath, fileType, fileName sql.NullString
	var fileSize sql.NullInt64
	if a := d.Attachment; a != nil {
		fileID = sql.NullString{String: a.FileID, Valid: true}
		filePath = sql.NullString{String: a.Path, Valid: true}
		fileType = sql.NullString{String: a.ContentType, Valid: true}
		fileName = sql.NullString{String: a.Filename, Valid: true}
		fileSize = sql.NullInt64{Int64: a.Size, Valid: true}
	}
	return []any{
		d.ID,
		nullInt64(d.ExternalID),
		d.RefNo,
		d.Title,
		d.DepartmentID,
		d.DocumentTypeID,
		d.CreatedBy,
		d.CreatedDate,
		string(d.Status),
		nullString(d.FiledBy),
		filedDate,
		fileID,
		filePath,
		fileType,
		fileName,
		fileSize,
	}
}

// Create inserts a new document row and returns the stored record.
func (r *DocumentPostgres) Create(ctx context.Context, doc *model.Document) (*model.Document, error) {
	q := `INSERT INTO documents (` + documentColumns + `)
		VALUES (` + placeholders(1, documentColumnCount) + `)
		RETURNING ` + documentColumns
	out, err := scanDocument(r.db.QueryRowContext(ctx, q, documentArgs(doc)...))
	if err != nil {
		return nil, translate(err, msgDocumentNotFound)
	}
	return out, nil
}

// FindByID fetches a single document by its ID.
func (r *DocumentPostgres) FindByID(ctx context.Context, id string) (*model.Document, error) {
	q := `SELECT ` + documentColumns + ` FROM documents WHERE id = $1`
	d, err := scanDocument(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		return nil, translate(err, msgDocumentNotFound)
	}
	return d, nil
}

func (r *DocumentPostgres) FindByIDs(ctx context.Context, ids []string) ([]model.Document, error) {
	if len(ids) == 0 {
		return []model.Document{}, nil
	}
	q := `SELECT ` + documentColumns + ` FROM documents WHERE id IN (` + placeholders(1, len(ids)) + `)`
	rows, err := r.db.QueryContext(ctx, q, stringArgs(ids)...)
	if err != nil {
		return nil, translate(err, msgDocumentNotFound)
	}
	items, err := scanDocuments(rows)
	return items, translate(err, msgDocumentNotFound)
}

func (r *DocumentPostgres) FindByTitle(ctx context.Context, title string) ([]model.Document, error) {
	q := `SELECT ` + documentColumns + ` FROM documents WHERE lower(title) = lower($1) ORDER BY created_date DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, q, title)
	if err != nil {
		return nil, translate(err, msgDocumentNotFound)
	}
	items, err := scanDocuments(rows)
	return items, translate(err, msgDocumentNotFound)
}

func (r *DocumentPostgres) ListAll(ctx context.Context) ([]model.Document, error) {
	q := `SELECT ` + documentColumns + ` FROM documents ORDER BY created_date DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, translate(err, msgDocumentNotFound)
	}
	items, err := scanDocuments(rows)
	return items, translate(err, msgDocumentNotFound)
}

// escapeLike quotes the LIKE metacharacters of s for use with ESCAPE '\'.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// documentFilter renders the WHERE clause for q and its arguments.
func documentFilter(q repository.DocumentQuery) (string, []any) {
	var (
		conds []string
		args  []any
	)
	next := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if q.Search != "" {
		p := next("%" + escapeLike(q.Search) + "%")
		or := []string{
			"title ILIKE " + p + ` ESCAPE '\'`,
			"ref_no ILIKE " + p + ` ESCAPE '\'`,
			"created_by ILIKE " + p + ` ESCAPE '\'`,
		}
		if q.SearchDate != nil {
			d := next(q.SearchDate.Format(time.DateOnly))
			or = append(or, "created_date::date = "+d+"::date", "filed_date::date = "+d+"::date")
		}
		conds = append(conds, "("+strings.Join(or, " OR ")+")")
	}
	if q.Status != nil {
		conds = append(conds, "status = "+next(string(*q.Status)))
	}
	if q.DepartmentID != "" {
		conds = append(conds, "department_id = "+next(q.DepartmentID))
	}
	if q.DocumentTypeID != "" {
		conds = append(conds, "document_type_id = "+next(q.DocumentTypeID))
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// Search returns documents using LIMIT/OFFSET pagination and a total count.
func (r *DocumentPostgres) Search(ctx context.Context, dq repository.DocumentQuery) (*repository.PageResult[model.Document], error) {
	where, args := documentFilter(dq)

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`+where, args...).Scan(&total); err != nil {
		return nil, translate(err, msgDocumentNotFound)
	}

	col, ok := sortColumns[dq.SortField]
	if !ok {
		col = "created_date"
	}
	dir := "ASC"
	if dq.SortDesc {
		dir = "DESC"
	}

	n := len(args)
	q := fmt.Sprintf(`SELECT %s FROM documents%s ORDER BY %s %s NULLS LAST, id %s LIMIT $%d OFFSET $%d`,
		documentColumns, where, col, dir, dir, n+1, n+2)
	rows, err := r.db.QueryContext(ctx, q, append(args, dq.Page.Limit, dq.Page.Offset)...)
	if err != nil {
		return nil, translate(err, msgDocumentNotFound)
	}
	items, err := scanDocuments(rows)
	if err != nil {
		return nil, translate(err, msgDocumentNotFound)
	}

	return &repository.PageResult[model.Document]{
		Items: items,
		Total: total,
	}, nil
}

// setClause renders the SET list for changes, numbering parameters after the
// ones already in args.
func setClause(ch model.DocumentChanges, args []any) (string, []any) {
	var sets []string
	add := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, col+" = $"+strconv.Itoa(len(args)))
	}

	if ch.Title != nil {
		add("title", *ch.Title)
	}
	if ch.DepartmentID != nil {
		add("department_id", *ch.DepartmentID)
	}
	if ch.DocumentTypeID != nil {
		add("document_type_id", *ch.DocumentTypeID)
	}
	if ch.Status != nil {
		add("status", string(*ch.Status))
	}
	if ch.CreatedBy != nil {
		add("created_by", *ch.CreatedBy)
	}
	if ch.CreatedDate != nil {
		add("created_date", *ch.CreatedDate)
	}
	if ch.FiledBy.Set {
		add("filed_by", nullString(ch.FiledBy.Value))
	}
	if ch.FiledDate.Set {
		var v sql.NullTime
		if ch.FiledDate.Value != nil {
			v = sql.NullTime{Time: *ch.FiledDate.Value, Valid: true}
		}
		add("filed_date", v)
	}
	if ch.Attachment.Set {
		if a := ch.Attachment.Value; a != nil {
			add("file_id", a.FileID)
			add("file_path", a.Path)
			add("file_content_type", a.ContentType)
			add("file_name", a.Filename)
			add("file_size", a.Size)
		} else {
			sets = append(sets, "file_id = NULL", "file_path = NULL", "file_content_type = NULL", "file_name = NULL", "file_size = NULL")
		}
	}
	return strings.Join(sets, ", "), args
}

func (r *DocumentPostgres) Update(ctx context.Context, id string, changes model.DocumentChanges, owner string) (*model.Document, error) {
	set, args := setClause(changes, []any{id})
	if set == "" {
		return nil, apperr.New(apperr.KindInvalidInput, "no changes to apply")
	}
	q := `UPDATE documents SET ` + set + ` WHERE id = $1`
	if owner != "" {
		args = append(args, owner)
		q += ` AND created_by = $` + strconv.Itoa(len(args))
	}
	q += ` RETURNING ` + documentColumns

	d, err := scanDocument(r.db.QueryRowContext(ctx, q, args...))
	if err != nil {
		return nil, translate(err, msgDocumentNotFound)
	}
	return d, nil
}

func (r *DocumentPostgres) UpdateMany(ctx context.Context, ids []string, changes model.DocumentChanges) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	set, args := setClause(changes, nil)
	if set == "" {
		return 0, apperr.New(apperr.KindInvalidInput, "no changes to apply")
	}
	q := `UPDATE documents SET ` + set + ` WHERE id IN (` + placeholders(len(args)+1, len(ids)) + `)`
	res, err := r.db.ExecContext(ctx, q, append(args, stringArgs(ids)...)...)
	if err != nil {
		return 0, translate(err, msgDocumentNotFound)
	}
	return res.RowsAffected()
}

// Delete removes a document by ID. A missing row is reported as not found.
func (r *DocumentPostgres) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return translate(err, msgDocumentNotFound)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.New(apperr.KindNotFound, msgDocumentNotFound)
	}
	return nil
}

func (r *DocumentPostgres) DeleteMany(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	q := `DELETE FROM documents WHERE id IN (` + placeholders(1, len(ids)) + `)`
	res, err := r.db.ExecContext(ctx, q, stringArgs(ids)...)
	if err != nil {
		return 0, translate(err, msgDocumentNotFound)
	}
	return res.RowsAffected()
}

func (r *DocumentPostgres) ExistsByRefNo(ctx context.Context, refNo string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM documents WHERE ref_no = $1)`, refNo).Scan(&exists)
	if err != nil {
		return false, translate(err, msgDocumentNotFound)
	}
	return exists, nil
}

func (r *DocumentPostgres) CountByStatus(ctx context.Context, departmentID string) (map[model.Status]int64, error) {
	const q = `SELECT status, COUNT(*) FROM documents WHERE department_id = $1 GROUP BY status`
	rows, err := r.db.QueryContext(ctx, q, departmentID)
	if err != nil {
		return nil, translate(err, msgDocumentNotFound)
	}
	defer rows.Close()

	counts := make(map[model.Status]int64, len(model.Statuses))
	for _, s := range model.Statuses {
		counts[s] = 0
	}
	for rows.Next() {
		var (
			status string
			n      int64
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[model.Status(status)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, translate(err, msgDocumentNotFound)
	}
	return counts, nil
}

func (r *DocumentPostgres) InsertMany(ctx context.Context, docs []model.Document) (int64, error) {
	var inserted int64
	for start := 0; start < len(docs); start += maxInsertRows {
		end := min(start+maxInsertRows, len(docs))
		batch := docs[start:end]

		values := make([]string, len(batch))
		args := make([]any, 0, len(batch)*documentColumnCount)
		for i := range batch {
			values[i] = "(" + placeholders(i*documentColumnCount+1, documentColumnCount) + ")"
			args = append(args, documentArgs(&batch[i])...)
		}
		q := `INSERT INTO documents (` + documentColumns + `) VALUES ` + strings.Join(values, ", ") +
			` ON CONFLICT (ref_no) DO NOTHING`

		res, err := r.db.ExecContext(ctx, q, args...)
		if err != nil {
			return inserted, translate(err, msgDocumentNotFound)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return inserted, err
		}
		inserted += n
	}
	return inserted, nil
}
