package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docfiling/internal/apperr"
	"docfiling/internal/model"
	"docfiling/internal/repository"
)

var documentRowColumns = []string{
	"id", "external_id", "ref_no", "title", "department_id", "document_type_id", "created_by",
	"created_date", "status", "filed_by", "filed_date", "file_id", "file_path", "file_content_type", "file_name", "file_size",
}

func anyArgs(n int) []driver.Value {
	out := make([]driver.Value, n)
	for i := range out {
		out[i] = sqlmock.AnyArg()
	}
	return out
}

func documentRows(docs ...model.Document) *sqlmock.Rows {
	rows := sqlmock.NewRows(documentRowColumns)
	for _, d := range docs {
		var fileID, filePath, fileType, fileName, fileSize any
		if a := d.Attachment; a != nil {
			fileID, filePath, fileType, fileName, fileSize = a.FileID, a.Path, a.ContentType, a.Filename, a.Size
		}
		var filedBy, filedDate any
		if d.FiledBy != nil {
			filedBy = *d.FiledBy
		}
		if d.FiledDate != nil {
			filedDate = *d.FiledDate
		}
		var externalID any
		if d.ExternalID != nil {
			externalID = *d.ExternalID
		}
		rows.AddRow(d.ID, externalID, d.RefNo, d.Title, d.DepartmentID, d.DocumentTypeID, d.CreatedBy,
			d.CreatedDate, string(d.Status), filedBy, filedDate, fileID, filePath, fileType, fileName, fileSize)
	}
	return rows
}

func sampleDocument() model.Document {
	return model.Document{
		ID:             "doc-1",
		RefNo:          "INV/0001/25",
		Title:          "Quarterly invoice",
		DepartmentID:   "dept-1",
		DocumentTypeID: "type-1",
		CreatedBy:      "alice",
		CreatedDate:    time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
		Status:         model.StatusNotFiled,
	}
}

func TestDocumentPostgres_Create(t *testing.T) {
	db, mock := newMock(t)
	repo := NewDocumentPostgres(db)

	doc := sampleDocument()
	doc.Attachment = &model.AttachmentRef{FileID: "f1", Path: "documents/dept-1/2025/x.pdf", ContentType: "application/pdf", Filename: "x.pdf", Size: 42}

	mock.ExpectQuery("INSERT INTO documents").
		WithArgs(anyArgs(documentColumnCount)...).
		WillReturnRows(documentRows(doc))

	got, err := repo.Create(context.Background(), &doc)

	require.NoError(t, err)
	assert.Equal(t, "INV/0001/25", got.RefNo)
	require.NotNil(t, got.Attachment)
	assert.Equal(t, int64(42), got.Attachment.Size)
	assert.Nil(t, got.FiledBy)
}

func TestDocumentPostgres_FindByID(t *testing.T) {
	db, mock := newMock(t)
	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		doc := sampleDocument()
		by := "bob"
		at := doc.CreatedDate.Add(time.Hour)
		doc.Status, doc.FiledBy, doc.FiledDate = model.StatusFiled, &by, &at

		mock.ExpectQuery("SELECT (.+) FROM documents WHERE id = ").
			WithArgs("doc-1").
			WillReturnRows(documentRows(doc))

		got, err := repo.FindByID(ctx, "doc-1")

		require.NoError(t, err)
		assert.Equal(t, model.StatusFiled, got.Status)
		require.NotNil(t, got.FiledBy)
		assert.Equal(t, "bob", *got.FiledBy)
		assert.Nil(t, got.Attachment)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM documents WHERE id = ").
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)

		got, err := repo.FindByID(ctx, "missing")

		assert.Nil(t, got)
		assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
		assert.Equal(t, "document not found", apperr.MessageOf(err))
	})
}

func TestDocumentPostgres_FindByIDs(t *testing.T) {
	db, mock := newMock(t)
	repo := NewDocumentPostgres(db)

	got, err := repo.FindByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, got)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE id IN ($1, $2)")).
		WithArgs("doc-1", "doc-2").
		WillReturnRows(documentRows(sampleDocument()))

	got, err = repo.FindByIDs(context.Background(), []string{"doc-1", "doc-2"})
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestDocumentFilter(t *testing.T) {
	filed := model.StatusFiled
	day := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		query repository.DocumentQuery
		where string
		args  []any
	}{
		{name: "empty", where: "", args: nil},
		{
			name:  "search escapes wildcards",
			query: repository.DocumentQuery{Search: "50%_off"},
			where: ` WHERE (title ILIKE $1 ESCAPE '\' OR ref_no ILIKE $1 ESCAPE '\' OR created_by ILIKE $1 ESCAPE '\')`,
			args:  []any{`%50\%\_off%`},
		},
		{
			name:  "search with date and filters",
			query: repository.DocumentQuery{Search: "2025-01-15", SearchDate: &day, Status: &filed, DepartmentID: "d1", DocumentTypeID: "t1"},
			where: ` WHERE (title ILIKE $1 ESCAPE '\' OR ref_no ILIKE $1 ESCAPE '\' OR created_by ILIKE $1 ESCAPE '\'` +
				` OR created_date::date = $2::date OR filed_date::date = $2::date)` +
				` AND status = $3 AND department_id = $4 AND document_type_id = $5`,
			args: []any{"%2025-01-15%", "2025-01-15", "Filed", "d1", "t1"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			where, args := documentFilter(tt.query)
			assert.Equal(t, tt.where, where)
			assert.Equal(t, tt.args, args)
		})
	}
}

func TestDocumentPostgres_Search(t *testing.T) {
	db, mock := newMock(t)
	repo := NewDocumentPostgres(db)

	status := model.StatusNotFiled
	q := repository.DocumentQuery{
		Search:    "invoice",
		Status:    &status,
		SortField: repository.SortTitle,
		Page:      repository.PageQuery{Limit: 10, Offset: 20},
	}

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM documents WHERE")).
		WithArgs("%invoice%", "Not Filed").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(21))
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY title ASC NULLS LAST, id ASC LIMIT $3 OFFSET $4")).
		WithArgs("%invoice%", "Not Filed", 10, 20).
		WillReturnRows(documentRows(sampleDocument()))

	res, err := repo.Search(context.Background(), q)

	require.NoError(t, err)
	assert.Equal(t, 21, res.Total)
	assert.Len(t, res.Items, 1)
}

func TestDocumentPostgres_SearchUnknownSortFallsBack(t *testing.T) {
	db, mock := newMock(t)
	repo := NewDocumentPostgres(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM documents")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY created_date DESC NULLS LAST, id DESC LIMIT $1 OFFSET $2")).
		WithArgs(10, 0).
		WillReturnRows(sqlmock.NewRows(documentRowColumns))

	res, err := repo.Search(context.Background(), repository.DocumentQuery{
		SortField: "title; DROP TABLE documents",
		SortDesc:  true,
		Page:      repository.PageQuery{Limit: 10},
	})

	require.NoError(t, err)
	assert.Empty(t, res.Items)
}

func TestSetClause(t *testing.T) {
	title := "New"
	set, args := setClause(model.DocumentChanges{
		Title:      &title,
		FiledBy:    model.Clear[string](),
		Attachment: model.Clear[model.AttachmentRef](),
	}, []any{"doc-1"})

	assert.Equal(t, "title = $2, filed_by = $3, file_id = NULL, file_path = NULL, file_content_type = NULL, file_name = NULL, file_size = NULL", set)
	assert.Equal(t, []any{"doc-1", "New", sql.NullString{}}, args)
}

func TestDocumentPostgres_Update(t *testing.T) {
	db, mock := newMock(t)
	repo := NewDocumentPostgres(db)
	ctx := context.Background()
	title := "Renamed"

	t.Run("owner constrained", func(t *testing.T) {
		doc := sampleDocument()
		doc.Title = title
		mock.ExpectQuery(regexp.QuoteMeta("UPDATE documents SET title = $2 WHERE id = $1 AND created_by = $3 RETURNING")).
			WithArgs("doc-1", "Renamed", "alice").
			WillReturnRows(documentRows(doc))

		got, err := repo.Update(ctx, "doc-1", model.DocumentChanges{Title: &title}, "alice")

		require.NoError(t, err)
		assert.Equal(t, "Renamed", got.Title)
	})

	t.Run("no matching row", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("UPDATE documents SET title = $2 WHERE id = $1 AND created_by = $3")).
			WithArgs("doc-1", "Renamed", "mallory").
			WillReturnError(sql.ErrNoRows)

		_, err := repo.Update(ctx, "doc-1", model.DocumentChanges{Title: &title}, "mallory")

		assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
	})

	t.Run("empty changes", func(t *testing.T) {
		_, err := repo.Update(ctx, "doc-1", model.DocumentChanges{}, "")

		assert.True(t, apperr.IsKind(err, apperr.KindInvalidInput))
	})
}

func TestDocumentPostgres_UpdateMany(t *testing.T) {
	db, mock := newMock(t)
	repo := NewDocumentPostgres(db)
	status := model.StatusSuspended

	mock.ExpectExec(regexp.QuoteMeta("UPDATE documents SET status = $1, filed_by = $2, filed_date = $3 WHERE id IN ($4, $5)")).
		WithArgs("Suspended", sqlmock.AnyArg(), sqlmock.AnyArg(), "doc-1", "doc-2").
		WillReturnResult(sqlmock.NewResult(0, 2))

	n, err := repo.UpdateMany(context.Background(), []string{"doc-1", "doc-2"}, model.DocumentChanges{
		Status:    &status,
		FiledBy:   model.Clear[string](),
		FiledDate: model.Clear[time.Time](),
	})

	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestDocumentPostgres_Delete(t *testing.T) {
	db, mock := newMock(t)
	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM documents WHERE id = $1")).
		WithArgs("doc-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	assert.NoError(t, repo.Delete(ctx, "doc-1"))

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM documents WHERE id = $1")).
		WithArgs("doc-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.True(t, apperr.IsKind(repo.Delete(ctx, "doc-1"), apperr.KindNotFound))
}

func TestDocumentPostgres_DeleteMany(t *testing.T) {
	db, mock := newMock(t)
	repo := NewDocumentPostgres(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM documents WHERE id IN ($1, $2, $3)")).
		WithArgs("a", "b", "c").
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := repo.DeleteMany(context.Background(), []string{"a", "b", "c"})

	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestDocumentPostgres_ExistsByRefNo(t *testing.T) {
	db, mock := newMock(t)
	repo := NewDocumentPostgres(db)

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("INV/0001/25").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := repo.ExistsByRefNo(context.Background(), "INV/0001/25")

	require.NoError(t, err)
	assert.True(t, ok)
}

func TestDocumentPostgres_CountByStatus(t *testing.T) {
	db, mock := newMock(t)
	repo := NewDocumentPostgres(db)

	mock.ExpectQuery("SELECT status, COUNT").
		WithArgs("dept-1").
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).AddRow("Filed", 4))

	counts, err := repo.CountByStatus(context.Background(), "dept-1")

	require.NoError(t, err)
	assert.Equal(t, map[model.Status]int64{
		model.StatusNotFiled:  0,
		model.StatusFiled:     4,
		model.StatusSuspended: 0,
	}, counts)
}

func TestDocumentPostgres_InsertMany(t *testing.T) {
	db, mock := newMock(t)
	repo := NewDocumentPostgres(db)

	a, b := sampleDocument(), sampleDocument()
	b.ID, b.RefNo = "doc-2", "INV/0002/25"

	mock.ExpectExec(regexp.QuoteMeta("($17, $18,") + "(.+)" + regexp.QuoteMeta("ON CONFLICT (ref_no) DO NOTHING")).
		WithArgs(anyArgs(2 * documentColumnCount)...).
		WillReturnResult(sqlmock.NewResult(0, 1))

	n, err := repo.InsertMany(context.Background(), []model.Document{a, b})

	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
