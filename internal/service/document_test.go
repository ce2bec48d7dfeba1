package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"docfiling/internal/apperr"
	"docfiling/internal/attachment"
	"docfiling/internal/config"
	"docfiling/internal/model"
	"docfiling/internal/refno"
	"docfiling/internal/repository"
	repoMocks "docfiling/internal/repository/mocks"
	"docfiling/internal/storage"
	storeMocks "docfiling/internal/storage/mocks"
)

var (
	testNow = time.Date(2025, 4, 10, 8, 30, 0, 0, time.UTC)

	alice = model.Actor{Username: "alice"}
	bob   = model.Actor{Username: "bob"}
	root  = model.Actor{Username: "root", IsAdmin: true}

	invoice = &model.DocumentType{ID: "type-1", DepartmentID: "dept-1", Name: "Invoice", Prefix: "INV", Padding: 2}
	keyInv  = repository.CounterKey{DepartmentID: "dept-1", DocumentTypeID: "type-1", Year: 2025}
)

type docFixture struct {
	docs     *repoMocks.MockDocumentRepository
	depts    *repoMocks.MockDepartmentRepository
	counters *repoMocks.MockCounterStore
	store    *storeMocks.MockStorage
	hook     *logtest.Hook
	svc      DocumentService
}

func newDocFixture(t *testing.T) *docFixture {
	t.Helper()
	log, hook := logtest.NewNullLogger()
	f := &docFixture{
		docs:     new(repoMocks.MockDocumentRepository),
		depts:    new(repoMocks.MockDepartmentRepository),
		counters: new(repoMocks.MockCounterStore),
		store:    new(storeMocks.MockStorage),
		hook:     hook,
	}
	clock := func() time.Time { return testNow }
	alloc := refno.NewAllocator(f.depts, f.counters, f.docs, log, refno.WithClock(clock))
	files := attachment.NewManager(f.store, config.AttachmentConfig{
		MaxBytes:       1 << 20,
		DeleteAttempts: 3,
		DeleteBackoff:  time.Millisecond,
		PresignExpiry:  time.Minute,
	}, log, nil)
	f.svc = NewDocumentService(DocumentDeps{
		Documents:   f.docs,
		Departments: f.depts,
		Allocator:   alloc,
		Attachments: files,
		Log:         log,
		Now:         clock,
	})
	t.Cleanup(func() {
		f.docs.AssertExpectations(t)
		f.depts.AssertExpectations(t)
		f.counters.AssertExpectations(t)
		f.store.AssertExpectations(t)
	})
	return f
}

// expectAllocation primes a successful allocation of seq.
func (f *docFixture) expectAllocation(seq int64) string {
	ref := refno.Format("INV", seq, 2, 2025)
	f.depts.On("FindDocumentType", mock.Anything, "dept-1", "type-1").Return(invoice, nil).Twice()
	f.counters.On("Increment", mock.Anything, keyInv).Return(seq, nil).Once()
	f.docs.On("ExistsByRefNo", mock.Anything, ref).Return(false, nil).Once()
	return ref
}

func storedDoc(id, ref, owner string) *model.Document {
	return &model.Document{
		ID:             id,
		RefNo:          ref,
		Title:          "Invoice March",
		DepartmentID:   "dept-1",
		DocumentTypeID: "type-1",
		CreatedBy:      owner,
		CreatedDate:    testNow,
		Status:         model.StatusNotFiled,
	}
}

func echoCreate(_ context.Context, d *model.Document) *model.Document { return d }

func TestDocumentService_Create(t *testing.T) {
	ctx := context.Background()
	in := CreateDocumentInput{Title: " Invoice March ", DepartmentID: "dept-1", DocumentTypeID: "type-1"}

	t.Run("first document of the year", func(t *testing.T) {
		f := newDocFixture(t)
		f.expectAllocation(1)
		f.docs.On("Create", mock.Anything, mock.AnythingOfType("*model.Document")).
			Return(echoCreate, nil).Once()

		doc, err := f.svc.Create(ctx, in, alice)

		require.NoError(t, err)
		assert.Equal(t, "INV/01/25", doc.RefNo)
		assert.Equal(t, "Invoice March", doc.Title)
		assert.Equal(t, model.StatusNotFiled, doc.Status)
		assert.Equal(t, "alice", doc.CreatedBy)
		assert.Equal(t, testNow, doc.CreatedDate)
		assert.Nil(t, doc.FiledBy)
	})

	t.Run("missing fields", func(t *testing.T) {
		f := newDocFixture(t)

		_, err := f.svc.Create(ctx, CreateDocumentInput{Title: "x"}, alice)

		assert.True(t, apperr.IsKind(err, apperr.KindInvalidInput))
	})

	t.Run("anonymous actor", func(t *testing.T) {
		f := newDocFixture(t)

		_, err := f.svc.Create(ctx, in, model.Actor{})

		assert.True(t, apperr.IsKind(err, apperr.KindForbidden))
	})

	t.Run("invalid reference", func(t *testing.T) {
		f := newDocFixture(t)
		f.depts.On("FindDocumentType", mock.Anything, "dept-1", "type-1").
			Return(nil, apperr.New(apperr.KindNotFound, "document type not found in department")).Once()

		_, err := f.svc.Create(ctx, in, alice)

		assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
		f.docs.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("insert conflict keeps the number consumed", func(t *testing.T) {
		f := newDocFixture(t)
		f.expectAllocation(3)
		f.docs.On("Create", mock.Anything, mock.Anything).
			Return(nil, apperr.New(apperr.KindConflict, "reference number already exists")).Once()

		_, err := f.svc.Create(ctx, in, alice)

		assert.True(t, apperr.IsKind(err, apperr.KindConflict))
		f.counters.AssertNotCalled(t, "Decrement", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("insert failure releases number and file", func(t *testing.T) {
		f := newDocFixture(t)
		f.expectAllocation(5)
		var storedKey string
		f.store.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(func(_ context.Context, key string, r io.Reader, _ storage.PutObjectOptions) storage.ObjectInfo {
				storedKey = key
				n, _ := io.Copy(io.Discard, r)
				return storage.ObjectInfo{Key: key, Size: n}
			}, nil).Once()
		f.docs.On("Create", mock.Anything, mock.Anything).
			Return(nil, apperr.New(apperr.KindStorageUnavailable, "database unavailable")).Once()
		f.store.On("Delete", mock.Anything, mock.MatchedBy(func(k string) bool { return k == storedKey })).Return(nil).Once()
		f.counters.On("Decrement", mock.Anything, keyInv, "INV", int64(5)).Return(true, nil).Once()

		withFile := in
		withFile.Upload = &attachment.Upload{Reader: strings.NewReader("%PDF-1.4"), Filename: "a.pdf", ContentType: "application/pdf", Size: 8}
		_, err := f.svc.Create(ctx, withFile, alice)

		assert.True(t, apperr.IsKind(err, apperr.KindStorageUnavailable))
		assert.True(t, strings.HasPrefix(storedKey, "documents/dept-1/2025/INV_05_25-"))
	})

	t.Run("rejected attachment allocates nothing", func(t *testing.T) {
		f := newDocFixture(t)
		withFile := in
		withFile.Upload = &attachment.Upload{Reader: strings.NewReader("x"), ContentType: "application/zip", Size: 1}

		_, err := f.svc.Create(ctx, withFile, alice)

		assert.True(t, apperr.IsKind(err, apperr.KindInvalidInput))
		f.counters.AssertNotCalled(t, "Increment", mock.Anything, mock.Anything)
	})
}

func TestDocumentService_Update(t *testing.T) {
	ctx := context.Background()
	title := "Renamed"

	t.Run("non-owner is forbidden", func(t *testing.T) {
		f := newDocFixture(t)
		f.docs.On("FindByID", mock.Anything, "doc-1").Return(storedDoc("doc-1", "INV/01/25", "alice"), nil).Once()

		_, err := f.svc.Update(ctx, "doc-1", model.DocumentPatch{Title: &title}, bob, nil)

		assert.True(t, apperr.IsKind(err, apperr.KindForbidden))
	})

	t.Run("owner cannot change status", func(t *testing.T) {
		f := newDocFixture(t)
		filed := model.StatusFiled
		f.docs.On("FindByID", mock.Anything, "doc-1").Return(storedDoc("doc-1", "INV/01/25", "alice"), nil).Once()

		_, err := f.svc.Update(ctx, "doc-1", model.DocumentPatch{Status: &filed}, alice, nil)

		assert.True(t, apperr.IsKind(err, apperr.KindForbidden))
	})

	t.Run("owner renames with ownership guard", func(t *testing.T) {
		f := newDocFixture(t)
		current := storedDoc("doc-1", "INV/01/25", "alice")
		updated := *current
		updated.Title = title
		f.docs.On("FindByID", mock.Anything, "doc-1").Return(current, nil).Once()
		f.docs.On("Update", mock.Anything, "doc-1", mock.MatchedBy(func(ch model.DocumentChanges) bool {
			return ch.Title != nil && *ch.Title == title && ch.Status == nil
		}), "alice").Return(&updated, nil).Once()

		got, err := f.svc.Update(ctx, "doc-1", model.DocumentPatch{Title: &title}, alice, nil)

		require.NoError(t, err)
		assert.Equal(t, title, got.Title)
	})

	t.Run("admin filing stamps actor and time", func(t *testing.T) {
		f := newDocFixture(t)
		filed := model.StatusFiled
		f.docs.On("FindByID", mock.Anything, "doc-1").Return(storedDoc("doc-1", "INV/01/25", "alice"), nil).Once()
		f.docs.On("Update", mock.Anything, "doc-1", mock.MatchedBy(func(ch model.DocumentChanges) bool {
			return *ch.Status == model.StatusFiled &&
				*ch.FiledBy.Value == "root" &&
				ch.FiledDate.Value.Equal(testNow)
		}), "").Return(storedDoc("doc-1", "INV/01/25", "alice"), nil).Once()

		_, err := f.svc.Update(ctx, "doc-1", model.DocumentPatch{Status: &filed}, root, nil)

		require.NoError(t, err)
	})

	t.Run("empty patch is no change", func(t *testing.T) {
		f := newDocFixture(t)
		f.docs.On("FindByID", mock.Anything, "doc-1").Return(storedDoc("doc-1", "INV/01/25", "alice"), nil).Once()

		_, err := f.svc.Update(ctx, "doc-1", model.DocumentPatch{}, alice, nil)

		assert.ErrorIs(t, err, ErrNoChange)
	})

	t.Run("ref_no is immutable", func(t *testing.T) {
		f := newDocFixture(t)
		ref := "INV/99/25"
		f.docs.On("FindByID", mock.Anything, "doc-1").Return(storedDoc("doc-1", "INV/01/25", "alice"), nil).Once()

		_, err := f.svc.Update(ctx, "doc-1", model.DocumentPatch{RefNo: &ref}, root, nil)

		assert.True(t, apperr.IsKind(err, apperr.KindForbidden))
	})

	t.Run("moving to an unknown type is an invalid reference", func(t *testing.T) {
		f := newDocFixture(t)
		other := "type-9"
		f.docs.On("FindByID", mock.Anything, "doc-1").Return(storedDoc("doc-1", "INV/01/25", "alice"), nil).Once()
		f.depts.On("FindDocumentType", mock.Anything, "dept-1", "type-9").
			Return(nil, apperr.New(apperr.KindNotFound, "document type not found in department")).Once()

		_, err := f.svc.Update(ctx, "doc-1", model.DocumentPatch{DocumentTypeID: &other}, alice, nil)

		assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
		assert.Equal(t, refno.MsgInvalidReference, apperr.MessageOf(err))
	})

	t.Run("replacing the file deletes the old one after the update", func(t *testing.T) {
		f := newDocFixture(t)
		current := storedDoc("doc-1", "INV/01/25", "alice")
		current.Attachment = &model.AttachmentRef{FileID: "old", Path: "documents/dept-1/2025/INV_01_25-old.pdf"}
		f.docs.On("FindByID", mock.Anything, "doc-1").Return(current, nil).Once()
		f.store.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(storage.ObjectInfo{Size: 4}, nil).Once()
		f.docs.On("Update", mock.Anything, "doc-1", mock.MatchedBy(func(ch model.DocumentChanges) bool {
			return ch.Attachment.Set && ch.Attachment.Value.FileID != "old"
		}), "alice").Return(current, nil).Once()
		f.store.On("Delete", mock.Anything, "documents/dept-1/2025/INV_01_25-old.pdf").Return(nil).Once()

		_, err := f.svc.Update(ctx, "doc-1", model.DocumentPatch{}, alice,
			&attachment.Upload{Reader: strings.NewReader("text"), Filename: "n.txt", ContentType: "text/plain", Size: 4})

		require.NoError(t, err)
	})

	t.Run("failed update removes the new file and keeps the old", func(t *testing.T) {
		f := newDocFixture(t)
		current := storedDoc("doc-1", "INV/01/25", "alice")
		current.Attachment = &model.AttachmentRef{FileID: "old", Path: "documents/old.pdf"}
		var newKey string
		f.docs.On("FindByID", mock.Anything, "doc-1").Return(current, nil).Once()
		f.store.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(func(_ context.Context, key string, _ io.Reader, _ storage.PutObjectOptions) storage.ObjectInfo {
				newKey = key
				return storage.ObjectInfo{Key: key, Size: 4}
			}, nil).Once()
		f.docs.On("Update", mock.Anything, "doc-1", mock.Anything, "alice").
			Return(nil, apperr.New(apperr.KindNotFound, "document not found")).Once()
		f.store.On("Delete", mock.Anything, mock.MatchedBy(func(k string) bool { return k == newKey })).Return(nil).Once()

		_, err := f.svc.Update(ctx, "doc-1", model.DocumentPatch{}, alice,
			&attachment.Upload{Reader: strings.NewReader("text"), Filename: "n.txt", ContentType: "text/plain", Size: 4})

		assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
		f.store.AssertNotCalled(t, "Delete", mock.Anything, "documents/old.pdf")
	})

	t.Run("upload failure leaves the record alone", func(t *testing.T) {
		f := newDocFixture(t)
		f.docs.On("FindByID", mock.Anything, "doc-1").Return(storedDoc("doc-1", "INV/01/25", "alice"), nil).Once()
		f.store.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(storage.ObjectInfo{}, errors.New("minio down")).Once()

		_, err := f.svc.Update(ctx, "doc-1", model.DocumentPatch{}, alice,
			&attachment.Upload{Reader: strings.NewReader("text"), Filename: "n.txt", ContentType: "text/plain", Size: 4})

		assert.True(t, apperr.IsKind(err, apperr.KindStorageUnavailable))
		f.docs.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestDocumentService_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("owner delete reclaims the tail number", func(t *testing.T) {
		f := newDocFixture(t)
		doc := storedDoc("doc-2", "INV/02/25", "alice")
		doc.Attachment = &model.AttachmentRef{Path: "documents/x.pdf"}
		f.docs.On("FindByID", mock.Anything, "doc-2").Return(doc, nil).Once()
		f.docs.On("Delete", mock.Anything, "doc-2").Return(nil).Once()
		f.store.On("Delete", mock.Anything, "documents/x.pdf").Return(nil).Once()
		f.counters.On("Decrement", mock.Anything, keyInv, "INV", int64(2)).Return(true, nil).Once()

		require.NoError(t, f.svc.Delete(ctx, "doc-2", alice))
	})

	t.Run("cleanup failures do not fail the delete", func(t *testing.T) {
		f := newDocFixture(t)
		doc := storedDoc("doc-2", "INV/02/25", "alice")
		doc.Attachment = &model.AttachmentRef{Path: "documents/x.pdf"}
		f.docs.On("FindByID", mock.Anything, "doc-2").Return(doc, nil).Once()
		f.docs.On("Delete", mock.Anything, "doc-2").Return(nil).Once()
		f.store.On("Delete", mock.Anything, "documents/x.pdf").Return(errors.New("gone")).Times(3)
		f.counters.On("Decrement", mock.Anything, keyInv, "INV", int64(2)).Return(false, errors.New("db down")).Once()

		assert.NoError(t, f.svc.Delete(ctx, "doc-2", alice))
	})

	t.Run("non-owner is forbidden", func(t *testing.T) {
		f := newDocFixture(t)
		f.docs.On("FindByID", mock.Anything, "doc-2").Return(storedDoc("doc-2", "INV/02/25", "alice"), nil).Once()

		err := f.svc.Delete(ctx, "doc-2", bob)

		assert.True(t, apperr.IsKind(err, apperr.KindForbidden))
		f.docs.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("missing document", func(t *testing.T) {
		f := newDocFixture(t)
		f.docs.On("FindByID", mock.Anything, "nope").Return(nil, apperr.New(apperr.KindNotFound, "document not found")).Once()

		assert.True(t, apperr.IsKind(f.svc.Delete(ctx, "nope", root), apperr.KindNotFound))
	})
}

// Deleting INV/01 leaves a gap; deleting the tail INV/02 lets it be issued again.
func TestDocumentService_DeleteReclaimPolicy(t *testing.T) {
	ctx := context.Background()
	f := newDocFixture(t)

	first := storedDoc("doc-1", "INV/01/25", "alice")
	f.docs.On("FindByID", mock.Anything, "doc-1").Return(first, nil).Once()
	f.docs.On("Delete", mock.Anything, "doc-1").Return(nil).Once()
	f.counters.On("Decrement", mock.Anything, keyInv, "INV", int64(1)).Return(false, nil).Once()
	require.NoError(t, f.svc.Delete(ctx, "doc-1", alice))

	f.expectAllocation(3)
	f.docs.On("Create", mock.Anything, mock.Anything).
		Return(echoCreate, nil).Once()
	doc, err := f.svc.Create(ctx, CreateDocumentInput{Title: "t", DepartmentID: "dept-1", DocumentTypeID: "type-1"}, alice)
	require.NoError(t, err)
	assert.Equal(t, "INV/03/25", doc.RefNo)
}

func TestDocumentService_BulkDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("requires admin", func(t *testing.T) {
		f := newDocFixture(t)

		_, err := f.svc.BulkDelete(ctx, []string{"doc-1"}, alice)

		assert.True(t, apperr.IsKind(err, apperr.KindForbidden))
	})

	t.Run("all ids must exist before anything is deleted", func(t *testing.T) {
		f := newDocFixture(t)
		f.docs.On("FindByIDs", mock.Anything, []string{"doc-1", "doc-9"}).
			Return([]model.Document{*storedDoc("doc-1", "INV/01/25", "alice")}, nil).Once()

		_, err := f.svc.BulkDelete(ctx, []string{"doc-1", "doc-9", "doc-1"}, root)

		assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
		assert.Contains(t, apperr.MessageOf(err), "doc-9")
		f.docs.AssertNotCalled(t, "DeleteMany", mock.Anything, mock.Anything)
	})

	t.Run("reclaims latest numbers first", func(t *testing.T) {
		f := newDocFixture(t)
		f.docs.On("FindByIDs", mock.Anything, []string{"doc-1", "doc-2"}).Return([]model.Document{
			*storedDoc("doc-1", "INV/01/25", "alice"),
			*storedDoc("doc-2", "INV/02/25", "alice"),
		}, nil).Once()
		f.docs.On("DeleteMany", mock.Anything, []string{"doc-1", "doc-2"}).Return(int64(2), nil).Once()
		mock.InOrder(
			f.counters.On("Decrement", mock.Anything, keyInv, "INV", int64(2)).Return(true, nil).Once(),
			f.counters.On("Decrement", mock.Anything, keyInv, "INV", int64(1)).Return(true, nil).Once(),
		)

		res, err := f.svc.BulkDelete(ctx, []string{"doc-1", "doc-2"}, root)

		require.NoError(t, err)
		assert.Equal(t, &BulkResult{Requested: 2, Affected: 2}, res)
	})

	t.Run("empty id list", func(t *testing.T) {
		f := newDocFixture(t)

		_, err := f.svc.BulkDelete(ctx, []string{" ", ""}, root)

		assert.True(t, apperr.IsKind(err, apperr.KindInvalidInput))
	})
}

func TestDocumentService_BulkUpdateStatus(t *testing.T) {
	ctx := context.Background()
	f := newDocFixture(t)
	f.docs.On("FindByIDs", mock.Anything, []string{"doc-1"}).
		Return([]model.Document{*storedDoc("doc-1", "INV/01/25", "alice")}, nil).Once()
	f.docs.On("UpdateMany", mock.Anything, []string{"doc-1"}, mock.MatchedBy(func(ch model.DocumentChanges) bool {
		return *ch.Status == model.StatusFiled && *ch.FiledBy.Value == "root"
	})).Return(int64(1), nil).Once()

	res, err := f.svc.BulkUpdateStatus(ctx, []string{"doc-1"}, model.StatusFiled, root)

	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Affected)

	_, err = f.svc.BulkUpdateStatus(ctx, []string{"doc-1"}, model.StatusFiled, alice)
	assert.True(t, apperr.IsKind(err, apperr.KindForbidden))
}

func TestDocumentService_Search(t *testing.T) {
	f := newDocFixture(t)
	f.docs.On("Search", mock.Anything, mock.MatchedBy(func(q repository.DocumentQuery) bool {
		return q.Page.Limit == 5 && q.Page.Offset == 5 && q.SortField == repository.SortTitle && !q.SortDesc
	})).Return(&repository.PageResult[model.Document]{
		Items: []model.Document{*storedDoc("doc-1", "INV/01/25", "alice")},
		Total: 11,
	}, nil).Once()

	page, err := f.svc.Search(context.Background(), SearchParams{SortBy: "title", Order: "asc", Page: 2, Limit: 5})

	require.NoError(t, err)
	assert.Equal(t, 3, page.Pages)
	assert.Equal(t, 2, page.Page)
	assert.True(t, page.HasNext)
	assert.True(t, page.HasPrev)
	assert.Len(t, page.Documents, 1)
}

func TestDocumentService_CountByStatus(t *testing.T) {
	f := newDocFixture(t)
	f.depts.On("FindByID", mock.Anything, "dept-x").Return(nil, apperr.New(apperr.KindNotFound, "department not found")).Once()

	_, err := f.svc.CountByStatus(context.Background(), "dept-x")

	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestDocumentService_OpenAttachment(t *testing.T) {
	ctx := context.Background()

	t.Run("no file", func(t *testing.T) {
		f := newDocFixture(t)
		f.docs.On("FindByID", mock.Anything, "doc-1").Return(storedDoc("doc-1", "INV/01/25", "alice"), nil).Once()

		_, err := f.svc.OpenAttachment(ctx, "doc-1", alice)

		assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
	})

	t.Run("other users are forbidden", func(t *testing.T) {
		f := newDocFixture(t)
		f.docs.On("FindByID", mock.Anything, "doc-1").Return(storedDoc("doc-1", "INV/01/25", "alice"), nil).Once()

		_, err := f.svc.OpenAttachment(ctx, "doc-1", bob)

		assert.True(t, apperr.IsKind(err, apperr.KindForbidden))
	})

	t.Run("admin streams the file", func(t *testing.T) {
		f := newDocFixture(t)
		doc := storedDoc("doc-1", "INV/01/25", "alice")
		doc.Attachment = &model.AttachmentRef{Path: "documents/a.pdf", ContentType: "application/pdf", Filename: "a.pdf", Size: 3}
		f.docs.On("FindByID", mock.Anything, "doc-1").Return(doc, nil).Once()
		f.store.On("Get", mock.Anything, "documents/a.pdf").
			Return(io.NopCloser(strings.NewReader("pdf")), storage.ObjectInfo{Size: 3}, nil).Once()

		obj, err := f.svc.OpenAttachment(ctx, "doc-1", root)

		require.NoError(t, err)
		defer obj.Body.Close()
		assert.Equal(t, "application/pdf", obj.ContentType)
		assert.Equal(t, "a.pdf", obj.Filename)
	})
}
