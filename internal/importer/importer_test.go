package importer

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"docfiling/internal/apperr"
	"docfiling/internal/metrics"
	"docfiling/internal/model"
	"docfiling/internal/refno"
	"docfiling/internal/repository"
	"docfiling/internal/repository/mocks"
)

var importNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	depts    *mocks.MockDepartmentRepository
	docs     *mocks.MockDocumentRepository
	admins   *mocks.MockAdminRepository
	counters *mocks.MockCounterStore
	hook     *logtest.Hook
	reg      *prometheus.Registry
	purged   int
	im       *Importer
}

func newFixture(t *testing.T, chunk int) *fixture {
	t.Helper()
	log, hook := logtest.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	reg := prometheus.NewRegistry()
	m, err := metrics.NewDomain(reg)
	require.NoError(t, err)

	f := &fixture{
		depts:    new(mocks.MockDepartmentRepository),
		docs:     new(mocks.MockDocumentRepository),
		admins:   new(mocks.MockAdminRepository),
		counters: new(mocks.MockCounterStore),
		hook:     hook,
		reg:      reg,
	}
	clock := func() time.Time { return importNow }
	alloc := refno.NewAllocator(f.depts, f.counters, f.docs, log, refno.WithClock(clock))
	f.im = New(Deps{
		Departments:   f.depts,
		Documents:     f.docs,
		Admins:        f.admins,
		Allocator:     alloc,
		Metrics:       m,
		Log:           log,
		ChunkSize:     chunk,
		AdminsChanged: func() { f.purged++ },
		Now:           clock,
	})
	t.Cleanup(func() {
		f.depts.AssertExpectations(t)
		f.docs.AssertExpectations(t)
		f.admins.AssertExpectations(t)
		f.counters.AssertExpectations(t)
	})
	return f
}

func (f *fixture) skips() []*logrus.Entry {
	var out []*logrus.Entry
	for _, e := range f.hook.AllEntries() {
		if e.Message == "import_row_skipped" {
			out = append(out, e)
		}
	}
	return out
}

func src(name, body string) Source {
	return Source{Name: name, Reader: strings.NewReader(body)}
}

const departmentsCSV = `id,name
1,Finance
2,Operations
3,Legal
`

const documentTypesCSV = `id,departmentid,name
10,1,Invoice
11,1,Receipt
12,1,Credit Note
13,2,Work Order
14,2,Incident
15,2,Shift Log
16,3,Contract
17,3,NDA
18,3,Opinion
19,9,Orphan
`

const generatedIDsCSV = `documenttypeid,prefix,padding,year,number
10,INV,2,2024,31
10,INV,2,2025,7
13,WO,3,2025,120
`

func TestImportDepartments(t *testing.T) {
	f := newFixture(t, 0)
	var upserted []*model.Department
	f.depts.On("UpsertByExternalID", mock.Anything, mock.AnythingOfType("*model.Department")).
		Run(func(args mock.Arguments) {
			upserted = append(upserted, args.Get(1).(*model.Department))
		}).
		Return(&repository.UpsertResult{Created: true, DocumentTypes: 3}, nil).Times(3)

	rep, err := f.im.ImportDepartments(context.Background(),
		src("departments.csv", departmentsCSV),
		src("documenttypes.csv", documentTypesCSV),
		src("generatedid.csv", generatedIDsCSV))

	require.NoError(t, err)
	assert.Equal(t, &DepartmentReport{Departments: 3, Created: 3, DocumentTypes: 9, SkippedRows: 1}, rep)

	require.Len(t, upserted, 3)
	finance := upserted[0]
	assert.Equal(t, "Finance", finance.Name)
	assert.Equal(t, int64(1), *finance.ExternalID)
	require.Len(t, finance.DocumentTypes, 3)

	invoice := finance.DocumentTypes[0]
	assert.Equal(t, "INV", invoice.Prefix)
	assert.Equal(t, 2, invoice.Padding)
	assert.Equal(t, map[string]int64{"2024": 31, "2025": 7}, invoice.Counters)

	receipt := finance.DocumentTypes[1]
	assert.Equal(t, "DEFAULT_11", receipt.Prefix)
	assert.Equal(t, 4, receipt.Padding)
	assert.Empty(t, receipt.Counters)

	assert.Equal(t, 3, upserted[1].DocumentTypes[0].Padding)

	skips := f.skips()
	require.Len(t, skips, 1)
	assert.Equal(t, "documenttypes.csv", skips[0].Data["file"])
	assert.Equal(t, 11, skips[0].Data["line"])

	assert.Equal(t, 3.0, importRows(t, f.reg, StreamDepartments, metrics.OutcomeInserted))
	assert.Equal(t, 1.0, importRows(t, f.reg, StreamDepartments, metrics.OutcomeSkipped))
}

func TestImportDepartments_PartialFailure(t *testing.T) {
	f := newFixture(t, 0)
	f.depts.On("UpsertByExternalID", mock.Anything, mock.MatchedBy(func(d *model.Department) bool { return d.Name == "Finance" })).
		Return(nil, apperr.New(apperr.KindConflict, "prefix already in use")).Once()
	f.depts.On("UpsertByExternalID", mock.Anything, mock.Anything).
		Return(&repository.UpsertResult{Created: false, DocumentTypes: 1}, nil).Twice()

	rep, err := f.im.ImportDepartments(context.Background(),
		src("departments.csv", departmentsCSV),
		src("documenttypes.csv", "id,departmentid,name\n"),
		src("generatedid.csv", "documenttypeid,prefix,padding,year,number\n"))

	require.NoError(t, err)
	assert.Equal(t, 2, rep.Departments)
	assert.Equal(t, 2, rep.Updated)
	assert.Equal(t, 1, rep.Failed)
}

func TestImportDepartments_HardFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("wrong extension", func(t *testing.T) {
		f := newFixture(t, 0)
		_, err := f.im.ImportDepartments(ctx,
			src("departments.xlsx", departmentsCSV),
			src("documenttypes.csv", documentTypesCSV),
			src("generatedid.csv", generatedIDsCSV))

		assert.True(t, apperr.IsKind(err, apperr.KindInvalidInput))
		assert.Contains(t, apperr.MessageOf(err), "departments.xlsx")
	})

	t.Run("missing columns", func(t *testing.T) {
		f := newFixture(t, 0)
		_, err := f.im.ImportDepartments(ctx,
			src("departments.csv", "id,title\n1,x\n"),
			src("documenttypes.csv", documentTypesCSV),
			src("generatedid.csv", generatedIDsCSV))

		assert.True(t, apperr.IsKind(err, apperr.KindInvalidInput))
		assert.Contains(t, apperr.MessageOf(err), "name")
	})

	t.Run("nothing importable", func(t *testing.T) {
		f := newFixture(t, 0)
		rep, err := f.im.ImportDepartments(ctx,
			src("departments.csv", "id,name\nx,Finance\n"),
			src("documenttypes.csv", documentTypesCSV),
			src("generatedid.csv", generatedIDsCSV))

		assert.True(t, apperr.IsKind(err, apperr.KindInvalidInput))
		require.NotNil(t, rep)
		assert.Equal(t, 0, rep.Departments)
	})
}

const documentsCSV = `id,RefNo,Title,StatusID,CreatedBy,CreatedDate,FiledBy,FiledDate,DocumentTypeID,DepartmentID
1,INV/01/24,Invoice one,1,alice,2024-01-05 09:00:00.123,,,10,1
2,INV/02/24,Invoice two,2,alice,2024-01-06 10:00:00,root,2024-01-07 11:00:00,10,1
3,INV/03/24,Bad date,1,alice,yesterday,,,10,1
4,INV/04/24,Wrong dept,1,alice,2024-01-08,,,10,2
5,WO/001/24,Order,7,bob,2024-02-01,,,13,2
6,INV/05/24,Unknown type,1,alice,2024-02-02,,,99,1
7,,No ref,1,alice,2024-02-03,,,10,1
`

func TestImportDocuments(t *testing.T) {
	f := newFixture(t, 4)
	refs := map[int64]model.ExternalTypeRef{
		10: {DocumentTypeID: "type-10", DepartmentID: "dept-1", DepartmentExternalID: 1},
		13: {DocumentTypeID: "type-13", DepartmentID: "dept-2", DepartmentExternalID: 2},
	}
	f.depts.On("ResolveExternalTypes", mock.Anything, []int64{10, 13}).Return(refs, nil).Once()
	f.depts.On("ResolveExternalTypes", mock.Anything, []int64{99, 10}).Return(refs, nil).Once()

	var first, second []model.Document
	f.docs.On("InsertMany", mock.Anything, mock.MatchedBy(func(d []model.Document) bool { return len(d) == 3 })).
		Run(func(args mock.Arguments) { first = args.Get(1).([]model.Document) }).
		Return(int64(2), nil).Once()

	invoice := &model.DocumentType{ID: "type-10", DepartmentID: "dept-1", Prefix: "INV", Padding: 2}
	f.depts.On("FindDocumentType", mock.Anything, "dept-1", "type-10").Return(invoice, nil).Twice()
	f.counters.On("Increment", mock.Anything, repository.CounterKey{DepartmentID: "dept-1", DocumentTypeID: "type-10", Year: 2025}).Return(int64(8), nil).Once()
	f.docs.On("ExistsByRefNo", mock.Anything, "INV/08/25").Return(false, nil).Once()
	f.docs.On("InsertMany", mock.Anything, mock.MatchedBy(func(d []model.Document) bool { return len(d) == 1 })).
		Run(func(args mock.Arguments) { second = args.Get(1).([]model.Document) }).
		Return(int64(1), nil).Once()

	rep, err := f.im.ImportDocuments(context.Background(), src("documents.csv", documentsCSV))

	require.NoError(t, err)
	assert.Equal(t, &DocumentReport{Inserted: 3, Skipped: 3, Duplicates: 1}, rep)

	require.Len(t, first, 3)
	assert.Equal(t, model.StatusNotFiled, first[0].Status)
	assert.Equal(t, "dept-1", first[0].DepartmentID)
	assert.Equal(t, int64(1), *first[0].ExternalID)
	assert.Equal(t, 123*time.Millisecond, time.Duration(first[0].CreatedDate.Nanosecond()))
	assert.Equal(t, model.StatusFiled, first[1].Status)
	assert.Equal(t, "root", *first[1].FiledBy)
	assert.Equal(t, model.StatusSuspended, first[2].Status)

	require.Len(t, second, 1)
	assert.Equal(t, "INV/08/25", second[0].RefNo)

	reasons := map[any]bool{}
	for _, e := range f.skips() {
		reasons[e.Data["reason"]] = true
	}
	assert.True(t, reasons["invalid createddate"])
	assert.True(t, reasons["document type does not belong to department"])
	assert.True(t, reasons["unknown document type"])
}

func TestImportDocuments_ChunkFailureContinues(t *testing.T) {
	f := newFixture(t, 1)
	refs := map[int64]model.ExternalTypeRef{10: {DocumentTypeID: "type-10", DepartmentID: "dept-1", DepartmentExternalID: 1}}
	f.depts.On("ResolveExternalTypes", mock.Anything, []int64{10}).Return(nil, errors.New("db down")).Once()
	f.depts.On("ResolveExternalTypes", mock.Anything, []int64{10}).Return(refs, nil).Once()
	f.docs.On("InsertMany", mock.Anything, mock.Anything).Return(int64(1), nil).Once()

	body := "RefNo,Title,StatusID,CreatedBy,CreatedDate,DocumentTypeID,DepartmentID\n" +
		"INV/01/24,a,1,alice,2024-01-01,10,1\n" +
		"INV/02/24,b,1,alice,2024-01-02,10,1\n"
	rep, err := f.im.ImportDocuments(context.Background(), src("documents.csv", body))

	require.NoError(t, err)
	assert.Equal(t, 1, rep.Failed)
	assert.Equal(t, 1, rep.Inserted)
}

func TestImportAdmins(t *testing.T) {
	f := newFixture(t, 0)
	f.admins.On("UpsertMany", mock.Anything, mock.MatchedBy(func(as []model.Admin) bool {
		return len(as) == 2 && as[0].Username == "root" && as[0].FullName == "Root User" && as[1].Username == "ops"
	})).Return(int64(2), nil).Once()

	body := "username,full_name\n root ,Root User\n  ,Nobody\nops,\nroot,again\n"
	rep, err := f.im.ImportAdmins(context.Background(), src("admins.csv", body))

	require.NoError(t, err)
	assert.Equal(t, &AdminReport{Processed: 2, Skipped: 1, Duplicates: 1}, rep)
	assert.Equal(t, 1, f.purged)
}

func TestImportAdmins_NothingProcessed(t *testing.T) {
	f := newFixture(t, 0)

	_, err := f.im.ImportAdmins(context.Background(), src("admins.csv", "username\n \n"))
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidInput))

	_, err = f.im.ImportAdmins(context.Background(), src("admins.txt", "username\nroot\n"))
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidInput))
	assert.Zero(t, f.purged)
}

func TestImportAdmins_FailedChunkContinues(t *testing.T) {
	f := newFixture(t, 2)
	f.admins.On("UpsertMany", mock.Anything, mock.MatchedBy(func(as []model.Admin) bool {
		return len(as) == 2 && as[0].Username == "a1"
	})).Return(int64(0), errors.New("deadlock detected")).Once()
	f.admins.On("UpsertMany", mock.Anything, mock.MatchedBy(func(as []model.Admin) bool {
		return len(as) == 1 && as[0].Username == "a3"
	})).Return(int64(1), nil).Once()

	rep, err := f.im.ImportAdmins(context.Background(), src("admins.csv", "username\na1\na2\na3\n"))

	require.NoError(t, err)
	assert.Equal(t, &AdminReport{Processed: 1, Failed: 2}, rep)
	assert.Equal(t, 1, f.purged)
	assert.Equal(t, 2.0, importRows(t, f.reg, StreamAdmins, metrics.OutcomeFailed))
	assert.Equal(t, 1.0, importRows(t, f.reg, StreamAdmins, metrics.OutcomeInserted))
}

func TestRecordInteger(t *testing.T) {
	rec := record{fields: []string{"12", "12.0", "1.5", ""}, cols: map[string]int{"a": 0, "b": 1, "c": 2, "d": 3}}

	n, ok := rec.integer("a")
	assert.True(t, ok)
	assert.Equal(t, int64(12), n)

	n, ok = rec.integer("b")
	assert.True(t, ok)
	assert.Equal(t, int64(12), n)

	_, ok = rec.integer("c")
	assert.False(t, ok)
	_, ok = rec.integer("d")
	assert.False(t, ok)
	_, ok = rec.integer("missing")
	assert.False(t, ok)
}

func importRows(t *testing.T, reg *prometheus.Registry, stream, outcome string) float64 {
	t.Helper()
	mfs, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		if mf.GetName() != "docfiling_import_rows_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			labels := map[string]string{}
			for _, l := range m.GetLabel() {
				labels[l.GetName()] = l.GetValue()
			}
			if labels["stream"] == stream && labels["outcome"] == outcome {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}
