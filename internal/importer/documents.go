package importer

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"docfiling/internal/metrics"
	"docfiling/internal/model"
)

// Layouts accepted for CreatedDate and FiledDate. Fractional seconds are
// optional in the first one.
var dateLayouts = []string{
	"2006-01-02 15:04:05.999999999",
	time.RFC3339Nano,
	"2006-01-02",
}

// Legacy status codes.
const (
	legacyNotFiled = 1
	legacyFiled    = 2
)

type documentRow struct {
	line       int
	externalID *int64
	refNo      string
	title      string
	status     model.Status
	createdBy  string
	created    time.Time
	filedBy    *string
	filed      *time.Time
	typeExt    int64
	deptExt    int64
}

// ImportDocuments loads documents.csv in chunks of ChunkSize rows. Each
// chunk resolves its legacy type ids in one lookup and is written with one
// batch insert; rows whose ref_no already exists count as duplicates.
// Rows without a ref_no get a freshly minted one.
func (im *Importer) ImportDocuments(ctx context.Context, src Source) (*DocumentReport, error) {
	t, err := openTable(src, "refno", "title", "statusid", "createdby", "createddate", "documenttypeid", "departmentid")
	if err != nil {
		return nil, err
	}

	rep := &DocumentReport{}
	log := im.log.WithField("stream", StreamDocuments)
	chunk := make([]documentRow, 0, im.chunkSize)

	var ctxErr error
	err = eachRow(t, &rep.Skipped, log, func(rec record) {
		if ctxErr != nil {
			return
		}
		row, reason := parseDocumentRow(rec)
		if reason != "" {
			skipRow(log, t.name, rec.line, reason, &rep.Skipped)
			return
		}
		chunk = append(chunk, row)
		if len(chunk) == im.chunkSize {
			im.flushDocuments(ctx, t.name, chunk, rep, log)
			chunk = chunk[:0]
			ctxErr = ctx.Err()
		}
	})
	if err != nil {
		return nil, err
	}
	if ctxErr != nil {
		return rep, ctxErr
	}
	if len(chunk) > 0 {
		im.flushDocuments(ctx, t.name, chunk, rep, log)
	}

	im.metrics.ImportRows(StreamDocuments, metrics.OutcomeInserted, rep.Inserted)
	im.metrics.ImportRows(StreamDocuments, metrics.OutcomeSkipped, rep.Skipped)
	im.metrics.ImportRows(StreamDocuments, metrics.OutcomeDuplicate, rep.Duplicates)
	im.metrics.ImportRows(StreamDocuments, metrics.OutcomeFailed, rep.Failed)

	log.WithFields(logrus.Fields{
		"inserted":   rep.Inserted,
		"skipped":    rep.Skipped,
		"duplicates": rep.Duplicates,
		"failed":     rep.Failed,
	}).Info("import_finished")
	return rep, nil
}

func parseDate(v string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func statusFromCode(code int64) model.Status {
	switch code {
	case legacyNotFiled:
		return model.StatusNotFiled
	case legacyFiled:
		return model.StatusFiled
	default:
		return model.StatusSuspended
	}
}

// parseDocumentRow validates one row. A non-empty reason means the row is
// skipped.
func parseDocumentRow(rec record) (documentRow, string) {
	row := documentRow{
		line:      rec.line,
		refNo:     rec.get("refno"),
		title:     rec.get("title"),
		createdBy: rec.get("createdby"),
	}
	if row.title == "" || row.createdBy == "" {
		return row, "missing title or createdby"
	}

	created, ok := parseDate(rec.get("createddate"))
	if !ok {
		return row, "invalid createddate"
	}
	row.created = created

	if v := rec.get("fileddate"); v != "" {
		filed, ok := parseDate(v)
		if !ok {
			return row, "invalid fileddate"
		}
		row.filed = &filed
	}
	if v := rec.get("filedby"); v != "" {
		row.filedBy = &v
	}

	code, ok := rec.integer("statusid")
	if !ok {
		return row, "invalid statusid"
	}
	row.status = statusFromCode(code)

	if row.typeExt, ok = rec.integer("documenttypeid"); !ok {
		return row, "invalid documenttypeid"
	}
	if row.deptExt, ok = rec.integer("departmentid"); !ok {
		return row, "invalid departmentid"
	}
	if id, ok := rec.integer("id"); ok {
		row.externalID = &id
	}
	return row, ""
}

// flushDocuments resolves and writes one chunk. Failures are counted in rep.
func (im *Importer) flushDocuments(ctx context.Context, file string, rows []documentRow, rep *DocumentReport, log logrus.FieldLogger) {
	seen := map[int64]struct{}{}
	ext := make([]int64, 0, len(rows))
	for _, r := range rows {
		if _, ok := seen[r.typeExt]; !ok {
			seen[r.typeExt] = struct{}{}
			ext = append(ext, r.typeExt)
		}
	}
	refs, err := im.depts.ResolveExternalTypes(ctx, ext)
	if err != nil {
		rep.Failed += len(rows)
		log.WithError(err).WithField("rows", len(rows)).Error("import_chunk_failed")
		return
	}

	docs := make([]model.Document, 0, len(rows))
	for _, r := range rows {
		ref, ok := refs[r.typeExt]
		if !ok {
			skipRow(log, file, r.line, "unknown document type", &rep.Skipped)
			continue
		}
		if ref.DepartmentExternalID != r.deptExt {
			skipRow(log, file, r.line, "document type does not belong to department", &rep.Skipped)
			continue
		}

		refNo := r.refNo
		if refNo == "" {
			if im.alloc == nil {
				skipRow(log, file, r.line, "missing refno", &rep.Skipped)
				continue
			}
			a, err := im.alloc.Allocate(ctx, ref.DepartmentID, ref.DocumentTypeID)
			if err != nil {
				skipRow(log, file, r.line, "allocate refno: "+err.Error(), &rep.Skipped)
				continue
			}
			refNo = a.RefNo
		}

		docs = append(docs, model.Document{
			ID:             uuid.NewString(),
			ExternalID:     r.externalID,
			RefNo:          refNo,
			Title:          r.title,
			DepartmentID:   ref.DepartmentID,
			DocumentTypeID: ref.DocumentTypeID,
			CreatedBy:      r.createdBy,
			CreatedDate:    r.created,
			Status:         r.status,
			FiledBy:        r.filedBy,
			FiledDate:      r.filed,
		})
	}
	if len(docs) == 0 {
		return
	}

	n, err := im.docs.InsertMany(ctx, docs)
	rep.Inserted += int(n)
	if err != nil {
		rep.Failed += len(docs) - int(n)
		log.WithError(err).WithField("rows", len(docs)).Error("import_chunk_failed")
		return
	}
	rep.Duplicates += len(docs) - int(n)
}
