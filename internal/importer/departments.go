package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"docfiling/internal/apperr"
	"docfiling/internal/metrics"
	"docfiling/internal/model"
)

const defaultPadding = 4

// prefixInfo is the numbering state of one legacy document type.
type prefixInfo struct {
	prefix   string
	padding  int
	counters map[string]int64
}

// ImportDepartments joins the departments, document types and generated id
// tables by their legacy integer ids and upserts every department with its
// types. Types without a generated id row get the prefix DEFAULT_<id> and
// padding 4. Re-importing the same files updates rows in place.
func (im *Importer) ImportDepartments(ctx context.Context, departments, documentTypes, generatedIDs Source) (*DepartmentReport, error) {
	dt, err := openTable(departments, "id", "name")
	if err != nil {
		return nil, err
	}
	tt, err := openTable(documentTypes, "id", "departmentid", "name")
	if err != nil {
		return nil, err
	}
	gt, err := openTable(generatedIDs, "documenttypeid", "prefix", "padding", "year", "number")
	if err != nil {
		return nil, err
	}

	rep := &DepartmentReport{}
	now := im.now().UTC()
	log := im.log.WithField("stream", StreamDepartments)

	order, depts, err := im.readDepartments(dt, now, rep, log)
	if err != nil {
		return nil, err
	}
	prefixes, err := im.readPrefixes(gt, rep, log)
	if err != nil {
		return nil, err
	}
	if err := im.readDocumentTypes(tt, depts, prefixes, now, rep, log); err != nil {
		return nil, err
	}

	for _, ext := range order {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		dept := depts[ext]
		res, err := im.depts.UpsertByExternalID(ctx, dept)
		if err != nil {
			rep.Failed++
			log.WithError(err).WithFields(logrus.Fields{
				"external_id": ext,
				"name":        dept.Name,
			}).Warn("import_department_failed")
			continue
		}
		rep.Departments++
		rep.DocumentTypes += res.DocumentTypes
		if res.Created {
			rep.Created++
		} else {
			rep.Updated++
		}
	}

	im.metrics.ImportRows(StreamDepartments, metrics.OutcomeInserted, rep.Departments)
	im.metrics.ImportRows(StreamDepartments, metrics.OutcomeSkipped, rep.SkippedRows)
	im.metrics.ImportRows(StreamDepartments, metrics.OutcomeFailed, rep.Failed)

	if rep.Departments == 0 {
		return rep, apperr.New(apperr.KindInvalidInput, "no departments could be processed, check the CSV files")
	}
	log.WithFields(logrus.Fields{
		"departments":    rep.Departments,
		"document_types": rep.DocumentTypes,
		"skipped_rows":   rep.SkippedRows,
		"failed":         rep.Failed,
	}).Info("import_finished")
	return rep, nil
}

// eachRow calls fn for every data row of t, skipping blank lines and
// counting malformed ones. A read error other than a parse error aborts.
func eachRow(t *table, skipped *int, log logrus.FieldLogger, fn func(record)) error {
	for {
		rec, err := t.next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		var pe *csv.ParseError
		if errors.As(err, &pe) {
			skipRow(log, t.name, rec.line, err.Error(), skipped)
			continue
		}
		if err != nil {
			return apperr.Wrap(apperr.KindInvalidInput, "read "+t.name, err)
		}
		if rec.isBlank() {
			continue
		}
		fn(rec)
	}
}

func skipRow(log logrus.FieldLogger, file string, line int, reason string, skipped *int) {
	*skipped++
	log.WithFields(logrus.Fields{"file": file, "line": line, "reason": reason}).Warn("import_row_skipped")
}

func (im *Importer) readDepartments(t *table, now time.Time, rep *DepartmentReport, log logrus.FieldLogger) ([]int64, map[int64]*model.Department, error) {
	var order []int64
	depts := map[int64]*model.Department{}
	err := eachRow(t, &rep.SkippedRows, log, func(rec record) {
		id, ok := rec.integer("id")
		if !ok {
			skipRow(log, t.name, rec.line, "invalid id", &rep.SkippedRows)
			return
		}
		name := rec.get("name")
		if name == "" {
			skipRow(log, t.name, rec.line, "missing name", &rep.SkippedRows)
			return
		}
		if _, dup := depts[id]; dup {
			skipRow(log, t.name, rec.line, "duplicate department id", &rep.SkippedRows)
			return
		}
		status := model.DepartmentActive
		if rec.has("status") && rec.get("status") != "" {
			v, ok := rec.integer("status")
			if !ok || !model.DepartmentStatus(v).Valid() {
				skipRow(log, t.name, rec.line, "invalid status", &rep.SkippedRows)
				return
			}
			status = model.DepartmentStatus(v)
		}
		ext := id
		depts[id] = &model.Department{
			ID:            uuid.NewString(),
			ExternalID:    &ext,
			Name:          name,
			Status:        status,
			CreatedDate:   now,
			DocumentTypes: []model.DocumentType{},
		}
		order = append(order, id)
	})
	return order, depts, err
}

func (im *Importer) readPrefixes(t *table, rep *DepartmentReport, log logrus.FieldLogger) (map[int64]*prefixInfo, error) {
	out := map[int64]*prefixInfo{}
	err := eachRow(t, &rep.SkippedRows, log, func(rec record) {
		typeID, ok := rec.integer("documenttypeid")
		if !ok {
			skipRow(log, t.name, rec.line, "invalid documenttypeid", &rep.SkippedRows)
			return
		}
		prefix := rec.get("prefix")
		padding, okPad := rec.integer("padding")
		year, okYear := rec.integer("year")
		number, okNum := rec.integer("number")
		if prefix == "" || !okPad || padding < 1 || !okYear || !okNum || number < 0 {
			skipRow(log, t.name, rec.line, "invalid prefix row", &rep.SkippedRows)
			return
		}
		if year < 100 {
			year += 2000
		}

		info, seen := out[typeID]
		if !seen {
			info = &prefixInfo{prefix: prefix, padding: int(padding), counters: map[string]int64{}}
			out[typeID] = info
		}
		key := model.YearKey(int(year))
		// Counters never move backwards.
		if number > info.counters[key] {
			info.counters[key] = number
		}
	})
	return out, err
}

func (im *Importer) readDocumentTypes(t *table, depts map[int64]*model.Department, prefixes map[int64]*prefixInfo, now time.Time, rep *DepartmentReport, log logrus.FieldLogger) error {
	seen := map[int64]struct{}{}
	return eachRow(t, &rep.SkippedRows, log, func(rec record) {
		id, okID := rec.integer("id")
		deptID, okDept := rec.integer("departmentid")
		name := rec.get("name")
		if !okID || !okDept || name == "" {
			skipRow(log, t.name, rec.line, "missing id, departmentid or name", &rep.SkippedRows)
			return
		}
		dept, ok := depts[deptID]
		if !ok {
			skipRow(log, t.name, rec.line, "unknown department "+strconv.FormatInt(deptID, 10), &rep.SkippedRows)
			return
		}
		if _, dup := seen[id]; dup {
			skipRow(log, t.name, rec.line, "duplicate document type id", &rep.SkippedRows)
			return
		}
		seen[id] = struct{}{}

		ext := id
		dt := model.DocumentType{
			ID:           uuid.NewString(),
			DepartmentID: dept.ID,
			ExternalID:   &ext,
			Name:         name,
			Prefix:       "DEFAULT_" + strconv.FormatInt(id, 10),
			Padding:      defaultPadding,
			Counters:     map[string]int64{},
			CreatedDate:  now,
		}
		if info, ok := prefixes[id]; ok {
			dt.Prefix = info.prefix
			dt.Padding = info.padding
			dt.Counters = info.counters
		}
		dept.DocumentTypes = append(dept.DocumentTypes, dt)
	})
}
