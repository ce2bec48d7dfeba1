package importer

import (
	"encoding/csv"
	"errors"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"docfiling/internal/apperr"
)

const bom = "\ufeff"

// table reads a CSV file whose first line names the columns. Column names
// are matched case-insensitively after trimming.
type table struct {
	name string
	r    *csv.Reader
	cols map[string]int
	line int
}

// record is one data row of a table.
type record struct {
	fields []string
	cols   map[string]int
	line   int
}

func openTable(src Source, required ...string) (*table, error) {
	if !strings.EqualFold(filepath.Ext(src.Name), ".csv") {
		return nil, apperr.Newf(apperr.KindInvalidInput, "file %s must be a CSV file", src.Name)
	}
	if src.Reader == nil {
		return nil, apperr.Newf(apperr.KindInvalidInput, "file %s is empty", src.Name)
	}

	r := csv.NewReader(src.Reader)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	r.LazyQuotes = true

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, apperr.Newf(apperr.KindInvalidInput, "file %s is empty", src.Name)
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInvalidInput, "read header of "+src.Name, err)
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, bom)
		}
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	var missing []string
	for _, c := range required {
		if _, ok := cols[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, apperr.Newf(apperr.KindInvalidInput, "file %s is missing columns: %s", src.Name, strings.Join(missing, ", "))
	}
	return &table{name: src.Name, r: r, cols: cols, line: 1}, nil
}

// next returns the following row, or io.EOF. A malformed line is returned
// as a *csv.ParseError and reading may continue.
func (t *table) next() (record, error) {
	fields, err := t.r.Read()
	t.line++
	if err != nil {
		return record{line: t.line}, err
	}
	return record{fields: fields, cols: t.cols, line: t.line}, nil
}

// get returns the trimmed value of column, or "" when the row is short.
func (r record) get(column string) string {
	i, ok := r.cols[column]
	if !ok || i >= len(r.fields) {
		return ""
	}
	return strings.TrimSpace(r.fields[i])
}

// has reports whether the table defines column.
func (r record) has(column string) bool {
	_, ok := r.cols[column]
	return ok
}

// integer parses column as an integer. Exports sometimes render integers
// as floats ("12.0"), which are accepted when they have no fraction.
func (r record) integer(column string) (int64, bool) {
	v := r.get(column)
	if v == "" {
		return 0, false
	}
	if n, err := strconv.ParseInt(v, 10, 64); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f != float64(int64(f)) {
		return 0, false
	}
	return int64(f), true
}

// isBlank reports whether every field of the row is empty.
func (r record) isBlank() bool {
	for _, f := range r.fields {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
