package postgres

import (
	"context"
	"database/sql"

	"docfiling/internal/model"
	"docfiling/internal/repository"
)

const msgDocumentTypeNotFound = "document type not found in department"

// CounterPostgres keeps counters in the document_types.counters JSONB column.
// Each method is a single UPDATE or SELECT, so row locking serializes
// concurrent increments of the same type while other types stay parallel.
type CounterPostgres struct {
	db *sql.DB
}

// NewCounterPostgres creates a new CounterPostgres store.
func NewCounterPostgres(db *sql.DB) *CounterPostgres {
	return &CounterPostgres{db: db}
}

var _ repository.CounterStore = (*CounterPostgres)(nil)

// Increment adds one to the year's counter and returns the new value.
func (c *CounterPostgres) Increment(ctx context.Context, key repository.CounterKey) (int64, error) {
	const q = `
		UPDATE document_types
		SET counters = jsonb_set(counters, ARRAY[$3::text], to_jsonb(COALESCE((counters->>$3::text)::bigint, 0) + 1))
		WHERE id = $1 AND department_id = $2
		RETURNING (counters->>$3::text)::bigint
	`
	var v int64
	err := c.db.QueryRowContext(ctx, q, key.DocumentTypeID, key.DepartmentID, model.YearKey(key.Year)).Scan(&v)
	if err != nil {
		return 0, translate(err, msgDocumentTypeNotFound)
	}
	return v, nil
}

// Decrement rolls the counter back by one only while it still equals expected
// and the type still carries prefix. It reports whether a row changed.
func (c *CounterPostgres) Decrement(ctx context.Context, key repository.CounterKey, prefix string, expected int64) (bool, error) {
	if expected <= 0 {
		return false, nil
	}
	const q = `
		UPDATE document_types
		SET counters = jsonb_set(counters, ARRAY[$3::text], to_jsonb((counters->>$3::text)::bigint - 1))
		WHERE id = $1 AND department_id = $2 AND prefix = $4
		  AND (counters->>$3::text)::bigint = $5::bigint
	`
	res, err := c.db.ExecContext(ctx, q, key.DocumentTypeID, key.DepartmentID, model.YearKey(key.Year), prefix, expected)
	if err != nil {
		return false, translate(err, msgDocumentTypeNotFound)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Read returns the current counter value, zero when the year has none.
func (c *CounterPostgres) Read(ctx context.Context, key repository.CounterKey) (int64, error) {
	const q = `
		SELECT COALESCE((counters->>$3::text)::bigint, 0)
		FROM document_types
		WHERE id = $1 AND department_id = $2
	`
	var v int64
	err := c.db.QueryRowContext(ctx, q, key.DocumentTypeID, key.DepartmentID, model.YearKey(key.Year)).Scan(&v)
	if err != nil {
		return 0, translate(err, msgDocumentTypeNotFound)
	}
	return v, nil
}
