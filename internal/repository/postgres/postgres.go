package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"net"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"docfiling/internal/apperr"
)

// PostgreSQL error codes handled explicitly.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"
	codeInvalidText         = "22P02"
)

// conflictMessages maps unique constraint names to caller-safe messages.
var conflictMessages = map[string]string{
	"departments_name_key":                  "department name already exists",
	"departments_external_id_key":           "department external id already exists",
	"document_types_prefix_key":             "document type prefix already in use",
	"document_types_department_id_name_key": "document type name already exists in department",
	"document_types_external_id_key":        "document type external id already exists",
	"documents_ref_no_key":                  "reference number already exists",
	"admins_username_key":                   "admin already exists",
}

// translate classifies a driver error. notFound is the message reported for
// sql.ErrNoRows.
func translate(err error, notFound string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.Wrap(apperr.KindNotFound, notFound, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			msg, ok := conflictMessages[pgErr.ConstraintName]
			if !ok {
				msg = "duplicate record"
			}
			return apperr.Wrap(apperr.KindConflict, msg, err)
		case codeForeignKeyViolation:
			return apperr.Wrap(apperr.KindConflict, "record is referenced by or references a missing record", err)
		case codeCheckViolation:
			return apperr.Wrap(apperr.KindInvalidInput, "value violates a constraint", err)
		case codeInvalidText:
			return apperr.Wrap(apperr.KindInvalidInput, "malformed identifier", err)
		}
		// Class 08 is connection exceptions, 57P0x is operator intervention.
		if strings.HasPrefix(pgErr.Code, "08") || strings.HasPrefix(pgErr.Code, "57P0") {
			return apperr.Wrap(apperr.KindStorageUnavailable, "database unavailable", err)
		}
		return err
	}

	var connErr *pgconn.ConnectError
	var netErr net.Error
	if errors.As(err, &connErr) || errors.As(err, &netErr) || errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return apperr.Wrap(apperr.KindStorageUnavailable, "database unavailable", err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return apperr.Wrap(apperr.KindStorageUnavailable, "database timed out", err)
	}
	return err
}

// placeholders renders "$start, $start+1, ..." for n parameters.
func placeholders(start, n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('$')
		b.WriteString(strconv.Itoa(start + i))
	}
	return b.String()
}

func stringArgs(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

func int64Args(values []int64) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func ptrString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func ptrInt64(ni sql.NullInt64) *int64 {
	if !ni.Valid {
		return nil
	}
	v := ni.Int64
	return &v
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}
