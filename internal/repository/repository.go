package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Querier is satisfied by both *sql.DB and *sql.Tx, so every function in this
// package can run standalone or inside a caller-owned transaction.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

var (
	ErrNotFound     = errors.New("not found")
	ErrNoLicenseKey = errors.New("no license key available")
)

// timeLayout is fixed-width UTC so that lexical order in SQLite equals time order.
const timeLayout = "2006-01-02T15:04:05.000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	for _, layout := range []string{timeLayout, time.RFC3339Nano, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func nullTime(ns sql.NullString) *time.Time {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	t := parseTime(ns.String)
	if t.IsZero() {
		return nil
	}
	return &t
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func affectedOne(res sql.Result) (bool, error) {
	ra, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return ra == 1, nil
}
