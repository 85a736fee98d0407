// Package sqlstore implements storage.Queries over database/sql. The SQL is
// written once with ? placeholders and rebound for PostgreSQL.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"

	apperrors "github.com/julianstephens/hard75/internal/errors"
	"github.com/julianstephens/hard75/internal/storage"
)

type Dialect int

const (
	SQLite Dialect = iota
	Postgres
)

func (d Dialect) String() string {
	if d == Postgres {
		return "postgres"
	}
	return "sqlite"
}

// rebind rewrites ? placeholders into $1, $2, ... for PostgreSQL.
func (d Dialect) rebind(query string) string {
	if d != Postgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// DBTX is the subset of *sql.DB and *sql.Tx the queries need.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Queries struct {
	db      DBTX
	dialect Dialect
}

var _ storage.Queries = (*Queries)(nil)

func New(db DBTX, dialect Dialect) *Queries {
	return &Queries{db: db, dialect: dialect}
}

func (q *Queries) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return q.db.ExecContext(ctx, q.dialect.rebind(query), args...)
}

func (q *Queries) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return q.db.QueryContext(ctx, q.dialect.rebind(query), args...)
}

func (q *Queries) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return q.db.QueryRowContext(ctx, q.dialect.rebind(query), args...)
}

// insert runs an INSERT ... RETURNING id statement.
func (q *Queries) insert(ctx context.Context, op, query string, args ...any) (int64, error) {
	var id int64
	if err := q.queryRow(ctx, query+" RETURNING id", args...).Scan(&id); err != nil {
		return 0, apperrors.StorageFault(op, err)
	}
	return id, nil
}

// update runs a field-level UPDATE and reports a missing row as not found.
func (q *Queries) update(ctx context.Context, op, kind string, id any, query string, args ...any) error {
	result, err := q.exec(ctx, query, args...)
	if err != nil {
		return apperrors.StorageFault(op, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.StorageFault(op, err)
	}
	if rows == 0 {
		return apperrors.NotFound(kind, id)
	}
	return nil
}

// rowErr classifies the error from a single-row Scan.
func rowErr(op, kind string, id any, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return apperrors.NotFound(kind, id)
	}
	return apperrors.StorageFault(op, err)
}

// RunInTx executes work against a transaction opened on db, committing only
// when work returns nil. opts may be nil.
func RunInTx(ctx context.Context, db *sql.DB, dialect Dialect, opts *sql.TxOptions, work func(storage.Queries) error) error {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return apperrors.StorageFault("begin transaction", err)
	}
	defer tx.Rollback()

	if err := work(New(tx, dialect)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return apperrors.StorageFault("commit transaction", err)
	}
	return nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
