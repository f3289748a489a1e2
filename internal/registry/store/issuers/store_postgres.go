package issuers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"certreg/pkg/domain"
	"certreg/pkg/platform/sentinel"
	txcontext "certreg/pkg/platform/tx"
)

// Schema is the DDL for the issuers table. Applied by deployment migrations
// and by integration tests.
const Schema = `
CREATE TABLE IF NOT EXISTS issuers (
    principal TEXT PRIMARY KEY,
    added_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);`

// Postgres persists the issuer set in PostgreSQL.
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed issuer store.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// execer joins an ambient transaction when the caller carries one.
func (s *Postgres) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *Postgres) Add(ctx context.Context, principal domain.Principal) error {
	res, err := s.execer(ctx).ExecContext(ctx,
		`INSERT INTO issuers (principal) VALUES ($1) ON CONFLICT (principal) DO NOTHING`,
		principal.String(),
	)
	if err != nil {
		return fmt.Errorf("add issuer: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("add issuer: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrConflict
	}
	return nil
}

func (s *Postgres) Remove(ctx context.Context, principal domain.Principal) error {
	res, err := s.execer(ctx).ExecContext(ctx,
		`DELETE FROM issuers WHERE principal = $1`,
		principal.String(),
	)
	if err != nil {
		return fmt.Errorf("remove issuer: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("remove issuer: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) IsMember(ctx context.Context, principal domain.Principal) (bool, error) {
	var member bool
	err := s.execer(ctx).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM issuers WHERE principal = $1)`,
		principal.String(),
	).Scan(&member)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check issuer membership: %w", err)
	}
	return member, nil
}
