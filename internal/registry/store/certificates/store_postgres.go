package certificates

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"certreg/internal/registry/models"
	"certreg/pkg/domain"
	"certreg/pkg/platform/sentinel"
	txcontext "certreg/pkg/platform/tx"
)

// Schema is the DDL for the certificates table. Applied by deployment
// migrations and by integration tests.
const Schema = `
CREATE TABLE IF NOT EXISTS certificates (
    id             TEXT PRIMARY KEY,
    issuer         TEXT NOT NULL,
    recipient      TEXT NOT NULL DEFAULT '',
    recipient_name TEXT NOT NULL,
    course         TEXT NOT NULL,
    grade          TEXT NOT NULL DEFAULT '',
    issued_on      TIMESTAMPTZ NOT NULL,
    attachment_ref TEXT NOT NULL DEFAULT '',
    revoked        BOOLEAN NOT NULL DEFAULT FALSE,
    created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);`

// Postgres persists the ledger in PostgreSQL.
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed certificate store.
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

func (s *Postgres) Insert(ctx context.Context, cert *models.Certificate) error {
	if cert == nil {
		return fmt.Errorf("certificate is required")
	}
	recipient := ""
	if !cert.Recipient.IsZero() {
		recipient = cert.Recipient.String()
	}
	res, err := s.execer(ctx).ExecContext(ctx,
		`INSERT INTO certificates (id, issuer, recipient, recipient_name, course, grade, issued_on, attachment_ref, revoked)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (id) DO NOTHING`,
		cert.ID.String(),
		cert.Issuer.String(),
		recipient,
		cert.RecipientName,
		cert.Course,
		cert.Grade,
		cert.IssuedOn,
		cert.AttachmentRef,
		cert.Revoked,
	)
	if err != nil {
		return fmt.Errorf("insert certificate: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert certificate: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrConflict
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, id domain.CertificateID) (*models.Certificate, error) {
	row := s.execer(ctx).QueryRowContext(ctx,
		`SELECT id, issuer, recipient, recipient_name, course, grade, issued_on, attachment_ref, revoked
		 FROM certificates WHERE id = $1`,
		id.String(),
	)

	var (
		rawID, rawIssuer, rawRecipient string
		cert                           models.Certificate
	)
	err := row.Scan(&rawID, &rawIssuer, &rawRecipient, &cert.RecipientName,
		&cert.Course, &cert.Grade, &cert.IssuedOn, &cert.AttachmentRef, &cert.Revoked)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find certificate: %w", err)
	}

	if cert.ID, err = domain.ParseCertificateID(rawID); err != nil {
		return nil, fmt.Errorf("find certificate: corrupt id column: %w", err)
	}
	if cert.Issuer, err = domain.ParsePrincipal(rawIssuer); err != nil {
		return nil, fmt.Errorf("find certificate: corrupt issuer column: %w", err)
	}
	if rawRecipient != "" {
		if cert.Recipient, err = domain.ParsePrincipal(rawRecipient); err != nil {
			return nil, fmt.Errorf("find certificate: corrupt recipient column: %w", err)
		}
	}
	return &cert, nil
}

func (s *Postgres) Exists(ctx context.Context, id domain.CertificateID) (bool, error) {
	var exists bool
	err := s.execer(ctx).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM certificates WHERE id = $1)`,
		id.String(),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check certificate existence: %w", err)
	}
	return exists, nil
}

func (s *Postgres) MarkRevoked(ctx context.Context, id domain.CertificateID) error {
	res, err := s.execer(ctx).ExecContext(ctx,
		`UPDATE certificates SET revoked = TRUE WHERE id = $1`,
		id.String(),
	)
	if err != nil {
		return fmt.Errorf("mark certificate revoked: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark certificate revoked: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
