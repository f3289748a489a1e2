package service

import (
	"context"
	"errors"

	"certreg/internal/registry/models"
	"certreg/pkg/domain"
	dErrors "certreg/pkg/domain-errors"
	"certreg/pkg/platform/sentinel"
)

// Queries never mutate registry state and never take the mutation lock: a
// read concurrent with a write sees either the pre- or the post-state.

// Exists reports whether a certificate with the given id has been recorded.
func (s *Service) Exists(ctx context.Context, id domain.CertificateID) (bool, error) {
	exists, err := s.certs.Exists(ctx, id)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check certificate existence")
	}
	return exists, nil
}

// Get returns the full certificate record.
func (s *Service) Get(ctx context.Context, id domain.CertificateID) (*models.Certificate, error) {
	cert, err := s.certs.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "certificate not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load certificate")
	}
	return cert, nil
}

// IsRevoked reports the revocation status of an existing certificate. A
// cache hit short-circuits the ledger read; a miss falls through, and a
// revoked ledger answer is written back to the cache.
func (s *Service) IsRevoked(ctx context.Context, id domain.CertificateID) (bool, error) {
	if s.status != nil {
		revoked, err := s.status.IsRevoked(ctx, id)
		if err != nil {
			s.logger.WarnContext(ctx, "status cache lookup failed",
				"certificate_id", id.String(), "error", err)
		} else if revoked {
			return true, nil
		}
	}

	cert, err := s.Get(ctx, id)
	if err != nil {
		return false, err
	}
	if cert.Revoked && s.status != nil {
		if err := s.status.MarkRevoked(ctx, id); err != nil {
			s.logger.WarnContext(ctx, "failed to backfill status cache",
				"certificate_id", id.String(), "error", err)
		}
	}
	return cert.Revoked, nil
}

// GetIssuer returns the principal that issued the certificate.
func (s *Service) GetIssuer(ctx context.Context, id domain.CertificateID) (domain.Principal, error) {
	cert, err := s.Get(ctx, id)
	if err != nil {
		return domain.Principal{}, err
	}
	return cert.Issuer, nil
}
