package service

import (
	"context"
	"errors"

	"certreg/internal/registry/events"
	"certreg/pkg/domain"
	dErrors "certreg/pkg/domain-errors"
	"certreg/pkg/platform/sentinel"
)

// Revoke marks a certificate revoked. Only the issuing principal or the
// authority may revoke, and the transition is one-way: a revoked record can
// never be un-revoked. Everything else on the record is untouched.
func (s *Service) Revoke(ctx context.Context, caller domain.Principal, id domain.CertificateID) error {
	ctx, span := s.tracer.Start(ctx, "registry.Revoke")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	cert, err := s.certs.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.rejected("revoke", string(dErrors.CodeNotFound))
			return dErrors.New(dErrors.CodeNotFound, "certificate not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load certificate")
	}

	if caller != cert.Issuer && caller != s.authority {
		s.rejected("revoke", string(dErrors.CodeUnauthorized))
		return dErrors.New(dErrors.CodeUnauthorized, "caller may not revoke this certificate")
	}
	if cert.Revoked {
		s.rejected("revoke", string(dErrors.CodeAlreadyRevoked))
		return dErrors.New(dErrors.CodeAlreadyRevoked, "certificate is already revoked")
	}

	if err := s.certs.MarkRevoked(ctx, id); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to revoke certificate")
	}

	// Best effort; the ledger is authoritative and the cache only ever
	// holds confirmed revocations.
	if s.status != nil {
		if err := s.status.MarkRevoked(ctx, id); err != nil {
			s.logger.WarnContext(ctx, "failed to cache revocation status",
				"certificate_id", id.String(), "error", err)
		}
	}

	s.logger.InfoContext(ctx, "certificate revoked",
		"certificate_id", id.String(),
		"revoked_by", caller.String(),
	)
	if s.metrics != nil {
		s.metrics.CertificatesRevoked.Inc()
	}
	s.emit(ctx, events.Event{
		Kind:          events.KindCertificateRevoked,
		CertificateID: id,
		RevokedBy:     caller,
	})
	return nil
}
