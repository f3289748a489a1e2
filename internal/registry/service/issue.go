package service

import (
	"context"
	"errors"

	"certreg/internal/registry/events"
	"certreg/internal/registry/models"
	"certreg/pkg/domain"
	dErrors "certreg/pkg/domain-errors"
	"certreg/pkg/platform/sentinel"
	"certreg/pkg/requestcontext"
)

// Issue validates and commits a new certificate record. Validation is fully
// side-effect-free: the first failing check rejects the request and nothing
// is written. On success the record is committed with issuer = caller and
// revoked = false, and a CertificateIssued notification is emitted.
//
// The certificate id is supplied by the caller (typically derived with
// domain.DeriveCertificateID); the registry's only obligation is rejecting
// collisions.
func (s *Service) Issue(ctx context.Context, caller domain.Principal, req models.IssueRequest) (*models.Certificate, error) {
	ctx, span := s.tracer.Start(ctx, "registry.Issue")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	authorized, err := s.isAuthorized(ctx, caller)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check issuer authorization")
	}
	if !authorized {
		s.rejected("issue", string(dErrors.CodeUnauthorized))
		return nil, dErrors.New(dErrors.CodeUnauthorized, "caller is not an authorized issuer")
	}

	exists, err := s.certs.Exists(ctx, req.ID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check certificate existence")
	}
	if exists {
		s.rejected("issue", string(dErrors.CodeDuplicateID))
		return nil, dErrors.New(dErrors.CodeDuplicateID, "certificate id already exists")
	}

	if req.RecipientName == "" {
		s.rejected("issue", string(dErrors.CodeInvalidInput))
		return nil, dErrors.New(dErrors.CodeInvalidInput, "recipient name required")
	}
	if req.Course == "" {
		s.rejected("issue", string(dErrors.CodeInvalidInput))
		return nil, dErrors.New(dErrors.CodeInvalidInput, "course required")
	}
	if req.IssuedOn.After(requestcontext.Now(ctx)) {
		s.rejected("issue", string(dErrors.CodeInvalidInput))
		return nil, dErrors.New(dErrors.CodeInvalidInput, "issuance date in the future")
	}

	cert, err := models.NewCertificate(req.ID, caller, req.Recipient,
		req.RecipientName, req.Course, req.Grade, req.IssuedOn, req.AttachmentRef)
	if err != nil {
		return nil, err
	}

	if err := s.certs.Insert(ctx, cert); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			s.rejected("issue", string(dErrors.CodeDuplicateID))
			return nil, dErrors.New(dErrors.CodeDuplicateID, "certificate id already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to insert certificate")
	}

	s.logger.InfoContext(ctx, "certificate issued",
		"certificate_id", cert.ID.String(),
		"issuer", cert.Issuer.String(),
		"course", cert.Course,
	)
	if s.metrics != nil {
		s.metrics.CertificatesIssued.Inc()
	}
	s.emit(ctx, events.Event{
		Kind:          events.KindCertificateIssued,
		CertificateID: cert.ID,
		Issuer:        cert.Issuer,
		Recipient:     cert.Recipient,
		RecipientName: cert.RecipientName,
		Course:        cert.Course,
	})
	return cert, nil
}
