package service

import (
	"context"
	"errors"

	"certreg/internal/registry/events"
	"certreg/pkg/domain"
	dErrors "certreg/pkg/domain-errors"
	"certreg/pkg/platform/sentinel"
)

// AddIssuer authorizes a principal to issue certificates. Only the authority
// may administer the issuer set.
func (s *Service) AddIssuer(ctx context.Context, caller, candidate domain.Principal) error {
	ctx, span := s.tracer.Start(ctx, "registry.AddIssuer")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	if caller != s.authority {
		s.rejected("add_issuer", string(dErrors.CodeUnauthorized))
		return dErrors.New(dErrors.CodeUnauthorized, "only the authority may add issuers")
	}
	if candidate.IsZero() {
		s.rejected("add_issuer", string(dErrors.CodeInvalidPrincipal))
		return dErrors.New(dErrors.CodeInvalidPrincipal, "issuer principal is required")
	}
	if candidate == s.authority {
		// The authority is implicitly a member and is never stored.
		s.rejected("add_issuer", string(dErrors.CodeAlreadyAuthorized))
		return dErrors.New(dErrors.CodeAlreadyAuthorized, "principal is already authorized")
	}

	if err := s.issuers.Add(ctx, candidate); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			s.rejected("add_issuer", string(dErrors.CodeAlreadyAuthorized))
			return dErrors.New(dErrors.CodeAlreadyAuthorized, "principal is already authorized")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to add issuer")
	}

	s.logger.InfoContext(ctx, "issuer added", "principal", candidate.String())
	if s.metrics != nil {
		s.metrics.IssuersAdded.Inc()
	}
	s.emit(ctx, events.Event{Kind: events.KindIssuerAdded, Principal: candidate})
	return nil
}

// RemoveIssuer withdraws a principal's authorization. The authority itself
// can never be removed.
func (s *Service) RemoveIssuer(ctx context.Context, caller, candidate domain.Principal) error {
	ctx, span := s.tracer.Start(ctx, "registry.RemoveIssuer")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	if caller != s.authority {
		s.rejected("remove_issuer", string(dErrors.CodeUnauthorized))
		return dErrors.New(dErrors.CodeUnauthorized, "only the authority may remove issuers")
	}
	if candidate == s.authority {
		s.rejected("remove_issuer", string(dErrors.CodeProtectedPrincipal))
		return dErrors.New(dErrors.CodeProtectedPrincipal, "the authority cannot be removed")
	}

	if err := s.issuers.Remove(ctx, candidate); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.rejected("remove_issuer", string(dErrors.CodeNotAuthorized))
			return dErrors.New(dErrors.CodeNotAuthorized, "principal is not an authorized issuer")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to remove issuer")
	}

	s.logger.InfoContext(ctx, "issuer removed", "principal", candidate.String())
	if s.metrics != nil {
		s.metrics.IssuersRemoved.Inc()
	}
	s.emit(ctx, events.Event{Kind: events.KindIssuerRemoved, Principal: candidate})
	return nil
}

// IsAuthorizedIssuer reports whether the principal may issue certificates.
// Pure read; no side effects.
func (s *Service) IsAuthorizedIssuer(ctx context.Context, principal domain.Principal) (bool, error) {
	authorized, err := s.isAuthorized(ctx, principal)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check issuer authorization")
	}
	return authorized, nil
}
