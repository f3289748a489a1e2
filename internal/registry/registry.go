package registry

import (
	"log/slog"

	"certreg/internal/platform/middleware"
	"certreg/internal/registry/handler"
	"certreg/internal/registry/service"
	"certreg/pkg/domain"
)

// Service exposes the registry state machine: issuer set administration,
// issuance, revocation and queries.
type Service = service.Service

// Handler wires HTTP endpoints to the registry service.
type Handler = handler.Handler

// NewService constructs the registry service for one authority.
func NewService(authority domain.Principal, issuers service.IssuerStore, certs service.CertificateStore, opts ...service.Option) *Service {
	return service.New(authority, issuers, certs, opts...)
}

// NewHandler constructs an HTTP handler for registry routes.
func NewHandler(s *Service, validator middleware.TokenValidator, logger *slog.Logger) *Handler {
	return handler.New(s, validator, logger)
}
