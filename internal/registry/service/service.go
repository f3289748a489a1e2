// Package service implements the registry core: the authorization gate, the
// issuance and revocation protocols, and the read-only query surface. All
// policy lives here; stores hold state, handlers hold transport.
package service

import (
	"context"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"certreg/internal/registry/events"
	"certreg/internal/registry/metrics"
	"certreg/internal/registry/models"
	"certreg/pkg/domain"
	"certreg/pkg/requestcontext"
)

// IssuerStore holds the mutable issuer set. The authority principal is not
// stored; it is fixed at service construction.
type IssuerStore interface {
	Add(ctx context.Context, principal domain.Principal) error
	Remove(ctx context.Context, principal domain.Principal) error
	IsMember(ctx context.Context, principal domain.Principal) (bool, error)
}

// CertificateStore is the ledger: records keyed by certificate id.
type CertificateStore interface {
	Insert(ctx context.Context, cert *models.Certificate) error
	FindByID(ctx context.Context, id domain.CertificateID) (*models.Certificate, error)
	Exists(ctx context.Context, id domain.CertificateID) (bool, error)
	MarkRevoked(ctx context.Context, id domain.CertificateID) error
}

// StatusCache is an optional fast path for revocation status reads. A miss
// is never authoritative; the ledger is.
type StatusCache interface {
	IsRevoked(ctx context.Context, id domain.CertificateID) (bool, error)
	MarkRevoked(ctx context.Context, id domain.CertificateID) error
}

// Service is the registry state machine for one authority. Mutations are
// strictly serialized by mu, so no caller ever observes a partially applied
// mutation; reads bypass the lock and see either the pre- or post-state.
type Service struct {
	authority domain.Principal

	mu      sync.Mutex
	issuers IssuerStore
	certs   CertificateStore
	status  StatusCache

	logger  *slog.Logger
	events  events.Publisher
	metrics *metrics.Metrics
	tracer  trace.Tracer
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithEvents(publisher events.Publisher) Option {
	return func(s *Service) {
		s.events = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithStatusCache(cache StatusCache) Option {
	return func(s *Service) {
		s.status = cache
	}
}

// New constructs the registry service. The authority is fixed for the
// lifetime of the instance and is implicitly authorized to issue and to
// revoke any record.
func New(authority domain.Principal, issuers IssuerStore, certs CertificateStore, opts ...Option) *Service {
	s := &Service{
		authority: authority,
		issuers:   issuers,
		certs:     certs,
		logger:    slog.Default(),
		tracer:    otel.Tracer("certreg/registry"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Authority returns the owning principal of this registry instance.
func (s *Service) Authority() domain.Principal {
	return s.authority
}

// isAuthorized is the single authorization check used by every write path:
// the authority is always authorized, everyone else must be in the issuer set.
func (s *Service) isAuthorized(ctx context.Context, principal domain.Principal) (bool, error) {
	if principal == s.authority {
		return true, nil
	}
	return s.issuers.IsMember(ctx, principal)
}

// emit appends a notification within the mutating call. Publisher failures
// are logged, never surfaced: the mutation is already committed.
func (s *Service) emit(ctx context.Context, event events.Event) {
	if s.events == nil {
		return
	}
	event.Timestamp = requestcontext.Now(ctx)
	event.RequestID = requestcontext.RequestID(ctx)
	if err := s.events.Emit(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "failed to emit registry event",
			"kind", string(event.Kind),
			"error", err,
		)
	}
}

func (s *Service) rejected(operation, code string) {
	if s.metrics != nil {
		s.metrics.Rejected(operation, code)
	}
}
