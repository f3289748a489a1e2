package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"certreg/internal/platform/middleware"
	"certreg/internal/registry/models"
	"certreg/pkg/domain"
	dErrors "certreg/pkg/domain-errors"
	"certreg/pkg/platform/httputil"
	"certreg/pkg/requestcontext"
)

// Service defines the registry operations the HTTP boundary exposes.
type Service interface {
	AddIssuer(ctx context.Context, caller, candidate domain.Principal) error
	RemoveIssuer(ctx context.Context, caller, candidate domain.Principal) error
	IsAuthorizedIssuer(ctx context.Context, principal domain.Principal) (bool, error)
	Issue(ctx context.Context, caller domain.Principal, req models.IssueRequest) (*models.Certificate, error)
	Revoke(ctx context.Context, caller domain.Principal, id domain.CertificateID) error
	Get(ctx context.Context, id domain.CertificateID) (*models.Certificate, error)
	IsRevoked(ctx context.Context, id domain.CertificateID) (bool, error)
	GetIssuer(ctx context.Context, id domain.CertificateID) (domain.Principal, error)
}

// Handler wires registry endpoints to the registry service.
type Handler struct {
	service   Service
	validator middleware.TokenValidator
	logger    *slog.Logger
}

// New constructs a registry handler with its dependencies.
func New(service Service, validator middleware.TokenValidator, logger *slog.Logger) *Handler {
	return &Handler{
		service:   service,
		validator: validator,
		logger:    logger,
	}
}

// Register mounts registry endpoints on the router. Reads are open;
// mutations require a bearer token carrying the caller principal.
func (h *Handler) Register(r chi.Router) {
	r.Get("/registry/issuers/{principal}", h.HandleIssuerStatus)
	r.Get("/registry/certificates/{id}", h.HandleGetCertificate)
	r.Get("/registry/certificates/{id}/status", h.HandleCertificateStatus)
	r.Get("/registry/certificates/{id}/issuer", h.HandleCertificateIssuer)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.validator, h.logger))
		r.Post("/registry/issuers", h.HandleAddIssuer)
		r.Delete("/registry/issuers/{principal}", h.HandleRemoveIssuer)
		r.Post("/registry/certificates", h.HandleIssue)
		r.Post("/registry/certificates/{id}/revoke", h.HandleRevoke)
	})
}

// HandleAddIssuer handles POST /registry/issuers requests.
func (h *Handler) HandleAddIssuer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	caller := middleware.GetPrincipal(ctx)
	req, ok := httputil.DecodeAndPrepare[AddIssuerRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.service.AddIssuer(ctx, caller, req.ParsedPrincipal()); err != nil {
		h.logger.WarnContext(ctx, "add issuer failed",
			"request_id", requestID,
			"caller", caller.String(),
			"principal", req.Principal,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, IssuerStatusResponse{
		Principal:  req.ParsedPrincipal().String(),
		Authorized: true,
	})
}

// HandleRemoveIssuer handles DELETE /registry/issuers/{principal} requests.
func (h *Handler) HandleRemoveIssuer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	caller := middleware.GetPrincipal(ctx)
	candidate, err := domain.ParsePrincipal(chi.URLParam(r, "principal"))
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInvalidPrincipal, "invalid principal"))
		return
	}

	if err := h.service.RemoveIssuer(ctx, caller, candidate); err != nil {
		h.logger.WarnContext(ctx, "remove issuer failed",
			"request_id", requestID,
			"caller", caller.String(),
			"principal", candidate.String(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleIssuerStatus handles GET /registry/issuers/{principal} requests.
func (h *Handler) HandleIssuerStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	principal, err := domain.ParsePrincipal(chi.URLParam(r, "principal"))
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInvalidPrincipal, "invalid principal"))
		return
	}

	authorized, err := h.service.IsAuthorizedIssuer(ctx, principal)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, IssuerStatusResponse{
		Principal:  principal.String(),
		Authorized: authorized,
	})
}

// HandleIssue handles POST /registry/certificates requests.
func (h *Handler) HandleIssue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	caller := middleware.GetPrincipal(ctx)
	req, ok := httputil.DecodeAndPrepare[IssueCertificateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	cert, err := h.service.Issue(ctx, caller, req.ToIssueRequest(caller))
	if err != nil {
		h.logger.WarnContext(ctx, "certificate issuance failed",
			"request_id", requestID,
			"caller", caller.String(),
			"course", req.Course,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "certificate issuance handled",
		"request_id", requestID,
		"certificate_id", cert.ID.String(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusCreated, FromCertificate(cert))
}

// HandleRevoke handles POST /registry/certificates/{id}/revoke requests.
func (h *Handler) HandleRevoke(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	caller := middleware.GetPrincipal(ctx)
	certID, err := domain.ParseCertificateID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeValidation, "invalid certificate id"))
		return
	}

	if err := h.service.Revoke(ctx, caller, certID); err != nil {
		h.logger.WarnContext(ctx, "certificate revocation failed",
			"request_id", requestID,
			"caller", caller.String(),
			"certificate_id", certID.String(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, CertificateStatusResponse{
		ID:      certID.String(),
		Revoked: true,
	})
}

// HandleGetCertificate handles GET /registry/certificates/{id} requests.
func (h *Handler) HandleGetCertificate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	certID, err := domain.ParseCertificateID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeValidation, "invalid certificate id"))
		return
	}

	cert, err := h.service.Get(ctx, certID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromCertificate(cert))
}

// HandleCertificateStatus handles GET /registry/certificates/{id}/status requests.
func (h *Handler) HandleCertificateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	certID, err := domain.ParseCertificateID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeValidation, "invalid certificate id"))
		return
	}

	revoked, err := h.service.IsRevoked(ctx, certID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, CertificateStatusResponse{
		ID:      certID.String(),
		Revoked: revoked,
	})
}

// HandleCertificateIssuer handles GET /registry/certificates/{id}/issuer requests.
func (h *Handler) HandleCertificateIssuer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	certID, err := domain.ParseCertificateID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeValidation, "invalid certificate id"))
		return
	}

	issuer, err := h.service.GetIssuer(ctx, certID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, CertificateIssuerResponse{
		ID:     certID.String(),
		Issuer: issuer.String(),
	})
}
