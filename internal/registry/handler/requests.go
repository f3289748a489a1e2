package handler

import (
	"strings"
	"time"

	"certreg/internal/registry/models"
	"certreg/pkg/domain"
	dErrors "certreg/pkg/domain-errors"
)

// AddIssuerRequest is the HTTP request body for POST /registry/issuers.
type AddIssuerRequest struct {
	Principal string `json:"principal"`

	parsedPrincipal domain.Principal
}

// Validate validates and parses the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *AddIssuerRequest) Validate() error {
	r.Principal = strings.TrimSpace(r.Principal)
	if r.Principal == "" {
		return dErrors.New(dErrors.CodeValidation, "principal is required")
	}
	principal, err := domain.ParsePrincipal(r.Principal)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInvalidPrincipal, "invalid principal")
	}
	r.parsedPrincipal = principal
	return nil
}

// ParsedPrincipal returns the validated principal.
func (r *AddIssuerRequest) ParsedPrincipal() domain.Principal {
	return r.parsedPrincipal
}

// IssueCertificateRequest is the HTTP request body for POST /registry/certificates.
// The id is optional: when omitted it is derived from the issuance inputs.
type IssueCertificateRequest struct {
	ID            string    `json:"id,omitempty"`
	Recipient     string    `json:"recipient,omitempty"`
	RecipientName string    `json:"recipient_name"`
	Course        string    `json:"course"`
	Grade         string    `json:"grade,omitempty"`
	IssuedOn      time.Time `json:"issued_on"`
	AttachmentRef string    `json:"attachment_ref,omitempty"`

	parsedID        domain.CertificateID
	parsedRecipient domain.Principal
}

// Validate validates and parses the request. Issuance-policy checks (duplicate
// id, future date) stay in the service; this rejects only malformed input.
func (r *IssueCertificateRequest) Validate() error {
	r.RecipientName = strings.TrimSpace(r.RecipientName)
	if r.RecipientName == "" {
		return dErrors.New(dErrors.CodeValidation, "recipient_name is required")
	}
	r.Course = strings.TrimSpace(r.Course)
	if r.Course == "" {
		return dErrors.New(dErrors.CodeValidation, "course is required")
	}
	if r.IssuedOn.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "issued_on is required")
	}

	if r.Recipient = strings.TrimSpace(r.Recipient); r.Recipient != "" {
		recipient, err := domain.ParsePrincipal(r.Recipient)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInvalidPrincipal, "invalid recipient")
		}
		r.parsedRecipient = recipient
	}
	if r.ID = strings.TrimSpace(r.ID); r.ID != "" {
		certID, err := domain.ParseCertificateID(r.ID)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeValidation, "invalid certificate id")
		}
		r.parsedID = certID
	}
	return nil
}

// ToIssueRequest builds the domain issuance request for the given issuer,
// deriving the certificate id when the caller did not supply one.
func (r *IssueCertificateRequest) ToIssueRequest(issuer domain.Principal) models.IssueRequest {
	certID := r.parsedID
	if certID.IsZero() {
		certID = domain.DeriveCertificateID(issuer, r.parsedRecipient, r.RecipientName, r.Course, r.IssuedOn)
	}
	return models.IssueRequest{
		ID:            certID,
		Recipient:     r.parsedRecipient,
		RecipientName: r.RecipientName,
		Course:        r.Course,
		Grade:         r.Grade,
		IssuedOn:      r.IssuedOn,
		AttachmentRef: r.AttachmentRef,
	}
}
