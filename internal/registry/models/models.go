package models

import (
	"time"

	"certreg/pkg/domain"
	dErrors "certreg/pkg/domain-errors"
)

// Certificate is a credential record in the ledger. Every field except
// Revoked is permanently immutable after creation; Revoked transitions
// false to true exactly once and never back.
type Certificate struct {
	ID            domain.CertificateID
	Issuer        domain.Principal
	Recipient     domain.Principal // zero when no on-ledger recipient was supplied
	RecipientName string
	Course        string
	Grade         string
	IssuedOn      time.Time
	AttachmentRef string
	Revoked       bool
}

// NewCertificate constructs a certificate, enforcing record invariants.
// Issuance-policy checks (authorization, duplicate id, issuance date) belong
// to the service; this guards only what must hold for any record to exist.
func NewCertificate(
	id domain.CertificateID,
	issuer domain.Principal,
	recipient domain.Principal,
	recipientName string,
	course string,
	grade string,
	issuedOn time.Time,
	attachmentRef string,
) (*Certificate, error) {
	if issuer.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "certificate issuer is required")
	}
	if recipientName == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "certificate recipient name is required")
	}
	if course == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "certificate course is required")
	}
	if issuedOn.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "certificate issuance date is required")
	}
	return &Certificate{
		ID:            id,
		Issuer:        issuer,
		Recipient:     recipient,
		RecipientName: recipientName,
		Course:        course,
		Grade:         grade,
		IssuedOn:      issuedOn,
		AttachmentRef: attachmentRef,
		Revoked:       false,
	}, nil
}

// IssueRequest carries the caller-supplied inputs for issuance. The id is
// derived by the calling layer (see domain.DeriveCertificateID); the registry
// only enforces its uniqueness.
type IssueRequest struct {
	ID            domain.CertificateID
	Recipient     domain.Principal
	RecipientName string
	Course        string
	Grade         string
	IssuedOn      time.Time
	AttachmentRef string
}
