package handler

import (
	"time"

	"certreg/internal/registry/models"
)

// CertificateResponse is the HTTP representation of a ledger record.
type CertificateResponse struct {
	ID            string    `json:"id"`
	Issuer        string    `json:"issuer"`
	Recipient     string    `json:"recipient,omitempty"`
	RecipientName string    `json:"recipient_name"`
	Course        string    `json:"course"`
	Grade         string    `json:"grade,omitempty"`
	IssuedOn      time.Time `json:"issued_on"`
	AttachmentRef string    `json:"attachment_ref,omitempty"`
	Revoked       bool      `json:"revoked"`
}

// FromCertificate converts a ledger record to its HTTP response.
func FromCertificate(cert *models.Certificate) *CertificateResponse {
	resp := &CertificateResponse{
		ID:            cert.ID.String(),
		Issuer:        cert.Issuer.String(),
		RecipientName: cert.RecipientName,
		Course:        cert.Course,
		Grade:         cert.Grade,
		IssuedOn:      cert.IssuedOn,
		AttachmentRef: cert.AttachmentRef,
		Revoked:       cert.Revoked,
	}
	if !cert.Recipient.IsZero() {
		resp.Recipient = cert.Recipient.String()
	}
	return resp
}

// IssuerStatusResponse is the HTTP response for GET /registry/issuers/{principal}.
type IssuerStatusResponse struct {
	Principal  string `json:"principal"`
	Authorized bool   `json:"authorized"`
}

// CertificateStatusResponse is the HTTP response for GET /registry/certificates/{id}/status.
type CertificateStatusResponse struct {
	ID      string `json:"id"`
	Revoked bool   `json:"revoked"`
}

// CertificateIssuerResponse is the HTTP response for GET /registry/certificates/{id}/issuer.
type CertificateIssuerResponse struct {
	ID     string `json:"id"`
	Issuer string `json:"issuer"`
}
