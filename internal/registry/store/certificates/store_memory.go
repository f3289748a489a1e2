// Package certificates is the ledger store: certificate records keyed by
// their 32-byte identifier. Stores enforce only storage facts (uniqueness at
// insert, existence at lookup); authorization and state-transition policy
// live in the service.
package certificates

import (
	"context"
	"sync"

	"certreg/internal/registry/models"
	"certreg/pkg/domain"
	"certreg/pkg/platform/sentinel"
)

// InMemory keeps the ledger in process memory. Records are stored and
// returned by value so readers always observe a consistent snapshot.
type InMemory struct {
	mu    sync.RWMutex
	certs map[domain.CertificateID]models.Certificate
}

func NewInMemory() *InMemory {
	return &InMemory{certs: make(map[domain.CertificateID]models.Certificate)}
}

// Insert commits a new record, reporting sentinel.ErrConflict when the id is
// already present. The check and the write are atomic; a rejected insert
// leaves the ledger untouched.
func (s *InMemory) Insert(_ context.Context, cert *models.Certificate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.certs[cert.ID]; ok {
		return sentinel.ErrConflict
	}
	s.certs[cert.ID] = *cert
	return nil
}

// FindByID returns a copy of the record, or sentinel.ErrNotFound.
func (s *InMemory) FindByID(_ context.Context, id domain.CertificateID) (*models.Certificate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cert, ok := s.certs[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &cert, nil
}

// Exists reports whether a record with the id has been inserted.
func (s *InMemory) Exists(_ context.Context, id domain.CertificateID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.certs[id]
	return ok, nil
}

// MarkRevoked flips the revocation flag, reporting sentinel.ErrNotFound for
// unknown ids. The flag never transitions back.
func (s *InMemory) MarkRevoked(_ context.Context, id domain.CertificateID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cert, ok := s.certs[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	cert.Revoked = true
	s.certs[id] = cert
	return nil
}
