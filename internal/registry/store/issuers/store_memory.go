// Package issuers stores the set of principals authorized to issue
// certificates. The authority principal is never stored here; it is instance
// configuration and implicitly authorized by the service.
package issuers

import (
	"context"
	"sync"

	"certreg/pkg/domain"
	"certreg/pkg/platform/sentinel"
)

// InMemory keeps the issuer set in process memory. It favors clarity over
// performance and is the default store for development and tests.
type InMemory struct {
	mu      sync.RWMutex
	members map[domain.Principal]struct{}
}

func NewInMemory() *InMemory {
	return &InMemory{members: make(map[domain.Principal]struct{})}
}

// Add inserts a principal, reporting sentinel.ErrConflict when it is
// already a member.
func (s *InMemory) Add(_ context.Context, principal domain.Principal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.members[principal]; ok {
		return sentinel.ErrConflict
	}
	s.members[principal] = struct{}{}
	return nil
}

// Remove deletes a principal, reporting sentinel.ErrNotFound when it is not
// a member.
func (s *InMemory) Remove(_ context.Context, principal domain.Principal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.members[principal]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.members, principal)
	return nil
}

// IsMember reports whether the principal is in the issuer set.
func (s *InMemory) IsMember(_ context.Context, principal domain.Principal) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.members[principal]
	return ok, nil
}
