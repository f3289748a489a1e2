package certificates

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"certreg/internal/registry/models"
	"certreg/pkg/domain"
	"certreg/pkg/platform/sentinel"
)

type CertificateStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func (s *CertificateStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func TestCertificateStoreSuite(t *testing.T) {
	suite.Run(t, new(CertificateStoreSuite))
}

func (s *CertificateStoreSuite) newCertificate(name string) *models.Certificate {
	issuer, err := domain.ParsePrincipal("0x8ba1f109551bD432803012645Ac136ddd64DBA72")
	require.NoError(s.T(), err)
	issuedOn := time.Unix(1700000000, 0)
	id := domain.DeriveCertificateID(issuer, domain.Principal{}, name, "Math", issuedOn)
	cert, err := models.NewCertificate(id, issuer, domain.Principal{}, name, "Math", "A", issuedOn, "")
	require.NoError(s.T(), err)
	return cert
}

func (s *CertificateStoreSuite) TestInsertAndLookup() {
	cert := s.newCertificate("Jane")

	s.Run("not found before insert", func() {
		exists, err := s.store.Exists(s.ctx, cert.ID)
		s.Require().NoError(err)
		s.False(exists)

		_, err = s.store.FindByID(s.ctx, cert.ID)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("insert then find returns an equal record", func() {
		s.Require().NoError(s.store.Insert(s.ctx, cert))

		found, err := s.store.FindByID(s.ctx, cert.ID)
		s.Require().NoError(err)
		s.Equal(*cert, *found)
	})

	s.Run("duplicate id is rejected regardless of other fields", func() {
		dup := s.newCertificate("Jane")
		dup.Course = "Physics"
		err := s.store.Insert(s.ctx, dup)
		s.Require().ErrorIs(err, sentinel.ErrConflict)

		found, err := s.store.FindByID(s.ctx, cert.ID)
		s.Require().NoError(err)
		s.Equal("Math", found.Course, "rejected insert must not overwrite the record")
	})

	s.Run("returned record is a copy", func() {
		found, err := s.store.FindByID(s.ctx, cert.ID)
		s.Require().NoError(err)
		found.Revoked = true

		again, err := s.store.FindByID(s.ctx, cert.ID)
		s.Require().NoError(err)
		s.False(again.Revoked)
	})
}

func (s *CertificateStoreSuite) TestMarkRevoked() {
	cert := s.newCertificate("Jane")

	s.Run("unknown id reports not found", func() {
		err := s.store.MarkRevoked(s.ctx, cert.ID)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("flips the flag and keeps every other field", func() {
		s.Require().NoError(s.store.Insert(s.ctx, cert))
		s.Require().NoError(s.store.MarkRevoked(s.ctx, cert.ID))

		found, err := s.store.FindByID(s.ctx, cert.ID)
		s.Require().NoError(err)
		s.True(found.Revoked)
		s.Equal(cert.RecipientName, found.RecipientName)
		s.Equal(cert.Issuer, found.Issuer)
	})
}
