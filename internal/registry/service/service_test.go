package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks IssuerStore,CertificateStore,StatusCache

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"certreg/internal/registry/events"
	"certreg/internal/registry/models"
	certStore "certreg/internal/registry/store/certificates"
	issuerStore "certreg/internal/registry/store/issuers"
	"certreg/pkg/domain"
	dErrors "certreg/pkg/domain-errors"
	"certreg/pkg/requestcontext"
)

// =============================================================================
// Registry Service Test Suite
// =============================================================================
// Justification for unit tests: the service holds all registry policy:
// authorization gating, validation ordering, one-way revocation, and
// notification ordering. Memory stores exercise the real store contract;
// error propagation against failing stores lives in failures_test.go.

type RegistrySuite struct {
	suite.Suite
	authority domain.Principal
	issuers   *issuerStore.InMemory
	certs     *certStore.InMemory
	recorder  *events.Recorder
	service   *Service
}

func TestRegistrySuite(t *testing.T) {
	suite.Run(t, new(RegistrySuite))
}

func (s *RegistrySuite) SetupTest() {
	s.authority = domain.MustParsePrincipal("0x00000000000000000000000000000000000000aa")
	s.issuers = issuerStore.NewInMemory()
	s.certs = certStore.NewInMemory()
	s.recorder = events.NewRecorder()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.service = New(s.authority, s.issuers, s.certs,
		WithLogger(logger),
		WithEvents(s.recorder),
	)
}

func (s *RegistrySuite) principal(suffix string) domain.Principal {
	return domain.MustParsePrincipal("0x00000000000000000000000000000000000000" + suffix)
}

func (s *RegistrySuite) issueRequest(seed string) models.IssueRequest {
	return models.IssueRequest{
		ID:            domain.DeriveCertificateID(s.authority, domain.Principal{}, "Alice Example "+seed, "Distributed Systems", time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)),
		RecipientName: "Alice Example " + seed,
		Course:        "Distributed Systems",
		Grade:         "A",
		IssuedOn:      time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
	}
}

// =============================================================================
// Issuer Set Tests
// =============================================================================

func (s *RegistrySuite) TestAddIssuer() {
	ctx := context.Background()
	issuer := s.principal("01")

	s.Run("authority adds a new issuer", func() {
		s.Require().NoError(s.service.AddIssuer(ctx, s.authority, issuer))

		authorized, err := s.service.IsAuthorizedIssuer(ctx, issuer)
		s.NoError(err)
		s.True(authorized)
	})

	s.Run("adding the same issuer again fails", func() {
		err := s.service.AddIssuer(ctx, s.authority, issuer)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeAlreadyAuthorized))
	})

	s.Run("non-authority caller is rejected", func() {
		err := s.service.AddIssuer(ctx, issuer, s.principal("02"))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))

		authorized, err := s.service.IsAuthorizedIssuer(ctx, s.principal("02"))
		s.NoError(err)
		s.False(authorized)
	})

	s.Run("zero principal is rejected", func() {
		err := s.service.AddIssuer(ctx, s.authority, domain.Principal{})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidPrincipal))
	})

	s.Run("adding the authority itself fails", func() {
		err := s.service.AddIssuer(ctx, s.authority, s.authority)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeAlreadyAuthorized))
	})
}

func (s *RegistrySuite) TestRemoveIssuer() {
	ctx := context.Background()
	issuer := s.principal("01")
	s.Require().NoError(s.service.AddIssuer(ctx, s.authority, issuer))

	s.Run("non-authority caller is rejected", func() {
		err := s.service.RemoveIssuer(ctx, issuer, issuer)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("authority cannot be removed", func() {
		err := s.service.RemoveIssuer(ctx, s.authority, s.authority)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeProtectedPrincipal))

		authorized, err := s.service.IsAuthorizedIssuer(ctx, s.authority)
		s.NoError(err)
		s.True(authorized)
	})

	s.Run("removal withdraws authorization", func() {
		s.Require().NoError(s.service.RemoveIssuer(ctx, s.authority, issuer))

		authorized, err := s.service.IsAuthorizedIssuer(ctx, issuer)
		s.NoError(err)
		s.False(authorized)
	})

	s.Run("removing an unknown principal fails", func() {
		err := s.service.RemoveIssuer(ctx, s.authority, issuer)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotAuthorized))
	})
}

// A removed issuer can be re-added and regains full issuance rights.
func (s *RegistrySuite) TestIssuerReinstatement() {
	ctx := context.Background()
	issuer := s.principal("01")

	s.Require().NoError(s.service.AddIssuer(ctx, s.authority, issuer))
	s.Require().NoError(s.service.RemoveIssuer(ctx, s.authority, issuer))
	s.Require().NoError(s.service.AddIssuer(ctx, s.authority, issuer))

	_, err := s.service.Issue(ctx, issuer, s.issueRequest("r1"))
	s.NoError(err)
}

// =============================================================================
// Issuance Tests
// =============================================================================

func (s *RegistrySuite) TestIssue() {
	ctx := context.Background()
	issuer := s.principal("01")
	s.Require().NoError(s.service.AddIssuer(ctx, s.authority, issuer))

	s.Run("authorized issuer records a certificate", func() {
		req := s.issueRequest("i1")
		cert, err := s.service.Issue(ctx, issuer, req)
		s.Require().NoError(err)

		s.Equal(req.ID, cert.ID)
		s.Equal(issuer, cert.Issuer)
		s.Equal(req.RecipientName, cert.RecipientName)
		s.Equal(req.Course, cert.Course)
		s.Equal(req.Grade, cert.Grade)
		s.False(cert.Revoked)

		got, err := s.service.Get(ctx, req.ID)
		s.Require().NoError(err)
		s.Equal(cert, got)
	})

	s.Run("authority issues without being in the set", func() {
		_, err := s.service.Issue(ctx, s.authority, s.issueRequest("i2"))
		s.NoError(err)
	})

	s.Run("unauthorized caller is rejected without side effects", func() {
		req := s.issueRequest("i3")
		_, err := s.service.Issue(ctx, s.principal("99"), req)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))

		exists, err := s.service.Exists(ctx, req.ID)
		s.NoError(err)
		s.False(exists)
	})

	s.Run("duplicate id keeps the original record", func() {
		req := s.issueRequest("i4")
		original, err := s.service.Issue(ctx, issuer, req)
		s.Require().NoError(err)

		clash := req
		clash.RecipientName = "Someone Else"
		_, err = s.service.Issue(ctx, s.authority, clash)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeDuplicateID))

		got, err := s.service.Get(ctx, req.ID)
		s.Require().NoError(err)
		s.Equal(original, got)
	})

	s.Run("missing recipient name is rejected", func() {
		req := s.issueRequest("i5")
		req.RecipientName = ""
		_, err := s.service.Issue(ctx, issuer, req)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("missing course is rejected", func() {
		req := s.issueRequest("i6")
		req.Course = ""
		_, err := s.service.Issue(ctx, issuer, req)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("future issuance date is rejected", func() {
		now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		reqCtx := requestcontext.WithRequestTime(ctx, now)

		req := s.issueRequest("i7")
		req.IssuedOn = now.Add(time.Hour)
		_, err := s.service.Issue(reqCtx, issuer, req)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))

		req.IssuedOn = now
		_, err = s.service.Issue(reqCtx, issuer, req)
		s.NoError(err, "issuance dated exactly now is valid")
	})

	s.Run("duplicate id wins over invalid input", func() {
		req := s.issueRequest("i8")
		_, err := s.service.Issue(ctx, issuer, req)
		s.Require().NoError(err)

		req.Course = ""
		_, err = s.service.Issue(ctx, issuer, req)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeDuplicateID))
	})
}

// Revoking an issuer leaves its past certificates valid and queryable.
func (s *RegistrySuite) TestIssuedRecordsSurviveIssuerRemoval() {
	ctx := context.Background()
	issuer := s.principal("01")
	s.Require().NoError(s.service.AddIssuer(ctx, s.authority, issuer))

	req := s.issueRequest("sv1")
	_, err := s.service.Issue(ctx, issuer, req)
	s.Require().NoError(err)

	s.Require().NoError(s.service.RemoveIssuer(ctx, s.authority, issuer))

	cert, err := s.service.Get(ctx, req.ID)
	s.Require().NoError(err)
	s.False(cert.Revoked)
	s.Equal(issuer, cert.Issuer)

	_, err = s.service.Issue(ctx, issuer, s.issueRequest("sv2"))
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

// =============================================================================
// Revocation Tests
// =============================================================================

func (s *RegistrySuite) TestRevoke() {
	ctx := context.Background()
	issuer := s.principal("01")
	other := s.principal("02")
	s.Require().NoError(s.service.AddIssuer(ctx, s.authority, issuer))
	s.Require().NoError(s.service.AddIssuer(ctx, s.authority, other))

	req := s.issueRequest("rv1")
	_, err := s.service.Issue(ctx, issuer, req)
	s.Require().NoError(err)

	s.Run("unknown certificate", func() {
		missing := domain.DeriveCertificateID(issuer, domain.Principal{}, "nobody", "nothing", time.Unix(0, 0))
		err := s.service.Revoke(ctx, issuer, missing)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("a different issuer may not revoke", func() {
		err := s.service.Revoke(ctx, other, req.ID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))

		revoked, err := s.service.IsRevoked(ctx, req.ID)
		s.NoError(err)
		s.False(revoked)
	})

	s.Run("issuer revokes its own certificate", func() {
		s.Require().NoError(s.service.Revoke(ctx, issuer, req.ID))

		revoked, err := s.service.IsRevoked(ctx, req.ID)
		s.NoError(err)
		s.True(revoked)

		cert, err := s.service.Get(ctx, req.ID)
		s.Require().NoError(err)
		s.True(cert.Revoked)
		s.Equal(req.RecipientName, cert.RecipientName, "revocation touches only the status")
	})

	s.Run("second revocation fails and state is unchanged", func() {
		err := s.service.Revoke(ctx, issuer, req.ID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeAlreadyRevoked))

		revoked, err := s.service.IsRevoked(ctx, req.ID)
		s.NoError(err)
		s.True(revoked)
	})

	s.Run("authority revokes any certificate", func() {
		req2 := s.issueRequest("rv2")
		_, err := s.service.Issue(ctx, issuer, req2)
		s.Require().NoError(err)

		s.Require().NoError(s.service.Revoke(ctx, s.authority, req2.ID))
	})

	s.Run("removed issuer can no longer revoke", func() {
		req3 := s.issueRequest("rv3")
		_, err := s.service.Issue(ctx, other, req3)
		s.Require().NoError(err)
		s.Require().NoError(s.service.RemoveIssuer(ctx, s.authority, other))

		err = s.service.Revoke(ctx, other, req3.ID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}

// =============================================================================
// Query Tests
// =============================================================================

func (s *RegistrySuite) TestQueries() {
	ctx := context.Background()
	req := s.issueRequest("q1")
	_, err := s.service.Issue(ctx, s.authority, req)
	s.Require().NoError(err)

	s.Run("exists", func() {
		exists, err := s.service.Exists(ctx, req.ID)
		s.NoError(err)
		s.True(exists)

		exists, err = s.service.Exists(ctx, domain.CertificateID{})
		s.NoError(err)
		s.False(exists)
	})

	s.Run("get unknown id", func() {
		_, err := s.service.Get(ctx, domain.CertificateID{})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("issuer of unknown id", func() {
		_, err := s.service.GetIssuer(ctx, domain.CertificateID{})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("issuer of known id", func() {
		issuer, err := s.service.GetIssuer(ctx, req.ID)
		s.NoError(err)
		s.Equal(s.authority, issuer)
	})

	s.Run("revocation status of unknown id", func() {
		_, err := s.service.IsRevoked(ctx, domain.CertificateID{})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

// =============================================================================
// Notification Ordering Tests
// =============================================================================

func (s *RegistrySuite) TestNotificationOrder() {
	ctx := context.Background()
	issuer := s.principal("01")

	s.Require().NoError(s.service.AddIssuer(ctx, s.authority, issuer))

	req := s.issueRequest("n1")
	_, err := s.service.Issue(ctx, issuer, req)
	s.Require().NoError(err)

	s.Require().NoError(s.service.Revoke(ctx, issuer, req.ID))
	s.Require().NoError(s.service.RemoveIssuer(ctx, s.authority, issuer))

	recorded := s.recorder.Events()
	s.Require().Len(recorded, 4)

	s.Equal(events.KindIssuerAdded, recorded[0].Kind)
	s.Equal(issuer, recorded[0].Principal)

	s.Equal(events.KindCertificateIssued, recorded[1].Kind)
	s.Equal(req.ID, recorded[1].CertificateID)
	s.Equal(issuer, recorded[1].Issuer)
	s.Equal(req.RecipientName, recorded[1].RecipientName)
	s.Equal(req.Course, recorded[1].Course)

	s.Equal(events.KindCertificateRevoked, recorded[2].Kind)
	s.Equal(req.ID, recorded[2].CertificateID)
	s.Equal(issuer, recorded[2].RevokedBy)

	s.Equal(events.KindIssuerRemoved, recorded[3].Kind)
	s.Equal(issuer, recorded[3].Principal)
}

func (s *RegistrySuite) TestRejectionsEmitNoEvents() {
	ctx := context.Background()

	s.Error(s.service.AddIssuer(ctx, s.principal("99"), s.principal("01")))
	_, err := s.service.Issue(ctx, s.principal("99"), s.issueRequest("x1"))
	s.Error(err)
	s.Error(s.service.Revoke(ctx, s.authority, domain.CertificateID{}))

	s.Empty(s.recorder.Events())
}
