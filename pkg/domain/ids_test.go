package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePrincipal(t *testing.T) {
	t.Run("accepts a valid hex address", func(t *testing.T) {
		p, err := ParsePrincipal("0x8ba1f109551bD432803012645Ac136ddd64DBA72")
		require.NoError(t, err)
		assert.False(t, p.IsZero())
		assert.Equal(t, "0x8ba1f109551bD432803012645Ac136ddd64DBA72", p.String())
	})

	t.Run("accepts the zero address without erroring", func(t *testing.T) {
		p, err := ParsePrincipal("0x0000000000000000000000000000000000000000")
		require.NoError(t, err)
		assert.True(t, p.IsZero())
	})

	t.Run("rejects malformed input", func(t *testing.T) {
		for _, input := range []string{"", "0x123", "not-an-address", "0x8ba1f109551bD432803012645Ac136ddd64DBA7g"} {
			_, err := ParsePrincipal(input)
			assert.Error(t, err, "input %q", input)
		}
	})
}

func TestParseCertificateID(t *testing.T) {
	const hex64 = "ab00000000000000000000000000000000000000000000000000000000000001"

	t.Run("accepts 32 bytes of hex with and without prefix", func(t *testing.T) {
		withPrefix, err := ParseCertificateID("0x" + hex64)
		require.NoError(t, err)
		withoutPrefix, err := ParseCertificateID(hex64)
		require.NoError(t, err)
		assert.Equal(t, withPrefix, withoutPrefix)
		assert.Equal(t, "0x"+hex64, withPrefix.String())
	})

	t.Run("rejects wrong lengths and non-hex", func(t *testing.T) {
		for _, input := range []string{"", "0x", "0xabcd", hex64 + "00", "zz" + hex64[2:]} {
			_, err := ParseCertificateID(input)
			assert.Error(t, err, "input %q", input)
		}
	})
}

func TestDeriveCertificateID(t *testing.T) {
	issuer, err := ParsePrincipal("0x8ba1f109551bD432803012645Ac136ddd64DBA72")
	require.NoError(t, err)
	recipient, err := ParsePrincipal("0x00000000219ab540356cBB839Cbe05303d7705Fa")
	require.NoError(t, err)
	issuedOn := time.Unix(1700000000, 0)

	t.Run("is deterministic", func(t *testing.T) {
		a := DeriveCertificateID(issuer, recipient, "Jane", "Math", issuedOn)
		b := DeriveCertificateID(issuer, recipient, "Jane", "Math", issuedOn)
		assert.Equal(t, a, b)
		assert.False(t, a.IsZero())
	})

	t.Run("changes with every input", func(t *testing.T) {
		base := DeriveCertificateID(issuer, recipient, "Jane", "Math", issuedOn)
		assert.NotEqual(t, base, DeriveCertificateID(recipient, recipient, "Jane", "Math", issuedOn))
		assert.NotEqual(t, base, DeriveCertificateID(issuer, issuer, "Jane", "Math", issuedOn))
		assert.NotEqual(t, base, DeriveCertificateID(issuer, recipient, "Janet", "Math", issuedOn))
		assert.NotEqual(t, base, DeriveCertificateID(issuer, recipient, "Jane", "Physics", issuedOn))
		assert.NotEqual(t, base, DeriveCertificateID(issuer, recipient, "Jane", "Math", issuedOn.Add(time.Second)))
	})
}
