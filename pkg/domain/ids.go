// Package domain holds the identity primitives shared across the registry:
// caller principals and certificate identifiers. Construct them via the
// Parse* functions at trust boundaries; direct casting bypasses validation.
package domain

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Principal is an authenticated caller identity, a 20-byte address.
type Principal common.Address

// ParsePrincipal constructs a Principal from external input.
//
// Errors: rejects anything that is not a hex-encoded 20-byte address. The
// zero address parses successfully; callers that require a real identity
// must check IsZero themselves.
func ParsePrincipal(s string) (Principal, error) {
	if !common.IsHexAddress(s) {
		return Principal{}, fmt.Errorf("invalid principal %q: must be a 20-byte hex address", s)
	}
	return Principal(common.HexToAddress(s)), nil
}

// MustParsePrincipal is ParsePrincipal for trusted, static input. It panics
// on invalid input and is meant for tests and wiring code.
func MustParsePrincipal(s string) Principal {
	p, err := ParsePrincipal(s)
	if err != nil {
		panic(err)
	}
	return p
}

// IsZero reports whether the principal is the null identity.
func (p Principal) IsZero() bool {
	return p == Principal{}
}

// String renders the principal as checksummed hex.
func (p Principal) String() string {
	return common.Address(p).Hex()
}

// Bytes returns the raw 20-byte address.
func (p Principal) Bytes() []byte {
	a := common.Address(p)
	return a.Bytes()
}

// CertificateID is the 32-byte identifier a certificate record is keyed by.
// Identifiers are supplied by callers; the registry enforces uniqueness and
// structural validity only.
type CertificateID common.Hash

// ParseCertificateID constructs a CertificateID from external input.
//
// Errors: rejects anything that is not 32 bytes of hex (0x prefix optional).
func ParseCertificateID(s string) (CertificateID, error) {
	raw := s
	if len(raw) >= 2 && (raw[:2] == "0x" || raw[:2] == "0X") {
		raw = raw[2:]
	}
	if len(raw) != 2*common.HashLength {
		return CertificateID{}, fmt.Errorf("invalid certificate id %q: must be 32 bytes of hex", s)
	}
	for _, c := range raw {
		if !isHexDigit(c) {
			return CertificateID{}, fmt.Errorf("invalid certificate id %q: must be 32 bytes of hex", s)
		}
	}
	return CertificateID(common.HexToHash(s)), nil
}

func isHexDigit(c rune) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

// IsZero reports whether the identifier is all zero bytes.
func (id CertificateID) IsZero() bool {
	return id == CertificateID{}
}

// String renders the identifier as 0x-prefixed hex.
func (id CertificateID) String() string {
	return common.Hash(id).Hex()
}

// Bytes returns the raw 32-byte identifier.
func (id CertificateID) Bytes() []byte {
	h := common.Hash(id)
	return h.Bytes()
}

// DeriveCertificateID is the calling-layer derivation of a certificate
// identifier: keccak-256 over the issuer, recipient, recipient name, course,
// and issuance time (unix seconds, big endian). The registry itself never
// derives identifiers; it only rejects collisions at insert time.
func DeriveCertificateID(issuer, recipient Principal, recipientName, course string, issuedOn time.Time) CertificateID {
	var ts [8]byte
	binary.BigEndian.PutUint64(ts[:], uint64(issuedOn.Unix()))
	h := crypto.Keccak256Hash(
		issuer.Bytes(),
		recipient.Bytes(),
		[]byte(recipientName),
		[]byte(course),
		ts[:],
	)
	return CertificateID(h)
}
