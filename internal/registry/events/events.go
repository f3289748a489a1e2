// Package events defines the notifications the registry emits on successful
// mutations, for external indexers and UIs. Events are appended to the
// publisher synchronously within the mutating call, so implementations that
// record them observe the exact emission order.
package events

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"certreg/pkg/domain"
)

// Kind classifies a notification.
type Kind string

const (
	KindIssuerAdded        Kind = "issuer_added"
	KindIssuerRemoved      Kind = "issuer_removed"
	KindCertificateIssued  Kind = "certificate_issued"
	KindCertificateRevoked Kind = "certificate_revoked"
)

// Event is emitted from the registry core to capture a committed mutation.
// Keep it transport-agnostic so sinks can fan out. Fields are populated per
// kind: Principal for issuer-set changes; CertificateID, Issuer, Recipient,
// RecipientName, Course for issuance; CertificateID and RevokedBy for
// revocation.
type Event struct {
	Kind          Kind
	Timestamp     time.Time
	RequestID     string
	Principal     domain.Principal
	CertificateID domain.CertificateID
	Issuer        domain.Principal
	Recipient     domain.Principal
	RecipientName string
	Course        string
	RevokedBy     domain.Principal
}

// Publisher receives committed-mutation events. Emit failures must never
// roll back the mutation; the ledger, not the sink, is the source of truth.
type Publisher interface {
	Emit(ctx context.Context, event Event) error
}

// Recorder is an ordered in-memory publisher for tests and local inspection.
type Recorder struct {
	mu     sync.RWMutex
	events []Event
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Emit(_ context.Context, event Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

// Events returns a copy of everything emitted so far, in emission order.
func (r *Recorder) Events() []Event {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Event{}, r.events...)
}

func (r *Recorder) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

// LogPublisher writes events to the structured log.
type LogPublisher struct {
	logger *slog.Logger
}

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Emit(ctx context.Context, event Event) error {
	p.logger.InfoContext(ctx, "registry event",
		"kind", string(event.Kind),
		"certificate_id", event.CertificateID.String(),
		"principal", event.Principal.String(),
		"issuer", event.Issuer.String(),
		"revoked_by", event.RevokedBy.String(),
		"request_id", event.RequestID,
	)
	return nil
}

// Multi fans one emission out to several publishers. The first error is
// returned after all publishers have been attempted.
type Multi []Publisher

func (m Multi) Emit(ctx context.Context, event Event) error {
	var first error
	for _, p := range m {
		if err := p.Emit(ctx, event); err != nil && first == nil {
			first = err
		}
	}
	return first
}
