package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the registry's Prometheus metrics.
type Metrics struct {
	CertificatesIssued  prometheus.Counter
	CertificatesRevoked prometheus.Counter
	IssuersAdded        prometheus.Counter
	IssuersRemoved      prometheus.Counter
	OperationsRejected  *prometheus.CounterVec
}

// New creates and registers all registry metrics.
func New() *Metrics {
	return &Metrics{
		CertificatesIssued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "certreg_certificates_issued_total",
			Help: "Total certificates committed to the ledger",
		}),
		CertificatesRevoked: promauto.NewCounter(prometheus.CounterOpts{
			Name: "certreg_certificates_revoked_total",
			Help: "Total certificates marked revoked",
		}),
		IssuersAdded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "certreg_issuers_added_total",
			Help: "Total principals added to the issuer set",
		}),
		IssuersRemoved: promauto.NewCounter(prometheus.CounterOpts{
			Name: "certreg_issuers_removed_total",
			Help: "Total principals removed from the issuer set",
		}),
		OperationsRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "certreg_operations_rejected_total",
			Help: "Rejected registry operations by operation and error code",
		}, []string{"operation", "code"}),
	}
}

// Rejected counts one rejected operation.
func (m *Metrics) Rejected(operation, code string) {
	m.OperationsRejected.WithLabelValues(operation, code).Inc()
}
