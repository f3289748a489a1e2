// Package status caches revocation status in Redis so hot isRevoked reads
// skip the ledger. The cache only ever holds positive (revoked) entries; a
// miss means "consult the ledger", never "not revoked".
package status

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"

	"certreg/pkg/domain"
	"certreg/pkg/platform/circuit"
	"certreg/pkg/platform/sentinel"
)

var lookupDurationMs = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "certreg_status_cache_lookup_duration_ms",
	Help:    "Latency of revocation status cache lookups in milliseconds",
	Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25},
})

var breakerState = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "certreg_status_cache_breaker_open",
	Help: "Whether the revocation status cache circuit breaker is open (1) or closed (0)",
})

const revokedKeyPrefix = "rvk:cert:"

// RedisCache is a Redis-backed revocation status cache shared across
// instances in distributed deployments. A circuit breaker guards reads so a
// Redis outage degrades to ledger reads instead of per-request timeouts;
// writes keep probing Redis and close the circuit again once it recovers.
type RedisCache struct {
	client  *redis.Client
	ttl     time.Duration
	breaker *circuit.Breaker
}

// NewRedisCache constructs a Redis-backed status cache. A zero ttl keeps
// entries until Redis evicts them.
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{
		client:  client,
		ttl:     ttl,
		breaker: circuit.New("status-cache", circuit.WithFailureThreshold(5)),
	}
}

// MarkRevoked records that the certificate is revoked. It is attempted even
// with the circuit open; a successful write is the recovery probe.
func (c *RedisCache) MarkRevoked(ctx context.Context, id domain.CertificateID) error {
	// Store "1" as a simple marker; key existence is what matters.
	err := c.client.Set(ctx, revokedKeyPrefix+id.String(), "1", c.ttl).Err()
	c.record(err)
	return err
}

// IsRevoked reports whether the cache knows the certificate is revoked.
// False means the caller must consult the ledger. With the circuit open the
// lookup is skipped entirely.
func (c *RedisCache) IsRevoked(ctx context.Context, id domain.CertificateID) (bool, error) {
	if c.breaker.IsOpen() {
		return false, sentinel.ErrUnavailable
	}

	start := time.Now()
	defer func() {
		lookupDurationMs.Observe(float64(time.Since(start).Microseconds()) / 1000.0)
	}()

	_, err := c.client.Get(ctx, revokedKeyPrefix+id.String()).Result()
	if errors.Is(err, redis.Nil) {
		c.record(nil)
		return false, nil
	}
	if err != nil {
		c.record(err)
		return false, err
	}
	c.record(nil)
	return true, nil
}

func (c *RedisCache) record(err error) {
	if err != nil {
		if _, change := c.breaker.RecordFailure(); change.Opened {
			breakerState.Set(1)
		}
		return
	}
	if _, change := c.breaker.RecordSuccess(); change.Closed {
		breakerState.Set(0)
	}
}
