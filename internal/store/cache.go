package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/barber-availability/internal/availability"
	"github.com/wolfman30/barber-availability/internal/observability/metrics"
	"github.com/wolfman30/barber-availability/pkg/logging"
)

const defaultAppointmentCacheTTL = 2 * time.Minute

// CachedLedger is a read-through Redis cache in front of an AppointmentLedger.
// It caches single-day lookups only, so the engine walks day by day through it.
// Redis failures never fail a query: the inner ledger answers instead.
type CachedLedger struct {
	inner   availability.AppointmentLedger
	redis   *redis.Client
	ttl     time.Duration
	logger  *logging.Logger
	metrics *metrics.AvailabilityMetrics
}

var _ availability.AppointmentLedger = (*CachedLedger)(nil)

func NewCachedLedger(inner availability.AppointmentLedger, redisClient *redis.Client, ttl time.Duration, logger *logging.Logger, m *metrics.AvailabilityMetrics) *CachedLedger {
	if inner == nil {
		panic("store: inner ledger required")
	}
	if redisClient == nil {
		panic("store: redis client required")
	}
	if ttl <= 0 {
		ttl = defaultAppointmentCacheTTL
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &CachedLedger{inner: inner, redis: redisClient, ttl: ttl, logger: logger, metrics: m}
}

func (c *CachedLedger) key(businessID, staffID string, date civil.Date) string {
	return fmt.Sprintf("availability:appointments:%s:%s:%s", businessID, staffID, date)
}

func (c *CachedLedger) ListAppointments(ctx context.Context, businessID, staffID string, date civil.Date) ([]availability.Appointment, error) {
	key := c.key(businessID, staffID, date)

	data, err := c.redis.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var appts []availability.Appointment
		jsonErr := json.Unmarshal(data, &appts)
		if jsonErr == nil {
			c.metrics.ObserveCacheLookup(true)
			return appts, nil
		}
		c.logger.Warn("appointment cache entry unreadable", "key", key, "error", jsonErr)
	case errors.Is(err, redis.Nil):
	default:
		c.logger.Warn("appointment cache get failed", "key", key, "error", err)
	}
	c.metrics.ObserveCacheLookup(false)

	appts, err := c.inner.ListAppointments(ctx, businessID, staffID, date)
	if err != nil {
		return nil, err
	}
	if appts == nil {
		appts = []availability.Appointment{}
	}
	payload, err := json.Marshal(appts)
	if err != nil {
		c.logger.Warn("appointment cache encode failed", "key", key, "error", err)
		return appts, nil
	}
	if err := c.redis.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		c.logger.Warn("appointment cache set failed", "key", key, "error", err)
	}
	return appts, nil
}

// Invalidate drops the cached day so the next lookup reads the ledger.
func (c *CachedLedger) Invalidate(ctx context.Context, businessID, staffID string, date civil.Date) error {
	if err := c.redis.Del(ctx, c.key(businessID, staffID, date)).Err(); err != nil {
		return fmt.Errorf("store: invalidate appointment cache: %w", err)
	}
	return nil
}
