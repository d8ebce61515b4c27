package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/GTDGit/gtd_visa/internal/models"
)

const (
	viewVersionKey = "pricing:view:version"
	viewKeyPrefix  = "pricing:view"
)

// PricingCache stores pricing view snapshots. Entries are namespaced by a
// version counter so one INCR invalidates every cached filter at once.
type PricingCache struct {
	redis *RedisClient
	ttl   time.Duration
}

// NewPricingCache creates a new PricingCache.
func NewPricingCache(redis *RedisClient, ttl time.Duration) *PricingCache {
	return &PricingCache{redis: redis, ttl: ttl}
}

// ViewKey derives a stable cache key for a filter evaluated on a day.
func ViewKey(filter models.VisaFilter, day time.Time) string {
	raw, _ := json.Marshal(struct {
		F models.VisaFilter
		D string
	}{filter, day.Format("2006-01-02")})
	sum := sha1.Sum(raw)
	return hex.EncodeToString(sum[:])
}

func (c *PricingCache) version(ctx context.Context) (string, error) {
	v, err := c.redis.Get(ctx, viewVersionKey)
	if errors.Is(err, ErrMiss) {
		return "0", nil
	}
	return v, err
}

func (c *PricingCache) key(version, viewKey string) string {
	return fmt.Sprintf("%s:v%s:%s", viewKeyPrefix, version, viewKey)
}

// GetView returns a cached view. ok is false on a miss.
func (c *PricingCache) GetView(ctx context.Context, viewKey string) (views []models.PricingView, ok bool, err error) {
	ver, err := c.version(ctx)
	if err != nil {
		return nil, false, err
	}
	raw, err := c.redis.Get(ctx, c.key(ver, viewKey))
	if errors.Is(err, ErrMiss) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if err := json.Unmarshal([]byte(raw), &views); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal pricing view: %w", err)
	}
	return views, true, nil
}

// SetView stores a view under the current version.
func (c *PricingCache) SetView(ctx context.Context, viewKey string, views []models.PricingView) error {
	ver, err := c.version(ctx)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(views)
	if err != nil {
		return fmt.Errorf("failed to marshal pricing view: %w", err)
	}
	return c.redis.Set(ctx, c.key(ver, viewKey), string(raw), c.ttl)
}

// Invalidate drops every cached view. Old entries expire on their own TTL.
func (c *PricingCache) Invalidate(ctx context.Context) error {
	_, err := c.redis.Incr(ctx, viewVersionKey)
	return err
}
