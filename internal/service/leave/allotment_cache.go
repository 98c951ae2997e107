package leave

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/leave"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/metrics"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const (
	AllotmentKeyPrefix         = "leave:allotments:"
	DefaultAllotmentCacheTTL   = 5 * time.Minute
	allotmentInvalidateScanCnt = 100
)

func AllotmentKey(employeeID string, year int) string {
	return fmt.Sprintf("%s%s:%d", AllotmentKeyPrefix, employeeID, year)
}

type allotmentSource interface {
	Allotments(ctx context.Context, employeeID string, year int) ([]leave.Allotment, error)
}

// AllotmentCache is a read-through Redis cache in front of the allotment
// engine. Entries live at most ttl and are dropped whenever a decision changes
// the employee's approved leave. A nil client disables caching.
type AllotmentCache struct {
	rdb     *redis.Client
	source  allotmentSource
	ttl     time.Duration
	sf      *singleflight.Group
	metrics *metrics.Metrics
}

func NewAllotmentCache(rdb *redis.Client, source allotmentSource, ttl time.Duration, m *metrics.Metrics) *AllotmentCache {
	if ttl <= 0 {
		ttl = DefaultAllotmentCacheTTL
	}
	return &AllotmentCache{
		rdb:     rdb,
		source:  source,
		ttl:     ttl,
		sf:      &singleflight.Group{},
		metrics: m,
	}
}

func (c *AllotmentCache) Allotments(ctx context.Context, employeeID string, year int) ([]leave.Allotment, error) {
	if c.rdb == nil {
		return c.source.Allotments(ctx, employeeID, year)
	}

	key := AllotmentKey(employeeID, year)
	if cached, err := c.rdb.Get(ctx, key).Bytes(); err == nil {
		var out []leave.Allotment
		if json.Unmarshal(cached, &out) == nil {
			c.metrics.CacheHit()
			return out, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		slog.Warn("allotment cache read failed", "key", key, "error", err)
	}
	c.metrics.CacheMiss()

	v, err, _ := c.sf.Do(key, func() (interface{}, error) {
		out, err := c.source.Allotments(ctx, employeeID, year)
		if err != nil {
			return nil, err
		}
		if data, err := json.Marshal(out); err == nil {
			if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
				slog.Warn("allotment cache write failed", "key", key, "error", err)
			}
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]leave.Allotment), nil
}

// Invalidate drops every cached year of employeeID. Later years depend on
// earlier ones through carry-forward, so all of them go.
func (c *AllotmentCache) Invalidate(ctx context.Context, employeeID string) {
	if c.rdb == nil {
		return
	}

	pattern := AllotmentKeyPrefix + employeeID + ":*"
	var keys []string
	iter := c.rdb.Scan(ctx, 0, pattern, allotmentInvalidateScanCnt).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		slog.Error("failed to scan allotment cache", "employee_id", employeeID, "error", err)
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		slog.Error("failed to invalidate allotment cache", "employee_id", employeeID, "error", err)
	}
}
