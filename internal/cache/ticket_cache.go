package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/support-desk/internal/observability"
)

// View names scope cached detail entries per actor surface: a client detail
// and an admin detail of the same ticket render differently.
const (
	ViewClient = "client"
	ViewAdmin  = "admin"
)

// AdminScope is the list scope shared by all admin actors.
const AdminScope = "admin"

// TenantScope returns the list scope for one tenant.
func TenantScope(tenantID string) string {
	return "tenant:" + tenantID
}

// TicketCache memoizes ticket list and detail responses in redis. Mutations
// invalidate the touched ticket's detail entries and bump a per-scope version
// so every cached list page for that scope misses. All failures are soft: a
// broken redis degrades to store reads.
type TicketCache struct {
	client  *redis.Client
	ttl     time.Duration
	logger  *zap.Logger
	metrics *observability.Metrics
}

// NewTicketCache builds the cache. A nil client disables caching entirely.
func NewTicketCache(client *redis.Client, ttl time.Duration, logger *zap.Logger, metrics *observability.Metrics) *TicketCache {
	if client == nil {
		return nil
	}
	return &TicketCache{client: client, ttl: ttl, logger: logger, metrics: metrics}
}

// GetDetail loads a cached ticket detail into dest, reporting a hit.
func (c *TicketCache) GetDetail(ctx context.Context, view, ticketID string, dest any) bool {
	return c.get(ctx, detailKey(view, ticketID), "detail", dest)
}

// SetDetail stores a ticket detail response.
func (c *TicketCache) SetDetail(ctx context.Context, view, ticketID string, value any) {
	c.set(ctx, detailKey(view, ticketID), value)
}

// GetList loads a cached list page into dest, reporting a hit.
func (c *TicketCache) GetList(ctx context.Context, scope string, page, pageSize int, dest any) bool {
	if c == nil {
		return false
	}
	return c.get(ctx, c.listKey(ctx, scope, page, pageSize), "list", dest)
}

// SetList stores a list page response.
func (c *TicketCache) SetList(ctx context.Context, scope string, page, pageSize int, value any) {
	if c == nil {
		return
	}
	c.set(ctx, c.listKey(ctx, scope, page, pageSize), value)
}

// InvalidateTicket drops both detail views of the ticket and bumps the
// tenant's and the admin list versions. Called after every mutation.
func (c *TicketCache) InvalidateTicket(ctx context.Context, ticketID, tenantID string) {
	if c == nil {
		return
	}
	pipe := c.client.Pipeline()
	pipe.Del(ctx, detailKey(ViewClient, ticketID), detailKey(ViewAdmin, ticketID))
	pipe.Incr(ctx, versionKey(TenantScope(tenantID)))
	pipe.Incr(ctx, versionKey(AdminScope))
	if _, err := pipe.Exec(ctx); err != nil {
		c.logger.Debug("cache invalidation failed", zap.Error(err), zap.String("ticket_id", ticketID))
	}
}

func (c *TicketCache) get(ctx context.Context, key, kind string, dest any) bool {
	if c == nil {
		return false
	}
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Debug("cache read failed", zap.Error(err), zap.String("key", key))
		}
		c.metrics.RecordCacheLookup(kind, false)
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		c.logger.Debug("cache entry corrupt", zap.Error(err), zap.String("key", key))
		c.metrics.RecordCacheLookup(kind, false)
		return false
	}
	c.metrics.RecordCacheLookup(kind, true)
	return true
}

func (c *TicketCache) set(ctx context.Context, key string, value any) {
	if c == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		c.logger.Debug("cache encode failed", zap.Error(err), zap.String("key", key))
		return
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.logger.Debug("cache write failed", zap.Error(err), zap.String("key", key))
	}
}

// listKey embeds the scope's current version; stale pages age out via TTL.
func (c *TicketCache) listKey(ctx context.Context, scope string, page, pageSize int) string {
	version, err := c.client.Get(ctx, versionKey(scope)).Int64()
	if err != nil {
		version = 0
	}
	return fmt.Sprintf("tickets:list:%s:v%d:p%d:s%d", scope, version, page, pageSize)
}

func detailKey(view, ticketID string) string {
	return fmt.Sprintf("tickets:detail:%s:%s", view, ticketID)
}

func versionKey(scope string) string {
	return "tickets:ver:" + scope
}
