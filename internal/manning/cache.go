package manning

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"manifestgate/internal/domain"
)

// DocumentCache keeps the latest safe manning document per vessel in Redis.
// Authority registries rate-limit lookups, so evaluations read through the
// cache; a cache outage degrades to the store, never to a failed evaluation.
type DocumentCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *logrus.Logger
}

func NewDocumentCache(client *redis.Client, ttl time.Duration, log *logrus.Logger) *DocumentCache {
	return &DocumentCache{client: client, ttl: ttl, log: log}
}

func (c *DocumentCache) key(vesselID uuid.UUID) string {
	return fmt.Sprintf("manning:doc:%s", vesselID)
}

// Get returns the cached document and whether it was present. A nil cache or
// any Redis error reads as a miss.
func (c *DocumentCache) Get(ctx context.Context, vesselID uuid.UUID) (domain.SafeManningDocument, bool) {
	if c == nil || c.client == nil {
		return domain.SafeManningDocument{}, false
	}
	raw, err := c.client.Get(ctx, c.key(vesselID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.log.WithError(err).Warn("manning document cache read failed")
		}
		return domain.SafeManningDocument{}, false
	}
	var doc domain.SafeManningDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		c.log.WithError(err).Warn("manning document cache entry corrupt, dropping")
		c.client.Del(ctx, c.key(vesselID))
		return domain.SafeManningDocument{}, false
	}
	return doc, true
}

// Put stores the document for the configured TTL. Failures are logged, not
// returned.
func (c *DocumentCache) Put(ctx context.Context, doc domain.SafeManningDocument) {
	if c == nil || c.client == nil {
		return
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		c.log.WithError(err).Warn("manning document cache encode failed")
		return
	}
	if err := c.client.Set(ctx, c.key(doc.VesselID), raw, c.ttl).Err(); err != nil {
		c.log.WithError(err).Warn("manning document cache write failed")
	}
}

// Invalidate drops the cached document, used when a newer document lands.
func (c *DocumentCache) Invalidate(ctx context.Context, vesselID uuid.UUID) {
	if c == nil || c.client == nil {
		return
	}
	if err := c.client.Del(ctx, c.key(vesselID)).Err(); err != nil {
		c.log.WithError(err).Warn("manning document cache invalidation failed")
	}
}
