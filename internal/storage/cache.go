package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"riskeval/internal/common/database"
	"riskeval/internal/models"
)

// RecordCache keeps recently accessed evaluation records in Redis so repeat
// lookups skip Postgres. A cache miss or failure is never an error surfaced
// to callers; the store falls through to the database.
type RecordCache struct {
	client *database.RedisClient
	ttl    time.Duration
}

func NewRecordCache(client *database.RedisClient, ttl time.Duration) *RecordCache {
	return &RecordCache{client: client, ttl: ttl}
}

func cacheKey(sessionID string) string {
	return "evaluation:" + sessionID
}

// Get returns the cached record, or (nil, nil) on a miss.
func (c *RecordCache) Get(ctx context.Context, sessionID string) (*models.EvaluationRecord, error) {
	raw, err := c.client.Get(ctx, cacheKey(sessionID))
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var record models.EvaluationRecord
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		// A corrupt entry behaves like a miss and gets overwritten on the
		// next Set.
		return nil, nil
	}
	return &record, nil
}

// Set stores the record under its session ID with the configured TTL.
func (c *RecordCache) Set(ctx context.Context, record *models.EvaluationRecord) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, cacheKey(record.SessionID), raw, c.ttl)
}

// Invalidate drops the cached entry for a session ID.
func (c *RecordCache) Invalidate(ctx context.Context, sessionID string) error {
	return c.client.Del(ctx, cacheKey(sessionID))
}
