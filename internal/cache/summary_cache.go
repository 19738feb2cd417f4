// Package cache holds the Redis-backed projection cache for folder
// summaries. Summaries are recomputed from the documents table on miss and
// invalidated whenever a folder subtree or its documents mutate.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"arkiv/internal/domain/models"
)

const summaryTTL = 5 * time.Minute

// SummaryCache caches folder summary projections.
type SummaryCache struct {
	client *redis.Client
	prefix string
}

// NewSummaryCache creates a cache from a redis URL.
func NewSummaryCache(redisURL string) (*SummaryCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewSummaryCacheWithClient(client), nil
}

// NewSummaryCacheWithClient creates a cache from an existing client.
func NewSummaryCacheWithClient(client *redis.Client) *SummaryCache {
	return &SummaryCache{
		client: client,
		prefix: "summary:",
	}
}

func (c *SummaryCache) key(folderID string) string {
	return c.prefix + folderID
}

// Get returns the cached summary for a folder, (nil, nil) on miss.
func (c *SummaryCache) Get(ctx context.Context, folderID string) (*models.FolderSummary, error) {
	data, err := c.client.Get(ctx, c.key(folderID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get cached summary: %w", err)
	}

	var summary models.FolderSummary
	if err := json.Unmarshal([]byte(data), &summary); err != nil {
		return nil, fmt.Errorf("unmarshal cached summary: %w", err)
	}
	return &summary, nil
}

// Set stores a summary with a short TTL.
func (c *SummaryCache) Set(ctx context.Context, summary *models.FolderSummary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}

	if err := c.client.Set(ctx, c.key(summary.FolderID), data, summaryTTL).Err(); err != nil {
		return fmt.Errorf("cache summary: %w", err)
	}
	return nil
}

// Invalidate drops cached summaries for the given folder ids. Callers pass
// the ancestor chain of a mutated folder so stale aggregates disappear.
func (c *SummaryCache) Invalidate(ctx context.Context, folderIDs ...string) error {
	if len(folderIDs) == 0 {
		return nil
	}

	keys := make([]string, len(folderIDs))
	for i, id := range folderIDs {
		keys[i] = c.key(id)
	}

	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("invalidate summaries: %w", err)
	}
	return nil
}

// Ping checks connectivity.
func (c *SummaryCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close releases the underlying client.
func (c *SummaryCache) Close() error {
	return c.client.Close()
}
