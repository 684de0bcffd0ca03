package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache keeps the rendered feed document in Redis so repeated reads skip
// the store and the renderer.
type Cache struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

type feedData struct {
	Content  string `json:"content"`
	CachedAt int64  `json:"cached_at"`
}

// NewCache connects to Redis at addr. feedURL identifies the cached
// document; ttl bounds how long a rendered copy is served.
func NewCache(addr, feedURL string, ttl time.Duration) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	slog.Info("Connected to Redis", "addr", addr)

	return &Cache{
		client: client,
		key:    FeedKey(feedURL),
		ttl:    ttl,
	}, nil
}

// FeedKey derives a stable key for a feed URL.
func FeedKey(feedURL string) string {
	hash := sha256.Sum256([]byte(feedURL))
	return fmt.Sprintf("homefeed:feed:%x", hash[:8])
}

// GetFeed returns the cached document; a miss is not an error.
func (c *Cache) GetFeed(ctx context.Context) (string, bool, error) {
	raw, err := c.client.Get(ctx, c.key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get key %s: %w", c.key, err)
	}

	var data feedData
	if err := json.Unmarshal([]byte(raw), &data); err != nil || data.Content == "" {
		// Unreadable entries are dropped and treated as a miss.
		c.client.Del(ctx, c.key)
		return "", false, nil
	}

	return data.Content, true, nil
}

func (c *Cache) SetFeed(ctx context.Context, content string) error {
	raw, err := json.Marshal(feedData{Content: content, CachedAt: time.Now().Unix()})
	if err != nil {
		return fmt.Errorf("failed to marshal feed for key %s: %w", c.key, err)
	}

	if err := c.client.Set(ctx, c.key, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set key %s: %w", c.key, err)
	}
	return nil
}

// InvalidateFeed drops the cached document after the stored state changed.
func (c *Cache) InvalidateFeed(ctx context.Context) error {
	if err := c.client.Del(ctx, c.key).Err(); err != nil {
		return fmt.Errorf("failed to delete key %s: %w", c.key, err)
	}
	return nil
}

// Health reports connectivity for the health endpoint.
func (c *Cache) Health(ctx context.Context) map[string]interface{} {
	health := map[string]interface{}{
		"status": "healthy",
		"type":   "redis",
	}

	if err := c.client.Ping(ctx).Err(); err != nil {
		health["status"] = "unhealthy"
		health["error"] = err.Error()
		return health
	}

	if ttl, err := c.client.TTL(ctx, c.key).Result(); err == nil && ttl > 0 {
		health["feed_ttl"] = ttl.String()
	}

	return health
}

func (c *Cache) Close() error {
	return c.client.Close()
}
