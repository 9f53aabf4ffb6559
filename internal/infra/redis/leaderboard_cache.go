package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"angostura-trivia-service/internal/app"
	"angostura-trivia-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

const leaderboardKeyPrefix = "trivia:leaderboard:"

// LeaderboardCache caches ranked snapshots in front of the result store.
// It also implements app.ResultListener so a fresh result drops the
// cached snapshots before subscribers are notified.
type LeaderboardCache struct {
	client   *redis.Client
	upstream app.LeaderboardProvider
	ttl      time.Duration
}

func NewLeaderboardCache(client *redis.Client, upstream app.LeaderboardProvider, ttl time.Duration) *LeaderboardCache {
	return &LeaderboardCache{client: client, upstream: upstream, ttl: ttl}
}

func (c *LeaderboardCache) Leaderboard(ctx context.Context, limit int) (domain.Leaderboard, error) {
	key := fmt.Sprintf("%s%d", leaderboardKeyPrefix, limit)

	if data, err := c.client.Get(ctx, key).Bytes(); err == nil {
		var lb domain.Leaderboard
		if err := json.Unmarshal(data, &lb); err == nil {
			return lb, nil
		}
	}

	lb, err := c.upstream.Leaderboard(ctx, limit)
	if err != nil {
		return domain.Leaderboard{}, err
	}
	if data, err := json.Marshal(lb); err == nil {
		_ = c.client.Set(ctx, key, data, c.ttl).Err()
	}
	return lb, nil
}

// ResultRecorded invalidates all cached snapshot sizes.
func (c *LeaderboardCache) ResultRecorded(ctx context.Context) {
	iter := c.client.Scan(ctx, 0, leaderboardKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		_ = c.client.Del(ctx, iter.Val()).Err()
	}
}
