package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimitRepository tracks request counts per client IP in Redis.
type RateLimitRepository interface {
	Hit(ctx context.Context, ip string, window time.Duration) (int64, error)
	IsBlocked(ctx context.Context, ip string) (bool, error)
	Block(ctx context.Context, ip string, duration time.Duration) error
}

type rateLimitRepository struct {
	client *redis.Client
}

func NewRateLimitRepository(client *redis.Client) RateLimitRepository {
	return &rateLimitRepository{client: client}
}

// Hit increments the counter for the IP and returns the new count. The window
// TTL is set when the counter is first created.
func (r *rateLimitRepository) Hit(ctx context.Context, ip string, window time.Duration) (int64, error) {
	key := fmt.Sprintf("ratelimit:%s", ip)

	count, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if count == 1 {
		if err := r.client.Expire(ctx, key, window).Err(); err != nil {
			return count, err
		}
	}

	return count, nil
}

func (r *rateLimitRepository) IsBlocked(ctx context.Context, ip string) (bool, error) {
	key := fmt.Sprintf("blocked_ip:%s", ip)
	result, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return result > 0, nil
}

func (r *rateLimitRepository) Block(ctx context.Context, ip string, duration time.Duration) error {
	key := fmt.Sprintf("blocked_ip:%s", ip)
	return r.client.Set(ctx, key, "1", duration).Err()
}
