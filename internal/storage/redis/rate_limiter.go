package redis

import (
	"context"
	"fmt"
	"github.com/ilindan-dev/sms-sender-bot/pkg/keybuilder"
	goredis "github.com/redis/go-redis/v9"
	"time"
)

// RateLimiter counts chat updates per fixed one-minute window.
type RateLimiter struct {
	redis  goredis.Cmdable
	limit  int64
	window time.Duration
	now    func() time.Time
}

func NewRateLimiter(redis goredis.Cmdable, perMinute int) *RateLimiter {
	return &RateLimiter{
		redis:  redis,
		limit:  int64(perMinute),
		window: time.Minute,
		now:    time.Now,
	}
}

// Allow reports whether the chat is still under its budget for the current window.
// A non-positive limit disables limiting.
func (l *RateLimiter) Allow(ctx context.Context, chatID int64) (bool, error) {
	if l.limit <= 0 {
		return true, nil
	}
	key := keybuilder.RedisRateLimitKeyBuild(chatID, l.now().Unix()/int64(l.window.Seconds()))

	n, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("redis: rate limit incr: %w", err)
	}
	if n == 1 {
		if err := l.redis.Expire(ctx, key, l.window).Err(); err != nil {
			return false, fmt.Errorf("redis: rate limit expire: %w", err)
		}
	}
	return n <= l.limit, nil
}
