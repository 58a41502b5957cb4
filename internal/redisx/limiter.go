package redisx

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// FixedWindowLimiter allows Limit hits per client per Window. The window
// starts with the first hit and the counter expires with it.
type FixedWindowLimiter struct {
	Client redis.Cmdable
	Scope  string
	Limit  int64
	Window time.Duration
}

func (l *FixedWindowLimiter) Allow(ctx context.Context, client string) (bool, error) {
	key := fmt.Sprintf(KeyRateLimit, l.Scope, client)
	n, err := l.Client.Incr(ctx, key).Result()
	if err != nil {
		return false, errors.Wrap(err, "rate limit incr")
	}
	if n == 1 {
		if err := l.Client.Expire(ctx, key, l.Window).Err(); err != nil {
			return false, errors.Wrap(err, "rate limit expire")
		}
	}
	return n <= l.Limit, nil
}
