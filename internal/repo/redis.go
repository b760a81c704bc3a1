package repo

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

type Redis struct{ C *redis.Client }

func NewRedis(addr string) *Redis {
	return &Redis{C: redis.NewClient(&redis.Options{Addr: addr})}
}

func (r *Redis) Ping(ctx context.Context) error { return r.C.Ping(ctx).Err() }
func (r *Redis) Close() error                   { return r.C.Close() }

// WindowLimiter counts hits per key in fixed windows shared by every replica.
type WindowLimiter struct {
	r      *Redis
	prefix string
	limit  int
	window time.Duration
}

func (r *Redis) Limiter(prefix string, limit int, window time.Duration) *WindowLimiter {
	return &WindowLimiter{r: r, prefix: prefix, limit: limit, window: window}
}

func (l *WindowLimiter) Allow(ctx context.Context, key string) (bool, error) {
	slot := time.Now().UnixNano() / int64(l.window)
	k := l.prefix + ":" + key + ":" + strconv.FormatInt(slot, 10)

	n, err := l.r.C.Incr(ctx, k).Result()
	if err != nil {
		return false, fmt.Errorf("rate limit incr: %w", err)
	}
	if n == 1 {
		if err := l.r.C.Expire(ctx, k, l.window).Err(); err != nil {
			return false, fmt.Errorf("rate limit expire: %w", err)
		}
	}
	return n <= int64(l.limit), nil
}
