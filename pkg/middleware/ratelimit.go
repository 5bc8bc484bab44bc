package middleware

import (
	"context"
	"fmt"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"venue-crm-backend/pkg/config"
	"venue-crm-backend/pkg/utils"

	"github.com/redis/go-redis/v9"
)

// RateResult is the limiter's verdict for one request.
type RateResult struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAfter time.Duration
}

// RateLimiter counts requests per key in fixed windows.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (RateResult, error)
}

func windowStart(now time.Time, window time.Duration) time.Time {
	return now.Truncate(window)
}

func result(count int64, limit int, start time.Time, window time.Duration, now time.Time) RateResult {
	remaining := limit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return RateResult{
		Allowed:    count <= int64(limit),
		Limit:      limit,
		Remaining:  remaining,
		ResetAfter: start.Add(window).Sub(now),
	}
}

// RedisRateLimiter shares counters between instances: INCR on a key per
// window, with EXPIRE set on the first hit.
type RedisRateLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
	now    func() time.Time
}

func NewRedisRateLimiter(client *redis.Client, limit int, window time.Duration) *RedisRateLimiter {
	return &RedisRateLimiter{client: client, limit: limit, window: window, now: time.Now}
}

func (l *RedisRateLimiter) Allow(ctx context.Context, key string) (RateResult, error) {
	now := l.now()
	start := windowStart(now, l.window)
	redisKey := fmt.Sprintf("ratelimit:%s:%d", key, start.Unix())

	count, err := l.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return RateResult{}, err
	}
	if count == 1 {
		if err := l.client.Expire(ctx, redisKey, l.window).Err(); err != nil {
			return RateResult{}, err
		}
	}
	return result(count, l.limit, start, l.window, now), nil
}

type windowCounter struct {
	start time.Time
	count int64
}

// MemoryRateLimiter keeps counters in process.
type MemoryRateLimiter struct {
	mu       sync.Mutex
	limit    int
	window   time.Duration
	counters map[string]*windowCounter
	lastGC   time.Time
	now      func() time.Time
}

func NewMemoryRateLimiter(limit int, window time.Duration) *MemoryRateLimiter {
	return &MemoryRateLimiter{
		limit:    limit,
		window:   window,
		counters: make(map[string]*windowCounter),
		now:      time.Now,
	}
}

func (l *MemoryRateLimiter) Allow(_ context.Context, key string) (RateResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	start := windowStart(now, l.window)
	if now.Sub(l.lastGC) > l.window {
		for k, c := range l.counters {
			if c.start.Before(start) {
				delete(l.counters, k)
			}
		}
		l.lastGC = now
	}

	c, ok := l.counters[key]
	if !ok || !c.start.Equal(start) {
		c = &windowCounter{start: start}
		l.counters[key] = c
	}
	c.count++
	return result(c.count, l.limit, start, l.window, now), nil
}

// RateLimit applies limiter per client IP. Limiter failures let the request through.
func RateLimit(limiter RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res, err := limiter.Allow(r.Context(), clientIP(r))
			if err != nil {
				config.LogError(config.GetLogger(), "middleware", "RateLimit", "rate limiter unavailable, allowing request", clientIP(r), err)
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
			if !res.Allowed {
				retry := int(math.Ceil(res.ResetAfter.Seconds()))
				if retry < 1 {
					retry = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(retry))
				utils.WriteErrorResponseWithCode(w, r, http.StatusTooManyRequests, utils.CodeRateLimitExceeded,
					"Too many requests, please retry later")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP is RemoteAddr without the port; chi's RealIP runs first.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
