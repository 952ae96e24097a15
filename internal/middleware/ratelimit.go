// AngelaMos | 2026
// ratelimit.go

package middleware

import (
	"fmt"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	redis_rate "github.com/go-redis/redis_rate/v10"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/buildmc/storefront/internal/core"
)

// RateLimitConfig.FailOpen keeps serving on a per-process token bucket
// while Redis is unreachable; otherwise those requests get a 503.
type RateLimitConfig struct {
	Limit    redis_rate.Limit
	KeyFunc  func(*http.Request) string
	FailOpen bool
}

// RateLimiter counts in Redis (GCRA via redis_rate).
type RateLimiter struct {
	redis    *redis_rate.Limiter
	local    *localBuckets
	cfg      RateLimitConfig
	resolved string
}

func NewRateLimiter(rdb *redis.Client, cfg RateLimitConfig) *RateLimiter {
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = KeyByIP
	}
	return &RateLimiter{
		redis:    redis_rate.NewLimiter(rdb),
		local:    newLocalBuckets(),
		cfg:      cfg,
		resolved: fmt.Sprintf("%d;w=%d", cfg.Limit.Rate, int(cfg.Limit.Period.Seconds())),
	}
}

func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := rl.cfg.KeyFunc(r)

		res, err := rl.redis.Allow(r.Context(), key, rl.cfg.Limit)
		if err != nil {
			if !rl.cfg.FailOpen {
				core.JSONError(w, core.NewAppError(err, "rate limiter unavailable",
					http.StatusServiceUnavailable, "UNAVAILABLE"))
				return
			}
			slog.Debug("redis rate limit unavailable, using local bucket", "key", key, "error", err)
			res = rl.local.allow(key, rl.cfg.Limit)
		}

		h := w.Header()
		h.Set("RateLimit-Policy", rl.resolved)
		h.Set("RateLimit", fmt.Sprintf("%d;t=%d", res.Remaining, ceilSeconds(res.ResetAfter)))
		h.Set("X-RateLimit-Limit", strconv.Itoa(rl.cfg.Limit.Rate))
		h.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))

		if res.Allowed > 0 {
			next.ServeHTTP(w, r)
			return
		}

		retry := max(ceilSeconds(res.RetryAfter), 1)
		message := fmt.Sprintf("Too many requests. Try again in %d seconds.", retry)
		h.Set("Retry-After", strconv.Itoa(retry))
		core.JSONError(w, core.NewAppError(nil, message, http.StatusTooManyRequests, "RATE_LIMITED").
			WithNotice(core.Notice{Level: core.NoticeWarning, Message: message}))
	})
}

func ceilSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Seconds()))
}

const localIdleTTL = 10 * time.Minute

type bucket struct {
	lim  *rate.Limiter
	seen time.Time
}

type localBuckets struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	swept   time.Time
}

func newLocalBuckets() *localBuckets {
	return &localBuckets{buckets: make(map[string]*bucket), swept: time.Now()}
}

// allow sweeps idle buckets inline instead of running a janitor goroutine
// per limiter.
func (l *localBuckets) allow(key string, limit redis_rate.Limit) *redis_rate.Result {
	now := time.Now()
	perSecond := float64(limit.Rate) / limit.Period.Seconds()

	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.swept) > localIdleTTL {
		for k, b := range l.buckets {
			if now.Sub(b.seen) > localIdleTTL {
				delete(l.buckets, k)
			}
		}
		l.swept = now
	}

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(rate.Limit(perSecond), max(limit.Burst, 1))}
		l.buckets[key] = b
	}
	b.seen = now

	interval := time.Duration(float64(time.Second) / perSecond)
	res := &redis_rate.Result{
		Limit:      limit,
		Remaining:  max(int(b.lim.TokensAt(now)), 0),
		ResetAfter: interval,
		RetryAfter: -1,
	}
	if b.lim.AllowN(now, 1) {
		res.Allowed = 1
		res.Remaining = max(res.Remaining-1, 0)
	} else {
		res.RetryAfter = interval
	}
	return res
}

// KeyByIP trusts the last X-Forwarded-For hop, which is the one our own
// proxy appended.
func KeyByIP(r *http.Request) string {
	return core.RedisKey("ratelimit", "ip", ClientIP(r))
}

// ClientIP is the caller address as seen by our edge proxy.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		hops := strings.Split(xff, ",")
		return strings.TrimSpace(hops[len(hops)-1])
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func KeyByUser(r *http.Request) string {
	if id := GetUserID(r.Context()); id != "" {
		return core.RedisKey("ratelimit", "user", id)
	}
	return KeyByIP(r)
}

// KeyByUserAndEndpoint collapses ids in the path so /orders/<a>/delete
// and /orders/<b>/delete share one budget.
func KeyByUserAndEndpoint(r *http.Request) string {
	return KeyByUser(r) + ":endpoint:" + endpointTemplate(r.URL.Path)
}

func endpointTemplate(path string) string {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	for i, s := range segments {
		if _, err := uuid.Parse(s); err == nil && len(s) == 36 {
			segments[i] = "{id}"
			continue
		}
		if _, err := strconv.ParseUint(s, 10, 64); err == nil {
			segments[i] = "{id}"
		}
	}
	return "/" + strings.Join(segments, "/")
}

// Strict adds a per-caller, per-endpoint budget on top of the global one.
func Strict(rdb *redis.Client, limit redis_rate.Limit) func(http.Handler) http.Handler {
	return NewRateLimiter(rdb, RateLimitConfig{
		Limit:    limit,
		KeyFunc:  KeyByUserAndEndpoint,
		FailOpen: true,
	}).Handler
}

// Window allows n requests per period, with the given burst.
func Window(n int, period time.Duration, burst int) redis_rate.Limit {
	if period <= 0 {
		period = time.Minute
	}
	return redis_rate.Limit{Rate: n, Burst: burst, Period: period}
}

func PerMinute(n, burst int) redis_rate.Limit {
	return Window(n, time.Minute, burst)
}
