package middleware

import (
	"fmt"
	"log/slog"
	"math"
	"net"
	"net/http"

	"github.com/jellydator/ttlcache/v3"
	"golang.org/x/time/rate"

	"rapidresq/resq/pkg/config"
)

// RateLimiter hands out one token bucket per client IP. Idle buckets expire
// after the configured client TTL.
type RateLimiter struct {
	limit    rate.Limit
	burst    int
	limiters *ttlcache.Cache[string, *rate.Limiter]
	onLimit  func()
	logger   *slog.Logger
}

// NewRateLimiter creates a limiter from cfg. onLimit, if non-nil, is called
// for every refused request. Call Stop to release the expiry goroutine.
func NewRateLimiter(cfg *config.RateLimitConfig, onLimit func(), logger *slog.Logger) *RateLimiter {
	if logger == nil {
		logger = slog.Default()
	}
	ttl := cfg.ClientTTL
	if ttl <= 0 {
		ttl = config.DefaultRateLimitTTL
	}

	limiters := ttlcache.New[string, *rate.Limiter](
		ttlcache.WithTTL[string, *rate.Limiter](ttl),
	)
	go limiters.Start()

	return &RateLimiter{
		limit:    rate.Limit(cfg.RequestsPerSecond),
		burst:    cfg.Burst,
		limiters: limiters,
		onLimit:  onLimit,
		logger:   logger,
	}
}

// Stop halts expiry of idle client buckets.
func (l *RateLimiter) Stop() {
	l.limiters.Stop()
}

// Clients returns the number of tracked client buckets.
func (l *RateLimiter) Clients() int {
	return l.limiters.Len()
}

func (l *RateLimiter) limiterFor(ip string) *rate.Limiter {
	if item := l.limiters.Get(ip); item != nil {
		return item.Value()
	}
	item, _ := l.limiters.GetOrSet(ip, rate.NewLimiter(l.limit, l.burst))
	return item.Value()
}

// Middleware refuses requests beyond the client's rate with 429. The
// Retry-After header tells the client when a token will be available.
func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		limiter := l.limiterFor(ClientIP(r))
		res := limiter.Reserve()
		if delay := res.Delay(); delay > 0 {
			res.Cancel()
			if l.onLimit != nil {
				l.onLimit()
			}
			l.logger.WarnContext(r.Context(), "rate limit exceeded",
				"path", r.URL.Path,
				"remote_addr", r.RemoteAddr,
			)

			w.Header().Set("Retry-After", fmt.Sprintf("%.0f", math.Ceil(delay.Seconds())))
			w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%v", limiter.Limit()))
			w.Header().Set("X-RateLimit-Burst", fmt.Sprintf("%d", limiter.Burst()))
			WriteError(w, http.StatusTooManyRequests, http.StatusText(http.StatusTooManyRequests), "")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// ClientIP returns the host part of the request's remote address.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
