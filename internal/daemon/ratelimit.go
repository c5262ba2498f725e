package daemon

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/felixgeelhaar/fortify/ratelimit"
)

// generationLimiter caps requests that call the generator, one token
// bucket per client address
type generationLimiter struct {
	limiter   ratelimit.RateLimiter
	perMinute int
}

// newGenerationLimiter returns nil when perMinute is not positive, which
// disables limiting
func newGenerationLimiter(perMinute int) *generationLimiter {
	if perMinute <= 0 {
		return nil
	}
	return &generationLimiter{
		limiter: ratelimit.New(&ratelimit.Config{
			Rate:     perMinute,
			Burst:    perMinute,
			Interval: time.Minute,
			Store:    ratelimit.NewMemoryStoreWithOptions(ratelimit.WithEntryTTL(10 * time.Minute)),
			OnLimit: func(ctx context.Context, key string) {
				slog.Warn("generation rate limit exceeded",
					"request_id", GetRequestID(ctx),
					"client", key,
				)
			},
		}),
		perMinute: perMinute,
	}
}

// Allow takes one token for the client key
func (l *generationLimiter) Allow(ctx context.Context, key string) bool {
	return l.limiter.Allow(ctx, key)
}

// retryAfter is the whole seconds until one token refills
func (l *generationLimiter) retryAfter() string {
	return strconv.Itoa(max(1, 60/l.perMinute))
}

// Close stops the bucket store's cleanup
func (l *generationLimiter) Close() error {
	return l.limiter.Close()
}

// limitGeneration wraps a generating handler. A nil limiter passes through.
func (s *Server) limitGeneration(next http.HandlerFunc) http.HandlerFunc {
	if s.limiter == nil {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow(r.Context(), clientIP(r)) {
			w.Header().Set("Retry-After", s.limiter.retryAfter())
			s.jsonError(w, http.StatusTooManyRequests, "생성 요청이 너무 많습니다. 잠시 후 다시 시도해주세요.", nil)
			return
		}
		next(w, r)
	}
}

// clientIP keys requests by remote address. Forwarding headers are ignored
// because the daemon is reached directly.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
