package middleware

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/mikey/scamguard/internal/adapters/identity"
	"github.com/mikey/scamguard/internal/adapters/ratelimit"
)

// RateLimiter counts requests per client
type RateLimiter interface {
	Allow(ctx context.Context, clientID string) (ratelimit.Result, error)
}

// RateLimit returns middleware that applies a per-client request limit.
// Limiter failures let the request through.
func RateLimit(limiter RateLimiter, logger *zap.Logger) func(next http.Handler) http.Handler {
	logger = logger.Named("ratelimit")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			clientID := ClientID(r)
			res, err := limiter.Allow(r.Context(), clientID)
			if err != nil {
				logger.Warn("Rate limit check failed", zap.Error(err), zap.String("client", clientID))
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(res.Limit, 10))
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(res.Remaining, 10))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))

			if !res.Allowed {
				retry := int64(time.Until(res.ResetAt).Seconds())
				if retry < 1 {
					retry = 1
				}
				w.Header().Set("Retry-After", strconv.FormatInt(retry, 10))
				writeError(w, http.StatusTooManyRequests, "Rate limit exceeded")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ClientID identifies the caller for rate limiting: the user when
// authenticated, otherwise the remote address
func ClientID(r *http.Request) string {
	if user, ok := identity.UserFromContext(r.Context()); ok {
		return "user:" + user.ID
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}
