package middleware

import (
	"net/http"
	"strconv"

	"github.com/Fasilurahman/TeamVerse-sub001/handlers"
	"github.com/Fasilurahman/TeamVerse-sub001/models"
	"github.com/Fasilurahman/TeamVerse-sub001/pkg"
	"github.com/Fasilurahman/TeamVerse-sub001/pkg/ratelimit"
)

// KeyFunc picks the bucket a request counts against. An empty key skips
// limiting.
type KeyFunc func(r *http.Request) string

// ByIP keys on the client address.
func ByIP(r *http.Request) string {
	return "ip:" + ratelimit.ExtractIP(r)
}

// ByUser keys on the authenticated user; it must run after AuthMiddleware.
func ByUser(r *http.Request) string {
	user, ok := r.Context().Value(handlers.UserContextKey).(*models.User)
	if !ok {
		return ""
	}
	return "user:" + user.ID
}

// RateLimit answers 429 with Retry-After once key's bucket is empty.
func RateLimit(limiter *ratelimit.KeyedLimiter, key KeyFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			k := key(r)
			if k != "" && !limiter.Allow(k) {
				w.Header().Set("Retry-After", strconv.Itoa(limiter.RetryAfterSeconds(k)))
				pkg.ErrorWithMessage(w, http.StatusTooManyRequests, pkg.ErrTooManyRequests.Error())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
