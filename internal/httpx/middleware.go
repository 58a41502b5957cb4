package httpx

import (
	"context"
	"crypto/subtle"
	"net"
	"net/http"
	"strings"

	"github.com/ariefcatur/go-inventory-orders.git/internal/auth"
	"github.com/sirupsen/logrus"
)

type Authenticator interface {
	Authenticate(ctx context.Context, raw string) (auth.Identity, error)
}

type Limiter interface {
	Allow(ctx context.Context, client string) (bool, error)
}

// requireAuth resolves the bearer token into the caller identity.
func requireAuth(a Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || strings.TrimSpace(raw) == "" {
				respond(w, http.StatusUnauthorized, "Unauthenticated.", nil, nil)
				return
			}
			id, err := a.Authenticate(r.Context(), strings.TrimSpace(raw))
			if err != nil {
				respond(w, http.StatusUnauthorized, "Unauthenticated.", nil, nil)
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), id)))
		})
	}
}

// requireOwner must run after requireAuth.
func requireOwner(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := auth.FromContext(r.Context())
		if !ok || !id.IsOwner() {
			respond(w, http.StatusUnauthorized, "Unauthorized", nil, nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func requireAPIKey(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get("X-API-KEY")
			if key == "" || subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
				respond(w, http.StatusUnauthorized, "Unauthorized key invalid", nil, nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type tooManyRequests struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// rateLimit answers 429 with a bare body once the caller's window is spent.
// A limiter failure lets the request through.
func rateLimit(l Limiter, log logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, err := l.Allow(r.Context(), clientIP(r))
			if err != nil {
				log.WithError(err).Warn("rate limiter unavailable")
				ok = true
			}
			if !ok {
				writeJSON(w, http.StatusTooManyRequests, tooManyRequests{
					Success: false,
					Message: "Too many requests, please try again later.",
					Code:    http.StatusTooManyRequests,
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func identity(r *http.Request) auth.Identity {
	id, _ := auth.FromContext(r.Context())
	return id
}
