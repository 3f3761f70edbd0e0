package http

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Ahmed0rashed/laya-store-backend/internal/domain"
	"github.com/Ahmed0rashed/laya-store-backend/internal/logger"
	"github.com/Ahmed0rashed/laya-store-backend/internal/service"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type ctxKey int

const userKey ctxKey = iota

// AuthUser is the authenticated caller attached to the request context.
type AuthUser struct {
	ID   string
	Role domain.Role
}

func userFromContext(ctx context.Context) (AuthUser, bool) {
	u, ok := ctx.Value(userKey).(AuthUser)
	return u, ok
}

func withUser(ctx context.Context, u AuthUser) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// RequestLogger stores a request-scoped zap logger on the context and logs
// one line per request once it completes.
func RequestLogger(base *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			l := base.With(zap.String("request_id", middleware.GetReqID(r.Context())))
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r.WithContext(logger.WithLogger(r.Context(), l)))

			l.Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("remote_ip", r.RemoteAddr))
		})
	}
}

// MaxBodySize caps request bodies at n bytes.
func MaxBodySize(n int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, n)
			next.ServeHTTP(w, r)
		})
	}
}

type Authenticator interface {
	VerifyToken(token string) (string, error)
	Profile(ctx context.Context, userID string) (*domain.User, error)
}

// Protect rejects requests without a valid bearer token for an active user.
func Protect(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				respondFail(w, http.StatusUnauthorized, "You are not logged in! Please log in to get access.")
				return
			}
			u, err := authenticate(r.Context(), auth, token)
			if err != nil {
				respondError(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(withUser(r.Context(), u)))
		})
	}
}

// OptionalAuth attaches the caller when a bearer token is sent. A request
// without one passes through anonymously; a bad token is still rejected.
func OptionalAuth(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}
			u, err := authenticate(r.Context(), auth, token)
			if err != nil {
				respondError(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(withUser(r.Context(), u)))
		})
	}
}

// RequireRole must run after Protect.
func RequireRole(roles ...domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := userFromContext(r.Context())
			if !ok {
				respondFail(w, http.StatusUnauthorized, "You are not logged in! Please log in to get access.")
				return
			}
			for _, role := range roles {
				if u.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			respondError(w, r, service.NewForbiddenError("You do not have permission to perform this action"))
		})
	}
}

func authenticate(ctx context.Context, auth Authenticator, token string) (AuthUser, error) {
	userID, err := auth.VerifyToken(token)
	if err != nil {
		return AuthUser{}, err
	}
	user, err := auth.Profile(ctx, userID)
	if err != nil {
		if service.KindOf(err) == service.KindNotFound {
			return AuthUser{}, service.NewUnauthorizedError("The user belonging to this token no longer exists")
		}
		return AuthUser{}, err
	}
	return AuthUser{ID: user.ID.Hex(), Role: user.Role}, nil
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// RateLimiter is a fixed-window per-IP limit backed by Redis, so every
// instance shares one budget.
type RateLimiter struct {
	client *redis.Client
	max    int64
	window time.Duration
	prefix string
}

func NewRateLimiter(client *redis.Client, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		client: client,
		max:    int64(limit),
		window: window,
		prefix: "rate_limit:",
	}
}

func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := l.prefix + clientIP(r)

		count, ttl, err := l.hit(r.Context(), key)
		if err != nil {
			// the limiter fails open
			logger.FromContext(r.Context()).Warn("rate limiter unavailable", zap.Error(err))
			next.ServeHTTP(w, r)
			return
		}

		remaining := l.max - count
		if remaining < 0 {
			remaining = 0
		}
		w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(l.max, 10))
		w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if count > l.max {
			w.Header().Set("Retry-After", fmt.Sprintf("%d", int(ttl.Seconds())))
			respondFail(w, http.StatusTooManyRequests, "Too many requests from this IP, please try again later.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (l *RateLimiter) hit(ctx context.Context, key string) (int64, time.Duration, error) {
	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, 0, err
	}
	if count == 1 {
		if err := l.client.Expire(ctx, key, l.window).Err(); err != nil {
			return 0, 0, err
		}
		return count, l.window, nil
	}

	ttl, err := l.client.TTL(ctx, key).Result()
	if err != nil {
		return 0, 0, err
	}
	if ttl < 0 {
		// window key lost its expiry; restart the window
		if err := l.client.Expire(ctx, key, l.window).Err(); err != nil {
			logger.FromContext(ctx).Warn("rate limiter expire failed", zap.String("key", key), zap.Error(err))
		}
		ttl = l.window
	}
	return count, ttl, nil
}

// clientIP expects middleware.RealIP to have already rewritten RemoteAddr.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
