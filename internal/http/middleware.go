package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/sujalbistaa/scamwatch/internal/models"
	"github.com/sujalbistaa/scamwatch/internal/moderation"
)

const (
	callerKey    = "caller"
	requestIDKey = "request_id"
)

// TokenResolver maps a bearer token to a user id.
type TokenResolver interface {
	Resolve(token string) (uint, error)
}

// AdminChecker reports whether a user currently holds admin rights.
type AdminChecker interface {
	IsAdmin(ctx context.Context, userID uint) (bool, error)
}

// AccessGateMiddleware resolves the optional bearer token into a
// moderation.Caller. A missing, malformed, expired or orphaned token leaves
// the request anonymous, so public routes keep working and protected
// operations fail in the engine with ErrUnauthorized. Admin rights are
// looked up on every request.
func AccessGateMiddleware(tokens TokenResolver, admins AdminChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(callerKey, moderation.Caller{})

		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}

		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			slog.DebugContext(c.Request.Context(), "ignoring malformed authorization header")
			c.Next()
			return
		}

		userID, err := tokens.Resolve(strings.TrimSpace(raw))
		if err != nil {
			slog.DebugContext(c.Request.Context(), "ignoring invalid token", slog.String("error", err.Error()))
			c.Next()
			return
		}

		isAdmin, err := admins.IsAdmin(c.Request.Context(), userID)
		if errors.Is(err, models.ErrNotFound) {
			slog.DebugContext(c.Request.Context(), "ignoring token for unknown user", slog.Uint64("user_id", uint64(userID)))
			c.Next()
			return
		}
		if err != nil {
			slog.ErrorContext(c.Request.Context(), "admin lookup failed",
				slog.Uint64("user_id", uint64(userID)),
				slog.String("error", err.Error()),
			)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}

		c.Set(callerKey, moderation.Caller{UserID: userID, IsAdmin: isAdmin})
		c.Next()
	}
}

// callerFrom returns the caller resolved by AccessGateMiddleware, or an
// anonymous caller when the gate did not run.
func callerFrom(c *gin.Context) moderation.Caller {
	if v, ok := c.Get(callerKey); ok {
		if caller, ok := v.(moderation.Caller); ok {
			return caller
		}
	}
	return moderation.Caller{}
}

// RequestLogger logs every request through slog and tags it with a
// request id. The level follows the status code: Info, Warn for 4xx,
// Error for 5xx.
func RequestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(requestIDKey, requestID)
		c.Header("X-Request-ID", requestID)

		c.Next()

		status := c.Writer.Status()
		level := slog.LevelInfo
		if status >= 500 {
			level = slog.LevelError
		} else if status >= 400 {
			level = slog.LevelWarn
		}

		attrs := []slog.Attr{
			slog.String("request_id", requestID),
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", status),
			slog.Duration("duration", time.Since(start)),
			slog.Int("bytes", c.Writer.Size()),
			slog.String("client_ip", c.ClientIP()),
		}
		if caller := callerFrom(c); caller.Authenticated() {
			attrs = append(attrs, slog.Uint64("user_id", uint64(caller.UserID)))
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, slog.String("errors", c.Errors.String()))
		}
		logger.LogAttrs(c.Request.Context(), level, "http request", attrs...)
	}
}

// SecurityHeadersMiddleware adds basic, sensible security headers.
func SecurityHeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("Referrer-Policy", "no-referrer")
		c.Header("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		c.Next()
	}
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPRateLimiter keeps one token bucket per client IP.
type IPRateLimiter struct {
	visitors map[string]*visitor
	mu       sync.Mutex
	rps      rate.Limit
	burst    int
}

func NewIPRateLimiter(r rate.Limit, b int) *IPRateLimiter {
	return &IPRateLimiter{
		visitors: make(map[string]*visitor),
		rps:      r,
		burst:    b,
	}
}

func (rl *IPRateLimiter) GetLimiter(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	v, exists := rl.visitors[ip]
	if !exists {
		v = &visitor{limiter: rate.NewLimiter(rl.rps, rl.burst)}
		rl.visitors[ip] = v
	}
	v.lastSeen = time.Now()
	return v.limiter
}

// Cleanup forgets visitors idle for longer than idle, every interval,
// until ctx is done.
func (rl *IPRateLimiter) Cleanup(ctx context.Context, interval, idle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			rl.evict(now.Add(-idle))
		}
	}
}

func (rl *IPRateLimiter) evict(before time.Time) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	n := 0
	for ip, v := range rl.visitors {
		if v.lastSeen.Before(before) {
			delete(rl.visitors, ip)
			n++
		}
	}
	return n
}

func RateLimitMiddleware(limiter *IPRateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.GetLimiter(c.ClientIP()).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests. Please wait."})
			return
		}
		c.Next()
	}
}
