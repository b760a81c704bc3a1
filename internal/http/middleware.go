package http

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/tazhibayda/auth-gateway/internal/auth"
	"github.com/tazhibayda/auth-gateway/internal/domain"
	"github.com/tazhibayda/auth-gateway/internal/log"
	"github.com/tazhibayda/auth-gateway/internal/metrics"
	"go.uber.org/zap"
)

const (
	requestIDHeader = "X-Request-ID"
	userKey         = "auth.user"
)

func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		c.Set(requestIDHeader, id)
		c.Header(requestIDHeader, id)
		c.Request = c.Request.WithContext(log.WithRequestID(c.Request.Context(), id))
		c.Next()
	}
}

// AccessLog writes one line per request. Query strings are left out: they carry codes and states.
func AccessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Req(c.Request.Context()).Info("http request",
			zap.String("method", c.Request.Method),
			zap.String("route", route(c)),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", ClientIP(c)),
		)
	}
}

func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		metrics.InFlight.Inc()
		start := time.Now()
		c.Next()
		metrics.InFlight.Dec()

		r := route(c)
		metrics.RequestsTotal.WithLabelValues(r, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		metrics.ReqDuration.WithLabelValues(r, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}

// RequireSession resolves the access_token cookie (or a bearer header) to a user.
func RequireSession(svc *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		u, err := svc.ResolveSession(c.Request.Context(), sessionToken(c))
		if err != nil {
			if !errors.Is(err, domain.ErrUnauthenticated) {
				log.Req(c.Request.Context()).Error("session lookup failed", zap.Error(err))
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
				return
			}
			c.Header("WWW-Authenticate", "Bearer")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
			return
		}
		c.Set(userKey, u)
		c.Next()
	}
}

// CurrentUser is valid behind RequireSession.
func CurrentUser(c *gin.Context) *domain.User {
	v, _ := c.Get(userKey)
	u, _ := v.(*domain.User)
	return u
}

func sessionToken(c *gin.Context) string {
	if tok, err := c.Cookie(sessionCookie); err == nil && tok != "" {
		return tok
	}
	h := c.GetHeader("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// Limiter decides whether key may make one more request.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

type bucket struct {
	hits    int
	started time.Time
}

// MemoryLimiter is a per-process fixed window limiter, used when Redis is not configured.
type MemoryLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	rate    int
	window  time.Duration
	now     func() time.Time
}

func NewMemoryLimiter(rate int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{buckets: make(map[string]*bucket), rate: rate, window: window, now: time.Now}
}

func (rl *MemoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	now := rl.now()
	rl.mu.Lock()
	defer rl.mu.Unlock()
	b, ok := rl.buckets[key]
	if !ok || now.Sub(b.started) >= rl.window {
		rl.buckets[key] = &bucket{hits: 1, started: now}
		rl.sweep(now)
		return true, nil
	}
	if b.hits < rl.rate {
		b.hits++
		return true, nil
	}
	return false, nil
}

// sweep drops expired buckets once the map grows.
func (rl *MemoryLimiter) sweep(now time.Time) {
	if len(rl.buckets) < 1024 {
		return
	}
	for k, b := range rl.buckets {
		if now.Sub(b.started) >= rl.window {
			delete(rl.buckets, k)
		}
	}
}

func ClientIP(c *gin.Context) string {
	ip := c.ClientIP()
	if ip == "" {
		ip = "unknown"
	}
	host, _, err := net.SplitHostPort(ip)
	if err == nil && host != "" {
		return host
	}
	return ip
}

// RateLimit fails open: a broken limiter backend must not lock users out.
func RateLimit(l Limiter, scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if l == nil {
			c.Next()
			return
		}
		ok, err := l.Allow(c.Request.Context(), scope+":"+ClientIP(c))
		if err != nil {
			log.Req(c.Request.Context()).Warn("rate limiter unavailable", zap.Error(err))
			c.Next()
			return
		}
		if !ok {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}
		c.Next()
	}
}

func route(c *gin.Context) string {
	if r := c.FullPath(); r != "" {
		return r
	}
	return "unmatched"
}
