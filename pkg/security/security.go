package security

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"lms_backend/internal/config"
	"lms_backend/internal/util"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// CORS 中间件 仅允许白名单中的Origin，支持Credentials
func CORS(cfg config.CORSConfig) gin.HandlerFunc {
	originSet := make(map[string]bool, len(cfg.AllowedOrigins))
	for _, o := range cfg.AllowedOrigins {
		originSet[o] = true
	}

	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		if origin != "" && originSet[origin] {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			c.Writer.Header().Add("Vary", "Origin")
		}

		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Accept, Origin, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// Secure 中间件
func Secure() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		// 作答详情可能包含正确答案，禁止中间缓存
		c.Header("Cache-Control", "no-store")
		if c.Request.TLS != nil {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}

// KeyFunc picks the bucket a request is counted against.
type KeyFunc func(c *gin.Context) string

func ClientIPKey(c *gin.Context) string {
	return "ip:" + c.ClientIP()
}

// CallerKey counts authenticated callers by user id and falls back to the
// client IP. It must run after the auth middleware.
func CallerKey(c *gin.Context) string {
	if user := util.GetUserFromContext(c); user != nil {
		return fmt.Sprintf("user:%d", user.UserID)
	}
	return ClientIPKey(c)
}

// visitor 包装限流器和最后活跃时间，用于定期清理
type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter is a set of token buckets keyed by caller. Buckets idle for three
// windows (at least a minute) are dropped on the next sweep.
type Limiter struct {
	mu        sync.Mutex
	visitors  map[string]*visitor
	limit     rate.Limit
	burst     int
	expiry    time.Duration
	lastSweep time.Time
	now       func() time.Time
}

// NewLimiter allows maxRequests per window per key. maxRequests <= 0 disables limiting.
func NewLimiter(maxRequests int, window time.Duration) *Limiter {
	l := &Limiter{
		visitors: make(map[string]*visitor),
		limit:    rate.Inf,
		expiry:   window * 3,
		now:      time.Now,
	}
	if maxRequests > 0 && window > 0 {
		l.limit = rate.Every(window / time.Duration(maxRequests))
		l.burst = maxRequests
	}
	if l.expiry < time.Minute {
		l.expiry = time.Minute
	}
	l.lastSweep = l.now()
	return l
}

func (l *Limiter) Allow(key string) bool {
	if l.limit == rate.Inf {
		return true
	}

	l.mu.Lock()
	now := l.now()
	if now.Sub(l.lastSweep) >= time.Minute {
		for k, v := range l.visitors {
			if now.Sub(v.lastSeen) > l.expiry {
				delete(l.visitors, k)
			}
		}
		l.lastSweep = now
	}
	v, ok := l.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[key] = v
	}
	v.lastSeen = now
	l.mu.Unlock()

	return v.limiter.AllowN(now, 1)
}

func (l *Limiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.visitors)
}

func (l *Limiter) Middleware(key KeyFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.Allow(key(c)) {
			util.Error(c, http.StatusTooManyRequests, "Too many requests")
			c.Abort()
			return
		}
		c.Next()
	}
}

// RateLimiter 全局限流，按客户端 IP 计数
func RateLimiter(cfg config.RateLimitConfig) gin.HandlerFunc {
	return NewLimiter(cfg.MaxRequests, cfg.Window()).Middleware(ClientIPKey)
}

// MutationRateLimiter 作答接口限流，按登录用户计数，需挂在 AuthMiddleware 之后
func MutationRateLimiter(cfg config.RateLimitConfig) gin.HandlerFunc {
	return NewLimiter(cfg.MutationMaxRequests, cfg.Window()).Middleware(CallerKey)
}
