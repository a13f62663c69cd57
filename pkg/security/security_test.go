package security

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"lms_backend/internal/config"
	"lms_backend/internal/model"
	"lms_backend/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// asUser stands in for the auth middleware: X-User carries the caller id.
func asUser(c *gin.Context) {
	if raw := c.GetHeader("X-User"); raw != "" {
		id, _ := strconv.Atoi(raw)
		c.Set("user", &util.Claims{UserID: uint(id), Role: model.Student})
	}
	c.Next()
}

func mutationRouter(cfg config.RateLimitConfig) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.PUT("/api/quiz-attempts/:id/answers", asUser, MutationRateLimiter(cfg), func(c *gin.Context) {
		util.Success(c, nil)
	})
	return r
}

func put(r *gin.Engine, user string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPut, "/api/quiz-attempts/1/answers", nil)
	if user != "" {
		req.Header.Set("X-User", user)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestMutationRateLimiterCountsPerCaller(t *testing.T) {
	r := mutationRouter(config.RateLimitConfig{MutationMaxRequests: 2, WindowMinutes: 60})

	assert.Equal(t, http.StatusOK, put(r, "1").Code)
	assert.Equal(t, http.StatusOK, put(r, "1").Code)

	rec := put(r, "1")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	var body util.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, http.StatusTooManyRequests, body.Code)

	// 同一 IP 下的其他学生有独立的配额
	assert.Equal(t, http.StatusOK, put(r, "2").Code)
}

func TestMutationRateLimiterDisabled(t *testing.T) {
	r := mutationRouter(config.RateLimitConfig{})
	for i := 0; i < 50; i++ {
		require.Equal(t, http.StatusOK, put(r, "1").Code)
	}
}

func TestCallerKey(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Request.RemoteAddr = "10.0.0.1:1234"

	assert.Equal(t, "ip:10.0.0.1", CallerKey(c))
	c.Set("user", &util.Claims{UserID: 42})
	assert.Equal(t, "user:42", CallerKey(c))
}

func TestLimiterDropsIdleVisitors(t *testing.T) {
	now := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	l := NewLimiter(1, time.Minute)
	l.now = func() time.Time { return now }
	l.lastSweep = now

	assert.True(t, l.Allow("user:1"))
	assert.False(t, l.Allow("user:1"))
	assert.Equal(t, 1, l.size())

	now = now.Add(5 * time.Minute)
	assert.True(t, l.Allow("user:2"))
	assert.Equal(t, 1, l.size())
	assert.True(t, l.Allow("user:1"))
}

func TestCORS(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORS(config.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}}))
	r.GET("/api/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("Origin", "http://evil.test")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/api/health", nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
