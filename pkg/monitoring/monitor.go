package monitoring

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	AttemptsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "quiz_attempts_created_total",
			Help: "Quiz attempts started",
		},
	)

	AttemptsSubmitted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "quiz_attempts_submitted_total",
			Help: "Quiz attempts submitted",
		},
	)

	AnswerMutations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quiz_answer_mutations_total",
			Help: "Answer upserts and deletes by outcome",
		},
		[]string{"op", "result"},
	)

	LockWait = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "quiz_attempt_lock_wait_seconds",
			Help:    "Time spent waiting for a per-attempt lock",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"backend"},
	)
)

var registerOnce sync.Once

// Init 注册所有指标，多次调用无副作用
func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(RequestCounter)
		prometheus.MustRegister(RequestDuration)
		prometheus.MustRegister(AttemptsCreated)
		prometheus.MustRegister(AttemptsSubmitted)
		prometheus.MustRegister(AnswerMutations)
		prometheus.MustRegister(LockWait)
	})
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := c.Writer.Status()

		RequestCounter.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			strconv.Itoa(status),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
		).Observe(duration)
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
