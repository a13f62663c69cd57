package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
server:
  port: "8080"
  mode: debug
database:
  driver: sqlite
  path: test.db
jwt:
  secret: short
  expire_hours: 2
quiz:
  max_attempts_per_lesson: 3
  lock_backend: redis
  lock_ttl_seconds: 5
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0o644))
	return dir
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "test.db", cfg.Database.Path)
	assert.Equal(t, 2*time.Hour, cfg.JWT.ExpireTime)
	assert.Equal(t, 3, cfg.Quiz.MaxAttemptsPerLesson)
	assert.Equal(t, LockBackendRedis, cfg.Quiz.LockBackend)
	assert.Equal(t, 5*time.Second, cfg.Quiz.LockTTL())
	assert.Equal(t, 100000, cfg.RateLimit.MaxRequests)
	assert.Zero(t, cfg.RateLimit.MutationMaxRequests)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window())
	assert.Equal(t, "lms-quiz-engine", cfg.Tracing.ServiceName)
	assert.Equal(t, 1.0, cfg.Tracing.SampleRatio)
	assert.Equal(t, 20, cfg.Redis.PoolSize)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("QUIZ_MAX_ATTEMPTS_PER_LESSON", "7")
	cfg, err := LoadConfig(writeConfig(t, sampleConfig))
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Quiz.MaxAttemptsPerLesson)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"debug with short secret", Config{Server: ServerConfig{Mode: "debug"}, JWT: JWTConfig{Secret: "x"}}, false},
		{"release with short secret", Config{Server: ServerConfig{Mode: "release"}, JWT: JWTConfig{Secret: "x"}}, true},
		{"negative attempts", Config{Quiz: QuizConfig{MaxAttemptsPerLesson: -1}}, true},
		{"unknown lock backend", Config{Quiz: QuizConfig{LockBackend: "etcd"}}, true},
		{"sample ratio above one", Config{Tracing: TracingConfig{SampleRatio: 1.5}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLockTTLDefault(t *testing.T) {
	assert.Equal(t, 10*time.Second, QuizConfig{}.LockTTL())
}

func TestRateLimitWindow(t *testing.T) {
	assert.Equal(t, time.Minute, RateLimitConfig{}.Window())
	assert.Equal(t, 5*time.Minute, RateLimitConfig{WindowMinutes: 5}.Window())
}
