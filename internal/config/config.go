package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	Redis     RedisConfig
	Tracing   TracingConfig   `mapstructure:"tracing"`
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Quiz      QuizConfig      `mapstructure:"quiz"`

	// 运行时标志（非配置文件，通过命令行参数设置）
	ForceMigrate bool `mapstructure:"-"`
	MigrateOnly  bool `mapstructure:"-"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type RateLimitConfig struct {
	MaxRequests   int `mapstructure:"max_requests"`
	WindowMinutes int `mapstructure:"window_minutes"`
	// 作答类接口（创建、提交、保存/删除答案）按用户计数，0 表示不限
	MutationMaxRequests int `mapstructure:"mutation_max_requests"`
}

func (r RateLimitConfig) Window() time.Duration {
	if r.WindowMinutes <= 0 {
		return time.Minute
	}
	return time.Duration(r.WindowMinutes) * time.Minute
}

type ServerConfig struct {
	Port string
	Mode string
}

type DatabaseConfig struct {
	Driver    string `mapstructure:"driver"` // mysql, postgres, sqlite
	Host      string
	Port      int
	User      string
	Password  string
	DBName    string
	Charset   string
	ParseTime bool
	SSLMode   string `mapstructure:"sslmode"`
	// Path is only used by the sqlite driver.
	Path string `mapstructure:"path"`
}

type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	ExpireTime time.Duration `mapstructure:"expire_hours"`
}

type TracingConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	CollectorEndpoint string  `mapstructure:"collector_endpoint"`
	ServiceName       string  `mapstructure:"service_name"`
	SampleRatio       float64 `mapstructure:"sample_ratio"`
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	PoolSize int `mapstructure:"pool_size"`
}

type QuizConfig struct {
	// 0 means unlimited attempts per (student, lesson).
	MaxAttemptsPerLesson int    `mapstructure:"max_attempts_per_lesson"`
	LockBackend          string `mapstructure:"lock_backend"` // memory, redis
	LockTTLSeconds       int    `mapstructure:"lock_ttl_seconds"`
}

const (
	LockBackendMemory = "memory"
	LockBackendRedis  = "redis"
)

func (q QuizConfig) LockTTL() time.Duration {
	if q.LockTTLSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(q.LockTTLSeconds) * time.Second
}

func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvPrefix("LMS")
	v.AutomaticEnv()

	v.SetDefault("database.driver", "mysql")
	v.SetDefault("quiz.lock_backend", LockBackendMemory)
	v.SetDefault("quiz.lock_ttl_seconds", 10)
	v.SetDefault("rate_limit.max_requests", 100000)
	v.SetDefault("rate_limit.window_minutes", 1)
	v.SetDefault("rate_limit.mutation_max_requests", 0)
	v.SetDefault("tracing.service_name", "lms-quiz-engine")
	v.SetDefault("tracing.sample_ratio", 1.0)
	v.SetDefault("redis.pool_size", 20)

	// Database
	v.BindEnv("database.driver", "DATABASE_DRIVER")
	v.BindEnv("database.host", "DATABASE_HOST")
	v.BindEnv("database.port", "DATABASE_PORT")
	v.BindEnv("database.user", "DATABASE_USER")
	v.BindEnv("database.password", "DATABASE_PASSWORD")
	v.BindEnv("database.dbname", "DATABASE_NAME")

	// JWT
	v.BindEnv("jwt.secret", "JWT_SECRET")

	// Redis
	v.BindEnv("redis.host", "REDIS_HOST")
	v.BindEnv("redis.port", "REDIS_PORT")
	v.BindEnv("redis.password", "REDIS_PASSWORD")

	// Server
	v.BindEnv("server.mode", "SERVER_MODE")

	// Tracing
	v.BindEnv("tracing.enabled", "TRACING_ENABLED")
	v.BindEnv("tracing.collector_endpoint", "TRACING_COLLECTOR_ENDPOINT")
	v.BindEnv("tracing.service_name", "TRACING_SERVICE_NAME")

	// Rate limit
	v.BindEnv("rate_limit.mutation_max_requests", "RATE_LIMIT_MUTATION_MAX_REQUESTS")

	// Quiz
	v.BindEnv("quiz.max_attempts_per_lesson", "QUIZ_MAX_ATTEMPTS_PER_LESSON")
	v.BindEnv("quiz.lock_backend", "QUIZ_LOCK_BACKEND")

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.JWT.ExpireTime = cfg.JWT.ExpireTime * time.Hour

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	// 生产环境校验 JWT Secret 强度
	if c.Server.Mode == "release" && len(c.JWT.Secret) < 32 {
		return fmt.Errorf("JWT secret is too short (%d chars), must be at least 32 characters in release mode", len(c.JWT.Secret))
	}
	if c.Quiz.MaxAttemptsPerLesson < 0 {
		return fmt.Errorf("quiz.max_attempts_per_lesson must be >= 0, got %d", c.Quiz.MaxAttemptsPerLesson)
	}
	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		return fmt.Errorf("tracing.sample_ratio must be within [0, 1], got %v", c.Tracing.SampleRatio)
	}
	switch c.Quiz.LockBackend {
	case "", LockBackendMemory, LockBackendRedis:
	default:
		return fmt.Errorf("unknown quiz.lock_backend %q", c.Quiz.LockBackend)
	}
	return nil
}
