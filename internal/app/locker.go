package app

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"lms_backend/internal/config"
	"lms_backend/internal/service"
	"lms_backend/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// newAttemptLocker 根据 quiz.lock_backend 选择尝试锁；redis 后端会一并返回客户端，
// 供健康检查和关闭时使用
func newAttemptLocker(cfg *config.Config) (service.AttemptLocker, *redis.Client, error) {
	if cfg.Quiz.LockBackend != config.LockBackendRedis {
		return service.NewMemoryAttemptLocker(), nil, nil
	}

	ttl := cfg.Quiz.LockTTL()
	rdb, err := openLockRedis(cfg.Redis, ttl)
	if err != nil {
		return nil, nil, err
	}
	return service.NewRedisAttemptLocker(rdb, ttl), rdb, nil
}

func openLockRedis(cfg config.RedisConfig, lockTTL time.Duration) (*redis.Client, error) {
	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	poolSize := cfg.PoolSize
	if poolSize <= 0 {
		poolSize = 20
	}

	// 单条命令的超时不能超过锁的有效期
	timeout := lockTTL / 4
	if timeout > 3*time.Second {
		timeout = 3 * time.Second
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     poolSize,
		MinIdleConns: 2,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis lock backend %s: %w", addr, err)
	}

	logger.Log.Info("Redis lock backend connected",
		zap.String("addr", addr),
		zap.Int("poolSize", poolSize),
		zap.Duration("lockTTL", lockTTL))
	return rdb, nil
}
