package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"lms_backend/pkg/logger"
	"lms_backend/pkg/monitoring"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AttemptLocker serializes mutations of a single attempt. The returned unlock
// func must be called exactly once.
type AttemptLocker interface {
	Lock(ctx context.Context, attemptID uint) (unlock func(), err error)
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// MemoryAttemptLocker is a process-local keyed mutex. Entries are dropped once
// nobody holds or waits on them.
type MemoryAttemptLocker struct {
	mu    sync.Mutex
	locks map[uint]*lockEntry
}

func NewMemoryAttemptLocker() *MemoryAttemptLocker {
	return &MemoryAttemptLocker{locks: make(map[uint]*lockEntry)}
}

func (l *MemoryAttemptLocker) Lock(ctx context.Context, attemptID uint) (func(), error) {
	start := time.Now()

	l.mu.Lock()
	e, ok := l.locks[attemptID]
	if !ok {
		e = &lockEntry{}
		l.locks[attemptID] = e
	}
	e.refs++
	l.mu.Unlock()

	acquired := make(chan struct{})
	go func() {
		e.mu.Lock()
		close(acquired)
	}()

	select {
	case <-acquired:
	case <-ctx.Done():
		// 等待中的 goroutine 拿到锁后立即释放
		go func() {
			<-acquired
			l.release(attemptID, e)
		}()
		return nil, ctx.Err()
	}

	monitoring.LockWait.WithLabelValues("memory").Observe(time.Since(start).Seconds())

	var once sync.Once
	return func() {
		once.Do(func() { l.release(attemptID, e) })
	}, nil
}

func (l *MemoryAttemptLocker) release(attemptID uint, e *lockEntry) {
	e.mu.Unlock()
	l.mu.Lock()
	e.refs--
	if e.refs == 0 {
		delete(l.locks, attemptID)
	}
	l.mu.Unlock()
}

// size is the number of live lock entries.
func (l *MemoryAttemptLocker) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}

// releaseScript deletes the key only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisAttemptLocker shares attempt locks across instances with SET NX PX.
type RedisAttemptLocker struct {
	Redis        *redis.Client
	TTL          time.Duration
	PollInterval time.Duration
}

func NewRedisAttemptLocker(rdb *redis.Client, ttl time.Duration) *RedisAttemptLocker {
	return &RedisAttemptLocker{
		Redis:        rdb,
		TTL:          ttl,
		PollInterval: 20 * time.Millisecond,
	}
}

func attemptLockKey(attemptID uint) string {
	return fmt.Sprintf("quiz:attempt:lock:%d", attemptID)
}

var errLockNotAcquired = errors.New("attempt lock not acquired")

func (l *RedisAttemptLocker) Lock(ctx context.Context, attemptID uint) (func(), error) {
	start := time.Now()
	key := attemptLockKey(attemptID)
	token := uuid.New().String()

	ticker := time.NewTicker(l.PollInterval)
	defer ticker.Stop()

	for {
		ok, err := l.Redis.SetNX(ctx, key, token, l.TTL).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("%w: %v", errLockNotAcquired, ctx.Err())
			}
			return nil, err
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", errLockNotAcquired, ctx.Err())
		case <-ticker.C:
		}
	}

	monitoring.LockWait.WithLabelValues("redis").Observe(time.Since(start).Seconds())

	var once sync.Once
	return func() {
		once.Do(func() {
			// 请求上下文可能已取消，释放锁使用独立的上下文
			releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := releaseScript.Run(releaseCtx, l.Redis, []string{key}, token).Err(); err != nil {
				logger.Log.Warn("Failed to release attempt lock",
					zap.Uint("attemptID", attemptID),
					zap.Error(err))
			}
		})
	}, nil
}
