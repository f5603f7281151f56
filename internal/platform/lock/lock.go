// Package lock serialises work on a single key, either inside one process or
// across replicas (Redis).
package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fekuna/omnipos-inventory-service/internal/ledgererr"
	"github.com/fekuna/omnipos-inventory-service/internal/platform/cache"
	"github.com/fekuna/omnipos-inventory-service/internal/platform/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Unlock func()

type Locker interface {
	Lock(ctx context.Context, key string) (Unlock, error)
}

// Local holds one mutex per key in use, so distinct keys never contend and a
// caller may hold several keys at once. Entries are dropped on the last unlock.
type Local struct {
	mu   sync.Mutex
	keys map[string]*keyLock
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

func NewLocal() *Local {
	return &Local{keys: make(map[string]*keyLock)}
}

func (l *Local) Lock(_ context.Context, key string) (Unlock, error) {
	l.mu.Lock()
	k, ok := l.keys[key]
	if !ok {
		k = &keyLock{}
		l.keys[key] = k
	}
	k.refs++
	l.mu.Unlock()

	k.mu.Lock()
	return func() {
		k.mu.Unlock()
		l.mu.Lock()
		k.refs--
		if k.refs == 0 {
			delete(l.keys, key)
		}
		l.mu.Unlock()
	}, nil
}

type RedisConfig struct {
	TTL        time.Duration
	Attempts   int
	RetryDelay time.Duration
}

type Redis struct {
	cache  *cache.RedisClient
	cfg    RedisConfig
	logger logger.ZapLogger
}

func NewRedis(c *cache.RedisClient, cfg RedisConfig, log logger.ZapLogger) *Redis {
	if cfg.TTL <= 0 {
		cfg.TTL = 5 * time.Second
	}
	if cfg.Attempts <= 0 {
		cfg.Attempts = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 100 * time.Millisecond
	}
	return &Redis{cache: c, cfg: cfg, logger: log}
}

func (r *Redis) Lock(ctx context.Context, key string) (Unlock, error) {
	lockKey := "lock:inventory:" + key
	lockValue := uuid.New().String()

	for i := 0; i < r.cfg.Attempts; i++ {
		ok, err := r.cache.AcquireLock(ctx, lockKey, lockValue, r.cfg.TTL)
		if err != nil {
			r.logger.Error("failed to acquire lock redis error", zap.String("key", lockKey), zap.Error(err))
		}
		if ok {
			stop := make(chan struct{})
			done := make(chan struct{})
			go r.keepAlive(lockKey, lockValue, stop, done)
			return func() {
				close(stop)
				<-done
				// The caller's context may already be done; release regardless.
				if err := r.cache.ReleaseLock(context.Background(), lockKey, lockValue); err != nil {
					r.logger.Warn("failed to release lock", zap.String("key", lockKey), zap.Error(err))
				}
			}, nil
		}
		if i < r.cfg.Attempts-1 {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %s: %v", ledgererr.ErrLock, key, ctx.Err())
			case <-time.After(r.cfg.RetryDelay):
			}
		}
	}

	return nil, fmt.Errorf("%w: %s", ledgererr.ErrLock, key)
}

// keepAlive renews the lock every third of its ttl until stop is closed, so a
// holder doing a long multi-step operation does not lose the key midway.
func (r *Redis) keepAlive(lockKey, lockValue string, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(r.cfg.TTL / 3)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), r.cfg.TTL/3)
			ok, err := r.cache.ExtendLock(ctx, lockKey, lockValue, r.cfg.TTL)
			cancel()
			if err != nil {
				r.logger.Warn("failed to extend lock", zap.String("key", lockKey), zap.Error(err))
				continue
			}
			if !ok {
				r.logger.Error("lock lost before release", zap.String("key", lockKey))
				return
			}
		}
	}
}
