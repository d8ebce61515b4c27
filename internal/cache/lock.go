package cache

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/GTDGit/gtd_visa/internal/utils"
)

// MutationLocker serializes pricing writes. Lock returns utils.ErrLockBusy
// when another mutation on the same scope is in flight; it never waits.
type MutationLocker interface {
	Lock(ctx context.Context, scope string) (unlock func(), err error)
}

// LocalLocker is an in-process MutationLocker.
type LocalLocker struct {
	mu   sync.Mutex
	held map[string]bool
}

// NewLocalLocker creates a new LocalLocker.
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{held: make(map[string]bool)}
}

// Lock implements MutationLocker.
func (l *LocalLocker) Lock(_ context.Context, scope string) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[scope] {
		return nil, utils.ErrLockBusy
	}
	l.held[scope] = true

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, scope)
			l.mu.Unlock()
		})
	}, nil
}

// RedisLocker is a MutationLocker shared by every instance through Redis.
// When Redis cannot be reached it degrades to the in-process fallback.
type RedisLocker struct {
	redis    *RedisClient
	ttl      time.Duration
	fallback *LocalLocker
}

// NewRedisLocker creates a RedisLocker. A nil client means local only.
func NewRedisLocker(redis *RedisClient, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &RedisLocker{redis: redis, ttl: ttl, fallback: NewLocalLocker()}
}

func lockKey(scope string) string {
	return "lock:pricing:" + scope
}

// Lock implements MutationLocker.
func (l *RedisLocker) Lock(ctx context.Context, scope string) (func(), error) {
	if l.redis == nil {
		return l.fallback.Lock(ctx, scope)
	}

	token := uuid.NewString()
	key := lockKey(scope)
	ok, err := l.redis.SetNX(ctx, key, token, l.ttl)
	if err != nil {
		log.Warn().Err(err).Str("scope", scope).Msg("Redis lock unavailable, using local lock")
		return l.fallback.Lock(ctx, scope)
	}
	if !ok {
		return nil, utils.ErrLockBusy
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// Release must not inherit a canceled request context.
			rctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if _, err := l.redis.DeleteIfEquals(rctx, key, token); err != nil {
				log.Error().Err(err).Str("scope", scope).Msg("Failed to release pricing lock")
			}
		})
	}, nil
}
