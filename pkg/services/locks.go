package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"venue-crm-backend/pkg/config"
	"venue-crm-backend/pkg/utils"

	"github.com/bsm/redislock"
)

// Locker serializes a critical section across callers sharing key.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// RedisLocker holds a redislock lease for the duration of the section, so
// several server instances agree on one holder.
type RedisLocker struct {
	client *redislock.Client
	ttl    time.Duration
}

func NewRedisLocker(client *redislock.Client) *RedisLocker {
	return &RedisLocker{client: client, ttl: 15 * time.Second}
}

func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	lock, err := l.client.Obtain(ctx, "lock:"+key, l.ttl, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(100*time.Millisecond), 50),
	})
	if errors.Is(err, redislock.ErrNotObtained) {
		config.LogError(config.GetLogger(), "services", "RedisLocker.Lock", "could not obtain lock", key, err)
		return nil, utils.NewConflictError("Resource is busy, please retry")
	}
	if err != nil {
		return nil, utils.NewInternalError(err)
	}
	return func() {
		// ctx may already be cancelled here.
		_ = lock.Release(context.Background())
	}, nil
}

// LocalLocker is an in-process Locker for single-instance deployments and tests.
type LocalLocker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{locks: make(map[string]*sync.Mutex)}
}

func (l *LocalLocker) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	m, ok := l.locks[key]
	if !ok {
		m = &sync.Mutex{}
		l.locks[key] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock, nil
}
