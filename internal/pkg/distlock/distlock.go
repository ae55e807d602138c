package distlock

import (
	"context"
	"database/sql"
	"hash/fnv"
	"time"

	"github.com/redis/go-redis/v9"
)

// DistLock is the interface for distributed locking. The warmup sweep uses
// one to stay single-flight across hosts; the verification engine uses
// per-domain locks so probes for the same domain never race.
// Implementations must be safe for use from a single goroutine; concurrent
// use across goroutines requires separate lock instances.
type DistLock interface {
	// Acquire tries to acquire the lock. Returns true if successful.
	Acquire(ctx context.Context) (bool, error)
	// Release releases the lock if we still own it.
	Release(ctx context.Context) error
}

// Factory builds locks for arbitrary keys against whichever backend is
// available: Redis when configured (preferred for cross-host locking),
// PostgreSQL advisory locks otherwise.
type Factory struct {
	redisClient *redis.Client
	db          *sql.DB
	ttl         time.Duration
}

// NewFactory creates a lock factory. redisClient may be nil.
func NewFactory(redisClient *redis.Client, db *sql.DB, ttl time.Duration) *Factory {
	return &Factory{redisClient: redisClient, db: db, ttl: ttl}
}

// Lock returns a new lock instance for the given key.
func (f *Factory) Lock(key string) DistLock {
	if f.redisClient != nil {
		return NewRedisLock(f.redisClient, key, f.ttl)
	}
	return NewPGAdvisoryLock(f.db, key)
}

// =============================================================================
// PostgreSQL Advisory Lock (fallback when Redis is unavailable)
// =============================================================================
// Uses pg_try_advisory_lock / pg_advisory_unlock which are session-scoped.
// The lock is automatically released if the DB connection drops, providing
// crash-safety similar to Redis TTL expiration.

// PGAdvisoryLock implements DistLock using PostgreSQL advisory locks.
type PGAdvisoryLock struct {
	db     *sql.DB
	lockID int64
}

// NewPGAdvisoryLock creates a PG advisory lock with a deterministic lock ID
// derived from the given key string.
func NewPGAdvisoryLock(db *sql.DB, key string) *PGAdvisoryLock {
	h := fnv.New64a()
	h.Write([]byte(key))
	return &PGAdvisoryLock{
		db:     db,
		lockID: int64(h.Sum64()),
	}
}

// Acquire tries to acquire the advisory lock. Returns true if successful.
// Uses pg_try_advisory_lock which returns immediately (non-blocking).
func (l *PGAdvisoryLock) Acquire(ctx context.Context) (bool, error) {
	var acquired bool
	err := l.db.QueryRowContext(ctx, "SELECT pg_try_advisory_lock($1)", l.lockID).Scan(&acquired)
	return acquired, err
}

// Release releases the advisory lock.
func (l *PGAdvisoryLock) Release(ctx context.Context) error {
	_, err := l.db.ExecContext(ctx, "SELECT pg_advisory_unlock($1)", l.lockID)
	return err
}
