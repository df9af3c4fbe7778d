package mastery

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	domain "github.com/yungbote/schoolbridge-backend/internal/domain/mastery"
)

// ScopeLocker serializes runs over the same scope. Release must be safe to
// call with a background context after the run's own context is done.
type ScopeLocker interface {
	Acquire(ctx context.Context, scope domain.Scope) (release func(context.Context), err error)
}

type noopLocker struct{}

func NewNoopLocker() ScopeLocker { return noopLocker{} }

func (noopLocker) Acquire(context.Context, domain.Scope) (func(context.Context), error) {
	return func(context.Context) {}, nil
}

// releaseScript deletes the key only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// scopeResolveAllowance covers scope resolution and catalog loading, which
// run before the pair loop deadline starts.
const scopeResolveAllowance = time.Minute

// MinScopeLockTTL is the shortest lock that outlives a run bounded by
// runTimeout, including its finalize step. Zero means runs are unbounded and
// no TTL is safe.
func MinScopeLockTTL(runTimeout time.Duration) time.Duration {
	if runTimeout <= 0 {
		return 0
	}
	return runTimeout + finalizeTimeout + scopeResolveAllowance
}

type redisLocker struct {
	rdb redis.UniversalClient
	ttl time.Duration
}

// NewRedisLocker holds a per-scope key for at most ttl.
func NewRedisLocker(rdb redis.UniversalClient, ttl time.Duration) ScopeLocker {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &redisLocker{rdb: rdb, ttl: ttl}
}

func scopeLockKey(s domain.Scope) string {
	return "schoolbridge:mastery:run-lock:" + s.OrganizationID.String() + ":" + string(s.Kind) + ":" + s.ID.String()
}

func (l *redisLocker) Acquire(ctx context.Context, scope domain.Scope) (func(context.Context), error) {
	const op = "mastery.scope_lock.acquire"
	key := scopeLockKey(scope)
	token := uuid.NewString()
	ok, err := l.rdb.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, domain.Wrap(domain.CodeRetryable, op, err)
	}
	if !ok {
		return nil, domain.NewError(domain.CodeConflict, op, "a run for this scope is already in progress", nil)
	}
	return func(ctx context.Context) {
		_ = releaseScript.Run(ctx, l.rdb, []string{key}, token).Err()
	}, nil
}
