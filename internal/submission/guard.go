// internal/submission/guard.go
package submission

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const guardPrefix = "gradabroad:submit:"

// DefaultGuardTTL bounds how long a crashed worker can block a retry.
const DefaultGuardTTL = 5 * time.Minute

// Guard rejects a second submission for the same student and programme
// while one is running. It is a redis SETNX lock with a per-acquire owner
// token, released only by its owner.
type Guard struct {
	client *redis.Client
	ttl    time.Duration
}

// NewGuard returns nil when client is nil; a nil Guard admits everything.
func NewGuard(client *redis.Client, ttl time.Duration) *Guard {
	if client == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = DefaultGuardTTL
	}
	return &Guard{client: client, ttl: ttl}
}

var releaseScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

// Release frees a held guard. It is safe to call after the lock expired.
type Release func(ctx context.Context) error

func guardKey(studentID string, programmeID int64) string {
	return fmt.Sprintf("%s%s:%d", guardPrefix, studentID, programmeID)
}

// Acquire takes the lock for the pair or fails with ErrSubmissionInProgress.
func (g *Guard) Acquire(ctx context.Context, studentID string, programmeID int64) (Release, error) {
	if g == nil {
		return func(context.Context) error { return nil }, nil
	}

	key := guardKey(studentID, programmeID)
	owner := uuid.New().String()

	ok, err := g.client.SetNX(ctx, key, owner, g.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire submission guard %s: %w", key, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSubmissionInProgress, key)
	}

	return func(ctx context.Context) error {
		_, err := releaseScript.Run(ctx, g.client, []string{key}, owner).Result()
		if err != nil && err != redis.Nil {
			return fmt.Errorf("release submission guard %s: %w", key, err)
		}
		return nil
	}, nil
}
