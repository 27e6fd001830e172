package lock

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/attendance"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const DefaultTTL = 30 * time.Second

// Key is the guard key for one user on one business day.
func Key(userID string, date time.Time) string {
	return fmt.Sprintf("attendance:check_in:%s:%s", userID, date.Format("2006-01-02"))
}

// releaseScript deletes the key only while it still holds our token.
const releaseScript = `if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`

// RedisGuard serializes check-ins across instances with SET NX. The TTL bounds how
// long a crashed holder can block the user.
type RedisGuard struct {
	rdb      redis.Cmdable
	ttl      time.Duration
	newToken func() string
}

func NewRedisGuard(rdb redis.Cmdable, ttl time.Duration) *RedisGuard {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisGuard{
		rdb:      rdb,
		ttl:      ttl,
		newToken: func() string { return uuid.New().String() },
	}
}

func (g *RedisGuard) Acquire(ctx context.Context, userID string, date time.Time) (func(), error) {
	key := Key(userID, date)
	token := g.newToken()

	ok, err := g.rdb.SetNX(ctx, key, token, g.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire check-in lock: %w", err)
	}
	if !ok {
		return nil, attendance.ErrCheckInInProgress
	}

	release := func() {
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		if err := g.rdb.Eval(releaseCtx, releaseScript, []string{key}, token).Err(); err != nil {
			slog.WarnContext(ctx, "failed to release check-in lock", "key", key, "error", err)
		}
	}
	return release, nil
}

// MemoryGuard is the single-instance guard used when redis is not configured.
type MemoryGuard struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func NewMemoryGuard() *MemoryGuard {
	return &MemoryGuard{held: make(map[string]struct{})}
}

func (g *MemoryGuard) Acquire(ctx context.Context, userID string, date time.Time) (func(), error) {
	key := Key(userID, date)

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, busy := g.held[key]; busy {
		return nil, attendance.ErrCheckInInProgress
	}
	g.held[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.held, key)
			g.mu.Unlock()
		})
	}, nil
}
