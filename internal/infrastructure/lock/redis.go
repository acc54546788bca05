package lock

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"ProcureAI/internal/config"
	"ProcureAI/internal/ports"
)

const (
	keyPrefix = "procureai:lock:"
	ttlMargin = time.Minute
)

var releaseScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

// RedisLocker holds single-flight locks across replicas with SET NX.
type RedisLocker struct {
	rdb    redis.UniversalClient
	ttl    time.Duration
	logger *slog.Logger
}

var _ ports.Locker = (*RedisLocker)(nil)

// NewRedisClient connects to the configured Redis instance.
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// NewRedisLocker builds a locker whose locks expire after ttl if never released.
func NewRedisLocker(rdb redis.UniversalClient, ttl time.Duration, logger *slog.Logger) *RedisLocker {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisLocker{rdb: rdb, ttl: ttl, logger: logger}
}

// TTLFor returns a lock TTL that outlives a run bounded by runTimeout.
func TTLFor(configured, runTimeout time.Duration) time.Duration {
	if runTimeout <= 0 {
		return configured
	}
	if minTTL := runTimeout + ttlMargin; configured < minTTL {
		return minTTL
	}
	return configured
}

// TryLock acquires key without waiting. Release only deletes the key if this
// holder still owns it.
func (l *RedisLocker) TryLock(ctx context.Context, key string) (func(), bool, error) {
	lockKey := keyPrefix + key
	token := uuid.NewString()

	ok, err := l.rdb.SetNX(ctx, lockKey, token, l.ttl).Result()
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}

	release := func() {
		// The caller's context may already be cancelled at release time.
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		deleted, err := releaseScript.Run(releaseCtx, l.rdb, []string{lockKey}, token).Int64()
		if err != nil {
			l.logger.Error("release lock", "key", lockKey, "error", err)
			return
		}
		if deleted == 0 {
			l.logger.Warn("lock expired before release", "key", lockKey)
		}
	}
	return release, true, nil
}
