package scheduler

import (
	"context"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

// Locker guards a job across replicas. Acquire returns ok=false when another holder has the key.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), ok bool, err error)
}

var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type RedisLocker struct {
	rdb    goredis.UniversalClient
	prefix string
}

func NewRedisLocker(rdb goredis.UniversalClient, prefix string) *RedisLocker {
	if prefix == "" {
		prefix = "eventforge:lock:"
	}
	return &RedisLocker{rdb: rdb, prefix: prefix}
}

func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), bool, error) {
	token := uuid.NewString()
	full := l.prefix + key
	ok, err := l.rdb.SetNX(ctx, full, token, ttl).Result()
	if err != nil || !ok {
		return func() {}, false, err
	}
	release := func() {
		rctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = releaseScript.Run(rctx, l.rdb, []string{full}, token).Err()
	}
	return release, true, nil
}
