package store

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const codeKeyPrefix = "attend:code:"

// Redis wraps the redis client and the attendance-code cache built on it.
type Redis struct {
	Client *redis.Client
}

// NewRedis connects to redis with short timeouts.
func NewRedis(addr string) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  1 * time.Second,
		WriteTimeout: 1 * time.Second,
	})
	return &Redis{Client: client}
}

// Healthy verifies redis connectivity.
func (r *Redis) Healthy(ctx context.Context) bool {
	if r == nil || r.Client == nil {
		return false
	}
	return r.Client.Ping(ctx).Err() == nil
}

// CacheCode maps an active attendance code to its session id for ttl.
func (r *Redis) CacheCode(ctx context.Context, code string, sessionID int64, ttl time.Duration) error {
	if r == nil || r.Client == nil {
		return nil
	}
	return r.Client.Set(ctx, codeKeyPrefix+code, sessionID, ttl).Err()
}

// LookupCode resolves a cached code to a session id. Returns (0, false, nil) on miss.
func (r *Redis) LookupCode(ctx context.Context, code string) (int64, bool, error) {
	if r == nil || r.Client == nil {
		return 0, false, nil
	}
	val, err := r.Client.Get(ctx, codeKeyPrefix+code).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, false, nil
		}
		return 0, false, err
	}
	id, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false, nil
	}
	return id, true, nil
}

// DropCode invalidates a cached code after close or expiry.
func (r *Redis) DropCode(ctx context.Context, codes ...string) error {
	if r == nil || r.Client == nil || len(codes) == 0 {
		return nil
	}
	keys := make([]string, len(codes))
	for i, c := range codes {
		keys[i] = codeKeyPrefix + c
	}
	return r.Client.Del(ctx, keys...).Err()
}
