package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// GetJSON attempts to get the key from Redis and unmarshal into dest.
// Returns (true, nil) if found and unmarshaled, (false, nil) if not found.
func GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	if client == nil {
		return false, nil
	}
	s, err := client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(s), dest); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON marshals v and sets the key with TTL.
func SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	if client == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return client.Set(ctx, key, b, ttl).Err()
}

// Aside tries Redis first; on a miss it calls fetch, which must populate dest,
// then stores dest with ttl unless the key was invalidated while fetching.
// Cache failures fall through to fetch.
func Aside(ctx context.Context, key string, dest any, ttl time.Duration, fetch func() error) error {
	if found, err := GetJSON(ctx, key, dest); err == nil && found {
		return nil
	}

	var fetchErr error
	_ = fill(ctx, key, ttl, func() (any, error) {
		if fetchErr = fetch(); fetchErr != nil {
			return nil, fetchErr
		}
		return json.Marshal(dest)
	})
	return fetchErr
}

// Count reads an integer counter through the cache.
func Count(ctx context.Context, key string, ttl time.Duration, fetch func() (int64, error)) (int64, error) {
	if client != nil {
		s, err := client.Get(ctx, key).Result()
		if err == nil {
			if n, convErr := strconv.ParseInt(s, 10, 64); convErr == nil {
				return n, nil
			}
		}
	}

	var n int64
	err := fill(ctx, key, ttl, func() (any, error) {
		var err error
		n, err = fetch()
		return n, err
	})
	return n, err
}

// fill runs fetch and caches its value under key. The write happens in a
// transaction watching the key's version, so a value read before a
// concurrent Invalidate is dropped instead of cached. Cache failures only
// skip the write.
func fill(ctx context.Context, key string, ttl time.Duration, fetch func() (any, error)) error {
	if client == nil {
		_, err := fetch()
		return err
	}

	fetched := false
	var fetchErr error
	_ = client.Watch(ctx, func(tx *redis.Tx) error {
		fetched = true
		v, err := fetch()
		if err != nil {
			fetchErr = err
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, v, ttl)
			return nil
		})
		return err
	}, versionKey(key))
	if !fetched {
		_, fetchErr = fetch()
	}
	return fetchErr
}

func versionKey(key string) string {
	return key + ":v"
}
