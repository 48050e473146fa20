package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	refreshKeyPrefix     = "refresh:%s"
	userRefreshKeyPrefix = "refresh:user:%d"
	blacklistKeyPrefix   = "blacklist:%s"
	userRevokedKeyPrefix = "revoked:user:%d"
)

// ErrTokenStoreUnavailable is returned when session state cannot be read or written.
var ErrTokenStoreUnavailable = errors.New("token store unavailable")

// StoreRefreshToken records an opaque refresh token id for userID.
func StoreRefreshToken(ctx context.Context, tokenID string, userID uint, ttl time.Duration) error {
	if client == nil {
		return ErrTokenStoreUnavailable
	}
	userKey := fmt.Sprintf(userRefreshKeyPrefix, userID)
	_, err := client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, fmt.Sprintf(refreshKeyPrefix, tokenID), userID, ttl)
		pipe.SAdd(ctx, userKey, tokenID)
		pipe.Expire(ctx, userKey, ttl)
		return nil
	})
	return err
}

// ConsumeRefreshToken atomically removes the refresh token and returns its owner.
// A token can be consumed once; (0, nil) means it is unknown, expired or already used.
func ConsumeRefreshToken(ctx context.Context, tokenID string) (uint, error) {
	if client == nil {
		return 0, ErrTokenStoreUnavailable
	}
	s, err := client.GetDel(ctx, fmt.Sprintf(refreshKeyPrefix, tokenID)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, nil
	}
	client.SRem(ctx, fmt.Sprintf(userRefreshKeyPrefix, id), tokenID)
	return uint(id), nil
}

// RevokeRefreshToken deletes a refresh token without reading it.
func RevokeRefreshToken(ctx context.Context, tokenID string) error {
	if client == nil {
		return ErrTokenStoreUnavailable
	}
	return client.Del(ctx, fmt.Sprintf(refreshKeyPrefix, tokenID)).Err()
}

// BlacklistToken marks an access token jti as revoked until it would have expired.
func BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error {
	if client == nil {
		return ErrTokenStoreUnavailable
	}
	if ttl <= 0 {
		return nil
	}
	return client.Set(ctx, fmt.Sprintf(blacklistKeyPrefix, jti), "1", ttl).Err()
}

// IsTokenBlacklisted reports whether the jti was revoked. Without Redis nothing is revoked.
func IsTokenBlacklisted(ctx context.Context, jti string) (bool, error) {
	if client == nil || jti == "" {
		return false, nil
	}
	n, err := client.Exists(ctx, fmt.Sprintf(blacklistKeyPrefix, jti)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// RevokeUserSessions deletes every refresh token of userID and rejects access
// tokens issued up to now for the next ttl.
func RevokeUserSessions(ctx context.Context, userID uint, ttl time.Duration) error {
	if client == nil {
		return ErrTokenStoreUnavailable
	}
	userKey := fmt.Sprintf(userRefreshKeyPrefix, userID)
	tokenIDs, err := client.SMembers(ctx, userKey).Result()
	if err != nil {
		return err
	}

	keys := make([]string, 0, len(tokenIDs)+1)
	for _, id := range tokenIDs {
		keys = append(keys, fmt.Sprintf(refreshKeyPrefix, id))
	}
	keys = append(keys, userKey)

	_, err = client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, keys...)
		if ttl > 0 {
			pipe.Set(ctx, fmt.Sprintf(userRevokedKeyPrefix, userID), time.Now().Unix(), ttl)
		}
		return nil
	})
	return err
}

// UserRevokedAt returns when the sessions of userID were last revoked, or the
// zero time when they were not.
func UserRevokedAt(ctx context.Context, userID uint) (time.Time, error) {
	if client == nil {
		return time.Time{}, nil
	}
	s, err := client.Get(ctx, fmt.Sprintf(userRevokedKeyPrefix, userID)).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	unix, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}, nil
	}
	return time.Unix(unix, 0), nil
}
