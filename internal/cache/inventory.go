package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	UserKeyPrefix      = "user:%d"
	FollowersKeyPrefix = "follow:followers:%d"
	FollowingKeyPrefix = "follow:following:%d"
)

const (
	UserTTL        = 5 * time.Minute
	FollowCountTTL = 5 * time.Minute

	versionTTL = time.Hour
)

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

func FollowersKey(userID uint) string {
	return fmt.Sprintf(FollowersKeyPrefix, userID)
}

func FollowingKey(userID uint) string {
	return fmt.Sprintf(FollowingKeyPrefix, userID)
}

// Invalidate drops the keys and bumps their versions so fills that started
// before the change are not written back.
func Invalidate(ctx context.Context, keys ...string) {
	if client == nil || len(keys) == 0 {
		return
	}
	_, _ = client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, keys...)
		for _, key := range keys {
			pipe.Incr(ctx, versionKey(key))
			pipe.Expire(ctx, versionKey(key), versionTTL)
		}
		return nil
	})
}

func InvalidateUser(ctx context.Context, userID uint) {
	Invalidate(ctx, UserKey(userID))
}

// InvalidateFollowEdge drops the counters touched by a follow edge change.
func InvalidateFollowEdge(ctx context.Context, followerID, followingID uint) {
	Invalidate(ctx, FollowingKey(followerID), FollowersKey(followingID))
}

// InvalidateFollowCounts drops both counters of a user.
func InvalidateFollowCounts(ctx context.Context, userID uint) {
	Invalidate(ctx, FollowersKey(userID), FollowingKey(userID))
}
