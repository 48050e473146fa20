package repository

import (
	"context"

	"socialnet/internal/cache"
	"socialnet/internal/models"
	"socialnet/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FollowRepository stores directed follow edges.
type FollowRepository interface {
	Create(ctx context.Context, followerID, followingID uint) (bool, error)
	Delete(ctx context.Context, followerID, followingID uint) (bool, error)
	Exists(ctx context.Context, followerID, followingID uint) (bool, error)
	ListFollowers(ctx context.Context, userID uint, limit, offset int) ([]models.Follow, error)
	ListFollowing(ctx context.Context, userID uint, limit, offset int) ([]models.Follow, error)
	CountFollowers(ctx context.Context, userID uint) (int64, error)
	CountFollowing(ctx context.Context, userID uint) (int64, error)
	FollowingIDs(ctx context.Context, userID, afterID uint, batch int) ([]uint, error)
}

type followRepository struct {
	db      *gorm.DB
	metrics *observability.DatabaseMetrics
}

// NewFollowRepository returns a gorm-backed FollowRepository.
func NewFollowRepository(db *gorm.DB) FollowRepository {
	return &followRepository{db: db, metrics: observability.NewDatabaseMetrics()}
}

// Create inserts the edge and reports whether a new row was written.
// An existing edge is left untouched.
func (r *followRepository) Create(ctx context.Context, followerID, followingID uint) (bool, error) {
	defer r.metrics.TrackQuery("create", "follows")()

	edge := models.Follow{FollowerID: followerID, FollowingID: followingID}
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "follower_id"}, {Name: "following_id"}},
			DoNothing: true,
		}).
		Create(&edge)
	if result.Error != nil {
		return false, models.NewInternalError(result.Error)
	}
	if result.RowsAffected > 0 {
		cache.InvalidateFollowEdge(ctx, followerID, followingID)
	}
	return result.RowsAffected > 0, nil
}

func (r *followRepository) Delete(ctx context.Context, followerID, followingID uint) (bool, error) {
	defer r.metrics.TrackQuery("delete", "follows")()

	result := r.db.WithContext(ctx).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Delete(&models.Follow{})
	if result.Error != nil {
		return false, models.NewInternalError(result.Error)
	}
	if result.RowsAffected > 0 {
		cache.InvalidateFollowEdge(ctx, followerID, followingID)
	}
	return result.RowsAffected > 0, nil
}

func (r *followRepository) Exists(ctx context.Context, followerID, followingID uint) (bool, error) {
	var count int64
	if err := readDB(r.db).WithContext(ctx).
		Model(&models.Follow{}).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *followRepository) ListFollowers(ctx context.Context, userID uint, limit, offset int) ([]models.Follow, error) {
	var edges []models.Follow
	err := readDB(r.db).WithContext(ctx).
		Preload("Follower").
		Where("following_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&edges).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return edges, nil
}

func (r *followRepository) ListFollowing(ctx context.Context, userID uint, limit, offset int) ([]models.Follow, error) {
	var edges []models.Follow
	err := readDB(r.db).WithContext(ctx).
		Preload("Following").
		Where("follower_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&edges).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return edges, nil
}

func (r *followRepository) CountFollowers(ctx context.Context, userID uint) (int64, error) {
	return cache.Count(ctx, cache.FollowersKey(userID), cache.FollowCountTTL, func() (int64, error) {
		return r.count(ctx, "following_id = ?", userID)
	})
}

func (r *followRepository) CountFollowing(ctx context.Context, userID uint) (int64, error) {
	return cache.Count(ctx, cache.FollowingKey(userID), cache.FollowCountTTL, func() (int64, error) {
		return r.count(ctx, "follower_id = ?", userID)
	})
}

func (r *followRepository) count(ctx context.Context, where string, userID uint) (int64, error) {
	var n int64
	if err := readDB(r.db).WithContext(ctx).Model(&models.Follow{}).Where(where, userID).Count(&n).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return n, nil
}

// FollowingIDs pages through the accounts userID follows in id order.
func (r *followRepository) FollowingIDs(ctx context.Context, userID, afterID uint, batch int) ([]uint, error) {
	var ids []uint
	err := readDB(r.db).WithContext(ctx).
		Model(&models.Follow{}).
		Where("follower_id = ? AND following_id > ?", userID, afterID).
		Order("following_id ASC").
		Limit(batch).
		Pluck("following_id", &ids).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return ids, nil
}
