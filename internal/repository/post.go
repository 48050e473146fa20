package repository

import (
	"context"
	"errors"

	"socialnet/internal/models"
	"socialnet/internal/observability"
	"socialnet/internal/pagination"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	Exists(ctx context.Context, id uint) (bool, error)
	GetByID(ctx context.Context, id uint, currentUserID uint) (*models.Post, error)
	List(ctx context.Context, limit, offset int, currentUserID uint) ([]*models.Post, int64, error)
	ListByAuthor(ctx context.Context, authorID uint, limit, offset int, currentUserID uint) ([]*models.Post, int64, error)
	ListFeed(ctx context.Context, userID uint, after pagination.Cursor, limit int) ([]*models.Post, error)
	ListFeedPage(ctx context.Context, userID uint, limit, offset int) ([]*models.Post, int64, error)
	Update(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, id uint) error
	Like(ctx context.Context, userID, postID uint) (bool, error)
	Unlike(ctx context.Context, userID, postID uint) (bool, error)
}

// postRepository implements PostRepository
type postRepository struct {
	db      *gorm.DB
	logger  *observability.RepoLogger
	metrics *observability.DatabaseMetrics
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{
		db:      db,
		logger:  observability.NewRepoLogger("posts"),
		metrics: observability.NewDatabaseMetrics(),
	}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(post).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *postRepository) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *postRepository) GetByID(ctx context.Context, id uint, currentUserID uint) (*models.Post, error) {
	var post models.Post
	err := r.withRelations(r.applyPostDetails(readDB(r.db).WithContext(ctx), currentUserID)).
		First(&post, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewPostNotFoundError(id)
		}
		return nil, models.NewInternalError(err)
	}
	return &post, nil
}

func (r *postRepository) List(ctx context.Context, limit, offset int, currentUserID uint) ([]*models.Post, int64, error) {
	return r.listWhere(ctx, limit, offset, currentUserID, nil)
}

func (r *postRepository) ListByAuthor(ctx context.Context, authorID uint, limit, offset int, currentUserID uint) ([]*models.Post, int64, error) {
	return r.listWhere(ctx, limit, offset, currentUserID, func(db *gorm.DB) *gorm.DB {
		return db.Where("posts.author_id = ?", authorID)
	})
}

// ListFeed returns up to limit+1 posts authored by accounts userID follows,
// newest first, strictly after the cursor position. The follow set stays in
// the database as a subquery.
func (r *postRepository) ListFeed(ctx context.Context, userID uint, after pagination.Cursor, limit int) ([]*models.Post, error) {
	defer r.metrics.TrackQuery("feed", "posts")()

	q := r.feedScope(readDB(r.db).WithContext(ctx), userID)
	if !after.IsZero() {
		at := after.CreatedAt()
		q = q.Where("(posts.created_at < ? OR (posts.created_at = ? AND posts.id < ?))", at, at, after.ID)
	}

	var posts []*models.Post
	err := r.withRelations(r.applyPostDetails(q, userID)).
		Order("posts.created_at DESC, posts.id DESC").
		Limit(limit + 1).
		Find(&posts).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

func (r *postRepository) ListFeedPage(ctx context.Context, userID uint, limit, offset int) ([]*models.Post, int64, error) {
	defer r.metrics.TrackQuery("feed_page", "posts")()
	return r.listWhere(ctx, limit, offset, userID, func(db *gorm.DB) *gorm.DB {
		return r.feedScope(db, userID)
	})
}

func (r *postRepository) feedScope(db *gorm.DB, userID uint) *gorm.DB {
	following := db.Session(&gorm.Session{NewDB: true}).
		Model(&models.Follow{}).
		Select("following_id").
		Where("follower_id = ?", userID)
	return db.Where("posts.author_id IN (?)", following)
}

func (r *postRepository) listWhere(ctx context.Context, limit, offset int, currentUserID uint, scope func(*gorm.DB) *gorm.DB) ([]*models.Post, int64, error) {
	base := readDB(r.db).WithContext(ctx).Model(&models.Post{})
	if scope != nil {
		base = scope(base)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	var posts []*models.Post
	err := r.withRelations(r.applyPostDetails(base.Session(&gorm.Session{}), currentUserID)).
		Order("posts.created_at DESC, posts.id DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	if err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return posts, total, nil
}

// applyPostDetails adds subqueries to fetch counts and liked status in a single query.
func (r *postRepository) applyPostDetails(db *gorm.DB, currentUserID uint) *gorm.DB {
	selectQuery := "posts.*, " +
		"(SELECT COUNT(*) FROM comments WHERE comments.post_id = posts.id) as comments_count, " +
		"(SELECT COUNT(*) FROM likes WHERE likes.post_id = posts.id) as likes_count"

	if currentUserID != 0 {
		return db.Select(selectQuery+", EXISTS(SELECT 1 FROM likes WHERE likes.post_id = posts.id AND likes.user_id = ?) as liked", currentUserID)
	}

	return db.Select(selectQuery + ", false as liked")
}

func (r *postRepository) withRelations(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Author").
		Preload("SharedPost").
		Preload("SharedPost.Author")
}

func (r *postRepository) Update(ctx context.Context, post *models.Post) error {
	err := r.db.WithContext(ctx).Model(&models.Post{}).
		Where("id = ?", post.ID).
		Updates(map[string]any{"content": post.Content, "media_ref": post.MediaRef}).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// Delete removes the post with its likes, comments and notifications, and
// detaches messages and reposts that referenced it.
func (r *postRepository) Delete(ctx context.Context, id uint) error {
	defer r.metrics.TrackQuery("delete", "posts")()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := deletePostDependents(tx, []uint{id}); err != nil {
			return err
		}
		result := tx.Delete(&models.Post{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return models.NewPostNotFoundError(id)
		}
		return nil
	})
	if err != nil {
		return internalError(err)
	}
	r.logger.LogDelete(ctx, map[string]any{"post_id": id})
	return nil
}

func deletePostDependents(tx *gorm.DB, postIDs []uint) error {
	if len(postIDs) == 0 {
		return nil
	}
	if err := tx.Where("post_id IN ?", postIDs).Delete(&models.Like{}).Error; err != nil {
		return err
	}
	if err := tx.Where("post_id IN ?", postIDs).Delete(&models.Comment{}).Error; err != nil {
		return err
	}
	if err := tx.Where("post_id IN ?", postIDs).Delete(&models.Notification{}).Error; err != nil {
		return err
	}
	if err := tx.Model(&models.DirectMessage{}).Where("post_id IN ?", postIDs).
		Update("post_id", nil).Error; err != nil {
		return err
	}
	return tx.Model(&models.Post{}).Where("shared_post_id IN ?", postIDs).
		UpdateColumn("shared_post_id", nil).Error
}

// Like records the like and reports whether a new row was written.
func (r *postRepository) Like(ctx context.Context, userID, postID uint) (bool, error) {
	// ON CONFLICT DO NOTHING keeps concurrent duplicate likes atomic
	like := models.Like{UserID: userID, PostID: postID}
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "post_id"}},
			DoNothing: true,
		}).
		Create(&like)
	if result.Error != nil {
		return false, models.NewInternalError(result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (r *postRepository) Unlike(ctx context.Context, userID, postID uint) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Delete(&models.Like{})
	if result.Error != nil {
		return false, models.NewInternalError(result.Error)
	}
	return result.RowsAffected > 0, nil
}
