package repository

import (
	"context"
	"errors"
	"strings"

	"socialnet/internal/cache"
	"socialnet/internal/models"
	"socialnet/internal/observability"

	"gorm.io/gorm"
)

// UserRepository defines persistence operations for users and their profiles.
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByLogin(ctx context.Context, identifier string) (*models.User, error)
	CreateWithProfile(ctx context.Context, user *models.User) error
	GetProfile(ctx context.Context, userID uint) (*models.Profile, error)
	UpdateProfile(ctx context.Context, user *models.User, profile *models.Profile) error
	Search(ctx context.Context, prefix string, limit, offset int) ([]models.User, int64, error)
	Delete(ctx context.Context, id uint) error
}

type userRepository struct {
	db      *gorm.DB
	logger  *observability.RepoLogger
	metrics *observability.DatabaseMetrics
}

// NewUserRepository returns a new UserRepository implementation.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{
		db:      db,
		logger:  observability.NewRepoLogger("users"),
		metrics: observability.NewDatabaseMetrics(),
	}
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	key := cache.UserKey(id)

	err := cache.Aside(ctx, key, &user, cache.UserTTL, func() error {
		if err := readDB(r.db).WithContext(ctx).First(&user, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("User", id)
			}
			return models.NewInternalError(err)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := readDB(r.db).WithContext(ctx).Where("LOWER(email) = LOWER(?)", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := readDB(r.db).WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

// GetByLogin resolves an email (case-insensitive) or a username.
func (r *userRepository) GetByLogin(ctx context.Context, identifier string) (*models.User, error) {
	if strings.Contains(identifier, "@") {
		return r.GetByEmail(ctx, identifier)
	}
	return r.GetByUsername(ctx, identifier)
}

func (r *userRepository) CreateWithProfile(ctx context.Context, user *models.User) error {
	defer r.metrics.TrackQuery("create", "users")()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Profile").Create(user).Error; err != nil {
			return err
		}
		profile := user.Profile
		if profile == nil {
			profile = &models.Profile{}
		}
		profile.UserID = user.ID
		if err := tx.Create(profile).Error; err != nil {
			return err
		}
		user.Profile = profile
		return nil
	})
	if err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("A user with that username or email already exists")
		}
		return models.NewInternalError(err)
	}
	r.logger.LogCreate(ctx, map[string]any{"user_id": user.ID})
	return nil
}

func (r *userRepository) GetProfile(ctx context.Context, userID uint) (*models.Profile, error) {
	var profile models.Profile
	err := readDB(r.db).WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// Accounts created before profiles existed get one lazily.
		profile = models.Profile{UserID: userID}
		if err := r.db.WithContext(ctx).Create(&profile).Error; err != nil {
			return nil, models.NewInternalError(err)
		}
		return &profile, nil
	}
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &profile, nil
}

func (r *userRepository) UpdateProfile(ctx context.Context, user *models.User, profile *models.Profile) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.User{}).Where("id = ?", user.ID).
			Update("username", user.Username).Error; err != nil {
			return err
		}
		return tx.Model(&models.Profile{}).Where("id = ?", profile.ID).
			Updates(map[string]any{"bio": profile.Bio, "avatar": profile.Avatar}).Error
	})
	if err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("A user with that username already exists")
		}
		return models.NewInternalError(err)
	}
	cache.InvalidateUser(ctx, user.ID)
	return nil
}

func (r *userRepository) Search(ctx context.Context, prefix string, limit, offset int) ([]models.User, int64, error) {
	pattern := strings.ToLower(escapeLike(prefix)) + "%"
	base := readDB(r.db).WithContext(ctx).Model(&models.User{}).
		Where(`LOWER(username) LIKE ? ESCAPE '\'`, pattern)

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	var users []models.User
	if err := base.Session(&gorm.Session{}).
		Order("username ASC, id ASC").
		Limit(limit).
		Offset(offset).
		Find(&users).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return users, total, nil
}

// Delete removes the account and everything hanging off it in one transaction.
func (r *userRepository) Delete(ctx context.Context, id uint) error {
	defer r.metrics.TrackQuery("delete", "users")()

	var neighbours []uint
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var exists int64
		if err := tx.Model(&models.User{}).Where("id = ?", id).Count(&exists).Error; err != nil {
			return err
		}
		if exists == 0 {
			return models.NewNotFoundError("User", id)
		}

		var postIDs []uint
		if err := tx.Model(&models.Post{}).Where("author_id = ?", id).Pluck("id", &postIDs).Error; err != nil {
			return err
		}
		if err := deletePostDependents(tx, postIDs); err != nil {
			return err
		}

		if err := tx.Where("user_id = ? OR sender_id = ?", id, id).Delete(&models.Notification{}).Error; err != nil {
			return err
		}
		if err := tx.Where("sender_id = ? OR recipient_id = ?", id, id).Delete(&models.DirectMessage{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.Like{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if len(postIDs) > 0 {
			if err := tx.Where("id IN ?", postIDs).Delete(&models.Post{}).Error; err != nil {
				return err
			}
		}

		var followers, following []uint
		if err := tx.Model(&models.Follow{}).Where("following_id = ?", id).Pluck("follower_id", &followers).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Follow{}).Where("follower_id = ?", id).Pluck("following_id", &following).Error; err != nil {
			return err
		}
		neighbours = append(followers, following...)
		if err := tx.Where("follower_id = ? OR following_id = ?", id, id).Delete(&models.Follow{}).Error; err != nil {
			return err
		}

		if err := tx.Where("user_id = ?", id).Delete(&models.Profile{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.User{}, id).Error
	})
	if err != nil {
		r.logger.LogError(ctx, err, "delete")
		return internalError(err)
	}

	cache.InvalidateUser(ctx, id)
	cache.InvalidateFollowCounts(ctx, id)
	for _, n := range neighbours {
		cache.InvalidateFollowCounts(ctx, n)
	}
	r.logger.LogDelete(ctx, map[string]any{"user_id": id})
	return nil
}
