package repository

import (
	"context"
	"errors"
	"time"

	"socialnet/internal/models"
	"socialnet/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MessageRepository stores direct messages.
type MessageRepository interface {
	CreateWithinLimit(ctx context.Context, msg *models.DirectMessage, limit int, window time.Duration) error
	GetByID(ctx context.Context, id uint) (*models.DirectMessage, error)
	ListInbox(ctx context.Context, userID uint, limit, offset int) ([]*models.DirectMessage, int64, error)
	ListSent(ctx context.Context, userID uint, limit, offset int) ([]*models.DirectMessage, int64, error)
	MarkRead(ctx context.Context, id, recipientID uint) (bool, error)
	UnreadCount(ctx context.Context, userID uint) (int64, error)
	Delete(ctx context.Context, id uint) error
}

type messageRepository struct {
	db      *gorm.DB
	logger  *observability.RepoLogger
	metrics *observability.DatabaseMetrics
}

// NewMessageRepository returns a gorm-backed MessageRepository.
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{
		db:      db,
		logger:  observability.NewRepoLogger("direct_messages"),
		metrics: observability.NewDatabaseMetrics(),
	}
}

// CreateWithinLimit inserts msg unless its sender already sent limit messages
// inside the trailing window. The count and the insert share one transaction
// serialized per sender, so concurrent sends cannot overshoot the limit.
func (r *messageRepository) CreateWithinLimit(ctx context.Context, msg *models.DirectMessage, limit int, window time.Duration) error {
	defer r.metrics.TrackQuery("create_within_limit", "direct_messages")()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if tx.Dialector.Name() == "postgres" {
			if err := tx.Exec("SELECT pg_advisory_xact_lock(?)", int64(msg.SenderID)).Error; err != nil {
				return err
			}
		}

		now := tx.NowFunc()
		var recent int64
		if err := tx.Model(&models.DirectMessage{}).
			Where("sender_id = ? AND created_at > ?", msg.SenderID, now.Add(-window)).
			Count(&recent).Error; err != nil {
			return err
		}
		if recent >= int64(limit) {
			return models.ErrRateLimitExceeded
		}

		msg.CreatedAt = now
		return tx.Omit(clause.Associations).Create(msg).Error
	})
	if err != nil {
		return internalError(err)
	}
	r.logger.LogCreate(ctx, map[string]any{"message_id": msg.ID, "sender_id": msg.SenderID})
	return nil
}

func (r *messageRepository) GetByID(ctx context.Context, id uint) (*models.DirectMessage, error) {
	var msg models.DirectMessage
	err := r.db.WithContext(ctx).
		Preload("Sender").
		Preload("Recipient").
		First(&msg, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Message", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &msg, nil
}

func (r *messageRepository) ListInbox(ctx context.Context, userID uint, limit, offset int) ([]*models.DirectMessage, int64, error) {
	return r.list(ctx, "recipient_id = ?", "Sender", userID, limit, offset)
}

func (r *messageRepository) ListSent(ctx context.Context, userID uint, limit, offset int) ([]*models.DirectMessage, int64, error) {
	return r.list(ctx, "sender_id = ?", "Recipient", userID, limit, offset)
}

func (r *messageRepository) list(ctx context.Context, where, preload string, userID uint, limit, offset int) ([]*models.DirectMessage, int64, error) {
	db := readDB(r.db).WithContext(ctx)

	var total int64
	if err := db.Model(&models.DirectMessage{}).Where(where, userID).Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	var msgs []*models.DirectMessage
	err := db.Preload(preload).
		Where(where, userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&msgs).Error
	if err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return msgs, total, nil
}

// MarkRead flags the message read when recipientID owns it. It reports
// whether such a message exists; already-read messages still count.
func (r *messageRepository) MarkRead(ctx context.Context, id, recipientID uint) (bool, error) {
	var count int64
	db := r.db.WithContext(ctx)
	if err := db.Model(&models.DirectMessage{}).
		Where("id = ? AND recipient_id = ?", id, recipientID).
		Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	if count == 0 {
		return false, nil
	}
	if err := db.Model(&models.DirectMessage{}).
		Where("id = ? AND is_read = ?", id, false).
		Update("is_read", true).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return true, nil
}

func (r *messageRepository) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	var count int64
	if err := readDB(r.db).WithContext(ctx).Model(&models.DirectMessage{}).
		Where("recipient_id = ? AND is_read = ?", userID, false).
		Count(&count).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

func (r *messageRepository) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&models.DirectMessage{}, id).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
