package service

import (
	"context"
	"log/slog"
	"time"

	"socialnet/internal/models"
	"socialnet/internal/notifications"
	"socialnet/internal/observability"
	"socialnet/internal/repository"
)

// FlagNotificationPush gates realtime delivery of notifications.
const FlagNotificationPush = "notification_push"

// Publisher delivers an event to a user's realtime stream.
type Publisher interface {
	PublishEvent(ctx context.Context, userID uint, ev notifications.Event) error
}

// FlagEvaluator reports whether a feature flag is on for a user.
type FlagEvaluator interface {
	EnabledOr(name string, userID uint, fallback bool) bool
}

// NotificationService persists notifications and pushes them to connected clients.
type NotificationService struct {
	repo      repository.NotificationRepository
	publisher Publisher
	flags     FlagEvaluator
}

// NotifyInput describes one fan-out record. Sender is used for the realtime payload.
type NotifyInput struct {
	TargetUserID uint
	Sender       *models.User
	Kind         models.NotificationKind
	Message      string
	PostID       *uint
}

// NewNotificationService returns a NotificationService. publisher and flags may be nil.
func NewNotificationService(repo repository.NotificationRepository, publisher Publisher, flags FlagEvaluator) *NotificationService {
	return &NotificationService{repo: repo, publisher: publisher, flags: flags}
}

// Notify appends a notification for the target user. It never fails the
// caller: persistence and push errors are logged and counted. Self
// notifications are skipped and return nil.
func (s *NotificationService) Notify(ctx context.Context, in NotifyInput) *models.Notification {
	if in.Sender == nil || in.TargetUserID == in.Sender.ID {
		return nil
	}

	n := &models.Notification{
		UserID:   in.TargetUserID,
		SenderID: in.Sender.ID,
		PostID:   in.PostID,
		Kind:     in.Kind,
		Message:  in.Message,
	}
	if err := s.repo.Create(ctx, n); err != nil {
		slog.WarnContext(ctx, "failed to persist notification",
			slog.Uint64("target_user_id", uint64(in.TargetUserID)),
			slog.String("kind", string(in.Kind)),
			slog.String("error", err.Error()))
		return nil
	}
	observability.NotificationsCreated.WithLabelValues(string(in.Kind)).Inc()

	n.Sender = in.Sender
	s.push(ctx, n)
	return n
}

func (s *NotificationService) push(ctx context.Context, n *models.Notification) {
	if s.publisher == nil {
		return
	}
	if s.flags != nil && !s.flags.EnabledOr(FlagNotificationPush, n.UserID, true) {
		return
	}
	ev := notifications.Event{Type: notifications.EventNotification, Payload: models.ViewOfNotification(n)}
	if err := s.publisher.PublishEvent(ctx, n.UserID, ev); err != nil {
		observability.NotificationPushFailures.Inc()
		slog.WarnContext(ctx, "failed to push notification",
			slog.Uint64("notification_id", uint64(n.ID)),
			slog.String("error", err.Error()))
	}
}

// List returns the user's notifications newest first.
func (s *NotificationService) List(ctx context.Context, userID uint, unreadOnly bool, limit, offset int) ([]*models.Notification, int64, error) {
	return s.repo.List(ctx, userID, unreadOnly, limit, offset)
}

// MarkRead flags one notification read. Notifications owned by another user
// are reported as missing.
func (s *NotificationService) MarkRead(ctx context.Context, userID, id uint) error {
	found, err := s.repo.MarkRead(ctx, id, userID)
	if err != nil {
		return err
	}
	if !found {
		return models.NewNotFoundError("Notification", id)
	}
	return nil
}

// MarkAllRead flags every unread notification and returns how many changed.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID uint) (int64, error) {
	return s.repo.MarkAllRead(ctx, userID)
}

// PruneRead removes read notifications older than age and returns how many went.
func (s *NotificationService) PruneRead(ctx context.Context, age time.Duration) (int64, error) {
	if age <= 0 {
		return 0, models.NewValidationError("Retention must be positive")
	}
	n, err := s.repo.PruneRead(ctx, time.Now().Add(-age))
	if err != nil {
		return 0, err
	}
	slog.InfoContext(ctx, "pruned read notifications", slog.Int64("deleted", n), slog.Duration("older_than", age))
	return n, nil
}
