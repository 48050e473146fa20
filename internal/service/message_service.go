package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"socialnet/internal/models"
	"socialnet/internal/observability"
	"socialnet/internal/repository"
)

const maxMessageLen = 5000

// MessageService sends and reads direct messages.
type MessageService struct {
	messages      repository.MessageRepository
	users         repository.UserRepository
	posts         repository.PostRepository
	notifications *NotificationService
	limit         int
	window        time.Duration
}

// SendMessageInput names the recipient by id or username; the id wins when both are set.
type SendMessageInput struct {
	SenderID          uint
	RecipientID       uint
	RecipientUsername string
	Content           string
	PostID            *uint
}

// NewMessageService returns a MessageService allowing limit messages per
// sender inside each trailing window.
func NewMessageService(
	messages repository.MessageRepository,
	users repository.UserRepository,
	posts repository.PostRepository,
	notifications *NotificationService,
	limit int,
	window time.Duration,
) *MessageService {
	return &MessageService{
		messages:      messages,
		users:         users,
		posts:         posts,
		notifications: notifications,
		limit:         limit,
		window:        window,
	}
}

func (s *MessageService) resolveRecipient(ctx context.Context, in SendMessageInput) (*models.User, error) {
	if in.RecipientID != 0 {
		user, err := s.users.GetByID(ctx, in.RecipientID)
		if err != nil {
			var appErr *models.AppError
			if errors.As(err, &appErr) && appErr.Code == models.CodeNotFound {
				return nil, models.ErrRecipientNotFound
			}
			return nil, err
		}
		return user, nil
	}
	username := strings.TrimSpace(in.RecipientUsername)
	if username == "" {
		return nil, models.ErrRecipientNotFound
	}
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.ErrRecipientNotFound
	}
	return user, nil
}

// Send validates and stores a message, enforcing the per-sender window.
func (s *MessageService) Send(ctx context.Context, in SendMessageInput) (*models.DirectMessage, error) {
	span, ctx := observability.NewSpan(ctx, "MessageService.Send")
	defer span.End()

	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, models.ErrEmptyContent
	}
	if utf8.RuneCountInString(content) > maxMessageLen {
		return nil, models.NewValidationError(fmt.Sprintf("Message too long (max %d characters)", maxMessageLen))
	}

	recipient, err := s.resolveRecipient(ctx, in)
	if err != nil {
		return nil, err
	}
	if recipient.ID == in.SenderID {
		return nil, models.ErrSelfMessage
	}
	if in.PostID != nil {
		exists, err := s.posts.Exists(ctx, *in.PostID)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, models.NewPostNotFoundError(*in.PostID)
		}
	}

	msg := &models.DirectMessage{
		SenderID:    in.SenderID,
		RecipientID: recipient.ID,
		Content:     content,
		PostID:      in.PostID,
	}
	if err := s.messages.CreateWithinLimit(ctx, msg, s.limit, s.window); err != nil {
		if errors.Is(err, models.ErrRateLimitExceeded) {
			observability.MessagesRateLimited.Inc()
			slog.WarnContext(ctx, "direct message rejected by rate limit",
				slog.Uint64("sender_id", uint64(in.SenderID)),
				slog.Int("limit", s.limit),
				slog.Duration("window", s.window))
		}
		span.SetError(err)
		return nil, err
	}
	observability.MessagesSent.Inc()

	sender, err := s.users.GetByID(ctx, in.SenderID)
	if err == nil {
		msg.Sender = sender
		if s.notifications != nil {
			s.notifications.Notify(ctx, NotifyInput{
				TargetUserID: recipient.ID,
				Sender:       sender,
				Kind:         models.NotificationKindDirectMessage,
				Message:      fmt.Sprintf("New message from %s", sender.Username),
				PostID:       in.PostID,
			})
		}
	}
	msg.Recipient = recipient
	return msg, nil
}

func (s *MessageService) Inbox(ctx context.Context, userID uint, limit, offset int) ([]*models.DirectMessage, int64, error) {
	return s.messages.ListInbox(ctx, userID, limit, offset)
}

func (s *MessageService) Sent(ctx context.Context, userID uint, limit, offset int) ([]*models.DirectMessage, int64, error) {
	return s.messages.ListSent(ctx, userID, limit, offset)
}

func (s *MessageService) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	return s.messages.UnreadCount(ctx, userID)
}

// Detail returns a message to one of its participants. The recipient viewing
// an unread message marks it read.
func (s *MessageService) Detail(ctx context.Context, userID, id uint) (*models.DirectMessage, error) {
	msg, err := s.messages.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := RequireParticipant(userID, msg); err != nil {
		return nil, err
	}
	if msg.RecipientID == userID && !msg.IsRead {
		if _, err := s.messages.MarkRead(ctx, id, userID); err != nil {
			return nil, err
		}
		msg.IsRead = true
	}
	return msg, nil
}

// MarkRead flags a received message read. Repeating it is harmless.
func (s *MessageService) MarkRead(ctx context.Context, userID, id uint) error {
	found, err := s.messages.MarkRead(ctx, id, userID)
	if err != nil {
		return err
	}
	if !found {
		return models.NewNotFoundError("Message", id)
	}
	return nil
}

// Delete removes a message for both participants.
func (s *MessageService) Delete(ctx context.Context, userID, id uint) error {
	msg, err := s.messages.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := RequireParticipant(userID, msg); err != nil {
		return err
	}
	return s.messages.Delete(ctx, id)
}
