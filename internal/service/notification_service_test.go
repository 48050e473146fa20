package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"socialnet/internal/models"
	"socialnet/internal/notifications"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationService_NotifySkipsSelf(t *testing.T) {
	t.Parallel()

	svc, repo, pub := newRecordingNotifications()
	n := svc.Notify(context.Background(), NotifyInput{
		TargetUserID: 1,
		Sender:       &models.User{ID: 1, Username: "solo"},
		Kind:         models.NotificationKindLike,
		Message:      "solo liked your post.",
	})
	assert.Nil(t, n)
	assert.Empty(t, repo.created)
	assert.Zero(t, pub.count(1))
}

func TestNotificationService_NotifyPushesEvent(t *testing.T) {
	t.Parallel()

	svc, repo, pub := newRecordingNotifications()
	n := svc.Notify(context.Background(), NotifyInput{
		TargetUserID: 2,
		Sender:       &models.User{ID: 1, Username: "ann"},
		Kind:         models.NotificationKindFollow,
		Message:      "ann started following you.",
	})
	require.NotNil(t, n)
	assert.Len(t, repo.created, 1)
	require.Equal(t, 1, pub.count(2))

	ev := pub.events[2][0]
	assert.Equal(t, notifications.EventNotification, ev.Type)
	view, ok := ev.Payload.(*models.NotificationView)
	require.True(t, ok)
	assert.Equal(t, "ann", view.Sender.Username)
}

func TestNotificationService_FlagDisablesPush(t *testing.T) {
	t.Parallel()

	repo := &notificationRepoRecorder{}
	pub := &publisherStub{}
	svc := NewNotificationService(repo, pub, flagStub(false))

	svc.Notify(context.Background(), NotifyInput{TargetUserID: 2, Sender: &models.User{ID: 1}, Kind: models.NotificationKindLike, Message: "m"})
	assert.Len(t, repo.created, 1, "persistence is not gated")
	assert.Zero(t, pub.count(2))
}

func TestNotificationService_FailuresNeverSurface(t *testing.T) {
	t.Parallel()

	repo := &notificationRepoRecorder{}
	pub := &publisherStub{err: errors.New("redis down")}
	svc := NewNotificationService(repo, pub, nil)

	n := svc.Notify(context.Background(), NotifyInput{TargetUserID: 2, Sender: &models.User{ID: 1}, Kind: models.NotificationKindLike, Message: "m"})
	assert.NotNil(t, n, "push failure keeps the stored notification")

	repo.createErr = errors.New("db down")
	n = svc.Notify(context.Background(), NotifyInput{TargetUserID: 2, Sender: &models.User{ID: 1}, Kind: models.NotificationKindLike, Message: "m"})
	assert.Nil(t, n)
}

func TestNotificationService_MarkRead(t *testing.T) {
	t.Parallel()

	svc, _, _ := newRecordingNotifications()
	ctx := context.Background()
	n := svc.Notify(ctx, NotifyInput{TargetUserID: 2, Sender: &models.User{ID: 1}, Kind: models.NotificationKindComment, Message: "m"})
	require.NotNil(t, n)

	assertAppErrorCode(t, svc.MarkRead(ctx, 3, n.ID), models.CodeNotFound)
	require.NoError(t, svc.MarkRead(ctx, 2, n.ID))

	count, err := svc.MarkAllRead(ctx, 2)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestNotificationService_PruneRead(t *testing.T) {
	t.Parallel()

	svc, _, _ := newRecordingNotifications()
	ctx := context.Background()
	read := svc.Notify(ctx, NotifyInput{TargetUserID: 2, Sender: &models.User{ID: 1}, Kind: models.NotificationKindLike, Message: "old"})
	require.NotNil(t, read)
	require.NotNil(t, svc.Notify(ctx, NotifyInput{TargetUserID: 2, Sender: &models.User{ID: 1}, Kind: models.NotificationKindLike, Message: "unread"}))
	require.NoError(t, svc.MarkRead(ctx, 2, read.ID))

	_, err := svc.PruneRead(ctx, 0)
	assertAppErrorCode(t, err, models.CodeValidation)

	n, err := svc.PruneRead(ctx, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, total, err := svc.List(ctx, 2, false, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}
