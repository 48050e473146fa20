package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifier_PublishUserWithoutRedis(t *testing.T) {
	// Notifier with nil Redis is a no-op
	n := NewNotifier(nil)
	err := n.PublishUser(context.Background(), 1, "test payload")
	assert.NoError(t, err)
}

func TestUserChannel(t *testing.T) {
	t.Parallel()
	tests := []struct {
		userID   uint
		expected string
	}{
		{1, "notifications:user:1"},
		{100, "notifications:user:100"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, UserChannel(tt.userID))
		id, ok := ParseUserChannel(tt.expected)
		assert.True(t, ok)
		assert.Equal(t, tt.userID, id)
	}
}

func TestParseUserChannel_Rejects(t *testing.T) {
	t.Parallel()
	for _, ch := range []string{"chat:conv:1", "notifications:user:", "notifications:user:abc", "notifications:user:0"} {
		_, ok := ParseUserChannel(ch)
		assert.False(t, ok, ch)
	}
}

func TestHub_StartWiringDeliversPublishedEvents(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = rdb.Close() }()

	hub := NewHub()
	client, err := hub.Register(42, nil)
	require.NoError(t, err)
	bystander, err := hub.Register(43, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	n := NewNotifier(rdb)
	require.NoError(t, hub.StartWiring(ctx, n))

	require.NoError(t, n.PublishEvent(context.Background(), 42, Event{Type: EventNotification, Payload: map[string]string{"kind": "follow"}}))

	select {
	case msg := <-client.Send:
		assert.JSONEq(t, `{"type":"notification","payload":{"kind":"follow"}}`, string(msg))
	case <-time.After(time.Second):
		t.Fatal("expected event on subscribed user's socket")
	}
	assert.Empty(t, bystander.Send)

	_ = hub.Shutdown(context.Background())
}
