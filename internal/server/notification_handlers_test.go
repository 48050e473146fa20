package server

import (
	"fmt"
	"net/http"
	"testing"

	"socialnet/internal/models"
	"socialnet/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifications_ListAndMarkRead(t *testing.T) {
	env := newTestEnv(t)
	alice, aliceTok := env.user("alice")
	_, bobTok := env.user("bob")
	post := testutil.CreatePost(t, env.db, alice.ID, "notify me", testutil.Now())

	status, _ := env.do(http.MethodPost, "/api/users/follow/alice", nil, bobTok)
	require.Equal(t, http.StatusCreated, status)
	status, _ = env.do(http.MethodPost, fmt.Sprintf("/api/posts/like/%d", post.ID), nil, bobTok)
	require.Equal(t, http.StatusCreated, status)

	var list models.Page[models.NotificationView]
	require.Equal(t, http.StatusOK, env.doJSON(http.MethodGet, "/api/notifications", nil, aliceTok, &list))
	require.EqualValues(t, 2, list.Count)
	assert.Equal(t, models.NotificationKindLike, list.Results[0].Kind, "newest first")
	assert.Equal(t, "bob", list.Results[0].Sender.Username)
	require.NotNil(t, list.Results[0].PostID)
	assert.Equal(t, post.ID, *list.Results[0].PostID)

	likeID := list.Results[0].ID
	readPath := fmt.Sprintf("/api/notifications/%d/read", likeID)

	status, body := env.errorBody(http.MethodPost, readPath, nil, bobTok)
	assert.Equal(t, http.StatusNotFound, status, "another user's notification is hidden")
	assert.Equal(t, models.CodeNotFound, body.Code)

	status, _ = env.do(http.MethodPost, readPath, nil, aliceTok)
	require.Equal(t, http.StatusOK, status)

	var unread models.Page[models.NotificationView]
	require.Equal(t, http.StatusOK, env.doJSON(http.MethodGet, "/api/notifications?unread=true", nil, aliceTok, &unread))
	require.EqualValues(t, 1, unread.Count)
	assert.Equal(t, models.NotificationKindFollow, unread.Results[0].Kind)

	var out map[string]any
	require.Equal(t, http.StatusOK, env.doJSON(http.MethodPost, "/api/notifications/read-all", nil, aliceTok, &out))
	assert.EqualValues(t, 1, out["updated"])

	require.Equal(t, http.StatusOK, env.doJSON(http.MethodGet, "/api/notifications?unread=true", nil, aliceTok, &unread))
	assert.EqualValues(t, 0, unread.Count)
}

func TestNotifications_RequireAuth(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.errorBody(http.MethodGet, "/api/notifications", nil, "")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, models.CodeUnauthorized, body.Code)

	_, tok := env.user("alice")
	status, body = env.errorBody(http.MethodPost, "/api/notifications/abc/read", nil, tok)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid ID", body.Detail)
}
