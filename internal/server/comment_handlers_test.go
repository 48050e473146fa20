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

func TestComments_Lifecycle(t *testing.T) {
	env := newTestEnv(t)
	alice, aliceTok := env.user("alice")
	_, bobTok := env.user("bob")
	post := testutil.CreatePost(t, env.db, alice.ID, "discuss", testutil.Now())
	other := testutil.CreatePost(t, env.db, alice.ID, "elsewhere", testutil.Now())

	var first models.CommentView
	require.Equal(t, http.StatusCreated, env.doJSON(http.MethodPost,
		fmt.Sprintf("/api/posts/%d/comment", post.ID), map[string]string{"content": " first! "}, bobTok, &first))
	assert.Equal(t, "first!", first.Content)
	assert.Equal(t, "bob", first.User.Username)

	var second models.CommentView
	require.Equal(t, http.StatusCreated, env.doJSON(http.MethodPost,
		fmt.Sprintf("/api/posts/%d/comment", post.ID), map[string]string{"content": "second"}, aliceTok, &second))

	var notes []models.Notification
	require.NoError(t, env.db.Where("user_id = ? AND kind = ?", alice.ID, models.NotificationKindComment).Find(&notes).Error)
	require.Len(t, notes, 1, "commenting on your own post does not notify")
	assert.Equal(t, "bob commented on your post: first!", notes[0].Message)

	var list models.Page[models.CommentView]
	require.Equal(t, http.StatusOK, env.doJSON(http.MethodGet, fmt.Sprintf("/api/posts/%d/comments", post.ID), nil, "", &list))
	assert.EqualValues(t, 2, list.Count)
	require.Len(t, list.Results, 2)
	assert.Equal(t, first.ID, list.Results[0].ID, "oldest first")

	commentPath := fmt.Sprintf("/api/posts/%d/comments/%d", post.ID, first.ID)

	status, body := env.errorBody(http.MethodPut, commentPath, map[string]string{"content": "edited by alice"}, aliceTok)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, models.CodeForbidden, body.Code)

	status, _ = env.do(http.MethodPut, fmt.Sprintf("/api/posts/%d/comments/%d", other.ID, first.ID),
		map[string]string{"content": "wrong post"}, bobTok)
	assert.Equal(t, http.StatusNotFound, status)

	var edited models.CommentView
	require.Equal(t, http.StatusOK, env.doJSON(http.MethodPut, commentPath, map[string]string{"content": "edited"}, bobTok, &edited))
	assert.Equal(t, "edited", edited.Content)

	status, _ = env.do(http.MethodDelete, commentPath, nil, aliceTok)
	assert.Equal(t, http.StatusForbidden, status)
	status, _ = env.do(http.MethodDelete, commentPath, nil, bobTok)
	assert.Equal(t, http.StatusNoContent, status)
	status, _ = env.do(http.MethodDelete, commentPath, nil, bobTok)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestComments_Rejections(t *testing.T) {
	env := newTestEnv(t)
	alice, tok := env.user("alice")
	post := testutil.CreatePost(t, env.db, alice.ID, "p", testutil.Now())

	status, body := env.errorBody(http.MethodPost, fmt.Sprintf("/api/posts/%d/comment", post.ID), map[string]string{"content": "  "}, tok)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, models.ErrEmptyContent.Message, body.Detail)

	status, _ = env.do(http.MethodPost, "/api/posts/9999/comment", map[string]string{"content": "hi"}, tok)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = env.do(http.MethodGet, "/api/posts/9999/comments", nil, "")
	assert.Equal(t, http.StatusNotFound, status)

	status, body = env.errorBody(http.MethodPost, fmt.Sprintf("/api/posts/%d/comment", post.ID), map[string]string{"content": "hi"}, "")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, models.CodeUnauthorized, body.Code)
}
