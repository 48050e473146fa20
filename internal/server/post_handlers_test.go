package server

import (
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"socialnet/internal/models"
	"socialnet/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAndGetPost(t *testing.T) {
	env := newTestEnv(t)
	alice, aliceTok := env.user("alice")

	var created models.PostView
	status := env.doJSON(http.MethodPost, "/api/posts", map[string]any{"content": "  hello world  "}, aliceTok, &created)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "hello world", created.Content)
	require.NotNil(t, created.Author)
	assert.Equal(t, alice.ID, created.Author.ID)

	var fetched models.PostView
	require.Equal(t, http.StatusOK, env.doJSON(http.MethodGet, fmt.Sprintf("/api/posts/%d", created.ID), nil, "", &fetched))
	assert.Equal(t, created.ID, fetched.ID)
	assert.Equal(t, "alice", fetched.Author.Username)

	t.Run("repost", func(t *testing.T) {
		var repost models.PostView
		status := env.doJSON(http.MethodPost, "/api/posts", map[string]any{"shared_post_id": created.ID}, aliceTok, &repost)
		require.Equal(t, http.StatusCreated, status)
		require.NotNil(t, repost.SharedPostID)
		assert.Equal(t, created.ID, *repost.SharedPostID)
	})

	t.Run("rejections", func(t *testing.T) {
		status, body := env.errorBody(http.MethodPost, "/api/posts", map[string]any{"content": "   "}, aliceTok)
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, models.ErrEmptyContent.Message, body.Detail)

		status, body = env.errorBody(http.MethodPost, "/api/posts", map[string]any{"shared_post_id": 9999}, aliceTok)
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, models.ErrSharedPostMissing.Message, body.Detail)

		status, body = env.errorBody(http.MethodGet, "/api/posts/9999", nil, "")
		assert.Equal(t, http.StatusNotFound, status)
		assert.Equal(t, models.CodeNotFound, body.Code)

		status, body = env.errorBody(http.MethodGet, "/api/posts/abc", nil, "")
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "Invalid ID", body.Detail)
	})
}

func TestListPosts_PageEnvelope(t *testing.T) {
	env := newTestEnv(t)
	alice, _ := env.user("alice")
	now := testutil.Now()
	for i := 0; i < 5; i++ {
		testutil.CreatePost(t, env.db, alice.ID, fmt.Sprintf("p%d", i), now.Add(time.Duration(i)*time.Second))
	}

	var first models.Page[models.PostView]
	require.Equal(t, http.StatusOK, env.doJSON(http.MethodGet, "/api/posts?page_size=2", nil, "", &first))
	assert.EqualValues(t, 5, first.Count)
	require.Len(t, first.Results, 2)
	assert.Equal(t, "p4", first.Results[0].Content)
	assert.Nil(t, first.Previous)
	require.NotNil(t, first.Next)
	assert.True(t, strings.HasPrefix(*first.Next, "http://"), *first.Next)
	assert.Contains(t, *first.Next, "page_size=2")
	assert.Contains(t, *first.Next, "page=2")

	var last models.Page[models.PostView]
	require.Equal(t, http.StatusOK, env.doJSON(http.MethodGet, "/api/posts?page_size=2&page=3", nil, "", &last))
	require.Len(t, last.Results, 1)
	assert.Equal(t, "p0", last.Results[0].Content)
	assert.Nil(t, last.Next)
	require.NotNil(t, last.Previous)
	assert.Contains(t, *last.Previous, "page=2")

	var byUser models.Page[models.PostView]
	require.Equal(t, http.StatusOK, env.doJSON(http.MethodGet, "/api/users/alice/posts", nil, "", &byUser))
	assert.EqualValues(t, 5, byUser.Count)
}

func TestListPosts_RejectsOverflowingPage(t *testing.T) {
	env := newTestEnv(t)
	alice, aliceTok := env.user("alice")
	testutil.CreatePost(t, env.db, alice.ID, "only", testutil.Now())

	for _, path := range []string{
		"/api/posts?page=9223372036854775807",
		"/api/posts?page=100000000&page_size=50",
		"/api/users/alice/followers?page=9223372036854775807",
		"/api/posts/feed?page=9223372036854775807",
	} {
		status, body := env.errorBody(http.MethodGet, path, nil, aliceTok)
		assert.Equal(t, http.StatusBadRequest, status, path)
		assert.Equal(t, models.CodeValidation, body.Code, path)
		assert.Equal(t, "Invalid page", body.Detail, path)
	}

	var last models.Page[models.PostView]
	require.Equal(t, http.StatusOK, env.doJSON(http.MethodGet, "/api/posts?page=1000", nil, "", &last))
	assert.Empty(t, last.Results)
	assert.Nil(t, last.Next)
}

func TestUpdateDeletePost_AuthorOnly(t *testing.T) {
	env := newTestEnv(t)
	alice, aliceTok := env.user("alice")
	_, bobTok := env.user("bob")
	post := testutil.CreatePost(t, env.db, alice.ID, "original", testutil.Now())
	path := fmt.Sprintf("/api/posts/%d", post.ID)

	status, body := env.errorBody(http.MethodPut, path, map[string]any{"content": "hijacked"}, bobTok)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, models.CodeForbidden, body.Code)

	status, body = env.errorBody(http.MethodPut, path, map[string]any{"content": "hijacked"}, "")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, models.CodeUnauthorized, body.Code)

	var updated models.PostView
	require.Equal(t, http.StatusOK, env.doJSON(http.MethodPut, path, map[string]any{"content": "edited"}, aliceTok, &updated))
	assert.Equal(t, "edited", updated.Content)

	status, _ = env.do(http.MethodDelete, path, nil, bobTok)
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = env.do(http.MethodDelete, path, nil, aliceTok)
	assert.Equal(t, http.StatusNoContent, status)

	status, _ = env.do(http.MethodDelete, path, nil, aliceTok)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestLikeUnlike(t *testing.T) {
	env := newTestEnv(t)
	alice, aliceTok := env.user("alice")
	_, bobTok := env.user("bob")
	post := testutil.CreatePost(t, env.db, alice.ID, "likeable", testutil.Now())
	likePath := fmt.Sprintf("/api/posts/like/%d", post.ID)
	unlikePath := fmt.Sprintf("/api/posts/unlike/%d", post.ID)

	var out map[string]any
	require.Equal(t, http.StatusCreated, env.doJSON(http.MethodPost, likePath, nil, bobTok, &out))
	assert.Equal(t, true, out["liked"])

	require.Equal(t, http.StatusOK, env.doJSON(http.MethodPost, likePath, nil, bobTok, &out))
	assert.Equal(t, true, out["already_liked"])

	assert.Equal(t, int64(1), testutil.Count(t, env.db, &models.Like{}, "post_id = ?", post.ID))
	assert.Equal(t, int64(1), testutil.Count(t, env.db, &models.Notification{}, "user_id = ? AND kind = ?", alice.ID, models.NotificationKindLike))

	var view models.PostView
	require.Equal(t, http.StatusOK, env.doJSON(http.MethodGet, fmt.Sprintf("/api/posts/%d", post.ID), nil, bobTok, &view))
	assert.Equal(t, 1, view.LikesCount)
	assert.True(t, view.Liked)

	// Liking your own post creates no notification.
	require.Equal(t, http.StatusCreated, env.doJSON(http.MethodPost, likePath, nil, aliceTok, &out))
	assert.Equal(t, int64(1), testutil.Count(t, env.db, &models.Notification{}, "user_id = ?", alice.ID))

	require.Equal(t, http.StatusOK, env.doJSON(http.MethodDelete, unlikePath, nil, bobTok, &out))
	assert.Equal(t, true, out["unliked"])
	require.Equal(t, http.StatusOK, env.doJSON(http.MethodDelete, unlikePath, nil, bobTok, &out))
	assert.Equal(t, false, out["unliked"])

	status, _ := env.do(http.MethodPost, "/api/posts/like/9999", nil, bobTok)
	assert.Equal(t, http.StatusNotFound, status)
	status, _ = env.do(http.MethodDelete, "/api/posts/unlike/9999", nil, bobTok)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestDeletePost_RemovesDependents(t *testing.T) {
	env := newTestEnv(t)
	alice, aliceTok := env.user("alice")
	_, bobTok := env.user("bob")
	post := testutil.CreatePost(t, env.db, alice.ID, "doomed", testutil.Now())

	status, _ := env.do(http.MethodPost, fmt.Sprintf("/api/posts/like/%d", post.ID), nil, bobTok)
	require.Equal(t, http.StatusCreated, status)
	status, _ = env.do(http.MethodPost, fmt.Sprintf("/api/posts/%d/comment", post.ID), map[string]string{"content": "nice"}, bobTok)
	require.Equal(t, http.StatusCreated, status)

	status, _ = env.do(http.MethodDelete, fmt.Sprintf("/api/posts/%d", post.ID), nil, aliceTok)
	require.Equal(t, http.StatusNoContent, status)

	assert.Zero(t, testutil.Count(t, env.db, &models.Like{}, "post_id = ?", post.ID))
	assert.Zero(t, testutil.Count(t, env.db, &models.Comment{}, "post_id = ?", post.ID))
	assert.Zero(t, testutil.Count(t, env.db, &models.Notification{}, "post_id = ?", post.ID))

	status, _ = env.do(http.MethodGet, fmt.Sprintf("/api/posts/%d/comments", post.ID), nil, "")
	assert.Equal(t, http.StatusNotFound, status)
}
