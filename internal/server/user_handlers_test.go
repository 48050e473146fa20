package server

import (
	"net/http"
	"strings"
	"testing"

	"socialnet/internal/models"
	"socialnet/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMyProfile_GetAndUpdate(t *testing.T) {
	env := newTestEnv(t)
	alice, tok := env.user("alice")

	var me models.MyProfileView
	require.Equal(t, http.StatusOK, env.doJSON(http.MethodGet, "/api/users/me/profile", nil, tok, &me))
	assert.Equal(t, alice.ID, me.ID)
	assert.Equal(t, alice.Email, me.Email)

	require.Equal(t, http.StatusOK, env.doJSON(http.MethodPut, "/api/users/me/profile",
		map[string]any{"bio": "hello there", "avatar": "avatars/alice.png"}, tok, &me))
	assert.Equal(t, "hello there", me.Bio)
	assert.Equal(t, "avatars/alice.png", me.Avatar)
	assert.Equal(t, "alice", me.Username)

	status, body := env.errorBody(http.MethodPut, "/api/users/me/profile",
		map[string]any{"bio": strings.Repeat("x", 501)}, tok)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, models.CodeValidation, body.Code)

	env.user("bob")
	status, body = env.errorBody(http.MethodPut, "/api/users/me/profile", map[string]any{"username": "bob"}, tok)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, models.CodeConflict, body.Code)

	status, _ = env.do(http.MethodGet, "/api/users/me/profile", nil, "")
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestSearchUsers(t *testing.T) {
	env := newTestEnv(t)
	env.user("alice")
	env.user("alicia")
	env.user("bob")

	var page models.Page[models.UserSummary]
	require.Equal(t, http.StatusOK, env.doJSON(http.MethodGet, "/api/users/search?q=ALI", nil, "", &page))
	assert.EqualValues(t, 2, page.Count)
	for _, u := range page.Results {
		assert.True(t, strings.HasPrefix(u.Username, "ali"), u.Username)
	}

	status, body := env.errorBody(http.MethodGet, "/api/users/search?q=", nil, "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, models.CodeValidation, body.Code)
}

func TestPublicProfile_IsFollowing(t *testing.T) {
	env := newTestEnv(t)
	_, aliceTok := env.user("alice")
	env.user("bob")

	status, _ := env.do(http.MethodPost, "/api/users/follow/bob", nil, aliceTok)
	require.Equal(t, http.StatusCreated, status)

	var profile models.ProfileView
	require.Equal(t, http.StatusOK, env.doJSON(http.MethodGet, "/api/users/bob", nil, aliceTok, &profile))
	assert.True(t, profile.IsFollowing)
	assert.EqualValues(t, 1, profile.FollowersCount)

	require.Equal(t, http.StatusOK, env.doJSON(http.MethodGet, "/api/users/bob", nil, "", &profile))
	assert.False(t, profile.IsFollowing, "anonymous viewers follow nobody")

	status, _ = env.do(http.MethodGet, "/api/users/ghost", nil, "")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestDeleteMyAccount_RemovesOwnedContent(t *testing.T) {
	env := newTestEnv(t)
	alice, aliceTok := env.user("alice")
	bob, bobTok := env.user("bob")
	post := testutil.CreatePost(t, env.db, alice.ID, "mine", testutil.Now())
	testutil.Follow(t, env.db, bob.ID, alice.ID, testutil.Now())

	status, _ := env.do(http.MethodPost, "/api/messages/send", map[string]any{"recipient": "alice", "content": "hi"}, bobTok)
	require.Equal(t, http.StatusCreated, status)

	status, _ = env.do(http.MethodDelete, "/api/users/me", nil, aliceTok)
	require.Equal(t, http.StatusNoContent, status)

	assert.Zero(t, testutil.Count(t, env.db, &models.User{}, "id = ?", alice.ID))
	assert.Zero(t, testutil.Count(t, env.db, &models.Post{}, "id = ?", post.ID))
	assert.Zero(t, testutil.Count(t, env.db, &models.Follow{}, "following_id = ?", alice.ID))
	assert.Zero(t, testutil.Count(t, env.db, &models.DirectMessage{}, "recipient_id = ?", alice.ID))
	assert.Zero(t, testutil.Count(t, env.db, &models.Notification{}, "user_id = ?", alice.ID))

	status, _ = env.do(http.MethodGet, "/api/users/alice", nil, "")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestDeleteMyAccount_RevokesEverySession(t *testing.T) {
	env := newTestEnv(t)
	env.user("bob")

	var first AuthResponse
	require.Equal(t, http.StatusCreated, env.doJSON(http.MethodPost, "/api/users/register", map[string]string{
		"username": "carol",
		"email":    "carol@example.com",
		"password": strongPassword,
	}, "", &first))

	var second AuthResponse
	require.Equal(t, http.StatusOK, env.doJSON(http.MethodPost, "/api/users/login",
		map[string]string{"username": "carol", "password": strongPassword}, "", &second))

	status, _ := env.do(http.MethodDelete, "/api/users/me", nil, first.Access)
	require.Equal(t, http.StatusNoContent, status)

	for _, tok := range []string{first.Access, second.Access} {
		status, body := env.errorBody(http.MethodPost, "/api/posts", map[string]any{"content": "from beyond"}, tok)
		assert.Equal(t, http.StatusUnauthorized, status)
		assert.Equal(t, models.CodeUnauthorized, body.Code)

		status, _ = env.do(http.MethodPost, "/api/users/follow/bob", nil, tok)
		assert.Equal(t, http.StatusUnauthorized, status)
	}

	for _, refresh := range []string{first.Refresh, second.Refresh} {
		status, _ := env.do(http.MethodPost, "/api/users/token/refresh", map[string]string{"refresh": refresh}, "")
		assert.Equal(t, http.StatusUnauthorized, status)
	}

	assert.Zero(t, testutil.Count(t, env.db, &models.Post{}, "author_id = ?", first.User.ID))
	assert.Zero(t, testutil.Count(t, env.db, &models.Follow{}, "follower_id = ?", first.User.ID))
}
