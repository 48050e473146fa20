package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"socialnet/internal/models"
	"socialnet/internal/notifications"
	"socialnet/internal/pagination"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// userRepoStub is a stub for repository.UserRepository.
type userRepoStub struct {
	getByIDFn           func(context.Context, uint) (*models.User, error)
	getByEmailFn        func(context.Context, string) (*models.User, error)
	getByUsernameFn     func(context.Context, string) (*models.User, error)
	getByLoginFn        func(context.Context, string) (*models.User, error)
	createWithProfileFn func(context.Context, *models.User) error
	getProfileFn        func(context.Context, uint) (*models.Profile, error)
	updateProfileFn     func(context.Context, *models.User, *models.Profile) error
	searchFn            func(context.Context, string, int, int) ([]models.User, int64, error)
	deleteFn            func(context.Context, uint) error
}

func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getByEmailFn(ctx, email)
}
func (s *userRepoStub) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getByUsernameFn(ctx, username)
}
func (s *userRepoStub) GetByLogin(ctx context.Context, login string) (*models.User, error) {
	return s.getByLoginFn(ctx, login)
}
func (s *userRepoStub) CreateWithProfile(ctx context.Context, user *models.User) error {
	return s.createWithProfileFn(ctx, user)
}
func (s *userRepoStub) GetProfile(ctx context.Context, userID uint) (*models.Profile, error) {
	return s.getProfileFn(ctx, userID)
}
func (s *userRepoStub) UpdateProfile(ctx context.Context, user *models.User, profile *models.Profile) error {
	return s.updateProfileFn(ctx, user, profile)
}
func (s *userRepoStub) Search(ctx context.Context, q string, limit, offset int) ([]models.User, int64, error) {
	return s.searchFn(ctx, q, limit, offset)
}
func (s *userRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}

// noopUserRepo resolves every id to a user named "user<id>" and every username to id 2.
func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		getByIDFn: func(_ context.Context, id uint) (*models.User, error) {
			return &models.User{ID: id, Username: usernameFor(id)}, nil
		},
		getByEmailFn: func(context.Context, string) (*models.User, error) { return nil, nil },
		getByUsernameFn: func(_ context.Context, username string) (*models.User, error) {
			return &models.User{ID: 2, Username: username}, nil
		},
		getByLoginFn:        func(context.Context, string) (*models.User, error) { return nil, nil },
		createWithProfileFn: func(context.Context, *models.User) error { return nil },
		getProfileFn: func(_ context.Context, userID uint) (*models.Profile, error) {
			return &models.Profile{ID: userID, UserID: userID}, nil
		},
		updateProfileFn: func(context.Context, *models.User, *models.Profile) error { return nil },
		searchFn:        func(context.Context, string, int, int) ([]models.User, int64, error) { return nil, 0, nil },
		deleteFn:        func(context.Context, uint) error { return nil },
	}
}

func usernameFor(id uint) string {
	return fmt.Sprintf("user%d", id)
}

// followRepoStub is a stub for repository.FollowRepository.
type followRepoStub struct {
	createFn         func(context.Context, uint, uint) (bool, error)
	deleteFn         func(context.Context, uint, uint) (bool, error)
	existsFn         func(context.Context, uint, uint) (bool, error)
	listFollowersFn  func(context.Context, uint, int, int) ([]models.Follow, error)
	listFollowingFn  func(context.Context, uint, int, int) ([]models.Follow, error)
	countFollowersFn func(context.Context, uint) (int64, error)
	countFollowingFn func(context.Context, uint) (int64, error)
	followingIDsFn   func(context.Context, uint, uint, int) ([]uint, error)
}

func (s *followRepoStub) Create(ctx context.Context, a, b uint) (bool, error) {
	return s.createFn(ctx, a, b)
}
func (s *followRepoStub) Delete(ctx context.Context, a, b uint) (bool, error) {
	return s.deleteFn(ctx, a, b)
}
func (s *followRepoStub) Exists(ctx context.Context, a, b uint) (bool, error) {
	return s.existsFn(ctx, a, b)
}
func (s *followRepoStub) ListFollowers(ctx context.Context, id uint, limit, offset int) ([]models.Follow, error) {
	return s.listFollowersFn(ctx, id, limit, offset)
}
func (s *followRepoStub) ListFollowing(ctx context.Context, id uint, limit, offset int) ([]models.Follow, error) {
	return s.listFollowingFn(ctx, id, limit, offset)
}
func (s *followRepoStub) CountFollowers(ctx context.Context, id uint) (int64, error) {
	return s.countFollowersFn(ctx, id)
}
func (s *followRepoStub) CountFollowing(ctx context.Context, id uint) (int64, error) {
	return s.countFollowingFn(ctx, id)
}
func (s *followRepoStub) FollowingIDs(ctx context.Context, id, after uint, batch int) ([]uint, error) {
	return s.followingIDsFn(ctx, id, after, batch)
}

func noopFollowRepo() *followRepoStub {
	return &followRepoStub{
		createFn:         func(context.Context, uint, uint) (bool, error) { return true, nil },
		deleteFn:         func(context.Context, uint, uint) (bool, error) { return true, nil },
		existsFn:         func(context.Context, uint, uint) (bool, error) { return false, nil },
		listFollowersFn:  func(context.Context, uint, int, int) ([]models.Follow, error) { return nil, nil },
		listFollowingFn:  func(context.Context, uint, int, int) ([]models.Follow, error) { return nil, nil },
		countFollowersFn: func(context.Context, uint) (int64, error) { return 0, nil },
		countFollowingFn: func(context.Context, uint) (int64, error) { return 0, nil },
		followingIDsFn:   func(context.Context, uint, uint, int) ([]uint, error) { return nil, nil },
	}
}

// postRepoStub is a stub for repository.PostRepository.
type postRepoStub struct {
	createFn       func(context.Context, *models.Post) error
	existsFn       func(context.Context, uint) (bool, error)
	getByIDFn      func(context.Context, uint, uint) (*models.Post, error)
	listFn         func(context.Context, int, int, uint) ([]*models.Post, int64, error)
	listByAuthorFn func(context.Context, uint, int, int, uint) ([]*models.Post, int64, error)
	listFeedFn     func(context.Context, uint, pagination.Cursor, int) ([]*models.Post, error)
	listFeedPageFn func(context.Context, uint, int, int) ([]*models.Post, int64, error)
	updateFn       func(context.Context, *models.Post) error
	deleteFn       func(context.Context, uint) error
	likeFn         func(context.Context, uint, uint) (bool, error)
	unlikeFn       func(context.Context, uint, uint) (bool, error)
}

func (s *postRepoStub) Create(ctx context.Context, post *models.Post) error {
	return s.createFn(ctx, post)
}
func (s *postRepoStub) Exists(ctx context.Context, id uint) (bool, error) {
	return s.existsFn(ctx, id)
}
func (s *postRepoStub) GetByID(ctx context.Context, id, currentUserID uint) (*models.Post, error) {
	return s.getByIDFn(ctx, id, currentUserID)
}
func (s *postRepoStub) List(ctx context.Context, limit, offset int, currentUserID uint) ([]*models.Post, int64, error) {
	return s.listFn(ctx, limit, offset, currentUserID)
}
func (s *postRepoStub) ListByAuthor(ctx context.Context, authorID uint, limit, offset int, currentUserID uint) ([]*models.Post, int64, error) {
	return s.listByAuthorFn(ctx, authorID, limit, offset, currentUserID)
}
func (s *postRepoStub) ListFeed(ctx context.Context, userID uint, after pagination.Cursor, limit int) ([]*models.Post, error) {
	return s.listFeedFn(ctx, userID, after, limit)
}
func (s *postRepoStub) ListFeedPage(ctx context.Context, userID uint, limit, offset int) ([]*models.Post, int64, error) {
	return s.listFeedPageFn(ctx, userID, limit, offset)
}
func (s *postRepoStub) Update(ctx context.Context, post *models.Post) error {
	return s.updateFn(ctx, post)
}
func (s *postRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}
func (s *postRepoStub) Like(ctx context.Context, userID, postID uint) (bool, error) {
	return s.likeFn(ctx, userID, postID)
}
func (s *postRepoStub) Unlike(ctx context.Context, userID, postID uint) (bool, error) {
	return s.unlikeFn(ctx, userID, postID)
}

// noopPostRepo returns post 1 authored by user 1 for every lookup.
func noopPostRepo() *postRepoStub {
	return &postRepoStub{
		createFn: func(_ context.Context, p *models.Post) error { p.ID = 1; return nil },
		existsFn: func(context.Context, uint) (bool, error) { return true, nil },
		getByIDFn: func(_ context.Context, id, _ uint) (*models.Post, error) {
			return &models.Post{ID: id, AuthorID: 1, Content: "hello"}, nil
		},
		listFn:         func(context.Context, int, int, uint) ([]*models.Post, int64, error) { return nil, 0, nil },
		listByAuthorFn: func(context.Context, uint, int, int, uint) ([]*models.Post, int64, error) { return nil, 0, nil },
		listFeedFn:     func(context.Context, uint, pagination.Cursor, int) ([]*models.Post, error) { return nil, nil },
		listFeedPageFn: func(context.Context, uint, int, int) ([]*models.Post, int64, error) { return nil, 0, nil },
		updateFn:       func(context.Context, *models.Post) error { return nil },
		deleteFn:       func(context.Context, uint) error { return nil },
		likeFn:         func(context.Context, uint, uint) (bool, error) { return true, nil },
		unlikeFn:       func(context.Context, uint, uint) (bool, error) { return true, nil },
	}
}

// commentRepoStub is a stub for repository.CommentRepository.
type commentRepoStub struct {
	createFn     func(context.Context, *models.Comment) error
	getByIDFn    func(context.Context, uint) (*models.Comment, error)
	listByPostFn func(context.Context, uint, int, int) ([]*models.Comment, int64, error)
	updateFn     func(context.Context, *models.Comment) error
	deleteFn     func(context.Context, uint) error
}

func (s *commentRepoStub) Create(ctx context.Context, comment *models.Comment) error {
	return s.createFn(ctx, comment)
}
func (s *commentRepoStub) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	return s.getByIDFn(ctx, id)
}
func (s *commentRepoStub) ListByPost(ctx context.Context, postID uint, limit, offset int) ([]*models.Comment, int64, error) {
	return s.listByPostFn(ctx, postID, limit, offset)
}
func (s *commentRepoStub) Update(ctx context.Context, comment *models.Comment) error {
	return s.updateFn(ctx, comment)
}
func (s *commentRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}

func noopCommentRepo() *commentRepoStub {
	return &commentRepoStub{
		createFn: func(context.Context, *models.Comment) error { return nil },
		getByIDFn: func(_ context.Context, id uint) (*models.Comment, error) {
			return &models.Comment{ID: id, UserID: 1, PostID: 1}, nil
		},
		listByPostFn: func(context.Context, uint, int, int) ([]*models.Comment, int64, error) { return nil, 0, nil },
		updateFn:     func(context.Context, *models.Comment) error { return nil },
		deleteFn:     func(context.Context, uint) error { return nil },
	}
}

// messageRepoStub is a stub for repository.MessageRepository.
type messageRepoStub struct {
	createWithinLimitFn func(context.Context, *models.DirectMessage, int, time.Duration) error
	getByIDFn           func(context.Context, uint) (*models.DirectMessage, error)
	listInboxFn         func(context.Context, uint, int, int) ([]*models.DirectMessage, int64, error)
	listSentFn          func(context.Context, uint, int, int) ([]*models.DirectMessage, int64, error)
	markReadFn          func(context.Context, uint, uint) (bool, error)
	unreadCountFn       func(context.Context, uint) (int64, error)
	deleteFn            func(context.Context, uint) error
}

func (s *messageRepoStub) CreateWithinLimit(ctx context.Context, msg *models.DirectMessage, limit int, window time.Duration) error {
	return s.createWithinLimitFn(ctx, msg, limit, window)
}
func (s *messageRepoStub) GetByID(ctx context.Context, id uint) (*models.DirectMessage, error) {
	return s.getByIDFn(ctx, id)
}
func (s *messageRepoStub) ListInbox(ctx context.Context, userID uint, limit, offset int) ([]*models.DirectMessage, int64, error) {
	return s.listInboxFn(ctx, userID, limit, offset)
}
func (s *messageRepoStub) ListSent(ctx context.Context, userID uint, limit, offset int) ([]*models.DirectMessage, int64, error) {
	return s.listSentFn(ctx, userID, limit, offset)
}
func (s *messageRepoStub) MarkRead(ctx context.Context, id, recipientID uint) (bool, error) {
	return s.markReadFn(ctx, id, recipientID)
}
func (s *messageRepoStub) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	return s.unreadCountFn(ctx, userID)
}
func (s *messageRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}

func noopMessageRepo() *messageRepoStub {
	return &messageRepoStub{
		createWithinLimitFn: func(_ context.Context, m *models.DirectMessage, _ int, _ time.Duration) error { m.ID = 1; return nil },
		getByIDFn: func(_ context.Context, id uint) (*models.DirectMessage, error) {
			return &models.DirectMessage{ID: id, SenderID: 1, RecipientID: 2}, nil
		},
		listInboxFn:   func(context.Context, uint, int, int) ([]*models.DirectMessage, int64, error) { return nil, 0, nil },
		listSentFn:    func(context.Context, uint, int, int) ([]*models.DirectMessage, int64, error) { return nil, 0, nil },
		markReadFn:    func(context.Context, uint, uint) (bool, error) { return true, nil },
		unreadCountFn: func(context.Context, uint) (int64, error) { return 0, nil },
		deleteFn:      func(context.Context, uint) error { return nil },
	}
}

// notificationRepoRecorder is an in-memory repository.NotificationRepository.
type notificationRepoRecorder struct {
	mu        sync.Mutex
	created   []*models.Notification
	createErr error
}

func (r *notificationRepoRecorder) Create(_ context.Context, n *models.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	n.ID = uint(len(r.created) + 1)
	r.created = append(r.created, n)
	return nil
}
func (r *notificationRepoRecorder) List(context.Context, uint, bool, int, int) ([]*models.Notification, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.created, int64(len(r.created)), nil
}
func (r *notificationRepoRecorder) MarkRead(_ context.Context, id, userID uint) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.created {
		if n.ID == id && n.UserID == userID {
			n.IsRead = true
			return true, nil
		}
	}
	return false, nil
}
func (r *notificationRepoRecorder) MarkAllRead(_ context.Context, userID uint) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, item := range r.created {
		if item.UserID == userID && !item.IsRead {
			item.IsRead = true
			n++
		}
	}
	return n, nil
}

func (r *notificationRepoRecorder) PruneRead(_ context.Context, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.created[:0]
	var n int64
	for _, item := range r.created {
		if item.IsRead && item.CreatedAt.Before(before) {
			n++
			continue
		}
		kept = append(kept, item)
	}
	r.created = kept
	return n, nil
}

func (r *notificationRepoRecorder) kinds() []models.NotificationKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.NotificationKind, 0, len(r.created))
	for _, n := range r.created {
		out = append(out, n.Kind)
	}
	return out
}

// publisherStub records pushed events.
type publisherStub struct {
	mu     sync.Mutex
	events map[uint][]notifications.Event
	err    error
}

func (p *publisherStub) PublishEvent(_ context.Context, userID uint, ev notifications.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	if p.events == nil {
		p.events = map[uint][]notifications.Event{}
	}
	p.events[userID] = append(p.events[userID], ev)
	return nil
}

func (p *publisherStub) count(userID uint) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events[userID])
}

// flagStub evaluates every flag to the same value.
type flagStub bool

func (f flagStub) EnabledOr(string, uint, bool) bool { return bool(f) }

func newRecordingNotifications() (*NotificationService, *notificationRepoRecorder, *publisherStub) {
	repo := &notificationRepoRecorder{}
	pub := &publisherStub{}
	return NewNotificationService(repo, pub, nil), repo, pub
}

// assertAppErrorCode asserts that err is an AppError with the given code.
func assertAppErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
}

// assertValidationError asserts that err is an AppError with code VALIDATION_ERROR.
func assertValidationError(t *testing.T, err error) {
	t.Helper()
	assertAppErrorCode(t, err, models.CodeValidation)
}
