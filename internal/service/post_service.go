package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"socialnet/internal/models"
	"socialnet/internal/observability"
	"socialnet/internal/repository"
)

const (
	maxPostLen     = 10000
	maxMediaRefLen = 512
)

// PostService owns post authoring and likes.
type PostService struct {
	posts         repository.PostRepository
	users         repository.UserRepository
	notifications *NotificationService
}

type CreatePostInput struct {
	AuthorID     uint
	Content      string
	MediaRef     string
	SharedPostID *uint
}

// UpdatePostInput carries optional changes; nil fields are left alone.
type UpdatePostInput struct {
	UserID   uint
	PostID   uint
	Content  *string
	MediaRef *string
}

// LikeResult reports a like call. A repeated like is a no-op with AlreadyLiked set.
type LikeResult struct {
	Liked        bool `json:"liked"`
	AlreadyLiked bool `json:"already_liked"`
}

func NewPostService(posts repository.PostRepository, users repository.UserRepository, notifications *NotificationService) *PostService {
	return &PostService{posts: posts, users: users, notifications: notifications}
}

func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	if err := RequireAuthenticated(in.AuthorID); err != nil {
		return nil, err
	}
	content := strings.TrimSpace(in.Content)
	mediaRef := strings.TrimSpace(in.MediaRef)

	if content == "" && mediaRef == "" && in.SharedPostID == nil {
		return nil, models.ErrEmptyContent
	}
	if utf8.RuneCountInString(content) > maxPostLen {
		return nil, models.NewValidationError(fmt.Sprintf("Content too long (max %d characters)", maxPostLen))
	}
	if len(mediaRef) > maxMediaRefLen {
		return nil, models.NewValidationError("media_ref too long (max 512 characters)")
	}
	if in.SharedPostID != nil {
		exists, err := s.posts.Exists(ctx, *in.SharedPostID)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, models.ErrSharedPostMissing
		}
	}

	post := &models.Post{
		AuthorID:     in.AuthorID,
		Content:      content,
		MediaRef:     mediaRef,
		SharedPostID: in.SharedPostID,
	}
	if err := s.posts.Create(ctx, post); err != nil {
		return nil, err
	}
	return s.posts.GetByID(ctx, post.ID, in.AuthorID)
}

func (s *PostService) GetPost(ctx context.Context, id, viewerID uint) (*models.Post, error) {
	return s.posts.GetByID(ctx, id, viewerID)
}

// ListPosts returns every post newest first.
func (s *PostService) ListPosts(ctx context.Context, limit, offset int, viewerID uint) ([]*models.Post, int64, error) {
	return s.posts.List(ctx, limit, offset, viewerID)
}

// ListUserPosts returns the posts authored by username newest first.
func (s *PostService) ListUserPosts(ctx context.Context, username string, limit, offset int, viewerID uint) ([]*models.Post, int64, error) {
	author, err := resolveUsername(ctx, s.users, username)
	if err != nil {
		return nil, 0, err
	}
	return s.posts.ListByAuthor(ctx, author.ID, limit, offset, viewerID)
}

func (s *PostService) UpdatePost(ctx context.Context, in UpdatePostInput) (*models.Post, error) {
	post, err := s.posts.GetByID(ctx, in.PostID, in.UserID)
	if err != nil {
		return nil, err
	}
	if err := RequireAuthor(in.UserID, post.AuthorID); err != nil {
		return nil, err
	}

	if in.Content != nil {
		content := strings.TrimSpace(*in.Content)
		if utf8.RuneCountInString(content) > maxPostLen {
			return nil, models.NewValidationError(fmt.Sprintf("Content too long (max %d characters)", maxPostLen))
		}
		post.Content = content
	}
	if in.MediaRef != nil {
		mediaRef := strings.TrimSpace(*in.MediaRef)
		if len(mediaRef) > maxMediaRefLen {
			return nil, models.NewValidationError("media_ref too long (max 512 characters)")
		}
		post.MediaRef = mediaRef
	}
	if post.Content == "" && post.MediaRef == "" && post.SharedPostID == nil {
		return nil, models.ErrEmptyContent
	}

	if err := s.posts.Update(ctx, post); err != nil {
		return nil, err
	}
	return s.posts.GetByID(ctx, post.ID, in.UserID)
}

// DeletePost removes the post and everything hanging off it.
func (s *PostService) DeletePost(ctx context.Context, userID, postID uint) error {
	post, err := s.posts.GetByID(ctx, postID, 0)
	if err != nil {
		return err
	}
	if err := RequireAuthor(userID, post.AuthorID); err != nil {
		return err
	}
	return s.posts.Delete(ctx, postID)
}

// Like records userID's like on postID and notifies the author of a new like.
func (s *PostService) Like(ctx context.Context, userID, postID uint) (LikeResult, error) {
	span, ctx := observability.NewSpan(ctx, "PostService.Like")
	defer span.End()

	post, err := s.posts.GetByID(ctx, postID, 0)
	if err != nil {
		return LikeResult{}, err
	}
	created, err := s.posts.Like(ctx, userID, postID)
	if err != nil {
		span.SetError(err)
		return LikeResult{}, err
	}
	if !created {
		return LikeResult{AlreadyLiked: true}, nil
	}

	if s.notifications != nil && post.AuthorID != userID {
		if actor, err := s.users.GetByID(ctx, userID); err == nil {
			s.notifications.Notify(ctx, NotifyInput{
				TargetUserID: post.AuthorID,
				Sender:       actor,
				Kind:         models.NotificationKindLike,
				Message:      fmt.Sprintf("%s liked your post.", actor.Username),
				PostID:       &post.ID,
			})
		}
	}
	return LikeResult{Liked: true}, nil
}

// Unlike removes the like if present and reports whether one was removed.
func (s *PostService) Unlike(ctx context.Context, userID, postID uint) (bool, error) {
	exists, err := s.posts.Exists(ctx, postID)
	if err != nil {
		return false, err
	}
	if !exists {
		return false, models.NewPostNotFoundError(postID)
	}
	return s.posts.Unlike(ctx, userID, postID)
}
