package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"socialnet/internal/models"
	"socialnet/internal/repository"
)

const maxCommentLen = 10000

type CommentService struct {
	comments      repository.CommentRepository
	posts         repository.PostRepository
	users         repository.UserRepository
	notifications *NotificationService
}

type CreateCommentInput struct {
	UserID  uint
	PostID  uint
	Content string
}

type UpdateCommentInput struct {
	UserID    uint
	PostID    uint
	CommentID uint
	Content   string
}

type DeleteCommentInput struct {
	UserID    uint
	PostID    uint
	CommentID uint
}

func NewCommentService(
	comments repository.CommentRepository,
	posts repository.PostRepository,
	users repository.UserRepository,
	notifications *NotificationService,
) *CommentService {
	return &CommentService{
		comments:      comments,
		posts:         posts,
		users:         users,
		notifications: notifications,
	}
}

func validateCommentContent(raw string) (string, error) {
	content := strings.TrimSpace(raw)
	if content == "" {
		return "", models.ErrEmptyContent
	}
	if utf8.RuneCountInString(content) > maxCommentLen {
		return "", models.NewValidationError(fmt.Sprintf("Comment too long (max %d characters)", maxCommentLen))
	}
	return content, nil
}

func (s *CommentService) CreateComment(ctx context.Context, in CreateCommentInput) (*models.Comment, error) {
	content, err := validateCommentContent(in.Content)
	if err != nil {
		return nil, err
	}
	post, err := s.posts.GetByID(ctx, in.PostID, 0)
	if err != nil {
		return nil, err
	}

	comment := &models.Comment{
		Content: content,
		UserID:  in.UserID,
		PostID:  in.PostID,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}

	if s.notifications != nil && post.AuthorID != in.UserID {
		if actor, err := s.users.GetByID(ctx, in.UserID); err == nil {
			s.notifications.Notify(ctx, NotifyInput{
				TargetUserID: post.AuthorID,
				Sender:       actor,
				Kind:         models.NotificationKindComment,
				Message:      fmt.Sprintf("%s commented on your post: %s", actor.Username, content),
				PostID:       &post.ID,
			})
		}
	}

	return s.comments.GetByID(ctx, comment.ID)
}

// ListComments returns a post's comments oldest first.
func (s *CommentService) ListComments(ctx context.Context, postID uint, limit, offset int) ([]*models.Comment, int64, error) {
	exists, err := s.posts.Exists(ctx, postID)
	if err != nil {
		return nil, 0, err
	}
	if !exists {
		return nil, 0, models.NewPostNotFoundError(postID)
	}
	return s.comments.ListByPost(ctx, postID, limit, offset)
}

// loadOnPost fetches the comment and checks it hangs off postID.
func (s *CommentService) loadOnPost(ctx context.Context, postID, commentID uint) (*models.Comment, error) {
	comment, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if comment.PostID != postID {
		return nil, models.NewNotFoundError("Comment", commentID)
	}
	return comment, nil
}

func (s *CommentService) UpdateComment(ctx context.Context, in UpdateCommentInput) (*models.Comment, error) {
	comment, err := s.loadOnPost(ctx, in.PostID, in.CommentID)
	if err != nil {
		return nil, err
	}
	if err := RequireAuthor(in.UserID, comment.UserID); err != nil {
		return nil, err
	}
	content, err := validateCommentContent(in.Content)
	if err != nil {
		return nil, err
	}

	comment.Content = content
	if err := s.comments.Update(ctx, comment); err != nil {
		return nil, err
	}
	return s.comments.GetByID(ctx, comment.ID)
}

func (s *CommentService) DeleteComment(ctx context.Context, in DeleteCommentInput) error {
	comment, err := s.loadOnPost(ctx, in.PostID, in.CommentID)
	if err != nil {
		return err
	}
	if err := RequireAuthor(in.UserID, comment.UserID); err != nil {
		return err
	}
	return s.comments.Delete(ctx, in.CommentID)
}
