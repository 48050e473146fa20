package service

import (
	"context"
	"time"

	"socialnet/internal/models"
	"socialnet/internal/observability"
	"socialnet/internal/pagination"
	"socialnet/internal/repository"
)

// FeedService assembles the reverse-chronological feed of followed authors.
type FeedService struct {
	posts repository.PostRepository
}

// FeedPage is one keyset page. NextCursor is empty on the last page.
type FeedPage struct {
	Posts      []*models.Post
	NextCursor string
}

func NewFeedService(posts repository.PostRepository) *FeedService {
	return &FeedService{posts: posts}
}

// GetFeed returns up to limit posts after the opaque cursor token.
func (s *FeedService) GetFeed(ctx context.Context, userID uint, token string, limit int) (*FeedPage, error) {
	if err := RequireAuthenticated(userID); err != nil {
		return nil, err
	}
	after, err := pagination.Decode(token)
	if err != nil {
		return nil, models.ErrInvalidCursor
	}

	span, ctx := observability.NewSpan(ctx, "FeedService.GetFeed")
	defer span.End()
	start := time.Now()
	defer func() { observability.FeedAssemblySeconds.Observe(time.Since(start).Seconds()) }()

	posts, err := s.posts.ListFeed(ctx, userID, after, limit)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	page := &FeedPage{Posts: posts}
	if len(posts) > limit {
		page.Posts = posts[:limit]
		last := page.Posts[len(page.Posts)-1]
		next, err := pagination.Encode(pagination.After(last.CreatedAt, last.ID))
		if err != nil {
			return nil, models.NewInternalError(err)
		}
		page.NextCursor = next
	}
	return page, nil
}

// GetFeedPage is the offset form of the feed. The total counts every feed post.
func (s *FeedService) GetFeedPage(ctx context.Context, userID uint, limit, offset int) ([]*models.Post, int64, error) {
	if err := RequireAuthenticated(userID); err != nil {
		return nil, 0, err
	}
	start := time.Now()
	defer func() { observability.FeedAssemblySeconds.Observe(time.Since(start).Seconds()) }()
	return s.posts.ListFeedPage(ctx, userID, limit, offset)
}
