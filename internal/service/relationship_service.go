package service

import (
	"context"
	"fmt"

	"socialnet/internal/models"
	"socialnet/internal/observability"
	"socialnet/internal/repository"
)

// FollowResult describes the outcome of a follow or unfollow call. Repeating
// a call is never an error; the result says what happened.
type FollowResult string

const (
	FollowResultFollowed         FollowResult = "followed"
	FollowResultAlreadyFollowing FollowResult = "already_following"
	FollowResultUnfollowed       FollowResult = "unfollowed"
	FollowResultNotFollowing     FollowResult = "not_following"
)

// RelationshipService manages the directed follow graph.
type RelationshipService struct {
	follows       repository.FollowRepository
	users         repository.UserRepository
	notifications *NotificationService
}

// NewRelationshipService returns a RelationshipService.
func NewRelationshipService(follows repository.FollowRepository, users repository.UserRepository, notifications *NotificationService) *RelationshipService {
	return &RelationshipService{follows: follows, users: users, notifications: notifications}
}

// ResolveUsername loads a user by username or fails with 404.
func (s *RelationshipService) ResolveUsername(ctx context.Context, username string) (*models.User, error) {
	return resolveUsername(ctx, s.users, username)
}

func resolveUsername(ctx context.Context, users repository.UserRepository, username string) (*models.User, error) {
	user, err := users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewNotFoundError("User", username)
	}
	return user, nil
}

// Follow creates the edge follower -> target. Following an account already
// followed reports FollowResultAlreadyFollowing.
func (s *RelationshipService) Follow(ctx context.Context, followerID uint, targetUsername string) (FollowResult, error) {
	target, err := s.ResolveUsername(ctx, targetUsername)
	if err != nil {
		return "", err
	}
	if target.ID == followerID {
		observability.FollowMutations.WithLabelValues("follow", "self").Inc()
		return "", models.ErrSelfFollow
	}

	created, err := s.follows.Create(ctx, followerID, target.ID)
	if err != nil {
		return "", err
	}
	if !created {
		observability.FollowMutations.WithLabelValues("follow", "noop").Inc()
		return FollowResultAlreadyFollowing, nil
	}
	observability.FollowMutations.WithLabelValues("follow", "created").Inc()

	if s.notifications != nil {
		if follower, err := s.users.GetByID(ctx, followerID); err == nil {
			s.notifications.Notify(ctx, NotifyInput{
				TargetUserID: target.ID,
				Sender:       follower,
				Kind:         models.NotificationKindFollow,
				Message:      fmt.Sprintf("%s started following you.", follower.Username),
			})
		}
	}
	return FollowResultFollowed, nil
}

// Unfollow removes the edge follower -> target if present.
func (s *RelationshipService) Unfollow(ctx context.Context, followerID uint, targetUsername string) (FollowResult, error) {
	target, err := s.ResolveUsername(ctx, targetUsername)
	if err != nil {
		return "", err
	}
	if target.ID == followerID {
		observability.FollowMutations.WithLabelValues("unfollow", "self").Inc()
		return "", models.ErrSelfFollow
	}

	removed, err := s.follows.Delete(ctx, followerID, target.ID)
	if err != nil {
		return "", err
	}
	if !removed {
		observability.FollowMutations.WithLabelValues("unfollow", "noop").Inc()
		return FollowResultNotFollowing, nil
	}
	observability.FollowMutations.WithLabelValues("unfollow", "deleted").Inc()
	return FollowResultUnfollowed, nil
}

// ListFollowers pages over the accounts following username, newest edge first.
// The total equals the follower count.
func (s *RelationshipService) ListFollowers(ctx context.Context, username string, limit, offset int) ([]models.Follow, int64, error) {
	user, err := s.ResolveUsername(ctx, username)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.follows.CountFollowers(ctx, user.ID)
	if err != nil {
		return nil, 0, err
	}
	edges, err := s.follows.ListFollowers(ctx, user.ID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return edges, total, nil
}

// ListFollowing pages over the accounts username follows, newest edge first.
func (s *RelationshipService) ListFollowing(ctx context.Context, username string, limit, offset int) ([]models.Follow, int64, error) {
	user, err := s.ResolveUsername(ctx, username)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.follows.CountFollowing(ctx, user.ID)
	if err != nil {
		return nil, 0, err
	}
	edges, err := s.follows.ListFollowing(ctx, user.ID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return edges, total, nil
}

// CountFollowers returns how many accounts follow username.
func (s *RelationshipService) CountFollowers(ctx context.Context, username string) (int64, error) {
	user, err := s.ResolveUsername(ctx, username)
	if err != nil {
		return 0, err
	}
	return s.follows.CountFollowers(ctx, user.ID)
}

// CountFollowing returns how many accounts username follows.
func (s *RelationshipService) CountFollowing(ctx context.Context, username string) (int64, error) {
	user, err := s.ResolveUsername(ctx, username)
	if err != nil {
		return 0, err
	}
	return s.follows.CountFollowing(ctx, user.ID)
}

// IsFollowing reports whether followerID follows followingID.
func (s *RelationshipService) IsFollowing(ctx context.Context, followerID, followingID uint) (bool, error) {
	if followerID == 0 || followerID == followingID {
		return false, nil
	}
	return s.follows.Exists(ctx, followerID, followingID)
}

// ForEachFollowed streams the ids userID follows in ascending batches,
// stopping early when fn returns an error.
func (s *RelationshipService) ForEachFollowed(ctx context.Context, userID uint, batch int, fn func(ids []uint) error) error {
	var after uint
	for {
		ids, err := s.follows.FollowingIDs(ctx, userID, after, batch)
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		if err := fn(ids); err != nil {
			return err
		}
		if len(ids) < batch {
			return nil
		}
		after = ids[len(ids)-1]
	}
}
