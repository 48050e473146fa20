package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"socialnet/internal/models"
	"socialnet/internal/repository"
	"socialnet/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

const (
	maxBioLen    = 500
	maxAvatarLen = 512
)

// UserService covers accounts and profiles.
type UserService struct {
	users      repository.UserRepository
	follows    repository.FollowRepository
	bcryptCost int
}

type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// UpdateProfileInput carries optional changes; nil fields are left alone.
type UpdateProfileInput struct {
	UserID   uint
	Username *string
	Bio      *string
	Avatar   *string
}

func NewUserService(users repository.UserRepository, follows repository.FollowRepository) *UserService {
	return &UserService{users: users, follows: follows, bcryptCost: bcrypt.DefaultCost}
}

// WithBcryptCost overrides the hashing cost, mainly for tests.
func (s *UserService) WithBcryptCost(cost int) *UserService {
	s.bcryptCost = cost
	return s
}

// Register validates the credentials and creates the user with an empty profile.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	username := strings.TrimSpace(in.Username)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if username == "" || email == "" || in.Password == "" {
		return nil, models.NewValidationError("Username, email, and password are required")
	}
	if err := validation.ValidateUsername(username); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateEmail(email); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{Username: username, Email: email, Password: string(hashed)}
	if err := s.users.CreateWithProfile(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate resolves a username or email and checks the password.
// Unknown accounts and wrong passwords fail the same way.
func (s *UserService) Authenticate(ctx context.Context, login, password string) (*models.User, error) {
	invalid := models.NewUnauthorizedError("Invalid credentials")
	login = strings.TrimSpace(login)
	if login == "" || password == "" {
		return nil, invalid
	}

	user, err := s.users.GetByLogin(ctx, login)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, invalid
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, invalid
	}
	return user, nil
}

func (s *UserService) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	return s.users.GetByID(ctx, id)
}

// PublicProfile is the profile of username as seen by viewerID (0 for anonymous).
func (s *UserService) PublicProfile(ctx context.Context, username string, viewerID uint) (*models.ProfileView, error) {
	user, err := resolveUsername(ctx, s.users, username)
	if err != nil {
		return nil, err
	}
	return s.profileView(ctx, user, viewerID)
}

// MyProfile is the caller's own profile including private fields.
func (s *UserService) MyProfile(ctx context.Context, userID uint) (*models.MyProfileView, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	view, err := s.profileView(ctx, user, 0)
	if err != nil {
		return nil, err
	}
	return &models.MyProfileView{ProfileView: *view, Email: user.Email}, nil
}

func (s *UserService) profileView(ctx context.Context, user *models.User, viewerID uint) (*models.ProfileView, error) {
	profile, err := s.users.GetProfile(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	followers, err := s.follows.CountFollowers(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	following, err := s.follows.CountFollowing(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	isFollowing := false
	if viewerID != 0 && viewerID != user.ID {
		if isFollowing, err = s.follows.Exists(ctx, viewerID, user.ID); err != nil {
			return nil, err
		}
	}

	return &models.ProfileView{
		ID:             user.ID,
		Username:       user.Username,
		Bio:            profile.Bio,
		Avatar:         profile.Avatar,
		FollowersCount: followers,
		FollowingCount: following,
		IsFollowing:    isFollowing,
		CreatedAt:      user.CreatedAt,
	}, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.MyProfileView, error) {
	user, err := s.users.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	profile, err := s.users.GetProfile(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	if in.Username != nil {
		username := strings.TrimSpace(*in.Username)
		if err := validation.ValidateUsername(username); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		user.Username = username
	}
	if in.Bio != nil {
		if utf8.RuneCountInString(*in.Bio) > maxBioLen {
			return nil, models.NewValidationError("Bio too long (max 500 characters)")
		}
		profile.Bio = *in.Bio
	}
	if in.Avatar != nil {
		avatar := strings.TrimSpace(*in.Avatar)
		if len(avatar) > maxAvatarLen {
			return nil, models.NewValidationError("Avatar reference too long (max 512 characters)")
		}
		profile.Avatar = avatar
	}

	if err := s.users.UpdateProfile(ctx, user, profile); err != nil {
		return nil, err
	}
	return s.MyProfile(ctx, in.UserID)
}

// Search finds users whose username starts with query, case-insensitively.
func (s *UserService) Search(ctx context.Context, query string, limit, offset int) ([]models.User, int64, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, 0, models.NewValidationError("Search query is required")
	}
	return s.users.Search(ctx, query, limit, offset)
}

// DeleteAccount removes the user and all content attached to it.
func (s *UserService) DeleteAccount(ctx context.Context, userID uint) error {
	if err := RequireAuthenticated(userID); err != nil {
		return err
	}
	return s.users.Delete(ctx, userID)
}
