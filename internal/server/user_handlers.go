package server

import (
	"log/slog"
	"time"

	"socialnet/internal/cache"
	"socialnet/internal/models"
	"socialnet/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetMyProfile handles GET /api/users/me/profile
// @Summary Get the caller's profile
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.MyProfileView
// @Failure 401 {object} models.ErrorResponse
// @Router /users/me/profile [get]
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	profile, err := s.userService.MyProfile(c.UserContext(), userID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(profile)
}

// UpdateMyProfile handles PUT /api/users/me/profile
// @Summary Update the caller's profile
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{username=string,bio=string,avatar=string} true "Profile changes"
// @Success 200 {object} models.MyProfileView
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /users/me/profile [put]
func (s *Server) UpdateMyProfile(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	var req struct {
		Username *string `json:"username"`
		Bio      *string `json:"bio"`
		Avatar   *string `json:"avatar"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	profile, err := s.userService.UpdateProfile(c.UserContext(), service.UpdateProfileInput{
		UserID:   userID,
		Username: req.Username,
		Bio:      req.Bio,
		Avatar:   req.Avatar,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(profile)
}

// DeleteMyAccount handles DELETE /api/users/me. Everything the account owns
// is removed with it.
// @Summary Delete the caller's account
// @Tags users
// @Security BearerAuth
// @Success 204
// @Failure 401 {object} models.ErrorResponse
// @Router /users/me [delete]
func (s *Server) DeleteMyAccount(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	ctx := c.UserContext()
	if err := s.userService.DeleteAccount(ctx, userID); err != nil {
		return models.RespondWithAppError(c, err)
	}

	if jti, _ := c.Locals("jti").(string); jti != "" {
		exp, _ := c.Locals("tokenExp").(time.Time)
		if err := cache.BlacklistToken(ctx, jti, time.Until(exp)); err != nil {
			slog.WarnContext(ctx, "access token blacklist failed", "error", err)
		}
	}
	if err := cache.RevokeUserSessions(ctx, userID, s.config.AccessTokenTTL()); err != nil {
		slog.WarnContext(ctx, "session revoke failed", "user_id", userID, "error", err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// SearchUsers handles GET /api/users/search?q=
// @Summary Search users by username prefix
// @Tags users
// @Produce json
// @Param q query string true "Username prefix"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} models.Page[models.UserSummary]
// @Failure 400 {object} models.ErrorResponse
// @Router /users/search [get]
func (s *Server) SearchUsers(c *fiber.Ctx) error {
	page, err := s.parsePage(c)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	users, total, err := s.userService.Search(c.UserContext(), c.Query("q"), page.Limit(), page.Offset())
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	return respondPage(c, page, total, users, func(u models.User) *models.UserSummary {
		return models.SummaryOf(&u)
	})
}

// GetUserProfile handles GET /api/users/:username
// @Summary Get a public profile
// @Tags users
// @Produce json
// @Param username path string true "Username"
// @Success 200 {object} models.ProfileView
// @Failure 404 {object} models.ErrorResponse
// @Router /users/{username} [get]
func (s *Server) GetUserProfile(c *fiber.Ctx) error {
	profile, err := s.userService.PublicProfile(c.UserContext(), c.Params("username"), viewerID(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(profile)
}

// GetUserPosts handles GET /api/users/:username/posts
// @Summary List posts by a user
// @Tags posts
// @Produce json
// @Param username path string true "Username"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} models.Page[models.PostView]
// @Failure 404 {object} models.ErrorResponse
// @Router /users/{username}/posts [get]
func (s *Server) GetUserPosts(c *fiber.Ctx) error {
	page, err := s.parsePage(c)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	posts, total, err := s.postService.ListUserPosts(c.UserContext(), c.Params("username"),
		page.Limit(), page.Offset(), viewerID(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return respondPage(c, page, total, posts, models.ViewOfPost)
}
