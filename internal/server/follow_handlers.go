package server

import (
	"socialnet/internal/models"
	"socialnet/internal/service"

	"github.com/gofiber/fiber/v2"
)

// FollowUser handles POST /api/users/follow/:username.
// A new edge answers 201; an existing one answers 200 and changes nothing.
// @Summary Follow a user
// @Tags follows
// @Produce json
// @Security BearerAuth
// @Param username path string true "Username to follow"
// @Success 201 {object} object{detail=string,result=string}
// @Success 200 {object} object{detail=string,result=string}
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /users/follow/{username} [post]
func (s *Server) FollowUser(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	username := c.Params("username")
	result, err := s.relationshipService.Follow(c.UserContext(), userID, username)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	if result == service.FollowResultAlreadyFollowing {
		return c.JSON(fiber.Map{
			"detail": "You are already following " + username + ".",
			"result": result,
		})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"detail": "You are now following " + username + ".",
		"result": result,
	})
}

// UnfollowUser handles DELETE /api/users/unfollow/:username.
// Unfollowing someone you do not follow is not an error.
// @Summary Unfollow a user
// @Tags follows
// @Produce json
// @Security BearerAuth
// @Param username path string true "Username to unfollow"
// @Success 200 {object} object{detail=string,result=string}
// @Failure 404 {object} models.ErrorResponse
// @Router /users/unfollow/{username} [delete]
func (s *Server) UnfollowUser(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	username := c.Params("username")
	result, err := s.relationshipService.Unfollow(c.UserContext(), userID, username)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	msg := "You have unfollowed " + username + "."
	if result == service.FollowResultNotFollowing {
		msg = "You are not following " + username + "."
	}
	return c.JSON(fiber.Map{"detail": msg, "result": result})
}

// ListFollowers handles GET /api/users/:username/followers
// @Summary List followers, newest first
// @Tags follows
// @Produce json
// @Param username path string true "Username"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} models.Page[models.FollowView]
// @Failure 404 {object} models.ErrorResponse
// @Router /users/{username}/followers [get]
func (s *Server) ListFollowers(c *fiber.Ctx) error {
	page, err := s.parsePage(c)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	edges, total, err := s.relationshipService.ListFollowers(c.UserContext(), c.Params("username"),
		page.Limit(), page.Offset())
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return respondPage(c, page, total, edges, func(f models.Follow) models.FollowView {
		return models.FollowView{User: models.SummaryOf(f.Follower), CreatedAt: f.CreatedAt}
	})
}

// ListFollowing handles GET /api/users/:username/following
// @Summary List followed users, newest first
// @Tags follows
// @Produce json
// @Param username path string true "Username"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} models.Page[models.FollowView]
// @Failure 404 {object} models.ErrorResponse
// @Router /users/{username}/following [get]
func (s *Server) ListFollowing(c *fiber.Ctx) error {
	page, err := s.parsePage(c)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	edges, total, err := s.relationshipService.ListFollowing(c.UserContext(), c.Params("username"),
		page.Limit(), page.Offset())
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return respondPage(c, page, total, edges, func(f models.Follow) models.FollowView {
		return models.FollowView{User: models.SummaryOf(f.Following), CreatedAt: f.CreatedAt}
	})
}

// CountFollowers handles GET /api/users/:username/followers/count
// @Summary Count followers
// @Tags follows
// @Produce json
// @Param username path string true "Username"
// @Success 200 {object} object{username=string,followers_count=int}
// @Failure 404 {object} models.ErrorResponse
// @Router /users/{username}/followers/count [get]
func (s *Server) CountFollowers(c *fiber.Ctx) error {
	username := c.Params("username")
	count, err := s.relationshipService.CountFollowers(c.UserContext(), username)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(fiber.Map{"username": username, "followers_count": count})
}

// CountFollowing handles GET /api/users/:username/following/count
// @Summary Count followed users
// @Tags follows
// @Produce json
// @Param username path string true "Username"
// @Success 200 {object} object{username=string,following_count=int}
// @Failure 404 {object} models.ErrorResponse
// @Router /users/{username}/following/count [get]
func (s *Server) CountFollowing(c *fiber.Ctx) error {
	username := c.Params("username")
	count, err := s.relationshipService.CountFollowing(c.UserContext(), username)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(fiber.Map{"username": username, "following_count": count})
}
