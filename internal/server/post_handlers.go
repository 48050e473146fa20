package server

import (
	"socialnet/internal/models"
	"socialnet/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreatePost handles POST /api/posts
// @Summary Create a post
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{content=string,media_ref=string,shared_post_id=int} true "Post"
// @Success 201 {object} models.PostView
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /posts [post]
func (s *Server) CreatePost(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	var req struct {
		Content      string `json:"content"`
		MediaRef     string `json:"media_ref"`
		SharedPostID *uint  `json:"shared_post_id"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	post, err := s.postService.CreatePost(c.UserContext(), service.CreatePostInput{
		AuthorID:     userID,
		Content:      req.Content,
		MediaRef:     req.MediaRef,
		SharedPostID: req.SharedPostID,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(models.ViewOfPost(post))
}

// GetPosts handles GET /api/posts
// @Summary List all posts, newest first
// @Tags posts
// @Produce json
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} models.Page[models.PostView]
// @Router /posts [get]
func (s *Server) GetPosts(c *fiber.Ctx) error {
	page, err := s.parsePage(c)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	posts, total, err := s.postService.ListPosts(c.UserContext(), page.Limit(), page.Offset(), viewerID(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return respondPage(c, page, total, posts, models.ViewOfPost)
}

// GetPost handles GET /api/posts/:id
// @Summary Get a post
// @Tags posts
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} models.PostView
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id} [get]
func (s *Server) GetPost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	post, err := s.postService.GetPost(c.UserContext(), id, viewerID(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(models.ViewOfPost(post))
}

// UpdatePost handles PUT /api/posts/:id
// @Summary Edit a post
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Param request body object{content=string,media_ref=string} true "Changes"
// @Success 200 {object} models.PostView
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id} [put]
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	id, err := parseID(c, "id")
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	var req struct {
		Content  *string `json:"content"`
		MediaRef *string `json:"media_ref"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	post, err := s.postService.UpdatePost(c.UserContext(), service.UpdatePostInput{
		UserID:   userID,
		PostID:   id,
		Content:  req.Content,
		MediaRef: req.MediaRef,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(models.ViewOfPost(post))
}

// DeletePost handles DELETE /api/posts/:id
// @Summary Delete a post with its likes and comments
// @Tags posts
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 204
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id} [delete]
func (s *Server) DeletePost(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	id, err := parseID(c, "id")
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	if err := s.postService.DeletePost(c.UserContext(), userID, id); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// LikePost handles POST /api/posts/like/:postId. Liking twice is a no-op.
// @Summary Like a post
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Param postId path int true "Post ID"
// @Success 201 {object} service.LikeResult
// @Success 200 {object} service.LikeResult
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/like/{postId} [post]
func (s *Server) LikePost(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	postID, err := parseID(c, "postId")
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	result, err := s.postService.Like(c.UserContext(), userID, postID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	if result.AlreadyLiked {
		return c.JSON(fiber.Map{"detail": "Post already liked.", "liked": false, "already_liked": true})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"detail": "Post liked.", "liked": true, "already_liked": false})
}

// UnlikePost handles DELETE /api/posts/unlike/:postId
// @Summary Remove a like
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Param postId path int true "Post ID"
// @Success 200 {object} object{detail=string,unliked=bool}
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/unlike/{postId} [delete]
func (s *Server) UnlikePost(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	postID, err := parseID(c, "postId")
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	removed, err := s.postService.Unlike(c.UserContext(), userID, postID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	msg := "Post unliked."
	if !removed {
		msg = "Post was not liked."
	}
	return c.JSON(fiber.Map{"detail": msg, "unliked": removed})
}

// GetFeed handles GET /api/posts/feed. Without a page parameter the feed is
// keyset paginated through the opaque cursor; with one it uses the page
// envelope.
// @Summary Posts by followed users, newest first
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Param cursor query string false "Cursor from a previous response"
// @Param limit query int false "Page size in cursor mode"
// @Param page query int false "Page number (offset mode)"
// @Param page_size query int false "Page size (offset mode)"
// @Success 200 {object} models.CursorPage[models.PostView]
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /posts/feed [get]
func (s *Server) GetFeed(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	ctx := c.UserContext()

	if c.Query("page") != "" {
		page, err := s.parsePage(c)
		if err != nil {
			return models.RespondWithAppError(c, err)
		}
		posts, total, err := s.feedService.GetFeedPage(ctx, userID, page.Limit(), page.Offset())
		if err != nil {
			return models.RespondWithAppError(c, err)
		}
		return respondPage(c, page, total, posts, models.ViewOfPost)
	}

	page, err := s.parsePage(c)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	limit := page.Size
	if n := c.QueryInt("limit", 0); n > 0 {
		limit = min(n, s.config.MaxPageSize)
	}

	feed, err := s.feedService.GetFeed(ctx, userID, c.Query("cursor"), limit)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	resp := models.CursorPage[*models.PostView]{
		Count:   len(feed.Posts),
		Results: models.ViewsOfPosts(feed.Posts),
	}
	if feed.NextCursor != "" {
		resp.NextCursor = &feed.NextCursor
	}
	return c.JSON(resp)
}
