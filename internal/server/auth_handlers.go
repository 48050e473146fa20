package server

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"socialnet/internal/cache"
	"socialnet/internal/models"
	"socialnet/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AuthResponse is returned by register, login and refresh.
type AuthResponse struct {
	User    *models.UserSummary `json:"user"`
	Access  string              `json:"access"`
	Refresh string              `json:"refresh"`
}

var errInvalidRefresh = models.NewUnauthorizedError("Invalid or expired refresh token")

// Register handles POST /api/users/register
// @Summary Register a new account
// @Tags users
// @Accept json
// @Produce json
// @Param request body object{username=string,email=string,password=string} true "Registration"
// @Success 201 {object} AuthResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /users/register [post]
func (s *Server) Register(c *fiber.Ctx) error {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.userService.Register(c.UserContext(), service.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	resp, err := s.issueTokens(c, user)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// Login handles POST /api/users/login
// @Summary Log in with username or email
// @Tags users
// @Accept json
// @Produce json
// @Param request body object{username=string,password=string} true "Credentials"
// @Success 200 {object} AuthResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /users/login [post]
func (s *Server) Login(c *fiber.Ctx) error {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	login := req.Username
	if strings.TrimSpace(login) == "" {
		login = req.Email
	}

	user, err := s.userService.Authenticate(c.UserContext(), login, req.Password)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	resp, err := s.issueTokens(c, user)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(resp)
}

// Refresh handles POST /api/users/token/refresh. The presented refresh token
// is consumed and a new pair is issued; replaying it fails.
// @Summary Rotate a refresh token
// @Tags users
// @Accept json
// @Produce json
// @Param request body object{refresh=string} true "Refresh token"
// @Success 200 {object} AuthResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /users/token/refresh [post]
func (s *Server) Refresh(c *fiber.Ctx) error {
	var req struct {
		Refresh string `json:"refresh"`
	}
	if err := c.BodyParser(&req); err != nil || req.Refresh == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Refresh token is required"))
	}

	ctx := c.UserContext()
	userID, err := cache.ConsumeRefreshToken(ctx, req.Refresh)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusServiceUnavailable, err)
	}
	if userID == 0 {
		return models.RespondWithAppError(c, errInvalidRefresh)
	}

	user, err := s.userService.GetUserByID(ctx, userID)
	if err != nil {
		var appErr *models.AppError
		if errors.As(err, &appErr) && appErr.Code == models.CodeNotFound {
			return models.RespondWithAppError(c, errInvalidRefresh)
		}
		return models.RespondWithAppError(c, err)
	}

	resp, err := s.issueTokens(c, user)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(resp)
}

// Logout handles POST /api/users/logout. The refresh token in the body is
// revoked and the access token used for the call stops working.
// @Summary Log out
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{refresh=string} false "Refresh token"
// @Success 200 {object} object{detail=string}
// @Failure 401 {object} models.ErrorResponse
// @Router /users/logout [post]
func (s *Server) Logout(c *fiber.Ctx) error {
	var req struct {
		Refresh string `json:"refresh"`
	}
	_ = c.BodyParser(&req)

	ctx := c.UserContext()
	if req.Refresh != "" {
		if err := cache.RevokeRefreshToken(ctx, req.Refresh); err != nil {
			slog.WarnContext(ctx, "refresh token revoke failed", "error", err)
		}
	}

	jti, _ := c.Locals("jti").(string)
	exp, _ := c.Locals("tokenExp").(time.Time)
	if jti != "" {
		if err := cache.BlacklistToken(ctx, jti, time.Until(exp)); err != nil {
			slog.WarnContext(ctx, "access token blacklist failed", "error", err)
		}
	}

	return detail(c, fiber.StatusOK, "Successfully logged out.")
}

// issueTokens mints an access token and stores a fresh refresh token.
func (s *Server) issueTokens(c *fiber.Ctx, user *models.User) (*AuthResponse, error) {
	access, err := s.generateToken(user.ID, user.Username)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	refresh := uuid.NewString()
	if err := cache.StoreRefreshToken(c.UserContext(), refresh, user.ID, s.config.RefreshTokenTTL()); err != nil {
		return nil, models.NewInternalError(fmt.Errorf("store refresh token: %w", err))
	}

	return &AuthResponse{User: models.SummaryOf(user), Access: access, Refresh: refresh}, nil
}

// generateToken creates a JWT access token for the given user ID and username
func (s *Server) generateToken(userID uint, username string) (string, error) {
	if s.config.JWTSecret == "" {
		return "", fmt.Errorf("JWT secret not configured")
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub":      strconv.FormatUint(uint64(userID), 10),
		"username": username,
		"iss":      s.config.JWTIssuer,
		"aud":      s.config.JWTAudience,
		"exp":      now.Add(s.config.AccessTokenTTL()).Unix(),
		"iat":      now.Unix(),
		"nbf":      now.Unix(),
		"jti":      s.generateJTI(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.JWTSecret))
}

// generateJTI creates a unique JWT ID so individual tokens can be revoked
func (s *Server) generateJTI() string {
	return fmt.Sprintf("%d-%s", time.Now().Unix(), uuid.New().String()[:8])
}
