// Package middleware provides authentication and authorization middleware for the application.
package middleware

import (
	"context"
	"strconv"
	"strings"
	"time"

	"socialnet/internal/cache"
	"socialnet/internal/config"
	"socialnet/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

var cfg *config.Config

// InitMiddleware initializes authentication middleware with the given config.
func InitMiddleware(c *config.Config) {
	cfg = c
}

// AccessClaims is the parsed subset of an access token the API relies on.
type AccessClaims struct {
	UserID    uint
	JTI       string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// ParseAccessToken validates signature, issuer, audience and expiry and checks
// the jti against the revocation list.
func ParseAccessToken(ctx context.Context, tokenString string) (*AccessClaims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if cfg.JWTIssuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.JWTIssuer))
	}
	if cfg.JWTAudience != "" {
		opts = append(opts, jwt.WithAudience(cfg.JWTAudience))
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return []byte(cfg.JWTSecret), nil
	}, opts...)
	if err != nil || !token.Valid {
		return nil, models.NewUnauthorizedError("Invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, models.NewUnauthorizedError("Invalid token claims")
	}

	// Extract user ID from "sub" claim (subject claim per RFC 7519)
	subStr, err := claims.GetSubject()
	if err != nil || subStr == "" {
		return nil, models.NewUnauthorizedError("Invalid token structure - missing subject")
	}
	userIDVal, err := strconv.ParseUint(subStr, 10, 32)
	if err != nil || userIDVal == 0 {
		return nil, models.NewUnauthorizedError("Invalid user ID in token")
	}

	out := &AccessClaims{UserID: uint(userIDVal)}
	if jti, ok := claims["jti"].(string); ok {
		out.JTI = jti
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		out.ExpiresAt = exp.Time
	}
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		out.IssuedAt = iat.Time
	}

	revoked, err := cache.IsTokenBlacklisted(ctx, out.JTI)
	if err != nil {
		Logger.WarnContext(ctx, "token blacklist lookup failed", "error", err)
	}
	if revoked {
		return nil, models.NewUnauthorizedError("Token has been revoked")
	}

	// Deleting an account revokes every token issued to it so far.
	revokedAt, err := cache.UserRevokedAt(ctx, out.UserID)
	if err != nil {
		Logger.WarnContext(ctx, "session revocation lookup failed", "error", err)
	}
	if !revokedAt.IsZero() && !out.IssuedAt.After(revokedAt) {
		return nil, models.NewUnauthorizedError("Token has been revoked")
	}
	return out, nil
}

func bearerToken(c *fiber.Ctx) (string, error) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return "", models.ErrAuthRequired
	}
	// Extract token from "Bearer <token>"
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", models.NewUnauthorizedError("Invalid authorization header format")
	}
	return parts[1], nil
}

func storeClaims(c *fiber.Ctx, claims *AccessClaims) {
	c.Locals("userID", claims.UserID)
	c.Locals("jti", claims.JTI)
	c.Locals("tokenExp", claims.ExpiresAt)
	c.SetUserContext(context.WithValue(c.UserContext(), UserIDKey, claims.UserID))
}

// AuthRequired is a middleware that enforces authentication for protected routes.
func AuthRequired(c *fiber.Ctx) error {
	tokenString, err := bearerToken(c)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusUnauthorized, err)
	}

	claims, err := ParseAccessToken(c.UserContext(), tokenString)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusUnauthorized, err)
	}

	storeClaims(c, claims)
	return c.Next()
}

// OptionalAuth resolves the principal when a valid token is present and
// otherwise continues anonymously.
func OptionalAuth(c *fiber.Ctx) error {
	tokenString, err := bearerToken(c)
	if err != nil {
		return c.Next()
	}
	if claims, err := ParseAccessToken(c.UserContext(), tokenString); err == nil {
		storeClaims(c, claims)
	}
	return c.Next()
}

// WebSocketAuthRequired is middleware that validates JWT tokens from query parameters for WebSocket connections.
func WebSocketAuthRequired(c *fiber.Ctx) error {
	// Try to get token from query parameter first (for WebSocket)
	token := c.Query("token")
	if token == "" {
		var err error
		if token, err = bearerToken(c); err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized, err)
		}
	}

	claims, err := ParseAccessToken(c.UserContext(), token)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusUnauthorized, err)
	}

	storeClaims(c, claims)
	return c.Next()
}
