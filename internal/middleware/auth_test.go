package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"socialnet/internal/cache"
	"socialnet/internal/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-12345678901234567890123456789012"

func initTestAuth(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	cache.SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() {
		_ = cache.Close()
		mr.Close()
	})
	InitMiddleware(&config.Config{JWTSecret: testSecret, JWTIssuer: "socialnet-api", JWTAudience: "socialnet-client"})
	return mr
}

func signToken(t *testing.T, userID uint, exp time.Duration, mutate func(jwt.MapClaims)) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub": strconv.FormatUint(uint64(userID), 10),
		"iss": "socialnet-api",
		"aud": "socialnet-client",
		"exp": time.Now().Add(exp).Unix(),
		"jti": "jti-" + strconv.FormatUint(uint64(userID), 10),
	}
	if mutate != nil {
		mutate(claims)
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return s
}

func TestAuthRequired(t *testing.T) {
	mr := initTestAuth(t)
	app := fiber.New()
	app.Get("/test", AuthRequired, func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"userID": c.Locals("userID")})
	})

	mr.Set("blacklist:jti-9", "1")

	tests := []struct {
		name           string
		authHeader     string
		expectedStatus int
		expectedUserID uint
	}{
		{"Happy Path", "Bearer " + signToken(t, 123, time.Hour, nil), http.StatusOK, 123},
		{"Missing Header", "", http.StatusUnauthorized, 0},
		{"Invalid Format", "Basic dXNlcjpwYXNz", http.StatusUnauthorized, 0},
		{"Malformed Token", "Bearer malformed.token.here", http.StatusUnauthorized, 0},
		{"Expired Token", "Bearer " + signToken(t, 123, -time.Hour, nil), http.StatusUnauthorized, 0},
		{"Wrong Audience", "Bearer " + signToken(t, 123, time.Hour, func(c jwt.MapClaims) { c["aud"] = "other" }), http.StatusUnauthorized, 0},
		{"Wrong Issuer", "Bearer " + signToken(t, 123, time.Hour, func(c jwt.MapClaims) { c["iss"] = "other" }), http.StatusUnauthorized, 0},
		{"Revoked Token", "Bearer " + signToken(t, 9, time.Hour, nil), http.StatusUnauthorized, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}

			resp, err := app.Test(req)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			var body map[string]interface{}
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			if tt.expectedStatus == http.StatusOK {
				assert.Equal(t, float64(tt.expectedUserID), body["userID"])
			} else {
				assert.Equal(t, "UNAUTHORIZED", body["code"])
				assert.NotEmpty(t, body["detail"])
			}
		})
	}
}

func TestOptionalAuth(t *testing.T) {
	initTestAuth(t)
	app := fiber.New()
	app.Get("/test", OptionalAuth, func(c *fiber.Ctx) error {
		uid, _ := c.Locals("userID").(uint)
		return c.JSON(fiber.Map{"userID": uid})
	})

	for name, header := range map[string]string{
		"anonymous": "",
		"garbage":   "Bearer nope",
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, http.StatusOK, resp.StatusCode)
		})
	}
}

func TestWebSocketAuthRequired(t *testing.T) {
	initTestAuth(t)
	app := fiber.New()
	app.Get("/ws-test", WebSocketAuthRequired, func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	tests := []struct {
		name           string
		tokenParam     string
		authHeader     string
		expectedStatus int
	}{
		{name: "Token via Query Param", tokenParam: signToken(t, 1, time.Hour, nil), expectedStatus: http.StatusOK},
		{name: "Token via Header", authHeader: "Bearer " + signToken(t, 1, time.Hour, nil), expectedStatus: http.StatusOK},
		{name: "Missing Token", expectedStatus: http.StatusUnauthorized},
		{name: "Invalid Token", tokenParam: "invalid-token", expectedStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := "/ws-test"
			if tt.tokenParam != "" {
				path += "?token=" + tt.tokenParam
			}
			req := httptest.NewRequest(http.MethodGet, path, nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}

			resp, err := app.Test(req)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
		})
	}
}

func TestParseAccessToken_Claims(t *testing.T) {
	initTestAuth(t)
	claims, err := ParseAccessToken(context.Background(), signToken(t, 5, time.Hour, nil))
	require.NoError(t, err)
	assert.Equal(t, uint(5), claims.UserID)
	assert.Equal(t, "jti-5", claims.JTI)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt, 5*time.Second)
}
