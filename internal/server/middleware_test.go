package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"socialnet/internal/config"
	"socialnet/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testOrigin = "http://localhost:5173"

func bareMiddlewareApp(t *testing.T, method string) *fiber.App {
	t.Helper()
	srv := &Server{config: &config.Config{AllowedOrigins: testOrigin}}

	app := fiber.New(fiber.Config{ErrorHandler: errorHandler})
	srv.SetupMiddleware(app)
	app.Add(method, "/limited", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	return app
}

func hit(t *testing.T, app *fiber.App, method string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(method, "/limited", nil)
	req.Header.Set("Origin", testOrigin)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func TestGlobalLimiter_KeepsCORSAndErrorShape(t *testing.T) {
	app := bareMiddlewareApp(t, http.MethodGet)

	for i := 0; i < 100; i++ {
		resp := hit(t, app, http.MethodGet)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		_ = resp.Body.Close()
	}

	resp := hit(t, app, http.MethodGet)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, testOrigin, resp.Header.Get("Access-Control-Allow-Origin"))

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var body models.ErrorResponse
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, models.CodeRateLimited, body.Code)
	assert.NotEmpty(t, body.Detail)
}

func TestGlobalLimiter_PreflightBypasses(t *testing.T) {
	app := bareMiddlewareApp(t, http.MethodPost)

	for i := 0; i < 101; i++ {
		resp := hit(t, app, http.MethodPost)
		_ = resp.Body.Close()
	}
	limited := hit(t, app, http.MethodPost)
	assert.Equal(t, fiber.StatusTooManyRequests, limited.StatusCode)
	_ = limited.Body.Close()

	req := httptest.NewRequest(http.MethodOptions, "/limited", nil)
	req.Header.Set("Origin", testOrigin)
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "authorization,content-type")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	assert.Equal(t, testOrigin, resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Contains(t, resp.Header.Get("Access-Control-Allow-Methods"), http.MethodPost)
}

func TestSecurityHeadersAndRequestID(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.NotEmpty(t, resp.Header.Get("X-Frame-Options"))
	assert.NotEmpty(t, resp.Header.Get(fiber.HeaderXRequestID))
}

func TestReadiness_ReportsDependencies(t *testing.T) {
	env := newTestEnv(t)

	status, _ := env.do(http.MethodGet, "/health/ready", nil, "")
	assert.Equal(t, http.StatusOK, status)

	env.mr.SetError("LOADING")
	status, _ = env.do(http.MethodGet, "/health/ready", nil, "")
	assert.Equal(t, http.StatusServiceUnavailable, status)
	env.mr.SetError("")
}

func TestUnknownRoute_UsesErrorShape(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.errorBody(http.MethodGet, "/api/nowhere", nil, "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, models.CodeNotFound, body.Code)
	assert.NotEmpty(t, body.Detail)
}

func TestWebsocket_Auth(t *testing.T) {
	env := newTestEnv(t)

	status, _ := env.do(http.MethodGet, "/api/ws", nil, "")
	assert.Equal(t, http.StatusUnauthorized, status)

	_, tok := env.user("alice")
	status, _ = env.do(http.MethodGet, "/api/ws?token="+tok, nil, "")
	assert.Equal(t, http.StatusUpgradeRequired, status)
}
