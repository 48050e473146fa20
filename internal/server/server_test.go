package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"socialnet/internal/config"
	"socialnet/internal/models"
	"socialnet/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const testSecret = "test-secret-key-12345678901234567890123456789012"

type testEnv struct {
	t   *testing.T
	db  *gorm.DB
	mr  *miniredis.Miniredis
	srv *Server
	app *fiber.App
}

func testConfig() *config.Config {
	return &config.Config{
		Env:                      "test",
		Port:                     "0",
		AllowedOrigins:           "http://localhost:5173",
		JWTSecret:                testSecret,
		JWTIssuer:                "socialnet-api",
		JWTAudience:              "socialnet-client",
		AccessTokenTTLMinutes:    15,
		RefreshTokenTTLHours:     1,
		RequestTimeoutSeconds:    10,
		MessageRateLimit:         5,
		MessageRateWindowMinutes: 30,
		DefaultPageSize:          10,
		MaxPageSize:              50,
	}
}

// newTestEnv wires a full app over in-memory sqlite and miniredis.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	mr, rdb := testutil.StartMiniredis(t)

	srv, err := NewServerWithDeps(testConfig(), db, rdb)
	require.NoError(t, err)
	srv.userService.WithBcryptCost(bcrypt.MinCost)

	return &testEnv{t: t, db: db, mr: mr, srv: srv, app: srv.NewApp()}
}

func (e *testEnv) token(u *models.User) string {
	e.t.Helper()
	tok, err := e.srv.generateToken(u.ID, u.Username)
	require.NoError(e.t, err)
	return tok
}

// do sends a JSON request and returns the status and raw body.
func (e *testEnv) do(method, path string, body any, token string) (int, []byte) {
	e.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(e.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.app.Test(req, -1)
	require.NoError(e.t, err)
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(e.t, err)
	return resp.StatusCode, raw
}

// doJSON is do with the body decoded into out.
func (e *testEnv) doJSON(method, path string, body any, token string, out any) int {
	e.t.Helper()
	status, raw := e.do(method, path, body, token)
	if out != nil && len(raw) > 0 {
		require.NoError(e.t, json.Unmarshal(raw, out), string(raw))
	}
	return status
}

func (e *testEnv) errorBody(method, path string, body any, token string) (int, models.ErrorResponse) {
	e.t.Helper()
	var out models.ErrorResponse
	status := e.doJSON(method, path, body, token, &out)
	return status, out
}

func (e *testEnv) user(username string) (*models.User, string) {
	e.t.Helper()
	u := testutil.CreateUser(e.t, e.db, username)
	return u, e.token(u)
}
