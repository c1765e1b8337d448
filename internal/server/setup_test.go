package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"roommatch/internal/config"
	"roommatch/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testJWTSecret = "test-secret-with-at-least-32-characters"

// apiResponse mirrors models.Envelope with a raw payload for typed decoding.
type apiResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Code    string          `json:"code"`
}

func (r apiResponse) decode(t *testing.T, dst interface{}) {
	t.Helper()
	require.NotEmpty(t, r.Data, "response has no data")
	require.NoError(t, json.Unmarshal(r.Data, dst))
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Env:                  "test",
		Port:                 "0",
		JWTSecret:            testJWTSecret,
		JWTExpiresIn:         time.Hour,
		BcryptCost:           bcrypt.MinCost,
		AllowedOrigins:       "http://localhost:5173",
		UploadDir:            t.TempDir(),
		ImageMaxUploadSizeMB: 1,
	}
}

// newTestServer builds a sqlite-backed server. rdb may be nil.
func newTestServer(t *testing.T, rdb *redis.Client) *Server {
	t.Helper()
	db := testutil.NewTestDB(t)
	s, err := NewServerWithDeps(testConfig(t), db, rdb)
	require.NoError(t, err)
	t.Cleanup(s.shutdownFn)
	return s
}

func doRequest(t *testing.T, app *fiber.App, method, path, token string, body interface{}) (int, apiResponse) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return send(t, app, req)
}

func send(t *testing.T, app *fiber.App, req *http.Request) (int, apiResponse) {
	t.Helper()
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out apiResponse
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), "body: %s", raw)
	}
	return resp.StatusCode, out
}

type registered struct {
	ID    uint
	Token string
}

func registerUser(t *testing.T, app *fiber.App, email string) registered {
	t.Helper()
	status, resp := doRequest(t, app, http.MethodPost, "/api/auth/register", "", fiber.Map{
		"email":    email,
		"password": "secret123",
	})
	require.Equal(t, http.StatusCreated, status, resp.Error)

	var result struct {
		User struct {
			ID uint `json:"id"`
		} `json:"user"`
		Token string `json:"token"`
	}
	resp.decode(t, &result)
	require.NotZero(t, result.User.ID)
	require.NotEmpty(t, result.Token)
	return registered{ID: result.User.ID, Token: result.Token}
}

func createProfile(t *testing.T, app *fiber.App, user registered, name string) uint {
	t.Helper()
	status, resp := doRequest(t, app, http.MethodPost, "/api/profile", user.Token, fiber.Map{
		"name":     name,
		"age":      28,
		"location": "Austin, TX",
		"bio":      "Tidy and friendly",
	})
	require.Equal(t, http.StatusCreated, status, resp.Error)

	var profile struct {
		ID uint `json:"id"`
	}
	resp.decode(t, &profile)
	return profile.ID
}

// connectUsers creates and accepts a connection between a and b.
func connectUsers(t *testing.T, app *fiber.App, a, b registered) uint {
	t.Helper()
	status, resp := doRequest(t, app, http.MethodPost, "/api/connections/request", a.Token, fiber.Map{"receiverId": b.ID})
	require.Equal(t, http.StatusCreated, status, resp.Error)

	var conn struct {
		ID uint `json:"id"`
	}
	resp.decode(t, &conn)

	status, resp = doRequest(t, app, http.MethodPut, fmt.Sprintf("/api/connections/accept/%d", conn.ID), b.Token, nil)
	require.Equal(t, http.StatusOK, status, resp.Error)
	return conn.ID
}
