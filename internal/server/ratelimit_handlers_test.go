package server

import (
	"net/http"
	"testing"

	"roommatch/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginRateLimit_FollowsConfiguredEnv(t *testing.T) {
	// A stray process env must not switch the limits off for a production config.
	t.Setenv("APP_ENV", "test")

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := testConfig(t)
	cfg.Env = "production"
	s, err := NewServerWithDeps(cfg, testutil.NewTestDB(t), rdb)
	require.NoError(t, err)
	t.Cleanup(s.shutdownFn)
	app := s.App()

	body := fiber.Map{"email": "nobody@example.com", "password": "wrong-password"}
	for i := 0; i < 10; i++ {
		status, _ := doRequest(t, app, http.MethodPost, "/api/auth/login", "", body)
		require.Equal(t, http.StatusUnauthorized, status, "attempt %d", i+1)
	}

	status, resp := doRequest(t, app, http.MethodPost, "/api/auth/login", "", body)
	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.Equal(t, "Too many requests, please try again later", resp.Error)
}

func TestLoginRateLimit_BypassedInTest(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	app := newTestServer(t, rdb).App()

	body := fiber.Map{"email": "nobody@example.com", "password": "wrong-password"}
	for i := 0; i < 12; i++ {
		status, _ := doRequest(t, app, http.MethodPost, "/api/auth/login", "", body)
		require.Equal(t, http.StatusUnauthorized, status, "attempt %d", i+1)
	}
}
