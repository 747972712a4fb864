package server

import (
	"net/http"
	"testing"

	"chirp/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sessionCookieFrom(resp *http.Response) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == sessionCookieName {
			return c
		}
	}
	return nil
}

func TestSignup(t *testing.T) {
	ts := newTestServer(t)

	t.Run("valid signup", func(t *testing.T) {
		resp := ts.request(t, "POST", "/api/auth/signup", map[string]string{
			"full_name": "Alice Smith",
			"username":  "alice",
			"email":     "alice@example.com",
			"password":  testPassword,
		}, nil)
		require.Equal(t, fiber.StatusCreated, resp.StatusCode)

		body := decodeJSON[map[string]any](t, resp)
		assert.Equal(t, "alice", body["username"])
		assert.NotContains(t, body, "password")

		cookie := sessionCookieFrom(resp)
		require.NotNil(t, cookie)
		assert.NotEmpty(t, cookie.Value)
		assert.True(t, cookie.HttpOnly)
	})

	t.Run("duplicate username", func(t *testing.T) {
		resp := ts.request(t, "POST", "/api/auth/signup", map[string]string{
			"username": "alice",
			"email":    "alice2@example.com",
			"password": testPassword,
		}, nil)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})

	t.Run("duplicate email", func(t *testing.T) {
		resp := ts.request(t, "POST", "/api/auth/signup", map[string]string{
			"username": "alice2",
			"email":    "alice@example.com",
			"password": testPassword,
		}, nil)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})

	tests := []struct {
		name string
		body map[string]string
	}{
		{"short password", map[string]string{
			"username": "bob", "email": "bob@example.com", "password": "short",
		}},
		{"invalid email", map[string]string{
			"username": "bob", "email": "not-an-email", "password": testPassword,
		}},
		{"invalid username", map[string]string{
			"username": "b!", "email": "bob@example.com", "password": testPassword,
		}},
		{"missing everything", map[string]string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.request(t, "POST", "/api/auth/signup", tt.body, nil)
			assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestLogin(t *testing.T) {
	ts := newTestServer(t)
	ts.createUser(t, "alice")

	t.Run("valid credentials", func(t *testing.T) {
		resp := ts.request(t, "POST", "/api/auth/login", map[string]string{
			"username": "alice",
			"password": testPassword,
		}, nil)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)

		body := decodeJSON[map[string]any](t, resp)
		assert.Equal(t, "alice", body["username"])
		assert.NotContains(t, body, "password")
		require.NotNil(t, sessionCookieFrom(resp))
	})

	t.Run("wrong password", func(t *testing.T) {
		resp := ts.request(t, "POST", "/api/auth/login", map[string]string{
			"username": "alice",
			"password": "wrong-password",
		}, nil)
		require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

		body := decodeJSON[models.ErrorResponse](t, resp)
		assert.Equal(t, "Invalid username or password", body.Error)
	})

	t.Run("unknown username gets the same response", func(t *testing.T) {
		resp := ts.request(t, "POST", "/api/auth/login", map[string]string{
			"username": "nobody",
			"password": testPassword,
		}, nil)
		require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

		body := decodeJSON[models.ErrorResponse](t, resp)
		assert.Equal(t, "Invalid username or password", body.Error)
	})
}

func TestLogout(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.request(t, "POST", "/api/auth/logout", nil, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	cookie := sessionCookieFrom(resp)
	require.NotNil(t, cookie)
	assert.Empty(t, cookie.Value)
	assert.Less(t, cookie.MaxAge, 0)
}

func TestMe(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.createUser(t, "alice")

	t.Run("authenticated", func(t *testing.T) {
		resp := ts.request(t, "GET", "/api/auth/me", nil, ts.sessionCookie(t, alice.ID))
		require.Equal(t, fiber.StatusOK, resp.StatusCode)

		body := decodeJSON[map[string]any](t, resp)
		assert.Equal(t, "alice", body["username"])
	})

	t.Run("no cookie", func(t *testing.T) {
		resp := ts.request(t, "GET", "/api/auth/me", nil, nil)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("garbage token", func(t *testing.T) {
		resp := ts.request(t, "GET", "/api/auth/me", nil,
			&http.Cookie{Name: sessionCookieName, Value: "not-a-token"})
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("token for deleted user", func(t *testing.T) {
		resp := ts.request(t, "GET", "/api/auth/me", nil, ts.sessionCookie(t, 9999))
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	})
}
