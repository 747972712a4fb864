package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"chirp/internal/cache"
	"chirp/internal/config"
	"chirp/internal/database"
	"chirp/internal/models"
	"chirp/internal/repository"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testPassword = "password123"

// mockMediaStore is a testify mock for the media store.
type mockMediaStore struct {
	mock.Mock
}

func (m *mockMediaStore) Upload(ctx context.Context, image string) (string, error) {
	args := m.Called(ctx, image)
	return args.String(0), args.Error(1)
}

func (m *mockMediaStore) Destroy(ctx context.Context, imageURL string) error {
	args := m.Called(ctx, imageURL)
	return args.Error(0)
}

// testServer bundles the server under test with its backing fakes.
type testServer struct {
	srv   *Server
	app   *fiber.App
	db    *gorm.DB
	media *mockMediaStore
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})

	cache.SetClient(nil)

	cfg := &config.Config{
		JWTSecret: "test-secret-key",
		Port:      "5000",
		Env:       "development",
	}

	mediaStore := &mockMediaStore{}
	srv := NewServerWithDeps(
		cfg,
		db,
		nil,
		mediaStore,
		repository.NewUserRepository(db),
		repository.NewPostRepository(db),
		repository.NewNotificationRepository(db),
	)

	return &testServer{
		srv:   srv,
		app:   srv.NewApp(),
		db:    db,
		media: mediaStore,
	}
}

// createUser persists a user with the shared test password.
func (ts *testServer) createUser(t *testing.T, username string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)

	user := &models.User{
		Username: username,
		Email:    username + "@example.com",
		FullName: "Test " + username,
		Password: string(hash),
	}
	require.NoError(t, ts.db.Create(user).Error)
	return user
}

// sessionCookie issues a valid session cookie for the given user.
func (ts *testServer) sessionCookie(t *testing.T, userID uint) *http.Cookie {
	t.Helper()
	token, err := ts.srv.generateToken(userID)
	require.NoError(t, err)
	return &http.Cookie{Name: sessionCookieName, Value: token}
}

// request performs an app.Test round trip with an optional JSON body and cookie.
func (ts *testServer) request(t *testing.T, method, path string, body any, cookie *http.Cookie) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}

	resp, err := ts.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeJSON[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}
