package server

import (
	"fmt"
	"testing"
	"time"

	"chirp/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetNotifications(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.createUser(t, "alice")
	bob := ts.createUser(t, "bob")
	aliceCookie := ts.sessionCookie(t, alice.ID)
	bobCookie := ts.sessionCookie(t, bob.ID)

	// bob follows alice, then likes her post
	resp := ts.request(t, "POST", fmt.Sprintf("/api/users/follow/%d", alice.ID), nil, bobCookie)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	post := ts.createPost(t, alice.ID, "likeable", "", time.Now())
	resp = ts.request(t, "POST", fmt.Sprintf("/api/posts/like/%d", post.ID), nil, bobCookie)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	t.Run("fetch returns actor details and marks read", func(t *testing.T) {
		resp := ts.request(t, "GET", "/api/notifications/", nil, aliceCookie)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)

		notifications := decodeJSON[[]map[string]any](t, resp)
		require.Len(t, notifications, 2)
		for _, n := range notifications {
			from, ok := n["from"].(map[string]any)
			require.True(t, ok)
			assert.Equal(t, "bob", from["username"])
			assert.NotContains(t, from, "password")
			assert.Equal(t, false, n["read"])
		}

		var unread int64
		require.NoError(t, ts.db.Model(&models.Notification{}).
			Where("recipient_id = ? AND read = ?", alice.ID, false).
			Count(&unread).Error)
		assert.Zero(t, unread)
	})

	t.Run("actor does not see their own actions", func(t *testing.T) {
		resp := ts.request(t, "GET", "/api/notifications/", nil, bobCookie)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)

		notifications := decodeJSON[[]map[string]any](t, resp)
		assert.Empty(t, notifications)
	})
}

func TestDeleteNotifications(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.createUser(t, "alice")
	bob := ts.createUser(t, "bob")
	aliceCookie := ts.sessionCookie(t, alice.ID)
	bobCookie := ts.sessionCookie(t, bob.ID)

	resp := ts.request(t, "POST", fmt.Sprintf("/api/users/follow/%d", alice.ID), nil, bobCookie)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = ts.request(t, "DELETE", "/api/notifications/", nil, aliceCookie)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var count int64
	require.NoError(t, ts.db.Model(&models.Notification{}).
		Where("recipient_id = ?", alice.ID).
		Count(&count).Error)
	assert.Zero(t, count)
}
