package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"chirp/internal/database"
	"chirp/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB creates an in-memory SQLite database for testing
func setupTestDB(t *testing.T) *gorm.DB {
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
	return db
}

func createTestUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	user := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: "hashed-password",
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func TestUserRepository_CreateDuplicate(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	first := &models.User{Username: "alice", Email: "alice@example.com", Password: "x"}
	require.NoError(t, repo.Create(ctx, first))

	dupUsername := &models.User{Username: "alice", Email: "other@example.com", Password: "x"}
	err := repo.Create(ctx, dupUsername)
	require.Error(t, err)
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "VALIDATION_ERROR", appErr.Code)

	dupEmail := &models.User{Username: "alice2", Email: "alice@example.com", Password: "x"}
	err = repo.Create(ctx, dupEmail)
	require.Error(t, err)
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
}

func TestUserRepository_GetByUsernameMissing(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)

	user, err := repo.GetByUsername(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestUserRepository_GetByIDNotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)

	_, err := repo.GetByID(context.Background(), 404)
	require.Error(t, err)
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "NOT_FOUND", appErr.Code)
}

func TestUserRepository_FollowToggleRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")

	// First toggle follows and notifies bob.
	following, err := repo.FollowToggle(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, following)

	ids, err := repo.ListFollowingIDs(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{bob.ID}, ids)

	var notifications []models.Notification
	require.NoError(t, db.Find(&notifications).Error)
	require.Len(t, notifications, 1)
	assert.Equal(t, alice.ID, notifications[0].ActorID)
	assert.Equal(t, bob.ID, notifications[0].RecipientID)
	assert.Equal(t, models.NotificationFollow, notifications[0].Type)

	// Second toggle unfollows; the state is back where it started.
	following, err = repo.FollowToggle(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, following)

	ids, err = repo.ListFollowingIDs(ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestUserRepository_FollowToggleSelf(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)

	alice := createTestUser(t, db, "alice")

	_, err := repo.FollowToggle(context.Background(), alice.ID, alice.ID)
	require.Error(t, err)
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
}

func TestUserRepository_RelationshipSets(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	carol := createTestUser(t, db, "carol")

	_, err := repo.FollowToggle(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	_, err = repo.FollowToggle(ctx, carol.ID, alice.ID)
	require.NoError(t, err)
	_, err = repo.FollowToggle(ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	got, err := repo.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{bob.ID, carol.ID}, got.FollowerIDs)
	assert.Equal(t, []uint{bob.ID}, got.FollowingIDs)
	assert.Empty(t, got.LikedPostIDs)
}

func TestUserRepository_SuggestRandom(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	me := createTestUser(t, db, "me")
	for i := 0; i < 15; i++ {
		createTestUser(t, db, fmt.Sprintf("user%02d", i))
	}

	users, err := repo.SuggestRandom(ctx, me.ID, 10)
	require.NoError(t, err)
	assert.Len(t, users, 10)
	for _, u := range users {
		assert.NotEqual(t, me.ID, u.ID)
	}
}

func createTestPost(t *testing.T, db *gorm.DB, userID uint, text string, createdAt time.Time) *models.Post {
	t.Helper()
	post := &models.Post{UserID: userID, Text: text, CreatedAt: createdAt}
	require.NoError(t, db.Create(post).Error)
	return post
}

func TestPostRepository_LikeToggleInvolution(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	post := createTestPost(t, db, alice.ID, "hello", time.Now())

	liked, likerIDs, err := repo.LikeToggle(ctx, bob.ID, post.ID)
	require.NoError(t, err)
	assert.True(t, liked)
	assert.Equal(t, []uint{bob.ID}, likerIDs)

	// Liking someone else's post notifies the owner.
	var notifications []models.Notification
	require.NoError(t, db.Find(&notifications).Error)
	require.Len(t, notifications, 1)
	assert.Equal(t, models.NotificationLike, notifications[0].Type)
	assert.Equal(t, alice.ID, notifications[0].RecipientID)

	// Toggling again removes the like.
	liked, likerIDs, err = repo.LikeToggle(ctx, bob.ID, post.ID)
	require.NoError(t, err)
	assert.False(t, liked)
	assert.Empty(t, likerIDs)
}

func TestPostRepository_LikeOwnPostNoNotification(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice")
	post := createTestPost(t, db, alice.ID, "self like", time.Now())

	liked, _, err := repo.LikeToggle(ctx, alice.ID, post.ID)
	require.NoError(t, err)
	assert.True(t, liked)

	var count int64
	require.NoError(t, db.Model(&models.Notification{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestPostRepository_LikeMissingPost(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostRepository(db)

	alice := createTestUser(t, db, "alice")

	_, _, err := repo.LikeToggle(context.Background(), alice.ID, 404)
	require.Error(t, err)
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "NOT_FOUND", appErr.Code)
}

func TestPostRepository_LikerOrderingNewestFirst(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	carol := createTestUser(t, db, "carol")
	post := createTestPost(t, db, alice.ID, "ordering", time.Now())

	base := time.Now().Add(-time.Hour)
	require.NoError(t, db.Create(&models.Like{UserID: bob.ID, PostID: post.ID, CreatedAt: base}).Error)
	require.NoError(t, db.Create(&models.Like{UserID: carol.ID, PostID: post.ID, CreatedAt: base.Add(time.Minute)}).Error)

	got, err := repo.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{carol.ID, bob.ID}, got.LikerIDs)
}

func TestPostRepository_FeedsNewestFirst(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")

	base := time.Now().Add(-24 * time.Hour)
	oldest := createTestPost(t, db, alice.ID, "oldest", base)
	middle := createTestPost(t, db, bob.ID, "middle", base.Add(time.Hour))
	newest := createTestPost(t, db, alice.ID, "newest", base.Add(2*time.Hour))

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, newest.ID, all[0].ID)
	assert.Equal(t, middle.ID, all[1].ID)
	assert.Equal(t, oldest.ID, all[2].ID)

	byAlice, err := repo.ListByUserID(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, byAlice, 2)
	assert.Equal(t, newest.ID, byAlice[0].ID)
	assert.Equal(t, oldest.ID, byAlice[1].ID)

	byAuthors, err := repo.ListByAuthors(ctx, []uint{bob.ID})
	require.NoError(t, err)
	require.Len(t, byAuthors, 1)
	assert.Equal(t, middle.ID, byAuthors[0].ID)

	// Empty author set means an empty feed, not an error.
	empty, err := repo.ListByAuthors(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestPostRepository_ListLikedBy(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")

	base := time.Now().Add(-time.Hour)
	first := createTestPost(t, db, alice.ID, "first", base)
	second := createTestPost(t, db, alice.ID, "second", base.Add(time.Minute))
	createTestPost(t, db, alice.ID, "unliked", base.Add(2*time.Minute))

	_, _, err := repo.LikeToggle(ctx, bob.ID, first.ID)
	require.NoError(t, err)
	_, _, err = repo.LikeToggle(ctx, bob.ID, second.ID)
	require.NoError(t, err)

	liked, err := repo.ListLikedBy(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, liked, 2)
	assert.Equal(t, second.ID, liked[0].ID)
	assert.Equal(t, first.ID, liked[1].ID)

	none, err := repo.ListLikedBy(ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestPostRepository_DeleteCascades(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	post := createTestPost(t, db, alice.ID, "to delete", time.Now())

	require.NoError(t, repo.AddComment(ctx, &models.Comment{PostID: post.ID, UserID: bob.ID, Text: "nice"}))
	_, _, err := repo.LikeToggle(ctx, bob.ID, post.ID)
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, post.ID))

	var comments, likes int64
	require.NoError(t, db.Model(&models.Comment{}).Count(&comments).Error)
	require.NoError(t, db.Model(&models.Like{}).Count(&likes).Error)
	assert.Zero(t, comments)
	assert.Zero(t, likes)

	_, err = repo.GetByID(ctx, post.ID)
	require.Error(t, err)
}

func TestNotificationRepository_ListAndMarkRead(t *testing.T) {
	db := setupTestDB(t)
	repo := NewNotificationRepository(db)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")

	base := time.Now().Add(-time.Hour)
	require.NoError(t, db.Create(&models.Notification{
		ActorID: bob.ID, RecipientID: alice.ID, Type: models.NotificationFollow, CreatedAt: base,
	}).Error)
	require.NoError(t, db.Create(&models.Notification{
		ActorID: bob.ID, RecipientID: alice.ID, Type: models.NotificationLike, CreatedAt: base.Add(time.Minute),
	}).Error)

	got, err := repo.ListAndMarkRead(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	// Newest first, actor preloaded, returned with pre-read state.
	assert.Equal(t, models.NotificationLike, got[0].Type)
	assert.Equal(t, "bob", got[0].Actor.Username)
	assert.False(t, got[0].Read)

	again, err := repo.ListAndMarkRead(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, again, 2)
	assert.True(t, again[0].Read)
	assert.True(t, again[1].Read)
}

func TestNotificationRepository_CreateSuppressesSelf(t *testing.T) {
	db := setupTestDB(t)
	repo := NewNotificationRepository(db)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice")

	require.NoError(t, repo.Create(ctx, &models.Notification{
		ActorID: alice.ID, RecipientID: alice.ID, Type: models.NotificationLike,
	}))

	var count int64
	require.NoError(t, db.Model(&models.Notification{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestNotificationRepository_DeleteAllForRecipient(t *testing.T) {
	db := setupTestDB(t)
	repo := NewNotificationRepository(db)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")

	require.NoError(t, repo.Create(ctx, &models.Notification{
		ActorID: bob.ID, RecipientID: alice.ID, Type: models.NotificationFollow,
	}))
	require.NoError(t, repo.Create(ctx, &models.Notification{
		ActorID: alice.ID, RecipientID: bob.ID, Type: models.NotificationFollow,
	}))

	require.NoError(t, repo.DeleteAllForRecipient(ctx, alice.ID))

	remaining, err := repo.ListAndMarkRead(ctx, bob.ID)
	require.NoError(t, err)
	assert.Len(t, remaining, 1)

	cleared, err := repo.ListAndMarkRead(ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, cleared)
}
