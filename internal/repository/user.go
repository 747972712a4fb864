// Package repository contains the data access layer.
package repository

import (
	"context"
	"errors"
	"strings"

	"chirp/internal/cache"
	"chirp/internal/models"

	"gorm.io/gorm"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	FollowToggle(ctx context.Context, followerID, followeeID uint) (bool, error)
	ListFollowingIDs(ctx context.Context, userID uint) ([]uint, error)
	SuggestRandom(ctx context.Context, excludeUserID uint, limit int) ([]models.User, error)
}

// userRepository implements UserRepository
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// isUniqueConstraintError detects duplicate-key failures across drivers.
func isUniqueConstraintError(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "UNIQUE constraint failed")
}

// cachedUser carries the password hash explicitly because the model's
// Password field is excluded from JSON and would be dropped by the cache.
type cachedUser struct {
	models.User
	PasswordHash string `json:"password_hash"`
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var rec cachedUser
	err := cache.Aside(ctx, cache.UserKey(id), &rec, cache.UserTTL, func() error {
		var user models.User
		if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("User", id)
			}
			return models.NewInternalError(err)
		}
		if err := r.loadRelationshipSets(ctx, &user); err != nil {
			return err
		}
		rec = cachedUser{User: user, PasswordHash: user.Password}
		return nil
	})
	if err != nil {
		return nil, err
	}
	user := rec.User
	user.Password = rec.PasswordHash
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil // Return nil for not found, not an error
		}
		return nil, models.NewInternalError(err)
	}
	if err := r.loadRelationshipSets(ctx, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	if err := r.loadRelationshipSets(ctx, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewValidationError("Username or email is already taken")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Save(user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewValidationError("Username or email is already taken")
		}
		return models.NewInternalError(err)
	}
	cache.InvalidateUser(ctx, user.ID)
	return nil
}

// FollowToggle flips the follower->followee edge. Creating the edge and its
// notification happen in one transaction; removing it is a single delete.
// Returns true when the edge exists after the call.
func (r *userRepository) FollowToggle(ctx context.Context, followerID, followeeID uint) (bool, error) {
	if followerID == followeeID {
		return false, models.NewValidationError("You can't follow/unfollow yourself")
	}

	var exists bool
	if err := r.db.WithContext(ctx).First(&models.Follow{}, "follower_id = ? AND followee_id = ?", followerID, followeeID).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return false, models.NewInternalError(err)
		}
	} else {
		exists = true
	}

	var following bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if exists {
			return tx.Delete(&models.Follow{}, "follower_id = ? AND followee_id = ?", followerID, followeeID).Error
		}
		edge := models.Follow{FollowerID: followerID, FolloweeID: followeeID}
		if err := tx.Create(&edge).Error; err != nil {
			// Concurrent toggle already created the edge; treat as followed.
			if isUniqueConstraintError(err) {
				return nil
			}
			return err
		}
		following = true
		return insertNotification(tx, followerID, followeeID, models.NotificationFollow)
	})
	if err != nil {
		if errors.Is(err, models.ErrSelfFollow) {
			return false, models.NewValidationError("You can't follow/unfollow yourself")
		}
		return false, models.NewInternalError(err)
	}

	cache.InvalidateUser(ctx, followerID)
	cache.InvalidateUser(ctx, followeeID)
	return following, nil
}

func (r *userRepository) ListFollowingIDs(ctx context.Context, userID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).
		Model(&models.Follow{}).
		Where("follower_id = ?", userID).
		Pluck("followee_id", &ids).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return ids, nil
}

// SuggestRandom returns up to limit users sampled at random, excluding the
// given user. Filtering out already-followed accounts happens in the service.
func (r *userRepository) SuggestRandom(ctx context.Context, excludeUserID uint, limit int) ([]models.User, error) {
	var users []models.User
	err := r.db.WithContext(ctx).
		Where("id <> ?", excludeUserID).
		Order("RANDOM()").
		Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

// loadRelationshipSets fills the computed follower/following/liked-post ID
// slices so serialized users keep the full relationship picture.
func (r *userRepository) loadRelationshipSets(ctx context.Context, user *models.User) error {
	user.FollowerIDs = []uint{}
	user.FollowingIDs = []uint{}
	user.LikedPostIDs = []uint{}

	if err := r.db.WithContext(ctx).
		Model(&models.Follow{}).
		Where("followee_id = ?", user.ID).
		Pluck("follower_id", &user.FollowerIDs).Error; err != nil {
		return models.NewInternalError(err)
	}
	if err := r.db.WithContext(ctx).
		Model(&models.Follow{}).
		Where("follower_id = ?", user.ID).
		Pluck("followee_id", &user.FollowingIDs).Error; err != nil {
		return models.NewInternalError(err)
	}
	if err := r.db.WithContext(ctx).
		Model(&models.Like{}).
		Where("user_id = ?", user.ID).
		Order("created_at DESC").
		Pluck("post_id", &user.LikedPostIDs).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
