// Package models contains data structures for the application's domain models.
package models

import "time"

// User represents a registered account in the Chirp application.
// Follower, following, and liked-post sets are stored as join rows
// (follows, likes) and surfaced here as computed ID slices.
type User struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Username   string    `gorm:"unique;not null" json:"username"`
	Email      string    `gorm:"unique;not null" json:"email"`
	FullName   string    `json:"full_name"`
	Password   string    `gorm:"not null" json:"-"`
	Bio        string    `json:"bio"`
	Link       string    `json:"link"`
	ProfileImg string    `json:"profile_img"`
	CoverImg   string    `json:"cover_img"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	// FollowerIDs is not persisted; computed at query time
	FollowerIDs []uint `gorm:"-" json:"followers"`
	// FollowingIDs is not persisted; computed at query time
	FollowingIDs []uint `gorm:"-" json:"following"`
	// LikedPostIDs is not persisted; computed at query time
	LikedPostIDs []uint `gorm:"-" json:"liked_posts"`
}
