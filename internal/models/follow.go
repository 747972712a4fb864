package models

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// ErrSelfFollow is returned when a user attempts to follow themselves.
var ErrSelfFollow = errors.New("users cannot follow themselves")

// Follow is a directed edge in the follow graph: Follower follows Followee.
// One row per relationship keeps follow/unfollow a single atomic write.
type Follow struct {
	FollowerID uint      `gorm:"primaryKey;autoIncrement:false" json:"follower_id"`
	FolloweeID uint      `gorm:"primaryKey;autoIncrement:false" json:"followee_id"`
	CreatedAt  time.Time `json:"created_at"`

	Follower *User `gorm:"foreignKey:FollowerID" json:"follower,omitempty"`
	Followee *User `gorm:"foreignKey:FolloweeID" json:"followee,omitempty"`
}

// TableName specifies the table name for GORM
func (Follow) TableName() string {
	return "follows"
}

// BeforeCreate rejects self-edges at the data layer so the invariant holds
// even if a handler-level check is bypassed.
func (f *Follow) BeforeCreate(_ *gorm.DB) error {
	if f.FollowerID == f.FolloweeID {
		return ErrSelfFollow
	}
	return nil
}
