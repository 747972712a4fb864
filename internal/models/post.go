package models

import "time"

// Post represents a post in the Chirp application.
// A post must carry text, an image, or both; the rule is enforced at the
// service layer.
type Post struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	User      User      `gorm:"foreignKey:UserID" json:"user"`
	Text      string    `gorm:"type:text" json:"text"`
	ImageURL  string    `json:"img"`
	Comments  []Comment `gorm:"foreignKey:PostID" json:"comments"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// LikerIDs is not persisted; computed at query time, newest like first
	LikerIDs []uint `gorm:"-" json:"likes"`
}
