package models

import "time"

// NotificationType enumerates the events that produce a notification.
type NotificationType string

const (
	// NotificationFollow is emitted when a user gains a follower.
	NotificationFollow NotificationType = "follow"
	// NotificationLike is emitted when a user's post is liked.
	NotificationLike NotificationType = "like"
)

// Notification is a one-way event record from an actor to a recipient.
// Rows with ActorID == RecipientID are never created; the suppression
// lives in the repository create path, not only at call sites.
type Notification struct {
	ID          uint             `gorm:"primaryKey" json:"id"`
	ActorID     uint             `gorm:"not null;index" json:"actor_id"`
	RecipientID uint             `gorm:"not null;index" json:"recipient_id"`
	Type        NotificationType `gorm:"type:varchar(20);not null" json:"type"`
	Read        bool             `gorm:"default:false" json:"read"`
	CreatedAt   time.Time        `json:"created_at"`

	// Actor is preloaded on retrieval so clients can render the
	// notification source without a second lookup.
	Actor User `gorm:"foreignKey:ActorID" json:"from"`
}

// TableName specifies the table name for GORM
func (Notification) TableName() string {
	return "notifications"
}
