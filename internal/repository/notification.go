package repository

import (
	"context"

	"chirp/internal/models"

	"gorm.io/gorm"
)

// NotificationRepository defines the interface for notification data operations
type NotificationRepository interface {
	Create(ctx context.Context, notification *models.Notification) error
	ListAndMarkRead(ctx context.Context, recipientID uint) ([]models.Notification, error)
	DeleteAllForRecipient(ctx context.Context, recipientID uint) error
}

// notificationRepository implements NotificationRepository
type notificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

// insertNotification writes a notification row, silently dropping self
// notifications. Shared by the follow and like toggles so the suppression
// rule cannot be bypassed at a call site.
func insertNotification(db *gorm.DB, actorID, recipientID uint, typ models.NotificationType) error {
	if actorID == recipientID {
		return nil
	}
	return db.Create(&models.Notification{
		ActorID:     actorID,
		RecipientID: recipientID,
		Type:        typ,
	}).Error
}

func (r *notificationRepository) Create(ctx context.Context, notification *models.Notification) error {
	if notification.ActorID == notification.RecipientID {
		return nil
	}
	if err := insertNotification(r.db.WithContext(ctx), notification.ActorID, notification.RecipientID, notification.Type); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// ListAndMarkRead returns the recipient's notifications, newest first, and
// marks all of them read in the same transaction. The returned records carry
// their pre-read state so clients can still render unread markers once.
func (r *notificationRepository) ListAndMarkRead(ctx context.Context, recipientID uint) ([]models.Notification, error) {
	notifications := []models.Notification{}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Preload("Actor").
			Where("recipient_id = ?", recipientID).
			Order("created_at DESC").
			Find(&notifications).Error; err != nil {
			return err
		}
		return tx.Model(&models.Notification{}).
			Where("recipient_id = ? AND read = ?", recipientID, false).
			Update("read", true).Error
	})
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return notifications, nil
}

func (r *notificationRepository) DeleteAllForRecipient(ctx context.Context, recipientID uint) error {
	if err := r.db.WithContext(ctx).Delete(&models.Notification{}, "recipient_id = ?", recipientID).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
