/**
 * @description
 * Notification database model.
 * Maps to the 'notifications' table in PostgreSQL.
 * Written by the server as a side effect of other actions; read/ack by clients.
 *
 * @dependencies
 * - gorm.io/gorm
 * - github.com/google/uuid
 */

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NotificationType defines types of notifications
type NotificationType string

const (
	NotificationTypeExchangeRequest      NotificationType = "exchange_request"
	NotificationTypeExchangeApproved     NotificationType = "exchange_approved"
	NotificationTypeExchangeRejected     NotificationType = "exchange_rejected"
	NotificationTypeExchangeCompleted    NotificationType = "exchange_completed"
	NotificationTypeExchangeCanceled     NotificationType = "exchange_canceled"
	NotificationTypeOwnershipTransferred NotificationType = "ownership_transferred"
	NotificationTypeNewMessage           NotificationType = "new_message"
	NotificationTypeReviewReceived       NotificationType = "review_received"
	NotificationTypePointsEarned         NotificationType = "points_earned"
	NotificationTypeLevelUp              NotificationType = "level_up"
	NotificationTypeLeaderboard          NotificationType = "leaderboard_position"
)

// RelatedModel names the entity a notification points at
type RelatedModel string

const (
	RelatedExchange RelatedModel = "Exchange"
	RelatedMessage  RelatedModel = "Message"
	RelatedBook     RelatedModel = "Book"
	RelatedUser     RelatedModel = "User"
)

// Notification is one addressed, typed notification with a read flag
type Notification struct {
	ID      uuid.UUID        `gorm:"type:uuid;primary_key" json:"id"`
	UserID  uuid.UUID        `gorm:"type:uuid;not null;index:idx_notifications_user_read" json:"user_id"`
	Type    NotificationType `gorm:"size:32;not null" json:"type"`
	Title   string           `gorm:"size:100;not null" json:"title"`
	Message string           `gorm:"size:300;not null" json:"message"`

	RelatedID    *uuid.UUID   `gorm:"type:uuid" json:"related_id,omitempty"`
	RelatedModel RelatedModel `gorm:"size:16" json:"related_model,omitempty"`

	IsRead bool       `gorm:"default:false;index:idx_notifications_user_read" json:"is_read"`
	ReadAt *time.Time `json:"read_at,omitempty"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`

	// Relations
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (Notification) TableName() string {
	return "notifications"
}

func (n *Notification) BeforeCreate(tx *gorm.DB) (err error) {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return
}
