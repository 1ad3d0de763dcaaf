/**
 * @description
 * Message database model for exchange-scoped chat.
 * Maps to the 'messages' table in PostgreSQL.
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

// MessageType distinguishes text, image and system messages
type MessageType string

const (
	MessageTypeText   MessageType = "text"
	MessageTypeImage  MessageType = "image"
	MessageTypeSystem MessageType = "system"
)

// Message is one chat message inside an exchange. Append-only; deletion is soft.
type Message struct {
	ID         uuid.UUID   `gorm:"type:uuid;primary_key" json:"id"`
	ExchangeID uuid.UUID   `gorm:"type:uuid;not null;index:idx_messages_exchange_created" json:"exchange_id"`
	SenderID   uuid.UUID   `gorm:"type:uuid;not null" json:"sender_id"`
	ReceiverID uuid.UUID   `gorm:"type:uuid;not null" json:"receiver_id"`
	Type       MessageType `gorm:"size:16;default:'text'" json:"type"`
	Content    string      `gorm:"size:1000" json:"content"`  // required for text messages
	ImageURL   string      `json:"image_url,omitempty"`       // required for image messages

	IsRead    bool       `gorm:"default:false" json:"is_read"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
	IsDeleted bool       `gorm:"default:false" json:"is_deleted"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`

	CreatedAt time.Time `gorm:"index:idx_messages_exchange_created" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Relations
	Sender *User `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
}

func (Message) TableName() string {
	return "messages"
}

func (m *Message) BeforeCreate(tx *gorm.DB) (err error) {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return
}
