/**
 * @description
 * Exchange database model — the primary state-machine entity.
 * Maps to the 'exchanges' table in PostgreSQL.
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

// ExchangeStatus is the lifecycle state of an exchange request.
// Transitions are one-directional; completed, rejected and canceled are terminal.
type ExchangeStatus string

const (
	ExchangeStatusPending   ExchangeStatus = "pending"
	ExchangeStatusApproved  ExchangeStatus = "approved"
	ExchangeStatusRejected  ExchangeStatus = "rejected"
	ExchangeStatusCompleted ExchangeStatus = "completed"
	ExchangeStatusCanceled  ExchangeStatus = "canceled"
)

// Terminal reports whether the status accepts no further transitions
func (s ExchangeStatus) Terminal() bool {
	return s == ExchangeStatusRejected || s == ExchangeStatusCompleted || s == ExchangeStatusCanceled
}

// Exchange represents one book-exchange request between two users
type Exchange struct {
	ID          uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	RequesterID uuid.UUID      `gorm:"type:uuid;not null;index:idx_exchanges_requester_status" json:"requester_id"`
	OwnerID     uuid.UUID      `gorm:"type:uuid;not null;index:idx_exchanges_owner_status" json:"owner_id"`
	BookID      uuid.UUID      `gorm:"type:uuid;not null;index" json:"book_id"`
	Status      ExchangeStatus `gorm:"size:16;default:'pending';index:idx_exchanges_requester_status;index:idx_exchanges_owner_status" json:"status"`

	RequestMessage string `gorm:"size:500" json:"request_message"`

	// Post-completion rating snapshot. The authoritative copy lives in user_ratings.
	Rating  *int       `json:"rating,omitempty"`
	Review  string     `gorm:"size:500" json:"review,omitempty"`
	RatedBy *uuid.UUID `gorm:"type:uuid" json:"rated_by,omitempty"`

	ExchangeDate   *time.Time `json:"exchange_date,omitempty"`   // set on approval
	CompletionDate *time.Time `json:"completion_date,omitempty"` // set on completion

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Relations
	Requester *User     `gorm:"foreignKey:RequesterID" json:"requester,omitempty"`
	Owner     *User     `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	Book      *Book     `gorm:"foreignKey:BookID" json:"book,omitempty"`
	Messages  []Message `gorm:"foreignKey:ExchangeID" json:"messages,omitempty"`
}

func (Exchange) TableName() string {
	return "exchanges"
}

func (e *Exchange) BeforeCreate(tx *gorm.DB) (err error) {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return
}
