/**
 * @description
 * User database model.
 * Maps to the 'users' and 'user_ratings' tables in PostgreSQL.
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

// Level is a gamification tier derived from accumulated points
type Level string

const (
	LevelBronze   Level = "Bronze"
	LevelSilver   Level = "Silver"
	LevelGold     Level = "Gold"
	LevelPlatinum Level = "Platinum"
	LevelDiamond  Level = "Diamond"
)

// User represents a registered member of the book trading community
type User struct {
	ID             uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Name           string    `gorm:"size:50;not null" json:"name"`
	Email          string    `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash   string    `gorm:"column:password_hash" json:"-"` // empty for Google sign-in users
	IsGoogleUser   bool      `gorm:"default:false" json:"is_google_user"`
	Location       string    `gorm:"size:100" json:"location"`
	Bio            string    `gorm:"size:500" json:"bio"`
	ProfilePicture string    `json:"profile_picture"`

	// Reputation. Rating is the cached average of the user_ratings rows.
	Rating             float64 `gorm:"default:0" json:"rating"`
	TotalExchanges     int     `gorm:"default:0" json:"total_exchanges"`
	ExchangesCompleted int     `gorm:"default:0" json:"exchanges_completed"`

	// Gamification. Level is always LevelFor(Points); the two are persisted together.
	Points int   `gorm:"default:0" json:"points"`
	Level  Level `gorm:"size:16;default:'Bronze'" json:"level"`

	LastActive time.Time `json:"last_active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Relations
	Books   []Book       `gorm:"foreignKey:OwnerID" json:"books,omitempty"`
	Ratings []UserRating `gorm:"foreignKey:UserID" json:"ratings,omitempty"`
}

// TableName overrides the table name used by User to `users`
func (User) TableName() string {
	return "users"
}

// BeforeCreate ensures UUID is generated if not present (though DB usually handles this)
func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return
}

// UserRating is one rater's rating of a user. The unique (user_id, rater_id)
// index gives upsert semantics: rating the same person again updates in place.
// This table is the authoritative store; Exchange keeps a denormalized snapshot.
type UserRating struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_user_rater" json:"user_id"`
	RaterID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_user_rater" json:"rater_id"`
	Score     int       `gorm:"not null" json:"score"` // 1..5
	Review    string    `gorm:"size:500" json:"review"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Relations
	Rater *User `gorm:"foreignKey:RaterID" json:"rater,omitempty"`
}

func (UserRating) TableName() string {
	return "user_ratings"
}

func (r *UserRating) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return
}
