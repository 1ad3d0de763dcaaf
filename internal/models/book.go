/**
 * @description
 * Book database model.
 * Maps to the 'books' table in PostgreSQL.
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

// BookStatus is the availability flag of a book, not a full lifecycle machine.
// available -> exchanging when a request is created, back to available on
// reject/cancel, and back to available (with a new owner) on completion.
type BookStatus string

const (
	BookStatusAvailable  BookStatus = "available"
	BookStatusExchanging BookStatus = "exchanging"
)

// BookGenres is the accepted genre set, matching the listing form
var BookGenres = []string{
	"Fiction", "Non-Fiction", "Mystery", "Romance", "Science Fiction",
	"Fantasy", "Thriller", "Biography", "History", "Self-Help",
	"Business", "Health", "Travel", "Cooking", "Art", "Poetry",
	"Drama", "Comedy", "Horror", "Adventure", "Children", "Young Adult", "Other",
}

// BookConditions is the accepted physical condition set
var BookConditions = []string{"New", "Like New", "Good", "Fair", "Poor"}

// Book represents a book listed for exchange
type Book struct {
	ID          uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	Title       string     `gorm:"size:200;not null" json:"title"`
	Author      string     `gorm:"size:100;not null" json:"author"`
	Genre       string     `gorm:"size:32;not null;index" json:"genre"`
	Condition   string     `gorm:"size:16;not null" json:"condition"`
	CoverImage  string     `gorm:"not null" json:"cover_image"`
	Description string     `gorm:"size:1000;not null" json:"description"`
	OwnerID     uuid.UUID  `gorm:"type:uuid;not null;index" json:"owner_id"`
	Status      BookStatus `gorm:"size:16;default:'available';index" json:"status"`

	ISBN          string `gorm:"size:20" json:"isbn,omitempty"`
	PublishedYear int    `json:"published_year,omitempty"`
	Language      string `gorm:"size:32;default:'English'" json:"language"`
	PageCount     int    `json:"page_count,omitempty"`

	Views    int64 `gorm:"default:0" json:"views"`
	IsActive bool  `gorm:"default:true" json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Relations
	Owner *User `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
}

func (Book) TableName() string {
	return "books"
}

func (b *Book) BeforeCreate(tx *gorm.DB) (err error) {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return
}

// ValidGenre reports whether g is one of the accepted genres
func ValidGenre(g string) bool {
	for _, v := range BookGenres {
		if v == g {
			return true
		}
	}
	return false
}

// ValidCondition reports whether c is one of the accepted conditions
func ValidCondition(c string) bool {
	for _, v := range BookConditions {
		if v == c {
			return true
		}
	}
	return false
}
