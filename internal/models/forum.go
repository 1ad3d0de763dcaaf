/**
 * @description
 * Forum database models.
 * Maps to the 'forum_posts', 'forum_replies' and 'forum_likes' tables.
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

// ForumCategories is the accepted category set
var ForumCategories = []string{
	"general", "book-recommendations", "exchange-tips", "reviews", "off-topic",
}

// ForumPost is a top-level community discussion thread
type ForumPost struct {
	ID       uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Title    string    `gorm:"size:200;not null" json:"title"`
	Content  string    `gorm:"not null" json:"content"`
	AuthorID uuid.UUID `gorm:"type:uuid;not null;index" json:"author_id"`
	Category string    `gorm:"size:32;default:'general';index" json:"category"`

	IsPinned     bool      `gorm:"default:false" json:"is_pinned"`
	IsLocked     bool      `gorm:"default:false" json:"is_locked"`
	Views        int64     `gorm:"default:0" json:"views"`
	LastActivity time.Time `gorm:"index" json:"last_activity"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Relations
	Author  *User        `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	Replies []ForumReply `gorm:"foreignKey:PostID" json:"replies,omitempty"`
	Likes   []ForumLike  `gorm:"foreignKey:PostID" json:"likes,omitempty"`
}

func (ForumPost) TableName() string {
	return "forum_posts"
}

func (p *ForumPost) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return
}

// ForumReply is one reply inside a thread
type ForumReply struct {
	ID       uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	PostID   uuid.UUID `gorm:"type:uuid;not null;index" json:"post_id"`
	AuthorID uuid.UUID `gorm:"type:uuid;not null" json:"author_id"`
	Content  string    `gorm:"size:2000;not null" json:"content"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Relations
	Author *User `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
}

func (ForumReply) TableName() string {
	return "forum_replies"
}

func (r *ForumReply) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return
}

// ForumLike marks that a user liked a post. Unique per (post, user).
type ForumLike struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	PostID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_post_user" json:"post_id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_post_user" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (ForumLike) TableName() string {
	return "forum_likes"
}

func (l *ForumLike) BeforeCreate(tx *gorm.DB) (err error) {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return
}

// ValidForumCategory reports whether c is one of the accepted categories
func ValidForumCategory(c string) bool {
	for _, v := range ForumCategories {
		if v == c {
			return true
		}
	}
	return false
}
