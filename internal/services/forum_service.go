/**
 * @description
 * Community Forum Manager.
 * Discussion threads with categories, replies, likes and view counts.
 * Posting a thread and replying both award points; likes toggle and are
 * unique per (post, user); replies bump the thread's last activity so the
 * default listing surfaces live discussions.
 *
 * @dependencies
 * - gorm.io/gorm
 * - backend/internal/models
 */

package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bookclub-project/backend/internal/logger"
	"github.com/bookclub-project/backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ForumService manages community discussion threads
type ForumService struct {
	db            *gorm.DB
	pointsService *PointsService
}

// NewForumService creates a new ForumService
func NewForumService(db *gorm.DB, pointsService *PointsService) *ForumService {
	return &ForumService{db: db, pointsService: pointsService}
}

// ForumListParams filters and paginates the thread listing
type ForumListParams struct {
	Category string
	Search   string
	Page     int
	Limit    int
}

// ForumPostSummary is a thread row plus its reply and like counts
type ForumPostSummary struct {
	models.ForumPost
	ReplyCount int64 `json:"reply_count"`
	LikeCount  int64 `json:"like_count"`
}

// ForumListResult is one page of threads plus the total match count
type ForumListResult struct {
	Posts      []ForumPostSummary `json:"posts"`
	Total      int64              `json:"total"`
	Page       int                `json:"page"`
	TotalPages int                `json:"total_pages"`
}

// ListPosts returns threads, pinned first, most recently active next
func (s *ForumService) ListPosts(ctx context.Context, params ForumListParams) (*ForumListResult, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.Limit < 1 || params.Limit > 100 {
		params.Limit = 20
	}

	q := s.db.WithContext(ctx).Model(&models.ForumPost{})
	if params.Category != "" && params.Category != "all" {
		q = q.Where("category = ?", params.Category)
	}
	if params.Search != "" {
		term := "%" + strings.ToLower(params.Search) + "%"
		q = q.Where("LOWER(title) LIKE ? OR LOWER(content) LIKE ?", term, term)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, err
	}

	var posts []models.ForumPost
	err := q.Preload("Author").
		Order("is_pinned DESC, last_activity DESC").
		Offset((params.Page - 1) * params.Limit).
		Limit(params.Limit).
		Find(&posts).Error
	if err != nil {
		return nil, err
	}

	summaries := make([]ForumPostSummary, 0, len(posts))
	for _, post := range posts {
		summary := ForumPostSummary{ForumPost: post}
		if err := s.db.WithContext(ctx).Model(&models.ForumReply{}).
			Where("post_id = ?", post.ID).Count(&summary.ReplyCount).Error; err != nil {
			return nil, err
		}
		if err := s.db.WithContext(ctx).Model(&models.ForumLike{}).
			Where("post_id = ?", post.ID).Count(&summary.LikeCount).Error; err != nil {
			return nil, err
		}
		summaries = append(summaries, summary)
	}

	totalPages := int((total + int64(params.Limit) - 1) / int64(params.Limit))
	return &ForumListResult{
		Posts:      summaries,
		Total:      total,
		Page:       params.Page,
		TotalPages: totalPages,
	}, nil
}

// GetPost returns one thread with its replies and likes, bumping views
func (s *ForumService) GetPost(ctx context.Context, postID uuid.UUID) (*models.ForumPost, error) {
	var post models.ForumPost
	err := s.db.WithContext(ctx).
		Preload("Author").
		Preload("Replies", func(q *gorm.DB) *gorm.DB { return q.Order("created_at ASC") }).
		Preload("Replies.Author").
		Preload("Likes").
		First(&post, "id = ?", postID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("post: %w", ErrNotFound)
		}
		return nil, err
	}

	if err := s.db.WithContext(ctx).Model(&models.ForumPost{}).
		Where("id = ?", postID).
		UpdateColumn("views", gorm.Expr("views + 1")).Error; err != nil {
		logger.Error("ForumService: Failed to bump post views: %v", err)
	}
	post.Views++

	return &post, nil
}

// CreatePost opens a new thread and awards the posting points
func (s *ForumService) CreatePost(ctx context.Context, authorID uuid.UUID, title, content, category string) (*models.ForumPost, error) {
	if category == "" {
		category = "general"
	}
	if !models.ValidForumCategory(category) {
		return nil, fmt.Errorf("unknown category %q: %w", category, ErrValidation)
	}
	if title == "" || content == "" {
		return nil, fmt.Errorf("title and content are required: %w", ErrValidation)
	}
	if len(title) > 200 {
		return nil, fmt.Errorf("title too long: %w", ErrValidation)
	}

	post := models.ForumPost{
		Title:        title,
		Content:      content,
		AuthorID:     authorID,
		Category:     category,
		LastActivity: time.Now(),
	}
	if err := s.db.WithContext(ctx).Create(&post).Error; err != nil {
		return nil, err
	}

	if _, err := s.pointsService.Award(ctx, authorID, PointsCreateForumPost, "Created a forum post"); err != nil {
		logger.Error("ForumService: Failed to award post points: %v", err)
	}

	return &post, nil
}

// Reply adds a reply to a thread, bumps its activity, and awards points
func (s *ForumService) Reply(ctx context.Context, authorID, postID uuid.UUID, content string) (*models.ForumReply, error) {
	if content == "" {
		return nil, fmt.Errorf("content is required: %w", ErrValidation)
	}
	if len(content) > 2000 {
		return nil, fmt.Errorf("reply too long: %w", ErrValidation)
	}

	var post models.ForumPost
	if err := s.db.WithContext(ctx).First(&post, "id = ?", postID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("post: %w", ErrNotFound)
		}
		return nil, err
	}
	if post.IsLocked {
		return nil, fmt.Errorf("thread is locked: %w", ErrInvalidState)
	}

	reply := models.ForumReply{
		PostID:   postID,
		AuthorID: authorID,
		Content:  content,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&reply).Error; err != nil {
			return err
		}
		return tx.Model(&models.ForumPost{}).
			Where("id = ?", postID).
			Update("last_activity", time.Now()).Error
	})
	if err != nil {
		return nil, err
	}

	if _, err := s.pointsService.Award(ctx, authorID, PointsReplyForumPost, "Replied to a forum post"); err != nil {
		logger.Error("ForumService: Failed to award reply points: %v", err)
	}

	return &reply, nil
}

// ToggleLike likes or unlikes a thread, returning the new state and count
func (s *ForumService) ToggleLike(ctx context.Context, userID, postID uuid.UUID) (liked bool, count int64, err error) {
	var post models.ForumPost
	if err := s.db.WithContext(ctx).First(&post, "id = ?", postID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return false, 0, fmt.Errorf("post: %w", ErrNotFound)
		}
		return false, 0, err
	}

	var existing models.ForumLike
	findErr := s.db.WithContext(ctx).
		First(&existing, "post_id = ? AND user_id = ?", postID, userID).Error
	switch findErr {
	case nil:
		if err := s.db.WithContext(ctx).Delete(&existing).Error; err != nil {
			return false, 0, err
		}
		liked = false
	case gorm.ErrRecordNotFound:
		like := models.ForumLike{PostID: postID, UserID: userID}
		if err := s.db.WithContext(ctx).Create(&like).Error; err != nil {
			return false, 0, err
		}
		liked = true
	default:
		return false, 0, findErr
	}

	err = s.db.WithContext(ctx).Model(&models.ForumLike{}).
		Where("post_id = ?", postID).Count(&count).Error
	return liked, count, err
}

// DeletePost removes a thread and its replies and likes. Author only.
func (s *ForumService) DeletePost(ctx context.Context, actorID, postID uuid.UUID) error {
	var post models.ForumPost
	if err := s.db.WithContext(ctx).First(&post, "id = ?", postID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fmt.Errorf("post: %w", ErrNotFound)
		}
		return err
	}
	if post.AuthorID != actorID {
		return fmt.Errorf("only the author can delete this thread: %w", ErrForbidden)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", postID).Delete(&models.ForumReply{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", postID).Delete(&models.ForumLike{}).Error; err != nil {
			return err
		}
		return tx.Delete(&post).Error
	})
}
