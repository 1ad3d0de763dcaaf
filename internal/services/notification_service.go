/**
 * @description
 * Notification Service.
 * Creates and manages the per-user notification feed. Every Create* method is
 * best-effort from the caller's perspective: failures are returned so callers
 * can log them, but callers never abort a primary transition on one.
 *
 * @dependencies
 * - gorm.io/gorm
 * - backend/internal/models
 */

package services

import (
	"context"
	"fmt"
	"time"

	"github.com/bookclub-project/backend/internal/logger"
	"github.com/bookclub-project/backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NotificationService handles notification operations
type NotificationService struct {
	db *gorm.DB
}

// NewNotificationService creates a new NotificationService
func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{db: db}
}

// Create persists one notification
func (s *NotificationService) Create(ctx context.Context, n *models.Notification) error {
	if err := s.db.WithContext(ctx).Create(n).Error; err != nil {
		logger.Error("NotificationService: Failed to create notification: %v", err)
		return err
	}
	return nil
}

// CreateExchangeEvent notifies a user about an exchange lifecycle event
func (s *NotificationService) CreateExchangeEvent(ctx context.Context, userID uuid.UUID, typ models.NotificationType, message string, exchangeID uuid.UUID) error {
	return s.Create(ctx, &models.Notification{
		UserID:       userID,
		Type:         typ,
		Title:        "Exchange Update",
		Message:      message,
		RelatedID:    &exchangeID,
		RelatedModel: models.RelatedExchange,
	})
}

// CreateOwnershipTransferred tells the previous owner their book moved on
func (s *NotificationService) CreateOwnershipTransferred(ctx context.Context, ownerID uuid.UUID, bookTitle, newOwnerName string, exchangeID uuid.UUID) error {
	return s.Create(ctx, &models.Notification{
		UserID:       ownerID,
		Type:         models.NotificationTypeOwnershipTransferred,
		Title:        "Book Ownership Transferred",
		Message:      fmt.Sprintf("Your book %q has been transferred to %s", bookTitle, newOwnerName),
		RelatedID:    &exchangeID,
		RelatedModel: models.RelatedExchange,
	})
}

// CreateNewMessage notifies the receiver of a chat message
func (s *NotificationService) CreateNewMessage(ctx context.Context, receiverID uuid.UUID, senderName string, exchangeID uuid.UUID) error {
	return s.Create(ctx, &models.Notification{
		UserID:       receiverID,
		Type:         models.NotificationTypeNewMessage,
		Title:        "New Message",
		Message:      fmt.Sprintf("You have a new message from %s", senderName),
		RelatedID:    &exchangeID,
		RelatedModel: models.RelatedExchange,
	})
}

// CreatePointsEarned is emitted on every point award
func (s *NotificationService) CreatePointsEarned(ctx context.Context, userID uuid.UUID, points int, reason string) error {
	return s.Create(ctx, &models.Notification{
		UserID:  userID,
		Type:    models.NotificationTypePointsEarned,
		Title:   "Points Earned! ⭐",
		Message: fmt.Sprintf("You earned %d points for %s!", points, reason),
	})
}

// CreateLevelUp is emitted when an award crosses a tier threshold
func (s *NotificationService) CreateLevelUp(ctx context.Context, userID uuid.UUID, level models.Level, points int) error {
	return s.Create(ctx, &models.Notification{
		UserID:  userID,
		Type:    models.NotificationTypeLevelUp,
		Title:   "Level Up! 🎉",
		Message: fmt.Sprintf("Congratulations! You reached %s level with %d points!", level, points),
	})
}

// CreateReviewReceived notifies a user about a new rating
func (s *NotificationService) CreateReviewReceived(ctx context.Context, userID uuid.UUID, raterName string, score int) error {
	return s.Create(ctx, &models.Notification{
		UserID:  userID,
		Type:    models.NotificationTypeReviewReceived,
		Title:   "New Rating Received",
		Message: fmt.Sprintf("%s rated you %d/5 stars", raterName, score),
	})
}

// GetNotifications returns notifications for a user
func (s *NotificationService) GetNotifications(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Notification, error) {
	if limit <= 0 {
		limit = 50
	}

	var notifications []models.Notification

	result := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&notifications)

	if result.Error != nil {
		return nil, result.Error
	}

	return notifications, nil
}

// GetUnreadCount returns the count of unread notifications
func (s *NotificationService) GetUnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	result := s.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count)

	if result.Error != nil {
		return 0, result.Error
	}

	return count, nil
}

// MarkAsRead marks a specific notification as read
func (s *NotificationService) MarkAsRead(ctx context.Context, userID uuid.UUID, notificationID uuid.UUID) error {
	now := time.Now()
	result := s.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", notificationID, userID).
		Updates(map[string]interface{}{"is_read": true, "read_at": &now})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// MarkAllAsRead marks all notifications as read for a user
func (s *NotificationService) MarkAllAsRead(ctx context.Context, userID uuid.UUID) error {
	now := time.Now()
	result := s.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Updates(map[string]interface{}{"is_read": true, "read_at": &now})

	if result.Error != nil {
		return result.Error
	}

	return nil
}

// DeleteOldNotifications deletes notifications older than the specified duration
func (s *NotificationService) DeleteOldNotifications(ctx context.Context, olderThan time.Duration) error {
	cutoff := time.Now().Add(-olderThan)

	result := s.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&models.Notification{})

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected > 0 {
		logger.Info("NotificationService: Deleted %d old notifications", result.RowsAffected)
	}

	return nil
}
