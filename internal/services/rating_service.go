/**
 * @description
 * Rating Service.
 * Owns the authoritative user_ratings store: upsert by (ratee, rater), cached
 * average recomputation, and the rating point awards. The Exchange rating
 * fields are a denormalized snapshot written by the exchange service.
 *
 * @dependencies
 * - gorm.io/gorm
 * - backend/internal/models
 */

package services

import (
	"context"
	"fmt"

	"github.com/bookclub-project/backend/internal/logger"
	"github.com/bookclub-project/backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RatingService handles user-to-user ratings
type RatingService struct {
	db                  *gorm.DB
	pointsService       *PointsService
	notificationService *NotificationService
	emailService        *EmailService
}

// NewRatingService creates a new RatingService
func NewRatingService(db *gorm.DB, pointsService *PointsService, notificationService *NotificationService, emailService *EmailService) *RatingService {
	return &RatingService{
		db:                  db,
		pointsService:       pointsService,
		notificationService: notificationService,
		emailService:        emailService,
	}
}

// RateResult reports the ratee's reputation after the rating
type RateResult struct {
	NewAverage   float64 `json:"new_average"`
	TotalRatings int     `json:"total_ratings"`
	Updated      bool    `json:"updated"` // true when an existing rating was changed in place
}

// Rate records raterID's score for userID. Rating the same target again
// updates the existing row (ratings count unchanged); a new rater appends.
// The ratee's cached average is recomputed and persisted in the same flow.
// Points: +5 to the rater on a first rating only, +10 to the ratee on a
// 5-star score. Both awards and the email are best-effort side effects.
func (s *RatingService) Rate(ctx context.Context, raterID, userID uuid.UUID, score int, review string) (*RateResult, error) {
	if raterID == userID {
		return nil, fmt.Errorf("cannot rate yourself: %w", ErrValidation)
	}
	if score < 1 || score > 5 {
		return nil, fmt.Errorf("rating must be between 1 and 5: %w", ErrValidation)
	}

	var ratee models.User
	if err := s.db.WithContext(ctx).First(&ratee, "id = ?", userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("rated user: %w", ErrNotFound)
		}
		return nil, err
	}

	var existing models.UserRating
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND rater_id = ?", userID, raterID).
		First(&existing).Error
	updated := err == nil
	if err != nil && err != gorm.ErrRecordNotFound {
		return nil, err
	}

	if updated {
		existing.Score = score
		existing.Review = review
		if err := s.db.WithContext(ctx).Save(&existing).Error; err != nil {
			return nil, err
		}
	} else {
		rating := models.UserRating{
			UserID:  userID,
			RaterID: raterID,
			Score:   score,
			Review:  review,
		}
		if err := s.db.WithContext(ctx).Create(&rating).Error; err != nil {
			return nil, err
		}
	}

	average, total, err := s.recomputeAverage(ctx, userID)
	if err != nil {
		return nil, err
	}

	// First-time ratings earn the rater points; re-rating the same person does not.
	if !updated {
		if _, err := s.pointsService.Award(ctx, raterID, PointsGiveRating, "Rating given"); err != nil {
			logger.Error("RatingService: Failed to award rater points: %v", err)
		}
	}
	if score == 5 {
		if _, err := s.pointsService.Award(ctx, userID, PointsFiveStarReceived, "Received 5-star rating"); err != nil {
			logger.Error("RatingService: Failed to award five-star points: %v", err)
		}
	}

	var rater models.User
	if err := s.db.WithContext(ctx).Select("name", "email").First(&rater, "id = ?", raterID).Error; err == nil {
		if err := s.notificationService.CreateReviewReceived(ctx, userID, rater.Name, score); err != nil {
			logger.Error("RatingService: Failed to create rating notification: %v", err)
		}
		s.emailService.Send(ratee.Email, EmailNewRating, rater.Name, ratee.Name, fmt.Sprintf("%d", score), "your book exchange")
	}

	return &RateResult{NewAverage: average, TotalRatings: total, Updated: updated}, nil
}

// GetRatingBy returns the rating raterID has previously given userID, if any
func (s *RatingService) GetRatingBy(ctx context.Context, raterID, userID uuid.UUID) (*models.UserRating, error) {
	var rating models.UserRating
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND rater_id = ?", userID, raterID).
		First(&rating).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rating, nil
}

// recomputeAverage rewrites the ratee's cached average from the ratings table
func (s *RatingService) recomputeAverage(ctx context.Context, userID uuid.UUID) (float64, int, error) {
	type agg struct {
		Avg   float64
		Count int64
	}
	var result agg
	if err := s.db.WithContext(ctx).Model(&models.UserRating{}).
		Select("COALESCE(AVG(score), 0) AS avg, COUNT(*) AS count").
		Where("user_id = ?", userID).
		Scan(&result).Error; err != nil {
		return 0, 0, err
	}

	if err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Update("rating", result.Avg).Error; err != nil {
		return 0, 0, err
	}

	return result.Avg, int(result.Count), nil
}
