/**
 * @description
 * Points & Leveling Engine.
 * LevelFor is the pure points-to-tier mapping; Award applies a point delta and
 * persists points and level together. RecalculateAll is the batch sweep that
 * rebuilds points from raw activity counts to repair drift between incremental
 * awards and ground truth.
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

// Fixed point deltas for award events
const (
	PointsAddBook           = 15
	PointsCompleteExchange  = 20
	PointsGiveRating        = 5
	PointsFiveStarReceived  = 10
	PointsCreateForumPost   = 10
	PointsReplyForumPost    = 5
)

// LevelFor maps an accumulated point total to its tier.
// Thresholds: 50 Silver, 200 Gold, 500 Platinum, 1000 Diamond.
func LevelFor(points int) models.Level {
	switch {
	case points >= 1000:
		return models.LevelDiamond
	case points >= 500:
		return models.LevelPlatinum
	case points >= 200:
		return models.LevelGold
	case points >= 50:
		return models.LevelSilver
	default:
		return models.LevelBronze
	}
}

// PointsService owns all point awards and the reconciliation sweeps
type PointsService struct {
	db                  *gorm.DB
	notificationService *NotificationService
}

// NewPointsService creates a new PointsService
func NewPointsService(db *gorm.DB, notificationService *NotificationService) *PointsService {
	return &PointsService{
		db:                  db,
		notificationService: notificationService,
	}
}

// AwardResult reports the state after an award
type AwardResult struct {
	NewPoints int          `json:"new_points"`
	NewLevel  models.Level `json:"new_level"`
	LeveledUp bool         `json:"leveled_up"`
}

// Award adds delta points to a user, recomputes the level and persists both
// fields in the same write. A points_earned notification is always emitted and
// a level_up notification when the tier changed; both are best-effort.
// Callers are responsible for invoking Award once per logical event.
func (s *PointsService) Award(ctx context.Context, userID uuid.UUID, delta int, reason string) (*AwardResult, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("award points: %w", ErrNotFound)
		}
		return nil, err
	}

	newPoints := user.Points + delta
	if newPoints < 0 {
		newPoints = 0
	}
	newLevel := LevelFor(newPoints)
	leveledUp := newLevel != user.Level

	// Points and level are persisted together so the derived field can never drift
	// within a single write.
	updates := map[string]interface{}{
		"points": newPoints,
		"level":  newLevel,
	}
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Updates(updates).Error; err != nil {
		return nil, err
	}

	logger.Info("PointsService: Awarded %d points to user %s for %q. New total: %d, level: %s",
		delta, userID, reason, newPoints, newLevel)

	if s.notificationService != nil {
		if err := s.notificationService.CreatePointsEarned(ctx, userID, delta, reason); err != nil {
			logger.Error("PointsService: Failed to create points notification: %v", err)
		}
		if leveledUp {
			if err := s.notificationService.CreateLevelUp(ctx, userID, newLevel, newPoints); err != nil {
				logger.Error("PointsService: Failed to create level-up notification: %v", err)
			}
		}
	}

	return &AwardResult{NewPoints: newPoints, NewLevel: newLevel, LeveledUp: leveledUp}, nil
}

// RecalculateAll rebuilds every user's points from raw activity counts:
// owned books ×15, completed exchanges ×20, ratings given ×5, five-star
// ratings received ×10. Its output equals what incremental awarding would have
// produced if applied faithfully from zero.
func (s *PointsService) RecalculateAll(ctx context.Context) (int, error) {
	var users []models.User
	if err := s.db.WithContext(ctx).Find(&users).Error; err != nil {
		return 0, err
	}

	updated := 0
	for _, user := range users {
		var bookCount int64
		if err := s.db.WithContext(ctx).Model(&models.Book{}).
			Where("owner_id = ? AND is_active = ?", user.ID, true).
			Count(&bookCount).Error; err != nil {
			logger.Error("PointsService: Failed to count books for %s: %v", user.ID, err)
			continue
		}

		var ratingsGiven int64
		if err := s.db.WithContext(ctx).Model(&models.UserRating{}).
			Where("rater_id = ?", user.ID).
			Count(&ratingsGiven).Error; err != nil {
			logger.Error("PointsService: Failed to count ratings given for %s: %v", user.ID, err)
			continue
		}

		var fiveStarReceived int64
		if err := s.db.WithContext(ctx).Model(&models.UserRating{}).
			Where("user_id = ? AND score = ?", user.ID, 5).
			Count(&fiveStarReceived).Error; err != nil {
			logger.Error("PointsService: Failed to count five-star ratings for %s: %v", user.ID, err)
			continue
		}

		points := int(bookCount)*PointsAddBook +
			user.ExchangesCompleted*PointsCompleteExchange +
			int(ratingsGiven)*PointsGiveRating +
			int(fiveStarReceived)*PointsFiveStarReceived
		level := LevelFor(points)

		if err := s.db.WithContext(ctx).Model(&models.User{}).
			Where("id = ?", user.ID).
			Updates(map[string]interface{}{"points": points, "level": level}).Error; err != nil {
			logger.Error("PointsService: Failed to update user %s: %v", user.ID, err)
			continue
		}
		updated++
	}

	logger.Info("PointsService: Recalculated points for %d/%d users", updated, len(users))
	return updated, nil
}

// SyncLevels repairs level drift only: for every user whose stored level
// disagrees with LevelFor(points), the level is rewritten. Points are untouched.
func (s *PointsService) SyncLevels(ctx context.Context) (int, error) {
	var users []models.User
	if err := s.db.WithContext(ctx).Find(&users).Error; err != nil {
		return 0, err
	}

	fixed := 0
	for _, user := range users {
		expected := LevelFor(user.Points)
		if user.Level == expected {
			continue
		}
		if err := s.db.WithContext(ctx).Model(&models.User{}).
			Where("id = ?", user.ID).
			Update("level", expected).Error; err != nil {
			logger.Error("PointsService: Failed to sync level for %s: %v", user.ID, err)
			continue
		}
		logger.Info("PointsService: Synced user %s level %s -> %s (%d points)",
			user.ID, user.Level, expected, user.Points)
		fixed++
	}

	return fixed, nil
}
