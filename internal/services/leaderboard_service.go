/**
 * @description
 * Leaderboard Manager.
 * Ranks users by points, with average rating and completed exchanges as
 * tiebreak context. The top page is cached in Redis with a short TTL; the
 * worker refreshes it so the first request after a cold start never pays
 * the full query.
 *
 * @dependencies
 * - gorm.io/gorm
 * - github.com/redis/go-redis/v9
 * - backend/internal/models
 */

package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bookclub-project/backend/internal/logger"
	"github.com/bookclub-project/backend/internal/models"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	leaderboardCacheKey = "leaderboard:top"
	leaderboardCacheTTL = 5 * time.Minute
	leaderboardSize     = 50
)

// LeaderboardEntry is one ranked row
type LeaderboardEntry struct {
	Rank               int          `json:"rank"`
	UserID             uuid.UUID    `json:"user_id"`
	Name               string       `json:"name"`
	ProfilePicture     string       `json:"profile_picture,omitempty"`
	Points             int          `json:"points"`
	Level              models.Level `json:"level"`
	Rating             float64      `json:"rating"`
	ExchangesCompleted int          `json:"exchanges_completed"`
}

// LeaderboardService ranks users by points
type LeaderboardService struct {
	db  *gorm.DB
	rdb *redis.Client
}

// NewLeaderboardService creates a new LeaderboardService
func NewLeaderboardService(db *gorm.DB, rdb *redis.Client) *LeaderboardService {
	return &LeaderboardService{db: db, rdb: rdb}
}

// Top returns the top-ranked users, from cache when fresh
func (s *LeaderboardService) Top(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	if limit < 1 || limit > leaderboardSize {
		limit = leaderboardSize
	}

	if s.rdb != nil {
		raw, err := s.rdb.Get(ctx, leaderboardCacheKey).Result()
		if err == nil {
			var cached []LeaderboardEntry
			if err := json.Unmarshal([]byte(raw), &cached); err == nil {
				if len(cached) > limit {
					cached = cached[:limit]
				}
				return cached, nil
			}
			logger.Error("LeaderboardService: Corrupt cache entry, recomputing: %v", err)
		} else if err != redis.Nil {
			logger.Error("LeaderboardService: Cache read failed: %v", err)
		}
	}

	entries, err := s.compute(ctx)
	if err != nil {
		return nil, err
	}
	s.store(ctx, entries)

	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// Refresh recomputes the leaderboard and rewrites the cache
func (s *LeaderboardService) Refresh(ctx context.Context) error {
	entries, err := s.compute(ctx)
	if err != nil {
		return err
	}
	s.store(ctx, entries)
	logger.Info("LeaderboardService: Refreshed leaderboard with %d entries", len(entries))
	return nil
}

// Rank returns one user's position, or 0 when they hold no points yet
func (s *LeaderboardService) Rank(ctx context.Context, userID uuid.UUID) (int, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Select("points").First(&user, "id = ?", userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return 0, fmt.Errorf("user: %w", ErrNotFound)
		}
		return 0, err
	}
	if user.Points == 0 {
		return 0, nil
	}

	var ahead int64
	err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("points > ?", user.Points).
		Count(&ahead).Error
	if err != nil {
		return 0, err
	}
	return int(ahead) + 1, nil
}

func (s *LeaderboardService) compute(ctx context.Context) ([]LeaderboardEntry, error) {
	var users []models.User
	err := s.db.WithContext(ctx).
		Order("points DESC, exchanges_completed DESC, rating DESC").
		Limit(leaderboardSize).
		Find(&users).Error
	if err != nil {
		return nil, err
	}

	entries := make([]LeaderboardEntry, 0, len(users))
	for i, u := range users {
		entries = append(entries, LeaderboardEntry{
			Rank:               i + 1,
			UserID:             u.ID,
			Name:               u.Name,
			ProfilePicture:     u.ProfilePicture,
			Points:             u.Points,
			Level:              u.Level,
			Rating:             u.Rating,
			ExchangesCompleted: u.ExchangesCompleted,
		})
	}
	return entries, nil
}

func (s *LeaderboardService) store(ctx context.Context, entries []LeaderboardEntry) {
	if s.rdb == nil {
		return
	}
	raw, err := json.Marshal(entries)
	if err != nil {
		logger.Error("LeaderboardService: Failed to marshal leaderboard: %v", err)
		return
	}
	if err := s.rdb.Set(ctx, leaderboardCacheKey, raw, leaderboardCacheTTL).Err(); err != nil {
		logger.Error("LeaderboardService: Cache write failed: %v", err)
	}
}
