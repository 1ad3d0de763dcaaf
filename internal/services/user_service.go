/**
 * @description
 * User Profile Service.
 * Public profile pages (user, their books, their received ratings, stats),
 * profile editing, and last-active tracking. Profile reads are cached in
 * Redis with short TTLs and invalidated on edit.
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
	"strings"
	"time"

	"github.com/bookclub-project/backend/internal/logger"
	"github.com/bookclub-project/backend/internal/models"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Cache TTLs for different data types
const (
	ProfileCacheTTL = 2 * time.Minute // Points and counters move with activity
	StatsCacheTTL   = 2 * time.Minute
)

// UserService handles public profiles and profile editing
type UserService struct {
	db    *gorm.DB
	redis *redis.Client
}

// NewUserService creates a new UserService
func NewUserService(db *gorm.DB, rdb *redis.Client) *UserService {
	return &UserService{db: db, redis: rdb}
}

// cacheKey generates a Redis cache key
func cacheKey(prefix string, id uuid.UUID) string {
	return fmt.Sprintf("user:%s:%s", prefix, id)
}

// getFromCache attempts to get data from Redis cache
func getFromCache[T any](ctx context.Context, rdb *redis.Client, key string) (*T, error) {
	if rdb == nil {
		return nil, nil
	}

	data, err := rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil // Cache miss
	}
	if err != nil {
		return nil, err
	}

	var result T
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// setInCache stores data in Redis cache with TTL
func setInCache(ctx context.Context, rdb *redis.Client, key string, data interface{}, ttl time.Duration) error {
	if rdb == nil {
		return nil
	}

	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}

	return rdb.Set(ctx, key, jsonData, ttl).Err()
}

// UserProfile is the public view of a user
type UserProfile struct {
	User    models.User         `json:"user"`
	Books   []models.Book       `json:"books"`
	Ratings []models.UserRating `json:"ratings"`
	Stats   *UserStats          `json:"stats,omitempty"`
}

// UserStats summarizes a user's activity
type UserStats struct {
	BooksListed        int64   `json:"books_listed"`
	ExchangesCompleted int     `json:"exchanges_completed"`
	TotalExchanges     int     `json:"total_exchanges"`
	RatingsReceived    int64   `json:"ratings_received"`
	RatingsGiven       int64   `json:"ratings_given"`
	AverageRating      float64 `json:"average_rating"`
	Points             int     `json:"points"`
	Level              string  `json:"level"`
	MemberSince        string  `json:"member_since"`
}

// GetProfile fetches a user's public profile with their books and ratings
func (s *UserService) GetProfile(ctx context.Context, userID uuid.UUID) (*UserProfile, error) {
	key := cacheKey("profile", userID)
	cached, err := getFromCache[UserProfile](ctx, s.redis, key)
	if err != nil {
		logger.Error("UserService: Cache error: %v", err)
	}
	if cached != nil {
		return cached, nil
	}

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("user: %w", ErrNotFound)
		}
		return nil, err
	}
	user.PasswordHash = ""

	var books []models.Book
	if err := s.db.WithContext(ctx).
		Where("owner_id = ? AND is_active = ?", userID, true).
		Order("created_at DESC").
		Find(&books).Error; err != nil {
		return nil, err
	}

	var ratings []models.UserRating
	if err := s.db.WithContext(ctx).
		Preload("Rater").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(50).
		Find(&ratings).Error; err != nil {
		return nil, err
	}

	stats, err := s.GetStats(ctx, userID)
	if err != nil {
		logger.Error("UserService: Failed to compute stats: %v", err)
	}

	profile := &UserProfile{
		User:    user,
		Books:   books,
		Ratings: ratings,
		Stats:   stats,
	}

	if err := setInCache(ctx, s.redis, key, profile, ProfileCacheTTL); err != nil {
		logger.Error("UserService: Failed to cache profile: %v", err)
	}

	return profile, nil
}

// MemberListResult is one page of the community member directory
type MemberListResult struct {
	Users      []models.User `json:"users"`
	Total      int64         `json:"total"`
	Page       int           `json:"page"`
	TotalPages int           `json:"total_pages"`
}

// ListMembers returns the member directory, most points first.
// Password hashes are stripped before the rows leave the service.
func (s *UserService) ListMembers(ctx context.Context, search string, page, limit int) (*MemberListResult, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	q := s.db.WithContext(ctx).Model(&models.User{})
	if search != "" {
		term := "%" + strings.ToLower(search) + "%"
		q = q.Where("LOWER(name) LIKE ?", term)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, err
	}

	var users []models.User
	if err := q.Order("points DESC, created_at ASC").
		Limit(limit).Offset((page - 1) * limit).
		Find(&users).Error; err != nil {
		return nil, err
	}
	for i := range users {
		users[i].PasswordHash = ""
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return &MemberListResult{Users: users, Total: total, Page: page, TotalPages: totalPages}, nil
}

// GetStats computes a user's activity summary
func (s *UserService) GetStats(ctx context.Context, userID uuid.UUID) (*UserStats, error) {
	key := cacheKey("stats", userID)
	cached, err := getFromCache[UserStats](ctx, s.redis, key)
	if err != nil {
		logger.Error("UserService: Stats cache error: %v", err)
	}
	if cached != nil {
		return cached, nil
	}

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("user: %w", ErrNotFound)
		}
		return nil, err
	}

	stats := &UserStats{
		ExchangesCompleted: user.ExchangesCompleted,
		TotalExchanges:     user.TotalExchanges,
		AverageRating:      user.Rating,
		Points:             user.Points,
		Level:              string(user.Level),
		MemberSince:        user.CreatedAt.Format("2006-01-02"),
	}

	if err := s.db.WithContext(ctx).Model(&models.Book{}).
		Where("owner_id = ? AND is_active = ?", userID, true).
		Count(&stats.BooksListed).Error; err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(&models.UserRating{}).
		Where("user_id = ?", userID).
		Count(&stats.RatingsReceived).Error; err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(&models.UserRating{}).
		Where("rater_id = ?", userID).
		Count(&stats.RatingsGiven).Error; err != nil {
		return nil, err
	}

	if err := setInCache(ctx, s.redis, key, stats, StatsCacheTTL); err != nil {
		logger.Error("UserService: Failed to cache stats: %v", err)
	}

	return stats, nil
}

// ProfileInput carries the editable profile fields
type ProfileInput struct {
	Name           string `json:"name" validate:"required,min=1,max=100"`
	Location       string `json:"location" validate:"omitempty,max=100"`
	Bio            string `json:"bio" validate:"omitempty,max=500"`
	ProfilePicture string `json:"profile_picture" validate:"omitempty,url"`
}

// UpdateProfile edits the caller's own profile and drops the cached copy
func (s *UserService) UpdateProfile(ctx context.Context, userID uuid.UUID, input ProfileInput) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("user: %w", ErrNotFound)
		}
		return nil, err
	}

	user.Name = input.Name
	user.Location = input.Location
	user.Bio = input.Bio
	if input.ProfilePicture != "" {
		user.ProfilePicture = input.ProfilePicture
	}

	if err := s.db.WithContext(ctx).Save(&user).Error; err != nil {
		return nil, err
	}

	s.invalidate(ctx, userID)
	user.PasswordHash = ""
	return &user, nil
}

// TouchLastActive records activity. Called on login, so it must never fail
// the request.
func (s *UserService) TouchLastActive(ctx context.Context, userID uuid.UUID) {
	if err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		UpdateColumn("last_active", time.Now()).Error; err != nil {
		logger.Error("UserService: Failed to touch last_active: %v", err)
	}
}

func (s *UserService) invalidate(ctx context.Context, userID uuid.UUID) {
	if s.redis == nil {
		return
	}
	if err := s.redis.Del(ctx, cacheKey("profile", userID), cacheKey("stats", userID)).Err(); err != nil {
		logger.Error("UserService: Cache invalidation failed: %v", err)
	}
}
