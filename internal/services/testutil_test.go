package services

import (
	"testing"

	"github.com/bookclub-project/backend/internal/config"
	"github.com/bookclub-project/backend/internal/models"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// newTestDB creates an in-memory SQLite database with the full schema
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err, "failed to create test database")

	err = db.AutoMigrate(
		&models.User{},
		&models.UserRating{},
		&models.Book{},
		&models.Exchange{},
		&models.Message{},
		&models.Notification{},
		&models.ForumPost{},
		&models.ForumReply{},
		&models.ForumLike{},
	)
	require.NoError(t, err, "failed to migrate test database")

	return db
}

// newTestConfig returns a config with email sending disabled
func newTestConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Auth.JWTSecret = "test-secret"
	return cfg
}

// newUUID returns a fresh id for negative lookups
func newUUID(t *testing.T) uuid.UUID {
	t.Helper()
	return uuid.New()
}

// seedUser inserts a user with sane defaults
func seedUser(t *testing.T, db *gorm.DB, name string) *models.User {
	t.Helper()

	user := &models.User{
		ID:    uuid.New(),
		Name:  name,
		Email: name + "@example.com",
		Level: models.LevelBronze,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// seedBook inserts an available book for an owner
func seedBook(t *testing.T, db *gorm.DB, ownerID uuid.UUID, title string) *models.Book {
	t.Helper()

	book := &models.Book{
		ID:          uuid.New(),
		Title:       title,
		Author:      "Test Author",
		Genre:       "Fiction",
		Condition:   "Good",
		CoverImage:  "https://example.com/cover.jpg",
		Description: "A test book",
		OwnerID:     ownerID,
		Status:      models.BookStatusAvailable,
		IsActive:    true,
	}
	require.NoError(t, db.Create(book).Error)
	return book
}

// newTestStack wires the service graph against one test database
type testStack struct {
	db            *gorm.DB
	notifications *NotificationService
	email         *EmailService
	points        *PointsService
	ratings       *RatingService
	exchanges     *ExchangeService
}

func newTestStack(t *testing.T) *testStack {
	t.Helper()

	db := newTestDB(t)
	notifications := NewNotificationService(db)
	email := NewEmailService(newTestConfig())
	points := NewPointsService(db, notifications)
	ratings := NewRatingService(db, points, notifications, email)
	exchanges := NewExchangeService(db, points, notifications, email)

	return &testStack{
		db:            db,
		notifications: notifications,
		email:         email,
		points:        points,
		ratings:       ratings,
		exchanges:     exchanges,
	}
}
