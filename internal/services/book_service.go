/**
 * @description
 * Book Catalog Manager.
 * Listing, search and filtering of books, owner-gated create/update/delete,
 * and the view counter. Creating a book awards points; deleting a book with
 * an exchange in flight is blocked.
 *
 * View counts live in Redis (INCR per detail read) and are mirrored onto the
 * book row so search results can sort by popularity without a cache hit.
 *
 * @dependencies
 * - gorm.io/gorm
 * - github.com/redis/go-redis/v9
 * - backend/internal/models
 */

package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/bookclub-project/backend/internal/logger"
	"github.com/bookclub-project/backend/internal/models"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// BookService manages the book catalog
type BookService struct {
	db            *gorm.DB
	rdb           *redis.Client
	pointsService *PointsService
}

// NewBookService creates a new BookService
func NewBookService(db *gorm.DB, rdb *redis.Client, pointsService *PointsService) *BookService {
	return &BookService{
		db:            db,
		rdb:           rdb,
		pointsService: pointsService,
	}
}

// BookListParams filters and paginates the catalog listing
type BookListParams struct {
	Search         string
	Genre          string
	Condition      string
	Status         string
	OwnerID        *uuid.UUID
	ExcludeOwnerID *uuid.UUID
	Page           int
	Limit          int
	Sort           string // "newest" (default), "oldest", "popular", "title"
}

// BookListResult is one page of the catalog plus the total match count
type BookListResult struct {
	Books      []models.Book `json:"books"`
	Total      int64         `json:"total"`
	Page       int           `json:"page"`
	TotalPages int           `json:"total_pages"`
}

// List returns a filtered, paginated page of active books
func (s *BookService) List(ctx context.Context, params BookListParams) (*BookListResult, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.Limit < 1 || params.Limit > 100 {
		params.Limit = 20
	}

	q := s.db.WithContext(ctx).Model(&models.Book{}).Where("is_active = ?", true)

	if params.Search != "" {
		term := "%" + strings.ToLower(params.Search) + "%"
		q = q.Where("LOWER(title) LIKE ? OR LOWER(author) LIKE ?", term, term)
	}
	if params.Genre != "" && params.Genre != "all" {
		q = q.Where("genre = ?", params.Genre)
	}
	if params.Condition != "" && params.Condition != "all" {
		q = q.Where("condition = ?", params.Condition)
	}
	if params.Status != "" && params.Status != "all" {
		q = q.Where("status = ?", params.Status)
	}
	if params.OwnerID != nil {
		q = q.Where("owner_id = ?", *params.OwnerID)
	}
	if params.ExcludeOwnerID != nil {
		q = q.Where("owner_id <> ?", *params.ExcludeOwnerID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, err
	}

	switch params.Sort {
	case "oldest":
		q = q.Order("created_at ASC")
	case "popular":
		q = q.Order("views DESC, created_at DESC")
	case "title":
		q = q.Order("title ASC")
	default:
		q = q.Order("created_at DESC")
	}

	var books []models.Book
	err := q.Preload("Owner").
		Offset((params.Page - 1) * params.Limit).
		Limit(params.Limit).
		Find(&books).Error
	if err != nil {
		return nil, err
	}

	totalPages := int((total + int64(params.Limit) - 1) / int64(params.Limit))
	return &BookListResult{
		Books:      books,
		Total:      total,
		Page:       params.Page,
		TotalPages: totalPages,
	}, nil
}

// ListByOwner returns all of a user's books, including those mid-exchange
func (s *BookService) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Book, error) {
	var books []models.Book
	err := s.db.WithContext(ctx).
		Where("owner_id = ? AND is_active = ?", ownerID, true).
		Order("created_at DESC").
		Find(&books).Error
	if err != nil {
		return nil, err
	}
	return books, nil
}

// Get returns one book with its owner and bumps the view counter
func (s *BookService) Get(ctx context.Context, bookID uuid.UUID) (*models.Book, error) {
	var book models.Book
	err := s.db.WithContext(ctx).Preload("Owner").
		First(&book, "id = ? AND is_active = ?", bookID, true).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("book: %w", ErrNotFound)
		}
		return nil, err
	}

	book.Views = s.incrementViews(ctx, &book)
	return &book, nil
}

// incrementViews bumps the Redis counter and mirrors it onto the row.
// Falls back to a plain row increment when Redis is down.
func (s *BookService) incrementViews(ctx context.Context, book *models.Book) int64 {
	if s.rdb != nil {
		key := fmt.Sprintf("book:views:%s", book.ID)
		count, err := s.rdb.IncrBy(ctx, key, 1).Result()
		if err == nil {
			if count <= book.Views {
				// Fresh or restarted cache; seed from the row.
				count = book.Views + 1
				if err := s.rdb.Set(ctx, key, count, 0).Err(); err != nil {
					logger.Error("BookService: Failed to seed view counter: %v", err)
				}
			}
			if err := s.db.WithContext(ctx).Model(&models.Book{}).
				Where("id = ?", book.ID).
				UpdateColumn("views", count).Error; err != nil {
				logger.Error("BookService: Failed to mirror view count: %v", err)
			}
			return count
		}
		logger.Error("BookService: Redis view counter failed: %v", err)
	}

	if err := s.db.WithContext(ctx).Model(&models.Book{}).
		Where("id = ?", book.ID).
		UpdateColumn("views", gorm.Expr("views + 1")).Error; err != nil {
		logger.Error("BookService: Failed to increment views: %v", err)
		return book.Views
	}
	return book.Views + 1
}

// BookInput carries the writable fields of a book listing
type BookInput struct {
	Title         string `json:"title" validate:"required,min=1,max=200"`
	Author        string `json:"author" validate:"required,min=1,max=100"`
	Genre         string `json:"genre" validate:"required"`
	Condition     string `json:"condition" validate:"required"`
	CoverImage    string `json:"cover_image" validate:"required,url"`
	Description   string `json:"description" validate:"required,min=1,max=1000"`
	ISBN          string `json:"isbn" validate:"omitempty,max=20"`
	PublishedYear int    `json:"published_year" validate:"omitempty,min=0,max=2100"`
	Language      string `json:"language" validate:"omitempty,max=32"`
	PageCount     int    `json:"page_count" validate:"omitempty,min=0"`
}

// Create lists a new book for its owner and awards the listing points
func (s *BookService) Create(ctx context.Context, ownerID uuid.UUID, input BookInput) (*models.Book, error) {
	if !models.ValidGenre(input.Genre) {
		return nil, fmt.Errorf("unknown genre %q: %w", input.Genre, ErrValidation)
	}
	if !models.ValidCondition(input.Condition) {
		return nil, fmt.Errorf("unknown condition %q: %w", input.Condition, ErrValidation)
	}

	book := models.Book{
		Title:         input.Title,
		Author:        input.Author,
		Genre:         input.Genre,
		Condition:     input.Condition,
		CoverImage:    input.CoverImage,
		Description:   input.Description,
		ISBN:          input.ISBN,
		PublishedYear: input.PublishedYear,
		Language:      input.Language,
		PageCount:     input.PageCount,
		OwnerID:       ownerID,
		Status:        models.BookStatusAvailable,
		IsActive:      true,
	}
	if book.Language == "" {
		book.Language = "English"
	}

	if err := s.db.WithContext(ctx).Create(&book).Error; err != nil {
		return nil, err
	}

	if _, err := s.pointsService.Award(ctx, ownerID, PointsAddBook, "Added a book"); err != nil {
		logger.Error("BookService: Failed to award listing points: %v", err)
	}

	return &book, nil
}

// Update edits a listing. Owner only; books mid-exchange cannot be edited.
func (s *BookService) Update(ctx context.Context, ownerID, bookID uuid.UUID, input BookInput) (*models.Book, error) {
	var book models.Book
	if err := s.db.WithContext(ctx).First(&book, "id = ? AND is_active = ?", bookID, true).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("book: %w", ErrNotFound)
		}
		return nil, err
	}
	if book.OwnerID != ownerID {
		return nil, fmt.Errorf("only the owner can edit this book: %w", ErrForbidden)
	}
	if book.Status == models.BookStatusExchanging {
		return nil, fmt.Errorf("book has an exchange in progress: %w", ErrInvalidState)
	}
	if !models.ValidGenre(input.Genre) {
		return nil, fmt.Errorf("unknown genre %q: %w", input.Genre, ErrValidation)
	}
	if !models.ValidCondition(input.Condition) {
		return nil, fmt.Errorf("unknown condition %q: %w", input.Condition, ErrValidation)
	}

	book.Title = input.Title
	book.Author = input.Author
	book.Genre = input.Genre
	book.Condition = input.Condition
	book.CoverImage = input.CoverImage
	book.Description = input.Description
	book.ISBN = input.ISBN
	book.PublishedYear = input.PublishedYear
	book.PageCount = input.PageCount
	if input.Language != "" {
		book.Language = input.Language
	}

	if err := s.db.WithContext(ctx).Save(&book).Error; err != nil {
		return nil, err
	}
	return &book, nil
}

// Delete deactivates a listing. Owner only; blocked while any non-terminal
// exchange references the book. Rows stay behind deactivated so completed
// exchange history keeps its references.
func (s *BookService) Delete(ctx context.Context, ownerID, bookID uuid.UUID) error {
	var book models.Book
	if err := s.db.WithContext(ctx).First(&book, "id = ? AND is_active = ?", bookID, true).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fmt.Errorf("book: %w", ErrNotFound)
		}
		return err
	}
	if book.OwnerID != ownerID {
		return fmt.Errorf("only the owner can delete this book: %w", ErrForbidden)
	}

	var active int64
	err := s.db.WithContext(ctx).Model(&models.Exchange{}).
		Where("book_id = ? AND status IN ?", bookID,
			[]models.ExchangeStatus{models.ExchangeStatusPending, models.ExchangeStatusApproved}).
		Count(&active).Error
	if err != nil {
		return err
	}
	if active > 0 {
		return fmt.Errorf("book has an exchange in progress: %w", ErrInvalidState)
	}

	return s.db.WithContext(ctx).Model(&models.Book{}).
		Where("id = ?", bookID).
		Update("is_active", false).Error
}
