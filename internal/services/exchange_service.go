/**
 * @description
 * Exchange Lifecycle Manager.
 * Enforces the legal state transitions of an exchange request
 * (pending -> approved/rejected -> completed/canceled), the actor gating for
 * each transition, and the side effects: book status changes, ownership
 * transfer, counters, point awards, notifications and emails.
 *
 * Critical writes for a transition run in one transaction; email and
 * notification side effects run after commit and are best-effort.
 *
 * @dependencies
 * - gorm.io/gorm
 * - github.com/jackc/pgconn: deadlock detection for the completion retry
 * - backend/internal/models
 */

package services

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/bookclub-project/backend/internal/logger"
	"github.com/bookclub-project/backend/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"gorm.io/gorm"
)

// ExchangeService drives the exchange state machine
type ExchangeService struct {
	db                  *gorm.DB
	pointsService       *PointsService
	notificationService *NotificationService
	emailService        *EmailService
}

// NewExchangeService creates a new ExchangeService
func NewExchangeService(db *gorm.DB, pointsService *PointsService, notificationService *NotificationService, emailService *EmailService) *ExchangeService {
	return &ExchangeService{
		db:                  db,
		pointsService:       pointsService,
		notificationService: notificationService,
		emailService:        emailService,
	}
}

// Create opens a new exchange request for a book. The requester must not own
// the book, the book must be available, and the requester must not already
// hold a pending request on it. On success the book is flipped to exchanging
// and the owner is notified and emailed.
func (s *ExchangeService) Create(ctx context.Context, requesterID, bookID uuid.UUID, requestMessage string) (*models.Exchange, error) {
	var book models.Book
	if err := s.db.WithContext(ctx).First(&book, "id = ?", bookID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("book: %w", ErrNotFound)
		}
		return nil, err
	}

	if book.OwnerID == requesterID {
		return nil, fmt.Errorf("you cannot request your own book: %w", ErrValidation)
	}
	if book.Status != models.BookStatusAvailable {
		return nil, fmt.Errorf("book is not available for exchange: %w", ErrInvalidState)
	}

	// Double-request guard: one pending request per (requester, book).
	var pending int64
	if err := s.db.WithContext(ctx).Model(&models.Exchange{}).
		Where("book_id = ? AND requester_id = ? AND status = ?", bookID, requesterID, models.ExchangeStatusPending).
		Count(&pending).Error; err != nil {
		return nil, err
	}
	if pending > 0 {
		return nil, fmt.Errorf("you have already requested this book: %w", ErrValidation)
	}

	exchange := models.Exchange{
		RequesterID:    requesterID,
		OwnerID:        book.OwnerID,
		BookID:         bookID,
		Status:         models.ExchangeStatusPending,
		RequestMessage: requestMessage,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&exchange).Error; err != nil {
			return err
		}
		return tx.Model(&models.Book{}).
			Where("id = ?", bookID).
			Update("status", models.BookStatusExchanging).Error
	})
	if err != nil {
		return nil, err
	}

	// Side effects after commit, best-effort.
	if err := s.notificationService.Create(ctx, &models.Notification{
		UserID:       book.OwnerID,
		Type:         models.NotificationTypeExchangeRequest,
		Title:        "New Exchange Request",
		Message:      fmt.Sprintf("Someone wants to exchange your book %q", book.Title),
		RelatedID:    &exchange.ID,
		RelatedModel: models.RelatedExchange,
	}); err != nil {
		logger.Error("ExchangeService: Failed to create request notification: %v", err)
	}

	var requester, owner models.User
	if err := s.db.WithContext(ctx).Select("name", "email").First(&requester, "id = ?", requesterID).Error; err == nil {
		if err := s.db.WithContext(ctx).Select("name", "email").First(&owner, "id = ?", book.OwnerID).Error; err == nil {
			s.emailService.Send(owner.Email, EmailExchangeRequest, requester.Name, book.Title, owner.Name)
		}
	}

	return &exchange, nil
}

// Get returns one exchange with its participants, book and messages.
// Only the two participants may read it.
func (s *ExchangeService) Get(ctx context.Context, actorID, exchangeID uuid.UUID) (*models.Exchange, error) {
	var exchange models.Exchange
	err := s.db.WithContext(ctx).
		Preload("Requester").
		Preload("Owner").
		Preload("Book").
		Preload("Messages", "is_deleted = ?", false).
		First(&exchange, "id = ?", exchangeID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("exchange: %w", ErrNotFound)
		}
		return nil, err
	}

	if exchange.RequesterID != actorID && exchange.OwnerID != actorID {
		return nil, fmt.Errorf("access denied: %w", ErrForbidden)
	}

	return &exchange, nil
}

// List returns the exchanges a user participates in, filtered by direction
// ("sent", "received", "all") and status.
func (s *ExchangeService) List(ctx context.Context, userID uuid.UUID, direction string, status string) ([]models.Exchange, error) {
	q := s.db.WithContext(ctx).
		Preload("Requester").
		Preload("Owner").
		Preload("Book").
		Order("created_at DESC")

	switch direction {
	case "sent":
		q = q.Where("requester_id = ?", userID)
	case "received":
		q = q.Where("owner_id = ?", userID)
	default:
		q = q.Where("requester_id = ? OR owner_id = ?", userID, userID)
	}

	if status != "" && status != "all" {
		q = q.Where("status = ?", status)
	}

	var exchanges []models.Exchange
	if err := q.Find(&exchanges).Error; err != nil {
		return nil, err
	}
	return exchanges, nil
}

// load fetches the exchange and checks the actor is a participant
func (s *ExchangeService) load(ctx context.Context, actorID, exchangeID uuid.UUID) (*models.Exchange, error) {
	var exchange models.Exchange
	if err := s.db.WithContext(ctx).First(&exchange, "id = ?", exchangeID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("exchange: %w", ErrNotFound)
		}
		return nil, err
	}
	if exchange.RequesterID != actorID && exchange.OwnerID != actorID {
		return nil, fmt.Errorf("you are not a participant of this exchange: %w", ErrForbidden)
	}
	return &exchange, nil
}

// Approve moves a pending exchange to approved. Book owner only.
func (s *ExchangeService) Approve(ctx context.Context, actorID, exchangeID uuid.UUID) (*models.Exchange, error) {
	exchange, err := s.load(ctx, actorID, exchangeID)
	if err != nil {
		return nil, err
	}
	if exchange.OwnerID != actorID {
		return nil, fmt.Errorf("only the book owner can approve: %w", ErrForbidden)
	}
	if exchange.Status != models.ExchangeStatusPending {
		return nil, fmt.Errorf("only pending exchanges can be approved: %w", ErrInvalidState)
	}

	now := time.Now()
	exchange.Status = models.ExchangeStatusApproved
	exchange.ExchangeDate = &now
	if err := s.db.WithContext(ctx).Model(&models.Exchange{}).
		Where("id = ?", exchange.ID).
		Updates(map[string]interface{}{"status": exchange.Status, "exchange_date": &now}).Error; err != nil {
		return nil, err
	}

	s.notifyTransition(ctx, exchange, models.NotificationTypeExchangeApproved, "Your exchange request has been approved")
	s.emailRequester(ctx, exchange, EmailExchangeApproved)
	return exchange, nil
}

// Reject moves a pending exchange to rejected and frees the book. Book owner only.
func (s *ExchangeService) Reject(ctx context.Context, actorID, exchangeID uuid.UUID) (*models.Exchange, error) {
	exchange, err := s.load(ctx, actorID, exchangeID)
	if err != nil {
		return nil, err
	}
	if exchange.OwnerID != actorID {
		return nil, fmt.Errorf("only the book owner can reject: %w", ErrForbidden)
	}
	if exchange.Status != models.ExchangeStatusPending {
		return nil, fmt.Errorf("only pending exchanges can be rejected: %w", ErrInvalidState)
	}

	exchange.Status = models.ExchangeStatusRejected
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Exchange{}).
			Where("id = ?", exchange.ID).
			Update("status", exchange.Status).Error; err != nil {
			return err
		}
		return tx.Model(&models.Book{}).
			Where("id = ?", exchange.BookID).
			Update("status", models.BookStatusAvailable).Error
	})
	if err != nil {
		return nil, err
	}

	s.notifyTransition(ctx, exchange, models.NotificationTypeExchangeRejected, "Your exchange request has been rejected")
	s.emailRequester(ctx, exchange, EmailExchangeRejected)
	return exchange, nil
}

// Complete finishes an approved exchange. Book owner only.
// In one transaction: the exchange becomes completed, book ownership moves to
// the requester (book available again, under its new owner), and both
// participants' exchange counters increment. Points, emails and notifications
// follow after commit.
func (s *ExchangeService) Complete(ctx context.Context, actorID, exchangeID uuid.UUID) (*models.Exchange, error) {
	exchange, err := s.load(ctx, actorID, exchangeID)
	if err != nil {
		return nil, err
	}
	if exchange.OwnerID != actorID {
		return nil, fmt.Errorf("only the book owner can complete: %w", ErrForbidden)
	}
	if exchange.Status != models.ExchangeStatusApproved {
		return nil, fmt.Errorf("only approved exchanges can be completed: %w", ErrInvalidState)
	}

	now := time.Now()
	counters := map[string]interface{}{
		"total_exchanges":     gorm.Expr("total_exchanges + 1"),
		"exchanges_completed": gorm.Expr("exchanges_completed + 1"),
	}

	// The completion touches four rows; retry on deadlock/serialization failure.
	const maxRetries = 5
	for attempt := 1; attempt <= maxRetries; attempt++ {
		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Model(&models.Exchange{}).
				Where("id = ?", exchange.ID).
				Updates(map[string]interface{}{
					"status":          models.ExchangeStatusCompleted,
					"completion_date": &now,
				}).Error; err != nil {
				return err
			}
			if err := tx.Model(&models.Book{}).
				Where("id = ?", exchange.BookID).
				Updates(map[string]interface{}{
					"owner_id": exchange.RequesterID,
					"status":   models.BookStatusAvailable,
				}).Error; err != nil {
				return err
			}
			if err := tx.Model(&models.User{}).
				Where("id = ?", exchange.RequesterID).
				Updates(counters).Error; err != nil {
				return err
			}
			return tx.Model(&models.User{}).
				Where("id = ?", exchange.OwnerID).
				Updates(counters).Error
		})
		if err == nil {
			break
		}
		if pgErr, ok := err.(*pgconn.PgError); ok && (pgErr.Code == "40P01" || pgErr.Code == "40001") {
			backoff := time.Duration(attempt*100+rand.Intn(100)) * time.Millisecond
			time.Sleep(backoff)
			continue
		}
		break
	}
	if err != nil {
		return nil, fmt.Errorf("failed to complete exchange: %w", err)
	}

	exchange.Status = models.ExchangeStatusCompleted
	exchange.CompletionDate = &now

	// Point awards for both participants; a failed award is repaired by the
	// reconciliation sweep rather than rolling back the completion.
	if _, err := s.pointsService.Award(ctx, exchange.RequesterID, PointsCompleteExchange, "Exchange completed"); err != nil {
		logger.Error("ExchangeService: Failed to award requester points: %v", err)
	}
	if _, err := s.pointsService.Award(ctx, exchange.OwnerID, PointsCompleteExchange, "Exchange completed"); err != nil {
		logger.Error("ExchangeService: Failed to award owner points: %v", err)
	}

	var book models.Book
	var requester, owner models.User
	haveBook := s.db.WithContext(ctx).First(&book, "id = ?", exchange.BookID).Error == nil
	haveRequester := s.db.WithContext(ctx).First(&requester, "id = ?", exchange.RequesterID).Error == nil
	haveOwner := s.db.WithContext(ctx).First(&owner, "id = ?", exchange.OwnerID).Error == nil

	s.notifyTransition(ctx, exchange, models.NotificationTypeExchangeCompleted, "Your exchange has been completed")
	if haveBook && haveRequester {
		if err := s.notificationService.CreateOwnershipTransferred(ctx, exchange.OwnerID, book.Title, requester.Name, exchange.ID); err != nil {
			logger.Error("ExchangeService: Failed to create ownership notification: %v", err)
		}
	}
	if haveBook && haveOwner && haveRequester {
		s.emailService.Send(requester.Email, EmailOwnershipMoved, owner.Name, book.Title, "You are now the owner of this book!")
		s.emailService.Send(owner.Email, EmailOwnershipMoved, owner.Name, book.Title, "The book has been transferred to the new owner.")
	}

	logger.Info("ExchangeService: Book %s transferred from %s to %s",
		exchange.BookID, exchange.OwnerID, exchange.RequesterID)

	return exchange, nil
}

// Cancel aborts a pending or approved exchange. Either participant may cancel.
// Terminal exchanges (completed, rejected, canceled) are immutable.
func (s *ExchangeService) Cancel(ctx context.Context, actorID, exchangeID uuid.UUID) (*models.Exchange, error) {
	exchange, err := s.load(ctx, actorID, exchangeID)
	if err != nil {
		return nil, err
	}
	if exchange.Status.Terminal() {
		return nil, fmt.Errorf("%s exchanges cannot be cancelled: %w", exchange.Status, ErrInvalidState)
	}

	exchange.Status = models.ExchangeStatusCanceled
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Exchange{}).
			Where("id = ?", exchange.ID).
			Update("status", exchange.Status).Error; err != nil {
			return err
		}
		// A pending request also holds the book in exchanging; release it either way.
		return tx.Model(&models.Book{}).
			Where("id = ?", exchange.BookID).
			Update("status", models.BookStatusAvailable).Error
	})
	if err != nil {
		return nil, err
	}

	s.notifyTransition(ctx, exchange, models.NotificationTypeExchangeCanceled, "The exchange has been cancelled")
	return exchange, nil
}

// Rate records the actor's rating of the counterparty on this exchange and
// stores a snapshot on the exchange row. The authoritative rating lives in
// the user_ratings table via the rating service.
func (s *ExchangeService) Rate(ctx context.Context, ratingService *RatingService, actorID, exchangeID uuid.UUID, score int, review string) (*models.Exchange, error) {
	exchange, err := s.load(ctx, actorID, exchangeID)
	if err != nil {
		return nil, err
	}

	targetID := exchange.OwnerID
	if actorID == exchange.OwnerID {
		targetID = exchange.RequesterID
	}

	if _, err := ratingService.Rate(ctx, actorID, targetID, score, review); err != nil {
		return nil, err
	}

	// Denormalized snapshot; status is untouched.
	if err := s.db.WithContext(ctx).Model(&models.Exchange{}).
		Where("id = ?", exchange.ID).
		Updates(map[string]interface{}{
			"rating":   score,
			"review":   review,
			"rated_by": actorID,
		}).Error; err != nil {
		return nil, err
	}

	exchange.Rating = &score
	exchange.Review = review
	exchange.RatedBy = &actorID
	return exchange, nil
}

// notifyTransition sends the requester-facing lifecycle notification
func (s *ExchangeService) notifyTransition(ctx context.Context, exchange *models.Exchange, typ models.NotificationType, message string) {
	if err := s.notificationService.CreateExchangeEvent(ctx, exchange.RequesterID, typ, message, exchange.ID); err != nil {
		logger.Error("ExchangeService: Failed to create %s notification: %v", typ, err)
	}
}

// emailRequester emails the requester about an owner-triggered transition
func (s *ExchangeService) emailRequester(ctx context.Context, exchange *models.Exchange, template EmailTemplate) {
	var book models.Book
	var requester, owner models.User
	if err := s.db.WithContext(ctx).First(&book, "id = ?", exchange.BookID).Error; err != nil {
		return
	}
	if err := s.db.WithContext(ctx).Select("name", "email").First(&requester, "id = ?", exchange.RequesterID).Error; err != nil {
		return
	}
	if err := s.db.WithContext(ctx).Select("name", "email").First(&owner, "id = ?", exchange.OwnerID).Error; err != nil {
		return
	}
	s.emailService.Send(requester.Email, template, owner.Name, book.Title, requester.Name)
}
