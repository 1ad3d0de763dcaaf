/**
 * @description
 * Exchange Chat Manager.
 * Exchange-scoped messaging between the two participants: send text/image
 * messages, read the history, mark messages read, soft-delete own messages,
 * and count unread messages across all of a user's exchanges.
 *
 * Chat stays open through completion so participants can coordinate handoff,
 * but closes for new messages on rejected and canceled exchanges.
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

// ChatService manages exchange-scoped messaging
type ChatService struct {
	db                  *gorm.DB
	notificationService *NotificationService
	emailService        *EmailService
}

// NewChatService creates a new ChatService
func NewChatService(db *gorm.DB, notificationService *NotificationService, emailService *EmailService) *ChatService {
	return &ChatService{
		db:                  db,
		notificationService: notificationService,
		emailService:        emailService,
	}
}

// participants loads the exchange and checks the actor belongs to it
func (s *ChatService) participants(ctx context.Context, actorID, exchangeID uuid.UUID) (*models.Exchange, error) {
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

// Send posts a message into an exchange chat. Participants only; the chat
// stays open through completion and closes for rejected and canceled
// exchanges. The receiver gets a notification and an email, both best-effort.
func (s *ChatService) Send(ctx context.Context, senderID, exchangeID uuid.UUID, msgType models.MessageType, content, imageURL string) (*models.Message, error) {
	exchange, err := s.participants(ctx, senderID, exchangeID)
	if err != nil {
		return nil, err
	}
	if exchange.Status.Terminal() && exchange.Status != models.ExchangeStatusCompleted {
		return nil, fmt.Errorf("chat is closed for %s exchanges: %w", exchange.Status, ErrInvalidState)
	}

	switch msgType {
	case models.MessageTypeText:
		if content == "" {
			return nil, fmt.Errorf("text messages need content: %w", ErrValidation)
		}
	case models.MessageTypeImage:
		if imageURL == "" {
			return nil, fmt.Errorf("image messages need an image URL: %w", ErrValidation)
		}
	case models.MessageTypeSystem:
		return nil, fmt.Errorf("system messages cannot be sent by users: %w", ErrValidation)
	default:
		return nil, fmt.Errorf("unknown message type %q: %w", msgType, ErrValidation)
	}
	if len(content) > 1000 {
		return nil, fmt.Errorf("message too long: %w", ErrValidation)
	}

	receiverID := exchange.OwnerID
	if senderID == exchange.OwnerID {
		receiverID = exchange.RequesterID
	}

	message := models.Message{
		ExchangeID: exchangeID,
		SenderID:   senderID,
		ReceiverID: receiverID,
		Type:       msgType,
		Content:    content,
		ImageURL:   imageURL,
	}
	if err := s.db.WithContext(ctx).Create(&message).Error; err != nil {
		return nil, err
	}

	var sender models.User
	if err := s.db.WithContext(ctx).Select("name").First(&sender, "id = ?", senderID).Error; err == nil {
		if err := s.notificationService.CreateNewMessage(ctx, receiverID, sender.Name, exchangeID); err != nil {
			logger.Error("ChatService: Failed to create message notification: %v", err)
		}
		var receiver models.User
		if err := s.db.WithContext(ctx).Select("name", "email").First(&receiver, "id = ?", receiverID).Error; err == nil {
			var book models.Book
			if err := s.db.WithContext(ctx).Select("title").First(&book, "id = ?", exchange.BookID).Error; err != nil {
				logger.Error("ChatService: Failed to load book for message email: %v", err)
			}
			s.emailService.Send(receiver.Email, EmailNewMessage, sender.Name, receiver.Name, book.Title)
		}
	}

	return &message, nil
}

// History returns the messages of an exchange, oldest first, hiding deleted
// ones. Reading the history marks the actor's incoming messages read.
func (s *ChatService) History(ctx context.Context, actorID, exchangeID uuid.UUID) ([]models.Message, error) {
	if _, err := s.participants(ctx, actorID, exchangeID); err != nil {
		return nil, err
	}

	var messages []models.Message
	err := s.db.WithContext(ctx).
		Preload("Sender").
		Where("exchange_id = ? AND is_deleted = ?", exchangeID, false).
		Order("created_at ASC").
		Find(&messages).Error
	if err != nil {
		return nil, err
	}

	if err := s.markRead(ctx, actorID, exchangeID); err != nil {
		logger.Error("ChatService: Failed to mark messages read: %v", err)
	}

	return messages, nil
}

// markRead flags the actor's unread incoming messages in one exchange
func (s *ChatService) markRead(ctx context.Context, actorID, exchangeID uuid.UUID) error {
	now := time.Now()
	return s.db.WithContext(ctx).Model(&models.Message{}).
		Where("exchange_id = ? AND receiver_id = ? AND is_read = ?", exchangeID, actorID, false).
		Updates(map[string]interface{}{"is_read": true, "read_at": &now}).Error
}

// MarkRead flags the actor's unread incoming messages in one exchange
func (s *ChatService) MarkRead(ctx context.Context, actorID, exchangeID uuid.UUID) error {
	if _, err := s.participants(ctx, actorID, exchangeID); err != nil {
		return err
	}
	return s.markRead(ctx, actorID, exchangeID)
}

// Delete soft-deletes a message. Sender only.
func (s *ChatService) Delete(ctx context.Context, actorID, messageID uuid.UUID) error {
	var message models.Message
	if err := s.db.WithContext(ctx).First(&message, "id = ? AND is_deleted = ?", messageID, false).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fmt.Errorf("message: %w", ErrNotFound)
		}
		return err
	}
	if message.SenderID != actorID {
		return fmt.Errorf("only the sender can delete a message: %w", ErrForbidden)
	}

	now := time.Now()
	return s.db.WithContext(ctx).Model(&models.Message{}).
		Where("id = ?", messageID).
		Updates(map[string]interface{}{"is_deleted": true, "deleted_at": &now}).Error
}

// UnreadCount returns the actor's unread message count across all exchanges
func (s *ChatService) UnreadCount(ctx context.Context, actorID uuid.UUID) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Message{}).
		Where("receiver_id = ? AND is_read = ? AND is_deleted = ?", actorID, false, false).
		Count(&count).Error
	return count, err
}
