package services

import (
	"context"
	"strings"
	"testing"

	"github.com/bookclub-project/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chatFixture(t *testing.T) (*testStack, *ChatService, *models.User, *models.User, *models.Exchange) {
	t.Helper()
	s := newTestStack(t)
	chat := NewChatService(s.db, s.notifications, s.email)

	owner := seedUser(t, s.db, "owner")
	requester := seedUser(t, s.db, "requester")
	book := seedBook(t, s.db, owner.ID, "Chat Book")
	exchange, err := s.exchanges.Create(context.Background(), requester.ID, book.ID, "")
	require.NoError(t, err)

	return s, chat, owner, requester, exchange
}

func TestSendMessage(t *testing.T) {
	s, chat, owner, requester, exchange := chatFixture(t)
	ctx := context.Background()

	msg, err := chat.Send(ctx, requester.ID, exchange.ID, models.MessageTypeText, "hello", "")
	require.NoError(t, err)
	assert.Equal(t, owner.ID, msg.ReceiverID)
	assert.False(t, msg.IsRead)

	// Receiver gets a notification
	var count int64
	require.NoError(t, s.db.Model(&models.Notification{}).
		Where("user_id = ? AND type = ?", owner.ID, models.NotificationTypeNewMessage).
		Count(&count).Error)
	assert.Equal(t, int64(1), count)

	// Outsiders cannot post
	stranger := seedUser(t, s.db, "stranger")
	_, err = chat.Send(ctx, stranger.ID, exchange.ID, models.MessageTypeText, "hi", "")
	assert.ErrorIs(t, err, ErrForbidden)

	// Payload validation
	_, err = chat.Send(ctx, owner.ID, exchange.ID, models.MessageTypeText, "", "")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = chat.Send(ctx, owner.ID, exchange.ID, models.MessageTypeImage, "", "")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = chat.Send(ctx, owner.ID, exchange.ID, models.MessageTypeSystem, "x", "")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestChatClosedAfterRejection(t *testing.T) {
	s, chat, owner, requester, exchange := chatFixture(t)
	ctx := context.Background()

	_, err := s.exchanges.Reject(ctx, owner.ID, exchange.ID)
	require.NoError(t, err)

	_, err = chat.Send(ctx, requester.ID, exchange.ID, models.MessageTypeText, "wait", "")
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestChatStaysOpenAfterCompletion(t *testing.T) {
	s, chat, owner, requester, exchange := chatFixture(t)
	ctx := context.Background()

	_, err := s.exchanges.Approve(ctx, owner.ID, exchange.ID)
	require.NoError(t, err)
	_, err = s.exchanges.Complete(ctx, owner.ID, exchange.ID)
	require.NoError(t, err)

	_, err = chat.Send(ctx, requester.ID, exchange.ID, models.MessageTypeText, "thanks for the book", "")
	require.NoError(t, err)
}

func TestHistoryMarksRead(t *testing.T) {
	_, chat, owner, requester, exchange := chatFixture(t)
	ctx := context.Background()

	_, err := chat.Send(ctx, requester.ID, exchange.ID, models.MessageTypeText, "one", "")
	require.NoError(t, err)
	_, err = chat.Send(ctx, requester.ID, exchange.ID, models.MessageTypeText, "two", "")
	require.NoError(t, err)

	unread, err := chat.UnreadCount(ctx, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), unread)

	messages, err := chat.History(ctx, owner.ID, exchange.ID)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "one", messages[0].Content, "oldest first")

	unread, err = chat.UnreadCount(ctx, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), unread)

	// Sender's own unread count was never affected
	unread, err = chat.UnreadCount(ctx, requester.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), unread)
}

func TestDeleteMessage(t *testing.T) {
	s, chat, owner, requester, exchange := chatFixture(t)
	ctx := context.Background()
	_ = s

	msg, err := chat.Send(ctx, requester.ID, exchange.ID, models.MessageTypeText, "oops", "")
	require.NoError(t, err)

	// Only the sender may delete
	err = chat.Delete(ctx, owner.ID, msg.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	require.NoError(t, chat.Delete(ctx, requester.ID, msg.ID))

	// Deleted messages vanish from history
	messages, err := chat.History(ctx, owner.ID, exchange.ID)
	require.NoError(t, err)
	assert.Empty(t, messages)

	// Double delete reports not found
	err = chat.Delete(ctx, requester.ID, msg.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSendMessageEmailNamesReceiverAndBook(t *testing.T) {
	s := newTestStack(t)
	cfg := newTestConfig()
	cfg.Email.From = "club@example.com"
	dialer := &fakeDialer{}
	email := &EmailService{cfg: cfg, dialer: dialer}
	chat := NewChatService(s.db, s.notifications, email)
	ctx := context.Background()

	owner := seedUser(t, s.db, "owner")
	requester := seedUser(t, s.db, "requester")
	book := seedBook(t, s.db, owner.ID, "Chat Book")
	exchange, err := s.exchanges.Create(ctx, requester.ID, book.ID, "")
	require.NoError(t, err)

	_, err = chat.Send(ctx, requester.ID, exchange.ID, models.MessageTypeText, "hello", "")
	require.NoError(t, err)

	require.Len(t, dialer.sent, 1)
	m := dialer.sent[0]
	assert.Equal(t, []string{owner.Email}, m.GetHeader("To"))

	var body strings.Builder
	_, err = m.WriteTo(&body)
	require.NoError(t, err)
	assert.Contains(t, body.String(), "Hello "+owner.Name)
	assert.Contains(t, body.String(), requester.Name)
	assert.Contains(t, body.String(), "Chat Book")
}
