package services

import (
	"context"
	"testing"

	"github.com/bookclub-project/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateExchange(t *testing.T) {
	s := newTestStack(t)
	ctx := context.Background()
	owner := seedUser(t, s.db, "owner")
	requester := seedUser(t, s.db, "requester")
	book := seedBook(t, s.db, owner.ID, "The Test Book")

	exchange, err := s.exchanges.Create(ctx, requester.ID, book.ID, "please?")
	require.NoError(t, err)
	assert.Equal(t, models.ExchangeStatusPending, exchange.Status)
	assert.Equal(t, owner.ID, exchange.OwnerID)
	assert.Equal(t, "please?", exchange.RequestMessage)

	// Book is now held by the request
	var stored models.Book
	require.NoError(t, s.db.First(&stored, "id = ?", book.ID).Error)
	assert.Equal(t, models.BookStatusExchanging, stored.Status)

	// Owner got notified
	var count int64
	require.NoError(t, s.db.Model(&models.Notification{}).
		Where("user_id = ? AND type = ?", owner.ID, models.NotificationTypeExchangeRequest).
		Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestCreateExchangeGuards(t *testing.T) {
	s := newTestStack(t)
	ctx := context.Background()
	owner := seedUser(t, s.db, "owner")
	requester := seedUser(t, s.db, "requester")
	other := seedUser(t, s.db, "other")
	book := seedBook(t, s.db, owner.ID, "Guarded Book")

	// Requesting your own book
	_, err := s.exchanges.Create(ctx, owner.ID, book.ID, "")
	assert.ErrorIs(t, err, ErrValidation)

	// Unknown book
	_, err = s.exchanges.Create(ctx, requester.ID, newUUID(t), "")
	assert.ErrorIs(t, err, ErrNotFound)

	// First request succeeds and flips the book
	_, err = s.exchanges.Create(ctx, requester.ID, book.ID, "")
	require.NoError(t, err)

	// Book no longer available, so anyone else is turned away
	_, err = s.exchanges.Create(ctx, other.ID, book.ID, "")
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestDuplicatePendingRequestBlocked(t *testing.T) {
	s := newTestStack(t)
	ctx := context.Background()
	owner := seedUser(t, s.db, "owner")
	requester := seedUser(t, s.db, "requester")
	book := seedBook(t, s.db, owner.ID, "Popular Book")

	_, err := s.exchanges.Create(ctx, requester.ID, book.ID, "")
	require.NoError(t, err)

	// Force the book back to available to isolate the per-requester guard
	require.NoError(t, s.db.Model(&models.Book{}).
		Where("id = ?", book.ID).
		Update("status", models.BookStatusAvailable).Error)

	_, err = s.exchanges.Create(ctx, requester.ID, book.ID, "")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestApproveGating(t *testing.T) {
	s := newTestStack(t)
	ctx := context.Background()
	owner := seedUser(t, s.db, "owner")
	requester := seedUser(t, s.db, "requester")
	stranger := seedUser(t, s.db, "stranger")
	book := seedBook(t, s.db, owner.ID, "Approvable")

	exchange, err := s.exchanges.Create(ctx, requester.ID, book.ID, "")
	require.NoError(t, err)

	// Non-participant cannot even see it
	_, err = s.exchanges.Approve(ctx, stranger.ID, exchange.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	// Requester cannot approve their own request
	_, err = s.exchanges.Approve(ctx, requester.ID, exchange.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	approved, err := s.exchanges.Approve(ctx, owner.ID, exchange.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExchangeStatusApproved, approved.Status)
	require.NotNil(t, approved.ExchangeDate)

	// Approving twice is illegal
	_, err = s.exchanges.Approve(ctx, owner.ID, exchange.ID)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestRejectRestoresBook(t *testing.T) {
	s := newTestStack(t)
	ctx := context.Background()
	owner := seedUser(t, s.db, "owner")
	requester := seedUser(t, s.db, "requester")
	book := seedBook(t, s.db, owner.ID, "Rejected Book")

	exchange, err := s.exchanges.Create(ctx, requester.ID, book.ID, "")
	require.NoError(t, err)

	rejected, err := s.exchanges.Reject(ctx, owner.ID, exchange.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExchangeStatusRejected, rejected.Status)

	var stored models.Book
	require.NoError(t, s.db.First(&stored, "id = ?", book.ID).Error)
	assert.Equal(t, models.BookStatusAvailable, stored.Status)
	assert.Equal(t, owner.ID, stored.OwnerID, "ownership must not move on reject")

	// Terminal: no further transitions
	_, err = s.exchanges.Cancel(ctx, requester.ID, exchange.ID)
	assert.ErrorIs(t, err, ErrInvalidState)
	_, err = s.exchanges.Approve(ctx, owner.ID, exchange.ID)
	assert.ErrorIs(t, err, ErrInvalidState)

	// The book can be requested again after the rejection
	_, err = s.exchanges.Create(ctx, requester.ID, book.ID, "second try")
	require.NoError(t, err)
}

func TestCompleteTransfersOwnership(t *testing.T) {
	s := newTestStack(t)
	ctx := context.Background()
	owner := seedUser(t, s.db, "owner")
	requester := seedUser(t, s.db, "requester")
	book := seedBook(t, s.db, owner.ID, "Traded Book")

	exchange, err := s.exchanges.Create(ctx, requester.ID, book.ID, "")
	require.NoError(t, err)

	// Completing before approval is illegal
	_, err = s.exchanges.Complete(ctx, owner.ID, exchange.ID)
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = s.exchanges.Approve(ctx, owner.ID, exchange.ID)
	require.NoError(t, err)

	// Only the owner can complete
	_, err = s.exchanges.Complete(ctx, requester.ID, exchange.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	completed, err := s.exchanges.Complete(ctx, owner.ID, exchange.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExchangeStatusCompleted, completed.Status)
	require.NotNil(t, completed.CompletionDate)

	// The book changed hands and is available under its new owner
	var storedBook models.Book
	require.NoError(t, s.db.First(&storedBook, "id = ?", book.ID).Error)
	assert.Equal(t, requester.ID, storedBook.OwnerID)
	assert.Equal(t, models.BookStatusAvailable, storedBook.Status)

	// Both counters moved and both got their 20 points
	for _, id := range []interface{}{owner.ID, requester.ID} {
		var u models.User
		require.NoError(t, s.db.First(&u, "id = ?", id).Error)
		assert.Equal(t, 1, u.ExchangesCompleted)
		assert.Equal(t, 1, u.TotalExchanges)
		assert.Equal(t, PointsCompleteExchange, u.Points)
	}

	// Completed is immutable
	_, err = s.exchanges.Cancel(ctx, owner.ID, exchange.ID)
	assert.ErrorIs(t, err, ErrInvalidState)
	_, err = s.exchanges.Complete(ctx, owner.ID, exchange.ID)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestCancelByEitherParticipant(t *testing.T) {
	s := newTestStack(t)
	ctx := context.Background()
	owner := seedUser(t, s.db, "owner")
	requester := seedUser(t, s.db, "requester")

	// Requester cancels a pending request
	bookA := seedBook(t, s.db, owner.ID, "Book A")
	exA, err := s.exchanges.Create(ctx, requester.ID, bookA.ID, "")
	require.NoError(t, err)
	canceled, err := s.exchanges.Cancel(ctx, requester.ID, exA.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExchangeStatusCanceled, canceled.Status)

	var storedA models.Book
	require.NoError(t, s.db.First(&storedA, "id = ?", bookA.ID).Error)
	assert.Equal(t, models.BookStatusAvailable, storedA.Status)

	// Owner cancels an approved exchange
	bookB := seedBook(t, s.db, owner.ID, "Book B")
	exB, err := s.exchanges.Create(ctx, requester.ID, bookB.ID, "")
	require.NoError(t, err)
	_, err = s.exchanges.Approve(ctx, owner.ID, exB.ID)
	require.NoError(t, err)
	_, err = s.exchanges.Cancel(ctx, owner.ID, exB.ID)
	require.NoError(t, err)

	var storedB models.Book
	require.NoError(t, s.db.First(&storedB, "id = ?", bookB.ID).Error)
	assert.Equal(t, models.BookStatusAvailable, storedB.Status)
	assert.Equal(t, owner.ID, storedB.OwnerID)
}

func TestRateSnapshotsOntoExchange(t *testing.T) {
	s := newTestStack(t)
	ctx := context.Background()
	owner := seedUser(t, s.db, "owner")
	requester := seedUser(t, s.db, "requester")
	book := seedBook(t, s.db, owner.ID, "Rated Book")

	exchange, err := s.exchanges.Create(ctx, requester.ID, book.ID, "")
	require.NoError(t, err)
	_, err = s.exchanges.Approve(ctx, owner.ID, exchange.ID)
	require.NoError(t, err)
	_, err = s.exchanges.Complete(ctx, owner.ID, exchange.ID)
	require.NoError(t, err)

	rated, err := s.exchanges.Rate(ctx, s.ratings, requester.ID, exchange.ID, 5, "great trade")
	require.NoError(t, err)
	require.NotNil(t, rated.Rating)
	assert.Equal(t, 5, *rated.Rating)
	require.NotNil(t, rated.RatedBy)
	assert.Equal(t, requester.ID, *rated.RatedBy)
	assert.Equal(t, models.ExchangeStatusCompleted, rated.Status, "rating must not change status")

	// The authoritative rating row targets the counterparty
	var rating models.UserRating
	require.NoError(t, s.db.First(&rating, "user_id = ? AND rater_id = ?", owner.ID, requester.ID).Error)
	assert.Equal(t, 5, rating.Score)

	// Counterparty's average rating updated
	var storedOwner models.User
	require.NoError(t, s.db.First(&storedOwner, "id = ?", owner.ID).Error)
	assert.InDelta(t, 5.0, storedOwner.Rating, 0.001)
}

func TestGetAndListGating(t *testing.T) {
	s := newTestStack(t)
	ctx := context.Background()
	owner := seedUser(t, s.db, "owner")
	requester := seedUser(t, s.db, "requester")
	stranger := seedUser(t, s.db, "stranger")
	book := seedBook(t, s.db, owner.ID, "Private Book")

	exchange, err := s.exchanges.Create(ctx, requester.ID, book.ID, "")
	require.NoError(t, err)

	_, err = s.exchanges.Get(ctx, stranger.ID, exchange.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	got, err := s.exchanges.Get(ctx, owner.ID, exchange.ID)
	require.NoError(t, err)
	assert.Equal(t, exchange.ID, got.ID)

	sent, err := s.exchanges.List(ctx, requester.ID, "sent", "")
	require.NoError(t, err)
	assert.Len(t, sent, 1)

	received, err := s.exchanges.List(ctx, requester.ID, "received", "")
	require.NoError(t, err)
	assert.Empty(t, received)

	pending, err := s.exchanges.List(ctx, owner.ID, "all", "pending")
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	completed, err := s.exchanges.List(ctx, owner.ID, "all", "completed")
	require.NoError(t, err)
	assert.Empty(t, completed)
}
