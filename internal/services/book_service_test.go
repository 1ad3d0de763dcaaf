package services

import (
	"context"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/bookclub-project/backend/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBookService(t *testing.T, s *testStack, rdb *redis.Client) *BookService {
	t.Helper()
	return NewBookService(s.db, rdb, s.points)
}

func testBookInput(title string) BookInput {
	return BookInput{
		Title:       title,
		Author:      "Someone",
		Genre:       "Fiction",
		Condition:   "Good",
		CoverImage:  "https://example.com/c.jpg",
		Description: "desc",
	}
}

func TestCreateBookAwardsPoints(t *testing.T) {
	s := newTestStack(t)
	books := newBookService(t, s, nil)
	ctx := context.Background()
	owner := seedUser(t, s.db, "owner")

	book, err := books.Create(ctx, owner.ID, testBookInput("New Listing"))
	require.NoError(t, err)
	assert.Equal(t, models.BookStatusAvailable, book.Status)
	assert.Equal(t, "English", book.Language)

	var stored models.User
	require.NoError(t, s.db.First(&stored, "id = ?", owner.ID).Error)
	assert.Equal(t, PointsAddBook, stored.Points)

	// Invalid genre and condition are rejected
	bad := testBookInput("Bad")
	bad.Genre = "Unknownia"
	_, err = books.Create(ctx, owner.ID, bad)
	assert.ErrorIs(t, err, ErrValidation)

	bad = testBookInput("Bad")
	bad.Condition = "Shredded"
	_, err = books.Create(ctx, owner.ID, bad)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestListBooksFiltersAndPaginates(t *testing.T) {
	s := newTestStack(t)
	books := newBookService(t, s, nil)
	ctx := context.Background()
	owner := seedUser(t, s.db, "owner")

	first := seedBook(t, s.db, owner.ID, "Go in Action")
	seedBook(t, s.db, owner.ID, "Learning Rust")
	hidden := seedBook(t, s.db, owner.ID, "Hidden Title")
	require.NoError(t, s.db.Model(hidden).Update("is_active", false).Error)

	all, err := books.List(ctx, BookListParams{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), all.Total, "inactive books are invisible")

	byTitle, err := books.List(ctx, BookListParams{Search: "rust"})
	require.NoError(t, err)
	require.Len(t, byTitle.Books, 1)
	assert.Equal(t, "Learning Rust", byTitle.Books[0].Title)

	// Pagination math
	paged, err := books.List(ctx, BookListParams{Limit: 1, Page: 2, Sort: "title"})
	require.NoError(t, err)
	assert.Equal(t, 2, paged.TotalPages)
	require.Len(t, paged.Books, 1)
	assert.Equal(t, "Learning Rust", paged.Books[0].Title)

	// Status filter
	require.NoError(t, s.db.Model(first).Update("status", models.BookStatusExchanging).Error)
	available, err := books.List(ctx, BookListParams{Status: "available"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), available.Total)
}

func TestGetBookCountsViews(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	s := newTestStack(t)
	books := newBookService(t, s, rdb)
	ctx := context.Background()
	owner := seedUser(t, s.db, "owner")
	book := seedBook(t, s.db, owner.ID, "Viewed Book")

	got, err := books.Get(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Views)

	got, err = books.Get(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.Views)

	// Counter mirrored onto the row
	var stored models.Book
	require.NoError(t, s.db.First(&stored, "id = ?", book.ID).Error)
	assert.Equal(t, int64(2), stored.Views)

	_, err = books.Get(ctx, newUUID(t))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetBookCountsViewsWithoutRedis(t *testing.T) {
	s := newTestStack(t)
	books := newBookService(t, s, nil)
	ctx := context.Background()
	owner := seedUser(t, s.db, "owner")
	book := seedBook(t, s.db, owner.ID, "Plain Book")

	got, err := books.Get(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Views)

	var stored models.Book
	require.NoError(t, s.db.First(&stored, "id = ?", book.ID).Error)
	assert.Equal(t, int64(1), stored.Views)
}

func TestUpdateBookGating(t *testing.T) {
	s := newTestStack(t)
	books := newBookService(t, s, nil)
	ctx := context.Background()
	owner := seedUser(t, s.db, "owner")
	other := seedUser(t, s.db, "other")
	book := seedBook(t, s.db, owner.ID, "Editable")

	_, err := books.Update(ctx, other.ID, book.ID, testBookInput("Hijacked"))
	assert.ErrorIs(t, err, ErrForbidden)

	updated, err := books.Update(ctx, owner.ID, book.ID, testBookInput("Renamed"))
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)

	// Mid-exchange books are frozen
	require.NoError(t, s.db.Model(book).Update("status", models.BookStatusExchanging).Error)
	_, err = books.Update(ctx, owner.ID, book.ID, testBookInput("Nope"))
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestDeleteBookBlockedByActiveExchange(t *testing.T) {
	s := newTestStack(t)
	books := newBookService(t, s, nil)
	ctx := context.Background()
	owner := seedUser(t, s.db, "owner")
	requester := seedUser(t, s.db, "requester")
	book := seedBook(t, s.db, owner.ID, "Contested")

	_, err := s.exchanges.Create(ctx, requester.ID, book.ID, "")
	require.NoError(t, err)

	err = books.Delete(ctx, owner.ID, book.ID)
	assert.ErrorIs(t, err, ErrInvalidState)

	// After the request is rejected the delete goes through
	var exchange models.Exchange
	require.NoError(t, s.db.First(&exchange, "book_id = ?", book.ID).Error)
	_, err = s.exchanges.Reject(ctx, owner.ID, exchange.ID)
	require.NoError(t, err)

	require.NoError(t, books.Delete(ctx, owner.ID, book.ID))

	var stored models.Book
	require.NoError(t, s.db.First(&stored, "id = ?", book.ID).Error)
	assert.False(t, stored.IsActive, "delete is a soft deactivate")
}

func TestListBooksExcludesOwner(t *testing.T) {
	s := newTestStack(t)
	books := newBookService(t, s, nil)
	ctx := context.Background()
	owner := seedUser(t, s.db, "owner")
	other := seedUser(t, s.db, "other")

	seedBook(t, s.db, owner.ID, "Mine")
	theirs := seedBook(t, s.db, other.ID, "Theirs")

	result, err := books.List(ctx, BookListParams{ExcludeOwnerID: &owner.ID})
	require.NoError(t, err)
	require.Equal(t, int64(1), result.Total)
	assert.Equal(t, theirs.ID, result.Books[0].ID)
}
