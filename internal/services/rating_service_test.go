package services

import (
	"context"
	"testing"

	"github.com/bookclub-project/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateValidation(t *testing.T) {
	s := newTestStack(t)
	ctx := context.Background()
	alice := seedUser(t, s.db, "alice")
	bob := seedUser(t, s.db, "bob")

	_, err := s.ratings.Rate(ctx, alice.ID, alice.ID, 5, "")
	assert.ErrorIs(t, err, ErrValidation, "self-rating")

	_, err = s.ratings.Rate(ctx, alice.ID, bob.ID, 0, "")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = s.ratings.Rate(ctx, alice.ID, bob.ID, 6, "")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = s.ratings.Rate(ctx, alice.ID, newUUID(t), 4, "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRateUpsert(t *testing.T) {
	s := newTestStack(t)
	ctx := context.Background()
	alice := seedUser(t, s.db, "alice")
	bob := seedUser(t, s.db, "bob")

	res, err := s.ratings.Rate(ctx, alice.ID, bob.ID, 4, "good")
	require.NoError(t, err)
	assert.False(t, res.Updated)
	assert.Equal(t, 1, res.TotalRatings)
	assert.InDelta(t, 4.0, res.NewAverage, 0.001)

	// Re-rating replaces in place: same count, new score
	res, err = s.ratings.Rate(ctx, alice.ID, bob.ID, 2, "changed my mind")
	require.NoError(t, err)
	assert.True(t, res.Updated)
	assert.Equal(t, 1, res.TotalRatings)
	assert.InDelta(t, 2.0, res.NewAverage, 0.001)

	var rows int64
	require.NoError(t, s.db.Model(&models.UserRating{}).
		Where("user_id = ?", bob.ID).Count(&rows).Error)
	assert.Equal(t, int64(1), rows)

	// Rater earned the +5 only once
	var alice2 models.User
	require.NoError(t, s.db.First(&alice2, "id = ?", alice.ID).Error)
	assert.Equal(t, PointsGiveRating, alice2.Points)
}

func TestRateAverageAcrossRaters(t *testing.T) {
	s := newTestStack(t)
	ctx := context.Background()
	target := seedUser(t, s.db, "target")
	r1 := seedUser(t, s.db, "rater1")
	r2 := seedUser(t, s.db, "rater2")

	_, err := s.ratings.Rate(ctx, r1.ID, target.ID, 5, "")
	require.NoError(t, err)
	res, err := s.ratings.Rate(ctx, r2.ID, target.ID, 2, "")
	require.NoError(t, err)
	assert.Equal(t, 2, res.TotalRatings)
	assert.InDelta(t, 3.5, res.NewAverage, 0.001)

	var stored models.User
	require.NoError(t, s.db.First(&stored, "id = ?", target.ID).Error)
	assert.InDelta(t, 3.5, stored.Rating, 0.001)

	// Five-star bonus landed exactly once, to the ratee
	assert.Equal(t, PointsFiveStarReceived, stored.Points)
}

func TestGetRatingBy(t *testing.T) {
	s := newTestStack(t)
	ctx := context.Background()
	alice := seedUser(t, s.db, "alice")
	bob := seedUser(t, s.db, "bob")

	rating, err := s.ratings.GetRatingBy(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Nil(t, rating)

	_, err = s.ratings.Rate(ctx, alice.ID, bob.ID, 3, "ok")
	require.NoError(t, err)

	rating, err = s.ratings.GetRatingBy(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	require.NotNil(t, rating)
	assert.Equal(t, 3, rating.Score)
	assert.Equal(t, "ok", rating.Review)
}
