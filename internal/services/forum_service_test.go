package services

import (
	"context"
	"testing"
	"time"

	"github.com/bookclub-project/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatePostAwardsPoints(t *testing.T) {
	s := newTestStack(t)
	forum := NewForumService(s.db, s.points)
	ctx := context.Background()
	author := seedUser(t, s.db, "author")

	post, err := forum.CreatePost(ctx, author.ID, "Favorite sci-fi?", "Looking for recs", "")
	require.NoError(t, err)
	assert.Equal(t, "general", post.Category, "empty category defaults")
	assert.False(t, post.LastActivity.IsZero())

	var stored models.User
	require.NoError(t, s.db.First(&stored, "id = ?", author.ID).Error)
	assert.Equal(t, PointsCreateForumPost, stored.Points)

	_, err = forum.CreatePost(ctx, author.ID, "", "content", "general")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = forum.CreatePost(ctx, author.ID, "title", "content", "nonsense-category")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestReplyBumpsActivityAndAwards(t *testing.T) {
	s := newTestStack(t)
	forum := NewForumService(s.db, s.points)
	ctx := context.Background()
	author := seedUser(t, s.db, "author")
	replier := seedUser(t, s.db, "replier")

	post, err := forum.CreatePost(ctx, author.ID, "Thread", "body", "reviews")
	require.NoError(t, err)

	// Backdate activity to observe the bump
	old := time.Now().Add(-time.Hour)
	require.NoError(t, s.db.Model(post).Update("last_activity", old).Error)

	reply, err := forum.Reply(ctx, replier.ID, post.ID, "me too")
	require.NoError(t, err)
	assert.Equal(t, post.ID, reply.PostID)

	var stored models.ForumPost
	require.NoError(t, s.db.First(&stored, "id = ?", post.ID).Error)
	assert.True(t, stored.LastActivity.After(old))

	var replierStored models.User
	require.NoError(t, s.db.First(&replierStored, "id = ?", replier.ID).Error)
	assert.Equal(t, PointsReplyForumPost, replierStored.Points)

	// Locked threads refuse replies
	require.NoError(t, s.db.Model(post).Update("is_locked", true).Error)
	_, err = forum.Reply(ctx, replier.ID, post.ID, "too late")
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = forum.Reply(ctx, replier.ID, newUUID(t), "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestToggleLike(t *testing.T) {
	s := newTestStack(t)
	forum := NewForumService(s.db, s.points)
	ctx := context.Background()
	author := seedUser(t, s.db, "author")
	fan := seedUser(t, s.db, "fan")

	post, err := forum.CreatePost(ctx, author.ID, "Likeable", "body", "general")
	require.NoError(t, err)

	liked, count, err := forum.ToggleLike(ctx, fan.ID, post.ID)
	require.NoError(t, err)
	assert.True(t, liked)
	assert.Equal(t, int64(1), count)

	liked, count, err = forum.ToggleLike(ctx, fan.ID, post.ID)
	require.NoError(t, err)
	assert.False(t, liked)
	assert.Equal(t, int64(0), count)
}

func TestListPostsPinnedFirst(t *testing.T) {
	s := newTestStack(t)
	forum := NewForumService(s.db, s.points)
	ctx := context.Background()
	author := seedUser(t, s.db, "author")

	older, err := forum.CreatePost(ctx, author.ID, "Older", "body", "general")
	require.NoError(t, err)
	_, err = forum.CreatePost(ctx, author.ID, "Newer", "body", "reviews")
	require.NoError(t, err)
	require.NoError(t, s.db.Model(older).Updates(map[string]interface{}{
		"is_pinned":     true,
		"last_activity": time.Now().Add(-time.Hour),
	}).Error)

	result, err := forum.ListPosts(ctx, ForumListParams{})
	require.NoError(t, err)
	require.Len(t, result.Posts, 2)
	assert.Equal(t, "Older", result.Posts[0].Title, "pinned outranks recency")

	filtered, err := forum.ListPosts(ctx, ForumListParams{Category: "reviews"})
	require.NoError(t, err)
	require.Len(t, filtered.Posts, 1)
	assert.Equal(t, "Newer", filtered.Posts[0].Title)
}

func TestGetPostBumpsViews(t *testing.T) {
	s := newTestStack(t)
	forum := NewForumService(s.db, s.points)
	ctx := context.Background()
	author := seedUser(t, s.db, "author")

	post, err := forum.CreatePost(ctx, author.ID, "Viewed", "body", "general")
	require.NoError(t, err)

	got, err := forum.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Views)

	got, err = forum.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.Views)
}

func TestDeletePostCascades(t *testing.T) {
	s := newTestStack(t)
	forum := NewForumService(s.db, s.points)
	ctx := context.Background()
	author := seedUser(t, s.db, "author")
	other := seedUser(t, s.db, "other")

	post, err := forum.CreatePost(ctx, author.ID, "Doomed", "body", "general")
	require.NoError(t, err)
	_, err = forum.Reply(ctx, other.ID, post.ID, "reply")
	require.NoError(t, err)
	_, _, err = forum.ToggleLike(ctx, other.ID, post.ID)
	require.NoError(t, err)

	err = forum.DeletePost(ctx, other.ID, post.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	require.NoError(t, forum.DeletePost(ctx, author.ID, post.ID))

	var replies, likes int64
	require.NoError(t, s.db.Model(&models.ForumReply{}).Where("post_id = ?", post.ID).Count(&replies).Error)
	require.NoError(t, s.db.Model(&models.ForumLike{}).Where("post_id = ?", post.ID).Count(&likes).Error)
	assert.Zero(t, replies)
	assert.Zero(t, likes)
}
