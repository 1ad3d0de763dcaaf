package services

import (
	"context"
	"testing"
	"time"

	"github.com/bookclub-project/backend/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthService(t *testing.T) (*AuthService, *testStack) {
	t.Helper()
	s := newTestStack(t)
	auth, err := NewAuthService(s.db, newTestConfig(), NewUserService(s.db, nil))
	require.NoError(t, err)
	return auth, s
}

func TestRegisterAndLogin(t *testing.T) {
	auth, _ := newAuthService(t)
	ctx := context.Background()

	res, err := auth.Register(ctx, "Alice", "Alice@Example.com", "s3cret-password")
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, "alice@example.com", res.User.Email, "email normalized")
	assert.Empty(t, res.User.PasswordHash, "hash never leaves the service")

	// The session token carries the user id and verifies with the secret
	token, err := jwt.Parse(res.Token, func(tk *jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	require.NoError(t, err)
	claims := token.Claims.(jwt.MapClaims)
	assert.Equal(t, res.User.ID.String(), claims["sub"])

	// Login succeeds with the right password, case-insensitive email
	login, err := auth.Login(ctx, "ALICE@example.com", "s3cret-password")
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, login.User.ID)

	_, err = auth.Login(ctx, "alice@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = auth.Login(ctx, "nobody@example.com", "whatever")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestRegisterValidation(t *testing.T) {
	auth, _ := newAuthService(t)
	ctx := context.Background()

	_, err := auth.Register(ctx, "", "a@example.com", "longenough")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = auth.Register(ctx, "A", "a@example.com", "short")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = auth.Register(ctx, "A", "dup@example.com", "longenough")
	require.NoError(t, err)
	_, err = auth.Register(ctx, "B", "DUP@example.com", "longenough")
	assert.ErrorIs(t, err, ErrValidation, "duplicate email")
}

func TestGoogleSignInDisabled(t *testing.T) {
	auth, _ := newAuthService(t)
	_, err := auth.GoogleSignIn(context.Background(), "some-token")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestMe(t *testing.T) {
	auth, s := newAuthService(t)
	ctx := context.Background()

	res, err := auth.Register(ctx, "Alice", "alice@example.com", "s3cret-password")
	require.NoError(t, err)

	me, err := auth.Me(ctx, res.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice", me.Name)
	assert.Empty(t, me.PasswordHash)

	_, err = auth.Me(ctx, newUUID(t))
	assert.ErrorIs(t, err, ErrNotFound)

	// A stored hash exists even though it is never returned
	var raw struct{ PasswordHash string }
	require.NoError(t, s.db.Table("users").Select("password_hash").
		Where("id = ?", res.User.ID).Scan(&raw).Error)
	assert.NotEmpty(t, raw.PasswordHash)
}

func TestLoginRefreshesLastActive(t *testing.T) {
	auth, s := newAuthService(t)
	ctx := context.Background()

	res, err := auth.Register(ctx, "Alice", "alice@example.com", "s3cret-password")
	require.NoError(t, err)

	// Backdate the activity marker, then log in again
	stale := time.Now().Add(-48 * time.Hour)
	require.NoError(t, s.db.Model(&models.User{}).
		Where("id = ?", res.User.ID).
		UpdateColumn("last_active", stale).Error)

	login, err := auth.Login(ctx, "alice@example.com", "s3cret-password")
	require.NoError(t, err)
	assert.True(t, login.User.LastActive.After(stale))

	var user models.User
	require.NoError(t, s.db.First(&user, "id = ?", res.User.ID).Error)
	assert.True(t, user.LastActive.After(stale.Add(time.Hour)), "login refreshes last_active")
}
