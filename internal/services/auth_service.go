/**
 * @description
 * Authentication Service.
 * Local registration and login with bcrypt password hashes and HS256 JWTs,
 * plus Google sign-in: a Google ID token verified against Google's JWKS is
 * exchanged for a local session token, creating the account on first visit.
 *
 * @dependencies
 * - golang.org/x/crypto/bcrypt
 * - github.com/golang-jwt/jwt/v5
 * - github.com/MicahParks/keyfunc/v2: Google JWKS fetching and caching
 * - gorm.io/gorm
 */

package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/bookclub-project/backend/internal/config"
	"github.com/bookclub-project/backend/internal/logger"
	"github.com/bookclub-project/backend/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const sessionTokenTTL = 7 * 24 * time.Hour

// AuthService handles registration, login and Google sign-in
type AuthService struct {
	db          *gorm.DB
	cfg         *config.Config
	userService *UserService
	googleJWKS  *keyfunc.JWKS
}

// NewAuthService creates an AuthService. The Google JWKS cache is optional;
// without it Google sign-in is rejected but local auth still works.
func NewAuthService(db *gorm.DB, cfg *config.Config, userService *UserService) (*AuthService, error) {
	s := &AuthService{db: db, cfg: cfg, userService: userService}

	if cfg.Auth.GoogleJWKSURL != "" {
		jwks, err := keyfunc.Get(cfg.Auth.GoogleJWKSURL, keyfunc.Options{
			RefreshInterval: time.Hour,
			RefreshErrorHandler: func(err error) {
				logger.Error("There was an error with the JWKS refresh: %v", err)
			},
		})
		if err != nil {
			return nil, fmt.Errorf("google jwks: %w", err)
		}
		s.googleJWKS = jwks
		logger.Info("✅ Google sign-in enabled via JWKS")
	} else {
		logger.Info("⚠️ Warning: GOOGLE_JWKS_URL is empty. Google sign-in is disabled.")
	}

	return s, nil
}

// AuthResult is a signed session plus its user
type AuthResult struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

// Register creates a local account and signs the first session token
func (s *AuthService) Register(ctx context.Context, name, email, password string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" || email == "" {
		return nil, fmt.Errorf("name and email are required: %w", ErrValidation)
	}
	if len(password) < 8 {
		return nil, fmt.Errorf("password must be at least 8 characters: %w", ErrValidation)
	}

	var existing int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("email = ?", email).Count(&existing).Error; err != nil {
		return nil, err
	}
	if existing > 0 {
		return nil, fmt.Errorf("email already registered: %w", ErrValidation)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := models.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Level:        models.LevelBronze,
		LastActive:   time.Now(),
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, err
	}

	return s.session(&user)
}

// Login verifies a local password and signs a session token
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "email = ?", email).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("invalid email or password: %w", ErrUnauthorized)
		}
		return nil, err
	}
	if user.PasswordHash == "" {
		// Google-only account
		return nil, fmt.Errorf("this account signs in with Google: %w", ErrUnauthorized)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, fmt.Errorf("invalid email or password: %w", ErrUnauthorized)
	}

	s.userService.TouchLastActive(ctx, user.ID)
	user.LastActive = time.Now()
	return s.session(&user)
}

// GoogleSignIn verifies a Google ID token and signs a local session token,
// creating the account on first sign-in.
func (s *AuthService) GoogleSignIn(ctx context.Context, idToken string) (*AuthResult, error) {
	if s.googleJWKS == nil {
		return nil, fmt.Errorf("google sign-in is not configured: %w", ErrUnauthorized)
	}

	token, err := jwt.Parse(idToken, s.googleJWKS.Keyfunc,
		jwt.WithIssuer(s.cfg.Auth.GoogleIssuer),
		jwt.WithAudience(s.cfg.Auth.GoogleAud),
		jwt.WithValidMethods([]string{"RS256"}),
	)
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid google token: %w", ErrUnauthorized)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("invalid google token claims: %w", ErrUnauthorized)
	}

	email, _ := claims["email"].(string)
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, fmt.Errorf("google token missing email: %w", ErrUnauthorized)
	}
	name, _ := claims["name"].(string)
	picture, _ := claims["picture"].(string)

	var user models.User
	err = s.db.WithContext(ctx).First(&user, "email = ?", email).Error
	switch err {
	case nil:
		// Existing account; mark the link if this is their first Google sign-in.
		if !user.IsGoogleUser {
			if err := s.db.WithContext(ctx).Model(&user).
				Update("is_google_user", true).Error; err != nil {
				return nil, err
			}
			user.IsGoogleUser = true
		}
		s.userService.TouchLastActive(ctx, user.ID)
		user.LastActive = time.Now()
	case gorm.ErrRecordNotFound:
		if name == "" {
			name = strings.SplitN(email, "@", 2)[0]
		}
		user = models.User{
			Name:           name,
			Email:          email,
			IsGoogleUser:   true,
			ProfilePicture: picture,
			Level:          models.LevelBronze,
			LastActive:     time.Now(),
		}
		if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
			return nil, err
		}
		logger.Info("AuthService: Created account for google user %s", user.ID)
	default:
		return nil, err
	}

	return s.session(&user)
}

// Me returns the authenticated user's own record
func (s *AuthService) Me(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("user: %w", ErrNotFound)
		}
		return nil, err
	}
	user.PasswordHash = ""
	return &user, nil
}

// session signs an HS256 token for the user
func (s *AuthService) session(user *models.User) (*AuthResult, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   user.ID.String(),
		"email": user.Email,
		"iat":   now.Unix(),
		"exp":   now.Add(sessionTokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.Auth.JWTSecret))
	if err != nil {
		return nil, fmt.Errorf("sign session token: %w", err)
	}

	out := *user
	out.PasswordHash = ""
	return &AuthResult{Token: signed, User: out}, nil
}
