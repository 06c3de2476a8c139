package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/lcraddock/lexdraft/internal/auth"
	"github.com/lcraddock/lexdraft/internal/models"
	"github.com/lcraddock/lexdraft/pkg/crypto"
	apperrors "github.com/lcraddock/lexdraft/pkg/errors"
	"github.com/lcraddock/lexdraft/pkg/metrics"
)

// RegisterInput describes the fields accepted at registration.
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Role      models.UserRole
}

// TokenPair bundles the credentials issued after a successful login.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// AuthService handles registration, login and token refresh.
type AuthService struct {
	db    *gorm.DB
	jwt   *auth.JWTService
	audit *AuditService
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(db *gorm.DB, jwtService *auth.JWTService, audit *AuditService) (*AuthService, error) {
	if db == nil {
		return nil, errors.New("auth service: db is required")
	}
	if jwtService == nil {
		return nil, errors.New("auth service: jwt service is required")
	}
	return &AuthService{db: db, jwt: jwtService, audit: audit}, nil
}

// Register provisions a new user with a hashed password.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	ctx = ensureContext(ctx)

	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		return nil, apperrors.NewBadRequest("email is required")
	}
	if len(strings.TrimSpace(input.Password)) < 8 {
		return nil, apperrors.NewBadRequest("password must be at least 8 characters")
	}

	hashed, err := crypto.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("auth service: hash password: %w", err)
	}

	user := &models.User{
		Email:     email,
		Password:  hashed,
		FirstName: strings.TrimSpace(input.FirstName),
		LastName:  strings.TrimSpace(input.LastName),
		Role:      input.Role,
		IsActive:  true,
	}

	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, apperrors.NewConflict("An account with that email already exists")
		}
		return nil, fmt.Errorf("auth service: create user: %w", err)
	}

	return user, nil
}

// Login verifies credentials and issues an access/refresh token pair.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, *TokenPair, error) {
	ctx = ensureContext(ctx)

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, nil, apperrors.ErrInvalidCredentials
	}

	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			metrics.AuthAttempts.WithLabelValues("failure").Inc()
			return nil, nil, apperrors.ErrInvalidCredentials
		}
		return nil, nil, fmt.Errorf("auth service: lookup user: %w", err)
	}

	if !user.IsActive || !crypto.VerifyPassword(user.Password, password) {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		return nil, nil, apperrors.ErrInvalidCredentials
	}

	pair, err := s.issueTokens(&user)
	if err != nil {
		return nil, nil, err
	}

	metrics.AuthAttempts.WithLabelValues("success").Inc()
	return &user, pair, nil
}

// Refresh validates a refresh token and mints a fresh token pair.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*models.User, *TokenPair, error) {
	ctx = ensureContext(ctx)

	claims, err := s.jwt.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, nil, apperrors.ErrUnauthorized.WithMessage("Invalid refresh token")
	}

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", claims.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperrors.ErrUnauthorized.WithMessage("Invalid refresh token")
		}
		return nil, nil, fmt.Errorf("auth service: lookup user: %w", err)
	}
	if !user.IsActive {
		return nil, nil, apperrors.ErrUnauthorized.WithMessage("Account is disabled")
	}

	pair, err := s.issueTokens(&user)
	if err != nil {
		return nil, nil, err
	}

	return &user, pair, nil
}

// GetUser fetches a user by id.
func (s *AuthService) GetUser(ctx context.Context, id string) (*models.User, error) {
	ctx = ensureContext(ctx)

	id = normaliseID(id)
	if id == "" {
		return nil, apperrors.NewBadRequest("user id is required")
	}

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound.WithMessage("User not found")
		}
		return nil, fmt.Errorf("auth service: lookup user: %w", err)
	}

	return &user, nil
}

func (s *AuthService) issueTokens(user *models.User) (*TokenPair, error) {
	input := auth.TokenInput{
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.DisplayName(),
		Role:   string(user.Role),
	}

	access, err := s.jwt.GenerateAccessToken(input)
	if err != nil {
		return nil, fmt.Errorf("auth service: issue access token: %w", err)
	}
	refresh, err := s.jwt.GenerateRefreshToken(input)
	if err != nil {
		return nil, fmt.Errorf("auth service: issue refresh token: %w", err)
	}

	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
