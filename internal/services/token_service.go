package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/ahmetcoskunkizilkaya/drink-counter/internal/config"
	"github.com/ahmetcoskunkizilkaya/drink-counter/internal/dto"
	"github.com/ahmetcoskunkizilkaya/drink-counter/internal/models"
	"github.com/ahmetcoskunkizilkaya/drink-counter/internal/repository"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid or expired refresh token")

// TokenService mints HS256 access tokens and opaque, single-use refresh tokens.
type TokenService struct {
	tokens     repository.RefreshTokenRepository
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewTokenService(tokens repository.RefreshTokenRepository, cfg *config.Config) *TokenService {
	return &TokenService{
		tokens:     tokens,
		secret:     []byte(cfg.JWTSecret),
		accessTTL:  cfg.JWTAccessExpiry,
		refreshTTL: cfg.JWTRefreshExpiry,
		now:        time.Now,
	}
}

func (s *TokenService) Issue(ctx context.Context, user *models.User) (*dto.AuthResponse, error) {
	accessToken, err := s.accessToken(user)
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.refreshToken(ctx, user)
	if err != nil {
		return nil, err
	}

	return &dto.AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         userResponse(user),
	}, nil
}

// Rotate revokes raw and returns the user it belonged to. The caller issues a new pair.
func (s *TokenService) Rotate(ctx context.Context, raw string) (uuid.UUID, error) {
	stored, err := s.tokens.GetActiveByHash(ctx, hashToken(raw))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return uuid.Nil, ErrInvalidToken
		}
		return uuid.Nil, fmt.Errorf("failed to look up refresh token: %w", err)
	}

	if err := s.tokens.Revoke(ctx, stored.ID); err != nil {
		return uuid.Nil, fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	if s.now().After(stored.ExpiresAt) {
		return uuid.Nil, ErrInvalidToken
	}
	return stored.UserID, nil
}

func (s *TokenService) Revoke(ctx context.Context, raw string) error {
	return s.tokens.RevokeByHash(ctx, hashToken(raw))
}

func (s *TokenService) accessToken(user *models.User) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"sub":   user.ID.String(),
		"email": user.Email,
		"name":  user.Name,
		"guest": user.IsGuest(),
		"iat":   now.Unix(),
		"exp":   now.Add(s.accessTTL).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *TokenService) refreshToken(ctx context.Context, user *models.User) (string, error) {
	rawBytes := make([]byte, 32)
	if _, err := rand.Read(rawBytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	rawToken := base64.URLEncoding.EncodeToString(rawBytes)

	record := models.RefreshToken{
		ID:        uuid.New(),
		UserID:    user.ID,
		TokenHash: hashToken(rawToken),
		ExpiresAt: s.now().Add(s.refreshTTL),
	}
	if err := s.tokens.Create(ctx, &record); err != nil {
		return "", fmt.Errorf("failed to store refresh token: %w", err)
	}
	return rawToken, nil
}

func userResponse(user *models.User) dto.UserResponse {
	return dto.UserResponse{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Onboarded: user.Onboarded,
		Provider:  user.AuthProvider,
		IsGuest:   user.IsGuest(),
	}
}

func hashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return fmt.Sprintf("%x", h)
}
