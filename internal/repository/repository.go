// Package repository is the data-access layer. Each interface has a GORM
// implementation for production and an in-memory one for tests (memory.go).
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/ahmetcoskunkizilkaya/drink-counter/internal/models"
	"github.com/google/uuid"
)

var ErrNotFound = errors.New("record not found")

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByDiscordID(ctx context.Context, discordID string) (*models.User, error)
	LinkDiscord(ctx context.Context, id uuid.UUID, discordID string) error
	SetOnboarded(ctx context.Context, id uuid.UUID, onboarded bool) error
	// Delete removes the user and everything the user owns.
	Delete(ctx context.Context, id uuid.UUID) error
}

type ProfileRepository interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*models.UserProfile, error)
	// Upsert inserts or updates the profile keyed on UserID and fills in the stored row.
	Upsert(ctx context.Context, profile *models.UserProfile) error
}

type SessionRepository interface {
	Create(ctx context.Context, session *models.DrinkSession) error
	// FindSince returns the earliest session of userID with date >= since.
	FindSince(ctx context.Context, userID uuid.UUID, since time.Time) (*models.DrinkSession, error)
	// GetForUser loads a session only if it belongs to userID. Drinks are newest first.
	GetForUser(ctx context.Context, userID, sessionID uuid.UUID, withDrinks bool) (*models.DrinkSession, error)
	// ListForUser returns every session with its drinks, newest date first.
	ListForUser(ctx context.Context, userID uuid.UUID) ([]models.DrinkSession, error)
	// AddEntry inserts the entry and bumps the parent's running totals atomically.
	AddEntry(ctx context.Context, entry *models.DrinkEntry, alcohol float64) error
	RecentEntries(ctx context.Context, sessionID uuid.UUID, limit int) ([]models.DrinkEntry, error)
}

type RefreshTokenRepository interface {
	Create(ctx context.Context, token *models.RefreshToken) error
	GetActiveByHash(ctx context.Context, hash string) (*models.RefreshToken, error)
	Revoke(ctx context.Context, id uuid.UUID) error
	RevokeByHash(ctx context.Context, hash string) error
}
