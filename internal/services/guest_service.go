package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ahmetcoskunkizilkaya/drink-counter/internal/config"
	"github.com/ahmetcoskunkizilkaya/drink-counter/internal/dto"
	"github.com/ahmetcoskunkizilkaya/drink-counter/internal/models"
	"github.com/ahmetcoskunkizilkaya/drink-counter/internal/repository"
	"github.com/google/uuid"
)

const (
	GuestEmail = "demo@example.com"
	GuestName  = "Demo User"
)

var (
	ErrGuestDisabled = errors.New("guest access is disabled")
	// ErrGuestEmailClaimed means a non-guest account holds GuestEmail.
	ErrGuestEmailClaimed = errors.New("guest email belongs to another account")
)

// GuestService resolves the shared demo identity. It is kept apart from
// AuthService: guests never have a password row and cannot delete the account.
type GuestService struct {
	users    repository.UserRepository
	profiles repository.ProfileRepository
	tokens   *TokenService

	enabled  bool
	username string
	password string

	mu sync.Mutex
}

func NewGuestService(users repository.UserRepository, profiles repository.ProfileRepository, tokens *TokenService, cfg *config.Config) *GuestService {
	return &GuestService{
		users:    users,
		profiles: profiles,
		tokens:   tokens,
		enabled:  cfg.GuestEnabled,
		username: cfg.GuestUsername,
		password: cfg.GuestPassword,
	}
}

func (s *GuestService) Enabled() bool { return s.enabled }

// Login checks the guest credentials and returns a token pair for the guest user.
func (s *GuestService) Login(ctx context.Context, username, password string) (*dto.AuthResponse, error) {
	if !s.enabled {
		return nil, ErrGuestDisabled
	}
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(s.password)) == 1
	if !userOK || !passOK {
		return nil, ErrInvalidCredentials
	}

	user, err := s.ensureUser(ctx)
	if err != nil {
		return nil, err
	}
	return s.tokens.Issue(ctx, user)
}

// LoginDefault is the one-click demo link: it signs in with the configured credentials.
func (s *GuestService) LoginDefault(ctx context.Context) (*dto.AuthResponse, error) {
	return s.Login(ctx, s.username, s.password)
}

// ensureUser returns the guest user, creating it and its profile on first use.
func (s *GuestService) ensureUser(ctx context.Context) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, err := s.users.GetByEmail(ctx, GuestEmail)
	if err == nil {
		return guestOnly(user)
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up guest user: %w", err)
	}

	user = &models.User{
		ID:           uuid.New(),
		Name:         GuestName,
		Email:        GuestEmail,
		AuthProvider: models.ProviderGuest,
		Onboarded:    true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		// Another instance may have created it first.
		if existing, getErr := s.users.GetByEmail(ctx, GuestEmail); getErr == nil {
			return guestOnly(existing)
		}
		return nil, fmt.Errorf("failed to create guest user: %w", err)
	}

	gender := "Prefer not to say"
	weight := 70.0
	profile := models.UserProfile{
		UserID:   user.ID,
		Nickname: "Demo",
		Age:      25,
		Gender:   &gender,
		Weight:   &weight,
	}
	if err := s.profiles.Upsert(ctx, &profile); err != nil {
		slog.Warn("guest profile not created", "user_id", user.ID.String(), "error", err)
	}

	slog.Info("guest user created", "user_id", user.ID.String())
	return user, nil
}

func guestOnly(user *models.User) (*models.User, error) {
	if !user.IsGuest() {
		slog.Error("guest email held by non-guest account", "user_id", user.ID.String())
		return nil, ErrGuestEmailClaimed
	}
	return user, nil
}
