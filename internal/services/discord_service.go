package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/ahmetcoskunkizilkaya/drink-counter/internal/config"
	"github.com/ahmetcoskunkizilkaya/drink-counter/internal/dto"
	"github.com/ahmetcoskunkizilkaya/drink-counter/internal/models"
	"github.com/ahmetcoskunkizilkaya/drink-counter/internal/repository"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

const (
	discordAuthURL  = "https://discord.com/api/oauth2/authorize"
	discordTokenURL = "https://discord.com/api/oauth2/token"
	discordAPIBase  = "https://discord.com/api"
)

var (
	ErrDiscordDisabled = errors.New("discord sign-in is not configured")
	ErrOAuthState      = errors.New("invalid or expired oauth state")
	ErrOAuthExchange   = errors.New("oauth code exchange failed")
)

// StateStore issues and consumes single-use OAuth state values.
type StateStore interface {
	Issue(ctx context.Context, provider string) (string, error)
	Consume(ctx context.Context, state, provider string) error
}

type discordUser struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	GlobalName string `json:"global_name"`
	Email      string `json:"email"`
	Verified   bool   `json:"verified"`
}

// DiscordService signs users in with Discord's OAuth2 code flow.
type DiscordService struct {
	oauth   *oauth2.Config
	apiBase string
	states  StateStore
	users   repository.UserRepository
	tokens  *TokenService
}

func NewDiscordService(cfg *config.Config, states StateStore, users repository.UserRepository, tokens *TokenService) *DiscordService {
	s := &DiscordService{
		apiBase: discordAPIBase,
		states:  states,
		users:   users,
		tokens:  tokens,
	}
	if cfg.DiscordEnabled() {
		s.oauth = &oauth2.Config{
			ClientID:     cfg.DiscordClientID,
			ClientSecret: cfg.DiscordClientSecret,
			Endpoint: oauth2.Endpoint{
				AuthURL:   discordAuthURL,
				TokenURL:  discordTokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
			RedirectURL: cfg.OAuthCallbackURL + "/api/auth/discord/callback",
			Scopes:      []string{"identify", "email"},
		}
	}
	return s
}

// WithEndpoints points the service at a different Discord host.
func (s *DiscordService) WithEndpoints(authURL, tokenURL, apiBase string) *DiscordService {
	if s.oauth != nil {
		s.oauth.Endpoint.AuthURL = authURL
		s.oauth.Endpoint.TokenURL = tokenURL
	}
	s.apiBase = strings.TrimRight(apiBase, "/")
	return s
}

// Enabled reports whether client credentials and a state store are both available.
func (s *DiscordService) Enabled() bool { return s.oauth != nil && s.states != nil }

// AuthURL returns the Discord consent URL carrying a freshly issued state.
func (s *DiscordService) AuthURL(ctx context.Context) (string, error) {
	if !s.Enabled() {
		return "", ErrDiscordDisabled
	}
	state, err := s.states.Issue(ctx, models.ProviderDiscord)
	if err != nil {
		return "", fmt.Errorf("failed to issue oauth state: %w", err)
	}
	return s.oauth.AuthCodeURL(state), nil
}

func (s *DiscordService) HandleCallback(ctx context.Context, state, code string) (*dto.AuthResponse, error) {
	if !s.Enabled() {
		return nil, ErrDiscordDisabled
	}
	if err := s.states.Consume(ctx, state, models.ProviderDiscord); err != nil {
		return nil, ErrOAuthState
	}

	token, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOAuthExchange, err)
	}

	du, err := s.fetchUser(ctx, token)
	if err != nil {
		return nil, err
	}

	user, err := s.findOrCreateUser(ctx, du)
	if err != nil {
		return nil, err
	}
	return s.tokens.Issue(ctx, user)
}

func (s *DiscordService) fetchUser(ctx context.Context, token *oauth2.Token) (*discordUser, error) {
	client := s.oauth.Client(ctx, token)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.apiBase+"/users/@me", nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch discord user: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("discord API returned status %d", resp.StatusCode)
	}

	var du discordUser
	if err := json.NewDecoder(resp.Body).Decode(&du); err != nil {
		return nil, fmt.Errorf("failed to decode discord user: %w", err)
	}
	if du.ID == "" {
		return nil, errors.New("discord user has no id")
	}
	return &du, nil
}

func (s *DiscordService) findOrCreateUser(ctx context.Context, du *discordUser) (*models.User, error) {
	user, err := s.users.GetByDiscordID(ctx, du.ID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up discord user: %w", err)
	}

	email := normalizeEmail(du.Email)
	if email != "" && du.Verified {
		existing, err := s.users.GetByEmail(ctx, email)
		if err == nil {
			if existing.IsGuest() {
				return nil, ErrGuestAccount
			}
			if err := s.users.LinkDiscord(ctx, existing.ID, du.ID); err != nil {
				return nil, fmt.Errorf("failed to link discord account: %w", err)
			}
			existing.DiscordID = &du.ID
			existing.AuthProvider = models.ProviderDiscord
			return existing, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("failed to look up user by email: %w", err)
		}
	}
	if email == "" || !du.Verified || email == GuestEmail {
		email = du.ID + "@users.discord.invalid"
	}

	name := du.GlobalName
	if name == "" {
		name = du.Username
	}

	discordID := du.ID
	user = &models.User{
		ID:           uuid.New(),
		Name:         name,
		Email:        email,
		AuthProvider: models.ProviderDiscord,
		DiscordID:    &discordID,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create discord user: %w", err)
	}
	return user, nil
}
