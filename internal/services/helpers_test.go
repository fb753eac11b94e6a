package services

import (
	"sync"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/drink-counter/internal/config"
	"github.com/ahmetcoskunkizilkaya/drink-counter/internal/repository"
)

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:        "test-secret",
		JWTAccessExpiry:  15 * time.Minute,
		JWTRefreshExpiry: 24 * time.Hour,
		GuestEnabled:     true,
		GuestUsername:    "demo",
		GuestPassword:    "demo",
		OAuthCallbackURL: "http://localhost:8080",
	}
}

// clock is a settable time source shared by services under test.
type clock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock(t time.Time) *clock { return &clock{t: t} }

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type testEnv struct {
	mem      *repository.Memory
	cfg      *config.Config
	clock    *clock
	tokens   *TokenService
	auth     *AuthService
	guest    *GuestService
	profiles *ProfileService
	sessions *SessionService
	stats    *StatsService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	mem := repository.NewMemory()
	cfg := testConfig()
	clk := newClock(time.Date(2024, 6, 1, 20, 0, 0, 0, time.UTC))

	tokens := NewTokenService(mem.RefreshTokens, cfg)
	tokens.now = clk.Now
	sessions := NewSessionService(mem.Sessions, time.UTC).WithClock(clk.Now)

	return &testEnv{
		mem:      mem,
		cfg:      cfg,
		clock:    clk,
		tokens:   tokens,
		auth:     NewAuthService(mem.Users, tokens),
		guest:    NewGuestService(mem.Users, mem.Profiles, tokens, cfg),
		profiles: NewProfileService(mem.Users, mem.Profiles),
		sessions: sessions,
		stats:    NewStatsService(mem.Sessions, sessions),
	}
}
