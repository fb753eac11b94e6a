package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahmetcoskunkizilkaya/drink-counter/internal/config"
	"github.com/ahmetcoskunkizilkaya/drink-counter/internal/drinks"
	"github.com/ahmetcoskunkizilkaya/drink-counter/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/drink-counter/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/drink-counter/internal/repository"
	"github.com/ahmetcoskunkizilkaya/drink-counter/internal/services"
)

type testApp struct {
	app *fiber.App
	mem *repository.Memory
	cfg *config.Config
}

func newTestApp(t *testing.T, mutate ...func(*config.Config)) *testApp {
	t.Helper()

	cfg := &config.Config{
		JWTSecret:              "routes-test-secret",
		JWTAccessExpiry:        15 * time.Minute,
		JWTRefreshExpiry:       24 * time.Hour,
		GuestEnabled:           true,
		GuestUsername:          "demo",
		GuestPassword:          "demo",
		OAuthCallbackURL:       "http://localhost:8080",
		CORSOrigins:            "*",
		RateLimitPerMinute:     1000,
		AuthRateLimitPerMinute: 1000,
	}
	for _, m := range mutate {
		m(cfg)
	}

	catalog, err := drinks.LoadCatalog("")
	require.NoError(t, err)

	mem := repository.NewMemory()
	tokens := services.NewTokenService(mem.RefreshTokens, cfg)
	sessions := services.NewSessionService(mem.Sessions, time.UTC)
	profiles := services.NewProfileService(mem.Users, mem.Profiles)

	app := fiber.New(fiber.Config{ErrorHandler: handlers.ErrorHandler})
	app.Use(middleware.Metrics())
	app.Use(middleware.CORS(cfg))
	app.Use(middleware.SecurityHeaders())

	dbPing := func(context.Context) error { return nil }
	Setup(app, cfg, Handlers{
		Auth:    handlers.NewAuthHandler(services.NewAuthService(mem.Users, tokens)),
		Guest:   handlers.NewGuestHandler(services.NewGuestService(mem.Users, mem.Profiles, tokens, cfg)),
		Discord: handlers.NewDiscordHandler(services.NewDiscordService(cfg, nil, mem.Users, tokens)),
		Drinks:  handlers.NewDrinkHandler(sessions, catalog),
		Stats:   handlers.NewStatsHandler(services.NewStatsService(mem.Sessions, sessions)),
		Profile: handlers.NewProfileHandler(profiles),
		Health:  handlers.NewHealthHandler(dbPing, nil),
	}, profiles)

	return &testApp{app: app, mem: mem, cfg: cfg}
}

func (ta *testApp) do(t *testing.T, method, path, token string, body interface{}) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := ta.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func (ta *testApp) decode(t *testing.T, method, path, token string, body interface{}, wantStatus int) map[string]interface{} {
	t.Helper()
	resp, data := ta.do(t, method, path, token, body)
	require.Equal(t, wantStatus, resp.StatusCode, "body: %s", data)

	var out map[string]interface{}
	if len(data) > 0 && data[0] == '{' {
		require.NoError(t, json.Unmarshal(data, &out))
	}
	return out
}

func (ta *testApp) register(t *testing.T, email string) string {
	t.Helper()
	out := ta.decode(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "Sam", "email": email, "password": "password123",
	}, http.StatusCreated)
	return out["access_token"].(string)
}

func (ta *testApp) onboard(t *testing.T, token string) {
	t.Helper()
	ta.decode(t, http.MethodPut, "/api/profile", token, map[string]interface{}{
		"nickname": "Sam", "age": 30,
	}, http.StatusOK)
}

func TestHealth(t *testing.T) {
	ta := newTestApp(t)

	out := ta.decode(t, http.MethodGet, "/api/health", "", nil, http.StatusOK)
	assert.Equal(t, "ok", out["status"])
	assert.Equal(t, "ok", out["db"])
	assert.Equal(t, "disabled", out["redis"])
	assert.NotEmpty(t, out["timestamp"])
}

func TestHealth_DatabaseDown(t *testing.T) {
	ta := newTestApp(t)
	ta.app = fiber.New(fiber.Config{ErrorHandler: handlers.ErrorHandler})
	h := handlers.NewHealthHandler(func(context.Context) error { return errors.New("connection refused") }, nil)
	ta.app.Get("/api/health", h.Check)

	out := ta.decode(t, http.MethodGet, "/api/health", "", nil, http.StatusServiceUnavailable)
	assert.Equal(t, "degraded", out["status"])
	assert.Equal(t, "unhealthy: connection refused", out["db"])
}

func TestCatalog_IsPublic(t *testing.T) {
	ta := newTestApp(t)

	resp, data := ta.do(t, http.MethodGet, "/api/drinks/catalog", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))

	var out struct {
		Drinks []struct {
			Type           string  `json:"type"`
			AlcoholPercent float64 `json:"alcohol_percent"`
			DefaultVolume  int     `json:"default_volume"`
			VolumePresets  []int   `json:"volume_presets"`
		} `json:"drinks"`
	}
	require.NoError(t, json.Unmarshal(data, &out))
	require.Len(t, out.Drinks, 4)
	assert.Equal(t, "BEER", out.Drinks[0].Type)
	assert.Equal(t, 0.05, out.Drinks[0].AlcoholPercent)
	assert.Equal(t, 330, out.Drinks[0].DefaultVolume)
	assert.Equal(t, []int{20, 40, 60}, out.Drinks[3].VolumePresets)
}

func TestProtectedRoutes_RequireToken(t *testing.T) {
	ta := newTestApp(t)

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/sessions/current"},
		{http.MethodGet, "/api/sessions"},
		{http.MethodPost, "/api/drinks"},
		{http.MethodGet, "/api/drinks/recent"},
		{http.MethodGet, "/api/stats/current"},
		{http.MethodGet, "/api/stats/all-time"},
		{http.MethodGet, "/api/profile"},
		{http.MethodPost, "/api/auth/logout"},
		{http.MethodDelete, "/api/auth/account"},
	} {
		out := ta.decode(t, tc.method, tc.path, "", nil, http.StatusUnauthorized)
		assert.Equal(t, true, out["error"], tc.path)
	}

	ta.decode(t, http.MethodGet, "/api/stats/current", "not-a-jwt", nil, http.StatusUnauthorized)
}

func TestOnboardingGate(t *testing.T) {
	ta := newTestApp(t)
	token := ta.register(t, "sam@example.com")

	resp, data := ta.do(t, http.MethodGet, "/api/profile", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "null", string(data))

	out := ta.decode(t, http.MethodGet, "/api/profile/onboarding", token, nil, http.StatusOK)
	assert.Equal(t, false, out["onboarded"])

	out = ta.decode(t, http.MethodPost, "/api/drinks", token, map[string]interface{}{
		"drink_type": "BEER", "volume": 330,
	}, http.StatusForbidden)
	assert.Equal(t, "onboarding required", out["message"])
	assert.Equal(t, "/onboarding", out["redirect"])

	ta.decode(t, http.MethodGet, "/api/stats/all-time", token, nil, http.StatusForbidden)

	out = ta.decode(t, http.MethodPut, "/api/profile", token, map[string]interface{}{
		"nickname": "Sam", "age": 17,
	}, http.StatusBadRequest)
	assert.Equal(t, "age must be at least 18", out["message"])

	ta.onboard(t, token)

	out = ta.decode(t, http.MethodGet, "/api/profile/onboarding", token, nil, http.StatusOK)
	assert.Equal(t, true, out["onboarded"])
	ta.decode(t, http.MethodGet, "/api/stats/all-time", token, nil, http.StatusOK)
}

func TestDrinkFlow(t *testing.T) {
	ta := newTestApp(t)
	token := ta.register(t, "sam@example.com")
	ta.onboard(t, token)

	// No session yet.
	out := ta.decode(t, http.MethodGet, "/api/stats/current", token, nil, http.StatusOK)
	assert.Contains(t, out, "session")
	assert.Nil(t, out["session"])

	out = ta.decode(t, http.MethodGet, "/api/drinks/recent", token, nil, http.StatusOK)
	assert.Empty(t, out["drinks"])
	assert.Equal(t, 0, ta.mem.SessionCount())

	entry := ta.decode(t, http.MethodPost, "/api/drinks", token, map[string]interface{}{
		"drink_type": "beer", "volume": 330,
	}, http.StatusCreated)
	assert.Equal(t, "BEER", entry["drink_type"])
	assert.Equal(t, float64(330), entry["volume"])
	sessionID := entry["session_id"].(string)

	out = ta.decode(t, http.MethodGet, "/api/stats/current", token, nil, http.StatusOK)
	stats := out["session"].(map[string]interface{})
	assert.Equal(t, sessionID, stats["session_id"])
	assert.Equal(t, float64(1), stats["total_drinks"])
	assert.InDelta(t, 13.0185, stats["total_alcohol"], 1e-9)
	assert.Equal(t, 13.0, stats["total_alcohol_display"])
	assert.Equal(t, map[string]interface{}{
		"BEER": float64(1), "WINE": float64(0), "COCKTAIL": float64(0), "SHOT": float64(0),
	}, stats["drink_type_distribution"])

	ta.decode(t, http.MethodGet, "/api/stats/current?session_id="+sessionID, token, nil, http.StatusOK)

	out = ta.decode(t, http.MethodGet, "/api/sessions/current", token, nil, http.StatusOK)
	assert.Equal(t, sessionID, out["id"])
	assert.Len(t, out["drinks"], 1)

	out = ta.decode(t, http.MethodGet, "/api/sessions/"+sessionID, token, nil, http.StatusOK)
	assert.Equal(t, float64(1), out["total_drinks"])

	out = ta.decode(t, http.MethodGet, "/api/sessions", token, nil, http.StatusOK)
	assert.Equal(t, float64(1), out["total"])

	out = ta.decode(t, http.MethodGet, "/api/drinks/recent?limit=500", token, nil, http.StatusOK)
	assert.Equal(t, float64(50), out["limit"])
	assert.Len(t, out["drinks"], 1)

	out = ta.decode(t, http.MethodGet, "/api/stats/all-time", token, nil, http.StatusOK)
	assert.Equal(t, float64(1), out["total_sessions"])
	assert.Equal(t, float64(1), out["avg_drinks_per_session"])
}

func TestAddDrink_Validation(t *testing.T) {
	ta := newTestApp(t)
	token := ta.register(t, "sam@example.com")
	ta.onboard(t, token)

	out := ta.decode(t, http.MethodPost, "/api/drinks", token, map[string]interface{}{
		"drink_type": "BEER", "volume": 0,
	}, http.StatusBadRequest)
	assert.Equal(t, "volume is required", out["message"])

	out = ta.decode(t, http.MethodPost, "/api/drinks", token, map[string]interface{}{
		"drink_type": "BEER", "volume": -10,
	}, http.StatusBadRequest)
	assert.Equal(t, "volume must be greater than 0", out["message"])

	ta.decode(t, http.MethodPost, "/api/drinks", token, map[string]interface{}{
		"drink_type": "CIDER", "volume": 500,
	}, http.StatusBadRequest)

	ta.decode(t, http.MethodPost, "/api/drinks", token, map[string]interface{}{
		"drink_type": "BEER", "volume": 330, "session_id": "00000000-0000-0000-0000-000000000001",
	}, http.StatusNotFound)

	assert.Equal(t, 0, ta.mem.SessionCount())
}

func TestSessions_OwnershipAndBadIDs(t *testing.T) {
	ta := newTestApp(t)
	alice := ta.register(t, "alice@example.com")
	bob := ta.register(t, "bob@example.com")
	ta.onboard(t, alice)
	ta.onboard(t, bob)

	entry := ta.decode(t, http.MethodPost, "/api/drinks", alice, map[string]interface{}{
		"drink_type": "WINE", "volume": 150,
	}, http.StatusCreated)
	aliceSession := entry["session_id"].(string)

	ta.decode(t, http.MethodGet, "/api/sessions/"+aliceSession, bob, nil, http.StatusNotFound)
	ta.decode(t, http.MethodGet, "/api/stats/current?session_id="+aliceSession, bob, nil, http.StatusNotFound)
	ta.decode(t, http.MethodGet, "/api/drinks/recent?session_id="+aliceSession, bob, nil, http.StatusNotFound)

	ta.decode(t, http.MethodGet, "/api/sessions/not-a-uuid", alice, nil, http.StatusBadRequest)
	ta.decode(t, http.MethodGet, "/api/stats/current?session_id=nope", alice, nil, http.StatusBadRequest)
}

func TestAuthFlow(t *testing.T) {
	ta := newTestApp(t)

	register := ta.decode(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": "sam@example.com", "password": "password123",
	}, http.StatusCreated)
	refresh := register["refresh_token"].(string)

	ta.decode(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": "sam@example.com", "password": "password123",
	}, http.StatusConflict)

	out := ta.decode(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": "not-an-email", "password": "password123",
	}, http.StatusBadRequest)
	assert.Equal(t, "email must be a valid email address", out["message"])

	ta.decode(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "sam@example.com", "password": "nope",
	}, http.StatusUnauthorized)
	login := ta.decode(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "sam@example.com", "password": "password123",
	}, http.StatusOK)
	token := login["access_token"].(string)

	rotated := ta.decode(t, http.MethodPost, "/api/auth/refresh", "", map[string]string{
		"refresh_token": refresh,
	}, http.StatusOK)
	ta.decode(t, http.MethodPost, "/api/auth/refresh", "", map[string]string{
		"refresh_token": refresh,
	}, http.StatusUnauthorized)

	ta.decode(t, http.MethodPost, "/api/auth/logout", token, map[string]string{
		"refresh_token": rotated["refresh_token"].(string),
	}, http.StatusOK)

	ta.decode(t, http.MethodDelete, "/api/auth/account", token, nil, http.StatusBadRequest)
	ta.decode(t, http.MethodDelete, "/api/auth/account", token, map[string]string{"password": "wrong"}, http.StatusUnauthorized)
	ta.decode(t, http.MethodDelete, "/api/auth/account", token, map[string]string{"password": "password123"}, http.StatusOK)
	ta.decode(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "sam@example.com", "password": "password123",
	}, http.StatusUnauthorized)
}

func TestGuestFlow(t *testing.T) {
	ta := newTestApp(t)

	out := ta.decode(t, http.MethodPost, "/api/auth/guest", "", map[string]string{
		"username": "demo", "password": "wrong",
	}, http.StatusUnauthorized)
	assert.Equal(t, true, out["error"])

	first := ta.decode(t, http.MethodPost, "/api/auth/guest", "", map[string]string{
		"username": "demo", "password": "demo",
	}, http.StatusOK)
	second := ta.decode(t, http.MethodGet, "/api/auth/guest", "", nil, http.StatusOK)

	firstUser := first["user"].(map[string]interface{})
	secondUser := second["user"].(map[string]interface{})
	assert.Equal(t, firstUser["id"], secondUser["id"])
	assert.Equal(t, true, firstUser["is_guest"])
	assert.Equal(t, "demo@example.com", firstUser["email"])

	// The guest is already onboarded.
	token := first["access_token"].(string)
	ta.decode(t, http.MethodPost, "/api/drinks", token, map[string]interface{}{
		"drink_type": "SHOT", "volume": 40,
	}, http.StatusCreated)

	profile := ta.decode(t, http.MethodGet, "/api/profile", token, nil, http.StatusOK)
	assert.Equal(t, "Demo", profile["nickname"])

	ta.decode(t, http.MethodDelete, "/api/auth/account", token, map[string]string{"password": "demo"}, http.StatusForbidden)
}

func TestGuestFlow_Disabled(t *testing.T) {
	ta := newTestApp(t, func(c *config.Config) { c.GuestEnabled = false })

	ta.decode(t, http.MethodGet, "/api/auth/guest", "", nil, http.StatusNotFound)
	ta.decode(t, http.MethodPost, "/api/auth/guest", "", map[string]string{
		"username": "demo", "password": "demo",
	}, http.StatusNotFound)
}

func TestDiscord_NotConfigured(t *testing.T) {
	ta := newTestApp(t)

	ta.decode(t, http.MethodGet, "/api/auth/discord", "", nil, http.StatusNotFound)
	ta.decode(t, http.MethodGet, "/api/auth/discord/callback?code=x&state=y", "", nil, http.StatusNotFound)
	ta.decode(t, http.MethodGet, "/api/auth/discord/callback", "", nil, http.StatusBadRequest)
}

func TestAuthRateLimit(t *testing.T) {
	ta := newTestApp(t, func(c *config.Config) { c.AuthRateLimitPerMinute = 2 })

	body := map[string]string{"email": "x@example.com", "password": "whatever"}
	ta.decode(t, http.MethodPost, "/api/auth/login", "", body, http.StatusUnauthorized)
	ta.decode(t, http.MethodPost, "/api/auth/login", "", body, http.StatusUnauthorized)
	resp, _ := ta.do(t, http.MethodPost, "/api/auth/login", "", body)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)

	// Non-auth routes keep their own budget.
	ta.decode(t, http.MethodGet, "/api/health", "", nil, http.StatusOK)
}

func TestMetricsEndpoint(t *testing.T) {
	ta := newTestApp(t)
	token := ta.register(t, "sam@example.com")
	ta.onboard(t, token)
	ta.decode(t, http.MethodPost, "/api/drinks", token, map[string]interface{}{
		"drink_type": "COCKTAIL", "volume": 200,
	}, http.StatusCreated)

	resp, data := ta.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := string(data)
	assert.Contains(t, body, `drinkcounter_drinks_logged_total{drink_type="COCKTAIL"}`)
	assert.Contains(t, body, "drinkcounter_alcohol_grams_total")
	assert.Contains(t, body, `drinkcounter_http_requests_total{method="POST",route="/api/drinks",status="201"}`)
}

func TestMetricsEndpoint_MixedMethods(t *testing.T) {
	ta := newTestApp(t)
	token := ta.register(t, "mixed@example.com")
	ta.onboard(t, token)

	for i := 0; i < 3; i++ {
		ta.decode(t, http.MethodPost, "/api/drinks", token, map[string]interface{}{
			"drink_type": "BEER", "volume": 330,
		}, http.StatusCreated)
		ta.decode(t, http.MethodGet, "/api/stats/current", token, nil, http.StatusOK)
		ta.decode(t, http.MethodPut, "/api/profile", token, map[string]interface{}{
			"nickname": "Sam", "age": 30,
		}, http.StatusOK)
	}

	resp, data := ta.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, "body: %s", data)
	body := string(data)
	assert.Contains(t, body, `drinkcounter_http_requests_total{method="PUT",route="/api/profile",status="200"}`)
	assert.Contains(t, body, `drinkcounter_http_requests_total{method="GET",route="/api/stats/current",status="200"}`)
	assert.Contains(t, body, `drinkcounter_http_requests_total{method="POST",route="/api/drinks",status="201"}`)
	assert.NotContains(t, body, `method="GETT"`)
	assert.NotContains(t, body, `method="PUTT"`)
}

func TestGuestEmail_CannotBeRegistered(t *testing.T) {
	ta := newTestApp(t)

	ta.decode(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": "demo@example.com", "password": "password123",
	}, http.StatusConflict)

	out := ta.decode(t, http.MethodPost, "/api/auth/guest", "", map[string]string{
		"username": "demo", "password": "demo",
	}, http.StatusOK)
	user := out["user"].(map[string]interface{})
	assert.Equal(t, true, user["is_guest"])
	assert.Equal(t, true, user["onboarded"])
	assert.Equal(t, "guest", user["provider"])
}
