package routes

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/drink-counter/internal/config"
	"github.com/ahmetcoskunkizilkaya/drink-counter/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/drink-counter/internal/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Handlers struct {
	Auth    *handlers.AuthHandler
	Guest   *handlers.GuestHandler
	Discord *handlers.DiscordHandler
	Drinks  *handlers.DrinkHandler
	Stats   *handlers.StatsHandler
	Profile *handlers.ProfileHandler
	Health  *handlers.HealthHandler
}

func Setup(app *fiber.App, cfg *config.Config, h Handlers, onboarding middleware.OnboardingChecker) {
	// Prometheus scrape endpoint, outside the /api rate limits
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group("/api")

	// General API rate limiter, per IP
	api.Use(limiter.New(limiter.Config{
		Max:               cfg.RateLimitPerMinute,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	api.Get("/health", h.Health.Check)
	api.Get("/drinks/catalog", h.Drinks.Catalog)

	// Auth: public, with a stricter per-IP limit
	auth := api.Group("/auth")
	auth.Use(limiter.New(limiter.Config{
		Max:               cfg.AuthRateLimitPerMinute,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))
	auth.Post("/register", h.Auth.Register)
	auth.Post("/login", h.Auth.Login)
	auth.Post("/refresh", h.Auth.Refresh)
	auth.Get("/discord", h.Discord.Start)
	auth.Get("/discord/callback", h.Discord.Callback)
	auth.Get("/guest", h.Guest.Demo)
	auth.Post("/guest", h.Guest.Login)

	// Protected routes get JWT per route so public routes above stay untouched
	jwt := middleware.JWTProtected(cfg)
	api.Post("/auth/logout", jwt, h.Auth.Logout)
	api.Delete("/auth/account", jwt, h.Auth.DeleteAccount)

	api.Get("/profile", jwt, h.Profile.Get)
	api.Put("/profile", jwt, h.Profile.Upsert)
	api.Get("/profile/onboarding", jwt, h.Profile.Onboarding)

	// Everything below also requires a completed profile
	onboarded := middleware.RequireOnboarded(onboarding)

	sessions := api.Group("/sessions", jwt, onboarded)
	sessions.Get("/current", h.Drinks.CurrentSession)
	sessions.Get("/", h.Drinks.ListSessions)
	sessions.Get("/:id", h.Drinks.GetSession)

	api.Post("/drinks", jwt, onboarded, h.Drinks.AddDrink)
	api.Get("/drinks/recent", jwt, onboarded, h.Drinks.RecentDrinks)

	stats := api.Group("/stats", jwt, onboarded)
	stats.Get("/current", h.Stats.Current)
	stats.Get("/all-time", h.Stats.AllTime)
}
