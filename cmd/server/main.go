package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/redis/go-redis/v9"

	"github.com/ahmetcoskunkizilkaya/drink-counter/internal/cache"
	"github.com/ahmetcoskunkizilkaya/drink-counter/internal/config"
	"github.com/ahmetcoskunkizilkaya/drink-counter/internal/database"
	"github.com/ahmetcoskunkizilkaya/drink-counter/internal/drinks"
	"github.com/ahmetcoskunkizilkaya/drink-counter/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/drink-counter/internal/logging"
	"github.com/ahmetcoskunkizilkaya/drink-counter/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/drink-counter/internal/repository"
	"github.com/ahmetcoskunkizilkaya/drink-counter/internal/routes"
	"github.com/ahmetcoskunkizilkaya/drink-counter/internal/services"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

func main() {
	// Structured logging (JSON to stdout)
	stdoutHandler := logging.Setup(os.Getenv("LOG_LEVEL"))

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	stdoutHandler = logging.Setup(cfg.LogLevel)

	if cfg.JWTSecret == "" {
		slog.Error("JWT_SECRET environment variable is required")
		os.Exit(1)
	}
	if cfg.DBPassword == "" {
		slog.Error("DB_PASSWORD environment variable is required")
		os.Exit(1)
	}

	loc, err := cfg.Location()
	if err != nil {
		slog.Error("invalid timezone", "error", err)
		os.Exit(1)
	}

	catalog, err := drinks.LoadCatalog(cfg.CatalogPath)
	if err != nil {
		slog.Error("failed to load drink catalog", "path", cfg.CatalogPath, "error", err)
		os.Exit(1)
	}

	// Database
	if err := database.Connect(cfg); err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	if err := database.Migrate(); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}

	// PostgreSQL log handler (ERROR+ async batch)
	logStore := logging.NewGormLogStore(database.DB)
	pgLogHandler := logging.NewPGHandler(logStore, logging.DefaultBatchSize, logging.DefaultFlushInterval)
	slog.SetDefault(slog.New(logging.NewMultiHandler(stdoutHandler, pgLogHandler)))

	// Log cleanup (30-day retention)
	cleanupDone := make(chan struct{})
	logging.StartCleanup(logStore, logging.DefaultRetention, 24*time.Hour, cleanupDone)

	// Redis holds OAuth state only; without it Discord sign-in is switched off.
	var (
		redisClient *redis.Client
		states      services.StateStore
		redisPing   handlers.PingFunc
	)
	if redisClient, err = cache.NewRedis(cfg); err != nil {
		slog.Warn("redis unavailable, discord sign-in disabled", "addr", cfg.RedisAddr, "error", err)
	} else {
		store := cache.NewStateStore(redisClient, 10*time.Minute)
		states = store
		redisPing = store.Ping
	}

	// Repositories
	users := repository.NewUserRepository(database.DB)
	profiles := repository.NewProfileRepository(database.DB)
	sessions := repository.NewSessionRepository(database.DB)
	refreshTokens := repository.NewRefreshTokenRepository(database.DB)

	// Services
	tokenService := services.NewTokenService(refreshTokens, cfg)
	authService := services.NewAuthService(users, tokenService)
	guestService := services.NewGuestService(users, profiles, tokenService, cfg)
	discordService := services.NewDiscordService(cfg, states, users, tokenService)
	profileService := services.NewProfileService(users, profiles)
	sessionService := services.NewSessionService(sessions, loc)
	statsService := services.NewStatsService(sessions, sessionService)

	slog.Info("services ready",
		"timezone", loc.String(),
		"guest_enabled", guestService.Enabled(),
		"discord_enabled", discordService.Enabled(),
	)

	// Sentry error tracking
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      cfg.AppEnv,
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	// Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit:    1 * 1024 * 1024,
		ErrorHandler: handlers.ErrorHandler,
	})

	// Sentry middleware
	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))

	// Global middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path}\n",
	}))
	app.Use(middleware.Metrics())
	app.Use(middleware.CORS(cfg))
	app.Use(middleware.SecurityHeaders())

	// Routes
	routes.Setup(app, cfg, routes.Handlers{
		Auth:    handlers.NewAuthHandler(authService),
		Guest:   handlers.NewGuestHandler(guestService),
		Discord: handlers.NewDiscordHandler(discordService),
		Drinks:  handlers.NewDrinkHandler(sessionService, catalog),
		Stats:   handlers.NewStatsHandler(statsService),
		Profile: handlers.NewProfileHandler(profileService),
		Health:  handlers.NewHealthHandler(database.Ping, redisPing),
	}, profileService)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	close(cleanupDone)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(ctx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	// Drain buffered ERROR logs before the pool closes.
	slog.SetDefault(slog.New(stdoutHandler))
	pgLogHandler.Stop()
	sentry.Flush(2 * time.Second)

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			slog.Error("redis close error", "error", err)
		}
	}
	if err := database.Close(); err != nil {
		slog.Error("database close error", "error", err)
	}

	slog.Info("server stopped")
}
