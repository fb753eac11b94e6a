package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Redis (OAuth state)
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// JWT
	JWTSecret        string
	JWTAccessExpiry  time.Duration
	JWTRefreshExpiry time.Duration

	// Discord OAuth
	DiscordClientID     string
	DiscordClientSecret string
	OAuthCallbackURL    string

	// Guest (demo) identity
	GuestEnabled  bool
	GuestUsername string
	GuestPassword string

	// Sessions are bucketed by calendar day in this location.
	Timezone string

	// Drink catalog YAML; empty uses the embedded default.
	CatalogPath string

	// Server
	Port                   string
	CORSOrigins            string
	RateLimitPerMinute     int
	AuthRateLimitPerMinute int

	// Observability
	SentryDSN string
	AppEnv    string
	LogLevel  string
}

var defaults = map[string]interface{}{
	"DB_HOST":     "localhost",
	"DB_PORT":     "5432",
	"DB_USER":     "postgres",
	"DB_PASSWORD": "",
	"DB_NAME":     "drink_counter",
	"DB_SSLMODE":  "disable",

	"REDIS_ADDR":     "localhost:6379",
	"REDIS_PASSWORD": "",
	"REDIS_DB":       0,

	"JWT_SECRET":         "",
	"JWT_ACCESS_EXPIRY":  "15m",
	"JWT_REFRESH_EXPIRY": "168h",

	"DISCORD_CLIENT_ID":     "",
	"DISCORD_CLIENT_SECRET": "",
	"OAUTH_CALLBACK_URL":    "http://localhost:8080",

	"GUEST_ENABLED":  true,
	"GUEST_USERNAME": "demo",
	"GUEST_PASSWORD": "demo",

	"TZ":           "Local",
	"CATALOG_PATH": "",

	"PORT":                       "8080",
	"CORS_ORIGINS":               "*",
	"RATE_LIMIT_PER_MINUTE":      60,
	"AUTH_RATE_LIMIT_PER_MINUTE": 10,

	"SENTRY_DSN": "",
	"APP_ENV":    "development",
	"LOG_LEVEL":  "info",
}

// Load reads configuration from the environment, optionally overlaid on a
// config.yaml in the working directory.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, val := range defaults {
		v.SetDefault(key, val)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return &Config{
		DBHost:     v.GetString("DB_HOST"),
		DBPort:     v.GetString("DB_PORT"),
		DBUser:     v.GetString("DB_USER"),
		DBPassword: v.GetString("DB_PASSWORD"),
		DBName:     v.GetString("DB_NAME"),
		DBSSLMode:  v.GetString("DB_SSLMODE"),

		RedisAddr:     v.GetString("REDIS_ADDR"),
		RedisPassword: v.GetString("REDIS_PASSWORD"),
		RedisDB:       v.GetInt("REDIS_DB"),

		JWTSecret:        v.GetString("JWT_SECRET"),
		JWTAccessExpiry:  parseDuration(v.GetString("JWT_ACCESS_EXPIRY"), 15*time.Minute),
		JWTRefreshExpiry: parseDuration(v.GetString("JWT_REFRESH_EXPIRY"), 168*time.Hour),

		DiscordClientID:     v.GetString("DISCORD_CLIENT_ID"),
		DiscordClientSecret: v.GetString("DISCORD_CLIENT_SECRET"),
		OAuthCallbackURL:    strings.TrimRight(v.GetString("OAUTH_CALLBACK_URL"), "/"),

		GuestEnabled:  v.GetBool("GUEST_ENABLED"),
		GuestUsername: v.GetString("GUEST_USERNAME"),
		GuestPassword: v.GetString("GUEST_PASSWORD"),

		Timezone:    v.GetString("TZ"),
		CatalogPath: v.GetString("CATALOG_PATH"),

		Port:                   v.GetString("PORT"),
		CORSOrigins:            v.GetString("CORS_ORIGINS"),
		RateLimitPerMinute:     v.GetInt("RATE_LIMIT_PER_MINUTE"),
		AuthRateLimitPerMinute: v.GetInt("AUTH_RATE_LIMIT_PER_MINUTE"),

		SentryDSN: v.GetString("SENTRY_DSN"),
		AppEnv:    v.GetString("APP_ENV"),
		LogLevel:  v.GetString("LOG_LEVEL"),
	}, nil
}

func (c *Config) DSN() string {
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=" + c.DBSSLMode
}

// Location resolves Timezone. "Local" and "" map to the server's zone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TZ %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// DiscordEnabled reports whether Discord sign-in has credentials.
func (c *Config) DiscordEnabled() bool {
	return c.DiscordClientID != "" && c.DiscordClientSecret != ""
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}
