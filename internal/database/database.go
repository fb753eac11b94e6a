package database

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/drink-counter/internal/config"
	"github.com/ahmetcoskunkizilkaya/drink-counter/internal/drinks"
	"github.com/ahmetcoskunkizilkaya/drink-counter/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

func Connect(cfg *config.Config) error {
	var err error
	DB, err = gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetMaxIdleConns(25)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	slog.Info("database connected")
	return nil
}

// Migrate creates the drink_type enum if needed, then runs AutoMigrate.
func Migrate() error {
	if err := DB.Exec(drinkTypeEnumSQL()).Error; err != nil {
		return fmt.Errorf("failed to create drink_type enum: %w", err)
	}
	return DB.AutoMigrate(
		&models.User{},
		&models.UserProfile{},
		&models.DrinkSession{},
		&models.DrinkEntry{},
		&models.RefreshToken{},
		&models.SystemLog{},
	)
}

func drinkTypeEnumSQL() string {
	labels := make([]string, len(drinks.Types))
	for i, t := range drinks.Types {
		labels[i] = "'" + string(t) + "'"
	}
	return `DO $$ BEGIN
	CREATE TYPE drink_type AS ENUM (` + strings.Join(labels, ", ") + `);
EXCEPTION
	WHEN duplicate_object THEN null;
END $$;`
}

func Ping(ctx context.Context) error {
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func Close() error {
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
