package handlers

import (
	"context"
	"time"

	"github.com/ahmetcoskunkizilkaya/drink-counter/internal/dto"
	"github.com/gofiber/fiber/v2"
)

// PingFunc checks one dependency.
type PingFunc func(ctx context.Context) error

type HealthHandler struct {
	db    PingFunc
	redis PingFunc
}

// NewHealthHandler takes the database and Redis checks; a nil check reports "disabled".
func NewHealthHandler(db, redis PingFunc) *HealthHandler {
	return &HealthHandler{db: db, redis: redis}
}

func (h *HealthHandler) Check(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	dbStatus := ping(ctx, h.db)
	resp := dto.HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		DB:        dbStatus,
		Redis:     ping(ctx, h.redis),
	}
	if dbStatus != "ok" {
		resp.Status = "degraded"
		return c.Status(fiber.StatusServiceUnavailable).JSON(resp)
	}
	return c.JSON(resp)
}

func ping(ctx context.Context, check PingFunc) string {
	if check == nil {
		return "disabled"
	}
	if err := check(ctx); err != nil {
		return "unhealthy: " + err.Error()
	}
	return "ok"
}
