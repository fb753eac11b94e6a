package handlers

import (
	"errors"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/drink-counter/internal/dto"
	"github.com/ahmetcoskunkizilkaya/drink-counter/internal/identity"
	"github.com/ahmetcoskunkizilkaya/drink-counter/internal/services"
	"github.com/gofiber/fiber/v2"
)

type StatsHandler struct {
	statsService *services.StatsService
}

func NewStatsHandler(statsService *services.StatsService) *StatsHandler {
	return &StatsHandler{statsService: statsService}
}

// Current answers {"session": null} when there is no session today.
func (h *StatsHandler) Current(c *fiber.Ctx) error {
	userID, err := identity.GetUserID(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	sessionID, err := optionalUUID(c, "session_id")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid session ID")
	}

	stats, err := h.statsService.CurrentSessionStats(c.UserContext(), userID, sessionID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNoSession):
			return c.JSON(dto.CurrentSessionResponse{Session: nil})
		case errors.Is(err, services.ErrSessionNotFound):
			return fail(c, fiber.StatusNotFound, err.Error())
		}
		slog.Error("session stats failed", "user_id", userID.String(), "error", err)
		return fail(c, fiber.StatusInternalServerError, "Failed to compute stats")
	}
	return c.JSON(dto.CurrentSessionResponse{Session: stats})
}

func (h *StatsHandler) AllTime(c *fiber.Ctx) error {
	userID, err := identity.GetUserID(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	stats, err := h.statsService.AllTimeStats(c.UserContext(), userID)
	if err != nil {
		slog.Error("all-time stats failed", "user_id", userID.String(), "error", err)
		return fail(c, fiber.StatusInternalServerError, "Failed to compute stats")
	}
	return c.JSON(stats)
}
