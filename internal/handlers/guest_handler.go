package handlers

import (
	"errors"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/drink-counter/internal/dto"
	"github.com/ahmetcoskunkizilkaya/drink-counter/internal/services"
	"github.com/gofiber/fiber/v2"
)

type GuestHandler struct {
	guestService *services.GuestService
}

func NewGuestHandler(guestService *services.GuestService) *GuestHandler {
	return &GuestHandler{guestService: guestService}
}

// Login handles POST /api/auth/guest with explicit credentials.
func (h *GuestHandler) Login(c *fiber.Ctx) error {
	var req dto.GuestLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	resp, err := h.guestService.Login(c.UserContext(), req.Username, req.Password)
	return h.respond(c, resp, err)
}

// Demo handles GET /api/auth/guest, the one-click demo link.
func (h *GuestHandler) Demo(c *fiber.Ctx) error {
	resp, err := h.guestService.LoginDefault(c.UserContext())
	return h.respond(c, resp, err)
}

func (h *GuestHandler) respond(c *fiber.Ctx, resp *dto.AuthResponse, err error) error {
	if err != nil {
		switch {
		case errors.Is(err, services.ErrGuestDisabled):
			return fail(c, fiber.StatusNotFound, err.Error())
		case errors.Is(err, services.ErrInvalidCredentials):
			return fail(c, fiber.StatusUnauthorized, "Invalid guest credentials")
		case errors.Is(err, services.ErrGuestEmailClaimed):
			return fail(c, fiber.StatusConflict, "Guest account is unavailable")
		}
		slog.Error("guest login failed", "error", err)
		return fail(c, fiber.StatusInternalServerError, "Internal server error")
	}
	return c.JSON(resp)
}
