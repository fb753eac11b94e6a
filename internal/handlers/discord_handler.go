package handlers

import (
	"errors"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/drink-counter/internal/dto"
	"github.com/ahmetcoskunkizilkaya/drink-counter/internal/services"
	"github.com/gofiber/fiber/v2"
)

type DiscordHandler struct {
	discordService *services.DiscordService
}

func NewDiscordHandler(discordService *services.DiscordService) *DiscordHandler {
	return &DiscordHandler{discordService: discordService}
}

// Start redirects to Discord. With ?redirect=false the URL is returned as JSON
// instead, for clients that open it themselves.
func (h *DiscordHandler) Start(c *fiber.Ctx) error {
	url, err := h.discordService.AuthURL(c.UserContext())
	if err != nil {
		if errors.Is(err, services.ErrDiscordDisabled) {
			return fail(c, fiber.StatusNotFound, err.Error())
		}
		slog.Error("discord auth url failed", "error", err)
		return fail(c, fiber.StatusServiceUnavailable, "Sign-in is temporarily unavailable")
	}

	if c.Query("redirect") == "false" {
		return c.JSON(dto.OAuthURLResponse{URL: url})
	}
	return c.Redirect(url, fiber.StatusTemporaryRedirect)
}

func (h *DiscordHandler) Callback(c *fiber.Ctx) error {
	if msg := c.Query("error"); msg != "" {
		return fail(c, fiber.StatusUnauthorized, "Discord sign-in was cancelled")
	}

	code := c.Query("code")
	if code == "" {
		return fail(c, fiber.StatusBadRequest, "Missing authorization code")
	}

	resp, err := h.discordService.HandleCallback(c.UserContext(), c.Query("state"), code)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrDiscordDisabled):
			return fail(c, fiber.StatusNotFound, err.Error())
		case errors.Is(err, services.ErrOAuthState):
			return fail(c, fiber.StatusBadRequest, err.Error())
		case errors.Is(err, services.ErrOAuthExchange):
			return fail(c, fiber.StatusUnauthorized, "Discord sign-in failed")
		case errors.Is(err, services.ErrGuestAccount):
			return fail(c, fiber.StatusConflict, err.Error())
		}
		slog.Error("discord callback failed", "error", err)
		return fail(c, fiber.StatusBadGateway, "Discord sign-in failed")
	}

	return c.JSON(resp)
}
