package handlers

import (
	"errors"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/drink-counter/internal/dto"
	"github.com/ahmetcoskunkizilkaya/drink-counter/internal/identity"
	"github.com/ahmetcoskunkizilkaya/drink-counter/internal/services"
	"github.com/ahmetcoskunkizilkaya/drink-counter/internal/validation"
	"github.com/gofiber/fiber/v2"
)

type ProfileHandler struct {
	profileService *services.ProfileService
}

func NewProfileHandler(profileService *services.ProfileService) *ProfileHandler {
	return &ProfileHandler{profileService: profileService}
}

// Get returns the profile, or JSON null before onboarding.
func (h *ProfileHandler) Get(c *fiber.Ctx) error {
	userID, err := identity.GetUserID(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	profile, err := h.profileService.GetProfile(c.UserContext(), userID)
	if err != nil {
		slog.Error("get profile failed", "user_id", userID.String(), "error", err)
		return fail(c, fiber.StatusInternalServerError, "Failed to load profile")
	}
	if profile == nil {
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.SendString("null")
	}
	return c.JSON(profile)
}

func (h *ProfileHandler) Upsert(c *fiber.Ctx) error {
	userID, err := identity.GetUserID(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	var req dto.UpsertProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	profile, err := h.profileService.UpsertProfile(c.UserContext(), userID, &req)
	if err != nil {
		var verr *validation.Error
		switch {
		case errors.As(err, &verr):
			return fail(c, fiber.StatusBadRequest, verr.Error())
		case errors.Is(err, services.ErrUserNotFound):
			return fail(c, fiber.StatusNotFound, "User not found")
		}
		slog.Error("save profile failed", "user_id", userID.String(), "error", err)
		return fail(c, fiber.StatusInternalServerError, "Failed to save profile")
	}
	return c.JSON(profile)
}

func (h *ProfileHandler) Onboarding(c *fiber.Ctx) error {
	userID, err := identity.GetUserID(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	status, err := h.profileService.OnboardingStatus(c.UserContext(), userID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			return fail(c, fiber.StatusNotFound, "User not found")
		}
		slog.Error("onboarding status failed", "user_id", userID.String(), "error", err)
		return fail(c, fiber.StatusInternalServerError, "Failed to load onboarding status")
	}
	return c.JSON(status)
}
