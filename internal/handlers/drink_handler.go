package handlers

import (
	"errors"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/drink-counter/internal/drinks"
	"github.com/ahmetcoskunkizilkaya/drink-counter/internal/dto"
	"github.com/ahmetcoskunkizilkaya/drink-counter/internal/identity"
	"github.com/ahmetcoskunkizilkaya/drink-counter/internal/services"
	"github.com/ahmetcoskunkizilkaya/drink-counter/internal/validation"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type DrinkHandler struct {
	sessionService *services.SessionService
	catalog        *drinks.Catalog
}

func NewDrinkHandler(sessionService *services.SessionService, catalog *drinks.Catalog) *DrinkHandler {
	return &DrinkHandler{sessionService: sessionService, catalog: catalog}
}

func (h *DrinkHandler) Catalog(c *fiber.Ctx) error {
	return c.JSON(dto.CatalogResponse{Drinks: h.catalog.All()})
}

func (h *DrinkHandler) CurrentSession(c *fiber.Ctx) error {
	userID, err := identity.GetUserID(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	session, err := h.sessionService.CurrentSession(c.UserContext(), userID)
	if err != nil {
		slog.Error("current session failed", "user_id", userID.String(), "error", err)
		return fail(c, fiber.StatusInternalServerError, "Failed to load session")
	}
	return c.JSON(session)
}

func (h *DrinkHandler) ListSessions(c *fiber.Ctx) error {
	userID, err := identity.GetUserID(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	sessions, err := h.sessionService.ListSessions(c.UserContext(), userID)
	if err != nil {
		slog.Error("list sessions failed", "user_id", userID.String(), "error", err)
		return fail(c, fiber.StatusInternalServerError, "Failed to load sessions")
	}
	return c.JSON(dto.SessionListResponse{Sessions: sessions, Total: len(sessions)})
}

func (h *DrinkHandler) GetSession(c *fiber.Ctx) error {
	userID, err := identity.GetUserID(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	sessionID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid session ID")
	}

	session, err := h.sessionService.GetSession(c.UserContext(), userID, sessionID)
	if err != nil {
		if errors.Is(err, services.ErrSessionNotFound) {
			return fail(c, fiber.StatusNotFound, err.Error())
		}
		slog.Error("get session failed", "user_id", userID.String(), "error", err)
		return fail(c, fiber.StatusInternalServerError, "Failed to load session")
	}
	return c.JSON(session)
}

func (h *DrinkHandler) AddDrink(c *fiber.Ctx) error {
	userID, err := identity.GetUserID(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	var req dto.AddDrinkRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	// Accept "beer" as well as "BEER".
	if t, err := drinks.ParseType(string(req.DrinkType)); err == nil {
		req.DrinkType = t
	}
	if err := validation.Struct(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, err.Error())
	}

	entry, err := h.sessionService.AddDrink(c.UserContext(), userID, req.DrinkType, req.Volume, req.SessionID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidDrinkType), errors.Is(err, services.ErrInvalidVolume):
			return fail(c, fiber.StatusBadRequest, err.Error())
		case errors.Is(err, services.ErrSessionNotFound):
			return fail(c, fiber.StatusNotFound, err.Error())
		}
		return fail(c, fiber.StatusInternalServerError, "Failed to record drink")
	}
	return c.Status(fiber.StatusCreated).JSON(entry)
}

func (h *DrinkHandler) RecentDrinks(c *fiber.Ctx) error {
	userID, err := identity.GetUserID(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	sessionID, err := optionalUUID(c, "session_id")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid session ID")
	}

	entries, limit, err := h.sessionService.RecentDrinks(c.UserContext(), userID, sessionID, c.QueryInt("limit", services.DefaultRecentLimit))
	if err != nil {
		if errors.Is(err, services.ErrSessionNotFound) {
			return fail(c, fiber.StatusNotFound, err.Error())
		}
		slog.Error("recent drinks failed", "user_id", userID.String(), "error", err)
		return fail(c, fiber.StatusInternalServerError, "Failed to load drinks")
	}
	return c.JSON(dto.RecentDrinksResponse{Drinks: entries, Limit: limit})
}

// optionalUUID parses query param key; an absent param yields nil.
func optionalUUID(c *fiber.Ctx, key string) (*uuid.UUID, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}
