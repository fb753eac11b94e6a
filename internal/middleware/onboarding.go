package middleware

import (
	"context"

	"github.com/ahmetcoskunkizilkaya/drink-counter/internal/dto"
	"github.com/ahmetcoskunkizilkaya/drink-counter/internal/identity"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// OnboardingChecker reports whether a user has completed their profile.
type OnboardingChecker interface {
	IsOnboarded(ctx context.Context, userID uuid.UUID) bool
}

// OnboardingRedirect is where clients send users who still need a profile.
const OnboardingRedirect = "/onboarding"

// RequireOnboarded blocks users without a profile. Must run after JWTProtected.
func RequireOnboarded(checker OnboardingChecker) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := identity.GetUserID(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Unauthorized",
			})
		}

		if !checker.IsOnboarded(c.UserContext(), userID) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error":    true,
				"message":  "onboarding required",
				"redirect": OnboardingRedirect,
			})
		}
		return c.Next()
	}
}
