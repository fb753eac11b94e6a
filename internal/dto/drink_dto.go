package dto

import (
	"github.com/ahmetcoskunkizilkaya/drink-counter/internal/drinks"
	"github.com/ahmetcoskunkizilkaya/drink-counter/internal/models"
	"github.com/google/uuid"
)

type AddDrinkRequest struct {
	DrinkType drinks.Type `json:"drink_type" validate:"required,oneof=BEER WINE COCKTAIL SHOT"`
	Volume    int         `json:"volume" validate:"required,gt=0"`
	SessionID *uuid.UUID  `json:"session_id,omitempty"`
}

type RecentDrinksResponse struct {
	Drinks []models.DrinkEntry `json:"drinks"`
	Limit  int                 `json:"limit"`
}

type SessionListResponse struct {
	Sessions []models.DrinkSession `json:"sessions"`
	Total    int                   `json:"total"`
}

type CatalogResponse struct {
	Drinks []drinks.CatalogItem `json:"drinks"`
}
