package dto

import (
	"github.com/ahmetcoskunkizilkaya/drink-counter/internal/drinks"
	"github.com/google/uuid"
)

type SessionStats struct {
	SessionID             uuid.UUID           `json:"session_id"`
	TotalDrinks           int                 `json:"total_drinks"`
	TotalAlcohol          float64             `json:"total_alcohol"`
	TotalAlcoholDisplay   float64             `json:"total_alcohol_display"`
	AvgDrinksPerHour      float64             `json:"avg_drinks_per_hour"`
	DrinkTypeDistribution drinks.Distribution `json:"drink_type_distribution"`
	DrinksPerHour         []drinks.HourCount  `json:"drinks_per_hour"`
}

// CurrentSessionResponse wraps SessionStats so "no session yet" is a null, not an error.
type CurrentSessionResponse struct {
	Session *SessionStats `json:"session"`
}

type AllTimeStats struct {
	TotalSessions         int                 `json:"total_sessions"`
	TotalDrinks           int                 `json:"total_drinks"`
	TotalAlcohol          float64             `json:"total_alcohol"`
	TotalAlcoholDisplay   float64             `json:"total_alcohol_display"`
	AvgDrinksPerSession   float64             `json:"avg_drinks_per_session"`
	DrinkTypeDistribution drinks.Distribution `json:"drink_type_distribution"`
}
