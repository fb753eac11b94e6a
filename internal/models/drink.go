package models

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/drink-counter/internal/drinks"
	"github.com/google/uuid"
)

// DrinkSession is one calendar day of tracking. TotalDrinks and TotalAlcohol
// are running totals over Drinks, bumped in the same transaction as each insert.
type DrinkSession struct {
	ID           uuid.UUID    `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID       uuid.UUID    `gorm:"type:uuid;not null;index:idx_drink_sessions_user_date" json:"user_id"`
	Date         time.Time    `gorm:"not null;index:idx_drink_sessions_user_date" json:"date"`
	TotalDrinks  int          `gorm:"not null;default:0" json:"total_drinks"`
	TotalAlcohol float64      `gorm:"not null;default:0" json:"total_alcohol"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
	Drinks       []DrinkEntry `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE" json:"drinks"`
}

// DrinkEntry is immutable once written.
type DrinkEntry struct {
	ID        uuid.UUID   `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	SessionID uuid.UUID   `gorm:"type:uuid;not null;index" json:"session_id"`
	DrinkType drinks.Type `gorm:"type:drink_type;not null" json:"drink_type"`
	Volume    int         `gorm:"not null" json:"volume"`
	Timestamp time.Time   `gorm:"not null;index" json:"timestamp"`
	CreatedAt time.Time   `json:"created_at"`
}
