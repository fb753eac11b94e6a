package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ProviderEmail   = "email"
	ProviderDiscord = "discord"
	ProviderGuest   = "guest"
)

type User struct {
	ID           uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name         string         `gorm:"size:100" json:"name"`
	Email        string         `gorm:"not null;size:255;uniqueIndex" json:"email"`
	Password     string         `gorm:"not null;default:''" json:"-"`
	AuthProvider string         `gorm:"size:20;default:'email'" json:"-"`
	DiscordID    *string        `gorm:"size:64;index" json:"-"`
	Onboarded    bool           `gorm:"not null;default:false" json:"onboarded"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`

	Profile  *UserProfile   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Sessions []DrinkSession `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

func (u *User) IsGuest() bool {
	return u.AuthProvider == ProviderGuest
}

// UserProfile is one-to-one with User. Weight is stored for later
// personalization and is not used by any calculation yet.
type UserProfile struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	Nickname  string    `gorm:"size:50;not null" json:"nickname"`
	Age       int       `gorm:"not null" json:"age"`
	Gender    *string   `gorm:"size:50" json:"gender,omitempty"`
	Weight    *float64  `json:"weight,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
