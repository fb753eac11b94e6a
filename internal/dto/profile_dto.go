package dto

import "github.com/google/uuid"

type UpsertProfileRequest struct {
	Nickname string   `json:"nickname" validate:"required,min=1,max=50"`
	Age      int      `json:"age" validate:"required,min=18,max=120"`
	Gender   *string  `json:"gender,omitempty" validate:"omitempty,max=50"`
	Weight   *float64 `json:"weight,omitempty" validate:"omitempty,gt=0"`
}

type OnboardingStatusResponse struct {
	ID        uuid.UUID `json:"id"`
	Onboarded bool      `json:"onboarded"`
}
