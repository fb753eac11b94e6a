package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ahmetcoskunkizilkaya/drink-counter/internal/dto"
	"github.com/ahmetcoskunkizilkaya/drink-counter/internal/models"
	"github.com/ahmetcoskunkizilkaya/drink-counter/internal/repository"
	"github.com/ahmetcoskunkizilkaya/drink-counter/internal/validation"
	"github.com/google/uuid"
)

type ProfileService struct {
	users    repository.UserRepository
	profiles repository.ProfileRepository
}

func NewProfileService(users repository.UserRepository, profiles repository.ProfileRepository) *ProfileService {
	return &ProfileService{users: users, profiles: profiles}
}

// GetProfile returns nil without error when the user has not onboarded yet.
func (s *ProfileService) GetProfile(ctx context.Context, userID uuid.UUID) (*models.UserProfile, error) {
	profile, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	return profile, nil
}

// UpsertProfile saves the profile and marks the user onboarded.
func (s *ProfileService) UpsertProfile(ctx context.Context, userID uuid.UUID, req *dto.UpsertProfileRequest) (*models.UserProfile, error) {
	req.Nickname = strings.TrimSpace(req.Nickname)
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	if _, err := s.users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	profile := &models.UserProfile{
		UserID:   userID,
		Nickname: req.Nickname,
		Age:      req.Age,
		Gender:   req.Gender,
		Weight:   req.Weight,
	}
	if err := s.profiles.Upsert(ctx, profile); err != nil {
		return nil, fmt.Errorf("failed to save profile: %w", err)
	}

	if err := s.users.SetOnboarded(ctx, userID, true); err != nil {
		return nil, fmt.Errorf("failed to mark user onboarded: %w", err)
	}
	return profile, nil
}

func (s *ProfileService) OnboardingStatus(ctx context.Context, userID uuid.UUID) (*dto.OnboardingStatusResponse, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return &dto.OnboardingStatusResponse{ID: user.ID, Onboarded: user.Onboarded}, nil
}

// IsOnboarded reports false on any lookup error.
func (s *ProfileService) IsOnboarded(ctx context.Context, userID uuid.UUID) bool {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		slog.Warn("onboarding status lookup failed", "user_id", userID.String(), "error", err)
		return false
	}
	return user.Onboarded
}
