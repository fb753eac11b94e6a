package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ahmetcoskunkizilkaya/drink-counter/internal/drinks"
	"github.com/ahmetcoskunkizilkaya/drink-counter/internal/dto"
	"github.com/ahmetcoskunkizilkaya/drink-counter/internal/models"
	"github.com/ahmetcoskunkizilkaya/drink-counter/internal/repository"
	"github.com/google/uuid"
)

// ErrNoSession means there is nothing to report yet; handlers answer with a null session.
var ErrNoSession = errors.New("no session for today")

// StatsService aggregates sessions into summary figures. Nothing is cached.
type StatsService struct {
	sessions    repository.SessionRepository
	sessionsSvc *SessionService
}

func NewStatsService(sessions repository.SessionRepository, sessionsSvc *SessionService) *StatsService {
	return &StatsService{sessions: sessions, sessionsSvc: sessionsSvc}
}

// CurrentSessionStats reports on sessionID, or on today's session when nil.
// It does not create a session.
func (s *StatsService) CurrentSessionStats(ctx context.Context, userID uuid.UUID, sessionID *uuid.UUID) (*dto.SessionStats, error) {
	now := s.sessionsSvc.Now()

	var id uuid.UUID
	if sessionID != nil {
		id = *sessionID
	} else {
		today, err := s.sessionsSvc.FindTodaySession(ctx, userID, now)
		if err != nil {
			if errors.Is(err, ErrSessionNotFound) {
				return nil, ErrNoSession
			}
			return nil, err
		}
		id = today.ID
	}

	session, err := s.sessions.GetForUser(ctx, userID, id, true)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			if sessionID != nil {
				return nil, ErrSessionNotFound
			}
			return nil, ErrNoSession
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	return BuildSessionStats(session, now), nil
}

func (s *StatsService) AllTimeStats(ctx context.Context, userID uuid.UUID) (*dto.AllTimeStats, error) {
	sessions, err := s.sessions.ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load sessions: %w", err)
	}
	return BuildAllTimeStats(sessions), nil
}

// BuildSessionStats computes the figures for one session as of now. Totals come
// from the stored running counters; histograms come from the entries.
func BuildSessionStats(session *models.DrinkSession, now time.Time) *dto.SessionStats {
	dist := drinks.NewDistribution()
	stamps := make([]time.Time, 0, len(session.Drinks))
	for _, d := range session.Drinks {
		dist.Add(d.DrinkType)
		stamps = append(stamps, d.Timestamp)
	}

	return &dto.SessionStats{
		SessionID:             session.ID,
		TotalDrinks:           session.TotalDrinks,
		TotalAlcohol:          session.TotalAlcohol,
		TotalAlcoholDisplay:   drinks.RoundTenth(session.TotalAlcohol),
		AvgDrinksPerHour:      drinks.RatePerHour(len(session.Drinks), session.Date, now),
		DrinkTypeDistribution: dist,
		DrinksPerHour:         drinks.HourlyCounts(session.Date, stamps),
	}
}

func BuildAllTimeStats(sessions []models.DrinkSession) *dto.AllTimeStats {
	dist := drinks.NewDistribution()
	totalDrinks := 0
	totalAlcohol := 0.0
	for _, session := range sessions {
		totalDrinks += session.TotalDrinks
		totalAlcohol += session.TotalAlcohol
		for _, d := range session.Drinks {
			dist.Add(d.DrinkType)
		}
	}

	return &dto.AllTimeStats{
		TotalSessions:         len(sessions),
		TotalDrinks:           totalDrinks,
		TotalAlcohol:          totalAlcohol,
		TotalAlcoholDisplay:   drinks.RoundTenth(totalAlcohol),
		AvgDrinksPerSession:   drinks.PerSession(totalDrinks, len(sessions)),
		DrinkTypeDistribution: dist,
	}
}
