package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ahmetcoskunkizilkaya/drink-counter/internal/drinks"
	"github.com/ahmetcoskunkizilkaya/drink-counter/internal/metrics"
	"github.com/ahmetcoskunkizilkaya/drink-counter/internal/models"
	"github.com/ahmetcoskunkizilkaya/drink-counter/internal/repository"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrInvalidVolume    = errors.New("volume must be a positive number of milliliters")
	ErrInvalidDrinkType = errors.New("drink type must be one of BEER, WINE, COCKTAIL, SHOT")
)

const (
	DefaultRecentLimit = 10
	MaxRecentLimit     = 50
)

// SessionService resolves per-day sessions and records drinks into them.
type SessionService struct {
	sessions repository.SessionRepository
	loc      *time.Location
	now      func() time.Time
	group    singleflight.Group
}

func NewSessionService(sessions repository.SessionRepository, loc *time.Location) *SessionService {
	if loc == nil {
		loc = time.Local
	}
	return &SessionService{sessions: sessions, loc: loc, now: time.Now}
}

// WithClock replaces the time source.
func (s *SessionService) WithClock(now func() time.Time) *SessionService {
	s.now = now
	return s
}

func (s *SessionService) Now() time.Time { return s.now() }

func (s *SessionService) Location() *time.Location { return s.loc }

// FindTodaySession returns the user's session for the day containing now,
// or ErrSessionNotFound. It never creates one.
func (s *SessionService) FindTodaySession(ctx context.Context, userID uuid.UUID, now time.Time) (*models.DrinkSession, error) {
	session, err := s.sessions.FindSince(ctx, userID, drinks.StartOfDay(now, s.loc))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to find today's session: %w", err)
	}
	return session, nil
}

// GetOrCreateTodaySession is idempotent within a calendar day. Concurrent calls
// for the same user share one lookup-or-insert, which runs detached from the
// first caller's cancellation so waiters are not failed by it.
func (s *SessionService) GetOrCreateTodaySession(ctx context.Context, userID uuid.UUID, now time.Time) (*models.DrinkSession, error) {
	key := userID.String() + ":" + drinks.StartOfDay(now, s.loc).Format("2006-01-02")
	detached := context.WithoutCancel(ctx)

	v, err, _ := s.group.Do(key, func() (interface{}, error) {
		session, err := s.FindTodaySession(detached, userID, now)
		if err == nil {
			return session, nil
		}
		if !errors.Is(err, ErrSessionNotFound) {
			return nil, err
		}

		session = &models.DrinkSession{
			ID:     uuid.New(),
			UserID: userID,
			Date:   now,
		}
		if err := s.sessions.Create(detached, session); err != nil {
			return nil, fmt.Errorf("failed to create session: %w", err)
		}
		metrics.RecordSessionCreated()
		slog.Info("drink session created", "user_id", userID.String(), "session_id", session.ID.String())
		return session, nil
	})
	if err != nil {
		return nil, err
	}

	// Callers sharing the result must not alias each other's copy.
	session := *v.(*models.DrinkSession)
	return &session, nil
}

// CurrentSession returns today's session with its drinks, creating it if needed.
func (s *SessionService) CurrentSession(ctx context.Context, userID uuid.UUID) (*models.DrinkSession, error) {
	session, err := s.GetOrCreateTodaySession(ctx, userID, s.now())
	if err != nil {
		return nil, err
	}
	return s.GetSession(ctx, userID, session.ID)
}

func (s *SessionService) GetSession(ctx context.Context, userID, sessionID uuid.UUID) (*models.DrinkSession, error) {
	session, err := s.sessions.GetForUser(ctx, userID, sessionID, true)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if session.Drinks == nil {
		session.Drinks = []models.DrinkEntry{}
	}
	return session, nil
}

func (s *SessionService) ListSessions(ctx context.Context, userID uuid.UUID) ([]models.DrinkSession, error) {
	sessions, err := s.sessions.ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	if sessions == nil {
		sessions = []models.DrinkSession{}
	}
	return sessions, nil
}

// AddDrink records one drink. Without sessionID the drink goes into today's
// session, which is created on demand.
func (s *SessionService) AddDrink(ctx context.Context, userID uuid.UUID, t drinks.Type, volume int, sessionID *uuid.UUID) (*models.DrinkEntry, error) {
	if !t.Valid() {
		return nil, ErrInvalidDrinkType
	}
	if volume <= 0 {
		return nil, ErrInvalidVolume
	}

	now := s.now()

	var session *models.DrinkSession
	var err error
	if sessionID != nil {
		session, err = s.sessions.GetForUser(ctx, userID, *sessionID, false)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		if err != nil {
			err = fmt.Errorf("failed to load session: %w", err)
		}
	} else {
		session, err = s.GetOrCreateTodaySession(ctx, userID, now)
	}
	if err != nil {
		slog.Error("add drink: session lookup failed", "user_id", userID.String(), "error", err)
		return nil, err
	}

	grams := drinks.CalculateAlcohol(t, volume)
	entry := &models.DrinkEntry{
		ID:        uuid.New(),
		SessionID: session.ID,
		DrinkType: t,
		Volume:    volume,
		Timestamp: now,
	}
	if err := s.sessions.AddEntry(ctx, entry, grams); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		slog.Error("add drink: insert failed",
			"user_id", userID.String(),
			"session_id", session.ID.String(),
			"error", err,
		)
		return nil, fmt.Errorf("failed to record drink: %w", err)
	}

	metrics.RecordDrink(t, grams)
	return entry, nil
}

// RecentDrinks returns the newest entries of sessionID, or of today's session
// when sessionID is nil. No session yields an empty list.
func (s *SessionService) RecentDrinks(ctx context.Context, userID uuid.UUID, sessionID *uuid.UUID, limit int) ([]models.DrinkEntry, int, error) {
	limit = ClampRecentLimit(limit)

	var id uuid.UUID
	if sessionID != nil {
		session, err := s.sessions.GetForUser(ctx, userID, *sessionID, false)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, limit, ErrSessionNotFound
			}
			return nil, limit, fmt.Errorf("failed to load session: %w", err)
		}
		id = session.ID
	} else {
		session, err := s.FindTodaySession(ctx, userID, s.now())
		if errors.Is(err, ErrSessionNotFound) {
			return []models.DrinkEntry{}, limit, nil
		}
		if err != nil {
			return nil, limit, err
		}
		id = session.ID
	}

	entries, err := s.sessions.RecentEntries(ctx, id, limit)
	if err != nil {
		return nil, limit, fmt.Errorf("failed to load recent drinks: %w", err)
	}
	if entries == nil {
		entries = []models.DrinkEntry{}
	}
	return entries, limit, nil
}

// ClampRecentLimit maps non-positive limits to the default and caps the rest.
func ClampRecentLimit(limit int) int {
	if limit <= 0 {
		return DefaultRecentLimit
	}
	if limit > MaxRecentLimit {
		return MaxRecentLimit
	}
	return limit
}
