package repository

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/ahmetcoskunkizilkaya/drink-counter/internal/models"
	"github.com/google/uuid"
)

// Memory is an in-process store implementing every repository interface.
// Service, handler and route tests run against it.
type Memory struct {
	mu       sync.Mutex
	users    map[uuid.UUID]models.User
	profiles map[uuid.UUID]models.UserProfile // keyed by user id
	sessions map[uuid.UUID]models.DrinkSession
	entries  map[uuid.UUID][]models.DrinkEntry // keyed by session id
	tokens   map[uuid.UUID]models.RefreshToken

	// FailWith, when set, makes every call return it.
	FailWith error

	Users         UserRepository
	Profiles      ProfileRepository
	Sessions      SessionRepository
	RefreshTokens RefreshTokenRepository
}

var errDuplicateEmail = errors.New("duplicate key value violates unique constraint \"idx_users_email\"")

func NewMemory() *Memory {
	m := &Memory{
		users:    make(map[uuid.UUID]models.User),
		profiles: make(map[uuid.UUID]models.UserProfile),
		sessions: make(map[uuid.UUID]models.DrinkSession),
		entries:  make(map[uuid.UUID][]models.DrinkEntry),
		tokens:   make(map[uuid.UUID]models.RefreshToken),
	}
	m.Users = memUsers{m}
	m.Profiles = memProfiles{m}
	m.Sessions = memSessions{m}
	m.RefreshTokens = memTokens{m}
	return m
}

// SessionCount reports how many sessions exist across all users.
func (m *Memory) SessionCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *Memory) lock() (func(), error) {
	m.mu.Lock()
	if m.FailWith != nil {
		m.mu.Unlock()
		return func() {}, m.FailWith
	}
	return m.mu.Unlock, nil
}

// --- users ---

type memUsers struct{ m *Memory }

func (r memUsers) Create(_ context.Context, user *models.User) error {
	unlock, err := r.m.lock()
	defer unlock()
	if err != nil {
		return err
	}
	for _, u := range r.m.users {
		if u.Email == user.Email {
			return errDuplicateEmail
		}
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if user.AuthProvider == "" {
		user.AuthProvider = models.ProviderEmail
	}
	now := time.Now()
	user.CreatedAt, user.UpdatedAt = now, now
	r.m.users[user.ID] = *user
	return nil
}

func (r memUsers) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	unlock, err := r.m.lock()
	defer unlock()
	if err != nil {
		return nil, err
	}
	u, ok := r.m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (r memUsers) find(match func(models.User) bool) (*models.User, error) {
	unlock, err := r.m.lock()
	defer unlock()
	if err != nil {
		return nil, err
	}
	for _, u := range r.m.users {
		if match(u) {
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (r memUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	return r.find(func(u models.User) bool { return u.Email == email })
}

func (r memUsers) GetByDiscordID(_ context.Context, discordID string) (*models.User, error) {
	return r.find(func(u models.User) bool { return u.DiscordID != nil && *u.DiscordID == discordID })
}

func (r memUsers) update(id uuid.UUID, fn func(*models.User)) error {
	unlock, err := r.m.lock()
	defer unlock()
	if err != nil {
		return err
	}
	u, ok := r.m.users[id]
	if !ok {
		return ErrNotFound
	}
	fn(&u)
	u.UpdatedAt = time.Now()
	r.m.users[id] = u
	return nil
}

func (r memUsers) LinkDiscord(_ context.Context, id uuid.UUID, discordID string) error {
	return r.update(id, func(u *models.User) {
		u.DiscordID = &discordID
		u.AuthProvider = models.ProviderDiscord
	})
}

func (r memUsers) SetOnboarded(_ context.Context, id uuid.UUID, onboarded bool) error {
	return r.update(id, func(u *models.User) { u.Onboarded = onboarded })
}

func (r memUsers) Delete(_ context.Context, id uuid.UUID) error {
	unlock, err := r.m.lock()
	defer unlock()
	if err != nil {
		return err
	}
	if _, ok := r.m.users[id]; !ok {
		return ErrNotFound
	}
	delete(r.m.users, id)
	delete(r.m.profiles, id)
	for sid, s := range r.m.sessions {
		if s.UserID == id {
			delete(r.m.entries, sid)
			delete(r.m.sessions, sid)
		}
	}
	for tid, t := range r.m.tokens {
		if t.UserID == id {
			delete(r.m.tokens, tid)
		}
	}
	return nil
}

// --- profiles ---

type memProfiles struct{ m *Memory }

func (r memProfiles) GetByUserID(_ context.Context, userID uuid.UUID) (*models.UserProfile, error) {
	unlock, err := r.m.lock()
	defer unlock()
	if err != nil {
		return nil, err
	}
	p, ok := r.m.profiles[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (r memProfiles) Upsert(_ context.Context, profile *models.UserProfile) error {
	unlock, err := r.m.lock()
	defer unlock()
	if err != nil {
		return err
	}
	now := time.Now()
	if existing, ok := r.m.profiles[profile.UserID]; ok {
		profile.ID = existing.ID
		profile.CreatedAt = existing.CreatedAt
	} else {
		profile.ID = uuid.New()
		profile.CreatedAt = now
	}
	profile.UpdatedAt = now
	r.m.profiles[profile.UserID] = *profile
	return nil
}

// --- sessions ---

type memSessions struct{ m *Memory }

func (r memSessions) Create(_ context.Context, session *models.DrinkSession) error {
	unlock, err := r.m.lock()
	defer unlock()
	if err != nil {
		return err
	}
	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}
	now := time.Now()
	session.CreatedAt, session.UpdatedAt = now, now
	stored := *session
	stored.Drinks = nil
	r.m.sessions[session.ID] = stored
	return nil
}

func (r memSessions) FindSince(_ context.Context, userID uuid.UUID, since time.Time) (*models.DrinkSession, error) {
	unlock, err := r.m.lock()
	defer unlock()
	if err != nil {
		return nil, err
	}
	var found *models.DrinkSession
	for _, s := range r.m.sessions {
		if s.UserID != userID || s.Date.Before(since) {
			continue
		}
		if found == nil || s.Date.Before(found.Date) {
			s := s
			found = &s
		}
	}
	if found == nil {
		return nil, ErrNotFound
	}
	return found, nil
}

// drinksNewestFirst must be called with the lock held.
func (r memSessions) drinksNewestFirst(sessionID uuid.UUID) []models.DrinkEntry {
	src := r.m.entries[sessionID]
	out := make([]models.DrinkEntry, len(src))
	copy(out, src)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out
}

func (r memSessions) GetForUser(_ context.Context, userID, sessionID uuid.UUID, withDrinks bool) (*models.DrinkSession, error) {
	unlock, err := r.m.lock()
	defer unlock()
	if err != nil {
		return nil, err
	}
	s, ok := r.m.sessions[sessionID]
	if !ok || s.UserID != userID {
		return nil, ErrNotFound
	}
	if withDrinks {
		s.Drinks = r.drinksNewestFirst(sessionID)
	}
	return &s, nil
}

func (r memSessions) ListForUser(_ context.Context, userID uuid.UUID) ([]models.DrinkSession, error) {
	unlock, err := r.m.lock()
	defer unlock()
	if err != nil {
		return nil, err
	}
	var out []models.DrinkSession
	for id, s := range r.m.sessions {
		if s.UserID != userID {
			continue
		}
		s.Drinks = r.drinksNewestFirst(id)
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

func (r memSessions) AddEntry(_ context.Context, entry *models.DrinkEntry, alcohol float64) error {
	unlock, err := r.m.lock()
	defer unlock()
	if err != nil {
		return err
	}
	s, ok := r.m.sessions[entry.SessionID]
	if !ok {
		return ErrNotFound
	}
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	entry.CreatedAt = time.Now()
	r.m.entries[entry.SessionID] = append(r.m.entries[entry.SessionID], *entry)
	s.TotalDrinks++
	s.TotalAlcohol += alcohol
	s.UpdatedAt = entry.CreatedAt
	r.m.sessions[s.ID] = s
	return nil
}

func (r memSessions) RecentEntries(_ context.Context, sessionID uuid.UUID, limit int) ([]models.DrinkEntry, error) {
	unlock, err := r.m.lock()
	defer unlock()
	if err != nil {
		return nil, err
	}
	out := r.drinksNewestFirst(sessionID)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// --- refresh tokens ---

type memTokens struct{ m *Memory }

func (r memTokens) Create(_ context.Context, token *models.RefreshToken) error {
	unlock, err := r.m.lock()
	defer unlock()
	if err != nil {
		return err
	}
	if token.ID == uuid.Nil {
		token.ID = uuid.New()
	}
	token.CreatedAt = time.Now()
	r.m.tokens[token.ID] = *token
	return nil
}

func (r memTokens) GetActiveByHash(_ context.Context, hash string) (*models.RefreshToken, error) {
	unlock, err := r.m.lock()
	defer unlock()
	if err != nil {
		return nil, err
	}
	for _, t := range r.m.tokens {
		if t.TokenHash == hash && !t.Revoked {
			return &t, nil
		}
	}
	return nil, ErrNotFound
}

func (r memTokens) Revoke(_ context.Context, id uuid.UUID) error {
	unlock, err := r.m.lock()
	defer unlock()
	if err != nil {
		return err
	}
	if t, ok := r.m.tokens[id]; ok {
		t.Revoked = true
		r.m.tokens[id] = t
	}
	return nil
}

func (r memTokens) RevokeByHash(_ context.Context, hash string) error {
	unlock, err := r.m.lock()
	defer unlock()
	if err != nil {
		return err
	}
	for id, t := range r.m.tokens {
		if t.TokenHash == hash {
			t.Revoked = true
			r.m.tokens[id] = t
		}
	}
	return nil
}
