package repository

import (
	"context"
	"errors"
	"time"

	"github.com/ahmetcoskunkizilkaya/drink-counter/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// --- users ---

type gormUsers struct{ db *gorm.DB }

func NewUserRepository(db *gorm.DB) UserRepository { return &gormUsers{db: db} }

func (r *gormUsers) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *gormUsers) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (r *gormUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (r *gormUsers) GetByDiscordID(ctx context.Context, discordID string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("discord_id = ?", discordID).First(&user).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (r *gormUsers) LinkDiscord(ctx context.Context, id uuid.UUID, discordID string) error {
	return r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"discord_id":    discordID,
			"auth_provider": models.ProviderDiscord,
		}).Error
}

func (r *gormUsers) SetOnboarded(ctx context.Context, id uuid.UUID, onboarded bool) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("onboarded", onboarded)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *gormUsers) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sessions := tx.Model(&models.DrinkSession{}).Select("id").Where("user_id = ?", id)
		if err := tx.Where("session_id IN (?)", sessions).Delete(&models.DrinkEntry{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.DrinkSession{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.UserProfile{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.RefreshToken{}).Error; err != nil {
			return err
		}
		res := tx.Unscoped().Delete(&models.User{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// --- profiles ---

type gormProfiles struct{ db *gorm.DB }

func NewProfileRepository(db *gorm.DB) ProfileRepository { return &gormProfiles{db: db} }

func (r *gormProfiles) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.UserProfile, error) {
	var profile models.UserProfile
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error; err != nil {
		return nil, notFound(err)
	}
	return &profile, nil
}

func (r *gormProfiles) Upsert(ctx context.Context, profile *models.UserProfile) error {
	if profile.ID == uuid.Nil {
		profile.ID = uuid.New()
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"nickname", "age", "gender", "weight", "updated_at"}),
	}).Create(profile).Error
	if err != nil {
		return err
	}
	// On conflict the generated ID was discarded; reload the stored row.
	return r.db.WithContext(ctx).Where("user_id = ?", profile.UserID).First(profile).Error
}

// --- sessions ---

type gormSessions struct{ db *gorm.DB }

func NewSessionRepository(db *gorm.DB) SessionRepository { return &gormSessions{db: db} }

func newestDrinksFirst(db *gorm.DB) *gorm.DB {
	return db.Order("timestamp DESC")
}

func (r *gormSessions) Create(ctx context.Context, session *models.DrinkSession) error {
	return r.db.WithContext(ctx).Create(session).Error
}

func (r *gormSessions) FindSince(ctx context.Context, userID uuid.UUID, since time.Time) (*models.DrinkSession, error) {
	var session models.DrinkSession
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND date >= ?", userID, since).
		Order("date ASC").
		First(&session).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &session, nil
}

func (r *gormSessions) GetForUser(ctx context.Context, userID, sessionID uuid.UUID, withDrinks bool) (*models.DrinkSession, error) {
	q := r.db.WithContext(ctx)
	if withDrinks {
		q = q.Preload("Drinks", newestDrinksFirst)
	}
	var session models.DrinkSession
	if err := q.Where("id = ? AND user_id = ?", sessionID, userID).First(&session).Error; err != nil {
		return nil, notFound(err)
	}
	return &session, nil
}

func (r *gormSessions) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.DrinkSession, error) {
	var sessions []models.DrinkSession
	err := r.db.WithContext(ctx).
		Preload("Drinks", newestDrinksFirst).
		Where("user_id = ?", userID).
		Order("date DESC").
		Find(&sessions).Error
	return sessions, err
}

func (r *gormSessions) AddEntry(ctx context.Context, entry *models.DrinkEntry, alcohol float64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Bumping the totals first locks the session row and reports a missing parent.
		res := tx.Model(&models.DrinkSession{}).
			Where("id = ?", entry.SessionID).
			Updates(map[string]interface{}{
				"total_drinks":  gorm.Expr("total_drinks + ?", 1),
				"total_alcohol": gorm.Expr("total_alcohol + ?", alcohol),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return tx.Create(entry).Error
	})
}

func (r *gormSessions) RecentEntries(ctx context.Context, sessionID uuid.UUID, limit int) ([]models.DrinkEntry, error) {
	var entries []models.DrinkEntry
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("timestamp DESC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}

// --- refresh tokens ---

type gormRefreshTokens struct{ db *gorm.DB }

func NewRefreshTokenRepository(db *gorm.DB) RefreshTokenRepository {
	return &gormRefreshTokens{db: db}
}

func (r *gormRefreshTokens) Create(ctx context.Context, token *models.RefreshToken) error {
	return r.db.WithContext(ctx).Create(token).Error
}

func (r *gormRefreshTokens) GetActiveByHash(ctx context.Context, hash string) (*models.RefreshToken, error) {
	var token models.RefreshToken
	if err := r.db.WithContext(ctx).Where("token_hash = ? AND revoked = false", hash).First(&token).Error; err != nil {
		return nil, notFound(err)
	}
	return &token, nil
}

func (r *gormRefreshTokens) Revoke(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&models.RefreshToken{}).Where("id = ?", id).Update("revoked", true).Error
}

func (r *gormRefreshTokens) RevokeByHash(ctx context.Context, hash string) error {
	return r.db.WithContext(ctx).Model(&models.RefreshToken{}).Where("token_hash = ?", hash).Update("revoked", true).Error
}
