package logging

import (
	"context"
	"time"

	"github.com/ahmetcoskunkizilkaya/drink-counter/internal/models"
	"gorm.io/gorm"
)

// LogStore persists system log batches and prunes old rows.
type LogStore interface {
	WriteLogs(ctx context.Context, logs []models.SystemLog) error
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type gormLogStore struct {
	db        *gorm.DB
	batchSize int
}

func NewGormLogStore(db *gorm.DB) LogStore {
	return &gormLogStore{db: db, batchSize: DefaultBatchSize}
}

func (s *gormLogStore) WriteLogs(ctx context.Context, logs []models.SystemLog) error {
	return s.db.WithContext(ctx).CreateInBatches(logs, s.batchSize).Error
}

func (s *gormLogStore) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := s.db.WithContext(ctx).Where("timestamp < ?", cutoff).Delete(&models.SystemLog{})
	return result.RowsAffected, result.Error
}
