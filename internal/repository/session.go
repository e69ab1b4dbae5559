package repository

import (
	"context"
	"time"

	"kwetu-order-bot/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SessionRepository interface {
	// Get returns gorm.ErrRecordNotFound for missing and expired keys.
	Get(ctx context.Context, key string, now time.Time) (*model.SessionRecord, error)
	Put(ctx context.Context, record *model.SessionRecord) error
	Delete(ctx context.Context, key string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type sessionRepoImpl struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &sessionRepoImpl{
		db: db,
	}
}

func (r *sessionRepoImpl) Get(ctx context.Context, key string, now time.Time) (*model.SessionRecord, error) {
	var record model.SessionRecord
	err := r.db.WithContext(ctx).
		Where(&model.SessionRecord{Key: key}).
		Where("expires_at > ?", now).
		First(&record).Error
	if err != nil {
		return nil, err
	}

	return &record, nil
}

// Put overwrites the stored value; concurrent writers for one key are last-write-wins.
func (r *sessionRepoImpl) Put(ctx context.Context, record *model.SessionRecord) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "key"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"value":      record.Value,
			"expires_at": record.ExpiresAt,
			"updated_at": time.Now(),
		}),
	}).Create(record).Error
}

func (r *sessionRepoImpl) Delete(ctx context.Context, key string) error {
	return r.db.WithContext(ctx).
		Delete(&model.SessionRecord{Key: key}).Error
}

func (r *sessionRepoImpl) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("expires_at <= ?", now).
		Delete(&model.SessionRecord{})

	return result.RowsAffected, result.Error
}
