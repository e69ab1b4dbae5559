package repository

import (
	"context"

	"kwetu-order-bot/internal/model"

	"gorm.io/gorm"
)

type TimelineRepository interface {
	Append(ctx context.Context, tx *gorm.DB, event *model.TimelineEvent) error
	ListByOrder(ctx context.Context, orderID uint) ([]*model.TimelineEvent, error)
	Count(ctx context.Context, orderID uint, eventType string) (int64, error)
}

type timelineRepoImpl struct {
	db *gorm.DB
}

func NewTimelineRepository(db *gorm.DB) TimelineRepository {
	return &timelineRepoImpl{
		db: db,
	}
}

func (r *timelineRepoImpl) Append(ctx context.Context, tx *gorm.DB, event *model.TimelineEvent) error {
	return tx.WithContext(ctx).Create(event).Error
}

func (r *timelineRepoImpl) ListByOrder(ctx context.Context, orderID uint) ([]*model.TimelineEvent, error) {
	var events []*model.TimelineEvent
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at, id").
		Find(&events).Error
	if err != nil {
		return nil, err
	}

	return events, nil
}

func (r *timelineRepoImpl) Count(ctx context.Context, orderID uint, eventType string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.TimelineEvent{}).
		Where("order_id = ? AND event_type = ?", orderID, eventType).
		Count(&count).Error

	return count, err
}
