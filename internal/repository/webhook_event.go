package repository

import (
	"context"
	"errors"
	"time"
	"unicode/utf8"

	"kwetu-order-bot/internal/model"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

// mysqlDuplicateEntry is the server error number for a unique key violation.
const mysqlDuplicateEntry = 1062

// maxProcessErrorLen matches the process_error column size, in characters.
const maxProcessErrorLen = 255

type WebhookEventRepository interface {
	// Record stores the event once. duplicate is true when the event id was seen before.
	Record(ctx context.Context, event *model.PaymentWebhookEvent) (duplicate bool, err error)
	Get(ctx context.Context, eventID string) (*model.PaymentWebhookEvent, error)
	MarkProcessed(ctx context.Context, eventID string, processErr error) error
}

type webhookEventRepoImpl struct {
	db *gorm.DB
}

func NewWebhookEventRepository(db *gorm.DB) WebhookEventRepository {
	return &webhookEventRepoImpl{db: db}
}

func (r *webhookEventRepoImpl) Record(ctx context.Context, event *model.PaymentWebhookEvent) (bool, error) {
	err := r.db.WithContext(ctx).Create(event).Error
	if err == nil {
		return false, nil
	}
	if isDuplicateKey(err) {
		return true, nil
	}
	return false, err
}

func (r *webhookEventRepoImpl) Get(ctx context.Context, eventID string) (*model.PaymentWebhookEvent, error) {
	var event model.PaymentWebhookEvent
	err := r.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		First(&event).Error
	if err != nil {
		return nil, err
	}

	return &event, nil
}

func (r *webhookEventRepoImpl) MarkProcessed(ctx context.Context, eventID string, processErr error) error {
	now := time.Now()
	updates := map[string]interface{}{
		"processed_at":  &now,
		"process_error": nil,
	}
	if processErr != nil {
		msg := processErr.Error()
		if utf8.RuneCountInString(msg) > maxProcessErrorLen {
			msg = string([]rune(msg)[:maxProcessErrorLen])
		}
		updates["processed_at"] = nil
		updates["process_error"] = msg
	}

	return r.db.WithContext(ctx).
		Model(&model.PaymentWebhookEvent{}).
		Where("event_id = ?", eventID).
		Updates(updates).Error
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var myErr *mysql.MySQLError
	return errors.As(err, &myErr) && myErr.Number == mysqlDuplicateEntry
}
