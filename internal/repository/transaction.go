package repository

import (
	"context"
	"time"

	"kwetu-order-bot/internal/model"

	"gorm.io/gorm"
)

type TransactionRepository interface {
	Create(ctx context.Context, tx *gorm.DB, txn *model.Transaction) error
	FindByTxRef(ctx context.Context, txRef string) (*model.Transaction, error)
	FindLatestByOrderID(ctx context.Context, orderID uint) (*model.Transaction, error)
	// SetGatewayReference records the accepted charge: the gateway transaction id and the reference sent with it.
	SetGatewayReference(ctx context.Context, id uint, txRef, gatewayRef string) error
	// MarkCompleted reports false when the transaction was already completed.
	MarkCompleted(ctx context.Context, tx *gorm.DB, id uint, gatewayRef string) (bool, error)
	// MarkFailed reports false when the transaction was already failed or completed.
	MarkFailed(ctx context.Context, tx *gorm.DB, id uint, reason string) (bool, error)
}

type transactionRepoImpl struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transactionRepoImpl{
		db: db,
	}
}

func (r *transactionRepoImpl) Create(ctx context.Context, tx *gorm.DB, txn *model.Transaction) error {
	return tx.WithContext(ctx).Create(txn).Error
}

func (r *transactionRepoImpl) FindByTxRef(ctx context.Context, txRef string) (*model.Transaction, error) {
	var txn model.Transaction
	err := r.db.WithContext(ctx).
		Where("tx_ref = ?", txRef).
		First(&txn).
		Error

	if err != nil {
		return nil, err
	}

	return &txn, nil
}

func (r *transactionRepoImpl) FindLatestByOrderID(ctx context.Context, orderID uint) (*model.Transaction, error) {
	var txn model.Transaction
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("id DESC").
		First(&txn).
		Error

	if err != nil {
		return nil, err
	}

	return &txn, nil
}

func (r *transactionRepoImpl) SetGatewayReference(ctx context.Context, id uint, txRef, gatewayRef string) error {
	return r.db.WithContext(ctx).
		Model(&model.Transaction{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"tx_ref":                txRef,
			"transaction_reference": gatewayRef,
			"updated_at":            time.Now(),
		}).Error
}

func (r *transactionRepoImpl) MarkCompleted(ctx context.Context, tx *gorm.DB, id uint, gatewayRef string) (bool, error) {
	updates := map[string]interface{}{
		"payment_status": model.PaymentCompleted,
		"failure_reason": "",
		"updated_at":     time.Now(),
	}
	if gatewayRef != "" {
		updates["transaction_reference"] = gatewayRef
	}

	result := tx.WithContext(ctx).
		Model(&model.Transaction{}).
		Where("id = ? AND payment_status <> ?", id, model.PaymentCompleted).
		Updates(updates)

	return result.RowsAffected > 0, result.Error
}

func (r *transactionRepoImpl) MarkFailed(ctx context.Context, tx *gorm.DB, id uint, reason string) (bool, error) {
	result := tx.WithContext(ctx).
		Model(&model.Transaction{}).
		Where("id = ? AND payment_status NOT IN ?", id, []model.PaymentStatus{model.PaymentFailed, model.PaymentCompleted}).
		Updates(map[string]interface{}{
			"payment_status": model.PaymentFailed,
			"failure_reason": reason,
			"updated_at":     time.Now(),
		})

	return result.RowsAffected > 0, result.Error
}
