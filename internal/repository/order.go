package repository

import (
	"context"
	"time"

	"kwetu-order-bot/internal/model"

	"gorm.io/gorm"
)

type OrderRepository interface {
	Create(ctx context.Context, tx *gorm.DB, order *model.Order) error
	FindByID(ctx context.Context, orderID uint) (*model.Order, error)
	FindLatestByCustomer(ctx context.Context, customerPhone string) (*model.Order, error)
	// UpdateStatus moves the order only if it is still in one of the expected statuses.
	// It returns gorm.ErrRecordNotFound when no row matched.
	UpdateStatus(ctx context.Context, tx *gorm.DB, orderID uint, to model.OrderStatus, from ...model.OrderStatus) error
	CreateOrderItems(ctx context.Context, tx *gorm.DB, items []*model.OrderItem) error
	GetOrderItems(ctx context.Context, tx *gorm.DB, orderID uint) ([]*model.OrderItem, error)
}

type orderRepoImpl struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepoImpl{
		db: db,
	}
}

func (r *orderRepoImpl) Create(ctx context.Context, tx *gorm.DB, order *model.Order) error {
	return tx.WithContext(ctx).Create(order).Error
}

func (r *orderRepoImpl) FindByID(ctx context.Context, orderID uint) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).
		Where("id = ?", orderID).
		First(&order).Error

	if err != nil {
		return nil, err
	}

	return &order, nil
}

func (r *orderRepoImpl) FindLatestByCustomer(ctx context.Context, customerPhone string) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).
		Where("customer_phone = ?", customerPhone).
		Order("created_at DESC, id DESC").
		First(&order).Error

	if err != nil {
		return nil, err
	}

	return &order, nil
}

func (r *orderRepoImpl) UpdateStatus(ctx context.Context, tx *gorm.DB, orderID uint, to model.OrderStatus, from ...model.OrderStatus) error {
	q := tx.WithContext(ctx).Model(&model.Order{}).Where("id = ?", orderID)
	if len(from) > 0 {
		q = q.Where("status IN ?", from)
	}

	result := q.Updates(map[string]interface{}{
		"status":     to,
		"updated_at": time.Now(),
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *orderRepoImpl) CreateOrderItems(ctx context.Context, tx *gorm.DB, items []*model.OrderItem) error {
	return tx.WithContext(ctx).Create(&items).Error
}

func (r *orderRepoImpl) GetOrderItems(ctx context.Context, tx *gorm.DB, orderID uint) ([]*model.OrderItem, error) {
	var items []*model.OrderItem
	err := tx.WithContext(ctx).Where("order_id = ?", orderID).
		Order("id").
		Find(&items).Error

	if err != nil {
		return nil, err
	}

	return items, nil
}
