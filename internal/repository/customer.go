package repository

import (
	"context"
	"time"

	"kwetu-order-bot/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CustomerRepository interface {
	// Upsert creates the customer or refreshes name and email; loyalty points are never touched.
	Upsert(ctx context.Context, tx *gorm.DB, customer *model.Customer) error
	AddPoints(ctx context.Context, tx *gorm.DB, phone string, points int64) error
	FindByPhone(ctx context.Context, phone string) (*model.Customer, error)
}

type customerRepoImpl struct {
	db *gorm.DB
}

func NewCustomerRepository(db *gorm.DB) CustomerRepository {
	return &customerRepoImpl{
		db: db,
	}
}

func (r *customerRepoImpl) Upsert(ctx context.Context, tx *gorm.DB, customer *model.Customer) error {
	updates := map[string]interface{}{
		"updated_at": time.Now(),
	}
	if customer.Name != "" {
		updates["name"] = customer.Name
	}
	if customer.Email != "" {
		updates["email"] = customer.Email
	}

	return tx.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "phone"}},
		DoUpdates: clause.Assignments(updates),
	}).Create(customer).Error
}

func (r *customerRepoImpl) AddPoints(ctx context.Context, tx *gorm.DB, phone string, points int64) error {
	return tx.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "phone"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"loyalty_points": gorm.Expr("customers.loyalty_points + ?", points),
			"updated_at":     time.Now(),
		}),
	}).Create(&model.Customer{Phone: phone, LoyaltyPoints: points}).Error
}

func (r *customerRepoImpl) FindByPhone(ctx context.Context, phone string) (*model.Customer, error) {
	var customer model.Customer
	err := r.db.WithContext(ctx).
		Where("phone = ?", phone).
		First(&customer).Error
	if err != nil {
		return nil, err
	}

	return &customer, nil
}
