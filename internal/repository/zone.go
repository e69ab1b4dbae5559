package repository

import (
	"context"

	"kwetu-order-bot/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DeliveryZoneRepository interface {
	Seed(ctx context.Context) error
	List(ctx context.Context) ([]*model.DeliveryZone, error)
	FindByID(ctx context.Context, zoneID uint) (*model.DeliveryZone, error)
}

type deliveryZoneRepoImpl struct {
	db *gorm.DB
}

func NewDeliveryZoneRepository(db *gorm.DB) DeliveryZoneRepository {
	return &deliveryZoneRepoImpl{
		db: db,
	}
}

func (r *deliveryZoneRepoImpl) Seed(ctx context.Context) error {
	zones := []model.DeliveryZone{
		{ID: 1, Name: "Mikocheni", Description: "Mikocheni A & B, Regent Estate", Fee: decimal.NewFromInt(2000)},
		{ID: 2, Name: "Masaki", Description: "Masaki and Oyster Bay", Fee: decimal.NewFromInt(3000)},
		{ID: 3, Name: "Sinza", Description: "Sinza, Mabibo", Fee: decimal.NewFromInt(2500)},
		{ID: 4, Name: "Kariakoo", Description: "Kariakoo and Upanga", Fee: decimal.NewFromInt(3000)},
		{ID: 5, Name: "City Centre", Description: "Posta and Kivukoni", Fee: decimal.NewFromInt(2000)},
	}

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&zones).Error
}

func (r *deliveryZoneRepoImpl) List(ctx context.Context) ([]*model.DeliveryZone, error) {
	var zones []*model.DeliveryZone
	err := r.db.WithContext(ctx).Order("id").Find(&zones).Error
	if err != nil {
		return nil, err
	}

	return zones, nil
}

func (r *deliveryZoneRepoImpl) FindByID(ctx context.Context, zoneID uint) (*model.DeliveryZone, error) {
	var zone model.DeliveryZone
	err := r.db.WithContext(ctx).
		Where("id = ?", zoneID).
		First(&zone).Error
	if err != nil {
		return nil, err
	}

	return &zone, nil
}
