package repository

import (
	"context"

	"kwetu-order-bot/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProductRepository interface {
	Seed(ctx context.Context) error
	FindByID(ctx context.Context, productID uint) (*model.Product, error)
	GetByCategory(ctx context.Context, category model.Category) ([]*model.Product, error)
	GetAvailable(ctx context.Context) ([]*model.Product, error)
}

type productRepoImpl struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepoImpl{
		db: db,
	}
}

func (r *productRepoImpl) Seed(ctx context.Context) error {
	products := []model.Product{
		{ID: 1, Name: "Margherita", Description: "Tomato, mozzarella, basil", Category: model.CategoryPizza, Price: decimal.NewFromInt(15000), Available: true},
		{ID: 2, Name: "Pepperoni", Description: "Beef pepperoni, mozzarella", Category: model.CategoryPizza, Price: decimal.NewFromInt(18000), Available: true},
		{ID: 3, Name: "BBQ Chicken", Description: "Chicken, onion, BBQ sauce", Category: model.CategoryPizza, Price: decimal.NewFromInt(20000), Available: true},
		{ID: 4, Name: "Vegetarian", Description: "Peppers, mushrooms, olives", Category: model.CategoryPizza, Price: decimal.NewFromInt(16000), Available: true},
		{ID: 5, Name: "Coca-Cola 500ml", Category: model.CategoryDrinks, Price: decimal.NewFromInt(2000), Available: true},
		{ID: 6, Name: "Fresh Passion Juice", Category: model.CategoryDrinks, Price: decimal.NewFromInt(3500), Available: true},
		{ID: 7, Name: "Water 1L", Category: model.CategoryDrinks, Price: decimal.NewFromInt(1000), Available: true},
		{ID: 8, Name: "Chocolate Brownie", Category: model.CategoryDessert, Price: decimal.NewFromInt(5000), Available: true},
		{ID: 9, Name: "Vanilla Ice Cream", Category: model.CategoryDessert, Price: decimal.NewFromInt(4000), Available: true},
		{ID: 10, Name: "Kwetu Special", Description: "Chef's pizza of the week", Category: model.CategorySpecial, Price: decimal.NewFromInt(25000), Available: true},
	}

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&products).Error
}

func (r *productRepoImpl) FindByID(ctx context.Context, productID uint) (*model.Product, error) {
	var product model.Product
	err := r.db.WithContext(ctx).
		Where("id = ?", productID).
		First(&product).Error

	if err != nil {
		return nil, err
	}

	return &product, nil
}

func (r *productRepoImpl) GetByCategory(ctx context.Context, category model.Category) ([]*model.Product, error) {
	var products []*model.Product
	err := r.db.WithContext(ctx).
		Where("category = ? AND available = ?", category, true).
		Order("id").
		Find(&products).
		Error

	if err != nil {
		return nil, err
	}

	return products, nil
}

func (r *productRepoImpl) GetAvailable(ctx context.Context) ([]*model.Product, error) {
	var products []*model.Product
	err := r.db.WithContext(ctx).
		Where("available = ?", true).
		Order("id").
		Find(&products).
		Error

	if err != nil {
		return nil, err
	}

	return products, nil
}
