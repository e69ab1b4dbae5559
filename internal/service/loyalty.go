package service

import (
	"context"
	"fmt"

	"kwetu-order-bot/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type LoyaltyService interface {
	// PointsFor is one point per full amountPerPoint spent.
	PointsFor(amount decimal.Decimal) int64
	Award(ctx context.Context, tx *gorm.DB, phone string, amount decimal.Decimal) (int64, error)
	Balance(ctx context.Context, phone string) (int64, error)
}

type loyaltyServiceImpl struct {
	customerRepo   repository.CustomerRepository
	amountPerPoint decimal.Decimal
}

func NewLoyaltyService(
	customerRepo repository.CustomerRepository,
	amountPerPoint int64,
) LoyaltyService {
	return &loyaltyServiceImpl{
		customerRepo:   customerRepo,
		amountPerPoint: decimal.NewFromInt(amountPerPoint),
	}
}

func (s *loyaltyServiceImpl) PointsFor(amount decimal.Decimal) int64 {
	if !s.amountPerPoint.IsPositive() || !amount.IsPositive() {
		return 0
	}
	return amount.Div(s.amountPerPoint).Floor().IntPart()
}

func (s *loyaltyServiceImpl) Award(ctx context.Context, tx *gorm.DB, phone string, amount decimal.Decimal) (int64, error) {
	points := s.PointsFor(amount)
	if points == 0 {
		return 0, nil
	}
	if err := s.customerRepo.AddPoints(ctx, tx, phone, points); err != nil {
		return 0, fmt.Errorf("award %d points to %s: %w", points, phone, err)
	}
	return points, nil
}

func (s *loyaltyServiceImpl) Balance(ctx context.Context, phone string) (int64, error) {
	customer, err := s.customerRepo.FindByPhone(ctx, phone)
	if err != nil {
		return 0, err
	}
	return customer.LoyaltyPoints, nil
}
