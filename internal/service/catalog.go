package service

import (
	"context"
	"errors"
	"fmt"

	"kwetu-order-bot/internal/apperr"
	"kwetu-order-bot/internal/model"
	"kwetu-order-bot/internal/repository"

	"gorm.io/gorm"
)

// CatalogService is the read side of the menu and delivery zones used by the dialogue.
type CatalogService interface {
	Seed(ctx context.Context) error
	ProductsByCategory(ctx context.Context, category model.Category) ([]*model.Product, error)
	AvailableProducts(ctx context.Context) ([]*model.Product, error)
	Product(ctx context.Context, id uint) (*model.Product, error)
	DeliveryZones(ctx context.Context) ([]*model.DeliveryZone, error)
	DeliveryZone(ctx context.Context, id uint) (*model.DeliveryZone, error)
}

type catalogServiceImpl struct {
	productRepo repository.ProductRepository
	zoneRepo    repository.DeliveryZoneRepository
}

func NewCatalogService(
	productRepo repository.ProductRepository,
	zoneRepo repository.DeliveryZoneRepository,
) CatalogService {
	return &catalogServiceImpl{
		productRepo: productRepo,
		zoneRepo:    zoneRepo,
	}
}

func (s *catalogServiceImpl) Seed(ctx context.Context) error {
	if err := s.productRepo.Seed(ctx); err != nil {
		return fmt.Errorf("seed products: %w", err)
	}
	if err := s.zoneRepo.Seed(ctx); err != nil {
		return fmt.Errorf("seed delivery zones: %w", err)
	}
	return nil
}

func (s *catalogServiceImpl) ProductsByCategory(ctx context.Context, category model.Category) ([]*model.Product, error) {
	products, err := s.productRepo.GetByCategory(ctx, category)
	if err != nil {
		return nil, apperr.PersistenceErr(fmt.Errorf("list %s products: %w", category, err))
	}
	return products, nil
}

func (s *catalogServiceImpl) AvailableProducts(ctx context.Context) ([]*model.Product, error) {
	products, err := s.productRepo.GetAvailable(ctx)
	if err != nil {
		return nil, apperr.PersistenceErr(fmt.Errorf("list products: %w", err))
	}
	return products, nil
}

func (s *catalogServiceImpl) Product(ctx context.Context, id uint) (*model.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundErr("Product not found", err)
		}
		return nil, apperr.PersistenceErr(fmt.Errorf("find product %d: %w", id, err))
	}
	return product, nil
}

func (s *catalogServiceImpl) DeliveryZones(ctx context.Context) ([]*model.DeliveryZone, error) {
	zones, err := s.zoneRepo.List(ctx)
	if err != nil {
		return nil, apperr.PersistenceErr(fmt.Errorf("list delivery zones: %w", err))
	}
	return zones, nil
}

func (s *catalogServiceImpl) DeliveryZone(ctx context.Context, id uint) (*model.DeliveryZone, error) {
	zone, err := s.zoneRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundErr("Delivery zone not found", err)
		}
		return nil, apperr.PersistenceErr(fmt.Errorf("find delivery zone %d: %w", id, err))
	}
	return zone, nil
}
