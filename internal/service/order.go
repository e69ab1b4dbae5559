package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"kwetu-order-bot/internal/apperr"
	"kwetu-order-bot/internal/cart"
	"kwetu-order-bot/internal/model"
	"kwetu-order-bot/internal/repository"
	"kwetu-order-bot/internal/txref"

	"gorm.io/gorm"
)

const paymentMethodMobileMoney = "mobile_money"

// PlaceOrder is a finished cart ready to be stored.
type PlaceOrder struct {
	CustomerPhone string
	CustomerName  string
	CustomerEmail string
	DeliveryPhone string
	Area          string
	Address       string
	Provider      string
	Cart          cart.Cart
	Zone          *cart.Zone
}

type PlacedOrder struct {
	Order       *model.Order
	Items       []*model.OrderItem
	Transaction *model.Transaction
	Totals      cart.Totals
}

type OrderService interface {
	// PersistOrder stores customer, order, items, pending transaction and the order_placed event atomically.
	PersistOrder(ctx context.Context, req PlaceOrder) (*PlacedOrder, error)
	UpdateOrderStatus(ctx context.Context, orderID uint, status model.OrderStatus, note string) (*model.Order, error)
	Order(ctx context.Context, orderID uint) (*model.Order, error)
	LatestOrder(ctx context.Context, customerPhone string) (*model.Order, error)
	Timeline(ctx context.Context, orderID uint) ([]*model.TimelineEvent, error)
	Items(ctx context.Context, orderID uint) ([]*model.OrderItem, error)
}

type orderServiceImpl struct {
	db           *gorm.DB
	currency     string
	customerRepo repository.CustomerRepository
	orderRepo    repository.OrderRepository
	txnRepo      repository.TransactionRepository
	timelineRepo repository.TimelineRepository
	notifier     NotificationService
	logger       *slog.Logger
}

func NewOrderService(
	db *gorm.DB,
	currency string,
	customerRepo repository.CustomerRepository,
	orderRepo repository.OrderRepository,
	txnRepo repository.TransactionRepository,
	timelineRepo repository.TimelineRepository,
	notifier NotificationService,
	logger *slog.Logger,
) OrderService {
	return &orderServiceImpl{
		db:           db,
		currency:     currency,
		customerRepo: customerRepo,
		orderRepo:    orderRepo,
		txnRepo:      txnRepo,
		timelineRepo: timelineRepo,
		notifier:     notifier,
		logger:       logger,
	}
}

func (s *orderServiceImpl) PersistOrder(ctx context.Context, req PlaceOrder) (*PlacedOrder, error) {
	if !req.Cart.Complete() {
		return nil, apperr.ValidationErr("Invalid order data")
	}
	if req.CustomerPhone == "" {
		return nil, apperr.ValidationErr("Invalid order data")
	}

	totals := cart.Compute(req.Cart, req.Zone)
	order := &model.Order{
		CustomerPhone:   req.CustomerPhone,
		CustomerName:    req.CustomerName,
		CustomerEmail:   req.CustomerEmail,
		DeliveryAddress: deliveryAddress(req.Address, req.Area),
		DeliveryPhone:   req.DeliveryPhone,
		DeliveryFee:     totals.DeliveryFee,
		Status:          model.OrderPendingPayment,
		Total:           totals.GrandTotal,
		Currency:        s.currency,
	}
	if req.Zone != nil {
		zoneID := req.Zone.ID
		order.DeliveryZoneID = &zoneID
	}

	placed := &PlacedOrder{Order: order, Totals: totals}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := s.customerRepo.Upsert(ctx, tx, &model.Customer{
			Phone: req.CustomerPhone,
			Name:  req.CustomerName,
			Email: req.CustomerEmail,
		})
		if err != nil {
			return fmt.Errorf("upsert customer: %w", err)
		}

		if err := s.orderRepo.Create(ctx, tx, order); err != nil {
			return fmt.Errorf("store order in db: %w", err)
		}
		if order.ID == 0 {
			return errors.New("order stored without id")
		}

		items := make([]*model.OrderItem, len(req.Cart))
		for i, line := range req.Cart {
			items[i] = &model.OrderItem{
				OrderID:   order.ID,
				ProductID: line.ProductID,
				Quantity:  *line.Quantity,
				Price:     line.UnitPrice,
			}
		}
		if err := s.orderRepo.CreateOrderItems(ctx, tx, items); err != nil {
			return fmt.Errorf("store order items in db: %w", err)
		}
		placed.Items = items

		txn := &model.Transaction{
			OrderID:       order.ID,
			TxRef:         txref.New(order.ID, time.Now()),
			PaymentMethod: paymentMethodMobileMoney,
			PaymentStatus: model.PaymentPending,
			Amount:        totals.GrandTotal,
			Currency:      s.currency,
			Provider:      req.Provider,
		}
		if err := s.txnRepo.Create(ctx, tx, txn); err != nil {
			return fmt.Errorf("store transaction in db: %w", err)
		}
		placed.Transaction = txn

		return s.timelineRepo.Append(ctx, tx, &model.TimelineEvent{
			OrderID:     order.ID,
			EventType:   model.EventOrderPlaced,
			Description: fmt.Sprintf("Order placed via WhatsApp, total %s %s", cart.FormatAmount(totals.GrandTotal), s.currency),
		})
	})
	if err != nil {
		return nil, apperr.PersistenceErr(err)
	}

	return placed, nil
}

func (s *orderServiceImpl) UpdateOrderStatus(ctx context.Context, orderID uint, status model.OrderStatus, note string) (*model.Order, error) {
	if !status.Valid() {
		return nil, apperr.ValidationErr(fmt.Sprintf("unknown order status %q", status))
	}

	order, err := s.Order(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.Status.CanTransitionTo(status) {
		return nil, apperr.InvalidTransitionErr(string(order.Status), string(status))
	}

	description := note
	if description == "" {
		description = fmt.Sprintf("Status changed from %s to %s", order.Status, status)
	}

	from := order.Status
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.orderRepo.UpdateStatus(ctx, tx, orderID, status, from); err != nil {
			return err
		}
		return s.timelineRepo.Append(ctx, tx, &model.TimelineEvent{
			OrderID:     orderID,
			EventType:   string(status),
			Description: description,
		})
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// someone else moved the order first
			return nil, apperr.InvalidTransitionErr(string(from), string(status))
		}
		return nil, apperr.PersistenceErr(fmt.Errorf("update order %d status: %w", orderID, err))
	}
	order.Status = status

	s.logger.InfoContext(ctx, "order status updated", "order_id", orderID, "from", from, "to", status)

	text := fmt.Sprintf("Your order #%d %s.", orderID, status.CustomerMessage())
	if note != "" {
		text += "\n" + note
	}
	if err := s.notifier.NotifyCustomer(ctx, order.CustomerPhone, text); err != nil {
		s.logger.ErrorContext(ctx, "notify customer of status change", "order_id", orderID, "phone", order.CustomerPhone, "err", err)
	}

	return order, nil
}

func (s *orderServiceImpl) Order(ctx context.Context, orderID uint) (*model.Order, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundErr(fmt.Sprintf("order %d not found", orderID), err)
		}
		return nil, apperr.PersistenceErr(fmt.Errorf("find order %d: %w", orderID, err))
	}
	return order, nil
}

func (s *orderServiceImpl) LatestOrder(ctx context.Context, customerPhone string) (*model.Order, error) {
	order, err := s.orderRepo.FindLatestByCustomer(ctx, customerPhone)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundErr("no orders yet", err)
		}
		return nil, apperr.PersistenceErr(fmt.Errorf("latest order for %s: %w", customerPhone, err))
	}
	return order, nil
}

func (s *orderServiceImpl) Timeline(ctx context.Context, orderID uint) ([]*model.TimelineEvent, error) {
	if _, err := s.Order(ctx, orderID); err != nil {
		return nil, err
	}
	events, err := s.timelineRepo.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, apperr.PersistenceErr(fmt.Errorf("list timeline of order %d: %w", orderID, err))
	}
	return events, nil
}

func (s *orderServiceImpl) Items(ctx context.Context, orderID uint) ([]*model.OrderItem, error) {
	items, err := s.orderRepo.GetOrderItems(ctx, s.db, orderID)
	if err != nil {
		return nil, apperr.PersistenceErr(fmt.Errorf("list items of order %d: %w", orderID, err))
	}
	return items, nil
}

func deliveryAddress(address, area string) string {
	switch {
	case area == "":
		return address
	case address == "":
		return area
	}
	return address + ", " + area
}
