// Package conversation implements the ordering dialogue: given the stored session and one inbound
// message it decides the replies and the next session.
package conversation

import (
	"context"
	"log/slog"
	"strings"

	"kwetu-order-bot/internal/cart"
	"kwetu-order-bot/internal/model"
)

// Catalog is the read side of products and delivery zones.
// Product and DeliveryZone return an apperr NotFound error when the id is unknown.
type Catalog interface {
	ProductsByCategory(ctx context.Context, category model.Category) ([]*model.Product, error)
	AvailableProducts(ctx context.Context) ([]*model.Product, error)
	Product(ctx context.Context, id uint) (*model.Product, error)
	DeliveryZones(ctx context.Context) ([]*model.DeliveryZone, error)
	DeliveryZone(ctx context.Context, id uint) (*model.DeliveryZone, error)
}

type OrderLookup interface {
	LatestOrder(ctx context.Context, customerPhone string) (*model.Order, error)
}

// PaymentRequest is everything the payment flow needs from a finished dialogue.
type PaymentRequest struct {
	CustomerPhone string
	CustomerName  string
	PayerPhone    string
	Cart          cart.Cart
	Zone          *cart.Zone
	Area          string
	Address       string
	Provider      Provider
}

// PaymentInitiator places the order and starts the mobile-money charge. It messages the
// customer itself and reports whether the charge was accepted by the gateway.
type PaymentInitiator interface {
	InitiatePayment(ctx context.Context, req PaymentRequest) bool
}

type Settings struct {
	BusinessName string
	Currency     string
	SupportPhone string
}

type Machine struct {
	catalog  Catalog
	orders   OrderLookup
	payments PaymentInitiator
	settings Settings
	logger   *slog.Logger
}

func NewMachine(
	catalog Catalog,
	orders OrderLookup,
	payments PaymentInitiator,
	settings Settings,
	logger *slog.Logger,
) *Machine {
	return &Machine{
		catalog:  catalog,
		orders:   orders,
		payments: payments,
		settings: settings,
		logger:   logger,
	}
}

type stateHandler func(m *Machine, ctx context.Context, sess Session, in Inbound) ([]Reply, Session)

var handlers = map[State]stateHandler{
	StateNone:              (*Machine).handleFirstContact,
	StateGreeted:           (*Machine).handleGreeted,
	StateCategorySelection: (*Machine).handleCategorySelection,
	StateMenuSelection:     (*Machine).handleMenuSelection,
	StateQuantity:          (*Machine).handleQuantity,
	StateAddOrCheckout:     (*Machine).handleAddOrCheckout,
	StateAddress:           (*Machine).handleAddress,
	StateDeliveryZone:      (*Machine).handleDeliveryZone,
	StateFullAddress:       (*Machine).handleFullAddress,
	StatePaymentProvider:   (*Machine).handlePaymentProvider,
	StateUseWhatsAppNumber: (*Machine).handleUseWhatsAppNumber,
	StatePaymentPhone:      (*Machine).handlePaymentPhone,
}

// Handle processes one inbound message. Global commands win over the awaited state.
func (m *Machine) Handle(ctx context.Context, sess Session, in Inbound) ([]Reply, Session) {
	if in.Name != "" && sess.CustomerName == "" {
		sess.CustomerName = in.Name
	}

	if replies, next, ok := m.handleCommand(ctx, sess, in); ok {
		return replies, next
	}

	h, ok := handlers[sess.Awaiting]
	if !ok {
		m.logger.WarnContext(ctx, "unknown conversation state", "from", in.From, "state", sess.Awaiting)
		return []Reply{Text(m.fallbackText())}, sess.fresh(StateGreeted)
	}
	return h(m, ctx, sess, in)
}

func (m *Machine) handleCommand(ctx context.Context, sess Session, in Inbound) ([]Reply, Session, bool) {
	input := in.Normalized()

	switch input {
	case "hi", "hello", "hey", "start":
		return []Reply{Text(m.greetingText(sess.CustomerName))}, sess.fresh(StateGreeted), true
	case "menu", "order":
		return []Reply{m.categoriesReply()}, sess.fresh(StateCategorySelection), true
	case "help":
		return []Reply{Text(m.helpText())}, sess, true
	}

	if strings.Contains(input, "status") || strings.Contains(input, "my order") {
		return []Reply{m.orderStatusReply(ctx, in.From)}, sess, true
	}
	return nil, sess, false
}
