package model

type OrderStatus string

const (
	OrderPendingPayment OrderStatus = "pending_payment"
	OrderProcessing     OrderStatus = "processing"
	OrderPreparing      OrderStatus = "preparing"
	OrderOutForDelivery OrderStatus = "out_for_delivery"
	OrderDispatched     OrderStatus = "dispatched"
	OrderDelivered      OrderStatus = "delivered"
	OrderCancelled      OrderStatus = "cancelled"
	OrderPaymentFailed  OrderStatus = "payment_failed"
	OrderCompleted      OrderStatus = "completed"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderPendingPayment: {OrderProcessing, OrderPaymentFailed, OrderCancelled},
	OrderPaymentFailed:  {OrderPendingPayment, OrderCancelled},
	OrderProcessing:     {OrderPreparing, OrderOutForDelivery, OrderDispatched, OrderCancelled},
	OrderPreparing:      {OrderOutForDelivery, OrderDispatched, OrderCancelled},
	OrderOutForDelivery: {OrderDelivered, OrderCancelled},
	OrderDispatched:     {OrderOutForDelivery, OrderDelivered, OrderCancelled},
	OrderDelivered:      {OrderCompleted},
	OrderCompleted:      nil,
	OrderCancelled:      nil,
}

func (s OrderStatus) Valid() bool {
	_, ok := orderTransitions[s]
	return ok
}

func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// CustomerMessage is the wording sent to the customer when an order enters the status.
func (s OrderStatus) CustomerMessage() string {
	switch s {
	case OrderPendingPayment:
		return "is waiting for payment"
	case OrderProcessing:
		return "has been paid and is being processed"
	case OrderPreparing:
		return "is being prepared in our kitchen"
	case OrderOutForDelivery:
		return "is out for delivery"
	case OrderDispatched:
		return "has been dispatched to your address"
	case OrderDelivered:
		return "has been delivered, enjoy your meal"
	case OrderCompleted:
		return "is completed, thank you for ordering with us"
	case OrderCancelled:
		return "has been cancelled"
	case OrderPaymentFailed:
		return "could not be paid"
	}
	return string(s)
}

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
)

type Category string

const (
	CategoryPizza   Category = "Pizza"
	CategoryDrinks  Category = "Drinks"
	CategoryDessert Category = "Dessert"
	CategorySpecial Category = "Special"
)

// Categories is the menu order; the customer picks them by 1-based position.
var Categories = []Category{CategoryPizza, CategoryDrinks, CategoryDessert, CategorySpecial}

// Timeline event types that are not order statuses.
const (
	EventOrderPlaced        = "order_placed"
	EventPaymentConfirmed   = "payment_confirmed"
	EventPaymentFailed      = "payment_failed"
	// a verified payment for an order that was no longer awaiting one
	EventPaymentAfterCancel = "payment_after_cancel"
)
