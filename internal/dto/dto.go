package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"kwetu-order-bot/internal/model"
)

type InteractiveSelection struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// InboundMessage is the normalized WhatsApp payload. The Cloud API envelope is
// accepted on the same endpoint and decoded into model.WAWebhook instead.
type InboundMessage struct {
	From                 string                `json:"from"`
	Name                 string                `json:"name,omitempty"`
	Text                 string                `json:"text,omitempty"`
	InteractiveSelection *InteractiveSelection `json:"interactive_selection,omitempty"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status" validate:"required"`
	Note   string `json:"note" validate:"max=500"`
}

type OrderResponse struct {
	ID              uint            `json:"id"`
	CustomerPhone   string          `json:"customer_phone"`
	CustomerName    string          `json:"customer_name,omitempty"`
	DeliveryAddress string          `json:"delivery_address,omitempty"`
	Status          string          `json:"status"`
	Total           decimal.Decimal `json:"total"`
	Currency        string          `json:"currency"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

type OrderItemResponse struct {
	ProductID uint            `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

type OrderDetailResponse struct {
	*OrderResponse
	Items []*OrderItemResponse `json:"items"`
}

type TimelineEventResponse struct {
	EventType   string    `json:"event_type"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

type TimelineResponse struct {
	OrderID uint                     `json:"order_id"`
	Events  []*TimelineEventResponse `json:"events"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func NewOrderResponse(o *model.Order) *OrderResponse {
	return &OrderResponse{
		ID:              o.ID,
		CustomerPhone:   o.CustomerPhone,
		CustomerName:    o.CustomerName,
		DeliveryAddress: o.DeliveryAddress,
		Status:          string(o.Status),
		Total:           o.Total,
		Currency:        o.Currency,
		UpdatedAt:       o.UpdatedAt,
	}
}

func NewOrderDetailResponse(o *model.Order, items []*model.OrderItem) *OrderDetailResponse {
	resp := &OrderDetailResponse{OrderResponse: NewOrderResponse(o), Items: make([]*OrderItemResponse, 0, len(items))}
	for _, it := range items {
		resp.Items = append(resp.Items, &OrderItemResponse{ProductID: it.ProductID, Quantity: it.Quantity, Price: it.Price})
	}
	return resp
}

func NewTimelineResponse(orderID uint, events []*model.TimelineEvent) *TimelineResponse {
	resp := &TimelineResponse{OrderID: orderID, Events: make([]*TimelineEventResponse, 0, len(events))}
	for _, e := range events {
		resp.Events = append(resp.Events, &TimelineEventResponse{
			EventType:   e.EventType,
			Description: e.Description,
			CreatedAt:   e.CreatedAt,
		})
	}
	return resp
}
