package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type Product struct {
	ID          uint            `gorm:"primaryKey"`
	Name        string          `gorm:"size:128;not null"`
	Description string          `gorm:"size:255"`
	Category    Category        `gorm:"size:32;index;not null"`
	Price       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Available   bool            `gorm:"not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type DeliveryZone struct {
	ID          uint            `gorm:"primaryKey"`
	Name        string          `gorm:"size:128;not null"`
	Description string          `gorm:"size:255"`
	Fee         decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Customer struct {
	Phone         string `gorm:"primaryKey;size:32"`
	Name          string `gorm:"size:128"`
	Email         string `gorm:"size:128"`
	LoyaltyPoints int64  `gorm:"not null;default:0"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type Order struct {
	ID              uint            `gorm:"primaryKey"`
	CustomerPhone   string          `gorm:"size:32;index;not null"`
	CustomerName    string          `gorm:"size:128"`
	CustomerEmail   string          `gorm:"size:128"`
	DeliveryAddress string          `gorm:"size:512"`
	DeliveryPhone   string          `gorm:"size:32"`
	DeliveryZoneID  *uint           `gorm:"index"`
	DeliveryFee     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Status          OrderStatus     `gorm:"size:32;index;not null"`
	Total           decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Currency        string          `gorm:"size:8;not null"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type OrderItem struct {
	ID uint `gorm:"primaryKey"`
	// FK → orders.id
	OrderID uint `gorm:"index;not null"`
	// FK → products.id
	ProductID uint            `gorm:"index;not null"`
	Quantity  int             `gorm:"not null"`
	Price     decimal.Decimal `gorm:"type:decimal(12,2);not null"` // unit price at checkout
	CreatedAt time.Time
}

type Transaction struct {
	ID                   uint            `gorm:"primaryKey"`
	OrderID              uint            `gorm:"index;not null"`
	TxRef                string          `gorm:"size:64;uniqueIndex;not null"`
	TransactionReference string          `gorm:"size:64;index"` // gateway transaction id
	PaymentMethod        string          `gorm:"size:32;not null"`
	PaymentStatus        PaymentStatus   `gorm:"size:16;index;not null"`
	Amount               decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Currency             string          `gorm:"size:8;not null"`
	Provider             string          `gorm:"size:32"`
	FailureReason        string          `gorm:"size:255"`
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

type TimelineEvent struct {
	ID          uint   `gorm:"primaryKey"`
	OrderID     uint   `gorm:"index;not null"`
	EventType   string `gorm:"size:32;index;not null"`
	Description string `gorm:"size:512"`
	CreatedAt   time.Time
}

// SessionRecord backs the conversation session store. Rows past ExpiresAt are treated as absent.
type SessionRecord struct {
	Key       string         `gorm:"primaryKey;size:64"`
	Value     datatypes.JSON `gorm:"not null"`
	ExpiresAt time.Time      `gorm:"index;not null"`
	UpdatedAt time.Time
}

type PaymentWebhookEvent struct {
	EventID      string         `gorm:"primaryKey;size:128"`
	EventType    string         `gorm:"size:64;index"`
	Status       string         `gorm:"size:32"`
	TxRef        string         `gorm:"size:64;index"`
	Payload      datatypes.JSON `gorm:"not null"`
	ProcessedAt  *time.Time
	ProcessError *string `gorm:"size:255"`
	CreatedAt    time.Time
}
