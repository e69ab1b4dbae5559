package model

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

const (
	GatewayStatusSuccess    = "success"
	GatewayStatusSuccessful = "successful"
	GatewayStatusFailed     = "failed"

	EventChargeCompleted = "charge.completed"
)

// GatewayID accepts the gateway's transaction id as either a JSON number or string.
type GatewayID string

func (id *GatewayID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return fmt.Errorf("decode gateway id: %w", err)
		}
		*id = GatewayID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("decode gateway id: %w", err)
	}
	*id = GatewayID(n.String())
	return nil
}

type ChargeMeta struct {
	OrderID       uint   `json:"order_id"`
	CustomerPhone string `json:"customer_phone"`
}

type ChargeRequest struct {
	TxRef       string          `json:"tx_ref"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Network     string          `json:"network"`
	Email       string          `json:"email"`
	PhoneNumber string          `json:"phone_number"`
	Fullname    string          `json:"fullname"`
	RedirectURL string          `json:"redirect_url,omitempty"`
	Meta        ChargeMeta      `json:"meta"`
}

// MarshalJSON sends the amount as a bare JSON number; decimal.Decimal quotes it by default.
func (r ChargeRequest) MarshalJSON() ([]byte, error) {
	type wire ChargeRequest
	return json.Marshal(struct {
		wire
		Amount json.Number `json:"amount"`
	}{
		wire:   wire(r),
		Amount: json.Number(r.Amount.String()),
	})
}

type ChargeData struct {
	ID     GatewayID `json:"id"`
	TxRef  string    `json:"tx_ref"`
	Status string    `json:"status"`
}

type ChargeResponse struct {
	Status  string     `json:"status"`
	Message string     `json:"message"`
	Data    ChargeData `json:"data"`
}

type GatewayCustomer struct {
	PhoneNumber string `json:"phone_number"`
	Name        string `json:"name"`
	Email       string `json:"email"`
}

type VerifyData struct {
	ID          GatewayID       `json:"id"`
	TxRef       string          `json:"tx_ref"`
	Status      string          `json:"status"`
	PaymentType string          `json:"payment_type"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Customer    GatewayCustomer `json:"customer"`
}

type VerifyResponse struct {
	Status  string     `json:"status"`
	Message string     `json:"message"`
	Data    VerifyData `json:"data"`
}

type PaymentWebhookData struct {
	ID                GatewayID       `json:"id"`
	TxRef             string          `json:"tx_ref"`
	Status            string          `json:"status"`
	Amount            decimal.Decimal `json:"amount"`
	Currency          string          `json:"currency"`
	Customer          GatewayCustomer `json:"customer"`
	ProcessorResponse string          `json:"processor_response"`
	GatewayResponse   string          `json:"gateway_response"`
}

type PaymentWebhookMeta struct {
	DeliveryAddress string `json:"delivery_address"`
}

type PaymentWebhook struct {
	Event string              `json:"event"`
	Data  PaymentWebhookData  `json:"data"`
	Meta  *PaymentWebhookMeta `json:"meta,omitempty"`
}

// FailureReason picks the most specific explanation the gateway gave.
func (d PaymentWebhookData) FailureReason() string {
	if d.ProcessorResponse != "" {
		return d.ProcessorResponse
	}
	if d.GatewayResponse != "" {
		return d.GatewayResponse
	}
	return "Payment was declined"
}
