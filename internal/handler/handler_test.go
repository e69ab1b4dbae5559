package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kwetu-order-bot/internal/apperr"
	"kwetu-order-bot/internal/conversation"
	"kwetu-order-bot/internal/model"
	"kwetu-order-bot/internal/service"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeConversation struct {
	service.ConversationService
	received []conversation.Inbound
	err      error
}

func (f *fakeConversation) HandleInbound(_ context.Context, in conversation.Inbound) error {
	f.received = append(f.received, in)
	return f.err
}

type fakePayments struct {
	service.PaymentService
	body []byte
	err  error
}

func (f *fakePayments) HandleWebhook(_ context.Context, _ http.Header, body []byte) error {
	f.body = body
	return f.err
}

type fakeOrders struct {
	service.OrderService
	updated []model.OrderStatus
	err     error
}

func (f *fakeOrders) UpdateOrderStatus(_ context.Context, id uint, status model.OrderStatus, _ string) (*model.Order, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.updated = append(f.updated, status)
	return &model.Order{ID: id, Status: status, Currency: "TZS"}, nil
}

func (f *fakeOrders) Timeline(_ context.Context, id uint) ([]*model.TimelineEvent, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []*model.TimelineEvent{
		{OrderID: id, EventType: model.EventOrderPlaced, Description: "Order placed"},
	}, nil
}

func (f *fakeOrders) Order(_ context.Context, id uint) (*model.Order, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &model.Order{ID: id, Status: model.OrderProcessing, Total: decimal.NewFromInt(26000), Currency: "TZS"}, nil
}

func (f *fakeOrders) Items(_ context.Context, _ uint) ([]*model.OrderItem, error) {
	return []*model.OrderItem{
		{ProductID: 2, Quantity: 2, Price: decimal.NewFromInt(12000)},
	}, nil
}

type structValidator struct{ v *validator.Validate }

func (s structValidator) Validate(i any) error { return s.v.Struct(i) }

func newContext(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = structValidator{v: validator.New()}
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestWhatsAppVerify(t *testing.T) {
	h := NewWhatsAppHandler(&fakeConversation{}, "tok", discardLogger())

	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantBody   string
	}{
		{"valid", "hub.mode=subscribe&hub.verify_token=tok&hub.challenge=42", http.StatusOK, "42"},
		{"wrong token", "hub.mode=subscribe&hub.verify_token=nope&hub.challenge=42", http.StatusForbidden, ""},
		{"wrong mode", "hub.mode=unsubscribe&hub.verify_token=tok&hub.challenge=42", http.StatusForbidden, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec := newContext(http.MethodGet, "/webhook/whatsapp?"+tt.query, "")
			require.NoError(t, h.Verify(c))
			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, rec.Body.String())
			}
		})
	}

	unset := NewWhatsAppHandler(&fakeConversation{}, "", discardLogger())
	c, rec := newContext(http.MethodGet, "/webhook/whatsapp?hub.mode=subscribe&hub.verify_token=&hub.challenge=1", "")
	require.NoError(t, unset.Verify(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestWhatsAppReceive_Normalized(t *testing.T) {
	conv := &fakeConversation{}
	h := NewWhatsAppHandler(conv, "tok", discardLogger())

	c, rec := newContext(http.MethodPost, "/webhook/whatsapp",
		`{"from":"255712345678","name":"Asha","text":"menu","interactive_selection":{"id":"cat_1","title":"Pizza"}}`)
	require.NoError(t, h.Receive(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	require.Len(t, conv.received, 1)
	in := conv.received[0]
	assert.Equal(t, "255712345678", in.From)
	assert.Equal(t, "Asha", in.Name)
	require.NotNil(t, in.Selection)
	assert.Equal(t, "cat_1", in.Content())
}

func TestWhatsAppReceive_CloudEnvelope(t *testing.T) {
	conv := &fakeConversation{}
	h := NewWhatsAppHandler(conv, "tok", discardLogger())

	body := `{
	  "object": "whatsapp_business_account",
	  "entry": [{"id": "1", "changes": [{"field": "messages", "value": {
	    "messaging_product": "whatsapp",
	    "contacts": [{"profile": {"name": "Juma"}, "wa_id": "255754000111"}],
	    "messages": [
	      {"from": "255754000111", "id": "m1", "type": "text", "text": {"body": "hi"}},
	      {"from": "255754000111", "id": "m2", "type": "interactive",
	       "interactive": {"type": "list_reply", "list_reply": {"id": "prod_2", "title": "Pepperoni"}}},
	      {"from": "255754000111", "id": "m3", "type": "interactive",
	       "interactive": {"type": "button_reply", "button_reply": {"id": "checkout", "title": "Checkout"}}}
	    ]}}]}]
	}`
	c, rec := newContext(http.MethodPost, "/webhook/whatsapp", body)
	require.NoError(t, h.Receive(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	require.Len(t, conv.received, 3)
	assert.Equal(t, "Juma", conv.received[0].Name)
	assert.Equal(t, "hi", conv.received[0].Content())
	assert.Equal(t, "prod_2", conv.received[1].Content())
	assert.Equal(t, "checkout", conv.received[2].Content())
}

func TestWhatsAppReceive_StatusOnlyEnvelopeIsAcknowledged(t *testing.T) {
	conv := &fakeConversation{}
	h := NewWhatsAppHandler(conv, "tok", discardLogger())

	c, rec := newContext(http.MethodPost, "/webhook/whatsapp",
		`{"object":"whatsapp_business_account","entry":[{"id":"1","changes":[{"field":"messages","value":{"statuses":[{"id":"x"}]}}]}]}`)
	require.NoError(t, h.Receive(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, conv.received)
}

func TestWhatsAppReceive_UnsupportedMessagesAreSkipped(t *testing.T) {
	conv := &fakeConversation{}
	h := NewWhatsAppHandler(conv, "tok", discardLogger())

	body := `{
	  "object": "whatsapp_business_account",
	  "entry": [{"id": "1", "changes": [{"field": "messages", "value": {
	    "messages": [
	      {"from": "255754000111", "id": "m1", "type": "image", "image": {"id": "img-1"}},
	      {"from": "255754000111", "id": "m2", "type": "text", "text": {"body": "menu"}},
	      {"from": "255754000111", "id": "m3", "type": "sticker", "sticker": {"id": "st-1"}}
	    ]}}]}]
	}`
	c, rec := newContext(http.MethodPost, "/webhook/whatsapp", body)
	require.NoError(t, h.Receive(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	require.Len(t, conv.received, 1)
	assert.Equal(t, "menu", conv.received[0].Content())
}

func TestWhatsAppReceive_InvalidPayload(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed", `{"from":`},
		{"no sender", `{"text":"menu"}`},
		{"no content", `{"from":"255712345678"}`},
		{"blank text", `{"from":"255712345678","text":"   "}`},
		{"envelope without sender", `{"object":"whatsapp_business_account","entry":[{"changes":[{"value":{"messages":[{"type":"text","text":{"body":"menu"}}]}}]}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conv := &fakeConversation{}
			h := NewWhatsAppHandler(conv, "tok", discardLogger())

			c, _ := newContext(http.MethodPost, "/webhook/whatsapp", tt.body)
			err := h.Receive(c)
			var he *echo.HTTPError
			require.ErrorAs(t, err, &he)
			assert.Equal(t, http.StatusBadRequest, he.Code)
			assert.Empty(t, conv.received)
		})
	}
}

func TestWhatsAppReceive_ProcessingFailureStillOK(t *testing.T) {
	conv := &fakeConversation{err: errors.New("whatsapp down")}
	h := NewWhatsAppHandler(conv, "tok", discardLogger())

	c, rec := newContext(http.MethodPost, "/webhook/whatsapp", `{"from":"255712345678","text":"menu"}`)
	require.NoError(t, h.Receive(c))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPaymentWebhook(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"processed", nil, http.StatusOK},
		{"rejected", apperr.ValidationErr("bad payload"), http.StatusBadRequest},
		{"bad signature", apperr.UnauthorizedErr("invalid signature"), http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payments := &fakePayments{err: tt.err}
			h := NewPaymentHandler(payments, discardLogger())

			c, rec := newContext(http.MethodPost, "/webhook/payment", `{"event":"charge.completed"}`)
			require.NoError(t, h.Webhook(c))
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.JSONEq(t, `{"event":"charge.completed"}`, string(payments.body))
		})
	}
}

func TestAdminUpdateOrderStatus(t *testing.T) {
	orders := &fakeOrders{}
	h := NewAdminHandler(orders)

	c, rec := newContext(http.MethodPut, "/api/admin/orders/7/status", `{"status":"preparing","note":"In the oven"}`)
	c.SetParamNames("id")
	c.SetParamValues("7")
	require.NoError(t, h.UpdateOrderStatus(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"preparing"`)
	assert.Equal(t, []model.OrderStatus{model.OrderPreparing}, orders.updated)
}

func TestAdminUpdateOrderStatus_Rejects(t *testing.T) {
	tests := []struct {
		name     string
		id       string
		body     string
		svcErr   error
		wantKind apperr.Kind
	}{
		{"bad id", "abc", `{"status":"preparing"}`, nil, apperr.Validation},
		{"zero id", "0", `{"status":"preparing"}`, nil, apperr.Validation},
		{"missing status", "7", `{"note":"x"}`, nil, apperr.Validation},
		{"bad json", "7", `{"status":`, nil, apperr.Validation},
		{"service says no", "7", `{"status":"delivered"}`, apperr.InvalidTransitionErr("pending_payment", "delivered"), apperr.InvalidTransition},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewAdminHandler(&fakeOrders{err: tt.svcErr})

			c, _ := newContext(http.MethodPut, "/api/admin/orders/"+tt.id+"/status", tt.body)
			c.SetParamNames("id")
			c.SetParamValues(tt.id)
			err := h.UpdateOrderStatus(c)
			assert.True(t, apperr.IsKind(err, tt.wantKind), "got %v", err)
		})
	}
}

func TestAdminOrderTimeline(t *testing.T) {
	h := NewAdminHandler(&fakeOrders{})

	c, rec := newContext(http.MethodGet, "/api/admin/orders/7/timeline", "")
	c.SetParamNames("id")
	c.SetParamValues("7")
	require.NoError(t, h.OrderTimeline(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"order_id":7`)
	assert.Contains(t, rec.Body.String(), `"event_type":"order_placed"`)
}

func TestAdminGetOrder(t *testing.T) {
	h := NewAdminHandler(&fakeOrders{})

	c, rec := newContext(http.MethodGet, "/api/admin/orders/7", "")
	c.SetParamNames("id")
	c.SetParamValues("7")
	require.NoError(t, h.GetOrder(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":7`)
	assert.Contains(t, rec.Body.String(), `"status":"processing"`)
	assert.Contains(t, rec.Body.String(), `"items":[{"product_id":2,"quantity":2,"price":"12000"}]`)
}

func TestAdminGetOrder_NotFound(t *testing.T) {
	h := NewAdminHandler(&fakeOrders{err: apperr.NotFoundErr("order 7 not found", nil)})

	c, _ := newContext(http.MethodGet, "/api/admin/orders/7", "")
	c.SetParamNames("id")
	c.SetParamValues("7")
	err := h.GetOrder(c)
	assert.True(t, apperr.IsKind(err, apperr.NotFound), "got %v", err)
}
