package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"kwetu-order-bot/internal/cart"
	"kwetu-order-bot/internal/config"
	"kwetu-order-bot/internal/conversation"
	"kwetu-order-bot/internal/model"
	"kwetu-order-bot/internal/repository"
	"kwetu-order-bot/internal/testutil"
)

const (
	customerPhone = "255712345678"
	adminPhone    = "255700111222"
	webhookHash   = "s3cr3t-hash"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type sentMessage struct {
	To    string
	Text  string
	Reply *conversation.Reply
}

type fakeWhatsApp struct {
	mu   sync.Mutex
	sent []sentMessage
	err  error
}

func (f *fakeWhatsApp) SendText(_ context.Context, to, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMessage{To: to, Text: body})
	return nil
}

func (f *fakeWhatsApp) SendReply(_ context.Context, to string, reply conversation.Reply) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMessage{To: to, Text: reply.Body, Reply: &reply})
	return nil
}

func (f *fakeWhatsApp) textsTo(to string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, m := range f.sent {
		if m.To == to {
			out = append(out, m.Text)
		}
	}
	return out
}

type fakeSMS struct {
	mu   sync.Mutex
	sent []sentMessage
	err  error
}

func (f *fakeSMS) Send(_ context.Context, to, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMessage{To: to, Text: message})
	return nil
}

type fakeGateway struct {
	chargeResp *model.ChargeResponse
	chargeErr  error
	charges    []*model.ChargeRequest

	verify    map[string]*model.VerifyResponse
	verifyErr error
}

func (f *fakeGateway) CreateMobileMoneyCharge(_ context.Context, req *model.ChargeRequest) (*model.ChargeResponse, error) {
	f.charges = append(f.charges, req)
	if f.chargeErr != nil {
		return nil, f.chargeErr
	}
	return f.chargeResp, nil
}

func (f *fakeGateway) VerifyTransaction(_ context.Context, id string) (*model.VerifyResponse, error) {
	if f.verifyErr != nil {
		return nil, f.verifyErr
	}
	resp, ok := f.verify[id]
	if !ok {
		return nil, errors.New("gateway error 404: transaction not found")
	}
	return resp, nil
}

type fixture struct {
	db           *gorm.DB
	wa           *fakeWhatsApp
	sms          *fakeSMS
	gateway      *fakeGateway
	catalog      CatalogService
	orders       OrderService
	payments     PaymentService
	loyalty      LoyaltyService
	notifier     NotificationService
	orderRepo    repository.OrderRepository
	txnRepo      repository.TransactionRepository
	timelineRepo repository.TimelineRepository
	customerRepo repository.CustomerRepository
	sessionRepo  repository.SessionRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	logger := discardLogger()

	f := &fixture{
		db:  db,
		wa:  &fakeWhatsApp{},
		sms: &fakeSMS{},
		gateway: &fakeGateway{
			chargeResp: &model.ChargeResponse{Status: model.GatewayStatusSuccess, Message: "Charge initiated", Data: model.ChargeData{ID: "gw123"}},
			verify:     map[string]*model.VerifyResponse{},
		},
		orderRepo:    repository.NewOrderRepository(db),
		txnRepo:      repository.NewTransactionRepository(db),
		timelineRepo: repository.NewTimelineRepository(db),
		customerRepo: repository.NewCustomerRepository(db),
		sessionRepo:  repository.NewSessionRepository(db),
	}

	f.catalog = NewCatalogService(repository.NewProductRepository(db), repository.NewDeliveryZoneRepository(db))
	require.NoError(t, f.catalog.Seed(context.Background()))

	f.notifier = NewNotificationService(f.wa, f.sms, adminPhone, logger)
	f.loyalty = NewLoyaltyService(f.customerRepo, 1000)
	f.orders = NewOrderService(db, "TZS", f.customerRepo, f.orderRepo, f.txnRepo, f.timelineRepo, f.notifier, logger)
	f.payments = NewPaymentService(
		db,
		f.gateway,
		config.Gateway{Currency: "TZS", DefaultEmail: "orders@example.com", WebhookHash: webhookHash},
		config.Business{Name: "Kwetu Pizza", SupportPhone: "+255 700 000 000"},
		f.orders,
		f.notifier,
		f.loyalty,
		f.orderRepo,
		f.txnRepo,
		f.timelineRepo,
		repository.NewWebhookEventRepository(db),
		logger,
	)
	return f
}

// paymentRequest is two Margherita (12,000 each) delivered to a 2,000 zone: 26,000 in total.
func paymentRequest(t *testing.T) conversation.PaymentRequest {
	t.Helper()
	c := cart.Cart{}.Append(1, "Margherita", decimal.NewFromInt(12000))
	c, err := c.SetQuantity(1, 2)
	require.NoError(t, err)

	return conversation.PaymentRequest{
		CustomerPhone: customerPhone,
		CustomerName:  "Asha",
		PayerPhone:    customerPhone,
		Cart:          c,
		Zone:          &cart.Zone{ID: 1, Name: "Mikocheni", Fee: decimal.NewFromInt(2000)},
		Area:          "Mikocheni",
		Address:       "Plot 12, Old Bagamoyo Rd",
		Provider:      conversation.ProviderTigoPesa,
	}
}

func (f *fixture) countOrders(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&model.Order{}).Count(&n).Error)
	return n
}

func (f *fixture) latestOrder(t *testing.T) *model.Order {
	t.Helper()
	order, err := f.orderRepo.FindLatestByCustomer(context.Background(), customerPhone)
	require.NoError(t, err)
	return order
}

func containsAny(texts []string, substr string) bool {
	for _, s := range texts {
		if strings.Contains(s, substr) {
			return true
		}
	}
	return false
}
