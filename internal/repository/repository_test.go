package repository

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"kwetu-order-bot/internal/model"
	"kwetu-order-bot/internal/testutil"
)

func TestProductRepository_SeedAndQuery(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewProductRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Seed(ctx))
	require.NoError(t, repo.Seed(ctx), "seeding twice is a no-op")

	pizzas, err := repo.GetByCategory(ctx, model.CategoryPizza)
	require.NoError(t, err)
	assert.Len(t, pizzas, 4)

	require.NoError(t, db.Model(&model.Product{}).Where("id = ?", 2).Update("available", false).Error)
	pizzas, err = repo.GetByCategory(ctx, model.CategoryPizza)
	require.NoError(t, err)
	assert.Len(t, pizzas, 3)

	all, err := repo.GetAvailable(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 9)

	p, err := repo.FindByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Margherita", p.Name)
	assert.True(t, p.Price.Equal(decimal.NewFromInt(15000)))

	_, err = repo.FindByID(ctx, 999)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestDeliveryZoneRepository(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewDeliveryZoneRepository(db)
	ctx := context.Background()

	zones, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, zones)

	require.NoError(t, repo.Seed(ctx))
	zones, err = repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, zones, 5)
	assert.Equal(t, "Mikocheni", zones[0].Name)

	z, err := repo.FindByID(ctx, 2)
	require.NoError(t, err)
	assert.True(t, z.Fee.Equal(decimal.NewFromInt(3000)))
}

func TestCustomerRepository_PointsSurviveUpsert(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewCustomerRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, db, &model.Customer{Phone: "255712345678", Name: "Asha"}))
	require.NoError(t, repo.AddPoints(ctx, db, "255712345678", 26))
	require.NoError(t, repo.AddPoints(ctx, db, "255712345678", 4))
	require.NoError(t, repo.Upsert(ctx, db, &model.Customer{Phone: "255712345678", Name: "Asha M."}))

	c, err := repo.FindByPhone(ctx, "255712345678")
	require.NoError(t, err)
	assert.Equal(t, "Asha M.", c.Name)
	assert.EqualValues(t, 30, c.LoyaltyPoints)

	require.NoError(t, repo.AddPoints(ctx, db, "255700000001", 5), "points create the customer if missing")
	c, err = repo.FindByPhone(ctx, "255700000001")
	require.NoError(t, err)
	assert.EqualValues(t, 5, c.LoyaltyPoints)
}

func newOrder(phone string, status model.OrderStatus) *model.Order {
	return &model.Order{
		CustomerPhone: phone,
		Status:        status,
		Total:         decimal.NewFromInt(26000),
		DeliveryFee:   decimal.NewFromInt(2000),
		Currency:      "TZS",
	}
}

func TestOrderRepository(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewOrderRepository(db)
	ctx := context.Background()

	first := newOrder("255712345678", model.OrderPendingPayment)
	require.NoError(t, repo.Create(ctx, db, first))
	second := newOrder("255712345678", model.OrderPendingPayment)
	require.NoError(t, repo.Create(ctx, db, second))
	require.NotZero(t, second.ID)

	latest, err := repo.FindLatestByCustomer(ctx, "255712345678")
	require.NoError(t, err)
	assert.Equal(t, second.ID, latest.ID)

	_, err = repo.FindLatestByCustomer(ctx, "255799999999")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	require.NoError(t, repo.CreateOrderItems(ctx, db, []*model.OrderItem{
		{OrderID: first.ID, ProductID: 1, Quantity: 2, Price: decimal.NewFromInt(12000)},
		{OrderID: first.ID, ProductID: 5, Quantity: 1, Price: decimal.NewFromInt(2000)},
	}))
	items, err := repo.GetOrderItems(ctx, db, first.ID)
	require.NoError(t, err)
	assert.Len(t, items, 2)

	require.NoError(t, repo.UpdateStatus(ctx, db, first.ID, model.OrderProcessing, model.OrderPendingPayment))
	err = repo.UpdateStatus(ctx, db, first.ID, model.OrderProcessing, model.OrderPendingPayment)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound, "guard no longer matches")

	got, err := repo.FindByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderProcessing, got.Status)
}

func TestTransactionRepository_GuardedUpdates(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewTransactionRepository(db)
	ctx := context.Background()

	txn := &model.Transaction{
		OrderID:       1,
		TxRef:         "order-1-1700000000",
		PaymentMethod: "mobile_money",
		PaymentStatus: model.PaymentPending,
		Amount:        decimal.NewFromInt(26000),
		Currency:      "TZS",
	}
	require.NoError(t, repo.Create(ctx, db, txn))
	require.NoError(t, repo.SetGatewayReference(ctx, txn.ID, "order-1-1700000099", "gw123"))

	got, err := repo.FindByTxRef(ctx, "order-1-1700000099")
	require.NoError(t, err)
	assert.Equal(t, "gw123", got.TransactionReference)

	_, err = repo.FindByTxRef(ctx, "order-1-1700000000")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	changed, err := repo.MarkCompleted(ctx, db, txn.ID, "gw123")
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = repo.MarkCompleted(ctx, db, txn.ID, "gw123")
	require.NoError(t, err)
	assert.False(t, changed)

	changed, err = repo.MarkFailed(ctx, db, txn.ID, "late failure")
	require.NoError(t, err)
	assert.False(t, changed, "completed payments are never failed")

	latest, err := repo.FindLatestByOrderID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentCompleted, latest.PaymentStatus)
}

func TestTimelineRepository(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewTimelineRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Append(ctx, db, &model.TimelineEvent{OrderID: 7, EventType: model.EventOrderPlaced, Description: "placed"}))
	require.NoError(t, repo.Append(ctx, db, &model.TimelineEvent{OrderID: 7, EventType: model.EventPaymentFailed, Description: "Insufficient funds"}))
	require.NoError(t, repo.Append(ctx, db, &model.TimelineEvent{OrderID: 8, EventType: model.EventOrderPlaced}))

	events, err := repo.ListByOrder(ctx, 7)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, model.EventOrderPlaced, events[0].EventType)

	n, err := repo.Count(ctx, 7, model.EventPaymentFailed)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestSessionRepository_TTL(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewSessionRepository(db)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, repo.Put(ctx, &model.SessionRecord{
		Key:       "session:255712345678",
		Value:     datatypes.JSON(`{"awaiting":"greeted"}`),
		ExpiresAt: now.Add(time.Hour),
	}))

	rec, err := repo.Get(ctx, "session:255712345678", now)
	require.NoError(t, err)
	assert.JSONEq(t, `{"awaiting":"greeted"}`, string(rec.Value))

	_, err = repo.Get(ctx, "session:255712345678", now.Add(2*time.Hour))
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound, "expired sessions are absent")

	require.NoError(t, repo.Put(ctx, &model.SessionRecord{
		Key:       "session:255712345678",
		Value:     datatypes.JSON(`{"awaiting":"quantity"}`),
		ExpiresAt: now.Add(3 * time.Hour),
	}))
	rec, err = repo.Get(ctx, "session:255712345678", now.Add(2*time.Hour))
	require.NoError(t, err)
	assert.JSONEq(t, `{"awaiting":"quantity"}`, string(rec.Value))

	n, err := repo.DeleteExpired(ctx, now.Add(4*time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	require.NoError(t, repo.Put(ctx, &model.SessionRecord{
		Key:       "session:255700000001",
		Value:     datatypes.JSON(`{}`),
		ExpiresAt: now.Add(time.Hour),
	}))
	require.NoError(t, repo.Delete(ctx, "session:255700000001"))
	_, err = repo.Get(ctx, "session:255700000001", now)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestWebhookEventRepository_Dedupe(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewWebhookEventRepository(db)
	ctx := context.Background()

	event := func() *model.PaymentWebhookEvent {
		return &model.PaymentWebhookEvent{
			EventID:   "charge.completed:555:successful",
			EventType: model.EventChargeCompleted,
			Status:    "successful",
			TxRef:     "order-7-1700000000",
			Payload:   datatypes.JSON(`{"event":"charge.completed"}`),
		}
	}

	dup, err := repo.Record(ctx, event())
	require.NoError(t, err)
	assert.False(t, dup)

	dup, err = repo.Record(ctx, event())
	require.NoError(t, err)
	assert.True(t, dup)

	require.NoError(t, repo.MarkProcessed(ctx, "charge.completed:555:successful", errors.New("verify failed")))
	got, err := repo.Get(ctx, "charge.completed:555:successful")
	require.NoError(t, err)
	assert.Nil(t, got.ProcessedAt)
	require.NotNil(t, got.ProcessError)
	assert.Equal(t, "verify failed", *got.ProcessError)

	require.NoError(t, repo.MarkProcessed(ctx, "charge.completed:555:successful", nil))
	got, err = repo.Get(ctx, "charge.completed:555:successful")
	require.NoError(t, err)
	assert.NotNil(t, got.ProcessedAt)
	assert.Nil(t, got.ProcessError)
}

func TestWebhookEventRepository_LongErrorKeepsWholeCharacters(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewWebhookEventRepository(db)
	ctx := context.Background()

	_, err := repo.Record(ctx, &model.PaymentWebhookEvent{
		EventID:   "charge.completed:556:failed",
		EventType: model.EventChargeCompleted,
		Status:    "failed",
		TxRef:     "order-8-1700000000",
		Payload:   datatypes.JSON(`{}`),
	})
	require.NoError(t, err)

	// one ASCII byte first so a byte cut at 255 would land inside a two-byte rune
	long := "x" + strings.Repeat("é", 300)
	require.NoError(t, repo.MarkProcessed(ctx, "charge.completed:556:failed", errors.New(long)))

	got, err := repo.Get(ctx, "charge.completed:556:failed")
	require.NoError(t, err)
	require.NotNil(t, got.ProcessError)
	assert.True(t, utf8.ValidString(*got.ProcessError))
	assert.Equal(t, 255, utf8.RuneCountInString(*got.ProcessError))
	assert.True(t, strings.HasPrefix(*got.ProcessError, "xé"))
}
