package service

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kwetu-order-bot/internal/apperr"
	"kwetu-order-bot/internal/cart"
	"kwetu-order-bot/internal/model"
)

func placeOrder(t *testing.T, f *fixture) *PlacedOrder {
	t.Helper()
	req := paymentRequest(t)
	placed, err := f.orders.PersistOrder(context.Background(), PlaceOrder{
		CustomerPhone: req.CustomerPhone,
		CustomerName:  req.CustomerName,
		DeliveryPhone: req.PayerPhone,
		Area:          req.Area,
		Address:       req.Address,
		Provider:      string(req.Provider),
		Cart:          req.Cart,
		Zone:          req.Zone,
	})
	require.NoError(t, err)
	return placed
}

func TestPersistOrder(t *testing.T) {
	f := newFixture(t)
	placed := placeOrder(t, f)

	assert.NotZero(t, placed.Order.ID)
	assert.Equal(t, model.OrderPendingPayment, placed.Order.Status)
	assert.True(t, placed.Totals.Subtotal.Equal(decimal.NewFromInt(24000)))
	assert.True(t, placed.Totals.GrandTotal.Equal(decimal.NewFromInt(26000)))
	assert.Equal(t, placed.Order.ID, placed.Transaction.OrderID)
	assert.Equal(t, model.PaymentPending, placed.Transaction.PaymentStatus)
	assert.Len(t, placed.Items, 1)

	events, err := f.orders.Timeline(context.Background(), placed.Order.ID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, model.EventOrderPlaced, events[0].EventType)

	items, err := f.orders.Items(context.Background(), placed.Order.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Quantity)
	assert.True(t, items[0].Price.Equal(decimal.NewFromInt(12000)))
}

func TestPersistOrder_RollsBackOnFailure(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.db.Migrator().DropTable(&model.TimelineEvent{}))

	req := paymentRequest(t)
	_, err := f.orders.PersistOrder(context.Background(), PlaceOrder{
		CustomerPhone: req.CustomerPhone,
		Cart:          req.Cart,
		Zone:          req.Zone,
	})
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.Persistence))

	assert.Zero(t, f.countOrders(t))
	var txns, items int64
	require.NoError(t, f.db.Model(&model.Transaction{}).Count(&txns).Error)
	require.NoError(t, f.db.Model(&model.OrderItem{}).Count(&items).Error)
	assert.Zero(t, txns)
	assert.Zero(t, items)
}

func TestPersistOrder_RejectsIncompleteCart(t *testing.T) {
	f := newFixture(t)
	c := cart.Cart{}.Append(1, "Margherita", decimal.NewFromInt(12000))

	_, err := f.orders.PersistOrder(context.Background(), PlaceOrder{CustomerPhone: customerPhone, Cart: c})
	assert.True(t, apperr.IsKind(err, apperr.Validation))
	assert.Zero(t, f.countOrders(t))
}

func TestUpdateOrderStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	placed := placeOrder(t, f)
	id := placed.Order.ID

	_, err := f.orders.UpdateOrderStatus(ctx, id, "teleported", "")
	assert.True(t, apperr.IsKind(err, apperr.Validation))

	_, err = f.orders.UpdateOrderStatus(ctx, id, model.OrderDelivered, "")
	assert.True(t, apperr.IsKind(err, apperr.InvalidTransition))
	assert.Equal(t, 409, apperr.HTTPStatus(err))

	_, err = f.orders.UpdateOrderStatus(ctx, 9999, model.OrderCancelled, "")
	assert.True(t, apperr.IsKind(err, apperr.NotFound))

	for _, next := range []model.OrderStatus{model.OrderProcessing, model.OrderPreparing, model.OrderOutForDelivery} {
		order, err := f.orders.UpdateOrderStatus(ctx, id, next, "")
		require.NoError(t, err, next)
		assert.Equal(t, next, order.Status)
	}

	order, err := f.orders.UpdateOrderStatus(ctx, id, model.OrderDelivered, "Left with the guard")
	require.NoError(t, err)
	assert.Equal(t, model.OrderDelivered, order.Status)

	events, err := f.orders.Timeline(ctx, id)
	require.NoError(t, err)
	require.Len(t, events, 5)
	assert.Equal(t, string(model.OrderDelivered), events[4].EventType)
	assert.Equal(t, "Left with the guard", events[4].Description)

	texts := f.wa.textsTo(customerPhone)
	assert.True(t, containsAny(texts, "is out for delivery"))
	assert.True(t, containsAny(texts, "Left with the guard"))

	_, err = f.orders.UpdateOrderStatus(ctx, id, model.OrderPreparing, "")
	assert.True(t, apperr.IsKind(err, apperr.InvalidTransition), "no going back")
}

func TestUpdateOrderStatus_NotificationFailureDoesNotFail(t *testing.T) {
	f := newFixture(t)
	placed := placeOrder(t, f)
	f.wa.err = errors.New("whatsapp down")
	f.sms.err = errors.New("sms down")

	order, err := f.orders.UpdateOrderStatus(context.Background(), placed.Order.ID, model.OrderCancelled, "")
	require.NoError(t, err)
	assert.Equal(t, model.OrderCancelled, order.Status)
}

func TestLatestOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.orders.LatestOrder(ctx, customerPhone)
	assert.True(t, apperr.IsKind(err, apperr.NotFound))

	placeOrder(t, f)
	second := placeOrder(t, f)

	latest, err := f.orders.LatestOrder(ctx, customerPhone)
	require.NoError(t, err)
	assert.Equal(t, second.Order.ID, latest.ID)
}

func TestNotifyCustomer_EitherChannel(t *testing.T) {
	tests := []struct {
		name    string
		waErr   error
		smsErr  error
		wantErr bool
	}{
		{"both succeed", nil, nil, false},
		{"whatsapp down", errors.New("wa"), nil, false},
		{"sms down", nil, errors.New("sms"), false},
		{"both down", errors.New("wa"), errors.New("sms"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wa := &fakeWhatsApp{err: tt.waErr}
			sms := &fakeSMS{err: tt.smsErr}
			n := NewNotificationService(wa, sms, adminPhone, discardLogger())

			err := n.NotifyCustomer(context.Background(), customerPhone, "hello")
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.waErr)
				assert.ErrorIs(t, err, tt.smsErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNotifyAdmin(t *testing.T) {
	wa := &fakeWhatsApp{}
	sms := &fakeSMS{}
	n := NewNotificationService(wa, sms, adminPhone, discardLogger())

	require.NoError(t, n.NotifyAdmin(context.Background(), "new order"))
	assert.Equal(t, []string{"new order"}, wa.textsTo(adminPhone))
	assert.Empty(t, sms.sent, "sms is only a fallback for the admin")

	wa.err = errors.New("down")
	require.NoError(t, n.NotifyAdmin(context.Background(), "second"))
	require.Len(t, sms.sent, 1)
	assert.Equal(t, adminPhone, sms.sent[0].To)

	silent := NewNotificationService(wa, sms, "", discardLogger())
	assert.NoError(t, silent.NotifyAdmin(context.Background(), "nobody listens"))
}

func TestLoyalty_PointsFor(t *testing.T) {
	l := NewLoyaltyService(nil, 1000)

	tests := []struct {
		amount string
		want   int64
	}{
		{"0", 0},
		{"999.99", 0},
		{"1000", 1},
		{"26000", 26},
		{"26999.50", 26},
		{"-5000", 0},
	}
	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			assert.Equal(t, tt.want, l.PointsFor(decimal.RequireFromString(tt.amount)))
		})
	}

	assert.Zero(t, NewLoyaltyService(nil, 0).PointsFor(decimal.NewFromInt(50000)))
}
