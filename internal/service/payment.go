package service

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"kwetu-order-bot/internal/apperr"
	"kwetu-order-bot/internal/cart"
	"kwetu-order-bot/internal/client"
	"kwetu-order-bot/internal/config"
	"kwetu-order-bot/internal/conversation"
	"kwetu-order-bot/internal/model"
	"kwetu-order-bot/internal/repository"
	"kwetu-order-bot/internal/txref"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// WebhookHashHeader carries the shared secret the gateway signs webhooks with.
const WebhookHashHeader = "verif-hash"

var (
	errAlreadyCompleted = errors.New("transaction already completed")
	errAlreadyFailed    = errors.New("transaction already failed")
)

type PaymentService interface {
	// InitiatePayment places the order and asks the gateway to push a PIN prompt to the payer.
	// It reports whether the gateway accepted the charge.
	InitiatePayment(ctx context.Context, req conversation.PaymentRequest) bool
	ConfirmPayment(ctx context.Context, gatewayTransactionID string) bool
	HandleFailedPayment(ctx context.Context, txRef, reason string) bool
	HandleWebhook(ctx context.Context, headers http.Header, body []byte) error
}

type paymentServiceImpl struct {
	db           *gorm.DB
	gateway      client.PaymentGateway
	gatewayCfg   config.Gateway
	business     config.Business
	orders       OrderService
	notifier     NotificationService
	loyalty      LoyaltyService
	orderRepo    repository.OrderRepository
	txnRepo      repository.TransactionRepository
	timelineRepo repository.TimelineRepository
	webhookRepo  repository.WebhookEventRepository
	logger       *slog.Logger
}

func NewPaymentService(
	db *gorm.DB,
	gateway client.PaymentGateway,
	gatewayCfg config.Gateway,
	business config.Business,
	orders OrderService,
	notifier NotificationService,
	loyalty LoyaltyService,
	orderRepo repository.OrderRepository,
	txnRepo repository.TransactionRepository,
	timelineRepo repository.TimelineRepository,
	webhookRepo repository.WebhookEventRepository,
	logger *slog.Logger,
) PaymentService {
	return &paymentServiceImpl{
		db:           db,
		gateway:      gateway,
		gatewayCfg:   gatewayCfg,
		business:     business,
		orders:       orders,
		notifier:     notifier,
		loyalty:      loyalty,
		orderRepo:    orderRepo,
		txnRepo:      txnRepo,
		timelineRepo: timelineRepo,
		webhookRepo:  webhookRepo,
		logger:       logger,
	}
}

func (s *paymentServiceImpl) InitiatePayment(ctx context.Context, req conversation.PaymentRequest) bool {
	if len(req.Cart) == 0 || !req.Cart.Complete() || req.PayerPhone == "" {
		err := apperr.ValidationErr("Invalid order data")
		s.logger.WarnContext(ctx, "payment initiation rejected", "phone", req.CustomerPhone, "err", err)
		s.notifyCustomer(ctx, req.CustomerPhone, "Invalid order data. Please start again by typing 'menu'.")
		return false
	}

	placed, err := s.orders.PersistOrder(ctx, PlaceOrder{
		CustomerPhone: req.CustomerPhone,
		CustomerName:  req.CustomerName,
		DeliveryPhone: req.PayerPhone,
		Area:          req.Area,
		Address:       req.Address,
		Provider:      string(req.Provider),
		Cart:          req.Cart,
		Zone:          req.Zone,
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "persist order", "phone", req.CustomerPhone, "err", err)
		s.notifyCustomer(ctx, req.CustomerPhone, apperr.PublicMessage(err))
		return false
	}
	order, txn := placed.Order, placed.Transaction

	ref := txref.New(order.ID, time.Now())
	fullname := req.CustomerName
	if fullname == "" {
		fullname = req.CustomerPhone
	}

	resp, err := s.gateway.CreateMobileMoneyCharge(ctx, &model.ChargeRequest{
		TxRef:       ref,
		Amount:      order.Total,
		Currency:    s.gatewayCfg.Currency,
		Network:     req.Provider.NetworkCode(),
		Email:       s.gatewayCfg.DefaultEmail,
		PhoneNumber: req.PayerPhone,
		Fullname:    fullname,
		RedirectURL: s.gatewayCfg.RedirectURL,
		Meta: model.ChargeMeta{
			OrderID:       order.ID,
			CustomerPhone: req.CustomerPhone,
		},
	})
	if err != nil {
		gwErr := apperr.GatewayErr(err)
		s.logger.ErrorContext(ctx, "create mobile money charge", "phone", req.CustomerPhone, "order_id", order.ID, "tx_ref", ref, "err", gwErr)
		s.notifyCustomer(ctx, req.CustomerPhone, gwErr.PublicMsg)
		return false
	}

	if resp.Status != model.GatewayStatusSuccess {
		s.logger.WarnContext(ctx, "charge not accepted by gateway",
			"phone", req.CustomerPhone, "order_id", order.ID, "tx_ref", ref,
			"gateway_status", resp.Status, "gateway_message", resp.Message)

		reason := resp.Message
		if reason == "" {
			reason = "Payment could not be started"
		}
		if err := s.markFailed(ctx, order.ID, txn.ID, reason); err != nil && !errors.Is(err, errAlreadyFailed) {
			s.logger.ErrorContext(ctx, "mark order payment failed", "order_id", order.ID, "err", err)
		}
		s.notifyCustomer(ctx, req.CustomerPhone, fmt.Sprintf(
			"We could not start the payment for order #%d: %s. Please type 'menu' to try again.", order.ID, reason))
		return false
	}

	if err := s.txnRepo.SetGatewayReference(ctx, txn.ID, ref, string(resp.Data.ID)); err != nil {
		// the webhook still resolves the transaction through the order id in the reference
		s.logger.ErrorContext(ctx, "store gateway reference", "order_id", order.ID, "tx_ref", ref, "err", err)
	}

	s.logger.InfoContext(ctx, "payment initiated", "phone", req.CustomerPhone, "order_id", order.ID, "tx_ref", ref, "gateway_id", resp.Data.ID)

	s.notifyCustomer(ctx, req.CustomerPhone, fmt.Sprintf(
		"Order #%d received!\n\n%s\n\nPlease check your phone (+%s) and enter your %s PIN to pay %s %s.",
		order.ID,
		cart.Summary(req.Cart, req.Zone, order.Currency),
		req.PayerPhone,
		req.Provider.Label(),
		cart.FormatAmount(order.Total), order.Currency,
	))
	s.notifyAdmin(ctx, fmt.Sprintf(
		"New order #%d from +%s: %s %s via %s, awaiting payment.\nDeliver to: %s",
		order.ID, req.CustomerPhone, cart.FormatAmount(order.Total), order.Currency,
		req.Provider.Label(), order.DeliveryAddress,
	))

	return true
}

func (s *paymentServiceImpl) ConfirmPayment(ctx context.Context, gatewayTransactionID string) bool {
	verified, err := s.gateway.VerifyTransaction(ctx, gatewayTransactionID)
	if err != nil {
		s.logger.ErrorContext(ctx, "verify transaction", "gateway_id", gatewayTransactionID, "err", apperr.GatewayErr(err))
		return false
	}
	if verified.Data.Status != model.GatewayStatusSuccessful {
		s.logger.WarnContext(ctx, "transaction not successful at gateway",
			"gateway_id", gatewayTransactionID, "tx_ref", verified.Data.TxRef,
			"gateway_status", verified.Data.Status, "gateway_message", verified.Message)
		return false
	}

	txn, err := s.resolveTransaction(ctx, verified.Data.TxRef)
	if err != nil {
		s.logger.ErrorContext(ctx, "resolve transaction", "gateway_id", gatewayTransactionID, "tx_ref", verified.Data.TxRef, "err", err)
		return false
	}
	if txn.PaymentStatus == model.PaymentCompleted {
		s.logger.InfoContext(ctx, "payment already confirmed", "order_id", txn.OrderID, "tx_ref", txn.TxRef)
		return true
	}
	if verified.Data.Amount.LessThan(txn.Amount) {
		s.logger.ErrorContext(ctx, "verified amount below order total",
			"order_id", txn.OrderID, "tx_ref", txn.TxRef,
			"expected", txn.Amount.String(), "paid", verified.Data.Amount.String())
		return false
	}

	order, err := s.orders.Order(ctx, txn.OrderID)
	if err != nil {
		s.logger.ErrorContext(ctx, "load order for confirmation", "order_id", txn.OrderID, "err", err)
		return false
	}

	var (
		points int64
		late   bool
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		changed, err := s.txnRepo.MarkCompleted(ctx, tx, txn.ID, gatewayTransactionID)
		if err != nil {
			return fmt.Errorf("mark transaction completed: %w", err)
		}
		if !changed {
			return errAlreadyCompleted
		}

		err = s.orderRepo.UpdateStatus(ctx, tx, order.ID, model.OrderProcessing, model.OrderPendingPayment, model.OrderPaymentFailed)
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			// the order moved on (cancelled by an admin) while the customer was paying
			late = true
		case err != nil:
			return fmt.Errorf("move order to processing: %w", err)
		}

		event := &model.TimelineEvent{
			OrderID:   order.ID,
			EventType: model.EventPaymentConfirmed,
			Description: fmt.Sprintf("Payment of %s %s confirmed, gateway reference %s",
				cart.FormatAmount(verified.Data.Amount), txn.Currency, gatewayTransactionID),
		}
		if late {
			event.EventType = model.EventPaymentAfterCancel
			event.Description = fmt.Sprintf("Payment of %s %s received after the order left pending payment, refund due, gateway reference %s",
				cart.FormatAmount(verified.Data.Amount), txn.Currency, gatewayTransactionID)
		}
		if err := s.timelineRepo.Append(ctx, tx, event); err != nil {
			return fmt.Errorf("append timeline: %w", err)
		}
		if late {
			return nil
		}

		points, err = s.loyalty.Award(ctx, tx, order.CustomerPhone, txn.Amount)
		return err
	})
	if errors.Is(err, errAlreadyCompleted) {
		return true
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "confirm payment", "order_id", order.ID, "tx_ref", txn.TxRef, "err", apperr.PersistenceErr(err))
		return false
	}

	if late {
		s.logger.WarnContext(ctx, "payment received for an order no longer awaiting payment",
			"order_id", order.ID, "tx_ref", txn.TxRef, "gateway_id", gatewayTransactionID, "order_status", order.Status)
		s.notifyCustomer(ctx, order.CustomerPhone, fmt.Sprintf(
			"We received your payment for order #%d, but the order was already closed. We will refund %s %s. Questions? Call %s.",
			order.ID, cart.FormatAmount(verified.Data.Amount), txn.Currency, s.business.SupportPhone))
		s.notifyAdmin(ctx, fmt.Sprintf("REFUND NEEDED: payment of %s %s (gateway ref %s) arrived for order #%d after it left pending payment.",
			cart.FormatAmount(verified.Data.Amount), txn.Currency, gatewayTransactionID, order.ID))
		return true
	}

	s.logger.InfoContext(ctx, "payment confirmed", "order_id", order.ID, "tx_ref", txn.TxRef, "gateway_id", gatewayTransactionID, "points", points)

	text := fmt.Sprintf("Payment received! Your order #%d %s.", order.ID, model.OrderProcessing.CustomerMessage())
	if points > 0 {
		if balance, err := s.loyalty.Balance(ctx, order.CustomerPhone); err == nil {
			text += fmt.Sprintf("\nYou earned %d loyalty points, %d in total.", points, balance)
		} else {
			text += fmt.Sprintf("\nYou earned %d loyalty points.", points)
		}
	}
	s.notifyCustomer(ctx, order.CustomerPhone, text)
	s.notifyAdmin(ctx, fmt.Sprintf("Payment confirmed for order #%d: %s %s from +%s. Start preparing!",
		order.ID, cart.FormatAmount(txn.Amount), txn.Currency, order.CustomerPhone))

	return true
}

func (s *paymentServiceImpl) HandleFailedPayment(ctx context.Context, ref, reason string) bool {
	txn, err := s.resolveTransaction(ctx, ref)
	if err != nil {
		s.logger.ErrorContext(ctx, "resolve failed transaction", "tx_ref", ref, "reason", reason, "err", err)
		return false
	}
	switch txn.PaymentStatus {
	case model.PaymentFailed:
		return true
	case model.PaymentCompleted:
		s.logger.WarnContext(ctx, "failure reported for a completed payment, ignoring", "order_id", txn.OrderID, "tx_ref", ref, "reason", reason)
		return true
	}

	order, err := s.orders.Order(ctx, txn.OrderID)
	if err != nil {
		s.logger.ErrorContext(ctx, "load order for failed payment", "order_id", txn.OrderID, "err", err)
		return false
	}

	err = s.markFailed(ctx, order.ID, txn.ID, reason)
	if errors.Is(err, errAlreadyFailed) {
		return true
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "mark payment failed", "order_id", order.ID, "tx_ref", ref, "err", err)
		return false
	}

	s.logger.InfoContext(ctx, "payment failed", "order_id", order.ID, "tx_ref", ref, "reason", reason)

	s.notifyCustomer(ctx, order.CustomerPhone, fmt.Sprintf(
		"Payment for your order #%d failed: %s.\nType 'menu' to try again or call us on %s.",
		order.ID, reason, s.business.SupportPhone))
	return true
}

// markFailed moves the order and transaction to failed and records the reason on the timeline.
func (s *paymentServiceImpl) markFailed(ctx context.Context, orderID, txnID uint, reason string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		changed, err := s.txnRepo.MarkFailed(ctx, tx, txnID, reason)
		if err != nil {
			return fmt.Errorf("mark transaction failed: %w", err)
		}
		if !changed {
			return errAlreadyFailed
		}

		err = s.orderRepo.UpdateStatus(ctx, tx, orderID, model.OrderPaymentFailed, model.OrderPendingPayment)
		if err != nil {
			return fmt.Errorf("move order to payment_failed: %w", err)
		}

		return s.timelineRepo.Append(ctx, tx, &model.TimelineEvent{
			OrderID:     orderID,
			EventType:   model.EventPaymentFailed,
			Description: reason,
		})
	})
}

// resolveTransaction finds the transaction by exact reference, falling back to the latest one of the
// order the reference names.
func (s *paymentServiceImpl) resolveTransaction(ctx context.Context, ref string) (*model.Transaction, error) {
	orderID, ok := txref.ParseOrderID(ref)
	if !ok {
		return nil, apperr.ValidationErr(fmt.Sprintf("unrecognised transaction reference %q", ref))
	}

	txn, err := s.txnRepo.FindByTxRef(ctx, ref)
	if err == nil && txn.OrderID == orderID {
		return txn, nil
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.PersistenceErr(err)
	}

	txn, err = s.txnRepo.FindLatestByOrderID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundErr(fmt.Sprintf("order %d not found", orderID), err)
		}
		return nil, apperr.PersistenceErr(err)
	}
	return txn, nil
}

func (s *paymentServiceImpl) HandleWebhook(ctx context.Context, headers http.Header, body []byte) error {
	if err := s.verifyWebhook(headers); err != nil {
		return err
	}

	var event model.PaymentWebhook
	if err := json.Unmarshal(body, &event); err != nil {
		return apperr.ValidationErr(fmt.Sprintf("decode webhook payload: %v", err))
	}
	if event.Event != model.EventChargeCompleted {
		s.logger.InfoContext(ctx, "ignoring webhook event", "event", event.Event, "tx_ref", event.Data.TxRef)
		return nil
	}
	if event.Data.TxRef == "" {
		return apperr.ValidationErr("webhook payload has no tx_ref")
	}

	status := strings.ToLower(event.Data.Status)
	eventID := uuid.NewString()
	if event.Data.ID != "" {
		eventID = fmt.Sprintf("%s:%s:%s", event.Event, event.Data.ID, status)
	}

	duplicate, err := s.webhookRepo.Record(ctx, &model.PaymentWebhookEvent{
		EventID:   eventID,
		EventType: event.Event,
		Status:    status,
		TxRef:     event.Data.TxRef,
		Payload:   datatypes.JSON(body),
	})
	if err != nil {
		return apperr.PersistenceErr(fmt.Errorf("record webhook event: %w", err))
	}
	if duplicate {
		prev, err := s.webhookRepo.Get(ctx, eventID)
		if err == nil && prev.ProcessedAt != nil {
			s.logger.InfoContext(ctx, "webhook event already processed", "event_id", eventID, "tx_ref", event.Data.TxRef)
			return nil
		}
	}

	s.logger.InfoContext(ctx, "payment webhook received", "event", event.Event, "event_id", eventID, "tx_ref", event.Data.TxRef, "status", status)

	var processErr error
	switch status {
	case model.GatewayStatusSuccessful:
		if !s.ConfirmPayment(ctx, string(event.Data.ID)) {
			processErr = fmt.Errorf("payment %s for %s not confirmed", event.Data.ID, event.Data.TxRef)
		}
	case model.GatewayStatusFailed:
		if !s.HandleFailedPayment(ctx, event.Data.TxRef, event.Data.FailureReason()) {
			processErr = fmt.Errorf("failed payment for %s not recorded", event.Data.TxRef)
		}
	default:
		s.logger.InfoContext(ctx, "ignoring webhook status", "event_id", eventID, "status", status)
	}

	if err := s.webhookRepo.MarkProcessed(ctx, eventID, processErr); err != nil {
		s.logger.ErrorContext(ctx, "mark webhook event processed", "event_id", eventID, "err", err)
	}
	if processErr != nil {
		return apperr.ValidationErr(processErr.Error())
	}
	return nil
}

func (s *paymentServiceImpl) verifyWebhook(headers http.Header) error {
	got := headers.Get(WebhookHashHeader)
	if s.gatewayCfg.WebhookHash == "" || got == "" {
		return apperr.UnauthorizedErr("missing webhook signature")
	}
	if subtle.ConstantTimeCompare([]byte(got), []byte(s.gatewayCfg.WebhookHash)) != 1 {
		return apperr.UnauthorizedErr("invalid webhook signature")
	}
	return nil
}

func (s *paymentServiceImpl) notifyCustomer(ctx context.Context, phone, text string) {
	if err := s.notifier.NotifyCustomer(ctx, phone, text); err != nil {
		s.logger.ErrorContext(ctx, "notify customer", "phone", phone, "err", err)
	}
}

func (s *paymentServiceImpl) notifyAdmin(ctx context.Context, text string) {
	if err := s.notifier.NotifyAdmin(ctx, text); err != nil {
		s.logger.ErrorContext(ctx, "notify admin", "err", err)
	}
}

var _ conversation.PaymentInitiator = (PaymentService)(nil)
