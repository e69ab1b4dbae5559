package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"kwetu-order-bot/internal/client"
)

type NotificationService interface {
	// NotifyCustomer tries WhatsApp and SMS independently and succeeds if either channel does.
	NotifyCustomer(ctx context.Context, phone, text string) error
	// NotifyAdmin messages the configured admin number on WhatsApp, falling back to SMS.
	NotifyAdmin(ctx context.Context, text string) error
}

type notificationServiceImpl struct {
	whatsapp   client.WhatsAppClient
	sms        client.SMSClient
	adminPhone string
	logger     *slog.Logger
}

func NewNotificationService(
	whatsapp client.WhatsAppClient,
	sms client.SMSClient,
	adminPhone string,
	logger *slog.Logger,
) NotificationService {
	return &notificationServiceImpl{
		whatsapp:   whatsapp,
		sms:        sms,
		adminPhone: adminPhone,
		logger:     logger,
	}
}

func (s *notificationServiceImpl) NotifyCustomer(ctx context.Context, phone, text string) error {
	waErr := s.whatsapp.SendText(ctx, phone, text)
	if waErr != nil {
		s.logger.WarnContext(ctx, "whatsapp notification failed", "phone", phone, "err", waErr)
	}

	smsErr := s.sms.Send(ctx, phone, text)
	if smsErr != nil && !errors.Is(smsErr, client.ErrSMSNotConfigured) {
		s.logger.WarnContext(ctx, "sms notification failed", "phone", phone, "err", smsErr)
	}

	if waErr != nil && smsErr != nil {
		return fmt.Errorf("notify customer %s: %w", phone, errors.Join(waErr, smsErr))
	}
	return nil
}

func (s *notificationServiceImpl) NotifyAdmin(ctx context.Context, text string) error {
	if s.adminPhone == "" {
		s.logger.DebugContext(ctx, "admin phone not configured, skipping admin notification")
		return nil
	}

	waErr := s.whatsapp.SendText(ctx, s.adminPhone, text)
	if waErr == nil {
		return nil
	}
	s.logger.WarnContext(ctx, "admin whatsapp notification failed", "err", waErr)

	if smsErr := s.sms.Send(ctx, s.adminPhone, text); smsErr != nil {
		return fmt.Errorf("notify admin: %w", errors.Join(waErr, smsErr))
	}
	return nil
}
