package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"

	"kwetu-order-bot/internal/client"
	"kwetu-order-bot/internal/config"
	"kwetu-order-bot/internal/conversation"
	"kwetu-order-bot/internal/repository"
	"kwetu-order-bot/internal/server"
	"kwetu-order-bot/internal/service"
)

const sessionSweepInterval = 15 * time.Minute

func main() {
	// load .env into os.Environ
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found (ok in prod)")
	}

	cfg := &config.Config{}
	if err := env.Parse(cfg); err != nil {
		fmt.Printf("Failed to parse config: %v\n", err)
		os.Exit(1)
	}

	logger := cfg.Log.NewLogger(os.Stdout).With("env", cfg.Environment.Name)
	slog.SetDefault(logger)

	db, err := client.InitDBClient(cfg.Database)
	if err != nil {
		logger.Error("init database", "driver", cfg.Database.Driver, "err", err)
		os.Exit(1)
	}

	gatewayClient := client.NewGatewayClient(&cfg.Gateway)
	whatsappClient := client.NewWhatsAppClient(&cfg.WhatsApp)
	smsClient := client.NewSMSClient(&cfg.SMS)

	productRepo := repository.NewProductRepository(db)
	zoneRepo := repository.NewDeliveryZoneRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	txnRepo := repository.NewTransactionRepository(db)
	timelineRepo := repository.NewTimelineRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	webhookEventRepo := repository.NewWebhookEventRepository(db)

	catalogService := service.NewCatalogService(productRepo, zoneRepo)
	if cfg.Database.Seed {
		if err := catalogService.Seed(context.Background()); err != nil {
			logger.Error("seed catalog", "err", err)
			os.Exit(1)
		}
	}

	notificationService := service.NewNotificationService(whatsappClient, smsClient, cfg.Business.AdminPhone, logger)
	loyaltyService := service.NewLoyaltyService(customerRepo, cfg.Business.LoyaltyAmountPerPoint)
	orderService := service.NewOrderService(
		db, cfg.Gateway.Currency,
		customerRepo,
		orderRepo,
		txnRepo,
		timelineRepo,
		notificationService,
		logger,
	)
	paymentService := service.NewPaymentService(
		db, gatewayClient,
		cfg.Gateway, cfg.Business,
		orderService,
		notificationService,
		loyaltyService,
		orderRepo,
		txnRepo,
		timelineRepo,
		webhookEventRepo,
		logger,
	)

	machine := conversation.NewMachine(catalogService, orderService, paymentService, conversation.Settings{
		BusinessName: cfg.Business.Name,
		Currency:     cfg.Gateway.Currency,
		SupportPhone: cfg.Business.SupportPhone,
	}, logger)
	conversationService := service.NewConversationService(machine, sessionRepo, whatsappClient, cfg.Session.TTL, logger)

	serverAddr := cfg.HTTP.Host + ":" + cfg.HTTP.Port

	// Init HTTP server
	srv := server.NewServer(conversationService, paymentService, orderService, server.Options{
		WhatsAppVerifyToken: cfg.WhatsApp.VerifyToken,
		AdminJWTSecret:      cfg.Admin.JWTSecret,
	}, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sweepSessions(ctx, sessionRepo, logger)

	logger.Info("starting HTTP server", "addr", serverAddr, "db_driver", cfg.Database.Driver)
	go func() {
		if err := srv.Start(serverAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", "err", err)
			os.Exit(1)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	<-sigChan
	logger.Info("signal received, starting graceful shutdown")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "err", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// sweepSessions removes expired conversation sessions until ctx is done.
func sweepSessions(ctx context.Context, sessionRepo repository.SessionRepository, logger *slog.Logger) {
	ticker := time.NewTicker(sessionSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			n, err := sessionRepo.DeleteExpired(ctx, now)
			if err != nil {
				logger.Warn("sweep expired sessions", "err", err)
				continue
			}
			if n > 0 {
				logger.Debug("expired sessions removed", "count", n)
			}
		}
	}
}
