package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"kwetu-order-bot/internal/apperr"
	"kwetu-order-bot/internal/dto"
	"kwetu-order-bot/internal/handler"
	authmw "kwetu-order-bot/internal/middleware"
	"kwetu-order-bot/internal/service"
)

type Options struct {
	WhatsAppVerifyToken string
	AdminJWTSecret      string
}

type Server struct {
	echo            *echo.Echo
	logger          *slog.Logger
	adminSecret     string
	whatsappHandler *handler.WhatsAppHandler
	paymentHandler  *handler.PaymentHandler
	adminHandler    *handler.AdminHandler
}

func NewServer(
	conversationService service.ConversationService,
	paymentService service.PaymentService,
	orderService service.OrderService,
	opts Options,
	logger *slog.Logger,
) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = &requestValidator{validate: validator.New(validator.WithRequiredStructEnabled())}
	e.HTTPErrorHandler = errorHandler(logger)

	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			level := slog.LevelInfo
			attrs := []slog.Attr{
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
				slog.String("request_id", v.RequestID),
			}
			if v.Error != nil {
				level = slog.LevelWarn
				attrs = append(attrs, slog.String("err", v.Error.Error()))
			}
			logger.LogAttrs(c.Request().Context(), level, "request", attrs...)
			return nil
		},
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit("1M"))

	s := &Server{
		echo:            e,
		logger:          logger,
		adminSecret:     opts.AdminJWTSecret,
		whatsappHandler: handler.NewWhatsAppHandler(conversationService, opts.WhatsAppVerifyToken, logger),
		paymentHandler:  handler.NewPaymentHandler(paymentService, logger),
		adminHandler:    handler.NewAdminHandler(orderService),
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	// -------- webhooks --------
	webhook := s.echo.Group("/webhook")
	webhook.GET("/whatsapp", s.whatsappHandler.Verify)
	webhook.POST("/whatsapp", s.whatsappHandler.Receive)
	webhook.POST("/payment", s.paymentHandler.Webhook)

	api := s.echo.Group("/api")
	api.GET("/health", handler.Health)

	// -------- admin --------
	admin := api.Group("/admin", authmw.AdminJWT(s.adminSecret))
	admin.GET("/orders/:id", s.adminHandler.GetOrder)
	admin.PUT("/orders/:id/status", s.adminHandler.UpdateOrderStatus)
	admin.GET("/orders/:id/timeline", s.adminHandler.OrderTimeline)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

type requestValidator struct {
	validate *validator.Validate
}

func (v *requestValidator) Validate(i any) error {
	return v.validate.Struct(i)
}

// errorHandler renders apperr kinds with their public message; anything else
// is a 500 with a generic body.
func errorHandler(logger *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var he *echo.HTTPError
		if errors.As(err, &he) {
			msg := http.StatusText(he.Code)
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
			_ = c.JSON(he.Code, dto.ErrorResponse{Error: msg})
			return
		}

		status := apperr.HTTPStatus(err)
		if status >= http.StatusInternalServerError {
			logger.ErrorContext(c.Request().Context(), "request error", "path", c.Path(), "err", err)
		}
		_ = c.JSON(status, dto.ErrorResponse{Error: apperr.PublicMessage(err)})
	}
}
