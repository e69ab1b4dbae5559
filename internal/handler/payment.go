package handler

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"kwetu-order-bot/internal/service"
)

type PaymentHandler struct {
	paymentService service.PaymentService
	logger         *slog.Logger
}

func NewPaymentHandler(paymentService service.PaymentService, logger *slog.Logger) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		logger:         logger,
	}
}

// Webhook receives the gateway's charge notifications. Anything that is not
// processed is answered with 400 so the gateway retries it.
func (h *PaymentHandler) Webhook(c echo.Context) error {
	ctx := c.Request().Context()

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.NoContent(http.StatusBadRequest)
	}

	if err := h.paymentService.HandleWebhook(ctx, c.Request().Header, body); err != nil {
		h.logger.WarnContext(ctx, "payment webhook rejected", "err", err)
		return c.JSON(http.StatusBadRequest, map[string]string{"status": "rejected"})
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
