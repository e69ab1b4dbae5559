package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"kwetu-order-bot/internal/apperr"
	"kwetu-order-bot/internal/dto"
	"kwetu-order-bot/internal/model"
	"kwetu-order-bot/internal/service"
)

type AdminHandler struct {
	orderService service.OrderService
}

func NewAdminHandler(orderService service.OrderService) *AdminHandler {
	return &AdminHandler{
		orderService: orderService,
	}
}

func orderIDParam(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.ValidationErr("invalid order id")
	}
	return uint(id), nil
}

func (h *AdminHandler) UpdateOrderStatus(c echo.Context) error {
	ctx := c.Request().Context()

	orderID, err := orderIDParam(c)
	if err != nil {
		return err
	}

	var req dto.UpdateOrderStatusRequest
	if err := c.Bind(&req); err != nil {
		return apperr.ValidationErr("invalid req body")
	}
	if err := c.Validate(&req); err != nil {
		return apperr.ValidationErr(err.Error())
	}

	order, err := h.orderService.UpdateOrderStatus(ctx, orderID, model.OrderStatus(req.Status), req.Note)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.NewOrderResponse(order))
}

func (h *AdminHandler) GetOrder(c echo.Context) error {
	ctx := c.Request().Context()

	orderID, err := orderIDParam(c)
	if err != nil {
		return err
	}

	order, err := h.orderService.Order(ctx, orderID)
	if err != nil {
		return err
	}
	items, err := h.orderService.Items(ctx, orderID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.NewOrderDetailResponse(order, items))
}

func (h *AdminHandler) OrderTimeline(c echo.Context) error {
	ctx := c.Request().Context()

	orderID, err := orderIDParam(c)
	if err != nil {
		return err
	}

	events, err := h.orderService.Timeline(ctx, orderID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.NewTimelineResponse(orderID, events))
}

func Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
