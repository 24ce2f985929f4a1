package httpserver

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/table_order/internal/service"
	"github.com/Skotchmaster/table_order/internal/transport"
	"github.com/Skotchmaster/table_order/internal/util"
	"github.com/Skotchmaster/table_order/pkg/logging"
)

type OrderHTTP struct {
	Orders *service.OrderService
	Lookup *service.LookupService
}

func parseOrderID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New("order id is not a positive integer")
	}
	return uint(id), nil
}

func (h *OrderHTTP) CreateOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.create_order")

	var req transport.CreateOrderRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("create_order_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	in := service.CreateOrderInput{
		RestaurantSlug:    req.RestaurantSlug,
		ConsumptionMethod: req.ConsumptionMethod,
		CustomerName:      req.CustomerName,
		CustomerEmail:     req.CustomerEmail,
		CustomerCPF:       req.CustomerCPF,
		Items:             make([]service.OrderItemInput, 0, len(req.Items)),
	}
	for _, it := range req.Items {
		in.Items = append(in.Items, service.OrderItemInput{ProductID: it.ProductID, Quantity: it.Quantity})
	}

	order, err := h.Orders.CreateOrder(ctx, in)
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			l.Warn("create_order_error", "status", 400, "reason", "invalid body", "error", err)
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		l.Error("create_order_error", "status", 500, "reason", "internal error", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	l.Info("create_order_success", "order_id", order.ID)
	return c.JSON(http.StatusCreated, transport.CreateOrderResponse{
		OrderID: order.ID,
		Status:  string(order.Status),
		Total:   order.Total.StringFixed(2),
	})
}

func (h *OrderHTTP) ListOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.list_orders")

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)

	res, err := h.Lookup.ListByCPF(ctx, c.QueryParam("cpf"), page, size)
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			l.Warn("list_orders_error", "status", 422, "reason", "invalid cpf", "error", err)
			return echo.NewHTTPError(http.StatusUnprocessableEntity, "invalid cpf")
		}
		l.Error("list_orders_error", "status", 500, "reason", "cannot list orders", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot list orders")
	}

	l.Info("list_orders_success", "total", res.Total)
	return c.JSON(http.StatusOK, map[string]any{
		"data": res.Orders,
		"meta": pageMeta(res.Page, res.Size, res.Total),
	})
}

func (h *OrderHTTP) GetOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.get_order")

	id, err := parseOrderID(c)
	if err != nil {
		l.Warn("get_order_error", "status", 400, "reason", "invalid id", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	order, err := h.Lookup.GetOrder(ctx, id, c.QueryParam("cpf"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			l.Warn("get_order_error", "status", 422, "reason", "invalid cpf", "error", err)
			return echo.NewHTTPError(http.StatusUnprocessableEntity, "invalid cpf")
		case errors.Is(err, service.ErrNotFound):
			l.Warn("get_order_error", "status", 404, "reason", "order not found", "error", err)
			return echo.NewHTTPError(http.StatusNotFound, "order not found")
		default:
			l.Error("get_order_error", "status", 500, "reason", "cannot get order", "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "cannot get order")
		}
	}

	return c.JSON(http.StatusOK, order)
}
