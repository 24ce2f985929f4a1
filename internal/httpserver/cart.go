package httpserver

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/table_order/internal/cart"
	"github.com/Skotchmaster/table_order/internal/service"
	"github.com/Skotchmaster/table_order/internal/transport"
	"github.com/Skotchmaster/table_order/pkg/logging"
	middleware "github.com/Skotchmaster/table_order/pkg/middleware/auth"
	"github.com/Skotchmaster/table_order/pkg/tokens"
)

type CartHTTP struct {
	Svc *service.CartService
}

func (h *CartHTTP) OpenSession(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.open_session")

	var req transport.OpenSessionRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("open_session_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	sess, err := h.Svc.OpenSession(ctx, c.Param("slug"), req.ConsumptionMethod)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			l.Warn("open_session_error", "status", 400, "reason", "invalid consumption method", "error", err)
			return echo.NewHTTPError(http.StatusBadRequest, "invalid consumption method")
		case errors.Is(err, service.ErrNotFound):
			l.Warn("open_session_error", "status", 404, "reason", "restaurant not found", "error", err)
			return echo.NewHTTPError(http.StatusNotFound, "restaurant not found")
		default:
			l.Error("open_session_error", "status", 500, "reason", "cannot open session", "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "cannot open session")
		}
	}

	c.SetCookie(tokens.CreateCookie(tokens.SessionCookie, sess.Token, "/", sess.ExpiresAt))
	l.Info("open_session_success", "session_id", sess.SessionID)
	return c.JSON(http.StatusCreated, sess)
}

func (h *CartHTTP) GetCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.get_cart")

	claims, ok := middleware.SessionFromContext(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing session")
	}

	crt, err := h.Svc.GetCart(ctx, claims.SessionID())
	if err != nil {
		l.Error("get_cart_error", "status", 500, "reason", "cannot load cart", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot load cart")
	}

	return c.JSON(http.StatusOK, transport.NewCartResponse(crt))
}

func (h *CartHTTP) AddItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.add_item")

	claims, ok := middleware.SessionFromContext(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing session")
	}

	var req transport.AddCartItemRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("add_item_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	crt, err := h.Svc.AddItem(ctx, claims, req.ProductID, req.Quantity)
	if err != nil {
		return cartError(l, "add_item_error", err)
	}

	l.Info("add_item_success", "product_id", req.ProductID)
	return c.JSON(http.StatusOK, transport.NewCartResponse(crt))
}

func (h *CartHTTP) IncreaseItem(c echo.Context) error {
	return h.changeItem(c, "cart.increase_item", h.Svc.IncreaseItem)
}

func (h *CartHTTP) DecreaseItem(c echo.Context) error {
	return h.changeItem(c, "cart.decrease_item", h.Svc.DecreaseItem)
}

func (h *CartHTTP) RemoveItem(c echo.Context) error {
	return h.changeItem(c, "cart.remove_item", h.Svc.RemoveItem)
}

func (h *CartHTTP) changeItem(c echo.Context, name string, fn func(context.Context, string, uuid.UUID) (*cart.Cart, error)) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", name)

	claims, ok := middleware.SessionFromContext(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing session")
	}

	productID, err := uuid.Parse(c.Param("productId"))
	if err != nil {
		l.Warn("cart_item_error", "status", 400, "reason", "product id is not a uuid", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "product id is not a uuid")
	}

	crt, err := fn(ctx, claims.SessionID(), productID)
	if err != nil {
		return cartError(l, "cart_item_error", err)
	}

	return c.JSON(http.StatusOK, transport.NewCartResponse(crt))
}

func (h *CartHTTP) ClearCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.clear_cart")

	claims, ok := middleware.SessionFromContext(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing session")
	}

	crt, err := h.Svc.ClearCart(ctx, claims.SessionID())
	if err != nil {
		l.Error("clear_cart_error", "status", 500, "reason", "cannot clear cart", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot clear cart")
	}

	l.Info("clear_cart_success")
	return c.JSON(http.StatusOK, transport.NewCartResponse(crt))
}
