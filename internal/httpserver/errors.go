package httpserver

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/table_order/internal/service"
)

func cartError(l *slog.Logger, event string, err error) error {
	switch {
	case errors.Is(err, service.ErrValidation):
		l.Warn(event, "status", 400, "reason", "invalid item", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid item")
	case errors.Is(err, service.ErrNotFound):
		l.Warn(event, "status", 404, "reason", "product not found", "error", err)
		return echo.NewHTTPError(http.StatusNotFound, "product not found")
	default:
		l.Error(event, "status", 500, "reason", "cannot update cart", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot update cart")
	}
}

// paymentError maps errors from order creation and payment start.
func paymentError(l *slog.Logger, event string, err error) *echo.HTTPError {
	switch {
	case errors.Is(err, service.ErrValidation):
		l.Warn(event, "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	case errors.Is(err, service.ErrNotFound):
		l.Warn(event, "status", 404, "reason", "order not found", "error", err)
		return echo.NewHTTPError(http.StatusNotFound, "order not found")
	case errors.Is(err, service.ErrConflict):
		l.Warn(event, "status", 409, "reason", "order is not pending", "error", err)
		return echo.NewHTTPError(http.StatusConflict, "order is not pending")
	case errors.Is(err, service.ErrUpstream):
		l.Error(event, "status", 502, "reason", "payment processor unavailable", "error", err)
		return echo.NewHTTPError(http.StatusBadGateway, "payment processor unavailable, try again")
	default:
		l.Error(event, "status", 500, "reason", "internal error", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}
