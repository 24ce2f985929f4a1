package httpserver

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/table_order/internal/service"
	"github.com/Skotchmaster/table_order/internal/util"
	"github.com/Skotchmaster/table_order/pkg/logging"
)

type CatalogHTTP struct {
	Svc *service.CatalogService
}

func (h *CatalogHTTP) GetRestaurant(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.get_restaurant")

	rest, err := h.Svc.GetRestaurant(ctx, c.Param("slug"))
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			l.Warn("get_restaurant_error", "status", 404, "reason", "restaurant not found", "error", err)
			return echo.NewHTTPError(http.StatusNotFound, "restaurant not found")
		}
		l.Error("get_restaurant_error", "status", 500, "reason", "cannot get restaurant", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot get restaurant")
	}

	return c.JSON(http.StatusOK, rest)
}

func (h *CatalogHTTP) GetMenu(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.get_menu")

	menu, err := h.Svc.GetMenu(ctx, c.Param("slug"), c.QueryParam("consumptionMethod"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			l.Warn("get_menu_error", "status", 400, "reason", "invalid consumption method", "error", err)
			return echo.NewHTTPError(http.StatusBadRequest, "invalid consumption method")
		case errors.Is(err, service.ErrNotFound):
			l.Warn("get_menu_error", "status", 404, "reason", "restaurant not found", "error", err)
			return echo.NewHTTPError(http.StatusNotFound, "restaurant not found")
		default:
			l.Error("get_menu_error", "status", 500, "reason", "cannot get menu", "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "cannot get menu")
		}
	}

	return c.JSON(http.StatusOK, menu)
}

func (h *CatalogHTTP) GetProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.get_product")

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		l.Warn("get_product_error", "status", 400, "reason", "id is not a uuid", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "id is not a uuid")
	}

	product, err := h.Svc.GetProduct(ctx, c.Param("slug"), id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			l.Warn("get_product_error", "status", 404, "reason", "product not found", "error", err)
			return echo.NewHTTPError(http.StatusNotFound, "product not found")
		}
		l.Error("get_product_error", "status", 500, "reason", "cannot get product", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot get product")
	}

	return c.JSON(http.StatusOK, product)
}

func (h *CatalogHTTP) SearchMenu(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.search_menu")

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)

	res, err := h.Svc.SearchMenu(ctx, c.Param("slug"), c.QueryParam("q"), page, size)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			l.Warn("search_menu_error", "status", 400, "reason", "q is required", "error", err)
			return echo.NewHTTPError(http.StatusBadRequest, "q is required")
		case errors.Is(err, service.ErrNotFound):
			l.Warn("search_menu_error", "status", 404, "reason", "restaurant not found", "error", err)
			return echo.NewHTTPError(http.StatusNotFound, "restaurant not found")
		case errors.Is(err, service.ErrUpstream):
			l.Error("search_menu_error", "status", 502, "reason", "search unavailable", "error", err)
			return echo.NewHTTPError(http.StatusBadGateway, "search unavailable")
		default:
			l.Error("search_menu_error", "status", 500, "reason", "cannot search menu", "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "cannot search menu")
		}
	}

	l.Info("search_menu_success", "total", res.Total)
	return c.JSON(http.StatusOK, map[string]any{
		"data": res.Items,
		"meta": pageMeta(res.Page, res.Size, res.Total),
	})
}

func pageMeta(page, size int, total int64) map[string]any {
	return map[string]any{
		"page":        page,
		"size":        size,
		"total":       total,
		"total_pages": util.TotalPages(total, size),
		"has_prev":    page > 1,
		"has_next":    int64(page*size) < total,
	}
}
