package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Skotchmaster/table_order/internal/middleware/csrf"
	"github.com/Skotchmaster/table_order/pkg/db"
	middleware "github.com/Skotchmaster/table_order/pkg/middleware/auth"
)

type Deps struct {
	DB             *gorm.DB
	CatalogHandler *CatalogHTTP
	CartHandler    *CartHTTP
	OrderHandler   *OrderHTTP
	// PaymentHandler is nil when the payment processor is not configured.
	PaymentHandler *PaymentHTTP
	SessionSecret  []byte
	// CSRF guards cookie-authenticated cart routes when set.
	CSRF *csrf.Config
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.DB == nil {
			return c.NoContent(http.StatusOK)
		}
		if err := db.Ping(c.Request().Context(), d.DB); err != nil {
			return c.NoContent(http.StatusServiceUnavailable)
		}
		return c.NoContent(http.StatusOK)
	})

	sessionMW := middleware.NewSessionMiddleware(d.SessionSecret)
	cartMW := []echo.MiddlewareFunc{sessionMW.RequireSession}
	if d.CSRF != nil {
		cartMW = append([]echo.MiddlewareFunc{csrf.Middleware(*d.CSRF)}, cartMW...)
	}

	restaurants := e.Group("/restaurants/:slug")
	restaurants.GET("", d.CatalogHandler.GetRestaurant)
	restaurants.GET("/menu", d.CatalogHandler.GetMenu)
	restaurants.GET("/products/:id", d.CatalogHandler.GetProduct)
	restaurants.GET("/search", d.CatalogHandler.SearchMenu)

	if d.CartHandler != nil {
		restaurants.POST("/sessions", d.CartHandler.OpenSession)

		cart := e.Group("/cart", cartMW...)
		cart.GET("", d.CartHandler.GetCart)
		cart.DELETE("", d.CartHandler.ClearCart)
		cart.POST("/items", d.CartHandler.AddItem)
		cart.POST("/items/:productId/increase", d.CartHandler.IncreaseItem)
		cart.POST("/items/:productId/decrease", d.CartHandler.DecreaseItem)
		cart.DELETE("/items/:productId", d.CartHandler.RemoveItem)
	}

	orders := e.Group("/orders")
	orders.POST("", d.OrderHandler.CreateOrder)
	orders.GET("", d.OrderHandler.ListOrders)
	orders.GET("/:id", d.OrderHandler.GetOrder)

	if d.PaymentHandler == nil {
		return
	}
	orders.POST("/:id/payment-session", d.PaymentHandler.CreatePaymentSession)
	if d.CartHandler != nil {
		e.POST("/checkout", d.PaymentHandler.CheckoutCart, cartMW...)
	}
	e.POST("/webhooks/stripe", d.PaymentHandler.StripeWebhook)
}
