package httpserver

import (
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/table_order/internal/payment"
	"github.com/Skotchmaster/table_order/internal/service"
	"github.com/Skotchmaster/table_order/internal/transport"
	"github.com/Skotchmaster/table_order/pkg/logging"
	middleware "github.com/Skotchmaster/table_order/pkg/middleware/auth"
)

const (
	stripeSignatureHeader = "Stripe-Signature"
	maxWebhookBody        = 64 << 10
)

type PaymentHTTP struct {
	Checkout   *service.CheckoutService
	Verifier   payment.Verifier
	Reconciler *service.Reconciler
}

func (h *PaymentHTTP) CreatePaymentSession(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "payment.create_session")

	id, err := parseOrderID(c)
	if err != nil {
		l.Warn("payment_session_error", "status", 400, "reason", "invalid id", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	var req transport.PaymentSessionRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("payment_session_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	res, err := h.Checkout.StartPayment(ctx, id, req.CustomerCPF)
	if err != nil {
		return paymentError(l, "payment_session_error", err)
	}

	l.Info("payment_session_success", "order_id", id)
	return c.JSON(http.StatusCreated, transport.PaymentSessionResponse{SessionID: res.SessionID, URL: res.URL})
}

// CheckoutCart turns the session cart into an order and a payment session. When
// the order exists but the processor failed, the order id is still returned.
func (h *PaymentHTTP) CheckoutCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "payment.checkout")

	claims, ok := middleware.SessionFromContext(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing session")
	}

	var req transport.CheckoutRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("checkout_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	res, err := h.Checkout.Checkout(ctx, service.CheckoutInput{
		SessionID:         claims.SessionID(),
		RestaurantSlug:    claims.Slug,
		ConsumptionMethod: claims.ConsumptionMethod,
		CustomerName:      req.CustomerName,
		CustomerEmail:     req.CustomerEmail,
		CustomerCPF:       req.CustomerCPF,
	})
	if err != nil {
		he := paymentError(l, "checkout_error", err)
		if res.OrderID != 0 {
			he.Message = map[string]any{
				"message": he.Message,
				"orderId": res.OrderID,
				"status":  res.Status,
			}
		}
		return he
	}

	l.Info("checkout_success", "order_id", res.OrderID)
	return c.JSON(http.StatusCreated, res)
}

func (h *PaymentHTTP) StripeWebhook(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "payment.stripe_webhook")

	payload, err := io.ReadAll(http.MaxBytesReader(c.Response(), c.Request().Body, maxWebhookBody))
	if err != nil {
		l.Warn("stripe_webhook_error", "status", 400, "reason", "cannot read body", "error", err)
		return c.JSON(http.StatusBadRequest, transport.ErrorResponse{Error: "cannot read body"})
	}

	ev, err := h.Verifier.Verify(payload, c.Request().Header.Get(stripeSignatureHeader))
	if err != nil {
		if errors.Is(err, payment.ErrInvalidSignature) {
			l.Warn("stripe_webhook_error", "status", 400, "reason", "invalid signature", "error", err)
			return c.JSON(http.StatusBadRequest, transport.ErrorResponse{Error: "invalid signature"})
		}
		l.Error("stripe_webhook_error", "status", 500, "reason", "cannot verify event", "error", err)
		return c.JSON(http.StatusInternalServerError, transport.ErrorResponse{Error: "internal error"})
	}

	outcome, err := h.Reconciler.Apply(ctx, ev)
	if err != nil {
		l.Error("stripe_webhook_error", "status", 500, "reason", "cannot apply event", "event_id", ev.ID, "error", err)
		return c.JSON(http.StatusInternalServerError, transport.ErrorResponse{Error: "internal error"})
	}

	l.Info("stripe_webhook_success", "event_id", ev.ID, "event_type", ev.Type, "outcome", string(outcome))
	return c.JSON(http.StatusOK, transport.WebhookResponse{Received: true})
}
