package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Skotchmaster/table_order/internal/cart"
	"github.com/Skotchmaster/table_order/internal/domain"
	"github.com/Skotchmaster/table_order/internal/payment"
	"github.com/Skotchmaster/table_order/internal/repo"
	"github.com/Skotchmaster/table_order/pkg/logging"
)

type CheckoutService struct {
	Repo    *repo.GormRepo
	Orders  *OrderService
	Gateway payment.Gateway
	Carts   cart.Store
}

type CheckoutInput struct {
	SessionID         string
	RestaurantSlug    string
	ConsumptionMethod string
	CustomerName      string
	CustomerEmail     string
	CustomerCPF       string
}

type CheckoutResult struct {
	OrderID   uint               `json:"orderId"`
	Status    domain.OrderStatus `json:"status"`
	SessionID string             `json:"sessionId,omitempty"`
	URL       string             `json:"url,omitempty"`
}

func mapPaymentError(err error) error {
	switch {
	case errors.Is(err, payment.ErrInvalidRequest):
		return fmt.Errorf("%w: %v", ErrValidation, err)
	case errors.Is(err, payment.ErrConfiguration):
		return fmt.Errorf("%w: %v", ErrConfiguration, err)
	default:
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
}

// StartPayment opens a processor checkout session for a PENDING order. Lines
// carry the prices stored on the order, not current menu prices.
func (s *CheckoutService) StartPayment(ctx context.Context, orderID uint, rawCPF string) (payment.SessionResult, error) {
	l := logging.FromContext(ctx).With("service", "checkout.start_payment", "order_id", orderID)

	order, err := getOwnedOrder(ctx, s.Repo, orderID, rawCPF)
	if err != nil {
		return payment.SessionResult{}, err
	}
	if order.Status != domain.OrderStatusPending {
		return payment.SessionResult{}, fmt.Errorf("%w: order %d is %s", ErrConflict, order.ID, order.Status)
	}

	req := payment.SessionRequest{
		OrderID:           order.ID,
		ConsumptionMethod: string(order.ConsumptionMethod),
		CustomerCPF:       order.CustomerCPF,
		CustomerEmail:     order.CustomerEmail,
		Lines:             make([]payment.Line, 0, len(order.OrderProducts)),
	}
	if order.Restaurant != nil {
		req.RestaurantSlug = order.Restaurant.Slug
	}
	for _, op := range order.OrderProducts {
		line := payment.Line{UnitPrice: op.Price, Quantity: op.Quantity}
		if op.Product != nil {
			line.Name = op.Product.Name
			line.ImageURL = op.Product.ImageURL
		}
		req.Lines = append(req.Lines, line)
	}

	res, err := s.Gateway.CreateCheckoutSession(ctx, req)
	if err != nil {
		l.Warn("payment_session_error", "error", err)
		return payment.SessionResult{}, mapPaymentError(err)
	}

	l.Info("payment_session_created", "session_id", res.SessionID)
	return res, nil
}

// Checkout turns the session cart into an order and opens its payment
// session. The cart is taken atomically, so concurrent checkouts of one
// session create a single order. It is put back only when the order could
// not be created; a payment failure returns the order id for a retry through
// StartPayment.
func (s *CheckoutService) Checkout(ctx context.Context, in CheckoutInput) (CheckoutResult, error) {
	l := logging.FromContext(ctx).With("service", "checkout.checkout")

	c, err := s.Carts.Take(ctx, in.SessionID)
	if err != nil {
		return CheckoutResult{}, err
	}
	if c.IsEmpty() {
		return CheckoutResult{}, fmt.Errorf("%w: cart is empty", ErrValidation)
	}

	items := make([]OrderItemInput, 0, len(c.Items))
	for _, line := range c.Lines() {
		items = append(items, OrderItemInput{ProductID: line.ProductID, Quantity: line.Quantity})
	}

	order, err := s.Orders.CreateOrder(ctx, CreateOrderInput{
		RestaurantSlug:    in.RestaurantSlug,
		ConsumptionMethod: in.ConsumptionMethod,
		CustomerName:      in.CustomerName,
		CustomerEmail:     in.CustomerEmail,
		CustomerCPF:       in.CustomerCPF,
		Items:             items,
	})
	if err != nil {
		if rerr := s.Carts.Restore(context.WithoutCancel(ctx), in.SessionID, c); rerr != nil {
			l.Warn("cart_restore_error", "error", rerr)
		}
		return CheckoutResult{}, err
	}
	result := CheckoutResult{OrderID: order.ID, Status: order.Status}

	res, err := s.StartPayment(ctx, order.ID, order.CustomerCPF)
	if err != nil {
		return result, err
	}
	result.SessionID = res.SessionID
	result.URL = res.URL
	return result, nil
}
