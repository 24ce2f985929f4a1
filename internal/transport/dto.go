package transport

import (
	"github.com/google/uuid"

	"github.com/Skotchmaster/table_order/internal/cart"
)

type OpenSessionRequest struct {
	ConsumptionMethod string `json:"consumptionMethod"`
}

type AddCartItemRequest struct {
	ProductID uuid.UUID `json:"productId"`
	Quantity  int       `json:"quantity"`
}

type CartResponse struct {
	RestaurantID  uuid.UUID   `json:"restaurantId"`
	Items         []cart.Item `json:"items"`
	Total         string      `json:"total"`
	TotalQuantity int         `json:"totalQuantity"`
}

func NewCartResponse(c *cart.Cart) CartResponse {
	items := c.Items
	if items == nil {
		items = []cart.Item{}
	}
	return CartResponse{
		RestaurantID:  c.RestaurantID,
		Items:         items,
		Total:         c.Total().StringFixed(2),
		TotalQuantity: c.TotalQuantity(),
	}
}

type CreateOrderItem struct {
	ProductID uuid.UUID `json:"productId"`
	Quantity  int       `json:"quantity"`
}

type CreateOrderRequest struct {
	RestaurantSlug    string            `json:"restaurantSlug"`
	ConsumptionMethod string            `json:"consumptionMethod"`
	CustomerName      string            `json:"customerName"`
	CustomerEmail     string            `json:"customerEmail"`
	CustomerCPF       string            `json:"customerCpf"`
	Items             []CreateOrderItem `json:"items"`
}

type CreateOrderResponse struct {
	OrderID uint   `json:"orderId"`
	Status  string `json:"status"`
	Total   string `json:"total"`
}

type PaymentSessionRequest struct {
	CustomerCPF string `json:"customerCpf"`
}

type PaymentSessionResponse struct {
	SessionID string `json:"sessionId"`
	URL       string `json:"url"`
}

// CheckoutRequest carries the customer data; restaurant, consumption method
// and items come from the cart session.
type CheckoutRequest struct {
	CustomerName  string `json:"customerName"`
	CustomerEmail string `json:"customerEmail"`
	CustomerCPF   string `json:"customerCpf"`
}

type WebhookResponse struct {
	Received bool `json:"received"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
