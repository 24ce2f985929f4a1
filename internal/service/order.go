package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Skotchmaster/table_order/internal/cart"
	"github.com/Skotchmaster/table_order/internal/domain"
	"github.com/Skotchmaster/table_order/internal/models"
	"github.com/Skotchmaster/table_order/internal/repo"
	"github.com/Skotchmaster/table_order/pkg/cpf"
	"github.com/Skotchmaster/table_order/pkg/logging"
)

type OrderItemInput struct {
	ProductID uuid.UUID
	Quantity  int
}

type CreateOrderInput struct {
	RestaurantSlug    string
	ConsumptionMethod string
	CustomerName      string
	CustomerEmail     string
	CustomerCPF       string
	Items             []OrderItemInput
}

type CreatedOrder struct {
	OrderID uint               `json:"orderId"`
	Status  domain.OrderStatus `json:"status"`
	Total   decimal.Decimal    `json:"total"`
}

type OrderService struct {
	Repo        *repo.GormRepo
	Publisher   Publisher
	Invalidator Invalidator
	Topic       string
}

type validOrder struct {
	method domain.ConsumptionMethod
	name   string
	email  string
	cpf    string
	items  []OrderItemInput
}

func validateOrderInput(in CreateOrderInput) (validOrder, error) {
	var v validOrder

	if len(in.Items) == 0 {
		return v, fmt.Errorf("%w: items required", ErrValidation)
	}
	if strings.TrimSpace(in.RestaurantSlug) == "" {
		return v, fmt.Errorf("%w: restaurant slug required", ErrValidation)
	}

	method, err := domain.ParseConsumptionMethod(in.ConsumptionMethod)
	if err != nil {
		return v, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	v.method = method

	v.name = strings.TrimSpace(in.CustomerName)
	if v.name == "" {
		return v, fmt.Errorf("%w: customer name required", ErrValidation)
	}

	v.email = strings.TrimSpace(in.CustomerEmail)
	addr, err := mail.ParseAddress(v.email)
	if err != nil || addr.Address != v.email {
		return v, fmt.Errorf("%w: invalid email", ErrValidation)
	}

	if !cpf.IsValid(in.CustomerCPF) {
		return v, fmt.Errorf("%w: invalid cpf", ErrValidation)
	}
	v.cpf = cpf.Normalize(in.CustomerCPF)

	// Repeated product ids are merged; first occurrence keeps its position.
	pos := make(map[uuid.UUID]int, len(in.Items))
	for _, it := range in.Items {
		if it.ProductID == uuid.Nil {
			return v, fmt.Errorf("%w: product_id required", ErrValidation)
		}
		if it.Quantity < 1 || it.Quantity > cart.MaxQuantity {
			return v, fmt.Errorf("%w: quantity must be between 1 and %d", ErrValidation, cart.MaxQuantity)
		}
		if i, ok := pos[it.ProductID]; ok {
			if v.items[i].Quantity > cart.MaxQuantity-it.Quantity {
				return v, fmt.Errorf("%w: quantity must be between 1 and %d", ErrValidation, cart.MaxQuantity)
			}
			v.items[i].Quantity += it.Quantity
			continue
		}
		pos[it.ProductID] = len(v.items)
		v.items = append(v.items, it)
	}
	return v, nil
}

// CreateOrder persists a PENDING order whose lines copy each product's
// current price. Nothing is written unless every line is valid.
func (s *OrderService) CreateOrder(ctx context.Context, in CreateOrderInput) (*models.Order, error) {
	l := logging.FromContext(ctx).With("service", "order.create_order")

	v, err := validateOrderInput(in)
	if err != nil {
		return nil, err
	}

	rest, err := s.Repo.GetRestaurantBySlug(ctx, in.RestaurantSlug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: restaurant %q not found", ErrValidation, in.RestaurantSlug)
		}
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(v.items))
	for _, it := range v.items {
		ids = append(ids, it.ProductID)
	}
	products, err := s.Repo.GetProductsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	total := decimal.Zero
	lines := make([]models.OrderProduct, 0, len(v.items))
	for _, it := range v.items {
		p, ok := byID[it.ProductID]
		if !ok || p.RestaurantID != rest.ID {
			return nil, fmt.Errorf("%w: product %s is not on the menu of %q", ErrValidation, it.ProductID, rest.Slug)
		}
		lines = append(lines, models.OrderProduct{
			ProductID: p.ID,
			Quantity:  it.Quantity,
			Price:     p.Price,
		})
		total = total.Add(p.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}

	order := &models.Order{
		RestaurantID:      rest.ID,
		CustomerName:      v.name,
		CustomerEmail:     v.email,
		CustomerCPF:       v.cpf,
		ConsumptionMethod: v.method,
		Status:            domain.OrderStatusPending,
		Total:             total,
		OrderProducts:     lines,
	}
	if err := s.Repo.CreateOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	order.Restaurant = rest

	l.Info("order_created", "order_id", order.ID, "restaurant", rest.Slug, "total", total.StringFixed(2))

	if s.Invalidator != nil {
		if err := s.Invalidator.InvalidateOrders(ctx, order.CustomerCPF); err != nil {
			l.Warn("cache_invalidate_error", "error", err)
		}
	}
	publish(ctx, s.Publisher, s.Topic, orderKey(order.ID), OrderCreatedEvent{
		OrderID:           order.ID,
		RestaurantID:      rest.ID.String(),
		ConsumptionMethod: order.ConsumptionMethod,
		Status:            order.Status,
		Total:             total.StringFixed(2),
		Items:             len(lines),
		CreatedAt:         order.CreatedAt,
	})

	return order, nil
}
