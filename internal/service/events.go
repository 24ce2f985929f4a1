package service

import (
	"context"
	"strconv"
	"time"

	"github.com/Skotchmaster/table_order/internal/domain"
	"github.com/Skotchmaster/table_order/pkg/logging"
)

const (
	EventOrderCreated       = "order_created"
	EventOrderStatusChanged = "order_status_changed"

	publishTimeout = 5 * time.Second
)

// Publisher is satisfied by *mykafka.Producer.
type Publisher interface {
	PublishEvent(ctx context.Context, topic, key string, event any) error
}

// Invalidator drops cached reads affected by an order change. *cache.Cache
// satisfies it.
type Invalidator interface {
	InvalidateMenu(ctx context.Context, slug string) error
	InvalidateOrders(ctx context.Context, cpf string) error
}

type OrderCreatedEvent struct {
	OrderID           uint                     `json:"orderId"`
	RestaurantID      string                   `json:"restaurantId"`
	ConsumptionMethod domain.ConsumptionMethod `json:"consumptionMethod"`
	Status            domain.OrderStatus       `json:"status"`
	Total             string                   `json:"total"`
	Items             int                      `json:"items"`
	CreatedAt         time.Time                `json:"createdAt"`
}

func (OrderCreatedEvent) EventType() string { return EventOrderCreated }

type OrderStatusChangedEvent struct {
	OrderID        uint               `json:"orderId"`
	Status         domain.OrderStatus `json:"status"`
	PreviousStatus domain.OrderStatus `json:"previousStatus"`
	PaymentEventID string             `json:"paymentEventId"`
	ChangedAt      time.Time          `json:"changedAt"`
}

func (OrderStatusChangedEvent) EventType() string { return EventOrderStatusChanged }

func orderKey(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

// publish is best effort: a failed publish is logged and never fails the
// operation that produced the event.
func publish(ctx context.Context, p Publisher, topic, key string, event any) {
	if p == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := p.PublishEvent(ctx, topic, key, event); err != nil {
		logging.FromContext(ctx).Error("kafka_publish_error", "topic", topic, "key", key, "error", err)
	}
}
