package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Skotchmaster/table_order/internal/domain"
	"github.com/Skotchmaster/table_order/internal/models"
	"github.com/Skotchmaster/table_order/internal/payment"
	"github.com/Skotchmaster/table_order/internal/repo"
	"github.com/Skotchmaster/table_order/pkg/logging"
)

type Outcome string

const (
	OutcomeApplied        Outcome = "applied"
	OutcomeIgnored        Outcome = "ignored"
	OutcomeMissingOrderID Outcome = "missing_order_id"
	OutcomeOrderNotFound  Outcome = "order_not_found"
	OutcomeDuplicate      Outcome = "duplicate"
	OutcomeAlreadyFinal   Outcome = "already_final"
)

// Reconciler applies authenticated payment events to orders.
type Reconciler struct {
	Repo        *repo.GormRepo
	Invalidator Invalidator
	Publisher   Publisher
	Topic       string
}

func targetStatus(k payment.EventKind) (domain.OrderStatus, bool) {
	switch k {
	case payment.EventCheckoutCompleted:
		return domain.OrderStatusPaymentConfirmed, true
	case payment.EventChargeFailed:
		return domain.OrderStatusPaymentFailed, true
	case payment.EventIgnored:
		return "", false
	default:
		return "", false
	}
}

// Apply moves the referenced order to the event's terminal status. Only a
// database failure is returned as an error; every other case is acknowledged
// and reported through the Outcome. Side effects run only when the status
// actually changed.
func (r *Reconciler) Apply(ctx context.Context, ev payment.Event) (Outcome, error) {
	l := logging.FromContext(ctx).With("service", "reconciler", "event_id", ev.ID, "event_type", ev.Type)

	next, ok := targetStatus(ev.Kind)
	if !ok {
		l.Debug("payment_event_ignored")
		return OutcomeIgnored, nil
	}
	if ev.OrderID == 0 {
		l.Warn("payment_event_without_order", "order_id_raw", ev.OrderIDRaw)
		return OutcomeMissingOrderID, nil
	}
	l = l.With("order_id", ev.OrderID)

	tr, err := r.Repo.ApplyStatusTransition(ctx, &models.ProcessedEvent{
		EventID:     ev.ID,
		Kind:        ev.Kind.String(),
		OrderID:     ev.OrderID,
		ProcessedAt: time.Now().UTC(),
	}, next)
	if err != nil {
		return "", fmt.Errorf("apply status transition: %w", err)
	}

	switch tr.Result {
	case repo.TransitionOrderNotFound:
		l.Warn("payment_event_order_not_found", "error", fmt.Errorf("%w: order %d", ErrNotFound, ev.OrderID))
		return OutcomeOrderNotFound, nil
	case repo.TransitionDuplicateEvent:
		l.Info("payment_event_duplicate", "status", tr.Order.Status)
		return OutcomeDuplicate, nil
	case repo.TransitionRejected:
		if next == domain.OrderStatusPaymentConfirmed && tr.Order.Status == domain.OrderStatusPaymentFailed {
			// The customer was charged for an order that stays failed.
			l.Error("paid_order_marked_failed", "status", tr.Order.Status, "wanted", next)
			return OutcomeAlreadyFinal, nil
		}
		l.Warn("payment_event_stale", "status", tr.Order.Status, "wanted", next)
		return OutcomeAlreadyFinal, nil
	}

	order := tr.Order
	l.Info("order_status_changed", "status", order.Status)
	r.notify(ctx, order, ev.ID)
	return OutcomeApplied, nil
}

func (r *Reconciler) notify(ctx context.Context, order *models.Order, eventID string) {
	l := logging.FromContext(ctx)

	if r.Invalidator != nil {
		if order.Restaurant != nil {
			if err := r.Invalidator.InvalidateMenu(ctx, order.Restaurant.Slug); err != nil {
				l.Warn("cache_invalidate_error", "scope", "menu", "error", err)
			}
		}
		if err := r.Invalidator.InvalidateOrders(ctx, order.CustomerCPF); err != nil {
			l.Warn("cache_invalidate_error", "scope", "orders", "error", err)
		}
	}

	publish(ctx, r.Publisher, r.Topic, orderKey(order.ID), OrderStatusChangedEvent{
		OrderID:        order.ID,
		Status:         order.Status,
		PreviousStatus: domain.OrderStatusPending,
		PaymentEventID: eventID,
		ChangedAt:      order.UpdatedAt,
	})
}
