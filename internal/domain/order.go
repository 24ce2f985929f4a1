package domain

import (
	"fmt"
	"strings"
)

type OrderStatus string

const (
	OrderStatusPending          OrderStatus = "PENDING"
	OrderStatusPaymentConfirmed OrderStatus = "PAYMENT_CONFIRMED"
	OrderStatusPaymentFailed    OrderStatus = "PAYMENT_FAILED"
)

func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusPaymentConfirmed || s == OrderStatusPaymentFailed
}

// CanTransitionTo allows only PENDING -> terminal. Terminal states never change.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	return s == OrderStatusPending && next.IsTerminal()
}

type ConsumptionMethod string

const (
	DineIn   ConsumptionMethod = "DINE_IN"
	TakeAway ConsumptionMethod = "TAKE_AWAY"
)

var ErrUnknownConsumptionMethod = fmt.Errorf("unknown consumption method")

// ParseConsumptionMethod accepts dine_in / take_away in any case.
func ParseConsumptionMethod(s string) (ConsumptionMethod, error) {
	switch ConsumptionMethod(strings.ToUpper(strings.TrimSpace(s))) {
	case DineIn:
		return DineIn, nil
	case TakeAway:
		return TakeAway, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownConsumptionMethod, s)
	}
}
