// Package payment talks to the payment processor: it opens hosted checkout
// sessions and authenticates the processor's webhook events.
package payment

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

var (
	ErrConfiguration    = errors.New("payment configuration")
	ErrUpstream         = errors.New("payment processor unavailable")
	ErrInvalidRequest   = errors.New("invalid payment request")
	ErrInvalidSignature = errors.New("invalid signature")
)

type Line struct {
	Name      string
	ImageURL  string
	UnitPrice decimal.Decimal
	Quantity  int
}

type SessionRequest struct {
	OrderID           uint
	RestaurantSlug    string
	ConsumptionMethod string
	CustomerCPF       string
	CustomerEmail     string
	Lines             []Line
}

type SessionResult struct {
	SessionID string `json:"sessionId"`
	URL       string `json:"url"`
}

type Gateway interface {
	CreateCheckoutSession(ctx context.Context, req SessionRequest) (SessionResult, error)
}

// Cents converts a decimal amount to the processor's minor unit.
func Cents(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
