package payment

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/webhook"
)

type EventKind int

const (
	EventIgnored EventKind = iota
	EventCheckoutCompleted
	EventChargeFailed
)

const (
	typeCheckoutSessionCompleted = "checkout.session.completed"
	typeChargeFailed             = "charge.failed"
)

func (k EventKind) String() string {
	switch k {
	case EventCheckoutCompleted:
		return typeCheckoutSessionCompleted
	case EventChargeFailed:
		return typeChargeFailed
	default:
		return "ignored"
	}
}

// Event is an authenticated processor event reduced to what reconciliation
// needs. OrderID is zero when the metadata has no usable order id.
type Event struct {
	ID          string
	Type        string
	Kind        EventKind
	OrderID     uint
	CustomerCPF string
	// OrderIDRaw keeps the metadata value for logging when it is malformed.
	OrderIDRaw string
}

type Verifier interface {
	Verify(payload []byte, signatureHeader string) (Event, error)
}

type StripeVerifier struct {
	secret string
}

func NewStripeVerifier(secret string) (*StripeVerifier, error) {
	if secret == "" {
		return nil, fmt.Errorf("%w: STRIPE_WEBHOOK_SECRET is empty", ErrConfiguration)
	}
	return &StripeVerifier{secret: secret}, nil
}

// Verify checks the signature over the raw body and parses the event.
func (v *StripeVerifier) Verify(payload []byte, signatureHeader string) (Event, error) {
	if signatureHeader == "" {
		return Event{}, fmt.Errorf("%w: missing signature header", ErrInvalidSignature)
	}

	se, err := webhook.ConstructEventWithOptions(payload, signatureHeader, v.secret, webhook.ConstructEventOptions{
		Tolerance:                webhook.DefaultTolerance,
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return parseEvent(se), nil
}

func kindOf(eventType string) EventKind {
	switch eventType {
	case typeCheckoutSessionCompleted:
		return EventCheckoutCompleted
	case typeChargeFailed:
		return EventChargeFailed
	default:
		return EventIgnored
	}
}

func parseEvent(se stripe.Event) Event {
	ev := Event{
		ID:   se.ID,
		Type: string(se.Type),
		Kind: kindOf(string(se.Type)),
	}
	if ev.Kind == EventIgnored || se.Data == nil {
		return ev
	}

	// Checkout sessions and charges both carry the metadata set at session creation.
	var obj struct {
		Metadata map[string]string `json:"metadata"`
	}
	if err := json.Unmarshal(se.Data.Raw, &obj); err != nil {
		return ev
	}

	ev.OrderIDRaw = obj.Metadata[MetadataOrderID]
	ev.CustomerCPF = obj.Metadata[MetadataCustomerCPF]
	if id, err := strconv.ParseUint(ev.OrderIDRaw, 10, 64); err == nil && id > 0 {
		ev.OrderID = uint(id)
	}
	return ev
}
