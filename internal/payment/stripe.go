package payment

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
)

const (
	currencyBRL = "brl"

	MetadataOrderID           = "orderId"
	MetadataCustomerCPF       = "customerCpf"
	MetadataConsumptionMethod = "consumptionMethod"
)

type StripeConfig struct {
	SecretKey string
	// APIURL overrides the processor endpoint; empty means the public API.
	APIURL        string
	PublicBaseURL string
	Timeout       time.Duration
}

type StripeGateway struct {
	api     *client.API
	cb      *gobreaker.CircuitBreaker[*stripe.CheckoutSession]
	baseURL string
	timeout time.Duration
}

func NewStripeGateway(cfg StripeConfig) (*StripeGateway, error) {
	if cfg.SecretKey == "" {
		return nil, fmt.Errorf("%w: STRIPE_SECRET_KEY is empty", ErrConfiguration)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	backendCfg := &stripe.BackendConfig{
		HTTPClient:        &http.Client{Timeout: cfg.Timeout},
		MaxNetworkRetries: stripe.Int64(0),
	}
	if cfg.APIURL != "" {
		backendCfg.URL = stripe.String(cfg.APIURL)
	}
	api := client.New(cfg.SecretKey, &stripe.Backends{
		API:     stripe.GetBackendWithConfig(stripe.APIBackend, backendCfg),
		Connect: stripe.GetBackendWithConfig(stripe.ConnectBackend, backendCfg),
		Uploads: stripe.GetBackendWithConfig(stripe.UploadsBackend, backendCfg),
	})

	cb := gobreaker.NewCircuitBreaker[*stripe.CheckoutSession](gobreaker.Settings{
		Name:        "stripe-checkout",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			var se *stripe.Error
			if errors.As(err, &se) {
				return se.HTTPStatusCode > 0 && se.HTTPStatusCode < 500
			}
			return err == nil
		},
	})

	return &StripeGateway{
		api:     api,
		cb:      cb,
		baseURL: cfg.PublicBaseURL,
		timeout: cfg.Timeout,
	}, nil
}

func (g *StripeGateway) successURL(req SessionRequest) string {
	q := url.Values{}
	q.Set("cpf", req.CustomerCPF)
	return g.baseURL + "/orders?" + q.Encode()
}

func (g *StripeGateway) cancelURL(req SessionRequest) string {
	q := url.Values{}
	q.Set("consumptionMethod", req.ConsumptionMethod)
	return g.baseURL + "/" + url.PathEscape(req.RestaurantSlug) + "/menu?" + q.Encode()
}

func (g *StripeGateway) params(ctx context.Context, req SessionRequest) *stripe.CheckoutSessionParams {
	metadata := map[string]string{
		MetadataOrderID:           strconv.FormatUint(uint64(req.OrderID), 10),
		MetadataCustomerCPF:       req.CustomerCPF,
		MetadataConsumptionMethod: req.ConsumptionMethod,
	}

	items := make([]*stripe.CheckoutSessionLineItemParams, 0, len(req.Lines))
	for _, l := range req.Lines {
		product := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
			Name: stripe.String(l.Name),
		}
		if l.ImageURL != "" {
			product.Images = stripe.StringSlice([]string{l.ImageURL})
		}
		items = append(items, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripe.String(currencyBRL),
				ProductData: product,
				UnitAmount:  stripe.Int64(Cents(l.UnitPrice)),
			},
			Quantity: stripe.Int64(int64(l.Quantity)),
		})
	}

	params := &stripe.CheckoutSessionParams{
		Params:             stripe.Params{Context: ctx},
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems:          items,
		SuccessURL:         stripe.String(g.successURL(req)),
		CancelURL:          stripe.String(g.cancelURL(req)),
		Metadata:           metadata,
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			Metadata: metadata,
		},
	}
	if req.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(req.CustomerEmail)
	}
	return params
}

// CreateCheckoutSession opens a hosted checkout page for the order. Processor
// failures, timeouts and an open breaker all surface as ErrUpstream.
func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, req SessionRequest) (SessionResult, error) {
	if req.OrderID == 0 || len(req.Lines) == 0 {
		return SessionResult{}, fmt.Errorf("%w: order id and lines are required", ErrInvalidRequest)
	}
	for _, l := range req.Lines {
		if l.Quantity < 1 || l.UnitPrice.IsNegative() {
			return SessionResult{}, fmt.Errorf("%w: line %q", ErrInvalidRequest, l.Name)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	sess, err := g.cb.Execute(func() (*stripe.CheckoutSession, error) {
		return g.api.CheckoutSessions.New(g.params(ctx, req))
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return SessionResult{}, fmt.Errorf("%w: circuit open", ErrUpstream)
		}
		return SessionResult{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	return SessionResult{SessionID: sess.ID, URL: sess.URL}, nil
}
