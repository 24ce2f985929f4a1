package payment

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStripe struct {
	mu    sync.Mutex
	forms []url.Values
	calls atomic.Int32
	reply func(w http.ResponseWriter, r *http.Request)
}

func (f *fakeStripe) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.calls.Add(1)
	body, _ := io.ReadAll(r.Body)
	form, _ := url.ParseQuery(string(body))
	f.mu.Lock()
	f.forms = append(f.forms, form)
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	f.reply(w, r)
}

func newTestGateway(t *testing.T, timeout time.Duration, reply func(w http.ResponseWriter, r *http.Request)) (*StripeGateway, *fakeStripe) {
	t.Helper()

	fake := &fakeStripe{reply: reply}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	g, err := NewStripeGateway(StripeConfig{
		SecretKey:     "sk_test_123",
		APIURL:        srv.URL,
		PublicBaseURL: "http://front.test",
		Timeout:       timeout,
	})
	require.NoError(t, err)
	return g, fake
}

func sessionRequest() SessionRequest {
	return SessionRequest{
		OrderID:           42,
		RestaurantSlug:    "fsw-donalds",
		ConsumptionMethod: "DINE_IN",
		CustomerCPF:       "52998224725",
		CustomerEmail:     "maria@example.com",
		Lines: []Line{
			{Name: "Burger", UnitPrice: decimal.RequireFromString("10.00"), Quantity: 2},
			{Name: "Fries", UnitPrice: decimal.RequireFromString("4.99"), Quantity: 1},
		},
	}
}

func TestCreateCheckoutSession_SendsOrderMetadata(t *testing.T) {
	t.Parallel()

	g, fake := newTestGateway(t, time.Second, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/checkout/sessions", r.URL.Path)
		_, _ = io.WriteString(w, `{"id":"cs_test_1","object":"checkout.session","url":"https://checkout.test/cs_test_1"}`)
	})

	res, err := g.CreateCheckoutSession(context.Background(), sessionRequest())
	require.NoError(t, err)
	assert.Equal(t, "cs_test_1", res.SessionID)
	assert.Equal(t, "https://checkout.test/cs_test_1", res.URL)

	require.Len(t, fake.forms, 1)
	form := fake.forms[0]
	assert.Equal(t, "payment", form.Get("mode"))
	assert.Equal(t, "card", form.Get("payment_method_types[0]"))
	assert.Equal(t, "42", form.Get("metadata[orderId]"))
	assert.Equal(t, "52998224725", form.Get("metadata[customerCpf]"))
	assert.Equal(t, "42", form.Get("payment_intent_data[metadata][orderId]"))
	assert.Equal(t, "brl", form.Get("line_items[0][price_data][currency]"))
	assert.Equal(t, "1000", form.Get("line_items[0][price_data][unit_amount]"))
	assert.Equal(t, "2", form.Get("line_items[0][quantity]"))
	assert.Equal(t, "499", form.Get("line_items[1][price_data][unit_amount]"))
	assert.Equal(t, "Fries", form.Get("line_items[1][price_data][product_data][name]"))
	assert.Equal(t, "http://front.test/orders?cpf=52998224725", form.Get("success_url"))
	assert.Equal(t, "http://front.test/fsw-donalds/menu?consumptionMethod=DINE_IN", form.Get("cancel_url"))
	assert.Equal(t, "maria@example.com", form.Get("customer_email"))
}

func TestCreateCheckoutSession_RejectionIsUpstream(t *testing.T) {
	t.Parallel()

	g, _ := newTestGateway(t, time.Second, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":{"type":"invalid_request_error","message":"bad currency"}}`)
	})

	_, err := g.CreateCheckoutSession(context.Background(), sessionRequest())
	require.ErrorIs(t, err, ErrUpstream)
}

func TestCreateCheckoutSession_Timeout(t *testing.T) {
	t.Parallel()

	g, _ := newTestGateway(t, 50*time.Millisecond, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	})

	start := time.Now()
	_, err := g.CreateCheckoutSession(context.Background(), sessionRequest())
	require.ErrorIs(t, err, ErrUpstream)
	assert.Less(t, time.Since(start), time.Second)
}

func TestCreateCheckoutSession_BreakerOpensAfterFailures(t *testing.T) {
	t.Parallel()

	g, fake := newTestGateway(t, time.Second, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{"error":{"type":"api_error","message":"down"}}`)
	})

	for i := 0; i < 5; i++ {
		_, err := g.CreateCheckoutSession(context.Background(), sessionRequest())
		require.ErrorIs(t, err, ErrUpstream)
	}
	require.EqualValues(t, 5, fake.calls.Load())

	_, err := g.CreateCheckoutSession(context.Background(), sessionRequest())
	require.ErrorIs(t, err, ErrUpstream)
	assert.ErrorContains(t, err, "circuit open")
	assert.EqualValues(t, 5, fake.calls.Load())
}

func TestCreateCheckoutSession_InvalidRequest(t *testing.T) {
	t.Parallel()

	g, fake := newTestGateway(t, time.Second, func(w http.ResponseWriter, r *http.Request) {})

	req := sessionRequest()
	req.Lines = nil
	_, err := g.CreateCheckoutSession(context.Background(), req)
	require.ErrorIs(t, err, ErrInvalidRequest)

	req = sessionRequest()
	req.Lines[0].Quantity = 0
	_, err = g.CreateCheckoutSession(context.Background(), req)
	require.ErrorIs(t, err, ErrInvalidRequest)
	assert.Zero(t, fake.calls.Load())
}

func TestNewStripeGateway_RequiresKey(t *testing.T) {
	t.Parallel()

	_, err := NewStripeGateway(StripeConfig{})
	require.ErrorIs(t, err, ErrConfiguration)
}

func TestCents(t *testing.T) {
	t.Parallel()

	assert.EqualValues(t, 1000, Cents(decimal.RequireFromString("10")))
	assert.EqualValues(t, 499, Cents(decimal.RequireFromString("4.99")))
	assert.EqualValues(t, 1, Cents(decimal.RequireFromString("0.005")))
	assert.EqualValues(t, 0, Cents(decimal.Zero))
}
