package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v79/webhook"
	"gorm.io/gorm"

	"github.com/Skotchmaster/table_order/internal/cache"
	"github.com/Skotchmaster/table_order/internal/cart"
	"github.com/Skotchmaster/table_order/internal/payment"
	"github.com/Skotchmaster/table_order/internal/repo"
	"github.com/Skotchmaster/table_order/internal/service"
	"github.com/Skotchmaster/table_order/internal/testutil"
	"github.com/Skotchmaster/table_order/pkg/tokens"
)

const (
	testCPF           = "529.982.247-25"
	testWebhookSecret = "whsec_test"
)

var testSessionSecret = []byte("session-secret")

type fakeGateway struct {
	mu       sync.Mutex
	requests []payment.SessionRequest
	err      error
}

func (g *fakeGateway) CreateCheckoutSession(_ context.Context, req payment.SessionRequest) (payment.SessionResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.requests = append(g.requests, req)
	if g.err != nil {
		return payment.SessionResult{}, g.err
	}
	return payment.SessionResult{SessionID: "cs_test_1", URL: "https://checkout.test/cs_test_1"}, nil
}

type server struct {
	e    *echo.Echo
	deps *Deps
	db   *gorm.DB
	fx   testutil.Fixture
	gw   *fakeGateway
}

func newServer(t *testing.T, withPayment bool) *server {
	t.Helper()

	db := testutil.InitTestDB(t)
	fx := testutil.SeedRestaurant(t, db, "fsw-donalds")

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	r := &repo.GormRepo{DB: db}
	c := cache.NewRedisCache(rdb, time.Minute)
	store := cart.NewRedisStore(rdb, time.Hour)
	orders := &service.OrderService{Repo: r, Invalidator: c}

	deps := &Deps{
		DB:             db,
		CatalogHandler: &CatalogHTTP{Svc: &service.CatalogService{Repo: r, Cache: c}},
		CartHandler:    &CartHTTP{Svc: &service.CartService{Repo: r, Store: store, Secret: testSessionSecret, TTL: time.Hour}},
		OrderHandler:   &OrderHTTP{Orders: orders, Lookup: &service.LookupService{Repo: r, Cache: c}},
		SessionSecret:  testSessionSecret,
	}

	s := &server{deps: deps, db: db, fx: fx, gw: &fakeGateway{}}
	if withPayment {
		v, err := payment.NewStripeVerifier(testWebhookSecret)
		require.NoError(t, err)
		deps.PaymentHandler = &PaymentHTTP{
			Checkout:   &service.CheckoutService{Repo: r, Orders: orders, Gateway: s.gw, Carts: store},
			Verifier:   v,
			Reconciler: &service.Reconciler{Repo: r, Invalidator: c},
		}
	}

	s.e = echo.New()
	Register(s.e, deps)
	return s
}

// reconfigure rebuilds the router after mut changed the dependencies.
func (s *server) reconfigure(mut func(*Deps)) {
	mut(s.deps)
	s.e = echo.New()
	Register(s.e, s.deps)
}

func (s *server) do(t *testing.T, method, path string, body any, opts ...func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for _, o := range opts {
		o(req)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func withSession(token string) func(*http.Request) {
	return func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: tokens.SessionCookie, Value: token})
	}
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst), rec.Body.String())
}

func signedEvent(payload string) (header string, body []byte) {
	sp := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload: []byte(payload),
		Secret:  testWebhookSecret,
	})
	return sp.Header, sp.Payload
}
