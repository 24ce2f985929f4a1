package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/table_order/internal/cache"
	"github.com/Skotchmaster/table_order/internal/cart"
	"github.com/Skotchmaster/table_order/internal/payment"
	"github.com/Skotchmaster/table_order/internal/repo"
	"github.com/Skotchmaster/table_order/internal/testutil"
)

const (
	validCPF      = "52998224725"
	otherValidCPF = "11144477735"
)

type published struct {
	topic string
	key   string
	event any
}

type fakePublisher struct {
	mu     sync.Mutex
	events []published
	err    error
}

func (p *fakePublisher) PublishEvent(_ context.Context, topic, key string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, published{topic: topic, key: key, event: event})
	return nil
}

func (p *fakePublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

type fakeInvalidator struct {
	mu     sync.Mutex
	menus  []string
	orders []string
}

func (f *fakeInvalidator) InvalidateMenu(_ context.Context, slug string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.menus = append(f.menus, slug)
	return nil
}

func (f *fakeInvalidator) InvalidateOrders(_ context.Context, cpf string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orders = append(f.orders, cpf)
	return nil
}

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

type env struct {
	db     *gorm.DB
	repo   *repo.GormRepo
	fx     testutil.Fixture
	pub    *fakePublisher
	inv    *fakeInvalidator
	orders *OrderService
	redis  *redis.Client
	mr     *miniredis.Miniredis
}

func newEnv(t *testing.T) *env {
	t.Helper()

	db := testutil.InitTestDB(t)
	e := &env{
		db:   db,
		repo: &repo.GormRepo{DB: db},
		fx:   testutil.SeedRestaurant(t, db, "fsw-donalds"),
		pub:  &fakePublisher{},
		inv:  &fakeInvalidator{},
	}
	e.orders = &OrderService{Repo: e.repo, Publisher: e.pub, Invalidator: e.inv, Topic: "order_events"}

	e.mr = miniredis.RunT(t)
	e.redis = redis.NewClient(&redis.Options{Addr: e.mr.Addr()})
	t.Cleanup(func() { _ = e.redis.Close() })
	return e
}

func (e *env) cache() *cache.Cache {
	return cache.NewRedisCache(e.redis, time.Minute)
}

func (e *env) cartStore() *cart.RedisStore {
	return cart.NewRedisStore(e.redis, time.Hour)
}

func (e *env) orderInput(items ...OrderItemInput) CreateOrderInput {
	return CreateOrderInput{
		RestaurantSlug:    "fsw-donalds",
		ConsumptionMethod: "DINE_IN",
		CustomerName:      "Maria Silva",
		CustomerEmail:     "maria@example.com",
		CustomerCPF:       "529.982.247-25",
		Items:             items,
	}
}

func (e *env) createOrder(t *testing.T) uint {
	t.Helper()

	o, err := e.orders.CreateOrder(context.Background(), e.orderInput(
		OrderItemInput{ProductID: e.fx.Burger.ID, Quantity: 2},
		OrderItemInput{ProductID: e.fx.Fries.ID, Quantity: 1},
	))
	require.NoError(t, err)
	return o.ID
}
