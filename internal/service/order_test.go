package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/table_order/internal/domain"
	"github.com/Skotchmaster/table_order/internal/models"
	"github.com/Skotchmaster/table_order/internal/testutil"
)

func countRows(t *testing.T, e *env) (orders, lines int64) {
	t.Helper()
	require.NoError(t, e.db.Model(&models.Order{}).Count(&orders).Error)
	require.NoError(t, e.db.Model(&models.OrderProduct{}).Count(&lines).Error)
	return orders, lines
}

func TestCreateOrder_TotalsAndLines(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	o, err := e.orders.CreateOrder(ctx, e.orderInput(
		OrderItemInput{ProductID: e.fx.Burger.ID, Quantity: 2},
		OrderItemInput{ProductID: e.fx.Fries.ID, Quantity: 1},
	))
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPending, o.Status)
	assert.Equal(t, "25.00", o.Total.StringFixed(2))
	assert.Equal(t, validCPF, o.CustomerCPF)

	got, err := e.repo.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, got.OrderProducts, 2)
	byProduct := map[uuid.UUID]models.OrderProduct{}
	for _, op := range got.OrderProducts {
		byProduct[op.ProductID] = op
	}
	assert.Equal(t, 2, byProduct[e.fx.Burger.ID].Quantity)
	assert.Equal(t, "10.00", byProduct[e.fx.Burger.ID].Price.StringFixed(2))
	assert.Equal(t, 1, byProduct[e.fx.Fries.ID].Quantity)
	assert.Equal(t, "5.00", byProduct[e.fx.Fries.ID].Price.StringFixed(2))

	require.Equal(t, 1, e.pub.count())
	ev, ok := e.pub.events[0].event.(OrderCreatedEvent)
	require.True(t, ok)
	assert.Equal(t, o.ID, ev.OrderID)
	assert.Equal(t, "25.00", ev.Total)
	assert.Equal(t, "order_events", e.pub.events[0].topic)
	assert.Equal(t, []string{validCPF}, e.inv.orders)
}

func TestCreateOrder_PriceIsCopiedAtOrderTime(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	id := e.createOrder(t)
	require.NoError(t, e.db.Model(&models.Product{}).Where("id = ?", e.fx.Burger.ID).
		Update("price", decimal.RequireFromString("99.00")).Error)

	got, err := e.repo.GetOrder(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "25.00", got.Total.StringFixed(2))
	for _, op := range got.OrderProducts {
		if op.ProductID == e.fx.Burger.ID {
			assert.Equal(t, "10.00", op.Price.StringFixed(2))
		}
	}
}

func TestCreateOrder_MergesRepeatedProducts(t *testing.T) {
	e := newEnv(t)

	o, err := e.orders.CreateOrder(context.Background(), e.orderInput(
		OrderItemInput{ProductID: e.fx.Soda.ID, Quantity: 2},
		OrderItemInput{ProductID: e.fx.Burger.ID, Quantity: 1},
		OrderItemInput{ProductID: e.fx.Soda.ID, Quantity: 3},
	))
	require.NoError(t, err)
	require.Len(t, o.OrderProducts, 2)
	assert.Equal(t, e.fx.Soda.ID, o.OrderProducts[0].ProductID)
	assert.Equal(t, 5, o.OrderProducts[0].Quantity)
	assert.Equal(t, "32.50", o.Total.StringFixed(2))
}

func TestCreateOrder_ValidationPersistsNothing(t *testing.T) {
	e := newEnv(t)
	other := testutil.SeedRestaurant(t, e.db, "other-place")

	burger := OrderItemInput{ProductID: e.fx.Burger.ID, Quantity: 1}

	tests := []struct {
		name  string
		input func() CreateOrderInput
	}{
		{name: "empty items", input: func() CreateOrderInput { return e.orderInput() }},
		{name: "zero quantity", input: func() CreateOrderInput {
			return e.orderInput(OrderItemInput{ProductID: e.fx.Burger.ID, Quantity: 0})
		}},
		{name: "quantity above max", input: func() CreateOrderInput {
			return e.orderInput(OrderItemInput{ProductID: e.fx.Burger.ID, Quantity: 100})
		}},
		{name: "merged quantity above max", input: func() CreateOrderInput {
			return e.orderInput(
				OrderItemInput{ProductID: e.fx.Burger.ID, Quantity: 60},
				OrderItemInput{ProductID: e.fx.Burger.ID, Quantity: 40},
			)
		}},
		{name: "nil product", input: func() CreateOrderInput {
			return e.orderInput(OrderItemInput{Quantity: 1})
		}},
		{name: "unknown product", input: func() CreateOrderInput {
			return e.orderInput(burger, OrderItemInput{ProductID: uuid.New(), Quantity: 1})
		}},
		{name: "product of another restaurant", input: func() CreateOrderInput {
			return e.orderInput(burger, OrderItemInput{ProductID: other.Fries.ID, Quantity: 1})
		}},
		{name: "unknown restaurant", input: func() CreateOrderInput {
			in := e.orderInput(burger)
			in.RestaurantSlug = "nope"
			return in
		}},
		{name: "bad consumption method", input: func() CreateOrderInput {
			in := e.orderInput(burger)
			in.ConsumptionMethod = "DELIVERY"
			return in
		}},
		{name: "blank name", input: func() CreateOrderInput {
			in := e.orderInput(burger)
			in.CustomerName = "   "
			return in
		}},
		{name: "bad email", input: func() CreateOrderInput {
			in := e.orderInput(burger)
			in.CustomerEmail = "maria-at-example"
			return in
		}},
		{name: "display-name email", input: func() CreateOrderInput {
			in := e.orderInput(burger)
			in.CustomerEmail = "Maria <maria@example.com>"
			return in
		}},
		{name: "bad cpf", input: func() CreateOrderInput {
			in := e.orderInput(burger)
			in.CustomerCPF = "111.111.111-11"
			return in
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.orders.CreateOrder(context.Background(), tt.input())
			require.ErrorIs(t, err, ErrValidation)
		})
	}

	orders, lines := countRows(t, e)
	assert.Zero(t, orders)
	assert.Zero(t, lines)
	assert.Zero(t, e.pub.count())
}

func TestCreateOrder_PublishFailureDoesNotFail(t *testing.T) {
	e := newEnv(t)
	e.pub.err = errors.New("broker down")

	id := e.createOrder(t)
	assert.NotZero(t, id)

	orders, _ := countRows(t, e)
	assert.EqualValues(t, 1, orders)
}

func TestCreateOrder_TakeAwayCaseInsensitive(t *testing.T) {
	e := newEnv(t)

	in := e.orderInput(OrderItemInput{ProductID: e.fx.Fries.ID, Quantity: 1})
	in.ConsumptionMethod = "take_away"
	o, err := e.orders.CreateOrder(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, domain.TakeAway, o.ConsumptionMethod)
}
