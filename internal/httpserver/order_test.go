package httpserver

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/table_order/internal/transport"
)

func (s *server) orderRequest() transport.CreateOrderRequest {
	return transport.CreateOrderRequest{
		RestaurantSlug:    "fsw-donalds",
		ConsumptionMethod: "DINE_IN",
		CustomerName:      "Maria Silva",
		CustomerEmail:     "maria@example.com",
		CustomerCPF:       testCPF,
		Items: []transport.CreateOrderItem{
			{ProductID: s.fx.Burger.ID, Quantity: 2},
			{ProductID: s.fx.Fries.ID, Quantity: 1},
		},
	}
}

func (s *server) createOrder(t *testing.T) transport.CreateOrderResponse {
	t.Helper()

	rec := s.do(t, http.MethodPost, "/orders", s.orderRequest())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var out transport.CreateOrderResponse
	decode(t, rec, &out)
	return out
}

func TestCreateOrder(t *testing.T) {
	s := newServer(t, false)

	out := s.createOrder(t)
	assert.NotZero(t, out.OrderID)
	assert.Equal(t, "PENDING", out.Status)
	assert.Equal(t, "25.00", out.Total)
}

func TestCreateOrder_Invalid(t *testing.T) {
	s := newServer(t, false)

	tests := []struct {
		name   string
		mutate func(*transport.CreateOrderRequest)
	}{
		{name: "invalid cpf", mutate: func(r *transport.CreateOrderRequest) { r.CustomerCPF = "123.456.789-00" }},
		{name: "no items", mutate: func(r *transport.CreateOrderRequest) { r.Items = nil }},
		{name: "zero quantity", mutate: func(r *transport.CreateOrderRequest) { r.Items[0].Quantity = 0 }},
		{name: "bad email", mutate: func(r *transport.CreateOrderRequest) { r.CustomerEmail = "maria" }},
		{name: "unknown restaurant", mutate: func(r *transport.CreateOrderRequest) { r.RestaurantSlug = "nope" }},
		{name: "bad method", mutate: func(r *transport.CreateOrderRequest) { r.ConsumptionMethod = "DELIVERY" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := s.orderRequest()
			tt.mutate(&req)
			rec := s.do(t, http.MethodPost, "/orders", req)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}

	var n int64
	require.NoError(t, s.db.Table("orders").Count(&n).Error)
	assert.Zero(t, n)
}

func TestListOrders(t *testing.T) {
	s := newServer(t, false)
	first := s.createOrder(t)
	second := s.createOrder(t)

	rec := s.do(t, http.MethodGet, "/orders?cpf=52998224725", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		Data []struct {
			ID         uint   `json:"id"`
			Status     string `json:"status"`
			Restaurant struct {
				Name string `json:"name"`
			} `json:"restaurant"`
			OrderProducts []struct {
				Quantity int `json:"quantity"`
				Product  struct {
					Name string `json:"name"`
				} `json:"product"`
			} `json:"orderProducts"`
		} `json:"data"`
		Meta struct {
			Total int64 `json:"total"`
		} `json:"meta"`
	}
	decode(t, rec, &body)
	require.Len(t, body.Data, 2)
	assert.EqualValues(t, 2, body.Meta.Total)
	assert.Equal(t, second.OrderID, body.Data[0].ID)
	assert.Equal(t, first.OrderID, body.Data[1].ID)
	assert.Equal(t, "FSW Donalds", body.Data[0].Restaurant.Name)
	require.Len(t, body.Data[0].OrderProducts, 2)
	assert.NotEmpty(t, body.Data[0].OrderProducts[0].Product.Name)
}

func TestListOrders_CPFHandling(t *testing.T) {
	s := newServer(t, false)

	rec := s.do(t, http.MethodGet, "/orders?cpf=111.111.111-11", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = s.do(t, http.MethodGet, "/orders", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = s.do(t, http.MethodGet, "/orders?cpf=111.444.777-35", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Data []any `json:"data"`
	}
	decode(t, rec, &body)
	assert.NotNil(t, body.Data)
	assert.Empty(t, body.Data)
}

func TestGetOrder(t *testing.T) {
	s := newServer(t, false)
	out := s.createOrder(t)

	rec := s.do(t, http.MethodGet, fmt.Sprintf("/orders/%d?cpf=%s", out.OrderID, "52998224725"), nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, fmt.Sprintf("/orders/%d?cpf=%s", out.OrderID, "11144477735"), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodGet, "/orders/abc?cpf=52998224725", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPaymentRoutesAbsentWithoutProcessor(t *testing.T) {
	s := newServer(t, false)
	out := s.createOrder(t)

	rec := s.do(t, http.MethodPost, fmt.Sprintf("/orders/%d/payment-session", out.OrderID), transport.PaymentSessionRequest{CustomerCPF: testCPF})
	assert.Contains(t, []int{http.StatusNotFound, http.StatusMethodNotAllowed}, rec.Code)

	rec = s.do(t, http.MethodPost, "/webhooks/stripe", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
