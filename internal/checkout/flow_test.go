package checkout

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marianareyesgonzalez4/boton-magico-creador-sub000/internal/api"
	"github.com/marianareyesgonzalez4/boton-magico-creador-sub000/internal/cart"
	"github.com/marianareyesgonzalez4/boton-magico-creador-sub000/internal/models"
	"github.com/marianareyesgonzalez4/boton-magico-creador-sub000/internal/pricing"
	"github.com/marianareyesgonzalez4/boton-magico-creador-sub000/internal/storage"
)

// guestAuth 固定为未认证会话
type guestAuth struct{}

func (guestAuth) Authenticated() bool { return false }

func validInput() Input {
	return Input{
		FullName:      "Mariana Reyes",
		Email:         "mariana@example.com",
		Address:       "Calle 10 #4-21",
		City:          "Bogotá",
		PostalCode:    "110111",
		Phone:         "3001234567",
		PaymentMethod: models.PaymentMethodCashOnDelivery,
	}
}

func testProduct(id uint, price int64) *models.Product {
	return &models.Product{ID: id, Name: "Product", Price: models.NewMoneyFromInt(price), IsActive: true}
}

// newTestFlow 组装一个以本地购物车为权威数据源的下单流程
func newTestFlow(t *testing.T, baseURL string) (*Flow, *cart.Store) {
	t.Helper()
	transport, err := api.NewTransport(api.TransportOptions{
		BaseURL:     baseURL,
		Attempts:    1,
		BackoffStep: time.Millisecond,
	})
	require.NoError(t, err)

	local := cart.NewStore(storage.NewMemoryKV())
	cartClient := api.NewCartClient(transport)
	manager := cart.NewManager(local, cartClient, cart.NewSynchronizer(local, cartClient), guestAuth{})
	flow := NewFlow(manager, api.NewOrderClient(transport), pricing.DefaultTaxRate)
	return flow, local
}

func TestSubmitValidationFailureMakesNoNetworkCall(t *testing.T) {
	var requests atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
	}))
	defer server.Close()

	flow, local := newTestFlow(t, server.URL)
	local.Add(testProduct(1, 100), 1)

	input := validInput()
	input.Email = "not-an-email"

	_, err := flow.Submit(context.Background(), input)
	require.Error(t, err)

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Len(t, validationErr.Fields, 1)
	assert.Equal(t, "Email", validationErr.Fields[0].Field)

	assert.Equal(t, int64(0), requests.Load())
	assert.Equal(t, StateIdle, flow.State())
}

func TestSubmitCardFieldsRequiredForCardMethod(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("unexpected request")
	}))
	defer server.Close()

	flow, local := newTestFlow(t, server.URL)
	local.Add(testProduct(1, 100), 1)

	input := validInput()
	input.PaymentMethod = models.PaymentMethodCard

	_, err := flow.Submit(context.Background(), input)
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)

	fields := make(map[string]bool)
	for _, field := range validationErr.Fields {
		fields[field.Field] = true
	}
	assert.True(t, fields["CardNumber"])
	assert.True(t, fields["CardExpiry"])
	assert.True(t, fields["CardCVV"])
}

func TestSubmitEmptyCartFailsValidation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("unexpected request")
	}))
	defer server.Close()

	flow, _ := newTestFlow(t, server.URL)

	_, err := flow.Submit(context.Background(), validInput())
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "cart", validationErr.Fields[0].Field)
	assert.Equal(t, StateIdle, flow.State())
}

func TestSubmitSuccessClearsCartAndReturnsOrderID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/orders", r.URL.Path)

		var request api.CreateOrderRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&request))
		require.Len(t, request.OrderDetails, 2)

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"id":     "ord_20260829_001",
			"status": models.OrderStatusConfirmed,
		})
	}))
	defer server.Close()

	flow, local := newTestFlow(t, server.URL)
	local.Add(testProduct(1, 100), 2)
	local.Add(testProduct(2, 50), 1)

	order, err := flow.Submit(context.Background(), validInput())
	require.NoError(t, err)
	assert.Equal(t, "ord_20260829_001", order.ID)
	assert.Equal(t, models.OrderStatusConfirmed, order.Status)
	assert.True(t, local.IsEmpty())
	assert.Equal(t, StateConfirmed, flow.State())
}

func TestSubmitFailurePreservesCart(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(map[string]string{"code": "OUT_OF_STOCK", "message": "stock insufficient"})
	}))
	defer server.Close()

	flow, local := newTestFlow(t, server.URL)
	local.Add(testProduct(1, 100), 2)
	local.Add(testProduct(2, 50), 1)

	_, err := flow.Submit(context.Background(), validInput())
	require.Error(t, err)
	assert.True(t, api.IsConflict(err))
	assert.Equal(t, StateFailed, flow.State())

	snapshot := local.Snapshot()
	require.Len(t, snapshot.Lines, 2)
	assert.Equal(t, 2, snapshot.Lines[0].Quantity)
	assert.Equal(t, 1, snapshot.Lines[1].Quantity)

	// 失败后可以从头重试
	flow.Reset()
	assert.Equal(t, StateIdle, flow.State())
}

func TestSubmitComputesTotalsWhenServerOmitsThem(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "ord_1"})
	}))
	defer server.Close()

	flow, local := newTestFlow(t, server.URL)
	local.Add(testProduct(1, 100000), 1)

	order, err := flow.Submit(context.Background(), validInput())
	require.NoError(t, err)
	assert.True(t, order.Subtotal.Equal(decimal.NewFromInt(100000)))
	assert.True(t, order.Tax.Equal(decimal.NewFromInt(19000)))
	assert.True(t, order.Shipping.IsZero())
	assert.True(t, order.Total.Equal(decimal.NewFromInt(119000)))
}

func TestSubmitFrozenUnitPricesSurviveCatalogChange(t *testing.T) {
	var request api.CreateOrderRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&request))
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "ord_1"})
	}))
	defer server.Close()

	flow, local := newTestFlow(t, server.URL)
	product := testProduct(1, 100)
	local.Add(product, 2)
	// 下单前目录价变动不影响已快照的单价
	product.Price = models.NewMoneyFromInt(999)

	_, err := flow.Submit(context.Background(), validInput())
	require.NoError(t, err)
	require.Len(t, request.OrderDetails, 1)
	assert.True(t, request.OrderDetails[0].UnitPrice.Equal(decimal.NewFromInt(100)))
}
