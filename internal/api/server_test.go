package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/storefront/internal/auth"
	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/service/cart"
	"github.com/vladislavdragonenkov/storefront/internal/service/catalog"
	"github.com/vladislavdragonenkov/storefront/internal/service/checkout"
	"github.com/vladislavdragonenkov/storefront/internal/service/lifecycle"
	"github.com/vladislavdragonenkov/storefront/internal/service/orders"
	"github.com/vladislavdragonenkov/storefront/internal/service/payment"
	"github.com/vladislavdragonenkov/storefront/internal/storage/memory"
)

type apiFixture struct {
	router   *gin.Engine
	products domain.ProductRepository
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memory.NewStore()
	productRepo := memory.NewProductRepository(store)
	inventory := memory.NewInventoryLedger(store)
	orderRepo := memory.NewOrderRepository(store)
	outboxRepo := memory.NewOutboxRepository()
	timelineRepo := memory.NewTimelineRepository()
	idempotencyRepo := memory.NewIdempotencyRepository()

	logger := log.New()
	logger.SetLevel(log.PanicLevel)
	entry := logger.WithField("component", "api-test")

	emitter := lifecycle.NewEmitter(outboxRepo, timelineRepo, entry, nil)
	identity := auth.NewStaticProvider(map[string]domain.User{
		"alice-token": {ID: "alice", Email: "alice@example.com"},
		"bob-token":   {ID: "bob", Email: "bob@example.com"},
		"root-token":  {ID: "root", Email: "root@example.com", Admin: true},
	}, entry)

	server := NewServer(
		cart.NewManager(productRepo, inventory, orderRepo, emitter, entry, nil),
		checkout.NewCoordinator(orderRepo, inventory, productRepo, emitter, entry, nil),
		payment.NewProcessor(orderRepo, payment.NewMockGateway(), emitter, entry, nil),
		orders.NewQueries(orderRepo, timelineRepo, entry),
		catalog.NewService(productRepo, entry),
		identity,
		idempotencyRepo,
		entry,
	)

	return &apiFixture{router: server.Routes(), products: productRepo}
}

func (f *apiFixture) do(t *testing.T, method, path, token string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for name, value := range headers {
		req.Header.Set(name, value)
	}

	recorder := httptest.NewRecorder()
	f.router.ServeHTTP(recorder, req)
	return recorder
}

func (f *apiFixture) seedProduct(t *testing.T, name string, priceMinor int64, stock int32) string {
	t.Helper()
	id := fmt.Sprintf("prod-%s", name)
	require.NoError(t, f.products.Create(domain.Product{
		ID:         id,
		Name:       name,
		PriceMinor: priceMinor,
		Stock:      stock,
	}))
	return id
}

func decodeOrder(t *testing.T, recorder *httptest.ResponseRecorder) orderResponse {
	t.Helper()
	var order orderResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &order))
	return order
}

func TestFullOrderLifecycleOverHTTP(t *testing.T) {
	f := newAPIFixture(t)
	productID := f.seedProduct(t, "Keyboard", 4990, 5)

	resp := f.do(t, http.MethodPost, "/cart/add", "alice-token", addItemRequest{ProductID: productID, Qty: 3}, nil)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	cartOrder := decodeOrder(t, resp)
	assert.Equal(t, "cart", cartOrder.Status)
	assert.Equal(t, int64(3*4990), cartOrder.TotalMinor)

	resp = f.do(t, http.MethodPost, "/checkout", "alice-token", nil, nil)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	pending := decodeOrder(t, resp)
	assert.Equal(t, "pending_payment", pending.Status)
	assert.Equal(t, cartOrder.ID, pending.ID)

	resp = f.do(t, http.MethodPost, "/payments/"+pending.ID, "alice-token", nil, nil)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	var paid paymentResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &paid))
	assert.Equal(t, "paid", paid.Order.Status)
	assert.NotEmpty(t, paid.Reference)

	product, err := f.products.Get(productID)
	require.NoError(t, err)
	assert.Equal(t, int32(2), product.Stock)

	resp = f.do(t, http.MethodGet, "/orders/"+pending.ID+"/timeline", "alice-token", nil, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	var events []timelineEventResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &events))
	types := make([]string, 0, len(events))
	for _, event := range events {
		types = append(types, event.Type)
	}
	assert.Equal(t, []string{"order.cart_created", "order.item_added", "order.checked_out", "order.paid"}, types)
}

func TestAuthRequired(t *testing.T) {
	f := newAPIFixture(t)

	resp := f.do(t, http.MethodGet, "/orders/me", "", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = f.do(t, http.MethodGet, "/orders/me", "bad-token", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestAdminEndpointsForbiddenForRegularUser(t *testing.T) {
	f := newAPIFixture(t)

	resp := f.do(t, http.MethodPost, "/admin/products", "alice-token", productRequest{Name: "Mouse", PriceMinor: 990, Stock: 1}, nil)
	assert.Equal(t, http.StatusForbidden, resp.Code)

	resp = f.do(t, http.MethodGet, "/admin/orders", "alice-token", nil, nil)
	assert.Equal(t, http.StatusForbidden, resp.Code)
}

func TestAdminCatalogCRUD(t *testing.T) {
	f := newAPIFixture(t)

	resp := f.do(t, http.MethodPost, "/admin/products", "root-token", productRequest{Name: "Mouse", PriceMinor: 990, Stock: 7}, nil)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	var created productResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &created))
	require.NotEmpty(t, created.ID)

	resp = f.do(t, http.MethodPut, "/admin/products/"+created.ID, "root-token", productRequest{Name: "Mouse Pro", PriceMinor: 1490, Stock: 7}, nil)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	resp = f.do(t, http.MethodGet, "/products/"+created.ID, "alice-token", nil, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	var fetched productResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &fetched))
	assert.Equal(t, "Mouse Pro", fetched.Name)
	assert.Equal(t, int64(1490), fetched.PriceMinor)
}

func TestForeignOrderLooksMissing(t *testing.T) {
	f := newAPIFixture(t)
	productID := f.seedProduct(t, "Keyboard", 4990, 5)

	resp := f.do(t, http.MethodPost, "/cart/add", "alice-token", addItemRequest{ProductID: productID, Qty: 1}, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	order := decodeOrder(t, resp)

	resp = f.do(t, http.MethodGet, "/orders/"+order.ID, "bob-token", nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.Code)

	resp = f.do(t, http.MethodPost, "/payments/"+order.ID, "bob-token", nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestInsufficientStockConflict(t *testing.T) {
	f := newAPIFixture(t)
	productID := f.seedProduct(t, "Monitor", 19990, 2)

	resp := f.do(t, http.MethodPost, "/cart/add", "alice-token", addItemRequest{ProductID: productID, Qty: 3}, nil)
	require.Equal(t, http.StatusConflict, resp.Code)
	assert.Contains(t, resp.Body.String(), "Monitor")
}

func TestAddItemValidation(t *testing.T) {
	f := newAPIFixture(t)

	resp := f.do(t, http.MethodPost, "/cart/add", "alice-token", map[string]any{"product_id": "p1", "qty": 0}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = f.do(t, http.MethodPost, "/cart/add", "alice-token", map[string]any{"qty": 1}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestCheckoutIdempotencyReplay(t *testing.T) {
	f := newAPIFixture(t)
	productID := f.seedProduct(t, "Keyboard", 4990, 5)

	resp := f.do(t, http.MethodPost, "/cart/add", "alice-token", addItemRequest{ProductID: productID, Qty: 1}, nil)
	require.Equal(t, http.StatusOK, resp.Code)

	headers := map[string]string{idempotencyKeyHeader: "chk-1"}
	first := f.do(t, http.MethodPost, "/checkout", "alice-token", nil, headers)
	require.Equal(t, http.StatusOK, first.Code, first.Body.String())

	// Повтор с тем же ключом не делает второй checkout, а отдаёт кэш.
	second := f.do(t, http.MethodPost, "/checkout", "alice-token", nil, headers)
	require.Equal(t, http.StatusOK, second.Code)
	assert.JSONEq(t, first.Body.String(), second.Body.String())

	// Без ключа повторный checkout видит пустую корзину.
	third := f.do(t, http.MethodPost, "/checkout", "alice-token", nil, nil)
	assert.Equal(t, http.StatusBadRequest, third.Code)
}

func TestIdempotencyKeyReuseWithDifferentBody(t *testing.T) {
	f := newAPIFixture(t)
	productID := f.seedProduct(t, "Keyboard", 4990, 5)

	resp := f.do(t, http.MethodPost, "/cart/add", "alice-token", addItemRequest{ProductID: productID, Qty: 1}, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	order := decodeOrder(t, resp)

	resp = f.do(t, http.MethodPost, "/checkout", "alice-token", nil, nil)
	require.Equal(t, http.StatusOK, resp.Code)

	headers := map[string]string{idempotencyKeyHeader: "pay-1"}
	first := f.do(t, http.MethodPost, "/payments/"+order.ID, "alice-token", nil, headers)
	require.Equal(t, http.StatusOK, first.Code, first.Body.String())

	// Тот же ключ на другом пути должен быть отвергнут.
	reused := f.do(t, http.MethodPost, "/checkout", "alice-token", nil, headers)
	assert.Equal(t, http.StatusConflict, reused.Code)
}

func TestIdempotencyKeyReuseAcrossOrdersRejected(t *testing.T) {
	f := newAPIFixture(t)
	keyboard := f.seedProduct(t, "Keyboard", 4990, 5)
	monitor := f.seedProduct(t, "Monitor", 19990, 5)

	resp := f.do(t, http.MethodPost, "/cart/add", "alice-token", addItemRequest{ProductID: keyboard, Qty: 1}, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	resp = f.do(t, http.MethodPost, "/checkout", "alice-token", nil, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	aliceOrder := decodeOrder(t, resp)

	resp = f.do(t, http.MethodPost, "/cart/add", "bob-token", addItemRequest{ProductID: monitor, Qty: 1}, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	resp = f.do(t, http.MethodPost, "/checkout", "bob-token", nil, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	bobOrder := decodeOrder(t, resp)

	headers := map[string]string{idempotencyKeyHeader: "pay-shared"}
	first := f.do(t, http.MethodPost, "/payments/"+aliceOrder.ID, "alice-token", nil, headers)
	require.Equal(t, http.StatusOK, first.Code, first.Body.String())

	// Тот же ключ на оплату другого заказа: другой URL — другой хэш,
	// кэш первого заказа не подставляется.
	reused := f.do(t, http.MethodPost, "/payments/"+bobOrder.ID, "bob-token", nil, headers)
	require.Equal(t, http.StatusConflict, reused.Code, reused.Body.String())

	// Заказ второго пользователя остаётся оплачиваемым обычным путём.
	paid := f.do(t, http.MethodPost, "/payments/"+bobOrder.ID, "bob-token", nil, nil)
	require.Equal(t, http.StatusOK, paid.Code, paid.Body.String())
	var payment paymentResponse
	require.NoError(t, json.Unmarshal(paid.Body.Bytes(), &payment))
	assert.Equal(t, bobOrder.ID, payment.Order.ID)
}

func TestIdempotencyReplaysStoredFailure(t *testing.T) {
	f := newAPIFixture(t)

	headers := map[string]string{idempotencyKeyHeader: "chk-empty"}
	first := f.do(t, http.MethodPost, "/checkout", "alice-token", nil, headers)
	require.Equal(t, http.StatusBadRequest, first.Code)

	second := f.do(t, http.MethodPost, "/checkout", "alice-token", nil, headers)
	require.Equal(t, http.StatusBadRequest, second.Code)
	assert.JSONEq(t, first.Body.String(), second.Body.String())
}
