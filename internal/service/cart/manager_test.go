package cart

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/service/lifecycle"
	"github.com/vladislavdragonenkov/storefront/internal/storage/memory"
)

type cartFixture struct {
	manager  *Manager
	products domain.ProductRepository
	orders   domain.OrderRepository
	outbox   domain.OutboxRepository
}

func newCartFixture(t *testing.T) *cartFixture {
	t.Helper()

	store := memory.NewStore()
	products := memory.NewProductRepository(store)
	orders := memory.NewOrderRepository(store)
	outbox := memory.NewOutboxRepository()
	timeline := memory.NewTimelineRepository()
	emitter := lifecycle.NewEmitter(outbox, timeline, nil, nil)

	return &cartFixture{
		manager:  NewManager(products, memory.NewInventoryLedger(store), orders, emitter, nil, nil),
		products: products,
		orders:   orders,
		outbox:   outbox,
	}
}

func (f *cartFixture) seedProduct(t *testing.T, name string, priceMinor int64, stock int32) domain.Product {
	t.Helper()

	product := domain.Product{
		ID:         uuid.NewString(),
		Name:       name,
		PriceMinor: priceMinor,
		Stock:      stock,
	}
	require.NoError(t, f.products.Create(product))
	return product
}

func TestManager_AddItemCreatesCart(t *testing.T) {
	f := newCartFixture(t)
	product := f.seedProduct(t, "Keyboard", 4990, 10)
	user := domain.User{ID: "alice"}

	order, err := f.manager.AddItem(context.Background(), user, product.ID, 2)
	require.NoError(t, err)
	require.Equal(t, domain.OrderStatusCart, order.Status)
	require.Len(t, order.Items, 1)
	require.Equal(t, int32(2), order.Items[0].Qty)
	require.Equal(t, int64(2*4990), order.TotalMinor)

	pending, err := f.outbox.PullPending(10)
	require.NoError(t, err)
	require.Len(t, pending, 2) // cart_created + item_added
}

func TestManager_AddItemMergesRepeatedProduct(t *testing.T) {
	f := newCartFixture(t)
	product := f.seedProduct(t, "Keyboard", 4990, 10)
	user := domain.User{ID: "alice"}

	_, err := f.manager.AddItem(context.Background(), user, product.ID, 2)
	require.NoError(t, err)

	// Цена товара меняется, но позиция в корзине держит цену первого добавления.
	updated := product
	updated.PriceMinor = 9999
	require.NoError(t, f.products.Update(updated))

	order, err := f.manager.AddItem(context.Background(), user, product.ID, 3)
	require.NoError(t, err)
	require.Len(t, order.Items, 1)
	require.Equal(t, int32(5), order.Items[0].Qty)
	require.Equal(t, int64(4990), order.Items[0].PriceMinor)
	require.Equal(t, int64(5*4990), order.TotalMinor)
}

func TestManager_AddItemReusesExistingCart(t *testing.T) {
	f := newCartFixture(t)
	keyboard := f.seedProduct(t, "Keyboard", 4990, 10)
	mouse := f.seedProduct(t, "Mouse", 1990, 10)
	user := domain.User{ID: "alice"}

	first, err := f.manager.AddItem(context.Background(), user, keyboard.ID, 1)
	require.NoError(t, err)
	second, err := f.manager.AddItem(context.Background(), user, mouse.ID, 1)
	require.NoError(t, err)

	require.Equal(t, first.ID, second.ID)
	require.Len(t, second.Items, 2)
}

func TestManager_AddItemInsufficientStockIsAdvisory(t *testing.T) {
	f := newCartFixture(t)
	product := f.seedProduct(t, "Mouse", 1990, 2)
	user := domain.User{ID: "alice"}

	_, err := f.manager.AddItem(context.Background(), user, product.ID, 3)

	var insufficient *domain.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	require.Equal(t, "Mouse", insufficient.ProductName)
	require.Equal(t, int32(3), insufficient.Requested)
	require.Equal(t, int32(2), insufficient.Available)

	// Отказ не открывает корзину.
	_, err = f.manager.ActiveCart(context.Background(), user)
	require.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestManager_AddItemUnknownProduct(t *testing.T) {
	f := newCartFixture(t)
	user := domain.User{ID: "alice"}

	_, err := f.manager.AddItem(context.Background(), user, uuid.NewString(), 1)
	require.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestManager_AddItemInvalidQty(t *testing.T) {
	f := newCartFixture(t)
	product := f.seedProduct(t, "Keyboard", 4990, 10)
	user := domain.User{ID: "alice"}

	_, err := f.manager.AddItem(context.Background(), user, product.ID, 0)
	require.ErrorIs(t, err, domain.ErrItemQtyInvalid)

	_, err = f.manager.AddItem(context.Background(), user, product.ID, -1)
	require.ErrorIs(t, err, domain.ErrItemQtyInvalid)
}

func TestManager_AddItemRequiresUser(t *testing.T) {
	f := newCartFixture(t)
	product := f.seedProduct(t, "Keyboard", 4990, 10)

	_, err := f.manager.AddItem(context.Background(), domain.User{}, product.ID, 1)
	require.ErrorIs(t, err, domain.ErrUserRequired)
}
