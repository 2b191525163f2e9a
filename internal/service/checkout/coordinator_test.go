package checkout

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/service/lifecycle"
	"github.com/vladislavdragonenkov/storefront/internal/storage/memory"
)

type checkoutFixture struct {
	coordinator *Coordinator
	products    domain.ProductRepository
	orders      domain.OrderRepository
	outbox      domain.OutboxRepository
}

func newCheckoutFixture(t *testing.T) *checkoutFixture {
	t.Helper()

	store := memory.NewStore()
	products := memory.NewProductRepository(store)
	orders := memory.NewOrderRepository(store)
	outbox := memory.NewOutboxRepository()
	emitter := lifecycle.NewEmitter(outbox, memory.NewTimelineRepository(), nil, nil)

	return &checkoutFixture{
		coordinator: NewCoordinator(orders, memory.NewInventoryLedger(store), products, emitter, nil, nil),
		products:    products,
		orders:      orders,
		outbox:      outbox,
	}
}

func (f *checkoutFixture) seedCart(t *testing.T, userID string, productStock int32, qty int32) (domain.Product, domain.Order) {
	t.Helper()

	product := domain.Product{
		ID:         uuid.NewString(),
		Name:       "Keyboard",
		PriceMinor: 4990,
		Stock:      productStock,
	}
	require.NoError(t, f.products.Create(product))

	cart := domain.Order{ID: uuid.NewString(), UserID: userID, Status: domain.OrderStatusCart}
	require.NoError(t, f.orders.CreateCart(cart))
	if qty > 0 {
		require.NoError(t, f.orders.UpsertItem(cart.ID, domain.OrderItem{
			ID:         uuid.NewString(),
			ProductID:  product.ID,
			Qty:        qty,
			PriceMinor: product.PriceMinor,
		}))
	}
	return product, cart
}

func TestCoordinator_CheckoutFreezesCart(t *testing.T) {
	f := newCheckoutFixture(t)
	user := domain.User{ID: "alice"}
	_, cart := f.seedCart(t, user.ID, 10, 3)

	order, err := f.coordinator.Checkout(context.Background(), user)
	require.NoError(t, err)
	require.Equal(t, cart.ID, order.ID)
	require.Equal(t, domain.OrderStatusPendingPayment, order.Status)
	require.Equal(t, int64(3*4990), order.TotalMinor)

	// Корзины больше нет: следующее добавление откроет новую.
	_, err = f.orders.ActiveCart(user.ID)
	require.ErrorIs(t, err, domain.ErrOrderNotFound)

	pending, err := f.outbox.PullPending(10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, "order.checked_out", pending[0].EventType)
}

func TestCoordinator_CheckoutEmptyCart(t *testing.T) {
	f := newCheckoutFixture(t)
	user := domain.User{ID: "alice"}
	f.seedCart(t, user.ID, 10, 0)

	_, err := f.coordinator.Checkout(context.Background(), user)
	require.ErrorIs(t, err, domain.ErrEmptyCart)
}

func TestCoordinator_CheckoutWithoutCart(t *testing.T) {
	f := newCheckoutFixture(t)

	// Отсутствие корзины для клиента неотличимо от пустой корзины.
	_, err := f.coordinator.Checkout(context.Background(), domain.User{ID: "alice"})
	require.ErrorIs(t, err, domain.ErrEmptyCart)
}

func TestCoordinator_CheckoutInsufficientStockNamesProduct(t *testing.T) {
	f := newCheckoutFixture(t)
	user := domain.User{ID: "alice"}
	product, cart := f.seedCart(t, user.ID, 10, 3)

	// Остаток уходит после наполнения корзины.
	drained, err := f.products.Get(product.ID)
	require.NoError(t, err)
	drained.Stock = 1
	require.NoError(t, f.products.Update(drained))

	_, err = f.coordinator.Checkout(context.Background(), user)

	var insufficient *domain.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	require.Equal(t, "Keyboard", insufficient.ProductName)
	require.Equal(t, int32(3), insufficient.Requested)
	require.Equal(t, int32(1), insufficient.Available)

	// Корзина остаётся открытой и пригодной для правок.
	still, err := f.orders.GetForUser(cart.ID, user.ID)
	require.NoError(t, err)
	require.Equal(t, domain.OrderStatusCart, still.Status)
}

func TestCoordinator_CheckoutIsSingleShot(t *testing.T) {
	f := newCheckoutFixture(t)
	user := domain.User{ID: "alice"}
	f.seedCart(t, user.ID, 10, 1)

	_, err := f.coordinator.Checkout(context.Background(), user)
	require.NoError(t, err)

	// Повторный checkout не находит открытой корзины и ведёт себя как пустая.
	_, err = f.coordinator.Checkout(context.Background(), user)
	require.ErrorIs(t, err, domain.ErrEmptyCart)
}
