package cart

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/storefront/internal/metrics"
	"github.com/vladislavdragonenkov/storefront/internal/service/lifecycle"
)

// Manager ведёт открытую корзину пользователя: одна корзина на
// пользователя, повторное добавление товара сливается в одну позицию
// по цене первого добавления.
type Manager struct {
	products  domain.ProductRepository
	inventory domain.InventoryLedger
	orders    domain.OrderRepository
	emitter   *lifecycle.Emitter
	logger    *log.Entry
	metrics   *metrics.OrderMetrics
}

// NewManager создаёт менеджер корзины. emitter и metrics могут быть nil.
func NewManager(
	products domain.ProductRepository,
	inventory domain.InventoryLedger,
	orders domain.OrderRepository,
	emitter *lifecycle.Emitter,
	logger *log.Entry,
	orderMetrics *metrics.OrderMetrics,
) *Manager {
	if logger == nil {
		logger = log.New().WithField("component", "cart")
	}
	return &Manager{
		products:  products,
		inventory: inventory,
		orders:    orders,
		emitter:   emitter,
		logger:    logger,
		metrics:   orderMetrics,
	}
}

// AddItem добавляет qty единиц товара в корзину пользователя, создавая
// корзину при первом добавлении. Проверка остатка здесь рекомендательная:
// она отсекает заведомо невыполнимые заказы, но не резервирует товар.
func (m *Manager) AddItem(ctx context.Context, user domain.User, productID string, qty int32) (domain.Order, error) {
	start := time.Now()
	defer func() {
		if m.metrics != nil {
			m.metrics.RecordOperationDuration("add_item", time.Since(start))
		}
	}()

	if user.ID == "" {
		return domain.Order{}, domain.ErrUserRequired
	}
	if qty <= 0 {
		return domain.Order{}, domain.ErrItemQtyInvalid
	}

	product, err := m.products.Get(productID)
	if err != nil {
		return domain.Order{}, err
	}

	available, err := m.inventory.CheckAvailable(productID, qty)
	if err != nil {
		return domain.Order{}, err
	}
	if !available {
		if m.metrics != nil {
			m.metrics.RecordStockConflict()
		}
		return domain.Order{}, domain.NewInsufficientStockError(product.ID, product.Name, qty, product.Stock)
	}

	order, created, err := m.findOrCreateCart(user.ID)
	if err != nil {
		return domain.Order{}, err
	}
	if created {
		if m.metrics != nil {
			m.metrics.CartOpened()
		}
		m.emitter.Emit(order.ID, string(kafka.EventTypeCartCreated), "", map[string]interface{}{
			"user_id": user.ID,
		})
	}

	item := domain.OrderItem{
		ID:         uuid.NewString(),
		ProductID:  product.ID,
		Qty:        qty,
		PriceMinor: product.PriceMinor,
	}
	if err := m.orders.UpsertItem(order.ID, item); err != nil {
		return domain.Order{}, err
	}

	if m.metrics != nil {
		m.metrics.RecordItemAdded()
	}
	m.emitter.Emit(order.ID, string(kafka.EventTypeItemAdded), "", map[string]interface{}{
		"user_id":     user.ID,
		"product_id":  product.ID,
		"qty":         qty,
		"price_minor": product.PriceMinor,
	})

	fresh, err := m.orders.GetForUser(order.ID, user.ID)
	if err != nil {
		return domain.Order{}, err
	}

	m.logger.WithFields(log.Fields{
		"order_id":   fresh.ID,
		"user_id":    user.ID,
		"product_id": product.ID,
		"qty":        qty,
	}).Info("item added to cart")

	return fresh, nil
}

// ActiveCart возвращает открытую корзину пользователя.
func (m *Manager) ActiveCart(ctx context.Context, user domain.User) (domain.Order, error) {
	if user.ID == "" {
		return domain.Order{}, domain.ErrUserRequired
	}
	return m.orders.ActiveCart(user.ID)
}

// findOrCreateCart находит открытую корзину или создаёт новую. Гонку
// двух конкурентных созданий разрешает хранилище: проигравший получает
// ErrCartAlreadyExists и перечитывает корзину победителя.
func (m *Manager) findOrCreateCart(userID string) (domain.Order, bool, error) {
	order, err := m.orders.ActiveCart(userID)
	if err == nil {
		return order, false, nil
	}
	if !errors.Is(err, domain.ErrOrderNotFound) {
		return domain.Order{}, false, err
	}

	cart := domain.Order{
		ID:     uuid.NewString(),
		UserID: userID,
		Status: domain.OrderStatusCart,
	}
	createErr := m.orders.CreateCart(cart)
	if createErr == nil {
		return cart, true, nil
	}
	if errors.Is(createErr, domain.ErrCartAlreadyExists) {
		existing, lookupErr := m.orders.ActiveCart(userID)
		if lookupErr != nil {
			return domain.Order{}, false, lookupErr
		}
		return existing, false, nil
	}

	return domain.Order{}, false, createErr
}
