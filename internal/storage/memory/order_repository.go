package memory

import (
	"sort"
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// orderRepository — in-memory реализация OrderRepository.
type orderRepository struct {
	store *Store
}

// NewOrderRepository возвращает in-memory репозиторий заказов.
func NewOrderRepository(store *Store) domain.OrderRepository {
	return &orderRepository{store: store}
}

// CreateCart сохраняет новую открытую корзину, охраняя инвариант
// «одна корзина на пользователя».
func (r *orderRepository) CreateCart(order domain.Order) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, existing := range r.store.orders {
		if existing.UserID == order.UserID && existing.Status == domain.OrderStatusCart {
			return domain.ErrCartAlreadyExists
		}
	}
	if _, exists := r.store.orders[order.ID]; exists {
		return domain.ErrCartAlreadyExists
	}

	now := time.Now().UTC()
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	if order.UpdatedAt.IsZero() {
		order.UpdatedAt = now
	}
	r.store.orders[order.ID] = cloneOrder(order)
	return nil
}

// ActiveCart возвращает открытую корзину пользователя или ErrOrderNotFound.
func (r *orderRepository) ActiveCart(userID string) (domain.Order, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, order := range r.store.orders {
		if order.UserID == userID && order.Status == domain.OrderStatusCart {
			return cloneOrder(order), nil
		}
	}
	return domain.Order{}, domain.ErrOrderNotFound
}

// UpsertItem сливает позицию в корзину: существующая строка того же товара
// увеличивает qty (снапшот цены не трогается), иначе добавляется новая.
// Total пересчитывается из сохранённых снапшотов позиций.
func (r *orderRepository) UpsertItem(orderID string, item domain.OrderItem) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	order, ok := r.store.orders[orderID]
	if !ok || order.Status != domain.OrderStatusCart {
		return domain.ErrOrderNotFound
	}
	order = cloneOrder(order)

	merged := false
	for i, existing := range order.Items {
		if existing.ProductID == item.ProductID {
			order.Items[i].Qty += item.Qty
			merged = true
			break
		}
	}
	if !merged {
		order.Items = append(order.Items, item)
	}

	order.TotalMinor = order.ItemsTotalMinor()
	order.UpdatedAt = time.Now().UTC()
	r.store.orders[orderID] = order
	return nil
}

// GetForUser возвращает заказ, принадлежащий пользователю.
func (r *orderRepository) GetForUser(orderID, userID string) (domain.Order, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	order, ok := r.store.orders[orderID]
	if !ok || order.UserID != userID {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return cloneOrder(order), nil
}

// GetForUserInStatus дополнительно фильтрует по ожидаемому статусу.
func (r *orderRepository) GetForUserInStatus(orderID, userID string, status domain.OrderStatus) (domain.Order, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	order, ok := r.store.orders[orderID]
	if !ok || order.UserID != userID || order.Status != status {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return cloneOrder(order), nil
}

// ListByUser возвращает заказы пользователя, новые первыми.
func (r *orderRepository) ListByUser(userID string) ([]domain.Order, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	result := make([]domain.Order, 0)
	for _, order := range r.store.orders {
		if order.UserID != userID {
			continue
		}
		result = append(result, cloneOrder(order))
	}

	sortOrders(result)
	return result, nil
}

// ListAll возвращает все заказы, новые первыми.
func (r *orderRepository) ListAll() ([]domain.Order, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	result := make([]domain.Order, 0, len(r.store.orders))
	for _, order := range r.store.orders {
		result = append(result, cloneOrder(order))
	}

	sortOrders(result)
	return result, nil
}

// Transition переводит заказ from → to условной записью.
// Несовпадение владельца или статуса неотличимо от отсутствия заказа.
func (r *orderRepository) Transition(orderID, userID string, from, to domain.OrderStatus) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	order, ok := r.store.orders[orderID]
	if !ok || order.UserID != userID || order.Status != from {
		return domain.ErrOrderNotFound
	}

	order = cloneOrder(order)
	order.Status = to
	order.UpdatedAt = time.Now().UTC()
	r.store.orders[orderID] = order
	return nil
}

// CompletePayment применяет списания остатков и перевод в paid атомарно:
// сначала валидируются все декременты, запись происходит только если
// ни один из них не нарушает stock >= 0.
func (r *orderRepository) CompletePayment(orderID, userID string, decrements []domain.StockDecrement) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	order, ok := r.store.orders[orderID]
	if !ok || order.UserID != userID || order.Status != domain.OrderStatusPendingPayment {
		return domain.ErrOrderNotFound
	}

	for _, dec := range decrements {
		product, exists := r.store.products[dec.ProductID]
		if !exists {
			return domain.ErrProductNotFound
		}
		if product.Stock < dec.Qty {
			return domain.NewInsufficientStockError(product.ID, product.Name, dec.Qty, product.Stock)
		}
	}

	for _, dec := range decrements {
		if err := r.store.decrementLocked(dec.ProductID, dec.Qty); err != nil {
			// Недостижимо после предварительной валидации под тем же mutex.
			return err
		}
	}

	order = cloneOrder(order)
	order.Status = domain.OrderStatusPaid
	order.UpdatedAt = time.Now().UTC()
	r.store.orders[orderID] = order
	return nil
}

func sortOrders(orders []domain.Order) {
	sort.Slice(orders, func(i, j int) bool {
		if !orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].CreatedAt.After(orders[j].CreatedAt)
		}
		return orders[i].ID > orders[j].ID
	})
}

var _ domain.OrderRepository = (*orderRepository)(nil)
