package memory

import (
	"sort"
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// productRepository — in-memory реализация каталога и складского леджера.
type productRepository struct {
	store *Store
}

// NewProductRepository возвращает in-memory репозиторий товаров.
func NewProductRepository(store *Store) domain.ProductRepository {
	return &productRepository{store: store}
}

// NewInventoryLedger возвращает in-memory леджер остатков поверх того же Store.
func NewInventoryLedger(store *Store) domain.InventoryLedger {
	return &productRepository{store: store}
}

// Create сохраняет новый товар, если ID ещё не занят.
func (r *productRepository) Create(product domain.Product) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, exists := r.store.products[product.ID]; exists {
		return domain.ErrProductAlreadyExists
	}
	r.store.products[product.ID] = product
	return nil
}

// Update перезаписывает товар или возвращает ErrProductNotFound.
func (r *productRepository) Update(product domain.Product) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, exists := r.store.products[product.ID]; !exists {
		return domain.ErrProductNotFound
	}
	r.store.products[product.ID] = product
	return nil
}

// Get возвращает товар или ErrProductNotFound.
func (r *productRepository) Get(id string) (domain.Product, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	product, ok := r.store.products[id]
	if !ok {
		return domain.Product{}, domain.ErrProductNotFound
	}
	return product, nil
}

// List возвращает каталог, отсортированный по имени и ID.
func (r *productRepository) List() ([]domain.Product, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	result := make([]domain.Product, 0, len(r.store.products))
	for _, product := range r.store.products {
		result = append(result, product)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Name != result[j].Name {
			return result[i].Name < result[j].Name
		}
		return result[i].ID < result[j].ID
	})

	return result, nil
}

// CheckAvailable — нерезервирующая проверка остатка.
func (r *productRepository) CheckAvailable(productID string, qty int32) (bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	product, ok := r.store.products[productID]
	if !ok {
		return false, domain.ErrProductNotFound
	}
	return product.Stock >= qty, nil
}

// Decrement атомарно списывает остаток; при нехватке ничего не меняет.
func (r *productRepository) Decrement(productID string, qty int32) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	return r.store.decrementLocked(productID, qty)
}

// decrementLocked — условный декремент под уже взятым mutex.
// Используется и напрямую леджером, и фиксацией оплаты в orderRepository.
func (s *Store) decrementLocked(productID string, qty int32) error {
	product, ok := s.products[productID]
	if !ok {
		return domain.ErrProductNotFound
	}
	if product.Stock < qty {
		return domain.NewInsufficientStockError(product.ID, product.Name, qty, product.Stock)
	}

	product.Stock -= qty
	product.UpdatedAt = time.Now().UTC()
	s.products[productID] = product
	return nil
}

var _ domain.ProductRepository = (*productRepository)(nil)
var _ domain.InventoryLedger = (*productRepository)(nil)
