package domain

import (
	"errors"
	"fmt"
)

var (
	// Ошибка отсутствующего идентификатора пользователя.
	ErrUserRequired = errors.New("user_id is required")
	// Ошибка неподдерживаемого статуса заказа.
	ErrStatusInvalid = errors.New("order status is invalid")
	// Ошибка отрицательной суммы заказа.
	ErrTotalNegative = errors.New("total_minor must be non-negative")
	// Ошибка несоответствия суммы заказа и сумм позиций.
	ErrTotalMismatch = errors.New("order total does not match items sum")
	// Ошибка при некорректном количестве товара (<= 0).
	ErrItemQtyInvalid = errors.New("item qty must be greater than zero")
	// Ошибка, если цена позиции отрицательная.
	ErrItemPriceInvalid = errors.New("item price must be non-negative")
	// Ошибка дублирующейся позиции: уникальность (order, product) нарушена.
	ErrItemDuplicated = errors.New("order already contains item for product")

	// Ошибка отсутствующего имени товара.
	ErrProductNameRequired = errors.New("product name is required")
	// Ошибка отрицательной цены товара.
	ErrProductPriceNegative = errors.New("product price must be non-negative")
	// Ошибка отрицательного остатка товара.
	ErrProductStockNegative = errors.New("product stock must be non-negative")

	// ErrProductNotFound возвращается, если товар не найден в каталоге.
	ErrProductNotFound = errors.New("product not found")
	// ErrProductAlreadyExists возвращается при создании товара с занятым ID.
	ErrProductAlreadyExists = errors.New("product already exists")
	// ErrOrderNotFound возвращается, если заказ не найден либо не принадлежит
	// вызывающему, либо не находится в ожидаемом статусе. Единая ошибка не
	// раскрывает существование чужих заказов.
	ErrOrderNotFound = errors.New("order not found")
	// ErrEmptyCart возвращается при checkout без активной корзины или с пустой корзиной.
	ErrEmptyCart = errors.New("cart is empty or not found")
	// ErrInsufficientStock — sentinel нехватки остатка; детали несёт InsufficientStockError.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrCartAlreadyExists сигнализирует о гонке создания второй открытой корзины.
	ErrCartAlreadyExists = errors.New("active cart already exists")

	// ErrUnauthorized — вызывающий не прошёл аутентификацию у identity-провайдера.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden — операция требует администраторской способности.
	ErrForbidden = errors.New("forbidden")

	// ErrOutboxPublish — ошибка при публикации сообщения из outbox.
	ErrOutboxPublish = errors.New("outbox publish failed")

	// Ошибки идемпотентности запросов.
	ErrIdempotencyKeyRequired         = errors.New("idempotency key is required")
	ErrIdempotencyRequestHashRequired = errors.New("idempotency request hash is required")
	ErrIdempotencyKeyNotFound         = errors.New("idempotency key not found")
	ErrIdempotencyKeyAlreadyExists    = errors.New("idempotency key already exists")
	ErrIdempotencyHashMismatch        = errors.New("idempotency key reused with different request")
)

// InsufficientStockError уточняет, какого товара не хватило и сколько было доступно.
type InsufficientStockError struct {
	ProductID   string
	ProductName string
	Requested   int32
	Available   int32
}

// Error реализует error.
func (e *InsufficientStockError) Error() string {
	name := e.ProductName
	if name == "" {
		name = e.ProductID
	}
	return fmt.Sprintf("insufficient stock for product %s: requested %d, available %d",
		name, e.Requested, e.Available)
}

// Unwrap позволяет ловить ошибку через errors.Is(err, ErrInsufficientStock).
func (e *InsufficientStockError) Unwrap() error {
	return ErrInsufficientStock
}

// NewInsufficientStockError конструирует типизированную ошибку нехватки остатка.
func NewInsufficientStockError(productID, productName string, requested, available int32) error {
	return &InsufficientStockError{
		ProductID:   productID,
		ProductName: productName,
		Requested:   requested,
		Available:   available,
	}
}

// IsInsufficientStock проверяет, является ли ошибка нехваткой остатка.
func IsInsufficientStock(err error) bool {
	return errors.Is(err, ErrInsufficientStock)
}
