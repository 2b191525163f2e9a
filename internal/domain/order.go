package domain

import "time"

// OrderStatus описывает жизненный цикл заказа в витрине.
type OrderStatus string

const (
	// OrderStatusCart — заказ существует как открытая корзина пользователя.
	OrderStatusCart OrderStatus = "cart"
	// OrderStatusPendingPayment — checkout выполнен, состав зафиксирован, ждём оплату.
	OrderStatusPendingPayment OrderStatus = "pending_payment"
	// OrderStatusPaid — оплата подтверждена, сток списан. Терминальный статус.
	OrderStatusPaid OrderStatus = "paid"
	// OrderStatusCancelled — зарезервированный терминальный статус; текущий flow его не назначает.
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Valid проверяет, что статус относится к поддерживаемым значениям.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusCart, OrderStatusPendingPayment, OrderStatusPaid, OrderStatusCancelled:
		return true
	default:
		return false
	}
}

// Terminal сообщает, допускает ли статус дальнейшие переходы.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusPaid || s == OrderStatusCancelled
}

// CanTransitionTo проверяет легальность ребра статусной машины.
// Допустимые переходы: cart → pending_payment, pending_payment → paid,
// pending_payment → cancelled. Других рёбер нет.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	switch s {
	case OrderStatusCart:
		return next == OrderStatusPendingPayment
	case OrderStatusPendingPayment:
		return next == OrderStatusPaid || next == OrderStatusCancelled
	default:
		return false
	}
}

// OrderItem представляет одну позицию заказа.
// Пара (order, product) уникальна: повторные добавления сливаются в одну строку.
type OrderItem struct {
	ID        string
	ProductID string
	// Qty — количество единиц товара, всегда > 0.
	Qty int32
	// PriceMinor — цена за единицу в минимальных денежных единицах,
	// зафиксированная в момент первого добавления в корзину. Последующие
	// изменения каталожной цены на неё не влияют.
	PriceMinor int64
	CreatedAt  time.Time
}

// Order агрегирует корзину/заказ пользователя и его позиции.
type Order struct {
	ID     string
	UserID string
	Status OrderStatus
	// TotalMinor поддерживается равным сумме qty × price_minor по позициям.
	TotalMinor int64
	Items      []OrderItem
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ItemsTotalMinor пересчитывает сумму заказа из сохранённых снапшотов позиций.
func (o *Order) ItemsTotalMinor() int64 {
	var total int64
	for _, item := range o.Items {
		total += int64(item.Qty) * item.PriceMinor
	}
	return total
}

// ValidateInvariants проверяет базовые инварианты заказа и возвращает список замечаний.
func (o *Order) ValidateInvariants() []error {
	var errs []error

	if o.UserID == "" {
		errs = append(errs, ErrUserRequired)
	}
	if !o.Status.Valid() {
		errs = append(errs, ErrStatusInvalid)
	}
	if o.TotalMinor < 0 {
		errs = append(errs, ErrTotalNegative)
	}

	seen := make(map[string]struct{}, len(o.Items))
	for _, item := range o.Items {
		if item.Qty <= 0 {
			errs = append(errs, ErrItemQtyInvalid)
		}
		if item.PriceMinor < 0 {
			errs = append(errs, ErrItemPriceInvalid)
		}
		if _, dup := seen[item.ProductID]; dup {
			errs = append(errs, ErrItemDuplicated)
		}
		seen[item.ProductID] = struct{}{}
	}
	if o.ItemsTotalMinor() != o.TotalMinor {
		errs = append(errs, ErrTotalMismatch)
	}

	return errs
}

// TimelineEvent фиксирует одно событие жизненного цикла заказа.
type TimelineEvent struct {
	OrderID  string
	Type     string
	Reason   string
	Occurred time.Time
}
