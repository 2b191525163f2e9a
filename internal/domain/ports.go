package domain

import (
	"context"
	"time"
)

// ProductRepository хранит каталог товаров.
type ProductRepository interface {
	Create(product Product) error
	Update(product Product) error
	Get(id string) (Product, error)
	List() ([]Product, error)
}

// InventoryLedger владеет складскими счётчиками товаров.
// CheckAvailable — нерезервирующее чтение для ранней обратной связи.
// Decrement обязан быть атомарным относительно конкурентных декрементов
// того же товара и никогда не уводить остаток ниже нуля.
type InventoryLedger interface {
	CheckAvailable(productID string, qty int32) (bool, error)
	Decrement(productID string, qty int32) error
}

// StockDecrement описывает одно списание остатка при оплате.
type StockDecrement struct {
	ProductID string
	Qty       int32
}

// OrderRepository хранит заказы и их позиции.
// Переходы статусов выполняются условными записями, отфильтрованными по
// (id, владелец, ожидаемый статус): чтение-с-ветвлением здесь запрещено.
type OrderRepository interface {
	// CreateCart создаёт новую открытую корзину; вторая открытая корзина
	// одного пользователя отклоняется с ErrCartAlreadyExists.
	CreateCart(order Order) error
	// ActiveCart возвращает открытую корзину пользователя или ErrOrderNotFound.
	ActiveCart(userID string) (Order, error)
	// UpsertItem сливает позицию в корзину (merge по product_id) и
	// пересчитывает total из сохранённых снапшотов позиций.
	UpsertItem(orderID string, item OrderItem) error
	// GetForUser возвращает заказ, принадлежащий пользователю.
	GetForUser(orderID, userID string) (Order, error)
	// GetForUserInStatus дополнительно фильтрует по ожидаемому статусу;
	// несовпадение статуса неотличимо от отсутствия заказа.
	GetForUserInStatus(orderID, userID string, status OrderStatus) (Order, error)
	ListByUser(userID string) ([]Order, error)
	ListAll() ([]Order, error)
	// Transition переводит заказ from → to условной записью;
	// 0 затронутых строк означает ErrOrderNotFound.
	Transition(orderID, userID string, from, to OrderStatus) error
	// CompletePayment применяет все списания остатков и перевод
	// pending_payment → paid одной атомарной единицей: либо всё, либо ничего.
	CompletePayment(orderID, userID string, decrements []StockDecrement) error
}

// IdentityProvider — внешний коллаборатор аутентификации: по транспортному
// credential выдаёт идентичность пользователя или ErrUnauthorized.
type IdentityProvider interface {
	Authenticate(ctx context.Context, token string) (User, error)
}

// PaymentGateway симулирует платёжного провайдера: подтверждение безусловно,
// возвращается только свежая непрозрачная ссылка на платёж.
type PaymentGateway interface {
	Charge(ctx context.Context, orderID string, amountMinor int64) (reference string, err error)
}

// OutboxPublisher публикует события из transactional outbox.
type OutboxPublisher interface {
	// Publish передаёт событие наружу; должен быть идемпотентным.
	Publish(event OutboxMessage) error
}

// OutboxRepository позволяет сохранять события для последующей публикации.
type OutboxRepository interface {
	Enqueue(msg OutboxMessage) (OutboxMessage, error)
	PullPending(limit int) ([]OutboxMessage, error)
	Stats() (OutboxStats, error)
	MarkSent(id string) error
	MarkFailed(id string) error
}

// TimelineRepository хранит события жизненного цикла заказа.
type TimelineRepository interface {
	Append(event TimelineEvent) error
	List(orderID string) ([]TimelineEvent, error)
}

// IdempotencyRepository хранит состояние обработки запросов по idempotency-key.
type IdempotencyRepository interface {
	CreateProcessing(key, requestHash string, ttlAt time.Time) (IdempotencyRecord, error)
	Get(key string) (IdempotencyRecord, error)
	MarkDone(key string, responseBody []byte, httpStatus int) error
	MarkFailed(key string, responseBody []byte, httpStatus int) error
	DeleteExpired(before time.Time, limit int) (int, error)
}

// OutboxMessage хранит данные для публикуемого события.
type OutboxMessage struct {
	ID            string
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

// OutboxStats описывает текущее состояние backlog transactional outbox.
type OutboxStats struct {
	PendingCount    int
	OldestPendingAt time.Time
}
