package orders

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// Queries отвечает на запросы чтения заказов. Пользователь видит только
// свои заказы, полный список доступен администратору.
type Queries struct {
	orders   domain.OrderRepository
	timeline domain.TimelineRepository
	logger   *log.Entry
}

// NewQueries создаёт сервис чтения заказов.
func NewQueries(orders domain.OrderRepository, timeline domain.TimelineRepository, logger *log.Entry) *Queries {
	if logger == nil {
		logger = log.New().WithField("component", "orders")
	}
	return &Queries{
		orders:   orders,
		timeline: timeline,
		logger:   logger,
	}
}

// ListMine возвращает заказы пользователя, новые первыми.
func (q *Queries) ListMine(ctx context.Context, user domain.User) ([]domain.Order, error) {
	if user.ID == "" {
		return nil, domain.ErrUserRequired
	}
	return q.orders.ListByUser(user.ID)
}

// Get возвращает заказ пользователя. Чужой заказ неотличим от
// несуществующего.
func (q *Queries) Get(ctx context.Context, user domain.User, orderID string) (domain.Order, error) {
	if user.ID == "" {
		return domain.Order{}, domain.ErrUserRequired
	}
	return q.orders.GetForUser(orderID, user.ID)
}

// Timeline возвращает историю событий заказа пользователя.
func (q *Queries) Timeline(ctx context.Context, user domain.User, orderID string) ([]domain.TimelineEvent, error) {
	if user.ID == "" {
		return nil, domain.ErrUserRequired
	}
	// Проверка владения тем же единообразным not found.
	if _, err := q.orders.GetForUser(orderID, user.ID); err != nil {
		return nil, err
	}
	return q.timeline.List(orderID)
}

// ListAll возвращает заказы всех пользователей. Только для администратора.
func (q *Queries) ListAll(ctx context.Context, user domain.User) ([]domain.Order, error) {
	if user.ID == "" {
		return nil, domain.ErrUserRequired
	}
	if !user.Admin {
		return nil, domain.ErrForbidden
	}
	return q.orders.ListAll()
}
