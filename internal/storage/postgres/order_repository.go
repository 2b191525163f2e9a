package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// OrderRepository реализует жизненный цикл заказа поверх таблиц orders
// и order_items. Все смены статуса выполняются условными UPDATE с
// фильтром по владельцу и исходному статусу, поэтому повторная оплата
// и чужие заказы отсекаются на уровне базы.
type OrderRepository struct {
	store *Store
}

func NewOrderRepository(store *Store) *OrderRepository {
	return &OrderRepository{store: store}
}

var _ domain.OrderRepository = (*OrderRepository)(nil)

const orderColumns = `id, user_id, status, total_minor, created_at, updated_at`

func (r *OrderRepository) CreateCart(order domain.Order) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	now := time.Now().UTC()
	_, err := r.store.db.ExecContext(ctx, `
		INSERT INTO orders (id, user_id, status, total_minor, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
	`, order.ID, order.UserID, domain.OrderStatusCart, int64(0), now)
	if isUniqueViolation(err) {
		// Частичный уникальный индекс по (user_id) WHERE status = 'cart'.
		return domain.ErrCartAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("insert cart: %w", err)
	}

	return nil
}

func (r *OrderRepository) ActiveCart(userID string) (domain.Order, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	order, err := r.queryOne(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE user_id = $1 AND status = $2
	`, userID, domain.OrderStatusCart)
	if err != nil {
		return domain.Order{}, err
	}

	return order, nil
}

// UpsertItem добавляет позицию в корзину. Повторное добавление того же
// товара сливается в одну строку: количество суммируется, цена остаётся
// зафиксированной на момент первого добавления.
func (r *OrderRepository) UpsertItem(orderID string, item domain.OrderItem) error {
	if item.Qty <= 0 {
		return domain.ErrItemQtyInvalid
	}
	if item.PriceMinor < 0 {
		return domain.ErrItemPriceInvalid
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	tx, err := r.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert item tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var lockedID string
	err = tx.QueryRowContext(ctx, `
		SELECT id FROM orders
		WHERE id = $1 AND status = $2
		FOR UPDATE
	`, orderID, domain.OrderStatusCart).Scan(&lockedID)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrOrderNotFound
	}
	if err != nil {
		return fmt.Errorf("lock cart for item upsert: %w", err)
	}

	itemID := item.ID
	if itemID == "" {
		itemID = uuid.NewString()
	}

	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO order_items (id, order_id, product_id, qty, price_minor, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (order_id, product_id)
		DO UPDATE SET qty = order_items.qty + EXCLUDED.qty
	`, itemID, orderID, item.ProductID, item.Qty, item.PriceMinor, now); err != nil {
		return fmt.Errorf("upsert order item: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE orders
		SET total_minor = (
			SELECT COALESCE(SUM(qty * price_minor), 0)
			FROM order_items
			WHERE order_id = $1
		), updated_at = $2
		WHERE id = $1
	`, orderID, now); err != nil {
		return fmt.Errorf("recalculate cart total: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert item tx: %w", err)
	}

	return nil
}

func (r *OrderRepository) GetForUser(orderID, userID string) (domain.Order, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	return r.queryOne(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE id = $1 AND user_id = $2
	`, orderID, userID)
}

func (r *OrderRepository) GetForUserInStatus(orderID, userID string, status domain.OrderStatus) (domain.Order, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	return r.queryOne(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE id = $1 AND user_id = $2 AND status = $3
	`, orderID, userID, status)
}

func (r *OrderRepository) ListByUser(userID string) ([]domain.Order, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	return r.queryMany(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
	`, userID)
}

func (r *OrderRepository) ListAll() ([]domain.Order, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	return r.queryMany(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		ORDER BY created_at DESC, id DESC
	`)
}

// Transition переводит заказ из статуса from в to. Условный UPDATE не
// затрагивает строк, если заказ чужой, не существует или уже ушёл из
// исходного статуса, поэтому конкурентные переводы безопасны.
func (r *OrderRepository) Transition(orderID, userID string, from, to domain.OrderStatus) error {
	if !from.CanTransitionTo(to) {
		return domain.ErrStatusInvalid
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	result, err := r.store.db.ExecContext(ctx, `
		UPDATE orders
		SET status = $4, updated_at = $5
		WHERE id = $1 AND user_id = $2 AND status = $3
	`, orderID, userID, from, to, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("transition order: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("transition order rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrOrderNotFound
	}

	return nil
}

// CompletePayment списывает остатки и переводит заказ в paid в одной
// транзакции: либо списываются все позиции и заказ оплачен, либо база
// остаётся нетронутой.
func (r *OrderRepository) CompletePayment(orderID, userID string, decrements []domain.StockDecrement) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	tx, err := r.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin payment tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(ctx, `
		UPDATE orders
		SET status = $4, updated_at = $5
		WHERE id = $1 AND user_id = $2 AND status = $3
	`, orderID, userID, domain.OrderStatusPendingPayment, domain.OrderStatusPaid, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("mark order paid: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark order paid rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrOrderNotFound
	}

	for _, dec := range decrements {
		if err := decrementStock(ctx, tx, dec.ProductID, dec.Qty); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit payment tx: %w", err)
	}

	return nil
}

func (r *OrderRepository) queryOne(ctx context.Context, query string, args ...any) (domain.Order, error) {
	var order domain.Order
	err := r.store.db.QueryRowContext(ctx, query, args...).Scan(
		&order.ID,
		&order.UserID,
		&order.Status,
		&order.TotalMinor,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	if err != nil {
		return domain.Order{}, fmt.Errorf("query order: %w", err)
	}

	items, err := r.loadItems(ctx, order.ID)
	if err != nil {
		return domain.Order{}, err
	}
	order.Items = items

	return order, nil
}

func (r *OrderRepository) queryMany(ctx context.Context, query string, args ...any) ([]domain.Order, error) {
	rows, err := r.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		var order domain.Order
		if err := rows.Scan(
			&order.ID,
			&order.UserID,
			&order.Status,
			&order.TotalMinor,
			&order.CreatedAt,
			&order.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}

	for i := range orders {
		items, err := r.loadItems(ctx, orders[i].ID)
		if err != nil {
			return nil, err
		}
		orders[i].Items = items
	}

	return orders, nil
}

func (r *OrderRepository) loadItems(ctx context.Context, orderID string) ([]domain.OrderItem, error) {
	rows, err := r.store.db.QueryContext(ctx, `
		SELECT id, product_id, qty, price_minor, created_at
		FROM order_items
		WHERE order_id = $1
		ORDER BY created_at, id
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("query order items: %w", err)
	}
	defer rows.Close()

	var items []domain.OrderItem
	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(
			&item.ID,
			&item.ProductID,
			&item.Qty,
			&item.PriceMinor,
			&item.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order items: %w", err)
	}

	return items, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
