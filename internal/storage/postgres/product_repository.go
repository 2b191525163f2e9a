package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

const opTimeout = 5 * time.Second

// ProductRepository хранит каталог и остатки в таблице products.
// Списание остатка выполняется условным UPDATE, поэтому продать
// больше, чем есть на складе, невозможно даже при конкурентных оплатах.
type ProductRepository struct {
	store *Store
}

func NewProductRepository(store *Store) *ProductRepository {
	return &ProductRepository{store: store}
}

var (
	_ domain.ProductRepository = (*ProductRepository)(nil)
	_ domain.InventoryLedger   = (*ProductRepository)(nil)
)

func (r *ProductRepository) Create(product domain.Product) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	now := time.Now().UTC()
	_, err := r.store.db.ExecContext(ctx, `
		INSERT INTO products (id, name, description, price_minor, stock, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
	`, product.ID, product.Name, product.Description, product.PriceMinor, product.Stock, now)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrProductAlreadyExists
		}
		return fmt.Errorf("insert product: %w", err)
	}

	return nil
}

func (r *ProductRepository) Update(product domain.Product) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	result, err := r.store.db.ExecContext(ctx, `
		UPDATE products
		SET name = $2, description = $3, price_minor = $4, stock = $5, updated_at = $6
		WHERE id = $1
	`, product.ID, product.Name, product.Description, product.PriceMinor, product.Stock, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update product rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrProductNotFound
	}

	return nil
}

func (r *ProductRepository) Get(id string) (domain.Product, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var product domain.Product
	err := r.store.db.QueryRowContext(ctx, `
		SELECT id, name, description, price_minor, stock, created_at, updated_at
		FROM products
		WHERE id = $1
	`, id).Scan(
		&product.ID,
		&product.Name,
		&product.Description,
		&product.PriceMinor,
		&product.Stock,
		&product.CreatedAt,
		&product.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Product{}, domain.ErrProductNotFound
	}
	if err != nil {
		return domain.Product{}, fmt.Errorf("query product: %w", err)
	}

	return product, nil
}

func (r *ProductRepository) List() ([]domain.Product, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	rows, err := r.store.db.QueryContext(ctx, `
		SELECT id, name, description, price_minor, stock, created_at, updated_at
		FROM products
		ORDER BY name, id
	`)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		var product domain.Product
		if err := rows.Scan(
			&product.ID,
			&product.Name,
			&product.Description,
			&product.PriceMinor,
			&product.Stock,
			&product.CreatedAt,
			&product.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}

	return products, nil
}

// CheckAvailable отвечает на вопрос «хватает ли остатка сейчас».
// Ответ носит рекомендательный характер: между проверкой и оплатой
// остаток может забрать другой покупатель.
func (r *ProductRepository) CheckAvailable(productID string, qty int32) (bool, error) {
	if qty <= 0 {
		return false, domain.ErrItemQtyInvalid
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var stock int32
	err := r.store.db.QueryRowContext(ctx, `
		SELECT stock FROM products WHERE id = $1
	`, productID).Scan(&stock)
	if errors.Is(err, sql.ErrNoRows) {
		return false, domain.ErrProductNotFound
	}
	if err != nil {
		return false, fmt.Errorf("query product stock: %w", err)
	}

	return stock >= qty, nil
}

// Decrement атомарно списывает остаток условным UPDATE: при нехватке
// товара запрос не затрагивает ни одной строки.
func (r *ProductRepository) Decrement(productID string, qty int32) error {
	if qty <= 0 {
		return domain.ErrItemQtyInvalid
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	return decrementStock(ctx, r.store.db, productID, qty)
}

// execer покрывает *sql.DB и *sql.Tx, чтобы списание остатка работало
// и отдельно, и внутри транзакции оплаты.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func decrementStock(ctx context.Context, db execer, productID string, qty int32) error {
	result, err := db.ExecContext(ctx, `
		UPDATE products
		SET stock = stock - $2, updated_at = $3
		WHERE id = $1 AND stock >= $2
	`, productID, qty, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("decrement stock: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("decrement stock rows affected: %w", err)
	}
	if affected > 0 {
		return nil
	}

	// Строка не изменилась: либо товара нет, либо остатка не хватает.
	var (
		name  string
		stock int32
	)
	err = db.QueryRowContext(ctx, `
		SELECT name, stock FROM products WHERE id = $1
	`, productID).Scan(&name, &stock)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrProductNotFound
	}
	if err != nil {
		return fmt.Errorf("query product after failed decrement: %w", err)
	}

	return domain.NewInsufficientStockError(productID, name, qty, stock)
}
