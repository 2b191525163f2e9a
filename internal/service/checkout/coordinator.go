package checkout

import (
	"context"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/storefront/internal/metrics"
	"github.com/vladislavdragonenkov/storefront/internal/service/lifecycle"
)

// Coordinator замораживает корзину для оплаты: пустые корзины и заведомо
// невыполнимые заказы отклоняются, состав и цены после перевода в
// pending_payment больше не меняются.
type Coordinator struct {
	orders    domain.OrderRepository
	inventory domain.InventoryLedger
	products  domain.ProductRepository
	emitter   *lifecycle.Emitter
	logger    *log.Entry
	metrics   *metrics.OrderMetrics
}

// NewCoordinator создаёт координатор оформления. emitter и metrics могут быть nil.
func NewCoordinator(
	orders domain.OrderRepository,
	inventory domain.InventoryLedger,
	products domain.ProductRepository,
	emitter *lifecycle.Emitter,
	logger *log.Entry,
	orderMetrics *metrics.OrderMetrics,
) *Coordinator {
	if logger == nil {
		logger = log.New().WithField("component", "checkout")
	}
	return &Coordinator{
		orders:    orders,
		inventory: inventory,
		products:  products,
		emitter:   emitter,
		logger:    logger,
		metrics:   orderMetrics,
	}
}

// Checkout переводит корзину пользователя в pending_payment.
// Проверка остатков рекомендательная: окончательное списание делает
// оплата, и между checkout и оплатой остаток может измениться.
func (c *Coordinator) Checkout(ctx context.Context, user domain.User) (domain.Order, error) {
	start := time.Now()
	defer func() {
		if c.metrics != nil {
			c.metrics.RecordOperationDuration("checkout", time.Since(start))
		}
	}()

	if user.ID == "" {
		return domain.Order{}, domain.ErrUserRequired
	}

	order, err := c.orders.ActiveCart(user.ID)
	if err != nil {
		// Отсутствующая корзина и пустая корзина для клиента одно и то же.
		if errors.Is(err, domain.ErrOrderNotFound) {
			return domain.Order{}, domain.ErrEmptyCart
		}
		return domain.Order{}, err
	}
	if len(order.Items) == 0 {
		return domain.Order{}, domain.ErrEmptyCart
	}

	for _, item := range order.Items {
		available, err := c.inventory.CheckAvailable(item.ProductID, item.Qty)
		if err != nil {
			return domain.Order{}, err
		}
		if !available {
			if c.metrics != nil {
				c.metrics.RecordStockConflict()
			}
			return domain.Order{}, c.shortageError(item)
		}
	}

	if err := c.orders.Transition(order.ID, user.ID, domain.OrderStatusCart, domain.OrderStatusPendingPayment); err != nil {
		return domain.Order{}, err
	}

	if c.metrics != nil {
		c.metrics.RecordCheckout()
		c.metrics.CartClosed()
	}
	c.emitter.Emit(order.ID, string(kafka.EventTypeCheckedOut), "", map[string]interface{}{
		"user_id":     user.ID,
		"total_minor": order.TotalMinor,
		"items_count": len(order.Items),
	})

	c.logger.WithFields(log.Fields{
		"order_id":    order.ID,
		"user_id":     user.ID,
		"total_minor": order.TotalMinor,
	}).Info("cart checked out")

	return c.orders.GetForUser(order.ID, user.ID)
}

// shortageError собирает детальную ошибку нехватки по позиции корзины.
func (c *Coordinator) shortageError(item domain.OrderItem) error {
	product, err := c.products.Get(item.ProductID)
	if err != nil {
		return domain.NewInsufficientStockError(item.ProductID, "", item.Qty, 0)
	}
	return domain.NewInsufficientStockError(product.ID, product.Name, item.Qty, product.Stock)
}
