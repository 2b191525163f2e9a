package payment

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

// Processor проводит оплату заказа. Списание остатков и перевод в paid
// выполняются хранилищем атомарно, поэтому при нехватке товара или
// конкурентной оплате заказ остаётся в pending_payment нетронутым.
type Processor struct {
	orders  domain.OrderRepository
	gateway domain.PaymentGateway
	emitter *lifecycle.Emitter
	logger  *log.Entry
	metrics *metrics.OrderMetrics
}

// NewProcessor создаёт платёжный процессор. emitter и metrics могут быть nil.
func NewProcessor(
	orders domain.OrderRepository,
	gateway domain.PaymentGateway,
	emitter *lifecycle.Emitter,
	logger *log.Entry,
	orderMetrics *metrics.OrderMetrics,
) *Processor {
	if logger == nil {
		logger = log.New().WithField("component", "payment")
	}
	return &Processor{
		orders:  orders,
		gateway: gateway,
		emitter: emitter,
		logger:  logger,
		metrics: orderMetrics,
	}
}

// Pay оплачивает заказ пользователя и возвращает оплаченный заказ со
// ссылкой на платёж. Заказ должен быть в pending_payment: чужие,
// несуществующие и уже оплаченные заказы выглядят одинаково — not found.
func (p *Processor) Pay(ctx context.Context, user domain.User, orderID string) (domain.Order, string, error) {
	start := time.Now()
	defer func() {
		if p.metrics != nil {
			p.metrics.RecordOperationDuration("pay", time.Since(start))
		}
	}()

	if user.ID == "" {
		return domain.Order{}, "", domain.ErrUserRequired
	}

	order, err := p.orders.GetForUserInStatus(orderID, user.ID, domain.OrderStatusPendingPayment)
	if err != nil {
		return domain.Order{}, "", err
	}

	// Авторизация симулированная и без побочных эффектов, поэтому её
	// безопасно выполнять до списания: при отказе списания ссылка
	// просто не используется.
	reference, err := p.gateway.Charge(ctx, order.ID, order.TotalMinor)
	if err != nil {
		p.recordFailure()
		p.logger.WithError(err).WithField("order_id", order.ID).Warn("payment authorization failed")
		return domain.Order{}, "", err
	}

	decrements := make([]domain.StockDecrement, 0, len(order.Items))
	for _, item := range order.Items {
		decrements = append(decrements, domain.StockDecrement{
			ProductID: item.ProductID,
			Qty:       item.Qty,
		})
	}

	if err := p.orders.CompletePayment(order.ID, user.ID, decrements); err != nil {
		p.recordFailure()
		if errors.Is(err, domain.ErrInsufficientStock) {
			if p.metrics != nil {
				p.metrics.RecordStockConflict()
			}
			p.logger.WithError(err).WithField("order_id", order.ID).Warn("payment rejected, insufficient stock")
		}
		return domain.Order{}, "", err
	}

	if p.metrics != nil {
		p.metrics.RecordPaymentSucceeded()
	}
	p.emitter.Emit(order.ID, string(kafka.EventTypePaid), "payment ref "+reference, map[string]interface{}{
		"user_id":     user.ID,
		"total_minor": order.TotalMinor,
		"reference":   reference,
	})

	p.logger.WithFields(log.Fields{
		"order_id":    order.ID,
		"user_id":     user.ID,
		"total_minor": order.TotalMinor,
		"reference":   reference,
	}).Info("order paid")

	paid, err := p.orders.GetForUser(order.ID, user.ID)
	if err != nil {
		return domain.Order{}, "", err
	}

	return paid, reference, nil
}

func (p *Processor) recordFailure() {
	if p.metrics != nil {
		p.metrics.RecordPaymentFailed()
	}
}
