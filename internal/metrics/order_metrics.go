package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// OrderMetrics содержит метрики жизненного цикла заказа.
type OrderMetrics struct {
	// Счётчики операций
	itemsAdded        prometheus.Counter
	checkouts         prometheus.Counter
	paymentsSucceeded prometheus.Counter
	paymentsFailed    prometheus.Counter
	stockConflicts    prometheus.Counter

	// Гистограмма времени выполнения по операциям
	operationDuration *prometheus.HistogramVec

	// Счётчики событий
	timelineEvents prometheus.Counter
	outboxEvents   prometheus.Counter

	// Gauge открытых корзин
	activeCarts prometheus.Gauge
}

// NewOrderMetrics создаёт метрики на DefaultRegisterer. Повторная
// регистрация переиспользует уже зарегистрированные коллекторы.
func NewOrderMetrics() *OrderMetrics {
	return newOrderMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

func newOrderMetricsWithRegisterer(registerer prometheus.Registerer) *OrderMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &OrderMetrics{
		itemsAdded: registerCounter(registerer, prometheus.CounterOpts{
			Name: "shop_cart_items_added_total",
			Help: "Total number of cart lines added or merged",
		}),
		checkouts: registerCounter(registerer, prometheus.CounterOpts{
			Name: "shop_checkouts_total",
			Help: "Total number of carts frozen for payment",
		}),
		paymentsSucceeded: registerCounter(registerer, prometheus.CounterOpts{
			Name: "shop_payments_succeeded_total",
			Help: "Total number of successfully paid orders",
		}),
		paymentsFailed: registerCounter(registerer, prometheus.CounterOpts{
			Name: "shop_payments_failed_total",
			Help: "Total number of payment attempts that failed",
		}),
		stockConflicts: registerCounter(registerer, prometheus.CounterOpts{
			Name: "shop_stock_conflicts_total",
			Help: "Total number of operations rejected due to insufficient stock",
		}),
		operationDuration: registerHistogramVec(registerer, prometheus.HistogramOpts{
			Name:    "shop_order_operation_duration_seconds",
			Help:    "Duration of order lifecycle operations in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}, []string{"operation"}),
		timelineEvents: registerCounter(registerer, prometheus.CounterOpts{
			Name: "shop_timeline_events_total",
			Help: "Total number of timeline events recorded",
		}),
		outboxEvents: registerCounter(registerer, prometheus.CounterOpts{
			Name: "shop_outbox_events_total",
			Help: "Total number of outbox events enqueued",
		}),
		activeCarts: registerGauge(registerer, prometheus.GaugeOpts{
			Name: "shop_active_carts",
			Help: "Number of currently open carts",
		}),
	}
}

func registerCounter(registerer prometheus.Registerer, opts prometheus.CounterOpts) prometheus.Counter {
	collector := prometheus.NewCounter(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Counter)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter %q: %v", opts.Name, err))
	}
	return collector
}

func registerGauge(registerer prometheus.Registerer, opts prometheus.GaugeOpts) prometheus.Gauge {
	collector := prometheus.NewGauge(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Gauge)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register gauge %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogramVec(registerer prometheus.Registerer, opts prometheus.HistogramOpts, labels []string) *prometheus.HistogramVec {
	collector := prometheus.NewHistogramVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.HistogramVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram vec %q: %v", opts.Name, err))
	}
	return collector
}

// RecordItemAdded увеличивает счётчик добавленных позиций.
func (m *OrderMetrics) RecordItemAdded() {
	m.itemsAdded.Inc()
}

// RecordCheckout увеличивает счётчик оформленных заказов.
func (m *OrderMetrics) RecordCheckout() {
	m.checkouts.Inc()
}

// RecordPaymentSucceeded увеличивает счётчик успешных оплат.
func (m *OrderMetrics) RecordPaymentSucceeded() {
	m.paymentsSucceeded.Inc()
}

// RecordPaymentFailed увеличивает счётчик неуспешных оплат.
func (m *OrderMetrics) RecordPaymentFailed() {
	m.paymentsFailed.Inc()
}

// RecordStockConflict увеличивает счётчик отказов из-за нехватки остатка.
func (m *OrderMetrics) RecordStockConflict() {
	m.stockConflicts.Inc()
}

// RecordOperationDuration записывает длительность операции жизненного цикла.
func (m *OrderMetrics) RecordOperationDuration(operation string, duration time.Duration) {
	m.operationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordTimelineEvent увеличивает счётчик событий timeline.
func (m *OrderMetrics) RecordTimelineEvent() {
	m.timelineEvents.Inc()
}

// RecordOutboxEvent увеличивает счётчик поставленных в outbox событий.
func (m *OrderMetrics) RecordOutboxEvent() {
	m.outboxEvents.Inc()
}

// CartOpened увеличивает gauge открытых корзин.
func (m *OrderMetrics) CartOpened() {
	m.activeCarts.Inc()
}

// CartClosed уменьшает gauge открытых корзин.
func (m *OrderMetrics) CartClosed() {
	m.activeCarts.Dec()
}
