package lifecycle

import (
	"encoding/json"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/metrics"
)

// Emitter записывает события жизненного цикла заказа в outbox и timeline.
// Ошибки записи логируются и не прерывают доменную операцию: заказ уже
// изменён, событие доедет при следующем удобном случае или потеряется
// только из наблюдаемости, не из состояния.
type Emitter struct {
	outbox   domain.OutboxRepository
	timeline domain.TimelineRepository
	logger   *log.Entry
	metrics  *metrics.OrderMetrics
}

// NewEmitter создаёт emitter. metrics может быть nil (для тестов).
func NewEmitter(
	outbox domain.OutboxRepository,
	timeline domain.TimelineRepository,
	logger *log.Entry,
	orderMetrics *metrics.OrderMetrics,
) *Emitter {
	if logger == nil {
		logger = log.New().WithField("component", "lifecycle-emitter")
	}
	return &Emitter{
		outbox:   outbox,
		timeline: timeline,
		logger:   logger,
		metrics:  orderMetrics,
	}
}

// Emit ставит событие в outbox и дописывает его в timeline заказа.
func (e *Emitter) Emit(orderID, eventType, reason string, payload map[string]interface{}) {
	if e == nil {
		return
	}

	now := time.Now().UTC()
	if payload == nil {
		payload = make(map[string]interface{})
	}
	payload["order_id"] = orderID
	payload["ts"] = now.Format(time.RFC3339Nano)
	if reason != "" {
		payload["reason"] = reason
	}

	data, err := json.Marshal(payload)
	if err != nil {
		e.logger.WithError(err).WithFields(log.Fields{
			"order_id": orderID,
			"event":    eventType,
		}).Error("marshal event failed")
		return
	}

	if e.outbox != nil {
		msg := domain.OutboxMessage{
			AggregateType: "order",
			AggregateID:   orderID,
			EventType:     eventType,
			Payload:       data,
		}
		if _, err := e.outbox.Enqueue(msg); err != nil {
			e.logger.WithError(err).WithFields(log.Fields{
				"order_id": orderID,
				"event":    eventType,
			}).Error("enqueue event failed")
		} else if e.metrics != nil {
			e.metrics.RecordOutboxEvent()
		}
	}

	if e.timeline != nil {
		event := domain.TimelineEvent{
			OrderID:  orderID,
			Type:     eventType,
			Reason:   reason,
			Occurred: now,
		}
		if err := e.timeline.Append(event); err != nil {
			e.logger.WithError(err).WithFields(log.Fields{
				"order_id": orderID,
				"event":    eventType,
			}).Warn("append timeline event failed")
		} else if e.metrics != nil {
			e.metrics.RecordTimelineEvent()
		}
	}
}
