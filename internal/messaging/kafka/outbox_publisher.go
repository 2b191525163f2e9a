package kafka

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/IBM/sarama"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// OutboxTopicPublisher превращает outbox-записи в OrderEvent и публикует
// их в topic. Ключ партиционирования — id заказа, чтобы события одного
// заказа читались в порядке записи.
type OutboxTopicPublisher struct {
	producer *Producer
	topic    string
}

// NewOutboxPublisher создаёт publisher для transactional outbox.
func NewOutboxPublisher(producer *Producer, topic string) domain.OutboxPublisher {
	if topic == "" {
		topic = TopicOrderEvents
	}
	return &OutboxTopicPublisher{
		producer: producer,
		topic:    topic,
	}
}

// Publish собирает OrderEvent из outbox-записи и отправляет его.
func (p *OutboxTopicPublisher) Publish(event domain.OutboxMessage) error {
	if p == nil || p.producer == nil {
		return fmt.Errorf("kafka outbox publisher is not initialized")
	}

	key := event.AggregateID
	if key == "" {
		key = event.ID
	}

	metadata := map[string]interface{}{}
	if len(event.Payload) > 0 {
		if err := json.Unmarshal(event.Payload, &metadata); err != nil {
			// Нечитаемый payload всё равно уезжает — сырой строкой.
			metadata = map[string]interface{}{"raw_payload": string(event.Payload)}
		}
	}

	userID, _ := metadata["user_id"].(string)
	orderEvent := NewOrderEvent(
		EventType(event.EventType),
		event.AggregateID,
		userID,
		statusForEventType(EventType(event.EventType)),
		metadata,
	)

	return p.producer.PublishEvent(p.topic, key, orderEvent)
}

// statusForEventType выводит статус заказа из типа события.
func statusForEventType(eventType EventType) string {
	switch eventType {
	case EventTypeCartCreated, EventTypeItemAdded:
		return string(domain.OrderStatusCart)
	case EventTypeCheckedOut:
		return string(domain.OrderStatusPendingPayment)
	case EventTypePaid:
		return string(domain.OrderStatusPaid)
	case EventTypeCancelled:
		return string(domain.OrderStatusCancelled)
	default:
		return ""
	}
}

var _ domain.OutboxPublisher = (*OutboxTopicPublisher)(nil)

// DeadLetterPublisher публикует недоставленные outbox-сообщения в DLQ.
// Исходный payload не переупаковывается: контекст отказа уходит в
// заголовки, чтобы reprocessing-инструменты читали value как обычное
// событие.
type DeadLetterPublisher struct {
	producer    *Producer
	topic       string
	sourceTopic string
}

// NewDeadLetterPublisher создаёт DLQ-publisher. sourceTopic — topic, в
// который сообщение доставить не удалось.
func NewDeadLetterPublisher(producer *Producer, topic, sourceTopic string) *DeadLetterPublisher {
	if topic == "" {
		topic = TopicDeadLetterQueue
	}
	if sourceTopic == "" {
		sourceTopic = TopicOrderEvents
	}
	return &DeadLetterPublisher{
		producer:    producer,
		topic:       topic,
		sourceTopic: sourceTopic,
	}
}

// PublishFailed отправляет сообщение в DLQ с заголовками о причине отказа.
func (p *DeadLetterPublisher) PublishFailed(event domain.OutboxMessage, cause error, attempts int) error {
	if p == nil || p.producer == nil {
		return fmt.Errorf("kafka dlq publisher is not initialized")
	}

	key := event.AggregateID
	if key == "" {
		key = event.ID
	}

	errorMessage := ""
	if cause != nil {
		errorMessage = cause.Error()
	}
	headers := []sarama.RecordHeader{
		{Key: []byte(HeaderRetryCount), Value: []byte(strconv.Itoa(attempts))},
		{Key: []byte(HeaderOriginalTopic), Value: []byte(p.sourceTopic)},
		{Key: []byte(HeaderErrorMessage), Value: []byte(errorMessage)},
		{Key: []byte(HeaderFailedAt), Value: []byte(time.Now().UTC().Format(time.RFC3339Nano))},
	}

	return p.producer.publishMessage(p.topic, key, event.Payload, headers)
}
