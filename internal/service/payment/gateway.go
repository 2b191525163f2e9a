package payment

import (
	"context"
	"sync"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// SimulatedGateway имитирует платёжный провайдер: авторизация всегда
// успешна и возвращает уникальную ссылку на платёж. Списание остатков
// при этом настоящее, его делает хранилище заказов.
type SimulatedGateway struct {
	logger *log.Entry
}

// NewSimulatedGateway создаёт симулятор платёжного шлюза.
func NewSimulatedGateway(logger *log.Entry) *SimulatedGateway {
	if logger == nil {
		logger = log.New().WithField("component", "payment-gateway")
	}
	return &SimulatedGateway{logger: logger}
}

// Charge авторизует платёж и возвращает ссылку вида pay-<uuid>.
func (g *SimulatedGateway) Charge(ctx context.Context, orderID string, amountMinor int64) (string, error) {
	reference := "pay-" + uuid.NewString()
	g.logger.WithFields(log.Fields{
		"order_id":     orderID,
		"amount_minor": amountMinor,
		"reference":    reference,
	}).Debug("payment authorized")
	return reference, nil
}

var _ domain.PaymentGateway = (*SimulatedGateway)(nil)

// MockGateway — конфигурируемая заглушка PaymentGateway для тестов.
// Счётчик вызовов защищён mutex: платежи в тестах бывают конкурентными.
type MockGateway struct {
	Reference string
	ChargeErr error

	mu          sync.Mutex
	ChargeCalls int
}

// NewMockGateway возвращает mock с успешным сценарием по умолчанию.
func NewMockGateway() *MockGateway {
	return &MockGateway{Reference: "pay-mock"}
}

// Charge возвращает заранее настроенный результат и считает вызовы.
func (m *MockGateway) Charge(ctx context.Context, orderID string, amountMinor int64) (string, error) {
	m.mu.Lock()
	m.ChargeCalls++
	m.mu.Unlock()
	if m.ChargeErr != nil {
		return "", m.ChargeErr
	}
	return m.Reference, nil
}

var _ domain.PaymentGateway = (*MockGateway)(nil)
