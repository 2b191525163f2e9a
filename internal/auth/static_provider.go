package auth

import (
	"context"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// StaticProvider проверяет bearer-токены по статической таблице.
// Это заглушка внешнего identity-сервиса: интерфейс тот же, но токены
// задаются конфигурацией, а не выпускаются провайдером.
type StaticProvider struct {
	users  map[string]domain.User
	logger *log.Entry
}

// NewStaticProvider создаёт провайдер с заданной таблицей токенов.
func NewStaticProvider(users map[string]domain.User, logger *log.Entry) *StaticProvider {
	if logger == nil {
		logger = log.New().WithField("component", "auth")
	}
	if users == nil {
		users = make(map[string]domain.User)
	}
	return &StaticProvider{
		users:  users,
		logger: logger,
	}
}

// ParseTokenTable разбирает строку вида
// "token:user_id:email[:admin],token2:..." в таблицу токенов.
func ParseTokenTable(raw string) map[string]domain.User {
	users := make(map[string]domain.User)
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.Split(entry, ":")
		if len(parts) < 3 {
			continue
		}
		user := domain.User{
			ID:    strings.TrimSpace(parts[1]),
			Email: strings.TrimSpace(parts[2]),
		}
		if user.ID == "" {
			continue
		}
		if len(parts) > 3 && strings.TrimSpace(parts[3]) == "admin" {
			user.Admin = true
		}
		users[strings.TrimSpace(parts[0])] = user
	}
	return users
}

// Authenticate возвращает пользователя по токену или ErrUnauthorized.
func (p *StaticProvider) Authenticate(ctx context.Context, token string) (domain.User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.User{}, domain.ErrUnauthorized
	}

	user, ok := p.users[token]
	if !ok {
		p.logger.Debug("unknown auth token")
		return domain.User{}, domain.ErrUnauthorized
	}

	return user, nil
}

var _ domain.IdentityProvider = (*StaticProvider)(nil)
