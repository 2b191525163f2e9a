package domain

// User — непрозрачная идентичность вызывающего, выдаваемая внешним
// identity-провайдером. Движок заказов не управляет пользователями,
// ему нужны только id, email и признак администратора.
type User struct {
	ID    string
	Email string
	Admin bool
}
