// Package models содержит доменные структуры библиотеки: пользователей
// с их правами доступа, тарифные планы, заявки на подписку и книги каталога.
package models

import "time"

// Статусы подписки пользователя.
const (
	StatusNone    = "none"
	StatusActive  = "active"
	StatusExpired = "expired"
)

// User представляет зарегистрированного пользователя системы
// вместе с состоянием его подписки и текущего окна использования.
type User struct {
	UUID               string     // Уникальный идентификатор пользователя
	Email              string     // Электронная почта
	Username           string     // Имя пользователя (уникальное)
	PasswordHash       string     // Хэш пароля пользователя
	Role               string     // Роль пользователя, admin или user
	SubscriptionPlan   string     // Тарифный план: none, basic или premium
	SubscriptionStatus string     // Статус подписки: none, active или expired
	SubscriptionStart  *time.Time // Дата начала текущей подписки
	SubscriptionEnd    *time.Time // Дата окончания подписки; nil или прошлое — доступа нет
	PeriodStartedAt    *time.Time // Якорь текущего 30-дневного окна использования
	ReadInPeriod       []string   // Книги, прочитанные в текущем окне
	DownloadedInPeriod []string   // Книги, скачанные в текущем окне
}

// DummyRegister используется для приёма данных регистрации из JSON-запроса.
type DummyRegister struct {
	Email    string `json:"email" validate:"required,email"`       // Электронная почта
	Username string `json:"username" validate:"required,alphanum"` // Имя пользователя
	Password string `json:"password" validate:"required,min=8"`    // Пароль
}

// DummyLogin используется для приёма данных входа из JSON-запроса.
type DummyLogin struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}
