package models

import "time"

// Статусы заявки на подписку.
const (
	RequestPending   = "pending"
	RequestProcessed = "processed"
)

// SubscriptionRequest представляет заявку пользователя на смену тарифа.
// Для пары (пользователь, план) одновременно может существовать не больше
// одной заявки в статусе pending — это гарантирует хранилище.
type SubscriptionRequest struct {
	ID          string     // Уникальный идентификатор заявки
	Username    string     // Имя пользователя, подавшего заявку
	Email       string     // Почта пользователя (для уведомления после одобрения)
	Plan        string     // Запрошенный план: basic или premium
	Status      string     // pending или processed
	Note        string     // Необязательный комментарий пользователя
	CreatedAt   time.Time  // Момент создания заявки
	ProcessedAt *time.Time // Момент обработки, nil пока заявка в ожидании
}

// DummySubmitRequest используется для приёма заявки из JSON-запроса.
type DummySubmitRequest struct {
	Plan string `json:"plan" validate:"required,oneof=basic premium"` // Запрошенный план
	Note string `json:"note,omitempty" validate:"omitempty,max=500"` // Комментарий (опционально)
}

// GrantedEvent сообщение об одобренной заявке, публикуемое в очередь
// уведомлений и потребляемое сервисом отправки писем.
type GrantedEvent struct {
	Email    string    `json:"email"`
	Username string    `json:"username"`
	Plan     string    `json:"plan"`
	EndDate  time.Time `json:"end_date"`
}
