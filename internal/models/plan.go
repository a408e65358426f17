package models

// Тарифные планы подписки.
const (
	PlanNone    = "none"
	PlanBasic   = "basic"
	PlanPremium = "premium"
)

// Limits задаёт квоты тарифного плана на одно окно использования.
type Limits struct {
	MaxReads     int // Максимум уникальных книг для чтения за окно
	MaxDownloads int // Максимум уникальных книг для скачивания за окно
}

// planLimits статическая таблица квот по планам.
var planLimits = map[string]Limits{
	PlanNone:    {MaxReads: 0, MaxDownloads: 0},
	PlanBasic:   {MaxReads: 10, MaxDownloads: 5},
	PlanPremium: {MaxReads: 100, MaxDownloads: 25},
}

// LimitsFor возвращает квоты для плана. Неизвестный план получает
// нулевые квоты — доступ закрыт.
func LimitsFor(plan string) Limits {
	if l, ok := planLimits[plan]; ok {
		return l
	}
	return Limits{}
}

// KnownPlan сообщает, является ли строка допустимым планом для заявки.
func KnownPlan(plan string) bool {
	return plan == PlanBasic || plan == PlanPremium
}
