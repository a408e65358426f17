// Package period управляет скользящим окном использования подписки.
//
// Окно длится ровно 30 дней от момента его открытия. По истечении окна
// счётчики прочитанных и скачанных книг обнуляются, а якорь окна
// переносится на текущий момент — независимо от сроков продления
// самой подписки.
package period

import (
	"time"

	"github.com/okunevama/bookvault/internal/models"
)

// Length длительность одного окна использования.
const Length = 30 * 24 * time.Hour

// ShouldReset сообщает, пора ли открывать новое окно: якорь не задан
// либо с его момента прошло больше 30 дней.
func ShouldReset(periodStart *time.Time, now time.Time) bool {
	if periodStart == nil {
		return true
	}
	return now.Sub(*periodStart) > Length
}

// ResetIfNeeded обнуляет счётчики использования и переносит якорь окна,
// если окно истекло. Повторный вызов без прошедшего времени ничего не
// делает — свежий якорь уже на месте.
func ResetIfNeeded(u *models.User, now time.Time) bool {
	if !ShouldReset(u.PeriodStartedAt, now) {
		return false
	}
	u.ReadInPeriod = nil
	u.DownloadedInPeriod = nil
	t := now
	u.PeriodStartedAt = &t
	return true
}
