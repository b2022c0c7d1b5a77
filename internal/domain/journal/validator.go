package journal

import (
	"fmt"
	"time"

	"github.com/physed-hub/phys-ed-journal/internal/domain/shared"
	"github.com/physed-hub/phys-ed-journal/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// ТЕМПОРАЛЬНАЯ ПРОВЕРКА ПОСЕЩЕНИЯ
// Чистая функция над датой-кандидатом, текущей датой и уже записанными
// датами посещений студента. Побочных эффектов нет.
// ══════════════════════════════════════════════════════════════════════════════

// VisitStatus - результат темпоральной проверки посещения.
type VisitStatus int

const (
	// VisitValid - посещение можно записать.
	VisitValid VisitStatus = iota

	// VisitFromFuture - дата посещения строго позже текущей.
	VisitFromFuture

	// VisitExpired - посещение старше окна действительности.
	VisitExpired

	// VisitDuplicate - незаархивированное посещение на эту дату уже есть.
	VisitDuplicate
)

// String возвращает строковое представление статуса.
func (s VisitStatus) String() string {
	switch s {
	case VisitValid:
		return "valid"
	case VisitFromFuture:
		return "from_future"
	case VisitExpired:
		return "expired"
	case VisitDuplicate:
		return "duplicate"
	default:
		return "unknown"
	}
}

// ActionFromFutureError - попытка отметить посещение будущей датой.
type ActionFromFutureError struct {
	Date time.Time
}

func (e *ActionFromFutureError) Error() string {
	return fmt.Sprintf("journal.RecordVisit: visit date %s is in the future", e.Date.Format("2006-01-02"))
}

// Is сопоставляет ошибку с shared.ErrFutureDate.
func (e *ActionFromFutureError) Is(target error) bool {
	return target == shared.ErrFutureDate
}

// VisitExpiredError - посещение старше окна действительности.
type VisitExpiredError struct {
	Date time.Time
}

func (e *VisitExpiredError) Error() string {
	return fmt.Sprintf("journal.RecordVisit: visit date %s is older than %d days", e.Date.Format("2006-01-02"), VisitLifeDays)
}

// Is сопоставляет ошибку с shared.ErrExpired.
func (e *VisitExpiredError) Is(target error) bool {
	return target == shared.ErrExpired
}

// VisitAlreadyExistsError - посещение на эту дату уже записано.
type VisitAlreadyExistsError struct {
	Date time.Time
}

func (e *VisitAlreadyExistsError) Error() string {
	return fmt.Sprintf("journal.RecordVisit: visit for %s already exists", e.Date.Format("2006-01-02"))
}

// Is сопоставляет ошибку с shared.ErrAlreadyExists.
func (e *VisitAlreadyExistsError) Is(target error) bool {
	return target == shared.ErrAlreadyExists
}

// ValidateVisitDate проверяет дату посещения относительно текущей даты и
// уже записанных (незаархивированных) посещений студента. Проверки
// выполняются строго по порядку: будущее, просрочка, дубликат; возвращается
// первая сработавшая, без агрегации.
//
// Все три аргумента могут приходить в разных зонах: дата-кандидат парсится
// как московская полночь, часы процесса идут в зоне сервера, а даты из
// хранилища приходят полуночью UTC. Сравниваются календарные дни по Москве.
func ValidateVisitDate(date, now time.Time, existing []time.Time) VisitStatus {
	day := timeutil.StartOfDay(date)
	today := timeutil.StartOfDay(now)

	if day.After(today) {
		return VisitFromFuture
	}

	if timeutil.DaysBetween(day, today) > VisitLifeDays {
		return VisitExpired
	}

	for _, d := range existing {
		if timeutil.IsSameDay(d, day) {
			return VisitDuplicate
		}
	}

	return VisitValid
}

// Err переводит статус проверки в типизированную ошибку для даты date.
// Для VisitValid возвращает nil.
func (s VisitStatus) Err(date time.Time) error {
	switch s {
	case VisitFromFuture:
		return &ActionFromFutureError{Date: date}
	case VisitExpired:
		return &VisitExpiredError{Date: date}
	case VisitDuplicate:
		return &VisitAlreadyExistsError{Date: date}
	default:
		return nil
	}
}
