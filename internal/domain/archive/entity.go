// Package archive содержит снимок закрытого семестра студента и политику
// принятия решения зачёт/долг.
package archive

import (
	"fmt"
	"time"

	"github.com/physed-hub/phys-ed-journal/internal/domain/shared"
)

// ArchivedStudent - неизменяемый снимок студента на момент закрытия
// семестра. Создаётся ровно один раз на пару (студент, семестр).
type ArchivedStudent struct {
	// StudentGUID - GUID студента.
	StudentGUID string

	// SemesterID - закрытый семестр.
	SemesterID int

	// FullName - ФИО на момент закрытия.
	FullName string

	// GroupNumber - группа на момент закрытия.
	GroupNumber string

	// TotalPoints - итоговые баллы на момент закрытия.
	TotalPoints float64

	// Visits - число посещений на момент закрытия.
	Visits int

	// ArchivedAt - время создания снимка.
	ArchivedAt time.Time
}

// ErrAlreadyArchived - снимок для этой пары (студент, семестр) уже создан.
// Возникает при конкурентной двойной архивации: вторая попытка обязана
// завершиться быстро, не создавая второй снимок.
var ErrAlreadyArchived = shared.NewDomainError("archive", "Archive", shared.ErrAlreadyExists, "student already archived for this semester")

// ErrAlreadyInActiveSemester - студент ещё числится в активном семестре,
// архивировать нечего. Указывает на ошибку последовательности у вызывающей
// стороны.
var ErrAlreadyInActiveSemester = shared.NewDomainError("archive", "Archive", shared.ErrInvalidState, "student is already in the active semester")

// NotEnoughPointsError - ожидаемый исход архивации: студент не набрал
// порог и уходит в долг. Несёт подсчитанный итог для показа пользователю.
type NotEnoughPointsError struct {
	StudentGUID string
	TotalPoints float64
}

func (e *NotEnoughPointsError) Error() string {
	return fmt.Sprintf("archive.Archive: student %s has not enough points: %.1f", e.StudentGUID, e.TotalPoints)
}

// Is сопоставляет ошибку с shared.ErrValidation.
func (e *NotEnoughPointsError) Is(target error) bool {
	return target == shared.ErrValidation
}
