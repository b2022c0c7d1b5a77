// Package journal содержит записи журнала посещений и баллов,
// правила подсчёта итоговых баллов и темпоральную проверку посещений.
package journal

import (
	"time"

	"github.com/physed-hub/phys-ed-journal/internal/domain/shared"
)

// WorkType определяет вид работы, за которую начислены баллы.
type WorkType string

const (
	// WorkTypeExternalFitness - занятия в сторонней секции.
	WorkTypeExternalFitness WorkType = "external_fitness"

	// WorkTypeGTO - сдача норм ГТО.
	WorkTypeGTO WorkType = "gto"

	// WorkTypeScience - научная работа на кафедре.
	WorkTypeScience WorkType = "science"

	// WorkTypeCompetition - участие в соревнованиях.
	WorkTypeCompetition WorkType = "competition"

	// WorkTypeOnlineCourse - прохождение онлайн-курса.
	WorkTypeOnlineCourse WorkType = "online_course"

	// WorkTypeInternalTeam - выступление за сборную университета.
	WorkTypeInternalTeam WorkType = "internal_team"

	// WorkTypeStandards - сдача нормативов. Начисляется отдельной
	// операцией: баллы за нормативы идут в свой счётчик с потолком.
	WorkTypeStandards WorkType = "standards"
)

// IsValid проверяет, что вид работы известен.
func (w WorkType) IsValid() bool {
	switch w {
	case WorkTypeExternalFitness, WorkTypeGTO, WorkTypeScience,
		WorkTypeCompetition, WorkTypeOnlineCourse, WorkTypeInternalTeam,
		WorkTypeStandards:
		return true
	default:
		return false
	}
}

// VisitRecord - одно посещение. Идентичность записи - пара
// (студент, календарная дата); запись неизменяема после создания,
// кроме признака архивации.
type VisitRecord struct {
	// ID - внутренний идентификатор записи.
	ID string

	// StudentGUID - GUID студента.
	StudentGUID string

	// TeacherGUID - GUID преподавателя, отметившего посещение.
	TeacherGUID string

	// Date - календарная дата посещения (полночь, локальная зона).
	Date time.Time

	// IsArchived - запись относится к уже закрытому семестру.
	IsArchived bool
}

// PointsRecord - одно начисление баллов. Дельта может быть отрицательной
// при корректировке.
type PointsRecord struct {
	// ID - внутренний идентификатор записи.
	ID string

	// StudentGUID - GUID студента.
	StudentGUID string

	// TeacherGUID - GUID преподавателя, начислившего баллы.
	TeacherGUID string

	// Points - дельта баллов, знак сохраняется для аудита.
	Points int

	// Date - дата, за которую начислены баллы.
	Date time.Time

	// WorkType - вид работы.
	WorkType WorkType

	// Comment - комментарий преподавателя (опционально).
	Comment string

	// SemesterID - семестр, в котором сделана запись.
	SemesterID int

	// IsArchived - запись относится к уже закрытому семестру.
	IsArchived bool
}

// ErrInvalidWorkType - неизвестный вид работы.
var ErrInvalidWorkType = shared.NewDomainError("journal", "Validate", shared.ErrInvalidInput, "unknown work type")
