// Package student содержит доменную модель студента кафедры физвоспитания.
// Это ядро бизнес-логики - здесь нет внешних зависимостей.
package student

import (
	"fmt"
	"strings"

	"github.com/physed-hub/phys-ed-journal/internal/domain/shared"
)

// Доменные ошибки студента.
var (
	// ErrStudentNotFound - студент не найден.
	ErrStudentNotFound = shared.NewDomainError("student", "Find", shared.ErrNotFound, "student not found")

	// ErrStudentAlreadyExists - студент уже существует.
	ErrStudentAlreadyExists = shared.NewDomainError("student", "Create", shared.ErrAlreadyExists, "student already exists")

	// ErrInvalidStudentGUID - некорректный GUID студента.
	ErrInvalidStudentGUID = shared.NewDomainError("student", "Validate", shared.ErrInvalidInput, "student guid is required")

	// ErrInvalidFullName - некорректное ФИО.
	ErrInvalidFullName = shared.NewDomainError("student", "Validate", shared.ErrInvalidInput, "full name is required")

	// ErrInvalidGroupNumber - не указана группа.
	ErrInvalidGroupNumber = shared.NewDomainError("student", "Validate", shared.ErrInvalidInput, "group number is required")
)

// Student - центральная сущность журнала. Счётчики посещений и баллов
// накапливаются в течение семестра и обнуляются при архивации.
type Student struct {
	// StudentGUID - уникальный идентификатор студента.
	StudentGUID string

	// FullName - ФИО студента.
	FullName string

	// GroupNumber - название группы студента.
	GroupNumber string

	// Visits - число посещений в текущем семестре, >= 0.
	Visits int

	// AdditionalPoints - дополнительные баллы. Могут уходить в минус
	// при корректировках; знак каждой корректировки хранится в журнале.
	AdditionalPoints int

	// PointsForStandards - баллы за нормативы, ограничены сверху
	// journal.MaxPointsForStandards.
	PointsForStandards int

	// HasDebtFromPreviousSemester - признак долга с прошлого семестра.
	HasDebtFromPreviousSemester bool

	// ArchivedVisitValue - стоимость посещения, замороженная на момент
	// ухода в долг. Действует только пока выставлен признак долга.
	ArchivedVisitValue float64

	// CurrentSemesterName - семестр, в котором числится студент.
	CurrentSemesterName string

	// IsActive - false, если студент отчислен или в академическом отпуске.
	IsActive bool
}

// NewStudent создаёт студента с валидацией обязательных полей.
func NewStudent(guid, fullName, groupNumber, semesterName string) (*Student, error) {
	if strings.TrimSpace(guid) == "" {
		return nil, ErrInvalidStudentGUID
	}

	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		return nil, ErrInvalidFullName
	}

	if strings.TrimSpace(groupNumber) == "" {
		return nil, ErrInvalidGroupNumber
	}

	return &Student{
		StudentGUID:         guid,
		FullName:            fullName,
		GroupNumber:         groupNumber,
		CurrentSemesterName: semesterName,
		IsActive:            true,
	}, nil
}

// EffectiveVisitValue возвращает стоимость посещения с учётом долга:
// пока выставлен признак долга, действует замороженное значение, и
// изменение группового тарифа не влияет на долг задним числом.
func (s *Student) EffectiveVisitValue(groupVisitValue float64) float64 {
	if s.HasDebtFromPreviousSemester {
		return s.ArchivedVisitValue
	}
	return groupVisitValue
}

// String возвращает строковое представление студента для логирования.
func (s *Student) String() string {
	return fmt.Sprintf(
		"Student{GUID: %s, Group: %s, Visits: %d, AdditionalPoints: %d, Semester: %s}",
		s.StudentGUID, s.GroupNumber, s.Visits, s.AdditionalPoints, s.CurrentSemesterName,
	)
}
