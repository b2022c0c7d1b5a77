// Package semester содержит доменную модель семестра.
// Ровно один семестр активен в каждый момент времени: только он принимает
// новые записи о посещениях и баллах.
package semester

import (
	"regexp"

	"github.com/physed-hub/phys-ed-journal/internal/domain/shared"
)

// Название семестра имеет формат "YYYY-YYYY/season",
// например "2022-2023/spring".
var namePattern = regexp.MustCompile(`^\d{4}-\d{4}/(autumn|spring)$`)

// Доменные ошибки семестра.
var (
	// ErrSemesterNotFound - семестр не найден.
	ErrSemesterNotFound = shared.NewDomainError("semester", "Find", shared.ErrNotFound, "semester not found")

	// ErrInvalidSemesterName - название не соответствует формату.
	ErrInvalidSemesterName = shared.NewDomainError("semester", "Validate", shared.ErrInvalidInput, `semester name must match "YYYY-YYYY/season"`)

	// ErrSemesterAlreadyActive - семестр с таким названием уже активен.
	ErrSemesterAlreadyActive = shared.NewDomainError("semester", "Start", shared.ErrAlreadyExists, "semester with this name is already active")
)

// Semester представляет учебный семестр.
type Semester struct {
	// ID - последовательный идентификатор.
	ID int

	// Name - название в формате "YYYY-YYYY/season".
	Name string

	// IsActive - признак текущего семестра.
	IsActive bool
}

// IsValidName проверяет формат названия семестра.
func IsValidName(name string) bool {
	return namePattern.MatchString(name)
}

// NewSemester создаёт семестр с валидацией названия.
func NewSemester(name string) (*Semester, error) {
	if !IsValidName(name) {
		return nil, ErrInvalidSemesterName
	}
	return &Semester{Name: name, IsActive: true}, nil
}
