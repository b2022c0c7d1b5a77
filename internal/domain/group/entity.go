// Package group содержит доменную модель учебной группы.
// Здесь нет внешних зависимостей.
package group

import (
	"strings"

	"github.com/physed-hub/phys-ed-journal/internal/domain/shared"
)

// DefaultVisitValue - стоимость одного посещения по умолчанию.
const DefaultVisitValue = 2.0

// Доменные ошибки группы.
var (
	// ErrGroupNotFound - группа не найдена.
	ErrGroupNotFound = shared.NewDomainError("group", "Find", shared.ErrNotFound, "group not found")

	// ErrGroupAlreadyExists - группа уже существует.
	ErrGroupAlreadyExists = shared.NewDomainError("group", "Create", shared.ErrAlreadyExists, "group already exists")

	// ErrInvalidGroupName - некорректное название группы.
	ErrInvalidGroupName = shared.NewDomainError("group", "Validate", shared.ErrInvalidInput, "group name must not be empty")

	// ErrInvalidVisitValue - стоимость посещения должна быть положительной.
	ErrInvalidVisitValue = shared.NewDomainError("group", "Validate", shared.ErrInvalidInput, "visit value must be positive")
)

// Group представляет учебную группу. Стоимость посещения (VisitValue)
// задаётся на группу и умножается на число посещений при подсчёте баллов.
type Group struct {
	// GroupName - уникальное название группы, например "221-351".
	GroupName string

	// VisitValue - количество баллов за одно посещение, > 0.
	VisitValue float64

	// CuratorGUID - GUID преподавателя-куратора (опционально).
	CuratorGUID string
}

// NewGroup создаёт группу с валидацией полей.
func NewGroup(name string, visitValue float64) (*Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidGroupName
	}
	if visitValue <= 0 {
		return nil, ErrInvalidVisitValue
	}

	return &Group{
		GroupName:  name,
		VisitValue: visitValue,
	}, nil
}

// AssignCurator назначает куратора группы.
func (g *Group) AssignCurator(teacherGUID string) error {
	if teacherGUID == "" {
		return shared.NewDomainError("group", "AssignCurator", shared.ErrInvalidInput, "teacher guid is required")
	}
	g.CuratorGUID = teacherGUID
	return nil
}
