package group

import "context"

// Repository определяет контракт хранилища групп.
// Реализация находится в infrastructure/persistence.
type Repository interface {
	// Create создаёт новую группу.
	// Возвращает ErrGroupAlreadyExists, если группа уже существует.
	Create(ctx context.Context, g *Group) error

	// GetByName возвращает группу по названию.
	// Возвращает ErrGroupNotFound, если группа не найдена.
	GetByName(ctx context.Context, groupName string) (*Group, error)

	// GetAll возвращает все группы.
	GetAll(ctx context.Context) ([]*Group, error)

	// UpdateVisitValue изменяет стоимость посещения группы.
	UpdateVisitValue(ctx context.Context, groupName string, visitValue float64) error
}
