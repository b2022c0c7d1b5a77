package semester

import "context"

// Repository определяет контракт хранилища семестров.
type Repository interface {
	// GetActive возвращает текущий активный семестр.
	// Возвращает ErrSemesterNotFound, если активного семестра нет.
	GetActive(ctx context.Context) (*Semester, error)

	// GetByID возвращает семестр по идентификатору.
	GetByID(ctx context.Context, id int) (*Semester, error)

	// GetByName возвращает семестр по названию.
	GetByName(ctx context.Context, name string) (*Semester, error)

	// StartNew атомарно деактивирует текущий семестр и создаёт новый
	// активный с указанным названием. Возвращает созданный семестр.
	StartNew(ctx context.Context, name string) (*Semester, error)
}

// ActiveProvider выдаёт текущий активный семестр. Внедряется как явная
// зависимость вместо кешированного на старте значения: активный семестр
// может смениться прямо во время работы процесса.
type ActiveProvider interface {
	// Active возвращает активный семестр.
	Active(ctx context.Context) (*Semester, error)

	// Refresh принудительно сбрасывает закешированное значение.
	Refresh(ctx context.Context) error
}
