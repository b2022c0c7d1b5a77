package student

import "context"

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// Эти интерфейсы определяют контракт для работы с хранилищем данных.
// Реализации находятся в infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// ArchiveSnapshot - точечный снимок счётчиков студента вместе с групповой
// стоимостью посещения. Читается одним запросом перед архивацией.
type ArchiveSnapshot struct {
	StudentGUID                 string
	FullName                    string
	GroupNumber                 string
	GroupVisitValue             float64
	Visits                      int
	AdditionalPoints            int
	PointsForStandards          int
	HasDebtFromPreviousSemester bool
	ArchivedVisitValue          float64
	CurrentSemesterName         string
}

// Repository определяет операции CRUD для студентов.
type Repository interface {
	// Create создаёт нового студента.
	// Возвращает ErrStudentAlreadyExists, если студент уже существует.
	Create(ctx context.Context, s *Student) error

	// GetByGUID возвращает студента по GUID.
	// Возвращает ErrStudentNotFound, если студент не найден.
	GetByGUID(ctx context.Context, guid string) (*Student, error)

	// Exists проверяет существование студента.
	Exists(ctx context.Context, guid string) (bool, error)

	// GetArchiveSnapshot возвращает снимок счётчиков студента и стоимость
	// посещения его группы одним точечным чтением.
	// Возвращает ErrStudentNotFound, если студент не найден.
	GetArchiveSnapshot(ctx context.Context, guid string) (*ArchiveSnapshot, error)

	// FindBySemesterOtherThan возвращает GUID активных студентов, чей
	// текущий семестр отличается от указанного. Используется периодическим
	// проходом архивации.
	FindBySemesterOtherThan(ctx context.Context, semesterName string, limit int) ([]string, error)

	// UpsertBatch создаёт или обновляет пачку студентов по данным внешнего
	// справочника. Каждая пачка - отдельная транзакция: сбой одной пачки
	// не откатывает уже зафиксированные.
	UpsertBatch(ctx context.Context, students []*Student) error
}
