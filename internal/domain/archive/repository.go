package archive

import "context"

// ArchivePayload - данные для атомарного закрытия семестра студента.
type ArchivePayload struct {
	StudentGUID         string
	FullName            string
	GroupNumber         string
	TotalPoints         float64
	Visits              int
	SemesterID          int
	ActiveSemesterName  string
	CurrentSemesterName string
}

// Repository определяет контракт хранилища архивных снимков.
type Repository interface {
	// Archive выполняет закрытие семестра одной транзакцией:
	// вставляет снимок, помечает все записи посещений и баллов студента
	// архивными, удаляет записи посещений, заархивированные в прошлый
	// проход, обнуляет счётчики и признак долга студента и переводит его
	// в активный семестр. Никакое подмножество этих записей не может быть
	// видно без остальных.
	//
	// Возвращает ErrAlreadyArchived, если снимок для пары
	// (студент, семестр) уже существует.
	Archive(ctx context.Context, payload ArchivePayload) (*ArchivedStudent, error)

	// MarkDebt выставляет студенту признак долга и замораживает стоимость
	// посещения. Счётчики не трогает.
	MarkDebt(ctx context.Context, studentGUID string, visitValue float64) error

	// GetBySemester возвращает снимки указанного семестра.
	GetBySemester(ctx context.Context, semesterID int) ([]*ArchivedStudent, error)

	// GetByStudent возвращает все снимки студента, новые первыми.
	GetByStudent(ctx context.Context, studentGUID string) ([]*ArchivedStudent, error)
}
