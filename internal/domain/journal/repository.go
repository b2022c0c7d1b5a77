package journal

import (
	"context"
	"time"

	"github.com/physed-hub/phys-ed-journal/internal/domain/shared"
)

// ErrStandardsCapExceeded - начисление выводит баллы за нормативы за потолок.
var ErrStandardsCapExceeded = shared.NewDomainError("journal", "RecordStandards", shared.ErrValidation, "points for standards are capped")

// Repository определяет контракт журнала посещений и баллов.
//
// Операции Add* атомарны на уровне хранилища: изменение счётчика студента
// и вставка записи истории выполняются одной транзакцией, частичное
// применение невозможно. Дубликат посещения отлавливается и на уровне
// хранилища (уникальность пары студент+дата среди незаархивированных
// записей), поэтому из двух конкурентных вставок выживает ровно одна.
type Repository interface {
	// AddVisit атомарно увеличивает счётчик посещений студента на 1 и
	// вставляет запись посещения. Возвращает VisitAlreadyExistsError при
	// дубликате и ErrStudentNotFound, если студента нет.
	AddVisit(ctx context.Context, record *VisitRecord) error

	// AddPoints атомарно прибавляет дельту к дополнительным баллам
	// студента и вставляет запись начисления.
	// Возвращает ErrStudentNotFound, если студента нет.
	AddPoints(ctx context.Context, record *PointsRecord) error

	// AddStandardsPoints атомарно прибавляет дельту к баллам за нормативы
	// и вставляет запись начисления. Возвращает ErrStandardsCapExceeded,
	// если сумма превысила бы потолок.
	AddStandardsPoints(ctx context.Context, record *PointsRecord) error

	// GetVisitDates возвращает даты незаархивированных посещений студента.
	GetVisitDates(ctx context.Context, studentGUID string) ([]time.Time, error)

	// GetVisitHistory возвращает посещения студента, новые первыми.
	GetVisitHistory(ctx context.Context, studentGUID string, limit int) ([]*VisitRecord, error)

	// GetPointsHistory возвращает начисления студента, новые первыми.
	GetPointsHistory(ctx context.Context, studentGUID string, limit int) ([]*PointsRecord, error)
}
