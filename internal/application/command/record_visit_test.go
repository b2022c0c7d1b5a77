package command

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/physed-hub/phys-ed-journal/internal/domain/journal"
	"github.com/physed-hub/phys-ed-journal/internal/domain/student"
	"github.com/physed-hub/phys-ed-journal/pkg/timeutil"
)

var testNow = time.Date(2023, 4, 10, 12, 0, 0, 0, timeutil.MoscowTZ)

func testClock() time.Time { return testNow }

func visitEnv(t *testing.T) (*testEnv, *RecordVisitHandler) {
	t.Helper()
	env := newTestEnv()
	env.store.addSemester(1, "2022-2023/spring", true)

	st, err := student.NewStudent("guid-1", "Иванов Иван Иванович", "221-351", "2022-2023/spring")
	require.NoError(t, err)
	env.store.addStudent(st, 2.0)

	handler := NewRecordVisitHandler(env.students, env.journal).WithClock(testClock)
	return env, handler
}

func TestRecordVisit_Success(t *testing.T) {
	env, handler := visitEnv(t)

	record, err := handler.Handle(context.Background(), RecordVisitCommand{
		StudentGUID: "guid-1",
		TeacherGUID: "teacher-1",
		Date:        testNow.AddDate(0, 0, -1),
	})

	require.NoError(t, err)
	assert.Equal(t, "guid-1", record.StudentGUID)
	assert.Equal(t, "teacher-1", record.TeacherGUID)
	assert.NotEmpty(t, record.ID)

	assert.Equal(t, 1, env.store.students["guid-1"].Visits)
	assert.Len(t, env.store.visits, 1)
}

func TestRecordVisit_WholeWindowIsValid(t *testing.T) {
	env, handler := visitEnv(t)

	for offset := -journal.VisitLifeDays; offset <= 0; offset++ {
		_, err := handler.Handle(context.Background(), RecordVisitCommand{
			StudentGUID: "guid-1",
			TeacherGUID: "teacher-1",
			Date:        testNow.AddDate(0, 0, offset),
		})
		require.NoError(t, err, "offset %d", offset)
	}

	assert.Equal(t, journal.VisitLifeDays+1, env.store.students["guid-1"].Visits)
}

func TestRecordVisit_FromFuture(t *testing.T) {
	env, handler := visitEnv(t)

	_, err := handler.Handle(context.Background(), RecordVisitCommand{
		StudentGUID: "guid-1",
		TeacherGUID: "teacher-1",
		Date:        testNow.AddDate(0, 0, 1),
	})

	var futureErr *journal.ActionFromFutureError
	assert.ErrorAs(t, err, &futureErr)
	assert.Equal(t, 0, env.store.students["guid-1"].Visits)
	assert.Empty(t, env.store.visits)
}

func TestRecordVisit_Expired(t *testing.T) {
	env, handler := visitEnv(t)

	_, err := handler.Handle(context.Background(), RecordVisitCommand{
		StudentGUID: "guid-1",
		TeacherGUID: "teacher-1",
		Date:        testNow.AddDate(0, 0, -journal.VisitLifeDays-1),
	})

	var expiredErr *journal.VisitExpiredError
	assert.ErrorAs(t, err, &expiredErr)
	assert.Equal(t, 0, env.store.students["guid-1"].Visits)
}

func TestRecordVisit_Duplicate(t *testing.T) {
	env, handler := visitEnv(t)

	date := testNow.AddDate(0, 0, -2)
	cmd := RecordVisitCommand{StudentGUID: "guid-1", TeacherGUID: "teacher-1", Date: date}

	_, err := handler.Handle(context.Background(), cmd)
	require.NoError(t, err)

	_, err = handler.Handle(context.Background(), cmd)
	var dupErr *journal.VisitAlreadyExistsError
	assert.ErrorAs(t, err, &dupErr)

	// Счётчик вырос ровно на 1, запись осталась одна.
	assert.Equal(t, 1, env.store.students["guid-1"].Visits)
	assert.Len(t, env.store.visits, 1)
}

func TestRecordVisit_DuplicateCaughtByStorage(t *testing.T) {
	// Гонка: проверка дубликата прошла до вставки конкурента, дубликат
	// ловится уже на уровне хранилища.
	env, handler := visitEnv(t)

	date := testNow.AddDate(0, 0, -1)
	env.store.visits = append(env.store.visits, &journal.VisitRecord{
		ID:          "concurrent",
		StudentGUID: "guid-1",
		TeacherGUID: "teacher-2",
		Date:        date,
	})

	err := env.journal.AddVisit(context.Background(), &journal.VisitRecord{
		ID:          "second",
		StudentGUID: "guid-1",
		TeacherGUID: "teacher-1",
		Date:        date,
	})

	var dupErr *journal.VisitAlreadyExistsError
	assert.ErrorAs(t, err, &dupErr)
	assert.Len(t, env.store.visits, 1)
	_ = handler
}

func TestRecordVisit_AcrossZones(t *testing.T) {
	// Дата приходит с границы (московская полночь), часы процесса идут в
	// UTC, а хранилище отдаёт даты полуночью UTC. Календарный день один и
	// тот же - посещение за "сегодня" по Москве принимается ночью, а
	// повтор ловится ещё до вставки.
	env, handler := visitEnv(t)

	// 22:00 UTC 9 апреля = 01:00 10 апреля по Москве.
	utcClock := time.Date(2023, 4, 9, 22, 0, 0, 0, time.UTC)
	handler.WithClock(func() time.Time { return utcClock })

	mskMidnight := time.Date(2023, 4, 10, 0, 0, 0, 0, timeutil.MoscowTZ)
	_, err := handler.Handle(context.Background(), RecordVisitCommand{
		StudentGUID: "guid-1",
		TeacherGUID: "teacher-1",
		Date:        mskMidnight,
	})
	require.NoError(t, err)

	// Дубликат того же московского дня, но выраженный полуночью UTC.
	utcMidnight := time.Date(2023, 4, 10, 0, 0, 0, 0, time.UTC)
	_, err = handler.Handle(context.Background(), RecordVisitCommand{
		StudentGUID: "guid-1",
		TeacherGUID: "teacher-1",
		Date:        utcMidnight,
	})

	var dupErr *journal.VisitAlreadyExistsError
	assert.ErrorAs(t, err, &dupErr)
	assert.Equal(t, 1, env.store.students["guid-1"].Visits)
}

func TestRecordVisit_StudentNotFound(t *testing.T) {
	_, handler := visitEnv(t)

	_, err := handler.Handle(context.Background(), RecordVisitCommand{
		StudentGUID: "missing",
		TeacherGUID: "teacher-1",
		Date:        testNow,
	})

	assert.ErrorIs(t, err, student.ErrStudentNotFound)
}

func TestRecordVisit_ArchivedVisitIsNotDuplicate(t *testing.T) {
	env, handler := visitEnv(t)

	date := testNow.AddDate(0, 0, -1)
	env.store.visits = append(env.store.visits, &journal.VisitRecord{
		ID:          "old",
		StudentGUID: "guid-1",
		Date:        date,
		IsArchived:  true,
	})

	_, err := handler.Handle(context.Background(), RecordVisitCommand{
		StudentGUID: "guid-1",
		TeacherGUID: "teacher-1",
		Date:        date,
	})

	assert.NoError(t, err)
}
