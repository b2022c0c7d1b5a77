package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/physed-hub/phys-ed-journal/internal/domain/journal"
	"github.com/physed-hub/phys-ed-journal/internal/domain/student"
)

func pointsEnv(t *testing.T) (*testEnv, *RecordPointsHandler) {
	t.Helper()
	env := newTestEnv()
	env.store.addSemester(3, "2022-2023/spring", true)

	st, err := student.NewStudent("guid-1", "Петров Пётр Петрович", "221-351", "2022-2023/spring")
	require.NoError(t, err)
	env.store.addStudent(st, 2.0)

	return env, NewRecordPointsHandler(env.students, env.journal, env.active)
}

func TestRecordPoints_Success(t *testing.T) {
	env, handler := pointsEnv(t)

	record, err := handler.Handle(context.Background(), RecordPointsCommand{
		StudentGUID: "guid-1",
		TeacherGUID: "teacher-1",
		Points:      10,
		Date:        testNow,
		WorkType:    journal.WorkTypeGTO,
		Comment:     "золотой значок",
	})

	require.NoError(t, err)
	assert.Equal(t, 10, record.Points)
	assert.Equal(t, 3, record.SemesterID, "record is tagged with the active semester")
	assert.Equal(t, 10, env.store.students["guid-1"].AdditionalPoints)
}

func TestRecordPoints_NegativeCorrection(t *testing.T) {
	env, handler := pointsEnv(t)

	env.store.students["guid-1"].AdditionalPoints = 5

	_, err := handler.Handle(context.Background(), RecordPointsCommand{
		StudentGUID: "guid-1",
		TeacherGUID: "teacher-1",
		Points:      -8,
		Date:        testNow,
		WorkType:    journal.WorkTypeScience,
	})

	require.NoError(t, err)
	// Сырой баланс может уйти в минус; журнал хранит знак для аудита.
	assert.Equal(t, -3, env.store.students["guid-1"].AdditionalPoints)
}

func TestRecordPoints_BackdatingAllowed(t *testing.T) {
	_, handler := pointsEnv(t)

	// В отличие от посещений, начисления не ограничены окном по датам.
	_, err := handler.Handle(context.Background(), RecordPointsCommand{
		StudentGUID: "guid-1",
		TeacherGUID: "teacher-1",
		Points:      5,
		Date:        testNow.AddDate(0, -2, 0),
		WorkType:    journal.WorkTypeCompetition,
	})

	assert.NoError(t, err)
}

func TestRecordPoints_StudentNotFound(t *testing.T) {
	_, handler := pointsEnv(t)

	_, err := handler.Handle(context.Background(), RecordPointsCommand{
		StudentGUID: "missing",
		TeacherGUID: "teacher-1",
		Points:      5,
		Date:        testNow,
		WorkType:    journal.WorkTypeGTO,
	})

	assert.ErrorIs(t, err, student.ErrStudentNotFound)
}

func TestRecordPoints_Validation(t *testing.T) {
	_, handler := pointsEnv(t)

	_, err := handler.Handle(context.Background(), RecordPointsCommand{
		StudentGUID: "guid-1",
		TeacherGUID: "teacher-1",
		Points:      5,
		Date:        testNow,
		WorkType:    journal.WorkType("lottery"),
	})
	assert.Error(t, err)

	// Нормативы идут через отдельную команду.
	_, err = handler.Handle(context.Background(), RecordPointsCommand{
		StudentGUID: "guid-1",
		TeacherGUID: "teacher-1",
		Points:      5,
		Date:        testNow,
		WorkType:    journal.WorkTypeStandards,
	})
	assert.Error(t, err)
}

func TestRecordStandards_Success(t *testing.T) {
	env, _ := pointsEnv(t)
	handler := NewRecordStandardsHandler(env.students, env.journal, env.active)

	record, err := handler.Handle(context.Background(), RecordStandardsCommand{
		StudentGUID: "guid-1",
		TeacherGUID: "teacher-1",
		Points:      10,
		Date:        testNow,
	})

	require.NoError(t, err)
	assert.Equal(t, journal.WorkTypeStandards, record.WorkType)
	assert.Equal(t, 10, env.store.students["guid-1"].PointsForStandards)
}

func TestRecordStandards_CapEnforced(t *testing.T) {
	env, _ := pointsEnv(t)
	handler := NewRecordStandardsHandler(env.students, env.journal, env.active)

	env.store.students["guid-1"].PointsForStandards = journal.MaxPointsForStandards - 5

	_, err := handler.Handle(context.Background(), RecordStandardsCommand{
		StudentGUID: "guid-1",
		TeacherGUID: "teacher-1",
		Points:      10,
		Date:        testNow,
	})

	assert.ErrorIs(t, err, journal.ErrStandardsCapExceeded)
	assert.Equal(t, journal.MaxPointsForStandards-5, env.store.students["guid-1"].PointsForStandards)
}
