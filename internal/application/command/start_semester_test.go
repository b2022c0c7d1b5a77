package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/physed-hub/phys-ed-journal/internal/domain/semester"
)

func TestStartSemester_Success(t *testing.T) {
	env := newTestEnv()
	env.store.addSemester(1, "2022-2023/autumn", true)
	handler := NewStartSemesterHandler(env.semesters, env.active)

	created, err := handler.Handle(context.Background(), StartSemesterCommand{Name: "2022-2023/spring"})

	require.NoError(t, err)
	assert.Equal(t, 2, created.ID)
	assert.True(t, created.IsActive)
	assert.Equal(t, 1, env.active.refreshed, "cached active semester is refreshed")

	// Предыдущий семестр деактивирован.
	old, err := env.semesters.GetByName(context.Background(), "2022-2023/autumn")
	require.NoError(t, err)
	assert.False(t, old.IsActive)
}

func TestStartSemester_FirstSemester(t *testing.T) {
	env := newTestEnv()
	handler := NewStartSemesterHandler(env.semesters, env.active)

	created, err := handler.Handle(context.Background(), StartSemesterCommand{Name: "2022-2023/autumn"})

	require.NoError(t, err)
	assert.True(t, created.IsActive)
}

func TestStartSemester_InvalidName(t *testing.T) {
	env := newTestEnv()
	handler := NewStartSemesterHandler(env.semesters, env.active)

	_, err := handler.Handle(context.Background(), StartSemesterCommand{Name: "spring 2023"})
	assert.ErrorIs(t, err, semester.ErrInvalidSemesterName)
}

func TestStartSemester_SameNameRejected(t *testing.T) {
	env := newTestEnv()
	env.store.addSemester(1, "2022-2023/spring", true)
	handler := NewStartSemesterHandler(env.semesters, env.active)

	_, err := handler.Handle(context.Background(), StartSemesterCommand{Name: "2022-2023/spring"})
	assert.ErrorIs(t, err, semester.ErrSemesterAlreadyActive)
}
