package command

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDirectory struct {
	students  []DirectoryStudent
	failPages map[int]bool // offset -> fail
	calls     int
}

func (d *fakeDirectory) FetchPage(_ context.Context, offset, limit int) ([]DirectoryStudent, error) {
	d.calls++
	if d.failPages[offset] {
		return nil, errors.New("directory unavailable")
	}
	if offset >= len(d.students) {
		return nil, nil
	}
	end := offset + limit
	if end > len(d.students) {
		end = len(d.students)
	}
	return d.students[offset:end], nil
}

func directoryWith(n int) *fakeDirectory {
	dir := &fakeDirectory{failPages: make(map[int]bool)}
	for i := 0; i < n; i++ {
		dir.students = append(dir.students, DirectoryStudent{
			GUID:        fmt.Sprintf("guid-%d", i),
			FullName:    fmt.Sprintf("Студент %d", i),
			GroupNumber: "221-351",
			IsActive:    true,
		})
	}
	return dir
}

func TestSyncStudents_PagesThroughDirectory(t *testing.T) {
	env := newTestEnv()
	env.store.addSemester(1, "2022-2023/spring", true)

	dir := directoryWith(7)
	handler := NewSyncStudentsHandler(dir, env.students, env.active)

	result, err := handler.Handle(context.Background(), SyncStudentsCommand{BatchSize: 3})

	require.NoError(t, err)
	assert.Equal(t, 7, result.TotalStudents)
	assert.Equal(t, 3, result.BatchCount)
	assert.Zero(t, result.FailedBatches)
	assert.Len(t, env.store.students, 7)

	// Новые студенты числятся в активном семестре.
	assert.Equal(t, "2022-2023/spring", env.store.students["guid-0"].CurrentSemesterName)
}

func TestSyncStudents_FailedBatchDoesNotRollBackOthers(t *testing.T) {
	env := newTestEnv()
	env.store.addSemester(1, "2022-2023/spring", true)

	dir := directoryWith(9)
	handler := NewSyncStudentsHandler(dir, env.students, env.active)

	// Середина справочника недоступна: первая пачка уже зафиксирована,
	// обход прерывается на сбое страницы.
	dir.failPages[3] = true

	result, err := handler.Handle(context.Background(), SyncStudentsCommand{BatchSize: 3})

	assert.Error(t, err)
	assert.Equal(t, 3, result.TotalStudents)
	assert.Len(t, env.store.students, 3)
}

func TestSyncStudents_UpdatesExisting(t *testing.T) {
	env := newTestEnv()
	env.store.addSemester(1, "2022-2023/spring", true)

	dir := directoryWith(1)
	handler := NewSyncStudentsHandler(dir, env.students, env.active)

	_, err := handler.Handle(context.Background(), SyncStudentsCommand{})
	require.NoError(t, err)

	// Студент перевёлся в другую группу.
	dir.students[0].GroupNumber = "221-352"
	_, err = handler.Handle(context.Background(), SyncStudentsCommand{})
	require.NoError(t, err)

	assert.Equal(t, "221-352", env.store.students["guid-0"].GroupNumber)
	assert.Len(t, env.store.students, 1)
}
