package query

import (
	"context"

	"github.com/physed-hub/phys-ed-journal/internal/domain/archive"
)

// ListArchivedStudentsHandler reads archived semester snapshots.
type ListArchivedStudentsHandler struct {
	archives archive.Repository
}

// NewListArchivedStudentsHandler creates a new ListArchivedStudentsHandler.
func NewListArchivedStudentsHandler(archives archive.Repository) *ListArchivedStudentsHandler {
	return &ListArchivedStudentsHandler{archives: archives}
}

// BySemester returns all snapshots of one semester.
func (h *ListArchivedStudentsHandler) BySemester(ctx context.Context, semesterID int) ([]*archive.ArchivedStudent, error) {
	return h.archives.GetBySemester(ctx, semesterID)
}

// ByStudent returns all snapshots of one student, newest first.
func (h *ListArchivedStudentsHandler) ByStudent(ctx context.Context, studentGUID string) ([]*archive.ArchivedStudent, error) {
	return h.archives.GetByStudent(ctx, studentGUID)
}
