package command

import (
	"context"
	"fmt"

	"github.com/physed-hub/phys-ed-journal/internal/domain/semester"
	"github.com/physed-hub/phys-ed-journal/internal/domain/student"
)

// ══════════════════════════════════════════════════════════════════════════════
// SYNC STUDENTS COMMAND
// Bulk refresh of student info from the university directory. The refresh is
// decomposed into independent per-batch transactions: one failed batch does
// not roll back batches already committed.
// ══════════════════════════════════════════════════════════════════════════════

// DirectoryStudent is one student row as served by the directory.
type DirectoryStudent struct {
	GUID        string
	FullName    string
	GroupNumber string
	IsActive    bool
}

// StudentDirectory pages through the university student directory.
type StudentDirectory interface {
	// FetchPage returns one page of students. An empty slice means the
	// directory is exhausted.
	FetchPage(ctx context.Context, offset, limit int) ([]DirectoryStudent, error)
}

// SyncStudentsCommand contains the data to run a bulk refresh.
type SyncStudentsCommand struct {
	// BatchSize is the page and transaction size; defaults to 250.
	BatchSize int
}

// SyncStudentsResult contains per-batch results of a refresh run.
type SyncStudentsResult struct {
	TotalStudents int
	BatchCount    int
	FailedBatches int
	Errors        []error
}

// SyncStudentsHandler handles the SyncStudentsCommand.
type SyncStudentsHandler struct {
	directory StudentDirectory
	students  student.Repository
	active    semester.ActiveProvider
}

// NewSyncStudentsHandler creates a new SyncStudentsHandler.
func NewSyncStudentsHandler(
	directory StudentDirectory,
	students student.Repository,
	active semester.ActiveProvider,
) *SyncStudentsHandler {
	return &SyncStudentsHandler{
		directory: directory,
		students:  students,
		active:    active,
	}
}

// Handle executes the bulk refresh.
func (h *SyncStudentsHandler) Handle(ctx context.Context, cmd SyncStudentsCommand) (*SyncStudentsResult, error) {
	batchSize := cmd.BatchSize
	if batchSize <= 0 {
		batchSize = 250
	}

	active, err := h.active.Active(ctx)
	if err != nil {
		return nil, err
	}

	result := &SyncStudentsResult{}

	for offset := 0; ; offset += batchSize {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		page, err := h.directory.FetchPage(ctx, offset, batchSize)
		if err != nil {
			return result, fmt.Errorf("sync_students: fetch page at %d: %w", offset, err)
		}
		if len(page) == 0 {
			break
		}

		batch := make([]*student.Student, 0, len(page))
		for _, row := range page {
			s, err := student.NewStudent(row.GUID, row.FullName, row.GroupNumber, active.Name)
			if err != nil {
				result.Errors = append(result.Errors, fmt.Errorf("sync_students: student %s: %w", row.GUID, err))
				continue
			}
			s.IsActive = row.IsActive
			batch = append(batch, s)
		}

		result.BatchCount++
		if err := h.students.UpsertBatch(ctx, batch); err != nil {
			result.FailedBatches++
			result.Errors = append(result.Errors, fmt.Errorf("sync_students: batch at %d: %w", offset, err))
			continue
		}
		result.TotalStudents += len(batch)

		if len(page) < batchSize {
			break
		}
	}

	return result, nil
}
