package command

import (
	"context"
	"errors"

	"github.com/physed-hub/phys-ed-journal/internal/domain/archive"
	"github.com/physed-hub/phys-ed-journal/internal/domain/journal"
	"github.com/physed-hub/phys-ed-journal/internal/domain/semester"
	"github.com/physed-hub/phys-ed-journal/internal/domain/student"
)

// ══════════════════════════════════════════════════════════════════════════════
// ARCHIVE STUDENT COMMAND
// Closes a student's finished semester: snapshots the totals, flags the
// history rows, resets the live counters and moves the student into the
// active semester - all as one storage transaction. A student below the
// credit threshold is flagged with debt instead and keeps the counters.
// ══════════════════════════════════════════════════════════════════════════════

// ArchiveStudentCommand contains the data to archive a student.
type ArchiveStudentCommand struct {
	// StudentGUID identifies the student.
	StudentGUID string

	// ForceMode grants credit regardless of the total. Manual
	// administrative closes only, e.g. exempted students.
	ForceMode bool
}

// Validate validates the command.
func (c ArchiveStudentCommand) Validate() error {
	if c.StudentGUID == "" {
		return errors.New("archive_student: student_guid is required")
	}
	return nil
}

// ArchiveStudentHandler handles the ArchiveStudentCommand.
type ArchiveStudentHandler struct {
	students  student.Repository
	archives  archive.Repository
	semesters semester.Repository
	active    semester.ActiveProvider

	// pointThreshold is the credit threshold from configuration.
	pointThreshold int
}

// NewArchiveStudentHandler creates a new ArchiveStudentHandler.
func NewArchiveStudentHandler(
	students student.Repository,
	archives archive.Repository,
	semesters semester.Repository,
	active semester.ActiveProvider,
	pointThreshold int,
) *ArchiveStudentHandler {
	if pointThreshold <= 0 {
		pointThreshold = journal.DefaultPointAmount
	}

	return &ArchiveStudentHandler{
		students:       students,
		archives:       archives,
		semesters:      semesters,
		active:         active,
		pointThreshold: pointThreshold,
	}
}

// Handle executes the archive student command.
//
// Failure kinds: student.ErrStudentNotFound, archive.ErrAlreadyInActiveSemester
// and archive.ErrAlreadyArchived are input errors and must not be retried.
// *archive.NotEnoughPointsError is an expected outcome carrying the computed
// total. Anything wrapped as shared.ErrTransientStorage left no partial
// state and may be retried whole.
func (h *ArchiveStudentHandler) Handle(ctx context.Context, cmd ArchiveStudentCommand) (*archive.ArchivedStudent, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	snapshot, err := h.students.GetArchiveSnapshot(ctx, cmd.StudentGUID)
	if err != nil {
		return nil, err
	}

	active, err := h.active.Active(ctx)
	if err != nil {
		return nil, err
	}

	// Archival only applies to a semester that has already been closed
	// administratively; a student still stamped with the active semester
	// is mid-semester.
	if snapshot.CurrentSemesterName == active.Name {
		return nil, archive.ErrAlreadyInActiveSemester
	}

	visitValue := snapshot.GroupVisitValue
	if snapshot.HasDebtFromPreviousSemester {
		visitValue = snapshot.ArchivedVisitValue
	}

	totalPoints := journal.CalculateTotalPoints(
		snapshot.Visits,
		visitValue,
		snapshot.AdditionalPoints,
		snapshot.PointsForStandards,
	)

	if archive.Decide(totalPoints, h.pointThreshold, cmd.ForceMode) == archive.CarryDebt {
		// Freeze the rate the debt was accrued at: later visit-value
		// changes must not inflate or deflate the debt period.
		if err := h.archives.MarkDebt(ctx, cmd.StudentGUID, snapshot.GroupVisitValue); err != nil {
			return nil, err
		}
		return nil, &archive.NotEnoughPointsError{
			StudentGUID: cmd.StudentGUID,
			TotalPoints: totalPoints,
		}
	}

	closed, err := h.semesters.GetByName(ctx, snapshot.CurrentSemesterName)
	if err != nil {
		return nil, err
	}

	return h.archives.Archive(ctx, archive.ArchivePayload{
		StudentGUID:         cmd.StudentGUID,
		FullName:            snapshot.FullName,
		GroupNumber:         snapshot.GroupNumber,
		TotalPoints:         totalPoints,
		Visits:              snapshot.Visits,
		SemesterID:          closed.ID,
		ActiveSemesterName:  active.Name,
		CurrentSemesterName: snapshot.CurrentSemesterName,
	})
}
