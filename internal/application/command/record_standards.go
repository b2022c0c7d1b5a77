package command

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/physed-hub/phys-ed-journal/internal/domain/journal"
	"github.com/physed-hub/phys-ed-journal/internal/domain/semester"
	"github.com/physed-hub/phys-ed-journal/internal/domain/student"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECORD STANDARDS COMMAND
// Adds points for passed standards. Standards points accumulate in their own
// counter capped at journal.MaxPointsForStandards.
// ══════════════════════════════════════════════════════════════════════════════

// RecordStandardsCommand contains the data to record standards points.
type RecordStandardsCommand struct {
	// StudentGUID identifies the student.
	StudentGUID string

	// TeacherGUID identifies the teacher who accepted the standard.
	TeacherGUID string

	// Points is the amount earned, strictly positive.
	Points int

	// Date is the date the standard was passed.
	Date time.Time

	// Comment is an optional free-form note.
	Comment string
}

// Validate validates the command.
func (c RecordStandardsCommand) Validate() error {
	if c.StudentGUID == "" {
		return errors.New("record_standards: student_guid is required")
	}
	if c.TeacherGUID == "" {
		return errors.New("record_standards: teacher_guid is required")
	}
	if c.Points <= 0 {
		return errors.New("record_standards: points must be positive")
	}
	if c.Points > journal.MaxPointsForStandards {
		return errors.New("record_standards: points exceed the standards cap")
	}
	if c.Date.IsZero() {
		return errors.New("record_standards: date is required")
	}
	return nil
}

// RecordStandardsHandler handles the RecordStandardsCommand.
type RecordStandardsHandler struct {
	students  student.Repository
	journal   journal.Repository
	semesters semester.ActiveProvider
}

// NewRecordStandardsHandler creates a new RecordStandardsHandler.
func NewRecordStandardsHandler(
	students student.Repository,
	journalRepo journal.Repository,
	semesters semester.ActiveProvider,
) *RecordStandardsHandler {
	return &RecordStandardsHandler{
		students:  students,
		journal:   journalRepo,
		semesters: semesters,
	}
}

// Handle executes the record standards command. Returns
// journal.ErrStandardsCapExceeded when the cap would be crossed.
func (h *RecordStandardsHandler) Handle(ctx context.Context, cmd RecordStandardsCommand) (*journal.PointsRecord, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	exists, err := h.students.Exists(ctx, cmd.StudentGUID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, student.ErrStudentNotFound
	}

	active, err := h.semesters.Active(ctx)
	if err != nil {
		return nil, err
	}

	record := &journal.PointsRecord{
		ID:          uuid.NewString(),
		StudentGUID: cmd.StudentGUID,
		TeacherGUID: cmd.TeacherGUID,
		Points:      cmd.Points,
		Date:        cmd.Date,
		WorkType:    journal.WorkTypeStandards,
		Comment:     cmd.Comment,
		SemesterID:  active.ID,
	}

	if err := h.journal.AddStandardsPoints(ctx, record); err != nil {
		return nil, err
	}

	return record, nil
}
