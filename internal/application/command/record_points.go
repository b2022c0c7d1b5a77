package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/physed-hub/phys-ed-journal/internal/domain/journal"
	"github.com/physed-hub/phys-ed-journal/internal/domain/semester"
	"github.com/physed-hub/phys-ed-journal/internal/domain/student"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECORD POINTS COMMAND
// Adds bonus points or a correction to a student. Unlike visits, point
// records carry no temporal restriction: corrections may be backdated or
// batched. The delta may be negative.
// ══════════════════════════════════════════════════════════════════════════════

// RecordPointsCommand contains the data to record a points event.
type RecordPointsCommand struct {
	// StudentGUID identifies the student.
	StudentGUID string

	// TeacherGUID identifies the teacher who granted the points.
	TeacherGUID string

	// Points is the signed delta. Negative values are corrections.
	Points int

	// Date is the date the points were earned.
	Date time.Time

	// WorkType tags the kind of work the points were earned for.
	WorkType journal.WorkType

	// Comment is an optional free-form note.
	Comment string
}

// Validate validates the command.
func (c RecordPointsCommand) Validate() error {
	if c.StudentGUID == "" {
		return errors.New("record_points: student_guid is required")
	}
	if c.TeacherGUID == "" {
		return errors.New("record_points: teacher_guid is required")
	}
	if c.Points == 0 {
		return errors.New("record_points: points delta must not be zero")
	}
	if c.Date.IsZero() {
		return errors.New("record_points: date is required")
	}
	if c.WorkType == journal.WorkTypeStandards {
		return errors.New("record_points: standards points go through RecordStandards")
	}
	if !c.WorkType.IsValid() {
		return fmt.Errorf("record_points: unknown work type: %s", c.WorkType)
	}
	return nil
}

// RecordPointsHandler handles the RecordPointsCommand.
type RecordPointsHandler struct {
	students  student.Repository
	journal   journal.Repository
	semesters semester.ActiveProvider
}

// NewRecordPointsHandler creates a new RecordPointsHandler.
func NewRecordPointsHandler(
	students student.Repository,
	journalRepo journal.Repository,
	semesters semester.ActiveProvider,
) *RecordPointsHandler {
	return &RecordPointsHandler{
		students:  students,
		journal:   journalRepo,
		semesters: semesters,
	}
}

// Handle executes the record points command. The new record is tagged with
// the currently active semester.
func (h *RecordPointsHandler) Handle(ctx context.Context, cmd RecordPointsCommand) (*journal.PointsRecord, error) {
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
		WorkType:    cmd.WorkType,
		Comment:     cmd.Comment,
		SemesterID:  active.ID,
	}

	if err := h.journal.AddPoints(ctx, record); err != nil {
		return nil, err
	}

	return record, nil
}
