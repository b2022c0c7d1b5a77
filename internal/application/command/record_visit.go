// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/physed-hub/phys-ed-journal/internal/domain/journal"
	"github.com/physed-hub/phys-ed-journal/internal/domain/student"
	"github.com/physed-hub/phys-ed-journal/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECORD VISIT COMMAND
// Records a single visit for a student. A visit is only accepted inside the
// validity window and at most once per calendar date; the counter increment
// and the history row are written as one transaction.
// ══════════════════════════════════════════════════════════════════════════════

// RecordVisitCommand contains the data to record a visit.
type RecordVisitCommand struct {
	// StudentGUID identifies the student.
	StudentGUID string

	// TeacherGUID identifies the teacher who marked the visit.
	TeacherGUID string

	// Date is the calendar date of the visit.
	Date time.Time
}

// Validate validates the command.
func (c RecordVisitCommand) Validate() error {
	if c.StudentGUID == "" {
		return errors.New("record_visit: student_guid is required")
	}
	if c.TeacherGUID == "" {
		return errors.New("record_visit: teacher_guid is required")
	}
	if c.Date.IsZero() {
		return errors.New("record_visit: date is required")
	}
	return nil
}

// RecordVisitHandler handles the RecordVisitCommand.
type RecordVisitHandler struct {
	students student.Repository
	journal  journal.Repository

	// now is injectable for tests; defaults to timeutil.Now so the
	// validity window follows Moscow calendar days regardless of the
	// server zone.
	now func() time.Time
}

// NewRecordVisitHandler creates a new RecordVisitHandler.
func NewRecordVisitHandler(students student.Repository, journalRepo journal.Repository) *RecordVisitHandler {
	return &RecordVisitHandler{
		students: students,
		journal:  journalRepo,
		now:      timeutil.Now,
	}
}

// WithClock overrides the time source. Used by tests.
func (h *RecordVisitHandler) WithClock(now func() time.Time) *RecordVisitHandler {
	h.now = now
	return h
}

// Handle executes the record visit command. It returns the created record
// on success, or a typed failure: ActionFromFutureError, VisitExpiredError,
// VisitAlreadyExistsError or student.ErrStudentNotFound.
func (h *RecordVisitHandler) Handle(ctx context.Context, cmd RecordVisitCommand) (*journal.VisitRecord, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	// Temporal check over the student's recorded visit dates. The storage
	// layer enforces uniqueness again inside the transaction, so a race
	// between two identical commands still yields exactly one record.
	dates, err := h.journal.GetVisitDates(ctx, cmd.StudentGUID)
	if err != nil {
		return nil, err
	}

	status := journal.ValidateVisitDate(cmd.Date, h.now(), dates)
	if err := status.Err(cmd.Date); err != nil {
		return nil, err
	}

	exists, err := h.students.Exists(ctx, cmd.StudentGUID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, student.ErrStudentNotFound
	}

	record := &journal.VisitRecord{
		ID:          uuid.NewString(),
		StudentGUID: cmd.StudentGUID,
		TeacherGUID: cmd.TeacherGUID,
		Date:        cmd.Date,
	}

	if err := h.journal.AddVisit(ctx, record); err != nil {
		return nil, err
	}

	return record, nil
}
