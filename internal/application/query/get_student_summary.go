// Package query contains read operations (CQRS - Queries).
package query

import (
	"context"

	"github.com/physed-hub/phys-ed-journal/internal/domain/journal"
	"github.com/physed-hub/phys-ed-journal/internal/domain/student"
)

// StudentSummary is the read model for a student's current standing.
type StudentSummary struct {
	StudentGUID                 string
	FullName                    string
	GroupNumber                 string
	Visits                      int
	AdditionalPoints            int
	PointsForStandards          int
	HasDebtFromPreviousSemester bool
	CurrentSemesterName         string

	// VisitValue is the effective per-visit rate: the frozen one while
	// the student carries debt, the group rate otherwise.
	VisitValue float64

	// TotalPoints is the display total, clamped at zero. The raw signed
	// ledger stays intact for audit; only the presentation is clamped.
	TotalPoints float64
}

// GetStudentSummaryHandler builds a StudentSummary.
type GetStudentSummaryHandler struct {
	students student.Repository
	journal  journal.Repository
}

// NewGetStudentSummaryHandler creates a new GetStudentSummaryHandler.
func NewGetStudentSummaryHandler(students student.Repository, journalRepo journal.Repository) *GetStudentSummaryHandler {
	return &GetStudentSummaryHandler{students: students, journal: journalRepo}
}

// Handle returns the summary for one student.
func (h *GetStudentSummaryHandler) Handle(ctx context.Context, studentGUID string) (*StudentSummary, error) {
	snapshot, err := h.students.GetArchiveSnapshot(ctx, studentGUID)
	if err != nil {
		return nil, err
	}

	visitValue := snapshot.GroupVisitValue
	if snapshot.HasDebtFromPreviousSemester {
		visitValue = snapshot.ArchivedVisitValue
	}

	total := journal.CalculateTotalPoints(
		snapshot.Visits,
		visitValue,
		snapshot.AdditionalPoints,
		snapshot.PointsForStandards,
	)
	if total < 0 {
		total = 0
	}

	return &StudentSummary{
		StudentGUID:                 snapshot.StudentGUID,
		FullName:                    snapshot.FullName,
		GroupNumber:                 snapshot.GroupNumber,
		Visits:                      snapshot.Visits,
		AdditionalPoints:            snapshot.AdditionalPoints,
		PointsForStandards:          snapshot.PointsForStandards,
		HasDebtFromPreviousSemester: snapshot.HasDebtFromPreviousSemester,
		CurrentSemesterName:         snapshot.CurrentSemesterName,
		VisitValue:                  visitValue,
		TotalPoints:                 total,
	}, nil
}

// StudentHistory bundles the visit and points history for one student.
type StudentHistory struct {
	Visits []*journal.VisitRecord
	Points []*journal.PointsRecord
}

// GetStudentHistoryHandler reads the journal history of a student.
type GetStudentHistoryHandler struct {
	journal journal.Repository
}

// NewGetStudentHistoryHandler creates a new GetStudentHistoryHandler.
func NewGetStudentHistoryHandler(journalRepo journal.Repository) *GetStudentHistoryHandler {
	return &GetStudentHistoryHandler{journal: journalRepo}
}

// Handle returns up to limit newest records of each kind.
func (h *GetStudentHistoryHandler) Handle(ctx context.Context, studentGUID string, limit int) (*StudentHistory, error) {
	if limit <= 0 {
		limit = 50
	}

	visits, err := h.journal.GetVisitHistory(ctx, studentGUID, limit)
	if err != nil {
		return nil, err
	}

	points, err := h.journal.GetPointsHistory(ctx, studentGUID, limit)
	if err != nil {
		return nil, err
	}

	return &StudentHistory{Visits: visits, Points: points}, nil
}
