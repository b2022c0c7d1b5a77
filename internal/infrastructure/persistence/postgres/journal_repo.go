package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/physed-hub/phys-ed-journal/internal/domain/journal"
	"github.com/physed-hub/phys-ed-journal/internal/domain/shared"
	"github.com/physed-hub/phys-ed-journal/internal/domain/student"
)

// JournalRepository implements journal.Repository for PostgreSQL.
//
// Each Add* call is one transaction: the student counter update and the
// history insert commit together or not at all. The partial unique index
// on (student_guid, date) for non-archived visits backs the duplicate
// contract, so of two concurrent inserts exactly one survives.
type JournalRepository struct {
	conn *Connection
}

// NewJournalRepository creates a new JournalRepository.
func NewJournalRepository(conn *Connection) *JournalRepository {
	return &JournalRepository{conn: conn}
}

// AddVisit atomically increments the student's visit counter and inserts
// the visit record.
func (r *JournalRepository) AddVisit(ctx context.Context, record *journal.VisitRecord) error {
	err := r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			"UPDATE students SET visits = visits + 1 WHERE student_guid = $1",
			record.StudentGUID,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return student.ErrStudentNotFound
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO visits_history (id, student_guid, teacher_guid, date, is_archived)
			VALUES ($1, $2, $3, $4, FALSE)
		`, record.ID, record.StudentGUID, record.TeacherGUID, record.Date)
		return err
	})
	if err != nil {
		switch {
		case IsUniqueViolation(err):
			return &journal.VisitAlreadyExistsError{Date: record.Date}
		case errors.Is(err, student.ErrStudentNotFound):
			return student.ErrStudentNotFound
		default:
			return shared.Transient("journal.AddVisit", err)
		}
	}

	return nil
}

// AddPoints atomically applies the delta to the student's additional
// points and inserts the history record.
func (r *JournalRepository) AddPoints(ctx context.Context, record *journal.PointsRecord) error {
	err := r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			"UPDATE students SET additional_points = additional_points + $1 WHERE student_guid = $2",
			record.Points, record.StudentGUID,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return student.ErrStudentNotFound
		}

		return insertPointsRecord(ctx, tx, record)
	})
	if err != nil {
		if errors.Is(err, student.ErrStudentNotFound) {
			return student.ErrStudentNotFound
		}
		return shared.Transient("journal.AddPoints", err)
	}

	return nil
}

// AddStandardsPoints atomically applies the delta to the student's
// standards points, honoring the cap, and inserts the history record.
func (r *JournalRepository) AddStandardsPoints(ctx context.Context, record *journal.PointsRecord) error {
	err := r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		// Guarded update: the WHERE clause keeps the counter under the
		// cap even against a concurrent award.
		tag, err := tx.Exec(ctx, `
			UPDATE students
			SET points_for_standards = points_for_standards + $1
			WHERE student_guid = $2 AND points_for_standards + $1 <= $3
		`, record.Points, record.StudentGUID, journal.MaxPointsForStandards)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			// Distinguish the missing student from the cap.
			var exists bool
			if err := tx.QueryRow(ctx,
				"SELECT EXISTS (SELECT 1 FROM students WHERE student_guid = $1)",
				record.StudentGUID,
			).Scan(&exists); err != nil {
				return err
			}
			if !exists {
				return student.ErrStudentNotFound
			}
			return journal.ErrStandardsCapExceeded
		}

		return insertPointsRecord(ctx, tx, record)
	})
	if err != nil {
		switch {
		case errors.Is(err, student.ErrStudentNotFound):
			return student.ErrStudentNotFound
		case errors.Is(err, journal.ErrStandardsCapExceeded):
			return journal.ErrStandardsCapExceeded
		default:
			return shared.Transient("journal.AddStandardsPoints", err)
		}
	}

	return nil
}

func insertPointsRecord(ctx context.Context, tx pgx.Tx, record *journal.PointsRecord) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO points_history (
			id, student_guid, teacher_guid, points, date,
			work_type, comment, semester_id, is_archived
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, FALSE)
	`,
		record.ID, record.StudentGUID, record.TeacherGUID, record.Points,
		record.Date, string(record.WorkType), record.Comment, record.SemesterID,
	)
	return err
}

// GetVisitDates returns dates of the student's non-archived visits.
func (r *JournalRepository) GetVisitDates(ctx context.Context, studentGUID string) ([]time.Time, error) {
	rows, err := r.conn.Query(ctx,
		"SELECT date FROM visits_history WHERE student_guid = $1 AND NOT is_archived",
		studentGUID,
	)
	if err != nil {
		return nil, shared.Transient("journal.GetVisitDates", err)
	}
	defer rows.Close()

	var dates []time.Time
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, shared.Transient("journal.GetVisitDates", err)
		}
		dates = append(dates, d)
	}
	if err := rows.Err(); err != nil {
		return nil, shared.Transient("journal.GetVisitDates", err)
	}

	return dates, nil
}

// GetVisitHistory returns the student's visits, newest first.
func (r *JournalRepository) GetVisitHistory(ctx context.Context, studentGUID string, limit int) ([]*journal.VisitRecord, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT id, student_guid, teacher_guid, date, is_archived
		FROM visits_history
		WHERE student_guid = $1
		ORDER BY date DESC
		LIMIT $2
	`, studentGUID, limit)
	if err != nil {
		return nil, shared.Transient("journal.GetVisitHistory", err)
	}
	defer rows.Close()

	var records []*journal.VisitRecord
	for rows.Next() {
		var rec journal.VisitRecord
		if err := rows.Scan(&rec.ID, &rec.StudentGUID, &rec.TeacherGUID, &rec.Date, &rec.IsArchived); err != nil {
			return nil, shared.Transient("journal.GetVisitHistory", err)
		}
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, shared.Transient("journal.GetVisitHistory", err)
	}

	return records, nil
}

// GetPointsHistory returns the student's point awards, newest first.
func (r *JournalRepository) GetPointsHistory(ctx context.Context, studentGUID string, limit int) ([]*journal.PointsRecord, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT id, student_guid, teacher_guid, points, date,
		       work_type, comment, semester_id, is_archived
		FROM points_history
		WHERE student_guid = $1
		ORDER BY date DESC
		LIMIT $2
	`, studentGUID, limit)
	if err != nil {
		return nil, shared.Transient("journal.GetPointsHistory", err)
	}
	defer rows.Close()

	var records []*journal.PointsRecord
	for rows.Next() {
		var rec journal.PointsRecord
		var workType string
		if err := rows.Scan(
			&rec.ID, &rec.StudentGUID, &rec.TeacherGUID, &rec.Points, &rec.Date,
			&workType, &rec.Comment, &rec.SemesterID, &rec.IsArchived,
		); err != nil {
			return nil, shared.Transient("journal.GetPointsHistory", err)
		}
		rec.WorkType = journal.WorkType(workType)
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, shared.Transient("journal.GetPointsHistory", err)
	}

	return records, nil
}
