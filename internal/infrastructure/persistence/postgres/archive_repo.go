package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/physed-hub/phys-ed-journal/internal/domain/archive"
	"github.com/physed-hub/phys-ed-journal/internal/domain/shared"
	"github.com/physed-hub/phys-ed-journal/internal/domain/student"
)

// ArchiveRepository implements archive.Repository for PostgreSQL.
type ArchiveRepository struct {
	conn *Connection
}

// NewArchiveRepository creates a new ArchiveRepository.
func NewArchiveRepository(conn *Connection) *ArchiveRepository {
	return &ArchiveRepository{conn: conn}
}

// Archive closes the student's semester as one transaction: the snapshot
// insert goes first so the (student_guid, semester_id) primary key
// settles concurrent double archival before any row is touched.
func (r *ArchiveRepository) Archive(ctx context.Context, payload archive.ArchivePayload) (*archive.ArchivedStudent, error) {
	var archived archive.ArchivedStudent

	err := r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO archived_students (
				student_guid, semester_id, full_name, group_number,
				total_points, visits, archived_at
			) VALUES ($1, $2, $3, $4, $5, $6, NOW())
			RETURNING archived_at
		`,
			payload.StudentGUID, payload.SemesterID, payload.FullName,
			payload.GroupNumber, payload.TotalPoints, payload.Visits,
		).Scan(&archived.ArchivedAt)
		if err != nil {
			return err
		}

		// Visit rows archived on a previous pass are superseded by that
		// pass's snapshot and only take up index space.
		if _, err := tx.Exec(ctx,
			"DELETE FROM visits_history WHERE student_guid = $1 AND is_archived",
			payload.StudentGUID,
		); err != nil {
			return err
		}

		if _, err := tx.Exec(ctx,
			"UPDATE visits_history SET is_archived = TRUE WHERE student_guid = $1 AND NOT is_archived",
			payload.StudentGUID,
		); err != nil {
			return err
		}

		if _, err := tx.Exec(ctx,
			"UPDATE points_history SET is_archived = TRUE WHERE student_guid = $1 AND NOT is_archived",
			payload.StudentGUID,
		); err != nil {
			return err
		}

		tag, err := tx.Exec(ctx, `
			UPDATE students SET
				visits = 0,
				additional_points = 0,
				points_for_standards = 0,
				has_debt = FALSE,
				archived_visit_value = 0,
				current_semester_name = $1
			WHERE student_guid = $2
		`, payload.ActiveSemesterName, payload.StudentGUID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return student.ErrStudentNotFound
		}

		return nil
	})
	if err != nil {
		switch {
		case IsUniqueViolation(err):
			return nil, archive.ErrAlreadyArchived
		case errors.Is(err, student.ErrStudentNotFound):
			return nil, student.ErrStudentNotFound
		default:
			return nil, shared.Transient("archive.Archive", err)
		}
	}

	archived.StudentGUID = payload.StudentGUID
	archived.SemesterID = payload.SemesterID
	archived.FullName = payload.FullName
	archived.GroupNumber = payload.GroupNumber
	archived.TotalPoints = payload.TotalPoints
	archived.Visits = payload.Visits

	return &archived, nil
}

// MarkDebt flags the student as owing points and freezes the visit value
// at the group's current rate.
func (r *ArchiveRepository) MarkDebt(ctx context.Context, studentGUID string, visitValue float64) error {
	tag, err := r.conn.Exec(ctx, `
		UPDATE students SET has_debt = TRUE, archived_visit_value = $1
		WHERE student_guid = $2
	`, visitValue, studentGUID)
	if err != nil {
		return shared.Transient("archive.MarkDebt", err)
	}
	if tag.RowsAffected() == 0 {
		return student.ErrStudentNotFound
	}

	return nil
}

// GetBySemester returns the snapshots of the given semester.
func (r *ArchiveRepository) GetBySemester(ctx context.Context, semesterID int) ([]*archive.ArchivedStudent, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT student_guid, semester_id, full_name, group_number,
		       total_points, visits, archived_at
		FROM archived_students
		WHERE semester_id = $1
		ORDER BY full_name
	`, semesterID)
	if err != nil {
		return nil, shared.Transient("archive.GetBySemester", err)
	}
	return scanArchivedStudents(rows, "archive.GetBySemester")
}

// GetByStudent returns all snapshots of the student, newest first.
func (r *ArchiveRepository) GetByStudent(ctx context.Context, studentGUID string) ([]*archive.ArchivedStudent, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT student_guid, semester_id, full_name, group_number,
		       total_points, visits, archived_at
		FROM archived_students
		WHERE student_guid = $1
		ORDER BY archived_at DESC
	`, studentGUID)
	if err != nil {
		return nil, shared.Transient("archive.GetByStudent", err)
	}
	return scanArchivedStudents(rows, "archive.GetByStudent")
}

func scanArchivedStudents(rows pgx.Rows, op string) ([]*archive.ArchivedStudent, error) {
	defer rows.Close()

	var records []*archive.ArchivedStudent
	for rows.Next() {
		var rec archive.ArchivedStudent
		if err := rows.Scan(
			&rec.StudentGUID, &rec.SemesterID, &rec.FullName, &rec.GroupNumber,
			&rec.TotalPoints, &rec.Visits, &rec.ArchivedAt,
		); err != nil {
			return nil, shared.Transient(op, err)
		}
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, shared.Transient(op, err)
	}

	return records, nil
}
