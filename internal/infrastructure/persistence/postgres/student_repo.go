package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/physed-hub/phys-ed-journal/internal/domain/shared"
	"github.com/physed-hub/phys-ed-journal/internal/domain/student"
)

// StudentRepository implements student.Repository for PostgreSQL.
type StudentRepository struct {
	conn *Connection
}

// NewStudentRepository creates a new StudentRepository.
func NewStudentRepository(conn *Connection) *StudentRepository {
	return &StudentRepository{conn: conn}
}

// Create creates a new student.
func (r *StudentRepository) Create(ctx context.Context, s *student.Student) error {
	query := `
		INSERT INTO students (
			student_guid, full_name, group_number, visits, additional_points,
			points_for_standards, has_debt, archived_visit_value,
			current_semester_name, is_active
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.conn.Exec(ctx, query,
		s.StudentGUID,
		s.FullName,
		s.GroupNumber,
		s.Visits,
		s.AdditionalPoints,
		s.PointsForStandards,
		s.HasDebtFromPreviousSemester,
		s.ArchivedVisitValue,
		s.CurrentSemesterName,
		s.IsActive,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return student.ErrStudentAlreadyExists
		}
		return shared.Transient("students.Create", err)
	}

	return nil
}

// GetByGUID returns a student by GUID.
func (r *StudentRepository) GetByGUID(ctx context.Context, guid string) (*student.Student, error) {
	query := `
		SELECT student_guid, full_name, group_number, visits, additional_points,
		       points_for_standards, has_debt, archived_visit_value,
		       current_semester_name, is_active
		FROM students
		WHERE student_guid = $1
	`

	var s student.Student
	err := r.conn.QueryRow(ctx, query, guid).Scan(
		&s.StudentGUID,
		&s.FullName,
		&s.GroupNumber,
		&s.Visits,
		&s.AdditionalPoints,
		&s.PointsForStandards,
		&s.HasDebtFromPreviousSemester,
		&s.ArchivedVisitValue,
		&s.CurrentSemesterName,
		&s.IsActive,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, student.ErrStudentNotFound
		}
		return nil, shared.Transient("students.GetByGUID", err)
	}

	return &s, nil
}

// Exists checks whether a student exists.
func (r *StudentRepository) Exists(ctx context.Context, guid string) (bool, error) {
	var exists bool
	err := r.conn.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM students WHERE student_guid = $1)", guid,
	).Scan(&exists)
	if err != nil {
		return false, shared.Transient("students.Exists", err)
	}
	return exists, nil
}

// GetArchiveSnapshot reads the student's counters together with the group
// visit value in one point-in-time query.
func (r *StudentRepository) GetArchiveSnapshot(ctx context.Context, guid string) (*student.ArchiveSnapshot, error) {
	query := `
		SELECT s.student_guid, s.full_name, s.group_number, g.visit_value,
		       s.visits, s.additional_points, s.points_for_standards,
		       s.has_debt, s.archived_visit_value, s.current_semester_name
		FROM students s
		JOIN groups g ON g.group_name = s.group_number
		WHERE s.student_guid = $1
	`

	var snap student.ArchiveSnapshot
	err := r.conn.QueryRow(ctx, query, guid).Scan(
		&snap.StudentGUID,
		&snap.FullName,
		&snap.GroupNumber,
		&snap.GroupVisitValue,
		&snap.Visits,
		&snap.AdditionalPoints,
		&snap.PointsForStandards,
		&snap.HasDebtFromPreviousSemester,
		&snap.ArchivedVisitValue,
		&snap.CurrentSemesterName,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, student.ErrStudentNotFound
		}
		return nil, shared.Transient("students.GetArchiveSnapshot", err)
	}

	return &snap, nil
}

// FindBySemesterOtherThan returns GUIDs of active students whose current
// semester differs from the given one.
func (r *StudentRepository) FindBySemesterOtherThan(ctx context.Context, semesterName string, limit int) ([]string, error) {
	query := `
		SELECT student_guid FROM students
		WHERE is_active AND current_semester_name <> $1
		ORDER BY student_guid
		LIMIT $2
	`

	rows, err := r.conn.Query(ctx, query, semesterName, limit)
	if err != nil {
		return nil, shared.Transient("students.FindBySemesterOtherThan", err)
	}
	defer rows.Close()

	var guids []string
	for rows.Next() {
		var guid string
		if err := rows.Scan(&guid); err != nil {
			return nil, shared.Transient("students.FindBySemesterOtherThan", err)
		}
		guids = append(guids, guid)
	}
	if err := rows.Err(); err != nil {
		return nil, shared.Transient("students.FindBySemesterOtherThan", err)
	}

	return guids, nil
}

// UpsertBatch creates or updates a batch of students as one transaction.
// Counters of existing students are left untouched: the directory only
// owns identity fields.
func (r *StudentRepository) UpsertBatch(ctx context.Context, students []*student.Student) error {
	if len(students) == 0 {
		return nil
	}

	err := r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		query := `
			INSERT INTO students (
				student_guid, full_name, group_number,
				current_semester_name, is_active
			) VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (student_guid) DO UPDATE SET
				full_name = EXCLUDED.full_name,
				group_number = EXCLUDED.group_number,
				is_active = EXCLUDED.is_active
		`
		for _, s := range students {
			if _, err := tx.Exec(ctx, query,
				s.StudentGUID, s.FullName, s.GroupNumber,
				s.CurrentSemesterName, s.IsActive,
			); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return shared.Transient("students.UpsertBatch", err)
	}

	return nil
}
