package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/physed-hub/phys-ed-journal/internal/domain/semester"
	"github.com/physed-hub/phys-ed-journal/internal/domain/shared"
)

// SemesterRepository implements semester.Repository for PostgreSQL.
// The partial unique index on is_active guarantees at most one active
// semester even against concurrent StartNew calls.
type SemesterRepository struct {
	conn *Connection
}

// NewSemesterRepository creates a new SemesterRepository.
func NewSemesterRepository(conn *Connection) *SemesterRepository {
	return &SemesterRepository{conn: conn}
}

// GetActive returns the currently active semester.
func (r *SemesterRepository) GetActive(ctx context.Context) (*semester.Semester, error) {
	return r.getOne(ctx, "semesters.GetActive",
		"SELECT id, name, is_active FROM semesters WHERE is_active")
}

// GetByID returns a semester by ID.
func (r *SemesterRepository) GetByID(ctx context.Context, id int) (*semester.Semester, error) {
	return r.getOne(ctx, "semesters.GetByID",
		"SELECT id, name, is_active FROM semesters WHERE id = $1", id)
}

// GetByName returns a semester by name.
func (r *SemesterRepository) GetByName(ctx context.Context, name string) (*semester.Semester, error) {
	return r.getOne(ctx, "semesters.GetByName",
		"SELECT id, name, is_active FROM semesters WHERE name = $1", name)
}

func (r *SemesterRepository) getOne(ctx context.Context, op, query string, args ...any) (*semester.Semester, error) {
	var s semester.Semester
	err := r.conn.QueryRow(ctx, query, args...).Scan(&s.ID, &s.Name, &s.IsActive)
	if err != nil {
		if IsNoRows(err) {
			return nil, semester.ErrSemesterNotFound
		}
		return nil, shared.Transient(op, err)
	}
	return &s, nil
}

// StartNew atomically deactivates the current semester and creates a new
// active one with the given name.
func (r *SemesterRepository) StartNew(ctx context.Context, name string) (*semester.Semester, error) {
	var s semester.Semester

	err := r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			"UPDATE semesters SET is_active = FALSE WHERE is_active",
		); err != nil {
			return err
		}

		return tx.QueryRow(ctx,
			"INSERT INTO semesters (name, is_active) VALUES ($1, TRUE) RETURNING id, name, is_active",
			name,
		).Scan(&s.ID, &s.Name, &s.IsActive)
	})
	if err != nil {
		if IsUniqueViolation(err) {
			return nil, semester.ErrSemesterAlreadyActive
		}
		return nil, shared.Transient("semesters.StartNew", err)
	}

	return &s, nil
}
