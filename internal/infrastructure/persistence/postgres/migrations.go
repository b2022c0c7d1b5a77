package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATIONS
// ══════════════════════════════════════════════════════════════════════════════

// Migration represents a database migration.
type Migration struct {
	Version int
	Name    string
	UpSQL   string
	DownSQL string
}

// Migrator handles database migrations.
type Migrator struct {
	conn       *Connection
	migrations []Migration
	tableName  string
}

// NewMigrator creates a new migrator with embedded migrations.
func NewMigrator(conn *Connection) *Migrator {
	return &Migrator{
		conn:       conn,
		migrations: GetMigrations(),
		tableName:  "schema_migrations",
	}
}

// EnsureMigrationTable creates the migration tracking table if it doesn't exist.
func (m *Migrator) EnsureMigrationTable(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		)
	`, m.tableName)

	_, err := m.conn.Exec(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	return nil
}

// GetAppliedMigrations returns all applied migration versions.
func (m *Migrator) GetAppliedMigrations(ctx context.Context) (map[int]time.Time, error) {
	query := fmt.Sprintf("SELECT version, applied_at FROM %s ORDER BY version", m.tableName)

	rows, err := m.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query applied migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[int]time.Time)
	for rows.Next() {
		var version int
		var appliedAt time.Time

		if err := rows.Scan(&version, &appliedAt); err != nil {
			return nil, fmt.Errorf("failed to scan migration row: %w", err)
		}

		applied[version] = appliedAt
	}

	return applied, rows.Err()
}

// Migrate applies all pending migrations.
func (m *Migrator) Migrate(ctx context.Context) error {
	if err := m.EnsureMigrationTable(ctx); err != nil {
		return err
	}

	applied, err := m.GetAppliedMigrations(ctx)
	if err != nil {
		return err
	}

	for _, mig := range m.migrations {
		if _, isApplied := applied[mig.Version]; isApplied {
			continue
		}

		if mig.UpSQL == "" {
			return fmt.Errorf("%w: missing up SQL for migration %d", ErrMigrationFailed, mig.Version)
		}

		err := m.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, mig.UpSQL); err != nil {
				return fmt.Errorf("failed to execute migration %d: %w", mig.Version, err)
			}

			insertQuery := fmt.Sprintf(
				"INSERT INTO %s (version, name) VALUES ($1, $2)",
				m.tableName,
			)
			_, err := tx.Exec(ctx, insertQuery, mig.Version, mig.Name)
			return err
		})
		if err != nil {
			return fmt.Errorf("%w: version %d: %v", ErrMigrationFailed, mig.Version, err)
		}
	}

	return nil
}

// GetMigrations returns all embedded migrations.
func GetMigrations() []Migration {
	return []Migration{
		{
			Version: 1,
			Name:    "create_core_tables",
			UpSQL:   migration001Up,
			DownSQL: migration001Down,
		},
		{
			Version: 2,
			Name:    "create_history_tables",
			UpSQL:   migration002Up,
			DownSQL: migration002Down,
		},
		{
			Version: 3,
			Name:    "create_archive",
			UpSQL:   migration003Up,
			DownSQL: migration003Down,
		},
	}
}

const migration001Up = `
CREATE TABLE IF NOT EXISTS groups (
    group_name   TEXT PRIMARY KEY,
    visit_value  DOUBLE PRECISION NOT NULL DEFAULT 2.0 CHECK (visit_value > 0),
    curator_guid TEXT
);

CREATE TABLE IF NOT EXISTS semesters (
    id        SERIAL PRIMARY KEY,
    name      TEXT NOT NULL UNIQUE,
    is_active BOOLEAN NOT NULL DEFAULT FALSE
);

-- At most one active semester at any time.
CREATE UNIQUE INDEX IF NOT EXISTS semesters_single_active_idx
    ON semesters (is_active) WHERE is_active;

CREATE TABLE IF NOT EXISTS students (
    student_guid          TEXT PRIMARY KEY,
    full_name             TEXT NOT NULL,
    group_number          TEXT NOT NULL REFERENCES groups (group_name),
    visits                INTEGER NOT NULL DEFAULT 0 CHECK (visits >= 0),
    additional_points     INTEGER NOT NULL DEFAULT 0,
    points_for_standards  INTEGER NOT NULL DEFAULT 0 CHECK (points_for_standards >= 0 AND points_for_standards <= 30),
    has_debt              BOOLEAN NOT NULL DEFAULT FALSE,
    archived_visit_value  DOUBLE PRECISION NOT NULL DEFAULT 0,
    current_semester_name TEXT NOT NULL,
    is_active             BOOLEAN NOT NULL DEFAULT TRUE
);

CREATE INDEX IF NOT EXISTS students_semester_idx ON students (current_semester_name);
`

const migration001Down = `
DROP TABLE IF EXISTS students;
DROP TABLE IF EXISTS semesters;
DROP TABLE IF EXISTS groups;
`

const migration002Up = `
CREATE TABLE IF NOT EXISTS visits_history (
    id           TEXT PRIMARY KEY,
    student_guid TEXT NOT NULL REFERENCES students (student_guid),
    teacher_guid TEXT NOT NULL,
    date         DATE NOT NULL,
    is_archived  BOOLEAN NOT NULL DEFAULT FALSE
);

-- The duplicate-visit concurrency contract: among non-archived rows at most
-- one visit per (student, date). Losing a race surfaces as 23505.
CREATE UNIQUE INDEX IF NOT EXISTS visits_history_student_date_key
    ON visits_history (student_guid, date) WHERE NOT is_archived;

CREATE TABLE IF NOT EXISTS points_history (
    id           TEXT PRIMARY KEY,
    student_guid TEXT NOT NULL REFERENCES students (student_guid),
    teacher_guid TEXT NOT NULL,
    points       INTEGER NOT NULL,
    date         DATE NOT NULL,
    work_type    TEXT NOT NULL,
    comment      TEXT,
    semester_id  INTEGER NOT NULL REFERENCES semesters (id),
    is_archived  BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE INDEX IF NOT EXISTS points_history_student_idx ON points_history (student_guid);
CREATE INDEX IF NOT EXISTS visits_history_student_idx ON visits_history (student_guid);
`

const migration002Down = `
DROP TABLE IF EXISTS points_history;
DROP TABLE IF EXISTS visits_history;
`

const migration003Up = `
CREATE TABLE IF NOT EXISTS archived_students (
    student_guid TEXT NOT NULL REFERENCES students (student_guid),
    semester_id  INTEGER NOT NULL REFERENCES semesters (id),
    full_name    TEXT NOT NULL,
    group_number TEXT NOT NULL,
    total_points DOUBLE PRECISION NOT NULL,
    visits       INTEGER NOT NULL DEFAULT 0,
    archived_at  TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    PRIMARY KEY (student_guid, semester_id)
);

CREATE INDEX IF NOT EXISTS archived_students_semester_idx ON archived_students (semester_id);
`

const migration003Down = `
DROP TABLE IF EXISTS archived_students;
`
