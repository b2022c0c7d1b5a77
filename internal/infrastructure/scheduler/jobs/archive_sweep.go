// Package jobs contains the scheduled jobs of the points journal.
package jobs

import (
	"context"
	"errors"
	"fmt"

	"github.com/physed-hub/phys-ed-journal/internal/application/command"
	"github.com/physed-hub/phys-ed-journal/internal/domain/archive"
	"github.com/physed-hub/phys-ed-journal/internal/domain/semester"
	"github.com/physed-hub/phys-ed-journal/internal/domain/shared"
	"github.com/physed-hub/phys-ed-journal/internal/domain/student"
	"github.com/physed-hub/phys-ed-journal/pkg/logger"
	"github.com/physed-hub/phys-ed-journal/pkg/retry"
)

// sweepBatchSize bounds one sweep pass. Students left over are picked up
// by the next run.
const sweepBatchSize = 500

// ArchiveSweepJob walks students still stamped with a closed semester and
// archives each one. Every student is an independent unit of work: a
// failure is logged and the sweep moves on.
type ArchiveSweepJob struct {
	students student.Repository
	active   semester.ActiveProvider
	archiver *command.ArchiveStudentHandler
	retrier  *retry.Retrier
	log      *logger.Logger
}

// NewArchiveSweepJob creates a new ArchiveSweepJob.
func NewArchiveSweepJob(
	students student.Repository,
	active semester.ActiveProvider,
	archiver *command.ArchiveStudentHandler,
	log *logger.Logger,
) *ArchiveSweepJob {
	if log == nil {
		log = logger.Default()
	}
	return &ArchiveSweepJob{
		students: students,
		active:   active,
		archiver: archiver,
		retrier:  retry.StorageRetrier(retry.WithRetryIf(shared.IsTransient)),
		log:      log.With(logger.Component("archive_sweep")),
	}
}

// Name returns the job name.
func (j *ArchiveSweepJob) Name() string {
	return "archive_sweep"
}

// Run executes one sweep pass.
func (j *ArchiveSweepJob) Run(ctx context.Context) error {
	active, err := j.active.Active(ctx)
	if err != nil {
		if errors.Is(err, semester.ErrSemesterNotFound) {
			j.log.Info("no active semester, nothing to sweep")
			return nil
		}
		return fmt.Errorf("archive_sweep: resolve active semester: %w", err)
	}

	guids, err := j.students.FindBySemesterOtherThan(ctx, active.Name, sweepBatchSize)
	if err != nil {
		return fmt.Errorf("archive_sweep: list stale students: %w", err)
	}
	if len(guids) == 0 {
		return nil
	}

	var archived, debts, failures int
	for _, guid := range guids {
		if err := ctx.Err(); err != nil {
			return err
		}

		// Transient storage failures are retried in place; everything
		// else falls through to the classification below.
		err := j.retrier.Do(ctx, func(ctx context.Context) error {
			_, handleErr := j.archiver.Handle(ctx, command.ArchiveStudentCommand{StudentGUID: guid})
			return handleErr
		})

		var notEnough *archive.NotEnoughPointsError
		switch {
		case err == nil:
			archived++
		case errors.As(err, &notEnough):
			// Expected outcome: the student carries the debt into the
			// new semester and stays in the sweep set.
			debts++
		case errors.Is(err, archive.ErrAlreadyInActiveSemester),
			errors.Is(err, archive.ErrAlreadyArchived):
			// Archived concurrently, nothing left to do.
		default:
			failures++
			j.log.Error("failed to archive student",
				logger.StudentGUID(guid),
				logger.Err(err),
			)
		}
	}

	j.log.Info("sweep pass finished",
		logger.SemesterName(active.Name),
		logger.Int("candidates", len(guids)),
		logger.Int("archived", archived),
		logger.Int("debts", debts),
		logger.Int("failures", failures),
	)

	if failures > 0 {
		return fmt.Errorf("archive_sweep: %d of %d students failed", failures, len(guids))
	}

	return nil
}
