package jobs

import (
	"context"
	"fmt"

	"github.com/physed-hub/phys-ed-journal/internal/application/command"
	"github.com/physed-hub/phys-ed-journal/pkg/logger"
)

// SyncStudentsJob refreshes the student roster from the university
// directory.
type SyncStudentsJob struct {
	handler   *command.SyncStudentsHandler
	batchSize int
	log       *logger.Logger
}

// NewSyncStudentsJob creates a new SyncStudentsJob. A non-positive
// batchSize falls back to the handler default.
func NewSyncStudentsJob(handler *command.SyncStudentsHandler, batchSize int, log *logger.Logger) *SyncStudentsJob {
	if log == nil {
		log = logger.Default()
	}
	return &SyncStudentsJob{
		handler:   handler,
		batchSize: batchSize,
		log:       log.With(logger.Component("sync_students")),
	}
}

// Name returns the job name.
func (j *SyncStudentsJob) Name() string {
	return "sync_students"
}

// Run executes one directory refresh.
func (j *SyncStudentsJob) Run(ctx context.Context) error {
	result, err := j.handler.Handle(ctx, command.SyncStudentsCommand{BatchSize: j.batchSize})
	if result != nil {
		for _, e := range result.Errors {
			j.log.Warn("sync issue", logger.Err(e))
		}
		j.log.Info("directory sync finished",
			logger.Int("students", result.TotalStudents),
			logger.Int("batches", result.BatchCount),
			logger.Int("failed_batches", result.FailedBatches),
		)
	}
	if err != nil {
		return fmt.Errorf("sync_students: %w", err)
	}
	if result != nil && result.FailedBatches > 0 {
		return fmt.Errorf("sync_students: %d of %d batches failed", result.FailedBatches, result.BatchCount)
	}

	return nil
}
