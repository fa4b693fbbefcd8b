package jobs

import (
	"context"
	"time"

	"mailnick/internal/logger"
	"mailnick/internal/service"
)

// RetentionJob periodically deletes action ledger entries older than the
// retention period.
type RetentionJob struct {
	actionService service.ActionService
	logger        *logger.Logger
	interval      time.Duration

	ctx    context.Context
	cancel context.CancelFunc
}

// NewRetentionJob creates a retention job that runs every interval.
func NewRetentionJob(actionService service.ActionService, interval time.Duration, log *logger.Logger) *RetentionJob {
	ctx, cancel := context.WithCancel(context.Background())
	return &RetentionJob{
		actionService: actionService,
		logger:        log,
		interval:      interval,
		ctx:           ctx,
		cancel:        cancel,
	}
}

// RunOnce executes one purge pass - exported for testing
func (j *RetentionJob) RunOnce() {
	deleted, err := j.actionService.PurgeExpired(j.ctx)
	if err != nil {
		j.logger.Errorf("purging expired actions: %v", err)
		return
	}
	if deleted > 0 {
		j.logger.Infof("purged %d expired action entries", deleted)
	}
}

// Start begins the periodic purge loop
func (j *RetentionJob) Start() {
	j.logger.Infof("starting action retention job, interval %s", j.interval)

	j.RunOnce()

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			j.RunOnce()
		case <-j.ctx.Done():
			j.logger.Info("action retention job stopped")
			return
		}
	}
}

// Stop stops the purge loop
func (j *RetentionJob) Stop() {
	j.cancel()
}
