// File: internal/jobs/sweeper.go
package jobs

import (
	"context"
	"fmt"
	"time"

	"donation_share_backend/internal/config"
	"donation_share_backend/internal/product"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// SweeperJob drives the time-based product transitions on two cadences: a
// short cycle that releases stale requests, and a long cycle that escalates
// urgency tiers and purges expired listings.
type SweeperJob struct {
	productService *product.Service
	logger         *zap.Logger
	cfg            *config.Config
	cronScheduler  *cron.Cron
}

// NewSweeperJob creates a new SweeperJob.
func NewSweeperJob(
	productService *product.Service,
	logger *zap.Logger,
	cfg *config.Config,
) *SweeperJob {
	scheduler := cron.New(cron.WithLogger(NewCronLogger(logger.Named("cron"))))

	return &SweeperJob{
		productService: productService,
		logger:         logger.Named("SweeperJob"),
		cfg:            cfg,
		cronScheduler:  scheduler,
	}
}

// SetupAndStart schedules both sweep cycles and starts the scheduler.
func (j *SweeperJob) SetupAndStart() error {
	shortSpec := j.cfg.ShortSweepSchedule
	if shortSpec == "" {
		j.logger.Warn("Short sweep schedule not defined (SHORT_SWEEP_SCHEDULE). Stale requests will not be released automatically.")
	} else {
		jobID, err := j.cronScheduler.AddFunc(shortSpec, j.runShortSweep)
		if err != nil {
			j.logger.Error("Failed to schedule short sweep", zap.String("spec", shortSpec), zap.Error(err))
			return err
		}
		j.logger.Info("Short sweep scheduled", zap.String("spec", shortSpec), zap.Any("jobID", jobID))
	}

	longSpec := j.cfg.LongSweepSchedule
	if longSpec == "" {
		j.logger.Warn("Long sweep schedule not defined (LONG_SWEEP_SCHEDULE). Urgency escalation and purging will not run automatically.")
	} else {
		jobID, err := j.cronScheduler.AddFunc(longSpec, j.runLongSweep)
		if err != nil {
			j.logger.Error("Failed to schedule long sweep", zap.String("spec", longSpec), zap.Error(err))
			return err
		}
		j.logger.Info("Long sweep scheduled", zap.String("spec", longSpec), zap.Any("jobID", jobID))
	}

	j.cronScheduler.Start()
	return nil
}

func (j *SweeperJob) runShortSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	j.RunShortSweep(ctx)
}

func (j *SweeperJob) runLongSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	j.RunLongSweep(ctx)
}

// RunShortSweep performs one stale-request release pass. Exposed so the CLI
// subcommand and tests can invoke a pass directly.
func (j *SweeperJob) RunShortSweep(ctx context.Context) {
	j.logger.Info("Starting short sweep run...")
	released, err := j.productService.ReleaseStaleRequests(ctx)
	if err != nil {
		j.logger.Error("Short sweep run failed", zap.Error(err))
		return
	}
	j.logger.Info("Short sweep run completed", zap.Int64("requests_released", released))
}

// RunLongSweep performs one escalation + purge pass. Escalation errors do not
// skip the purge; each stage is independent.
func (j *SweeperJob) RunLongSweep(ctx context.Context) {
	j.logger.Info("Starting long sweep run...")

	escalated, err := j.productService.EscalateUrgency(ctx)
	if err != nil {
		j.logger.Error("Urgency escalation stage failed", zap.Error(err))
	}

	purged, err := j.productService.PurgeExpired(ctx)
	if err != nil {
		j.logger.Error("Purge stage failed", zap.Error(err))
	}

	j.logger.Info("Long sweep run completed",
		zap.Int64("tiers_escalated", escalated),
		zap.Int64("products_purged", purged))
}

// Stop gracefully stops the cron scheduler.
func (j *SweeperJob) Stop() {
	if j.cronScheduler != nil {
		j.logger.Info("Stopping sweeper scheduler...")
		stopCtx := j.cronScheduler.Stop()
		select {
		case <-stopCtx.Done():
			j.logger.Info("Sweeper scheduler stopped gracefully.")
		case <-time.After(10 * time.Second):
			j.logger.Warn("Sweeper scheduler stop timed out.")
		}
	}
}

// --- Cron Logger Adapter ---

// cronLogger adapts zap.Logger to cron.Logger interface.
type cronLogger struct {
	zl *zap.Logger
}

// NewCronLogger creates a new cronLogger.
func NewCronLogger(zl *zap.Logger) cron.Logger {
	return &cronLogger{zl: zl}
}

func (cl *cronLogger) Info(msg string, keysAndValues ...interface{}) {
	cl.zl.Info(msg, cl.parseKeysAndValues(keysAndValues...)...)
}

func (cl *cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	fields := cl.parseKeysAndValues(keysAndValues...)
	fields = append(fields, zap.Error(err))
	cl.zl.Error(msg, fields...)
}

func (cl *cronLogger) parseKeysAndValues(keysAndValues ...interface{}) []zap.Field {
	var fields []zap.Field
	for i := 0; i < len(keysAndValues); i += 2 {
		if i+1 < len(keysAndValues) {
			fields = append(fields, zap.Any(fmt.Sprintf("%v", keysAndValues[i]), keysAndValues[i+1]))
		} else {
			fields = append(fields, zap.Any(fmt.Sprintf("%v", keysAndValues[i]), "MISSING_VALUE"))
		}
	}
	return fields
}
