package cron

import (
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/novafs/lms-api/model"
	"github.com/novafs/lms-api/utils/auth"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// Job names, also stored in cron_job_logs
const (
	JobCleanupTokenBlacklist     = "cleanup_token_blacklist"
	JobReportPendingTransactions = "report_pending_transactions"
	JobCleanupCronLogs           = "cleanup_cron_logs"
)

// CronManager manages all scheduled cron jobs
type CronManager struct {
	cron      *cron.Cron
	db        *gorm.DB
	blacklist *auth.BlacklistService
}

// NewCronManager creates a new cron manager
func NewCronManager(db *gorm.DB) *CronManager {
	// Create cron with seconds precision
	c := cron.New(cron.WithSeconds())

	return &CronManager{
		cron:      c,
		db:        db,
		blacklist: auth.NewBlacklistService(db),
	}
}

// Start starts all cron jobs
func (m *CronManager) Start() error {
	log.Info("Starting cron jobs...")

	if err := m.registerJobs(); err != nil {
		return err
	}

	m.cron.Start()

	log.Info("Cron jobs started successfully")
	return nil
}

// Stop stops all cron jobs and waits for running ones to finish
func (m *CronManager) Stop() {
	log.Info("Stopping cron jobs...")
	ctx := m.cron.Stop()
	<-ctx.Done()
	log.Info("Cron jobs stopped")
}

// registerJobs registers all cron jobs with their schedules
func (m *CronManager) registerJobs() error {
	jobs := []struct {
		spec string
		name string
		run  func() (string, error)
	}{
		// Every hour: drop blacklist entries of expired tokens
		{"0 0 * * * *", JobCleanupTokenBlacklist, m.CleanupTokenBlacklist},
		// Every 30 minutes: report sign-up payments still pending
		{"0 */30 * * * *", JobReportPendingTransactions, m.ReportPendingTransactions},
		// Daily at 3 AM: trim old job logs
		{"0 0 3 * * *", JobCleanupCronLogs, m.CleanupCronLogs},
	}

	for _, job := range jobs {
		job := job
		if _, err := m.cron.AddFunc(job.spec, func() { m.runJob(job.name, job.run) }); err != nil {
			return err
		}
	}

	log.Info("All cron jobs registered successfully")
	return nil
}

// runJob wraps a job with start, completion and failure bookkeeping
func (m *CronManager) runJob(jobName string, run func() (string, error)) {
	logID := m.logJobStart(jobName)

	message, err := run()
	if err != nil {
		m.logJobError(logID, jobName, err)
		return
	}
	m.logJobComplete(logID, jobName, message)
}

// logJobStart logs the start of a cron job and returns its log row id
func (m *CronManager) logJobStart(jobName string) uint {
	log.Infow("cron job started", "job", jobName)

	cronLog := model.CronJobLog{
		JobName:   jobName,
		Status:    model.CronJobRunning,
		StartedAt: time.Now(),
	}
	if err := m.db.Create(&cronLog).Error; err != nil {
		log.Warnw("failed to record cron job start", "job", jobName, "error", err)
		return 0
	}
	return cronLog.ID
}

// logJobComplete logs successful completion of a cron job
func (m *CronManager) logJobComplete(logID uint, jobName string, message string) {
	log.Infow("cron job completed", "job", jobName, "message", message)
	if logID == 0 {
		return
	}

	m.db.Model(&model.CronJobLog{}).
		Where("id = ?", logID).
		Updates(map[string]interface{}{
			"status":       model.CronJobCompleted,
			"completed_at": time.Now(),
			"message":      message,
		})
}

// logJobError logs a cron job error
func (m *CronManager) logJobError(logID uint, jobName string, err error) {
	log.Errorw("cron job failed", "job", jobName, "error", err)
	if logID == 0 {
		return
	}

	m.db.Model(&model.CronJobLog{}).
		Where("id = ?", logID).
		Updates(map[string]interface{}{
			"status":       model.CronJobFailed,
			"completed_at": time.Now(),
			"error_msg":    err.Error(),
		})
}
