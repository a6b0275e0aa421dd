package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/novafs/lms-api/model"
)

const (
	// pendingReportAge is how old a pending payment must be to be reported
	pendingReportAge = 24 * time.Hour
	// cronLogRetention is how long job logs are kept
	cronLogRetention = 30 * 24 * time.Hour
	jobTimeout       = 5 * time.Minute
)

// CleanupTokenBlacklist removes revoked tokens that have expired on their own
func (m *CronManager) CleanupTokenBlacklist() (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	removed, err := m.blacklist.CleanupExpiredTokens(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to cleanup blacklist: %w", err)
	}
	return fmt.Sprintf("Removed %d expired tokens", removed), nil
}

// ReportPendingTransactions logs sign-up payments that never received a
// final notification. It never changes their status; only the gateway does.
func (m *CronManager) ReportPendingTransactions() (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	var stale []model.Transaction
	err := m.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", model.TransactionPending, time.Now().Add(-pendingReportAge)).
		Order("created_at ASC").
		Find(&stale).Error
	if err != nil {
		return "", fmt.Errorf("failed to query pending transactions: %w", err)
	}

	for _, t := range stale {
		log.Warnw("stale pending transaction", "order_id", t.ID, "user_id", t.UserID, "created_at", t.CreatedAt)
	}
	return fmt.Sprintf("%d pending transactions older than %s", len(stale), pendingReportAge), nil
}

// CleanupCronLogs deletes job logs past the retention window
func (m *CronManager) CleanupCronLogs() (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	result := m.db.WithContext(ctx).
		Where("started_at < ?", time.Now().Add(-cronLogRetention)).
		Delete(&model.CronJobLog{})
	if result.Error != nil {
		return "", fmt.Errorf("failed to cleanup cron logs: %w", result.Error)
	}
	return fmt.Sprintf("Removed %d cron job logs", result.RowsAffected), nil
}
