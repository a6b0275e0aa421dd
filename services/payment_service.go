package services

import (
	"context"
	"encoding/json"

	"github.com/gofiber/fiber/v2/log"
	"github.com/novafs/lms-api/model"
	"github.com/novafs/lms-api/services/midtrans"
	"github.com/novafs/lms-api/utils/apperr"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PaymentConfig controls notification authentication
type PaymentConfig struct {
	ServerKey       string
	VerifySignature bool
}

// PaymentService applies gateway notifications to local transactions
type PaymentService struct {
	db     *gorm.DB
	config PaymentConfig
}

// NewPaymentService creates a new payment service
func NewPaymentService(db *gorm.DB, config PaymentConfig) *PaymentService {
	return &PaymentService{
		db:     db,
		config: config,
	}
}

// HandleNotification updates the transaction named by the notification's
// order_id. status comes from the query string and wins over the body's
// transaction_status. Unknown orders and unmapped statuses are ignored.
func (s *PaymentService) HandleNotification(ctx context.Context, status string, payload []byte) error {
	var notification midtrans.Notification
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &notification); err != nil {
			return apperr.Validation("Invalid notification body")
		}
	}
	if status == "" {
		status = notification.TransactionStatus
	}

	if s.config.VerifySignature {
		if err := notification.VerifySignature(s.config.ServerKey); err != nil {
			log.Warnw("rejected payment notification", "order_id", notification.OrderID, "error", err)
			return apperr.Unauthorized("Invalid signature")
		}
	}

	if notification.OrderID == "" {
		log.Warnw("payment notification without order_id", "status", status)
		return nil
	}

	updates := map[string]interface{}{
		"gateway_status": status,
	}
	if notification.PaymentType != "" {
		updates["payment_type"] = notification.PaymentType
	}
	if len(payload) > 0 {
		updates["notification"] = datatypes.JSON(payload)
	}

	switch midtrans.MapStatus(status) {
	case midtrans.OutcomeSuccess:
		updates["status"] = model.TransactionSuccess
	case midtrans.OutcomeFailed:
		updates["status"] = model.TransactionFailed
	}

	result := s.db.WithContext(ctx).
		Model(&model.Transaction{}).
		Where("id = ?", notification.OrderID).
		Updates(updates)
	if result.Error != nil {
		return apperr.Internal("update transaction", result.Error)
	}

	if result.RowsAffected == 0 {
		log.Warnw("payment notification for unknown order", "order_id", notification.OrderID, "status", status)
		return nil
	}

	log.Infow("payment notification applied", "order_id", notification.OrderID, "status", status)
	return nil
}
