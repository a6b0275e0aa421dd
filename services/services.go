package services

import (
	"context"
	"errors"

	"github.com/novafs/lms-api/model"
	"github.com/novafs/lms-api/services/media"
	"github.com/novafs/lms-api/utils/apperr"
	"gorm.io/gorm"
)

// Actor is the authenticated caller of a flow
type Actor struct {
	ID   uint
	Role model.Role
}

// IsManager reports whether the caller is a manager
func (a Actor) IsManager() bool {
	return a.Role == model.RoleManager
}

// PaymentGateway opens a hosted checkout for an order.
// *midtrans.Client satisfies it.
type PaymentGateway interface {
	CreateTransaction(ctx context.Context, orderID string, amount int64, email string) (string, error)
}

// CategoryRef is the embedded category of a course view
type CategoryRef struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// isNotFound reports a gorm lookup miss
func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// isDuplicate reports a unique constraint violation. Requires TranslateError.
func isDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

// requireImage returns a field message when file is missing or not an image
func requireImage(field string, file *media.File, required bool) []string {
	if file == nil {
		if required {
			return []string{field + " is required"}
		}
		return nil
	}
	if !media.IsImage(*file) {
		return []string{field + " must be an image"}
	}
	return nil
}

// mergeValidation joins schema errors and extra field messages into one
// validation error, or returns nil when there is nothing to report
func mergeValidation(err error, extra []string) error {
	if err == nil && len(extra) == 0 {
		return nil
	}

	var messages []string
	if err != nil {
		appErr, ok := apperr.As(err)
		if !ok || appErr.Kind != apperr.KindValidation {
			return err
		}
		messages = append(messages, appErr.Errors...)
	}
	messages = append(messages, extra...)
	return apperr.Validation("Error validation", messages...)
}
