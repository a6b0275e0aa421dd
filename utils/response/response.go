package response

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/novafs/lms-api/utils/apperr"
)

const (
	MessageInternalError   = "Internal server error"
	MessageValidationError = "Error validation"
)

// Response is the JSON envelope of every successful reply
type Response struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// ErrorResponse is the envelope of failed replies. Errors lists field
// messages on validation failures only.
type ErrorResponse struct {
	Message string   `json:"message"`
	Errors  []string `json:"errors,omitempty"`
}

// Success returns a 200 response with a message and data
func Success(c *fiber.Ctx, message string, data interface{}) error {
	return c.Status(fiber.StatusOK).JSON(Response{
		Message: message,
		Data:    data,
	})
}

// Error returns an error response with only a message
func Error(c *fiber.Ctx, statusCode int, message string) error {
	return c.Status(statusCode).JSON(ErrorResponse{
		Message: message,
	})
}

// BadRequest returns a 400 Bad Request response
func BadRequest(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusBadRequest, message)
}

// Unauthorized returns a 401 Unauthorized response
func Unauthorized(c *fiber.Ctx, message string) error {
	if message == "" {
		message = "Unauthorized"
	}
	return Error(c, fiber.StatusUnauthorized, message)
}

// Forbidden returns a 403 Forbidden response
func Forbidden(c *fiber.Ctx, message string) error {
	if message == "" {
		message = "Access forbidden"
	}
	return Error(c, fiber.StatusForbidden, message)
}

// NotFound returns a 404 Not Found response
func NotFound(c *fiber.Ctx, message string) error {
	if message == "" {
		message = "Resource not found"
	}
	return Error(c, fiber.StatusNotFound, message)
}

// TooManyRequests returns a 429 Too Many Requests response
func TooManyRequests(c *fiber.Ctx, message string) error {
	if message == "" {
		message = "Too many requests"
	}
	return Error(c, fiber.StatusTooManyRequests, message)
}

// ValidationError returns a 400 response listing every field message
func ValidationError(c *fiber.Ctx, errs []string) error {
	return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
		Message: MessageValidationError,
		Errors:  errs,
	})
}

// InternalServerError returns a 500 Internal Server Error response
func InternalServerError(c *fiber.Ctx) error {
	return Error(c, fiber.StatusInternalServerError, MessageInternalError)
}

// ServiceUnavailable returns a 503 Service Unavailable response
func ServiceUnavailable(c *fiber.Ctx, message string) error {
	if message == "" {
		message = "Service temporarily unavailable"
	}
	return Error(c, fiber.StatusServiceUnavailable, message)
}

// FromError maps a service error onto the envelope.
// Unclassified errors are logged and reported as an opaque 500.
func FromError(c *fiber.Ctx, err error) error {
	appErr, ok := apperr.As(err)
	if !ok || appErr.Kind == apperr.KindInternal {
		log.Errorw("request failed", "method", c.Method(), "path", c.Path(), "error", err)
		return InternalServerError(c)
	}

	log.Debugw("request rejected", "method", c.Method(), "path", c.Path(), "kind", appErr.Kind.String(), "message", appErr.Message)

	switch appErr.Kind {
	case apperr.KindValidation:
		if len(appErr.Errors) == 0 {
			return BadRequest(c, appErr.Message)
		}
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Message: appErr.Message,
			Errors:  appErr.Errors,
		})
	case apperr.KindNotFound:
		return NotFound(c, appErr.Message)
	case apperr.KindUnauthorized:
		return Unauthorized(c, appErr.Message)
	case apperr.KindForbidden:
		return Forbidden(c, appErr.Message)
	}
	return InternalServerError(c)
}

// FromCredentialError maps sign-in failures. Lookup misses and bad
// credentials are both reported as 400 with their message.
func FromCredentialError(c *fiber.Ctx, err error) error {
	switch apperr.KindOf(err) {
	case apperr.KindNotFound, apperr.KindUnauthorized:
		appErr, _ := apperr.As(err)
		return BadRequest(c, appErr.Message)
	}
	return FromError(c, err)
}
