package auth

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/novafs/lms-api/services"
	"github.com/novafs/lms-api/utils/apperr"
	"github.com/novafs/lms-api/utils/auth"
	"github.com/novafs/lms-api/utils/middleware"
	"github.com/novafs/lms-api/utils/response"
)

// Service is the auth flow used by the handler
type Service interface {
	SignUp(ctx context.Context, req services.SignUpRequest) (*services.SignUpResult, error)
	SignIn(ctx context.Context, req services.SignInRequest) (*services.SignInResult, error)
	SignOut(ctx context.Context, claims *auth.Claims) error
}

// AuthHandler handles sign-up, sign-in and sign-out
type AuthHandler struct {
	service              Service
	bruteForceProtection *middleware.BruteForceProtection
}

// NewAuthHandler creates a new auth handler. bruteForceProtection may be nil.
func NewAuthHandler(service Service, bruteForceProtection *middleware.BruteForceProtection) *AuthHandler {
	return &AuthHandler{
		service:              service,
		bruteForceProtection: bruteForceProtection,
	}
}

// SignUp registers a manager and returns the payment link
func (h *AuthHandler) SignUp(c *fiber.Ctx) error {
	var req services.SignUpRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	result, err := h.service.SignUp(c.UserContext(), req)
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Success(c, "Sign up success", result)
}

// SignIn issues a session token
func (h *AuthHandler) SignIn(c *fiber.Ctx) error {
	var req services.SignInRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	result, err := h.service.SignIn(c.UserContext(), req)
	if err != nil {
		if h.bruteForceProtection != nil && isCredentialFailure(err) {
			if recErr := h.bruteForceProtection.RecordFailedAttempt(c.UserContext(), c.IP()); recErr != nil {
				log.Warnw("failed to record failed sign-in", "ip", c.IP(), "error", recErr)
			}
		}
		return response.FromCredentialError(c, err)
	}

	if h.bruteForceProtection != nil {
		if recErr := h.bruteForceProtection.RecordSuccessfulAttempt(c.UserContext(), c.IP()); recErr != nil {
			log.Warnw("failed to clear sign-in attempts", "ip", c.IP(), "error", recErr)
		}
	}

	return response.Success(c, "User logged in success", result)
}

// SignOut revokes the caller's token
func (h *AuthHandler) SignOut(c *fiber.Ctx) error {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	if err := h.service.SignOut(c.UserContext(), claims); err != nil {
		return response.FromError(c, err)
	}

	return response.Success(c, "Sign out success", nil)
}

// isCredentialFailure reports a wrong email or password. An unpaid manager
// knows the password and is not counted towards a lockout.
func isCredentialFailure(err error) bool {
	appErr, ok := apperr.As(err)
	if !ok {
		return false
	}
	return appErr.Message == services.MsgUserNotFound || appErr.Message == services.MsgInvalidCredential
}
