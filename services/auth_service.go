package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"github.com/novafs/lms-api/model"
	"github.com/novafs/lms-api/utils/apperr"
	"github.com/novafs/lms-api/utils/auth"
	"github.com/novafs/lms-api/utils/validation"
	"gorm.io/gorm"
)

// Sign-in failure messages
const (
	MsgUserNotFound      = "User not found!"
	MsgInvalidCredential = "Email / password incorrect"
	MsgUserNotVerified   = "User not verified!"
)

// AuthService handles manager sign-up with payment and sign-in for all roles
type AuthService struct {
	db        *gorm.DB
	validator *validation.Validator
	jwt       *auth.JWTManager
	gateway   PaymentGateway
	blacklist *auth.BlacklistService
}

// NewAuthService creates a new auth service
func NewAuthService(db *gorm.DB, validator *validation.Validator, jwt *auth.JWTManager, gateway PaymentGateway) *AuthService {
	return &AuthService{
		db:        db,
		validator: validator,
		jwt:       jwt,
		gateway:   gateway,
		blacklist: auth.NewBlacklistService(db),
	}
}

// SignUpRequest represents the manager sign-up body
type SignUpRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// SignUpResult carries the hosted checkout link
type SignUpResult struct {
	MidtransPaymentURL string `json:"midtrans_payment_url"`
}

// SignInRequest represents the sign-in body
type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// SignInResult is returned on successful sign-in
type SignInResult struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Token string `json:"token"`
	Role  string `json:"role"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SignUp registers a manager, records the pending sign-up payment and
// opens a checkout for it. The account and transaction are only kept when
// the gateway accepts the order.
func (s *AuthService) SignUp(ctx context.Context, req SignUpRequest) (*SignUpResult, error) {
	req.Email = normalizeEmail(req.Email)
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, apperr.Internal("hash password", err)
	}

	var paymentURL string
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.User{}).Where("email = ?", req.Email).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return apperr.Validation("Error validation", "Email already registered")
		}

		user := model.User{
			Name:         req.Name,
			Email:        req.Email,
			Photo:        model.DefaultPhoto,
			PasswordHash: passwordHash,
			Role:         model.RoleManager,
		}
		if err := tx.Create(&user).Error; err != nil {
			if isDuplicate(err) {
				return apperr.Validation("Error validation", "Email already registered")
			}
			return err
		}

		transaction := model.Transaction{
			ID:     uuid.NewString(),
			UserID: user.ID,
			Price:  model.SignUpPrice,
			Status: model.TransactionPending,
		}
		if err := tx.Create(&transaction).Error; err != nil {
			return err
		}

		url, err := s.gateway.CreateTransaction(ctx, transaction.ID, transaction.Price, user.Email)
		if err != nil {
			return apperr.Internal("create midtrans transaction", err)
		}
		paymentURL = url

		log.Infow("manager signed up", "user_id", user.ID, "order_id", transaction.ID)
		return nil
	})
	if err != nil {
		if _, ok := apperr.As(err); ok {
			return nil, err
		}
		return nil, apperr.Internal("sign up", err)
	}

	return &SignUpResult{MidtransPaymentURL: paymentURL}, nil
}

// SignIn verifies credentials and, for managers, that the sign-up payment
// settled. Students are never payment-gated.
func (s *AuthService) SignIn(ctx context.Context, req SignInRequest) (*SignInResult, error) {
	req.Email = normalizeEmail(req.Email)
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	var user model.User
	if err := s.db.WithContext(ctx).Where("email = ?", req.Email).First(&user).Error; err != nil {
		if isNotFound(err) {
			return nil, apperr.NotFound(MsgUserNotFound)
		}
		return nil, apperr.Internal("load user", err)
	}

	if err := auth.VerifyPassword(user.PasswordHash, req.Password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return nil, apperr.Unauthorized(MsgInvalidCredential)
		}
		return nil, apperr.Internal("verify password", err)
	}

	if !user.IsStudent() {
		var paid int64
		err := s.db.WithContext(ctx).
			Model(&model.Transaction{}).
			Where("user_id = ? AND status = ?", user.ID, model.TransactionSuccess).
			Count(&paid).Error
		if err != nil {
			return nil, apperr.Internal("load transactions", err)
		}
		if paid == 0 {
			return nil, apperr.Unauthorized(MsgUserNotVerified)
		}
	}

	token, _, err := s.jwt.Issue(user.ID, string(user.Role), user.TokenVersion)
	if err != nil {
		return nil, apperr.Internal("issue token", err)
	}

	return &SignInResult{
		Name:  user.Name,
		Email: user.Email,
		Token: token,
		Role:  string(user.Role),
	}, nil
}

// SignOut revokes the presented token until it would have expired anyway
func (s *AuthService) SignOut(ctx context.Context, claims *auth.Claims) error {
	expiresAt := time.Now().Add(s.jwt.Expiry())
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}

	if err := s.blacklist.RevokeToken(ctx, claims.ID, claims.UserID, expiresAt, "sign_out"); err != nil {
		return apperr.Internal("revoke token", err)
	}
	return nil
}
