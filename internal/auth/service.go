package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/storefront-backend/internal/users"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/mailer"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/google/uuid"
)

// Messages surfaced to API callers.
const (
	MsgRegistered           = "User registered successfully. Please check your email for verification."
	MsgLoggedIn             = "Login successful"
	MsgProfile              = "User profile retrieved successfully"
	MsgEmailVerified        = "Email verified successfully"
	MsgResetEmailSent       = "Password reset email sent"
	MsgPasswordReset        = "Password reset successfully"
	MsgPasswordChanged      = "Password changed successfully"
	msgInvalidCredentials   = "Invalid email or password"
	msgUserExists           = "User already exists with this email"
	msgUserNotFound         = "User not found"
	msgUserNotFoundByEmail  = "User not found with this email"
	msgVerifyTokenRequired  = "Verification token is required"
	msgInvalidVerifyToken   = "Invalid or expired verification token"
	msgInvalidResetToken    = "Invalid or expired reset token"
	msgResetFieldsRequired  = "Token and password are required"
	msgChangeFieldsRequired = "Current password and new password are required"
	msgIncorrectPassword    = "Current password is incorrect"
	msgResetSendFailed      = "Failed to send password reset email"
)

const (
	verifyEmailPath   = "/verify-email"
	resetPasswordPath = "/reset-password"
)

// Service defines the behavior needed by the auth controller.
type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error)
	Login(ctx context.Context, req LoginRequest) (*AuthResponse, error)
	Me(ctx context.Context, userID uuid.UUID) (*users.UserDTO, error)
	VerifyEmail(ctx context.Context, token string) (*users.UserDTO, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
	ChangePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error
}

type userRepository interface {
	Create(ctx context.Context, dto users.CreateUserDTO) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	ConsumeVerificationToken(ctx context.Context, token string) (*models.User, error)
	ConsumeResetToken(ctx context.Context, token string, now time.Time, newHash string) (*models.User, error)
	SetResetToken(ctx context.Context, id uuid.UUID, token string, expiresAt time.Time) error
	ClearResetToken(ctx context.Context, id uuid.UUID) error
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error
}

// VerificationDispatcher hands a verification email off for later delivery.
type VerificationDispatcher interface {
	Enqueue(ctx context.Context, msg mailer.Message) error
}

type service struct {
	users      userRepository
	notifier   mailer.Sender
	dispatcher VerificationDispatcher
	app        config.AppConfig
	jwtCfg     config.JWTConfig
	passwords  config.PasswordConfig
	authCfg    config.AuthConfig
	logg       *logger.Logger
	metrics    *metrics.AuthMetrics
	now        func() time.Time
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	UserRepo   userRepository
	Notifier   mailer.Sender
	Dispatcher VerificationDispatcher
	App        config.AppConfig
	JWTConfig  config.JWTConfig
	Passwords  config.PasswordConfig
	Auth       config.AuthConfig
	Logger     *logger.Logger
	Metrics    *metrics.AuthMetrics
	// Clock defaults to time.Now in UTC.
	Clock func() time.Time
}

// NewService constructs the auth service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.UserRepo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if params.Notifier == nil {
		return nil, fmt.Errorf("notifier is required")
	}
	if params.Dispatcher == nil {
		return nil, fmt.Errorf("verification dispatcher is required")
	}
	if params.JWTConfig.Secret == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}

	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	clock := params.Clock
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}
	authCfg := params.Auth
	if authCfg.ResetTokenTTL <= 0 {
		authCfg.ResetTokenTTL = 10 * time.Minute
	}

	return &service{
		users:      params.UserRepo,
		notifier:   params.Notifier,
		dispatcher: params.Dispatcher,
		app:        params.App,
		jwtCfg:     params.JWTConfig,
		passwords:  params.Passwords,
		authCfg:    authCfg,
		logg:       logg,
		metrics:    params.Metrics,
		now:        clock,
	}, nil
}
