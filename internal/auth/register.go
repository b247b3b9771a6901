package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/angelmondragon/storefront-backend/internal/users"
	pkgAuth "github.com/angelmondragon/storefront-backend/pkg/auth"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/mailer"
	"github.com/angelmondragon/storefront-backend/pkg/security"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	eventRegister       = "register"
	eventLogin          = "login"
	eventVerifyEmail    = "verify_email"
	eventForgotPassword = "forgot_password"
	eventResetPassword  = "reset_password"
	eventChangePassword = "change_password"
)

func (s *service) Register(ctx context.Context, req RegisterRequest) (resp *AuthResponse, err error) {
	defer func() { s.metrics.Record(eventRegister, err) }()

	email := users.NormalizeEmail(req.Email)
	firstName := strings.TrimSpace(req.FirstName)
	lastName := strings.TrimSpace(req.LastName)
	if email == "" || req.Password == "" || firstName == "" || lastName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "validation failed").
			WithDetails(map[string]any{"required": []string{"email", "password", "firstName", "lastName"}})
	}

	// The unique index remains the real guard; this only short-circuits the hash.
	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeAlreadyExists, msgUserExists)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}

	hash, err := security.HashPassword(req.Password, s.passwords)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	verifyToken, err := security.NewOpaqueToken(s.authCfg.TokenBytes)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate verification token")
	}

	user, err := s.users.Create(ctx, users.CreateUserDTO{
		Email:                  email,
		PasswordHash:           hash,
		FirstName:              firstName,
		LastName:               lastName,
		Phone:                  trimmedOrNil(req.Phone),
		EmailVerificationToken: &verifyToken,
	})
	if err != nil {
		if errors.Is(err, users.ErrDuplicateEmail) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeAlreadyExists, err, msgUserExists)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
	}

	token, err := s.mint(user, s.now())
	if err != nil {
		return nil, err
	}

	s.dispatchVerification(ctx, user, verifyToken)

	return &AuthResponse{User: users.FromModel(user), Token: token}, nil
}

// dispatchVerification queues the welcome email. Failures never fail signup.
func (s *service) dispatchVerification(ctx context.Context, user *models.User, token string) {
	ctx = s.logg.WithFields(ctx, map[string]any{"user_id": user.ID.String(), "mail_kind": mailer.KindVerification})

	msg, err := mailer.VerificationEmail(user.Email, user.FirstName, s.app.Link(verifyEmailPath, token))
	if err != nil {
		s.logg.Error(ctx, "auth.register.render_verification_failed", err)
		return
	}
	if err := s.dispatcher.Enqueue(ctx, msg); err != nil {
		s.logg.Error(ctx, "auth.register.enqueue_verification_failed", err)
		return
	}
	s.logg.Info(ctx, "auth.register.verification_enqueued")
}

func (s *service) mint(user *models.User, now time.Time) (string, error) {
	token, err := pkgAuth.MintAccessToken(s.jwtCfg, now, pkgAuth.AccessTokenPayload{
		UserID: user.ID,
		Role:   user.Role,
		JTI:    uuid.NewString(),
	})
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}
	return token, nil
}

func trimmedOrNil(value *string) *string {
	if value == nil {
		return nil
	}
	v := strings.TrimSpace(*value)
	if v == "" {
		return nil
	}
	return &v
}
