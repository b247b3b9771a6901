package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/angelmondragon/storefront-backend/internal/users"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/mailer"
	"github.com/angelmondragon/storefront-backend/pkg/security"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ForgotPassword issues a reset token and mails it synchronously. A failed
// send clears the token again so no unusable token is left behind.
func (s *service) ForgotPassword(ctx context.Context, email string) (err error) {
	defer func() { s.metrics.Record(eventForgotPassword, err) }()

	email = users.NormalizeEmail(email)
	if email == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, msgUserNotFoundByEmail)
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}

	token, err := security.NewOpaqueToken(s.authCfg.TokenBytes)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate reset token")
	}
	expiresAt := s.now().Add(s.authCfg.ResetTokenTTL)
	if err := s.users.SetResetToken(ctx, user.ID, token, expiresAt); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store reset token")
	}

	ctx = s.logg.WithFields(ctx, map[string]any{"user_id": user.ID.String(), "mail_kind": mailer.KindPasswordReset})

	msg, err := mailer.PasswordResetEmail(user.Email, user.FirstName, s.app.Link(resetPasswordPath, token), s.authCfg.ResetTokenTTL)
	if err == nil {
		err = s.notifier.Send(ctx, msg)
	}
	if err != nil {
		s.logg.Error(ctx, "auth.forgot_password.send_failed", err)
		if clearErr := s.users.ClearResetToken(ctx, user.ID); clearErr != nil {
			s.logg.Error(ctx, "auth.forgot_password.rollback_failed", clearErr)
		}
		return pkgerrors.Wrap(pkgerrors.CodeEmailSendFailed, err, msgResetSendFailed)
	}

	s.logg.Info(ctx, "auth.forgot_password.sent")
	return nil
}

// ResetPassword consumes a live reset token and installs the new password.
func (s *service) ResetPassword(ctx context.Context, token, newPassword string) (err error) {
	defer func() { s.metrics.Record(eventResetPassword, err) }()

	token = strings.TrimSpace(token)
	if token == "" || newPassword == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, msgResetFieldsRequired)
	}

	hash, err := security.HashPassword(newPassword, s.passwords)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	if _, err := s.users.ConsumeResetToken(ctx, token, s.now(), hash); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeInvalidOrExpiredToken, msgInvalidResetToken)
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "consume reset token")
	}
	return nil
}

// ChangePassword replaces the hash after proving the current password.
// Existing sessions stay valid.
func (s *service) ChangePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) (err error) {
	defer func() { s.metrics.Record(eventChangePassword, err) }()

	if currentPassword == "" || newPassword == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, msgChangeFieldsRequired)
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, msgUserNotFound)
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}

	valid, err := security.VerifyPassword(currentPassword, user.PasswordHash)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !valid {
		return pkgerrors.New(pkgerrors.CodeIncorrectPassword, msgIncorrectPassword)
	}

	hash, err := security.HashPassword(newPassword, s.passwords)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	if err := s.users.UpdatePasswordHash(ctx, user.ID, hash); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, msgUserNotFound)
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update password")
	}
	return nil
}
