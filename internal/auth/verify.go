package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/angelmondragon/storefront-backend/internal/users"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"gorm.io/gorm"
)

// VerifyEmail consumes a verification token. Tokens carry no expiry.
func (s *service) VerifyEmail(ctx context.Context, token string) (dto *users.UserDTO, err error) {
	defer func() { s.metrics.Record(eventVerifyEmail, err) }()

	token = strings.TrimSpace(token)
	if token == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, msgVerifyTokenRequired)
	}

	user, err := s.users.ConsumeVerificationToken(ctx, token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeInvalidOrExpiredToken, msgInvalidVerifyToken)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "consume verification token")
	}
	return users.FromModel(user), nil
}
