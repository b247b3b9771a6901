package auth

import (
	"context"
	"errors"

	"github.com/angelmondragon/storefront-backend/internal/users"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/security"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func (s *service) Login(ctx context.Context, req LoginRequest) (resp *AuthResponse, err error) {
	defer func() { s.metrics.Record(eventLogin, err) }()

	email := users.NormalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidCredentials, msgInvalidCredentials)
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeInvalidCredentials, msgInvalidCredentials)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}

	valid, err := security.VerifyPassword(req.Password, user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !valid {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidCredentials, msgInvalidCredentials)
	}

	token, err := s.mint(user, s.now())
	if err != nil {
		return nil, err
	}
	return &AuthResponse{User: users.FromModel(user), Token: token}, nil
}

func (s *service) Me(ctx context.Context, userID uuid.UUID) (*users.UserDTO, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, msgUserNotFound)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}
	return users.FromModel(user), nil
}
