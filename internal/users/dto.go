package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	dbtypes "github.com/angelmondragon/storefront-backend/pkg/db/types"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

// UserDTO is the transport shape that omits sensitive credentials.
type UserDTO struct {
	ID              uuid.UUID       `json:"id"`
	Email           string          `json:"email"`
	FirstName       string          `json:"firstName"`
	LastName        string          `json:"lastName"`
	Phone           *string         `json:"phone,omitempty"`
	Avatar          *string         `json:"avatar,omitempty"`
	Role            enums.UserRole  `json:"role"`
	IsEmailVerified bool            `json:"isEmailVerified"`
	Addresses       []types.Address `json:"addresses"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// CreateUserDTO holds the data required by the repo to persist a new user.
type CreateUserDTO struct {
	Email                  string
	PasswordHash           string
	FirstName              string
	LastName               string
	Phone                  *string
	Role                   enums.UserRole
	EmailVerificationToken *string
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}

	return &UserDTO{
		ID:              u.ID,
		Email:           u.Email,
		FirstName:       u.FirstName,
		LastName:        u.LastName,
		Phone:           u.Phone,
		Avatar:          u.Avatar,
		Role:            u.Role,
		IsEmailVerified: u.IsEmailVerified,
		Addresses:       append([]types.Address{}, u.Addresses...),
		CreatedAt:       u.CreatedAt,
		UpdatedAt:       u.UpdatedAt,
	}
}

func (c CreateUserDTO) ToModel() *models.User {
	role := c.Role
	if role == "" {
		role = enums.UserRoleUser
	}

	return &models.User{
		Email:                  NormalizeEmail(c.Email),
		PasswordHash:           c.PasswordHash,
		FirstName:              c.FirstName,
		LastName:               c.LastName,
		Phone:                  c.Phone,
		Role:                   role,
		EmailVerificationToken: c.EmailVerificationToken,
		Addresses:              dbtypes.JSONList[types.Address]{},
	}
}
