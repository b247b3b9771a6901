package models

import (
	"time"

	dbtypes "github.com/angelmondragon/storefront-backend/pkg/db/types"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/types"
	"github.com/google/uuid"
)

// User represents the canonical identity entity.
type User struct {
	ID                     uuid.UUID                       `gorm:"type:uuid;primaryKey"`
	Email                  string                          `gorm:"type:text;not null;uniqueIndex:idx_users_email"`
	PasswordHash           string                          `gorm:"column:password_hash;not null"`
	FirstName              string                          `gorm:"column:first_name;not null"`
	LastName               string                          `gorm:"column:last_name;not null"`
	Phone                  *string                         `gorm:"column:phone"`
	Avatar                 *string                         `gorm:"column:avatar"`
	Role                   enums.UserRole                  `gorm:"column:role;type:text;not null"`
	IsEmailVerified        bool                            `gorm:"column:is_email_verified;not null"`
	EmailVerificationToken *string                         `gorm:"column:email_verification_token;index"`
	PasswordResetToken     *string                         `gorm:"column:password_reset_token;index"`
	PasswordResetExpiresAt *time.Time                      `gorm:"column:password_reset_expires_at"`
	Addresses              dbtypes.JSONList[types.Address] `gorm:"column:addresses;type:jsonb;not null"`
	CreatedAt              time.Time                       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt              time.Time                       `gorm:"column:updated_at;autoUpdateTime"`
}
