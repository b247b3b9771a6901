package users

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/angelmondragon/storefront-backend/internal/repo"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrDuplicateEmail is returned when the email unique index rejects an insert.
var ErrDuplicateEmail = errors.New("users: email already registered")

// Repository exposes user-related persistence operations.
type Repository struct {
	repo.Base
}

// NewRepository constructs a users repo bound to the provided GORM DB.
func NewRepository(conn *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(conn)}
}

// WithTx returns a repository bound to tx.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{Base: r.Base.WithTx(tx)}
}

// NormalizeEmail is the canonical stored form of an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Create inserts a new user and returns the persisted model.
func (r *Repository) Create(ctx context.Context, dto CreateUserDTO) (*models.User, error) {
	user := dto.ToModel()
	repo.EnsureID(&user.ID)
	if err := r.DB(ctx).Create(user).Error; err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}
	return user, nil
}

// FindByEmail retrieves the user matching the provided email.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.DB(ctx).Where("email = ?", NormalizeEmail(email)).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByID loads a user by their UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.DB(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByVerificationToken loads the user holding an unconsumed verification token.
func (r *Repository) FindByVerificationToken(ctx context.Context, token string) (*models.User, error) {
	var user models.User
	if err := r.DB(ctx).Where("email_verification_token = ?", token).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByValidResetToken loads the user whose reset token matches and expires after now.
func (r *Repository) FindByValidResetToken(ctx context.Context, token string, now time.Time) (*models.User, error) {
	var user models.User
	err := r.DB(ctx).
		Where("password_reset_token = ? AND password_reset_expires_at > ?", token, now.UTC()).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ConsumeVerificationToken marks the token holder verified and clears the
// token in one conditional update. Only one concurrent caller can win; the
// others get gorm.ErrRecordNotFound.
func (r *Repository) ConsumeVerificationToken(ctx context.Context, token string) (*models.User, error) {
	user, err := r.FindByVerificationToken(ctx, token)
	if err != nil {
		return nil, err
	}

	result := r.DB(ctx).
		Model(&models.User{}).
		Where("id = ? AND email_verification_token = ?", user.ID, token).
		Updates(map[string]any{
			"is_email_verified":        true,
			"email_verification_token": nil,
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return r.FindByID(ctx, user.ID)
}

// ConsumeResetToken swaps in newHash and clears the reset pair, provided the
// token still matches and has not expired at now. Single use: a second caller
// with the same token gets gorm.ErrRecordNotFound.
func (r *Repository) ConsumeResetToken(ctx context.Context, token string, now time.Time, newHash string) (*models.User, error) {
	user, err := r.FindByValidResetToken(ctx, token, now)
	if err != nil {
		return nil, err
	}

	result := r.DB(ctx).
		Model(&models.User{}).
		Where("id = ? AND password_reset_token = ? AND password_reset_expires_at > ?", user.ID, token, now.UTC()).
		Updates(map[string]any{
			"password_hash":             newHash,
			"password_reset_token":      nil,
			"password_reset_expires_at": nil,
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return r.FindByID(ctx, user.ID)
}

// SetResetToken stores a reset token together with its expiry.
func (r *Repository) SetResetToken(ctx context.Context, id uuid.UUID, token string, expiresAt time.Time) error {
	return r.updateExisting(ctx, id, map[string]any{
		"password_reset_token":      token,
		"password_reset_expires_at": expiresAt.UTC(),
	})
}

// ClearResetToken drops both halves of the reset pair.
func (r *Repository) ClearResetToken(ctx context.Context, id uuid.UUID) error {
	return r.updateExisting(ctx, id, map[string]any{
		"password_reset_token":      nil,
		"password_reset_expires_at": nil,
	})
}

// UpdatePasswordHash replaces the stored password hash.
func (r *Repository) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	return r.updateExisting(ctx, id, map[string]any{"password_hash": hash})
}

func (r *Repository) updateExisting(ctx context.Context, id uuid.UUID, values map[string]any) error {
	result := r.DB(ctx).Model(&models.User{}).Where("id = ?", id).Updates(values)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
