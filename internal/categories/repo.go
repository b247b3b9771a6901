package categories

import (
	"context"
	"errors"

	"github.com/angelmondragon/storefront-backend/internal/repo"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrDuplicateSlug = errors.New("categories: slug already taken")

type Repository struct {
	repo.Base
}

func NewRepository(conn *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(conn)}
}

func (r *Repository) Create(ctx context.Context, category *models.Category) error {
	repo.EnsureID(&category.ID)
	if err := r.DB(ctx).Create(category).Error; err != nil {
		if db.IsUniqueViolation(err, "") {
			return ErrDuplicateSlug
		}
		return err
	}
	return nil
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	var category models.Category
	if err := r.DB(ctx).First(&category, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *Repository) FindBySlug(ctx context.Context, slug string) (*models.Category, error) {
	var category models.Category
	if err := r.DB(ctx).Where("slug = ?", slug).First(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

// ListActive returns every active category ordered for display.
func (r *Repository) ListActive(ctx context.Context) ([]models.Category, error) {
	var rows []models.Category
	err := r.DB(ctx).
		Where("is_active = ?", true).
		Order("sort_order ASC, name ASC").
		Find(&rows).Error
	return rows, err
}

// ListChildren returns the active categories directly under parentID.
func (r *Repository) ListChildren(ctx context.Context, parentID uuid.UUID) ([]models.Category, error) {
	var rows []models.Category
	err := r.DB(ctx).
		Where("parent_id = ? AND is_active = ?", parentID, true).
		Order("sort_order ASC, name ASC").
		Find(&rows).Error
	return rows, err
}
