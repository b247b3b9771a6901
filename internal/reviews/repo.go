package reviews

import (
	"context"
	"errors"

	"github.com/angelmondragon/storefront-backend/internal/repo"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrDuplicateReview is returned when the user already reviewed the product.
var ErrDuplicateReview = errors.New("reviews: user already reviewed product")

type Repository struct {
	repo.Base
}

func NewRepository(conn *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(conn)}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{Base: r.Base.WithTx(tx)}
}

func (r *Repository) Create(ctx context.Context, review *models.Review) error {
	repo.EnsureID(&review.ID)
	if err := r.DB(ctx).Create(review).Error; err != nil {
		if db.IsUniqueViolation(err, "") {
			return ErrDuplicateReview
		}
		return err
	}
	return nil
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Review, error) {
	var review models.Review
	if err := r.DB(ctx).First(&review, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &review, nil
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.DB(ctx).Delete(&models.Review{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListByProduct returns up to limit reviews, newest first, after the cursor.
func (r *Repository) ListByProduct(ctx context.Context, productID uuid.UUID, limit int, cursor *pagination.Cursor) ([]models.Review, error) {
	query := r.DB(ctx).Where("product_id = ?", productID)
	if cursor != nil {
		query = query.Where("((created_at < ?) OR (created_at = ? AND id < ?))", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Review
	err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&rows).Error
	return rows, err
}

// RatingStats returns the sum and number of ratings for a product.
func (r *Repository) RatingStats(ctx context.Context, productID uuid.UUID) (sum int64, count int64, err error) {
	var stats struct {
		Total int64
		Count int64
	}
	err = r.DB(ctx).
		Model(&models.Review{}).
		Select("COALESCE(SUM(rating), 0) AS total, COUNT(*) AS count").
		Where("product_id = ?", productID).
		Scan(&stats).Error
	return stats.Total, stats.Count, err
}
