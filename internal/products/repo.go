package products

import (
	"context"
	"errors"
	"strings"

	"github.com/angelmondragon/storefront-backend/internal/repo"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ErrDuplicate covers both the slug and the SKU unique indexes.
var ErrDuplicate = errors.New("products: slug or sku already taken")

// ErrInsufficientStock is returned when a conditional stock decrement matches no row.
var ErrInsufficientStock = errors.New("products: insufficient stock")

type Repository struct {
	repo.Base
}

func NewRepository(conn *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(conn)}
}

// WithTx returns a repository bound to tx.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{Base: r.Base.WithTx(tx)}
}

type listQuery struct {
	limit      int
	cursor     *pagination.Cursor
	categoryID *uuid.UUID
	featured   *bool
	status     *enums.ProductStatus
	terms      []string
	brand      string
}

// searchMatch must hold for every free-text search term.
const searchMatch = `(LOWER(name) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\' ` +
	`OR LOWER(COALESCE(brand, '')) LIKE ? ESCAPE '\' OR LOWER(CAST(tags AS TEXT)) LIKE ? ESCAPE '\')`

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds a LIKE pattern matching term anywhere, case-insensitively.
func containsPattern(term string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(term)) + "%"
}

func (r *Repository) Create(ctx context.Context, product *models.Product) error {
	repo.EnsureID(&product.ID)
	if err := r.DB(ctx).Create(product).Error; err != nil {
		if db.IsUniqueViolation(err, "") {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

func (r *Repository) Save(ctx context.Context, product *models.Product) error {
	if err := r.DB(ctx).Save(product).Error; err != nil {
		if db.IsUniqueViolation(err, "") {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.DB(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// List returns up to q.limit rows, newest first, after the cursor.
func (r *Repository) List(ctx context.Context, q listQuery) ([]models.Product, error) {
	query := r.DB(ctx).Model(&models.Product{})
	if q.categoryID != nil {
		query = query.Where("category_id = ?", *q.categoryID)
	}
	if q.featured != nil {
		query = query.Where("featured = ?", *q.featured)
	}
	if q.status != nil {
		query = query.Where("status = ?", *q.status)
	}
	if q.brand != "" {
		query = query.Where("LOWER(brand) = ?", strings.ToLower(q.brand))
	}
	for _, term := range q.terms {
		pattern := containsPattern(term)
		query = query.Where(searchMatch, pattern, pattern, pattern, pattern)
	}
	if q.cursor != nil {
		query = query.Where("((created_at < ?) OR (created_at = ? AND id < ?))", q.cursor.CreatedAt, q.cursor.CreatedAt, q.cursor.ID)
	}

	var rows []models.Product
	err := query.Order("created_at DESC, id DESC").Limit(q.limit).Find(&rows).Error
	return rows, err
}

// UpdateRating stores a recomputed rating aggregate.
func (r *Repository) UpdateRating(ctx context.Context, id uuid.UUID, average decimal.Decimal, count int64) error {
	return r.DB(ctx).
		Model(&models.Product{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"rating_average": average,
			"rating_count":   count,
		}).Error
}

// DecrementStock removes qty units when enough are on hand. Untracked
// products are left alone and succeed; a missing product returns
// gorm.ErrRecordNotFound.
func (r *Repository) DecrementStock(ctx context.Context, id uuid.UUID, qty int) error {
	result := r.DB(ctx).
		Model(&models.Product{}).
		Where("id = ? AND track_inventory = ? AND inventory_quantity >= ?", id, true, qty).
		UpdateColumn("inventory_quantity", gorm.Expr("inventory_quantity - ?", qty))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}

	var product models.Product
	if err := r.DB(ctx).Select("id", "track_inventory").First(&product, "id = ?", id).Error; err != nil {
		return err
	}
	if !product.TrackInventory {
		return nil
	}
	return ErrInsufficientStock
}

// IncrementStock returns qty units to a tracked product.
func (r *Repository) IncrementStock(ctx context.Context, id uuid.UUID, qty int) error {
	return r.DB(ctx).
		Model(&models.Product{}).
		Where("id = ? AND track_inventory = ?", id, true).
		UpdateColumn("inventory_quantity", gorm.Expr("inventory_quantity + ?", qty)).Error
}
