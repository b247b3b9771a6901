package models

import (
	"time"

	"github.com/google/uuid"
)

// Review is one user's rating of one product.
type Review struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_reviews_user_product"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;not null;uniqueIndex:idx_reviews_user_product;index"`
	Rating    int       `gorm:"column:rating;not null"`
	Title     *string   `gorm:"column:title"`
	Comment   *string   `gorm:"column:comment"`
	Verified  bool      `gorm:"column:verified;not null"`
	Helpful   int       `gorm:"column:helpful;not null"`
	Reported  bool      `gorm:"column:reported;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
