package models

import (
	"time"

	dbtypes "github.com/angelmondragon/storefront-backend/pkg/db/types"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a catalog listing. Prices are stored in cents.
type Product struct {
	ID                uuid.UUID                `gorm:"type:uuid;primaryKey"`
	Name              string                   `gorm:"column:name;not null"`
	Description       string                   `gorm:"column:description;not null"`
	PriceCents        int64                    `gorm:"column:price_cents;not null"`
	ComparePriceCents *int64                   `gorm:"column:compare_price_cents"`
	CategoryID        uuid.UUID                `gorm:"column:category_id;type:uuid;not null;index"`
	Brand             *string                  `gorm:"column:brand;index:idx_products_brand_status,priority:1"`
	SKU               *string                  `gorm:"column:sku;uniqueIndex:idx_products_sku"`
	Images            dbtypes.JSONList[string] `gorm:"column:images;type:jsonb;not null"`
	Quantity          int                      `gorm:"column:inventory_quantity;not null"`
	LowStockThreshold int                      `gorm:"column:low_stock_threshold;not null"`
	TrackInventory    bool                     `gorm:"column:track_inventory;not null"`
	Slug              string                   `gorm:"column:slug;not null;uniqueIndex:idx_products_slug"`
	Status            enums.ProductStatus      `gorm:"column:status;type:text;not null;index:idx_products_brand_status,priority:2"`
	Featured          bool                     `gorm:"column:featured;not null"`
	RatingAverage     decimal.Decimal          `gorm:"column:rating_average;type:numeric(2,1);not null"`
	RatingCount       int                      `gorm:"column:rating_count;not null"`
	Tags              dbtypes.JSONList[string] `gorm:"column:tags;type:jsonb;not null"`
	CreatedBy         uuid.UUID                `gorm:"column:created_by;type:uuid;not null"`
	CreatedAt         time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}

// InStock reports whether qty units can be sold.
func (p Product) InStock(qty int) bool {
	return !p.TrackInventory || p.Quantity >= qty
}
