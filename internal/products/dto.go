package products

import (
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/google/uuid"
)

// InventoryInput mirrors the inventory block of a product payload.
type InventoryInput struct {
	Quantity          int   `json:"quantity" validate:"gte=0"`
	LowStockThreshold *int  `json:"lowStockThreshold,omitempty" validate:"omitempty,gte=0"`
	TrackInventory    *bool `json:"trackInventory,omitempty"`
}

type CreateProductRequest struct {
	Name              string              `json:"name" validate:"required,max=200"`
	Description       string              `json:"description" validate:"required,max=2000"`
	PriceCents        int64               `json:"priceCents" validate:"gte=0"`
	ComparePriceCents *int64              `json:"comparePriceCents,omitempty" validate:"omitempty,gte=0"`
	CategoryID        uuid.UUID           `json:"categoryId" validate:"required"`
	Brand             *string             `json:"brand,omitempty" validate:"omitempty,max=100"`
	SKU               *string             `json:"sku,omitempty" validate:"omitempty,max=64"`
	Images            []string            `json:"images,omitempty" validate:"omitempty,max=10,dive,required,url"`
	Inventory         *InventoryInput     `json:"inventory,omitempty"`
	Status            enums.ProductStatus `json:"status,omitempty" validate:"omitempty,oneof=active inactive draft"`
	Featured          bool                `json:"featured"`
	Tags              []string            `json:"tags,omitempty" validate:"omitempty,max=20,dive,required,max=50"`
}

// UpdateProductRequest is a partial update; nil fields are left alone.
type UpdateProductRequest struct {
	Name              *string              `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Description       *string              `json:"description,omitempty" validate:"omitempty,min=1,max=2000"`
	PriceCents        *int64               `json:"priceCents,omitempty" validate:"omitempty,gte=0"`
	ComparePriceCents *int64               `json:"comparePriceCents,omitempty" validate:"omitempty,gte=0"`
	ClearComparePrice bool                 `json:"clearComparePrice,omitempty"`
	CategoryID        *uuid.UUID           `json:"categoryId,omitempty"`
	Brand             *string              `json:"brand,omitempty" validate:"omitempty,max=100"`
	Images            []string             `json:"images,omitempty" validate:"omitempty,max=10,dive,required,url"`
	Inventory         *InventoryInput      `json:"inventory,omitempty"`
	Status            *enums.ProductStatus `json:"status,omitempty" validate:"omitempty,oneof=active inactive draft"`
	Featured          *bool                `json:"featured,omitempty"`
	Tags              []string             `json:"tags,omitempty" validate:"omitempty,max=20,dive,required,max=50"`
}

// ListParams filters the product listing.
type ListParams struct {
	Limit      int
	Cursor     string
	CategoryID *uuid.UUID
	Featured   *bool
	Status     *enums.ProductStatus
	// Search matches every whitespace-separated term against name,
	// description, brand and tags.
	Search string
	// Brand filters by exact brand, ignoring case.
	Brand string
	// IncludeAll lifts the active-only restriction for staff callers.
	IncludeAll bool
}

type InventoryDTO struct {
	Quantity          int  `json:"quantity"`
	LowStockThreshold int  `json:"lowStockThreshold"`
	TrackInventory    bool `json:"trackInventory"`
	LowStock          bool `json:"lowStock"`
}

type RatingDTO struct {
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}

type ProductDTO struct {
	ID                uuid.UUID           `json:"id"`
	Name              string              `json:"name"`
	Description       string              `json:"description"`
	PriceCents        int64               `json:"priceCents"`
	ComparePriceCents *int64              `json:"comparePriceCents,omitempty"`
	CategoryID        uuid.UUID           `json:"categoryId"`
	Brand             *string             `json:"brand,omitempty"`
	SKU               *string             `json:"sku,omitempty"`
	Images            []string            `json:"images"`
	Inventory         InventoryDTO        `json:"inventory"`
	Slug              string              `json:"slug"`
	Status            enums.ProductStatus `json:"status"`
	Featured          bool                `json:"featured"`
	Ratings           RatingDTO           `json:"ratings"`
	Tags              []string            `json:"tags"`
	CreatedBy         uuid.UUID           `json:"createdBy"`
	CreatedAt         time.Time           `json:"createdAt"`
	UpdatedAt         time.Time           `json:"updatedAt"`
}

type ListResult struct {
	Items      []ProductDTO `json:"items"`
	NextCursor string       `json:"nextCursor,omitempty"`
}

func FromModel(p models.Product) ProductDTO {
	return ProductDTO{
		ID:                p.ID,
		Name:              p.Name,
		Description:       p.Description,
		PriceCents:        p.PriceCents,
		ComparePriceCents: p.ComparePriceCents,
		CategoryID:        p.CategoryID,
		Brand:             p.Brand,
		SKU:               p.SKU,
		Images:            append([]string{}, p.Images...),
		Inventory: InventoryDTO{
			Quantity:          p.Quantity,
			LowStockThreshold: p.LowStockThreshold,
			TrackInventory:    p.TrackInventory,
			LowStock:          p.TrackInventory && p.Quantity <= p.LowStockThreshold,
		},
		Slug:     p.Slug,
		Status:   p.Status,
		Featured: p.Featured,
		Ratings: RatingDTO{
			Average: p.RatingAverage.InexactFloat64(),
			Count:   p.RatingCount,
		},
		Tags:      append([]string{}, p.Tags...),
		CreatedBy: p.CreatedBy,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}
