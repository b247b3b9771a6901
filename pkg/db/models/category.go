package models

import (
	"time"

	"github.com/google/uuid"
)

// Category groups products; categories may nest one level under a parent.
type Category struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Name        string     `gorm:"column:name;not null"`
	Description *string    `gorm:"column:description"`
	Slug        string     `gorm:"column:slug;not null;uniqueIndex:idx_categories_slug"`
	Image       *string    `gorm:"column:image"`
	ParentID    *uuid.UUID `gorm:"column:parent_id;type:uuid;index"`
	IsActive    bool       `gorm:"column:is_active;not null"`
	SortOrder   int        `gorm:"column:sort_order;not null"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
