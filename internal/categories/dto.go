package categories

import (
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/google/uuid"
)

type CreateCategoryRequest struct {
	Name        string     `json:"name" validate:"required,max=100"`
	Description *string    `json:"description,omitempty" validate:"omitempty,max=500"`
	Slug        string     `json:"slug,omitempty" validate:"omitempty,max=120"`
	Image       *string    `json:"image,omitempty" validate:"omitempty,url"`
	ParentID    *uuid.UUID `json:"parentId,omitempty"`
	IsActive    *bool      `json:"isActive,omitempty"`
	SortOrder   int        `json:"sortOrder" validate:"gte=0"`
}

type CategoryDTO struct {
	ID          uuid.UUID     `json:"id"`
	Name        string        `json:"name"`
	Description *string       `json:"description,omitempty"`
	Slug        string        `json:"slug"`
	Image       *string       `json:"image,omitempty"`
	ParentID    *uuid.UUID    `json:"parentId,omitempty"`
	Children    []CategoryDTO `json:"children,omitempty"`
	IsActive    bool          `json:"isActive"`
	SortOrder   int           `json:"sortOrder"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

func FromModel(c models.Category) CategoryDTO {
	return CategoryDTO{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		Slug:        c.Slug,
		Image:       c.Image,
		ParentID:    c.ParentID,
		IsActive:    c.IsActive,
		SortOrder:   c.SortOrder,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}
