package categories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/angelmondragon/storefront-backend/pkg/catalog"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Service interface {
	Create(ctx context.Context, req CreateCategoryRequest) (*CategoryDTO, error)
	List(ctx context.Context) ([]CategoryDTO, error)
	GetBySlug(ctx context.Context, slug string) (*CategoryDTO, error)
}

type repository interface {
	Create(ctx context.Context, category *models.Category) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error)
	FindBySlug(ctx context.Context, slug string) (*models.Category, error)
	ListActive(ctx context.Context) ([]models.Category, error)
	ListChildren(ctx context.Context, parentID uuid.UUID) ([]models.Category, error)
}

type service struct {
	repo repository
}

func NewService(repo repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("category repository is required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Create(ctx context.Context, req CreateCategoryRequest) (*CategoryDTO, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Category name is required")
	}
	slug := catalog.ResolveSlug(req.Slug, name)
	if slug == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Category slug must contain letters or digits")
	}

	if req.ParentID != nil {
		if _, err := s.repo.FindByID(ctx, *req.ParentID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "Parent category not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load parent category")
		}
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	category := &models.Category{
		Name:        name,
		Description: req.Description,
		Slug:        slug,
		Image:       req.Image,
		ParentID:    req.ParentID,
		IsActive:    isActive,
		SortOrder:   req.SortOrder,
	}
	if err := s.repo.Create(ctx, category); err != nil {
		if errors.Is(err, ErrDuplicateSlug) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeAlreadyExists, err, "Category with this slug already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create category")
	}

	dto := FromModel(*category)
	return &dto, nil
}

// List returns the active tree: top-level categories with their children.
func (s *service) List(ctx context.Context) ([]CategoryDTO, error) {
	rows, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list categories")
	}

	byParent := map[uuid.UUID][]CategoryDTO{}
	roots := []models.Category{}
	for _, row := range rows {
		if row.ParentID == nil {
			roots = append(roots, row)
			continue
		}
		byParent[*row.ParentID] = append(byParent[*row.ParentID], FromModel(row))
	}

	out := make([]CategoryDTO, 0, len(roots))
	for _, root := range roots {
		dto := FromModel(root)
		dto.Children = byParent[root.ID]
		out = append(out, dto)
	}
	return out, nil
}

func (s *service) GetBySlug(ctx context.Context, slug string) (*CategoryDTO, error) {
	category, err := s.repo.FindBySlug(ctx, catalog.Slugify(slug))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Category not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load category")
	}

	children, err := s.repo.ListChildren(ctx, category.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list child categories")
	}

	dto := FromModel(*category)
	for _, child := range children {
		dto.Children = append(dto.Children, FromModel(child))
	}
	return &dto, nil
}
