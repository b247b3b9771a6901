package products

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/angelmondragon/storefront-backend/pkg/catalog"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	defaultLowStockThreshold = 5
	msgProductNotFound       = "Product not found"
)

// Actor identifies the caller of a mutating operation.
type Actor struct {
	UserID uuid.UUID
	Role   enums.UserRole
}

func (a Actor) isStaff() bool {
	return a.Role == enums.UserRoleAdmin || a.Role == enums.UserRoleSeller
}

type Service interface {
	Create(ctx context.Context, actor Actor, req CreateProductRequest) (*ProductDTO, error)
	Update(ctx context.Context, actor Actor, id uuid.UUID, req UpdateProductRequest) (*ProductDTO, error)
	Get(ctx context.Context, id uuid.UUID, includeAll bool) (*ProductDTO, error)
	List(ctx context.Context, params ListParams) (*ListResult, error)
}

type repository interface {
	Create(ctx context.Context, product *models.Product) error
	Save(ctx context.Context, product *models.Product) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	List(ctx context.Context, q listQuery) ([]models.Product, error)
}

type categoryLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error)
}

type service struct {
	repo       repository
	categories categoryLookup
}

func NewService(repo repository, categories categoryLookup) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository is required")
	}
	if categories == nil {
		return nil, fmt.Errorf("category lookup is required")
	}
	return &service{repo: repo, categories: categories}, nil
}

func (s *service) Create(ctx context.Context, actor Actor, req CreateProductRequest) (*ProductDTO, error) {
	if !actor.isStaff() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "Access denied. Insufficient permissions.")
	}
	if err := catalog.ValidateComparePrice(req.PriceCents, req.ComparePriceCents); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "Compare price must be greater than regular price")
	}
	if err := s.ensureCategory(ctx, req.CategoryID); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	status := req.Status
	if status == "" {
		status = enums.ProductStatusDraft
	}

	product := &models.Product{
		Name:              name,
		Description:       strings.TrimSpace(req.Description),
		PriceCents:        req.PriceCents,
		ComparePriceCents: req.ComparePriceCents,
		CategoryID:        req.CategoryID,
		Brand:             req.Brand,
		SKU:               normalizeSKU(req.SKU),
		Images:            append([]string{}, req.Images...),
		LowStockThreshold: defaultLowStockThreshold,
		TrackInventory:    true,
		Slug:              catalog.Slugify(name),
		Status:            status,
		Featured:          req.Featured,
		RatingAverage:     decimal.Zero,
		Tags:              normalizeTags(req.Tags),
		CreatedBy:         actor.UserID,
	}
	applyInventory(product, req.Inventory)
	if product.Slug == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Product name must contain letters or digits")
	}

	if err := s.repo.Create(ctx, product); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeAlreadyExists, err, "Product with this name or SKU already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create product")
	}

	dto := FromModel(*product)
	return &dto, nil
}

// Update applies a partial change. Sellers may only edit their own listings.
func (s *service) Update(ctx context.Context, actor Actor, id uuid.UUID, req UpdateProductRequest) (*ProductDTO, error) {
	product, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	switch {
	case actor.Role == enums.UserRoleAdmin:
	case actor.Role == enums.UserRoleSeller && product.CreatedBy == actor.UserID:
	default:
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "Access denied. Insufficient permissions.")
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		slug := catalog.Slugify(name)
		if slug == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "Product name must contain letters or digits")
		}
		product.Name = name
		product.Slug = slug
	}
	if req.Description != nil {
		product.Description = strings.TrimSpace(*req.Description)
	}
	if req.PriceCents != nil {
		product.PriceCents = *req.PriceCents
	}
	if req.ClearComparePrice {
		product.ComparePriceCents = nil
	} else if req.ComparePriceCents != nil {
		product.ComparePriceCents = req.ComparePriceCents
	}
	if err := catalog.ValidateComparePrice(product.PriceCents, product.ComparePriceCents); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "Compare price must be greater than regular price")
	}
	if req.CategoryID != nil && *req.CategoryID != product.CategoryID {
		if err := s.ensureCategory(ctx, *req.CategoryID); err != nil {
			return nil, err
		}
		product.CategoryID = *req.CategoryID
	}
	if req.Brand != nil {
		product.Brand = req.Brand
	}
	if req.Images != nil {
		product.Images = append([]string{}, req.Images...)
	}
	applyInventory(product, req.Inventory)
	if req.Status != nil {
		product.Status = *req.Status
	}
	if req.Featured != nil {
		product.Featured = *req.Featured
	}
	if req.Tags != nil {
		product.Tags = normalizeTags(req.Tags)
	}

	if err := s.repo.Save(ctx, product); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeAlreadyExists, err, "Product with this name or SKU already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update product")
	}

	dto := FromModel(*product)
	return &dto, nil
}

// Get hides non-active products unless includeAll is set.
func (s *service) Get(ctx context.Context, id uuid.UUID, includeAll bool) (*ProductDTO, error) {
	product, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !includeAll && product.Status != enums.ProductStatusActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, msgProductNotFound)
	}
	dto := FromModel(*product)
	return &dto, nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	q := listQuery{
		limit:      pagination.LimitWithBuffer(params.Limit),
		categoryID: params.CategoryID,
		featured:   params.Featured,
		status:     params.Status,
		terms:      searchTerms(params.Search),
		brand:      strings.TrimSpace(params.Brand),
	}
	if !params.IncludeAll {
		active := enums.ProductStatusActive
		q.status = &active
	}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		q.cursor = cursor
	}

	rows, err := s.repo.List(ctx, q)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list products")
	}

	rows, next := pagination.Split(rows, params.Limit, func(p models.Product) pagination.Cursor {
		return pagination.Cursor{CreatedAt: p.CreatedAt, ID: p.ID}
	})

	items := make([]ProductDTO, len(rows))
	for i, row := range rows {
		items[i] = FromModel(row)
	}
	return &ListResult{Items: items, NextCursor: pagination.EncodeNext(next)}, nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, msgProductNotFound)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	return product, nil
}

func (s *service) ensureCategory(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "Category is required")
	}
	if _, err := s.categories.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeValidation, "Category not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load category")
	}
	return nil
}

func applyInventory(p *models.Product, in *InventoryInput) {
	if in == nil {
		return
	}
	p.Quantity = in.Quantity
	if in.LowStockThreshold != nil {
		p.LowStockThreshold = *in.LowStockThreshold
	}
	if in.TrackInventory != nil {
		p.TrackInventory = *in.TrackInventory
	}
}

func normalizeSKU(sku *string) *string {
	if sku == nil {
		return nil
	}
	v := strings.ToUpper(strings.TrimSpace(*sku))
	if v == "" {
		return nil
	}
	return &v
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := map[string]struct{}{}
	for _, tag := range tags {
		t := strings.ToLower(strings.TrimSpace(tag))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// maxSearchTerms caps how many LIKE clauses one search adds.
const maxSearchTerms = 5

func searchTerms(search string) []string {
	terms := strings.Fields(search)
	if len(terms) > maxSearchTerms {
		terms = terms[:maxSearchTerms]
	}
	return terms
}
