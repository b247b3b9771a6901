package reviews

import (
	"context"
	"errors"
	"fmt"

	"github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/pkg/catalog"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Service interface {
	Create(ctx context.Context, userID, productID uuid.UUID, req CreateReviewRequest) (*ReviewDTO, error)
	Delete(ctx context.Context, userID uuid.UUID, role enums.UserRole, reviewID uuid.UUID) error
	List(ctx context.Context, productID uuid.UUID, limit int, cursor string) (*ListResult, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	tx       txRunner
	reviews  *Repository
	products *products.Repository
}

func NewService(tx txRunner, reviewRepo *Repository, productRepo *products.Repository) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction runner is required")
	}
	if reviewRepo == nil {
		return nil, fmt.Errorf("review repository is required")
	}
	if productRepo == nil {
		return nil, fmt.Errorf("product repository is required")
	}
	return &service{tx: tx, reviews: reviewRepo, products: productRepo}, nil
}

// Create stores the review and refreshes the product's rating aggregate in
// the same transaction.
func (s *service) Create(ctx context.Context, userID, productID uuid.UUID, req CreateReviewRequest) (*ReviewDTO, error) {
	if req.Rating < 1 || req.Rating > 5 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Rating must be between 1 and 5")
	}

	review := &models.Review{
		UserID:    userID,
		ProductID: productID,
		Rating:    req.Rating,
		Title:     req.Title,
		Comment:   req.Comment,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		productRepo := s.products.WithTx(tx)
		if _, err := productRepo.FindByID(ctx, productID); err != nil {
			if db.IsNotFound(err) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "Product not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
		}

		reviewRepo := s.reviews.WithTx(tx)
		if err := reviewRepo.Create(ctx, review); err != nil {
			if errors.Is(err, ErrDuplicateReview) {
				return pkgerrors.Wrap(pkgerrors.CodeAlreadyExists, err, "You have already reviewed this product")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create review")
		}
		return refreshRating(ctx, reviewRepo, productRepo, productID)
	})
	if err != nil {
		return nil, err
	}

	dto := FromModel(*review)
	return &dto, nil
}

// Delete removes a review. Only its author or an admin may do so.
func (s *service) Delete(ctx context.Context, userID uuid.UUID, role enums.UserRole, reviewID uuid.UUID) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		reviewRepo := s.reviews.WithTx(tx)
		review, err := reviewRepo.FindByID(ctx, reviewID)
		if err != nil {
			if db.IsNotFound(err) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "Review not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load review")
		}
		if review.UserID != userID && role != enums.UserRoleAdmin {
			return pkgerrors.New(pkgerrors.CodeForbidden, "Not authorized to delete this review")
		}
		if err := reviewRepo.Delete(ctx, reviewID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete review")
		}
		return refreshRating(ctx, reviewRepo, s.products.WithTx(tx), review.ProductID)
	})
}

func (s *service) List(ctx context.Context, productID uuid.UUID, limit int, cursor string) (*ListResult, error) {
	var after *pagination.Cursor
	if cursor != "" {
		parsed, err := pagination.ParseCursor(cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		after = parsed
	}

	rows, err := s.reviews.ListByProduct(ctx, productID, pagination.LimitWithBuffer(limit), after)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list reviews")
	}
	rows, next := pagination.Split(rows, limit, func(r models.Review) pagination.Cursor {
		return pagination.Cursor{CreatedAt: r.CreatedAt, ID: r.ID}
	})

	items := make([]ReviewDTO, len(rows))
	for i, row := range rows {
		items[i] = FromModel(row)
	}
	return &ListResult{Items: items, NextCursor: pagination.EncodeNext(next)}, nil
}

func refreshRating(ctx context.Context, reviewRepo *Repository, productRepo *products.Repository, productID uuid.UUID) error {
	sum, count, err := reviewRepo.RatingStats(ctx, productID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "aggregate ratings")
	}
	average, count := catalog.AggregateRating(sum, count)
	if err := productRepo.UpdateRating(ctx, productID, average, count); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update product rating")
	}
	return nil
}
