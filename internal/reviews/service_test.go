package reviews

import (
	"context"
	"testing"

	"github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	svc      Service
	products *products.Repository
	product  uuid.UUID
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	client := dbtest.Client(t)
	productRepo := products.NewRepository(client.DB())

	product := &models.Product{
		Name:       "Kettle",
		Slug:       "kettle",
		PriceCents: 4500,
		CategoryID: uuid.New(),
		Status:     enums.ProductStatusActive,
		CreatedBy:  uuid.New(),
	}
	require.NoError(t, productRepo.Create(context.Background(), product))

	svc, err := NewService(client, NewRepository(client.DB()), productRepo)
	require.NoError(t, err)
	return &harness{svc: svc, products: productRepo, product: product.ID}
}

func (h *harness) rating(t *testing.T) (decimal.Decimal, int) {
	t.Helper()
	p, err := h.products.FindByID(context.Background(), h.product)
	require.NoError(t, err)
	return p.RatingAverage, p.RatingCount
}

func TestCreateUpdatesProductRating(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	for _, rating := range []int{5, 4, 4} {
		_, err := h.svc.Create(ctx, uuid.New(), h.product, CreateReviewRequest{Rating: rating})
		require.NoError(t, err)
	}

	avg, count := h.rating(t)
	assert.Equal(t, "4.3", avg.String())
	assert.Equal(t, 3, count)
}

func TestCreateRejectsSecondReviewFromSameUser(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	user := uuid.New()

	_, err := h.svc.Create(ctx, user, h.product, CreateReviewRequest{Rating: 3})
	require.NoError(t, err)

	_, err = h.svc.Create(ctx, user, h.product, CreateReviewRequest{Rating: 1})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeAlreadyExists))

	_, count := h.rating(t)
	assert.Equal(t, 1, count)
}

func TestCreateValidatesRatingAndProduct(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.svc.Create(ctx, uuid.New(), h.product, CreateReviewRequest{Rating: 6})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = h.svc.Create(ctx, uuid.New(), uuid.New(), CreateReviewRequest{Rating: 4})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestDeleteChecksOwnershipAndResetsRating(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	author := uuid.New()

	review, err := h.svc.Create(ctx, author, h.product, CreateReviewRequest{Rating: 2})
	require.NoError(t, err)

	err = h.svc.Delete(ctx, uuid.New(), enums.UserRoleUser, review.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	require.NoError(t, h.svc.Delete(ctx, uuid.New(), enums.UserRoleAdmin, review.ID))

	avg, count := h.rating(t)
	assert.True(t, avg.IsZero())
	assert.Equal(t, 0, count)

	err = h.svc.Delete(ctx, author, enums.UserRoleUser, review.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestListPaginatesByProduct(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := h.svc.Create(ctx, uuid.New(), h.product, CreateReviewRequest{Rating: 5})
		require.NoError(t, err)
	}

	first, err := h.svc.List(ctx, h.product, 2, "")
	require.NoError(t, err)
	require.Len(t, first.Items, 2)
	require.NotEmpty(t, first.NextCursor)

	second, err := h.svc.List(ctx, h.product, 2, first.NextCursor)
	require.NoError(t, err)
	require.Len(t, second.Items, 1)
	assert.Empty(t, second.NextCursor)

	seen := map[uuid.UUID]bool{}
	for _, r := range append(first.Items, second.Items...) {
		seen[r.ID] = true
	}
	assert.Len(t, seen, 3)
}
