package controllers

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	"github.com/angelmondragon/storefront-backend/internal/categories"
	"github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func CategoriesList(svc categories.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tree, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, "Categories retrieved", tree)
	}
}

func CategoryBySlug(svc categories.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		category, err := svc.GetBySlug(r.Context(), chi.URLParam(r, "slug"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, "Category retrieved", category)
	}
}

func CategoryCreate(svc categories.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body categories.CreateCategoryRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		category, err := svc.Create(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, "Category created", category)
	}
}

// ProductsList serves the public catalog. Staff may pass status to see
// drafts and inactive listings.
func ProductsList(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := productListParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.List(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, "Products retrieved", result)
	}
}

func ProductGet(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseURLUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.Get(r.Context(), id, isStaff(middleware.RoleFromContext(r.Context())))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, "Product retrieved", product)
	}
}

func ProductCreate(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r, logg)
		if !ok {
			return
		}

		var body products.CreateProductRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actor := products.Actor{UserID: userID, Role: middleware.RoleFromContext(r.Context())}
		product, err := svc.Create(r.Context(), actor, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, "Product created", product)
	}
}

func ProductUpdate(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r, logg)
		if !ok {
			return
		}
		id, err := validators.ParseURLUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body products.UpdateProductRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actor := products.Actor{UserID: userID, Role: middleware.RoleFromContext(r.Context())}
		product, err := svc.Update(r.Context(), actor, id, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, "Product updated", product)
	}
}

const (
	maxSearchLen = 100
	maxBrandLen  = 100
)

func productListParams(r *http.Request) (products.ListParams, error) {
	limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return products.ListParams{}, err
	}
	featured, err := validators.ParseQueryBool(r, "featured")
	if err != nil {
		return products.ListParams{}, err
	}

	cursor, err := validators.SanitizeCursor(r.URL.Query().Get("cursor"))
	if err != nil {
		return products.ListParams{}, err
	}

	params := products.ListParams{
		Limit:    limit,
		Cursor:   cursor,
		Featured: featured,
		Search:   validators.SanitizeSearch(r.URL.Query().Get("q"), maxSearchLen),
		Brand:    validators.SanitizeString(r.URL.Query().Get("brand"), maxBrandLen),
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("category")); raw != "" {
		categoryID, err := uuid.Parse(raw)
		if err != nil {
			return products.ListParams{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid category").WithDetails(map[string]any{"field": "category"})
		}
		params.CategoryID = &categoryID
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" && isStaff(middleware.RoleFromContext(r.Context())) {
		status, err := enums.ParseProductStatus(raw)
		if err != nil {
			return products.ListParams{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid status").WithDetails(map[string]any{"field": "status"})
		}
		params.Status = &status
		params.IncludeAll = true
	}
	return params, nil
}

func isStaff(role enums.UserRole) bool {
	return role == enums.UserRoleAdmin || role == enums.UserRoleSeller
}
