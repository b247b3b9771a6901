package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type stubProductService struct {
	listParams products.ListParams
	getAll     bool
	actor      products.Actor
	err        error
}

func (s *stubProductService) Create(ctx context.Context, actor products.Actor, req products.CreateProductRequest) (*products.ProductDTO, error) {
	s.actor = actor
	if s.err != nil {
		return nil, s.err
	}
	return &products.ProductDTO{ID: uuid.New(), Name: req.Name}, nil
}

func (s *stubProductService) Update(ctx context.Context, actor products.Actor, id uuid.UUID, req products.UpdateProductRequest) (*products.ProductDTO, error) {
	s.actor = actor
	return &products.ProductDTO{ID: id}, s.err
}

func (s *stubProductService) Get(ctx context.Context, id uuid.UUID, includeAll bool) (*products.ProductDTO, error) {
	s.getAll = includeAll
	return &products.ProductDTO{ID: id}, s.err
}

func (s *stubProductService) List(ctx context.Context, params products.ListParams) (*products.ListResult, error) {
	s.listParams = params
	return &products.ListResult{Items: []products.ProductDTO{}}, s.err
}

type stubOrderService struct {
	role enums.UserRole
	err  error
}

func (s *stubOrderService) Create(ctx context.Context, userID uuid.UUID, req orders.CreateOrderRequest) (*orders.OrderDTO, error) {
	return &orders.OrderDTO{ID: uuid.New(), UserID: userID}, s.err
}

func (s *stubOrderService) Get(ctx context.Context, userID uuid.UUID, role enums.UserRole, id uuid.UUID) (*orders.OrderDTO, error) {
	s.role = role
	return &orders.OrderDTO{ID: id}, s.err
}

func (s *stubOrderService) List(ctx context.Context, userID uuid.UUID, limit int, cursor string) (*orders.ListResult, error) {
	return &orders.ListResult{}, s.err
}

func (s *stubOrderService) UpdateStatus(ctx context.Context, role enums.UserRole, id uuid.UUID, req orders.UpdateStatusRequest) (*orders.OrderDTO, error) {
	s.role = role
	if s.err != nil {
		return nil, s.err
	}
	return &orders.OrderDTO{ID: id, Status: req.Status}, nil
}

func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func withIdentity(r *http.Request, role enums.UserRole) *http.Request {
	return r.WithContext(middleware.WithIdentity(r.Context(), uuid.New(), role))
}

func TestProductsListParsesQuery(t *testing.T) {
	svc := &stubProductService{}
	categoryID := uuid.New()
	req := httptest.NewRequest(http.MethodGet, "/api/products?limit=5&featured=true&category="+categoryID.String()+"&status=draft", nil)
	resp := httptest.NewRecorder()

	ProductsList(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	p := svc.listParams
	if p.Limit != 5 || p.Featured == nil || !*p.Featured || p.CategoryID == nil || *p.CategoryID != categoryID {
		t.Fatalf("unexpected params %+v", p)
	}
	if p.Status != nil || p.IncludeAll {
		t.Fatalf("anonymous callers must not filter by status")
	}
}

func TestProductsListStaffStatusFilter(t *testing.T) {
	svc := &stubProductService{}
	req := withIdentity(httptest.NewRequest(http.MethodGet, "/api/products?status=draft", nil), enums.UserRoleSeller)
	resp := httptest.NewRecorder()

	ProductsList(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.listParams.Status == nil || *svc.listParams.Status != enums.ProductStatusDraft || !svc.listParams.IncludeAll {
		t.Fatalf("expected staff draft filter, got %+v", svc.listParams)
	}
}

func TestProductsListPassesSearchAndBrand(t *testing.T) {
	svc := &stubProductService{}
	req := httptest.NewRequest(http.MethodGet, "/api/products?q=%20trail%09%20runner%20&brand=Acme", nil)
	resp := httptest.NewRecorder()

	ProductsList(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.listParams.Search != "trail runner" || svc.listParams.Brand != "Acme" {
		t.Fatalf("unexpected search params %+v", svc.listParams)
	}
}

func TestProductsListRejectsBadCursor(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/products?cursor=not%2Fbase64", nil)
	resp := httptest.NewRecorder()

	ProductsList(&stubProductService{}, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestProductsListRejectsBadLimit(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/products?limit=500", nil)
	resp := httptest.NewRecorder()

	ProductsList(&stubProductService{}, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestProductGetStaffSeesAll(t *testing.T) {
	svc := &stubProductService{}
	req := httptest.NewRequest(http.MethodGet, "/api/products/x", nil)
	req = withIdentity(withURLParam(req, "id", uuid.NewString()), enums.UserRoleAdmin)
	resp := httptest.NewRecorder()

	ProductGet(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusOK || !svc.getAll {
		t.Fatalf("expected admin get with includeAll, got %d %v", resp.Code, svc.getAll)
	}
}

func TestProductCreateRequiresSession(t *testing.T) {
	body := []byte(`{"name":"Lamp","description":"Bright","priceCents":100,"categoryId":"` + uuid.NewString() + `"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/products", bytes.NewReader(body))
	resp := httptest.NewRecorder()

	ProductCreate(&stubProductService{}, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}

	svc := &stubProductService{}
	req = withIdentity(httptest.NewRequest(http.MethodPost, "/api/products", bytes.NewReader(body)), enums.UserRoleSeller)
	resp = httptest.NewRecorder()
	ProductCreate(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d %s", resp.Code, resp.Body.String())
	}
	if svc.actor.Role != enums.UserRoleSeller {
		t.Fatalf("expected seller actor, got %q", svc.actor.Role)
	}
}

func TestOrderUpdateStatusPassesRoleAndMapsErrors(t *testing.T) {
	svc := &stubOrderService{}
	body := []byte(`{"status":"shipped"}`)
	req := httptest.NewRequest(http.MethodPatch, "/api/orders/x/status", bytes.NewReader(body))
	req = withIdentity(withURLParam(req, "id", uuid.NewString()), enums.UserRoleAdmin)
	resp := httptest.NewRecorder()

	OrderUpdateStatus(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusOK || svc.role != enums.UserRoleAdmin {
		t.Fatalf("expected 200 for admin got %d role=%q", resp.Code, svc.role)
	}

	var envelope struct {
		Data orders.OrderDTO `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Data.Status != enums.OrderStatusShipped {
		t.Fatalf("unexpected status %q", envelope.Data.Status)
	}

	svc.err = pkgerrors.New(pkgerrors.CodeStateConflict, "Order can no longer change status")
	req = httptest.NewRequest(http.MethodPatch, "/api/orders/x/status", bytes.NewReader(body))
	req = withIdentity(withURLParam(req, "id", uuid.NewString()), enums.UserRoleAdmin)
	resp = httptest.NewRecorder()
	OrderUpdateStatus(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", resp.Code)
	}
}

func TestOrderGetRejectsBadID(t *testing.T) {
	req := withIdentity(withURLParam(httptest.NewRequest(http.MethodGet, "/api/orders/nope", nil), "id", "nope"), enums.UserRoleUser)
	resp := httptest.NewRecorder()

	OrderGet(&stubOrderService{}, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestHealthLiveSetsEnvHeader(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "dev"}}
	resp := httptest.NewRecorder()
	HealthLive(cfg).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	if resp.Code != http.StatusOK || resp.Header().Get("X-Storefront-Env") != "dev" {
		t.Fatalf("unexpected live response %d %q", resp.Code, resp.Header().Get("X-Storefront-Env"))
	}
}
