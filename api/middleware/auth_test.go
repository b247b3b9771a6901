package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/auth"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func mintTestToken(t *testing.T, cfg config.JWTConfig, now time.Time, userID uuid.UUID, role enums.UserRole) string {
	t.Helper()
	token, err := auth.MintAccessToken(cfg, now, auth.AccessTokenPayload{UserID: userID, Role: role, JTI: uuid.NewString()})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func serve(h http.Handler, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req)
	return resp
}

func TestAuthRejectsMissingToken(t *testing.T) {
	cfg := config.JWTConfig{Secret: "secret", Issuer: "issuer", ExpirationMinutes: 10}
	resp := serve(Auth(cfg, nil)(okHandler), "")
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAuthRejectsInvalidToken(t *testing.T) {
	cfg := config.JWTConfig{Secret: "secret", Issuer: "issuer", ExpirationMinutes: 10}
	resp := serve(Auth(cfg, nil)(okHandler), "Bearer invalid")
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAuthRejectsExpiredToken(t *testing.T) {
	cfg := config.JWTConfig{Secret: "secret", Issuer: "issuer", ExpirationMinutes: 10}
	token := mintTestToken(t, cfg, time.Now().Add(-time.Hour), uuid.New(), enums.UserRoleUser)
	resp := serve(Auth(cfg, nil)(okHandler), "Bearer "+token)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "Token expired") {
		t.Fatalf("expected expiry message, got %s", resp.Body.String())
	}
}

func TestAuthAllowsValidToken(t *testing.T) {
	cfg := config.JWTConfig{Secret: "secret", Issuer: "issuer", ExpirationMinutes: 60}
	userID := uuid.New()
	token := mintTestToken(t, cfg, time.Now(), userID, enums.UserRoleSeller)

	var captured struct {
		user string
		role enums.UserRole
	}
	handler := Auth(cfg, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.user = UserIDFromContext(r.Context())
		captured.role = RoleFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	resp := serve(handler, "bearer "+token)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if captured.user != userID.String() {
		t.Fatalf("expected user %s in context, got %q", userID, captured.user)
	}
	if captured.role != enums.UserRoleSeller {
		t.Fatalf("expected role seller got %s", captured.role)
	}
}

func TestOptionalAuthPassesAnonymousAndAttachesIdentity(t *testing.T) {
	cfg := config.JWTConfig{Secret: "secret", Issuer: "issuer", ExpirationMinutes: 10}
	var seen enums.UserRole
	h := OptionalAuth(cfg, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RoleFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	if resp := serve(h, "Bearer invalid"); resp.Code != http.StatusOK || seen != "" {
		t.Fatalf("expected anonymous pass-through, got %d role=%q", resp.Code, seen)
	}

	token := mintTestToken(t, cfg, time.Now(), uuid.New(), enums.UserRoleSeller)
	if resp := serve(h, "Bearer "+token); resp.Code != http.StatusOK || seen != enums.UserRoleSeller {
		t.Fatalf("expected seller identity, got %d role=%q", resp.Code, seen)
	}
}

func TestRequireRole(t *testing.T) {
	cfg := config.JWTConfig{Secret: "secret", Issuer: "issuer", ExpirationMinutes: 60}
	chain := Auth(cfg, nil)(RequireRole(nil, enums.UserRoleAdmin, enums.UserRoleSeller)(okHandler))

	userToken := mintTestToken(t, cfg, time.Now(), uuid.New(), enums.UserRoleUser)
	if resp := serve(chain, "Bearer "+userToken); resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for plain user, got %d", resp.Code)
	}

	sellerToken := mintTestToken(t, cfg, time.Now(), uuid.New(), enums.UserRoleSeller)
	if resp := serve(chain, "Bearer "+sellerToken); resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for seller, got %d", resp.Code)
	}

	if resp := serve(RequireRole(nil, enums.UserRoleAdmin)(okHandler), ""); resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without identity, got %d", resp.Code)
	}
}

func TestRequestIDEchoesOrGenerates(t *testing.T) {
	h := RequestID(nil)(okHandler)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-Id", "abc")
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req)
	if got := resp.Header().Get("X-Request-Id"); got != "abc" {
		t.Fatalf("expected echoed request id, got %q", got)
	}

	resp = serve(h, "")
	if resp.Header().Get("X-Request-Id") == "" {
		t.Fatal("expected generated request id")
	}
}

func TestRecovererReturns500(t *testing.T) {
	h := Recoverer(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("kaboom")
	}))
	resp := serve(h, "")
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", resp.Code)
	}
}

func TestMetricsUsesRoutePattern(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewHTTPMetrics(reg)

	r := chi.NewRouter()
	r.Use(Metrics(m))
	r.Get("/api/products/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/products/"+uuid.NewString(), nil)
	r.ServeHTTP(httptest.NewRecorder(), req)

	got, err := testutil.GatherAndCount(reg, "http_requests_total")
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if got != 1 {
		t.Fatalf("expected a single series, got %d", got)
	}
}
