package validators

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type signup struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

func TestDecodeJSONBodyValidates(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"nope","password":"123"}`))
	var dest signup
	err := DecodeJSONBody(req, &dest)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	details, ok := typed.Details().(map[string]string)
	if !ok {
		t.Fatalf("expected field details, got %T", typed.Details())
	}
	if details["email"] != "must be a valid email" || details["password"] != "must be at least 6" {
		t.Fatalf("unexpected details %v", details)
	}
}

func TestDecodeJSONBodyRejectsUnknownAndEmpty(t *testing.T) {
	var dest signup
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"a@x.com","password":"secret1","admin":true}`))
	if err := DecodeJSONBody(req, &dest); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected unknown field rejection, got %v", err)
	}

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(``))
	if err := DecodeJSONBody(req, &dest); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected empty body rejection, got %v", err)
	}

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"a@x.com","password":"secret1"}`))
	if err := DecodeJSONBody(req, &dest); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestParseQueryHelpers(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?limit=500&featured=true&bad=maybe", nil)
	if _, err := ParseQueryInt(req, "limit", 20, 1, 100); err == nil {
		t.Fatal("expected out of range error")
	}
	if v, err := ParseQueryInt(req, "missing", 20, 1, 100); err != nil || v != 20 {
		t.Fatalf("expected default, got %d %v", v, err)
	}
	if v, err := ParseQueryBool(req, "featured"); err != nil || v == nil || !*v {
		t.Fatalf("expected true, got %v %v", v, err)
	}
	if v, err := ParseQueryBool(req, "absent"); err != nil || v != nil {
		t.Fatalf("expected nil, got %v %v", v, err)
	}
	if _, err := ParseQueryBool(req, "bad"); err == nil {
		t.Fatal("expected bool parse error")
	}
}

func TestParseURLUUID(t *testing.T) {
	id := uuid.New()
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id.String())
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	got, err := ParseURLUUID(req, "id")
	if err != nil || got != id {
		t.Fatalf("expected %s, got %s %v", id, got, err)
	}

	rctx.URLParams = chi.RouteParams{}
	rctx.URLParams.Add("id", "not-a-uuid")
	if _, err := ParseURLUUID(req, "id"); err == nil {
		t.Fatal("expected invalid id error")
	}
}

func TestSanitizeString(t *testing.T) {
	if got := SanitizeString("  hello world  ", 5); got != "hello" {
		t.Fatalf("unexpected %q", got)
	}
	if got := SanitizeString("caf\u00e9s", 4); got != "caf" {
		t.Fatalf("expected cut before the multi-byte rune, got %q", got)
	}
	if got := SanitizeString("a\x00b\tc", 0); got != "abc" {
		t.Fatalf("expected control characters removed, got %q", got)
	}
}

func TestSanitizeSearch(t *testing.T) {
	if got := SanitizeSearch("  trail   running\n shoes ", 100); got != "trail running shoes" {
		t.Fatalf("unexpected %q", got)
	}
}

func TestSanitizeCursor(t *testing.T) {
	if got, err := SanitizeCursor("  eyJjIjoiMjAyNSJ9_-  "); err != nil || got != "eyJjIjoiMjAyNSJ9_-" {
		t.Fatalf("expected valid cursor, got %q %v", got, err)
	}
	if got, err := SanitizeCursor(""); err != nil || got != "" {
		t.Fatalf("empty cursor should pass, got %q %v", got, err)
	}
	for _, bad := range []string{"abc%%%", "a b", "abc=", strings.Repeat("a", MaxCursorLen+1)} {
		if _, err := SanitizeCursor(bad); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
			t.Fatalf("expected validation error for %q, got %v", bad, err)
		}
	}
}
