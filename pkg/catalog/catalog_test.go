package catalog

import (
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"go.uber.org/multierr"
)

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Men's Shoes":          "men-s-shoes",
		"  Summer -- Sale!! ":  "summer-sale",
		"Électronique & Audio": "lectronique-audio",
		"---":                  "",
		"USB-C 3.1 Cables":     "usb-c-3-1-cables",
	}
	for in, want := range cases {
		if got := Slugify(in); got != want {
			t.Fatalf("Slugify(%q) = %q want %q", in, got, want)
		}
	}
}

func TestResolveSlug(t *testing.T) {
	if got := ResolveSlug("", "Home Decor"); got != "home-decor" {
		t.Fatalf("expected generated slug, got %q", got)
	}
	if got := ResolveSlug("Custom Slug", "Home Decor"); got != "custom-slug" {
		t.Fatalf("expected explicit slug, got %q", got)
	}
}

func TestValidateComparePrice(t *testing.T) {
	price := int64(1000)
	higher := int64(1500)
	equal := int64(1000)

	if err := ValidateComparePrice(price, nil); err != nil {
		t.Fatalf("nil compare price should pass: %v", err)
	}
	if err := ValidateComparePrice(price, &higher); err != nil {
		t.Fatalf("higher compare price should pass: %v", err)
	}
	if err := ValidateComparePrice(price, &equal); !errors.Is(err, ErrComparePriceNotAbovePrice) {
		t.Fatalf("expected compare price error, got %v", err)
	}
	if err := ValidateComparePrice(-1, nil); err == nil {
		t.Fatal("expected negative price error")
	}
}

func TestAggregateRating(t *testing.T) {
	avg, count := AggregateRating(0, 0)
	if !avg.IsZero() || count != 0 {
		t.Fatalf("expected 0/0, got %s/%d", avg, count)
	}

	avg, count = AggregateRating(4+5+4, 3)
	if avg.String() != "4.3" || count != 3 {
		t.Fatalf("expected 4.3/3, got %s/%d", avg, count)
	}

	avg, _ = AggregateRating(5+4, 2)
	if avg.String() != "4.5" {
		t.Fatalf("expected 4.5, got %s", avg)
	}

	avg, _ = AggregateRating(4+4+5+5+5+5, 6)
	if avg.String() != "4.7" {
		t.Fatalf("expected 4.7, got %s", avg)
	}
}

func TestComputeTotals(t *testing.T) {
	lines := []Line{
		{Name: "shirt", PriceCents: 1999, Quantity: 2},
		{Name: "socks", PriceCents: 550, Quantity: 1},
	}
	got := ComputeTotals(lines, 825, 500, 0)
	if got.Subtotal != 4548 {
		t.Fatalf("unexpected subtotal %d", got.Subtotal)
	}
	// 4548 * 8.25% = 375.21 -> 375
	if got.Tax != 375 {
		t.Fatalf("unexpected tax %d", got.Tax)
	}
	if got.Total != 4548+375+500 {
		t.Fatalf("unexpected total %d", got.Total)
	}

	clamped := ComputeTotals([]Line{{PriceCents: 100, Quantity: 1}}, 0, 0, 1000)
	if clamped.Total != 0 {
		t.Fatalf("expected total clamped to zero, got %d", clamped.Total)
	}
}

func TestValidateLinesCollectsEveryProblem(t *testing.T) {
	if err := ValidateLines(nil); err == nil {
		t.Fatal("expected empty order error")
	}
	err := ValidateLines([]Line{
		{Name: "a", PriceCents: 100, Quantity: 0},
		{Name: "b", PriceCents: -5, Quantity: 1},
		{Name: "c", PriceCents: 100, Quantity: 1},
	})
	if got := len(multierr.Errors(err)); got != 2 {
		t.Fatalf("expected 2 errors, got %d (%v)", got, err)
	}
}

func TestNewOrderNumberFormat(t *testing.T) {
	now := time.UnixMilli(1740830400123)
	got := NewOrderNumber(now)
	if !regexp.MustCompile(`^ORD-1740830400123-\d{3}$`).MatchString(got) {
		t.Fatalf("unexpected order number %q", got)
	}
	if !strings.HasPrefix(got, "ORD-") {
		t.Fatalf("missing prefix in %q", got)
	}
}
