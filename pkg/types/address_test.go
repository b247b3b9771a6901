package types

import (
	"testing"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

func TestAddressRoundTripThroughDriverValue(t *testing.T) {
	in := Address{Type: enums.AddressTypeWork, Street: "1 Main St", City: "Austin", State: "TX", ZipCode: "78701", Country: "US", IsDefault: true}
	v, err := in.Value()
	if err != nil {
		t.Fatalf("Value returned error: %v", err)
	}

	var out Address
	if err := out.Scan(v); err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}
	if out != in {
		t.Fatalf("expected %+v, got %+v", in, out)
	}
}

func TestAddressValueRejectsUnknownType(t *testing.T) {
	if _, err := (Address{Type: "vacation"}).Value(); err == nil {
		t.Fatal("expected invalid type to fail")
	}
}

func TestAddressNormalizeDefaultsType(t *testing.T) {
	got := Address{Street: "  5 Elm  "}.Normalize()
	if got.Type != enums.AddressTypeHome || got.Street != "5 Elm" {
		t.Fatalf("unexpected normalized address %+v", got)
	}
}

func TestDefaultAddress(t *testing.T) {
	if _, ok := DefaultAddress(nil); ok {
		t.Fatal("expected no default for empty list")
	}
	list := []Address{{Street: "a"}, {Street: "b", IsDefault: true}}
	got, ok := DefaultAddress(list)
	if !ok || got.Street != "b" {
		t.Fatalf("expected flagged default, got %+v", got)
	}
}
