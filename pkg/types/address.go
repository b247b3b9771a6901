package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// Address is a postal address stored on users and orders as JSON.
type Address struct {
	Type      enums.AddressType `json:"type,omitempty"`
	Street    string            `json:"street" validate:"required,max=200"`
	City      string            `json:"city" validate:"required,max=100"`
	State     string            `json:"state" validate:"required,max=100"`
	ZipCode   string            `json:"zipCode" validate:"required,max=20"`
	Country   string            `json:"country" validate:"required,max=100"`
	IsDefault bool              `json:"isDefault"`
}

// Normalize trims whitespace and defaults the type to home.
func (a Address) Normalize() Address {
	a.Street = strings.TrimSpace(a.Street)
	a.City = strings.TrimSpace(a.City)
	a.State = strings.TrimSpace(a.State)
	a.ZipCode = strings.TrimSpace(a.ZipCode)
	a.Country = strings.TrimSpace(a.Country)
	if a.Type == "" {
		a.Type = enums.AddressTypeHome
	}
	return a
}

// Value marshals Address into a JSON document.
func (a Address) Value() (driver.Value, error) {
	if a.Type != "" && !a.Type.IsValid() {
		return nil, fmt.Errorf("address: invalid type %q", a.Type)
	}
	buf, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(buf), nil
}

// Scan decodes the JSON document.
func (a *Address) Scan(value interface{}) error {
	if value == nil {
		*a = Address{}
		return nil
	}

	var raw []byte
	switch v := value.(type) {
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("address: unsupported scan type %T", value)
	}

	var out Address
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("address: %w", err)
	}
	*a = out
	return nil
}

// DefaultAddress returns the first address flagged default, else the first one.
func DefaultAddress(list []Address) (Address, bool) {
	for _, a := range list {
		if a.IsDefault {
			return a, true
		}
	}
	if len(list) > 0 {
		return list[0], true
	}
	return Address{}, false
}
