package models

import (
	"time"

	dbtypes "github.com/angelmondragon/storefront-backend/pkg/db/types"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/types"
	"github.com/google/uuid"
)

// OrderItem snapshots a product at purchase time.
type OrderItem struct {
	ProductID  uuid.UUID `json:"productId"`
	Name       string    `json:"name"`
	PriceCents int64     `json:"priceCents"`
	Quantity   int       `json:"quantity"`
	Image      string    `json:"image,omitempty"`
	// StockReserved marks lines whose quantity was taken from inventory.
	StockReserved bool `json:"stockReserved,omitempty"`
}

type Order struct {
	ID              uuid.UUID                   `gorm:"type:uuid;primaryKey"`
	OrderNumber     string                      `gorm:"column:order_number;not null;uniqueIndex:idx_orders_number"`
	UserID          uuid.UUID                   `gorm:"column:user_id;type:uuid;not null;index"`
	Items           dbtypes.JSONList[OrderItem] `gorm:"column:items;type:jsonb;not null"`
	SubtotalCents   int64                       `gorm:"column:subtotal_cents;not null"`
	TaxCents        int64                       `gorm:"column:tax_cents;not null"`
	ShippingCents   int64                       `gorm:"column:shipping_cents;not null"`
	DiscountCents   int64                       `gorm:"column:discount_cents;not null"`
	TotalCents      int64                       `gorm:"column:total_cents;not null"`
	Status          enums.OrderStatus           `gorm:"column:status;type:text;not null"`
	PaymentStatus   enums.PaymentStatus         `gorm:"column:payment_status;type:text;not null"`
	PaymentMethod   enums.PaymentMethod         `gorm:"column:payment_method;type:text;not null"`
	ShippingAddress types.Address               `gorm:"column:shipping_address;type:jsonb;not null"`
	BillingAddress  *types.Address              `gorm:"column:billing_address;type:jsonb"`
	Notes           *string                     `gorm:"column:notes"`

	// Tracking is recorded when the order ships or is delivered.
	TrackingNumber      *string    `gorm:"column:tracking_number"`
	Carrier             *string    `gorm:"column:carrier"`
	EstimatedDeliveryAt *time.Time `gorm:"column:estimated_delivery_at"`
	DeliveredAt         *time.Time `gorm:"column:delivered_at"`

	CreatedAt       time.Time                   `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time                   `gorm:"column:updated_at;autoUpdateTime"`
}
