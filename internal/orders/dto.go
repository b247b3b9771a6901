package orders

import (
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/types"
	"github.com/google/uuid"
)

type OrderItemInput struct {
	ProductID uuid.UUID `json:"productId" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,min=1"`
}

type CreateOrderRequest struct {
	Items           []OrderItemInput    `json:"items" validate:"required,min=1,dive"`
	PaymentMethod   enums.PaymentMethod `json:"paymentMethod" validate:"required,oneof=card paypal bank_transfer cash_on_delivery"`
	ShippingAddress types.Address       `json:"shippingAddress" validate:"required"`
	BillingAddress  *types.Address      `json:"billingAddress,omitempty" validate:"omitempty"`
	Notes           *string             `json:"notes,omitempty" validate:"omitempty,max=500"`
}

type UpdateStatusRequest struct {
	Status        enums.OrderStatus    `json:"status" validate:"required,oneof=pending confirmed processing shipped delivered cancelled refunded"`
	PaymentStatus *enums.PaymentStatus `json:"paymentStatus,omitempty" validate:"omitempty,oneof=pending paid failed refunded"`
	// Tracking is only accepted when moving to shipped or delivered.
	Tracking *TrackingInput `json:"tracking,omitempty" validate:"omitempty"`
}

type TrackingInput struct {
	TrackingNumber    *string    `json:"trackingNumber,omitempty" validate:"omitempty,min=1,max=100"`
	Carrier           *string    `json:"carrier,omitempty" validate:"omitempty,min=1,max=100"`
	EstimatedDelivery *time.Time `json:"estimatedDelivery,omitempty"`
}

type OrderItemDTO struct {
	ProductID  uuid.UUID `json:"productId"`
	Name       string    `json:"name"`
	PriceCents int64     `json:"priceCents"`
	Quantity   int       `json:"quantity"`
	Image      string    `json:"image,omitempty"`
	// StockReserved marks lines whose quantity was taken from inventory.
	StockReserved bool `json:"-"`
}

type OrderDTO struct {
	ID              uuid.UUID           `json:"id"`
	OrderNumber     string              `json:"orderNumber"`
	UserID          uuid.UUID           `json:"userId"`
	Items           []OrderItemDTO      `json:"items"`
	SubtotalCents   int64               `json:"subtotalCents"`
	TaxCents        int64               `json:"taxCents"`
	ShippingCents   int64               `json:"shippingCents"`
	DiscountCents   int64               `json:"discountCents"`
	TotalCents      int64               `json:"totalCents"`
	Status          enums.OrderStatus   `json:"status"`
	PaymentStatus   enums.PaymentStatus `json:"paymentStatus"`
	PaymentMethod   enums.PaymentMethod `json:"paymentMethod"`
	ShippingAddress types.Address       `json:"shippingAddress"`
	BillingAddress  *types.Address      `json:"billingAddress,omitempty"`
	Notes           *string             `json:"notes,omitempty"`
	CreatedAt       time.Time           `json:"createdAt"`
	UpdatedAt       time.Time           `json:"updatedAt"`

	TrackingNumber    *string    `json:"trackingNumber,omitempty"`
	Carrier           *string    `json:"carrier,omitempty"`
	EstimatedDelivery *time.Time `json:"estimatedDelivery,omitempty"`
	ActualDelivery    *time.Time `json:"actualDelivery,omitempty"`
}

type ListResult struct {
	Items      []OrderDTO `json:"items"`
	NextCursor string     `json:"nextCursor,omitempty"`
}

func FromModel(o models.Order) OrderDTO {
	items := make([]OrderItemDTO, len(o.Items))
	for i, item := range o.Items {
		items[i] = OrderItemDTO(item)
	}
	return OrderDTO{
		ID:              o.ID,
		OrderNumber:     o.OrderNumber,
		UserID:          o.UserID,
		Items:           items,
		SubtotalCents:   o.SubtotalCents,
		TaxCents:        o.TaxCents,
		ShippingCents:   o.ShippingCents,
		DiscountCents:   o.DiscountCents,
		TotalCents:      o.TotalCents,
		Status:          o.Status,
		PaymentStatus:   o.PaymentStatus,
		PaymentMethod:   o.PaymentMethod,
		ShippingAddress: o.ShippingAddress,
		BillingAddress:  o.BillingAddress,
		Notes:           o.Notes,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,

		TrackingNumber:    o.TrackingNumber,
		Carrier:           o.Carrier,
		EstimatedDelivery: o.EstimatedDeliveryAt,
		ActualDelivery:    o.DeliveredAt,
	}
}
