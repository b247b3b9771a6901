package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/pkg/catalog"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"
)

const msgOrderNotFound = "Order not found"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service defines order placement and fulfilment operations.
type Service interface {
	Create(ctx context.Context, userID uuid.UUID, req CreateOrderRequest) (*OrderDTO, error)
	Get(ctx context.Context, userID uuid.UUID, role enums.UserRole, id uuid.UUID) (*OrderDTO, error)
	List(ctx context.Context, userID uuid.UUID, limit int, cursor string) (*ListResult, error)
	UpdateStatus(ctx context.Context, role enums.UserRole, id uuid.UUID, req UpdateStatusRequest) (*OrderDTO, error)
}

type ServiceParams struct {
	Tx       txRunner
	Orders   *Repository
	Products *products.Repository
	Config   config.OrdersConfig
	Clock    func() time.Time
}

type service struct {
	tx       txRunner
	orders   *Repository
	products *products.Repository
	cfg      config.OrdersConfig
	now      func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner is required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("order repository is required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("product repository is required")
	}
	now := params.Clock
	if now == nil {
		now = time.Now
	}
	return &service{
		tx:       params.Tx,
		orders:   params.Orders,
		products: params.Products,
		cfg:      params.Config,
		now:      now,
	}, nil
}

// Create prices the cart against live products, reserves stock and stores
// the order with snapshotted line items, all in one transaction.
func (s *service) Create(ctx context.Context, userID uuid.UUID, req CreateOrderRequest) (*OrderDTO, error) {
	if !req.PaymentMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Invalid payment method")
	}
	requested, order, err := mergeItems(req.Items)
	if err != nil {
		return nil, err
	}

	var created *models.Order
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		productRepo := s.products.WithTx(tx)

		items := make([]models.OrderItem, 0, len(order))
		lines := make([]catalog.Line, 0, len(order))
		var reserve []models.OrderItem
		var problems error
		for _, productID := range order {
			qty := requested[productID]
			product, err := productRepo.FindByID(ctx, productID)
			if err != nil {
				if db.IsNotFound(err) {
					problems = multierr.Append(problems, fmt.Errorf("product %s not found", productID))
					continue
				}
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
			}
			if product.Status != enums.ProductStatusActive {
				problems = multierr.Append(problems, fmt.Errorf("%s is not available", product.Name))
				continue
			}
			if !product.InStock(qty) {
				problems = multierr.Append(problems, fmt.Errorf("insufficient stock for %s", product.Name))
				continue
			}

			image := ""
			if len(product.Images) > 0 {
				image = product.Images[0]
			}
			item := models.OrderItem{
				ProductID:     product.ID,
				Name:          product.Name,
				PriceCents:    product.PriceCents,
				Quantity:      qty,
				Image:         image,
				StockReserved: product.TrackInventory,
			}
			items = append(items, item)
			if item.StockReserved {
				reserve = append(reserve, item)
			}
			lines = append(lines, catalog.Line{Name: product.Name, PriceCents: product.PriceCents, Quantity: qty})
		}
		if problems != nil {
			return validationFrom(problems)
		}
		if err := catalog.ValidateLines(lines); err != nil {
			return validationFrom(err)
		}

		for _, item := range reserve {
			if err := productRepo.DecrementStock(ctx, item.ProductID, item.Quantity); err != nil {
				if errors.Is(err, products.ErrInsufficientStock) {
					return pkgerrors.Wrap(pkgerrors.CodeConflict, err, fmt.Sprintf("insufficient stock for %s", item.Name))
				}
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reserve stock")
			}
		}

		totals := catalog.ComputeTotals(lines, s.cfg.TaxRateBPS, s.cfg.ShippingCents, 0)
		shipping := req.ShippingAddress.Normalize()
		billing := req.BillingAddress
		if billing != nil {
			normalized := billing.Normalize()
			billing = &normalized
		}

		record := &models.Order{
			OrderNumber:     catalog.NewOrderNumber(s.now()),
			UserID:          userID,
			Items:           items,
			SubtotalCents:   totals.Subtotal,
			TaxCents:        totals.Tax,
			ShippingCents:   totals.Shipping,
			DiscountCents:   totals.Discount,
			TotalCents:      totals.Total,
			Status:          enums.OrderStatusPending,
			PaymentStatus:   enums.PaymentStatusPending,
			PaymentMethod:   req.PaymentMethod,
			ShippingAddress: shipping,
			BillingAddress:  billing,
			Notes:           req.Notes,
		}
		if err := s.orders.WithTx(tx).Create(ctx, record); err != nil {
			if errors.Is(err, ErrDuplicateOrderNumber) {
				return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "order number collision, please retry")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create order")
		}
		created = record
		return nil
	})
	if err != nil {
		return nil, err
	}

	dto := FromModel(*created)
	return &dto, nil
}

// Get returns an order to its owner or to an admin.
func (s *service) Get(ctx context.Context, userID uuid.UUID, role enums.UserRole, id uuid.UUID) (*OrderDTO, error) {
	order, err := s.load(ctx, s.orders, id)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID && role != enums.UserRoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "Not authorized to view this order")
	}
	dto := FromModel(*order)
	return &dto, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID, limit int, cursor string) (*ListResult, error) {
	var after *pagination.Cursor
	if cursor != "" {
		parsed, err := pagination.ParseCursor(cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		after = parsed
	}

	rows, err := s.orders.ListByUser(ctx, userID, pagination.LimitWithBuffer(limit), after)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}
	rows, next := pagination.Split(rows, limit, func(o models.Order) pagination.Cursor {
		return pagination.Cursor{CreatedAt: o.CreatedAt, ID: o.ID}
	})

	items := make([]OrderDTO, len(rows))
	for i, row := range rows {
		items[i] = FromModel(row)
	}
	return &ListResult{Items: items, NextCursor: pagination.EncodeNext(next)}, nil
}

// UpdateStatus moves a non-terminal order to a new status. Cancelling
// returns the reserved stock.
func (s *service) UpdateStatus(ctx context.Context, role enums.UserRole, id uuid.UUID, req UpdateStatusRequest) (*OrderDTO, error) {
	if role != enums.UserRoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "Access denied. Insufficient permissions.")
	}
	if !req.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Invalid order status")
	}
	if req.PaymentStatus != nil && !req.PaymentStatus.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Invalid payment status")
	}
	change, err := s.statusChange(req)
	if err != nil {
		return nil, err
	}

	var updated *models.Order
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		orderRepo := s.orders.WithTx(tx)
		order, err := s.load(ctx, orderRepo, id)
		if err != nil {
			return err
		}
		if order.Status.IsTerminal() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "Order can no longer change status").
				WithDetails(map[string]any{"status": order.Status})
		}

		if err := orderRepo.TransitionStatus(ctx, id, order.Status, change); err != nil {
			if errors.Is(err, ErrStatusChanged) {
				return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "Order status changed, reload and retry")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update order status")
		}

		if req.Status == enums.OrderStatusCancelled {
			productRepo := s.products.WithTx(tx)
			for _, item := range order.Items {
				if !item.StockReserved {
					continue
				}
				if err := productRepo.IncrementStock(ctx, item.ProductID, item.Quantity); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "restock product")
				}
			}
		}

		updated, err = s.load(ctx, orderRepo, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	dto := FromModel(*updated)
	return &dto, nil
}

// statusChange builds the column updates for req. Tracking data only fits
// shipped and delivered orders; delivery is stamped with the current time.
func (s *service) statusChange(req UpdateStatusRequest) (StatusChange, error) {
	change := StatusChange{To: req.Status, Payment: req.PaymentStatus}
	shipping := req.Status == enums.OrderStatusShipped || req.Status == enums.OrderStatusDelivered
	if req.Tracking != nil {
		if !shipping {
			return StatusChange{}, pkgerrors.New(pkgerrors.CodeValidation, "Tracking details require a shipped or delivered status").
				WithDetails(map[string]any{"status": req.Status})
		}
		change.TrackingNumber = trimmed(req.Tracking.TrackingNumber)
		change.Carrier = trimmed(req.Tracking.Carrier)
		change.EstimatedDeliveryAt = req.Tracking.EstimatedDelivery
	}
	if req.Status == enums.OrderStatusDelivered {
		now := s.now().UTC()
		change.DeliveredAt = &now
	}
	return change, nil
}

func trimmed(v *string) *string {
	if v == nil {
		return nil
	}
	out := strings.TrimSpace(*v)
	if out == "" {
		return nil
	}
	return &out
}

func (s *service) load(ctx context.Context, orderRepo *Repository, id uuid.UUID) (*models.Order, error) {
	order, err := orderRepo.FindByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, msgOrderNotFound)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	return order, nil
}

// mergeItems folds repeated products into one line and keeps first-seen order.
func mergeItems(inputs []OrderItemInput) (map[uuid.UUID]int, []uuid.UUID, error) {
	if len(inputs) == 0 {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "Order must contain at least one item")
	}
	quantities := make(map[uuid.UUID]int, len(inputs))
	order := make([]uuid.UUID, 0, len(inputs))
	for _, in := range inputs {
		if in.Quantity < 1 {
			return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "Quantity must be at least 1")
		}
		if _, ok := quantities[in.ProductID]; !ok {
			order = append(order, in.ProductID)
		}
		quantities[in.ProductID] += in.Quantity
	}
	return quantities, order, nil
}

func validationFrom(err error) error {
	problems := multierr.Errors(err)
	messages := make([]string, len(problems))
	for i, p := range problems {
		messages[i] = p.Error()
	}
	return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "Order validation failed").
		WithDetails(map[string]any{"items": messages})
}
