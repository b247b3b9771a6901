package orders

import (
	"context"
	"errors"
	"time"

	"github.com/angelmondragon/storefront-backend/internal/repo"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrDuplicateOrderNumber signals an order number collision.
var ErrDuplicateOrderNumber = errors.New("orders: order number already used")

// ErrStatusChanged is returned when the order left the expected status
// between read and write.
var ErrStatusChanged = errors.New("orders: status changed concurrently")

type Repository struct {
	repo.Base
}

func NewRepository(conn *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(conn)}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{Base: r.Base.WithTx(tx)}
}

func (r *Repository) Create(ctx context.Context, order *models.Order) error {
	repo.EnsureID(&order.ID)
	if err := r.DB(ctx).Create(order).Error; err != nil {
		if db.IsUniqueViolation(err, "") {
			return ErrDuplicateOrderNumber
		}
		return err
	}
	return nil
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.DB(ctx).First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// ListByUser returns up to limit orders for the user, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID, limit int, cursor *pagination.Cursor) ([]models.Order, error) {
	query := r.DB(ctx).Where("user_id = ?", userID)
	if cursor != nil {
		query = query.Where("((created_at < ?) OR (created_at = ? AND id < ?))", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Order
	err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&rows).Error
	return rows, err
}

// StatusChange is the set of columns written by one status transition.
type StatusChange struct {
	To      enums.OrderStatus
	Payment *enums.PaymentStatus

	TrackingNumber      *string
	Carrier             *string
	EstimatedDeliveryAt *time.Time
	DeliveredAt         *time.Time
}

func (c StatusChange) updates() map[string]any {
	updates := map[string]any{"status": c.To}
	if c.Payment != nil {
		updates["payment_status"] = *c.Payment
	}
	if c.TrackingNumber != nil {
		updates["tracking_number"] = *c.TrackingNumber
	}
	if c.Carrier != nil {
		updates["carrier"] = *c.Carrier
	}
	if c.EstimatedDeliveryAt != nil {
		updates["estimated_delivery_at"] = c.EstimatedDeliveryAt.UTC()
	}
	if c.DeliveredAt != nil {
		updates["delivered_at"] = c.DeliveredAt.UTC()
	}
	return updates
}

// TransitionStatus applies change only if the order is still in status from.
func (r *Repository) TransitionStatus(ctx context.Context, id uuid.UUID, from enums.OrderStatus, change StatusChange) error {
	updates := change.updates()
	result := r.DB(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStatusChanged
	}
	return nil
}
