package infrastructure

import (
	"context"
	stderrors "errors"

	"github.com/BasicCode11/Backend-EC-sub000/internal/service/order/domain"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// GormOrderRepository is the GORM implementation of domain.OrderRepository.
type GormOrderRepository struct {
	db *gorm.DB
}

func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// Create inserts the order and its line items in one transaction.
func (r *GormOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	model := fromDomainOrder(order)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return errors.Wrap(err, "create order")
	}
	return nil
}

func (r *GormOrderRepository) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	var model OrderModel
	err := r.db.WithContext(ctx).Preload("Items").First(&model, "id = ?", id).Error
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, errors.Wrap(err, "find order by id")
	}
	return toDomainOrder(&model), nil
}

// UpdateStatus flips the fulfillment status guarded by the expected current
// value, so two writers racing on one order cannot both win.
func (r *GormOrderRepository) UpdateStatus(ctx context.Context, order *domain.Order, expected domain.Status) error {
	result := r.db.WithContext(ctx).
		Model(&OrderModel{}).
		Where("id = ? AND status = ?", order.ID, expected.String()).
		Updates(map[string]any{
			"status":        order.Status.String(),
			"cancel_reason": order.CancelReason,
			"updated_at":    order.UpdatedAt,
		})
	if result.Error != nil {
		return errors.Wrap(result.Error, "update order status")
	}
	if result.RowsAffected == 0 {
		return r.missOrConflict(ctx, order.ID)
	}
	return nil
}

// UpdatePayment flips the payment status under the same guard discipline. The
// status column is deliberately not in the update set.
func (r *GormOrderRepository) UpdatePayment(ctx context.Context, order *domain.Order, expected domain.PaymentStatus) error {
	result := r.db.WithContext(ctx).
		Model(&OrderModel{}).
		Where("id = ? AND payment_status = ?", order.ID, expected.String()).
		Updates(map[string]any{
			"payment_status": order.PaymentStatus.String(),
			"updated_at":     order.UpdatedAt,
		})
	if result.Error != nil {
		return errors.Wrap(result.Error, "update order payment status")
	}
	if result.RowsAffected == 0 {
		return r.missOrConflict(ctx, order.ID)
	}
	return nil
}

func (r *GormOrderRepository) missOrConflict(ctx context.Context, id string) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&OrderModel{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return errors.Wrap(err, "check order existence")
	}
	if count == 0 {
		return domain.ErrOrderNotFound
	}
	return domain.ErrConcurrentModification
}
