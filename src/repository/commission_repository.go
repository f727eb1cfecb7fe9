package repository

import (
	"context"
	"time"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"settlementapi/src/database"
	"settlementapi/src/model"
)

// CommissionRepository handles persistence of per-order commission rows.
type CommissionRepository struct {
	db *gorm.DB
}

func NewCommissionRepository() *CommissionRepository {
	return &CommissionRepository{db: database.MainDB}
}

func NewCommissionRepositoryWithDB(db *gorm.DB) *CommissionRepository {
	return &CommissionRepository{db: db}
}

// Create inserts a new commission row.
func (r *CommissionRepository) Create(ctx context.Context, c *model.Commission) error {
	logger.WithFields(map[string]interface{}{
		"repo":     "CommissionRepository",
		"op":       "Create",
		"order_id": c.OrderID,
		"type":     c.Type,
	}).Debug("Creating commission")

	if err := r.db.WithContext(ctx).Create(c).Error; err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":     "CommissionRepository",
			"op":       "Create",
			"order_id": c.OrderID,
		}).WithError(err).Error("Failed to create commission")
		return err
	}
	return nil
}

// FindByOrderID returns all commission rows for one order.
func (r *CommissionRepository) FindByOrderID(ctx context.Context, orderID uint) ([]model.Commission, error) {
	var commissions []model.Commission
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("id ASC").
		Find(&commissions).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":     "CommissionRepository",
			"op":       "FindByOrderID",
			"order_id": orderID,
		}).WithError(err).Error("Failed to fetch commissions")
		return nil, err
	}
	return commissions, nil
}

// ExistsForOrder reports whether any commission row was already materialized
// for the order. This is the idempotency check for the async task handler.
func (r *CommissionRepository) ExistsForOrder(ctx context.Context, orderID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Commission{}).
		Where("order_id = ?", orderID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save persists all fields of an already-loaded commission.
func (r *CommissionRepository) Save(ctx context.Context, c *model.Commission) error {
	return r.db.WithContext(ctx).Save(c).Error
}

// DeleteByOrderID removes every commission row of an order. Used when an
// order is cancelled or failed so no commission is left dangling.
func (r *CommissionRepository) DeleteByOrderID(ctx context.Context, orderID uint) error {
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Delete(&model.Commission{}).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":     "CommissionRepository",
			"op":       "DeleteByOrderID",
			"order_id": orderID,
		}).WithError(err).Error("Failed to delete commissions")
		return err
	}
	return nil
}

// AttachedCount returns how many of the order's commissions are linked to a
// payment request.
func (r *CommissionRepository) AttachedCount(ctx context.Context, orderID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.CommissionPaymentRequestItem{}).
		Joins("JOIN commissions ON commissions.id = commission_payment_request_items.commission_id").
		Where("commissions.order_id = ?", orderID).
		Count(&count).Error
	return count, err
}

// FindPendingPlatformInWindow selects the pending platform-type commissions of
// one exchange house whose order was created inside [periodStart, periodEnd]
// and which are not attached to any payment request yet. Rows are locked for
// the duration of the transaction where the dialect supports it.
func (r *CommissionRepository) FindPendingPlatformInWindow(
	ctx context.Context,
	exchangeHouseID uint,
	periodStart, periodEnd time.Time,
) ([]model.Commission, error) {

	var commissions []model.Commission
	err := lockForUpdate(r.db.WithContext(ctx)).
		Joins("JOIN orders ON orders.id = commissions.order_id").
		Where("commissions.exchange_house_id = ?", exchangeHouseID).
		Where("commissions.type = ?", model.CommissionTypePlatform).
		Where("commissions.status = ?", model.CommissionStatusPending).
		Where("orders.created_at >= ? AND orders.created_at <= ?", periodStart, periodEnd).
		Where("NOT EXISTS (SELECT 1 FROM commission_payment_request_items i WHERE i.commission_id = commissions.id)").
		Order("commissions.id ASC").
		Find(&commissions).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":     "CommissionRepository",
			"op":       "FindPendingPlatformInWindow",
			"house_id": exchangeHouseID,
		}).WithError(err).Error("Failed to select pending platform commissions")
		return nil, err
	}
	return commissions, nil
}

// MarkPaidByRequestID flips every commission linked to the request to paid.
func (r *CommissionRepository) MarkPaidByRequestID(ctx context.Context, requestID uint, paidAt time.Time) error {
	err := r.db.WithContext(ctx).
		Model(&model.Commission{}).
		Where("id IN (SELECT commission_id FROM commission_payment_request_items WHERE request_id = ?)", requestID).
		Updates(map[string]interface{}{
			"status":  model.CommissionStatusPaid,
			"paid_at": paidAt,
		}).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":       "CommissionRepository",
			"op":         "MarkPaidByRequestID",
			"request_id": requestID,
		}).WithError(err).Error("Failed to mark commissions paid")
		return err
	}
	return nil
}
