package repository

import (
	"context"
	"errors"
	"time"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"settlementapi/src/database"
	"settlementapi/src/model"
)

// PaymentRequestRepository handles commission payment requests and the link
// rows binding them to the commissions they cover.
type PaymentRequestRepository struct {
	db *gorm.DB
}

func NewPaymentRequestRepository() *PaymentRequestRepository {
	return &PaymentRequestRepository{db: database.MainDB}
}

func NewPaymentRequestRepositoryWithDB(db *gorm.DB) *PaymentRequestRepository {
	return &PaymentRequestRepository{db: db}
}

// ExistsForPeriod reports whether a request already covers the exact
// (exchange house, period) pair.
func (r *PaymentRequestRepository) ExistsForPeriod(
	ctx context.Context,
	exchangeHouseID uint,
	periodStart, periodEnd time.Time,
) (bool, error) {

	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.CommissionPaymentRequest{}).
		Where("exchange_house_id = ? AND period_start = ? AND period_end = ?",
			exchangeHouseID, periodStart, periodEnd).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Create inserts a new payment request. A duplicate (house, period) pair is
// translated to ErrDuplicatePeriod via the unique index, which also covers
// concurrent generation calls the pre-check cannot see.
func (r *PaymentRequestRepository) Create(ctx context.Context, req *model.CommissionPaymentRequest) error {
	logger.WithFields(map[string]interface{}{
		"repo":     "PaymentRequestRepository",
		"op":       "Create",
		"house_id": req.ExchangeHouseID,
	}).Debug("Creating payment request")

	err := r.db.WithContext(ctx).Create(req).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return model.ErrDuplicatePeriod
		}
		logger.WithFields(map[string]interface{}{
			"repo": "PaymentRequestRepository",
			"op":   "Create",
		}).WithError(err).Error("Failed to create payment request")
		return err
	}
	return nil
}

// AttachCommissions links the request to the given commission IDs. The unique
// index on commission_id turns a concurrent double-attach into
// ErrReferentialConflict.
func (r *PaymentRequestRepository) AttachCommissions(ctx context.Context, requestID uint, commissionIDs []uint) error {
	items := make([]model.CommissionPaymentRequestItem, 0, len(commissionIDs))
	for _, id := range commissionIDs {
		items = append(items, model.CommissionPaymentRequestItem{
			RequestID:    requestID,
			CommissionID: id,
		})
	}

	err := r.db.WithContext(ctx).Create(&items).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return model.ErrReferentialConflict
		}
		logger.WithFields(map[string]interface{}{
			"repo":       "PaymentRequestRepository",
			"op":         "AttachCommissions",
			"request_id": requestID,
		}).WithError(err).Error("Failed to attach commissions")
		return err
	}
	return nil
}

// DetachCommissions removes all link rows of a request, returning its
// commissions to the selectable pool. Used when a request is cancelled.
func (r *PaymentRequestRepository) DetachCommissions(ctx context.Context, requestID uint) error {
	return r.db.WithContext(ctx).
		Where("request_id = ?", requestID).
		Delete(&model.CommissionPaymentRequestItem{}).Error
}

// FindByID fetches a request by primary key, (nil, nil) when absent.
func (r *PaymentRequestRepository) FindByID(ctx context.Context, id uint) (*model.CommissionPaymentRequest, error) {
	var req model.CommissionPaymentRequest
	err := r.db.WithContext(ctx).First(&req, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &req, nil
}

// FindByIDForUpdate fetches a request under a row lock so concurrent workflow
// transitions serialize.
func (r *PaymentRequestRepository) FindByIDForUpdate(ctx context.Context, id uint) (*model.CommissionPaymentRequest, error) {
	var req model.CommissionPaymentRequest
	err := lockForUpdate(r.db.WithContext(ctx)).First(&req, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &req, nil
}

// Save persists all fields of an already-loaded request.
func (r *PaymentRequestRepository) Save(ctx context.Context, req *model.CommissionPaymentRequest) error {
	if err := r.db.WithContext(ctx).Save(req).Error; err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":       "PaymentRequestRepository",
			"op":         "Save",
			"request_id": req.ID,
		}).WithError(err).Error("Failed to save payment request")
		return err
	}
	return nil
}

// ListItems returns the link rows of a request.
func (r *PaymentRequestRepository) ListItems(ctx context.Context, requestID uint) ([]model.CommissionPaymentRequestItem, error) {
	var items []model.CommissionPaymentRequestItem
	err := r.db.WithContext(ctx).
		Where("request_id = ?", requestID).
		Order("id ASC").
		Find(&items).Error
	return items, err
}

// ListByHouse returns the requests of one exchange house, newest first.
func (r *PaymentRequestRepository) ListByHouse(ctx context.Context, exchangeHouseID uint, limit int) ([]model.CommissionPaymentRequest, error) {
	if limit <= 0 {
		limit = 20
	}

	var reqs []model.CommissionPaymentRequest
	err := r.db.WithContext(ctx).
		Where("exchange_house_id = ?", exchangeHouseID).
		Order("id DESC").
		Limit(limit).
		Find(&reqs).Error
	return reqs, err
}
