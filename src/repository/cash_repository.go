package repository

import (
	"context"
	"errors"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"settlementapi/src/database"
	"settlementapi/src/model"
)

// CashRepository handles operator balances and the append-only movement log.
type CashRepository struct {
	db *gorm.DB
}

func NewCashRepository() *CashRepository {
	return &CashRepository{db: database.MainDB}
}

func NewCashRepositoryWithDB(db *gorm.DB) *CashRepository {
	return &CashRepository{db: db}
}

// GetOrCreateBalanceForUpdate loads the balance row for the
// (operator, payment method, currency) triple under a row lock, creating a
// zero-initialized row the first time the triple is touched. Must be called
// inside a transaction.
func (r *CashRepository) GetOrCreateBalanceForUpdate(
	ctx context.Context,
	operatorID, paymentMethodID uint,
	currency string,
) (*model.OperatorCashBalance, error) {

	var balance model.OperatorCashBalance
	err := lockForUpdate(r.db.WithContext(ctx)).
		Where("operator_id = ? AND payment_method_id = ? AND currency = ?",
			operatorID, paymentMethodID, currency).
		First(&balance).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		balance = model.OperatorCashBalance{
			OperatorID:      operatorID,
			PaymentMethodID: paymentMethodID,
			Currency:        currency,
		}
		if err := r.db.WithContext(ctx).Create(&balance).Error; err != nil {
			logger.WithFields(map[string]interface{}{
				"repo":        "CashRepository",
				"op":          "GetOrCreateBalanceForUpdate",
				"operator_id": operatorID,
				"currency":    currency,
			}).WithError(err).Error("Failed to create balance row")
			return nil, err
		}
		return &balance, nil
	}
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":        "CashRepository",
			"op":          "GetOrCreateBalanceForUpdate",
			"operator_id": operatorID,
			"currency":    currency,
		}).WithError(err).Error("Failed to lock balance row")
		return nil, err
	}
	return &balance, nil
}

// UpdateBalance writes the new balance value of an already-locked row.
func (r *CashRepository) UpdateBalance(ctx context.Context, balance *model.OperatorCashBalance) error {
	err := r.db.WithContext(ctx).
		Model(&model.OperatorCashBalance{}).
		Where("id = ?", balance.ID).
		Update("balance", balance.Balance).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":       "CashRepository",
			"op":         "UpdateBalance",
			"balance_id": balance.ID,
		}).WithError(err).Error("Failed to update balance")
		return err
	}
	return nil
}

// CreateMovement appends one movement to the ledger.
func (r *CashRepository) CreateMovement(ctx context.Context, movement *model.CashMovement) error {
	logger.WithFields(map[string]interface{}{
		"repo":        "CashRepository",
		"op":          "CreateMovement",
		"operator_id": movement.OperatorID,
		"type":        movement.Type,
		"currency":    movement.Currency,
	}).Debug("Appending cash movement")

	if err := r.db.WithContext(ctx).Create(movement).Error; err != nil {
		logger.WithFields(map[string]interface{}{
			"repo": "CashRepository",
			"op":   "CreateMovement",
		}).WithError(err).Error("Failed to append cash movement")
		return err
	}
	return nil
}

// FindBalance returns the balance row for a triple, (nil, nil) when absent.
func (r *CashRepository) FindBalance(
	ctx context.Context,
	operatorID, paymentMethodID uint,
	currency string,
) (*model.OperatorCashBalance, error) {

	var balance model.OperatorCashBalance
	err := r.db.WithContext(ctx).
		Where("operator_id = ? AND payment_method_id = ? AND currency = ?",
			operatorID, paymentMethodID, currency).
		First(&balance).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &balance, nil
}

// ListBalances returns all balance rows of one operator.
func (r *CashRepository) ListBalances(ctx context.Context, operatorID uint) ([]model.OperatorCashBalance, error) {
	var balances []model.OperatorCashBalance
	err := r.db.WithContext(ctx).
		Where("operator_id = ?", operatorID).
		Order("currency ASC").
		Find(&balances).Error
	return balances, err
}

// ListMovements returns the latest movements of one operator, newest first.
func (r *CashRepository) ListMovements(ctx context.Context, operatorID uint, limit int) ([]model.CashMovement, error) {
	if limit <= 0 {
		limit = 50
	}

	var movements []model.CashMovement
	err := r.db.WithContext(ctx).
		Where("operator_id = ?", operatorID).
		Order("id DESC").
		Limit(limit).
		Find(&movements).Error
	return movements, err
}
