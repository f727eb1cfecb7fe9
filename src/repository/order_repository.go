package repository

import (
	"context"
	"errors"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"settlementapi/src/database"
	"settlementapi/src/model"
)

// OrderRepository handles read/write operations for exchange orders.
type OrderRepository struct {
	db *gorm.DB
}

// NewOrderRepository creates a new repository instance using the main read/write database.
func NewOrderRepository() *OrderRepository {
	return &OrderRepository{db: database.MainDB}
}

// NewOrderRepositoryWithDB binds the repository to a specific *gorm.DB,
// typically a transaction or a test database.
func NewOrderRepositoryWithDB(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Create inserts a new order. The given order is updated with the generated
// ID and timestamps.
func (r *OrderRepository) Create(ctx context.Context, order *model.Order) error {
	logger.WithFields(map[string]interface{}{
		"repo":         "OrderRepository",
		"op":           "Create",
		"order_number": order.OrderNumber,
		"house_id":     order.ExchangeHouseID,
	}).Debug("Creating new order")

	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		logger.WithFields(map[string]interface{}{
			"repo": "OrderRepository",
			"op":   "Create",
		}).WithError(err).Error("Failed to create order")
		return err
	}
	return nil
}

// FindByID fetches a single order by primary key. Returns (nil, nil) when the
// order does not exist.
func (r *OrderRepository) FindByID(ctx context.Context, id uint) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).First(&order, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		logger.WithFields(map[string]interface{}{
			"repo": "OrderRepository",
			"op":   "FindByID",
			"id":   id,
		}).WithError(err).Error("Failed to fetch order by ID")
		return nil, err
	}
	return &order, nil
}

// FindByIDForUpdate fetches an order under a row lock so a lifecycle
// transition cannot race another transition on the same order. The lock is
// only emitted on dialects that support it.
func (r *OrderRepository) FindByIDForUpdate(ctx context.Context, id uint) (*model.Order, error) {
	var order model.Order
	err := lockForUpdate(r.db.WithContext(ctx)).First(&order, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		logger.WithFields(map[string]interface{}{
			"repo": "OrderRepository",
			"op":   "FindByIDForUpdate",
			"id":   id,
		}).WithError(err).Error("Failed to lock order")
		return nil, err
	}
	return &order, nil
}

// FindByOrderNumber fetches an order by its public number. Returns (nil, nil)
// when not found.
func (r *OrderRepository) FindByOrderNumber(ctx context.Context, number string) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).Where("order_number = ?", number).First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// Save persists all fields of an already-loaded order.
func (r *OrderRepository) Save(ctx context.Context, order *model.Order) error {
	if err := r.db.WithContext(ctx).Save(order).Error; err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":     "OrderRepository",
			"op":       "Save",
			"order_id": order.ID,
		}).WithError(err).Error("Failed to save order")
		return err
	}
	return nil
}

// FindLatest returns the latest orders for one exchange house, newest first.
func (r *OrderRepository) FindLatest(ctx context.Context, exchangeHouseID uint, limit int) ([]model.Order, error) {
	if limit <= 0 {
		limit = 20
	}

	var orders []model.Order
	err := r.db.WithContext(ctx).
		Where("exchange_house_id = ?", exchangeHouseID).
		Order("id DESC").
		Limit(limit).
		Find(&orders).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":     "OrderRepository",
			"op":       "FindLatest",
			"house_id": exchangeHouseID,
		}).WithError(err).Error("Failed to fetch latest orders")
		return nil, err
	}
	return orders, nil
}
