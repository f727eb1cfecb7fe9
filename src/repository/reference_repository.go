package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"settlementapi/src/database"
	"settlementapi/src/model"
)

// ReferenceRepository reads the slow-moving reference data orders validate
// against: exchange houses and currency pairs.
type ReferenceRepository struct {
	db *gorm.DB
}

func NewReferenceRepository() *ReferenceRepository {
	return &ReferenceRepository{db: database.MainDB}
}

func NewReferenceRepositoryWithDB(db *gorm.DB) *ReferenceRepository {
	return &ReferenceRepository{db: db}
}

// FindExchangeHouse returns an exchange house by ID, (nil, nil) when absent.
func (r *ReferenceRepository) FindExchangeHouse(ctx context.Context, id uint) (*model.ExchangeHouse, error) {
	var house model.ExchangeHouse
	err := r.db.WithContext(ctx).First(&house, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &house, nil
}

// FindCurrencyPair returns a currency pair by ID, (nil, nil) when absent.
func (r *ReferenceRepository) FindCurrencyPair(ctx context.Context, id uint) (*model.CurrencyPair, error) {
	var pair model.CurrencyPair
	err := r.db.WithContext(ctx).First(&pair, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &pair, nil
}
