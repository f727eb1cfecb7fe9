package controller

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"settlementapi/src/commission"
	"settlementapi/src/model"
	"settlementapi/src/queue"
	"settlementapi/src/repository"
)

// OrderController owns the order lifecycle: creation, completion,
// cancellation and the commission side effects of each transition.
type OrderController struct {
	db           *gorm.DB
	publisher    queue.Publisher
	calcConfig   commission.Config
	minReasonLen int
}

func NewOrderController(db *gorm.DB, publisher queue.Publisher, cfg Config) *OrderController {
	return &OrderController{
		db:           db,
		publisher:    publisher,
		calcConfig:   cfg.CalcConfig(),
		minReasonLen: cfg.MinReasonLength,
	}
}

// CreateOrderInput is everything a tenant supplies to open an order.
type CreateOrderInput struct {
	ExchangeHouseID uint            `json:"exchange_house_id"`
	CurrencyPairID  uint            `json:"currency_pair_id"`
	UserID          uint            `json:"user_id"`
	CustomerID      *uint           `json:"customer_id,omitempty"`
	BaseAmount      decimal.Decimal `json:"base_amount"`
	AppliedRate     decimal.Decimal `json:"applied_rate"`

	// Optional; falls back to the exchange house defaults.
	CommissionModel        string          `json:"commission_model,omitempty"`
	HouseCommissionPercent decimal.Decimal `json:"house_commission_percent,omitempty"`

	// Spread / mixed model inputs; fall back to the pair rates.
	BuyRate  decimal.Decimal `json:"buy_rate,omitempty"`
	SellRate decimal.Decimal `json:"sell_rate,omitempty"`

	Notes string `json:"notes,omitempty"`
}

// CreateOrder validates the input against the pair and tenant limits, prices
// the order with the configured commission model and persists it pending.
// Commission rows are materialized asynchronously; completion has a
// synchronous fallback.
func (c *OrderController) CreateOrder(ctx context.Context, input CreateOrderInput) (*model.Order, error) {
	refRepo := repository.NewReferenceRepositoryWithDB(c.db)

	house, err := refRepo.FindExchangeHouse(ctx, input.ExchangeHouseID)
	if err != nil {
		return nil, err
	}
	if house == nil || !house.Active {
		return nil, model.NewValidationError("exchange_house_id", "unknown or inactive exchange house")
	}

	pair, err := refRepo.FindCurrencyPair(ctx, input.CurrencyPairID)
	if err != nil {
		return nil, err
	}
	if pair == nil || !pair.Active {
		return nil, model.NewValidationError("currency_pair_id", "unknown or inactive currency pair")
	}

	if err := validateAmountLimits(input.BaseAmount, pair, house); err != nil {
		return nil, err
	}

	commissionModel := input.CommissionModel
	if commissionModel == "" {
		commissionModel = house.CommissionModel
	}
	housePercent := input.HouseCommissionPercent
	if housePercent.IsZero() {
		housePercent = house.HouseCommissionPercent
	}
	buyRate := input.BuyRate
	if buyRate.IsZero() {
		buyRate = pair.BuyRate
	}
	sellRate := input.SellRate
	if sellRate.IsZero() {
		sellRate = pair.SellRate
	}

	result, err := commission.Compute(commission.Input{
		BaseAmount:             input.BaseAmount,
		AppliedRate:            input.AppliedRate,
		CalculationType:        pair.CalculationType,
		HouseCommissionPercent: housePercent,
		BuyRate:                buyRate,
		SellRate:               sellRate,
	}, commissionModel, c.calcConfig)
	if err != nil {
		return nil, err
	}

	order := &model.Order{
		OrderNumber:            "ORD-" + strings.ToUpper(uuid.NewString()),
		ExchangeHouseID:        house.ID,
		CurrencyPairID:         pair.ID,
		UserID:                 input.UserID,
		CustomerID:             input.CustomerID,
		BaseAmount:             input.BaseAmount,
		QuoteAmount:            result.QuoteAmount.Decimal(),
		MarketRate:             pair.MarketRate,
		AppliedRate:            input.AppliedRate,
		ExpectedMarginPercent:  marginPercent(pair.MarketRate, input.AppliedRate),
		CommissionModel:        commissionModel,
		HouseCommissionPercent: housePercent,
		BuyRate:                buyRate,
		SellRate:               sellRate,
		SpreadProfit:           result.SpreadProfit.Decimal(),
		HouseCommissionAmount:  result.HouseCommissionAmount.Decimal(),
		PlatformCommission:     result.PlatformCommission.Decimal(),
		ExchangeCommission:     result.ExchangeCommission.Decimal(),
		NetAmount:              result.NetAmount.Decimal(),
		Status:                 model.OrderStatusPending,
		Notes:                  input.Notes,
	}

	err = c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repository.NewOrderRepositoryWithDB(tx).Create(ctx, order); err != nil {
			return err
		}
		return appendAudit(ctx, tx, "order.created", "order", order.ID,
			nil, order, &order.ExchangeHouseID, &order.UserID)
	})
	if err != nil {
		return nil, err
	}

	// At-least-once task. A lost publish is recovered by the synchronous
	// fallback in CompleteOrder.
	if err := c.publisher.PublishMaterialize(ctx, order.ID); err != nil {
		Capture(ctx, repository.NewExceptionRepositoryWithDB(c.db),
			"order_controller", "CreateOrder", "error", err,
			map[string]interface{}{"order_id": order.ID})
	}

	logger.WithFields(map[string]interface{}{
		"order_id":     order.ID,
		"order_number": order.OrderNumber,
		"house_id":     order.ExchangeHouseID,
	}).Info("Order created")

	return order, nil
}

// MaterializeCommissions creates the platform and exchange-house commission
// rows of an order. Idempotent: redelivery of the task is a no-op once rows
// exist, and terminal orders without commissions stay without them.
func (c *OrderController) MaterializeCommissions(ctx context.Context, orderID uint) error {
	return c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := repository.NewOrderRepositoryWithDB(tx).FindByIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if order == nil {
			logger.WithField("order_id", orderID).Warn("Materialize task for unknown order, dropping")
			return nil
		}
		if order.Status == model.OrderStatusCancelled || order.Status == model.OrderStatusFailed {
			return nil
		}

		commRepo := repository.NewCommissionRepositoryWithDB(tx)
		exists, err := commRepo.ExistsForOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if exists {
			logger.WithField("order_id", orderID).Debug("Commissions already materialized, skipping")
			return nil
		}

		commissions, err := c.createCommissionRows(ctx, commRepo, order)
		if err != nil {
			return err
		}
		return appendAudit(ctx, tx, "commission.materialized", "order", order.ID,
			nil, commissions, &order.ExchangeHouseID, &order.UserID)
	})
}

// CompleteOrderInput carries the real outcome of the exchange.
type CompleteOrderInput struct {
	ActualRate decimal.Decimal `json:"actual_rate"`
	Notes      string          `json:"notes,omitempty"`

	// Cash box used for the currency movements. Zero skips ledger entries
	// (order settled outside any tracked cash box).
	PaymentMethodID uint `json:"payment_method_id,omitempty"`
}

// CompleteOrder recomputes commissions from the actual rate, finalizes the
// order and applies the base-in / quote-out ledger movements, all in one
// transaction.
func (c *OrderController) CompleteOrder(ctx context.Context, orderID uint, input CompleteOrderInput, actorID uint) (*model.Order, error) {
	if input.ActualRate.LessThanOrEqual(decimal.Zero) {
		return nil, model.NewValidationError("actual_rate", "must be positive")
	}

	var completed *model.Order
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		orderRepo := repository.NewOrderRepositoryWithDB(tx)

		order, err := orderRepo.FindByIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return model.ErrNotFound
		}
		if order.Status != model.OrderStatusPending && order.Status != model.OrderStatusProcessing {
			return model.ErrInvalidState
		}

		pair, err := repository.NewReferenceRepositoryWithDB(tx).FindCurrencyPair(ctx, order.CurrencyPairID)
		if err != nil {
			return err
		}
		if pair == nil {
			return model.ErrNotFound
		}

		result, err := commission.Compute(commission.Input{
			BaseAmount:             order.BaseAmount,
			AppliedRate:            input.ActualRate,
			CalculationType:        pair.CalculationType,
			HouseCommissionPercent: order.HouseCommissionPercent,
			BuyRate:                order.BuyRate,
			SellRate:               order.SellRate,
		}, order.CommissionModel, c.calcConfig)
		if err != nil {
			return err
		}

		before := *order

		now := time.Now().UTC()
		order.AppliedRate = input.ActualRate
		order.ActualMarginPercent = marginPercent(order.MarketRate, input.ActualRate)
		order.QuoteAmount = result.QuoteAmount.Decimal()
		order.SpreadProfit = result.SpreadProfit.Decimal()
		order.HouseCommissionAmount = result.HouseCommissionAmount.Decimal()
		order.PlatformCommission = result.PlatformCommission.Decimal()
		order.ExchangeCommission = result.ExchangeCommission.Decimal()
		order.NetAmount = result.NetAmount.Decimal()
		order.Status = model.OrderStatusCompleted
		order.CompletedAt = &now
		if input.Notes != "" {
			order.Notes = input.Notes
		}

		if err := orderRepo.Save(ctx, order); err != nil {
			return err
		}

		commRepo := repository.NewCommissionRepositoryWithDB(tx)
		existing, err := commRepo.FindByOrderID(ctx, orderID)
		if err != nil {
			return err
		}
		if len(existing) == 0 {
			// Materialization task not delivered yet: create synchronously.
			if _, err := c.createCommissionRows(ctx, commRepo, order); err != nil {
				return err
			}
		} else {
			for i := range existing {
				comm := &existing[i]
				if comm.Status != model.CommissionStatusPending {
					continue
				}
				switch comm.Type {
				case model.CommissionTypePlatform:
					comm.Amount = result.PlatformCommission.Decimal()
					comm.RatePercent = c.calcConfig.PlatformRatePercent
				case model.CommissionTypeExchangeHouse:
					comm.Amount = result.ExchangeCommission.Decimal()
					comm.RatePercent = order.HouseCommissionPercent
				}
				if err := commRepo.Save(ctx, comm); err != nil {
					return err
				}
			}
		}

		if input.PaymentMethodID > 0 {
			if err := c.applyOrderMovements(ctx, tx, order, pair, input.PaymentMethodID); err != nil {
				return err
			}
		}

		if err := appendAudit(ctx, tx, "order.completed", "order", order.ID,
			&before, order, &order.ExchangeHouseID, &actorID); err != nil {
			return err
		}

		completed = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.WithFields(map[string]interface{}{
		"order_id": completed.ID,
		"status":   completed.Status,
	}).Info("Order completed")

	return completed, nil
}

// CancelOrder moves a non-terminal order to cancelled, removing any
// materialized commission rows so nothing dangles.
func (c *OrderController) CancelOrder(ctx context.Context, orderID uint, reason string, actorID uint) (*model.Order, error) {
	return c.terminate(ctx, orderID, model.OrderStatusCancelled, "order.cancelled", reason, actorID)
}

// FailOrder moves a non-terminal order to failed. Same commission cleanup as
// cancellation.
func (c *OrderController) FailOrder(ctx context.Context, orderID uint, reason string, actorID uint) (*model.Order, error) {
	return c.terminate(ctx, orderID, model.OrderStatusFailed, "order.failed", reason, actorID)
}

func (c *OrderController) terminate(ctx context.Context, orderID uint, status, action, reason string, actorID uint) (*model.Order, error) {
	if len(strings.TrimSpace(reason)) < c.minReasonLen {
		return nil, model.ErrReasonTooShort
	}

	var terminated *model.Order
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		orderRepo := repository.NewOrderRepositoryWithDB(tx)

		order, err := orderRepo.FindByIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return model.ErrNotFound
		}
		if order.IsTerminal() {
			return model.ErrInvalidState
		}

		commRepo := repository.NewCommissionRepositoryWithDB(tx)
		attached, err := commRepo.AttachedCount(ctx, orderID)
		if err != nil {
			return err
		}
		if attached > 0 {
			return model.ErrReferentialConflict
		}
		if err := commRepo.DeleteByOrderID(ctx, orderID); err != nil {
			return err
		}

		before := *order

		now := time.Now().UTC()
		order.Status = status
		order.CancellationReason = reason
		order.CancelledBy = &actorID
		order.CancelledAt = &now

		if err := orderRepo.Save(ctx, order); err != nil {
			return err
		}
		if err := appendAudit(ctx, tx, action, "order", order.ID,
			&before, order, &order.ExchangeHouseID, &actorID); err != nil {
			return err
		}

		terminated = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.WithFields(map[string]interface{}{
		"order_id": terminated.ID,
		"status":   terminated.Status,
		"actor_id": actorID,
	}).Info("Order terminated")

	return terminated, nil
}

func (c *OrderController) createCommissionRows(
	ctx context.Context,
	commRepo *repository.CommissionRepository,
	order *model.Order,
) ([]model.Commission, error) {

	rows := []model.Commission{
		{
			OrderID:         order.ID,
			ExchangeHouseID: order.ExchangeHouseID,
			Type:            model.CommissionTypePlatform,
			RatePercent:     c.calcConfig.PlatformRatePercent,
			Amount:          order.PlatformCommission,
			BaseAmount:      order.BaseAmount,
			Status:          model.CommissionStatusPending,
		},
		{
			OrderID:         order.ID,
			ExchangeHouseID: order.ExchangeHouseID,
			Type:            model.CommissionTypeExchangeHouse,
			RatePercent:     order.HouseCommissionPercent,
			Amount:          order.ExchangeCommission,
			BaseAmount:      order.BaseAmount,
			Status:          model.CommissionStatusPending,
		},
	}

	for i := range rows {
		if err := commRepo.Create(ctx, &rows[i]); err != nil {
			return nil, err
		}
	}
	return rows, nil
}

// applyOrderMovements records the base-currency receipt and quote-currency
// disbursement of a completed order on the operator's cash box.
func (c *OrderController) applyOrderMovements(
	ctx context.Context,
	tx *gorm.DB,
	order *model.Order,
	pair *model.CurrencyPair,
	paymentMethodID uint,
) error {

	_, err := applyMovementTx(ctx, tx, movementInput{
		OperatorID:      order.UserID,
		PaymentMethodID: paymentMethodID,
		Currency:        pair.BaseCurrency,
		Type:            model.MovementTypeOrderIn,
		Amount:          order.BaseAmount,
		Description:     "order " + order.OrderNumber + " base received",
		OrderID:         &order.ID,
	})
	if err != nil {
		return err
	}

	_, err = applyMovementTx(ctx, tx, movementInput{
		OperatorID:      order.UserID,
		PaymentMethodID: paymentMethodID,
		Currency:        pair.QuoteCurrency,
		Type:            model.MovementTypeOrderOut,
		Amount:          order.QuoteAmount,
		Description:     "order " + order.OrderNumber + " quote disbursed",
		OrderID:         &order.ID,
	})
	return err
}

func validateAmountLimits(amount decimal.Decimal, pair *model.CurrencyPair, house *model.ExchangeHouse) error {
	minAmount := pair.MinAmount
	if house.MinAmountOverride.Valid {
		minAmount = house.MinAmountOverride.Decimal
	}
	maxAmount := pair.MaxAmount
	if house.MaxAmountOverride.Valid {
		maxAmount = house.MaxAmountOverride.Decimal
	}

	if minAmount.IsPositive() && amount.LessThan(minAmount) {
		return model.NewValidationError("base_amount", "below the minimum of "+minAmount.String())
	}
	if maxAmount.IsPositive() && amount.GreaterThan(maxAmount) {
		return model.NewValidationError("base_amount", "above the maximum of "+maxAmount.String())
	}
	return nil
}

// marginPercent is the percentage difference between the market rate and the
// rate actually applied to the customer.
func marginPercent(market, applied decimal.Decimal) decimal.Decimal {
	if market.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	return applied.Sub(market).Div(market).Mul(decimal.NewFromInt(100))
}
