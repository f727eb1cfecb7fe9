package controller

import (
	"context"

	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"settlementapi/src/model"
	"settlementapi/src/repository"
)

// CashController owns the operator cash ledger: manual cash-box actions and
// the balance/movement invariants behind them.
type CashController struct {
	db *gorm.DB
}

func NewCashController(db *gorm.DB) *CashController {
	return &CashController{db: db}
}

// RegisterCashMovementInput describes one manual cash-box action.
type RegisterCashMovementInput struct {
	OperatorID      uint            `json:"operator_id"`
	PaymentMethodID uint            `json:"payment_method_id"`
	Currency        string          `json:"currency"`
	Type            string          `json:"type"`
	Amount          decimal.Decimal `json:"amount"`
	Description     string          `json:"description,omitempty"`
}

// RegisterCashMovement applies one deposit, withdrawal or adjustment: one
// movement row and one balance mutation in a single transaction. Withdrawals
// that exceed the balance fail without writing anything.
func (c *CashController) RegisterCashMovement(ctx context.Context, input RegisterCashMovementInput, actorID uint) (*model.CashMovement, error) {
	if err := validateMovementInput(input); err != nil {
		return nil, err
	}

	var movement *model.CashMovement
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		movement, err = applyMovementTx(ctx, tx, movementInput{
			OperatorID:      input.OperatorID,
			PaymentMethodID: input.PaymentMethodID,
			Currency:        input.Currency,
			Type:            input.Type,
			Amount:          input.Amount,
			Description:     input.Description,
		})
		if err != nil {
			return err
		}

		return appendAudit(ctx, tx, "cash.movement_registered", "cash_movement", movement.ID,
			nil, movement, nil, &actorID)
	})
	if err != nil {
		return nil, err
	}

	logger.WithFields(map[string]interface{}{
		"movement_id": movement.ID,
		"operator_id": movement.OperatorID,
		"type":        movement.Type,
		"currency":    movement.Currency,
	}).Info("Cash movement registered")

	return movement, nil
}

// ListBalances returns the cash balances of one operator.
func (c *CashController) ListBalances(ctx context.Context, operatorID uint) ([]model.OperatorCashBalance, error) {
	return repository.NewCashRepositoryWithDB(c.db).ListBalances(ctx, operatorID)
}

// ListMovements returns the latest ledger entries of one operator.
func (c *CashController) ListMovements(ctx context.Context, operatorID uint, limit int) ([]model.CashMovement, error) {
	return repository.NewCashRepositoryWithDB(c.db).ListMovements(ctx, operatorID, limit)
}

// movementInput is the internal shape shared by manual cash-box actions and
// order settlement movements.
type movementInput struct {
	OperatorID      uint
	PaymentMethodID uint
	Currency        string
	Type            string
	Amount          decimal.Decimal
	Description     string
	OrderID         *uint
}

// applyMovementTx appends one movement and mutates the balance inside the
// caller's transaction. The balance row is locked for the duration so
// concurrent movements on the same triple serialize.
func applyMovementTx(ctx context.Context, tx *gorm.DB, input movementInput) (*model.CashMovement, error) {
	repo := repository.NewCashRepositoryWithDB(tx)

	balance, err := repo.GetOrCreateBalanceForUpdate(ctx, input.OperatorID, input.PaymentMethodID, input.Currency)
	if err != nil {
		return nil, err
	}

	signed := signedAmount(input.Type, input.Amount)

	if input.Type == model.MovementTypeWithdrawal || input.Type == model.MovementTypeOrderOut {
		if balance.Balance.LessThan(signed.Neg()) {
			return nil, model.ErrInsufficientFunds
		}
	}

	movement := &model.CashMovement{
		OperatorID:      input.OperatorID,
		PaymentMethodID: input.PaymentMethodID,
		OrderID:         input.OrderID,
		Type:            input.Type,
		Currency:        input.Currency,
		Amount:          signed,
		BalanceBefore:   balance.Balance,
		BalanceAfter:    balance.Balance.Add(signed),
		Description:     input.Description,
	}

	if err := repo.CreateMovement(ctx, movement); err != nil {
		return nil, err
	}

	balance.Balance = movement.BalanceAfter
	if err := repo.UpdateBalance(ctx, balance); err != nil {
		return nil, err
	}
	return movement, nil
}

// signedAmount normalizes the movement amount: inflows positive, outflows
// negative, adjustments keep the caller's sign.
func signedAmount(movementType string, amount decimal.Decimal) decimal.Decimal {
	switch movementType {
	case model.MovementTypeWithdrawal, model.MovementTypeOrderOut:
		return amount.Abs().Neg()
	case model.MovementTypeAdjustment:
		return amount
	default:
		return amount.Abs()
	}
}

func validateMovementInput(input RegisterCashMovementInput) error {
	fields := map[string]string{}

	switch input.Type {
	case model.MovementTypeDeposit, model.MovementTypeWithdrawal, model.MovementTypeAdjustment:
	case model.MovementTypeOrderIn, model.MovementTypeOrderOut:
		fields["type"] = "order movements are created by order completion, not manually"
	default:
		fields["type"] = "unknown movement type"
	}

	if input.Type == model.MovementTypeAdjustment {
		if input.Amount.IsZero() {
			fields["amount"] = "must not be zero"
		}
	} else if input.Amount.LessThanOrEqual(decimal.Zero) {
		fields["amount"] = "must be positive"
	}

	if input.Currency == "" {
		fields["currency"] = "is required"
	}
	if input.OperatorID == 0 {
		fields["operator_id"] = "is required"
	}
	if input.PaymentMethodID == 0 {
		fields["payment_method_id"] = "is required"
	}

	if len(fields) > 0 {
		return &model.ValidationError{Fields: fields}
	}
	return nil
}
