package controller_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"settlementapi/src/controller"
	"settlementapi/src/model"
)

func depositInput(amount string) controller.RegisterCashMovementInput {
	return controller.RegisterCashMovementInput{
		OperatorID:      3,
		PaymentMethodID: 1,
		Currency:        "USD",
		Type:            model.MovementTypeDeposit,
		Amount:          d(amount),
	}
}

func TestRegisterDepositCreatesBalanceAndMovement(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	movement, err := f.cash.RegisterCashMovement(ctx, depositInput("250.50"), 3)
	require.NoError(t, err)

	assert.True(t, movement.BalanceBefore.Equal(d("0")))
	assert.True(t, movement.Amount.Equal(d("250.50")))
	assert.True(t, movement.BalanceAfter.Equal(d("250.50")))

	balances, err := f.cash.ListBalances(ctx, 3)
	require.NoError(t, err)
	require.Len(t, balances, 1)
	assert.True(t, balances[0].Balance.Equal(d("250.50")))
	assert.Equal(t, "USD", balances[0].Currency)
}

func TestRegisterWithdrawalInsufficientFunds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.cash.RegisterCashMovement(ctx, depositInput("40"), 3)
	require.NoError(t, err)

	input := depositInput("100")
	input.Type = model.MovementTypeWithdrawal
	_, err = f.cash.RegisterCashMovement(ctx, input, 3)
	require.ErrorIs(t, err, model.ErrInsufficientFunds)

	// nothing written: balance untouched, no second movement
	balances, err := f.cash.ListBalances(ctx, 3)
	require.NoError(t, err)
	require.Len(t, balances, 1)
	assert.True(t, balances[0].Balance.Equal(d("40")))

	movements, err := f.cash.ListMovements(ctx, 3, 10)
	require.NoError(t, err)
	assert.Len(t, movements, 1)
}

func TestRegisterWithdrawalDebitsBalance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.cash.RegisterCashMovement(ctx, depositInput("100"), 3)
	require.NoError(t, err)

	input := depositInput("100")
	input.Type = model.MovementTypeWithdrawal
	movement, err := f.cash.RegisterCashMovement(ctx, input, 3)
	require.NoError(t, err)

	// drain to exactly zero is allowed
	assert.True(t, movement.Amount.Equal(d("-100")))
	assert.True(t, movement.BalanceAfter.Equal(d("0")))
}

func TestRegisterAdjustmentKeepsSign(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.cash.RegisterCashMovement(ctx, depositInput("100"), 3)
	require.NoError(t, err)

	input := depositInput("0")
	input.Type = model.MovementTypeAdjustment
	input.Amount = d("-12.75")
	input.Description = "till recount shortfall"
	movement, err := f.cash.RegisterCashMovement(ctx, input, 3)
	require.NoError(t, err)

	assert.True(t, movement.Amount.Equal(d("-12.75")))
	assert.True(t, movement.BalanceAfter.Equal(d("87.25")))
}

func TestRegisterCashMovementValidation(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name      string
		mutate    func(input *controller.RegisterCashMovementInput)
		wantField string
	}{
		{
			name:      "order movements are not manual",
			mutate:    func(input *controller.RegisterCashMovementInput) { input.Type = model.MovementTypeOrderIn },
			wantField: "type",
		},
		{
			name:      "unknown type",
			mutate:    func(input *controller.RegisterCashMovementInput) { input.Type = "transfer" },
			wantField: "type",
		},
		{
			name: "zero adjustment",
			mutate: func(input *controller.RegisterCashMovementInput) {
				input.Type = model.MovementTypeAdjustment
				input.Amount = d("0")
			},
			wantField: "amount",
		},
		{
			name:      "negative deposit",
			mutate:    func(input *controller.RegisterCashMovementInput) { input.Amount = d("-10") },
			wantField: "amount",
		},
		{
			name:      "missing currency",
			mutate:    func(input *controller.RegisterCashMovementInput) { input.Currency = "" },
			wantField: "currency",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := depositInput("10")
			tt.mutate(&input)

			_, err := f.cash.RegisterCashMovement(context.Background(), input, 3)
			require.Error(t, err)

			var validationErr *model.ValidationError
			require.ErrorAs(t, err, &validationErr)
			assert.Contains(t, validationErr.Fields, tt.wantField)
		})
	}
}

func TestBalancesAreIsolatedPerCurrencyAndMethod(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.cash.RegisterCashMovement(ctx, depositInput("100"), 3)
	require.NoError(t, err)

	other := depositInput("200")
	other.Currency = "VES"
	_, err = f.cash.RegisterCashMovement(ctx, other, 3)
	require.NoError(t, err)

	method2 := depositInput("300")
	method2.PaymentMethodID = 2
	_, err = f.cash.RegisterCashMovement(ctx, method2, 3)
	require.NoError(t, err)

	balances, err := f.cash.ListBalances(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, balances, 3)
}

func TestCashMovementsAreAppendOnly(t *testing.T) {
	f := newFixture(t)

	movement, err := f.cash.RegisterCashMovement(context.Background(), depositInput("10"), 3)
	require.NoError(t, err)

	err = f.db.Model(movement).Update("amount", d("999")).Error
	require.ErrorIs(t, err, model.ErrStorageIntegrityViolation)

	err = f.db.Delete(movement).Error
	require.ErrorIs(t, err, model.ErrStorageIntegrityViolation)
}
